package core

// Builds a union-find over Move{src,dst} chains and rewrites every read and
// write to its representative register, eliminating the remaining Move
// instructions whose operands now coincide. Cycles in the chain (which
// cannot arise from acyclic code but are defended against regardless) are
// broken at the first revisit to guarantee termination.

type unionFind struct {
	parent map[Reg]Reg
}

func newUnionFind() *unionFind { return &unionFind{parent: make(map[Reg]Reg)} }

func (u *unionFind) find(r Reg) Reg {
	visited := make(map[Reg]struct{})
	for {
		if _, seen := visited[r]; seen {
			// Cycle detected; break by treating r as its own representative.
			return r
		}
		visited[r] = struct{}{}
		p, ok := u.parent[r]
		if !ok || p == r {
			return r
		}
		r = p
	}
}

func (u *unionFind) union(a, b Reg) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	u.parent[ra] = rb
}

// coalesceRegisters rewrites all instruction operands by their union-find
// representative and drops Moves that became no-ops as a result.
func coalesceRegisters(instrs []Instruction) []Instruction {
	uf := newUnionFind()
	for _, in := range instrs {
		if in.Op == OpMove {
			uf.union(in.Src, in.Dst)
		}
	}

	rewrite := func(r Reg) Reg { return uf.find(r) }

	out := make([]Instruction, 0, len(instrs))
	for _, in := range instrs {
		switch in.Op {
		case OpMove:
			in.Src, in.Dst = rewrite(in.Src), rewrite(in.Dst)
			if in.Src == in.Dst {
				continue
			}
		case OpApply:
			in.Fn, in.Arg, in.Out = rewrite(in.Fn), rewrite(in.Arg), rewrite(in.Out)
		case OpAlloc:
			in.Type, in.Val, in.Out = rewrite(in.Type), rewrite(in.Val), rewrite(in.Out)
		case OpConsume:
			in.Resource, in.Out = rewrite(in.Resource), rewrite(in.Out)
		case OpSelect:
			in.Cond, in.T, in.F, in.Out = rewrite(in.Cond), rewrite(in.T), rewrite(in.F), rewrite(in.Out)
		case OpWitness:
			in.Out = rewrite(in.Out)
		case OpMatch:
			in.Sum, in.LeftVar, in.RightVar = rewrite(in.Sum), rewrite(in.LeftVar), rewrite(in.RightVar)
		case OpReturn:
			if in.HasResult {
				in.Result = rewrite(in.Result)
			}
		case OpCompose:
			in.First, in.Second, in.Out = rewrite(in.First), rewrite(in.Second), rewrite(in.Out)
		case OpTensor:
			in.A, in.B, in.Out = rewrite(in.A), rewrite(in.B), rewrite(in.Out)
		case OpTransform:
			in.In, in.Out = rewrite(in.In), rewrite(in.Out)
		case OpCheck:
			for i, r := range in.CheckRegs {
				in.CheckRegs[i] = rewrite(r)
			}
		case OpPerform:
			for i, r := range in.Args {
				in.Args[i] = rewrite(r)
			}
		}
		out = append(out, in)
	}
	return out
}
