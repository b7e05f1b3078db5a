package core

// Runs a fixed pass order over a Layer-0 instruction stream: dead-code
// elimination, constant propagation, constant folding, redundant-move
// elimination, peephole, register coalescing (§4.2). Liveness is computed
// once, inside dead-code elimination; the later passes do not consult it.

// OptimizationMetrics reports the effect of a single Optimize call.
type OptimizationMetrics struct {
	UnoptInstr   int
	OptInstr     int
	Removed      int
	UnoptRegs    int
	RegReduction int
}

// Optimize runs the full fixed pipeline and returns the optimized stream
// plus its metrics.
func Optimize(instrs []Instruction) ([]Instruction, OptimizationMetrics) {
	unoptInstr := len(instrs)
	unoptRegs := len(CountUsages(instrs))

	cur := eliminateDeadCode(instrs)
	cur = propagateConstants(cur)
	cur = foldConstants(cur)
	cur = eliminateRedundantMoves(cur)
	cur = peephole(cur)
	cur = coalesceRegisters(cur)

	optRegs := len(CountUsages(cur))
	metrics := OptimizationMetrics{
		UnoptInstr:   unoptInstr,
		OptInstr:     len(cur),
		Removed:      unoptInstr - len(cur),
		UnoptRegs:    unoptRegs,
		RegReduction: unoptRegs - optRegs,
	}
	return cur, metrics
}

// eliminateDeadCode drops instructions whose writes are entirely outside the
// live-out set and which have no side effects. The final instruction in the
// stream is always retained, since it is the program's potential observable
// output (§4.2, §9 open question).
func eliminateDeadCode(instrs []Instruction) []Instruction {
	if len(instrs) == 0 {
		return instrs
	}
	liveness := ComputeLiveness(instrs)
	keep := make([]bool, len(instrs))
	for i, in := range instrs {
		if i == len(instrs)-1 {
			keep[i] = true
			continue
		}
		if in.HasSideEffects() {
			keep[i] = true
			continue
		}
		writes := in.Writes()
		if len(writes) == 0 {
			// No writes and no side effects: only LabelMarker/Return/Check
			// reach here among side-effect-free ops; labels and returns are
			// control structure and must be retained.
			keep[i] = in.Op == OpLabel || in.Op == OpReturn
			continue
		}
		anyLive := false
		for _, w := range writes {
			if liveness.IsLiveAfter(i, w) {
				anyLive = true
				break
			}
		}
		keep[i] = anyLive
	}
	out := make([]Instruction, 0, len(instrs))
	for i, in := range instrs {
		if keep[i] {
			out = append(out, in)
		}
	}
	return out
}

// propagateConstants tracks reg -> reg-of-known-constant through Move
// chains and substitutes tracked operands into subsequent reads.
func propagateConstants(instrs []Instruction) []Instruction {
	known := make(map[Reg]Reg)
	sub := func(r Reg) Reg {
		if k, ok := known[r]; ok {
			return k
		}
		return r
	}
	out := make([]Instruction, len(instrs))
	for i, in := range instrs {
		switch in.Op {
		case OpMove:
			in.Src = sub(in.Src)
			known[in.Dst] = in.Src
		case OpApply:
			in.Fn, in.Arg = sub(in.Fn), sub(in.Arg)
			delete(known, in.Out)
		case OpAlloc:
			in.Type, in.Val = sub(in.Type), sub(in.Val)
			delete(known, in.Out)
		case OpConsume:
			in.Resource = sub(in.Resource)
			delete(known, in.Out)
		case OpSelect:
			in.Cond, in.T, in.F = sub(in.Cond), sub(in.T), sub(in.F)
			delete(known, in.Out)
		case OpMatch:
			in.Sum = sub(in.Sum)
			delete(known, in.LeftVar)
			delete(known, in.RightVar)
		case OpReturn:
			if in.HasResult {
				in.Result = sub(in.Result)
			}
		case OpCompose:
			in.First, in.Second = sub(in.First), sub(in.Second)
			delete(known, in.Out)
		case OpTensor:
			in.A, in.B = sub(in.A), sub(in.B)
			delete(known, in.Out)
		case OpTransform:
			in.In = sub(in.In)
			delete(known, in.Out)
		case OpCheck:
			for j, r := range in.CheckRegs {
				in.CheckRegs[j] = sub(r)
			}
		case OpPerform:
			for j, r := range in.Args {
				in.Args[j] = sub(r)
			}
		case OpWitness:
			delete(known, in.Out)
		}
		out[i] = in
	}
	return out
}

// foldConstants tracks reg -> materialized value through Witness and Move,
// recording the capability required by §4.2. Arithmetic folding on Apply is
// reserved for when the source language exposes primitive arithmetic; with
// only opaque witnessed values in the core ISA, operands are never both
// known non-opaque constants, so folding is a structural no-op here.
func foldConstants(instrs []Instruction) []Instruction {
	constOf := make(map[Reg]Reg)
	for _, in := range instrs {
		switch in.Op {
		case OpWitness:
			constOf[in.Out] = in.Out
		case OpMove:
			if _, ok := constOf[in.Src]; ok {
				constOf[in.Dst] = constOf[in.Src]
			} else {
				delete(constOf, in.Dst)
			}
		case OpApply:
			_, fnConst := constOf[in.Fn]
			_, argConst := constOf[in.Arg]
			if fnConst && argConst {
				// Both operands are known constants; the core ISA has no
				// arithmetic semantics to fold over, so this is a
				// structural no-op that preserves the instruction.
			}
		}
	}
	return instrs
}

// eliminateRedundantMoves drops Move{r,r}.
func eliminateRedundantMoves(instrs []Instruction) []Instruction {
	out := make([]Instruction, 0, len(instrs))
	for _, in := range instrs {
		if in.Op == OpMove && in.Src == in.Dst {
			continue
		}
		out = append(out, in)
	}
	return out
}
