package core

// Local, adjacent-instruction rewrites (§4.2):
//   Move{a,b}; Move{b,c}          ⇒ Move{a,c}   (b not read by any later instruction)
//   Alloc{t,v,r}; Consume{r,o}    ⇒ Move{v,o}    (allocate-then-immediately-consume)

// peephole repeatedly applies the rewrite rules until a pass makes no
// further changes, so that a chain of rewrites (e.g. three consecutive
// moves) fully collapses.
func peephole(instrs []Instruction) []Instruction {
	cur := instrs
	for {
		next, changed := peepholeOnce(cur)
		if !changed {
			return next
		}
		cur = next
	}
}

func peepholeOnce(instrs []Instruction) ([]Instruction, bool) {
	out := make([]Instruction, 0, len(instrs))
	changed := false
	i := 0
	for i < len(instrs) {
		if i+1 < len(instrs) {
			a, b := instrs[i], instrs[i+1]

			if a.Op == OpMove && b.Op == OpMove && a.Dst == b.Src && !usedBetween(instrs, i+1, len(instrs), a.Dst, i+1) {
				out = append(out, Instruction{Op: OpMove, Src: a.Src, Dst: b.Dst})
				i += 2
				changed = true
				continue
			}

			if a.Op == OpAlloc && b.Op == OpConsume && a.Out == b.Resource {
				out = append(out, Instruction{Op: OpMove, Src: a.Val, Dst: b.Out})
				i += 2
				changed = true
				continue
			}
		}
		out = append(out, instrs[i])
		i++
	}
	return out, changed
}

// usedBetween reports whether r is read by any instruction in [from, to)
// other than the skip index, which would make collapsing the Move chain
// through r unsound.
func usedBetween(instrs []Instruction, from, to int, r Reg, skip int) bool {
	for idx := from; idx < to && idx < len(instrs); idx++ {
		if idx == skip {
			continue
		}
		for _, rd := range instrs[idx].Reads() {
			if rd == r {
				return true
			}
		}
	}
	return false
}
