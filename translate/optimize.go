package translate

// Optimize forwards an arithmetic instruction's result directly into the
// next instruction's second operand through R9, instead of round-tripping
// through the data stack, whenever both are ADD/SUB/MUL (never DIV, which
// the original never forwards either) and neither is a jump target.
//
// This is a single left-to-right pass with non-overlapping pairs: once
// instructions i and i+1 are paired, the scan resumes at i+2, matching the
// original optimizer's iterator advance. A pair that straddles a jump
// target is left alone, since a jump can land on the second instruction of
// the pair without ever having executed the first, leaving R9 stale.
func Optimize(p *Program) {
	if len(p.Instrs) < 2 {
		return
	}

	targets := jumpTargets(p)

	i := 0
	for i+1 < len(p.Instrs) {
		prev := &p.Instrs[i]
		cur := &p.Instrs[i+1]

		if !targets[i] && !targets[i+1] && prev.isArithmetic() && cur.isArithmetic() {
			prev.ResLoc = LocR9
			cur.Op2Loc = LocR9
			i += 2
			continue
		}
		i++
	}
}

// jumpTargets reports, for each IR index, whether some JMP/JMC/CALL in the
// program targets it.
func jumpTargets(p *Program) map[int]bool {
	targets := make(map[int]bool, len(p.JumpMap))
	for _, target := range p.JumpMap {
		targets[target] = true
	}
	return targets
}
