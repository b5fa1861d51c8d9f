package compiler

// Optimize runs the instruction-stream peephole optimizer described in
// §4.6: an algebraic-identity pass, a jump-chain compression pass, then a
// dense renumbering that remaps every JMP/JMC/CAL parameter through an
// old-index→new-index table. It is a pure stream-to-stream function: the
// input slice is never mutated, and the output produces identical VM
// behavior for every terminating program (§8 invariant 5).
func Optimize(instrs []Instruction) []Instruction {
	out := make([]Instruction, len(instrs))
	copy(out, instrs)

	out, deleted := foldAlgebraicIdentities(out)
	out = compressJumpChains(out, deleted)
	return renumberDense(out, deleted)
}

// jumpTargets returns the set of instruction indices addressed by any
// JMP/JMC/CAL in instrs, used to avoid deleting an instruction that
// something still jumps onto.
func jumpTargets(instrs []Instruction) map[int]bool {
	targets := make(map[int]bool)
	for _, ins := range instrs {
		switch ins.Op {
		case OpJMP, OpJMC, OpCAL:
			targets[ins.Parameter] = true
		}
	}
	return targets
}

// foldAlgebraicIdentities deletes LIT 0;OPR ADD/SUB and LIT 1;OPR MUL/DIV
// pairs, which leave the other operand on the stack unchanged. A pair is
// only eligible when neither of its two instructions is itself a jump
// target, since removing it would otherwise orphan that target.
func foldAlgebraicIdentities(instrs []Instruction) ([]Instruction, []bool) {
	deleted := make([]bool, len(instrs))
	targets := jumpTargets(instrs)

	for i := 0; i+1 < len(instrs); i++ {
		if deleted[i] {
			continue
		}
		lit := instrs[i]
		opr := instrs[i+1]
		if lit.Op != OpLIT || opr.Op != OpOPR {
			continue
		}
		if targets[i] || targets[i+1] {
			continue
		}
		identity := (lit.Parameter == 0 && (opr.Parameter == OprADD || opr.Parameter == OprSUB)) ||
			(lit.Parameter == 1 && (opr.Parameter == OprMUL || opr.Parameter == OprDIV))
		if identity {
			deleted[i] = true
			deleted[i+1] = true
		}
	}
	return instrs, deleted
}

// compressJumpChains rewrites each JMP/JMC/CAL target that points at an
// unconditional JMP to that JMP's own target, following the chain up to a
// bounded depth so a malformed or cyclic chain in input can't hang the
// compiler.
const maxJumpChain = 32

func compressJumpChains(instrs []Instruction, deleted []bool) []Instruction {
	resolve := func(target int) int {
		seen := 0
		for target >= 0 && target < len(instrs) && !deleted[target] && instrs[target].Op == OpJMP && seen < maxJumpChain {
			next := instrs[target].Parameter
			if next == target {
				break
			}
			target = next
			seen++
		}
		return target
	}

	for i := range instrs {
		if deleted[i] {
			continue
		}
		switch instrs[i].Op {
		case OpJMP, OpJMC, OpCAL:
			instrs[i].Parameter = resolve(instrs[i].Parameter)
		}
	}
	return instrs
}

// renumberDense drops every instruction marked deleted, assigns dense
// indices starting at 0, and remaps every surviving jump/call parameter
// through the old→new table.
func renumberDense(instrs []Instruction, deleted []bool) []Instruction {
	remap := make([]int, len(instrs))
	next := 0
	for i, ins := range instrs {
		if deleted[i] {
			remap[i] = -1
			continue
		}
		remap[i] = next
		next++
		_ = ins
	}

	out := make([]Instruction, 0, next)
	for i, ins := range instrs {
		if deleted[i] {
			continue
		}
		switch ins.Op {
		case OpJMP, OpJMC, OpCAL:
			if ins.Parameter >= 0 && ins.Parameter < len(remap) && remap[ins.Parameter] >= 0 {
				ins.Parameter = remap[ins.Parameter]
			}
		}
		ins.Index = remap[i]
		out = append(out, ins)
	}
	return out
}
