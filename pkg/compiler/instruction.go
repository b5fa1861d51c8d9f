package compiler

import "fmt"

// Opcode is one mnemonic of the stack-machine instruction set (§4.5/§6).
type Opcode int

const (
	OpLIT Opcode = iota
	OpOPR
	OpOPF
	OpITR
	OpRTI
	OpLOD
	OpSTO
	OpLDA
	OpSTA
	OpPLD
	OpPST
	OpINT
	OpJMP
	OpJMC
	OpCAL
	OpRET
	OpNEW
	OpDEL
	OpREA
	OpWRI
)

var opcodeNames = [...]string{
	OpLIT: "LIT", OpOPR: "OPR", OpOPF: "OPF", OpITR: "ITR", OpRTI: "RTI",
	OpLOD: "LOD", OpSTO: "STO", OpLDA: "LDA", OpSTA: "STA",
	OpPLD: "PLD", OpPST: "PST", OpINT: "INT", OpJMP: "JMP", OpJMC: "JMC",
	OpCAL: "CAL", OpRET: "RET", OpNEW: "NEW", OpDEL: "DEL", OpREA: "REA", OpWRI: "WRI",
}

func (op Opcode) String() string {
	if int(op) >= 0 && int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// OPR/OPF parameter codes (§6).
const (
	OprNEG = 1
	OprADD = 2
	OprSUB = 3
	OprMUL = 4
	OprDIV = 5
	OprMOD = 6
	OprODD = 7
	OprEQ  = 8
	OprNEQ = 9
	OprLT  = 10
	OprGEQ = 11
	OprGT  = 12
	OprLEQ = 13
)

// Instruction is one line of the emitted bytecode stream: "<index>
// <MNEMONIC> <level> <parameter>".
type Instruction struct {
	Index     int
	Op        Opcode
	Level     int
	Parameter int
}

func (ins Instruction) String() string {
	return fmt.Sprintf("%d %s %d %d", ins.Index, ins.Op, ins.Level, ins.Parameter)
}
