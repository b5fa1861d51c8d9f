package compiler

import (
	"bufio"
	"io"
	"os"
)

// WriteInstructions formats instrs per §6 (`<index> <MNEMONIC> <level>
// <parameter>`, one per line) to both path and stdout, matching the
// original tool's habit of echoing its own output so a caller piping to a
// VM doesn't also need to re-open the file.
func WriteInstructions(path string, instrs []Instruction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeInstructionsTo(f, instrs); err != nil {
		return err
	}
	return writeInstructionsTo(os.Stdout, instrs)
}

func writeInstructionsTo(w io.Writer, instrs []Instruction) error {
	bw := bufio.NewWriter(w)
	for _, ins := range instrs {
		if _, err := bw.WriteString(ins.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
