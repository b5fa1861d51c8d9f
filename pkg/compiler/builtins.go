package compiler

// The built-in runtime library (§6). Each routine is emitted as ordinary
// bytecode following the same calling convention as a user function; only
// REA/WRI (console byte I/O) and the exact instruction sequence of each
// stub are not surface-syntax reachable, so their bodies are hand-assembled
// here rather than built from the AST machinery (§2: "the exact instruction
// sequence of each stub is an implementation choice").
type builtinSignature struct {
	name   string
	ret    Type
	params []Type
}

var builtinSignatures = []builtinSignature{
	{name: "print_int", ret: VoidType, params: []Type{IntType}},
	{name: "read_int", ret: IntType, params: nil},
	{name: "print_str", ret: VoidType, params: []Type{StringType}},
	{name: "read_str", ret: StringType, params: nil},
	{name: "strcmp", ret: IntType, params: []Type{StringType, StringType}},
	{name: "strcat", ret: StringType, params: []Type{StringType, StringType}},
	{name: "strlen", ret: IntType, params: []Type{StringType}},
	{name: "print_float", ret: VoidType, params: []Type{FloatType}},
	{name: "read_float", ret: FloatType, params: []Type{}},
}

const (
	asciiNewline = 10
	asciiDot     = 46
	asciiMinus   = 45
	asciiZero    = 48
)

// emitBuiltinPrologue emits one subroutine per referenced built-in,
// recording each one's entry address into the symbol table so user call
// sites (already resolved against the seeded signatures) land correctly.
// print_float/read_float pull in print_int/read_int transitively even if
// the caller's source never names them directly (§4.5).
func (g *Generator) emitBuiltinPrologue() {
	need := make(map[string]bool, len(g.usedBuiltins))
	for name := range g.usedBuiltins {
		need[name] = true
	}
	if need["print_float"] {
		need["print_int"] = true
	}
	if need["read_float"] {
		need["read_int"] = true
	}

	// Emission order matters only in that a routine calling another must
	// be able to find its address; printing ints first lets print_float
	// reference an already-generated print_int entry.
	order := []string{"print_int", "read_int", "print_str", "read_str", "strlen", "strcmp", "strcat", "print_float", "read_float"}
	for _, name := range order {
		if !need[name] {
			continue
		}
		rec, _, ok := g.syms.Lookup(name)
		if !ok {
			devErr("built-in %q missing from the seeded symbol table", name)
		}
		switch name {
		case "print_int":
			g.buildPrintInt(rec)
		case "read_int":
			g.buildReadInt(rec)
		case "print_str":
			g.buildPrintStr(rec)
		case "read_str":
			g.buildReadStr(rec)
		case "strlen":
			g.buildStrlen(rec)
		case "strcmp":
			g.buildStrcmp(rec)
		case "strcat":
			g.buildStrcat(rec)
		case "print_float":
			g.buildPrintFloat(rec)
		case "read_float":
			g.buildReadFloat(rec)
		}
	}
}

// buildPrintInt: recursive digit-at-a-time decimal printer.
//   print_int(n): if n<0 { WRI '-'; n = -n } if n>=10 print_int(n/10); WRI('0'+n%10)
func (g *Generator) buildPrintInt(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const nSlot = 3
	g.emit(OpINT, 0, 1) // local: n
	g.emit(OpLOD, 0, -1)
	g.emit(OpSTO, 0, nSlot)

	g.emit(OpLOD, 0, nSlot)
	g.emit(OpLIT, 0, 0)
	g.emit(OpOPR, 0, OprLT)
	jmcNonNeg := g.emit(OpJMC, 0, 0)
	g.emit(OpLIT, 0, asciiMinus)
	g.emit(OpWRI, 0, 0)
	g.emit(OpLIT, 0, 0)
	g.emit(OpLOD, 0, nSlot)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpSTO, 0, nSlot)
	g.patch(jmcNonNeg, g.here())

	g.emit(OpLOD, 0, nSlot)
	g.emit(OpLIT, 0, 10)
	g.emit(OpOPR, 0, OprGEQ)
	jmcNoRecurse := g.emit(OpJMC, 0, 0)
	g.emit(OpINT, 0, 0)
	g.emit(OpLOD, 0, nSlot)
	g.emit(OpLIT, 0, 10)
	g.emit(OpOPR, 0, OprDIV)
	g.emit(OpCAL, 0, entry)
	g.emit(OpINT, 0, -1)
	g.patch(jmcNoRecurse, g.here())

	g.emit(OpLOD, 0, nSlot)
	g.emit(OpLIT, 0, 10)
	g.emit(OpOPR, 0, OprMOD)
	g.emit(OpLIT, 0, asciiZero)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpWRI, 0, 0)
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildReadInt: reads an optional leading '-' then decimal digits up to a
// newline, accumulating value = value*10 + digit.
func (g *Generator) buildReadInt(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const signSlot, valSlot, chSlot = 3, 4, 5
	g.emit(OpINT, 0, 3)

	g.emit(OpLIT, 0, 1)
	g.emit(OpSTO, 0, signSlot)
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, valSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)

	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiMinus)
	g.emit(OpOPR, 0, OprEQ)
	jmcNotNeg := g.emit(OpJMC, 0, 0)
	g.emit(OpLIT, 0, -1)
	g.emit(OpSTO, 0, signSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	g.patch(jmcNotNeg, g.here())

	loop := g.here()
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiNewline)
	g.emit(OpOPR, 0, OprEQ)
	jmcDone := g.emit(OpJMC, 0, 0)

	g.emit(OpLOD, 0, valSlot)
	g.emit(OpLIT, 0, 10)
	g.emit(OpOPR, 0, OprMUL)
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiZero)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, valSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	g.emit(OpJMP, 0, loop)
	g.patch(jmcDone, g.here())

	g.emit(OpLOD, 0, valSlot)
	g.emit(OpLOD, 0, signSlot)
	g.emit(OpOPR, 0, OprMUL)
	g.emit(OpSTO, 0, -1) // returnSize 1, paramSlots 0
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildPrintStr walks the heap block's count (stored at slot -1 by NEW/the
// string-literal emitter) and WRIs each byte.
func (g *Generator) buildPrintStr(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const sSlot, countSlot, iSlot = 3, 4, 5
	g.emit(OpINT, 0, 3)
	g.emit(OpLOD, 0, -1)
	g.emit(OpSTO, 0, sSlot)

	g.emit(OpLOD, 0, sSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTO, 0, countSlot)
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, iSlot)

	loop := g.here()
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLOD, 0, countSlot)
	g.emit(OpOPR, 0, OprLT)
	jmcEnd := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, sSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLDA, 0, 0)
	g.emit(OpWRI, 0, 0)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, iSlot)
	g.emit(OpJMP, 0, loop)
	g.patch(jmcEnd, g.here())
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildReadStr reads bytes into a heap block until a newline. Since
// NEW cannot be resized, it first scans into a fixed scratch block sized to
// a generous line length, then copies the actual prefix into a right-sized
// result block.
func (g *Generator) buildReadStr(rec *Record) {
	const maxLine = 256
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const scratchSlot, countSlot, chSlot, resultSlot, iSlot = 3, 4, 5, 6, 7
	g.emit(OpINT, 0, 5)

	g.emit(OpLIT, 0, maxLine)
	g.emit(OpNEW, 0, 0)
	g.emit(OpSTO, 0, scratchSlot)
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, countSlot)

	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	loop := g.here()
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiNewline)
	g.emit(OpOPR, 0, OprEQ)
	jmcDone := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, scratchSlot)
	g.emit(OpLOD, 0, countSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpSTA, 0, 0)
	g.emit(OpLOD, 0, countSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, countSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	g.emit(OpJMP, 0, loop)
	g.patch(jmcDone, g.here())

	g.emit(OpLOD, 0, countSlot)
	g.emit(OpNEW, 0, 0)
	g.emit(OpSTO, 0, resultSlot)
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, iSlot)
	copyLoop := g.here()
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLOD, 0, countSlot)
	g.emit(OpOPR, 0, OprLT)
	jmcCopyDone := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, resultSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLOD, 0, scratchSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTA, 0, 0)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, iSlot)
	g.emit(OpJMP, 0, copyLoop)
	g.patch(jmcCopyDone, g.here())

	g.emit(OpLOD, 0, scratchSlot)
	g.emit(OpDEL, 0, 0)
	g.emit(OpLOD, 0, resultSlot)
	g.emit(OpSTO, 0, -1) // returnSize 1, paramSlots 0
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

func (g *Generator) buildStrlen(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	g.emit(OpLOD, 0, -1)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTO, 0, -2) // returnSize 1, paramSlots 1
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildStrcmp returns 1 if the two strings have equal length and equal
// bytes, else 0 (§6: "0/1 equality indicator").
func (g *Generator) buildStrcmp(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const aSlot, bSlot, lenASlot, lenBSlot, iSlot, resultSlot = 3, 4, 5, 6, 7, 8
	g.emit(OpINT, 0, 6)
	g.emit(OpLOD, 0, -2)
	g.emit(OpSTO, 0, aSlot)
	g.emit(OpLOD, 0, -1)
	g.emit(OpSTO, 0, bSlot)

	g.emit(OpLOD, 0, aSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTO, 0, lenASlot)
	g.emit(OpLOD, 0, bSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTO, 0, lenBSlot)

	g.emit(OpLOD, 0, lenASlot)
	g.emit(OpLOD, 0, lenBSlot)
	g.emit(OpOPR, 0, OprEQ)
	jmcUnequalLen := g.emit(OpJMC, 0, 0)

	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, iSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpSTO, 0, resultSlot)
	loop := g.here()
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLOD, 0, lenASlot)
	g.emit(OpOPR, 0, OprLT)
	jmcDone := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, aSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLDA, 0, 0)
	g.emit(OpLOD, 0, bSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLDA, 0, 0)
	g.emit(OpOPR, 0, OprEQ)
	jmcMismatch := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, iSlot)
	g.emit(OpJMP, 0, loop)
	g.patch(jmcMismatch, g.here())
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, resultSlot)
	g.patch(jmcDone, g.here())
	jmpEnd := g.emit(OpJMP, 0, 0)

	g.patch(jmcUnequalLen, g.here())
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, resultSlot)
	g.patch(jmpEnd, g.here())

	g.emit(OpLOD, 0, resultSlot)
	g.emit(OpSTO, 0, -3) // returnSize 1, paramSlots 2
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildStrcat allocates a block sized to both operands and copies a then b
// into it.
func (g *Generator) buildStrcat(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const aSlot, bSlot, lenASlot, lenBSlot, resultSlot, iSlot = 3, 4, 5, 6, 7, 8
	g.emit(OpINT, 0, 6)
	g.emit(OpLOD, 0, -2)
	g.emit(OpSTO, 0, aSlot)
	g.emit(OpLOD, 0, -1)
	g.emit(OpSTO, 0, bSlot)

	g.emit(OpLOD, 0, aSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTO, 0, lenASlot)
	g.emit(OpLOD, 0, bSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTO, 0, lenBSlot)

	g.emit(OpLOD, 0, lenASlot)
	g.emit(OpLOD, 0, lenBSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpNEW, 0, 0)
	g.emit(OpSTO, 0, resultSlot)

	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, iSlot)
	loop1 := g.here()
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLOD, 0, lenASlot)
	g.emit(OpOPR, 0, OprLT)
	jmcLoop1Done := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, resultSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLOD, 0, aSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTA, 0, 0)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, iSlot)
	g.emit(OpJMP, 0, loop1)
	g.patch(jmcLoop1Done, g.here())

	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, iSlot)
	loop2 := g.here()
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLOD, 0, lenBSlot)
	g.emit(OpOPR, 0, OprLT)
	jmcLoop2Done := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, resultSlot)
	g.emit(OpLOD, 0, lenASlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLOD, 0, bSlot)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpLDA, 0, 0)
	g.emit(OpSTA, 0, 0)
	g.emit(OpLOD, 0, iSlot)
	g.emit(OpLIT, 0, 1)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, iSlot)
	g.emit(OpJMP, 0, loop2)
	g.patch(jmcLoop2Done, g.here())

	g.emit(OpLOD, 0, resultSlot)
	g.emit(OpSTO, 0, -3) // returnSize 1, paramSlots 2
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildPrintFloat prints the whole part via print_int, a literal '.', then
// the fractional part via print_int (§4.5: depends on print_int).
func (g *Generator) buildPrintFloat(rec *Record) {
	printInt, _, ok := g.syms.Lookup("print_int")
	if !ok {
		devErr("print_float built without print_int seeded")
	}
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const wholeSlot, fracSlot = 3, 4
	g.emit(OpINT, 0, 2)
	g.emit(OpLOD, 0, -2)
	g.emit(OpSTO, 0, wholeSlot)
	g.emit(OpLOD, 0, -1)
	g.emit(OpSTO, 0, fracSlot)

	g.emit(OpINT, 0, 0)
	g.emit(OpLOD, 0, wholeSlot)
	g.emit(OpCAL, 0, printInt.Address)
	g.emit(OpINT, 0, -1)

	g.emit(OpLIT, 0, asciiDot)
	g.emit(OpWRI, 0, 0)

	g.emit(OpINT, 0, 0)
	g.emit(OpLOD, 0, fracSlot)
	g.emit(OpCAL, 0, printInt.Address)
	g.emit(OpINT, 0, -1)

	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}

// buildReadFloat reads digits up to '.' for the whole part, then digits up
// to newline for the fractional part (§6).
func (g *Generator) buildReadFloat(rec *Record) {
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)
	const wholeSlot, fracSlot, chSlot = 3, 4, 5
	g.emit(OpINT, 0, 3)
	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, wholeSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)

	loop1 := g.here()
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiDot)
	g.emit(OpOPR, 0, OprEQ)
	jmc1 := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, wholeSlot)
	g.emit(OpLIT, 0, 10)
	g.emit(OpOPR, 0, OprMUL)
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiZero)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, wholeSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	g.emit(OpJMP, 0, loop1)
	g.patch(jmc1, g.here())

	g.emit(OpLIT, 0, 0)
	g.emit(OpSTO, 0, fracSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	loop2 := g.here()
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiNewline)
	g.emit(OpOPR, 0, OprEQ)
	jmc2 := g.emit(OpJMC, 0, 0)
	g.emit(OpLOD, 0, fracSlot)
	g.emit(OpLIT, 0, 10)
	g.emit(OpOPR, 0, OprMUL)
	g.emit(OpLOD, 0, chSlot)
	g.emit(OpLIT, 0, asciiZero)
	g.emit(OpOPR, 0, OprSUB)
	g.emit(OpOPR, 0, OprADD)
	g.emit(OpSTO, 0, fracSlot)
	g.emit(OpREA, 0, 0)
	g.emit(OpSTO, 0, chSlot)
	g.emit(OpJMP, 0, loop2)
	g.patch(jmc2, g.here())

	g.emit(OpLOD, 0, wholeSlot)
	g.emit(OpLOD, 0, fracSlot)
	g.emit(OpITR, 0, 0)
	// returnSize 2, paramSlots 0: base=-2; frac is on top of stack and
	// stores to base+1, whole stores to base+0.
	g.emit(OpSTO, 0, -1)
	g.emit(OpSTO, 0, -2)
	g.emit(OpRET, 0, 0)
	g.funcGenerated[rec.Name] = true
}
