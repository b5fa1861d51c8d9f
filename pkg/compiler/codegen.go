package compiler

// Generator turns a validated, optionally AST-optimized program into a flat
// []Instruction stream. One Generator is built fresh per Compile call; it
// owns its own SymbolTable (rebuilt, never shared with the analyzer's) and
// keeps every other piece of pass state — break/continue targets, pending
// forward calls, pending goto targets — as plain fields, per spec.md §5's
// no-process-globals rule.
type Generator struct {
	syms   *SymbolTable
	instrs []Instruction

	usedBuiltins  map[string]bool
	funcGenerated map[string]bool
	pendingCalls  map[string][]int

	breakStack    [][]int
	continueStack [][]int
	funcCtx       []funcContext

	labelIndex   map[string]int
	pendingGotos map[string][]int
}

type funcContext struct {
	paramSlots int
	returnSize int
}

func newGenerator(used map[string]bool) *Generator {
	return &Generator{
		syms:          NewSymbolTable(),
		usedBuiltins:  used,
		funcGenerated: make(map[string]bool),
		pendingCalls:  make(map[string][]int),
	}
}

func (g *Generator) emit(op Opcode, level, param int) int {
	idx := len(g.instrs)
	g.instrs = append(g.instrs, Instruction{Index: idx, Op: op, Level: level, Parameter: param})
	return idx
}

func (g *Generator) here() int { return len(g.instrs) }

func (g *Generator) patch(idx, param int) { g.instrs[idx].Parameter = param }

// Generate compiles a validated program (its top-level statements are all
// *DeclFunc) into the final instruction stream, including the built-in
// prologue and the trailing entry sequence.
func Generate(program *Block, used map[string]bool) []Instruction {
	g := newGenerator(used)

	if len(used) > 0 {
		skip := g.emit(OpJMP, 0, 0)
		g.emitBuiltinPrologue()
		g.patch(skip, g.here())
	}

	for _, stmt := range program.Stmts {
		fn := stmt.(*DeclFunc)
		if _, exists := g.syms.LookupLocal(fn.Name); exists {
			continue
		}
		paramTypes := make([]Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = Type{Kind: p.Type.Kind, PointerLevel: p.PointerLevel}
		}
		rec, err := g.syms.Insert(fn.Name, FuncRecord, Type{Kind: fn.ReturnType.Kind, PointerLevel: fn.ReturnType.PointerLevel}, false, nil)
		if err != nil {
			devErr("redeclaration of function %q slipped past the analyzer", fn.Name)
		}
		rec.ParamTypes = paramTypes
		rec.ReturnType = rec.Type
	}

	mainAddr := 0
	for _, stmt := range program.Stmts {
		fn := stmt.(*DeclFunc)
		if fn.Body == nil {
			continue
		}
		entry := g.genFunction(fn)
		if fn.Name == "main" {
			mainAddr = entry
		}
	}

	g.emit(OpINT, 0, 1)
	g.emit(OpCAL, 0, mainAddr)
	g.emit(OpRET, 0, 0)
	return g.instrs
}

func (g *Generator) genFunction(fn *DeclFunc) int {
	rec, _, ok := g.syms.Lookup(fn.Name)
	if !ok {
		devErr("function %q missing from the pre-scan", fn.Name)
	}

	skip := g.emit(OpJMP, 0, 0)
	entry := g.here()
	rec.Address = entry
	g.emit(OpINT, 0, ActivationRecordSize)

	g.syms.PushScope(true)
	g.labelIndex = make(map[string]int)
	g.pendingGotos = make(map[string][]int)

	totalParamSlots := 0
	for _, p := range fn.Params {
		totalParamSlots += (Type{Kind: p.Type.Kind, PointerLevel: p.PointerLevel}).SlotSize()
	}
	prefix := 0
	for _, p := range fn.Params {
		ptype := Type{Kind: p.Type.Kind, PointerLevel: p.PointerLevel}
		negBase := -(totalParamSlots - prefix)
		prec, err := g.syms.Insert(p.Name, VarRecord, ptype, false, nil)
		if err != nil {
			devErr("duplicate parameter %q slipped past the analyzer", p.Name)
		}
		prec.Assigned = true
		for j := 0; j < ptype.SlotSize(); j++ {
			g.emit(OpLOD, 0, negBase+j)
			g.emit(OpSTO, 0, prec.Address+j)
		}
		prefix += ptype.SlotSize()
	}

	g.funcCtx = append(g.funcCtx, funcContext{paramSlots: totalParamSlots, returnSize: rec.ReturnType.SlotSize()})
	for _, s := range fn.Body.Stmts {
		g.genStmt(s)
	}
	g.funcCtx = g.funcCtx[:len(g.funcCtx)-1]

	for target, idxs := range g.pendingGotos {
		addr, ok := g.labelIndex[target]
		if !ok {
			devErr("undefined label %q slipped past the analyzer", target)
		}
		for _, idx := range idxs {
			g.patch(idx, addr)
		}
	}

	g.syms.PopScope()
	// A non-void function is guaranteed by the analyzer to return on every
	// path, so its body already ends in a RET; only a void function (whose
	// body may legally fall off the end) needs this synthesized one.
	if !alwaysReturns(fn.Body) {
		g.emit(OpRET, 0, 0)
	}
	g.patch(skip, g.here())

	g.funcGenerated[fn.Name] = true
	for _, idx := range g.pendingCalls[fn.Name] {
		g.patch(idx, entry)
	}
	delete(g.pendingCalls, fn.Name)
	return entry
}

//  Statements

func (g *Generator) genStmt(s Stmt) {
	if s.SourceLabel() != "" {
		g.labelIndex[s.SourceLabel()] = g.here()
	}
	switch n := s.(type) {
	case *Block:
		g.genBlock(n)
	case *DeclVar:
		g.genDeclVar(n)
	case *If:
		g.genIf(n)
	case *While:
		g.genWhile(n)
	case *For:
		g.genFor(n)
	case *BreakContinue:
		g.genBreakContinue(n)
	case *Return:
		g.genReturn(n)
	case *Goto:
		g.genGoto(n)
	case *ExprStmt:
		g.genExprDiscard(n.Expr)
	case *DeclFunc:
		devErr("nested function declarations are not supported")
	default:
		devErr("unknown statement node %T", s)
	}
}

// directLocalSlots sums the slot sizes of the DeclVar statements appearing
// directly in block (not inside nested blocks, which reserve their own
// space independently).
func directLocalSlots(block *Block) int {
	total := 0
	for _, s := range block.Stmts {
		if dv, ok := s.(*DeclVar); ok {
			total += (Type{Kind: dv.Type.Kind, PointerLevel: dv.PointerLevel}).SlotSize()
		}
	}
	return total
}

func (g *Generator) genBlock(n *Block) {
	localSlots := directLocalSlots(n)
	g.syms.PushScope(false)
	g.emit(OpINT, 0, localSlots)
	for _, s := range n.Stmts {
		g.genStmt(s)
	}
	g.emit(OpINT, 0, -localSlots)
	g.syms.PopScope()
}

func (g *Generator) genDeclVar(n *DeclVar) {
	typ := Type{Kind: n.Type.Kind, PointerLevel: n.PointerLevel}
	rec, err := g.syms.Insert(n.Name, VarRecord, typ, n.IsConst, nil)
	if err != nil {
		devErr("redeclaration of %q slipped past the analyzer", n.Name)
	}
	if n.Init == nil {
		return
	}
	rt := typeOf(n.Init, g.syms)
	g.genOperand(n.Init, rt, typ.Kind == KindFloat)
	for i := typ.SlotSize() - 1; i >= 0; i-- {
		g.emit(OpSTO, 0, rec.Address+i)
	}
	rec.Assigned = true
	if typ.IsPointer() {
		g.setPointee(rec, n.Init)
	}
}

func (g *Generator) genIf(n *If) {
	g.genExpr(n.Cond)
	jmc := g.emit(OpJMC, 0, 0)
	g.genStmt(n.Then)
	if n.Else != nil {
		jmp := g.emit(OpJMP, 0, 0)
		g.patch(jmc, g.here())
		g.genStmt(n.Else)
		g.patch(jmp, g.here())
	} else {
		g.patch(jmc, g.here())
	}
}

func (g *Generator) genWhile(n *While) {
	g.breakStack = append(g.breakStack, nil)
	g.continueStack = append(g.continueStack, nil)

	var continueAddr, end int
	if n.IsDoWhile {
		bodyStart := g.here()
		g.genStmt(n.Body)
		continueAddr = g.here()
		g.genExpr(n.Cond)
		if n.IsRepeatUntil {
			g.emit(OpLIT, 0, 0)
			g.emit(OpOPR, 0, OprEQ)
		}
		jmc := g.emit(OpJMC, 0, 0)
		g.emit(OpJMP, 0, bodyStart)
		end = g.here()
		g.patch(jmc, end)
	} else {
		loopStart := g.here()
		continueAddr = loopStart
		g.genExpr(n.Cond)
		if n.IsRepeatUntil {
			g.emit(OpLIT, 0, 0)
			g.emit(OpOPR, 0, OprEQ)
		}
		jmc := g.emit(OpJMC, 0, 0)
		g.genStmt(n.Body)
		g.emit(OpJMP, 0, loopStart)
		end = g.here()
		g.patch(jmc, end)
	}

	top := len(g.breakStack) - 1
	for _, idx := range g.breakStack[top] {
		g.patch(idx, end)
	}
	for _, idx := range g.continueStack[top] {
		g.patch(idx, continueAddr)
	}
	g.breakStack = g.breakStack[:top]
	g.continueStack = g.continueStack[:top]
}

func (g *Generator) genFor(n *For) {
	g.syms.PushScope(false)
	initSlots := 0
	if dv, ok := n.Init.(*DeclVar); ok {
		initSlots = (Type{Kind: dv.Type.Kind, PointerLevel: dv.PointerLevel}).SlotSize()
	}
	if initSlots > 0 {
		g.emit(OpINT, 0, initSlots)
	}
	if n.Init != nil {
		g.genStmt(n.Init)
	}

	g.breakStack = append(g.breakStack, nil)
	g.continueStack = append(g.continueStack, nil)

	loopStart := g.here()
	if n.Cond != nil {
		g.genExpr(n.Cond)
	} else {
		g.emit(OpLIT, 0, 1)
	}
	jmc := g.emit(OpJMC, 0, 0)
	g.genStmt(n.Body)
	continueAddr := g.here()
	if n.Step != nil {
		g.genExprDiscard(n.Step)
	}
	g.emit(OpJMP, 0, loopStart)
	end := g.here()
	g.patch(jmc, end)

	top := len(g.breakStack) - 1
	for _, idx := range g.breakStack[top] {
		g.patch(idx, end)
	}
	for _, idx := range g.continueStack[top] {
		g.patch(idx, continueAddr)
	}
	g.breakStack = g.breakStack[:top]
	g.continueStack = g.continueStack[:top]

	if initSlots > 0 {
		g.emit(OpINT, 0, -initSlots)
	}
	g.syms.PopScope()
}

func (g *Generator) genBreakContinue(n *BreakContinue) {
	idx := g.emit(OpJMP, 0, 0)
	if len(g.breakStack) == 0 {
		devErr("break/continue outside a loop slipped past the analyzer")
	}
	top := len(g.breakStack) - 1
	if n.Kind == BreakKind {
		g.breakStack[top] = append(g.breakStack[top], idx)
	} else {
		g.continueStack[top] = append(g.continueStack[top], idx)
	}
}

func (g *Generator) genReturn(n *Return) {
	ctx := g.funcCtx[len(g.funcCtx)-1]
	if n.Expr != nil {
		rt := typeOf(n.Expr, g.syms)
		g.genOperand(n.Expr, rt, ctx.returnSize == 2)
		base := -(ctx.returnSize + ctx.paramSlots)
		for i := ctx.returnSize - 1; i >= 0; i-- {
			g.emit(OpSTO, 0, base+i)
		}
	}
	g.emit(OpRET, 0, 0)
}

func (g *Generator) genGoto(n *Goto) {
	idx := g.emit(OpJMP, 0, 0)
	g.pendingGotos[n.Target] = append(g.pendingGotos[n.Target], idx)
}

func (g *Generator) genExprDiscard(e Expr) {
	t := g.genExpr(e)
	if sz := t.SlotSize(); sz > 0 {
		g.emit(OpINT, 0, -sz)
	}
}

//  Expressions

func (g *Generator) genExpr(e Expr) Type {
	switch n := e.(type) {
	case *IntLit:
		g.emit(OpLIT, 0, int(n.Value))
		return IntType
	case *BoolLit:
		v := 0
		if n.Value {
			v = 1
		}
		g.emit(OpLIT, 0, v)
		return BoolType
	case *FloatLit:
		g.emit(OpLIT, 0, int(n.Whole))
		g.emit(OpLIT, 0, int(n.Frac))
		g.emit(OpITR, 0, 0)
		return FloatType
	case *StringLit:
		return g.genStringLit(n)
	case *Identifier:
		return g.genIdentifier(n)
	case *Assign:
		return g.genAssign(n)
	case *Ternary:
		return g.genTernary(n)
	case *BinOp:
		return g.genBinOp(n)
	case *UnOp:
		return g.genUnOp(n)
	case *Cast:
		return g.genCast(n)
	case *Call:
		return g.genCall(n)
	case *New:
		return g.genNew(n)
	case *Delete:
		g.genExpr(n.Inner)
		g.emit(OpDEL, 0, 0)
		return VoidType
	case *Deref:
		return g.genDeref(n)
	case *AddrOf:
		rec, _, ok := g.syms.Lookup(n.Name)
		if !ok {
			devErr("undeclared identifier %q", n.Name)
		}
		g.emit(OpLIT, 0, rec.Address)
		return rec.Type.AddrOf()
	case *SizeOf:
		typ := Type{Kind: n.Target.Kind, PointerLevel: n.Target.PointerLevel}
		g.emit(OpLIT, 0, typ.SlotSize())
		return IntType
	}
	devErr("unknown expression node %T", e)
	return Type{}
}

// genOperand evaluates e, coercing a non-float result to float (LIT 0; ITR)
// when wantFloat is set and e's static type is not already float.
func (g *Generator) genOperand(e Expr, t Type, wantFloat bool) {
	g.genExpr(e)
	if wantFloat && t.Kind != KindFloat {
		g.emit(OpLIT, 0, 0)
		g.emit(OpITR, 0, 0)
	}
}

func (g *Generator) genIdentifier(n *Identifier) Type {
	rec, level, ok := g.syms.Lookup(n.Name)
	if !ok {
		devErr("undeclared identifier %q", n.Name)
	}
	for i := 0; i < rec.Type.SlotSize(); i++ {
		g.emit(OpLOD, level, rec.Address+i)
	}
	return rec.Type
}

func identifierName(e Expr) (string, bool) {
	id, ok := e.(*Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func (g *Generator) genAssign(n *Assign) Type {
	if n.Lvalue != nil {
		return g.genAssignThroughPointer(n)
	}
	return g.genAssignName(n)
}

func (g *Generator) genAssignName(n *Assign) Type {
	rec, level, ok := g.syms.Lookup(n.Name)
	if !ok {
		devErr("undeclared identifier %q", n.Name)
	}
	rt := typeOf(n.Rhs, g.syms)
	g.genOperand(n.Rhs, rt, rec.Type.Kind == KindFloat)
	for i := rec.Type.SlotSize() - 1; i >= 0; i-- {
		g.emit(OpSTO, level, rec.Address+i)
	}
	rec.Assigned = true
	if rec.Type.IsPointer() {
		g.setPointee(rec, n.Rhs)
	}
	for i := 0; i < rec.Type.SlotSize(); i++ {
		g.emit(OpLOD, level, rec.Address+i)
	}
	return rec.Type
}

// genAssignThroughPointer handles `*p = rhs`. Only a bare pointer-variable
// lvalue is supported (see DESIGN.md on multi-level pointers); this matches
// every scenario in spec.md §8.
func (g *Generator) genAssignThroughPointer(n *Assign) Type {
	name, ok := identifierName(n.Lvalue)
	if !ok {
		devErr("assignment through a non-identifier pointer expression is not supported")
	}
	rec, level, ok2 := g.syms.Lookup(name)
	if !ok2 {
		devErr("undeclared identifier %q", name)
	}
	pointee := rec.Type.Deref()
	rt := typeOf(n.Rhs, g.syms)

	if rec.PointsToStack {
		g.genOperand(n.Rhs, rt, pointee.Kind == KindFloat)
		g.emit(OpLIT, 0, rec.PointeeLevel)
		g.emit(OpLIT, 0, rec.PointeeAddress)
		g.emit(OpPST, 0, 0)
	} else {
		g.emit(OpLOD, level, rec.Address)
		g.genOperand(n.Rhs, rt, pointee.Kind == KindFloat)
		g.emit(OpSTA, 0, 0)
	}
	// PST/STA consume the value and leave nothing on the stack.
	return VoidType
}

// setPointee records, at the point a pointer variable is given a value,
// whether it now addresses a stack slot (AddrOf) or a heap block (New),
// and — for the stack case — which symbol it statically aliases, so a
// later Deref/assign-through-pointer can resolve it without runtime
// indirection (§8 invariant 7, scenario C).
func (g *Generator) setPointee(rec *Record, rhs Expr) {
	if name, ok := findAddrOfTarget(rhs); ok {
		target, level, found := g.syms.Lookup(name)
		if !found {
			devErr("undeclared identifier %q", name)
		}
		rec.PointsToStack = true
		rec.PointeeLevel = level
		rec.PointeeAddress = target.Address
		return
	}
	rec.PointsToStack = false
}

// findAddrOfTarget searches e for an AddrOf node, per the pointer-discipline
// rule that an rhs assigned to a pointer variable is AddrOf, New, or a
// binop/ternary whose qualifying branch contains one.
func findAddrOfTarget(e Expr) (string, bool) {
	switch n := e.(type) {
	case *AddrOf:
		return n.Name, true
	case *BinOp:
		if name, ok := findAddrOfTarget(n.Left); ok {
			return name, true
		}
		return findAddrOfTarget(n.Right)
	case *Ternary:
		if name, ok := findAddrOfTarget(n.True); ok {
			return name, true
		}
		return findAddrOfTarget(n.False)
	case *UnOp:
		return findAddrOfTarget(n.Operand)
	case *Cast:
		return findAddrOfTarget(n.Inner)
	}
	return "", false
}

func (g *Generator) genTernary(n *Ternary) Type {
	g.genExpr(n.Cond)
	jmc := g.emit(OpJMC, 0, 0)
	t1 := g.genExpr(n.True)
	jmp := g.emit(OpJMP, 0, 0)
	g.patch(jmc, g.here())
	t2 := g.genExpr(n.False)
	g.patch(jmp, g.here())
	if t1.Kind == KindFloat || t2.Kind == KindFloat {
		return FloatType
	}
	return t1
}

func isComparison(tt TokenType) bool {
	switch tt {
	case EQUALS, NOT_EQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		return true
	}
	return false
}

func oprParamFor(tt TokenType) int {
	switch tt {
	case PLUS:
		return OprADD
	case MINUS:
		return OprSUB
	case STAR:
		return OprMUL
	case SLASH:
		return OprDIV
	case PERCENT:
		return OprMOD
	case EQUALS:
		return OprEQ
	case NOT_EQ:
		return OprNEQ
	case LESS:
		return OprLT
	case LESS_EQ:
		return OprLEQ
	case GREATER:
		return OprGT
	case GREATER_EQ:
		return OprGEQ
	}
	devErr("no OPR/OPF mapping for operator %v", tt)
	return 0
}

func (g *Generator) genBinOp(n *BinOp) Type {
	lt := typeOf(n.Left, g.syms)
	rt := typeOf(n.Right, g.syms)

	switch n.Op {
	case AND_LOGICAL:
		g.genExpr(n.Left)
		g.genExpr(n.Right)
		g.emit(OpOPR, 0, OprMUL)
		g.emit(OpLIT, 0, 0)
		g.emit(OpOPR, 0, OprNEQ)
		return BoolType
	case OR_LOGICAL:
		g.genExpr(n.Left)
		g.genExpr(n.Right)
		g.emit(OpOPR, 0, OprADD)
		g.emit(OpLIT, 0, 0)
		g.emit(OpOPR, 0, OprNEQ)
		return BoolType
	}

	if lt.IsPointer() != rt.IsPointer() {
		return g.genPointerArith(n, lt, rt)
	}

	isFloat := lt.Kind == KindFloat || rt.Kind == KindFloat
	g.genOperand(n.Left, lt, isFloat)
	g.genOperand(n.Right, rt, isFloat)
	opr := oprParamFor(n.Op)
	if isFloat {
		g.emit(OpOPF, 0, opr)
		if isComparison(n.Op) {
			return BoolType
		}
		return FloatType
	}
	g.emit(OpOPR, 0, opr)
	if isComparison(n.Op) {
		return BoolType
	}
	return lt
}

// genPointerArith implements the "binop flagged as pointer arithmetic"
// emission rule: the non-pointer side is multiplied by the pointee's slot
// size before the operator. Only heap pointers reach here — the analyzer
// rejects arithmetic on stack-captured pointers (DESIGN.md).
func (g *Generator) genPointerArith(n *BinOp, lt, rt Type) Type {
	if lt.IsPointer() {
		g.genExpr(n.Left)
		g.genExpr(n.Right)
		g.emit(OpLIT, 0, lt.Deref().SlotSize())
		g.emit(OpOPR, 0, OprMUL)
		g.emit(OpOPR, 0, oprParamFor(n.Op))
		return lt
	}
	g.genExpr(n.Left)
	g.emit(OpLIT, 0, rt.Deref().SlotSize())
	g.emit(OpOPR, 0, OprMUL)
	g.genExpr(n.Right)
	g.emit(OpOPR, 0, oprParamFor(n.Op))
	return rt
}

func (g *Generator) genUnOp(n *UnOp) Type {
	t := typeOf(n.Operand, g.syms)
	g.genExpr(n.Operand)
	switch n.Op {
	case NOT:
		g.emit(OpLIT, 0, 0)
		if t.Kind == KindFloat {
			g.emit(OpOPF, 0, OprEQ)
		} else {
			g.emit(OpOPR, 0, OprEQ)
		}
		return BoolType
	case MINUS:
		if t.Kind == KindFloat {
			g.emit(OpOPF, 0, OprNEG)
		} else {
			g.emit(OpOPR, 0, OprNEG)
		}
		return t
	}
	devErr("unknown unary operator %v", n.Op)
	return Type{}
}

func (g *Generator) genCast(n *Cast) Type {
	srcType := typeOf(n.Inner, g.syms)
	g.genExpr(n.Inner)
	target := Type{Kind: n.Target.Kind, PointerLevel: n.Target.PointerLevel}
	switch {
	case srcType.Kind == KindInt && target.Kind == KindFloat:
		g.emit(OpLIT, 0, 0)
		g.emit(OpITR, 0, 0)
	case srcType.Kind == KindFloat && target.Kind == KindInt:
		g.emit(OpRTI, 0, 1)
	case srcType.Kind == KindInt && target.Kind == KindBool:
		g.emit(OpLIT, 0, 0)
		g.emit(OpOPR, 0, OprNEQ)
	case srcType.Kind == KindFloat && target.Kind == KindBool:
		g.emit(OpRTI, 0, 1)
		g.emit(OpLIT, 0, 0)
		g.emit(OpOPR, 0, OprNEQ)
	}
	return target
}

func (g *Generator) genCall(n *Call) Type {
	rec, level, ok := g.syms.Lookup(n.Name)
	if !ok {
		devErr("undeclared function %q", n.Name)
	}
	returnSize := rec.ReturnType.SlotSize()
	g.emit(OpINT, 0, returnSize)

	totalParamSlots := 0
	for i, arg := range n.Args {
		pt := rec.ParamTypes[i]
		g.genOperand(arg, typeOf(arg, g.syms), pt.Kind == KindFloat)
		totalParamSlots += pt.SlotSize()
	}

	addr := rec.Address
	idx := g.emit(OpCAL, level, addr)
	if rec.Kind == FuncRecord && !g.funcGenerated[n.Name] && rec.Address == 0 {
		g.pendingCalls[n.Name] = append(g.pendingCalls[n.Name], idx)
	}
	g.emit(OpINT, 0, -totalParamSlots)
	return rec.ReturnType
}

func (g *Generator) genNew(n *New) Type {
	elem := Type{Kind: n.Elem.Kind, PointerLevel: n.Elem.PointerLevel}
	if n.Count != nil {
		g.genExpr(n.Count)
	} else {
		g.emit(OpLIT, 0, 1)
	}
	g.emit(OpLIT, 0, elem.SlotSize())
	g.emit(OpOPR, 0, OprMUL)
	g.emit(OpNEW, 0, 0)
	return elem.AddrOf()
}

func (g *Generator) genDeref(n *Deref) Type {
	name, ok := identifierName(n.Inner)
	if !ok {
		devErr("dereference of a non-identifier pointer expression is not supported")
	}
	rec, level, ok2 := g.syms.Lookup(name)
	if !ok2 {
		devErr("undeclared identifier %q", name)
	}
	pointee := rec.Type.Deref()

	if rec.PointsToStack {
		for i := 0; i < pointee.SlotSize(); i++ {
			g.emit(OpLIT, 0, rec.PointeeLevel)
			g.emit(OpLIT, 0, rec.PointeeAddress+i)
			g.emit(OpPLD, 0, 0)
		}
		return pointee
	}

	for i := 0; i < pointee.SlotSize(); i++ {
		g.emit(OpLOD, level, rec.Address)
		if i > 0 {
			g.emit(OpLIT, 0, i)
			g.emit(OpOPR, 0, OprADD)
		}
		g.emit(OpLDA, 0, 0)
	}
	return pointee
}

// genStringLit allocates a heap block sized to the literal (§4.5), stashing
// the fresh pointer in a scratch temp so each byte-store can reload it —
// this instruction set has no stack-duplicate opcode.
func (g *Generator) genStringLit(n *StringLit) Type {
	data := []byte(n.Value)
	g.emit(OpLIT, 0, len(data))
	g.emit(OpNEW, 0, 0)

	tmp := g.takeTemp(1)
	g.emit(OpSTO, 0, tmp.Address)
	for i, ch := range data {
		g.emit(OpLOD, 0, tmp.Address)
		if i > 0 {
			g.emit(OpLIT, 0, i)
			g.emit(OpOPR, 0, OprADD)
		}
		g.emit(OpLIT, 0, int(ch))
		g.emit(OpSTA, 0, 0)
	}
	g.emit(OpLOD, 0, tmp.Address)
	g.releaseTemp(tmp)
	return StringType
}

func (g *Generator) takeTemp(size int) *Record {
	if rec, ok := g.syms.TakeEmptyTemp(size); ok {
		return rec
	}
	return g.syms.AllocateTemps([]int{size})[0]
}

func (g *Generator) releaseTemp(rec *Record) { g.syms.ReleaseTemp(rec) }

// typeOf computes the static type an expression evaluates to, without
// emitting any instructions. It is the pure twin of genExpr, used wherever
// a coercion or pointer-arithmetic decision needs an operand's type ahead
// of generating it.
func typeOf(e Expr, syms *SymbolTable) Type {
	switch n := e.(type) {
	case *IntLit:
		return IntType
	case *BoolLit:
		return BoolType
	case *FloatLit:
		return FloatType
	case *StringLit:
		return StringType
	case *Identifier:
		rec, _, ok := syms.Lookup(n.Name)
		if !ok {
			devErr("undeclared identifier %q", n.Name)
		}
		return rec.Type
	case *Assign:
		if n.Lvalue != nil {
			return typeOf(n.Lvalue, syms).Deref()
		}
		rec, _, ok := syms.Lookup(n.Name)
		if !ok {
			devErr("undeclared identifier %q", n.Name)
		}
		return rec.Type
	case *Ternary:
		t1, t2 := typeOf(n.True, syms), typeOf(n.False, syms)
		if t1.Kind == KindFloat || t2.Kind == KindFloat {
			return FloatType
		}
		return t1
	case *BinOp:
		if n.Op == AND_LOGICAL || n.Op == OR_LOGICAL {
			return BoolType
		}
		lt, rt := typeOf(n.Left, syms), typeOf(n.Right, syms)
		if lt.IsPointer() != rt.IsPointer() {
			if lt.IsPointer() {
				return lt
			}
			return rt
		}
		if isComparison(n.Op) {
			return BoolType
		}
		if lt.Kind == KindFloat || rt.Kind == KindFloat {
			return FloatType
		}
		return lt
	case *UnOp:
		if n.Op == NOT {
			return BoolType
		}
		return typeOf(n.Operand, syms)
	case *Cast:
		return Type{Kind: n.Target.Kind, PointerLevel: n.Target.PointerLevel}
	case *Call:
		rec, _, ok := syms.Lookup(n.Name)
		if !ok {
			devErr("undeclared function %q", n.Name)
		}
		return rec.ReturnType
	case *New:
		return Type{Kind: n.Elem.Kind, PointerLevel: n.Elem.PointerLevel}.AddrOf()
	case *Delete:
		return VoidType
	case *Deref:
		name, ok := identifierName(n.Inner)
		if !ok {
			devErr("dereference of a non-identifier pointer expression is not supported")
		}
		rec, _, ok2 := syms.Lookup(name)
		if !ok2 {
			devErr("undeclared identifier %q", name)
		}
		return rec.Type.Deref()
	case *AddrOf:
		rec, _, ok := syms.Lookup(n.Name)
		if !ok {
			devErr("undeclared identifier %q", n.Name)
		}
		return rec.Type.AddrOf()
	case *SizeOf:
		return IntType
	}
	devErr("unknown expression node %T", e)
	return Type{}
}
