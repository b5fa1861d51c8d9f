package compiler

import (
	"fmt"

	"go.uber.org/multierr"
)

// analyzer threads every piece of state the semantic pass needs through a
// single struct built fresh per Analyze call; nothing here is a package
// global (§5).
type analyzer struct {
	syms          *SymbolTable
	usedBuiltins  map[string]bool
	declaredFuncs map[string]*DeclFunc

	loopDepth int

	currentFunc    *DeclFunc
	labels         map[string]bool
	pendingGotos   []pendingGoto
	sawReturn      bool
	returnRequired bool
}

type pendingGoto struct {
	target string
	line   int
}

// Analyze runs the full semantic pass over program, mutating nothing but
// reading every node, and returns the set of built-in names the program
// actually calls (transitively, print_float/read_float still pull in
// print_int/read_int — that expansion happens in the generator, not here).
// Any violation is raised via panic(*SemanticError) and recovered here
// exactly once (§4.2).
func Analyze(program *Block) (usedBuiltins map[string]bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *SemanticError:
				err = e
			case *DeveloperError:
				err = e
			default:
				panic(r)
			}
		}
	}()

	a := &analyzer{
		syms:          NewSymbolTable(),
		usedBuiltins:  make(map[string]bool),
		declaredFuncs: make(map[string]*DeclFunc),
	}
	a.analyzeProgram(program)
	return a.usedBuiltins, nil
}

func (a *analyzer) analyzeProgram(program *Block) {
	for _, s := range program.Stmts {
		fn, ok := s.(*DeclFunc)
		if !ok {
			devErr("top-level statement is not a function declaration: %T", s)
		}
		a.declareFunc(fn)
	}

	if _, ok := a.declaredFuncs["main"]; !ok {
		semErr(0, "missing required function \"main\"")
	}
	mainFn := a.declaredFuncs["main"]
	if mainFn.ReturnType.Kind != KindInt || mainFn.ReturnType.PointerLevel != 0 {
		semErr(mainFn.SourceLine(), "\"main\" must return int")
	}
	if len(mainFn.Params) != 0 {
		semErr(mainFn.SourceLine(), "\"main\" must take no parameters")
	}

	var errs error
	for _, s := range program.Stmts {
		fn := s.(*DeclFunc)
		if fn.Body == nil {
			continue
		}
		errs = multierr.Append(errs, a.checkCallsResolve(fn.Body))
	}
	if errs != nil {
		semErr(0, "%s", errs.Error())
	}

	for _, s := range program.Stmts {
		fn := s.(*DeclFunc)
		if fn.Body != nil {
			a.analyzeFunc(fn)
		}
	}
}

// declareFunc inserts fn's signature into the outer scope, enforcing the
// header-then-definition rule: a second header is fine, a second body is
// not, and a body may follow an earlier header-only declaration.
func (a *analyzer) declareFunc(fn *DeclFunc) {
	if rejectFloatPointer(fn.ReturnType) {
		semErr(fn.SourceLine(), "function %q may not return a pointer to float", fn.Name)
	}
	if rejectMultiLevelPointer(fn.ReturnType) {
		semErr(fn.SourceLine(), "function %q may not return a multi-level pointer", fn.Name)
	}
	seen := make(map[string]bool, len(fn.Params))
	paramTypes := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		if seen[p.Name] {
			semErr(fn.SourceLine(), "duplicate parameter name %q in %q", p.Name, fn.Name)
		}
		seen[p.Name] = true
		pt := Type{Kind: p.Type.Kind, PointerLevel: p.PointerLevel}
		if rejectFloatPointer(pt) {
			semErr(fn.SourceLine(), "parameter %q of %q may not be a pointer to float", p.Name, fn.Name)
		}
		if rejectMultiLevelPointer(pt) {
			semErr(fn.SourceLine(), "parameter %q of %q may not be a multi-level pointer", p.Name, fn.Name)
		}
		paramTypes[i] = pt
	}

	if existing, ok := a.declaredFuncs[fn.Name]; ok {
		if existing.Body != nil && fn.Body != nil {
			semErr(fn.SourceLine(), "function %q already has a body", fn.Name)
		}
		if !sameSignature(existing, fn) {
			semErr(fn.SourceLine(), "conflicting declarations of function %q", fn.Name)
		}
		if fn.Body != nil {
			a.declaredFuncs[fn.Name] = fn
		}
		return
	}

	if _, exists := a.syms.LookupLocal(fn.Name); exists {
		semErr(fn.SourceLine(), "%q is already declared as a built-in", fn.Name)
	}
	rec, err := a.syms.Insert(fn.Name, FuncRecord, fn.ReturnType, false, nil)
	if err != nil {
		semErr(fn.SourceLine(), "%v", err)
	}
	rec.ParamTypes = paramTypes
	rec.ReturnType = fn.ReturnType
	rec.HasBody = fn.Body != nil
	a.declaredFuncs[fn.Name] = fn
}

func sameSignature(a, b *DeclFunc) bool {
	if !a.ReturnType.Equal(b.ReturnType) || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		pa := Type{Kind: a.Params[i].Type.Kind, PointerLevel: a.Params[i].PointerLevel}
		pb := Type{Kind: b.Params[i].Type.Kind, PointerLevel: b.Params[i].PointerLevel}
		if !pa.Equal(pb) {
			return false
		}
	}
	return true
}

func rejectFloatPointer(t Type) bool { return t.IsPointer() && t.Kind == KindFloat }

// rejectMultiLevelPointer reports a pointer-to-pointer type. §9's design
// note calls the original's multi-level-pointer handling unreliable and
// tells implementers to either reject it outright or fully generalize deref
// codegen to loop; this repo takes the reject path.
func rejectMultiLevelPointer(t Type) bool { return t.PointerLevel > 1 }

// checkCallsResolve walks a body collecting calls to names that are neither
// built-ins nor any declared function, and calls to functions that are
// declared by a header but never given a body, batching every such unresolved
// reference in the body into one multierr value so the caller can report
// them together rather than stopping at the first (§3: "forward-reference
// queueing").
func (a *analyzer) checkCallsResolve(s Stmt) error {
	var errs error
	var walkExpr func(Expr)
	var walkStmt func(Stmt)

	walkExpr = func(e Expr) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *Call:
			if fn, ok := a.declaredFuncs[n.Name]; !ok {
				if _, _, ok := a.syms.Lookup(n.Name); !ok {
					errs = multierr.Append(errs, fmt.Errorf("line %d: call to undeclared function %q", n.SourceLine(), n.Name))
				}
			} else if fn.Body == nil {
				errs = multierr.Append(errs, fmt.Errorf("line %d: function %q is declared but never defined", n.SourceLine(), n.Name))
			}
			for _, arg := range n.Args {
				walkExpr(arg)
			}
		case *Assign:
			if n.Lvalue != nil {
				walkExpr(n.Lvalue)
			}
			walkExpr(n.Rhs)
		case *Ternary:
			walkExpr(n.Cond)
			walkExpr(n.True)
			walkExpr(n.False)
		case *BinOp:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *UnOp:
			walkExpr(n.Operand)
		case *Cast:
			walkExpr(n.Inner)
		case *New:
			walkExpr(n.Count)
		case *Delete:
			walkExpr(n.Inner)
		case *Deref:
			walkExpr(n.Inner)
		}
	}
	walkStmt = func(st Stmt) {
		if st == nil {
			return
		}
		switch n := st.(type) {
		case *Block:
			for _, c := range n.Stmts {
				walkStmt(c)
			}
		case *DeclVar:
			walkExpr(n.Init)
		case *If:
			walkExpr(n.Cond)
			walkStmt(n.Then)
			walkStmt(n.Else)
		case *While:
			walkExpr(n.Cond)
			walkStmt(n.Body)
		case *For:
			walkStmt(n.Init)
			walkExpr(n.Cond)
			walkExpr(n.Step)
			walkStmt(n.Body)
		case *Return:
			walkExpr(n.Expr)
		case *ExprStmt:
			walkExpr(n.Expr)
		}
	}
	walkStmt(s)
	return errs
}

func (a *analyzer) analyzeFunc(fn *DeclFunc) {
	a.currentFunc = fn
	a.labels = make(map[string]bool)
	a.pendingGotos = nil
	a.sawReturn = false
	a.returnRequired = fn.ReturnType.Kind != KindVoid

	a.syms.PushScope(true)
	for _, p := range fn.Params {
		pt := Type{Kind: p.Type.Kind, PointerLevel: p.PointerLevel}
		rec, err := a.syms.Insert(p.Name, VarRecord, pt, false, nil)
		if err != nil {
			semErr(fn.SourceLine(), "%v", err)
		}
		rec.Assigned = true
	}

	a.collectLabels(fn.Body)
	a.analyzeBlock(fn.Body)

	for _, g := range a.pendingGotos {
		if !a.labels[g.target] {
			semErr(g.line, "undefined label %q", g.target)
		}
	}

	if a.returnRequired && !alwaysReturns(fn.Body) {
		semErr(fn.SourceLine(), "function %q does not return a value on every path", fn.Name)
	}

	a.syms.PopScope()
	a.currentFunc = nil
}

// collectLabels performs the first half of two-phase label/goto
// resolution: gather every label declared anywhere in the function body
// before checking any goto against it, so forward gotos work.
func (a *analyzer) collectLabels(s Stmt) {
	if s == nil {
		return
	}
	if label := s.SourceLabel(); label != "" {
		if a.labels[label] {
			semErr(s.SourceLine(), "label %q already declared", label)
		}
		a.labels[label] = true
	}
	switch n := s.(type) {
	case *Block:
		for _, c := range n.Stmts {
			a.collectLabels(c)
		}
	case *If:
		a.collectLabels(n.Then)
		a.collectLabels(n.Else)
	case *While:
		a.collectLabels(n.Body)
	case *For:
		a.collectLabels(n.Body)
	}
}

func (a *analyzer) analyzeBlock(b *Block) {
	a.syms.PushScope(false)
	for _, s := range b.Stmts {
		a.analyzeStmt(s)
	}
	a.syms.PopScope()
}

func (a *analyzer) analyzeStmt(s Stmt) {
	switch n := s.(type) {
	case *Block:
		a.analyzeBlock(n)
	case *DeclVar:
		a.analyzeDeclVar(n)
	case *If:
		a.checkExpr(n.Cond)
		if t := a.typeOfChecked(n.Cond); t.Kind != KindBool {
			semErr(n.SourceLine(), "if condition must be bool, got %s", t)
		}
		a.analyzeStmt(n.Then)
		if n.Else != nil {
			a.analyzeStmt(n.Else)
		}
	case *While:
		a.checkExpr(n.Cond)
		if t := a.typeOfChecked(n.Cond); t.Kind != KindBool {
			semErr(n.SourceLine(), "loop condition must be bool, got %s", t)
		}
		a.loopDepth++
		a.analyzeStmt(n.Body)
		a.loopDepth--
	case *For:
		a.syms.PushScope(false)
		if n.Init != nil {
			a.analyzeStmt(n.Init)
		}
		if n.Cond != nil {
			a.checkExpr(n.Cond)
			if t := a.typeOfChecked(n.Cond); t.Kind != KindBool {
				semErr(n.SourceLine(), "loop condition must be bool, got %s", t)
			}
		}
		if n.Step != nil {
			a.checkExpr(n.Step)
		}
		a.loopDepth++
		a.analyzeStmt(n.Body)
		a.loopDepth--
		a.syms.PopScope()
	case *BreakContinue:
		if a.loopDepth == 0 {
			kind := "break"
			if n.Kind == ContinueKind {
				kind = "continue"
			}
			semErr(n.SourceLine(), "%s outside a loop", kind)
		}
	case *Return:
		a.analyzeReturn(n)
	case *Goto:
		a.pendingGotos = append(a.pendingGotos, pendingGoto{target: n.Target, line: n.SourceLine()})
	case *ExprStmt:
		a.checkExpr(n.Expr)
	case *DeclFunc:
		semErr(n.SourceLine(), "nested function declarations are not allowed")
	}
}

func (a *analyzer) analyzeDeclVar(n *DeclVar) {
	if _, exists := a.syms.LookupLocal(n.Name); exists {
		semErr(n.SourceLine(), "%q already declared in this scope", n.Name)
	}
	typ := Type{Kind: n.Type.Kind, PointerLevel: n.PointerLevel}
	if typ.Kind == KindVoid {
		semErr(n.SourceLine(), "variable %q may not have type void", n.Name)
	}
	if rejectFloatPointer(typ) {
		semErr(n.SourceLine(), "variable %q may not be a pointer to float", n.Name)
	}
	if rejectMultiLevelPointer(typ) {
		semErr(n.SourceLine(), "variable %q may not be a multi-level pointer", n.Name)
	}
	if n.Init != nil {
		a.checkExpr(n.Init)
		a.checkAssignable(n.SourceLine(), typ, n.Init)
		a.checkPointerOrigin(n.SourceLine(), typ, n.Init)
	} else if n.IsConst {
		semErr(n.SourceLine(), "const %q must be initialized", n.Name)
	}
	rec, err := a.syms.Insert(n.Name, VarRecord, typ, n.IsConst, nil)
	if err != nil {
		semErr(n.SourceLine(), "%v", err)
	}
	rec.Assigned = n.Init != nil
}

func (a *analyzer) analyzeReturn(n *Return) {
	a.sawReturn = true
	fn := a.currentFunc
	if n.Expr == nil {
		if fn.ReturnType.Kind != KindVoid {
			semErr(n.SourceLine(), "function %q must return a value", fn.Name)
		}
		return
	}
	if fn.ReturnType.Kind == KindVoid {
		semErr(n.SourceLine(), "void function %q must not return a value", fn.Name)
	}
	a.checkExpr(n.Expr)
	retType := Type{Kind: fn.ReturnType.Kind, PointerLevel: fn.ReturnType.PointerLevel}
	a.checkAssignable(n.SourceLine(), retType, n.Expr)
}

// alwaysReturns is a conservative structural check: every control path
// through s ends in a Return. A while/for loop never counts as returning,
// whatever its condition; do-while/repeat-until bodies run at least once,
// so their own Return coverage is enough.
func alwaysReturns(s Stmt) bool {
	switch n := s.(type) {
	case *Block:
		for _, c := range n.Stmts {
			if alwaysReturns(c) {
				return true
			}
		}
		return false
	case *Return:
		return true
	case *If:
		return n.Else != nil && alwaysReturns(n.Then) && alwaysReturns(n.Else)
	case *While:
		if n.IsDoWhile {
			return alwaysReturns(n.Body)
		}
		return false
	default:
		return false
	}
}

//  Expression checking

func (a *analyzer) checkExpr(e Expr) {
	switch n := e.(type) {
	case *Identifier:
		rec, _, ok := a.syms.Lookup(n.Name)
		if !ok {
			semErr(n.SourceLine(), "use of undeclared identifier %q", n.Name)
		}
		if rec.Kind != VarRecord {
			semErr(n.SourceLine(), "%q is a function, not a value", n.Name)
		}
		if !rec.Assigned {
			semErr(n.SourceLine(), "use of %q before it is assigned", n.Name)
		}
	case *Assign:
		a.checkAssign(n)
	case *Ternary:
		a.checkExpr(n.Cond)
		if t := a.typeOfChecked(n.Cond); t.Kind != KindBool {
			semErr(n.SourceLine(), "ternary condition must be bool, got %s", t)
		}
		a.checkExpr(n.True)
		a.checkExpr(n.False)
	case *BinOp:
		a.checkBinOp(n)
	case *UnOp:
		a.checkExpr(n.Operand)
		t := a.typeOfChecked(n.Operand)
		if n.Op == NOT && t.Kind != KindBool {
			semErr(n.SourceLine(), "! requires a bool operand, got %s", t)
		}
		if n.Op == MINUS && (t.Kind != KindInt && t.Kind != KindFloat) {
			semErr(n.SourceLine(), "unary - requires an int or float operand, got %s", t)
		}
	case *Cast:
		a.checkExpr(n.Inner)
		src := a.typeOfChecked(n.Inner)
		if src.Kind == KindString || n.Target.Kind == KindString {
			semErr(n.SourceLine(), "cannot cast to/from string")
		}
	case *Call:
		a.checkCall(n)
	case *New:
		if rejectFloatPointer(n.Elem.AddrOf()) {
			semErr(n.SourceLine(), "cannot allocate a pointer to float")
		}
		if n.Count != nil {
			a.checkExpr(n.Count)
			if t := a.typeOfChecked(n.Count); t.Kind != KindInt {
				semErr(n.SourceLine(), "new[] count must be int, got %s", t)
			}
		}
	case *Delete:
		a.checkExpr(n.Inner)
		if t := a.typeOfChecked(n.Inner); !t.IsPointer() {
			semErr(n.SourceLine(), "delete requires a pointer operand, got %s", t)
		}
	case *Deref:
		a.checkExpr(n.Inner)
		if t := a.typeOfChecked(n.Inner); !t.IsPointer() {
			semErr(n.SourceLine(), "cannot dereference non-pointer type %s", t)
		} else if _, ok := n.Inner.(*Identifier); !ok {
			semErr(n.SourceLine(), "only a plain pointer variable may be dereferenced")
		}
	case *AddrOf:
		rec, _, ok := a.syms.Lookup(n.Name)
		if !ok {
			semErr(n.SourceLine(), "use of undeclared identifier %q", n.Name)
		}
		if rec.Kind != VarRecord {
			semErr(n.SourceLine(), "cannot take the address of function %q", n.Name)
		}
	case *SizeOf, *IntLit, *BoolLit, *FloatLit, *StringLit:
		// no further checks
	}
}

func (a *analyzer) checkAssign(n *Assign) {
	if n.Lvalue != nil {
		a.checkExpr(n.Lvalue)
		ptrType := a.typeOfChecked(n.Lvalue)
		if !ptrType.IsPointer() {
			semErr(n.SourceLine(), "cannot assign through a non-pointer expression")
		}
		a.checkExpr(n.Rhs)
		a.checkAssignable(n.SourceLine(), ptrType.Deref(), n.Rhs)
		return
	}
	rec, _, ok := a.syms.Lookup(n.Name)
	if !ok {
		semErr(n.SourceLine(), "assignment to undeclared identifier %q", n.Name)
	}
	if rec.IsConst && rec.Assigned {
		semErr(n.SourceLine(), "cannot assign to const %q more than once", n.Name)
	}
	a.checkExpr(n.Rhs)
	a.checkAssignable(n.SourceLine(), rec.Type, n.Rhs)
	a.checkPointerOrigin(n.SourceLine(), rec.Type, n.Rhs)
	rec.Assigned = true
}

func (a *analyzer) checkBinOp(n *BinOp) {
	a.checkExpr(n.Left)
	a.checkExpr(n.Right)
	lt := a.typeOfChecked(n.Left)
	rt := a.typeOfChecked(n.Right)

	if n.Op == AND_LOGICAL || n.Op == OR_LOGICAL {
		if lt.Kind != KindBool || rt.Kind != KindBool {
			semErr(n.SourceLine(), "%s requires bool operands, got %s and %s", n.Op, lt, rt)
		}
		return
	}
	if lt.Kind == KindString || rt.Kind == KindString {
		semErr(n.SourceLine(), "string values may only be passed to the string built-ins, not used in operators")
	}
	if lt.IsPointer() != rt.IsPointer() {
		ptr, scalar := lt, rt
		if rt.IsPointer() {
			ptr, scalar = rt, lt
		}
		if n.Op != PLUS && n.Op != MINUS {
			semErr(n.SourceLine(), "pointer arithmetic only supports + and -")
		}
		if scalar.Kind != KindInt {
			semErr(n.SourceLine(), "pointer arithmetic requires an int operand, got %s", scalar)
		}
		if a.pointsToStackSyntactically(ptrOperand(n, lt.IsPointer())) {
			semErr(n.SourceLine(), "arithmetic on a pointer captured from & is not supported")
		}
		_ = ptr
		return
	}
	if lt.IsPointer() && rt.IsPointer() {
		semErr(n.SourceLine(), "binary operators do not apply between two pointers")
	}
	if isComparison(n.Op) {
		if !lt.Equal(rt) {
			semErr(n.SourceLine(), "cannot compare %s with %s", lt, rt)
		}
		return
	}
	if lt.Kind != KindInt && lt.Kind != KindFloat {
		semErr(n.SourceLine(), "operator %s requires numeric operands, got %s", n.Op, lt)
	}
	if n.Op == SLASH || n.Op == PERCENT {
		if lit, ok := n.Right.(*IntLit); ok && lit.Value == 0 {
			semErr(n.SourceLine(), "division by the literal constant 0")
		}
	}
}

func ptrOperand(n *BinOp, leftIsPointer bool) Expr {
	if leftIsPointer {
		return n.Left
	}
	return n.Right
}

// pointsToStackSyntactically reports whether e is literally `&name` or a
// cast/paren wrapper around one — the analyzer's own mirror of codegen's
// findAddrOfTarget, used to reject stack-pointer arithmetic per §9's design
// note ahead of code generation ever seeing it.
func (a *analyzer) pointsToStackSyntactically(e Expr) bool {
	switch n := e.(type) {
	case *AddrOf:
		return true
	case *Cast:
		return a.pointsToStackSyntactically(n.Inner)
	case *Identifier:
		rec, _, ok := a.syms.Lookup(n.Name)
		return ok && rec.PointsToStack
	}
	return false
}

func (a *analyzer) checkCall(n *Call) {
	rec, _, ok := a.syms.Lookup(n.Name)
	if !ok {
		semErr(n.SourceLine(), "call to undeclared function %q", n.Name)
	}
	if rec.Kind != FuncRecord {
		semErr(n.SourceLine(), "%q is not callable", n.Name)
	}
	if isBuiltinName(n.Name) {
		a.usedBuiltins[n.Name] = true
	}
	if len(n.Args) != len(rec.ParamTypes) {
		semErr(n.SourceLine(), "%q expects %d argument(s), got %d", n.Name, len(rec.ParamTypes), len(n.Args))
	}
	for i, arg := range n.Args {
		a.checkExpr(arg)
		a.checkArgType(n.SourceLine(), rec.ParamTypes[i], arg)
	}
}

// checkArgType enforces call-argument types exactly: unlike checkAssignable,
// no int-to-float widening is permitted here (§4.2).
func (a *analyzer) checkArgType(line int, target Type, src Expr) {
	st := a.typeOfChecked(src)
	if target.Equal(st) {
		return
	}
	semErr(line, "cannot use %s where %s is expected", st, target)
}

func isBuiltinName(name string) bool {
	for _, b := range builtinSignatures {
		if b.name == name {
			return true
		}
	}
	return false
}

// checkAssignable enforces the implicit-widening rule: an int expression
// may flow into a float-typed slot, everything else must match exactly.
func (a *analyzer) checkAssignable(line int, target Type, src Expr) {
	st := a.typeOfChecked(src)
	if target.Equal(st) {
		return
	}
	if target.Kind == KindFloat && st.Kind == KindInt && target.PointerLevel == 0 && st.PointerLevel == 0 {
		return
	}
	semErr(line, "cannot use %s where %s is expected", st, target)
}

// checkPointerOrigin enforces that a pointer-typed rhs is always either
// &name, new ..., an already-pointer-typed value (a variable, a
// dereference or a call), or a conditional/cast composed from those — matching
// codegen's findAddrOfTarget so nothing reaches the generator with an
// origin it cannot classify.
func (a *analyzer) checkPointerOrigin(line int, target Type, src Expr) {
	if !target.IsPointer() {
		return
	}
	if !hasKnownPointerOrigin(src) {
		semErr(line, "a pointer must be initialized from & or new, not a general expression")
	}
}

func hasKnownPointerOrigin(e Expr) bool {
	switch n := e.(type) {
	case *AddrOf, *New:
		return true
	case *Ternary:
		return hasKnownPointerOrigin(n.True) && hasKnownPointerOrigin(n.False)
	case *Cast:
		return hasKnownPointerOrigin(n.Inner)
	case *Identifier, *Deref, *Call:
		return true // already-typed pointer value flowing through
	}
	return false
}

// typeOfChecked mirrors codegen's typeOf but against the analyzer's own
// symbol table; the two are never the same instance (§3's "rebuilt, not
// shared" invariant) but compute identical results given identical input.
func (a *analyzer) typeOfChecked(e Expr) Type {
	return typeOf(e, a.syms)
}
