package compiler

// OptimizeAST applies the algebraic/boolean identity rewrites of §4.3 to
// every function body in program, in place, and returns it for convenience.
// The pass has no parent back-pointers on the nodes themselves (§9 option
// (a)): each recursive call returns the (possibly replaced) node, and the
// caller writes that result back into the slot it came from, which lets a
// rewrite at a child cascade into its parent on the same pass.
func OptimizeAST(program *Block) *Block {
	for _, s := range program.Stmts {
		if fn, ok := s.(*DeclFunc); ok && fn.Body != nil {
			fn.Body = optimizeBlock(fn.Body)
		}
	}
	return program
}

func optimizeBlock(b *Block) *Block {
	for i, s := range b.Stmts {
		b.Stmts[i] = optimizeStmt(s)
	}
	return b
}

func optimizeStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case *Block:
		return optimizeBlock(n)
	case *DeclVar:
		if n.Init != nil {
			n.Init = optimizeExpr(n.Init)
		}
		return n
	case *If:
		n.Cond = optimizeExpr(n.Cond)
		n.Then = optimizeStmt(n.Then)
		if n.Else != nil {
			n.Else = optimizeStmt(n.Else)
		}
		return n
	case *While:
		n.Cond = optimizeExpr(n.Cond)
		n.Body = optimizeStmt(n.Body)
		return n
	case *For:
		if n.Init != nil {
			n.Init = optimizeStmt(n.Init)
		}
		if n.Cond != nil {
			n.Cond = optimizeExpr(n.Cond)
		}
		if n.Step != nil {
			n.Step = optimizeExpr(n.Step)
		}
		n.Body = optimizeStmt(n.Body)
		return n
	case *Return:
		if n.Expr != nil {
			n.Expr = optimizeExpr(n.Expr)
		}
		return n
	case *ExprStmt:
		n.Expr = optimizeExpr(n.Expr)
		return n
	default:
		return s
	}
}

// optimizeExpr rewrites e and everything beneath it, then tries to fold e
// itself, re-running on the replacement so a fold can cascade into its own
// parent (e.g. in (x+0)*1 the child x+0 folds to x, then x*1 folds to x in
// the same visit).
func optimizeExpr(e Expr) Expr {
	switch n := e.(type) {
	case *Assign:
		if n.Lvalue != nil {
			n.Lvalue = optimizeExpr(n.Lvalue)
		}
		n.Rhs = optimizeExpr(n.Rhs)
		return n
	case *Ternary:
		n.Cond = optimizeExpr(n.Cond)
		n.True = optimizeExpr(n.True)
		n.False = optimizeExpr(n.False)
		return n
	case *BinOp:
		n.Left = optimizeExpr(n.Left)
		n.Right = optimizeExpr(n.Right)
		if folded := foldBinOp(n); folded != nil {
			return optimizeExpr(folded)
		}
		return n
	case *UnOp:
		n.Operand = optimizeExpr(n.Operand)
		return n
	case *Cast:
		n.Inner = optimizeExpr(n.Inner)
		return n
	case *Call:
		for i, a := range n.Args {
			n.Args[i] = optimizeExpr(a)
		}
		return n
	case *New:
		if n.Count != nil {
			n.Count = optimizeExpr(n.Count)
		}
		return n
	case *Delete:
		n.Inner = optimizeExpr(n.Inner)
		return n
	case *Deref:
		n.Inner = optimizeExpr(n.Inner)
		return n
	default:
		return e
	}
}

// foldBinOp applies one step of §4.3's identity table, returning the
// replacement node or nil if none apply. Identities that would change a
// pointer's slot size are skipped (pointer arithmetic still needs its
// operand, even when it is literally zero).
func foldBinOp(n *BinOp) Expr {
	if lt, ok := n.Left.(*IntLit); ok {
		if rhsIsPointerish(n.Right) {
			return nil
		}
		switch {
		case n.Op == PLUS && lt.Value == 0:
			return n.Right
		case n.Op == STAR && lt.Value == 0:
			return &IntLit{ExprMeta: n.ExprMeta, Value: 0}
		case n.Op == STAR && lt.Value == 1:
			return n.Right
		}
	}
	if rt, ok := n.Right.(*IntLit); ok {
		if rhsIsPointerish(n.Left) {
			return nil
		}
		switch {
		case (n.Op == PLUS || n.Op == MINUS) && rt.Value == 0:
			return n.Left
		case n.Op == STAR && rt.Value == 0:
			return &IntLit{ExprMeta: n.ExprMeta, Value: 0}
		case (n.Op == STAR || n.Op == SLASH) && rt.Value == 1:
			return n.Left
		}
	}
	if lb, ok := n.Left.(*BoolLit); ok {
		switch {
		case n.Op == AND_LOGICAL && !lb.Value:
			return &BoolLit{ExprMeta: n.ExprMeta, Value: false}
		case n.Op == AND_LOGICAL && lb.Value:
			return n.Right
		case n.Op == OR_LOGICAL && lb.Value:
			return &BoolLit{ExprMeta: n.ExprMeta, Value: true}
		case n.Op == OR_LOGICAL && !lb.Value:
			return n.Right
		}
	}
	if rb, ok := n.Right.(*BoolLit); ok {
		switch {
		case n.Op == AND_LOGICAL && !rb.Value:
			return &BoolLit{ExprMeta: n.ExprMeta, Value: false}
		case n.Op == AND_LOGICAL && rb.Value:
			return n.Left
		case n.Op == OR_LOGICAL && rb.Value:
			return &BoolLit{ExprMeta: n.ExprMeta, Value: true}
		case n.Op == OR_LOGICAL && !rb.Value:
			return n.Left
		}
	}
	return nil
}

// rhsIsPointerish is a conservative syntactic guard: folding x+0 to x is
// always safe, but we cannot yet know e's static type at this point in the
// pipeline (the analyzer has already run and annotated nothing onto the
// AST), so a bare AddrOf/New/Deref operand on the *other* side is left
// alone rather than risk erasing a pointer-arithmetic scale factor.
func rhsIsPointerish(e Expr) bool {
	switch e.(type) {
	case *AddrOf, *New, *Deref:
		return true
	}
	return false
}
