package ast

// maxCompareDepth bounds the recursion of structural comparison; deeper
// trees are reported as different.
const maxCompareDepth = 128

// Difference is one leaf substitution found by DiffStmts.
type Difference struct {
	Left  NodeRef
	Right NodeRef
}

type comparer struct {
	b     *Builder
	limit int
	diffs []Difference
	depth int
}

// EqualExpr reports whether two expressions have the same shape and
// spelling. Spans and parents are ignored.
func (b *Builder) EqualExpr(x, y ExprID) bool {
	c := comparer{b: b}
	return c.expr(x, y)
}

// EqualStmt reports whether two statements are structurally identical.
func (b *Builder) EqualStmt(x, y StmtID) bool {
	c := comparer{b: b}
	return c.stmt(x, y)
}

// DiffStmts compares two statement lists allowing up to limit leaf
// substitutions (one identifier or literal replaced by another). The bool
// is false when the lists differ in any other way or need more
// substitutions than allowed.
func (b *Builder) DiffStmts(xs, ys []StmtID, limit int) ([]Difference, bool) {
	if len(xs) != len(ys) {
		return nil, false
	}
	c := comparer{b: b, limit: limit}
	for i := range xs {
		if !c.stmt(xs[i], ys[i]) {
			return nil, false
		}
	}
	return c.diffs, true
}

func isLeaf(k ExprKind) bool {
	return k == ExprIdent || k == ExprLiteral || k == ExprThis
}

func (c *comparer) substitute(x, y NodeRef) bool {
	if len(c.diffs) >= c.limit {
		return false
	}
	c.diffs = append(c.diffs, Difference{Left: x, Right: y})
	return true
}

func (c *comparer) enter() bool {
	c.depth++
	return c.depth <= maxCompareDepth
}

func (c *comparer) leave() { c.depth-- }

func (c *comparer) sameLeaf(ex, ey *Expr, x, y ExprID) bool {
	if ex.Kind != ey.Kind {
		return false
	}
	switch ex.Kind {
	case ExprIdent:
		a, _ := c.b.Exprs.Ident(x)
		b, _ := c.b.Exprs.Ident(y)
		return a.Name == b.Name
	case ExprLiteral:
		a, _ := c.b.Exprs.Literal(x)
		b, _ := c.b.Exprs.Literal(y)
		return a.Kind == b.Kind && a.Value == b.Value
	}
	return true
}

func (c *comparer) exprs(xs, ys []ExprID) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !c.expr(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

func (c *comparer) typ(x, y TypeID) bool {
	if !x.IsValid() || !y.IsValid() {
		return x.IsValid() == y.IsValid()
	}
	return c.b.Types.SameType(x, y)
}

func (c *comparer) expr(x, y ExprID) bool {
	if x == y {
		return true
	}
	ex, ey := c.b.Exprs.Get(x), c.b.Exprs.Get(y)
	if ex == nil || ey == nil {
		return ex == nil && ey == nil
	}
	if !c.enter() {
		return false
	}
	defer c.leave()

	if isLeaf(ex.Kind) && isLeaf(ey.Kind) {
		if c.sameLeaf(ex, ey, x, y) {
			return true
		}
		return c.substitute(ExprRef(x), ExprRef(y))
	}
	if ex.Kind != ey.Kind {
		return false
	}
	e := c.b.Exprs
	switch ex.Kind {
	case ExprBinary:
		a, _ := e.Binary(x)
		b, _ := e.Binary(y)
		return a.Op == b.Op && c.expr(a.Left, b.Left) && c.expr(a.Right, b.Right)
	case ExprAssign:
		a, _ := e.Assign(x)
		b, _ := e.Assign(y)
		return a.Op == b.Op && c.expr(a.Target, b.Target) && c.expr(a.Value, b.Value)
	case ExprUnary:
		a, _ := e.Unary(x)
		b, _ := e.Unary(y)
		return a.Op == b.Op && c.expr(a.Operand, b.Operand)
	case ExprMember:
		a, _ := e.Member(x)
		b, _ := e.Member(y)
		return a.Name == b.Name && a.Arrow == b.Arrow && c.expr(a.Base, b.Base)
	case ExprCall:
		a, _ := e.Call(x)
		b, _ := e.Call(y)
		return c.expr(a.Callee, b.Callee) && c.exprs(a.Args, b.Args)
	case ExprIndex:
		a, _ := e.Index(x)
		b, _ := e.Index(y)
		return c.expr(a.Base, b.Base) && c.expr(a.Index, b.Index)
	case ExprParen:
		a, _ := e.Paren(x)
		b, _ := e.Paren(y)
		return c.expr(a.Inner, b.Inner)
	case ExprConditional:
		a, _ := e.Conditional(x)
		b, _ := e.Conditional(y)
		return c.expr(a.Cond, b.Cond) && c.expr(a.Then, b.Then) && c.expr(a.Else, b.Else)
	case ExprCast:
		a, _ := e.Cast(x)
		b, _ := e.Cast(y)
		return a.Style == b.Style && c.typ(a.Type, b.Type) && c.expr(a.Operand, b.Operand)
	case ExprOpaque:
		a, _ := e.Opaque(x)
		b, _ := e.Opaque(y)
		return a.Text == b.Text && c.exprs(a.Children, b.Children)
	}
	return false
}

func (c *comparer) varDecl(x, y DeclID) bool {
	dx, dy := c.b.Decls.Get(x), c.b.Decls.Get(y)
	if dx == nil || dy == nil || dx.Kind != dy.Kind {
		return false
	}
	a, okA := c.b.Decls.Var(x)
	b, okB := c.b.Decls.Var(y)
	if !okA || !okB {
		return x == y
	}
	if a.Flags != b.Flags || a.Direct != b.Direct || !c.typ(a.Type, b.Type) {
		return false
	}
	if dx.Name != dy.Name && !c.substitute(DeclRef(x), DeclRef(y)) {
		return false
	}
	if a.Init.IsValid() != b.Init.IsValid() {
		return false
	}
	return c.expr(a.Init, b.Init) && c.exprs(a.Args, b.Args)
}

func (c *comparer) stmts(xs, ys []StmtID) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !c.stmt(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

func (c *comparer) stmt(x, y StmtID) bool {
	if x == y {
		return true
	}
	sx, sy := c.b.Stmts.Get(x), c.b.Stmts.Get(y)
	if sx == nil || sy == nil {
		return sx == nil && sy == nil
	}
	if sx.Kind != sy.Kind || !c.enter() {
		return false
	}
	defer c.leave()

	s := c.b.Stmts
	switch sx.Kind {
	case StmtBlock:
		a, _ := s.Block(x)
		b, _ := s.Block(y)
		return c.stmts(a.Stmts, b.Stmts)
	case StmtExpr:
		a, _ := s.Expr(x)
		b, _ := s.Expr(y)
		return c.expr(a.X, b.X)
	case StmtDecl:
		a, _ := s.Decl(x)
		b, _ := s.Decl(y)
		if len(a.Decls) != len(b.Decls) {
			return false
		}
		for i := range a.Decls {
			if !c.varDecl(a.Decls[i], b.Decls[i]) {
				return false
			}
		}
		return true
	case StmtIf:
		a, _ := s.If(x)
		b, _ := s.If(y)
		return c.expr(a.Cond, b.Cond) && c.stmt(a.Then, b.Then) && c.stmt(a.Else, b.Else)
	case StmtFor:
		a, _ := s.For(x)
		b, _ := s.For(y)
		return c.stmt(a.Init, b.Init) && c.expr(a.Cond, b.Cond) &&
			c.expr(a.Post, b.Post) && c.stmt(a.Body, b.Body)
	case StmtRangeFor:
		a, _ := s.RangeFor(x)
		b, _ := s.RangeFor(y)
		return c.varDecl(a.Var, b.Var) && c.expr(a.Range, b.Range) && c.stmt(a.Body, b.Body)
	case StmtWhile, StmtDoWhile:
		a, _ := s.While(x)
		b, _ := s.While(y)
		return c.expr(a.Cond, b.Cond) && c.stmt(a.Body, b.Body)
	case StmtReturn, StmtThrow:
		a, _ := s.Value(x)
		b, _ := s.Value(y)
		if a.Value.IsValid() != b.Value.IsValid() {
			return false
		}
		return c.expr(a.Value, b.Value)
	case StmtSwitch:
		a, _ := s.Switch(x)
		b, _ := s.Switch(y)
		return c.expr(a.Cond, b.Cond) && c.stmt(a.Body, b.Body)
	case StmtCase:
		a, _ := s.Case(x)
		b, _ := s.Case(y)
		if a.Value.IsValid() != b.Value.IsValid() {
			return false
		}
		return c.expr(a.Value, b.Value) && c.stmts(a.Body, b.Body)
	case StmtBreak, StmtContinue, StmtEmpty:
		return true
	}
	return false
}
