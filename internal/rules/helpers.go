package rules

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/source"
	"idiomlint/internal/symbols"
)

func (p *Pass) expr(id ast.ExprID) *ast.Expr { return p.Tree.Exprs.Get(id) }

func (p *Pass) stmt(id ast.StmtID) *ast.Stmt { return p.Tree.Stmts.Get(id) }

func (p *Pass) exprSpan(id ast.ExprID) source.Span { return p.Tree.Span(ast.ExprRef(id)) }

func (p *Pass) stmtSpan(id ast.StmtID) source.Span { return p.Tree.Span(ast.StmtRef(id)) }

func (p *Pass) strip(id ast.ExprID) ast.ExprID { return p.Tree.Exprs.StripParens(id) }

func (p *Pass) isKind(id ast.ExprID, kind ast.ExprKind) bool {
	e := p.expr(id)
	return e != nil && e.Kind == kind
}

// boolLiteral reports the value of a true/false literal, parens ignored.
func (p *Pass) boolLiteral(id ast.ExprID) (value, ok bool) {
	lit, ok := p.Tree.Exprs.Literal(p.strip(id))
	if !ok || lit.Kind != ast.LitBool {
		return false, false
	}
	return p.Tree.Name(lit.Value) == "true", true
}

// boolReturn matches `return true;` / `return false;`, possibly as the only
// statement of a block.
func (p *Pass) boolReturn(id ast.StmtID) (value, ok bool) {
	list := p.Tree.StmtList(id)
	if len(list) != 1 {
		return false, false
	}
	s := p.stmt(list[0])
	if s == nil || s.Kind != ast.StmtReturn {
		return false, false
	}
	vd, _ := p.Tree.Stmts.Value(list[0])
	return p.boolLiteral(vd.Value)
}

// primary reports whether an expression can take a prefix operator
// without parentheses.
func (p *Pass) primary(id ast.ExprID) bool {
	e := p.expr(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprIdent, ast.ExprLiteral, ast.ExprThis, ast.ExprParen,
		ast.ExprCall, ast.ExprIndex, ast.ExprMember:
		return true
	case ast.ExprUnary:
		ud, _ := p.Tree.Exprs.Unary(id)
		return !ud.Op.IsPostfix()
	}
	return false
}

// negated renders !x, adding parentheses when x is not primary.
func (p *Pass) negated(id ast.ExprID) string {
	if p.primary(id) {
		return "!" + p.Tree.RenderExpr(id)
	}
	return "!(" + p.Tree.RenderExpr(p.strip(id)) + ")"
}

// hasCall reports whether the subtree contains a call, including calls
// spelled as opaque constructs.
func (p *Pass) hasCall(ref ast.NodeRef) bool {
	return p.containsExpr(ref, func(e *ast.Expr) bool {
		return e.Kind == ast.ExprCall || e.Kind == ast.ExprOpaque
	})
}

func (p *Pass) containsExpr(ref ast.NodeRef, pred func(*ast.Expr) bool) bool {
	found := false
	p.Tree.Inspect(ref, func(r ast.NodeRef) bool {
		if found {
			return false
		}
		if r.Kind == ast.NodeExpr {
			if e := p.expr(r.Expr()); e != nil && pred(e) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// exits reports whether control never falls off the end of stmt: it
// returns, throws, breaks or continues on every path that syntax alone
// shows.
func (p *Pass) exits(id ast.StmtID) bool {
	s := p.stmt(id)
	if s == nil {
		return false
	}
	switch s.Kind {
	case ast.StmtReturn, ast.StmtThrow, ast.StmtBreak, ast.StmtContinue:
		return true
	case ast.StmtBlock:
		bd, _ := p.Tree.Stmts.Block(id)
		for _, c := range bd.Stmts {
			if p.exits(c) {
				return true
			}
		}
	case ast.StmtIf:
		in, _ := p.Tree.Stmts.If(id)
		return in.Else.IsValid() && p.exits(in.Then) && p.exits(in.Else)
	}
	return false
}

// siblings returns the statement list that holds id (a block body or a
// case body) and the position of id in it.
func (p *Pass) siblings(id ast.StmtID) ([]ast.StmtID, int) {
	parent := p.Tree.Parent(ast.StmtRef(id))
	if parent.Kind != ast.NodeStmt {
		return nil, -1
	}
	var list []ast.StmtID
	if bd, ok := p.Tree.Stmts.Block(parent.Stmt()); ok {
		list = bd.Stmts
	} else if cd, ok := p.Tree.Stmts.Case(parent.Stmt()); ok {
		list = cd.Body
	}
	for i, s := range list {
		if s == id {
			return list, i
		}
	}
	return nil, -1
}

// loopBody returns the body of a loop statement.
func (p *Pass) loopBody(id ast.StmtID) ast.StmtID {
	s := p.stmt(id)
	if s == nil {
		return ast.NoStmtID
	}
	switch s.Kind {
	case ast.StmtFor:
		fd, _ := p.Tree.Stmts.For(id)
		return fd.Body
	case ast.StmtRangeFor:
		rd, _ := p.Tree.Stmts.RangeFor(id)
		return rd.Body
	case ast.StmtWhile, ast.StmtDoWhile:
		wd, _ := p.Tree.Stmts.While(id)
		return wd.Body
	}
	return ast.NoStmtID
}

// enclosingLoop returns the nearest loop whose body contains ref without a
// function boundary in between.
func (p *Pass) enclosingLoop(ref ast.NodeRef) ast.StmtID {
	for r := p.Tree.Parent(ref); r.IsValid(); r = p.Tree.Parent(r) {
		switch r.Kind {
		case ast.NodeDecl:
			if d := p.Tree.Decls.Get(r.Decl()); d != nil && d.Kind == ast.DeclFunction {
				return ast.NoStmtID
			}
		case ast.NodeStmt:
			if s := p.stmt(r.Stmt()); s != nil && s.Kind.IsLoop() {
				return r.Stmt()
			}
		}
	}
	return ast.NoStmtID
}

func (p *Pass) symbol(id symbols.SymbolID) *symbols.Symbol {
	if !id.Known() {
		return nil
	}
	return p.Index.Symbol(id)
}

// symbolType returns the declared type of a value symbol.
func (p *Pass) symbolType(sym *symbols.Symbol) *ast.Type {
	if sym == nil {
		return nil
	}
	return p.Tree.Types.Get(sym.Type)
}

// ownerClass returns the class declaration a member function belongs to,
// whether defined inside the class or out of line.
func (p *Pass) ownerClass(fn ast.DeclID) (ast.DeclID, symbols.ScopeID) {
	fd, ok := p.Tree.Decls.Func(fn)
	if !ok {
		return ast.NoDeclID, symbols.NoScopeID
	}
	var name source.StringID
	if parent := p.Tree.Parent(ast.DeclRef(fn)); parent.Kind == ast.NodeDecl {
		if d := p.Tree.Decls.Get(parent.Decl()); d != nil && d.Kind == ast.DeclClass {
			name = d.Name
		}
	}
	if name == source.NoStringID {
		name = fd.Qualifier
	}
	if name == source.NoStringID {
		return ast.NoDeclID, symbols.NoScopeID
	}
	scope, ok := p.Index.Symbols.ClassScope(name)
	if !ok {
		return ast.NoDeclID, symbols.NoScopeID
	}
	sc := p.Index.Symbols.Scopes.Get(scope)
	return sc.Owner.Decl, scope
}

// classMembers returns the member declarations written inside class.
func (p *Pass) classMembers(class ast.DeclID) []ast.DeclID {
	cd, ok := p.Tree.Decls.Class(class)
	if !ok {
		return nil
	}
	return cd.Members
}

// namedOperator finds the member functions of class declaring operator tok.
func (p *Pass) namedOperator(class ast.DeclID, tok string) []ast.DeclID {
	var out []ast.DeclID
	for _, m := range p.classMembers(class) {
		fd, ok := p.Tree.Decls.Func(m)
		if ok && fd.Kind == ast.FuncOperator && fd.Operator == tok {
			out = append(out, m)
		}
	}
	return out
}

// bodyStmts returns the top-level statements of a function body.
func (p *Pass) bodyStmts(fn ast.DeclID) []ast.StmtID {
	fd, ok := p.Tree.Decls.Func(fn)
	if !ok || !fd.Body.IsValid() {
		return nil
	}
	return p.Tree.StmtList(fd.Body)
}

// singleReturn returns the value of a body consisting of one return.
func (p *Pass) singleReturn(fn ast.DeclID) (ast.ExprID, bool) {
	body := p.bodyStmts(fn)
	if len(body) != 1 {
		return ast.NoExprID, false
	}
	vd, ok := p.Tree.Stmts.Value(body[0])
	if !ok || p.stmt(body[0]).Kind != ast.StmtReturn || !vd.Value.IsValid() {
		return ast.NoExprID, false
	}
	return vd.Value, true
}

// isThisDeref matches `*this`, parens ignored.
func (p *Pass) isThisDeref(id ast.ExprID) bool {
	ud, ok := p.Tree.Exprs.Unary(p.strip(id))
	return ok && ud.Op == ast.UnaryDeref && p.isKind(p.strip(ud.Operand), ast.ExprThis)
}

// calleeName returns the spelled name of a direct call target: `f`,
// `obj.f`, `this->f` or `ptr->f`, with the member flag set for the latter.
func (p *Pass) calleeName(call ast.ExprID) (name string, member bool, base ast.ExprID) {
	cd, ok := p.Tree.Exprs.Call(call)
	if !ok {
		return "", false, ast.NoExprID
	}
	callee := p.strip(cd.Callee)
	if id, ok := p.Tree.Exprs.Ident(callee); ok {
		return p.Tree.Name(id.Name), false, ast.NoExprID
	}
	if md, ok := p.Tree.Exprs.Member(callee); ok {
		return p.Tree.Name(md.Name), true, md.Base
	}
	return "", false, ast.NoExprID
}

// outer climbs from an expression through enclosing parentheses and
// returns the first non-paren ancestor together with the outermost paren
// (or the expression itself) that is its direct child.
func (p *Pass) outer(id ast.ExprID) (parent ast.NodeRef, child ast.ExprID) {
	child = id
	for {
		parent = p.Tree.Parent(ast.ExprRef(child))
		if parent.Kind != ast.NodeExpr || !p.isKind(parent.Expr(), ast.ExprParen) {
			return parent, child
		}
		child = parent.Expr()
	}
}

// refText spells a leaf node: an expression or the name of a declaration.
func (p *Pass) refText(r ast.NodeRef) string {
	switch r.Kind {
	case ast.NodeExpr:
		return p.Tree.RenderExpr(r.Expr())
	case ast.NodeDecl:
		if d := p.Tree.Decls.Get(r.Decl()); d != nil {
			return p.Tree.Name(d.Name)
		}
	}
	return ""
}
