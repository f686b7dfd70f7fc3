package rules

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/symbols"
)

// ---- CLS4002 ----

type redundantThis struct{}

func (redundantThis) Meta() Meta {
	return Meta{Code: diag.RedundantThis, Category: CategoryClass, Severity: diag.SevWarning}
}

func (redundantThis) VisitExpr(p *Pass, id ast.ExprID) {
	md, ok := p.Tree.Exprs.Member(id)
	if !ok {
		return
	}
	onThis := md.Arrow && p.isKind(p.strip(md.Base), ast.ExprThis)
	if !onThis && !(!md.Arrow && p.isThisDeref(md.Base)) {
		return
	}
	sym := p.Index.SymbolOf(id)
	if !sym.Known() || !p.Index.NameResolvesTo(id, sym) {
		return
	}
	name := p.Tree.Name(md.Name)
	p.Reportf(p.exprSpan(id), "explicit this is redundant; %s already names the member", name).
		WithFixSuggestion(fix.ReplaceSpan("drop this->", p.exprSpan(id), name)).
		Emit()
}

// ---- CLS4003 ----

type missingConst struct{}

func (missingConst) Meta() Meta {
	return Meta{Code: diag.MissingConst, Category: CategoryClass, Severity: diag.SevWarning}
}

// mutatingOperators never make sense as const members.
var mutatingOperators = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
	"++": true, "--": true,
	"new": true, "delete": true, "new[]": true, "delete[]": true,
}

func (missingConst) VisitDecl(p *Pass, id ast.DeclID) {
	fd, ok := p.Tree.Decls.Func(id)
	if !ok || !fd.Body.IsValid() {
		return
	}
	switch fd.Kind {
	case ast.FuncMethod, ast.FuncConversion:
	case ast.FuncOperator:
		if mutatingOperators[fd.Operator] {
			return
		}
	default:
		return
	}
	const blocking = ast.FuncConst | ast.FuncStatic | ast.FuncVirtual | ast.FuncOverride |
		ast.FuncDefaulted | ast.FuncDeleted | ast.FuncPure
	if declaredFlags(p, id, fd)&blocking != 0 {
		return
	}
	class, scope := p.ownerClass(id)
	if !class.IsValid() || p.Index.Symbols.HasUnknownBase(scope) {
		return
	}
	if t := p.Tree.Types.Get(fd.Result); t != nil && (t.Ref != ast.RefNone || t.Pointers > 0) && !t.Const {
		return
	}
	if p.Index.HasUnknownIn(ast.StmtRef(fd.Body)) || mutatesObject(p, id) || leaksThis(p, fd.Body) {
		return
	}
	d := p.Tree.Decls.Get(id)
	name := p.Tree.Name(d.Name)
	p.Reportf(d.NameSpan, "%s does not modify the object; declare it const", name).
		WithFixSuggestion(fix.Rewrite("declare " + name + " const")).
		Emit()
}

// declaredFlags merges the flags of every declaration of the same overload:
// an in-class prototype carries static, virtual and override, the
// out-of-line definition does not.
func declaredFlags(p *Pass, id ast.DeclID, fd *ast.FuncData) ast.FuncFlags {
	flags := fd.Flags
	sym := p.symbol(p.Index.DeclSymbol(id))
	if sym == nil {
		return flags
	}
	for _, other := range sym.Decls {
		if od, ok := p.Tree.Decls.Func(other); ok && len(od.Params) == len(fd.Params) {
			flags |= od.Flags
		}
	}
	return flags
}

// mutatesObject reports whether fn writes a data member of the current
// object, lets one escape, or calls a non-const member function on it.
func mutatesObject(p *Pass, fn ast.DeclID) bool {
	in := func(sites []symbols.Site) bool {
		for _, s := range sites {
			if s.Func == fn && s.ViaThis {
				return true
			}
		}
		return false
	}
	found := false
	p.Index.Symbols.Symbols.Each(func(_ symbols.SymbolID, s *symbols.Symbol) {
		if found {
			return
		}
		switch s.Kind {
		case symbols.SymbolField:
			if !s.Has(symbols.SymbolFlagMutable) && !s.Has(symbols.SymbolFlagStatic) {
				found = in(s.Writes) || in(s.Escapes)
			}
		case symbols.SymbolMethod:
			if in(s.Reads) || in(s.Escapes) {
				found = !constOverloads(p, s)
			}
		}
	})
	return found
}

// constOverloads reports whether every instance overload of a method is
// const.
func constOverloads(p *Pass, s *symbols.Symbol) bool {
	for _, d := range s.Decls {
		fd, ok := p.Tree.Decls.Func(d)
		if !ok {
			return false
		}
		if !fd.Has(ast.FuncConst) && !fd.Has(ast.FuncStatic) {
			return false
		}
	}
	return true
}

// leaksThis reports a `this` used for anything but a member access.
func leaksThis(p *Pass, body ast.StmtID) bool {
	leak := false
	p.Tree.InspectExprs(ast.StmtRef(body), func(e ast.ExprID) {
		if leak || !p.isKind(e, ast.ExprThis) {
			return
		}
		parent, child := p.outer(e)
		if parent.Kind != ast.NodeExpr {
			leak = true
			return
		}
		if md, ok := p.Tree.Exprs.Member(parent.Expr()); ok && md.Arrow && md.Base == child {
			return
		}
		if ud, ok := p.Tree.Exprs.Unary(parent.Expr()); ok && ud.Op == ast.UnaryDeref {
			grand, deref := p.outer(parent.Expr())
			if grand.Kind == ast.NodeExpr {
				if md, ok := p.Tree.Exprs.Member(grand.Expr()); ok && !md.Arrow && md.Base == deref {
					return
				}
			}
		}
		leak = true
	})
	return leak
}
