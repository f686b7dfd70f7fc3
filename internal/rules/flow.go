package rules

import (
	"strings"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/source"
	"idiomlint/internal/symbols"
)

// ---- FLW3001 ----

type unreachableCode struct{}

func (unreachableCode) Meta() Meta {
	return Meta{Code: diag.UnreachableCode, Category: CategoryFlow, Severity: diag.SevWarning}
}

func (unreachableCode) VisitStmt(p *Pass, id ast.StmtID) {
	var list []ast.StmtID
	inCase := false
	if bd, ok := p.Tree.Stmts.Block(id); ok {
		list = bd.Stmts
	} else if cd, ok := p.Tree.Stmts.Case(id); ok {
		list, inCase = cd.Body, true
	} else {
		return
	}
	// an unreachable container is reported by its own parent list
	if _, _, ok := p.Index.BlockOf(id); !ok || p.Index.Unreachable(id) {
		return
	}
	for i := 0; i < len(list); {
		if !p.Index.Unreachable(list[i]) {
			i++
			continue
		}
		j := i
		for j+1 < len(list) && p.Index.Unreachable(list[j+1]) {
			j++
		}
		run := list[i : j+1]
		if !ignorableRun(p, run, inCase) {
			span := p.stmtSpan(run[0]).Cover(p.stmtSpan(run[len(run)-1]))
			b := p.Reportf(span, "%s never %s", plural(len(run), "statement", "statements"), plural(len(run), "executes", "execute"))
			if i > 0 {
				b.WithNote(p.stmtSpan(list[i-1]), "control does not continue past this statement")
			}
			b.WithFixSuggestion(fix.DeleteSpan("remove unreachable code", span, fix.ManualReview())).Emit()
		}
		i = j + 1
	}
}

// ignorableRun skips empty statements and the customary break after a
// return inside a case.
func ignorableRun(p *Pass, run []ast.StmtID, inCase bool) bool {
	for _, s := range run {
		switch p.stmt(s).Kind {
		case ast.StmtEmpty:
		case ast.StmtBreak:
			if !inCase {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ---- FLW3002 ----

type preferUnsigned struct{}

func (preferUnsigned) Meta() Meta {
	return Meta{Code: diag.PreferUnsigned, Category: CategoryFlow, Severity: diag.SevInfo, Advisory: true}
}

func (c preferUnsigned) CheckFile(p *Pass) {
	p.Index.Symbols.Symbols.Each(func(id symbols.SymbolID, sym *symbols.Symbol) {
		if sym.Kind != symbols.SymbolVariable || !sym.Has(symbols.SymbolFlagLocal) {
			return
		}
		t := p.symbolType(sym)
		if t == nil || !t.IndirectionFree() || !ast.IsSignedIntegral(p.Tree.Name(t.Name)) {
			return
		}
		if len(sym.Escapes) > 0 || !c.initNonNegative(p, sym) {
			return
		}
		for _, w := range sym.Writes {
			if !c.writeNonNegative(p, w) {
				return
			}
		}
		var evidence source.Span
		var why string
		for _, r := range sym.Reads {
			if !r.Expr.IsValid() {
				return
			}
			neg, pos, reason := c.classifyRead(p, r.Expr)
			if neg {
				return
			}
			if pos && why == "" {
				evidence, why = r.Span, reason
			}
		}
		if why == "" {
			return
		}
		name := p.Tree.Name(sym.Name)
		p.Reportf(sym.Span, "%s never holds a negative value; consider std::size_t", name).
			WithNote(evidence, why).
			Emit()
	})
}

func (preferUnsigned) initNonNegative(p *Pass, sym *symbols.Symbol) bool {
	vd, ok := p.Tree.Decls.Var(sym.Decl())
	if !ok {
		return false
	}
	switch {
	case vd.Init.IsValid():
		return nonNegative(p, vd.Init)
	case len(vd.Args) == 1:
		return nonNegative(p, vd.Args[0])
	case len(vd.Args) > 1:
		return false
	}
	return true
}

func (preferUnsigned) writeNonNegative(p *Pass, w symbols.Site) bool {
	if !w.Expr.IsValid() {
		return false
	}
	parent, child := p.outer(w.Expr)
	if parent.Kind != ast.NodeExpr {
		return false
	}
	if ud, ok := p.Tree.Exprs.Unary(parent.Expr()); ok {
		return ud.Op == ast.UnaryPreInc || ud.Op == ast.UnaryPostInc
	}
	ad, ok := p.Tree.Exprs.Assign(parent.Expr())
	if !ok || ad.Target != child {
		return false
	}
	switch ad.Op {
	case ast.AssignPlain, ast.AssignAdd, ast.AssignMul, ast.AssignDiv, ast.AssignMod, ast.AssignShr:
		return nonNegative(p, ad.Value)
	}
	return false
}

// classifyRead looks at the expression around one read of the variable.
func (preferUnsigned) classifyRead(p *Pass, e ast.ExprID) (negative, positive bool, why string) {
	parent, child := p.outer(e)
	switch parent.Kind {
	case ast.NodeStmt:
		if s := p.stmt(parent.Stmt()); s.Kind == ast.StmtReturn {
			return true, false, ""
		}
		return false, false, ""
	case ast.NodeDecl:
		return false, false, ""
	case ast.NodeExpr:
	default:
		return false, false, ""
	}
	pe := parent.Expr()
	switch x := p.expr(pe); x.Kind {
	case ast.ExprIndex:
		xd, _ := p.Tree.Exprs.Index(pe)
		if xd.Index == child {
			return false, true, "used as an index here"
		}
	case ast.ExprCall:
		return true, false, ""
	case ast.ExprUnary:
		ud, _ := p.Tree.Exprs.Unary(pe)
		return ud.Op == ast.UnaryNeg, false, ""
	case ast.ExprBinary:
		bd, _ := p.Tree.Exprs.Binary(pe)
		if bd.Op == ast.BinSub {
			return true, false, ""
		}
		if bd.Op.IsComparison() {
			other := bd.Right
			if bd.Right == child {
				other = bd.Left
			}
			if unsignedValue(p, other) {
				return false, true, "compared with an unsigned value here"
			}
		}
	}
	return false, false, ""
}

// nonNegative reports whether e evidently yields a value >= 0.
func nonNegative(p *Pass, e ast.ExprID) bool {
	e = p.strip(e)
	switch x := p.expr(e); x.Kind {
	case ast.ExprLiteral:
		lit, _ := p.Tree.Exprs.Literal(e)
		return lit.Kind == ast.LitInt || lit.Kind == ast.LitChar
	case ast.ExprBinary:
		bd, _ := p.Tree.Exprs.Binary(e)
		switch bd.Op {
		case ast.BinAdd, ast.BinMul, ast.BinDiv, ast.BinMod, ast.BinShr:
			return nonNegative(p, bd.Left) && nonNegative(p, bd.Right)
		}
		return false
	}
	return unsignedValue(p, e)
}

// unsignedValue matches size()/length() calls, unsigned variables, casts
// to unsigned types and literals with a u suffix.
func unsignedValue(p *Pass, e ast.ExprID) bool {
	e = p.strip(e)
	switch x := p.expr(e); x.Kind {
	case ast.ExprLiteral:
		lit, _ := p.Tree.Exprs.Literal(e)
		v := p.Tree.Name(lit.Value)
		return lit.Kind == ast.LitInt && strings.ContainsAny(v, "uU")
	case ast.ExprCall:
		name, _, _ := p.calleeName(e)
		return name == "size" || name == "length" || name == "std::size"
	case ast.ExprCast:
		cd, _ := p.Tree.Exprs.Cast(e)
		t := p.Tree.Types.Get(cd.Type)
		return t != nil && t.IndirectionFree() && ast.IsUnsignedIntegral(p.Tree.Name(t.Name))
	case ast.ExprIdent, ast.ExprMember:
		sym := p.symbol(p.Index.SymbolOf(e))
		if sym == nil || !sym.IsValue() {
			return false
		}
		t := p.symbolType(sym)
		return t != nil && t.IndirectionFree() && ast.IsUnsignedIntegral(p.Tree.Name(t.Name))
	}
	return false
}
