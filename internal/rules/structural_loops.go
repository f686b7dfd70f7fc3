package rules

import (
	"github.com/RoaringBitmap/roaring/v2"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/symbols"
)

// ---- STR2002 ----

type redundantLoopCondition struct{}

func (redundantLoopCondition) Meta() Meta {
	return Meta{Code: diag.RedundantLoopCondition, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (redundantLoopCondition) VisitStmt(p *Pass, id ast.StmtID) {
	fd, ok := p.Tree.Stmts.For(id)
	if !ok || !fd.Cond.IsValid() || !fd.Body.IsValid() {
		return
	}
	condRef := ast.ExprRef(fd.Cond)
	if p.hasCall(condRef) || p.Index.HasUnknownIn(condRef) {
		return
	}
	modified := p.Index.ModifiedIn(fd.Body)
	for _, sym := range p.Index.SymbolsIn(condRef) {
		if modified.Contains(uint32(sym)) {
			return
		}
	}
	p.Tree.Inspect(ast.StmtRef(fd.Body), func(r ast.NodeRef) bool {
		if r.Kind != ast.NodeStmt {
			return r.Kind != ast.NodeExpr
		}
		s := p.stmt(r.Stmt())
		if s.Kind.IsLoop() {
			return false
		}
		in, ok := p.Tree.Stmts.If(r.Stmt())
		if !ok {
			return true
		}
		for _, c := range conjuncts(p, in.Cond) {
			if p.Tree.EqualExpr(c, p.strip(fd.Cond)) {
				p.Reportf(p.exprSpan(c), "%s always holds inside the loop body", p.Tree.RenderExpr(c)).
					WithNote(p.exprSpan(fd.Cond), "loop condition").
					WithFixSuggestion(fix.Rewrite("drop the repeated test")).
					Emit()
				break
			}
		}
		return true
	})
}

// conjuncts splits a && b && c into its operands, parens ignored.
func conjuncts(p *Pass, id ast.ExprID) []ast.ExprID {
	id = p.strip(id)
	bd, ok := p.Tree.Exprs.Binary(id)
	if !ok || bd.Op != ast.BinLogAnd {
		return []ast.ExprID{id}
	}
	return append(conjuncts(p, bd.Left), conjuncts(p, bd.Right)...)
}

// ---- STR2003 ----

type preferForLoop struct{}

func (preferForLoop) Meta() Meta {
	return Meta{Code: diag.PreferForLoop, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (preferForLoop) VisitStmt(p *Pass, id ast.StmtID) {
	wd, ok := p.Tree.Stmts.While(id)
	if !ok || p.stmt(id).Kind != ast.StmtWhile {
		return
	}
	list, i := p.siblings(id)
	if i < 1 {
		return
	}
	prev := list[i-1]
	dd, ok := p.Tree.Stmts.Decl(prev)
	if !ok || len(dd.Decls) != 1 {
		return
	}
	symID := p.Index.DeclSymbol(dd.Decls[0])
	sym := p.symbol(symID)
	if sym == nil || sym.Kind != symbols.SymbolVariable || sym.Has(symbols.SymbolFlagStatic) {
		return
	}
	inCond := false
	p.Tree.InspectExprs(ast.ExprRef(wd.Cond), func(e ast.ExprID) {
		if p.Index.Symbols.SymbolOf(e) == symID {
			inCond = true
		}
	})
	if !inCond || !sitesWithin(p, sym, ast.StmtRef(id)) {
		return
	}
	name := p.Tree.Name(sym.Name)
	p.Reportf(p.stmtSpan(id), "%s is only used by this loop; prefer a for loop", name).
		WithNote(p.stmtSpan(prev), "declared here").
		WithFixSuggestion(fix.Rewrite("move the declaration of " + name + " into a for statement")).
		Emit()
}

// sitesWithin reports whether every access of sym happens inside root.
func sitesWithin(p *Pass, sym *symbols.Symbol, root ast.NodeRef) bool {
	for _, group := range [][]symbols.Site{sym.Reads, sym.Writes, sym.Escapes} {
		for _, s := range group {
			if !s.Expr.IsValid() || !p.Tree.IsAncestor(root, ast.ExprRef(s.Expr)) {
				return false
			}
		}
	}
	return true
}

// ---- STR2009 ----

type hoistLoopInvariant struct{}

func (hoistLoopInvariant) Meta() Meta {
	return Meta{Code: diag.HoistLoopInvariantCondition, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (hoistLoopInvariant) VisitStmt(p *Pass, id ast.StmtID) {
	s := p.stmt(id)
	if !s.Kind.IsLoop() {
		return
	}
	loopRef := ast.StmtRef(id)
	var modified *roaring.Bitmap
	loopCalls := -1
	for _, st := range p.Tree.StmtList(p.loopBody(id)) {
		in, ok := p.Tree.Stmts.If(st)
		if !ok {
			continue
		}
		condRef := ast.ExprRef(in.Cond)
		if p.hasCall(condRef) || p.Index.HasUnknownIn(condRef) || indirect(p, condRef) {
			continue
		}
		syms := p.Index.SymbolsIn(condRef)
		if len(syms) == 0 {
			continue
		}
		if modified == nil {
			modified = p.Index.ModifiedIn(id)
		}
		invariant := true
		for _, symID := range syms {
			sym := p.symbol(symID)
			if sym == nil || !sym.IsValue() || p.Index.DeclaredWithin(symID, loopRef) || modified.Contains(uint32(symID)) {
				invariant = false
				break
			}
			if sym.Kind == symbols.SymbolField || (sym.Kind == symbols.SymbolVariable && !sym.Has(symbols.SymbolFlagLocal)) {
				if loopCalls < 0 {
					loopCalls = 0
					if p.hasCall(loopRef) {
						loopCalls = 1
					}
				}
				if loopCalls == 1 {
					invariant = false
					break
				}
			}
		}
		if !invariant {
			continue
		}
		p.Reportf(p.exprSpan(in.Cond), "%s does not change inside the loop; test it once before the loop", p.Tree.RenderExpr(in.Cond)).
			WithNote(p.stmtSpan(id), "loop").
			WithFixSuggestion(fix.Rewrite("hoist the condition out of the loop", fix.ManualReview())).
			Emit()
	}
}

// indirect reports whether ref reads through a pointer, an arrow or a
// subscript; such reads may observe writes the index cannot see.
func indirect(p *Pass, ref ast.NodeRef) bool {
	found := false
	p.Tree.InspectExprs(ref, func(e ast.ExprID) {
		switch x := p.expr(e); x.Kind {
		case ast.ExprIndex:
			found = true
		case ast.ExprUnary:
			ud, _ := p.Tree.Exprs.Unary(e)
			found = found || ud.Op == ast.UnaryDeref
		case ast.ExprMember:
			md, _ := p.Tree.Exprs.Member(e)
			found = found || (md.Arrow && !p.isKind(p.strip(md.Base), ast.ExprThis))
		}
	})
	return found
}
