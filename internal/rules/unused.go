package rules

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/symbols"
)

type unusedVariable struct{}

func (unusedVariable) Meta() Meta {
	return Meta{Code: diag.UnusedVariable, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (unusedVariable) CheckFile(p *Pass) {
	p.Index.Symbols.Symbols.Each(func(_ symbols.SymbolID, sym *symbols.Symbol) {
		if sym.Kind != symbols.SymbolVariable || !sym.Has(symbols.SymbolFlagLocal) || sym.Has(symbols.SymbolFlagMaybeUnused) {
			return
		}
		if len(sym.Reads) > 0 || len(sym.Escapes) > 0 {
			return
		}
		decl := sym.Decl()
		if inRangeFor(p, decl) || !trivialType(p, sym) {
			return
		}
		name := p.Tree.Name(sym.Name)
		b := p.Reportf(sym.Span, "local variable %s is never read", name)
		if stmt, ok := soleDeclStmt(p, decl); ok && len(sym.Writes) == 0 && !p.hasCall(ast.DeclRef(decl)) {
			b.WithFixSuggestion(fix.DeleteSpan("remove "+name, p.stmtSpan(stmt)))
		}
		b.Emit()
	})
}

// trivialType admits types whose construction has no effect worth keeping:
// builtins, pointers, references and standard value types. Other class
// types may be guards.
func trivialType(p *Pass, sym *symbols.Symbol) bool {
	t := p.symbolType(sym)
	if t == nil {
		return false
	}
	if t.Pointers > 0 || t.Ref != ast.RefNone {
		return true
	}
	name := p.Tree.Name(t.Name)
	return ast.IsBuiltin(name) || ast.IsStdValueType(name)
}

func inRangeFor(p *Pass, decl ast.DeclID) bool {
	parent := p.Tree.Parent(ast.DeclRef(decl))
	if parent.Kind != ast.NodeStmt {
		return false
	}
	s := p.stmt(parent.Stmt())
	return s != nil && s.Kind == ast.StmtRangeFor
}

func soleDeclStmt(p *Pass, decl ast.DeclID) (ast.StmtID, bool) {
	parent := p.Tree.Parent(ast.DeclRef(decl))
	if parent.Kind != ast.NodeStmt {
		return ast.NoStmtID, false
	}
	dd, ok := p.Tree.Stmts.Decl(parent.Stmt())
	if !ok || len(dd.Decls) != 1 {
		return ast.NoStmtID, false
	}
	// a for-init declaration cannot be deleted on its own
	if gp := p.Tree.Parent(parent); gp.Kind == ast.NodeStmt && p.stmt(gp.Stmt()).Kind == ast.StmtFor {
		return ast.NoStmtID, false
	}
	return parent.Stmt(), true
}
