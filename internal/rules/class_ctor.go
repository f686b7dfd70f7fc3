package rules

import (
	"slices"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/source"
	"idiomlint/internal/symbols"
)

// ---- CLS4001 ----

type preferMemberInitList struct{}

func (preferMemberInitList) Meta() Meta {
	return Meta{Code: diag.PreferMemberInitList, Category: CategoryClass, Severity: diag.SevWarning}
}

func (preferMemberInitList) VisitDecl(p *Pass, id ast.DeclID) {
	fd, ok := p.Tree.Decls.Func(id)
	if !ok || fd.Kind != ast.FuncCtor || !fd.Body.IsValid() {
		return
	}
	seen := make(map[symbols.SymbolID]bool)
	for _, st := range p.bodyStmts(id) {
		field, value, ok := fieldAssignment(p, st)
		if !ok || seen[field] {
			return
		}
		seen[field] = true
		sym := p.Index.Symbol(field)
		if initialized(fd, sym.Name) || usedBefore(p, sym, id, p.stmtSpan(st).Start) || readsField(p, value) {
			continue
		}
		name := p.Tree.Name(sym.Name)
		p.Reportf(p.stmtSpan(st), "%s is assigned in the constructor body; initialize it in the member initializer list", name).
			WithFixSuggestion(fix.Rewrite("initialize " + name + "(" + p.Tree.RenderExpr(value) + ") in the initializer list")).
			Emit()
	}
}

// fieldAssignment matches `field = expr;` where field is a data member of
// the object under construction.
func fieldAssignment(p *Pass, st ast.StmtID) (symbols.SymbolID, ast.ExprID, bool) {
	es, ok := p.Tree.Stmts.Expr(st)
	if !ok {
		return 0, ast.NoExprID, false
	}
	ad, ok := p.Tree.Exprs.Assign(p.strip(es.X))
	if !ok || ad.Op != ast.AssignPlain {
		return 0, ast.NoExprID, false
	}
	target := p.strip(ad.Target)
	symID := p.Index.SymbolOf(target)
	sym := p.symbol(symID)
	if sym == nil || sym.Kind != symbols.SymbolField || sym.Has(symbols.SymbolFlagStatic) {
		return 0, ast.NoExprID, false
	}
	for _, w := range sym.Writes {
		if w.Expr == target && w.ViaThis {
			return symID, ad.Value, true
		}
	}
	return 0, ast.NoExprID, false
}

func initialized(fd *ast.FuncData, name source.StringID) bool {
	return slices.ContainsFunc(fd.Inits, func(in ast.MemberInit) bool { return in.Name == name })
}

func usedBefore(p *Pass, sym *symbols.Symbol, fn ast.DeclID, offset uint32) bool {
	for _, group := range [][]symbols.Site{sym.Reads, sym.Writes, sym.Escapes} {
		for _, s := range group {
			if s.Func == fn && s.Span.Start < offset {
				return true
			}
		}
	}
	return false
}

// readsField reports whether value reads a data member; moving it into the
// initializer list could then observe an uninitialized member.
func readsField(p *Pass, value ast.ExprID) bool {
	for _, id := range p.Index.SymbolsIn(ast.ExprRef(value)) {
		if s := p.Index.Symbol(id); s != nil && s.Kind == symbols.SymbolField {
			return true
		}
	}
	return false
}

// ---- CLS4005 ----

type preferDefaulted struct{}

func (preferDefaulted) Meta() Meta {
	return Meta{Code: diag.PreferDefaulted, Category: CategoryClass, Severity: diag.SevWarning}
}

func (preferDefaulted) VisitDecl(p *Pass, id ast.DeclID) {
	fd, ok := p.Tree.Decls.Func(id)
	if !ok || !fd.Body.IsValid() || fd.Has(ast.FuncDefaulted) || fd.Has(ast.FuncDeleted) {
		return
	}
	class, _ := p.ownerClass(id)
	if !class.IsValid() {
		return
	}
	body := p.bodyStmts(id)
	var what string
	switch {
	case fd.Kind == ast.FuncCtor && len(fd.Params) == 0 && len(fd.Inits) == 0 && len(body) == 0:
		what = "empty default constructor"
	case fd.Kind == ast.FuncDtor && len(body) == 0:
		what = "empty destructor"
	case fd.Kind == ast.FuncCtor && len(body) == 0 && memberwiseCopyCtor(p, class, fd):
		what = "member-wise copy constructor"
	case fd.Kind == ast.FuncOperator && fd.Operator == "=" && memberwiseCopyAssign(p, class, fd, body):
		what = "member-wise copy assignment"
	default:
		return
	}
	d := p.Tree.Decls.Get(id)
	b := p.Reportf(d.NameSpan, "%s; use = default", what)
	if len(fd.Inits) == 0 && len(body) == 0 {
		b.WithFixSuggestion(fix.ReplaceSpan("use = default", p.stmtSpan(fd.Body), "= default;"))
	} else {
		b.WithFixSuggestion(fix.Rewrite("replace the definition with = default"))
	}
	b.Emit()
}

// copyParam returns the name of the single `const Class&` parameter.
func copyParam(p *Pass, class ast.DeclID, fd *ast.FuncData) (source.StringID, bool) {
	if len(fd.Params) != 1 {
		return source.NoStringID, false
	}
	vd, _ := p.Tree.Decls.Var(fd.Params[0])
	t := p.Tree.Types.Get(vd.Type)
	cd := p.Tree.Decls.Get(class)
	if t == nil || !t.Const || t.Ref != ast.RefLValue || t.Pointers != 0 || t.Name != cd.Name {
		return source.NoStringID, false
	}
	name := p.Tree.Decls.Get(fd.Params[0]).Name
	return name, name != source.NoStringID
}

// instanceFields lists the non-static data members of class.
func instanceFields(p *Pass, class ast.DeclID) []source.StringID {
	var out []source.StringID
	for _, m := range p.classMembers(class) {
		d := p.Tree.Decls.Get(m)
		if d.Kind != ast.DeclField {
			continue
		}
		if vd, _ := p.Tree.Decls.Var(m); vd.Has(ast.VarStatic) {
			continue
		}
		out = append(out, d.Name)
	}
	return out
}

// copiedField matches `other.f` and returns f.
func copiedField(p *Pass, e ast.ExprID, other source.StringID) (source.StringID, bool) {
	md, ok := p.Tree.Exprs.Member(p.strip(e))
	if !ok || md.Arrow {
		return source.NoStringID, false
	}
	base, ok := p.Tree.Exprs.Ident(p.strip(md.Base))
	if !ok || base.Name != other {
		return source.NoStringID, false
	}
	return md.Name, true
}

func memberwiseCopyCtor(p *Pass, class ast.DeclID, fd *ast.FuncData) bool {
	cd, _ := p.Tree.Decls.Class(class)
	other, ok := copyParam(p, class, fd)
	if !ok || len(cd.Bases) > 0 {
		return false
	}
	fields := instanceFields(p, class)
	if len(fields) == 0 || len(fd.Inits) != len(fields) {
		return false
	}
	for _, in := range fd.Inits {
		if len(in.Args) != 1 {
			return false
		}
		f, ok := copiedField(p, in.Args[0], other)
		if !ok || f != in.Name || !slices.Contains(fields, f) {
			return false
		}
	}
	return true
}

func memberwiseCopyAssign(p *Pass, class ast.DeclID, fd *ast.FuncData, body []ast.StmtID) bool {
	cd, _ := p.Tree.Decls.Class(class)
	other, ok := copyParam(p, class, fd)
	if !ok || len(cd.Bases) > 0 || len(body) == 0 {
		return false
	}
	fields := instanceFields(p, class)
	assigns, last := body[:len(body)-1], body[len(body)-1]
	if len(fields) == 0 || len(assigns) != len(fields) {
		return false
	}
	if vd, ok := p.Tree.Stmts.Value(last); !ok || p.stmt(last).Kind != ast.StmtReturn || !p.isThisDeref(vd.Value) {
		return false
	}
	done := make(map[source.StringID]bool, len(fields))
	for _, st := range assigns {
		es, ok := p.Tree.Stmts.Expr(st)
		if !ok {
			return false
		}
		ad, ok := p.Tree.Exprs.Assign(p.strip(es.X))
		if !ok || ad.Op != ast.AssignPlain {
			return false
		}
		target, ok := ownMember(p, ad.Target)
		if !ok {
			return false
		}
		src, ok := copiedField(p, ad.Value, other)
		if !ok || src != target || done[target] || !slices.Contains(fields, target) {
			return false
		}
		done[target] = true
	}
	return true
}

// ownMember matches `f` or `this->f` naming a member of the current object.
func ownMember(p *Pass, e ast.ExprID) (source.StringID, bool) {
	e = p.strip(e)
	if id, ok := p.Tree.Exprs.Ident(e); ok {
		return id.Name, true
	}
	md, ok := p.Tree.Exprs.Member(e)
	if ok && md.Arrow && p.isKind(p.strip(md.Base), ast.ExprThis) {
		return md.Name, true
	}
	return source.NoStringID, false
}
