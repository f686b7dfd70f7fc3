package rules

import (
	"fmt"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/source"
)

// ---- STR2007 ----

type booleanReturnIfElse struct{}

func (booleanReturnIfElse) Meta() Meta {
	return Meta{Code: diag.BooleanReturnIfElse, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (booleanReturnIfElse) VisitStmt(p *Pass, id ast.StmtID) {
	in, ok := p.Tree.Stmts.If(id)
	if !ok {
		return
	}
	span, thenValue, ok := boolReturnShape(p, id, in)
	if !ok {
		return
	}
	var suggestion string
	if thenValue {
		suggestion = "return " + p.Tree.RenderExpr(p.strip(in.Cond)) + ";"
	} else {
		suggestion = "return " + p.negated(in.Cond) + ";"
	}
	p.Reportf(span, "branches only return boolean literals; use %s", suggestion).
		WithFixSuggestion(fix.ReplaceSpan("return the condition", span, suggestion)).
		Emit()
}

// boolReturnShape matches `if (c) return A; else return !A;` and
// `if (c) return A; return !A;` and returns the span to replace together
// with the value returned when c holds.
func boolReturnShape(p *Pass, id ast.StmtID, in *ast.StmtIfData) (source.Span, bool, bool) {
	thenValue, ok := p.boolReturn(in.Then)
	if !ok {
		return source.Span{}, false, false
	}
	if in.Else.IsValid() {
		elseValue, ok := p.boolReturn(in.Else)
		if !ok || elseValue == thenValue {
			return source.Span{}, false, false
		}
		return p.stmtSpan(id), thenValue, true
	}
	list, i := p.siblings(id)
	if i < 0 || i+1 >= len(list) {
		return source.Span{}, false, false
	}
	next := list[i+1]
	if s := p.stmt(next); s == nil || s.Kind != ast.StmtReturn {
		return source.Span{}, false, false
	}
	nextValue, ok := p.boolReturn(next)
	if !ok || nextValue == thenValue {
		return source.Span{}, false, false
	}
	return p.stmtSpan(id).Cover(p.stmtSpan(next)), thenValue, true
}

// ---- STR2008 ----

type redundantElse struct{}

func (redundantElse) Meta() Meta {
	return Meta{Code: diag.RedundantElse, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (redundantElse) VisitStmt(p *Pass, id ast.StmtID) {
	in, ok := p.Tree.Stmts.If(id)
	if !ok || !in.Else.IsValid() || !p.exits(in.Then) {
		return
	}
	// the inner links of an else-if chain are reported through the head
	if parent := p.Tree.Parent(ast.StmtRef(id)); parent.Kind == ast.NodeStmt {
		if outer, ok := p.Tree.Stmts.If(parent.Stmt()); ok && outer.Else == id && p.exits(outer.Then) {
			return
		}
	}
	if _, _, ok := boolReturnShape(p, id, in); ok {
		return
	}
	p.Reportf(p.stmtSpan(in.Else), "else is redundant: the preceding branch always exits").
		WithNote(p.stmtSpan(in.Then), "this branch never falls through").
		WithFixSuggestion(fix.Rewrite("drop the else and move its statements after the if")).
		Emit()
}

// ---- STR2010 ----

type duplicateBranchCode struct{}

const optMaxDifferences = "max_differences"

func (duplicateBranchCode) Meta() Meta {
	return Meta{
		Code: diag.DuplicateBranchCode, Category: CategoryStructural, Severity: diag.SevWarning,
		Options: []OptionSpec{
			{Name: optMaxDifferences, Kind: OptionInt, Default: 1, Doc: "leaf substitutions tolerated between branches"},
		},
	}
}

func (c duplicateBranchCode) VisitStmt(p *Pass, id ast.StmtID) {
	switch p.stmt(id).Kind {
	case ast.StmtIf:
		c.ifElse(p, id)
	case ast.StmtSwitch:
		c.cases(p, id)
	}
}

func (duplicateBranchCode) ifElse(p *Pass, id ast.StmtID) {
	in, _ := p.Tree.Stmts.If(id)
	if !in.Else.IsValid() {
		return
	}
	if e := p.stmt(in.Else); e.Kind == ast.StmtIf {
		return
	}
	xs, ys := p.Tree.StmtList(in.Then), p.Tree.StmtList(in.Else)
	if len(xs) == 0 || len(ys) == 0 {
		return
	}
	span := p.stmtSpan(id)
	if len(xs) == len(ys) && equalStmts(p, xs, ys) {
		p.Reportf(span, "both branches of the if are identical").
			WithFixSuggestion(fix.Rewrite("drop the condition and keep one branch", fix.ManualReview())).
			Emit()
		return
	}
	prefix := 0
	for prefix < min(len(xs), len(ys)) && p.Tree.EqualStmt(xs[prefix], ys[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < min(len(xs), len(ys))-prefix && p.Tree.EqualStmt(xs[len(xs)-1-suffix], ys[len(ys)-1-suffix]) {
		suffix++
	}
	if prefix > 0 || suffix > 0 {
		b := p.Reportf(span, "branches share %s", sharedWhat(prefix, suffix))
		if prefix > 0 {
			b.WithNote(p.stmtSpan(xs[0]).Cover(p.stmtSpan(xs[prefix-1])), "shared leading statements")
		}
		if suffix > 0 {
			b.WithNote(p.stmtSpan(xs[len(xs)-suffix]).Cover(p.stmtSpan(xs[len(xs)-1])), "shared trailing statements")
		}
		b.WithFixSuggestion(fix.Rewrite("move the shared statements out of the if")).Emit()
		return
	}
	if trivialBody(p, xs) {
		return
	}
	if _, _, ok := boolReturnShape(p, id, in); ok {
		return
	}
	diffs, ok := p.Tree.DiffStmts(xs, ys, p.Options.Int(optMaxDifferences))
	if !ok || len(diffs) == 0 {
		return
	}
	b := p.Reportf(span, "branches differ only in %d %s", len(diffs), plural(len(diffs), "expression", "expressions"))
	for _, d := range diffs {
		b.WithNote(p.Tree.Span(d.Left), "differs from "+p.refText(d.Right))
	}
	b.WithFixSuggestion(fix.Rewrite("compute the differing value first and keep one branch", fix.ManualReview())).Emit()
}

func (duplicateBranchCode) cases(p *Pass, id ast.StmtID) {
	sd, _ := p.Tree.Stmts.Switch(id)
	var labels []ast.StmtID
	for _, s := range p.Tree.StmtList(sd.Body) {
		if _, ok := p.Tree.Stmts.Case(s); ok {
			labels = append(labels, s)
		}
	}
	bodies := make([][]ast.StmtID, len(labels))
	for i, l := range labels {
		cd, _ := p.Tree.Stmts.Case(l)
		body := cd.Body
		if n := len(body); n > 0 && p.stmt(body[n-1]).Kind == ast.StmtBreak {
			body = body[:n-1]
		}
		bodies[i] = body
	}
	limit := p.Options.Int(optMaxDifferences)
	for j := 1; j < len(labels); j++ {
		if len(bodies[j]) == 0 {
			continue
		}
		for i := 0; i < j; i++ {
			diffs, ok := p.Tree.DiffStmts(bodies[i], bodies[j], limit)
			if !ok || (len(diffs) > 0 && trivialBody(p, bodies[j])) {
				continue
			}
			msg := "case body duplicates an earlier case"
			if len(diffs) > 0 {
				msg = fmt.Sprintf("case body differs from an earlier case only in %d %s", len(diffs), plural(len(diffs), "expression", "expressions"))
			}
			p.Reportf(p.stmtSpan(labels[j]), "%s", msg).
				WithNote(p.stmtSpan(labels[i]), "earlier case").
				Emit()
			break
		}
	}
}

func equalStmts(p *Pass, xs, ys []ast.StmtID) bool {
	for i := range xs {
		if !p.Tree.EqualStmt(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

// trivialBody is a single jump; two of them differing in a value are the
// normal shape of a decision, not duplication.
func trivialBody(p *Pass, list []ast.StmtID) bool {
	if len(list) != 1 {
		return false
	}
	switch p.stmt(list[0]).Kind {
	case ast.StmtReturn, ast.StmtThrow, ast.StmtBreak, ast.StmtContinue:
		return true
	}
	return false
}

func sharedWhat(prefix, suffix int) string {
	switch {
	case prefix > 0 && suffix > 0:
		return fmt.Sprintf("%d leading and %d trailing %s", prefix, suffix, plural(suffix, "statement", "statements"))
	case prefix > 0:
		return fmt.Sprintf("%d leading %s", prefix, plural(prefix, "statement", "statements"))
	}
	return fmt.Sprintf("%d trailing %s", suffix, plural(suffix, "statement", "statements"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
