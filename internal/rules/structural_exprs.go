package rules

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
)

// ---- STR2001 ----

type preferPreIncrement struct{}

func (preferPreIncrement) Meta() Meta {
	return Meta{Code: diag.PreferPreIncrement, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (preferPreIncrement) VisitExpr(p *Pass, id ast.ExprID) {
	var operand ast.ExprID
	var op string
	switch e := p.expr(id); e.Kind {
	case ast.ExprUnary:
		ud, _ := p.Tree.Exprs.Unary(id)
		if !ud.Op.IsPostfix() {
			return
		}
		operand, op = ud.Operand, ud.Op.String()
	case ast.ExprAssign:
		ad, _ := p.Tree.Exprs.Assign(id)
		if ad.Op != ast.AssignAdd && ad.Op != ast.AssignSub {
			return
		}
		lit, ok := p.Tree.Exprs.Literal(p.strip(ad.Value))
		if !ok || lit.Kind != ast.LitInt || p.Tree.Name(lit.Value) != "1" {
			return
		}
		operand, op = ad.Target, "++"
		if ad.Op == ast.AssignSub {
			op = "--"
		}
	default:
		return
	}
	if !valueDiscarded(p, id) {
		return
	}
	suggestion := op + p.Tree.RenderExpr(operand)
	p.Reportf(p.exprSpan(id), "value of %s is discarded; prefer %s", p.Tree.RenderExpr(id), suggestion).
		WithFixSuggestion(fix.ReplaceSpan("use prefix form", p.exprSpan(id), suggestion)).
		Emit()
}

// valueDiscarded reports whether id is a whole expression statement or the
// increment clause of a for loop. Through a comma operator the left operand
// is always discarded and the right one shares the value of the comma.
func valueDiscarded(p *Pass, id ast.ExprID) bool {
	parent, child := p.outer(id)
	if parent.Kind == ast.NodeExpr {
		bd, ok := p.Tree.Exprs.Binary(parent.Expr())
		if !ok || bd.Op != ast.BinComma {
			return false
		}
		if bd.Left == child {
			return true
		}
		return valueDiscarded(p, parent.Expr())
	}
	if parent.Kind != ast.NodeStmt {
		return false
	}
	s := parent.Stmt()
	switch p.stmt(s).Kind {
	case ast.StmtExpr:
		return true
	case ast.StmtFor:
		fd, _ := p.Tree.Stmts.For(s)
		return fd.Post == child
	}
	return false
}

// ---- STR2004 ----

type magicNumber struct{}

const (
	optAllowed          = "allowed"
	optExemptLoopBounds = "exempt_loop_bounds"
	optExemptSubscripts = "exempt_subscripts"
	optStringsInCalls   = "strings_in_calls"
)

func (magicNumber) Meta() Meta {
	return Meta{
		Code: diag.MagicNumber, Category: CategoryStructural, Severity: diag.SevWarning,
		Options: []OptionSpec{
			{Name: optAllowed, Kind: OptionList, Default: []string{"0", "1", "-1", "2"}, Doc: "numeric values never reported"},
			{Name: optExemptLoopBounds, Kind: OptionBool, Default: true, Doc: "skip literals in loop conditions"},
			{Name: optExemptSubscripts, Kind: OptionBool, Default: true, Doc: "skip constant subscripts a[3]"},
			{Name: optStringsInCalls, Kind: OptionBool, Default: true, Doc: "skip strings passed to calls or streamed with <<"},
		},
	}
}

func (magicNumber) VisitExpr(p *Pass, id ast.ExprID) {
	lit, ok := p.Tree.Exprs.Literal(id)
	if !ok {
		return
	}
	switch lit.Kind {
	case ast.LitInt, ast.LitFloat, ast.LitString:
	default:
		return
	}
	spelled := p.Tree.Name(lit.Value)
	span := p.exprSpan(id)
	at := id
	if lit.Kind != ast.LitString {
		// -1 is one literal for the reader
		if parent, _ := p.outer(id); parent.Kind == ast.NodeExpr {
			if ud, ok := p.Tree.Exprs.Unary(parent.Expr()); ok && ud.Op == ast.UnaryNeg {
				at = parent.Expr()
				spelled = "-" + spelled
				span = p.exprSpan(at)
			}
		}
	}
	if inDeclaration(p, at) || inCaseLabel(p, at) {
		return
	}
	if lit.Kind == ast.LitString {
		if p.Options.Bool(optStringsInCalls) && passedOrStreamed(p, at) {
			return
		}
		p.Reportf(span, "magic string %s; bind it to a named constant", spelled).Emit()
		return
	}
	if allowedNumber(spelled, p.Options.List(optAllowed)) {
		return
	}
	if p.Options.Bool(optExemptLoopBounds) && inLoopCondition(p, at) {
		return
	}
	if p.Options.Bool(optExemptSubscripts) && isSubscript(p, at) {
		return
	}
	p.Reportf(span, "magic number %s; bind it to a named constant", spelled).
		WithFixSuggestion(fix.Rewrite(fmt.Sprintf("introduce a constexpr constant for %s", spelled))).
		Emit()
}

// inDeclaration reports whether the literal is part of a variable, field
// or parameter declaration, or a constructor's member initializer list.
func inDeclaration(p *Pass, id ast.ExprID) bool {
	sawStmt := false
	for r := p.Tree.Parent(ast.ExprRef(id)); r.IsValid(); r = p.Tree.Parent(r) {
		switch r.Kind {
		case ast.NodeStmt:
			sawStmt = true
		case ast.NodeDecl:
			d := p.Tree.Decls.Get(r.Decl())
			switch d.Kind {
			case ast.DeclVar, ast.DeclField, ast.DeclParam:
				return true
			case ast.DeclFunction:
				return !sawStmt
			}
			return false
		}
	}
	return false
}

func inCaseLabel(p *Pass, id ast.ExprID) bool {
	s := p.Tree.EnclosingStmt(ast.ExprRef(id))
	cd, ok := p.Tree.Stmts.Case(s)
	return ok && p.Tree.IsAncestor(ast.ExprRef(cd.Value), ast.ExprRef(id))
}

func inLoopCondition(p *Pass, id ast.ExprID) bool {
	s := p.Tree.EnclosingStmt(ast.ExprRef(id))
	var cond ast.ExprID
	switch st := p.stmt(s); {
	case st == nil:
		return false
	case st.Kind == ast.StmtFor:
		fd, _ := p.Tree.Stmts.For(s)
		cond = fd.Cond
	case st.Kind == ast.StmtWhile || st.Kind == ast.StmtDoWhile:
		wd, _ := p.Tree.Stmts.While(s)
		cond = wd.Cond
	default:
		return false
	}
	return cond.IsValid() && p.Tree.IsAncestor(ast.ExprRef(cond), ast.ExprRef(id))
}

func isSubscript(p *Pass, id ast.ExprID) bool {
	parent, child := p.outer(id)
	if parent.Kind != ast.NodeExpr {
		return false
	}
	xd, ok := p.Tree.Exprs.Index(parent.Expr())
	return ok && xd.Index == child
}

func passedOrStreamed(p *Pass, id ast.ExprID) bool {
	parent, child := p.outer(id)
	if parent.Kind != ast.NodeExpr {
		return false
	}
	if cd, ok := p.Tree.Exprs.Call(parent.Expr()); ok {
		return slices.Contains(cd.Args, child)
	}
	if bd, ok := p.Tree.Exprs.Binary(parent.Expr()); ok {
		return bd.Op == ast.BinShl
	}
	return false
}

// allowedNumber compares numerically so 1.0, 0x1 and 1u all match "1".
func allowedNumber(spelled string, allowed []string) bool {
	v, ok := numericValue(spelled)
	if !ok {
		return slices.Contains(allowed, spelled)
	}
	for _, a := range allowed {
		if w, ok := numericValue(a); ok && w == v {
			return true
		}
	}
	return false
}

func numericValue(spelled string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(spelled), "'", "")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	isHex := strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
	if isHex {
		s = strings.TrimRight(s, "uUlL")
	} else {
		s = strings.TrimRight(s, "uUlLfF")
	}
	var v float64
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		v = float64(n)
	} else if f, err := strconv.ParseFloat(s, 64); err == nil && !isHex {
		v = f
	} else {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// ---- STR2005 ----

type preferSubscript struct{}

func (preferSubscript) Meta() Meta {
	return Meta{Code: diag.PreferSubscript, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (preferSubscript) VisitExpr(p *Pass, id ast.ExprID) {
	ud, ok := p.Tree.Exprs.Unary(id)
	if !ok || ud.Op != ast.UnaryDeref {
		return
	}
	bd, ok := p.Tree.Exprs.Binary(p.strip(ud.Operand))
	if !ok || bd.Op != ast.BinAdd {
		return
	}
	base, offset := bd.Left, bd.Right
	if !pointerLike(p, base) {
		base, offset = bd.Right, bd.Left
		if !pointerLike(p, base) {
			return
		}
	}
	suggestion := p.Tree.RenderExpr(base) + "[" + p.Tree.RenderExpr(p.strip(offset)) + "]"
	p.Reportf(p.exprSpan(id), "pointer arithmetic used for indexing; prefer %s", suggestion).
		WithFixSuggestion(fix.ReplaceSpan("use subscript", p.exprSpan(id), suggestion)).
		Emit()
}

// pointerLike reports whether e names a symbol declared as a pointer or
// array. Anything unresolved is not.
func pointerLike(p *Pass, e ast.ExprID) bool {
	sym := p.symbol(p.Index.SymbolOf(e))
	if sym == nil || !sym.IsValue() {
		return false
	}
	t := p.symbolType(sym)
	return t != nil && (t.Pointers > 0 || t.Array)
}

// ---- STR2006 ----

type preferArrow struct{}

func (preferArrow) Meta() Meta {
	return Meta{Code: diag.PreferArrow, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (preferArrow) VisitExpr(p *Pass, id ast.ExprID) {
	md, ok := p.Tree.Exprs.Member(id)
	if !ok || md.Arrow {
		return
	}
	ud, ok := p.Tree.Exprs.Unary(p.strip(md.Base))
	if !ok || ud.Op != ast.UnaryDeref {
		return
	}
	ptr := p.Tree.RenderExpr(ud.Operand)
	if !p.primary(ud.Operand) {
		ptr = "(" + ptr + ")"
	}
	suggestion := ptr + "->" + p.Tree.Name(md.Name)
	p.Reportf(p.exprSpan(id), "dereference followed by member access; prefer %s", suggestion).
		WithFixSuggestion(fix.ReplaceSpan("use ->", p.exprSpan(id), suggestion)).
		Emit()
}

// ---- STR2012 ----

type boolLiteralComparison struct{}

func (boolLiteralComparison) Meta() Meta {
	return Meta{Code: diag.BoolLiteralComparison, Category: CategoryStructural, Severity: diag.SevWarning}
}

func (boolLiteralComparison) VisitExpr(p *Pass, id ast.ExprID) {
	bd, ok := p.Tree.Exprs.Binary(id)
	if !ok || !bd.Op.IsEquality() {
		return
	}
	operand, lit := bd.Left, bd.Right
	value, isLit := p.boolLiteral(lit)
	if left, both := p.boolLiteral(operand); both && isLit {
		folded := strconv.FormatBool((left == value) == (bd.Op == ast.BinEq))
		p.Reportf(p.exprSpan(id), "comparison of two boolean literals; use %s", folded).
			WithFixSuggestion(fix.ReplaceSpan("fold the comparison", p.exprSpan(id), folded)).
			Emit()
		return
	}
	if !isLit {
		operand, lit = bd.Right, bd.Left
		if value, isLit = p.boolLiteral(lit); !isLit {
			return
		}
	}
	// a == true -> a, a == false -> !a, a != true -> !a, a != false -> a
	keep := value == (bd.Op == ast.BinEq)
	suggestion := p.Tree.RenderExpr(p.strip(operand))
	if !keep {
		suggestion = p.negated(operand)
	}
	p.Reportf(p.exprSpan(id), "comparison with %s; use %s", p.Tree.RenderExpr(lit), suggestion).
		WithFixSuggestion(fix.ReplaceSpan("drop the literal", p.exprSpan(id), suggestion)).
		Emit()
}
