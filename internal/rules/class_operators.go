package rules

import (
	"strings"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/fix"
	"idiomlint/internal/symbols"
)

// ---- CLS4004 ----

type inequalityNotDelegating struct{}

func (inequalityNotDelegating) Meta() Meta {
	return Meta{Code: diag.InequalityNotDelegating, Category: CategoryClass, Severity: diag.SevWarning}
}

func (inequalityNotDelegating) VisitDecl(p *Pass, id ast.DeclID) {
	fd, ok := p.Tree.Decls.Func(id)
	if !ok || fd.Kind != ast.FuncOperator || fd.Operator != "!=" || !fd.Body.IsValid() {
		return
	}
	if v, ok := p.singleReturn(id); ok && negatesEquality(p, id, fd, v) {
		return
	}
	want := "return !(" + equalityOperands(p, id, fd) + ");"
	p.Reportf(p.Tree.Decls.Get(id).NameSpan, "operator!= does not delegate to operator==; write %s", want).
		WithFixSuggestion(fix.Rewrite("replace the body with " + want)).
		Emit()
}

// negatesEquality matches !(*this == o), !(a == b) and !operator==(...)
// applied to the operands of fn itself. Comparing fields repeats the
// equality instead of delegating to it.
func negatesEquality(p *Pass, fn ast.DeclID, fd *ast.FuncData, v ast.ExprID) bool {
	ud, ok := p.Tree.Exprs.Unary(p.strip(v))
	if !ok || ud.Op != ast.UnaryNot {
		return false
	}
	inner := p.strip(ud.Operand)
	if bd, ok := p.Tree.Exprs.Binary(inner); ok {
		return bd.Op == ast.BinEq && equalityOfOperands(p, fn, fd, []ast.ExprID{bd.Left, bd.Right})
	}
	cd, ok := p.Tree.Exprs.Call(inner)
	if !ok {
		return false
	}
	name, member, _ := p.calleeName(inner)
	if name != "operator==" || (member && !onSelf(p, cd.Callee)) {
		return false
	}
	args := cd.Args
	if member || len(args) == 1 {
		args = append([]ast.ExprID{ast.NoExprID}, args...)
	}
	return equalityOfOperands(p, fn, fd, args)
}

// equalityOfOperands reports whether ops are the operands of the operator
// itself: *this and the parameter for a member, the two parameters for a
// free function. A NoExprID entry stands for an implicit *this.
func equalityOfOperands(p *Pass, fn ast.DeclID, fd *ast.FuncData, ops []ast.ExprID) bool {
	if len(ops) != 2 {
		return false
	}
	isParam := func(e ast.ExprID, param ast.DeclID) bool {
		e = p.strip(e)
		if !p.isKind(e, ast.ExprIdent) {
			return false
		}
		want := p.Index.DeclSymbol(param)
		return want.IsValid() && p.Index.SymbolOf(e) == want
	}
	isSelf := func(e ast.ExprID) bool { return !e.IsValid() || p.isThisDeref(e) }

	class, _ := p.ownerClass(fn)
	switch {
	case class.IsValid() && len(fd.Params) == 1:
		other := fd.Params[0]
		return (isSelf(ops[0]) && isParam(ops[1], other)) || (isSelf(ops[1]) && isParam(ops[0], other))
	case len(fd.Params) == 2:
		a, b := fd.Params[0], fd.Params[1]
		return (isParam(ops[0], a) && isParam(ops[1], b)) || (isParam(ops[0], b) && isParam(ops[1], a))
	}
	return false
}

// onSelf reports whether a callee is invoked on the current object:
// a bare name, this->f or (*this).f.
func onSelf(p *Pass, callee ast.ExprID) bool {
	md, ok := p.Tree.Exprs.Member(p.strip(callee))
	if !ok {
		return true
	}
	if md.Arrow {
		return p.isKind(p.strip(md.Base), ast.ExprThis)
	}
	return p.isThisDeref(md.Base)
}

func equalityOperands(p *Pass, id ast.DeclID, fd *ast.FuncData) string {
	names := make([]string, 0, len(fd.Params))
	for _, param := range fd.Params {
		names = append(names, p.Tree.Name(p.Tree.Decls.Get(param).Name))
	}
	class, _ := p.ownerClass(id)
	switch {
	case class.IsValid() && len(names) == 1 && names[0] != "":
		return "*this == " + names[0]
	case len(names) == 2 && names[0] != "" && names[1] != "":
		return names[0] + " == " + names[1]
	}
	return "lhs == rhs"
}

// ---- CLS4006 ----

type explicitOperatorCall struct{}

func (explicitOperatorCall) Meta() Meta {
	return Meta{Code: diag.ExplicitOperatorCall, Category: CategoryClass, Severity: diag.SevWarning}
}

func (explicitOperatorCall) VisitExpr(p *Pass, id ast.ExprID) {
	if !p.isKind(id, ast.ExprCall) {
		return
	}
	name, _, _ := p.calleeName(id)
	if !strings.HasPrefix(name, "operator") || strings.Contains(name, "::") {
		return
	}
	if fn := p.Tree.EnclosingFunc(ast.ExprRef(id)); fn.IsValid() {
		if fd, _ := p.Tree.Decls.Func(fn); fd != nil && fd.Kind == ast.FuncOperator {
			return
		}
	}
	want, ok := operatorSpelling(p, id, ast.OperatorToken(name))
	if !ok {
		return
	}
	p.Reportf(p.exprSpan(id), "%s is called by name; write %s", name, want).
		WithFixSuggestion(fix.ReplaceSpan("use operator syntax", p.exprSpan(id), want,
			fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics))).
		Emit()
}

var assignTokens = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// operatorSpelling renders a named operator call in operator syntax.
// Conversion, allocation and arrow operators have no such form.
func operatorSpelling(p *Pass, call ast.ExprID, tok string) (string, bool) {
	if tok == "" || tok == "->" || tok == "," || isIdentStart(tok[0]) {
		return "", false
	}
	cd, _ := p.Tree.Exprs.Call(call)
	var operands []string
	self, hasSelf := receiver(p, cd.Callee)
	if hasSelf {
		operands = append(operands, self)
	}
	// *p[i] would index p
	postfix := self
	if strings.HasPrefix(self, "*") {
		postfix = "(" + self + ")"
	}
	for _, a := range cd.Args {
		operands = append(operands, p.operand(a))
	}
	switch {
	case tok == "[]":
		if hasSelf && len(cd.Args) == 1 {
			return postfix + "[" + p.Tree.RenderExpr(p.strip(cd.Args[0])) + "]", true
		}
	case tok == "()":
		if hasSelf {
			args := make([]string, len(cd.Args))
			for i, a := range cd.Args {
				args[i] = p.Tree.RenderExpr(a)
			}
			return postfix + "(" + strings.Join(args, ", ") + ")", true
		}
	case tok == "++" || tok == "--":
		switch len(operands) {
		case 1:
			return tok + operands[0], true
		case 2:
			return operandPostfix(operands[0]) + tok, true
		}
	case len(operands) == 2:
		if _, ok := ast.ParseBinaryOp(tok); ok || assignTokens[tok] {
			return operands[0] + " " + tok + " " + operands[1], true
		}
	case len(operands) == 1:
		if _, ok := ast.ParseUnaryOp(tok, false); ok {
			return tok + operands[0], true
		}
	}
	return "", false
}

// receiver spells the object a member operator is invoked on: the base of
// `x.operator==`, `*p` for `p->operator==`, or `*this` for an unqualified
// call to a member.
func receiver(p *Pass, callee ast.ExprID) (string, bool) {
	callee = p.strip(callee)
	if md, ok := p.Tree.Exprs.Member(callee); ok {
		base := p.strip(md.Base)
		switch {
		case !md.Arrow:
			return p.operand(md.Base), true
		case p.isKind(base, ast.ExprThis):
			return "*this", true
		}
		return "*" + p.operand(md.Base), true
	}
	if sym := p.symbol(p.Index.SymbolOf(callee)); sym != nil && sym.Kind == symbols.SymbolMethod {
		return "*this", true
	}
	return "", false
}

// operand renders an expression for use next to an operator.
func (p *Pass) operand(id ast.ExprID) string {
	if p.primary(id) {
		return p.Tree.RenderExpr(id)
	}
	return "(" + p.Tree.RenderExpr(p.strip(id)) + ")"
}

func operandPostfix(s string) string {
	if strings.HasPrefix(s, "*") {
		return "(" + s + ")"
	}
	return s
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ---- CLS4007 ----

type iteratorAliasUnused struct{}

func (iteratorAliasUnused) Meta() Meta {
	return Meta{Code: diag.IteratorAliasUnused, Category: CategoryClass, Severity: diag.SevWarning}
}

func (iteratorAliasUnused) VisitDecl(p *Pass, id ast.DeclID) {
	if _, ok := p.Tree.Decls.Class(id); !ok || !iteratorLike(p, id) {
		return
	}
	members := p.classMembers(id)
	for i, m := range members {
		fd, ok := p.Tree.Decls.Func(m)
		if !ok || fd.Kind != ast.FuncOperator {
			continue
		}
		if !(fd.Operator == "*" && len(fd.Params) == 0) && fd.Operator != "->" {
			continue
		}
		alias, want, ok := spelledAlias(p, members[:i], fd.Result)
		if !ok {
			continue
		}
		t := p.Tree.Types.Get(fd.Result)
		p.Reportf(t.Span, "operator%s spells out %s; use the alias %s", fd.Operator, p.Tree.RenderType(fd.Result), alias).
			WithFixSuggestion(fix.ReplaceSpan("use "+alias, t.Span, want)).
			Emit()
	}
}

// iteratorLike reports whether the class has dereference, increment and
// equality operators.
func iteratorLike(p *Pass, class ast.DeclID) bool {
	deref := false
	for _, m := range p.namedOperator(class, "*") {
		if fd, _ := p.Tree.Decls.Func(m); len(fd.Params) == 0 {
			deref = true
		}
	}
	return deref && len(p.namedOperator(class, "++")) > 0 &&
		len(p.namedOperator(class, "=="))+len(p.namedOperator(class, "!=")) > 0
}

// spelledAlias finds an alias among earlier members that result spells out
// in full, or whose target is the base of result. It returns the alias
// name and the replacement type spelling.
func spelledAlias(p *Pass, earlier []ast.DeclID, result ast.TypeID) (string, string, bool) {
	r := p.Tree.Types.Get(result)
	if r == nil {
		return "", "", false
	}
	partial := ""
	var partialWant string
	for _, m := range earlier {
		ad, ok := p.Tree.Decls.Alias(m)
		if !ok {
			continue
		}
		name := p.Tree.Name(p.Tree.Decls.Get(m).Name)
		if p.Tree.Types.SameType(ad.Target, result) {
			return name, name, true
		}
		t := p.Tree.Types.Get(ad.Target)
		if partial == "" && t != nil && t.IndirectionFree() && !t.Const && t.Name == r.Name {
			partial, partialWant = name, withIndirection(r, name)
		}
	}
	return partial, partialWant, partial != ""
}

func withIndirection(t *ast.Type, base string) string {
	var sb strings.Builder
	if t.Const {
		sb.WriteString("const ")
	}
	sb.WriteString(base)
	sb.WriteString(strings.Repeat("*", int(t.Pointers)))
	switch t.Ref {
	case ast.RefLValue:
		sb.WriteString("&")
	case ast.RefRValue:
		sb.WriteString("&&")
	}
	return sb.String()
}

// ---- CLS4008 ----

type arrowNotDelegating struct{}

func (arrowNotDelegating) Meta() Meta {
	return Meta{Code: diag.ArrowNotDelegating, Category: CategoryClass, Severity: diag.SevWarning}
}

func (arrowNotDelegating) VisitDecl(p *Pass, id ast.DeclID) {
	fd, ok := p.Tree.Decls.Func(id)
	if !ok || fd.Kind != ast.FuncOperator || fd.Operator != "->" || !fd.Body.IsValid() {
		return
	}
	class, _ := p.ownerClass(id)
	if !class.IsValid() || !hasDeref(p, class) {
		return
	}
	if v, ok := p.singleReturn(id); ok && addressOfDeref(p, v) {
		return
	}
	p.Reportf(p.Tree.Decls.Get(id).NameSpan, "operator-> does not delegate to operator*; write return &**this;").
		WithFixSuggestion(fix.Rewrite("replace the body with return &**this;")).
		Emit()
}

func hasDeref(p *Pass, class ast.DeclID) bool {
	for _, m := range p.namedOperator(class, "*") {
		if fd, _ := p.Tree.Decls.Func(m); len(fd.Params) == 0 {
			return true
		}
	}
	return false
}

// addressOfDeref matches &operator*(), &this->operator*(), &**this and
// std::addressof(**this). operator* of another object does not count.
func addressOfDeref(p *Pass, v ast.ExprID) bool {
	v = p.strip(v)
	if ud, ok := p.Tree.Exprs.Unary(v); ok && ud.Op == ast.UnaryAddrOf {
		inner := p.strip(ud.Operand)
		if cd, ok := p.Tree.Exprs.Call(inner); ok {
			name, _, _ := p.calleeName(inner)
			return name == "operator*" && len(cd.Args) == 0 && onSelf(p, cd.Callee)
		}
		return derefThis(p, inner)
	}
	cd, ok := p.Tree.Exprs.Call(v)
	if !ok || len(cd.Args) != 1 {
		return false
	}
	name, member, _ := p.calleeName(v)
	return !member && (name == "std::addressof" || name == "addressof") && derefThis(p, cd.Args[0])
}

// derefThis matches **this.
func derefThis(p *Pass, id ast.ExprID) bool {
	ud, ok := p.Tree.Exprs.Unary(p.strip(id))
	return ok && ud.Op == ast.UnaryDeref && p.isThisDeref(ud.Operand)
}
