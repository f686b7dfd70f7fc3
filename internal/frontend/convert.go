package frontend

import (
	"fmt"
	"strings"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

// ParseError is the single diagnostic produced for a file the front end
// could not turn into a usable tree.
type ParseError struct {
	Path    string
	Message string
	Span    source.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Diagnostic converts the error into its FE1001 diagnostic.
func (e *ParseError) Diagnostic() diag.Diagnostic {
	return diag.NewError(diag.ParseError, e.Span, e.Message)
}

// convertError aborts conversion at the first malformed node.
type convertError struct {
	span source.Span
	msg  string
}

type converter struct {
	b     *ast.Builder
	file  source.FileID
	limit uint32
	// text is false when only offsets are known; spans are then unchecked
	text  bool
	class []string
}

func (c *converter) fail(sp source.Span, format string, args ...any) {
	panic(convertError{span: sp, msg: fmt.Sprintf(format, args...)})
}

func (c *converter) span(raw []uint32, kind string) source.Span {
	if len(raw) != 2 {
		c.fail(source.At(c.file, 0), "%s node without a [start, end] span", kind)
	}
	sp := source.Span{File: c.file, Start: raw[0], End: raw[1]}
	if sp.Start > sp.End || (c.text && sp.End > c.limit) {
		c.fail(source.At(c.file, 0), "%s span [%d, %d] is outside the source", kind, sp.Start, sp.End)
	}
	return sp
}

func (c *converter) nameSpan(n *Node, whole source.Span) source.Span {
	if len(n.NameSpan) == 0 {
		return whole
	}
	return c.span(n.NameSpan, n.Kind+" name")
}

func (c *converter) typ(spelling string, sp source.Span) ast.TypeID {
	if strings.TrimSpace(spelling) == "" {
		return ast.NoTypeID
	}
	return c.b.Types.New(sp, ast.ParseTypeSpelling(c.b.Strings, spelling))
}

func (c *converter) intern(s string) source.StringID {
	if s == "" {
		return source.NoStringID
	}
	return c.b.Intern(s)
}

// build converts the document into a finished tree.
func (c *converter) build(doc *Document) (root ast.FileID, perr *ParseError) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(convertError)
			if !ok {
				panic(r)
			}
			perr = &ParseError{Path: doc.Path, Message: ce.msg, Span: ce.span}
		}
	}()
	root = c.b.NewFile(source.Span{File: c.file, Start: 0, End: c.limit})
	for i := range doc.Decls {
		c.b.PushDecl(root, c.decl(&doc.Decls[i]))
	}
	c.b.Finish()
	return root, nil
}

// ---- declarations ----

var funcFlags = map[string]ast.FuncFlags{
	"const": ast.FuncConst, "static": ast.FuncStatic, "virtual": ast.FuncVirtual,
	"override": ast.FuncOverride, "defaulted": ast.FuncDefaulted, "deleted": ast.FuncDeleted,
	"constexpr": ast.FuncConstexpr, "explicit": ast.FuncExplicit, "noexcept": ast.FuncNoexcept,
	"pure": ast.FuncPure,
}

var varFlags = map[string]ast.VarFlags{
	"static": ast.VarStatic, "constexpr": ast.VarConstexpr, "maybe_unused": ast.VarMaybeUnused,
	"extern": ast.VarExtern, "mutable": ast.VarMutable,
}

func (c *converter) decl(n *Node) ast.DeclID {
	sp := c.span(n.Span, n.Kind)
	switch n.Kind {
	case "function":
		return c.function(n, sp)
	case "var", "param", "field":
		kind := map[string]ast.DeclKind{"var": ast.DeclVar, "param": ast.DeclParam, "field": ast.DeclField}[n.Kind]
		return c.variable(n, kind, sp)
	case "class", "struct":
		data := ast.ClassData{Struct: n.Kind == "struct"}
		for _, b := range n.Bases {
			data.Bases = append(data.Bases, c.typ(b, sp))
		}
		c.class = append(c.class, n.Name)
		for i := range n.Members {
			data.Members = append(data.Members, c.decl(&n.Members[i]))
		}
		c.class = c.class[:len(c.class)-1]
		return c.b.Decls.NewClass(sp, c.intern(n.Name), c.nameSpan(n, sp), data)
	case "alias":
		return c.b.Decls.NewAlias(sp, c.intern(n.Name), c.nameSpan(n, sp), c.typ(n.Type, sp))
	}
	c.fail(sp, "unknown declaration kind %q", n.Kind)
	return ast.NoDeclID
}

func (c *converter) function(n *Node, sp source.Span) ast.DeclID {
	var data ast.FuncData
	for _, f := range n.Flags {
		if bit, ok := funcFlags[f]; ok {
			data.Flags |= bit
		}
	}
	owner := n.Qualifier
	if owner == "" && len(c.class) > 0 {
		owner = c.class[len(c.class)-1]
	}
	switch {
	case n.hasFlag("conversion"):
		data.Kind = ast.FuncConversion
	default:
		data.Kind = ast.InferFuncKind(n.Name, owner)
	}
	if data.Kind == ast.FuncOperator {
		data.Operator = n.Op
		if data.Operator == "" {
			data.Operator = ast.OperatorToken(n.Name)
		}
	}
	data.Qualifier = c.intern(n.Qualifier)
	data.Result = c.typ(n.Type, sp)
	for i := range n.Params {
		p := &n.Params[i]
		if p.Kind != "param" {
			c.fail(c.span(p.Span, p.Kind), "function parameter has kind %q", p.Kind)
		}
		data.Params = append(data.Params, c.decl(p))
	}
	for i := range n.Inits {
		in := &n.Inits[i]
		data.Inits = append(data.Inits, ast.MemberInit{
			Name: c.intern(in.Name),
			Span: c.span(in.Span, "member-init"),
			Args: c.exprs(in.Args),
		})
	}
	if n.Body != nil {
		data.Body = c.stmt(n.Body)
	}
	return c.b.Decls.NewFunc(sp, c.intern(n.Name), c.nameSpan(n, sp), data)
}

func (c *converter) variable(n *Node, kind ast.DeclKind, sp source.Span) ast.DeclID {
	data := ast.VarData{Type: c.typ(n.Type, sp), Direct: n.hasFlag("direct")}
	for _, f := range n.Flags {
		if bit, ok := varFlags[f]; ok {
			data.Flags |= bit
		}
	}
	if n.Init != nil {
		data.Init = c.expr(n.Init)
	}
	data.Args = c.exprs(n.Args)
	return c.b.Decls.NewVar(kind, sp, c.intern(n.Name), c.nameSpan(n, sp), data)
}

// ---- statements ----

func (c *converter) optStmt(n *Node) ast.StmtID {
	if n == nil {
		return ast.NoStmtID
	}
	return c.stmt(n)
}

func (c *converter) stmtList(ns []Node) []ast.StmtID {
	out := make([]ast.StmtID, 0, len(ns))
	for i := range ns {
		out = append(out, c.stmt(&ns[i]))
	}
	return out
}

func (c *converter) require(n *Node, role string, parent string, sp source.Span) *Node {
	if n == nil {
		c.fail(sp, "%s without %s", parent, role)
	}
	return n
}

func (c *converter) stmt(n *Node) ast.StmtID {
	sp := c.span(n.Span, n.Kind)
	st := c.b.Stmts
	switch n.Kind {
	case "block":
		return st.NewBlock(sp, c.stmtList(n.Stmts))
	case "expr":
		return st.NewExpr(sp, c.expr(c.require(n.Operand, "operand", "expression statement", sp)))
	case "decl":
		decls := make([]ast.DeclID, 0, len(n.Decls))
		for i := range n.Decls {
			decls = append(decls, c.decl(&n.Decls[i]))
		}
		return st.NewDecl(sp, decls)
	case "if":
		return st.NewIf(sp, ast.StmtIfData{
			Cond: c.expr(c.require(n.Cond, "cond", "if", sp)),
			Then: c.stmt(c.require(n.Then, "then", "if", sp)),
			Else: c.optStmt(n.Else),
		})
	case "for":
		data := ast.StmtForData{Init: c.optStmt(n.Init), Body: c.stmt(c.require(n.Body, "body", "for", sp))}
		if n.Cond != nil {
			data.Cond = c.expr(n.Cond)
		}
		if n.Post != nil {
			data.Post = c.expr(n.Post)
		}
		return st.NewFor(sp, data)
	case "range-for":
		v := c.require(n.Init, "init", "range-for", sp)
		return st.NewRangeFor(sp, ast.StmtRangeForData{
			Var:   c.decl(v),
			Range: c.expr(c.require(n.Range, "range", "range-for", sp)),
			Body:  c.stmt(c.require(n.Body, "body", "range-for", sp)),
		})
	case "while", "do":
		return st.NewWhile(sp, n.Kind == "do", ast.StmtWhileData{
			Cond: c.expr(c.require(n.Cond, "cond", n.Kind, sp)),
			Body: c.stmt(c.require(n.Body, "body", n.Kind, sp)),
		})
	case "return", "throw":
		kind := ast.StmtReturn
		if n.Kind == "throw" {
			kind = ast.StmtThrow
		}
		var value ast.ExprID
		if n.Operand != nil {
			value = c.expr(n.Operand)
		}
		return st.NewValue(kind, sp, value)
	case "break":
		return st.NewSimple(ast.StmtBreak, sp)
	case "continue":
		return st.NewSimple(ast.StmtContinue, sp)
	case "empty":
		return st.NewSimple(ast.StmtEmpty, sp)
	case "switch":
		return st.NewSwitch(sp, ast.StmtSwitchData{
			Cond: c.expr(c.require(n.Cond, "cond", "switch", sp)),
			Body: c.stmt(c.require(n.Body, "body", "switch", sp)),
		})
	case "case":
		return st.NewCase(sp, ast.StmtCaseData{
			Value: c.expr(c.require(n.Operand, "operand", "case", sp)),
			Body:  c.stmtList(n.Stmts),
		})
	case "default":
		return st.NewCase(sp, ast.StmtCaseData{Body: c.stmtList(n.Stmts)})
	}
	c.fail(sp, "unknown statement kind %q", n.Kind)
	return ast.NoStmtID
}

// ---- expressions ----

func (c *converter) exprs(ns []Node) []ast.ExprID {
	if len(ns) == 0 {
		return nil
	}
	out := make([]ast.ExprID, 0, len(ns))
	for i := range ns {
		out = append(out, c.expr(&ns[i]))
	}
	return out
}

var castStyles = map[string]ast.CastStyle{
	"c-style": ast.CastCStyle, "static_cast": ast.CastStatic, "dynamic_cast": ast.CastDynamic,
	"const_cast": ast.CastConst, "reinterpret_cast": ast.CastReinterpret, "functional": ast.CastFunctional,
}

var literalKinds = map[string]ast.LiteralKind{
	"int": ast.LitInt, "float": ast.LitFloat, "string": ast.LitString,
	"char": ast.LitChar, "bool": ast.LitBool, "null": ast.LitNull,
}

// literalKind falls back to the spelling when the front end sent no type.
func literalKind(n *Node) (ast.LiteralKind, bool) {
	if n.Type != "" {
		k, ok := literalKinds[n.Type]
		return k, ok
	}
	v := n.Value
	switch {
	case v == "":
		return 0, false
	case strings.HasSuffix(v, `"`):
		return ast.LitString, true
	case strings.HasSuffix(v, "'"):
		return ast.LitChar, true
	case v == "true" || v == "false":
		return ast.LitBool, true
	case v == "nullptr" || v == "NULL":
		return ast.LitNull, true
	case strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X"):
		return ast.LitInt, true
	case strings.ContainsAny(v, ".eE"):
		return ast.LitFloat, true
	}
	return ast.LitInt, true
}

func (c *converter) expr(n *Node) ast.ExprID {
	sp := c.span(n.Span, n.Kind)
	ex := c.b.Exprs
	switch n.Kind {
	case "ident":
		if n.Name == "" {
			c.fail(sp, "identifier without name")
		}
		return ex.NewIdent(sp, c.intern(n.Name))
	case "literal":
		kind, ok := literalKind(n)
		if !ok {
			c.fail(sp, "malformed literal %q", n.Value)
		}
		return ex.NewLiteral(sp, kind, c.intern(n.Value))
	case "binary":
		op, ok := ast.ParseBinaryOp(n.Op)
		if !ok {
			c.fail(sp, "unknown binary operator %q", n.Op)
		}
		return ex.NewBinary(sp, op, c.expr(c.require(n.Lhs, "lhs", "binary", sp)), c.expr(c.require(n.Rhs, "rhs", "binary", sp)))
	case "assign":
		op, ok := ast.ParseAssignOp(n.Op)
		if !ok {
			c.fail(sp, "unknown assignment operator %q", n.Op)
		}
		return ex.NewAssign(sp, op, c.expr(c.require(n.Lhs, "lhs", "assign", sp)), c.expr(c.require(n.Rhs, "rhs", "assign", sp)))
	case "unary":
		op, ok := ast.ParseUnaryOp(n.Op, n.hasFlag("postfix"))
		if !ok {
			c.fail(sp, "unknown unary operator %q", n.Op)
		}
		return ex.NewUnary(sp, op, c.expr(c.require(n.Operand, "operand", "unary", sp)))
	case "member":
		base := c.expr(c.require(n.Operand, "operand", "member", sp))
		return ex.NewMember(sp, base, c.intern(n.Name), c.nameSpan(n, sp), n.hasFlag("arrow"))
	case "call":
		return ex.NewCall(sp, c.expr(c.require(n.Callee, "callee", "call", sp)), c.exprs(n.Args))
	case "index":
		return ex.NewIndex(sp, c.expr(c.require(n.Lhs, "lhs", "index", sp)), c.expr(c.require(n.Rhs, "rhs", "index", sp)))
	case "paren":
		return ex.NewParen(sp, c.expr(c.require(n.Operand, "operand", "paren", sp)))
	case "this":
		return ex.NewThis(sp)
	case "conditional":
		return ex.NewConditional(sp,
			c.expr(c.require(n.Cond, "cond", "conditional", sp)),
			c.expr(c.require(n.Then, "then", "conditional", sp)),
			c.expr(c.require(n.Else, "else", "conditional", sp)))
	case "cast":
		style, ok := castStyles[n.Op]
		if !ok {
			c.fail(sp, "unknown cast style %q", n.Op)
		}
		return ex.NewCast(sp, style, c.typ(n.Type, sp), c.expr(c.require(n.Operand, "operand", "cast", sp)))
	case "opaque":
		return ex.NewOpaque(sp, c.intern(n.Value), c.exprs(n.Args))
	}
	c.fail(sp, "unknown expression kind %q", n.Kind)
	return ast.NoExprID
}
