// Package synth builds syntax trees for tests. Trees are described with
// small constructor functions, printed as C++ text and given the spans of
// that text, so fixtures read like the code they stand for.
package synth

import (
	"fortio.org/safecast"

	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// Ctx carries the builder while a description is materialized.
type Ctx struct {
	B     *ast.Builder
	class string
}

type (
	Expr func(*Ctx) ast.ExprID
	Stmt func(*Ctx) ast.StmtID
	Decl func(*Ctx) ast.DeclID
)

func (c *Ctx) expr(e Expr) ast.ExprID {
	if e == nil {
		return ast.NoExprID
	}
	return e(c)
}

func (c *Ctx) exprs(es []Expr) []ast.ExprID {
	if len(es) == 0 {
		return nil
	}
	out := make([]ast.ExprID, 0, len(es))
	for _, e := range es {
		out = append(out, c.expr(e))
	}
	return out
}

func (c *Ctx) stmt(s Stmt) ast.StmtID {
	if s == nil {
		return ast.NoStmtID
	}
	return s(c)
}

func (c *Ctx) stmts(ss []Stmt) []ast.StmtID {
	out := make([]ast.StmtID, 0, len(ss))
	for _, s := range ss {
		out = append(out, c.stmt(s))
	}
	return out
}

// T allocates a type from its spelling; an empty spelling yields no type.
func (c *Ctx) T(spelling string) ast.TypeID {
	if spelling == "" {
		return ast.NoTypeID
	}
	typ := ast.ParseTypeSpelling(c.B.Strings, spelling)
	return c.B.Types.New(source.Span{}, typ)
}

// Unit is a laid out translation unit.
type Unit struct {
	Builder *ast.Builder
	File    ast.FileID
	Source  source.FileID
	FileSet *source.FileSet
	Text    string
}

// File materializes decls into a new builder, prints them and registers the
// text in fs under path. A nil fs gets a fresh set.
func File(fs *source.FileSet, path string, decls ...Decl) *Unit {
	if fs == nil {
		fs = source.NewFileSet()
	}
	b := ast.NewBuilder(ast.Hints{}, source.NewInterner())
	c := &Ctx{B: b}
	file := b.NewFile(source.Span{})
	for _, d := range decls {
		b.PushDecl(file, d(c))
	}
	next, err := safecast.Conv[uint32](fs.Len())
	if err != nil {
		panic(err)
	}
	text := ast.Layout(b, file, source.FileID(next))
	id := fs.AddVirtual(path, []byte(text))
	b.Finish()
	return &Unit{Builder: b, File: file, Source: id, FileSet: fs, Text: text}
}

// SpanText returns the source text covered by sp.
func (u *Unit) SpanText(sp source.Span) string {
	return u.FileSet.Text(sp)
}

// Find returns the first node, in source order, whose text equals text.
func (u *Unit) Find(text string) ast.NodeRef {
	var found ast.NodeRef
	u.Builder.Inspect(ast.FileRef(u.File), func(r ast.NodeRef) bool {
		if found.IsValid() {
			return false
		}
		if u.SpanText(u.Builder.Span(r)) == text {
			found = r
			return false
		}
		return true
	})
	return found
}

// FindFunc returns the function declaration named name, searching classes.
func (u *Unit) FindFunc(name string) ast.DeclID {
	var found ast.DeclID
	u.Builder.Inspect(ast.FileRef(u.File), func(r ast.NodeRef) bool {
		if found.IsValid() || r.Kind == ast.NodeStmt || r.Kind == ast.NodeExpr {
			return false
		}
		if r.Kind == ast.NodeDecl {
			d := u.Builder.Decls.Get(r.Decl())
			if d.Kind == ast.DeclFunction && u.Builder.Name(d.Name) == name {
				found = r.Decl()
				return false
			}
		}
		return true
	})
	return found
}

// ---- expressions ----

func Id(name string) Expr {
	return func(c *Ctx) ast.ExprID { return c.B.Exprs.NewIdent(source.Span{}, c.B.Intern(name)) }
}

func lit(kind ast.LiteralKind, spelled string) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewLiteral(source.Span{}, kind, c.B.Intern(spelled))
	}
}

// Int is an integer literal spelled as given ("42", "0x10", "3u").
func Int(spelled string) Expr { return lit(ast.LitInt, spelled) }

func Float(spelled string) Expr { return lit(ast.LitFloat, spelled) }

// Str is a string literal; the quotes are added.
func Str(s string) Expr { return lit(ast.LitString, `"`+s+`"`) }

func Char(spelled string) Expr { return lit(ast.LitChar, spelled) }

func Bool(v bool) Expr {
	if v {
		return lit(ast.LitBool, "true")
	}
	return lit(ast.LitBool, "false")
}

func Null() Expr { return lit(ast.LitNull, "nullptr") }

func Bin(op string, l, r Expr) Expr {
	bop, ok := ast.ParseBinaryOp(op)
	if !ok {
		panic("synth: unknown binary operator " + op)
	}
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewBinary(source.Span{}, bop, c.expr(l), c.expr(r))
	}
}

func Assign(op string, target, value Expr) Expr {
	aop, ok := ast.ParseAssignOp(op)
	if !ok {
		panic("synth: unknown assignment operator " + op)
	}
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewAssign(source.Span{}, aop, c.expr(target), c.expr(value))
	}
}

func unary(op string, postfix bool, x Expr) Expr {
	uop, ok := ast.ParseUnaryOp(op, postfix)
	if !ok {
		panic("synth: unknown unary operator " + op)
	}
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewUnary(source.Span{}, uop, c.expr(x))
	}
}

// Pre is a prefix operator: "-", "!", "*", "&", "++", "--".
func Pre(op string, x Expr) Expr { return unary(op, false, x) }

// Post is x++ or x--.
func Post(op string, x Expr) Expr { return unary(op, true, x) }

func member(base Expr, name string, arrow bool) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewMember(source.Span{}, c.expr(base), c.B.Intern(name), source.Span{}, arrow)
	}
}

// Dot is base.name.
func Dot(base Expr, name string) Expr { return member(base, name, false) }

// Arrow is base->name.
func Arrow(base Expr, name string) Expr { return member(base, name, true) }

func Call(callee Expr, args ...Expr) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewCall(source.Span{}, c.expr(callee), c.exprs(args))
	}
}

// CallN calls a function by name.
func CallN(name string, args ...Expr) Expr { return Call(Id(name), args...) }

func Index(base, index Expr) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewIndex(source.Span{}, c.expr(base), c.expr(index))
	}
}

func Paren(x Expr) Expr {
	return func(c *Ctx) ast.ExprID { return c.B.Exprs.NewParen(source.Span{}, c.expr(x)) }
}

func This() Expr {
	return func(c *Ctx) ast.ExprID { return c.B.Exprs.NewThis(source.Span{}) }
}

func Cond(cond, then, els Expr) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewConditional(source.Span{}, c.expr(cond), c.expr(then), c.expr(els))
	}
}

func Cast(style ast.CastStyle, typ string, x Expr) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewCast(source.Span{}, style, c.T(typ), c.expr(x))
	}
}

// Opaque stands for an unmodelled construct; children stay visible.
func Opaque(text string, children ...Expr) Expr {
	return func(c *Ctx) ast.ExprID {
		return c.B.Exprs.NewOpaque(source.Span{}, c.B.Intern(text), c.exprs(children))
	}
}

// ---- statements ----

func Block(stmts ...Stmt) Stmt {
	return func(c *Ctx) ast.StmtID { return c.B.Stmts.NewBlock(source.Span{}, c.stmts(stmts)) }
}

// X is an expression statement.
func X(x Expr) Stmt {
	return func(c *Ctx) ast.StmtID { return c.B.Stmts.NewExpr(source.Span{}, c.expr(x)) }
}

// Let declares one local variable: "typ name = init;".
func Let(typ, name string, init Expr) Stmt { return DeclS(V(typ, name, init)) }

// DeclS is a declaration statement; every decl after the first shares the
// first one's type when printed.
func DeclS(decls ...Decl) Stmt {
	return func(c *Ctx) ast.StmtID {
		ids := make([]ast.DeclID, 0, len(decls))
		for _, d := range decls {
			ids = append(ids, d(c))
		}
		return c.B.Stmts.NewDecl(source.Span{}, ids)
	}
}

func If(cond Expr, then, els Stmt) Stmt {
	return func(c *Ctx) ast.StmtID {
		return c.B.Stmts.NewIf(source.Span{}, ast.StmtIfData{Cond: c.expr(cond), Then: c.stmt(then), Else: c.stmt(els)})
	}
}

func For(init Stmt, cond, post Expr, body Stmt) Stmt {
	return func(c *Ctx) ast.StmtID {
		return c.B.Stmts.NewFor(source.Span{}, ast.StmtForData{
			Init: c.stmt(init), Cond: c.expr(cond), Post: c.expr(post), Body: c.stmt(body),
		})
	}
}

func RangeFor(typ, name string, rng Expr, body Stmt) Stmt {
	return func(c *Ctx) ast.StmtID {
		v := V(typ, name, nil)(c)
		return c.B.Stmts.NewRangeFor(source.Span{}, ast.StmtRangeForData{Var: v, Range: c.expr(rng), Body: c.stmt(body)})
	}
}

func While(cond Expr, body Stmt) Stmt {
	return func(c *Ctx) ast.StmtID {
		return c.B.Stmts.NewWhile(source.Span{}, false, ast.StmtWhileData{Cond: c.expr(cond), Body: c.stmt(body)})
	}
}

func DoWhile(body Stmt, cond Expr) Stmt {
	return func(c *Ctx) ast.StmtID {
		return c.B.Stmts.NewWhile(source.Span{}, true, ast.StmtWhileData{Cond: c.expr(cond), Body: c.stmt(body)})
	}
}

// Return with a nil value is a bare "return;".
func Return(x Expr) Stmt {
	return func(c *Ctx) ast.StmtID { return c.B.Stmts.NewValue(ast.StmtReturn, source.Span{}, c.expr(x)) }
}

func Throw(x Expr) Stmt {
	return func(c *Ctx) ast.StmtID { return c.B.Stmts.NewValue(ast.StmtThrow, source.Span{}, c.expr(x)) }
}

func simple(kind ast.StmtKind) Stmt {
	return func(c *Ctx) ast.StmtID { return c.B.Stmts.NewSimple(kind, source.Span{}) }
}

func Break() Stmt    { return simple(ast.StmtBreak) }
func Continue() Stmt { return simple(ast.StmtContinue) }
func Empty() Stmt    { return simple(ast.StmtEmpty) }

// Switch wraps cases in the switch body block.
func Switch(cond Expr, cases ...Stmt) Stmt {
	return func(c *Ctx) ast.StmtID {
		return c.B.Stmts.NewSwitch(source.Span{}, ast.StmtSwitchData{Cond: c.expr(cond), Body: Block(cases...)(c)})
	}
}

func Case(value Expr, body ...Stmt) Stmt {
	return func(c *Ctx) ast.StmtID {
		return c.B.Stmts.NewCase(source.Span{}, ast.StmtCaseData{Value: c.expr(value), Body: c.stmts(body)})
	}
}

func Default(body ...Stmt) Stmt { return Case(nil, body...) }

// ---- declarations ----

func varDecl(kind ast.DeclKind, typ, name string, flags ast.VarFlags, init Expr, args []Expr) Decl {
	return func(c *Ctx) ast.DeclID {
		data := ast.VarData{Type: c.T(typ), Flags: flags, Init: c.expr(init), Args: c.exprs(args), Direct: args != nil}
		var nameID source.StringID
		if name != "" {
			nameID = c.B.Intern(name)
		}
		return c.B.Decls.NewVar(kind, source.Span{}, nameID, source.Span{}, data)
	}
}

// V is a variable "typ name = init"; init may be nil.
func V(typ, name string, init Expr) Decl { return varDecl(ast.DeclVar, typ, name, 0, init, nil) }

// VF is V with storage flags.
func VF(typ, name string, flags ast.VarFlags, init Expr) Decl {
	return varDecl(ast.DeclVar, typ, name, flags, init, nil)
}

// VCtor is a direct-initialized variable "typ name(args...)".
func VCtor(typ, name string, args ...Expr) Decl {
	if args == nil {
		args = []Expr{}
	}
	return varDecl(ast.DeclVar, typ, name, 0, nil, args)
}

func Field(typ, name string, init Expr) Decl { return varDecl(ast.DeclField, typ, name, 0, init, nil) }

func FieldF(typ, name string, flags ast.VarFlags) Decl {
	return varDecl(ast.DeclField, typ, name, flags, nil, nil)
}

func Using(name, target string) Decl {
	return func(c *Ctx) ast.DeclID {
		return c.B.Decls.NewAlias(source.Span{}, c.B.Intern(name), source.Span{}, c.T(target))
	}
}

// P is a function parameter; Default may be nil.
type P struct {
	Type    string
	Name    string
	Default Expr
}

// Init is one member initializer "name(args...)".
type Init struct {
	Name string
	Args []Expr
}

// Fn describes a function. Kind is inferred when left as FuncFree: names
// starting with "operator" become operators, and inside a class (or with a
// Qualifier) the class name makes a constructor, "~Name" a destructor and
// anything else a method.
type Fn struct {
	Name      string
	Result    string
	Kind      ast.FuncKind
	Flags     ast.FuncFlags
	Qualifier string
	Params    []P
	Inits     []Init
	Body      []Stmt
	// Proto declares without a body.
	Proto bool
}

func Func(f Fn) Decl {
	return func(c *Ctx) ast.DeclID {
		owner := c.class
		if f.Qualifier != "" {
			owner = f.Qualifier
		}
		data := ast.FuncData{Kind: f.Kind, Flags: f.Flags}
		if data.Kind == ast.FuncFree {
			data.Kind = ast.InferFuncKind(f.Name, owner)
		}
		if data.Kind == ast.FuncOperator {
			data.Operator = ast.OperatorToken(f.Name)
		}
		if f.Qualifier != "" {
			data.Qualifier = c.B.Intern(f.Qualifier)
		}
		data.Result = c.T(f.Result)
		for _, p := range f.Params {
			data.Params = append(data.Params, varDecl(ast.DeclParam, p.Type, p.Name, 0, p.Default, nil)(c))
		}
		for _, in := range f.Inits {
			data.Inits = append(data.Inits, ast.MemberInit{Name: c.B.Intern(in.Name), Args: c.exprs(in.Args)})
		}
		if !f.Proto && !data.Has(ast.FuncDefaulted) && !data.Has(ast.FuncDeleted) && !data.Has(ast.FuncPure) {
			data.Body = Block(f.Body...)(c)
		}
		return c.B.Decls.NewFunc(source.Span{}, c.B.Intern(f.Name), source.Span{}, data)
	}
}

func class(name string, isStruct bool, bases []string, members []Decl) Decl {
	return func(c *Ctx) ast.DeclID {
		outer := c.class
		c.class = name
		defer func() { c.class = outer }()
		data := ast.ClassData{Struct: isStruct}
		for _, b := range bases {
			data.Bases = append(data.Bases, c.T(b))
		}
		for _, m := range members {
			data.Members = append(data.Members, m(c))
		}
		return c.B.Decls.NewClass(source.Span{}, c.B.Intern(name), source.Span{}, data)
	}
}

// Class prints with a "public:" label so every member is accessible.
func Class(name string, members ...Decl) Decl { return class(name, false, nil, members) }

func Struct(name string, members ...Decl) Decl { return class(name, true, nil, members) }

func Derived(name string, bases []string, members ...Decl) Decl {
	return class(name, false, bases, members)
}
