package ast_test

import (
	"strings"
	"testing"

	"idiomlint/internal/ast"
	s "idiomlint/internal/ast/synth"
)

func loopUnit() *s.Unit {
	return s.File(nil, "loop.cpp", s.Func(s.Fn{
		Name:   "f",
		Result: "int",
		Params: []s.P{{Type: "int", Name: "n"}},
		Body: []s.Stmt{
			s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Id("n")), s.Post("++", s.Id("i")),
				s.Block(s.X(s.CallN("g", s.Id("i"))))),
			s.Return(s.Int("0")),
		},
	}))
}

func TestLayoutText(t *testing.T) {
	u := loopUnit()
	want := "int f(int n) {\n" +
		"    for (int i = 0; i < n; i++) {\n" +
		"        g(i);\n" +
		"    }\n" +
		"    return 0;\n" +
		"}\n"
	if u.Text != want {
		t.Fatalf("layout mismatch:\n%s\nwant:\n%s", u.Text, want)
	}
}

func TestLayoutSpans(t *testing.T) {
	u := loopUnit()
	ref := u.Find("i++")
	if ref.Kind != ast.NodeExpr {
		t.Fatalf("expected expression for i++, got %v", ref.Kind)
	}
	start, _ := u.FileSet.Resolve(u.Builder.Span(ref))
	if start.Line != 2 || start.Col != 28 {
		t.Fatalf("i++ at %d:%d, want 2:28", start.Line, start.Col)
	}
	fn := u.FindFunc("f")
	d := u.Builder.Decls.Get(fn)
	if got := u.SpanText(d.NameSpan); got != "f" {
		t.Fatalf("name span text %q", got)
	}
	if got := u.SpanText(u.Builder.Span(u.Find("return 0;"))); got != "return 0;" {
		t.Fatalf("return span text %q", got)
	}
}

func TestParentsLinked(t *testing.T) {
	u := loopUnit()
	inc := u.Find("i++")
	if fn := u.Builder.EnclosingFunc(inc); fn != u.FindFunc("f") {
		t.Fatalf("enclosing function = %d", fn)
	}
	st := u.Builder.EnclosingStmt(inc)
	if k := u.Builder.Stmts.Get(st).Kind; k != ast.StmtFor {
		t.Fatalf("enclosing statement kind = %v", k)
	}
}

func TestLayoutClass(t *testing.T) {
	u := s.File(nil, "c.cpp", s.Class("Point",
		s.Field("int", "x", nil),
		s.Func(s.Fn{Name: "Point", Params: []s.P{{Type: "int", Name: "v"}}, Inits: []s.Init{{Name: "x", Args: []s.Expr{s.Id("v")}}}}),
		s.Func(s.Fn{Name: "get", Result: "int", Flags: ast.FuncConst, Body: []s.Stmt{s.Return(s.Arrow(s.This(), "x"))}}),
		s.Func(s.Fn{Name: "operator!=", Result: "bool", Params: []s.P{{Type: "const Point&", Name: "o"}}, Flags: ast.FuncConst | ast.FuncDefaulted}),
	))
	want := "class Point {\n" +
		"public:\n" +
		"    int x;\n" +
		"    Point(int v) : x(v) {}\n" +
		"    int get() const {\n" +
		"        return this->x;\n" +
		"    }\n" +
		"    bool operator!=(const Point& o) const = default;\n" +
		"};\n"
	if u.Text != want {
		t.Fatalf("layout mismatch:\n%s\nwant:\n%s", u.Text, want)
	}
	ctor, _ := u.Builder.Decls.Func(u.FindFunc("Point"))
	if ctor.Kind != ast.FuncCtor {
		t.Fatalf("Point kind = %v", ctor.Kind)
	}
	op, _ := u.Builder.Decls.Func(u.FindFunc("operator!="))
	if op.Kind != ast.FuncOperator || op.Operator != "!=" {
		t.Fatalf("operator data = %+v", op)
	}
}

func TestRenderExpr(t *testing.T) {
	u := s.File(nil, "r.cpp", s.Func(s.Fn{Name: "h", Result: "void", Body: []s.Stmt{
		s.X(s.Assign("+=", s.Index(s.Id("a"), s.Int("1")), s.Cast(ast.CastStatic, "int", s.Paren(s.Id("b"))))),
	}}))
	ref := u.Find("a[1] += static_cast<int>((b))")
	if !ref.IsValid() {
		t.Fatalf("assignment not found in\n%s", u.Text)
	}
	if got := u.Builder.RenderExpr(ref.Expr()); got != "a[1] += static_cast<int>((b))" {
		t.Fatalf("RenderExpr = %q", got)
	}
}

func TestLayoutClassesAndThrow(t *testing.T) {
	u := s.File(nil, "shapes.cpp",
		s.Struct("Base"),
		s.Derived("Shape", []string{"Base"},
			s.Field("char", "tag", s.Char("'s'")),
			s.Field("bool", "empty", s.Null()),
		),
		s.Func(s.Fn{Name: "fail", Result: "void", Body: []s.Stmt{s.Throw(s.Int("1"))}}),
	)
	for _, want := range []string{"class Shape : public Base {", "char tag = 's'", "bool empty = nullptr", "throw 1"} {
		if !strings.Contains(u.Text, want) {
			t.Fatalf("layout lacks %q:\n%s", want, u.Text)
		}
	}
	if ref := u.Find("throw 1;"); ref.Kind != ast.NodeStmt {
		t.Fatalf("throw statement resolved to %v", ref.Kind)
	}
	if ref := u.Find("'s'"); ref.Kind != ast.NodeExpr {
		t.Fatalf("char literal resolved to %v", ref.Kind)
	}
}
