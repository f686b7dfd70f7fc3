package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idiomlint/internal/ast"
	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
)

func newTexts(ds []diag.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		if len(d.Fixes) == 0 || len(d.Fixes[0].Edits) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, d.Fixes[0].Edits[0].NewText)
	}
	return out
}

func TestPreferMemberInitListSkips(t *testing.T) {
	u, ds := findings(t, diag.PreferMemberInitList, s.Class("Buffer",
		s.Field("int", "size_", nil),
		s.Field("int", "cap_", nil),
		s.Field("int", "used_", nil),
		s.Func(s.Fn{
			Name:   "Buffer",
			Params: []s.P{param("int", "n")},
			Inits:  []s.Init{{Name: "size_", Args: []s.Expr{s.Id("n")}}},
			Body: []s.Stmt{
				s.X(s.Assign("=", s.Id("size_"), s.Id("n"))),
				s.X(s.Assign("=", s.Id("cap_"), s.Id("size_"))),
				s.X(s.Assign("=", s.Arrow(s.This(), "used_"), s.Int("0"))),
				s.X(s.CallN("reserve", s.Id("cap_"))),
			},
		}),
	))
	assert.Equal(t, []string{"this->used_ = 0;"}, spanTexts(u, ds))
	assert.Contains(t, ds[0].Message, "used_ is assigned in the constructor body")
}

func TestRedundantThis(t *testing.T) {
	u, ds := findings(t, diag.RedundantThis, s.Class("Account",
		s.Field("int", "balance_", nil),
		fn("balance", "int", nil, s.Return(s.Arrow(s.This(), "balance_"))),
		fn("set", "void", []s.P{param("int", "balance_")},
			s.X(s.Assign("=", s.Arrow(s.This(), "balance_"), s.Id("balance_")))),
		fn("self", "Account*", nil, s.Return(s.This())),
	))
	assert.Equal(t, []string{"this->balance_"}, spanTexts(u, ds))
	assert.Equal(t, []string{"balance_"}, newTexts(ds))
}

func TestMissingConst(t *testing.T) {
	nRead := s.Id("n_")
	u, ds := findings(t, diag.MissingConst,
		s.Class("Counter",
			s.Field("int", "n_", nil),
			s.FieldF("int", "hits_", ast.VarMutable),
			fn("value", "int", nil, s.X(s.Pre("++", s.Id("hits_"))), s.Return(s.Id("n_"))),
			fn("bump", "void", nil, s.X(s.Pre("++", s.Id("n_")))),
			fn("reset", "void", nil, s.X(s.CallN("bump"))),
			fn("ref", "int&", nil, s.Return(s.Id("n_"))),
			fn("view", "const int&", nil, s.Return(s.Id("n_"))),
			fn("publish", "void", nil, s.X(s.CallN("track", s.This()))),
			s.Func(s.Fn{Name: "make", Result: "int", Flags: ast.FuncStatic, Body: []s.Stmt{s.Return(s.Int("0"))}}),
			s.Func(s.Fn{Name: "total", Result: "int", Proto: true}),
			fn("operator==", "bool", []s.P{param("const Counter&", "o")},
				s.Return(s.Bin("==", nRead, s.Dot(s.Id("o"), "n_")))),
			fn("operator+=", "Counter&", []s.P{param("int", "d")},
				s.X(s.Assign("+=", s.Id("n_"), s.Id("d"))),
				s.Return(s.Pre("*", s.This()))),
		),
		s.Func(s.Fn{Name: "track", Result: "void", Params: []s.P{param("Counter*", "c")}, Proto: true}),
		s.Func(s.Fn{Name: "total", Qualifier: "Counter", Result: "int", Body: []s.Stmt{s.Return(s.Id("n_"))}}),
	)
	assert.Equal(t, []string{"value", "view", "operator==", "Counter::total"}, spanTexts(u, ds))
	assert.Contains(t, ds[0].Message, "value does not modify the object")
}

func TestMissingConstHonorsPrototypeFlags(t *testing.T) {
	_, ds := findings(t, diag.MissingConst,
		s.Class("Shape",
			s.Field("int", "w_", nil),
			s.Func(s.Fn{Name: "area", Result: "int", Flags: ast.FuncVirtual, Proto: true}),
		),
		s.Func(s.Fn{Name: "area", Qualifier: "Shape", Result: "int", Body: []s.Stmt{s.Return(s.Id("w_"))}}),
	)
	assert.Empty(t, ds)
}

func TestInequalityNotDelegating(t *testing.T) {
	other := func(class string) []s.P { return []s.P{param("const "+class+"&", "o")} }
	u, ds := findings(t, diag.InequalityNotDelegating,
		s.Class("Money",
			s.Field("int", "cents_", nil),
			s.Func(s.Fn{Name: "operator==", Result: "bool", Flags: ast.FuncConst, Params: other("Money"),
				Body: []s.Stmt{s.Return(s.Bin("==", s.Id("cents_"), s.Dot(s.Id("o"), "cents_")))}}),
			s.Func(s.Fn{Name: "operator!=", Result: "bool", Flags: ast.FuncConst, Params: other("Money"),
				Body: []s.Stmt{s.Return(s.Bin("!=", s.Id("cents_"), s.Dot(s.Id("o"), "cents_")))}}),
		),
		s.Class("Tag",
			s.Field("int", "id_", nil),
			s.Func(s.Fn{Name: "operator==", Result: "bool", Flags: ast.FuncConst, Params: other("Tag"),
				Body: []s.Stmt{s.Return(s.Bin("==", s.Id("id_"), s.Dot(s.Id("o"), "id_")))}}),
			s.Func(s.Fn{Name: "operator!=", Result: "bool", Flags: ast.FuncConst, Params: other("Tag"),
				Body: []s.Stmt{s.Return(s.Pre("!", s.Paren(s.Bin("==", s.Pre("*", s.This()), s.Id("o")))))}}),
		),
		s.Class("Key",
			s.Field("int", "k_", nil),
			s.Func(s.Fn{Name: "operator==", Result: "bool", Flags: ast.FuncConst, Params: other("Key"),
				Body: []s.Stmt{s.Return(s.Bin("==", s.Id("k_"), s.Dot(s.Id("o"), "k_")))}}),
			s.Func(s.Fn{Name: "operator!=", Result: "bool", Flags: ast.FuncConst, Params: other("Key"),
				Body: []s.Stmt{s.Return(s.Pre("!", s.CallN("operator==", s.Id("o"))))}}),
		),
	)
	require.Len(t, ds, 1)
	money := u.Builder.Decls.Get(u.FindFunc("operator!=")).NameSpan
	assert.Equal(t, money, ds[0].Primary)
	assert.Contains(t, ds[0].Message, "write return !(*this == o);")
}

func TestInequalityNegatingFieldComparison(t *testing.T) {
	other := []s.P{param("const Money&", "o")}
	_, ds := findings(t, diag.InequalityNotDelegating,
		s.Class("Money",
			s.Field("int", "cents_", nil),
			s.Func(s.Fn{Name: "operator==", Result: "bool", Flags: ast.FuncConst, Params: other,
				Body: []s.Stmt{s.Return(s.Bin("==", s.Id("cents_"), s.Dot(s.Id("o"), "cents_")))}}),
			s.Func(s.Fn{Name: "operator!=", Result: "bool", Flags: ast.FuncConst, Params: other,
				Body: []s.Stmt{s.Return(s.Pre("!", s.Paren(s.Bin("==", s.Id("cents_"), s.Dot(s.Id("o"), "cents_")))))}}),
		),
	)
	require.Len(t, ds, 1, "negated field comparison repeats operator==")
	assert.Contains(t, ds[0].Message, "write return !(*this == o);")
}

func TestInequalityFreeFunctionForms(t *testing.T) {
	pair := []s.P{param("const Id&", "a"), param("const Id&", "b")}
	_, ds := findings(t, diag.InequalityNotDelegating,
		s.Struct("Id", s.Field("int", "v", nil)),
		s.Func(s.Fn{Name: "operator!=", Result: "bool", Params: pair,
			Body: []s.Stmt{s.Return(s.Pre("!", s.Paren(s.Bin("==", s.Id("b"), s.Id("a")))))}}),
		s.Func(s.Fn{Name: "operator!=", Result: "bool", Params: pair,
			Body: []s.Stmt{s.Return(s.Pre("!", s.CallN("operator==", s.Id("a"), s.Id("b"))))}}),
		s.Func(s.Fn{Name: "operator!=", Result: "bool", Params: pair,
			Body: []s.Stmt{s.Return(s.Pre("!", s.Paren(s.Bin("==", s.Dot(s.Id("a"), "v"), s.Dot(s.Id("b"), "v")))))}}),
	)
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].Message, "write return !(a == b);")
}

func TestPreferDefaulted(t *testing.T) {
	otherPoint := []s.P{param("const Point&", "other")}
	copyOf := func(name string) s.Expr { return s.Dot(s.Id("other"), name) }
	u, ds := findings(t, diag.PreferDefaulted,
		s.Class("Point",
			s.Field("int", "x_", nil),
			s.Field("int", "y_", nil),
			s.FieldF("int", "count_", ast.VarStatic),
			fn("Point", "", nil),
			s.Func(s.Fn{Name: "Point", Params: otherPoint, Inits: []s.Init{
				{Name: "x_", Args: []s.Expr{copyOf("x_")}},
				{Name: "y_", Args: []s.Expr{copyOf("y_")}},
			}}),
			fn("operator=", "Point&", otherPoint,
				s.X(s.Assign("=", s.Id("x_"), copyOf("x_"))),
				s.X(s.Assign("=", s.Arrow(s.This(), "y_"), copyOf("y_"))),
				s.Return(s.Pre("*", s.This()))),
			fn("~Point", "", nil),
		),
		s.Class("Loud",
			s.Field("int", "x_", nil),
			s.Field("int", "y_", nil),
			s.Func(s.Fn{Name: "Loud", Inits: []s.Init{{Name: "x_", Args: []s.Expr{s.Int("0")}}}}),
			s.Func(s.Fn{Name: "Loud", Params: []s.P{param("const Loud&", "other")},
				Inits: []s.Init{{Name: "x_", Args: []s.Expr{copyOf("x_")}}, {Name: "y_", Args: []s.Expr{copyOf("y_")}}},
				Body:  []s.Stmt{s.X(s.CallN("log"))}}),
			fn("operator=", "Loud&", []s.P{param("const Loud&", "other")},
				s.X(s.Assign("=", s.Id("x_"), copyOf("x_"))),
				s.Return(s.Pre("*", s.This()))),
			fn("~Loud", "", nil, s.X(s.CallN("log"))),
		),
	)
	assert.Equal(t, []string{"Point", "Point", "operator=", "~Point"}, spanTexts(u, ds))
	require.Len(t, ds, 4)
	assert.Contains(t, ds[0].Message, "empty default constructor")
	assert.Contains(t, ds[1].Message, "member-wise copy constructor")
	assert.Contains(t, ds[2].Message, "member-wise copy assignment")
	assert.Contains(t, ds[3].Message, "empty destructor")
	assert.Equal(t, "= default;", ds[0].Fixes[0].Edits[0].NewText)
	assert.Equal(t, "{}", u.SpanText(ds[0].Fixes[0].Edits[0].Span))
}

func TestExplicitOperatorCall(t *testing.T) {
	vec := []s.P{param("const Vec&", "a"), param("const Vec&", "b")}
	_, ds := findings(t, diag.ExplicitOperatorCall,
		s.Class("Vec",
			s.Field("int", "x_", nil),
			fn("operator==", "bool", []s.P{param("const Vec&", "o")},
				s.Return(s.Bin("==", s.Id("x_"), s.Dot(s.Id("o"), "x_")))),
			fn("operator[]", "int", []s.P{param("int", "i")}, s.Return(s.Id("x_"))),
			fn("same", "bool", []s.P{param("const Vec&", "o")},
				s.Return(s.Call(s.Id("operator=="), s.Id("o")))),
		),
		fn("operator+", "Vec", vec, s.Return(s.Id("a"))),
		fn("use", "int", []s.P{param("Vec", "a"), param("Vec", "b"), param("Vec*", "p")},
			s.If(s.Call(s.Dot(s.Id("a"), "operator=="), s.Id("b")), s.Block(s.Return(s.Int("0"))), nil),
			s.Let("Vec", "c", s.CallN("operator+", s.Id("a"), s.Id("b"))),
			s.X(s.CallN("Vec::operator==", s.Id("a"), s.Id("c"))),
			s.X(s.CallN("operator new", s.Int("8"))),
			s.Return(s.Call(s.Arrow(s.Id("p"), "operator[]"), s.Int("0"))),
		),
		fn("operator!=", "bool", vec, s.Return(s.Pre("!", s.CallN("operator==", s.Id("a"), s.Id("b"))))),
	)
	assert.Equal(t, []string{"*this == o", "a == b", "a + b", "(*p)[0]"}, newTexts(ds))
	for _, d := range ds {
		assert.Equal(t, diag.FixApplicabilitySafeWithHeuristics, d.Fixes[0].Applicability)
	}
}

func TestIteratorAliasUnused(t *testing.T) {
	members := func(withIncrement bool) []s.Decl {
		ms := []s.Decl{
			s.Using("value_type", "int"),
			s.Using("reference", "int&"),
			s.Field("int*", "pos_", nil),
			fn("operator*", "int&", nil, s.Return(s.Pre("*", s.Id("pos_")))),
			fn("operator->", "int*", nil, s.Return(s.Id("pos_"))),
			fn("operator!=", "bool", []s.P{param("const Iter&", "o")},
				s.Return(s.Bin("!=", s.Id("pos_"), s.Dot(s.Id("o"), "pos_")))),
		}
		if withIncrement {
			ms = append(ms, fn("operator++", "Iter&", nil,
				s.X(s.Pre("++", s.Id("pos_"))),
				s.Return(s.Pre("*", s.This()))))
		}
		return ms
	}
	u, ds := findings(t, diag.IteratorAliasUnused, s.Class("Iter", members(true)...))
	assert.Equal(t, []string{"int&", "int*"}, spanTexts(u, ds))
	assert.Equal(t, []string{"reference", "value_type*"}, newTexts(ds))

	_, ds = findings(t, diag.IteratorAliasUnused, s.Class("Iter", members(false)...))
	assert.Empty(t, ds, "not an iterator without operator++")
}

func TestArrowNotDelegating(t *testing.T) {
	handle := func(name string, arrow ...s.Stmt) s.Decl {
		ms := []s.Decl{s.Field("Widget*", "w_", nil)}
		if arrow != nil {
			ms = append(ms, fn("operator*", "Widget&", nil, s.Return(s.Pre("*", s.Id("w_")))))
		}
		body := arrow
		if body == nil {
			body = []s.Stmt{s.Return(s.Id("w_"))}
		}
		return s.Class(name, append(ms, fn("operator->", "Widget*", nil, body...))...)
	}
	derefThis := s.Pre("*", s.Pre("*", s.This()))
	u, ds := findings(t, diag.ArrowNotDelegating,
		handle("Handle", s.Return(s.Id("w_"))),
		handle("Deref", s.Return(s.Pre("&", derefThis))),
		handle("Named", s.Return(s.Pre("&", s.CallN("operator*")))),
		handle("Addr", s.Return(s.CallN("std::addressof", s.Pre("*", s.Pre("*", s.This()))))),
		handle("Self", s.Return(s.Pre("&", s.Call(s.Arrow(s.This(), "operator*"))))),
		handle("Raw"),
	)
	require.Len(t, ds, 1)
	assert.Equal(t, u.Builder.Decls.Get(u.FindFunc("operator->")).NameSpan, ds[0].Primary)
	assert.Contains(t, ds[0].Message, "write return &**this;")
}

func TestArrowThroughAnotherObject(t *testing.T) {
	node := func(name string, body s.Stmt) s.Decl {
		return s.Class(name,
			s.Field(name+"*", "next_", nil),
			fn("operator*", "int&", nil, s.Return(s.Id("value"))),
			fn("operator->", "int*", nil, body),
		)
	}
	u, ds := findings(t, diag.ArrowNotDelegating,
		node("Link", s.Return(s.Pre("&", s.Call(s.Arrow(s.Id("next_"), "operator*"))))),
		node("Peer", s.Return(s.Pre("&", s.Call(s.Dot(s.Pre("*", s.Id("next_")), "operator*"))))),
		node("Own", s.Return(s.Pre("&", s.Call(s.Dot(s.Paren(s.Pre("*", s.This())), "operator*"))))),
	)
	require.Len(t, ds, 2, "operator* of another object is not delegation")
	assert.Equal(t, u.Builder.Decls.Get(u.FindFunc("operator->")).NameSpan, ds[0].Primary)
}
