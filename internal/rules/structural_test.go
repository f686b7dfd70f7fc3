package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idiomlint/internal/ast"
	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
)

func TestPreferPreIncrement(t *testing.T) {
	u, ds := findings(t, diag.PreferPreIncrement, fn("step", "int", []s.P{param("int", "x")},
		s.X(s.Assign("+=", s.Id("x"), s.Int("1"))),
		s.Let("int", "y", s.Post("--", s.Id("x"))),
		s.X(s.Post("--", s.Id("y"))),
		s.Return(s.Id("y")),
	))
	assert.Equal(t, []string{"x += 1", "y--"}, spanTexts(u, ds))
	assert.Contains(t, ds[0].Message, "prefer ++x")
	assert.Contains(t, ds[1].Message, "prefer --y")
}

func TestRedundantLoopCondition(t *testing.T) {
	loop := func(body s.Stmt) s.Decl {
		return fn("sum", "int", []s.P{param("int", "n")},
			s.Let("int", "total", s.Int("0")),
			s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Id("n")), s.Pre("++", s.Id("i")), body),
			s.Return(s.Id("total")),
		)
	}
	u, ds := findings(t, diag.RedundantLoopCondition, loop(s.Block(
		s.If(s.Bin("&&", s.Bin("<", s.Id("i"), s.Id("n")), s.Bin(">", s.Id("total"), s.Int("0"))),
			s.Block(s.X(s.Assign("+=", s.Id("total"), s.Id("i")))), nil),
	)))
	require.Len(t, ds, 1)
	assert.Equal(t, "i < n", u.SpanText(ds[0].Primary))
	require.Len(t, ds[0].Notes, 1)
	assert.Equal(t, "i < n", u.SpanText(ds[0].Notes[0].Span))
	assert.NotEqual(t, ds[0].Primary, ds[0].Notes[0].Span)

	// the body moves the bound
	_, ds = findings(t, diag.RedundantLoopCondition, loop(s.Block(
		s.If(s.Bin("<", s.Id("i"), s.Id("n")), s.Block(s.X(s.Pre("--", s.Id("n")))), nil),
	)))
	assert.Empty(t, ds)
}

func TestPreferForLoop(t *testing.T) {
	counter := func(tail ...s.Stmt) s.Decl {
		body := []s.Stmt{
			s.Let("int", "i", s.Int("0")),
			s.While(s.Bin("<", s.Id("i"), s.Id("n")), s.Block(s.X(s.Pre("++", s.Id("i"))))),
		}
		return fn("count", "int", []s.P{param("int", "n")}, append(body, tail...)...)
	}
	u, ds := findings(t, diag.PreferForLoop, counter(s.Return(s.Int("0"))))
	require.Len(t, ds, 1)
	assert.Contains(t, u.SpanText(ds[0].Primary), "while (i < n)")
	assert.Contains(t, ds[0].Message, "i is only used by this loop")
	assert.Equal(t, "int i = 0;", u.SpanText(ds[0].Notes[0].Span))

	_, ds = findings(t, diag.PreferForLoop, counter(s.Return(s.Id("i"))))
	assert.Empty(t, ds, "i outlives the loop")
}

func TestMagicNumber(t *testing.T) {
	u, ds := findings(t, diag.MagicNumber, fn("scale", "int",
		[]s.P{param("int", "x"), param("int*", "table"), param("std::string", "name")},
		s.Let("const int", "limit", s.Int("100")),
		s.If(s.Bin(">", s.Id("x"), s.Pre("-", s.Int("7"))), s.Block(s.Return(s.Index(s.Id("table"), s.Int("3")))), nil),
		s.Switch(s.Id("x"), s.Case(s.Int("12"), s.Return(s.Int("0")))),
		s.If(s.Bin("==", s.Id("name"), s.Str("root")), s.Block(s.Return(s.Id("limit"))), nil),
		s.X(s.CallN("print", s.Str("done"))),
		s.Return(s.Bin("*", s.Id("x"), s.Float("2.5"))),
	))
	assert.Equal(t, []string{"-7", `"root"`, "2.5"}, spanTexts(u, ds))
	assert.Contains(t, ds[0].Message, "magic number -7")
	assert.Contains(t, ds[1].Message, "magic string")
}

func TestPreferSubscript(t *testing.T) {
	deref := func(l, r string) s.Expr { return s.Pre("*", s.Paren(s.Bin("+", s.Id(l), s.Id(r)))) }
	u, ds := findings(t, diag.PreferSubscript, fn("at", "int", []s.P{param("int*", "p"), param("int", "k")},
		s.Let("int", "a", deref("p", "k")),
		s.Let("int", "b", deref("k", "p")),
		s.Let("int", "c", deref("k", "k")),
		s.Return(s.Bin("+", s.Bin("+", s.Id("a"), s.Id("b")), s.Id("c"))),
	))
	assert.Equal(t, []string{"*(p + k)", "*(k + p)"}, spanTexts(u, ds))
	for _, d := range ds {
		assert.Contains(t, d.Message, "prefer p[k]")
	}
}

func TestPreferArrow(t *testing.T) {
	u, ds := findings(t, diag.PreferArrow, fn("get", "int", []s.P{param("Point*", "p")},
		s.Return(s.Dot(s.Paren(s.Pre("*", s.Id("p"))), "x")),
	))
	require.Len(t, ds, 1)
	assert.Equal(t, "(*p).x", u.SpanText(ds[0].Primary))
	assert.Equal(t, "p->x", ds[0].Fixes[0].Edits[0].NewText)
}

func TestBooleanReturnWithoutElse(t *testing.T) {
	u, ds := findings(t, diag.BooleanReturnIfElse, fn("isEmpty", "bool", []s.P{param("int", "n")},
		s.If(s.Bin(">", s.Id("n"), s.Int("0")), s.Block(s.Return(s.Bool(false))), nil),
		s.Return(s.Bool(true)),
	))
	require.Len(t, ds, 1)
	text := u.SpanText(ds[0].Primary)
	assert.Regexp(t, `^if \(n > 0\)`, text)
	assert.Regexp(t, `return true;$`, text)
	assert.Contains(t, ds[0].Message, "return !(n > 0);")
}

func TestRedundantElse(t *testing.T) {
	u, ds := findings(t, diag.RedundantElse, fn("clamp", "int", []s.P{param("int", "x")},
		s.If(s.Bin("<", s.Id("x"), s.Int("0")),
			s.Block(s.Return(s.Int("0"))),
			s.Block(s.X(s.Assign("=", s.Id("x"), s.Int("1"))))),
		s.Return(s.Id("x")),
	))
	require.Len(t, ds, 1)
	assert.Regexp(t, `^\{\s+x = 1;\s+\}$`, u.SpanText(ds[0].Primary))
	assert.Contains(t, u.SpanText(ds[0].Notes[0].Span), "return 0;")

	u, ds = findings(t, diag.RedundantElse, fn("sign", "int", []s.P{param("int", "x")},
		s.If(s.Bin("<", s.Id("x"), s.Int("0")),
			s.Block(s.Return(s.Pre("-", s.Int("1")))),
			s.If(s.Bin(">", s.Id("x"), s.Int("0")),
				s.Block(s.Return(s.Int("1"))),
				s.Block(s.Return(s.Int("0"))))),
	))
	require.Len(t, ds, 1, "one report per else-if chain")
	assert.Regexp(t, `^if \(x > 0\)`, u.SpanText(ds[0].Primary))
}

func TestDuplicateBranchCode(t *testing.T) {
	params := []s.P{param("bool", "c"), param("int", "x")}

	_, ds := findings(t, diag.DuplicateBranchCode, fn("emitAll", "void", params,
		s.If(s.Id("c"),
			s.Block(s.X(s.CallN("emit", s.Id("x")))),
			s.Block(s.X(s.CallN("emit", s.Id("x"))))),
	))
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].Message, "identical")

	_, ds = findings(t, diag.DuplicateBranchCode, fn("openSide", "void", params,
		s.If(s.Id("c"),
			s.Block(s.X(s.CallN("open")), s.X(s.CallN("left"))),
			s.Block(s.X(s.CallN("open")), s.X(s.CallN("right")))),
	))
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].Message, "1 leading statement")

	u, ds := findings(t, diag.DuplicateBranchCode, fn("route", "void", []s.P{param("int", "op")},
		s.Switch(s.Id("op"),
			s.Case(s.Int("1"), s.X(s.CallN("handle")), s.Break()),
			s.Case(s.Int("2"), s.X(s.CallN("handle")), s.Break()),
			s.Default(s.Return(nil)),
		),
	))
	require.Len(t, ds, 1)
	assert.Regexp(t, `^case 2:`, u.SpanText(ds[0].Primary))
	assert.Regexp(t, `^case 1:`, u.SpanText(ds[0].Notes[0].Span))
	assert.Contains(t, ds[0].Message, "duplicates an earlier case")
}

func TestUnusedVariable(t *testing.T) {
	u, ds := findings(t, diag.UnusedVariable, fn("f", "void", nil,
		s.Let("int", "a", s.Int("0")),
		s.X(s.Assign("=", s.Id("a"), s.Int("5"))),
		s.Let("int", "b", s.Int("1")),
		s.DeclS(s.VF("int", "c", ast.VarMaybeUnused, s.Int("0"))),
		s.DeclS(s.VCtor("std::lock_guard<std::mutex>", "guard", s.Id("mu"))),
		s.RangeFor("int", "item", s.Id("items"), s.Block()),
	))
	assert.Equal(t, []string{"a", "b"}, spanTexts(u, ds))
	assert.Empty(t, ds[0].Fixes, "a is written after its declaration")
	require.Len(t, ds[1].Fixes, 1)
	assert.Equal(t, "int b = 1;", u.SpanText(ds[1].Fixes[0].Edits[0].Span))
}

func TestBoolLiteralComparison(t *testing.T) {
	cond := func(x s.Expr) s.Stmt { return s.If(x, s.Block(s.X(s.CallN("hit"))), nil) }
	_, ds := findings(t, diag.BoolLiteralComparison, fn("g", "void", []s.P{param("bool", "a")},
		cond(s.Bin("!=", s.Id("a"), s.Bool(false))),
		cond(s.Bin("==", s.Bool(false), s.Id("a"))),
		cond(s.Bin("==", s.Bool(true), s.Bool(false))),
		cond(s.Bin("!=", s.Bool(false), s.Bool(true))),
	))
	require.Len(t, ds, 4)
	assert.Equal(t, "a", ds[0].Fixes[0].Edits[0].NewText)
	assert.Equal(t, "!a", ds[1].Fixes[0].Edits[0].NewText)
	assert.Equal(t, "false", ds[2].Fixes[0].Edits[0].NewText)
	assert.Contains(t, ds[2].Message, "two boolean literals")
	assert.Equal(t, "true", ds[3].Fixes[0].Edits[0].NewText)
}

func TestPreferPreIncrementThroughComma(t *testing.T) {
	i, j := s.Id("i"), s.Id("j")
	u, ds := findings(t, diag.PreferPreIncrement, fn("walk", "int", []s.P{param("int", "n")},
		s.Let("int", "j", s.Int("0")),
		s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", i, s.Id("n")), s.Bin(",", s.Post("++", i), s.Post("++", j)),
			s.Block(s.X(s.CallN("g", i, j)))),
		s.Let("int", "k", s.Bin(",", s.Post("++", j), s.Post("++", j))),
		s.Return(s.Id("k")),
	))
	assert.Equal(t, []string{"i++", "j++", "j++"}, spanTexts(u, ds))
}

func TestPreferUnsigned(t *testing.T) {
	v := s.Id("v")
	u, ds := findings(t, diag.PreferUnsigned, fn("scan", "int", []s.P{param("std::vector<int>&", "v")},
		s.Let("int", "i", s.Int("0")),
		s.Let("int", "j", s.Int("0")),
		s.X(s.Pre("--", s.Id("j"))),
		s.Let("int", "k", s.Pre("-", s.Int("1"))),
		s.Return(s.Bin("+", s.Index(v, s.Id("i")), s.Bin("+", s.Index(v, s.Id("j")), s.Index(v, s.Id("k"))))),
	))
	assert.Equal(t, []string{"i"}, spanTexts(u, ds))
	require.Len(t, ds[0].Notes, 1)
	assert.Equal(t, "used as an index here", ds[0].Notes[0].Msg)
	assert.Equal(t, diag.SevInfo, ds[0].Severity)
}
