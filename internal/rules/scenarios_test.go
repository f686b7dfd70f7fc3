package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idiomlint/internal/ast"
	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
	"idiomlint/internal/index"
	"idiomlint/internal/rules"
)

func TestPostIncrementInLoopHeader(t *testing.T) {
	u, ds := analyze(t, fn("total", "int", nil,
		s.Let("int", "sum", s.Int("0")),
		s.For(s.Let("size_t", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Int("5")), s.Post("++", s.Id("i")),
			s.Block(s.X(s.Assign("+=", s.Id("sum"), s.Id("i"))))),
		s.Return(s.Id("sum")),
	))
	require.Len(t, ds, 1, "%v", ds)
	assert.Equal(t, diag.PreferPreIncrement, ds[0].Code)
	assert.Equal(t, "i++", u.SpanText(ds[0].Primary))
	assert.Contains(t, ds[0].Message, "prefer ++i")
}

func TestIfElseReturningLiterals(t *testing.T) {
	_, ds := analyze(t, fn("isPositive", "bool", []s.P{param("int", "x")},
		s.If(s.Bin(">", s.Id("x"), s.Int("0")),
			s.Block(s.Return(s.Bool(true))),
			s.Block(s.Return(s.Bool(false)))),
	))
	require.Len(t, ds, 1, "%v", ds)
	assert.Equal(t, diag.BooleanReturnIfElse, ds[0].Code)
	assert.Contains(t, ds[0].Message, "return x > 0;")
}

func TestConstructorAssignsFields(t *testing.T) {
	u, ds := analyze(t, s.Class("Point",
		s.Field("int", "x_", nil),
		s.Field("int", "y_", nil),
		s.Func(s.Fn{Name: "Point", Params: []s.P{param("int", "x"), param("int", "y")}, Body: []s.Stmt{
			s.X(s.Assign("=", s.Id("x_"), s.Id("x"))),
			s.X(s.Assign("=", s.Id("y_"), s.Id("y"))),
		}}),
	))
	require.Len(t, ds, 2, "%v", ds)
	for _, d := range ds {
		assert.Equal(t, diag.PreferMemberInitList, d.Code)
	}
	assert.Equal(t, []string{"x_ = x;", "y_ = y;"}, spanTexts(u, ds))
	assert.Contains(t, ds[0].Message, "x_")
	assert.Contains(t, ds[1].Message, "y_")
}

func TestCodeAfterReturn(t *testing.T) {
	u, ds := analyze(t, fn("f", "int", nil,
		s.Return(s.Int("1")),
		s.Let("int", "unused", s.Int("2")),
	))
	require.Len(t, ds, 2, "%v", ds)

	unreachable := withCode(ds, diag.UnreachableCode)
	require.Len(t, unreachable, 1)
	assert.Equal(t, "int unused = 2;", u.SpanText(unreachable[0].Primary))

	unused := withCode(ds, diag.UnusedVariable)
	require.Len(t, unused, 1)
	assert.Equal(t, "unused", u.SpanText(unused[0].Primary))
}

func TestComparisonWithTrue(t *testing.T) {
	u, ds := analyze(t, fn("check", "void", []s.P{param("bool", "a")},
		s.If(s.Bin("==", s.Id("a"), s.Bool(true)), s.Block(s.X(s.CallN("notify"))), nil),
	))
	require.Len(t, ds, 1, "%v", ds)
	assert.Equal(t, diag.BoolLiteralComparison, ds[0].Code)
	assert.Equal(t, "a == true", u.SpanText(ds[0].Primary))
	assert.Contains(t, ds[0].Message, "use a")
	require.Len(t, ds[0].Fixes, 1)
	require.Len(t, ds[0].Fixes[0].Edits, 1)
	assert.Equal(t, "a", ds[0].Fixes[0].Edits[0].NewText)
}

func TestUnknownSuppressesTypeDependentChecks(t *testing.T) {
	u, ds := analyze(t,
		s.Class("Widget",
			s.Field("int", "size_", nil),
			// registry is not declared anywhere
			fn("peek", "int", nil, s.Return(s.Dot(s.Id("registry"), "count"))),
			fn("dump", "void", nil, s.X(s.CallN("log", s.Id("size_")))),
			fn("size", "int", nil, s.Return(s.Id("size_"))),
		),
		fn("walk", "int", []s.P{param("std::vector<int>&", "v")},
			s.Let("int", "n", s.CallN("lookup")),
			s.Return(s.Index(s.Id("v"), s.Id("n"))),
		),
		fn("walkKnown", "int", []s.P{param("std::vector<int>&", "v")},
			s.Let("int", "m", s.Int("0")),
			s.Return(s.Index(s.Id("v"), s.Id("m"))),
		),
	)
	assert.Equal(t, []string{"size"}, spanTexts(u, withCode(ds, diag.MissingConst)))
	assert.Equal(t, []string{"m"}, spanTexts(u, withCode(ds, diag.PreferUnsigned)))
}

func TestHoistSuggestionIsIdempotent(t *testing.T) {
	loop := func(body s.Stmt) s.Stmt {
		return s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Id("n")), s.Pre("++", s.Id("i")), body)
	}
	params := []s.P{param("int", "n"), param("bool", "verbose")}

	u, ds := findings(t, diag.HoistLoopInvariantCondition, fn("run", "void", params,
		loop(s.Block(s.If(s.Id("verbose"), s.Block(s.X(s.CallN("trace", s.Id("i")))), nil))),
	))
	require.Len(t, ds, 1)
	assert.Equal(t, "verbose", u.SpanText(ds[0].Primary))

	_, ds = findings(t, diag.HoistLoopInvariantCondition, fn("run", "void", params,
		s.If(s.Id("verbose"), s.Block(loop(s.Block(s.X(s.CallN("trace", s.Id("i")))))), nil),
	))
	assert.Empty(t, ds)
}

func TestConstSuggestionIsIdempotent(t *testing.T) {
	counter := func(flags ast.FuncFlags) s.Decl {
		return s.Class("Counter",
			s.Field("int", "n_", nil),
			s.Func(s.Fn{Name: "get", Result: "int", Flags: flags, Body: []s.Stmt{s.Return(s.Id("n_"))}}),
		)
	}
	u, ds := findings(t, diag.MissingConst, counter(0))
	require.Len(t, ds, 1)
	assert.Equal(t, "get", u.SpanText(ds[0].Primary))

	_, ds = findings(t, diag.MissingConst, counter(ast.FuncConst))
	assert.Empty(t, ds)
}

func TestUnreachableMatchesCFG(t *testing.T) {
	u := s.File(nil, "flow.cpp", fn("classify", "int", []s.P{param("int", "x")},
		s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Id("x")), s.Pre("++", s.Id("i")),
			s.Block(
				s.If(s.Bin("==", s.Id("i"), s.Int("3")), s.Block(s.Break()), nil),
				s.Continue(),
				s.X(s.CallN("skipped")),
			)),
		s.Switch(s.Id("x"),
			s.Case(s.Int("1"), s.Return(s.Int("1")), s.Break()),
			s.Default(s.Return(s.Int("0"))),
		),
		s.X(s.CallN("after")),
	))
	ix := index.Build(u.Builder, u.File)
	fnID := u.FindFunc("classify")
	g := ix.CFG(fnID)
	require.NotNil(t, g)

	// every placed statement is unreachable exactly when its block is
	u.Builder.Inspect(ast.DeclRef(fnID), func(r ast.NodeRef) bool {
		if r.Kind != ast.NodeStmt {
			return r.Kind != ast.NodeExpr
		}
		if owner, block, ok := ix.BlockOf(r.Stmt()); ok {
			assert.Equal(t, fnID, owner)
			assert.Equal(t, !g.Reachable(block), ix.Unreachable(r.Stmt()), u.SpanText(u.Builder.Span(r)))
		}
		return true
	})

	sel, err := rules.Builtin().Configure(nil)
	require.NoError(t, err)
	ds, err := rules.NewEngine(sel, rules.Options{}).Run(context.Background(), ix)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"skipped();", "after();"}, spanTexts(u, withCode(ds, diag.UnreachableCode)))
}

func TestRunIsDeterministic(t *testing.T) {
	u := s.File(nil, "mixed.cpp",
		s.Class("Point",
			s.Field("int", "x_", nil),
			s.Func(s.Fn{Name: "Point", Params: []s.P{param("int", "x")}, Body: []s.Stmt{
				s.X(s.Assign("=", s.Id("x_"), s.Id("x"))),
			}}),
			fn("x", "int", nil, s.Return(s.Arrow(s.This(), "x_"))),
		),
		fn("f", "int", []s.P{param("bool", "a")},
			s.If(s.Bin("==", s.Id("a"), s.Bool(false)), s.Block(s.Return(s.Int("7"))), s.Block(s.Return(s.Int("9")))),
			s.X(s.Post("++", s.Id("a"))),
			s.Let("int", "dead", s.Int("3")),
		),
	)
	ix := index.Build(u.Builder, u.File)
	sel, err := rules.Builtin().Configure(nil)
	require.NoError(t, err)

	run := func(workers int) []diag.Diagnostic {
		ds, err := rules.NewEngine(sel, rules.Options{CheckWorkers: workers}).Run(context.Background(), ix)
		require.NoError(t, err)
		agg := diag.NewAggregator()
		agg.AddAll(ds)
		return agg.Finish(u.FileSet)
	}
	first := run(1)
	require.NotEmpty(t, first)
	assert.Equal(t, first, run(1))
	assert.Equal(t, first, run(4))
}
