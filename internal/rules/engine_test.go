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

// exploding reports once and then fails on the next statement.
type exploding struct{}

func (exploding) Meta() rules.Meta {
	return rules.Meta{Code: diag.PreferArrow, Category: rules.CategoryStructural, Severity: diag.SevWarning}
}

func (exploding) VisitStmt(p *rules.Pass, id ast.StmtID) {
	if len(p.Diagnostics()) > 0 {
		panic("boom")
	}
	p.Reportf(p.Tree.Span(ast.StmtRef(id)), "partial").Emit()
}

func explodingSelection(t *testing.T) *rules.Selection {
	t.Helper()
	reg := rules.NewRegistry()
	reg.Register(exploding{})
	sel, err := reg.Configure(nil)
	require.NoError(t, err)

	builtin, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"PreferArrow": {Enabled: ptr(false)},
	}})
	require.NoError(t, err)
	sel.Rules = append(sel.Rules, builtin.Rules...)
	return sel
}

func TestCheckPanicBecomesInternalError(t *testing.T) {
	u := s.File(nil, "boom.cpp", fn("count", "void", nil,
		s.Let("int", "i", s.Int("0")),
		s.X(s.Post("++", s.Id("i"))),
		s.X(s.CallN("use", s.Id("i"))),
	))
	ix := index.Build(u.Builder, u.File)

	for _, workers := range []int{1, 4} {
		ds, err := rules.NewEngine(explodingSelection(t), rules.Options{CheckWorkers: workers}).Run(context.Background(), ix)
		require.NoError(t, err)

		internal := withCode(ds, diag.CheckInternalError)
		require.Len(t, internal, 1)
		d := internal[0]
		assert.Equal(t, diag.SevInfo, d.Severity)
		assert.Equal(t, diag.PreferArrow, d.Origin)
		assert.Equal(t, diag.PreferArrow, d.Rule())
		assert.Contains(t, d.Message, "boom")
		assert.Equal(t, u.Source, d.Primary.File)
		assert.True(t, d.Primary.Empty())

		for _, d := range ds {
			assert.NotEqual(t, "partial", d.Message, "output of the failed check is dropped")
		}
		// sibling checks still ran
		assert.Len(t, withCode(ds, diag.PreferPreIncrement), 1)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	u := s.File(nil, "cancel.cpp", fn("f", "int", nil, s.Return(s.Int("1"))))
	sel, err := rules.Builtin().Configure(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rules.NewEngine(sel, rules.Options{}).Run(ctx, index.Build(u.Builder, u.File))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistryLookup(t *testing.T) {
	reg := rules.Builtin()
	for _, name := range []string{"STR2004", "MagicNumber", "magicnumber"} {
		c, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, diag.MagicNumber, c.Meta().Code)
	}
	_, ok := reg.Lookup("INT9001")
	assert.False(t, ok, "internal error code is not a rule")

	assert.Panics(t, func() { reg.Register(exploding{}) }, "duplicate code")
}

func TestWalkDispatchesByCapability(t *testing.T) {
	u := s.File(nil, "walk.cpp", fn("f", "int", []s.P{param("int", "x")},
		s.If(s.Id("x"), s.Block(s.Return(s.Int("1"))), nil),
		s.Return(s.Int("0")),
	))
	ix := index.Build(u.Builder, u.File)
	c := &counting{}
	rules.Walk(&rules.Pass{Index: ix, Tree: ix.Tree, Source: u.Source}, c)
	assert.Equal(t, 1, c.files)
	assert.Equal(t, 2, c.decls, "function and parameter")
	assert.Equal(t, 5, c.stmts, "body, if, then block, two returns")
}

type counting struct{ files, decls, stmts int }

func (*counting) Meta() rules.Meta { return rules.Meta{Code: diag.RedundantElse} }

func (c *counting) CheckFile(*rules.Pass)             { c.files++ }
func (c *counting) VisitDecl(*rules.Pass, ast.DeclID) { c.decls++ }
func (c *counting) VisitStmt(*rules.Pass, ast.StmtID) { c.stmts++ }
