package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idiomlint/internal/ast"
	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/index"
)

func loopFixture() (*s.Unit, *index.Index) {
	u := s.File(nil, "loop.cpp", s.Func(s.Fn{
		Name: "sum", Result: "int", Params: []s.P{{Type: "int", Name: "n"}},
		Body: []s.Stmt{
			s.Let("int", "total", s.Int("0")),
			s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Id("n")), s.Pre("++", s.Id("i")),
				s.Block(
					s.X(s.Assign("+=", s.Id("total"), s.Id("i"))),
					s.X(s.CallN("record", s.Id("total"))),
				)),
			s.Return(s.Id("total")),
			s.X(s.CallN("never")),
		},
	}))
	return u, index.Build(u.Builder, u.File)
}

func symbolID(t *testing.T, ix *index.Index, u *s.Unit, text string) uint32 {
	t.Helper()
	ref := u.Find(text)
	require.Equal(t, ast.NodeExpr, ref.Kind, text)
	id := ix.SymbolOf(ref.Expr())
	require.True(t, id.Known(), "%s did not resolve", text)
	return uint32(id)
}

func TestBuildCoversFunctions(t *testing.T) {
	u, ix := loopFixture()
	fn := u.FindFunc("sum")
	require.Equal(t, []ast.DeclID{fn}, ix.Functions())
	require.NotNil(t, ix.CFG(fn))
	require.NoError(t, ix.Symbols.Validate())
}

func TestWrittenAndEscapedInLoop(t *testing.T) {
	u, ix := loopFixture()
	loop := u.Find("for (int i = 0; i < n; ++i) {\n        total += i;\n        record(total);\n    }").Stmt()
	require.True(t, loop.IsValid())

	total := symbolID(t, ix, u, "total")
	i := symbolID(t, ix, u, "i")
	n := symbolID(t, ix, u, "n")

	written := ix.WrittenIn(loop)
	assert.True(t, written.Contains(total))
	assert.True(t, written.Contains(i))
	assert.False(t, written.Contains(n))

	// record is unresolved, so its argument escapes
	escaped := ix.EscapedIn(loop)
	assert.True(t, escaped.Contains(total))
	assert.False(t, escaped.Contains(n))

	assert.Same(t, written, ix.WrittenIn(loop), "cached bitmap")
	assert.EqualValues(t, 2, ix.ModifiedIn(loop).GetCardinality())
}

func TestUnreachableAndUnknown(t *testing.T) {
	u, ix := loopFixture()
	never := u.Find("never();").Stmt()
	assert.True(t, ix.Unreachable(never))
	assert.False(t, ix.Unreachable(u.Find("return total;").Stmt()))

	fn, block, ok := ix.BlockOf(never)
	require.True(t, ok)
	assert.Equal(t, u.FindFunc("sum"), fn)
	assert.False(t, ix.CFG(fn).Reachable(block))

	assert.True(t, ix.HasUnknownIn(ast.StmtRef(never)))
	assert.False(t, ix.HasUnknownIn(u.Find("return total;")))
}

func TestDeclaredWithinAndSymbolsIn(t *testing.T) {
	u, ix := loopFixture()
	loop := u.Find("for (int i = 0; i < n; ++i) {\n        total += i;\n        record(total);\n    }")
	cond := u.Find("i < n")

	ids := ix.SymbolsIn(cond)
	require.Len(t, ids, 2)
	assert.True(t, ix.DeclaredWithin(ids[0], loop), "i is declared by the loop header")
	assert.False(t, ix.DeclaredWithin(ids[1], loop), "n is a parameter")
}

func TestNameResolvesThroughThis(t *testing.T) {
	u := s.File(nil, "point.cpp", s.Class("Point",
		s.Field("int", "x", nil),
		s.Func(s.Fn{Name: "get", Result: "int", Flags: ast.FuncConst, Body: []s.Stmt{s.Return(s.Arrow(s.This(), "x"))}}),
		s.Func(s.Fn{Name: "shadow", Result: "int", Params: []s.P{{Type: "int", Name: "x"}},
			Body: []s.Stmt{s.Return(s.Bin("+", s.Arrow(s.This(), "x"), s.Id("x")))}}),
	))
	ix := index.Build(u.Builder, u.File)

	plain := u.Find("this->x").Expr()
	field := ix.SymbolOf(plain)
	require.True(t, field.Known())
	assert.True(t, ix.NameResolvesTo(plain, field))

	shadowed := u.Find("this->x + x")
	bin, ok := u.Builder.Exprs.Binary(shadowed.Expr())
	require.True(t, ok)
	assert.Equal(t, field, ix.SymbolOf(bin.Left))
	assert.False(t, ix.NameResolvesTo(bin.Left, field), "parameter x shadows the field")
}
