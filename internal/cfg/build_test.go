package cfg_test

import (
	"testing"

	"idiomlint/internal/ast"
	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/cfg"
)

func build(t *testing.T, body ...s.Stmt) (*s.Unit, *cfg.Graph) {
	t.Helper()
	u := s.File(nil, "flow.cpp", s.Func(s.Fn{Name: "f", Result: "int", Params: []s.P{{Type: "int", Name: "x"}}, Body: body}))
	g := cfg.Build(u.Builder, u.FindFunc("f"))
	if g == nil {
		t.Fatalf("no graph for f")
	}
	return u, g
}

func stmt(t *testing.T, u *s.Unit, text string) ast.StmtID {
	t.Helper()
	ref := u.Find(text)
	if ref.Kind != ast.NodeStmt {
		t.Fatalf("%q is not a statement (%v)", text, ref.Kind)
	}
	return ref.Stmt()
}

func TestEntryAndExit(t *testing.T) {
	_, g := build(t, s.Return(s.Id("x")))
	if g.Entry != 0 || g.Exit != 1 {
		t.Fatalf("entry=%d exit=%d", g.Entry, g.Exit)
	}
	if !g.Reachable(g.Exit) {
		t.Fatalf("exit not reachable:\n%s", g)
	}
	succs := g.Block(g.Entry).Succs
	if len(succs) != 1 || succs[0].To != g.Exit || succs[0].Kind != cfg.EdgeReturn {
		t.Fatalf("entry succs %+v", succs)
	}
}

func TestCodeAfterReturnIsUnreachable(t *testing.T) {
	u, g := build(t,
		s.Return(s.Int("1")),
		s.Let("int", "unused", s.Int("2")),
	)
	if g.Unreachable(stmt(t, u, "return 1;")) {
		t.Fatalf("return flagged unreachable")
	}
	if !g.Unreachable(stmt(t, u, "int unused = 2;")) {
		t.Fatalf("declaration after return reachable:\n%s", g)
	}
}

func TestInfiniteForHasNoFalseEdge(t *testing.T) {
	u, g := build(t,
		s.For(nil, nil, nil, s.Block(s.X(s.Post("++", s.Id("x"))))),
		s.Return(s.Id("x")),
	)
	if !g.Unreachable(stmt(t, u, "return x;")) {
		t.Fatalf("return after for (;;) reachable:\n%s", g)
	}
	if g.Unreachable(stmt(t, u, "x++;")) {
		t.Fatalf("loop body unreachable")
	}
}

func TestConditionsAreNotFolded(t *testing.T) {
	u, g := build(t,
		s.While(s.Bool(true), s.Block(s.X(s.Post("++", s.Id("x"))))),
		s.Return(s.Id("x")),
	)
	if g.Unreachable(stmt(t, u, "return x;")) {
		t.Fatalf("while (true) treated as infinite")
	}
}

func TestBreakLeavesLoop(t *testing.T) {
	u, g := build(t,
		s.For(nil, nil, nil, s.Block(s.Break(), s.X(s.Post("++", s.Id("x"))))),
		s.Return(s.Id("x")),
	)
	if g.Unreachable(stmt(t, u, "return x;")) {
		t.Fatalf("break does not reach the loop exit:\n%s", g)
	}
	if !g.Unreachable(stmt(t, u, "x++;")) {
		t.Fatalf("statement after break reachable")
	}
}

func TestIfBothBranchesReturn(t *testing.T) {
	u, g := build(t,
		s.If(s.Bin(">", s.Id("x"), s.Int("0")),
			s.Block(s.Return(s.Int("1"))),
			s.Block(s.Return(s.Int("2")))),
		s.Return(s.Int("3")),
	)
	if !g.Unreachable(stmt(t, u, "return 3;")) {
		t.Fatalf("return 3 reachable:\n%s", g)
	}
	for _, text := range []string{"return 1;", "return 2;"} {
		if g.Unreachable(stmt(t, u, text)) {
			t.Fatalf("%s unreachable", text)
		}
	}
	head, _ := g.BlockOf(stmt(t, u, "if (x > 0) {\n        return 1;\n    } else {\n        return 2;\n    }"))
	kinds := map[cfg.EdgeKind]int{}
	for _, e := range g.Block(head).Succs {
		kinds[e.Kind]++
	}
	if kinds[cfg.EdgeTrue] != 1 || kinds[cfg.EdgeFalse] != 1 {
		t.Fatalf("if head edges %+v", g.Block(head).Succs)
	}
}

func TestIfOneBranchReturns(t *testing.T) {
	u, g := build(t,
		s.If(s.Bin(">", s.Id("x"), s.Int("0")), s.Return(s.Int("1")), nil),
		s.Return(s.Int("3")),
	)
	if g.Unreachable(stmt(t, u, "return 3;")) {
		t.Fatalf("return 3 unreachable:\n%s", g)
	}
}

func TestLoopBackEdges(t *testing.T) {
	_, g := build(t,
		s.While(s.Bin("<", s.Id("x"), s.Int("10")), s.Block(s.X(s.Pre("++", s.Id("x"))))),
		s.DoWhile(s.Block(s.X(s.Pre("--", s.Id("x")))), s.Bin(">", s.Id("x"), s.Int("0"))),
		s.Return(s.Id("x")),
	)
	back := 0
	for i := range g.Blocks {
		for _, e := range g.Blocks[i].Succs {
			if e.Kind == cfg.EdgeLoopBack {
				back++
			}
		}
	}
	if back != 2 {
		t.Fatalf("loop back edges = %d, want 2:\n%s", back, g)
	}
}

func TestSwitchCases(t *testing.T) {
	u, g := build(t,
		s.Switch(s.Id("x"),
			s.Case(s.Int("1"), s.X(s.Pre("++", s.Id("x"))), s.Break(), s.X(s.Pre("--", s.Id("x")))),
			s.Case(s.Int("2"), s.Return(s.Int("2"))),
			s.Default(s.X(s.Assign("=", s.Id("x"), s.Int("0"))))),
		s.Return(s.Id("x")),
	)
	for _, text := range []string{"++x;", "return 2;", "x = 0;", "return x;"} {
		if g.Unreachable(stmt(t, u, text)) {
			t.Fatalf("%s unreachable:\n%s", text, g)
		}
	}
	if !g.Unreachable(stmt(t, u, "--x;")) {
		t.Fatalf("statement after break in case reachable")
	}
}

func TestContinueInsideSwitchTargetsLoop(t *testing.T) {
	u, g := build(t,
		s.While(s.Id("x"), s.Block(
			s.Switch(s.Id("x"), s.Case(s.Int("1"), s.Continue())),
			s.X(s.Pre("--", s.Id("x"))),
		)),
		s.Return(s.Id("x")),
	)
	if g.Unreachable(stmt(t, u, "--x;")) {
		t.Fatalf("switch without default skips the rest of the body:\n%s", g)
	}
	blk, _ := g.BlockOf(stmt(t, u, "continue;"))
	succs := g.Block(blk).Succs
	if len(succs) != 1 || succs[0].Kind != cfg.EdgeLoopBack {
		t.Fatalf("continue edges %+v", succs)
	}
}

func TestPrototypeHasNoGraph(t *testing.T) {
	u := s.File(nil, "proto.cpp", s.Func(s.Fn{Name: "f", Result: "void", Proto: true}))
	if g := cfg.Build(u.Builder, u.FindFunc("f")); g != nil {
		t.Fatalf("graph for prototype: %s", g)
	}
}
