package cfg

import (
	"fmt"

	"fortio.org/safecast"

	"idiomlint/internal/ast"
)

// Build lowers the body of fn. It returns nil for declarations without a
// body.
func Build(b *ast.Builder, fn ast.DeclID) *Graph {
	fd, ok := b.Decls.Func(fn)
	if !ok || !fd.Body.IsValid() {
		return nil
	}
	l := lowerer{
		b: b,
		g: &Graph{Func: fn, stmtBlock: make(map[ast.StmtID]BlockID)},
	}
	l.g.Entry = l.newBlock()
	l.cur = l.g.Entry
	l.g.Exit = l.newBlock()
	l.stmt(fd.Body)
	l.edge(l.cur, l.g.Exit, EdgeFallthrough)
	l.g.computeReachability()
	return l.g
}

type target struct {
	brk, cont BlockID
	// contKind is LoopBack when continue jumps straight to the loop test.
	contKind EdgeKind
}

type lowerer struct {
	b   *ast.Builder
	g   *Graph
	cur BlockID
	// targets is the stack of enclosing loops and switches; switches have
	// no continue target.
	targets []target
}

func (l *lowerer) newBlock() BlockID {
	n, err := safecast.Conv[int32](len(l.g.Blocks))
	if err != nil {
		panic(fmt.Errorf("cfg: block count overflow: %w", err))
	}
	id := BlockID(n)
	l.g.Blocks = append(l.g.Blocks, Block{ID: id})
	return id
}

func (l *lowerer) edge(from, to BlockID, kind EdgeKind) {
	if from == NoBlockID || to == NoBlockID {
		return
	}
	l.g.Blocks[from].Succs = append(l.g.Blocks[from].Succs, Edge{To: to, Kind: kind})
	l.g.Blocks[to].Preds = append(l.g.Blocks[to].Preds, from)
}

// place records stmt as starting in the current block.
func (l *lowerer) place(id ast.StmtID) {
	l.g.Blocks[l.cur].Stmts = append(l.g.Blocks[l.cur].Stmts, id)
	l.g.stmtBlock[id] = l.cur
}

// detach starts a fresh block with no predecessors after a jump.
func (l *lowerer) detach() { l.cur = l.newBlock() }

func (l *lowerer) stmt(id ast.StmtID) {
	s := l.b.Stmts.Get(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		l.place(id)
		blk, _ := l.b.Stmts.Block(id)
		for _, child := range blk.Stmts {
			l.stmt(child)
		}
	case ast.StmtIf:
		l.place(id)
		l.lowerIf(id)
	case ast.StmtWhile:
		l.place(id)
		l.lowerWhile(id)
	case ast.StmtDoWhile:
		l.place(id)
		l.lowerDoWhile(id)
	case ast.StmtFor:
		l.place(id)
		l.lowerFor(id)
	case ast.StmtRangeFor:
		l.place(id)
		l.lowerRangeFor(id)
	case ast.StmtSwitch:
		l.place(id)
		l.lowerSwitch(id)
	case ast.StmtReturn, ast.StmtThrow:
		l.place(id)
		l.edge(l.cur, l.g.Exit, EdgeReturn)
		l.detach()
	case ast.StmtBreak:
		l.place(id)
		if t, ok := l.innermost(false); ok {
			l.edge(l.cur, t.brk, EdgeUnconditional)
		}
		l.detach()
	case ast.StmtContinue:
		l.place(id)
		if t, ok := l.innermost(true); ok {
			l.edge(l.cur, t.cont, t.contKind)
		}
		l.detach()
	case ast.StmtCase:
		// a label outside a switch body; lower its statements in place
		l.place(id)
		cd, _ := l.b.Stmts.Case(id)
		for _, child := range cd.Body {
			l.stmt(child)
		}
	default:
		l.place(id)
	}
}

// innermost returns the nearest target; loops only when wantLoop is set.
func (l *lowerer) innermost(wantLoop bool) (target, bool) {
	for i := len(l.targets) - 1; i >= 0; i-- {
		t := l.targets[i]
		if wantLoop && t.cont == NoBlockID {
			continue
		}
		return t, true
	}
	return target{}, false
}

func (l *lowerer) push(t target) { l.targets = append(l.targets, t) }
func (l *lowerer) pop()          { l.targets = l.targets[:len(l.targets)-1] }

func (l *lowerer) lowerIf(id ast.StmtID) {
	data, _ := l.b.Stmts.If(id)
	head := l.cur

	then := l.newBlock()
	l.edge(head, then, EdgeTrue)
	l.cur = then
	l.stmt(data.Then)
	thenEnd := l.cur

	elseEnd := head
	if data.Else.IsValid() {
		els := l.newBlock()
		l.edge(head, els, EdgeFalse)
		l.cur = els
		l.stmt(data.Else)
		elseEnd = l.cur
	}

	after := l.newBlock()
	l.edge(thenEnd, after, EdgeUnconditional)
	if elseEnd == head {
		l.edge(head, after, EdgeFalse)
	} else {
		l.edge(elseEnd, after, EdgeUnconditional)
	}
	l.cur = after
}

func (l *lowerer) lowerWhile(id ast.StmtID) {
	data, _ := l.b.Stmts.While(id)
	header := l.newBlock()
	body := l.newBlock()
	after := l.newBlock()
	l.edge(l.cur, header, EdgeUnconditional)
	l.edge(header, body, EdgeTrue)
	l.edge(header, after, EdgeFalse)

	l.push(target{brk: after, cont: header, contKind: EdgeLoopBack})
	l.cur = body
	l.stmt(data.Body)
	l.edge(l.cur, header, EdgeLoopBack)
	l.pop()
	l.cur = after
}

func (l *lowerer) lowerDoWhile(id ast.StmtID) {
	data, _ := l.b.Stmts.While(id)
	body := l.newBlock()
	cond := l.newBlock()
	after := l.newBlock()
	l.edge(l.cur, body, EdgeUnconditional)

	l.push(target{brk: after, cont: cond, contKind: EdgeUnconditional})
	l.cur = body
	l.stmt(data.Body)
	l.edge(l.cur, cond, EdgeUnconditional)
	l.pop()

	l.edge(cond, body, EdgeLoopBack)
	l.edge(cond, after, EdgeFalse)
	l.cur = after
}

func (l *lowerer) lowerFor(id ast.StmtID) {
	data, _ := l.b.Stmts.For(id)
	if data.Init.IsValid() {
		l.stmt(data.Init)
	}
	header := l.newBlock()
	body := l.newBlock()
	latch := l.newBlock()
	after := l.newBlock()
	l.edge(l.cur, header, EdgeUnconditional)
	if data.Cond.IsValid() {
		l.edge(header, body, EdgeTrue)
		l.edge(header, after, EdgeFalse)
	} else {
		// for (;;) leaves only through break, return or throw
		l.edge(header, body, EdgeUnconditional)
	}

	l.push(target{brk: after, cont: latch, contKind: EdgeUnconditional})
	l.cur = body
	l.stmt(data.Body)
	l.edge(l.cur, latch, EdgeUnconditional)
	l.pop()

	l.edge(latch, header, EdgeLoopBack)
	l.cur = after
}

func (l *lowerer) lowerRangeFor(id ast.StmtID) {
	data, _ := l.b.Stmts.RangeFor(id)
	header := l.newBlock()
	body := l.newBlock()
	after := l.newBlock()
	l.edge(l.cur, header, EdgeUnconditional)
	l.edge(header, body, EdgeTrue)
	l.edge(header, after, EdgeFalse)

	l.push(target{brk: after, cont: header, contKind: EdgeLoopBack})
	l.cur = body
	l.stmt(data.Body)
	l.edge(l.cur, header, EdgeLoopBack)
	l.pop()
	l.cur = after
}

// lowerSwitch dispatches from the switch block to every case label. Case
// bodies fall through to the next label; statements before the first label
// are unreachable.
func (l *lowerer) lowerSwitch(id ast.StmtID) {
	data, _ := l.b.Stmts.Switch(id)
	head := l.cur
	after := l.newBlock()
	l.push(target{brk: after, cont: NoBlockID})
	defer l.pop()

	var items []ast.StmtID
	if blk, ok := l.b.Stmts.Block(data.Body); ok {
		l.g.stmtBlock[data.Body] = head
		l.g.Blocks[head].Stmts = append(l.g.Blocks[head].Stmts, data.Body)
		items = blk.Stmts
	} else if data.Body.IsValid() {
		items = []ast.StmtID{data.Body}
	}

	hasDefault := false
	l.detach()
	for _, item := range items {
		s := l.b.Stmts.Get(item)
		if s == nil || s.Kind != ast.StmtCase {
			l.stmt(item)
			continue
		}
		cd, _ := l.b.Stmts.Case(item)
		if !cd.Value.IsValid() {
			hasDefault = true
		}
		label := l.newBlock()
		l.edge(head, label, EdgeUnconditional)
		l.edge(l.cur, label, EdgeFallthrough)
		l.cur = label
		l.place(item)
		for _, child := range cd.Body {
			l.stmt(child)
		}
	}
	l.edge(l.cur, after, EdgeUnconditional)
	if !hasDefault {
		l.edge(head, after, EdgeFalse)
	}
	l.cur = after
}
