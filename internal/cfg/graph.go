// Package cfg builds per-function control-flow graphs over the syntax tree.
// Blocks hold the statements that start in them; edges are typed so checks
// can tell loop back-edges and returns apart from plain fall-through.
package cfg

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"idiomlint/internal/ast"
)

type BlockID int32

const NoBlockID BlockID = -1

type EdgeKind uint8

const (
	EdgeUnconditional EdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeLoopBack
	EdgeReturn
	EdgeFallthrough
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeUnconditional:
		return "goto"
	case EdgeTrue:
		return "true"
	case EdgeFalse:
		return "false"
	case EdgeLoopBack:
		return "loop"
	case EdgeReturn:
		return "return"
	case EdgeFallthrough:
		return "fallthrough"
	}
	return "invalid"
}

type Edge struct {
	To   BlockID
	Kind EdgeKind
}

type Block struct {
	ID BlockID
	// Stmts lists the statements that start in this block, compound
	// statements included, in source order.
	Stmts []ast.StmtID
	Succs []Edge
	Preds []BlockID
}

// Graph is the control-flow graph of one function body. Entry is always
// block 0; Exit is the synthetic block every return, throw and the fall-off
// end point to.
type Graph struct {
	Func   ast.DeclID
	Blocks []Block
	Entry  BlockID
	Exit   BlockID

	reachable *roaring.Bitmap
	stmtBlock map[ast.StmtID]BlockID
}

// Block returns the block or nil for an out of range id.
func (g *Graph) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(g.Blocks) {
		return nil
	}
	return &g.Blocks[id]
}

// BlockOf returns the block in which stmt starts.
func (g *Graph) BlockOf(stmt ast.StmtID) (BlockID, bool) {
	id, ok := g.stmtBlock[stmt]
	return id, ok
}

// Reachable reports whether id is reachable from the entry block.
func (g *Graph) Reachable(id BlockID) bool {
	if id < 0 {
		return false
	}
	return g.reachable.Contains(bit(id))
}

// Unreachable reports whether stmt starts in an unreachable block.
// Statements outside the graph are never reported.
func (g *Graph) Unreachable(stmt ast.StmtID) bool {
	id, ok := g.stmtBlock[stmt]
	return ok && !g.Reachable(id)
}

// ReachableSet returns a copy of the reachable block ids.
func (g *Graph) ReachableSet() *roaring.Bitmap { return g.reachable.Clone() }

func bit(id BlockID) uint32 {
	return uint32(id) //nolint:gosec // callers pass non-negative ids
}

// computeReachability runs a forward BFS from the entry block.
func (g *Graph) computeReachability() {
	g.reachable = roaring.New()
	if len(g.Blocks) == 0 {
		return
	}
	queue := []BlockID{g.Entry}
	g.reachable.Add(bit(g.Entry))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Blocks[id].Succs {
			if e.To < 0 || g.reachable.Contains(bit(e.To)) {
				continue
			}
			g.reachable.Add(bit(e.To))
			queue = append(queue, e.To)
		}
	}
}

// String dumps the graph, one block per line:
//
//	bb0 [3 stmts] -> bb1 (true), bb2 (false)
func (g *Graph) String() string {
	var sb strings.Builder
	for i := range g.Blocks {
		bb := &g.Blocks[i]
		fmt.Fprintf(&sb, "bb%d", bb.ID)
		switch {
		case bb.ID == g.Exit:
			sb.WriteString(" exit")
		case !g.Reachable(bb.ID):
			sb.WriteString(" unreachable")
		}
		fmt.Fprintf(&sb, " [%d stmts]", len(bb.Stmts))
		for j, e := range bb.Succs {
			if j == 0 {
				sb.WriteString(" ->")
			} else {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, " bb%d (%s)", e.To, e.Kind)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
