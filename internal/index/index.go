// Package index is the Semantic Index of one translation unit: resolved
// symbols with their access sites and the control-flow graph of every
// function body. It is built once and only queried afterwards; queries are
// safe for concurrent use.
package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"idiomlint/internal/ast"
	"idiomlint/internal/cfg"
	"idiomlint/internal/symbols"
)

type Index struct {
	Tree    *ast.Builder
	File    ast.FileID
	Symbols *symbols.Table
	Scope   symbols.ScopeID

	funcs  []ast.DeclID
	graphs map[ast.DeclID]*cfg.Graph

	mu      sync.Mutex
	written map[ast.StmtID]*roaring.Bitmap
	escaped map[ast.StmtID]*roaring.Bitmap
}

// Build resolves file and lowers every function body in it. The tree must
// be finished.
func Build(tree *ast.Builder, file ast.FileID) *Index {
	res := symbols.ResolveFile(tree, file, symbols.ResolveOptions{})
	ix := &Index{
		Tree:    tree,
		File:    file,
		Symbols: res.Table,
		Scope:   res.FileScope,
		graphs:  make(map[ast.DeclID]*cfg.Graph),
		written: make(map[ast.StmtID]*roaring.Bitmap),
		escaped: make(map[ast.StmtID]*roaring.Bitmap),
	}
	if f := tree.Files.Get(file); f != nil {
		ix.collectFuncs(f.Decls)
	}
	for _, fn := range ix.funcs {
		if g := cfg.Build(tree, fn); g != nil {
			ix.graphs[fn] = g
		}
	}
	return ix
}

func (ix *Index) collectFuncs(decls []ast.DeclID) {
	for _, id := range decls {
		d := ix.Tree.Decls.Get(id)
		if d == nil {
			continue
		}
		switch d.Kind {
		case ast.DeclFunction:
			ix.funcs = append(ix.funcs, id)
		case ast.DeclClass:
			cd, _ := ix.Tree.Decls.Class(id)
			ix.collectFuncs(cd.Members)
		}
	}
}

// Functions lists every function declaration in source order, members
// included.
func (ix *Index) Functions() []ast.DeclID { return ix.funcs }

// SymbolOf returns the symbol an identifier or member expression names.
// Parentheses are looked through.
func (ix *Index) SymbolOf(expr ast.ExprID) symbols.SymbolID {
	return ix.Symbols.SymbolOf(ix.Tree.Exprs.StripParens(expr))
}

func (ix *Index) Symbol(id symbols.SymbolID) *symbols.Symbol { return ix.Symbols.Symbol(id) }

// DeclSymbol returns the symbol introduced by decl.
func (ix *Index) DeclSymbol(decl ast.DeclID) symbols.SymbolID { return ix.Symbols.DeclSymbol(decl) }

// CFG returns the graph of fn, nil when fn has no body.
func (ix *Index) CFG(fn ast.DeclID) *cfg.Graph { return ix.graphs[fn] }

// BlockOf returns the function and block in which stmt starts.
func (ix *Index) BlockOf(stmt ast.StmtID) (ast.DeclID, cfg.BlockID, bool) {
	fn := ix.Tree.EnclosingFunc(ast.StmtRef(stmt))
	g := ix.graphs[fn]
	if g == nil {
		return ast.NoDeclID, cfg.NoBlockID, false
	}
	block, ok := g.BlockOf(stmt)
	return fn, block, ok
}

// Unreachable reports whether stmt starts in a block unreachable from the
// entry of its function.
func (ix *Index) Unreachable(stmt ast.StmtID) bool {
	g := ix.graphs[ix.Tree.EnclosingFunc(ast.StmtRef(stmt))]
	return g != nil && g.Unreachable(stmt)
}

// WrittenIn returns the symbols with a write site inside the stmt subtree.
// The bitmap is shared and must not be modified.
func (ix *Index) WrittenIn(stmt ast.StmtID) *roaring.Bitmap {
	return ix.sitesIn(stmt, ix.written, func(s *symbols.Symbol) []symbols.Site { return s.Writes })
}

// EscapedIn returns the symbols that escape inside the stmt subtree.
func (ix *Index) EscapedIn(stmt ast.StmtID) *roaring.Bitmap {
	return ix.sitesIn(stmt, ix.escaped, func(s *symbols.Symbol) []symbols.Site { return s.Escapes })
}

// ModifiedIn is WrittenIn ∪ EscapedIn; the result is a fresh bitmap.
func (ix *Index) ModifiedIn(stmt ast.StmtID) *roaring.Bitmap {
	return roaring.Or(ix.WrittenIn(stmt), ix.EscapedIn(stmt))
}

func (ix *Index) sitesIn(stmt ast.StmtID, cache map[ast.StmtID]*roaring.Bitmap, sites func(*symbols.Symbol) []symbols.Site) *roaring.Bitmap {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if bm, ok := cache[stmt]; ok {
		return bm
	}
	bm := roaring.New()
	root := ast.StmtRef(stmt)
	ix.Symbols.Symbols.Each(func(id symbols.SymbolID, sym *symbols.Symbol) {
		for _, site := range sites(sym) {
			if ix.siteWithin(root, site) {
				bm.Add(uint32(id))
				return
			}
		}
	})
	cache[stmt] = bm
	return bm
}

func (ix *Index) siteWithin(root ast.NodeRef, site symbols.Site) bool {
	switch {
	case site.Expr.IsValid():
		return ix.Tree.IsAncestor(root, ast.ExprRef(site.Expr))
	case site.Stmt.IsValid():
		return ix.Tree.IsAncestor(root, ast.StmtRef(site.Stmt))
	}
	return false
}

// DeclaredWithin reports whether sym has a declaration inside the subtree
// rooted at ref.
func (ix *Index) DeclaredWithin(sym symbols.SymbolID, ref ast.NodeRef) bool {
	s := ix.Symbols.Symbol(sym)
	if s == nil {
		return false
	}
	for _, d := range s.Decls {
		if ix.Tree.IsAncestor(ref, ast.DeclRef(d)) {
			return true
		}
	}
	return false
}

// HasUnknownIn reports whether any name inside the subtree rooted at ref
// failed to resolve.
func (ix *Index) HasUnknownIn(ref ast.NodeRef) bool {
	found := false
	ix.Tree.Inspect(ref, func(r ast.NodeRef) bool {
		if found {
			return false
		}
		if r.Kind == ast.NodeExpr && ix.Symbols.SymbolOf(r.Expr()).IsUnknown() {
			found = true
			return false
		}
		return true
	})
	return found
}

// SymbolsIn returns the distinct known symbols named inside the subtree
// rooted at ref, in order of first use.
func (ix *Index) SymbolsIn(ref ast.NodeRef) []symbols.SymbolID {
	seen := roaring.New()
	var out []symbols.SymbolID
	ix.Tree.InspectExprs(ref, func(e ast.ExprID) {
		id := ix.Symbols.SymbolOf(e)
		if !id.Known() || seen.Contains(uint32(id)) {
			return
		}
		seen.Add(uint32(id))
		out = append(out, id)
	})
	return out
}

// NameResolvesTo reports whether the bare name would resolve to sym from
// the scope active at expr.
func (ix *Index) NameResolvesTo(expr ast.ExprID, sym symbols.SymbolID) bool {
	s := ix.Symbols.Symbol(sym)
	scope := ix.Symbols.ScopeOf(expr)
	if s == nil || !scope.IsValid() {
		return false
	}
	got, _ := ix.Symbols.LookupFrom(scope, s.Name)
	return got == sym
}
