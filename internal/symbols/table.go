package symbols

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scopes and symbols of one translation unit together
// with the per-expression resolution maps.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner

	fileRoot   map[source.FileID]ScopeID
	exprSymbol map[ast.ExprID]SymbolID
	exprScope  map[ast.ExprID]ScopeID
	declSymbol map[ast.DeclID]SymbolID
	classScope map[source.StringID]ScopeID
	classBases map[ScopeID][]source.StringID
}

// NewTable builds a fresh table with optional capacity hints and allocates
// the Unknown sentinel. If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:     NewScopes(scopeCap),
		Symbols:    NewSymbols(symCap),
		Strings:    strings,
		fileRoot:   make(map[source.FileID]ScopeID),
		exprSymbol: make(map[ast.ExprID]SymbolID),
		exprScope:  make(map[ast.ExprID]ScopeID),
		declSymbol: make(map[ast.DeclID]SymbolID),
		classScope: make(map[source.StringID]ScopeID),
		classBases: make(map[ScopeID][]source.StringID),
	}
	if id := t.Symbols.New(&Symbol{Kind: SymbolUnknown, Qualified: "<unknown>"}); id != UnknownSymbol {
		panic("symbols: Unknown sentinel not allocated first")
	}
	return t
}

// FileRoot returns (and creates if needed) a file-level scope for the given file.
func (t *Table) FileRoot(file source.FileID, span source.Span) ScopeID {
	if scope, ok := t.fileRoot[file]; ok {
		return scope
	}
	scope := t.Scopes.New(ScopeFile, NoScopeID, ScopeOwner{}, span)
	t.fileRoot[file] = scope
	return scope
}

// Symbol returns the symbol for id; nil for NoSymbolID.
func (t *Table) Symbol(id SymbolID) *Symbol { return t.Symbols.Get(id) }

// SymbolOf returns the symbol an identifier or member expression resolved
// to: UnknownSymbol when resolution failed, NoSymbolID for other nodes.
func (t *Table) SymbolOf(expr ast.ExprID) SymbolID { return t.exprSymbol[expr] }

// ScopeOf returns the scope active at an identifier or member expression.
func (t *Table) ScopeOf(expr ast.ExprID) ScopeID { return t.exprScope[expr] }

// DeclSymbol returns the symbol introduced by a declaration.
func (t *Table) DeclSymbol(decl ast.DeclID) SymbolID { return t.declSymbol[decl] }

// ClassScope returns the scope of the class with the given name, if the
// class is defined in this file.
func (t *Table) ClassScope(name source.StringID) (ScopeID, bool) {
	id, ok := t.classScope[name]
	return id, ok
}

// LookupFrom resolves name as an unqualified lookup starting at scope.
func (t *Table) LookupFrom(scope ScopeID, name source.StringID) (SymbolID, ScopeID) {
	for s := scope; s.IsValid(); {
		sc := t.Scopes.Get(s)
		if sc == nil {
			break
		}
		if ids := sc.NameIndex[name]; len(ids) > 0 {
			return ids[len(ids)-1], s
		}
		if sc.Kind == ScopeClass {
			if id, found := t.lookupBases(s, name, 0); id.IsValid() {
				return id, found
			}
		}
		s = sc.Parent
	}
	return NoSymbolID, NoScopeID
}

// LookupMember resolves name inside a class scope and its in-file bases.
func (t *Table) LookupMember(class ScopeID, name source.StringID) SymbolID {
	sc := t.Scopes.Get(class)
	if sc == nil || sc.Kind != ScopeClass {
		return NoSymbolID
	}
	if ids := sc.NameIndex[name]; len(ids) > 0 {
		return ids[len(ids)-1]
	}
	id, _ := t.lookupBases(class, name, 0)
	return id
}

const maxBaseDepth = 16

func (t *Table) lookupBases(class ScopeID, name source.StringID, depth int) (SymbolID, ScopeID) {
	if depth > maxBaseDepth {
		return NoSymbolID, NoScopeID
	}
	for _, base := range t.classBases[class] {
		bs, ok := t.classScope[base]
		if !ok {
			continue
		}
		if ids := t.Scopes.Get(bs).NameIndex[name]; len(ids) > 0 {
			return ids[len(ids)-1], bs
		}
		if id, found := t.lookupBases(bs, name, depth+1); id.IsValid() {
			return id, found
		}
	}
	return NoSymbolID, NoScopeID
}

// HasUnknownBase reports whether a class derives from a type not defined
// in the file, so unresolved names inside it may be inherited members.
func (t *Table) HasUnknownBase(class ScopeID) bool {
	for _, base := range t.classBases[class] {
		bs, ok := t.classScope[base]
		if !ok || t.HasUnknownBase(bs) {
			return true
		}
	}
	return false
}

// EnclosingClass returns the nearest class scope containing scope.
func (t *Table) EnclosingClass(scope ScopeID) ScopeID {
	for s := scope; s.IsValid(); {
		sc := t.Scopes.Get(s)
		if sc == nil {
			break
		}
		if sc.Kind == ScopeClass {
			return s
		}
		s = sc.Parent
	}
	return NoScopeID
}

// qualifiedName builds "Outer::name" for a symbol declared in scope.
func (t *Table) qualifiedName(scope ScopeID, name source.StringID) string {
	parts := []string{t.Strings.MustLookup(name)}
	for s := scope; s.IsValid(); {
		sc := t.Scopes.Get(s)
		if sc.Kind == ScopeClass {
			if cls := t.Symbols.Get(sc.Class); cls != nil {
				parts = append(parts, t.Strings.MustLookup(cls.Name))
			}
		}
		s = sc.Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}
