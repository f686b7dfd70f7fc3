package symbols

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFile               // translation unit
	ScopeClass              // class or struct body
	ScopeFunction           // parameters of a function
	ScopeBlock              // compound statement or loop/if header
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// ScopeOwner references the syntax node that opened the scope.
type ScopeOwner struct {
	File ast.FileID
	Decl ast.DeclID
	Stmt ast.StmtID
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     ScopeOwner
	Span      source.Span
	NameIndex map[source.StringID][]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
	// Class is the class symbol of a ScopeClass.
	Class SymbolID
}
