package symbols

// ScopeID identifies a scope in the resolver arena.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// SymbolID identifies a symbol inside the resolver arena.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
	// UnknownSymbol is the sentinel every unresolvable name maps to. It is
	// allocated first in every table.
	UnknownSymbol SymbolID = 1
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// IsUnknown reports whether id is the Unknown sentinel.
func (id SymbolID) IsUnknown() bool { return id == UnknownSymbol }

// Known reports whether id names a real resolved symbol.
func (id SymbolID) Known() bool { return id.IsValid() && !id.IsUnknown() }
