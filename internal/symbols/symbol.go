package symbols

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolUnknown SymbolKind = iota
	SymbolVariable
	SymbolParameter
	SymbolField
	SymbolFunction
	SymbolMethod
	SymbolType
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolField:
		return "field"
	case SymbolFunction:
		return "function"
	case SymbolMethod:
		return "method"
	case SymbolType:
		return "type"
	default:
		return "unknown"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	// SymbolFlagConst marks storage whose declared type is const.
	SymbolFlagConst SymbolFlags = 1 << iota
	// SymbolFlagMutable marks fields declared with the mutable keyword.
	SymbolFlagMutable
	SymbolFlagStatic
	SymbolFlagMaybeUnused
	// SymbolFlagLocal marks variables declared inside a function body.
	SymbolFlagLocal
	// SymbolFlagLoopVar marks variables declared by a for or range-for header.
	SymbolFlagLoopVar
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&SymbolFlagConst != 0 {
		labels = append(labels, "const")
	}
	if f&SymbolFlagMutable != 0 {
		labels = append(labels, "mutable")
	}
	if f&SymbolFlagStatic != 0 {
		labels = append(labels, "static")
	}
	if f&SymbolFlagMaybeUnused != 0 {
		labels = append(labels, "maybe_unused")
	}
	if f&SymbolFlagLocal != 0 {
		labels = append(labels, "local")
	}
	if f&SymbolFlagLoopVar != 0 {
		labels = append(labels, "loop")
	}
	return labels
}

// Site is one place a symbol is read, written or escapes.
type Site struct {
	Span source.Span
	// Expr is the identifier or member expression; member initializers
	// have none.
	Expr ast.ExprID
	Stmt ast.StmtID
	Func ast.DeclID
	// ViaThis marks member accesses on the current object, written either
	// implicitly or through this.
	ViaThis bool
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name      source.StringID
	Qualified string
	Kind      SymbolKind
	Scope     ScopeID
	Span      source.Span
	Flags     SymbolFlags
	// Decls lists every declaration: one for variables, the whole overload
	// set (including out-of-line definitions) for functions.
	Decls []ast.DeclID
	Type  ast.TypeID
	// Class is the owning class of fields and methods.
	Class SymbolID

	Reads   []Site
	Writes  []Site
	Escapes []Site
}

// Decl returns the first declaration.
func (s *Symbol) Decl() ast.DeclID {
	if len(s.Decls) == 0 {
		return ast.NoDeclID
	}
	return s.Decls[0]
}

func (s *Symbol) Has(flag SymbolFlags) bool { return s.Flags&flag != 0 }

// IsValue reports whether the symbol names storage (variable, parameter, field).
func (s *Symbol) IsValue() bool {
	return s.Kind == SymbolVariable || s.Kind == SymbolParameter || s.Kind == SymbolField
}
