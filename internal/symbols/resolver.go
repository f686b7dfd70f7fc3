package symbols

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// Resolver drives scope management and declaration/lookup routines.
type Resolver struct {
	table *Table
	stack []ScopeID
}

// NewResolver wires a resolver to an existing scope stack. If root is valid it
// becomes the current scope; otherwise scope-sensitive operations are no-ops.
func NewResolver(table *Table, root ScopeID) *Resolver {
	r := &Resolver{
		table: table,
		stack: make([]ScopeID, 0, 8),
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter creates a child scope, pushes it onto the stack, and returns its ID.
func (r *Resolver) Enter(kind ScopeKind, owner ScopeOwner, span source.Span) ScopeID {
	parent := r.CurrentScope()
	scope := r.table.Scopes.New(kind, parent, owner, span)
	r.stack = append(r.stack, scope)
	return scope
}

// Resume pushes an existing scope, used for out-of-line member definitions
// that reopen their class.
func (r *Resolver) Resume(scope ScopeID) {
	r.stack = append(r.stack, scope)
}

// Leave pops the current scope. A mismatch with expected is a resolver bug.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		panic("symbols: scope stack mismatch")
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Declare installs a new symbol into the current scope. A later declaration
// of the same name in the same scope rebinds it; lookups see the newest.
func (r *Resolver) Declare(name source.StringID, span source.Span, kind SymbolKind, flags SymbolFlags, decl ast.DeclID) SymbolID {
	scopeID := r.CurrentScope()
	if !scopeID.IsValid() {
		return NoSymbolID
	}
	sym := Symbol{
		Name:      name,
		Qualified: r.table.qualifiedName(scopeID, name),
		Kind:      kind,
		Scope:     scopeID,
		Span:      span,
		Flags:     flags,
	}
	if decl.IsValid() {
		sym.Decls = []ast.DeclID{decl}
	}
	if cls := r.table.EnclosingClass(scopeID); cls == scopeID {
		sym.Class = r.table.Scopes.Get(scopeID).Class
	}
	id := r.table.Symbols.New(&sym)
	scope := r.table.Scopes.Get(scopeID)
	scope.Symbols = append(scope.Symbols, id)
	scope.NameIndex[name] = append(scope.NameIndex[name], id)
	if decl.IsValid() {
		r.table.declSymbol[decl] = id
	}
	return id
}

// DeclareOverload adds decl to the function symbol named name in the
// current scope, creating the overload set on first use.
func (r *Resolver) DeclareOverload(name source.StringID, span source.Span, kind SymbolKind, flags SymbolFlags, decl ast.DeclID) SymbolID {
	if scope := r.table.Scopes.Get(r.CurrentScope()); scope != nil {
		for _, id := range scope.NameIndex[name] {
			sym := r.table.Symbols.Get(id)
			if sym.Kind == kind {
				sym.Decls = append(sym.Decls, decl)
				r.table.declSymbol[decl] = id
				return id
			}
		}
	}
	return r.Declare(name, span, kind, flags, decl)
}

// Lookup walks the scope chain searching for name. Qualified names resolve
// only through classes defined in the file.
func (r *Resolver) Lookup(name source.StringID) (SymbolID, ScopeID) {
	spelled := r.table.Strings.MustLookup(name)
	if i := lastQualifier(spelled); i >= 0 {
		owner, ok := r.table.Strings.Find(spelled[:i])
		if !ok {
			return NoSymbolID, NoScopeID
		}
		class, ok := r.table.classScope[owner]
		if !ok {
			return NoSymbolID, NoScopeID
		}
		member, ok := r.table.Strings.Find(spelled[i+2:])
		if !ok {
			return NoSymbolID, NoScopeID
		}
		return r.table.LookupMember(class, member), class
	}
	return r.table.LookupFrom(r.CurrentScope(), name)
}

func lastQualifier(s string) int {
	depth := 0
	for i := len(s) - 1; i > 0; i-- {
		switch s[i] {
		case '>':
			depth++
		case '<':
			depth--
		case ':':
			if depth == 0 && s[i-1] == ':' {
				return i - 1
			}
		}
	}
	return -1
}
