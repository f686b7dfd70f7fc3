package symbols

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks the structural invariants of the table: scope links are
// symmetric, every indexed name points at a symbol of that scope, the
// Unknown sentinel sits at id 1 and every resolved expression names an
// allocated symbol. All violations are joined into one error.
func (t *Table) Validate() error {
	var errs []error
	errs = append(errs, t.validateScopes()...)
	errs = append(errs, t.validateSymbols()...)
	for expr, id := range t.exprSymbol {
		if t.Symbols.Get(id) == nil {
			errs = append(errs, fmt.Errorf("expression %d resolved to invalid symbol %d", expr, id))
		}
	}
	return errors.Join(errs...)
}

func (t *Table) validateScopes() []error {
	var errs []error
	for i := 1; i < len(t.Scopes.data); i++ {
		id := ScopeID(i) //nolint:gosec // bounded by the arena length checked in New
		scope := &t.Scopes.data[i]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", id))
		}
		if scope.Parent.IsValid() {
			parent := t.Scopes.Get(scope.Parent)
			if parent == nil || scope.Parent == id {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", id, scope.Parent))
			} else if !slices.Contains(parent.Children, id) {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", id, scope.Parent))
			}
		}
		for _, child := range scope.Children {
			if c := t.Scopes.Get(child); c == nil || c.Parent != id {
				errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", id, child))
			}
		}
		indexed := 0
		for name, bucket := range scope.NameIndex {
			for _, sym := range bucket {
				indexed++
				if !slices.Contains(scope.Symbols, sym) {
					errs = append(errs, fmt.Errorf("scope %d name %d references foreign symbol %d", id, name, sym))
				}
			}
		}
		if indexed != len(scope.Symbols) {
			errs = append(errs, fmt.Errorf("scope %d indexes %d of %d symbols", id, indexed, len(scope.Symbols)))
		}
	}
	return errs
}

func (t *Table) validateSymbols() []error {
	var errs []error
	if unknown := t.Symbols.Get(UnknownSymbol); unknown == nil || unknown.Kind != SymbolUnknown || unknown.Scope.IsValid() {
		errs = append(errs, errors.New("symbol 1 is not the Unknown sentinel"))
	}
	t.Symbols.Each(func(id SymbolID, sym *Symbol) {
		scope := t.Scopes.Get(sym.Scope)
		if scope == nil {
			errs = append(errs, fmt.Errorf("symbol %d has invalid scope %d", id, sym.Scope))
			return
		}
		if !slices.Contains(scope.Symbols, id) {
			errs = append(errs, fmt.Errorf("symbol %d is missing from scope %d list", id, sym.Scope))
		}
		if sym.Kind == SymbolUnknown {
			errs = append(errs, fmt.Errorf("symbol %d has the Unknown kind", id))
		}
	})
	return errs
}
