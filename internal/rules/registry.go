package rules

import (
	"cmp"
	"fmt"
	"slices"

	"idiomlint/internal/diag"
)

// Registry holds checks keyed by code.
type Registry struct {
	checks []Check
	byCode map[diag.Code]Check
}

func NewRegistry() *Registry {
	return &Registry{byCode: make(map[diag.Code]Check)}
}

// Register adds a check. Registering two checks with one code is a
// programming error and panics.
func (r *Registry) Register(c Check) {
	code := c.Meta().Code
	if !code.IsRule() {
		panic(fmt.Sprintf("rules: %s is not a rule code", code.ID()))
	}
	if _, dup := r.byCode[code]; dup {
		panic(fmt.Sprintf("rules: %s registered twice", code.ID()))
	}
	r.byCode[code] = c
	r.checks = append(r.checks, c)
	slices.SortFunc(r.checks, func(a, b Check) int { return cmp.Compare(a.Meta().Code, b.Meta().Code) })
}

// RegisterBuiltin registers every check shipped with the tool.
func (r *Registry) RegisterBuiltin() {
	r.Register(preferPreIncrement{})
	r.Register(redundantLoopCondition{})
	r.Register(preferForLoop{})
	r.Register(magicNumber{})
	r.Register(preferSubscript{})
	r.Register(preferArrow{})
	r.Register(booleanReturnIfElse{})
	r.Register(redundantElse{})
	r.Register(hoistLoopInvariant{})
	r.Register(duplicateBranchCode{})
	r.Register(unusedVariable{})
	r.Register(boolLiteralComparison{})

	r.Register(unreachableCode{})
	r.Register(preferUnsigned{})

	r.Register(preferMemberInitList{})
	r.Register(redundantThis{})
	r.Register(missingConst{})
	r.Register(inequalityNotDelegating{})
	r.Register(preferDefaulted{})
	r.Register(explicitOperatorCall{})
	r.Register(iteratorAliasUnused{})
	r.Register(arrowNotDelegating{})
}

// Builtin returns a registry with every built-in check.
func Builtin() *Registry {
	r := NewRegistry()
	r.RegisterBuiltin()
	return r
}

// Checks lists the registered checks ordered by code.
func (r *Registry) Checks() []Check { return r.checks }

// Lookup finds a check by id (STR2001) or name (PreferPreIncrement),
// case-insensitively.
func (r *Registry) Lookup(name string) (Check, bool) {
	code, ok := diag.LookupCode(name)
	if !ok {
		return nil, false
	}
	c, ok := r.byCode[code]
	return c, ok
}
