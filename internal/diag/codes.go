package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Фронтенд
	FrontInfo  Code = 1000
	ParseError Code = 1001

	// Структурные правила (только форма дерева)
	StructInfo                  Code = 2000
	PreferPreIncrement          Code = 2001
	RedundantLoopCondition      Code = 2002
	PreferForLoop               Code = 2003
	MagicNumber                 Code = 2004
	PreferSubscript             Code = 2005
	PreferArrow                 Code = 2006
	BooleanReturnIfElse         Code = 2007
	RedundantElse               Code = 2008
	HoistLoopInvariantCondition Code = 2009
	DuplicateBranchCode         Code = 2010
	UnusedVariable              Code = 2011
	BoolLiteralComparison       Code = 2012

	// CFG / dataflow
	FlowInfo        Code = 3000
	UnreachableCode Code = 3001
	PreferUnsigned  Code = 3002

	// Классы и итераторы
	ClassInfo               Code = 4000
	PreferMemberInitList    Code = 4001
	RedundantThis           Code = 4002
	MissingConst            Code = 4003
	InequalityNotDelegating Code = 4004
	PreferDefaulted         Code = 4005
	ExplicitOperatorCall    Code = 4006
	IteratorAliasUnused     Code = 4007
	ArrowNotDelegating      Code = 4008

	// Внутренние сбои анализатора
	InternalInfo       Code = 9000
	CheckInternalError Code = 9001
)

var (
	codeName = map[Code]string{
		UnknownCode:                 "Unknown",
		ParseError:                  "ParseError",
		PreferPreIncrement:          "PreferPreIncrement",
		RedundantLoopCondition:      "RedundantLoopCondition",
		PreferForLoop:               "PreferForLoop",
		MagicNumber:                 "MagicNumber",
		PreferSubscript:             "PreferSubscript",
		PreferArrow:                 "PreferArrow",
		BooleanReturnIfElse:         "BooleanReturnIfElse",
		RedundantElse:               "RedundantElse",
		HoistLoopInvariantCondition: "HoistLoopInvariantCondition",
		DuplicateBranchCode:         "DuplicateBranchCode",
		UnusedVariable:              "UnusedVariable",
		BoolLiteralComparison:       "BoolLiteralComparison",
		UnreachableCode:             "UnreachableCode",
		PreferUnsigned:              "PreferUnsigned",
		PreferMemberInitList:        "PreferMemberInitList",
		RedundantThis:               "RedundantThis",
		MissingConst:                "MissingConst",
		InequalityNotDelegating:     "InequalityNotDelegating",
		PreferDefaulted:             "PreferDefaulted",
		ExplicitOperatorCall:        "ExplicitOperatorCall",
		IteratorAliasUnused:         "IteratorAliasUnused",
		ArrowNotDelegating:          "ArrowNotDelegating",
		CheckInternalError:          "CheckInternalError",
	}

	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown diagnostic",
		ParseError:                  "front end could not produce a syntax tree",
		PreferPreIncrement:          "prefer prefix increment when the value is discarded",
		RedundantLoopCondition:      "conditional redundant with the loop condition",
		PreferForLoop:               "while loop whose control variable is local to it",
		MagicNumber:                 "literal not bound to a named constant",
		PreferSubscript:             "array indexing through pointer arithmetic",
		PreferArrow:                 "explicit dereference before member access",
		BooleanReturnIfElse:         "if/else returning boolean literals",
		RedundantElse:               "else after a branch that always exits",
		HoistLoopInvariantCondition: "loop-invariant condition inside loop body",
		DuplicateBranchCode:         "duplicate code across branches",
		UnusedVariable:              "local variable is never read",
		BoolLiteralComparison:       "comparison against a boolean literal",
		UnreachableCode:             "statement can never execute",
		PreferUnsigned:              "signed variable with non-negative domain",
		PreferMemberInitList:        "field assigned in constructor body",
		RedundantThis:               "unnecessary explicit this",
		MissingConst:                "member function can be const",
		InequalityNotDelegating:     "operator!= does not delegate to operator==",
		PreferDefaulted:             "special member with default-equivalent body",
		ExplicitOperatorCall:        "operator function called by name",
		IteratorAliasUnused:         "iterator signature spells an aliased type",
		ArrowNotDelegating:          "operator-> does not delegate to operator*",
		CheckInternalError:          "check failed internally",
	}
)

// ID returns the stable identifier, e.g. STR2001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("FE%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("FLW%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CLS%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("INT%04d", ic)
	}
	return "E0000"
}

// Name returns the readable rule name, e.g. PreferPreIncrement.
func (c Code) Name() string {
	if n, ok := codeName[c]; ok {
		return n
	}
	return codeName[UnknownCode]
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// IsRule reports whether the code belongs to a rule check rather than to the
// front end or to the analyzer itself.
func (c Code) IsRule() bool {
	return c >= 2000 && c < 5000 && c%1000 != 0
}

// LookupCode resolves either form of identifier (STR2001 or
// PreferPreIncrement), case-insensitively.
func LookupCode(s string) (Code, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownCode, false
	}
	for c, name := range codeName {
		if c == UnknownCode {
			continue
		}
		if strings.EqualFold(name, s) || strings.EqualFold(c.ID(), s) {
			return c, true
		}
	}
	return UnknownCode, false
}
