package diag

import (
	"idiomlint/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// FixApplicability describes how confident a suggestion is.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	default:
		return "manual-review"
	}
}

// FixKind classifies a suggestion.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRewrite
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	default:
		return "rewrite"
	}
}

type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is advisory text: nothing in the tool applies it.
type Fix struct {
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	Edits         []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
	// Origin names the rule a CheckInternalError came from.
	Origin Code
}
