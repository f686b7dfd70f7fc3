// Package fix builds the suggested rewrites attached to diagnostics. The
// suggestions are advisory: nothing in the tool applies them.
package fix

import (
	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// ManualReview marks suggestions a reader has to check before adopting,
// e.g. when behavior depends on types the checker does not see.
func ManualReview() Option {
	return WithApplicability(diag.FixApplicabilityManualReview)
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

func quick(title string, edits ...diag.FixEdit) diag.Fix {
	return diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         edits,
	}
}

// InsertText suggests inserting text at span (Span.Start == Span.End).
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	at.End = at.Start
	return applyOptions(quick(title, diag.FixEdit{Span: at, NewText: text}), opts)
}

// DeleteSpan suggests removing the text covered by span.
func DeleteSpan(title string, span source.Span, opts ...Option) diag.Fix {
	return applyOptions(quick(title, diag.FixEdit{Span: span}), opts)
}

// ReplaceSpan suggests replacing the text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText string, opts ...Option) diag.Fix {
	return applyOptions(quick(title, diag.FixEdit{Span: span, NewText: newText}), opts)
}

// WrapWith surrounds span with prefix and suffix insertions.
func WrapWith(title string, span source.Span, prefix, suffix string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindRefactor,
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		Edits: []diag.FixEdit{
			{Span: source.Span{File: span.File, Start: span.Start, End: span.Start}, NewText: prefix},
			{Span: source.Span{File: span.File, Start: span.End, End: span.End}, NewText: suffix},
		},
	}
	return applyOptions(fix, opts)
}

// Rewrite suggests a restructuring described in prose only, for changes
// that span several statements (hoisting a condition, merging branches).
func Rewrite(title string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindRewrite,
		Applicability: diag.FixApplicabilityManualReview,
	}
	return applyOptions(fix, opts)
}

// Preview renders the text of span in fs after applying the edits of f
// that fall inside it. Edits outside span or overlapping each other are
// ignored.
func Preview(fs *source.FileSet, span source.Span, f diag.Fix) string {
	text := fs.Text(span)
	if text == "" && span.Start != span.End {
		return ""
	}
	out := make([]byte, 0, len(text))
	cursor := span.Start
	for _, e := range sortedEdits(f.Edits) {
		if e.Span.File != span.File || e.Span.Start < cursor || e.Span.End > span.End {
			continue
		}
		out = append(out, text[cursor-span.Start:e.Span.Start-span.Start]...)
		out = append(out, e.NewText...)
		cursor = e.Span.End
	}
	out = append(out, text[cursor-span.Start:]...)
	return string(out)
}
