package fix

import (
	"errors"
	"testing"

	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

func TestReplaceSpanPreview(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("a.cpp", []byte("for (;; i++) {}"))
	inc := source.Span{File: file, Start: 8, End: 11}

	f := ReplaceSpan("use prefix increment", inc, "++i")
	if f.Kind != diag.FixKindQuickFix || f.Applicability != diag.FixApplicabilityAlwaysSafe {
		t.Fatalf("unexpected metadata: %+v", f)
	}
	if got := Preview(fs, inc, f); got != "++i" {
		t.Fatalf("preview = %q", got)
	}
	whole := source.Span{File: file, Start: 0, End: 15}
	if got := Preview(fs, whole, f); got != "for (;; ++i) {}" {
		t.Fatalf("preview = %q", got)
	}
	if err := Check(fs, f); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestInsertCollapsesSpan(t *testing.T) {
	at := source.Span{Start: 3, End: 9}
	f := InsertText("insert", at, "x")
	if e := f.Edits[0]; e.Span.Start != 3 || e.Span.End != 3 {
		t.Fatalf("insert span %v", e.Span)
	}
}

func TestWrapWithPreview(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("a.cpp", []byte("return a == b;"))
	cond := source.Span{File: file, Start: 7, End: 13}

	f := WrapWith("negate", cond, "!(", ")")
	if f.Kind != diag.FixKindRefactor {
		t.Fatalf("kind = %v", f.Kind)
	}
	line := source.Span{File: file, Start: 0, End: 14}
	if got := Preview(fs, line, f); got != "return !(a == b);" {
		t.Fatalf("preview = %q", got)
	}
}

func TestOptions(t *testing.T) {
	f := DeleteSpan("drop", source.Span{}, ManualReview(), WithKind(diag.FixKindRewrite))
	if f.Applicability != diag.FixApplicabilityManualReview || f.Kind != diag.FixKindRewrite {
		t.Fatalf("options not applied: %+v", f)
	}
	r := Rewrite("hoist the condition out of the loop")
	if len(r.Edits) != 0 || r.Applicability != diag.FixApplicabilityManualReview {
		t.Fatalf("rewrite: %+v", r)
	}
}

func TestCheckRejectsBadEdits(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("a.cpp", []byte("int x;"))

	outside := ReplaceSpan("far", source.Span{File: file, Start: 4, End: 40}, "y")
	if err := Check(fs, outside); !errors.Is(err, ErrEditOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	overlap := diag.Fix{Title: "overlap", Edits: []diag.FixEdit{
		{Span: source.Span{File: file, Start: 0, End: 3}, NewText: "long"},
		{Span: source.Span{File: file, Start: 2, End: 5}, NewText: "y"},
	}}
	if err := Check(fs, overlap); !errors.Is(err, ErrEditConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	inserts := diag.Fix{Title: "inserts", Edits: []diag.FixEdit{
		{Span: source.Span{File: file, Start: 4, End: 4}, NewText: "a"},
		{Span: source.Span{File: file, Start: 4, End: 4}, NewText: "b"},
	}}
	if err := Check(fs, inserts); err != nil {
		t.Fatalf("adjacent inserts: %v", err)
	}
}
