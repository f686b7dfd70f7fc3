package fix

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

var (
	// ErrEditOutOfRange marks an edit whose span leaves its file.
	ErrEditOutOfRange = errors.New("edit outside file")
	// ErrEditConflict marks two edits of one suggestion touching the same text.
	ErrEditConflict = errors.New("conflicting edits")
)

// sortedEdits returns the edits ordered by start, wider edits first.
func sortedEdits(edits []diag.FixEdit) []diag.FixEdit {
	out := slices.Clone(edits)
	slices.SortStableFunc(out, func(a, b diag.FixEdit) int {
		if c := cmp.Compare(a.Span.File, b.Span.File); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Span.Start, b.Span.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.Span.End, a.Span.End)
	})
	return out
}

// Check validates that every edit of f stays inside its file and that no
// two edits overlap.
func Check(fs *source.FileSet, f diag.Fix) error {
	edits := sortedEdits(f.Edits)
	for i, e := range edits {
		file := fs.Get(e.Span.File)
		if file == nil || !file.InBounds(e.Span) {
			return fmt.Errorf("%s: %w", f.Title, ErrEditOutOfRange)
		}
		if i > 0 && edits[i-1].Span.File == e.Span.File && spansConflict(edits[i-1], e) {
			return fmt.Errorf("%s: %w", f.Title, ErrEditConflict)
		}
	}
	return nil
}

func spansConflict(a, b diag.FixEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}
