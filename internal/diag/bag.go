package diag

import (
	"cmp"
	"slices"

	"idiomlint/internal/source"
)

// Bag is a bounded, single-goroutine diagnostic list.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max diagnostics; max <= 0 means no limit.
func NewBag(max int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(capHint(max), 64)),
		max:   max,
	}
}

func capHint(n int) int {
	if n <= 0 {
		return 0
	}
	return n
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	return HasAtOrAbove(b.items, SevError)
}

// HasWarnings возвращает true, если есть хотя бы одна диагностика с Severity >= Warning
func (b *Bag) HasWarnings() bool {
	return HasAtOrAbove(b.items, SevWarning)
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge объединяет диагностики из другого Bag, расширяя лимит при необходимости.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if b.max > 0 && len(b.items)+len(other.items) > b.max {
		b.max = len(b.items) + len(other.items)
	}
	b.items = append(b.items, other.items...)
}

// Sort orders the bag with Compare; fs may be nil, in which case files are
// ordered by id.
func (b *Bag) Sort(fs *source.FileSet) {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return Compare(&x, &y, fs)
	})
}

// Dedup drops diagnostics repeating code, primary span and message,
// keeping the first occurrence.
func (b *Bag) Dedup() {
	b.items = dedup(b.items)
}

func dedup(items []Diagnostic) []Diagnostic {
	seen := make(map[dedupKey]struct{}, len(items))
	out := items[:0]
	for i := range items {
		k := keyOf(&items[i])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, items[i])
	}
	return out
}

// Compare is the total report order: file path, start offset, rule id, end
// offset, severity (desc), message, note count.
func Compare(a, b *Diagnostic, fs *source.FileSet) int {
	if a.Primary.File != b.Primary.File {
		if fs != nil {
			if c := cmp.Compare(fs.Path(a.Primary.File), fs.Path(b.Primary.File)); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(a.Primary.File, b.Primary.File); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Primary.Start, b.Primary.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Code.ID(), b.Code.ID()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Primary.End, b.Primary.End); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Message, b.Message); c != 0 {
		return c
	}
	return cmp.Compare(len(a.Notes), len(b.Notes))
}

// HasAtOrAbove reports whether any diagnostic reaches threshold.
func HasAtOrAbove(items []Diagnostic, threshold Severity) bool {
	for i := range items {
		if items[i].Severity >= threshold {
			return true
		}
	}
	return false
}
