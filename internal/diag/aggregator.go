package diag

import (
	"slices"
	"sync"

	"idiomlint/internal/source"
)

// Aggregator collects diagnostics from concurrent producers. Inserts are
// serialized by a mutex; Finish performs the single sort and dedup.
type Aggregator struct {
	mu       sync.Mutex
	items    []Diagnostic
	parse    int
	internal int
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add inserts one diagnostic. Safe for concurrent use.
func (a *Aggregator) Add(d Diagnostic) {
	a.mu.Lock()
	a.items = append(a.items, d)
	a.count(&d)
	a.mu.Unlock()
}

// AddAll inserts a batch under one lock.
func (a *Aggregator) AddAll(ds []Diagnostic) {
	if len(ds) == 0 {
		return
	}
	a.mu.Lock()
	a.items = append(a.items, ds...)
	for i := range ds {
		a.count(&ds[i])
	}
	a.mu.Unlock()
}

func (a *Aggregator) count(d *Diagnostic) {
	switch d.Code {
	case ParseError:
		a.parse++
	case CheckInternalError:
		a.internal++
	}
}

// Report implements Reporter.
func (a *Aggregator) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	a.Add(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes, Fixes: fixes})
}

// Len returns the number of collected (not yet deduplicated) diagnostics.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Failures returns the number of parse errors and check internal errors seen.
func (a *Aggregator) Failures() (parse, internal int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.parse, a.internal
}

// Finish returns the deduplicated diagnostics in report order. The result is
// a fresh slice; the aggregator keeps its own copy.
func (a *Aggregator) Finish(fs *source.FileSet) []Diagnostic {
	a.mu.Lock()
	out := slices.Clone(a.items)
	a.mu.Unlock()

	slices.SortStableFunc(out, func(x, y Diagnostic) int {
		return Compare(&x, &y, fs)
	})
	return dedup(out)
}
