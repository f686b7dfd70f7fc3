package driver

import (
	"slices"

	"idiomlint/internal/diag"
	"idiomlint/internal/observ"
	"idiomlint/internal/source"
)

// FileResult summarizes one analysed file.
type FileResult struct {
	Path     string
	File     source.FileID
	Findings int
	Cached   bool
	// Err is the parse error of the file, or the context error when the
	// run was cancelled before its rules finished.
	Err error
}

// Result is the outcome of a run. Diagnostics are in report order.
type Result struct {
	FileSet     *source.FileSet
	Files       []FileResult
	Diagnostics []diag.Diagnostic
	// Omitted counts diagnostics dropped by MaxDiagnostics.
	Omitted int

	ParseErrors    int
	InternalErrors int
	Timing         *observ.Report

	// worst rule severity seen before truncation, -1 when none
	worst  int
	byRule map[diag.Code]int
}

func newResult(fs *source.FileSet, files []FileResult, ds []diag.Diagnostic, limit int) *Result {
	r := &Result{FileSet: fs, Files: files, worst: -1, byRule: make(map[diag.Code]int)}
	for i := range ds {
		d := &ds[i]
		if !d.Code.IsRule() {
			continue
		}
		r.byRule[d.Code]++
		r.worst = max(r.worst, int(d.Severity))
	}
	if limit > 0 && len(ds) > limit {
		r.Omitted = len(ds) - limit
		ds = ds[:limit]
	}
	r.Diagnostics = ds
	return r
}

// HasAtOrAbove reports whether any rule diagnostic reaches threshold,
// including diagnostics dropped by MaxDiagnostics. Parse and internal
// errors are reported by Failed instead.
func (r *Result) HasAtOrAbove(threshold diag.Severity) bool {
	return r != nil && r.worst >= int(threshold)
}

// Failed reports whether some file could not be analysed completely: a
// parse error or a rule that crashed.
func (r *Result) Failed() bool {
	return r != nil && (r.ParseErrors > 0 || r.InternalErrors > 0)
}

// RuleCount pairs a rule with the number of its findings.
type RuleCount struct {
	Code  diag.Code
	Count int
}

// ByRule lists rules with findings, ordered by code.
func (r *Result) ByRule() []RuleCount {
	if r == nil {
		return nil
	}
	out := make([]RuleCount, 0, len(r.byRule))
	for code, n := range r.byRule {
		out = append(out, RuleCount{Code: code, Count: n})
	}
	slices.SortFunc(out, func(a, b RuleCount) int { return int(a.Code) - int(b.Code) })
	return out
}

// CachedFiles counts files served from the cache.
func (r *Result) CachedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Cached {
			n++
		}
	}
	return n
}
