// Package diag defines the diagnostic model shared by the front-end decoder,
// the rule checks and the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning, Error. Severities decode from text so config
//     files are validated while loading.
//   - Code – numeric identifier. Code.ID() is the stable id (STR2001),
//     Code.Name() the rule name (PreferPreIncrement). Both are accepted
//     wherever a rule is named.
//   - Primary span and optional Notes pointing at related code, e.g. both
//     copies of a duplicated statement.
//   - Fixes – advisory suggestions. Nothing applies them.
//   - Origin – for CheckInternalError, the rule that failed.
//
// # Emitting
//
// Checks report through a Reporter, usually via ReportWarning/ReportInfo and
// the ReportBuilder chain (WithNote, WithFixSuggestion, Emit).
//
// # Collecting
//
// Bag is the per-goroutine list; a check's pass fills one through
// DedupReporter and BagReporter. Aggregator is the one structure shared by
// workers: inserts are mutex-serialized and Finish sorts once by file path,
// start offset, rule id and dedups, so identical input always produces the
// identical sequence.
package diag
