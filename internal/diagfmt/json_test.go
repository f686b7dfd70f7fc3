package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/tmp/proj/f.cpp", []byte(incrementSrc))

	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true, IncludeFixes: true}
	if err := JSON(&buf, []diag.Diagnostic{incrementDiag(id)}, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d, diagnostics = %d", out.Count, len(out.Diagnostics))
	}
	d := out.Diagnostics[0]
	if d.Severity != "warning" || d.Code != "STR2001" || d.Rule != "PreferPreIncrement" {
		t.Errorf("header fields: %+v", d)
	}
	if d.Location.File != "f.cpp" {
		t.Errorf("file = %q", d.Location.File)
	}
	if d.Location.StartByte != 19 || d.Location.EndByte != 22 {
		t.Errorf("bytes = %d..%d", d.Location.StartByte, d.Location.EndByte)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 5 || d.Location.EndCol != 8 {
		t.Errorf("position = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "result is discarded" {
		t.Errorf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.OldText != "i++" || edit.NewText != "++i" {
		t.Errorf("edit = %+v", edit)
	}
	if d.Fixes[0].Applicability != "always-safe" || d.Fixes[0].Kind != "quickfix" {
		t.Errorf("fix meta = %+v", d.Fixes[0])
	}
}

func TestJSONWithoutPositions(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte(incrementSrc))

	var buf bytes.Buffer
	if err := JSON(&buf, []diag.Diagnostic{incrementDiag(id)}, fs, JSONOpts{}); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if strings.Contains(s, "start_line") {
		t.Errorf("positions emitted without IncludePositions:\n%s", s)
	}
	if strings.Contains(s, `"notes"`) || strings.Contains(s, `"fixes"`) {
		t.Errorf("notes or fixes emitted when disabled:\n%s", s)
	}
}

func TestJSONMaxCountsOmitted(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte(incrementSrc))
	items := []diag.Diagnostic{incrementDiag(id), incrementDiag(id), incrementDiag(id)}

	out := BuildDiagnosticsOutput(items, fs, JSONOpts{Max: 2})
	if out.Count != 2 || out.Omitted != 1 {
		t.Fatalf("count = %d, omitted = %d", out.Count, out.Omitted)
	}
}

func TestJSONFixesOrderedSafestFirst(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte(incrementSrc))
	span := source.Span{File: id, Start: 19, End: 22}
	d := diag.New(diag.SevWarning, diag.PreferPreIncrement, span, "use ++i").
		WithFixSuggestion(diag.Fix{Title: "b", Applicability: diag.FixApplicabilityManualReview}).
		WithFixSuggestion(diag.Fix{Title: "a", Applicability: diag.FixApplicabilityAlwaysSafe})

	out := BuildDiagnosticsOutput([]diag.Diagnostic{d}, fs, JSONOpts{IncludeFixes: true})
	fixes := out.Diagnostics[0].Fixes
	if len(fixes) != 2 || fixes[0].Title != "a" || fixes[1].Title != "b" {
		t.Fatalf("fixes = %+v", fixes)
	}
}

func TestJSONPreviewLines(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte(incrementSrc))

	out := BuildDiagnosticsOutput([]diag.Diagnostic{incrementDiag(id)}, fs, JSONOpts{IncludeFixes: true, IncludePreviews: true})
	edit := out.Diagnostics[0].Fixes[0].Edits[0]
	if len(edit.BeforeLines) != 1 || edit.BeforeLines[0] != "    i++;" {
		t.Errorf("before = %q", edit.BeforeLines)
	}
	if len(edit.AfterLines) != 1 || edit.AfterLines[0] != "    ++i;" {
		t.Errorf("after = %q", edit.AfterLines)
	}
}

func TestJSONInternalErrorOrigin(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte(incrementSrc))
	d := diag.NewError(diag.CheckInternalError, source.Span{File: id}, "boom")
	d.Origin = diag.UnreachableCode

	out := BuildDiagnosticsOutput([]diag.Diagnostic{d}, fs, JSONOpts{})
	if got := out.Diagnostics[0]; got.Code != "INT9001" || got.Origin != "FLW3001" {
		t.Fatalf("got %+v", got)
	}
}

func TestSarifLog(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte(incrementSrc))
	magic := diag.New(diag.SevInfo, diag.MagicNumber, source.Span{File: id, Start: 0, End: 3}, "name it")

	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "idiomlint", ToolVersion: "1.0.0", InvocationArgs: []string{"check", "."}}
	if err := Sarif(&buf, []diag.Diagnostic{incrementDiag(id), magic}, fs, meta); err != nil {
		t.Fatal(err)
	}

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Invocations []struct {
				ExecutionSuccessful bool `json:"executionSuccessful"`
			} `json:"invocations"`
			Results []struct {
				RuleID              string            `json:"ruleId"`
				RuleIndex           int               `json:"ruleIndex"`
				Level               string            `json:"level"`
				PartialFingerprints map[string]string `json:"partialFingerprints"`
				Fixes               []json.RawMessage `json:"fixes"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("version %q runs %d", log.Version, len(log.Runs))
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "idiomlint" || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("driver = %+v", run.Tool.Driver)
	}
	if !run.Invocations[0].ExecutionSuccessful {
		t.Error("clean run marked unsuccessful")
	}
	res := run.Results
	if res[0].RuleID != "STR2001" || res[0].Level != "warning" || len(res[0].Fixes) != 1 {
		t.Errorf("result 0 = %+v", res[0])
	}
	if res[1].RuleID != "STR2004" || res[1].Level != "note" {
		t.Errorf("result 1 = %+v", res[1])
	}
	if run.Tool.Driver.Rules[res[1].RuleIndex].ID != "STR2004" {
		t.Error("ruleIndex does not point at its rule")
	}
	if res[0].PartialFingerprints[fingerprintKey] == "" {
		t.Error("missing fingerprint")
	}
}

func TestFingerprintIgnoresLineShift(t *testing.T) {
	a := source.NewFileSet()
	ida := a.AddVirtual("f.cpp", []byte(incrementSrc))
	b := source.NewFileSet()
	idb := b.AddVirtual("f.cpp", []byte("\n\n"+incrementSrc))

	da := diag.New(diag.SevWarning, diag.PreferPreIncrement, source.Span{File: ida, Start: 19, End: 22}, "use ++i")
	db := diag.New(diag.SevWarning, diag.PreferPreIncrement, source.Span{File: idb, Start: 21, End: 24}, "use ++i")
	if Fingerprint(a, &da) != Fingerprint(b, &db) {
		t.Fatal("fingerprint changed when the finding moved")
	}
	db.Message = "something else"
	if Fingerprint(a, &da) == Fingerprint(b, &db) {
		t.Fatal("fingerprint ignores the message")
	}
}

func TestSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, []SummaryRow{{Code: diag.PreferPreIncrement, Count: 3}, {Code: diag.MagicNumber, Count: 1}},
		SummaryTotals{Files: 2, Cached: 1, Omitted: 4})
	out := buf.String()
	for _, want := range []string{"STR2001", "PreferPreIncrement", "MagicNumber", "2 files (1 cached)", "4 diagnostics omitted"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}
}

func TestRulesTable(t *testing.T) {
	var buf bytes.Buffer
	RulesTable(&buf, []RuleRow{
		{Code: diag.UnreachableCode, Category: "flow", Severity: diag.SevWarning, Enabled: true},
		{Code: diag.PreferUnsigned, Category: "flow", Severity: diag.SevInfo, Advisory: true},
	})
	out := buf.String()
	if !strings.Contains(out, "FLW3001") || !strings.Contains(out, "(advisory)") {
		t.Fatalf("listing:\n%s", out)
	}
}
