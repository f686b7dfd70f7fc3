package testkit

import (
	"strings"
	"testing"

	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

func sampleUnit() *s.Unit {
	return s.File(nil, "f.cpp", s.Func(s.Fn{
		Name:   "f",
		Result: "int",
		Params: []s.P{{Type: "int", Name: "i"}},
		Body: []s.Stmt{
			s.X(s.Post("++", s.Id("i"))),
			s.Return(s.Id("i")),
		},
	}))
}

func TestSynthTreeHoldsSpanInvariants(t *testing.T) {
	u := sampleUnit()
	if err := CheckSpanInvariants(u.Builder, u.File, u.FileSet.Get(u.Source)); err != nil {
		t.Fatal(err)
	}
}

func TestSpanInvariantsRejectWrongFile(t *testing.T) {
	u := sampleUnit()
	other := u.FileSet.AddVirtual("other.cpp", []byte(u.Text))
	err := CheckSpanInvariants(u.Builder, u.File, u.FileSet.Get(other))
	if err == nil || !strings.Contains(err.Error(), "file mismatch") {
		t.Fatalf("expected a file mismatch, got %v", err)
	}
}

func TestDiagnosticSpans(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.cpp", []byte("int x = 42;\n"))
	good := diag.New(diag.SevInfo, diag.MagicNumber, source.Span{File: id, Start: 8, End: 10}, "name it")
	if err := CheckDiagnosticSpans(fs, []diag.Diagnostic{good}); err != nil {
		t.Fatal(err)
	}

	bad := good.WithFix("rename", diag.FixEdit{Span: source.Span{File: id, Start: 8, End: 40}, NewText: "kAnswer"})
	err := CheckDiagnosticSpans(fs, []diag.Diagnostic{good, bad})
	if err == nil || !strings.Contains(err.Error(), "diagnostic 1: fix edit") {
		t.Fatalf("expected a fix edit error, got %v", err)
	}

	blind := fs.Add("gen.cpp", nil, source.FileNoText)
	opaque := diag.New(diag.SevInfo, diag.MagicNumber, source.Span{File: blind, Start: 100, End: 104}, "name it")
	if err := CheckDiagnosticSpans(fs, []diag.Diagnostic{opaque}); err != nil {
		t.Fatalf("files without text are not checked: %v", err)
	}
}
