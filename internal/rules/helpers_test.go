package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
	"idiomlint/internal/index"
	"idiomlint/internal/rules"
	"idiomlint/internal/testkit"
)

func analyze(t *testing.T, decls ...s.Decl) (*s.Unit, []diag.Diagnostic) {
	t.Helper()
	return analyzeWith(t, nil, decls...)
}

func analyzeWith(t *testing.T, cfg *rules.Config, decls ...s.Decl) (*s.Unit, []diag.Diagnostic) {
	t.Helper()
	u := s.File(nil, "input.cpp", decls...)
	sel, err := rules.Builtin().Configure(cfg)
	require.NoError(t, err)
	ds, err := rules.NewEngine(sel, rules.Options{}).Run(context.Background(), index.Build(u.Builder, u.File))
	require.NoError(t, err)
	require.NoError(t, testkit.CheckDiagnosticSpans(u.FileSet, ds))
	return u, ds
}

// findings runs every rule and keeps the diagnostics of one.
func findings(t *testing.T, code diag.Code, decls ...s.Decl) (*s.Unit, []diag.Diagnostic) {
	t.Helper()
	u, ds := analyze(t, decls...)
	return u, withCode(ds, code)
}

func withCode(ds []diag.Diagnostic, code diag.Code) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func spanTexts(u *s.Unit, ds []diag.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, u.SpanText(d.Primary))
	}
	return out
}

func fn(name, result string, params []s.P, body ...s.Stmt) s.Decl {
	return s.Func(s.Fn{Name: name, Result: result, Params: params, Body: body})
}

func param(typ, name string) s.P { return s.P{Type: typ, Name: name} }

func ptr[T any](v T) *T { return &v }
