package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
	"idiomlint/internal/driver"
)

// int f(int i) { i++; return i; }
const incrementDoc = `{"format": "idiomlint-ast/1", "path": "inc.cpp",
 "source": "int f(int i) {\n    i++;\n    return i;\n}\n",
 "decls": [{"kind": "function", "span": [0, 39], "name": "f", "name_span": [4, 5], "type": "int",
   "params": [{"kind": "param", "span": [6, 11], "name": "i", "name_span": [10, 11], "type": "int"}],
   "body": {"kind": "block", "span": [13, 39], "stmts": [
     {"kind": "expr", "span": [19, 23], "operand": {"kind": "unary", "span": [19, 22], "op": "++", "flags": ["postfix"],
       "operand": {"kind": "ident", "span": [19, 20], "name": "i"}}},
     {"kind": "return", "span": [28, 37], "operand": {"kind": "ident", "span": [35, 36], "name": "i"}}]}}]}`

const frontEndErrorDoc = `{"format": "idiomlint-ast/1", "path": "bad.cpp", "source": "int f( {",
 "error": {"message": "expected ')'", "offset": 7}, "decls": []}`

func writeInputs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
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

func TestParseErrorsDoNotStopOtherFiles(t *testing.T) {
	dir := writeInputs(t, map[string]string{
		"good.json":    incrementDoc,
		"bad.json":     frontEndErrorDoc,
		"garbage.json": "not an interchange document",
	})
	res, err := driver.Check(context.Background(), []string{dir}, driver.Options{Jobs: 4})
	require.NoError(t, err)

	require.Len(t, res.Files, 3)
	assert.Equal(t, 2, res.ParseErrors)
	assert.Zero(t, res.InternalErrors)
	assert.True(t, res.Failed())
	assert.True(t, res.HasAtOrAbove(diag.SevWarning))
	assert.False(t, res.HasAtOrAbove(diag.SevError), "parse errors are not rule findings")

	assert.Len(t, withCode(res.Diagnostics, diag.ParseError), 2)
	inc := withCode(res.Diagnostics, diag.PreferPreIncrement)
	require.Len(t, inc, 1)
	assert.Equal(t, "i++", res.FileSet.Text(inc[0].Primary))
}

func TestCheckIsDeterministic(t *testing.T) {
	dir := writeInputs(t, map[string]string{
		"a/one.json": incrementDoc,
		"b/two.json": incrementDoc,
		"c/bad.json": frontEndErrorDoc,
	})
	var runs [][]diag.Diagnostic
	for _, jobs := range []int{1, 8, 8} {
		res, err := driver.Check(context.Background(), []string{dir}, driver.Options{Jobs: jobs, CheckWorkers: jobs})
		require.NoError(t, err)
		runs = append(runs, res.Diagnostics)
	}
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[0], runs[2])
}

func TestCacheServesUnchangedFiles(t *testing.T) {
	dir := writeInputs(t, map[string]string{"good.json": incrementDoc, "bad.json": frontEndErrorDoc})
	cache, err := driver.NewDiskCache(t.TempDir())
	require.NoError(t, err)
	opts := driver.Options{Cache: cache}

	first, err := driver.Check(context.Background(), []string{dir}, opts)
	require.NoError(t, err)
	assert.Zero(t, first.CachedFiles())

	second, err := driver.Check(context.Background(), []string{dir}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.CachedFiles(), "parse errors are never cached")
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestMaxDiagnosticsKeepsVerdict(t *testing.T) {
	dir := writeInputs(t, map[string]string{"good.json": incrementDoc, "bad.json": frontEndErrorDoc})
	all, err := driver.Check(context.Background(), []string{dir}, driver.Options{})
	require.NoError(t, err)
	require.Greater(t, len(all.Diagnostics), 1)

	res, err := driver.Check(context.Background(), []string{dir}, driver.Options{MaxDiagnostics: 1})
	require.NoError(t, err)
	assert.Len(t, res.Diagnostics, 1)
	assert.Equal(t, len(all.Diagnostics)-1, res.Omitted)
	assert.Equal(t, all.HasAtOrAbove(diag.SevWarning), res.HasAtOrAbove(diag.SevWarning))
	assert.True(t, res.Failed())
}

func TestCancelledRun(t *testing.T) {
	dir := writeInputs(t, map[string]string{"good.json": incrementDoc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Check(ctx, []string{dir}, driver.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckUnitsReportsProgress(t *testing.T) {
	u := s.File(nil, "loop.cpp", s.Func(s.Fn{Name: "f", Result: "void", Params: []s.P{{Type: "int", Name: "n"}}, Body: []s.Stmt{
		s.For(s.Let("int", "i", s.Int("0")), s.Bin("<", s.Id("i"), s.Id("n")), s.Post("++", s.Id("i")), s.Block()),
	}}))

	var mu sync.Mutex
	var events []driver.Event
	sink := driver.SinkFunc(func(ev driver.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	units := []*driver.Unit{{File: u.Source, Tree: u.Builder, Root: u.File}}
	res, err := driver.CheckUnits(context.Background(), u.FileSet, units, driver.Options{Progress: sink})
	require.NoError(t, err)

	inc := withCode(res.Diagnostics, diag.PreferPreIncrement)
	require.Len(t, inc, 1)
	assert.Equal(t, "i++", u.SpanText(inc[0].Primary))

	require.NotEmpty(t, events)
	assert.Equal(t, driver.StatusQueued, events[0].Status)
	last := events[len(events)-1]
	assert.Equal(t, "loop.cpp", last.File)
	assert.Equal(t, driver.StatusDone, last.Status)
	assert.Equal(t, res.Files[0].Findings, last.Findings)
}

func TestCollectInputs(t *testing.T) {
	dir := writeInputs(t, map[string]string{
		"b.json":         "{}",
		"a.msgpack":      "",
		"notes.txt":      "",
		".hidden/c.json": "{}",
		"nested/d.mpk":   "",
		"nested/e.cpp":   "",
	})
	explicit := filepath.Join(dir, "notes.txt")
	got, err := driver.CollectInputs([]string{dir, explicit, filepath.Join(dir, "b.json")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.msgpack"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "nested", "d.mpk"),
		explicit,
	}, got)

	_, err = driver.CollectInputs([]string{filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
