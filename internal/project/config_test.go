package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idiomlint/internal/diag"
	"idiomlint/internal/diagfmt"
	"idiomlint/internal/project"
	"idiomlint/internal/rules"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	want := write(t, root, ".idiomlint.yaml", "check:\n  jobs: 2\n")

	got, ok, err := project.Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	dir, ok, err := project.FindRoot(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestFindPrefersTOML(t *testing.T) {
	root := t.TempDir()
	write(t, root, ".idiomlint.yaml", "")
	want := write(t, root, ".idiomlint.toml", "")

	got, ok, err := project.Find(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, t.TempDir(), ".idiomlint.toml", `
[check]
severity = "error"
format = "sarif"
jobs = 4
max_diagnostics = 50

[rules.MagicNumber]
severity = "info"

[rules.MagicNumber.options]
allowed = [0, 1, 100]

[rules.STR2011]
enabled = false
`)
	f, err := project.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, diag.SevError, f.Check.Severity)
	assert.Equal(t, diagfmt.FormatSarif, f.Check.Format)
	assert.Equal(t, 4, f.Check.Jobs)
	assert.Equal(t, 50, f.Check.MaxDiagnostics)
	require.Contains(t, f.Rules, "MagicNumber")
	require.NotNil(t, f.Rules["MagicNumber"].Severity)
	assert.Equal(t, diag.SevInfo, *f.Rules["MagicNumber"].Severity)

	sel, err := rules.Builtin().Configure(f.RuleConfig())
	require.NoError(t, err)
	assert.NotContains(t, sel.Codes(), diag.UnusedVariable)
	for _, r := range sel.Rules {
		if r.Meta.Code == diag.MagicNumber {
			assert.Equal(t, []string{"0", "1", "100"}, r.Options.List("allowed"))
		}
	}
}

func TestLoadTOMLRejectsUnknownKeys(t *testing.T) {
	path := write(t, t.TempDir(), ".idiomlint.toml", "[check]\nthreads = 3\n")
	_, err := project.Load(path)
	require.ErrorIs(t, err, project.ErrUnknownKey)
	assert.Contains(t, err.Error(), "check.threads")
}

func TestLoadTOMLRejectsBadEnum(t *testing.T) {
	path := write(t, t.TempDir(), ".idiomlint.toml", "[check]\nseverity = \"fatal\"\n")
	_, err := project.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid severity")
}

func TestLoadYAML(t *testing.T) {
	path := write(t, t.TempDir(), ".idiomlint.yml", `
check:
  format: json
  cache: true
rules:
  PreferUnsigned:
    severity: warning
`)
	f, err := project.Load(path)
	require.NoError(t, err)
	assert.Equal(t, diagfmt.FormatJSON, f.Check.Format)
	assert.True(t, f.Check.Cache)
	assert.Equal(t, diag.SevWarning, f.Check.Severity)
	require.NotNil(t, f.Rules["PreferUnsigned"].Severity)
	assert.Equal(t, diag.SevWarning, *f.Rules["PreferUnsigned"].Severity)
}

func TestLoadYAMLRejectsUnknownKeys(t *testing.T) {
	path := write(t, t.TempDir(), ".idiomlint.yaml", "check:\n  colour: true\n")
	_, err := project.Load(path)
	require.ErrorIs(t, err, project.ErrUnknownKey)
}

func TestEmptyYAMLKeepsDefaults(t *testing.T) {
	path := write(t, t.TempDir(), ".idiomlint.yaml", "")
	f, err := project.Load(path)
	require.NoError(t, err)
	assert.Equal(t, project.Default().Check, f.Check)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := project.Load(write(t, t.TempDir(), "idiomlint.json", "{}"))
	require.ErrorIs(t, err, project.ErrUnsupportedFormat)
}

func TestDiscoverWithoutFile(t *testing.T) {
	f, err := project.Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, f.Path)
	assert.Nil(t, f.RuleConfig())
	assert.Equal(t, diag.SevWarning, f.Check.Severity)
}

func TestTemplateListsEveryRule(t *testing.T) {
	reg := rules.Builtin()
	data, err := project.Template(reg)
	require.NoError(t, err)

	text := string(data)
	for _, c := range reg.Checks() {
		assert.Contains(t, text, "[rules."+c.Meta().Name()+"]")
	}
	assert.Contains(t, text, "[rules.MagicNumber.options]")

	var f project.File
	_, err = toml.Decode(text, &f)
	require.NoError(t, err)
	sel, err := reg.Configure(f.RuleConfig())
	require.NoError(t, err)
	assert.Len(t, sel.Rules, len(reg.Checks()))
	assert.Equal(t, mustDefault(t, reg).Fingerprint(), sel.Fingerprint())
}

func mustDefault(t *testing.T, reg *rules.Registry) *rules.Selection {
	t.Helper()
	sel, err := reg.Configure(nil)
	require.NoError(t, err)
	return sel
}

func TestWriteTemplateKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path, err := project.WriteTemplate(dir, rules.Builtin(), false)
	require.NoError(t, err)
	require.FileExists(t, path)

	_, err = project.WriteTemplate(dir, rules.Builtin(), false)
	require.ErrorIs(t, err, project.ErrExists)

	_, err = project.WriteTemplate(dir, rules.Builtin(), true)
	require.NoError(t, err)

	f, err := project.Load(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(f.Path, ".idiomlint.toml"))
}
