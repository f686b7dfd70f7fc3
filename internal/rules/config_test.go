package rules_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s "idiomlint/internal/ast/synth"
	"idiomlint/internal/diag"
	"idiomlint/internal/rules"
)

func TestConfigureDefaultsEnableEverything(t *testing.T) {
	sel, err := rules.Builtin().Configure(nil)
	require.NoError(t, err)
	codes := sel.Codes()
	require.Len(t, codes, 22)
	assert.Equal(t, diag.PreferPreIncrement, codes[0])
	assert.Equal(t, diag.ArrowNotDelegating, codes[len(codes)-1])
	assert.IsNonDecreasing(t, codes)
}

func TestConfigureRejectsUnknownRule(t *testing.T) {
	_, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"NoSuchRule": {Enabled: ptr(true)},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrUnknownRule)
	var ce *rules.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "NoSuchRule", ce.Rule)
}

func TestConfigureAliases(t *testing.T) {
	_, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"STR2001":            {Enabled: ptr(false)},
		"PreferPreIncrement": {Enabled: ptr(true)},
	}})
	assert.ErrorIs(t, err, rules.ErrConflictingRule)

	sel, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"STR2001":            {Enabled: ptr(false)},
		"preferpreincrement": {Enabled: ptr(false)},
	}})
	require.NoError(t, err)
	assert.NotContains(t, sel.Codes(), diag.PreferPreIncrement)
	assert.Len(t, sel.Codes(), 21)
}

func TestConfigureSeverity(t *testing.T) {
	sel, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"MagicNumber":    {Severity: ptr(diag.SevError)},
		"PreferUnsigned": {Severity: ptr(diag.SevWarning)},
	}})
	require.NoError(t, err)
	for _, r := range sel.Rules {
		switch r.Meta.Code {
		case diag.MagicNumber:
			assert.Equal(t, diag.SevError, r.Severity)
		case diag.PreferUnsigned:
			assert.Equal(t, diag.SevWarning, r.Severity)
		}
	}

	_, err = rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"FLW3002": {Severity: ptr(diag.SevError)},
	}})
	assert.ErrorIs(t, err, rules.ErrAdvisoryEscalation)
}

func TestConfigureReportsEveryProblem(t *testing.T) {
	_, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"Bogus":       {},
		"MagicNumber": {Options: map[string]any{"nope": true}},
	}})
	assert.ErrorIs(t, err, rules.ErrUnknownRule)
	assert.ErrorIs(t, err, rules.ErrBadOption)
	assert.Contains(t, err.Error(), "nope")
}

func TestConfigureOptions(t *testing.T) {
	cases := []struct {
		name    string
		options map[string]any
		wantErr bool
	}{
		{name: "toml integers", options: map[string]any{"allowed": []any{int64(0), int64(42)}}},
		{name: "strings", options: map[string]any{"allowed": []string{"42"}}},
		{name: "bool", options: map[string]any{"exempt_subscripts": false}},
		{name: "wrong type", options: map[string]any{"exempt_loop_bounds": "yes"}, wantErr: true},
		{name: "unknown", options: map[string]any{"threshold": 3}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
				"MagicNumber": {Options: tc.options},
			}})
			if tc.wantErr {
				assert.ErrorIs(t, err, rules.ErrBadOption)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMagicNumberAllowList(t *testing.T) {
	body := fn("area", "int", []s.P{param("int", "w")}, s.Return(s.Bin("*", s.Id("w"), s.Int("42"))))

	u, ds := analyze(t, body)
	got := withCode(ds, diag.MagicNumber)
	require.Len(t, got, 1)
	assert.Equal(t, "42", u.SpanText(got[0].Primary))

	_, ds = analyzeWith(t, &rules.Config{Rules: map[string]rules.RuleConfig{
		"MagicNumber": {Options: map[string]any{"allowed": []any{int64(42)}}},
	}}, body)
	assert.Empty(t, withCode(ds, diag.MagicNumber))
}

func TestDuplicateBranchThreshold(t *testing.T) {
	body := fn("paint", "void", []s.P{param("bool", "c"), param("int", "a"), param("int", "b")},
		s.If(s.Id("c"),
			s.Block(s.X(s.CallN("draw", s.Id("a"), s.Id("a")))),
			s.Block(s.X(s.CallN("draw", s.Id("b"), s.Id("b"))))),
	)
	_, ds := findings(t, diag.DuplicateBranchCode, body)
	assert.Empty(t, ds, "two differences exceed the default")

	_, ds = analyzeWith(t, &rules.Config{Rules: map[string]rules.RuleConfig{
		"DuplicateBranchCode": {Options: map[string]any{"max_differences": int64(2)}},
	}}, body)
	got := withCode(ds, diag.DuplicateBranchCode)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "2 expressions")
	assert.Len(t, got[0].Notes, 2)
}

func TestFingerprintTracksSettings(t *testing.T) {
	a, err := rules.Builtin().Configure(nil)
	require.NoError(t, err)
	b, err := rules.Builtin().Configure(&rules.Config{})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"MagicNumber": {Severity: ptr(diag.SevError)},
	}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d, err := rules.Builtin().Configure(&rules.Config{Rules: map[string]rules.RuleConfig{
		"MagicNumber": {Options: map[string]any{"exempt_subscripts": false}},
	}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
