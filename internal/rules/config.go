package rules

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/zeebo/blake3"

	"idiomlint/internal/diag"
)

var (
	ErrUnknownRule         = errors.New("unknown rule")
	ErrConflictingRule     = errors.New("rule configured twice with different settings")
	ErrAdvisoryEscalation  = errors.New("advisory rule cannot be raised to error")
	ErrBadOption           = errors.New("invalid rule option")
	errUnknownOptionDetail = "unknown option"
)

// ConfigError is one configuration problem. Configure joins them with
// errors.Join so every problem is reported at once.
type ConfigError struct {
	Rule   string
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
	}
	return fmt.Sprintf("rule %q: %v: %s", e.Rule, e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RuleConfig overrides the defaults of one rule. Nil fields keep the
// default.
type RuleConfig struct {
	Enabled  *bool          `toml:"enabled" yaml:"enabled"`
	Severity *diag.Severity `toml:"severity" yaml:"severity"`
	Options  map[string]any `toml:"options" yaml:"options"`
}

// Config maps a rule id or name to its settings.
type Config struct {
	Rules map[string]RuleConfig `toml:"rules" yaml:"rules"`
}

// Rule is one enabled check with its effective settings.
type Rule struct {
	Check    Check
	Meta     Meta
	Severity diag.Severity
	Options  OptionValues
}

// Selection is the validated result of applying a Config to a registry.
type Selection struct {
	Rules []Rule
}

// Configure validates cfg against the registry and returns the enabled
// rules ordered by code. A nil cfg enables every rule with its defaults.
func (r *Registry) Configure(cfg *Config) (*Selection, error) {
	var errs []error
	type seen struct {
		key string
		rc  RuleConfig
	}
	chosen := make(map[diag.Code]seen)
	if cfg != nil {
		for _, key := range slices.Sorted(maps.Keys(cfg.Rules)) {
			rc := cfg.Rules[key]
			c, ok := r.Lookup(key)
			if !ok {
				errs = append(errs, &ConfigError{Rule: key, Err: ErrUnknownRule})
				continue
			}
			code := c.Meta().Code
			if prev, dup := chosen[code]; dup {
				if !sameRuleConfig(prev.rc, rc) {
					errs = append(errs, &ConfigError{
						Rule:   key,
						Err:    ErrConflictingRule,
						Detail: fmt.Sprintf("also configured as %q", prev.key),
					})
				}
				continue
			}
			chosen[code] = seen{key: key, rc: rc}
		}
	}

	sel := &Selection{}
	for _, c := range r.checks {
		meta := c.Meta()
		rule := Rule{Check: c, Meta: meta, Severity: meta.Severity, Options: defaultOptions(meta.Options)}
		s, configured := chosen[meta.Code]
		if configured {
			if s.rc.Enabled != nil && !*s.rc.Enabled {
				continue
			}
			if s.rc.Severity != nil {
				if meta.Advisory && *s.rc.Severity >= diag.SevError {
					errs = append(errs, &ConfigError{Rule: s.key, Err: ErrAdvisoryEscalation})
					continue
				}
				rule.Severity = *s.rc.Severity
			}
			if err := applyOptions(&rule, s.key, s.rc.Options); err != nil {
				errs = append(errs, err...)
				continue
			}
		}
		sel.Rules = append(sel.Rules, rule)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sel, nil
}

func applyOptions(rule *Rule, key string, raw map[string]any) []error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		idx := slices.IndexFunc(rule.Meta.Options, func(o OptionSpec) bool { return o.Name == name })
		if idx < 0 {
			errs = append(errs, &ConfigError{Rule: key, Err: ErrBadOption, Detail: errUnknownOptionDetail + " " + name})
			continue
		}
		v, err := convertOption(rule.Meta.Options[idx], raw[name])
		if err != nil {
			errs = append(errs, &ConfigError{Rule: key, Err: ErrBadOption, Detail: err.Error()})
			continue
		}
		rule.Options.values[name] = v
	}
	return errs
}

func sameRuleConfig(a, b RuleConfig) bool {
	eqBool := (a.Enabled == nil) == (b.Enabled == nil) && (a.Enabled == nil || *a.Enabled == *b.Enabled)
	eqSev := (a.Severity == nil) == (b.Severity == nil) && (a.Severity == nil || *a.Severity == *b.Severity)
	return eqBool && eqSev && reflect.DeepEqual(a.Options, b.Options)
}

// Codes lists the enabled rule codes.
func (s *Selection) Codes() []diag.Code {
	out := make([]diag.Code, 0, len(s.Rules))
	for _, r := range s.Rules {
		out = append(out, r.Meta.Code)
	}
	return out
}

// Fingerprint identifies the effective settings; two selections with the
// same rules, severities and options share it. Used in cache keys.
func (s *Selection) Fingerprint() [32]byte {
	h := blake3.New()
	for _, r := range s.Rules {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s:%d", r.Meta.ID(), r.Severity)
		for _, name := range slices.Sorted(maps.Keys(r.Options.values)) {
			fmt.Fprintf(&sb, ";%s=%v", name, r.Options.values[name])
		}
		sb.WriteByte('\n')
		_, _ = h.Write([]byte(sb.String()))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
