package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"idiomlint/internal/diag"
	"idiomlint/internal/rules"
)

type ruleTemplate struct {
	Enabled  bool          `toml:"enabled"`
	Severity diag.Severity `toml:"severity"`
}

// Template renders a .idiomlint.toml with the defaults and one table per
// rule of reg. The result is decoded and validated before it is returned.
func Template(reg *rules.Registry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# idiomlint configuration\n\n")
	buf.WriteString("[check]\n")
	if err := toml.NewEncoder(&buf).Encode(Default().Check); err != nil {
		return nil, fmt.Errorf("encode check settings: %w", err)
	}

	for _, c := range reg.Checks() {
		meta := c.Meta()
		fmt.Fprintf(&buf, "\n# %s: %s\n", meta.ID(), meta.Description())
		if meta.Advisory {
			buf.WriteString("# advisory: may be lowered or disabled, never raised to error\n")
		}
		fmt.Fprintf(&buf, "[rules.%s]\n", meta.Name())
		if err := toml.NewEncoder(&buf).Encode(ruleTemplate{Enabled: true, Severity: meta.Severity}); err != nil {
			return nil, fmt.Errorf("encode %s: %w", meta.Name(), err)
		}
		if len(meta.Options) == 0 {
			continue
		}
		opts := make(map[string]any, len(meta.Options))
		for _, o := range meta.Options {
			opts[o.Name] = o.Default
		}
		fmt.Fprintf(&buf, "[rules.%s.options]\n", meta.Name())
		for _, o := range meta.Options {
			if o.Doc != "" {
				fmt.Fprintf(&buf, "# %s: %s\n", o.Name, o.Doc)
			}
		}
		if err := toml.NewEncoder(&buf).Encode(opts); err != nil {
			return nil, fmt.Errorf("encode %s options: %w", meta.Name(), err)
		}
	}

	var check File
	meta, err := toml.Decode(buf.String(), &check)
	if err != nil {
		return nil, fmt.Errorf("template does not parse: %w", err)
	}
	if len(meta.Undecoded()) > 0 {
		return nil, fmt.Errorf("template: %w: %v", ErrUnknownKey, meta.Undecoded())
	}
	if _, err := reg.Configure(check.RuleConfig()); err != nil {
		return nil, fmt.Errorf("template does not validate: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTemplate writes Template(reg) to dir/.idiomlint.toml. An existing
// file is kept unless force is set.
func WriteTemplate(dir string, reg *rules.Registry, force bool) (string, error) {
	path := filepath.Join(dir, ConfigNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%s: %w", path, ErrExists)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return path, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	data, err := Template(reg)
	if err != nil {
		return path, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
