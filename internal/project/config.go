package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"idiomlint/internal/diag"
	"idiomlint/internal/diagfmt"
	"idiomlint/internal/rules"
)

var (
	// ErrUnknownKey reports keys the loader does not understand.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
	// ErrExists is returned by WriteTemplate when the file is already there.
	ErrExists = errors.New("config file already exists")
)

// Settings is the [check] section. Zero values mean "let the tool decide"
// for Jobs and CheckWorkers, and "no limit" for MaxDiagnostics.
type Settings struct {
	// Severity is the threshold at which findings fail the run.
	Severity       diag.Severity    `toml:"severity" yaml:"severity"`
	Format         diagfmt.Format   `toml:"format" yaml:"format"`
	PathMode       diagfmt.PathMode `toml:"path_mode" yaml:"path_mode"`
	Jobs           int              `toml:"jobs" yaml:"jobs"`
	CheckWorkers   int              `toml:"check_workers" yaml:"check_workers"`
	MaxDiagnostics int              `toml:"max_diagnostics" yaml:"max_diagnostics"`
	Cache          bool             `toml:"cache" yaml:"cache"`
	CacheDir       string           `toml:"cache_dir,omitempty" yaml:"cache_dir"`
}

// File is a decoded config file.
type File struct {
	// Path is empty for the built-in defaults.
	Path  string                      `toml:"-" yaml:"-"`
	Check Settings                    `toml:"check" yaml:"check"`
	Rules map[string]rules.RuleConfig `toml:"rules" yaml:"rules"`
}

// Default is the configuration used when no file is found.
func Default() *File {
	return &File{Check: Settings{Severity: diag.SevWarning, Format: diagfmt.FormatPretty}}
}

// RuleConfig returns the rules part in the form the registry accepts.
func (f *File) RuleConfig() *rules.Config {
	if f == nil || len(f.Rules) == 0 {
		return nil
	}
	return &rules.Config{Rules: f.Rules}
}

// Dir is the directory relative paths in the file are resolved against.
func (f *File) Dir() string {
	if f == nil || f.Path == "" {
		return ""
	}
	return filepath.Dir(f.Path)
}

// Load decodes the config file at path. Unknown keys are errors.
func Load(path string) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

func loadTOML(path string) (*File, error) {
	f := Default()
	meta, err := toml.DecodeFile(path, f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	f.Path = path
	return f, nil
}

func loadYAML(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrUnknownKey, err)
		}
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Discover loads the nearest config file above startDir, or the defaults
// when there is none.
func Discover(startDir string) (*File, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
