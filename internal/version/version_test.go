package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	_ = GitCommit
	_ = BuildDate
}

func TestBanner_Plain(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	for in, want := range map[string]string{
		"1.2.3":       "1.2.3",
		" 0.1.0-dev ": "0.1.0-dev",
		"":            "dev",
		"nightly":     "nightly",
	} {
		Version = in
		if got := Banner(false); got != want {
			t.Errorf("Banner(false) with %q = %q, want %q", in, got, want)
		}
	}
}

func TestBanner_Colored(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc.1+build.123"
	got := Banner(true)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected ANSI escapes in %q", got)
	}
	if !strings.HasSuffix(got, "-rc.1+build.123") {
		t.Fatalf("suffix lost: %q", got)
	}

	Version = "nightly"
	if got := Banner(true); got != "nightly" {
		t.Fatalf("non-semver version colored: %q", got)
	}
}
