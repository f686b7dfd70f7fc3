package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"idiomlint/internal/diag"
	"idiomlint/internal/diagfmt"
	"idiomlint/internal/driver"
	"idiomlint/internal/observ"
	"idiomlint/internal/project"
	"idiomlint/internal/rules"
	"idiomlint/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.json|file.msgpack|directory>...",
	Short: "Check exported syntax trees for non-idiomatic code",
	Long: `Check reads interchange documents written by the front end (.json or .msgpack),
runs every enabled rule and prints the findings. Directories are searched recursively.

Exit status: 0 clean, 1 findings at or above --severity, 2 a file could not be
analysed completely, 3 usage or configuration error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	checkCmd.Flags().String("severity", "warning", "fail when a finding reaches this severity (info|warning|error)")
	checkCmd.Flags().Int("jobs", 0, "max files analysed in parallel (0=auto)")
	checkCmd.Flags().Int("check-workers", 0, "run the rules of one file on this many workers (0 or 1 = sequential)")
	checkCmd.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics to print (0 = all)")
	checkCmd.Flags().Bool("cache", false, "reuse results of unchanged files from the user cache directory")
	checkCmd.Flags().String("cache-dir", "", "cache directory (implies --cache)")
	checkCmd.Flags().Bool("summary", false, "print a per-rule summary table")
	checkCmd.Flags().String("ui", "off", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "render fix suggestions as before/after lines")
	checkCmd.Flags().String("path-mode", "", "how paths are printed (auto|absolute|relative|basename)")
	checkCmd.Flags().Int("context", 1, "source lines shown under each pretty diagnostic (0 disables)")
}

// checkSettings are the config file settings with flag overrides applied.
type checkSettings struct {
	project.Settings
	summary   bool
	ui        uiMode
	notes     bool
	fixes     bool
	preview   bool
	context   int
	cacheDir  string
	configDir string
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageError(err)
	}
	set, err := readCheckFlags(cmd, cfg)
	if err != nil {
		return usageError(err)
	}
	sel, err := rules.Builtin().Configure(cfg.RuleConfig())
	if err != nil {
		return usageError(fmt.Errorf("%s: %w", configName(cfg), err))
	}

	opts := driver.Options{
		Jobs:           set.Jobs,
		CheckWorkers:   set.CheckWorkers,
		MaxDiagnostics: set.MaxDiagnostics,
		Selection:      sel,
	}
	if set.Cache {
		var cache *driver.DiskCache
		if set.cacheDir != "" {
			cache, err = driver.NewDiskCache(set.cacheDir)
		} else {
			cache, err = driver.OpenDiskCache("idiomlint")
		}
		if err != nil {
			return usageError(fmt.Errorf("cache: %w", err))
		}
		opts.Cache = cache
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return usageError(err)
	}
	if showTimings {
		opts.Timer = observ.NewTimer()
	}

	var result *driver.Result
	if shouldUseTUI(set.ui) {
		files, collectErr := driver.CollectInputs(args)
		if collectErr != nil {
			return usageError(collectErr)
		}
		result, err = runCheckWithUI(cmd.Context(), "idiomlint check", files, args, opts)
	} else {
		result, err = driver.Check(cmd.Context(), args, opts)
	}
	if err != nil && result == nil {
		if errors.Is(err, context.Canceled) {
			return &exitError{code: exitFailed, err: err}
		}
		return usageError(err)
	}

	// a cancelled run still prints what finished
	if renderErr := render(cmd, result, set); renderErr != nil {
		return &exitError{code: exitFailed, err: renderErr}
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "idiomlint: run interrupted: %v\n", err)
	}
	if set.summary {
		out := cmd.OutOrStdout()
		if set.Format == diagfmt.FormatJSON || set.Format == diagfmt.FormatSarif {
			out = cmd.ErrOrStderr()
		}
		printSummary(out, result)
	}
	if opts.Timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), opts.Timer.Summary())
	}

	switch {
	case err != nil || result.Failed():
		return &exitError{code: exitFailed}
	case result.HasAtOrAbove(set.Severity):
		return &exitError{code: exitViolations}
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*project.File, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return project.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return project.Discover(wd)
}

func configName(cfg *project.File) string {
	if cfg.Path == "" {
		return "defaults"
	}
	return cfg.Path
}

func readCheckFlags(cmd *cobra.Command, cfg *project.File) (checkSettings, error) {
	set := checkSettings{Settings: cfg.Check, configDir: cfg.Dir(), cacheDir: cfg.Check.CacheDir}
	flags := cmd.Flags()
	var err error

	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		if set.Format, err = diagfmt.ParseFormat(v); err != nil {
			return set, err
		}
	}
	if flags.Changed("severity") {
		v, _ := flags.GetString("severity")
		if set.Severity, err = diag.ParseSeverity(v); err != nil {
			return set, err
		}
	}
	if flags.Changed("path-mode") {
		v, _ := flags.GetString("path-mode")
		if set.PathMode, err = diagfmt.ParsePathMode(v); err != nil {
			return set, err
		}
	}
	if flags.Changed("jobs") {
		set.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("check-workers") {
		set.CheckWorkers, _ = flags.GetInt("check-workers")
	}
	if flags.Changed("max-diagnostics") {
		set.MaxDiagnostics, _ = flags.GetInt("max-diagnostics")
	}
	if flags.Changed("cache") {
		set.Cache, _ = flags.GetBool("cache")
	}
	if flags.Changed("cache-dir") {
		set.cacheDir, _ = flags.GetString("cache-dir")
		set.Cache = true
	} else if set.cacheDir != "" && set.configDir != "" && !filepath.IsAbs(set.cacheDir) {
		set.cacheDir = filepath.Join(set.configDir, set.cacheDir)
	}
	if set.Jobs < 0 || set.CheckWorkers < 0 || set.MaxDiagnostics < 0 {
		return set, errors.New("--jobs, --check-workers and --max-diagnostics must not be negative")
	}

	set.summary, _ = flags.GetBool("summary")
	set.notes, _ = flags.GetBool("with-notes")
	set.fixes, _ = flags.GetBool("suggest")
	set.preview, _ = flags.GetBool("preview")
	set.context, _ = flags.GetInt("context")
	uiValue, _ := flags.GetString("ui")
	if set.ui, err = readUIMode(uiValue); err != nil {
		return set, err
	}
	return set, nil
}

func render(cmd *cobra.Command, result *driver.Result, set checkSettings) error {
	out := cmd.OutOrStdout()
	switch set.Format {
	case diagfmt.FormatPretty:
		colored, err := useColor(cmd, os.Stdout)
		if err != nil {
			return err
		}
		diagfmt.Pretty(out, result.Diagnostics, result.FileSet, diagfmt.PrettyOpts{
			Color:       colored,
			Context:     int8(min(max(set.context, 0), 8)),
			PathMode:    set.PathMode,
			ShowNotes:   set.notes,
			ShowFixes:   set.fixes || set.preview,
			ShowPreview: set.preview,
		})
		if result.Omitted > 0 {
			fmt.Fprintf(out, "... %d more diagnostics not shown\n", result.Omitted)
		}
		return nil
	case diagfmt.FormatShort:
		diagfmt.Short(out, result.Diagnostics, result.FileSet, set.PathMode)
		return nil
	case diagfmt.FormatJSON:
		rep := diagfmt.BuildDiagnosticsOutput(result.Diagnostics, result.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         set.PathMode,
			IncludeNotes:     set.notes,
			IncludeFixes:     set.fixes || set.preview,
			IncludePreviews:  set.preview,
		})
		rep.Omitted += result.Omitted
		return writeJSON(out, rep)
	case diagfmt.FormatSarif:
		return diagfmt.Sarif(out, result.Diagnostics, result.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "idiomlint",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
			PathMode:       set.PathMode,
		})
	}
	return fmt.Errorf("unknown format: %s", set.Format)
}

func printSummary(out io.Writer, result *driver.Result) {
	counts := result.ByRule()
	rows := make([]diagfmt.SummaryRow, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, diagfmt.SummaryRow{Code: c.Code, Count: c.Count})
	}
	diagfmt.Summary(out, rows, diagfmt.SummaryTotals{
		Files:          len(result.Files),
		Cached:         result.CachedFiles(),
		ParseErrors:    result.ParseErrors,
		InternalErrors: result.InternalErrors,
		Omitted:        result.Omitted,
	})
}
