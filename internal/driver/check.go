package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"idiomlint/internal/diag"
	"idiomlint/internal/frontend"
	"idiomlint/internal/index"
	"idiomlint/internal/observ"
	"idiomlint/internal/rules"
	"idiomlint/internal/source"
	"idiomlint/internal/trace"
)

// Unit is one translation unit handed to the driver.
type Unit = frontend.Unit

// Options configure a run.
type Options struct {
	// Jobs bounds the number of files analysed at once; <= 0 means GOMAXPROCS.
	Jobs int
	// CheckWorkers > 1 also runs the rules of one file concurrently.
	CheckWorkers int
	// MaxDiagnostics caps the reported diagnostics; 0 means no cap.
	MaxDiagnostics int
	// Selection is the validated rule set; nil runs every builtin rule
	// with its defaults.
	Selection *rules.Selection
	// Cache, when set, stores per-file results keyed by content and
	// selection.
	Cache *DiskCache
	// Progress receives per-file events.
	Progress ProgressSink
	// Timer records run phases when set.
	Timer *observ.Timer
}

// Check loads the interchange files at paths and analyses them.
func Check(ctx context.Context, paths []string, opts Options) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check")
	defer span.End("")

	files, err := CollectInputs(paths)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		emit(opts.Progress, Event{File: f, Stage: StageLoad, Status: StatusQueued})
	}

	phase := opts.Timer.Begin("load")
	inputs := make([]frontend.Input, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs(opts.Jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
			inputs[i] = frontend.Read(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	opts.Timer.End(phase, fmt.Sprintf("%d files", len(files)))

	// FileSet registration is not concurrent; ids follow the sorted order.
	phase = opts.Timer.Begin("materialize")
	fs := source.NewFileSet()
	units := make([]*Unit, len(inputs))
	raws := make([][]byte, len(inputs))
	for i, in := range inputs {
		units[i] = frontend.Materialize(fs, in)
		raws[i] = in.Raw
	}
	opts.Timer.End(phase, "")

	return analyze(ctx, fs, units, raws, files, opts)
}

// CheckUnits analyses units that were built by the caller. Their files must
// already be registered in fs.
func CheckUnits(ctx context.Context, fs *source.FileSet, units []*Unit, opts Options) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check-units")
	defer span.End("")
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = fs.Path(u.File)
		emit(opts.Progress, Event{File: names[i], Stage: StageIndex, Status: StatusQueued})
	}
	// no interchange bytes, so no cache key
	opts.Cache = nil
	return analyze(ctx, fs, units, make([][]byte, len(units)), names, opts)
}

func jobs(n, files int) int {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return max(1, min(n, files))
}

type runner struct {
	fs     *source.FileSet
	engine *rules.Engine
	fp     [32]byte
	opts   Options
	agg    *diag.Aggregator
}

func analyze(ctx context.Context, fs *source.FileSet, units []*Unit, raws [][]byte, names []string, opts Options) (*Result, error) {
	sel := opts.Selection
	if sel == nil {
		var err error
		if sel, err = rules.Builtin().Configure(nil); err != nil {
			return nil, err
		}
	}
	r := &runner{
		fs:     fs,
		engine: rules.NewEngine(sel, rules.Options{CheckWorkers: opts.CheckWorkers}),
		fp:     sel.Fingerprint(),
		opts:   opts,
		agg:    diag.NewAggregator(),
	}

	phase := opts.Timer.Begin("analyze")
	results := make([]FileResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs(opts.Jobs, len(units)))
	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// slot i belongs to this goroutine only
			results[i] = r.file(gctx, names[i], u, raws[i])
			if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
				return results[i].Err
			}
			return nil
		})
	}
	waitErr := g.Wait()
	opts.Timer.End(phase, fmt.Sprintf("%d files", len(units)))

	res := newResult(fs, results, r.agg.Finish(fs), opts.MaxDiagnostics)
	res.ParseErrors, res.InternalErrors = r.agg.Failures()
	if opts.Timer != nil {
		rep := opts.Timer.Report()
		res.Timing = &rep
	}
	if waitErr != nil {
		return res, waitErr
	}
	return res, ctx.Err()
}

// file analyses one unit. A parse failure yields its single diagnostic
// and never stops the other files.
func (r *runner) file(ctx context.Context, name string, u *Unit, raw []byte) FileResult {
	ctx, span := trace.Start(ctx, trace.ScopeFile, name)
	start := time.Now()
	fr := FileResult{Path: name}
	if u == nil {
		fr.Err = errors.New("missing unit")
		span.End("missing")
		return fr
	}
	fr.File = u.File

	if u.Err != nil {
		fr.Err = u.Err
		fr.Findings = 1
		r.agg.Add(u.Err.Diagnostic())
		emit(r.opts.Progress, Event{File: name, Stage: StageLoad, Status: StatusError, Err: u.Err, Elapsed: time.Since(start), Findings: 1})
		span.End("parse error")
		return fr
	}

	var key Key
	if r.opts.Cache != nil && raw != nil {
		var text []byte
		if f := r.fs.Get(u.File); f != nil {
			text = f.Content
		}
		key = CacheKey(raw, text, r.fp)
		ds, ok, err := r.opts.Cache.Get(key, u.File)
		if err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache-error", err.Error(), span.ID())
		}
		if ok {
			fr.Cached = true
			fr.Findings = len(ds)
			r.agg.AddAll(ds)
			emit(r.opts.Progress, Event{File: name, Stage: StageCheck, Status: StatusCached, Elapsed: time.Since(start), Findings: len(ds)})
			span.End("cached")
			return fr
		}
	}

	emit(r.opts.Progress, Event{File: name, Stage: StageIndex, Status: StatusWorking})
	ix := index.Build(u.Tree, u.Root)
	emit(r.opts.Progress, Event{File: name, Stage: StageCheck, Status: StatusWorking})
	ds, err := r.engine.Run(ctx, ix)
	if err != nil {
		fr.Err = err
		emit(r.opts.Progress, Event{File: name, Stage: StageCheck, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		span.End("cancelled")
		return fr
	}
	fr.Findings = len(ds)
	r.agg.AddAll(ds)
	if r.opts.Cache != nil && raw != nil && !hasInternalError(ds) {
		if err := r.opts.Cache.Put(key, ds); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache-error", err.Error(), span.ID())
		}
	}
	emit(r.opts.Progress, Event{File: name, Stage: StageCheck, Status: StatusDone, Elapsed: time.Since(start), Findings: len(ds)})
	span.End(fmt.Sprintf("%d findings", len(ds)))
	return fr
}

// a crashed rule is retried on the next run rather than replayed
func hasInternalError(ds []diag.Diagnostic) bool {
	for i := range ds {
		if ds[i].Code == diag.CheckInternalError {
			return true
		}
	}
	return false
}
