// Package trace records what a run spends its time on.
//
// Spans nest driver, pass, file and check work; the level decides how deep
// the recording goes:
//
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: one span per input file
//   - LevelDebug: one span per check per file
//
// Tracers are propagated through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeFile, "file:"+path)
//	defer span.End("")
//
// StreamTracer writes immediately (stderr or a rotating file), RingTracer
// keeps the last events for a dump after a failure, MultiTracer combines
// them.
package trace
