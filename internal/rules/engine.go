package rules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/index"
	"idiomlint/internal/source"
	"idiomlint/internal/trace"
)

// Options tune how checks run over one file.
type Options struct {
	// CheckWorkers > 1 runs the checks of a file concurrently.
	CheckWorkers int
}

// Engine runs a selection of checks over indexed files. It holds no
// per-file state and may be shared by concurrent Run calls.
type Engine struct {
	rules []Rule
	opts  Options
}

func NewEngine(sel *Selection, opts Options) *Engine {
	e := &Engine{opts: opts}
	if sel != nil {
		e.rules = sel.Rules
	}
	return e
}

// Rules returns the rules the engine runs, ordered by code.
func (e *Engine) Rules() []Rule { return e.rules }

// Run applies every rule to ix. Diagnostics come back grouped by rule in
// code order; the aggregator sorts them for output. The error is the
// context's when it was cancelled before all rules ran.
func (e *Engine) Run(ctx context.Context, ix *index.Index) ([]diag.Diagnostic, error) {
	src := source.FileID(0)
	if f := ix.Tree.Files.Get(ix.File); f != nil {
		src = f.Source
	}
	results := make([][]diag.Diagnostic, len(e.rules))

	if e.opts.CheckWorkers <= 1 {
		for i := range e.rules {
			if err := ctx.Err(); err != nil {
				return flatten(results), err
			}
			results[i] = e.runRule(ctx, &e.rules[i], ix, src)
		}
		return flatten(results), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.CheckWorkers)
	for i := range e.rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// slot i belongs to this goroutine only
			results[i] = e.runRule(gctx, &e.rules[i], ix, src)
			return nil
		})
	}
	err := g.Wait()
	return flatten(results), err
}

func flatten(parts [][]diag.Diagnostic) []diag.Diagnostic {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]diag.Diagnostic, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// runRule runs one check. A panic inside the check drops whatever it
// reported so far and becomes a single CheckInternalError.
func (e *Engine) runRule(ctx context.Context, rule *Rule, ix *index.Index, src source.FileID) (out []diag.Diagnostic) {
	_, span := trace.Start(ctx, trace.ScopeCheck, "check:"+rule.Meta.Name())
	defer func() {
		if r := recover(); r != nil {
			out = []diag.Diagnostic{internalError(rule.Meta, src, r)}
			span.End("panic")
			return
		}
		span.End(fmt.Sprintf("%d diagnostics", len(out)))
	}()

	p := &Pass{
		Index:    ix,
		Tree:     ix.Tree,
		Source:   src,
		Options:  rule.Options,
		rule:     rule.Meta.Code,
		severity: rule.Severity,
	}
	Walk(p, rule.Check)
	return p.Diagnostics()
}

func internalError(meta Meta, src source.FileID, cause any) diag.Diagnostic {
	d := diag.New(diag.SevInfo, diag.CheckInternalError,
		source.Span{File: src},
		fmt.Sprintf("check %s (%s) failed: %v", meta.Name(), meta.ID(), cause))
	d.Origin = meta.Code
	return d
}

// Walk drives one check over the file of p: CheckFile first, then a single
// pre-order traversal calling the visitor capabilities the check has.
func Walk(p *Pass, c Check) {
	if fc, ok := c.(FileChecker); ok {
		fc.CheckFile(p)
	}
	dv, hasDecl := c.(DeclVisitor)
	sv, hasStmt := c.(StmtVisitor)
	ev, hasExpr := c.(ExprVisitor)
	if !hasDecl && !hasStmt && !hasExpr {
		return
	}
	p.Tree.Inspect(ast.FileRef(p.Index.File), func(r ast.NodeRef) bool {
		switch r.Kind {
		case ast.NodeDecl:
			if hasDecl {
				dv.VisitDecl(p, r.Decl())
			}
		case ast.NodeStmt:
			if hasStmt {
				sv.VisitStmt(p, r.Stmt())
			}
		case ast.NodeExpr:
			if hasExpr {
				ev.VisitExpr(p, r.Expr())
			} else {
				// expressions hold no declarations or statements
				return false
			}
		}
		return true
	})
}
