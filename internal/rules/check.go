package rules

import (
	"fmt"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/index"
	"idiomlint/internal/source"
)

type Category uint8

const (
	CategoryStructural Category = iota + 1
	CategoryFlow
	CategoryClass
)

func (c Category) String() string {
	switch c {
	case CategoryStructural:
		return "structural"
	case CategoryFlow:
		return "flow"
	case CategoryClass:
		return "class"
	}
	return "unknown"
}

// Meta describes a check. Name and description come from the code.
type Meta struct {
	Code     diag.Code
	Category Category
	Severity diag.Severity
	// Advisory checks may be lowered or disabled but never raised to Error.
	Advisory bool
	Options  []OptionSpec
}

func (m Meta) Name() string        { return m.Code.Name() }
func (m Meta) ID() string          { return m.Code.ID() }
func (m Meta) Description() string { return m.Code.Title() }

// Check is a registered idiom. A check implements Meta plus any of the
// visitor capabilities below; the engine walks the file once per check and
// calls the capabilities it has.
type Check interface {
	Meta() Meta
}

type DeclVisitor interface {
	VisitDecl(p *Pass, id ast.DeclID)
}

type StmtVisitor interface {
	VisitStmt(p *Pass, id ast.StmtID)
}

type ExprVisitor interface {
	VisitExpr(p *Pass, id ast.ExprID)
}

// FileChecker runs once per file before the walk.
type FileChecker interface {
	CheckFile(p *Pass)
}

// Pass is what one check sees while running over one file. Checks read the
// tree and the index and report through the pass; nothing else is shared.
type Pass struct {
	Index *index.Index
	Tree  *ast.Builder
	// Source is the file the tree was built from.
	Source  source.FileID
	Options OptionValues

	rule     diag.Code
	severity diag.Severity
	bag      *diag.Bag
	sink     *diag.DedupReporter
}

// Report implements diag.Reporter. A check that reaches the same node
// twice reports it once.
func (p *Pass) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if p.sink == nil {
		p.bag = diag.NewBag(0)
		p.sink = diag.NewDedupReporter(diag.BagReporter{Bag: p.bag})
	}
	p.sink.Report(code, sev, primary, msg, notes, fixes)
}

// Reportf starts a diagnostic of the running check with its configured
// severity. Call Emit on the result.
func (p *Pass) Reportf(primary source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.NewReportBuilder(p, p.severity, p.rule, primary, fmt.Sprintf(format, args...))
}

// Diagnostics returns what the pass reported so far.
func (p *Pass) Diagnostics() []diag.Diagnostic {
	if p.bag == nil {
		return nil
	}
	return p.bag.Items()
}
