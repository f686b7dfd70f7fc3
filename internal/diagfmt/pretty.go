package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

type palette struct {
	err, warn, info, code, note, fix, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Faint),
		note:   color.New(color.FgBlue),
		fix:    color.New(color.FgGreen),
		gutter: color.New(color.FgBlue, color.Faint),
		caret:  color.New(color.FgMagenta, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.note, p.fix, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty renders diagnostics in the order given:
//
//	<path>:<line>:<col>: <SEV> <ID> <Name>: <message>
//	   <n> | source line
//	       | ^~~~
//
// followed by notes and fix suggestions when enabled.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i := range items {
		d := &items[i]
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(fs, d.Primary.File, opts.PathMode), start.Line, start.Col,
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(codeLabel(d)),
			d.Message)
		if opts.Context > 0 {
			writeSnippet(w, fs, d.Primary, opts, p)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				ns, _ := fs.Resolve(n.Span)
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"),
					displayPath(fs, n.Span.File, opts.PathMode), ns.Line, ns.Col, n.Msg)
				if opts.Context > 0 && n.Span != d.Primary {
					writeSnippet(w, fs, n.Span, opts, p)
				}
			}
		}
		if opts.ShowFixes {
			for _, fx := range d.Fixes {
				writeFix(w, fs, fx, opts, p)
			}
		}
	}
}

// Short renders one line per diagnostic.
func Short(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, mode PathMode) {
	for i := range items {
		d := &items[i]
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(fs, d.Primary.File, mode), start.Line, start.Col,
			strings.ToLower(d.Severity.String()), codeLabel(d), d.Message)
	}
}

// codeLabel is "STR2001 PreferPreIncrement"; internal errors name the
// rule that failed.
func codeLabel(d *diag.Diagnostic) string {
	label := d.Code.ID() + " " + d.Code.Name()
	if d.Code == diag.CheckInternalError && d.Origin != diag.UnknownCode {
		label += " (" + d.Origin.ID() + " " + d.Origin.Name() + ")"
	}
	return label
}

// writeSnippet prints the first line of span with a caret underline.
// Files without text print nothing.
func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette) {
	f := fs.Get(span.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)
	line := strings.TrimRight(f.GetLine(start.Line), "\r")
	if line == "" && start.Line > 1 && span.Empty() {
		return
	}
	col := int(start.Col) - 1
	col = max(0, min(col, len(line)))
	last := len(line)
	if end.Line == start.Line {
		last = max(col, min(int(end.Col)-1, len(line)))
	}

	prefix := line[:col]
	marked := line[col:last]
	shown := line
	if opts.Width > 0 && runewidth.StringWidth(shown) > int(opts.Width) {
		shown = runewidth.Truncate(shown, int(opts.Width), "...")
	}

	num := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(w, " %s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), shown)

	underline := "^"
	if n := runewidth.StringWidth(marked); n > 1 {
		underline += strings.Repeat("~", n-1)
	}
	fmt.Fprintf(w, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), indentFor(prefix), p.caret.Sprint(underline))
}

// indentFor keeps tabs so the caret lines up with the rendered line.
func indentFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func writeFix(w io.Writer, fs *source.FileSet, fx diag.Fix, opts PrettyOpts, p palette) {
	fmt.Fprintf(w, "  %s %s [%s]\n", p.fix.Sprint("fix:"), fx.Title, fx.Applicability)
	for _, e := range fx.Edits {
		if !opts.ShowPreview {
			if e.NewText != "" {
				fmt.Fprintf(w, "       replace %q with %q\n", fs.Text(e.Span), e.NewText)
			} else {
				fmt.Fprintf(w, "       remove %q\n", fs.Text(e.Span))
			}
			continue
		}
		pv, err := buildFixEditPreview(fs, e)
		if err != nil {
			continue
		}
		for _, l := range pv.before {
			fmt.Fprintf(w, "     %s %s\n", p.err.Sprint("-"), l)
		}
		for _, l := range pv.after {
			fmt.Fprintf(w, "     %s %s\n", p.fix.Sprint("+"), l)
		}
	}
}
