package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"idiomlint/internal/ast"
	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a tree:
// 1) every node span points at sf and lies within its content
// 2) statement, declaration and expression spans nest inside their parent's
// Type nodes are skipped, their spans are not tracked by every producer.
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	if b.Files.Get(fileID) == nil {
		return fmt.Errorf("file node not found")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var first error
	var check func(ref ast.NodeRef, parent source.Span, hasParent bool)
	check = func(ref ast.NodeRef, parent source.Span, hasParent bool) {
		if first != nil {
			return
		}
		sp := b.Span(ref)
		if ref.Kind == ast.NodeType {
			return
		}
		if ref.Kind != ast.NodeFile {
			if sp.File != sf.ID {
				first = fmt.Errorf("%s %d: span file mismatch: got=%d want=%d", ref.Kind, ref.ID, sp.File, sf.ID)
				return
			}
			if sp.Start > sp.End || sp.End > lenContent {
				first = fmt.Errorf("%s %d: span %v outside content of %d bytes", ref.Kind, ref.ID, sp, lenContent)
				return
			}
			if hasParent && !sp.Empty() && !parent.Empty() && !parent.Contains(sp) {
				first = fmt.Errorf("%s %d: span %v escapes parent %v", ref.Kind, ref.ID, sp, parent)
				return
			}
		}
		nested := ref.Kind != ast.NodeFile
		b.EachChild(ref, func(child ast.NodeRef) { check(child, sp, nested) })
	}
	check(ast.FileRef(fileID), source.Span{}, false)
	return first
}

// CheckDiagnosticSpans verifies that every span a diagnostic carries
// (primary, notes and fix edits) lies inside the text of its file.
func CheckDiagnosticSpans(fs *source.FileSet, ds []diag.Diagnostic) error {
	inside := func(what string, i int, sp source.Span) error {
		f := fs.Get(sp.File)
		if f == nil {
			return fmt.Errorf("diagnostic %d: %s span %v: unknown file", i, what, sp)
		}
		if f.Flags&source.FileNoText != 0 {
			return nil
		}
		if !f.InBounds(sp) {
			return fmt.Errorf("diagnostic %d: %s span %v outside %s (%d bytes)", i, what, sp, f.Path, f.Size())
		}
		return nil
	}
	for i := range ds {
		d := &ds[i]
		if err := inside("primary", i, d.Primary); err != nil {
			return err
		}
		for _, n := range d.Notes {
			if err := inside("note", i, n.Span); err != nil {
				return err
			}
		}
		for _, fx := range d.Fixes {
			for _, e := range fx.Edits {
				if err := inside("fix edit", i, e.Span); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
