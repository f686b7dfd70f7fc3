package ast

import (
	"idiomlint/internal/source"
)

type Hints struct{ Files, Decls, Stmts, Exprs, Types uint }

// Builder owns every arena of one translation unit. Producers allocate
// nodes bottom-up and call Finish once; after that the tree is read-only.
type Builder struct {
	Files   *Files
	Decls   *Decls
	Stmts   *Stmts
	Exprs   *Exprs
	Types   *Types
	Strings *source.Interner

	finished bool
}

func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if hints.Files == 0 {
		hints.Files = 1
	}
	if hints.Decls == 0 {
		hints.Decls = 1 << 6
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	if hints.Types == 0 {
		hints.Types = 1 << 6
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Files:   NewFiles(hints.Files),
		Decls:   NewDecls(hints.Decls),
		Stmts:   NewStmts(hints.Stmts),
		Exprs:   NewExprs(hints.Exprs),
		Types:   NewTypes(hints.Types),
		Strings: strings,
	}
}

func (b *Builder) NewFile(sp source.Span) FileID {
	return b.Files.New(sp)
}

func (b *Builder) PushDecl(file FileID, decl DeclID) {
	f := b.Files.Get(file)
	f.Decls = append(f.Decls, decl)
}

// Intern is a shortcut for b.Strings.Intern.
func (b *Builder) Intern(s string) source.StringID {
	return b.Strings.Intern(s)
}

// Name returns the spelling of an interned id.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}

// Finish links parent back-references for every node reachable from the
// files and freezes the builder.
func (b *Builder) Finish() {
	if b.finished {
		return
	}
	for i := uint32(1); i <= b.Files.Arena.Len(); i++ {
		b.link(FileRef(FileID(i)))
	}
	b.finished = true
}

// Finished reports whether Finish has run.
func (b *Builder) Finished() bool { return b.finished }

func (b *Builder) link(parent NodeRef) {
	b.EachChild(parent, func(child NodeRef) {
		b.setParent(child, parent)
		b.link(child)
	})
}

func (b *Builder) setParent(child, parent NodeRef) {
	switch child.Kind {
	case NodeDecl:
		if d := b.Decls.Get(DeclID(child.ID)); d != nil {
			d.Parent = parent
		}
	case NodeStmt:
		if s := b.Stmts.Get(StmtID(child.ID)); s != nil {
			s.Parent = parent
		}
	case NodeExpr:
		if e := b.Exprs.Get(ExprID(child.ID)); e != nil {
			e.Parent = parent
		}
	case NodeType:
		if t := b.Types.Get(TypeID(child.ID)); t != nil {
			t.Parent = parent
		}
	}
}

// Parent returns the weak parent reference of a node.
func (b *Builder) Parent(ref NodeRef) NodeRef {
	switch ref.Kind {
	case NodeDecl:
		if d := b.Decls.Get(DeclID(ref.ID)); d != nil {
			return d.Parent
		}
	case NodeStmt:
		if s := b.Stmts.Get(StmtID(ref.ID)); s != nil {
			return s.Parent
		}
	case NodeExpr:
		if e := b.Exprs.Get(ExprID(ref.ID)); e != nil {
			return e.Parent
		}
	case NodeType:
		if t := b.Types.Get(TypeID(ref.ID)); t != nil {
			return t.Parent
		}
	}
	return NodeRef{}
}

// Span returns the span of any node.
func (b *Builder) Span(ref NodeRef) source.Span {
	switch ref.Kind {
	case NodeFile:
		if f := b.Files.Get(FileID(ref.ID)); f != nil {
			return f.Span
		}
	case NodeDecl:
		if d := b.Decls.Get(DeclID(ref.ID)); d != nil {
			return d.Span
		}
	case NodeStmt:
		if s := b.Stmts.Get(StmtID(ref.ID)); s != nil {
			return s.Span
		}
	case NodeExpr:
		if e := b.Exprs.Get(ExprID(ref.ID)); e != nil {
			return e.Span
		}
	case NodeType:
		if t := b.Types.Get(TypeID(ref.ID)); t != nil {
			return t.Span
		}
	}
	return source.Span{}
}

// EnclosingStmt returns the nearest statement containing ref (ref itself
// when it is a statement).
func (b *Builder) EnclosingStmt(ref NodeRef) StmtID {
	for r := ref; r.IsValid(); r = b.Parent(r) {
		if r.Kind == NodeStmt {
			return StmtID(r.ID)
		}
	}
	return NoStmtID
}

// EnclosingFunc returns the nearest function declaration containing ref.
func (b *Builder) EnclosingFunc(ref NodeRef) DeclID {
	for r := b.Parent(ref); r.IsValid(); r = b.Parent(r) {
		if r.Kind == NodeDecl {
			if d := b.Decls.Get(DeclID(r.ID)); d != nil && d.Kind == DeclFunction {
				return DeclID(r.ID)
			}
		}
	}
	return NoDeclID
}

// IsAncestor reports whether anc is ref or one of its ancestors.
func (b *Builder) IsAncestor(anc, ref NodeRef) bool {
	for r := ref; r.IsValid(); r = b.Parent(r) {
		if r == anc {
			return true
		}
	}
	return false
}
