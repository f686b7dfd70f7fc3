package ast

import (
	"strings"

	"fortio.org/safecast"

	"idiomlint/internal/source"
)

// printer renders nodes as C++ text. In layout mode it also writes the span
// of every printed node back into the arenas.
type printer struct {
	b      *Builder
	buf    strings.Builder
	indent int
	layout bool
	file   source.FileID
}

const indentUnit = "    "

// RenderExpr returns the C++ spelling of an expression.
func (b *Builder) RenderExpr(id ExprID) string {
	p := &printer{b: b}
	p.expr(id)
	return p.buf.String()
}

// RenderStmt returns the C++ spelling of a statement.
func (b *Builder) RenderStmt(id StmtID) string {
	p := &printer{b: b}
	p.stmt(id)
	return p.buf.String()
}

// RenderType returns the C++ spelling of a type reference.
func (b *Builder) RenderType(id TypeID) string {
	p := &printer{b: b}
	p.typ(id)
	return p.buf.String()
}

// Layout prints file as source text and assigns every node the span of its
// text inside src. It is meant for trees built in memory before Finish.
func Layout(b *Builder, file FileID, src source.FileID) string {
	p := &printer{b: b, layout: true, file: src}
	f := b.Files.Get(file)
	for i, d := range f.Decls {
		if i > 0 {
			p.write("\n")
		}
		p.decl(d)
		p.write("\n")
	}
	f.Span = source.Span{File: src, Start: 0, End: p.off()}
	f.Source = src
	return p.buf.String()
}

func (p *printer) write(s string) { p.buf.WriteString(s) }

func (p *printer) off() uint32 {
	n, err := safecast.Conv[uint32](p.buf.Len())
	if err != nil {
		panic(err)
	}
	return n
}

func (p *printer) span(start uint32) source.Span {
	return source.Span{File: p.file, Start: start, End: p.off()}
}

func (p *printer) newline() {
	p.write("\n")
	p.write(strings.Repeat(indentUnit, p.indent))
}

func (p *printer) name(id source.StringID) string { return p.b.Name(id) }

func (p *printer) typ(id TypeID) {
	t := p.b.Types.Get(id)
	if t == nil {
		return
	}
	start := p.off()
	if t.Const {
		p.write("const ")
	}
	p.write(p.name(t.Name))
	p.write(strings.Repeat("*", int(t.Pointers)))
	switch t.Ref {
	case RefLValue:
		p.write("&")
	case RefRValue:
		p.write("&&")
	}
	if p.layout {
		t.Span = p.span(start)
	}
}

func (p *printer) exprList(ids []ExprID) {
	for i, a := range ids {
		if i > 0 {
			p.write(", ")
		}
		p.expr(a)
	}
}

func (p *printer) expr(id ExprID) {
	e := p.b.Exprs.Get(id)
	if e == nil {
		return
	}
	start := p.off()
	switch e.Kind {
	case ExprIdent:
		d, _ := p.b.Exprs.Ident(id)
		p.write(p.name(d.Name))
	case ExprLiteral:
		d, _ := p.b.Exprs.Literal(id)
		p.write(p.name(d.Value))
	case ExprBinary:
		d, _ := p.b.Exprs.Binary(id)
		p.expr(d.Left)
		if d.Op == BinComma {
			p.write(", ")
		} else {
			p.write(" " + d.Op.String() + " ")
		}
		p.expr(d.Right)
	case ExprAssign:
		d, _ := p.b.Exprs.Assign(id)
		p.expr(d.Target)
		p.write(" " + d.Op.String() + " ")
		p.expr(d.Value)
	case ExprUnary:
		d, _ := p.b.Exprs.Unary(id)
		if d.Op.IsPostfix() {
			p.expr(d.Operand)
			p.write(d.Op.String())
		} else {
			p.write(d.Op.String())
			p.expr(d.Operand)
		}
	case ExprMember:
		d, _ := p.b.Exprs.Member(id)
		p.expr(d.Base)
		if d.Arrow {
			p.write("->")
		} else {
			p.write(".")
		}
		ns := p.off()
		p.write(p.name(d.Name))
		if p.layout {
			d.NameSpan = p.span(ns)
		}
	case ExprCall:
		d, _ := p.b.Exprs.Call(id)
		p.expr(d.Callee)
		p.write("(")
		p.exprList(d.Args)
		p.write(")")
	case ExprIndex:
		d, _ := p.b.Exprs.Index(id)
		p.expr(d.Base)
		p.write("[")
		p.expr(d.Index)
		p.write("]")
	case ExprParen:
		d, _ := p.b.Exprs.Paren(id)
		p.write("(")
		p.expr(d.Inner)
		p.write(")")
	case ExprThis:
		p.write("this")
	case ExprConditional:
		d, _ := p.b.Exprs.Conditional(id)
		p.expr(d.Cond)
		p.write(" ? ")
		p.expr(d.Then)
		p.write(" : ")
		p.expr(d.Else)
	case ExprCast:
		d, _ := p.b.Exprs.Cast(id)
		switch d.Style {
		case CastCStyle:
			p.write("(")
			p.typ(d.Type)
			p.write(")")
			p.expr(d.Operand)
		case CastFunctional:
			p.typ(d.Type)
			p.write("(")
			p.expr(d.Operand)
			p.write(")")
		default:
			p.write(d.Style.Keyword() + "<")
			p.typ(d.Type)
			p.write(">(")
			p.expr(d.Operand)
			p.write(")")
		}
	case ExprOpaque:
		d, _ := p.b.Exprs.Opaque(id)
		p.write(p.name(d.Text))
		if len(d.Children) > 0 {
			p.write("(")
			p.exprList(d.Children)
			p.write(")")
		}
	}
	if p.layout {
		e.Span = p.span(start)
	}
}

// varDecl prints "T name = init" without the terminator; withType=false
// prints only the declarator for the second and later names of a
// declaration statement.
func (p *printer) varDecl(id DeclID, withType bool) {
	d := p.b.Decls.Get(id)
	vd, ok := p.b.Decls.Var(id)
	if !ok {
		return
	}
	start := p.off()
	if withType {
		if vd.Has(VarMaybeUnused) {
			p.write("[[maybe_unused]] ")
		}
		if vd.Has(VarExtern) {
			p.write("extern ")
		}
		if vd.Has(VarStatic) {
			p.write("static ")
		}
		if vd.Has(VarMutable) {
			p.write("mutable ")
		}
		if vd.Has(VarConstexpr) {
			p.write("constexpr ")
		}
		p.typ(vd.Type)
	}
	if d.Name != source.NoStringID {
		if withType {
			p.write(" ")
		}
		ns := p.off()
		p.write(p.name(d.Name))
		if p.layout {
			d.NameSpan = p.span(ns)
		}
	}
	if t := p.b.Types.Get(vd.Type); t != nil && t.Array {
		p.write("[" + p.name(t.Extent) + "]")
	}
	if vd.Init.IsValid() {
		p.write(" = ")
		p.expr(vd.Init)
	}
	if len(vd.Args) > 0 || vd.Direct {
		p.write("(")
		p.exprList(vd.Args)
		p.write(")")
	}
	if p.layout {
		d.Span = p.span(start)
	}
}

func (p *printer) decl(id DeclID) {
	d := p.b.Decls.Get(id)
	if d == nil {
		return
	}
	start := p.off()
	switch d.Kind {
	case DeclVar, DeclField:
		p.varDecl(id, true)
		p.write(";")
	case DeclParam:
		p.varDecl(id, true)
	case DeclAlias:
		ad, _ := p.b.Decls.Alias(id)
		p.write("using ")
		ns := p.off()
		p.write(p.name(d.Name))
		if p.layout {
			d.NameSpan = p.span(ns)
		}
		p.write(" = ")
		p.typ(ad.Target)
		p.write(";")
	case DeclClass:
		p.class(id, d)
	case DeclFunction:
		p.function(id, d)
	}
	if p.layout {
		d.Span = p.span(start)
	}
}

func (p *printer) class(id DeclID, d *Decl) {
	cd, _ := p.b.Decls.Class(id)
	if cd.Struct {
		p.write("struct ")
	} else {
		p.write("class ")
	}
	ns := p.off()
	p.write(p.name(d.Name))
	if p.layout {
		d.NameSpan = p.span(ns)
	}
	for i, base := range cd.Bases {
		if i == 0 {
			p.write(" : public ")
		} else {
			p.write(", public ")
		}
		p.typ(base)
	}
	p.write(" {")
	if !cd.Struct {
		p.newline()
		p.write("public:")
	}
	p.indent++
	for _, m := range cd.Members {
		p.newline()
		p.decl(m)
	}
	p.indent--
	p.newline()
	p.write("};")
}

func (p *printer) function(id DeclID, d *Decl) {
	fd, _ := p.b.Decls.Func(id)
	if fd.Has(FuncVirtual) {
		p.write("virtual ")
	}
	if fd.Has(FuncStatic) {
		p.write("static ")
	}
	if fd.Has(FuncConstexpr) {
		p.write("constexpr ")
	}
	if fd.Has(FuncExplicit) {
		p.write("explicit ")
	}
	if fd.Result.IsValid() {
		p.typ(fd.Result)
		p.write(" ")
	}
	ns := p.off()
	if fd.Qualifier != source.NoStringID {
		p.write(p.name(fd.Qualifier) + "::")
	}
	p.write(p.name(d.Name))
	if p.layout {
		d.NameSpan = p.span(ns)
	}
	p.write("(")
	for i, prm := range fd.Params {
		if i > 0 {
			p.write(", ")
		}
		p.decl(prm)
	}
	p.write(")")
	if fd.Has(FuncConst) {
		p.write(" const")
	}
	if fd.Has(FuncNoexcept) {
		p.write(" noexcept")
	}
	if fd.Has(FuncOverride) {
		p.write(" override")
	}
	for i := range fd.Inits {
		in := &fd.Inits[i]
		if i == 0 {
			p.write(" : ")
		} else {
			p.write(", ")
		}
		is := p.off()
		p.write(p.name(in.Name) + "(")
		p.exprList(in.Args)
		p.write(")")
		if p.layout {
			in.Span = p.span(is)
		}
	}
	switch {
	case fd.Has(FuncDefaulted):
		p.write(" = default;")
	case fd.Has(FuncDeleted):
		p.write(" = delete;")
	case fd.Has(FuncPure):
		p.write(" = 0;")
	case fd.Body.IsValid():
		p.write(" ")
		p.stmt(fd.Body)
	default:
		p.write(";")
	}
}

func (p *printer) stmt(id StmtID) {
	s := p.b.Stmts.Get(id)
	if s == nil {
		return
	}
	start := p.off()
	switch s.Kind {
	case StmtBlock:
		bd, _ := p.b.Stmts.Block(id)
		if len(bd.Stmts) == 0 {
			p.write("{}")
			break
		}
		p.write("{")
		p.indent++
		for _, c := range bd.Stmts {
			p.newline()
			p.stmt(c)
		}
		p.indent--
		p.newline()
		p.write("}")
	case StmtExpr:
		ed, _ := p.b.Stmts.Expr(id)
		p.expr(ed.X)
		p.write(";")
	case StmtDecl:
		dd, _ := p.b.Stmts.Decl(id)
		for i, d := range dd.Decls {
			if i > 0 {
				p.write(", ")
			}
			p.varDecl(d, i == 0)
		}
		p.write(";")
	case StmtIf:
		in, _ := p.b.Stmts.If(id)
		p.write("if (")
		p.expr(in.Cond)
		p.write(") ")
		p.stmt(in.Then)
		if in.Else.IsValid() {
			if t := p.b.Stmts.Get(in.Then); t != nil && t.Kind == StmtBlock {
				p.write(" else ")
			} else {
				p.newline()
				p.write("else ")
			}
			p.stmt(in.Else)
		}
	case StmtFor:
		fd, _ := p.b.Stmts.For(id)
		p.write("for (")
		if fd.Init.IsValid() {
			p.stmt(fd.Init)
		} else {
			p.write(";")
		}
		if fd.Cond.IsValid() {
			p.write(" ")
			p.expr(fd.Cond)
		}
		p.write(";")
		if fd.Post.IsValid() {
			p.write(" ")
			p.expr(fd.Post)
		}
		p.write(") ")
		p.stmt(fd.Body)
	case StmtRangeFor:
		rd, _ := p.b.Stmts.RangeFor(id)
		p.write("for (")
		p.varDecl(rd.Var, true)
		p.write(" : ")
		p.expr(rd.Range)
		p.write(") ")
		p.stmt(rd.Body)
	case StmtWhile:
		wd, _ := p.b.Stmts.While(id)
		p.write("while (")
		p.expr(wd.Cond)
		p.write(") ")
		p.stmt(wd.Body)
	case StmtDoWhile:
		wd, _ := p.b.Stmts.While(id)
		p.write("do ")
		p.stmt(wd.Body)
		p.write(" while (")
		p.expr(wd.Cond)
		p.write(");")
	case StmtReturn, StmtThrow:
		vd, _ := p.b.Stmts.Value(id)
		p.write(s.Kind.String())
		if vd.Value.IsValid() {
			p.write(" ")
			p.expr(vd.Value)
		}
		p.write(";")
	case StmtBreak:
		p.write("break;")
	case StmtContinue:
		p.write("continue;")
	case StmtEmpty:
		p.write(";")
	case StmtSwitch:
		sd, _ := p.b.Stmts.Switch(id)
		p.write("switch (")
		p.expr(sd.Cond)
		p.write(") ")
		p.stmt(sd.Body)
	case StmtCase:
		cd, _ := p.b.Stmts.Case(id)
		if cd.Value.IsValid() {
			p.write("case ")
			p.expr(cd.Value)
			p.write(":")
		} else {
			p.write("default:")
		}
		p.indent++
		for _, c := range cd.Body {
			p.newline()
			p.stmt(c)
		}
		p.indent--
	}
	if p.layout {
		s.Span = p.span(start)
	}
}
