package ast

// EachChild calls fn for every direct child of ref in source order.
func (b *Builder) EachChild(ref NodeRef, fn func(NodeRef)) {
	decl := func(id DeclID) {
		if id.IsValid() {
			fn(DeclRef(id))
		}
	}
	stmt := func(id StmtID) {
		if id.IsValid() {
			fn(StmtRef(id))
		}
	}
	expr := func(id ExprID) {
		if id.IsValid() {
			fn(ExprRef(id))
		}
	}
	typ := func(id TypeID) {
		if id.IsValid() {
			fn(TypeRef(id))
		}
	}

	switch ref.Kind {
	case NodeFile:
		if f := b.Files.Get(FileID(ref.ID)); f != nil {
			for _, d := range f.Decls {
				decl(d)
			}
		}

	case NodeDecl:
		id := DeclID(ref.ID)
		d := b.Decls.Get(id)
		if d == nil {
			return
		}
		switch d.Kind {
		case DeclFunction:
			fd, _ := b.Decls.Func(id)
			typ(fd.Result)
			for _, p := range fd.Params {
				decl(p)
			}
			for _, in := range fd.Inits {
				for _, a := range in.Args {
					expr(a)
				}
			}
			stmt(fd.Body)
		case DeclVar, DeclParam, DeclField:
			vd, _ := b.Decls.Var(id)
			typ(vd.Type)
			expr(vd.Init)
			for _, a := range vd.Args {
				expr(a)
			}
		case DeclClass:
			cd, _ := b.Decls.Class(id)
			for _, t := range cd.Bases {
				typ(t)
			}
			for _, m := range cd.Members {
				decl(m)
			}
		case DeclAlias:
			ad, _ := b.Decls.Alias(id)
			typ(ad.Target)
		}

	case NodeStmt:
		id := StmtID(ref.ID)
		s := b.Stmts.Get(id)
		if s == nil {
			return
		}
		switch s.Kind {
		case StmtBlock:
			bd, _ := b.Stmts.Block(id)
			for _, c := range bd.Stmts {
				stmt(c)
			}
		case StmtExpr:
			ed, _ := b.Stmts.Expr(id)
			expr(ed.X)
		case StmtDecl:
			dd, _ := b.Stmts.Decl(id)
			for _, d := range dd.Decls {
				decl(d)
			}
		case StmtIf:
			in, _ := b.Stmts.If(id)
			expr(in.Cond)
			stmt(in.Then)
			stmt(in.Else)
		case StmtFor:
			fd, _ := b.Stmts.For(id)
			stmt(fd.Init)
			expr(fd.Cond)
			expr(fd.Post)
			stmt(fd.Body)
		case StmtRangeFor:
			rd, _ := b.Stmts.RangeFor(id)
			decl(rd.Var)
			expr(rd.Range)
			stmt(rd.Body)
		case StmtWhile:
			wd, _ := b.Stmts.While(id)
			expr(wd.Cond)
			stmt(wd.Body)
		case StmtDoWhile:
			wd, _ := b.Stmts.While(id)
			stmt(wd.Body)
			expr(wd.Cond)
		case StmtReturn, StmtThrow:
			vd, _ := b.Stmts.Value(id)
			expr(vd.Value)
		case StmtSwitch:
			sd, _ := b.Stmts.Switch(id)
			expr(sd.Cond)
			stmt(sd.Body)
		case StmtCase:
			cd, _ := b.Stmts.Case(id)
			expr(cd.Value)
			for _, c := range cd.Body {
				stmt(c)
			}
		}

	case NodeExpr:
		id := ExprID(ref.ID)
		e := b.Exprs.Get(id)
		if e == nil {
			return
		}
		switch e.Kind {
		case ExprBinary:
			bd, _ := b.Exprs.Binary(id)
			expr(bd.Left)
			expr(bd.Right)
		case ExprAssign:
			ad, _ := b.Exprs.Assign(id)
			expr(ad.Target)
			expr(ad.Value)
		case ExprUnary:
			ud, _ := b.Exprs.Unary(id)
			expr(ud.Operand)
		case ExprMember:
			md, _ := b.Exprs.Member(id)
			expr(md.Base)
		case ExprCall:
			cd, _ := b.Exprs.Call(id)
			expr(cd.Callee)
			for _, a := range cd.Args {
				expr(a)
			}
		case ExprIndex:
			xd, _ := b.Exprs.Index(id)
			expr(xd.Base)
			expr(xd.Index)
		case ExprParen:
			pd, _ := b.Exprs.Paren(id)
			expr(pd.Inner)
		case ExprConditional:
			cd, _ := b.Exprs.Conditional(id)
			expr(cd.Cond)
			expr(cd.Then)
			expr(cd.Else)
		case ExprCast:
			cd, _ := b.Exprs.Cast(id)
			typ(cd.Type)
			expr(cd.Operand)
		case ExprOpaque:
			od, _ := b.Exprs.Opaque(id)
			for _, c := range od.Children {
				expr(c)
			}
		}
	}
}

// Inspect traverses the subtree rooted at ref in pre-order. Returning false
// from fn skips the children of that node.
func (b *Builder) Inspect(ref NodeRef, fn func(NodeRef) bool) {
	if !ref.IsValid() || !fn(ref) {
		return
	}
	b.EachChild(ref, func(child NodeRef) {
		b.Inspect(child, fn)
	})
}

// InspectExprs calls fn for every expression under ref.
func (b *Builder) InspectExprs(ref NodeRef, fn func(ExprID)) {
	b.Inspect(ref, func(r NodeRef) bool {
		if r.Kind == NodeExpr {
			fn(ExprID(r.ID))
		}
		return true
	})
}

// StmtList returns the statements a statement runs in sequence: the block's
// statements, or the statement itself wrapped in a one-element slice.
func (b *Builder) StmtList(id StmtID) []StmtID {
	if !id.IsValid() {
		return nil
	}
	if bd, ok := b.Stmts.Block(id); ok {
		return bd.Stmts
	}
	return []StmtID{id}
}
