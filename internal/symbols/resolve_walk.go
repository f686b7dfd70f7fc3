package symbols

import (
	"idiomlint/internal/ast"
)

// access says how an expression uses the storage it names.
type access uint8

const (
	accRead access = iota
	accWrite
	// accEscape is a read after which the storage may change behind the
	// resolver's back.
	accEscape
)

func (fr *fileResolver) walkStmt(id ast.StmtID) {
	stmt := fr.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	prev := fr.stmt
	fr.stmt = id
	defer func() { fr.stmt = prev }()

	owner := ScopeOwner{File: fr.file, Stmt: id}
	switch stmt.Kind {
	case ast.StmtBlock:
		block, _ := fr.b.Stmts.Block(id)
		scope := fr.r.Enter(ScopeBlock, owner, stmt.Span)
		for _, child := range block.Stmts {
			fr.walkStmt(child)
		}
		fr.r.Leave(scope)
	case ast.StmtExpr:
		es, _ := fr.b.Stmts.Expr(id)
		fr.walkExpr(es.X, accRead)
	case ast.StmtDecl:
		ds, _ := fr.b.Stmts.Decl(id)
		for _, d := range ds.Decls {
			fr.declareVar(d, 0)
		}
	case ast.StmtIf:
		is, _ := fr.b.Stmts.If(id)
		fr.walkExpr(is.Cond, accRead)
		fr.walkStmt(is.Then)
		fr.walkStmt(is.Else)
	case ast.StmtFor:
		fs, _ := fr.b.Stmts.For(id)
		scope := fr.r.Enter(ScopeBlock, owner, stmt.Span)
		if init, ok := fr.b.Stmts.Decl(fs.Init); ok {
			fr.stmt = fs.Init
			for _, d := range init.Decls {
				fr.declareVar(d, SymbolFlagLoopVar)
			}
			fr.stmt = id
		} else {
			fr.walkStmt(fs.Init)
		}
		fr.walkExpr(fs.Cond, accRead)
		fr.walkExpr(fs.Post, accRead)
		fr.walkStmt(fs.Body)
		fr.r.Leave(scope)
	case ast.StmtRangeFor:
		rs, _ := fr.b.Stmts.RangeFor(id)
		scope := fr.r.Enter(ScopeBlock, owner, stmt.Span)
		rangeAcc := accRead
		if vd, ok := fr.b.Decls.Var(rs.Var); ok {
			if t := fr.b.Types.Get(vd.Type); t != nil && t.Ref != ast.RefNone && !t.Const {
				rangeAcc = accEscape
			}
		}
		fr.walkExpr(rs.Range, rangeAcc)
		fr.declareVar(rs.Var, SymbolFlagLoopVar)
		fr.walkStmt(rs.Body)
		fr.r.Leave(scope)
	case ast.StmtWhile, ast.StmtDoWhile:
		ws, _ := fr.b.Stmts.While(id)
		if stmt.Kind == ast.StmtDoWhile {
			fr.walkStmt(ws.Body)
			fr.walkExpr(ws.Cond, accRead)
		} else {
			fr.walkExpr(ws.Cond, accRead)
			fr.walkStmt(ws.Body)
		}
	case ast.StmtReturn, ast.StmtThrow:
		vs, _ := fr.b.Stmts.Value(id)
		fr.walkExpr(vs.Value, accRead)
	case ast.StmtSwitch:
		ss, _ := fr.b.Stmts.Switch(id)
		fr.walkExpr(ss.Cond, accRead)
		fr.walkStmt(ss.Body)
	case ast.StmtCase:
		cs, _ := fr.b.Stmts.Case(id)
		fr.walkExpr(cs.Value, accRead)
		for _, child := range cs.Body {
			fr.walkStmt(child)
		}
	case ast.StmtBreak, ast.StmtContinue, ast.StmtEmpty:
	}
}

func (fr *fileResolver) walkExpr(id ast.ExprID, acc access) {
	expr := fr.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		fr.resolveIdent(id, acc)
	case ast.ExprLiteral, ast.ExprThis:
	case ast.ExprParen:
		p, _ := fr.b.Exprs.Paren(id)
		fr.walkExpr(p.Inner, acc)
	case ast.ExprBinary:
		bin, _ := fr.b.Exprs.Binary(id)
		fr.walkExpr(bin.Left, accRead)
		fr.walkExpr(bin.Right, accRead)
	case ast.ExprAssign:
		as, _ := fr.b.Exprs.Assign(id)
		fr.walkExpr(as.Target, accWrite)
		fr.walkExpr(as.Value, accRead)
	case ast.ExprUnary:
		un, _ := fr.b.Exprs.Unary(id)
		switch {
		case un.Op.IsIncDec():
			fr.walkExpr(un.Operand, accWrite)
		case un.Op == ast.UnaryAddrOf:
			fr.walkExpr(un.Operand, accEscape)
		default:
			fr.walkExpr(un.Operand, accRead)
		}
	case ast.ExprMember:
		fr.walkMember(id, acc, false)
	case ast.ExprCall:
		fr.walkCall(id)
	case ast.ExprIndex:
		ix, _ := fr.b.Exprs.Index(id)
		fr.walkExpr(ix.Base, acc)
		fr.walkExpr(ix.Index, accRead)
	case ast.ExprConditional:
		c, _ := fr.b.Exprs.Conditional(id)
		fr.walkExpr(c.Cond, accRead)
		fr.walkExpr(c.Then, acc)
		fr.walkExpr(c.Else, acc)
	case ast.ExprCast:
		c, _ := fr.b.Exprs.Cast(id)
		opAcc := acc
		if t := fr.b.Types.Get(c.Type); t != nil && (t.Pointers > 0 || t.Ref != ast.RefNone) && !t.Const {
			opAcc = accEscape
		}
		fr.walkExpr(c.Operand, opAcc)
	case ast.ExprOpaque:
		op, _ := fr.b.Exprs.Opaque(id)
		for _, child := range op.Children {
			fr.walkExpr(child, accEscape)
		}
	}
}

func (fr *fileResolver) resolveIdent(id ast.ExprID, acc access) {
	ident, _ := fr.b.Exprs.Ident(id)
	fr.t.exprScope[id] = fr.r.CurrentScope()
	sym, found := fr.r.Lookup(ident.Name)
	if !sym.IsValid() {
		fr.t.exprSymbol[id] = UnknownSymbol
		return
	}
	viaThis := false
	if sc := fr.t.Scopes.Get(found); sc != nil && sc.Kind == ScopeClass {
		viaThis = fr.isInstanceMember(sym)
	}
	fr.record(id, sym, acc, viaThis)
}

func (fr *fileResolver) isInstanceMember(sym SymbolID) bool {
	s := fr.t.Symbols.Get(sym)
	return (s.Kind == SymbolField || s.Kind == SymbolMethod) && !s.Has(SymbolFlagStatic)
}

// thisBase reports whether base is `this` reached through -> or `*this`
// reached through '.'.
func (fr *fileResolver) thisBase(base ast.ExprID, arrow bool) bool {
	base = fr.b.Exprs.StripParens(base)
	e := fr.b.Exprs.Get(base)
	if e == nil {
		return false
	}
	if arrow {
		return e.Kind == ast.ExprThis
	}
	un, ok := fr.b.Exprs.Unary(base)
	if !ok || un.Op != ast.UnaryDeref {
		return false
	}
	inner := fr.b.Exprs.Get(fr.b.Exprs.StripParens(un.Operand))
	return inner != nil && inner.Kind == ast.ExprThis
}

// memberClass finds the class scope a member access looks into: the
// enclosing class for this, otherwise the class named by the base symbol's
// declared type.
func (fr *fileResolver) memberClass(base ast.ExprID, arrow bool) ScopeID {
	if fr.thisBase(base, arrow) {
		return fr.t.EnclosingClass(fr.r.CurrentScope())
	}
	sym := fr.t.Symbols.Get(fr.t.exprSymbol[fr.b.Exprs.StripParens(base)])
	if sym == nil || !sym.IsValue() {
		return NoScopeID
	}
	t := fr.b.Types.Get(sym.Type)
	if t == nil || t.Array {
		return NoScopeID
	}
	if (arrow && t.Pointers != 1) || (!arrow && t.Pointers != 0) {
		return NoScopeID
	}
	class, _ := fr.t.ClassScope(t.Name)
	return class
}

func (fr *fileResolver) walkMember(id ast.ExprID, acc access, called bool) {
	m, _ := fr.b.Exprs.Member(id)
	viaThis := fr.thisBase(m.Base, m.Arrow)
	if !viaThis {
		baseAcc := accRead
		switch {
		case called:
			baseAcc = accEscape
		case !m.Arrow && acc != accRead:
			baseAcc = acc
		}
		fr.walkExpr(m.Base, baseAcc)
	}
	fr.t.exprScope[id] = fr.r.CurrentScope()
	sym := UnknownSymbol
	if class := fr.memberClass(m.Base, m.Arrow); class.IsValid() {
		if found := fr.t.LookupMember(class, m.Name); found.IsValid() {
			sym = found
		}
	}
	if sym.IsUnknown() {
		fr.t.exprSymbol[id] = UnknownSymbol
		return
	}
	fr.record(id, sym, acc, viaThis && fr.isInstanceMember(sym))
}

func (fr *fileResolver) walkCall(id ast.ExprID) {
	call, _ := fr.b.Exprs.Call(id)
	callee := fr.b.Exprs.StripParens(call.Callee)
	if e := fr.b.Exprs.Get(callee); e != nil && e.Kind == ast.ExprMember {
		fr.walkMember(callee, accRead, true)
	} else {
		fr.walkExpr(call.Callee, accRead)
	}
	params := fr.paramTypes(fr.t.exprSymbol[callee], len(call.Args))
	for i, arg := range call.Args {
		acc := accEscape
		if params != nil && fr.passedByValue(params[i]) {
			acc = accRead
		}
		fr.walkExpr(arg, acc)
	}
}

// paramTypes returns the parameter types of the single overload that
// accepts n arguments, or nil when the target is unknown or ambiguous.
func (fr *fileResolver) paramTypes(target SymbolID, n int) []ast.TypeID {
	sym := fr.t.Symbols.Get(target)
	if sym == nil || (sym.Kind != SymbolFunction && sym.Kind != SymbolMethod) {
		return nil
	}
	var match []ast.TypeID
	count := 0
	for _, d := range sym.Decls {
		fd, ok := fr.b.Decls.Func(d)
		if !ok || len(fd.Params) < n {
			continue
		}
		fits := true
		for _, p := range fd.Params[n:] {
			if vd, _ := fr.b.Decls.Var(p); vd == nil || !vd.Init.IsValid() {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		types := make([]ast.TypeID, n)
		for i := 0; i < n; i++ {
			vd, _ := fr.b.Decls.Var(fd.Params[i])
			types[i] = vd.Type
		}
		if count > 0 && !sameTypes(fr.b.Types, match, types) {
			return nil
		}
		match = types
		count++
	}
	return match
}

func sameTypes(types *ast.Types, a, b []ast.TypeID) bool {
	for i := range a {
		if !types.SameType(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (fr *fileResolver) passedByValue(id ast.TypeID) bool {
	t := fr.b.Types.Get(id)
	if t == nil || t.Array {
		return false
	}
	if t.Ref == ast.RefNone && t.Pointers == 0 {
		return true
	}
	return t.Const
}

func (fr *fileResolver) record(expr ast.ExprID, sym SymbolID, acc access, viaThis bool) {
	fr.t.exprSymbol[expr] = sym
	e := fr.b.Exprs.Get(expr)
	fr.recordSite(sym, Site{Span: e.Span, Expr: expr, Stmt: fr.stmt, Func: fr.fn, ViaThis: viaThis}, acc)
}

func (fr *fileResolver) recordSite(sym SymbolID, site Site, acc access) {
	s := fr.t.Symbols.Get(sym)
	if s == nil || sym.IsUnknown() {
		return
	}
	switch acc {
	case accRead:
		s.Reads = append(s.Reads, site)
	case accWrite:
		s.Writes = append(s.Writes, site)
	case accEscape:
		s.Reads = append(s.Reads, site)
		s.Escapes = append(s.Escapes, site)
	}
}
