package symbols

import (
	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// ResolveOptions controls a resolve pass for a single AST file.
type ResolveOptions struct {
	Table *Table
	Hints Hints
}

// Result captures resolve artefacts for one file.
type Result struct {
	Table     *Table
	File      ast.FileID
	FileScope ScopeID
}

// ResolveFile walks the AST file and populates the symbol table. Classes,
// functions and aliases are declared before any body is walked, so bodies
// see every member of their class and every function of the file.
func ResolveFile(builder *ast.Builder, fileID ast.FileID, opts ResolveOptions) Result {
	table := opts.Table
	if table == nil {
		table = NewTable(opts.Hints, builder.Strings)
	}
	result := Result{Table: table, File: fileID}

	file := builder.Files.Get(fileID)
	if file == nil {
		return result
	}
	fileScope := table.FileRoot(file.Source, file.Span)
	table.Scopes.Get(fileScope).Owner = ScopeOwner{File: fileID}
	result.FileScope = fileScope

	fr := fileResolver{
		b:       builder,
		t:       table,
		r:       NewResolver(table, fileScope),
		file:    fileID,
		classes: make(map[ast.DeclID]ScopeID),
	}
	fr.predeclareTypes(file.Decls)
	fr.predeclareFuncs(file.Decls)
	for _, d := range file.Decls {
		fr.walkDecl(d)
	}
	return result
}

type fileResolver struct {
	b    *ast.Builder
	t    *Table
	r    *Resolver
	file ast.FileID

	classes map[ast.DeclID]ScopeID
	stmt    ast.StmtID
	fn      ast.DeclID
}

func (fr *fileResolver) name(id source.StringID) string { return fr.b.Name(id) }

// predeclareTypes declares classes (with their data members, methods and
// aliases) and aliases of the current scope.
func (fr *fileResolver) predeclareTypes(decls []ast.DeclID) {
	for _, id := range decls {
		d := fr.b.Decls.Get(id)
		if d == nil || d.Name == source.NoStringID {
			continue
		}
		switch d.Kind {
		case ast.DeclClass:
			fr.declareClass(id, d)
		case ast.DeclAlias:
			ad, _ := fr.b.Decls.Alias(id)
			sym := fr.r.Declare(d.Name, d.NameSpan, SymbolType, 0, id)
			fr.t.Symbols.Get(sym).Type = ad.Target
		}
	}
}

func (fr *fileResolver) declareClass(id ast.DeclID, d *ast.Decl) {
	cd, _ := fr.b.Decls.Class(id)
	sym := fr.r.Declare(d.Name, d.NameSpan, SymbolType, 0, id)
	scope := fr.r.Enter(ScopeClass, ScopeOwner{File: fr.file, Decl: id}, d.Span)
	fr.t.Scopes.Get(scope).Class = sym
	fr.t.classScope[d.Name] = scope
	fr.classes[id] = scope
	for _, base := range cd.Bases {
		if bt := fr.b.Types.Get(base); bt != nil {
			fr.t.classBases[scope] = append(fr.t.classBases[scope], bt.Name)
		}
	}
	fr.predeclareTypes(cd.Members)
	for _, m := range cd.Members {
		md := fr.b.Decls.Get(m)
		if md == nil || md.Name == source.NoStringID {
			continue
		}
		switch md.Kind {
		case ast.DeclField:
			vd, _ := fr.b.Decls.Var(m)
			fsym := fr.r.Declare(md.Name, md.NameSpan, SymbolField, fr.varFlags(vd), m)
			fr.t.Symbols.Get(fsym).Type = vd.Type
		case ast.DeclFunction:
			fr.declareFunc(m, md, SymbolMethod)
		}
	}
	fr.r.Leave(scope)
}

func (fr *fileResolver) declareFunc(id ast.DeclID, d *ast.Decl, kind SymbolKind) {
	fd, _ := fr.b.Decls.Func(id)
	var flags SymbolFlags
	if fd.Has(ast.FuncStatic) {
		flags |= SymbolFlagStatic
	}
	sym := fr.r.DeclareOverload(d.Name, d.NameSpan, kind, flags, id)
	if s := fr.t.Symbols.Get(sym); s != nil && !s.Type.IsValid() {
		s.Type = fd.Result
	}
}

// predeclareFuncs declares free functions and attaches out-of-line member
// definitions to their class.
func (fr *fileResolver) predeclareFuncs(decls []ast.DeclID) {
	for _, id := range decls {
		d := fr.b.Decls.Get(id)
		if d == nil || d.Kind != ast.DeclFunction || d.Name == source.NoStringID {
			continue
		}
		fd, _ := fr.b.Decls.Func(id)
		if fd.Qualifier == source.NoStringID {
			fr.declareFunc(id, d, SymbolFunction)
			continue
		}
		class, ok := fr.t.classScope[fd.Qualifier]
		if !ok {
			continue
		}
		fr.r.Resume(class)
		fr.declareFunc(id, d, SymbolMethod)
		fr.r.Leave(class)
	}
}

func (fr *fileResolver) varFlags(vd *ast.VarData) SymbolFlags {
	var flags SymbolFlags
	if t := fr.b.Types.Get(vd.Type); t != nil && t.Const && t.Pointers == 0 {
		flags |= SymbolFlagConst
	}
	if vd.Has(ast.VarConstexpr) {
		flags |= SymbolFlagConst
	}
	if vd.Has(ast.VarMutable) {
		flags |= SymbolFlagMutable
	}
	if vd.Has(ast.VarStatic) {
		flags |= SymbolFlagStatic
	}
	if vd.Has(ast.VarMaybeUnused) {
		flags |= SymbolFlagMaybeUnused
	}
	return flags
}

func (fr *fileResolver) walkDecl(id ast.DeclID) {
	d := fr.b.Decls.Get(id)
	if d == nil {
		return
	}
	switch d.Kind {
	case ast.DeclClass:
		cd, _ := fr.b.Decls.Class(id)
		scope, ok := fr.classes[id]
		if !ok {
			return
		}
		fr.r.Resume(scope)
		for _, m := range cd.Members {
			fr.walkDecl(m)
		}
		fr.r.Leave(scope)
	case ast.DeclFunction:
		fr.walkFunction(id)
	case ast.DeclField:
		// default member initializers run in the constructor
		vd, _ := fr.b.Decls.Var(id)
		fr.walkExpr(vd.Init, accRead)
		for _, a := range vd.Args {
			fr.walkExpr(a, accEscape)
		}
	case ast.DeclVar:
		fr.declareVar(id, 0)
	}
}

// declareVar declares a variable and walks its initializer. The name is in
// scope inside its own initializer, as in C++.
func (fr *fileResolver) declareVar(id ast.DeclID, extra SymbolFlags) {
	d := fr.b.Decls.Get(id)
	vd, ok := fr.b.Decls.Var(id)
	if !ok {
		return
	}
	if d.Name != source.NoStringID {
		flags := fr.varFlags(vd) | extra
		if fr.fn.IsValid() {
			flags |= SymbolFlagLocal
		}
		sym := fr.r.Declare(d.Name, d.NameSpan, SymbolVariable, flags, id)
		fr.t.Symbols.Get(sym).Type = vd.Type
	}
	initAcc := accRead
	if t := fr.b.Types.Get(vd.Type); t != nil && t.Ref != ast.RefNone && !t.Const {
		initAcc = accEscape
	}
	fr.walkExpr(vd.Init, initAcc)
	for _, a := range vd.Args {
		fr.walkExpr(a, accEscape)
	}
}

func (fr *fileResolver) walkFunction(id ast.DeclID) {
	d := fr.b.Decls.Get(id)
	fd, _ := fr.b.Decls.Func(id)

	var reopened ScopeID
	if fd.Qualifier != source.NoStringID {
		if class, ok := fr.t.classScope[fd.Qualifier]; ok && fr.t.EnclosingClass(fr.r.CurrentScope()) != class {
			fr.r.Resume(class)
			reopened = class
		}
	}
	prevFn := fr.fn
	fr.fn = id
	scope := fr.r.Enter(ScopeFunction, ScopeOwner{File: fr.file, Decl: id}, d.Span)

	for _, p := range fd.Params {
		pd := fr.b.Decls.Get(p)
		vd, _ := fr.b.Decls.Var(p)
		if pd == nil || vd == nil {
			continue
		}
		fr.walkExpr(vd.Init, accRead)
		if pd.Name == source.NoStringID {
			continue
		}
		sym := fr.r.Declare(pd.Name, pd.NameSpan, SymbolParameter, fr.varFlags(vd), p)
		fr.t.Symbols.Get(sym).Type = vd.Type
	}
	class := fr.t.EnclosingClass(scope)
	for i := range fd.Inits {
		in := &fd.Inits[i]
		if field := fr.t.LookupMember(class, in.Name); field.Known() {
			fr.recordSite(field, Site{Span: in.Span, Func: id, ViaThis: true}, accWrite)
		}
		for _, a := range in.Args {
			fr.walkExpr(a, accRead)
		}
	}
	if fd.Body.IsValid() {
		prevStmt := fr.stmt
		fr.walkStmt(fd.Body)
		fr.stmt = prevStmt
	}

	fr.r.Leave(scope)
	fr.fn = prevFn
	if reopened.IsValid() {
		fr.r.Leave(reopened)
	}
}
