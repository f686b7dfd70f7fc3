package ast

import (
	"strings"

	"idiomlint/internal/source"
)

type DeclKind uint8

const (
	DeclFunction DeclKind = iota + 1
	DeclVar
	DeclParam
	DeclField
	DeclClass
	DeclAlias
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "function"
	case DeclVar:
		return "var"
	case DeclParam:
		return "param"
	case DeclField:
		return "field"
	case DeclClass:
		return "class"
	case DeclAlias:
		return "alias"
	}
	return "invalid"
}

type Decl struct {
	Kind     DeclKind
	Span     source.Span
	Name     source.StringID
	NameSpan source.Span
	Parent   NodeRef
	Payload  PayloadID
}

// FuncKind refines DeclFunction.
type FuncKind uint8

const (
	FuncFree FuncKind = iota
	FuncMethod
	FuncCtor
	FuncDtor
	FuncOperator
	FuncConversion
)

type FuncFlags uint16

const (
	FuncConst FuncFlags = 1 << iota
	FuncStatic
	FuncVirtual
	FuncOverride
	FuncDefaulted
	FuncDeleted
	FuncConstexpr
	FuncExplicit
	FuncNoexcept
	FuncPure // = 0
)

// MemberInit is one entry of a constructor's member initializer list.
type MemberInit struct {
	Name source.StringID
	Span source.Span
	Args []ExprID
}

type FuncData struct {
	Kind  FuncKind
	Flags FuncFlags
	// Operator is the token after the operator keyword: "!=", "->", "()".
	Operator string
	// Qualifier is the class name of an out-of-line member definition.
	Qualifier source.StringID
	Result    TypeID
	Params    []DeclID
	Inits     []MemberInit
	Body      StmtID
}

func (f *FuncData) Has(flag FuncFlags) bool { return f.Flags&flag != 0 }

// IsMember reports whether the function belongs to a class, either declared
// inside one or defined out of line with a qualifier.
func (f *FuncData) IsMember() bool {
	switch f.Kind {
	case FuncMethod, FuncCtor, FuncDtor, FuncConversion:
		return true
	}
	return f.Qualifier != source.NoStringID
}

type VarFlags uint8

const (
	VarStatic VarFlags = 1 << iota
	VarConstexpr
	VarMaybeUnused
	VarExtern
	VarMutable
)

// VarData is shared by variables, parameters and fields.
type VarData struct {
	Type  TypeID
	Flags VarFlags
	// Init is the "= expr" initializer; Args holds constructor-style
	// arguments "(a, b)" or "{a, b}".
	Init   ExprID
	Args   []ExprID
	Direct bool
}

func (v *VarData) Has(flag VarFlags) bool { return v.Flags&flag != 0 }

type ClassData struct {
	Struct  bool
	Bases   []TypeID
	Members []DeclID
}

type AliasData struct {
	Target TypeID
}

type Decls struct {
	Arena   *Arena[Decl]
	Funcs   *Arena[FuncData]
	Vars    *Arena[VarData]
	Classes *Arena[ClassData]
	Aliases *Arena[AliasData]
}

func NewDecls(capHint uint) *Decls {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Decls{
		Arena:   NewArena[Decl](capHint),
		Funcs:   NewArena[FuncData](capHint),
		Vars:    NewArena[VarData](capHint),
		Classes: NewArena[ClassData](capHint / 4),
		Aliases: NewArena[AliasData](capHint / 4),
	}
}

func (d *Decls) new(kind DeclKind, span source.Span, name source.StringID, nameSpan source.Span, payload uint32) DeclID {
	return DeclID(d.Arena.Allocate(Decl{
		Kind:     kind,
		Span:     span,
		Name:     name,
		NameSpan: nameSpan,
		Payload:  PayloadID(payload),
	}))
}

func (d *Decls) Get(id DeclID) *Decl {
	return d.Arena.Get(uint32(id))
}

func (d *Decls) NewFunc(span source.Span, name source.StringID, nameSpan source.Span, data FuncData) DeclID {
	return d.new(DeclFunction, span, name, nameSpan, d.Funcs.Allocate(data))
}

// Func returns the function payload for the given declaration.
func (d *Decls) Func(id DeclID) (*FuncData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclFunction {
		return nil, false
	}
	return d.Funcs.Get(uint32(decl.Payload)), true
}

// NewVar allocates a variable, parameter or field declaration.
func (d *Decls) NewVar(kind DeclKind, span source.Span, name source.StringID, nameSpan source.Span, data VarData) DeclID {
	switch kind {
	case DeclVar, DeclParam, DeclField:
	default:
		panic("ast: NewVar with non-variable kind " + kind.String())
	}
	return d.new(kind, span, name, nameSpan, d.Vars.Allocate(data))
}

// Var returns the payload of a variable, parameter or field.
func (d *Decls) Var(id DeclID) (*VarData, bool) {
	decl := d.Get(id)
	if decl == nil {
		return nil, false
	}
	switch decl.Kind {
	case DeclVar, DeclParam, DeclField:
		return d.Vars.Get(uint32(decl.Payload)), true
	}
	return nil, false
}

func (d *Decls) NewClass(span source.Span, name source.StringID, nameSpan source.Span, data ClassData) DeclID {
	return d.new(DeclClass, span, name, nameSpan, d.Classes.Allocate(data))
}

func (d *Decls) Class(id DeclID) (*ClassData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclClass {
		return nil, false
	}
	return d.Classes.Get(uint32(decl.Payload)), true
}

func (d *Decls) NewAlias(span source.Span, name source.StringID, nameSpan source.Span, target TypeID) DeclID {
	return d.new(DeclAlias, span, name, nameSpan, d.Aliases.Allocate(AliasData{Target: target}))
}

func (d *Decls) Alias(id DeclID) (*AliasData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclAlias {
		return nil, false
	}
	return d.Aliases.Get(uint32(decl.Payload)), true
}

// InferFuncKind derives the function kind from its name and the class it
// belongs to (empty for free functions). Conversion operators are spelled
// "operator T" with a type after the keyword and cannot be told apart from
// the name alone, so callers pass them explicitly.
func InferFuncKind(name, owner string) FuncKind {
	switch {
	case strings.HasPrefix(name, "operator"):
		return FuncOperator
	case owner == "":
		return FuncFree
	case name == owner:
		return FuncCtor
	case name == "~"+owner:
		return FuncDtor
	}
	return FuncMethod
}

// OperatorToken returns the token after the operator keyword.
func OperatorToken(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(name, "operator"))
}
