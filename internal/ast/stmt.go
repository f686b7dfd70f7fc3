package ast

import (
	"idiomlint/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota + 1
	StmtExpr
	StmtDecl
	StmtIf
	StmtFor
	StmtRangeFor
	StmtWhile
	StmtDoWhile
	StmtReturn
	StmtBreak
	StmtContinue
	StmtThrow
	StmtSwitch
	StmtCase
	StmtEmpty
)

func (k StmtKind) String() string {
	switch k {
	case StmtBlock:
		return "block"
	case StmtExpr:
		return "expr"
	case StmtDecl:
		return "decl"
	case StmtIf:
		return "if"
	case StmtFor:
		return "for"
	case StmtRangeFor:
		return "range-for"
	case StmtWhile:
		return "while"
	case StmtDoWhile:
		return "do"
	case StmtReturn:
		return "return"
	case StmtBreak:
		return "break"
	case StmtContinue:
		return "continue"
	case StmtThrow:
		return "throw"
	case StmtSwitch:
		return "switch"
	case StmtCase:
		return "case"
	case StmtEmpty:
		return "empty"
	}
	return "invalid"
}

// IsLoop reports whether the kind is one of the loop statements.
func (k StmtKind) IsLoop() bool {
	switch k {
	case StmtFor, StmtRangeFor, StmtWhile, StmtDoWhile:
		return true
	}
	return false
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Parent  NodeRef
	Payload PayloadID
}

type StmtBlockData struct {
	Stmts []StmtID
}

type StmtExprData struct {
	X ExprID
}

// StmtDeclData holds the declarators of one declaration statement.
type StmtDeclData struct {
	Decls []DeclID
}

type StmtIfData struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

type StmtForData struct {
	Init StmtID // decl or expr statement, may be empty
	Cond ExprID // NoExprID for "for (;;)"
	Post ExprID
	Body StmtID
}

type StmtRangeForData struct {
	Var   DeclID
	Range ExprID
	Body  StmtID
}

// StmtWhileData serves both while and do-while.
type StmtWhileData struct {
	Cond ExprID
	Body StmtID
}

// StmtValueData serves return and throw; Value may be empty.
type StmtValueData struct {
	Value ExprID
}

type StmtSwitchData struct {
	Cond ExprID
	Body StmtID
}

// StmtCaseData is one case label with the statements up to the next label.
// Value is empty for default.
type StmtCaseData struct {
	Value ExprID
	Body  []StmtID
}

type Stmts struct {
	Arena     *Arena[Stmt]
	Blocks    *Arena[StmtBlockData]
	Exprs     *Arena[StmtExprData]
	Decls     *Arena[StmtDeclData]
	Ifs       *Arena[StmtIfData]
	Fors      *Arena[StmtForData]
	RangeFors *Arena[StmtRangeForData]
	Whiles    *Arena[StmtWhileData]
	Values    *Arena[StmtValueData]
	Switches  *Arena[StmtSwitchData]
	Cases     *Arena[StmtCaseData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/8 + 1
	return &Stmts{
		Arena:     NewArena[Stmt](capHint),
		Blocks:    NewArena[StmtBlockData](small),
		Exprs:     NewArena[StmtExprData](capHint / 2),
		Decls:     NewArena[StmtDeclData](small),
		Ifs:       NewArena[StmtIfData](small),
		Fors:      NewArena[StmtForData](small),
		RangeFors: NewArena[StmtRangeForData](small),
		Whiles:    NewArena[StmtWhileData](small),
		Values:    NewArena[StmtValueData](small),
		Switches:  NewArena[StmtSwitchData](small),
		Cases:     NewArena[StmtCaseData](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) payload(id StmtID, kinds ...StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil {
		return 0, false
	}
	for _, k := range kinds {
		if st.Kind == k {
			return uint32(st.Payload), true
		}
	}
	return 0, false
}

// NewSimple allocates a statement without payload: break, continue, empty.
func (s *Stmts) NewSimple(kind StmtKind, span source.Span) StmtID {
	return s.new(kind, span, 0)
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	return s.new(StmtBlock, span, s.Blocks.Allocate(StmtBlockData{Stmts: stmts}))
}

func (s *Stmts) Block(id StmtID) (*StmtBlockData, bool) {
	p, ok := s.payload(id, StmtBlock)
	if !ok {
		return nil, false
	}
	return s.Blocks.Get(p), true
}

func (s *Stmts) NewExpr(span source.Span, x ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(StmtExprData{X: x}))
}

func (s *Stmts) Expr(id StmtID) (*StmtExprData, bool) {
	p, ok := s.payload(id, StmtExpr)
	if !ok {
		return nil, false
	}
	return s.Exprs.Get(p), true
}

func (s *Stmts) NewDecl(span source.Span, decls []DeclID) StmtID {
	return s.new(StmtDecl, span, s.Decls.Allocate(StmtDeclData{Decls: decls}))
}

func (s *Stmts) Decl(id StmtID) (*StmtDeclData, bool) {
	p, ok := s.payload(id, StmtDecl)
	if !ok {
		return nil, false
	}
	return s.Decls.Get(p), true
}

func (s *Stmts) NewIf(span source.Span, data StmtIfData) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(data))
}

func (s *Stmts) If(id StmtID) (*StmtIfData, bool) {
	p, ok := s.payload(id, StmtIf)
	if !ok {
		return nil, false
	}
	return s.Ifs.Get(p), true
}

func (s *Stmts) NewFor(span source.Span, data StmtForData) StmtID {
	return s.new(StmtFor, span, s.Fors.Allocate(data))
}

func (s *Stmts) For(id StmtID) (*StmtForData, bool) {
	p, ok := s.payload(id, StmtFor)
	if !ok {
		return nil, false
	}
	return s.Fors.Get(p), true
}

func (s *Stmts) NewRangeFor(span source.Span, data StmtRangeForData) StmtID {
	return s.new(StmtRangeFor, span, s.RangeFors.Allocate(data))
}

func (s *Stmts) RangeFor(id StmtID) (*StmtRangeForData, bool) {
	p, ok := s.payload(id, StmtRangeFor)
	if !ok {
		return nil, false
	}
	return s.RangeFors.Get(p), true
}

// NewWhile allocates a while (doWhile=false) or do-while loop.
func (s *Stmts) NewWhile(span source.Span, doWhile bool, data StmtWhileData) StmtID {
	kind := StmtWhile
	if doWhile {
		kind = StmtDoWhile
	}
	return s.new(kind, span, s.Whiles.Allocate(data))
}

func (s *Stmts) While(id StmtID) (*StmtWhileData, bool) {
	p, ok := s.payload(id, StmtWhile, StmtDoWhile)
	if !ok {
		return nil, false
	}
	return s.Whiles.Get(p), true
}

// NewValue allocates a return or throw statement.
func (s *Stmts) NewValue(kind StmtKind, span source.Span, value ExprID) StmtID {
	if kind != StmtReturn && kind != StmtThrow {
		panic("ast: NewValue with kind " + kind.String())
	}
	return s.new(kind, span, s.Values.Allocate(StmtValueData{Value: value}))
}

func (s *Stmts) Value(id StmtID) (*StmtValueData, bool) {
	p, ok := s.payload(id, StmtReturn, StmtThrow)
	if !ok {
		return nil, false
	}
	return s.Values.Get(p), true
}

func (s *Stmts) NewSwitch(span source.Span, data StmtSwitchData) StmtID {
	return s.new(StmtSwitch, span, s.Switches.Allocate(data))
}

func (s *Stmts) Switch(id StmtID) (*StmtSwitchData, bool) {
	p, ok := s.payload(id, StmtSwitch)
	if !ok {
		return nil, false
	}
	return s.Switches.Get(p), true
}

func (s *Stmts) NewCase(span source.Span, data StmtCaseData) StmtID {
	return s.new(StmtCase, span, s.Cases.Allocate(data))
}

func (s *Stmts) Case(id StmtID) (*StmtCaseData, bool) {
	p, ok := s.payload(id, StmtCase)
	if !ok {
		return nil, false
	}
	return s.Cases.Get(p), true
}
