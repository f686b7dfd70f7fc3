package ast

import (
	"idiomlint/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena        *Arena[Expr]
	Idents       *Arena[ExprIdentData]
	Literals     *Arena[ExprLiteralData]
	Binaries     *Arena[ExprBinaryData]
	Assigns      *Arena[ExprAssignData]
	Unaries      *Arena[ExprUnaryData]
	Members      *Arena[ExprMemberData]
	Calls        *Arena[ExprCallData]
	Indices      *Arena[ExprIndexData]
	Parens       *Arena[ExprParenData]
	Conditionals *Arena[ExprConditionalData]
	Casts        *Arena[ExprCastData]
	Opaques      *Arena[ExprOpaqueData]
}

// NewExprs creates per-kind arenas preallocated with capHint entries
// (1<<8 when zero).
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/8 + 1
	return &Exprs{
		Arena:        NewArena[Expr](capHint),
		Idents:       NewArena[ExprIdentData](capHint / 2),
		Literals:     NewArena[ExprLiteralData](capHint / 4),
		Binaries:     NewArena[ExprBinaryData](capHint / 4),
		Assigns:      NewArena[ExprAssignData](small),
		Unaries:      NewArena[ExprUnaryData](small),
		Members:      NewArena[ExprMemberData](small),
		Calls:        NewArena[ExprCallData](small),
		Indices:      NewArena[ExprIndexData](small),
		Parens:       NewArena[ExprParenData](small),
		Conditionals: NewArena[ExprConditionalData](small),
		Casts:        NewArena[ExprCastData](small),
		Opaques:      NewArena[ExprOpaqueData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

// NewIdent creates a new identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

// Ident returns the identifier data for the given expression ID.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	p, ok := e.payload(id, ExprIdent)
	if !ok {
		return nil, false
	}
	return e.Idents.Get(p), true
}

// NewLiteral creates a new literal expression.
func (e *Exprs) NewLiteral(span source.Span, kind LiteralKind, value source.StringID) ExprID {
	return e.new(ExprLiteral, span, e.Literals.Allocate(ExprLiteralData{Kind: kind, Value: value}))
}

// Literal returns the literal data for the given expression ID.
func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payload(id, ExprLiteral)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

// NewBinary creates a new binary expression.
func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

// Binary returns the binary data for the given expression ID.
func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

// NewAssign creates a plain or compound assignment.
func (e *Exprs) NewAssign(span source.Span, op AssignOp, target, value ExprID) ExprID {
	return e.new(ExprAssign, span, e.Assigns.Allocate(ExprAssignData{Op: op, Target: target, Value: value}))
}

func (e *Exprs) Assign(id ExprID) (*ExprAssignData, bool) {
	p, ok := e.payload(id, ExprAssign)
	if !ok {
		return nil, false
	}
	return e.Assigns.Get(p), true
}

// NewUnary creates a new unary expression.
func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

// Unary returns the unary data for the given expression ID.
func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

// NewMember creates "base.name" or "base->name".
func (e *Exprs) NewMember(span source.Span, base ExprID, name source.StringID, nameSpan source.Span, arrow bool) ExprID {
	return e.new(ExprMember, span, e.Members.Allocate(ExprMemberData{Base: base, Name: name, NameSpan: nameSpan, Arrow: arrow}))
}

func (e *Exprs) Member(id ExprID) (*ExprMemberData, bool) {
	p, ok := e.payload(id, ExprMember)
	if !ok {
		return nil, false
	}
	return e.Members.Get(p), true
}

// NewCall creates a new function call expression.
func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{Callee: callee, Args: append([]ExprID(nil), args...)}))
}

// Call returns the call data for the given expression ID.
func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

// NewIndex creates a new index expression.
func (e *Exprs) NewIndex(span source.Span, base, index ExprID) ExprID {
	return e.new(ExprIndex, span, e.Indices.Allocate(ExprIndexData{Base: base, Index: index}))
}

// Index returns the index data for the given expression ID.
func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	p, ok := e.payload(id, ExprIndex)
	if !ok {
		return nil, false
	}
	return e.Indices.Get(p), true
}

func (e *Exprs) NewParen(span source.Span, inner ExprID) ExprID {
	return e.new(ExprParen, span, e.Parens.Allocate(ExprParenData{Inner: inner}))
}

func (e *Exprs) Paren(id ExprID) (*ExprParenData, bool) {
	p, ok := e.payload(id, ExprParen)
	if !ok {
		return nil, false
	}
	return e.Parens.Get(p), true
}

func (e *Exprs) NewThis(span source.Span) ExprID {
	return e.new(ExprThis, span, 0)
}

func (e *Exprs) NewConditional(span source.Span, cond, then, els ExprID) ExprID {
	return e.new(ExprConditional, span, e.Conditionals.Allocate(ExprConditionalData{Cond: cond, Then: then, Else: els}))
}

func (e *Exprs) Conditional(id ExprID) (*ExprConditionalData, bool) {
	p, ok := e.payload(id, ExprConditional)
	if !ok {
		return nil, false
	}
	return e.Conditionals.Get(p), true
}

func (e *Exprs) NewCast(span source.Span, style CastStyle, typ TypeID, operand ExprID) ExprID {
	return e.new(ExprCast, span, e.Casts.Allocate(ExprCastData{Style: style, Type: typ, Operand: operand}))
}

func (e *Exprs) Cast(id ExprID) (*ExprCastData, bool) {
	p, ok := e.payload(id, ExprCast)
	if !ok {
		return nil, false
	}
	return e.Casts.Get(p), true
}

func (e *Exprs) NewOpaque(span source.Span, text source.StringID, children []ExprID) ExprID {
	return e.new(ExprOpaque, span, e.Opaques.Allocate(ExprOpaqueData{Text: text, Children: append([]ExprID(nil), children...)}))
}

func (e *Exprs) Opaque(id ExprID) (*ExprOpaqueData, bool) {
	p, ok := e.payload(id, ExprOpaque)
	if !ok {
		return nil, false
	}
	return e.Opaques.Get(p), true
}

// StripParens returns the innermost expression under any number of parens.
func (e *Exprs) StripParens(id ExprID) ExprID {
	for {
		p, ok := e.Paren(id)
		if !ok {
			return id
		}
		id = p.Inner
	}
}
