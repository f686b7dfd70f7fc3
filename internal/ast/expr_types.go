package ast

import (
	"idiomlint/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota + 1
	ExprLiteral
	ExprBinary
	ExprAssign
	ExprUnary
	ExprMember
	ExprCall
	ExprIndex
	ExprParen
	ExprThis
	ExprConditional
	ExprCast
	// ExprOpaque stands for constructs the checker does not model (lambdas,
	// new-expressions, braced lists); only its children are visible.
	ExprOpaque
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprLiteral:
		return "literal"
	case ExprBinary:
		return "binary"
	case ExprAssign:
		return "assign"
	case ExprUnary:
		return "unary"
	case ExprMember:
		return "member"
	case ExprCall:
		return "call"
	case ExprIndex:
		return "index"
	case ExprParen:
		return "paren"
	case ExprThis:
		return "this"
	case ExprConditional:
		return "conditional"
	case ExprCast:
		return "cast"
	case ExprOpaque:
		return "opaque"
	}
	return "invalid"
}

// Expr represents an expression node.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Parent  NodeRef
	Payload PayloadID
}

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota + 1
	BinSub
	BinMul
	BinDiv
	BinMod
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinLogAnd
	BinLogOr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinComma
)

var binarySpelling = map[BinaryOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
	BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^", BinShl: "<<", BinShr: ">>",
	BinLogAnd: "&&", BinLogOr: "||",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinComma: ",",
}

func (op BinaryOp) String() string { return binarySpelling[op] }

// IsComparison reports whether op is one of == != < <= > >=.
func (op BinaryOp) IsComparison() bool { return op >= BinEq && op <= BinGe }

// IsEquality reports whether op is == or !=.
func (op BinaryOp) IsEquality() bool { return op == BinEq || op == BinNe }

// ParseBinaryOp maps a token to its operator.
func ParseBinaryOp(tok string) (BinaryOp, bool) {
	for op, s := range binarySpelling {
		if s == tok {
			return op, true
		}
	}
	return 0, false
}

type AssignOp uint8

const (
	AssignPlain AssignOp = iota + 1
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignAnd
	AssignOr
	AssignXor
	AssignShl
	AssignShr
)

var assignSpelling = map[AssignOp]string{
	AssignPlain: "=", AssignAdd: "+=", AssignSub: "-=", AssignMul: "*=",
	AssignDiv: "/=", AssignMod: "%=", AssignAnd: "&=", AssignOr: "|=",
	AssignXor: "^=", AssignShl: "<<=", AssignShr: ">>=",
}

func (op AssignOp) String() string { return assignSpelling[op] }

func ParseAssignOp(tok string) (AssignOp, bool) {
	for op, s := range assignSpelling {
		if s == tok {
			return op, true
		}
	}
	return 0, false
}

type UnaryOp uint8

const (
	UnaryPlus UnaryOp = iota + 1
	UnaryNeg
	UnaryNot
	UnaryBitNot
	UnaryDeref
	UnaryAddrOf
	UnaryPreInc
	UnaryPreDec
	UnaryPostInc
	UnaryPostDec
)

var unarySpelling = map[UnaryOp]string{
	UnaryPlus: "+", UnaryNeg: "-", UnaryNot: "!", UnaryBitNot: "~",
	UnaryDeref: "*", UnaryAddrOf: "&",
	UnaryPreInc: "++", UnaryPreDec: "--", UnaryPostInc: "++", UnaryPostDec: "--",
}

func (op UnaryOp) String() string { return unarySpelling[op] }

// IsPostfix reports whether the operator follows its operand.
func (op UnaryOp) IsPostfix() bool { return op == UnaryPostInc || op == UnaryPostDec }

// IsIncDec reports whether op is one of the four increment/decrement forms.
func (op UnaryOp) IsIncDec() bool { return op >= UnaryPreInc && op <= UnaryPostDec }

// ParseUnaryOp maps a token and its position to an operator.
func ParseUnaryOp(tok string, postfix bool) (UnaryOp, bool) {
	switch {
	case tok == "++" && postfix:
		return UnaryPostInc, true
	case tok == "--" && postfix:
		return UnaryPostDec, true
	case postfix:
		return 0, false
	}
	for op, s := range unarySpelling {
		if s == tok && !op.IsPostfix() {
			return op, true
		}
	}
	return 0, false
}

type LiteralKind uint8

const (
	LitInt LiteralKind = iota + 1
	LitFloat
	LitString
	LitChar
	LitBool
	LitNull
)

func (k LiteralKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitString:
		return "string"
	case LitChar:
		return "char"
	case LitBool:
		return "bool"
	case LitNull:
		return "null"
	}
	return "invalid"
}

type CastStyle uint8

const (
	CastCStyle CastStyle = iota + 1
	CastStatic
	CastDynamic
	CastConst
	CastReinterpret
	CastFunctional
)

var castKeyword = map[CastStyle]string{
	CastStatic: "static_cast", CastDynamic: "dynamic_cast",
	CastConst: "const_cast", CastReinterpret: "reinterpret_cast",
}

func (c CastStyle) Keyword() string { return castKeyword[c] }

// ExprIdentData is a possibly qualified name ("x", "std::cout", "operator==").
type ExprIdentData struct {
	Name source.StringID
}

// ExprLiteralData keeps the literal exactly as spelled, quotes and suffixes included.
type ExprLiteralData struct {
	Kind  LiteralKind
	Value source.StringID
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type ExprAssignData struct {
	Op     AssignOp
	Target ExprID
	Value  ExprID
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type ExprMemberData struct {
	Base     ExprID
	Name     source.StringID
	NameSpan source.Span
	Arrow    bool
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprIndexData struct {
	Base  ExprID
	Index ExprID
}

type ExprParenData struct {
	Inner ExprID
}

type ExprConditionalData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type ExprCastData struct {
	Style   CastStyle
	Type    TypeID
	Operand ExprID
}

type ExprOpaqueData struct {
	Text     source.StringID
	Children []ExprID
}
