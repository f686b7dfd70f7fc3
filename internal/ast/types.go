package ast

import (
	"strings"

	"idiomlint/internal/source"
)

// RefKind distinguishes lvalue and rvalue references.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefLValue
	RefRValue
)

// Type is a spelled type reference. The base name keeps the front end's
// spelling, template arguments included ("std::vector<int>"); the checker
// never needs more than that.
type Type struct {
	Span     source.Span
	Parent   NodeRef
	Name     source.StringID
	Const    bool
	Pointers uint8
	Ref      RefKind
	Array    bool
	Extent   source.StringID // spelled array bound, may be empty
}

type Types struct {
	Arena *Arena[Type]
}

func NewTypes(capHint uint) *Types {
	return &Types{Arena: NewArena[Type](capHint)}
}

func (t *Types) New(span source.Span, typ Type) TypeID {
	typ.Span = span
	return TypeID(t.Arena.Allocate(typ))
}

func (t *Types) Get(id TypeID) *Type {
	return t.Arena.Get(uint32(id))
}

// SameType compares two type references by spelling.
func (t *Types) SameType(a, b TypeID) bool {
	x, y := t.Get(a), t.Get(b)
	if x == nil || y == nil {
		return false
	}
	return x.Name == y.Name && x.Const == y.Const && x.Pointers == y.Pointers &&
		x.Ref == y.Ref && x.Array == y.Array
}

// IndirectionFree reports whether the type is a plain value (no pointer,
// reference or array).
func (t *Type) IndirectionFree() bool {
	return t.Pointers == 0 && t.Ref == RefNone && !t.Array
}

var (
	signedIntegral = map[string]bool{
		"int": true, "short": true, "long": true, "long long": true,
		"signed": true, "signed int": true, "short int": true, "long int": true,
		"long long int": true, "signed long": true, "signed short": true,
		"ptrdiff_t": true, "std::ptrdiff_t": true, "ssize_t": true,
		"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
		"std::int8_t": true, "std::int16_t": true, "std::int32_t": true, "std::int64_t": true,
	}
	unsignedIntegral = map[string]bool{
		"unsigned": true, "unsigned int": true, "unsigned short": true,
		"unsigned long": true, "unsigned long long": true, "unsigned char": true,
		"size_t": true, "std::size_t": true,
		"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
		"std::uint8_t": true, "std::uint16_t": true, "std::uint32_t": true, "std::uint64_t": true,
	}
	builtinScalar = map[string]bool{
		"bool": true, "char": true, "float": true, "double": true, "long double": true,
		"wchar_t": true, "char16_t": true, "char32_t": true, "auto": true,
	}
	stdValueTypes = []string{
		"std::string", "std::wstring", "std::string_view", "std::vector<", "std::array<",
		"std::map<", "std::set<", "std::unordered_map<", "std::unordered_set<",
		"std::deque<", "std::list<", "std::pair<", "std::optional<",
	}
)

// IsSignedIntegral reports whether the spelled base type is a signed
// integer type without indirection.
func IsSignedIntegral(name string) bool { return signedIntegral[name] }

// IsUnsignedIntegral reports whether the spelled base type is unsigned.
func IsUnsignedIntegral(name string) bool { return unsignedIntegral[name] }

// IsBuiltin reports whether the base name is a fundamental type or auto.
func IsBuiltin(name string) bool {
	return builtinScalar[name] || signedIntegral[name] || unsignedIntegral[name]
}

// IsStdValueType reports whether the base name is a standard library value
// type whose construction has no side effects worth keeping.
func IsStdValueType(name string) bool {
	for _, p := range stdValueTypes {
		if name == p || (strings.HasSuffix(p, "<") && strings.HasPrefix(name, p)) {
			return true
		}
	}
	return false
}

// ParseTypeSpelling splits a spelling such as "const std::string&" into a
// Type. It understands leading/trailing const, '*', '&', '&&' and a trailing
// "[N]" array bound.
func ParseTypeSpelling(in *source.Interner, spelling string) Type {
	s := strings.TrimSpace(spelling)
	var typ Type
	if i := strings.LastIndexByte(s, '['); i > 0 && strings.HasSuffix(s, "]") {
		typ.Array = true
		typ.Extent = in.Intern(strings.TrimSpace(s[i+1 : len(s)-1]))
		s = strings.TrimSpace(s[:i])
	}
	for {
		switch {
		case strings.HasSuffix(s, "&&"):
			typ.Ref = RefRValue
			s = strings.TrimSpace(s[:len(s)-2])
			continue
		case strings.HasSuffix(s, "&"):
			typ.Ref = RefLValue
			s = strings.TrimSpace(s[:len(s)-1])
			continue
		case strings.HasSuffix(s, "*"):
			typ.Pointers++
			s = strings.TrimSpace(s[:len(s)-1])
			continue
		case strings.HasSuffix(s, " const"):
			typ.Const = true
			s = strings.TrimSpace(strings.TrimSuffix(s, " const"))
			continue
		}
		break
	}
	if strings.HasPrefix(s, "const ") {
		typ.Const = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "const "))
	}
	typ.Name = in.Intern(s)
	return typ
}
