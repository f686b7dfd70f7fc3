package source

import (
	"slices"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps identifier spellings to dense ids.
// Non-ASCII spellings are stored in NFC so that equal identifiers written
// with different code point sequences intern to the same id.
type Interner struct {
	byID  []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index map[string]StringID // строка -> ID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern returns the id of s, inserting it when it is new.
func (i *Interner) Intern(s string) StringID {
	if !isASCII(s) && utf8.ValidString(s) {
		s = norm.NFC.String(s)
	}
	if id, ok := i.index[s]; ok {
		return id
	}

	// собственная копия, чтобы не держать исходный буфер
	cpy := string([]byte(s))
	id := StringID(len(i.byID)) //nolint:gosec // interner never approaches 2^32 entries
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// InternBytes is Intern for byte slices.
func (i *Interner) InternBytes(b []byte) StringID {
	return i.Intern(string(b))
}

// Find returns the id of s without inserting it.
func (i *Interner) Find(s string) (StringID, bool) {
	if !isASCII(s) && utf8.ValidString(s) {
		s = norm.NFC.String(s)
	}
	id, ok := i.index[s]
	return id, ok
}

// Lookup возвращает строку по ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup returns the string for id and panics on invalid ids.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has проверяет, валиден ли ID.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len returns the number of interned strings including NoStringID.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of all strings indexed by id.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}

func isASCII(s string) bool {
	for j := 0; j < len(s); j++ {
		if s[j] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
