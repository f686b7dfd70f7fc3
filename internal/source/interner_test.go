package source

import "testing"

func TestInternerBasic(t *testing.T) {
	in := NewInterner()

	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must map to empty string, got %q ok=%v", s, ok)
	}
	id1 := in.Intern("count_")
	id2 := in.InternBytes([]byte("count_"))
	if id1 != id2 || id1 == NoStringID {
		t.Fatalf("same spelling must intern once: %d vs %d", id1, id2)
	}
	if _, ok := in.Find("missing"); ok {
		t.Fatalf("Find must not insert")
	}
	if in.Len() != 2 {
		t.Fatalf("Len = %d, want 2", in.Len())
	}
}

func TestInternerNormalizesNFC(t *testing.T) {
	in := NewInterner()
	composed := in.Intern("caf\u00e9")
	decomposed := in.Intern("cafe\u0301")
	if composed != decomposed {
		t.Fatalf("NFC-equivalent identifiers must share an id: %d vs %d", composed, decomposed)
	}
}
