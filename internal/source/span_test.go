package source

import "testing"

func TestSpanCoverAndContains(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 15, End: 30}

	c := a.Cover(b)
	if c.Start != 10 || c.End != 30 {
		t.Fatalf("Cover = %v", c)
	}
	if !c.Contains(a) || !c.Contains(b) {
		t.Fatalf("cover must contain both inputs")
	}
	if a.Contains(b) {
		t.Fatalf("%v must not contain %v", a, b)
	}
	if other := a.Cover(Span{File: 2, Start: 0, End: 50}); other != a {
		t.Fatalf("spans of different files must not merge, got %v", other)
	}
}

func TestSpanClamp(t *testing.T) {
	tests := []struct {
		in    Span
		limit uint32
		want  Span
	}{
		{Span{Start: 2, End: 5}, 10, Span{Start: 2, End: 5}},
		{Span{Start: 2, End: 50}, 10, Span{Start: 2, End: 10}},
		{Span{Start: 20, End: 50}, 10, Span{Start: 10, End: 10}},
	}
	for _, tt := range tests {
		if got := tt.in.Clamp(tt.limit); got != tt.want {
			t.Errorf("Clamp(%v, %d) = %v, want %v", tt.in, tt.limit, got, tt.want)
		}
	}
}
