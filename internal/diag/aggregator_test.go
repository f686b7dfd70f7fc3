package diag

import (
	"fmt"
	"sync"
	"testing"

	"idiomlint/internal/source"
)

func TestAggregatorOrdersByPathOffsetRule(t *testing.T) {
	fs := source.NewFileSet()
	zed := fs.AddVirtual("zed.cpp", []byte("0123456789"))
	alpha := fs.AddVirtual("alpha.cpp", []byte("0123456789"))

	agg := NewAggregator()
	agg.Add(New(SevWarning, UnusedVariable, source.Span{File: zed, Start: 1, End: 2}, "z1"))
	agg.Add(New(SevWarning, PreferPreIncrement, source.Span{File: alpha, Start: 5, End: 6}, "a5-pre"))
	agg.Add(New(SevWarning, UnreachableCode, source.Span{File: alpha, Start: 5, End: 9}, "a5-unr"))
	agg.Add(New(SevWarning, BoolLiteralComparison, source.Span{File: alpha, Start: 2, End: 3}, "a2"))

	got := agg.Finish(fs)
	want := []string{"a2", "a5-unr", "a5-pre", "z1"} // FLW3001 < STR2001
	if len(got) != len(want) {
		t.Fatalf("got %d diagnostics, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Message != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, d.Message, want[i])
		}
	}
}

func TestAggregatorDedupKeepsHighestSeverity(t *testing.T) {
	sp := source.Span{File: 0, Start: 3, End: 4}
	agg := NewAggregator()
	agg.Add(New(SevInfo, MagicNumber, sp, "literal 42"))
	agg.Add(New(SevWarning, MagicNumber, sp, "literal 42"))
	agg.Add(New(SevWarning, MagicNumber, sp, "literal 42"))

	got := agg.Finish(nil)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic after dedup, got %d", len(got))
	}
	if got[0].Severity != SevWarning {
		t.Fatalf("dedup kept %v, want WARNING", got[0].Severity)
	}
}

func TestAggregatorConcurrentInsertIsDeterministic(t *testing.T) {
	run := func() []Diagnostic {
		agg := NewAggregator()
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					off := uint32((w*50 + i) % 37) //nolint:gosec // small
					agg.Add(New(SevWarning, MagicNumber, source.Span{Start: off, End: off + 1}, fmt.Sprintf("w%d-%d", w, i)))
				}
			}(w)
		}
		wg.Wait()
		return agg.Finish(nil)
	}

	first, second := run(), run()
	if len(first) != 400 || len(second) != 400 {
		t.Fatalf("lost inserts: %d / %d", len(first), len(second))
	}
	for i := range first {
		if Compare(&first[i], &second[i], nil) != 0 {
			t.Fatalf("runs differ at %d: %q vs %q", i, first[i].Message, second[i].Message)
		}
	}
}

func TestAggregatorCountsFailures(t *testing.T) {
	agg := NewAggregator()
	agg.Add(NewError(ParseError, source.Span{}, "bad tree"))
	agg.AddAll([]Diagnostic{
		{Severity: SevInfo, Code: CheckInternalError, Origin: PreferArrow},
		{Severity: SevWarning, Code: PreferArrow},
	})
	parse, internal := agg.Failures()
	if parse != 1 || internal != 1 {
		t.Fatalf("Failures() = %d,%d; want 1,1", parse, internal)
	}
}

func TestDedupReporterFeedsBag(t *testing.T) {
	bag := NewBag(2)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 2}
	r.Report(MagicNumber, SevInfo, sp, "literal 7", nil, nil)
	r.Report(MagicNumber, SevInfo, sp, "literal 7", nil, nil)
	r.Report(MagicNumber, SevInfo, source.Span{Start: 4, End: 5}, "literal 8", nil, nil)
	r.Report(MagicNumber, SevInfo, source.Span{Start: 6, End: 7}, "literal 9", nil, nil)

	if bag.Len() != 2 {
		t.Fatalf("bag holds %d diagnostics, want 2", bag.Len())
	}
	if bag.HasWarnings() {
		t.Fatal("info findings are not warnings")
	}
	if got := bag.Items()[1].Message; got != "literal 8" {
		t.Fatalf("second item %q", got)
	}
}
