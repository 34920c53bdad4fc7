package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mlcachesim/mlcachesim/pkg/cache"
)

func TestBuildAndWriteScenarioA(t *testing.T) {
	h, err := cache.NewHierarchy([]cache.LevelSpec{
		{TotalBlocks: 512, BlockSize: 32, HitTime: 1, LookupOverhead: 0, Associativity: 1},
		{TotalBlocks: 0, BlockSize: 0, HitTime: 100, LookupOverhead: 0, Associativity: 0},
	}, cache.NewRNG(cache.DefaultSeed))
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}

	addrs := []uint64{0x1, 0x1F, 0x20, 0x1000}
	for _, a := range addrs {
		if err := h.HandleReference(cache.Fetch, a); err != nil {
			t.Fatalf("HandleReference: %v", err)
		}
	}

	rows, totals := Build(h)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Label != "L1" {
		t.Errorf("rows[0].Label = %q, want L1", rows[0].Label)
	}
	if totals.Instructions != totals.TotalHits+totals.TotalMisses {
		t.Errorf("instructions = %d, want hits+misses = %d", totals.Instructions, totals.TotalHits+totals.TotalMisses)
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows, totals); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "$[L1]") {
		t.Errorf("output missing level row: %q", out)
	}
	if !strings.Contains(out, "Total elapsed time") {
		t.Errorf("output missing totals line: %q", out)
	}
}

func TestTableSortsByElapsedTimeDescending(t *testing.T) {
	tbl := NewTable()
	tbl.Add(ProcessSummary{PID: 0, Totals: Totals{ElapsedTime: 10}})
	tbl.Add(ProcessSummary{PID: 1, Totals: Totals{ElapsedTime: 50}})
	tbl.Add(ProcessSummary{PID: 2, Totals: Totals{ElapsedTime: 30}})

	got := tbl.Summaries()
	if len(got) != 3 {
		t.Fatalf("len(Summaries()) = %d, want 3", len(got))
	}
	if got[0].PID != 1 || got[1].PID != 2 || got[2].PID != 0 {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	want := []ProcessSummary{{PID: 0, Path: "a.trace", Totals: Totals{ElapsedTime: 5}}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, want); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(got) != 1 || got[0].PID != 0 || got[0].Totals.ElapsedTime != 5 {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
