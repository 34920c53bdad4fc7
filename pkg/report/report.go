// Package report renders per-level cache statistics and the run-wide
// totals line described by §4.7, and keeps a sortable summary table
// across every process in a workload.
package report

import (
	"fmt"
	"io"

	"github.com/mlcachesim/mlcachesim/pkg/cache"
)

// Row is one rendered stats line: a level label plus its aggregated
// counters across Fetch/Read/Write.
type Row struct {
	Label      string
	HitCount   uint64
	MissCount  uint64
	Inclusions uint64
	HitCost    uint64
	MissCost   uint64
}

// Totals is the run-wide summary line appended after every level row.
type Totals struct {
	ElapsedTime  uint64
	TotalHits    uint64
	TotalMisses  uint64
	Inclusions   uint64
	Instructions uint64
}

// Build walks h's cache levels (the memory layer is excluded — it has
// no ways or inclusion accounting of its own) and produces one Row per
// level, labeling split L1 halves "L1I"/"L1D" and every other level
// "L<n>" in ascending order, matching the original reporter's
// numbering.
func Build(h *cache.Hierarchy) ([]Row, Totals) {
	rows := make([]Row, 0, h.OffEdge)
	var tot Totals

	level := 1
	for i := 0; i < h.OffEdge; i++ {
		lvl := h.Levels[i]
		c := lvl.Stats.Totals()

		label := fmt.Sprintf("L%d", level)
		if h.Split {
			switch i {
			case h.L1IIndex:
				label = "L1I"
			case h.L1DIndex:
				label = "L1D"
			}
		}
		rows = append(rows, Row{
			Label:      label,
			HitCount:   c.HitCount,
			MissCount:  c.MissCount,
			Inclusions: c.InclusionCount,
			HitCost:    c.HitCost,
			MissCost:   c.MissCost,
		})

		if !h.Split || i > h.L1IIndex {
			level++
		}

		tot.ElapsedTime += c.HitCost + c.MissCost
		tot.TotalHits += c.HitCount
		tot.TotalMisses += c.MissCount
		tot.Inclusions += c.InclusionCount
	}

	l1i := h.Levels[h.L1Index(cache.Fetch)].Stats.Counters(cache.Fetch)
	tot.Instructions = l1i.HitCount + l1i.MissCount

	return rows, tot
}

// Write renders rows and totals as plain text to w, in the exact
// column layout of the original reporter: a header line, one
// tab-separated row per level, then the totals sentence.
func Write(w io.Writer, rows []Row, totals Totals) error {
	if _, err := fmt.Fprintln(w, "level\tHits\tmisses\tincl.\thit t\tmiss t"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "$[%s]\t%d\t%d\t%d\t%d\t%d\n",
			r.Label, r.HitCount, r.MissCount, r.Inclusions, r.HitCost, r.MissCost); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total elapsed time %d, total hits %d, total misses %d, evictions for"+
		" inclusion %d; instructions: %d\n",
		totals.ElapsedTime, totals.TotalHits, totals.TotalMisses, totals.Inclusions, totals.Instructions)
	return err
}
