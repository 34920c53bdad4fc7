package cache

import (
	"fmt"

	"github.com/mlcachesim/mlcachesim/pkg/cacheway"
)

// HandleReference replays one (kind, addr) reference through the
// hierarchy: it probes L1, on miss searches the lower levels, then
// allocates the block upward from where it was found (or from memory),
// evicting victims and maintaining inclusion as it goes. Exception
// references are ignored: they return nil without touching cache state
// or statistics.
func (h *Hierarchy) HandleReference(kind Kind, addr uint64) error {
	if kind == Exception {
		return nil
	}

	l1 := h.L1Index(kind)
	l1Level := h.Levels[l1]

	// L1 probe.
	if way := l1Level.FindWayWith(addr); way < l1Level.Associativity() {
		c := l1Level.Stats.Counters(kind)
		c.HitCount++
		c.HitCost += l1Level.Spec().HitTime
		if kind == Write {
			l1Level.Way(way).SetBits(addr, cacheway.Modified)
		}
		return nil
	}

	// Lower-level search: the real hardware probes every level below
	// L1 in parallel; we only need the first one that actually holds
	// the block, and count the hit there; its own lookup_overhead is
	// charged naturally when the allocate-upward loop below reaches it.
	foundAt := h.OffEdge
	for lvl := h.StartL2; lvl < h.OffEdge; lvl++ {
		level := h.Levels[lvl]
		if way := level.FindWayWith(addr); way < level.Associativity() {
			level.Stats.Counters(kind).HitCount++
			foundAt = lvl
			break
		}
	}

	// Allocate the block upward from where it was found (or memory)
	// down to the L1 side that originally missed. Miss counting and
	// cost accumulation happen exactly once per level, in this loop —
	// including the L1 level itself, whose miss is the one that
	// triggered the whole walk.
	for level := foundAt - 1; level >= l1; level-- {
		// A fetch under a split L1 allocates into L1I only, never L1D.
		if h.Split && kind == Fetch && level == h.L1DIndex {
			continue
		}
		target := h.Levels[level]

		empty := target.FindEmptyWay(addr)
		if empty == target.Associativity() {
			victimWay := target.FindVictimWay(h.RNG)
			setIdx := target.Geometry().SetIndex(addr)
			status, _, err := target.Way(victimWay).StatusAt(setIdx)
			if err != nil {
				return err
			}
			if status&cacheway.Valid == 0 {
				return fmt.Errorf("associativity_error: chosen victim at level %d way %d is not valid", level, victimWay)
			}
			victimAddr := target.Way(victimWay).ReverseAddress(setIdx)

			if overhead := h.maintainInclusion(level, victimAddr, kind); overhead > 0 {
				target.Stats.Counters(kind).MissCost += overhead
			}

			if status&cacheway.Modified != 0 && level+1 < len(h.Levels) {
				h.Levels[level+1].WriteInLevel(victimAddr)
			}
			target.Way(victimWay).InvalidateAt(setIdx)
			target.Stats.Counters(kind).ReplaceCount++
			empty = victimWay
		}

		target.Way(empty).Insert(addr)
		if kind == Write && level == h.L1DIndex {
			target.Way(empty).SetBits(addr, cacheway.Modified)
		}

		// The first term is ordinarily this level's own lookup_overhead,
		// except at the L1 level: consulting L1 on the way up costs its
		// hit_time, not its lookup_overhead (the dominant code path this
		// was grounded on charges hit_time[L1] here).
		firstTerm := target.Spec().LookupOverhead
		if level == l1 {
			firstTerm = target.Spec().HitTime
		}
		var nextHitTime, nextLookupOverhead uint64
		next := level + 1
		if h.Split && level == h.L1IIndex {
			next = h.StartL2 // the L1I half's next level is L2, not L1D
		}
		if next < len(h.Levels) {
			nextHitTime = h.Levels[next].Spec().HitTime
			nextLookupOverhead = h.Levels[next].Spec().LookupOverhead
		}
		lc := target.Stats.Counters(kind)
		lc.MissCost += firstTerm + nextHitTime + nextLookupOverhead
		lc.MissCount++
	}

	return nil
}
