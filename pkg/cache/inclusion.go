package cache

// maintainInclusion purges evictedAddr from every level above (closer
// to the CPU than) evictedLevel, preserving the inclusion invariant
// (§3, §8 property 1) after a slot at evictedLevel has been chosen for
// eviction. It returns the largest lookup_overhead among the levels it
// scanned, which the caller folds into the miss-triggering level's
// miss cost (hardware performs these lookups in parallel; only the
// slowest is on the critical path).
func (h *Hierarchy) maintainInclusion(evictedLevel int, evictedAddr uint64, kind Kind) uint64 {
	if evictedLevel <= h.L1DIndex {
		return 0
	}

	biggestBelow := h.Levels[evictedLevel].Spec().BlockSize
	for k := 0; k < evictedLevel; k++ {
		if bs := h.Levels[k].Spec().BlockSize; bs > biggestBelow {
			biggestBelow = bs
		}
	}

	var maxLookupOverhead uint64
	for j := 0; j < evictedLevel; j++ {
		lvl := h.Levels[j]
		if lo := lvl.Spec().LookupOverhead; lo > maxLookupOverhead {
			maxLookupOverhead = lo
		}

		blockSize := lvl.Spec().BlockSize
		// biggestBelow >= blockSize always (j ranges over levels at or
		// above the eviction, and biggestBelow is the max block size
		// across that same range), so this quotient is always >= 1:
		// one purge per biggestBelow-sized region, more when this
		// level's own blocks are smaller than the evicted block.
		blocks := biggestBelow / blockSize
		if blocks < 1 {
			blocks = 1
		}
		aligned := evictedAddr &^ (biggestBelow - 1)

		for b := uint64(0); b < blocks; b++ {
			addr := aligned + b*blockSize
			if purgeOneAddress(h, j, addr) {
				lvl.Stats.Counters(kind).InclusionCount++
			}
		}
	}
	return maxLookupOverhead
}

// purgeOneAddress invalidates addr at level j if resident, writing it
// back into level j+1 first when it was MODIFIED. Reports whether a
// slot was actually purged.
func purgeOneAddress(h *Hierarchy, j int, addr uint64) bool {
	lvl := h.Levels[j]
	for wi := uint64(0); wi < lvl.Associativity(); wi++ {
		w := lvl.Way(wi)
		if !w.Hit(addr) {
			continue
		}
		if w.MustWriteback(addr) && j+1 < len(h.Levels) {
			h.Levels[j+1].WriteInLevel(addr)
		}
		w.Invalidate(addr)
		return true
	}
	return false
}
