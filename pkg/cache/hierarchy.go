package cache

import "fmt"

// Hierarchy is an ordered sequence of cache levels terminated by the
// memory layer. It is constructed cold for one process, driven through
// that process's entire trace, reported, then discarded — stats never
// persist across a hierarchy's lifetime.
type Hierarchy struct {
	Levels []*Level // includes the terminal memory layer as the last element

	L1IIndex    int
	L1DIndex    int
	StartL2     int
	OffEdge     int // index of the memory layer
	Split       bool
	RNG         *RNG
}

// NewHierarchy instantiates one Level per spec, in order. specs must
// end with a memory-layer spec (Associativity == 0); every other spec
// must already have passed LevelSpec.Validate via the caller (config
// parsing), but NewHierarchy re-validates defensively since the core
// must never trust external input blindly.
func NewHierarchy(specs []LevelSpec, rng *RNG) (*Hierarchy, error) {
	if len(specs) < 1 {
		return nil, fmt.Errorf("config_error: hierarchy requires at least a memory layer")
	}
	last := specs[len(specs)-1]
	if !last.IsMemory() {
		return nil, fmt.Errorf("bad_cache_id: final level must be the memory layer")
	}
	for _, s := range specs[:len(specs)-1] {
		if s.IsMemory() {
			return nil, fmt.Errorf("config_error: zeros only permitted in the final (memory) layer")
		}
	}

	split := specs[0].Split
	for i, s := range specs {
		if s.Split && i != 0 {
			return nil, fmt.Errorf("bad_cache_id: only level 0 may set split")
		}
	}

	levels := make([]*Level, len(specs))
	for i, s := range specs {
		lvl, err := NewLevel(s)
		if err != nil {
			return nil, err
		}
		levels[i] = lvl
	}

	h := &Hierarchy{
		Levels:   levels,
		L1IIndex: 0,
		Split:    split,
		OffEdge:  len(levels) - 1,
		RNG:      rng,
	}
	if split {
		h.L1DIndex = 1
		h.StartL2 = 2
	} else {
		h.L1DIndex = 0
		h.StartL2 = 1
	}
	if h.StartL2 > h.OffEdge {
		return nil, fmt.Errorf("config_error: split L1 requires a data-half record before the memory layer")
	}
	return h, nil
}

// LevelCount is the number of real cache levels, excluding the memory
// layer; a split L1 counts as one level.
func (h *Hierarchy) LevelCount() int {
	n := h.OffEdge
	if h.Split {
		n--
	}
	return n
}

// Memory returns the terminal memory layer.
func (h *Hierarchy) Memory() *Level {
	return h.Levels[h.OffEdge]
}

// L1Index returns the L1 side (instruction or data half) a reference of
// kind k probes first.
func (h *Hierarchy) L1Index(k Kind) int {
	if k == Fetch {
		return h.L1IIndex
	}
	return h.L1DIndex
}
