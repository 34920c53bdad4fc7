package cache

import (
	"fmt"

	"github.com/mlcachesim/mlcachesim/pkg/cacheway"
	"github.com/mlcachesim/mlcachesim/pkg/geom"
)

// LevelSpec is the validated geometry of one cache level, or the
// terminal memory layer when Associativity is zero. External adapters
// (config parsing) produce these; the core never reads a raw
// configuration line directly.
type LevelSpec struct {
	TotalBlocks    uint64
	BlockSize      uint64
	HitTime        uint64
	LookupOverhead uint64
	Associativity  uint64
	Split          bool
}

// IsMemory reports whether this spec describes the terminal memory
// layer rather than a real cache level.
func (s LevelSpec) IsMemory() bool {
	return s.Associativity == 0
}

// Validate checks the invariants of §3/§4.4: power-of-two block counts
// and sizes, associativity dividing total blocks, and that a memory
// layer carries no cache geometry at all.
func (s LevelSpec) Validate() error {
	if s.IsMemory() {
		if s.TotalBlocks != 0 || s.BlockSize != 0 {
			return fmt.Errorf("config_error: memory layer must have zero block count and block size")
		}
		return nil
	}
	if !geom.IsPow2(s.TotalBlocks) {
		return fmt.Errorf("bad_block_count: total_blocks %d is not a power of two", s.TotalBlocks)
	}
	if !geom.IsPow2(s.BlockSize) {
		return fmt.Errorf("bad_cache_size: block_size %d is not a power of two", s.BlockSize)
	}
	if !geom.IsPow2(s.Associativity) {
		return fmt.Errorf("bad_associativity: associativity %d is not a power of two", s.Associativity)
	}
	if s.TotalBlocks%s.Associativity != 0 {
		return fmt.Errorf("bad_associativity: associativity %d does not divide total_blocks %d", s.Associativity, s.TotalBlocks)
	}
	return nil
}

// Level is an associative cache level: an ordered collection of raw
// ways plus latency parameters and a statistics bundle. A Level with
// Associativity == 0 is the terminal memory layer, whose "find"
// operations always miss and whose WriteInLevel is a no-op.
type Level struct {
	spec      LevelSpec
	geom      geom.Geometry
	ways      []*cacheway.RawWay
	assocMask uint64
	Stats     StatBundle
}

// NewLevel constructs a Level from an already-validated spec.
func NewLevel(spec LevelSpec) (*Level, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	lvl := &Level{spec: spec}
	if spec.IsMemory() {
		return lvl, nil
	}
	slotsPerWay := spec.TotalBlocks / spec.Associativity
	lvl.geom = geom.NewGeometry(spec.BlockSize, slotsPerWay)
	lvl.assocMask = geom.MaskFor(spec.Associativity)
	lvl.ways = make([]*cacheway.RawWay, spec.Associativity)
	for i := range lvl.ways {
		lvl.ways[i] = cacheway.New(lvl.geom, slotsPerWay)
	}
	return lvl, nil
}

// Spec returns the geometry this level was constructed from.
func (l *Level) Spec() LevelSpec { return l.spec }

// Geometry returns the address-decomposition geometry for this level.
// Calling it on the memory layer is a programming error.
func (l *Level) Geometry() geom.Geometry { return l.geom }

// Associativity returns the number of ways (0 for the memory layer).
func (l *Level) Associativity() uint64 { return l.spec.Associativity }

// FindWayWith returns the way index whose raw hit test succeeds for
// addr, or Associativity() as the sentinel "miss". The memory layer
// (Associativity 0) always returns its own Associativity(), i.e. 0,
// which is simultaneously "no ways" and "miss".
func (l *Level) FindWayWith(addr uint64) uint64 {
	for i, w := range l.ways {
		if w.Hit(addr) {
			return uint64(i)
		}
	}
	return l.spec.Associativity
}

// FindEmptyWay returns the first way whose slot at addr's set index is
// not VALID, or Associativity() if every way is occupied.
func (l *Level) FindEmptyWay(addr uint64) uint64 {
	if l.spec.IsMemory() {
		return 0
	}
	idx := l.geom.SetIndex(addr)
	for i, w := range l.ways {
		if !w.ValidAt(idx) {
			return uint64(i)
		}
	}
	return l.spec.Associativity
}

// FindVictimWay picks a way uniformly at random from an rng draw,
// masked down to the associativity. Only called once every way at this
// set is known to be occupied.
func (l *Level) FindVictimWay(rng *RNG) uint64 {
	return rng.Next() & l.assocMask
}

// Way returns the raw way at index i.
func (l *Level) Way(i uint64) *cacheway.RawWay {
	return l.ways[i]
}

// WriteInLevel marks addr's block MODIFIED wherever it is resident in
// this level, used to propagate a writeback into the next level down
// on eviction. A no-op on the memory layer.
func (l *Level) WriteInLevel(addr uint64) {
	for _, w := range l.ways {
		if w.Hit(addr) {
			w.SetBits(addr, cacheway.Modified)
			return
		}
	}
}

// IntegrityCheck reports whether every way of this level satisfies the
// tag-integrity invariant (§8 property 2).
func (l *Level) IntegrityCheck() bool {
	for _, w := range l.ways {
		if !w.IntegrityCheck() {
			return false
		}
	}
	return true
}
