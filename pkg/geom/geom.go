// Package geom implements the bit-geometry arithmetic shared by every
// level of the cache hierarchy: power-of-two checks, bit masks, and
// address decomposition into set-index and stored-tag.
package geom

import "math/bits"

// IsPow2 reports whether v has exactly one bit set. Zero is not a power
// of two.
func IsPow2(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// Log2 returns N such that v == 1<<N. The caller must have already
// confirmed v is a power of two; Log2 of zero or a non-power-of-two is
// not meaningful.
func Log2(v uint64) uint {
	return uint(bits.TrailingZeros64(v))
}

// MaskFor returns the low N bits set, for v == 1<<N. MaskFor(1) is 0
// (zero bits needed to index a single way or a single slot).
func MaskFor(v uint64) uint64 {
	if v <= 1 {
		return 0
	}
	return v - 1
}

// OffsetBits is the number of low-order bits consumed by a block's byte
// offset.
func OffsetBits(blockSize uint64) uint {
	return Log2(blockSize)
}

// IndexBits is the number of bits needed to select one of slotsPerWay
// sets.
func IndexBits(slotsPerWay uint64) uint {
	return Log2(slotsPerWay)
}

// Geometry bundles the per-way derived constants used to decompose an
// address into (set index, stored tag) and to reconstruct a
// representative address from a slot.
type Geometry struct {
	OffsetBits  uint
	IndexBits   uint
	AddressMask uint64
	IndexMask   uint64
}

// NewGeometry derives the address masks for a way holding slotsPerWay
// slots of blockSize bytes each. Both must already be known powers of
// two; callers validate with IsPow2 before constructing a Geometry.
func NewGeometry(blockSize, slotsPerWay uint64) Geometry {
	offsetBits := OffsetBits(blockSize)
	indexBits := IndexBits(slotsPerWay)
	return Geometry{
		OffsetBits:  offsetBits,
		IndexBits:   indexBits,
		AddressMask: ^MaskFor(1 << offsetBits),
		IndexMask:   MaskFor(1 << indexBits),
	}
}

// SetIndex returns the set (slot) index an address maps to within a way
// of this geometry.
func (g Geometry) SetIndex(addr uint64) uint64 {
	return ((addr & g.AddressMask) >> g.OffsetBits) & g.IndexMask
}

// StoredTag returns the tag bits an address would be stored under.
func (g Geometry) StoredTag(addr uint64) uint64 {
	return (addr >> g.OffsetBits) >> g.IndexBits
}

// RepresentativeAddress reconstructs a canonical address for a slot
// holding storedTag at slotIdx. It is not necessarily the original
// address that was inserted, only a canonical member of the same block
// — sufficient for hit tests and inclusion tracking against levels with
// equal or larger blocks.
func (g Geometry) RepresentativeAddress(slotIdx, storedTag uint64) uint64 {
	return ((storedTag << g.IndexBits) | slotIdx) << g.OffsetBits
}
