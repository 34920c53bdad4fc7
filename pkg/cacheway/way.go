// Package cacheway implements a single raw direct-mapped way: a fixed
// array of (tag, status) slots indexed by set-index, with no notion of
// associativity or latency — those are the associative level's concern.
package cacheway

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/mlcachesim/mlcachesim/pkg/geom"
)

// Status is a bit-set over a slot's state.
type Status uint8

const (
	Invalid   Status = 0
	Valid     Status = 1 << iota
	Modified
	Shared
	Exclusive
)

func (s Status) String() string {
	if s == Invalid {
		return "INVALID"
	}
	out := ""
	add := func(name string) {
		if out != "" {
			out += "|"
		}
		out += name
	}
	if s&Valid != 0 {
		add("VALID")
	}
	if s&Modified != 0 {
		add("MODIFIED")
	}
	if s&Shared != 0 {
		add("SHARED")
	}
	if s&Exclusive != 0 {
		add("EXCLUSIVE")
	}
	return out
}

type slot struct {
	status    Status
	storedTag uint64
}

// RawWay is a single direct-mapped array of slots. Slots are addressed
// by set-index, derived externally from an address via geom.Geometry.
type RawWay struct {
	geom  geom.Geometry
	slots []slot
	// valid mirrors which slot indices currently carry VALID, so that
	// occupancy queries from the owning level (ValidAt, Occupied) read
	// the bitset instead of the slot array; IntegrityCheck compares the
	// two on every slot.
	valid *bitset.BitSet
}

// New constructs an empty way with slotCount slots described by g.
func New(g geom.Geometry, slotCount uint64) *RawWay {
	return &RawWay{
		geom:  g,
		slots: make([]slot, slotCount),
		valid: bitset.New(uint(slotCount)),
	}
}

// SlotCount returns the number of addressable slots in this way.
func (w *RawWay) SlotCount() uint64 {
	return uint64(len(w.slots))
}

// Hit reports whether addr is currently resident (VALID, matching tag).
func (w *RawWay) Hit(addr uint64) bool {
	idx := w.geom.SetIndex(addr)
	s := &w.slots[idx]
	return s.status&Valid != 0 && s.storedTag == w.geom.StoredTag(addr)
}

// HitAt reports whether slotIdx is VALID and its stored tag equals tag.
// Used by the level when it already knows the slot index (e.g. when
// scanning a fixed set across ways).
func (w *RawWay) HitAt(slotIdx, tag uint64) bool {
	s := &w.slots[slotIdx]
	return s.status&Valid != 0 && s.storedTag == tag
}

// Insert installs addr's block into this way's slot, clearing any prior
// MODIFIED/SHARED/EXCLUSIVE bits. A zero stored tag (common for
// addresses below one way's total span) is installed like any other —
// residency is never inferred from the tag's value, only from the
// VALID bit and its mirrored occupancy bit.
func (w *RawWay) Insert(addr uint64) {
	idx := w.geom.SetIndex(addr)
	tag := w.geom.StoredTag(addr)
	w.slots[idx] = slot{status: Valid, storedTag: tag}
	w.valid.Set(uint(idx))
}

// Invalidate clears the slot addr maps to.
func (w *RawWay) Invalidate(addr uint64) {
	idx := w.geom.SetIndex(addr)
	w.slots[idx] = slot{}
	w.valid.Clear(uint(idx))
}

// InvalidateAt clears a slot by index directly, used once a victim way
// and index have already been chosen.
func (w *RawWay) InvalidateAt(slotIdx uint64) {
	w.slots[slotIdx] = slot{}
	w.valid.Clear(uint(slotIdx))
}

// SetBits ORs additional status bits onto the slot addr maps to.
func (w *RawWay) SetBits(addr uint64, bits Status) {
	idx := w.geom.SetIndex(addr)
	w.slots[idx].status |= bits
}

// MustWriteback reports whether the slot addr maps to is VALID and
// MODIFIED.
func (w *RawWay) MustWriteback(addr uint64) bool {
	s := w.slots[w.geom.SetIndex(addr)]
	return s.status&(Valid|Modified) == Valid|Modified
}

// Status returns the current status bits of the slot addr maps to.
func (w *RawWay) Status(addr uint64) Status {
	return w.slots[w.geom.SetIndex(addr)].status
}

// StatusAt returns the status bits and stored tag at a known slot
// index, used by victim selection once a way has been picked.
func (w *RawWay) StatusAt(slotIdx uint64) (Status, uint64, error) {
	if slotIdx >= uint64(len(w.slots)) {
		return 0, 0, fmt.Errorf("bad_block_index: slot %d out of range [0,%d)", slotIdx, len(w.slots))
	}
	s := w.slots[slotIdx]
	return s.status, s.storedTag, nil
}

// ReverseAddress reconstructs the representative address currently held
// at slotIdx, for use when evicting a victim whose original address is
// no longer known.
func (w *RawWay) ReverseAddress(slotIdx uint64) uint64 {
	return w.geom.RepresentativeAddress(slotIdx, w.slots[slotIdx].storedTag)
}

// ValidAt reports whether the slot at slotIdx is currently VALID,
// consulting the occupancy bitset rather than the slot array directly.
func (w *RawWay) ValidAt(slotIdx uint64) bool {
	return w.valid.Test(uint(slotIdx))
}

// IntegrityCheck reports false if the occupancy bitset and the slots'
// own VALID bits ever disagree about which slots are resident. A
// legitimately zero stored tag (e.g. stored_tag(0x1) == 0 under most
// geometries) is an ordinary value, not corruption — residency is
// tracked solely by the VALID bit plus the mirrored occupancy bitset,
// never inferred from the tag, so this check must never flag a VALID
// zero-tag slot.
func (w *RawWay) IntegrityCheck() bool {
	for i := range w.slots {
		bitSet := w.valid.Test(uint(i))
		statusSet := w.slots[i].status&Valid != 0
		if bitSet != statusSet {
			return false
		}
	}
	return true
}

// Occupied returns the count of currently VALID slots.
func (w *RawWay) Occupied() int {
	return int(w.valid.Count())
}
