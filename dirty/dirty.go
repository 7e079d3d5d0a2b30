// Package dirty owns the dirty/victim segment bitmaps and the last_victim
// scan cursors (spec.md §3 "Dirty segment maps", §9 design note: these are
// per-filesystem-handle state, never a package-level global).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package dirty

import (
	"sync"

	"github.com/coldstore/flashgc/seg"
)

// GcType distinguishes background from foreground GC (spec.md Glossary).
type GcType int

const (
	BG GcType = iota
	FG
)

func (t GcType) String() string {
	if t == BG {
		return "bg"
	}
	return "fg"
}

// GcMode distinguishes the two cost-model scan cursors (spec.md §4.1):
// greedy and cost-benefit each keep their own last_victim offset.
type GcMode int

const (
	Greedy GcMode = iota
	CB
)

// Map holds dirty_segmap[t] per type, the dirty_segmap[DIRTY] union,
// victim_segmap[BG]/[FG], and last_victim[gc_mode] — all guarded by one
// mutex standing in for seglist_lock (spec.md §5, nested inside the
// caller's sentry_lock).
type Map struct {
	mu sync.Mutex

	perType [seg.NumTypes]*seg.Bitset
	union   *seg.Bitset
	victim  [2]*seg.Bitset // indexed by GcType
	last    [2]uint32      // indexed by GcMode

	n uint32
}

func New(totalSegs uint32) *Map {
	m := &Map{n: totalSegs}
	for i := range m.perType {
		m.perType[i] = seg.NewBitset(totalSegs)
	}
	m.union = seg.NewBitset(totalSegs)
	m.victim[BG] = seg.NewBitset(totalSegs)
	m.victim[FG] = seg.NewBitset(totalSegs)
	return m
}

// Lock/Unlock expose seglist_lock to the victim selector, which must hold
// it for the whole scan (spec.md §4.2 "Concurrency").
func (m *Map) Lock()   { m.mu.Lock() }
func (m *Map) Unlock() { m.mu.Unlock() }

// MarkDirty adds segno to dirty_segmap[t] and the DIRTY union (I1).
func (m *Map) MarkDirty(t seg.Type, segno uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perType[t].Set(segno)
	m.union.Set(segno)
}

// ClearDirty removes segno from dirty_segmap[t] and the union — called
// when a segment is fully reclaimed or chosen for SSR (spec.md §3
// lifecycle).
func (m *Map) ClearDirty(t seg.Type, segno uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perType[t].Clear(segno)
	m.union.Clear(segno)
}

func (m *Map) IsDirty(t seg.Type, segno uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perType[t].Test(segno)
}

// ScanMap returns the bitmap the victim scan should walk: dirty_segmap[t]
// for an SSR scan restricted to type t, dirty_segmap[DIRTY] otherwise.
// Caller must already hold the lock.
func (m *Map) ScanMap(ssrType *seg.Type) *seg.Bitset {
	if ssrType != nil {
		return m.perType[*ssrType]
	}
	return m.union
}

// LastVictim/SetLastVictim read and save the scan cursor for mode. Caller
// must hold the lock (the victim scan reads and saves it mid-scan).
func (m *Map) LastVictim(mode GcMode) uint32 {
	return m.last[mode]
}

func (m *Map) SetLastVictim(mode GcMode, v uint32) {
	m.last[mode] = v
}

// TestVictim reports whether segno is already tentatively claimed under
// gcType. Caller must hold the lock (scan-time check).
func (m *Map) TestVictim(t GcType, segno uint32) bool {
	return m.victim[t].Test(segno)
}

// SetVictimRange marks [start, start+n) claimed under gcType — step 8 of
// get_victim, run after a successful LFS-mode selection. Caller must hold
// the lock.
func (m *Map) SetVictimRange(t GcType, start, n uint32) {
	for i := uint32(0); i < n; i++ {
		m.victim[t].Set(start + i)
	}
}

// ClearVictim releases a single segno's claim under gcType. The orchestrator
// does not call it: claims set by a selection stay set after evacuation.
func (m *Map) ClearVictim(t GcType, segno uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.victim[t].Clear(segno)
}

// PopBGVictim implements check_bg_victims: pulls *a* set bit out of
// victim_segmap[BG] (not necessarily the minimum-cost one — intentional,
// amortizing BG's prior scan work, see spec.md §9 "quirks to preserve").
// Caller must hold the lock.
func (m *Map) PopBGVictim() (uint32, bool) {
	segno, ok := m.victim[BG].NextSet(0)
	if !ok {
		return 0, false
	}
	m.victim[BG].Clear(segno)
	return segno, true
}

// TotalSegs reports the segment count the victim scan walks; the bitmaps
// themselves are reached through ScanMap under the lock.
func (m *Map) TotalSegs() uint32 { return m.n }
