// Package sit models the segment-info table (SIT): per-segment validity,
// valid-block counts, and the mtime watermarks the cost-benefit policy
// needs. It is an out-of-scope collaborator per spec.md §1/§6 — this
// package defines the contract the GC core consumes plus one in-memory
// reference implementation (used by tests and simdev).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package sit

import (
	"sync"

	"github.com/coldstore/flashgc/seg"
)

// Entry is the persistent per-segment record, ground: spec.md §3 "SIT".
type Entry struct {
	Mtime           uint64
	CkptValidBlocks uint32
	CurValidMap     *seg.Bitset // length BlocksPerSeg
}

// Info is the SIT collaborator contract consumed by CostModel, VictimSelector
// and LiveMap (spec.md §6: get_seg_entry, get_valid_blocks, min/max_mtime).
type Info interface {
	// SegEntry returns the persistent record for segno.
	SegEntry(segno uint32) *Entry
	// ValidBlocks sums currently-valid blocks over nsegs segments starting
	// at segno (nsegs=1 for SSR/per-segment scans, segsPerSec for
	// section-granularity LFS scans). Ground: get_valid_blocks.
	ValidBlocks(segno uint32, nsegs uint32) uint32
	// CkptValidBlocks is the valid-block count as of the last checkpoint,
	// the cost SSR wants minimized.
	CkptValidBlocks(segno uint32) uint32
	// MinMaxMtime returns the current (min_mtime, max_mtime) pair.
	MinMaxMtime() (min, max uint64)
	// Observe widens (min_mtime, max_mtime) to include mtime — I5.
	Observe(mtime uint64)
	// CheckValidMap reports whether block `off` of `segno` is marked live,
	// taking sentry_lock internally (spec.md §4.3 check_valid_map).
	CheckValidMap(segno uint32, off uint32) bool
}

// MemInfo is an in-memory reference SIT, safe for concurrent use. It is the
// `sentry_lock`-equivalent critical section: every read/write to mtime
// bounds or cur_valid_map goes through its mutex.
type MemInfo struct {
	mu      sync.Mutex
	entries []*Entry
	minMt   uint64
	maxMt   uint64
	geo     seg.Geometry
}

func NewMemInfo(geo seg.Geometry) *MemInfo {
	mi := &MemInfo{
		entries: make([]*Entry, geo.TotalSegs),
		geo:     geo,
	}
	for i := range mi.entries {
		mi.entries[i] = &Entry{CurValidMap: seg.NewBitset(geo.BlocksPerSeg())}
	}
	return mi
}

func (m *MemInfo) SegEntry(segno uint32) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[segno]
}

func (m *MemInfo) ValidBlocks(segno uint32, nsegs uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint32
	for i := uint32(0); i < nsegs; i++ {
		e := m.entries[segno+i]
		total += e.CurValidMap.Count(0, m.geo.BlocksPerSeg())
	}
	return total
}

func (m *MemInfo) CkptValidBlocks(segno uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[segno].CkptValidBlocks
}

func (m *MemInfo) MinMaxMtime() (uint64, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minMt, m.maxMt
}

// Observe widens (min_mtime, max_mtime); ground: get_cb_cost's "Handle if
// the system time is changed by user" clamp, generalized into its own
// method so every mtime-producing call site (not just CB cost) keeps I5.
func (m *MemInfo) Observe(mtime uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.minMt == 0 && m.maxMt == 0 {
		m.minMt, m.maxMt = mtime, mtime
		return
	}
	if mtime < m.minMt {
		m.minMt = mtime
	}
	if mtime > m.maxMt {
		m.maxMt = mtime
	}
}

func (m *MemInfo) CheckValidMap(segno uint32, off uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[segno].CurValidMap.Test(off)
}

// SetValid is a test/simdev helper to mark a block live or invalid and
// bump ckpt_valid_blocks accordingly (mtime is set separately by SetMtime);
// not part of the spec contract.
func (m *MemInfo) SetValid(segno, off uint32, valid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[segno]
	wasValid := e.CurValidMap.Test(off)
	if valid == wasValid {
		return
	}
	if valid {
		e.CurValidMap.Set(off)
		e.CkptValidBlocks++
	} else {
		e.CurValidMap.Clear(off)
		if e.CkptValidBlocks > 0 {
			e.CkptValidBlocks--
		}
	}
}

func (m *MemInfo) SetMtime(segno uint32, mtime uint64) {
	m.mu.Lock()
	m.entries[segno].Mtime = mtime
	m.mu.Unlock()
	m.Observe(mtime)
}
