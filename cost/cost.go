// Package cost implements the per-segment/per-section cost functions the
// victim selector minimizes: greedy, cost-benefit (CB), and SSR (spec.md
// §4.1).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cost

import (
	"math"

	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
)

// Policy selects which formula get_gc_cost should apply.
type Policy int

const (
	Greedy Policy = iota
	CB
	SSR
)

// MaxCost returns the "worst possible" cost value for the policy, used both
// as the scan's initial min_cost and, for greedy, as the "full section/
// segment, not worth counting" sentinel (spec.md §4.2 step 7).
func MaxCost(policy Policy, geo seg.Geometry, logOfsUnit uint) uint32 {
	switch policy {
	case Greedy, SSR:
		return uint32(1) << (geo.SegBits + logOfsUnit)
	case CB:
		return math.MaxUint32
	default:
		return 0
	}
}

// Greedy cost is simply the number of still-valid blocks over the scan
// unit (one segment for SSR, one section for LFS/BG-FG greedy).
func GreedyCost(si sit.Info, segno uint32, nsegs uint32) uint32 {
	return si.ValidBlocks(segno, nsegs)
}

// SSRCost prefers the segment with the fewest ckpt-valid blocks, for
// in-place slack-space reuse by the allocator.
func SSRCost(si sit.Info, segno uint32) uint32 {
	return si.CkptValidBlocks(segno)
}

// CBCost computes the cost-benefit score for the section starting at
// secStart: UINT_MAX minus a benefit term that rewards low utilization and
// old age. Lower cost is still "better" so every policy shares one
// comparator (spec.md §4.1 rationale). Ported verbatim from get_cb_cost,
// including the min/max mtime widening fold-in (I5) and the
// truncating-integer-division age/utilization math.
func CBCost(si sit.Info, geo seg.Geometry, secStart uint32) uint32 {
	nsegs := geo.SegsPerSec()

	var mtimeSum uint64
	for i := uint32(0); i < nsegs; i++ {
		mtimeSum += si.SegEntry(secStart + i).Mtime
	}
	vblocks := si.ValidBlocks(secStart, nsegs)

	mtimeAvg := mtimeSum >> geo.SecBits
	vblocksAvg := uint64(vblocks) >> geo.SecBits

	u := (vblocksAvg * 100) >> geo.SegBits

	// Handle if the system time is changed by user (I5: widen, never shrink).
	si.Observe(mtimeAvg)
	minMt, maxMt := si.MinMaxMtime()

	age := uint64(100)
	if maxMt != minMt {
		age = 100 - (100*(mtimeAvg-minMt))/(maxMt-minMt)
	}

	benefit := (100 * (100 - u) * age) / (100 + u)
	return uint32(math.MaxUint32) - uint32(benefit)
}
