// Package victim implements the victim segment/section scan (spec.md §4.2),
// ground: get_victim_by_default, select_policy, check_bg_victims in
// original_source/fs/f2fs/gc.c.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package victim

import (
	"github.com/coldstore/flashgc/cost"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
)

// AllocMode mirrors select_policy's alloc_mode: LFS scans whole sections at
// the cost-model's chosen policy, SSR scans single segments of a named
// type, minimizing ckpt_valid_blocks.
type AllocMode int

const (
	LFS AllocMode = iota
	SSR
)

// Selector is the pluggable victim-selection capability (spec.md §9: "small
// capability-variant dispatch, not full polymorphism" — Default is the only
// implementation in this module; gcxact's VictimVariant keys (Test/Alt)
// let a caller install another Selector for one run).
type Selector interface {
	GetVictim(gcType dirty.GcType, ssrType *seg.Type) (segno uint32, ok bool)
}

// Default is the production victim selector, ground: get_victim_by_default.
type Default struct {
	Geo     seg.Geometry
	SIT     sit.Info
	Dirty   *dirty.Map
	Cur     seg.CurSegs
	Policy  cost.Policy // Greedy or CB, chosen by select_policy for LFS mode
	MaxScan uint32       // MAX_VICTIM_SEARCH
}

// GetVictim returns the section-start (LFS) or single segno (SSR) to
// evacuate next, or ok=false if nothing qualifies within the search bound.
// Caller does not hold dirty.Map's lock; GetVictim takes it for the scan's
// duration (spec.md §4.2 "Concurrency": seglist_lock).
func (d *Default) GetVictim(gcType dirty.GcType, ssrType *seg.Type) (uint32, bool) {
	d.Dirty.Lock()
	defer d.Dirty.Unlock()

	mode := LFS
	gcMode := dirty.CB
	if d.Policy == cost.Greedy {
		gcMode = dirty.Greedy
	}
	unitBits := d.Geo.SecBits
	if ssrType != nil {
		mode = SSR
		unitBits = 0
	}

	// FG fast path: steal a BG-pre-claimed victim outright, without scanning
	// (check_bg_victims). Preserves the "pop any bit, not minimum-cost" quirk.
	if gcType == dirty.FG && mode == LFS {
		if segno, ok := d.Dirty.PopBGVictim(); ok {
			return d.Geo.SecStart(segno), true
		}
	}

	scanMap := d.Dirty.ScanMap(ssrType)
	total := d.Dirty.TotalSegs()
	if total == 0 {
		return 0, false
	}

	maxCost := cost.MaxCost(d.Policy, d.Geo, unitBits)
	if mode == SSR {
		maxCost = cost.MaxCost(cost.SSR, d.Geo, 0)
	}

	minCost := maxCost
	minSegno := uint32(0)
	found := false

	last := d.Dirty.LastVictim(gcMode)
	start := seg.AlignDownToUnit(last, unitBits)

	nsearched := uint32(0)
	segno := start
	wrapped := false

	for {
		if segno >= total {
			if wrapped {
				break
			}
			wrapped = true
			segno = 0
			if segno == start {
				break
			}
		}
		if wrapped && segno >= start {
			break
		}

		unit := uint32(1) << unitBits
		segno = seg.AlignDownToUnit(segno, unitBits)

		if !d.segsDirty(scanMap, segno, unit) {
			segno += unit
			continue
		}

		secno := d.Geo.SecNo(segno)
		if d.Cur != nil && d.Cur.IsCurSec(secno) {
			segno += unit
			continue
		}

		if mode == LFS {
			if d.Dirty.TestVictim(dirty.FG, segno) || d.Dirty.TestVictim(dirty.BG, segno) {
				segno += unit
				continue
			}
		}

		nsearched++

		var c uint32
		switch {
		case mode == SSR:
			c = cost.SSRCost(d.SIT, segno)
		case d.Policy == cost.CB:
			c = cost.CBCost(d.SIT, d.Geo, segno)
		default:
			c = cost.GreedyCost(d.SIT, segno, unit)
		}

		if c == maxCost {
			segno += unit
			continue
		}
		if c < minCost {
			minCost = c
			minSegno = segno
			found = true
			if c == 0 {
				break
			}
		}

		// Only the MAX_VICTIM_SEARCH bound saves a resume cursor, and it
		// saves the scan position the bound was hit at, not the best
		// candidate found so far (ground: sbi->last_victim[p.gc_mode] =
		// segno, inside the nsearched++ >= MAX_VICTIM_SEARCH branch only).
		if nsearched >= d.MaxScan {
			d.Dirty.SetLastVictim(gcMode, segno)
			break
		}
		segno += unit
	}

	if !found {
		return 0, false
	}

	unit := uint32(1) << unitBits
	if mode == LFS {
		d.Dirty.SetVictimRange(gcType, minSegno, unit)
	}
	return minSegno, true
}

func (d *Default) segsDirty(m *seg.Bitset, segno, unit uint32) bool {
	for i := uint32(0); i < unit; i++ {
		if m.Test(segno + i) {
			return true
		}
	}
	return false
}
