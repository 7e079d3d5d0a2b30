// Package gcstats tracks GC call/segment/block counters and computes the
// block-distribution-factor diagnostic, ground: f2fs_update_stat/
// f2fs_update_gc_metric in original_source/fs/f2fs/gc.c for the metric and
// the teacher stats lineage (stats/common.go) for the Tracker shape:
// name-keyed atomic counters, jsoniter-serialized snapshots.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package gcstats

import (
	uatomic "go.uber.org/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
)

// Counter names, ground: the teacher's "*.n" (count) naming convention.
const (
	GcCallsN     = "gc.calls.n"
	GcBgCallsN   = "gc.bg.calls.n"
	NodeSegsN    = "gc.node.segs.n"
	DataSegsN    = "gc.data.segs.n"
	BlocksMovedN = "gc.blocks.moved.n"
	CheckpointsN = "gc.checkpoints.n"
)

// Tracker is the counter collaborator contract, ground: stats.Tracker's
// Inc/Add split (Inc for unit events, Add for arbitrary deltas).
type Tracker interface {
	Inc(name string)
	Add(name string, val int64)
	Get(name string) int64
}

// statsValue wraps uatomic.Int64 rather than a bare int64, ground: the
// teacher's preference for go.uber.org/atomic typed counters over raw
// sync/atomic words.
type statsValue struct {
	v uatomic.Int64
}

func (v *statsValue) MarshalJSON() ([]byte, error)  { return jsoniter.Marshal(v.v.Load()) }
func (v *statsValue) UnmarshalJSON(b []byte) error {
	var n int64
	if err := jsoniter.Unmarshal(b, &n); err != nil {
		return err
	}
	v.v.Store(n)
	return nil
}

// MemTracker is an in-memory Tracker, safe for concurrent use via each named
// counter's atomic.Int64.
type MemTracker struct {
	tab map[string]*statsValue
}

func NewMemTracker() *MemTracker {
	t := &MemTracker{tab: make(map[string]*statsValue)}
	for _, name := range []string{GcCallsN, GcBgCallsN, NodeSegsN, DataSegsN, BlocksMovedN, CheckpointsN} {
		t.tab[name] = &statsValue{}
	}
	return t
}

func (t *MemTracker) Inc(name string) { t.Add(name, 1) }

func (t *MemTracker) Add(name string, val int64) {
	v, ok := t.tab[name]
	if !ok {
		v = &statsValue{}
		t.tab[name] = v
	}
	v.v.Add(val)
}

func (t *MemTracker) Get(name string) int64 {
	v, ok := t.tab[name]
	if !ok {
		return 0
	}
	return v.v.Load()
}

// Snapshot returns a JSON-serializable copy of every counter, ground: the
// teacher's GetStats()/copyTracker pattern.
func (t *MemTracker) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(t.tab))
	for name, v := range t.tab {
		out[name] = v.v.Load()
	}
	return out
}

// BDF is the block distribution factor: the fraction of segments, among
// those holding at least one valid block, that are "dirty" (partially
// valid) rather than fully valid or fully free. Ground: f2fs_update_gc_metric,
// which reports this (scaled x100) as sbi->bg_gc vs. the dirty/valid seg
// counts to gauge fragmentation pressure on the background worker's
// idleness heuristic.
func BDF(si sit.Info, geo seg.Geometry) float64 {
	var dirtySegs, validSegs uint32
	bps := geo.BlocksPerSeg()
	for segno := uint32(0); segno < geo.TotalSegs; segno++ {
		vb := si.ValidBlocks(segno, 1)
		if vb == 0 {
			continue
		}
		validSegs++
		if vb < bps {
			dirtySegs++
		}
	}
	if validSegs == 0 {
		return 0
	}
	return float64(dirtySegs) / float64(validSegs)
}
