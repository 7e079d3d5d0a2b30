// Package evac implements the two evacuation pipelines: NodeEvacuator
// (two-phase) and DataEvacuator (four-phase), ground: gc_node_segment and
// gc_data_segment in original_source/fs/f2fs/gc.c.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package evac

import (
	"github.com/coldstore/flashgc/cmn"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/nat"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
	"github.com/coldstore/flashgc/ssa"
)

// CheckpointGate lets the evacuators poll for checkpoint pressure between
// iterations, ground: should_do_checkpoint, called fresh every loop pass so
// a long-running section evacuation can be pre-empted rather than holding
// cp_mutex indefinitely (spec.md §5 lock order: gc_mutex before cp_mutex).
type CheckpointGate interface {
	ShouldCheckpoint() bool
}

// NodeEvacuator relocates every live node block out of one node segment.
// Ground: gc_node_segment's single-phase-per-block loop (readahead once up
// front, then per-nid check+relocate), generalized here into the spec's
// named two phases: readahead, then dirty+writeback.
type NodeEvacuator struct {
	NAT seg.Geometry // kept for symmetry/future use; segment geometry of node area
	Nat nat.Store
	SSA ssa.Store
	SIT sit.Info
	CP  CheckpointGate
}

// Evacuate relocates segno (a node segment). gcType chooses the write path:
// FG evacuation synchronously syncs dirtied pages before returning so the
// caller's checkpoint sees a consistent state; BG leaves them for the
// ordinary background writer.
func (e *NodeEvacuator) Evacuate(segno uint32, blocksPerSeg uint32, gcType dirty.GcType) (cmn.Result, error) {
	block, err := e.SSA.GetSumBlock(segno)
	if err != nil {
		return cmn.ResError, err
	}
	if block.Type != ssa.TypeNode {
		return cmn.ResError, nil
	}

	// Phase 1: readahead every named node page before touching any of them.
	// check_valid_map gates the readahead too: a block already invalidated
	// needs no I/O at all, not even a readahead.
	for off, entry := range block.Entries {
		if !e.SIT.CheckValidMap(segno, uint32(off)) {
			continue
		}
		e.Nat.RaNodePage(entry.Nid)
	}

	// Phase 2: validate and relocate.
	var dirtied []*nat.NodePage
	for off, entry := range block.Entries {
		if e.CP != nil && e.CP.ShouldCheckpoint() {
			return cmn.ResBlocked, nil
		}
		if !e.SIT.CheckValidMap(segno, uint32(off)) {
			continue
		}

		info, err := e.Nat.GetNodeInfo(entry.Nid)
		if err != nil {
			continue // GC_NEXT: the nid was already freed or relocated
		}
		if info.Version != entry.Version {
			continue
		}

		page, err := e.Nat.GetNodePage(entry.Nid)
		if err != nil {
			continue
		}
		if e.Nat.MarkDirty(page) {
			dirtied = append(dirtied, page)
		}
	}

	if gcType == dirty.FG && len(dirtied) > 0 {
		if err := e.Nat.SyncNodePages(); err != nil {
			return cmn.ResError, err
		}
	}

	return cmn.ResDone, nil
}
