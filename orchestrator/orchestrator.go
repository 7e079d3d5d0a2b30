// Package orchestrator implements the outer GC loop, ground: f2fs_gc and
// do_garbage_collect in original_source/fs/f2fs/gc.c.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package orchestrator

import (
	"github.com/coldstore/flashgc/cmn"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/evac"
	"github.com/coldstore/flashgc/pinset"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/victim"
)

// SpaceAccounting is the free-space collaborator contract, ground:
// has_not_enough_free_secs/free_sections/reserved_sections.
type SpaceAccounting interface {
	HasNotEnoughFreeSecs(needed int) bool
	FreeSections() int
	ReservedSections() int
}

// Checkpointer is the checkpoint escalation collaborator, ground:
// write_checkpoint, invoked when evacuation reports ResBlocked.
type Checkpointer interface {
	Checkpoint() error
}

// Status is the outer loop's terminal outcome, mirroring f2fs_gc's return
// value (0 success, -EAGAIN more to do but caller should retry later,
// -ENODATA nothing left dirty).
type Status int

const (
	StatusOK Status = iota
	StatusAgain
	StatusNoData
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAgain:
		return "again"
	case StatusNoData:
		return "no-data"
	default:
		return "error"
	}
}

// GcOrchestrator drives victim selection and evacuation to completion for
// one GC request, ground: f2fs_gc's gc_more/stop loop.
type GcOrchestrator struct {
	Geo       seg.Geometry
	Space     SpaceAccounting
	CP        Checkpointer
	Dirty     *dirty.Map
	Selector  victim.Selector
	NodeEvac  *evac.NodeEvacuator
	DataEvac  *evac.DataEvacuator
	Pins      *pinset.Set
	SegIsNode func(segno uint32) bool

	last Status
}

// LastStatus reports the outcome of the most recent Run call.
func (o *GcOrchestrator) LastStatus() Status { return o.last }

// Run drives up to nGC victim+evacuate rounds, stopping early once free
// space is sufficient (ground: f2fs_gc's "goto stop" on
// !has_not_enough_free_secs), on an empty victim scan, or on an
// unrecoverable error. startGcType is only a starting hint: f2fs_gc has no
// gc_type parameter at all, initializing it to BG and escalating to FG
// every iteration whenever not_enough_free_secs holds, regardless of which
// caller started the run.
func (o *GcOrchestrator) Run(nGC int, startGcType dirty.GcType, blocksPerSeg uint32, ino func(nid uint32) uint32) Status {
	o.last = StatusOK
	gcType := startGcType

	for round := 0; round < nGC || nGC < 0; round++ {
		if o.Space.HasNotEnoughFreeSecs(0) {
			gcType = dirty.FG
		} else if gcType == dirty.BG {
			o.last = StatusOK
			return o.last
		}

		segno, ok := o.Selector.GetVictim(gcType, nil)
		if !ok {
			if round == 0 {
				o.last = StatusNoData
			}
			return o.last
		}

		res, err := o.evacuateSection(segno, gcType, blocksPerSeg, ino)
		switch res {
		case cmn.ResBlocked:
			if o.CP != nil {
				if cpErr := o.CP.Checkpoint(); cpErr != nil {
					o.last = StatusError
					return o.last
				}
			}
			o.last = StatusAgain
			continue
		case cmn.ResError:
			_ = err
			o.last = StatusError
			return o.last
		}

		if gcType == dirty.FG && !o.Space.HasNotEnoughFreeSecs(1) {
			o.last = StatusOK
			return o.last
		}
	}

	return o.last
}

// evacuateSection walks every segment of the section returned by the
// selector, dispatching to the node or data evacuator per segment, and
// guarantees the pin set is fully drained before returning (invariant I4),
// ground: do_garbage_collect's per-segment dispatch loop plus its
// unconditional put_gc_inode(gc_list) teardown.
func (o *GcOrchestrator) evacuateSection(secStart uint32, gcType dirty.GcType, blocksPerSeg uint32, ino func(nid uint32) uint32) (cmn.Result, error) {
	defer func() {
		for _, pinnedIno := range o.Pins.ReleaseAll() {
			_ = pinnedIno // real teardown would iput each; modeled as pure release here
		}
	}()

	nsegs := o.Geo.SegsPerSec()
	for i := uint32(0); i < nsegs; i++ {
		segno := secStart + i
		if o.SegIsNode != nil && o.SegIsNode(segno) {
			res, err := o.NodeEvac.Evacuate(segno, blocksPerSeg, gcType)
			if res != cmn.ResDone {
				return res, err
			}
			continue
		}
		res, err := o.DataEvac.Evacuate(segno, ino, gcType)
		if res != cmn.ResDone {
			return res, err
		}
	}
	return cmn.ResDone, nil
}
