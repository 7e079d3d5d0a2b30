// Package gcxact exposes garbage collection as a renewable extended action
// (x-action), ground: xaction/registry's baseEntry/GlobalEntry pattern and
// runners/global.go's provider+instance split. google/uuid mints each run's
// ID and json-iterator serializes status snapshots for external polling.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package gcxact

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/orchestrator"
	"github.com/coldstore/flashgc/victim"
)

// VictimVariant names the pluggable victim-selection capability swap
// (spec.md §9: "small capability-variant dispatch, not full polymorphism").
// Default is the only production variant; Test/Alt exist for experiments
// and test harnesses to substitute a deterministic or adversarial selector
// without touching orchestrator wiring.
type VictimVariant int

const (
	VariantDefault VictimVariant = iota
	VariantTest
	VariantAlt
)

// Registry is the minimal provider/renew surface this package needs from a
// host process; a full xaction registry (entries, cleanup, abort-by-bucket)
// is out of scope for a standalone GC core.
type Registry struct {
	mu      sync.Mutex
	current *Xact
}

func NewRegistry() *Registry { return &Registry{} }

// Renew starts a new GC xaction unless one is already running, in which
// case it returns the running instance — ground: registry's renewRes
// "isNew" hand-off semantics, simplified to one xaction kind.
func (r *Registry) Renew(orch *orchestrator.GcOrchestrator, variant VictimVariant, selectors map[VictimVariant]victim.Selector) (*Xact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && !r.current.Finished() {
		return r.current, false
	}

	x := &Xact{
		id:       uuid.New().String(),
		orch:     orch,
		started:  time.Now(),
		selector: selectors[variant],
	}
	r.current = x
	return x, true
}

// Status mirrors registry's taskState: a JSON-serializable run snapshot.
type Status struct {
	ID       string `json:"id"`
	Running  bool   `json:"running"`
	Result   string `json:"result"`
	ErrorMsg string `json:"error,omitempty"`
}

// Xact is one GC run's lifecycle handle.
type Xact struct {
	id       string
	orch     *orchestrator.GcOrchestrator
	selector victim.Selector
	started  time.Time

	mu     sync.Mutex
	done   bool
	status orchestrator.Status
	err    error
}

func (x *Xact) ID() string { return x.id }

func (x *Xact) Finished() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.done
}

// Run drives the orchestrator synchronously to completion or error,
// installing this xaction's victim-selection variant for the duration of
// the run. Callers that want a background-thread xaction instead should
// wrap the same orchestrator with worker.GcWorker.
func (x *Xact) Run(nGC int, gcType dirty.GcType, blocksPerSeg uint32, ino func(nid uint32) uint32) {
	if x.selector != nil {
		x.orch.Selector = x.selector
	}
	glog.Infof("gc xaction %s: starting", x.id)
	status := x.orch.Run(nGC, gcType, blocksPerSeg, ino)

	x.mu.Lock()
	x.status = status
	x.done = true
	x.mu.Unlock()
	glog.Infof("gc xaction %s: finished, status=%s", x.id, status)
}

// Snapshot returns the current JSON-serializable status.
func (x *Xact) Snapshot() Status {
	x.mu.Lock()
	defer x.mu.Unlock()
	s := Status{ID: x.id, Running: !x.done, Result: x.status.String()}
	if x.err != nil {
		s.ErrorMsg = x.err.Error()
	}
	return s
}

// MarshalJSON lets a Status be written straight to an HTTP response or
// buntdb record without an intermediate map, ground: the teacher's
// stats/copyTracker jsoniter pairing.
func (s Status) MarshalJSON() ([]byte, error) {
	type alias Status
	return jsoniter.Marshal(alias(s))
}
