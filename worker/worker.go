// Package worker implements the background GC thread: a single goroutine
// that wakes on an adaptive interval, tries the GC mutex, and runs a bounded
// batch of background evacuations. Ground: gc_thread_func in
// original_source/fs/f2fs/gc.c for the AIMD sleep schedule, lru.go's Run/
// _throttle/yieldTerm for the Go idiom (stop channel, mono clock, glog).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package worker

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/coldstore/flashgc/cmn"
	"github.com/coldstore/flashgc/cmn/mono"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/orchestrator"
)

// IdleChecker reports whether the backing device has been idle long enough
// to justify running GC now, ground: fs.MountpathInfo.IsIdle used by
// lru.go's _throttle.
type IdleChecker interface {
	IsIdle(nowTs int64) bool
}

// GcWorker is the background GC xaction: one goroutine, adaptive sleep,
// cooperative stop. Ground: gc_thread_func's wait_ms AIMD schedule
// (halved on work done, doubled up to MaxSleep otherwise, parked at
// NoGCSleep while BG GC is disabled). A run that finds nothing dirty counts
// as no work and doubles the interval; it does not park at NoGCSleep.
type GcWorker struct {
	Orch  *orchestrator.GcOrchestrator
	Idle  IdleChecker
	Mutex sync.Locker // stands in for gc_mutex; try-locked every tick

	stop *cmn.StopCh
	wg   sync.WaitGroup
}

func New(orch *orchestrator.GcOrchestrator, idle IdleChecker, mutex sync.Locker) *GcWorker {
	return &GcWorker{Orch: orch, Idle: idle, Mutex: mutex, stop: cmn.NewStopCh()}
}

// Start launches the background loop; Stop blocks until it exits.
func (w *GcWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *GcWorker) Stop() {
	w.stop.Close()
	w.wg.Wait()
}

func (w *GcWorker) run() {
	defer w.wg.Done()

	config := cmn.GCO.Get()
	wait := config.GC.MinSleep

	for {
		select {
		case <-w.stop.Listen():
			return
		case <-time.After(wait):
		}

		config = cmn.GCO.Get()
		if !config.GC.BGEnabled {
			wait = config.GC.NoGCSleep
			continue
		}

		nowTs := mono.NanoTime()
		if w.Idle != nil && !w.Idle.IsIdle(nowTs) {
			wait = increase(wait, config)
			continue
		}

		didWork := w.tick()
		if didWork {
			wait = decrease(wait, config)
		} else {
			wait = increase(wait, config)
		}
	}
}

// tick tries the GC mutex without blocking the whole loop on contention
// (a held gc_mutex means a foreground GC is already running) and, if
// acquired, runs one bounded round of background evacuation.
func (w *GcWorker) tick() (didWork bool) {
	locked := tryLock(w.Mutex)
	if !locked {
		return false
	}
	defer w.Mutex.Unlock()

	status := w.Orch.Run(1, dirty.BG, w.Orch.Geo.BlocksPerSeg(), identityIno)
	switch status {
	case orchestrator.StatusOK, orchestrator.StatusAgain:
		return true
	default:
		if status == orchestrator.StatusError {
			glog.Errorf("background gc: %v", status)
		}
		return false
	}
}

func identityIno(nid uint32) uint32 { return nid }

// tryLock adapts sync.Locker to a non-blocking attempt: it uses the lock's
// own TryLock when the lock provides one (the tryLocker interface), and
// falls back to a blocking Lock otherwise.
type tryLocker interface {
	TryLock() bool
}

func tryLock(l sync.Locker) bool {
	if tl, ok := l.(tryLocker); ok {
		return tl.TryLock()
	}
	l.Lock()
	return true
}

// increase/decrease implement gc_thread_func's AIMD step: halve the
// interval on productive work, double it (capped at MaxSleep) otherwise.
func increase(cur time.Duration, config *cmn.Config) time.Duration {
	next := cur * 2
	if next > config.GC.MaxSleep {
		next = config.GC.MaxSleep
	}
	return next
}

func decrease(cur time.Duration, config *cmn.Config) time.Duration {
	next := cur / 2
	if next < config.GC.MinSleep {
		next = config.GC.MinSleep
	}
	return next
}
