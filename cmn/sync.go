// Package cmn provides common low-level types and utilities shared by the
// garbage-collection packages.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import "sync"

// StopCh is a specialized channel for stopping things, closed at most once.
// Ground: teacher's cmn.StopCh, used here by the GC worker's stop signal.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopCh() *StopCh {
	return &StopCh{ch: make(chan struct{})}
}

func (sc *StopCh) Listen() <-chan struct{} { return sc.ch }

func (sc *StopCh) Close() {
	sc.once.Do(func() { close(sc.ch) })
}

// DynSemaphore is a semaphore whose size can change at runtime. Ground:
// teacher's cmn.DynSemaphore; in this module it backs LimitedWaitGroup.
type DynSemaphore struct {
	size int
	cur  int
	c    *sync.Cond
	mu   sync.Mutex
}

func NewDynSemaphore(n int) *DynSemaphore {
	sema := &DynSemaphore{size: n}
	sema.c = sync.NewCond(&sema.mu)
	return sema
}

func (s *DynSemaphore) SetSize(n int) {
	Assert(n >= 1)
	s.mu.Lock()
	s.size = n
	s.mu.Unlock()
}

func (s *DynSemaphore) Acquire() {
	s.mu.Lock()
	for s.cur >= s.size {
		s.c.Wait()
	}
	s.cur++
	s.mu.Unlock()
}

func (s *DynSemaphore) Release() {
	s.mu.Lock()
	Assert(s.cur > 0)
	s.cur--
	s.c.Signal()
	s.mu.Unlock()
}

// LimitedWaitGroup combines a WaitGroup with a DynSemaphore to cap the
// number of goroutines in flight. Ground: teacher's cmn.LimitedWaitGroup.
type LimitedWaitGroup struct {
	wg   sync.WaitGroup
	sema *DynSemaphore
}

func NewLimitedWaitGroup(n int) *LimitedWaitGroup {
	return &LimitedWaitGroup{sema: NewDynSemaphore(n)}
}

func (w *LimitedWaitGroup) Add() {
	w.sema.Acquire()
	w.wg.Add(1)
}

func (w *LimitedWaitGroup) Done() {
	w.wg.Done()
	w.sema.Release()
}

func (w *LimitedWaitGroup) Wait() { w.wg.Wait() }
