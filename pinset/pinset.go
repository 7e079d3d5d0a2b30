// Package pinset implements InodePinSet, the set of inodes the data
// evacuator has pinned (iget'd) mid-section so later phases find them
// already resident, ground: find_gc_inode/add_gc_inode/put_gc_inode in
// original_source/fs/f2fs/gc.c.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package pinset

import (
	"sync"

	"github.com/OneOfOne/xxhash"
)

// entry is one pinned inode plus a reference count, since the same inode
// can be named by more than one dnode within a section (spec.md §4.3,
// invariant I4: pins must be released exactly once per add).
type entry struct {
	ino uint32
	ref int
}

// Set is a small, order-preserving, dedup-on-add set of pinned inode
// numbers. The original uses a doubly-linked list walked linearly on every
// add (list sizes are bounded by one section's inode fan-out); here a
// xxhash-keyed side index turns the dedup check from O(n) into O(1) while
// preserving the same insertion-ordered release semantics.
type Set struct {
	mu    sync.Mutex
	order []uint32
	byIno map[uint64]*entry
}

func New() *Set {
	return &Set{byIno: make(map[uint64]*entry)}
}

func hashIno(ino uint32) uint64 {
	h := xxhash.New64()
	b := [4]byte{byte(ino), byte(ino >> 8), byte(ino >> 16), byte(ino >> 24)}
	_, _ = h.Write(b[:])
	return h.Sum64()
}

// Add pins ino, returning true if this is the first pin (caller must iget),
// false if it was already pinned (caller just bumps the caller-side refcount
// it already holds). Ground: add_gc_inode's find-then-insert.
func (s *Set) Add(ino uint32) (first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hashIno(ino)
	if e, ok := s.byIno[key]; ok && e.ino == ino {
		e.ref++
		return false
	}
	s.byIno[key] = &entry{ino: ino, ref: 1}
	s.order = append(s.order, ino)
	return true
}

// Release drops one reference to ino; the caller iputs when ref reaches zero.
// Ground: put_gc_inode's final teardown walk.
func (s *Set) Release(ino uint32) (last bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hashIno(ino)
	e, ok := s.byIno[key]
	if !ok || e.ino != ino {
		return false
	}
	e.ref--
	if e.ref > 0 {
		return false
	}
	delete(s.byIno, key)
	for i, v := range s.order {
		if v == ino {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len reports how many distinct inodes are currently pinned.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// ReleaseAll drops every pin, returning the inode numbers that were pinned,
// in insertion order — used when a section's evacuation aborts partway
// through and every iget must be matched by an iput (invariant I4).
func (s *Set) ReleaseAll() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.order
	s.order = nil
	s.byIno = make(map[uint64]*entry)
	return out
}
