// Package nat models the node-address table and the node-page store the
// evacuators read through. Out of scope per spec.md §1 as a persisted
// format; this package only defines the collaborator contract (spec.md §6:
// get_node_info, get_node_page, ra_node_page, datablock_addr, ofs_of_node,
// sync_node_pages) plus an in-memory reference implementation.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package nat

import (
	"sync"

	"github.com/pkg/errors"
)

// Info is the nid -> (ino, block address, version) mapping entry, ground:
// spec.md §3 "NAT".
type Info struct {
	Nid       uint32
	Ino       uint32
	BlockAddr uint32
	Version   uint8
}

// NodePage is a fetched node-page handle. A node page physically carries a
// dnode's per-offset data-block addresses plus its own node-offset (nofs);
// live.CheckDnode reads them straight from the Addrs and Nofs fields.
type NodePage struct {
	Nid         uint32
	Nofs        uint32   // ofs_of_node(node_page)
	Addrs       []uint32 // per-offset datablock addresses, indexed by ofs_in_node
	Dirty       bool
	InWriteback bool
}

// ErrNotFound mirrors get_node_page's IS_ERR(node_page) path, which the GC
// core always downgrades to a local NEXT/skip, never propagates raw.
var ErrNotFound = errors.New("node page not found")

// Store is the node-page/NAT collaborator contract consumed by LiveMap and
// NodeEvacuator.
type Store interface {
	// GetNodeInfo returns the current NAT entry for nid.
	GetNodeInfo(nid uint32) (Info, error)
	// GetNodePage fetches (blocking on I/O as needed) the node page for nid.
	GetNodePage(nid uint32) (*NodePage, error)
	// RaNodePage issues readahead for nid's node page without blocking the
	// caller on completion (phase-1 readahead in both evacuators).
	RaNodePage(nid uint32)
	// MarkDirty flags a fetched page dirty unless it is already under
	// writeback, letting the normal writer relocate it.
	MarkDirty(p *NodePage) (markedDirty bool)
	// SyncNodePages performs a synchronous sync-all write-back of dirty
	// node pages, used by NodeEvacuator's FG tail.
	SyncNodePages() error
}

// MemStore is an in-memory reference Store.
type MemStore struct {
	mu    sync.Mutex
	nat   map[uint32]Info
	pages map[uint32]*NodePage
}

func NewMemStore() *MemStore {
	return &MemStore{
		nat:   make(map[uint32]Info),
		pages: make(map[uint32]*NodePage),
	}
}

func (s *MemStore) GetNodeInfo(nid uint32) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ni, ok := s.nat[nid]
	if !ok {
		return Info{}, errors.Wrapf(ErrNotFound, "nid %d", nid)
	}
	return ni, nil
}

func (s *MemStore) GetNodePage(nid uint32) (*NodePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[nid]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "nid %d", nid)
	}
	return p, nil
}

func (s *MemStore) RaNodePage(nid uint32) {
	// best-effort: warm the in-memory map lookup; a real implementation
	// would queue an async block read.
	s.mu.Lock()
	_ = s.pages[nid]
	s.mu.Unlock()
}

func (s *MemStore) MarkDirty(p *NodePage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.InWriteback {
		return false
	}
	p.Dirty = true
	return true
}

func (s *MemStore) SyncNodePages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pages {
		if p.Dirty {
			p.InWriteback = true
			p.Dirty = false
			p.InWriteback = false
		}
	}
	return nil
}

// Seed is a simdev/test helper installing a NAT entry and its node page.
func (s *MemStore) Seed(nid uint32, ni Info, page *NodePage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nat[nid] = ni
	s.pages[nid] = page
}

// SetNodeInfo is a simdev/test helper to rewrite a NAT entry in place
// (simulates the node being relocated: version bumps, block address moves).
func (s *MemStore) SetNodeInfo(nid uint32, ni Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nat[nid] = ni
}
