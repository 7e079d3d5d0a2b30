// Package data models the data-block store the DataEvacuator's copy phase
// writes through, ground: get_data_page/move_data_page in
// original_source/fs/f2fs/gc.c. Out of scope as a persisted format
// (spec.md §1); this package defines the contract plus an in-memory
// reference Store.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package data

import (
	"sync"

	"github.com/pkg/errors"
)

// Page is a fetched data-page handle addressed by (ino, blkaddr).
type Page struct {
	Ino     uint32
	BlkAddr uint32
	Dirty   bool
}

var ErrNotFound = errors.New("data page not found")

// Store is the data-block collaborator contract consumed by DataEvacuator's
// copy phase.
type Store interface {
	// RaDataPage issues readahead without blocking.
	RaDataPage(ino uint32, blkaddr uint32)
	// GetDataPage fetches the page, blocking on I/O as needed.
	GetDataPage(ino uint32, blkaddr uint32) (*Page, error)
	// MoveBG marks the page dirty for the ordinary writer to relocate later,
	// ground: move_data_page's !gc_type==FG branch (set_page_dirty).
	MoveBG(p *Page) error
	// MoveFG synchronously writes the page out to a newly allocated block
	// and returns that block's address, ground: move_data_page's FG branch
	// (do_write_data_page under LFS allocation).
	MoveFG(p *Page) (newBlkAddr uint32, err error)
}

// MemStore is an in-memory reference Store. MoveFG hands out addresses from
// a monotonically increasing counter, standing in for LFS tail allocation.
type MemStore struct {
	mu       sync.Mutex
	pages    map[[2]uint32]*Page
	nextAddr uint32
}

func NewMemStore(startAddr uint32) *MemStore {
	return &MemStore{pages: make(map[[2]uint32]*Page), nextAddr: startAddr}
}

func key(ino, blkaddr uint32) [2]uint32 { return [2]uint32{ino, blkaddr} }

func (s *MemStore) RaDataPage(ino, blkaddr uint32) {
	s.mu.Lock()
	_ = s.pages[key(ino, blkaddr)]
	s.mu.Unlock()
}

func (s *MemStore) GetDataPage(ino, blkaddr uint32) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[key(ino, blkaddr)]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "ino %d blkaddr %d", ino, blkaddr)
	}
	return p, nil
}

func (s *MemStore) MoveBG(p *Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Dirty = true
	return nil
}

func (s *MemStore) MoveFG(p *Page) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newAddr := s.nextAddr
	s.nextAddr++
	delete(s.pages, key(p.Ino, p.BlkAddr))
	p.BlkAddr = newAddr
	p.Dirty = false
	s.pages[key(p.Ino, newAddr)] = p
	return newAddr, nil
}

// Seed is a simdev/test helper installing a data page.
func (s *MemStore) Seed(ino, blkaddr uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[key(ino, blkaddr)] = &Page{Ino: ino, BlkAddr: blkaddr}
}
