// Package ssa models the segment summary area: one summary entry per block,
// naming its owning node id and offset-in-node. Out of scope as a persisted
// format (spec.md §1); this package defines the contract and record shapes
// plus an in-memory reference implementation.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package ssa

import "github.com/pkg/errors"

// SumType is the footer tag distinguishing node-segment summaries from
// data-segment summaries (spec.md §3).
type SumType int

const (
	TypeNode SumType = iota
	TypeData
)

// Entry is one per-block summary record (spec.md §3 "SSA").
type Entry struct {
	Nid       uint32
	OfsInNode uint32
	Version   uint8
}

// Block is the per-segment array of B summary entries plus its footer.
type Block struct {
	Type    SumType
	Entries []Entry // length == geometry.BlocksPerSeg()
}

var ErrNotFound = errors.New("summary page not found")

// Store is the SSA collaborator contract (spec.md §6: implicit via
// get_sum_page), consumed by the node and data evacuators.
type Store interface {
	GetSumBlock(segno uint32) (*Block, error)
}

// MemStore is an in-memory reference Store.
type MemStore struct {
	blocks map[uint32]*Block
}

func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[uint32]*Block)}
}

func (s *MemStore) GetSumBlock(segno uint32) (*Block, error) {
	b, ok := s.blocks[segno]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "segno %d", segno)
	}
	return b, nil
}

// Seed is a simdev/test helper installing a segment's summary block.
func (s *MemStore) Seed(segno uint32, b *Block) {
	s.blocks[segno] = b
}
