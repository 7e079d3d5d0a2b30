// Package live implements the block-liveness checks the evacuators consult
// before copying a block, ground: check_valid_map and check_dnode in
// original_source/fs/f2fs/gc.c.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package live

import (
	"github.com/coldstore/flashgc/nat"
	"github.com/coldstore/flashgc/sit"
)

// CheckValidMap reports whether block `off` of `segno` is still live
// (spec.md §4.3), a thin pass-through that exists as its own function
// because check_valid_map is a named collaborator call in the original, not
// an inline SIT read.
func CheckValidMap(si sit.Info, segno uint32, off uint32) bool {
	return si.CheckValidMap(segno, off)
}

// Dnode is the result of CheckDnode: the owning inode's node-offset and the
// source block address the summary claims, so the data evacuator can decide
// whether to copy or drop the block.
type Dnode struct {
	Nofs           uint32
	SourceBlockAddr uint32
	Valid          bool
}

// CheckDnode compares the summary's recorded version against nid's current
// NAT entry version, fetches the node page naming nid, and compares
// sourceBlkaddr against the address the dnode actually holds for ofsInNode
// (spec.md §4.3 "check_dnode"). A version or address mismatch means the
// block was already relocated or overwritten since the summary was taken:
// the caller must treat it as already-invalid, not retry.
func CheckDnode(store nat.Store, nid uint32, ofsInNode uint32, summaryVersion uint8, sourceBlkaddr uint32) (Dnode, error) {
	info, err := store.GetNodeInfo(nid)
	if err != nil {
		return Dnode{}, err
	}
	if info.Version != summaryVersion {
		return Dnode{}, nil
	}

	page, err := store.GetNodePage(nid)
	if err != nil {
		return Dnode{}, err
	}
	if int(ofsInNode) >= len(page.Addrs) {
		return Dnode{Nofs: page.Nofs}, nil
	}

	addr := page.Addrs[ofsInNode]
	if addr != sourceBlkaddr {
		return Dnode{Nofs: page.Nofs}, nil
	}

	return Dnode{Nofs: page.Nofs, SourceBlockAddr: addr, Valid: true}, nil
}
