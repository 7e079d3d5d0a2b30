package evac

import (
	"testing"

	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/nat"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
	"github.com/coldstore/flashgc/ssa"
)

type noCheckpoint struct{}

func (noCheckpoint) ShouldCheckpoint() bool { return false }

type alwaysCheckpoint struct{}

func (alwaysCheckpoint) ShouldCheckpoint() bool { return true }

func TestNodeEvacuatorRelocatesLiveNodes(t *testing.T) {
	natStore := nat.NewMemStore()
	ssaStore := ssa.NewMemStore()

	natStore.Seed(1, nat.Info{Nid: 1, Ino: 1, Version: 1}, &nat.NodePage{Nid: 1, Nofs: 0})
	natStore.Seed(2, nat.Info{Nid: 2, Ino: 2, Version: 1}, &nat.NodePage{Nid: 2, Nofs: 0})

	ssaStore.Seed(5, &ssa.Block{
		Type: ssa.TypeNode,
		Entries: []ssa.Entry{
			{Nid: 1, Version: 1},
			{Nid: 2, Version: 1},
		},
	})

	geo := seg.Geometry{SegBits: 6, SecBits: 1, TotalSegs: 8}
	sitInfo := sit.NewMemInfo(geo)
	sitInfo.SetValid(5, 0, true)
	sitInfo.SetValid(5, 1, true)

	ev := &NodeEvacuator{Nat: natStore, SSA: ssaStore, SIT: sitInfo, CP: noCheckpoint{}}
	res, err := ev.Evacuate(5, 64, dirty.BG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.String() != "done" {
		t.Fatalf("got result %v, want done", res)
	}

	p1, _ := natStore.GetNodePage(1)
	if !p1.Dirty {
		t.Fatal("expected node 1's page to be dirtied")
	}
}

func TestNodeEvacuatorSkipsStaleVersion(t *testing.T) {
	natStore := nat.NewMemStore()
	ssaStore := ssa.NewMemStore()

	natStore.Seed(1, nat.Info{Nid: 1, Ino: 1, Version: 2}, &nat.NodePage{Nid: 1})
	ssaStore.Seed(5, &ssa.Block{
		Type:    ssa.TypeNode,
		Entries: []ssa.Entry{{Nid: 1, Version: 1}}, // stale: summary says v1, NAT says v2
	})

	geo := seg.Geometry{SegBits: 6, SecBits: 1, TotalSegs: 8}
	sitInfo := sit.NewMemInfo(geo)
	sitInfo.SetValid(5, 0, true)

	ev := &NodeEvacuator{Nat: natStore, SSA: ssaStore, SIT: sitInfo, CP: noCheckpoint{}}
	if _, err := ev.Evacuate(5, 64, dirty.BG); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p1, _ := natStore.GetNodePage(1)
	if p1.Dirty {
		t.Fatal("stale-version node must not be relocated")
	}
}

func TestNodeEvacuatorBlockedOnCheckpointPressure(t *testing.T) {
	natStore := nat.NewMemStore()
	ssaStore := ssa.NewMemStore()
	natStore.Seed(1, nat.Info{Nid: 1, Version: 1}, &nat.NodePage{Nid: 1})
	ssaStore.Seed(5, &ssa.Block{Type: ssa.TypeNode, Entries: []ssa.Entry{{Nid: 1, Version: 1}}})

	geo := seg.Geometry{SegBits: 6, SecBits: 1, TotalSegs: 8}
	sitInfo := sit.NewMemInfo(geo)
	sitInfo.SetValid(5, 0, true)

	ev := &NodeEvacuator{Nat: natStore, SSA: ssaStore, SIT: sitInfo, CP: alwaysCheckpoint{}}
	res, _ := ev.Evacuate(5, 64, dirty.BG)
	if res.String() != "blocked" {
		t.Fatalf("got %v, want blocked", res)
	}
}
