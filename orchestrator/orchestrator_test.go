package orchestrator_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/coldstore/flashgc/cost"
	"github.com/coldstore/flashgc/data"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/evac"
	"github.com/coldstore/flashgc/nat"
	"github.com/coldstore/flashgc/orchestrator"
	"github.com/coldstore/flashgc/pinset"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
	"github.com/coldstore/flashgc/ssa"
	"github.com/coldstore/flashgc/victim"
)

// fakeSpace is a scriptable orchestrator.SpaceAccounting.
type fakeSpace struct {
	free      int
	reserved  int
}

func (f *fakeSpace) FreeSections() int     { return f.free }
func (f *fakeSpace) ReservedSections() int { return f.reserved }
func (f *fakeSpace) HasNotEnoughFreeSecs(needed int) bool {
	return f.free < f.reserved+needed
}

// fakeCheckpointer counts escalations.
type fakeCheckpointer struct{ calls int }

func (f *fakeCheckpointer) Checkpoint() error {
	f.calls++
	return nil
}

type noGate struct{}

func (noGate) ShouldCheckpoint() bool { return false }

var _ = Describe("GcOrchestrator", func() {
	var geo seg.Geometry

	BeforeEach(func() {
		geo = seg.Geometry{SegBits: 4, SecBits: 1, TotalSegs: 8} // 2 segs/sec, 16 blocks/seg
	})

	buildOrch := func(space orchestrator.SpaceAccounting, cp orchestrator.Checkpointer) (*orchestrator.GcOrchestrator, *dirty.Map) {
		dm := dirty.New(geo.TotalSegs)
		sitInfo := sit.NewMemInfo(geo)
		natStore := nat.NewMemStore()
		ssaStore := ssa.NewMemStore()
		dataStore := data.NewMemStore(1000)
		pins := pinset.New()

		selector := &victim.Default{Geo: geo, SIT: sitInfo, Dirty: dm, Policy: cost.Greedy, MaxScan: 64}
		nodeEvac := &evac.NodeEvacuator{Nat: natStore, SSA: ssaStore, SIT: sitInfo, CP: noGate{}}
		dataEvac := &evac.DataEvacuator{Geo: geo, Nat: natStore, SSA: ssaStore, SIT: sitInfo, Data: dataStore, Pins: pins, CP: noGate{}}

		orch := &orchestrator.GcOrchestrator{
			Geo:      geo,
			Space:    space,
			CP:       cp,
			Dirty:    dm,
			Selector: selector,
			NodeEvac: nodeEvac,
			DataEvac: dataEvac,
			Pins:     pins,
		}
		return orch, dm
	}

	It("reports StatusNoData when nothing is dirty", func() {
		space := &fakeSpace{free: 0, reserved: 1}
		orch, _ := buildOrch(space, &fakeCheckpointer{})

		status := orch.Run(1, dirty.FG, geo.BlocksPerSeg(), func(nid uint32) uint32 { return nid })
		Expect(status).To(Equal(orchestrator.StatusNoData))
		Expect(orch.LastStatus()).To(Equal(orchestrator.StatusNoData))
	})

	It("returns StatusOK immediately for a BG tick when free space is already sufficient", func() {
		space := &fakeSpace{free: 10, reserved: 1}
		orch, dm := buildOrch(space, &fakeCheckpointer{})
		dm.MarkDirty(seg.HotData, 0) // dirty exists, but BG shouldn't even scan

		status := orch.Run(1, dirty.BG, geo.BlocksPerSeg(), func(nid uint32) uint32 { return nid })
		Expect(status).To(Equal(orchestrator.StatusOK))
	})

	It("escalates to checkpoint when evacuation reports blocked", func() {
		space := &fakeSpace{free: 0, reserved: 1}
		cp := &fakeCheckpointer{}
		orch, dm := buildOrch(space, cp)
		dm.MarkDirty(seg.HotNode, 0)

		blockedSSA := ssa.NewMemStore()
		blockedSSA.Seed(0, &ssa.Block{Type: ssa.TypeNode, Entries: []ssa.Entry{{Nid: 1, Version: 1}}})
		blockedNodeEvac := &evac.NodeEvacuator{
			Nat: nat.NewMemStore(),
			SSA: blockedSSA,
			SIT: sit.NewMemInfo(geo),
			CP:  blockedGate{},
		}
		orch.NodeEvac = blockedNodeEvac
		orch.SegIsNode = func(segno uint32) bool { return true }

		orch.Run(1, dirty.FG, geo.BlocksPerSeg(), func(nid uint32) uint32 { return nid })
		Expect(cp.calls).To(BeNumerically(">=", 1))
	})
})

type blockedGate struct{}

func (blockedGate) ShouldCheckpoint() bool { return true }
