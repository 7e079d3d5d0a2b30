package victim

import (
	"testing"

	"github.com/coldstore/flashgc/cost"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/sit"
)

func newFixture(t *testing.T) (seg.Geometry, *sit.MemInfo, *dirty.Map) {
	t.Helper()
	geo := seg.Geometry{SegBits: 4, SecBits: 1, TotalSegs: 8} // 2 segs/sec
	return geo, sit.NewMemInfo(geo), dirty.New(geo.TotalSegs)
}

func TestGetVictimNoneWhenNothingDirty(t *testing.T) {
	geo, si, dm := newFixture(t)
	sel := &Default{Geo: geo, SIT: si, Dirty: dm, Policy: cost.Greedy, MaxScan: 64}

	if _, ok := sel.GetVictim(dirty.FG, nil); ok {
		t.Fatal("expected no victim when nothing is dirty")
	}
}

func TestGetVictimSkipsCurSec(t *testing.T) {
	geo, si, dm := newFixture(t)
	dm.MarkDirty(seg.HotData, 0)
	dm.MarkDirty(seg.HotData, 2)

	cur := curSecs{1: true} // section 1 = segs 2,3
	sel := &Default{Geo: geo, SIT: si, Dirty: dm, Cur: cur, Policy: cost.Greedy, MaxScan: 64}

	segno, ok := sel.GetVictim(dirty.FG, nil)
	if !ok {
		t.Fatal("expected a victim")
	}
	if segno != 0 {
		t.Fatalf("got segno %d, want 0 (section 1 is a current section)", segno)
	}
}

func TestGetVictimClaimsSectionRange(t *testing.T) {
	geo, si, dm := newFixture(t)
	dm.MarkDirty(seg.HotData, 0)

	sel := &Default{Geo: geo, SIT: si, Dirty: dm, Policy: cost.Greedy, MaxScan: 64}
	segno, ok := sel.GetVictim(dirty.BG, nil)
	if !ok {
		t.Fatal("expected a victim")
	}

	dm.Lock()
	claimed := dm.TestVictim(dirty.BG, segno) && dm.TestVictim(dirty.BG, segno+1)
	dm.Unlock()
	if !claimed {
		t.Fatal("expected both segments of the selected section to be claimed under BG")
	}
}

// TestCheckBgVictimsFastPath verifies the FG fast path steals a BG-claimed
// victim outright, without needing that segment to still be dirty (mirrors
// check_bg_victims' "pop any bit" quirk rather than re-costing it).
func TestCheckBgVictimsFastPath(t *testing.T) {
	geo, si, dm := newFixture(t)
	dm.SetVictimRange(dirty.BG, 4, 2) // pretend BG already claimed section starting at 4

	sel := &Default{Geo: geo, SIT: si, Dirty: dm, Policy: cost.Greedy, MaxScan: 64}
	segno, ok := sel.GetVictim(dirty.FG, nil)
	if !ok {
		t.Fatal("expected FG to steal the BG-claimed victim")
	}
	if segno != 4 {
		t.Fatalf("got segno %d, want 4", segno)
	}
}

type curSecs map[uint32]bool

func (c curSecs) IsCurSec(secno uint32) bool { return c[secno] }
