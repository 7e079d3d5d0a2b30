package evac

import "testing"

// TestStartBidxOfNode covers the first two branches of the ported
// start_bidx_of_node arithmetic: the inode's own node (0) and its two direct
// children (1,2). The indirect and double-indirect ranges are checked by the
// two tests below.
func TestStartBidxOfNode(t *testing.T) {
	cases := []struct {
		nodeOfs uint32
		want    uint32
	}{
		{0, 0},
		{1, 0*addrsPerBlock + addrsPerInode},
		{2, 1*addrsPerBlock + addrsPerInode},
	}
	for _, c := range cases {
		if got := StartBidxOfNode(c.nodeOfs); got != c.want {
			t.Errorf("StartBidxOfNode(%d) = %d, want %d", c.nodeOfs, got, c.want)
		}
	}
}

func TestStartBidxOfNodeIndirectRangeIsMonotonic(t *testing.T) {
	var prev uint32
	first := true
	for nodeOfs := uint32(3); nodeOfs <= indirectBlocks; nodeOfs++ {
		got := StartBidxOfNode(nodeOfs)
		if !first && got < prev {
			t.Fatalf("StartBidxOfNode regressed at nodeOfs=%d: %d < %d", nodeOfs, got, prev)
		}
		prev = got
		first = false
	}
}

func TestStartBidxOfNodeBeyondIndirectRange(t *testing.T) {
	got := StartBidxOfNode(indirectBlocks + 1)
	if got == 0 {
		t.Fatal("expected a non-zero start bidx past the indirect range")
	}
}
