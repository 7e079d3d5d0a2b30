package pinset

import "testing"

func TestAddDedupsAndCountsRefs(t *testing.T) {
	s := New()
	if first := s.Add(10); !first {
		t.Fatal("expected first Add(10) to report first=true")
	}
	if first := s.Add(10); first {
		t.Fatal("expected second Add(10) to report first=false")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestReleaseDropsAfterLastRef(t *testing.T) {
	s := New()
	s.Add(10)
	s.Add(10)

	if last := s.Release(10); last {
		t.Fatal("expected first Release to report last=false (one ref remains)")
	}
	if s.Len() != 1 {
		t.Fatal("expected inode to still be pinned")
	}
	if last := s.Release(10); !last {
		t.Fatal("expected second Release to report last=true")
	}
	if s.Len() != 0 {
		t.Fatal("expected inode unpinned")
	}
}

func TestReleaseUnknownInodeIsNoop(t *testing.T) {
	s := New()
	if last := s.Release(99); last {
		t.Fatal("expected Release of unpinned inode to report last=false")
	}
}

func TestReleaseAllDrainsInInsertionOrder(t *testing.T) {
	s := New()
	s.Add(3)
	s.Add(1)
	s.Add(2)

	got := s.ReleaseAll()
	want := []uint32{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("ReleaseAll() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReleaseAll()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if s.Len() != 0 {
		t.Fatal("expected set empty after ReleaseAll")
	}
}
