package nat

import "testing"

func TestGetNodeInfoAndPage(t *testing.T) {
	s := NewMemStore()
	s.Seed(1, Info{Nid: 1, Ino: 2, Version: 1}, &NodePage{Nid: 1, Nofs: 3})

	info, err := s.GetNodeInfo(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Ino != 2 {
		t.Fatalf("Ino = %d, want 2", info.Ino)
	}

	page, err := s.GetNodePage(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Nofs != 3 {
		t.Fatalf("Nofs = %d, want 3", page.Nofs)
	}
}

func TestGetNodeInfoNotFound(t *testing.T) {
	s := NewMemStore()
	if _, err := s.GetNodeInfo(42); err == nil {
		t.Fatal("expected error for unknown nid")
	}
}

func TestMarkDirtySkipsPagesInWriteback(t *testing.T) {
	s := NewMemStore()
	page := &NodePage{Nid: 1, InWriteback: true}
	s.Seed(1, Info{Nid: 1}, page)

	if s.MarkDirty(page) {
		t.Fatal("expected MarkDirty to refuse a page under writeback")
	}
	if page.Dirty {
		t.Fatal("page must not be marked dirty while under writeback")
	}
}

func TestSyncNodePagesClearsDirty(t *testing.T) {
	s := NewMemStore()
	page := &NodePage{Nid: 1}
	s.Seed(1, Info{Nid: 1}, page)
	s.MarkDirty(page)

	if err := s.SyncNodePages(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Dirty {
		t.Fatal("expected page to no longer be dirty after sync")
	}
}
