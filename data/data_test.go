package data

import "testing"

func TestMoveFGReallocatesAddress(t *testing.T) {
	s := NewMemStore(100)
	s.Seed(1, 5)

	page, err := s.GetDataPage(1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newAddr, err := s.MoveFG(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newAddr != 100 {
		t.Fatalf("newAddr = %d, want 100", newAddr)
	}
	if _, err := s.GetDataPage(1, 5); err == nil {
		t.Fatal("expected old address to no longer resolve")
	}
	if _, err := s.GetDataPage(1, newAddr); err != nil {
		t.Fatalf("expected new address to resolve: %v", err)
	}
}

func TestMoveBGDirtiesInPlace(t *testing.T) {
	s := NewMemStore(100)
	s.Seed(1, 5)
	page, _ := s.GetDataPage(1, 5)

	if err := s.MoveBG(page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Dirty {
		t.Fatal("expected page to be dirtied")
	}
	if page.BlkAddr != 5 {
		t.Fatal("BG move must not relocate the block address")
	}
}
