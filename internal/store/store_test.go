package store

import (
	"testing"
	"time"
)

func openMemStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", 64)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// flush enqueues COMMIT and gives the persistence goroutine time to apply
// it before the test reads back through a fresh connection/transaction.
func flush(t *testing.T, s *Store) {
	t.Helper()
	s.Commit()
	time.Sleep(20 * time.Millisecond)
}

func TestPutBlockThenGetBlocksRoundTrip(t *testing.T) {
	s := openMemStore(t)
	s.PutBlock(BlockDelta{CX: 1, CZ: 2, BX: 3, BY: 4, BZ: 5, Block: 7})
	flush(t, s)

	got, err := s.GetBlocks(1, 2)
	if err != nil {
		t.Fatalf("GetBlocks: %v", err)
	}
	if len(got) != 1 || got[0].Block != 7 {
		t.Fatalf("GetBlocks = %+v, want one delta with Block=7", got)
	}
}

func TestPutBlockIdempotence(t *testing.T) {
	s := openMemStore(t)
	d := BlockDelta{CX: 0, CZ: 0, BX: 1, BY: 1, BZ: 1, Block: 9}
	s.PutBlock(d)
	s.PutBlock(d)
	flush(t, s)

	got, err := s.GetBlocks(0, 0)
	if err != nil {
		t.Fatalf("GetBlocks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one row after duplicate PUT_BLOCK, got %d", len(got))
	}
}

func TestPutBlockReplacesSameKey(t *testing.T) {
	s := openMemStore(t)
	s.PutBlock(BlockDelta{CX: 0, CZ: 0, BX: 1, BY: 1, BZ: 1, Block: 1})
	s.PutBlock(BlockDelta{CX: 0, CZ: 0, BX: 1, BY: 1, BZ: 1, Block: 2})
	flush(t, s)

	got, err := s.GetBlocks(0, 0)
	if err != nil {
		t.Fatalf("GetBlocks: %v", err)
	}
	if len(got) != 1 || got[0].Block != 2 {
		t.Fatalf("GetBlocks = %+v, want one delta with Block=2 (last write wins)", got)
	}
}

func TestGetPlayerMissingReturnsFalse(t *testing.T) {
	s := openMemStore(t)
	_, ok, err := s.GetPlayer(42)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if ok {
		t.Fatal("GetPlayer for an absent id should report ok=false")
	}
}

func TestPutPlayerThenGetPlayer(t *testing.T) {
	s := openMemStore(t)
	s.PutPlayer(Player{ID: 1, X: 8, Y: 64, Z: 8, Pitch: 0, Yaw: 90})
	flush(t, s)

	p, ok, err := s.GetPlayer(1)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if !ok || p.X != 8 || p.Z != 8 {
		t.Fatalf("GetPlayer = %+v, ok=%v", p, ok)
	}
}
