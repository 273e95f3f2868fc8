package orderbook

import (
	"math/rand"
	"testing"
)

func TestRBTreeInsertFindDelete(t *testing.T) {
	tree := newRBTree()
	pl1 := tree.UpsertLevel(100)
	if pl1 == nil {
		t.Fatal("UpsertLevel failed")
	}
	if pl2 := tree.FindLevel(100); pl2 != pl1 {
		t.Error("FindLevel did not return same PriceLevel")
	}

	tree.UpsertLevel(200)
	if tree.MinLevel().Price != 100 {
		t.Error("expected min=100")
	}
	if tree.MaxLevel().Price != 200 {
		t.Error("expected max=200")
	}

	if !tree.DeleteLevel(100) {
		t.Error("DeleteLevel failed")
	}
	if tree.FindLevel(100) != nil {
		t.Error("expected level 100 to be gone")
	}
}

func TestDeleteNonExistentLevel(t *testing.T) {
	tree := newRBTree()
	if tree.DeleteLevel(123) {
		t.Error("expected false when deleting non-existent level")
	}
}

func TestEmptyTreeMinMax(t *testing.T) {
	tree := newRBTree()
	if tree.MinLevel() != nil || tree.MaxLevel() != nil {
		t.Error("expected nil for min/max on empty tree")
	}
}

func TestUpsertDuplicateLevel(t *testing.T) {
	tree := newRBTree()
	pl1 := tree.UpsertLevel(150)
	pl2 := tree.UpsertLevel(150)
	if pl1 != pl2 {
		t.Error("Upsert should return the same node for duplicate level")
	}
}

func TestIterationOrderUnderChurn(t *testing.T) {
	tree := newRBTree()
	rng := rand.New(rand.NewSource(42))

	present := map[int64]bool{}
	for i := 0; i < 2000; i++ {
		p := int64(rng.Intn(500))
		if rng.Intn(3) == 0 {
			tree.DeleteLevel(p)
			delete(present, p)
		} else {
			tree.UpsertLevel(p)
			present[p] = true
		}
	}
	if tree.Size() != len(present) {
		t.Fatalf("size=%d, want %d", tree.Size(), len(present))
	}

	prev := int64(-1)
	count := 0
	tree.ForEachAscending(func(lvl *PriceLevel) bool {
		if lvl.Price <= prev {
			t.Fatalf("ascending iteration not strictly increasing: %d after %d", lvl.Price, prev)
		}
		prev = lvl.Price
		count++
		return true
	})
	if count != len(present) {
		t.Errorf("ascending visited %d levels, want %d", count, len(present))
	}

	prev = int64(1 << 62)
	tree.ForEachDescending(func(lvl *PriceLevel) bool {
		if lvl.Price >= prev {
			t.Fatalf("descending iteration not strictly decreasing: %d after %d", lvl.Price, prev)
		}
		prev = lvl.Price
		return true
	})
}

func TestBestLevelsTrackDeletes(t *testing.T) {
	tree := newRBTree()
	for _, p := range []int64{150, 100, 200, 125, 175} {
		tree.UpsertLevel(p)
	}

	// Drain from the min side; the cached best must follow.
	for _, want := range []int64{100, 125, 150, 175} {
		if got := tree.MinLevel().Price; got != want {
			t.Fatalf("min=%d, want %d", got, want)
		}
		if !tree.DeleteLevel(want) {
			t.Fatalf("delete %d failed", want)
		}
	}
	if tree.MinLevel().Price != 200 || tree.MaxLevel().Price != 200 {
		t.Error("single remaining level must be both extremes")
	}

	tree.DeleteLevel(200)
	if tree.MinLevel() != nil || tree.MaxLevel() != nil {
		t.Error("extremes of an empty tree must be nil")
	}

	// Deleting an interior level must not disturb the extremes.
	for _, p := range []int64{150, 100, 200} {
		tree.UpsertLevel(p)
	}
	tree.DeleteLevel(150)
	if tree.MinLevel().Price != 100 || tree.MaxLevel().Price != 200 {
		t.Error("interior delete moved the cached extremes")
	}
}

func TestIterationEarlyStop(t *testing.T) {
	tree := newRBTree()
	for p := int64(1); p <= 10; p++ {
		tree.UpsertLevel(p)
	}
	visited := 0
	tree.ForEachAscending(func(lvl *PriceLevel) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("early stop visited %d, want 3", visited)
	}
}
