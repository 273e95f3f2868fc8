package orderbook

import "testing"

func mkResting(id uint64, qty uint64) *Order {
	o := NewOrder(id, "FOO", 100, qty, Buy, Limit, int64(id))
	return &o
}

func TestLevelFIFOOrder(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	lvl.Enqueue(mkResting(1, 10))
	lvl.Enqueue(mkResting(2, 20))
	lvl.Enqueue(mkResting(3, 30))

	if lvl.TotalQty != 60 || lvl.Len() != 3 {
		t.Fatalf("total=%d len=%d", lvl.TotalQty, lvl.Len())
	}

	want := []uint64{1, 2, 3}
	i := 0
	for n := lvl.Head(); n != nil; n = n.Next() {
		if n.ID != want[i] {
			t.Errorf("position %d: got id %d, want %d", i, n.ID, want[i])
		}
		i++
	}
}

func TestLevelUnlinkMiddle(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	a, b, c := mkResting(1, 10), mkResting(2, 20), mkResting(3, 30)
	lvl.Enqueue(a)
	lvl.Enqueue(b)
	lvl.Enqueue(c)

	lvl.Reduce(b.Remaining)
	lvl.Unlink(b)

	if lvl.TotalQty != 40 || lvl.Len() != 2 {
		t.Fatalf("total=%d len=%d after middle unlink", lvl.TotalQty, lvl.Len())
	}
	if lvl.Head() != a || a.Next() != c || c.Next() != nil {
		t.Error("queue links broken after middle unlink")
	}
}

func TestLevelUnlinkHeadAndTail(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	a, b := mkResting(1, 10), mkResting(2, 20)
	lvl.Enqueue(a)
	lvl.Enqueue(b)

	lvl.Reduce(a.Remaining)
	lvl.Unlink(a)
	if lvl.Head() != b {
		t.Error("head unlink did not promote next order")
	}

	lvl.Reduce(b.Remaining)
	lvl.Unlink(b)
	if !lvl.Empty() || lvl.TotalQty != 0 {
		t.Error("level should be empty after removing last order")
	}
}

func TestLevelFindByID(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	lvl.Enqueue(mkResting(7, 1))
	lvl.Enqueue(mkResting(9, 1))

	if o := lvl.find(9); o == nil || o.ID != 9 {
		t.Error("find(9) failed")
	}
	if lvl.find(8) != nil {
		t.Error("find of absent id should return nil")
	}
}
