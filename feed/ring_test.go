package feed

import (
	"sync"
	"testing"
)

func TestRingFIFO(t *testing.T) {
	q := NewRing(8)
	for i := uint64(1); i <= 8; i++ {
		if !q.Enqueue(Message{OrderID: i}) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if q.Enqueue(Message{OrderID: 9}) {
		t.Error("enqueue into a full ring must fail")
	}
	for i := uint64(1); i <= 8; i++ {
		m, ok := q.Dequeue()
		if !ok || m.OrderID != i {
			t.Fatalf("dequeue %d: ok=%v id=%d", i, ok, m.OrderID)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("dequeue from an empty ring must fail")
	}
}

func TestRingCapacityMustBePowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non power-of-2 capacity")
		}
	}()
	NewRing(12)
}

func TestRingSPSC(t *testing.T) {
	q := NewRing(1 << 10)
	const n = 100000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= n; {
			if q.Enqueue(Message{OrderID: i}) {
				i++
			}
		}
	}()

	next := uint64(1)
	for next <= n {
		m, ok := q.Dequeue()
		if !ok {
			continue
		}
		if m.OrderID != next {
			t.Fatalf("out of order: got %d, want %d", m.OrderID, next)
		}
		next++
	}
	wg.Wait()
}
