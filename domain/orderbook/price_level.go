package orderbook

import "fmt"

// PriceLevel holds the resting orders at one price as an intrusive FIFO
// queue, newest at the tail. TotalQty caches the sum of remaining
// quantities; it is the single source of truth for depth reporting and is
// never recomputed by summation on the matching path.
type PriceLevel struct {
	Price    int64
	TotalQty uint64

	head *Order
	tail *Order
	size int
}

// Enqueue appends o at the tail of the queue.
func (lvl *PriceLevel) Enqueue(o *Order) {
	if lvl.tail != nil {
		lvl.tail.next = o
		o.prev = lvl.tail
	} else {
		lvl.head = o
	}
	lvl.tail = o
	lvl.size++
	lvl.TotalQty += o.Remaining
}

// Unlink removes o from the queue without touching TotalQty; callers
// account for quantity via Reduce before (or instead of) unlinking.
func (lvl *PriceLevel) Unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		lvl.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		lvl.tail = o.prev
	}
	o.next, o.prev = nil, nil
	lvl.size--
}

// Reduce subtracts q from the cached total.
func (lvl *PriceLevel) Reduce(q uint64) {
	lvl.TotalQty -= q
}

// Head returns the oldest resting order, or nil when the level is empty.
func (lvl *PriceLevel) Head() *Order { return lvl.head }

// Empty reports whether no orders rest at this level.
func (lvl *PriceLevel) Empty() bool { return lvl.head == nil }

// Len returns the number of resting orders.
func (lvl *PriceLevel) Len() int { return lvl.size }

// find walks the queue for the order with the given id.
func (lvl *PriceLevel) find(id uint64) *Order {
	for n := lvl.head; n != nil; n = n.next {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (lvl *PriceLevel) String() string {
	return fmt.Sprintf("PriceLevel{Price=%d, Orders=%d, TotalQty=%d}", lvl.Price, lvl.size, lvl.TotalQty)
}
