package orderbook

// levelRef locates a resting order: which side's ladder it is on and at
// which price.
type levelRef struct {
	side  Side
	price int64
}

// orderIndex maps the id of every resting order to its ladder position,
// giving cancel and modify O(1) average lookups. An id is present exactly
// while its order rests on a level; it is removed the instant the order is
// consumed.
type orderIndex map[uint64]levelRef

func (ix orderIndex) insert(id uint64, side Side, price int64) {
	ix[id] = levelRef{side: side, price: price}
}

func (ix orderIndex) lookup(id uint64) (levelRef, bool) {
	ref, ok := ix[id]
	return ref, ok
}

// remove is idempotent with respect to absent ids.
func (ix orderIndex) remove(id uint64) {
	delete(ix, id)
}

func (ix orderIndex) contains(id uint64) bool {
	_, ok := ix[id]
	return ok
}
