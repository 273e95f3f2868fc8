package orderbook

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TopOfBook is a value snapshot of the best bid and ask. Price 0 and size 0
// denote an empty side.
type TopOfBook struct {
	BidPrice  int64
	BidSize   uint64
	AskPrice  int64
	AskSize   uint64
	Timestamp int64
}

// DepthLevel is one aggregated price level in a depth snapshot.
type DepthLevel struct {
	Price    int64
	Quantity uint64
}

// TradeCallback receives every trade the matcher produces, in order.
type TradeCallback func(Trade)

// UpdateCallback receives a top-of-book snapshot after each mutation.
type UpdateCallback func(TopOfBook)

// Book is a limit order book for a single symbol. One reader-writer lock
// guards both ladders and the order index; writers hold it exclusively for
// the whole operation, so readers only ever observe consistent states.
// Callbacks are invoked after the lock is released, with data captured at
// the moment of emission, so a callback may safely re-enter the book's read
// path.
type Book struct {
	symbol string

	mu    sync.RWMutex
	bids  *rbTree
	asks  *rbTree
	index orderIndex

	tradeCB  TradeCallback
	updateCB UpdateCallback

	lastTradeID atomic.Uint64
	started     time.Time
}

// NewBook creates an empty book for symbol.
func NewBook(symbol string) *Book {
	return &Book{
		symbol:  symbol,
		bids:    newRBTree(),
		asks:    newRBTree(),
		index:   make(orderIndex),
		started: time.Now(),
	}
}

func (b *Book) Symbol() string { return b.symbol }

// now returns monotonic nanoseconds since book creation. The book never
// reads a wall clock; order timestamps are supplied by callers and this is
// only stamped onto top-of-book snapshots.
func (b *Book) now() int64 { return time.Since(b.started).Nanoseconds() }

// RegisterTradeCallback sets the trade callback. A later registration
// replaces the earlier one; nil clears it.
func (b *Book) RegisterTradeCallback(cb TradeCallback) {
	b.mu.Lock()
	b.tradeCB = cb
	b.mu.Unlock()
}

// RegisterUpdateCallback sets the top-of-book callback. A later
// registration replaces the earlier one; nil clears it.
func (b *Book) RegisterUpdateCallback(cb UpdateCallback) {
	b.mu.Lock()
	b.updateCB = cb
	b.mu.Unlock()
}

// Add runs the incoming order through the matcher and rests any LIMIT
// residue on its own side. It returns the trades produced, in price-time
// order. STOP and STOP_LIMIT orders are accepted but neither matched nor
// rested. Market and IOC residue is dropped; FOK matches fully or not at
// all.
//
// The trade callback fires once per trade and the update callback once per
// call if the book mutated, both after the lock is released.
func (b *Book) Add(o Order) ([]Trade, error) {
	if o.Symbol != b.symbol {
		return nil, fmt.Errorf("%w: book=%q order=%q", ErrSymbolMismatch, b.symbol, o.Symbol)
	}
	if o.Type == Stop || o.Type == StopLimit {
		return nil, nil
	}

	b.mu.Lock()
	if b.index.contains(o.ID) {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrDuplicateOrder, o.ID)
	}
	if o.Type == FOK && !b.hasLiquidity(o.Side, o.Price, o.Remaining) {
		b.mu.Unlock()
		return nil, nil
	}

	trades := b.match(&o)

	rested := false
	if o.Remaining > 0 && o.Type == Limit {
		b.rest(&o)
		rested = true
	}

	mutated := len(trades) > 0 || rested
	var (
		tob TopOfBook
		tcb TradeCallback
		ucb UpdateCallback
	)
	if mutated {
		tob = b.topOfBookLocked()
		tcb, ucb = b.tradeCB, b.updateCB
	}
	b.mu.Unlock()

	if tcb != nil {
		for _, t := range trades {
			tcb(t)
		}
	}
	if mutated && ucb != nil {
		ucb(tob)
	}
	return trades, nil
}

// Cancel removes a resting order. It returns false when the id is unknown.
func (b *Book) Cancel(id uint64) bool {
	b.mu.Lock()
	ref, ok := b.index.lookup(id)
	if !ok {
		b.mu.Unlock()
		return false
	}
	tree := b.sideTree(ref.side)
	lvl := tree.FindLevel(ref.price)
	o := lvl.find(id)

	removed := o.Remaining
	o.Cancel()
	lvl.Reduce(removed)
	lvl.Unlink(o)
	if lvl.Empty() {
		tree.DeleteLevel(ref.price)
	}
	b.index.remove(id)

	tob := b.topOfBookLocked()
	ucb := b.updateCB
	b.mu.Unlock()

	if ucb != nil && removed > 0 {
		ucb(tob)
	}
	return true
}

// Modify replaces a resting order's price and quantity, implemented as
// cancel-then-add: the replacement joins the tail of its level and loses
// time priority even when the price is unchanged. It returns false when the
// id is unknown, and true once the order is extracted, even if the
// replacement immediately matches.
func (b *Book) Modify(id uint64, newPrice int64, newQty uint64) bool {
	b.mu.Lock()
	ref, ok := b.index.lookup(id)
	if !ok {
		b.mu.Unlock()
		return false
	}
	tree := b.sideTree(ref.side)
	lvl := tree.FindLevel(ref.price)
	o := lvl.find(id)

	lvl.Reduce(o.Remaining)
	lvl.Unlink(o)
	if lvl.Empty() {
		tree.DeleteLevel(ref.price)
	}
	b.index.remove(id)

	replacement := *o
	b.mu.Unlock()

	replacement.Price = newPrice
	replacement.Quantity = newQty
	replacement.Remaining = newQty
	replacement.Status = New
	_, _ = b.Add(replacement)
	return true
}

// TopOfBook returns the best bid and ask with aggregated sizes.
func (b *Book) TopOfBook() TopOfBook {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.topOfBookLocked()
}

// Depth returns up to levels aggregated price levels per side, bids in
// descending and asks in ascending price order.
func (b *Book) Depth(levels int) (bids, asks []DepthLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.bids.ForEachDescending(func(lvl *PriceLevel) bool {
		if len(bids) >= levels {
			return false
		}
		bids = append(bids, DepthLevel{Price: lvl.Price, Quantity: lvl.TotalQty})
		return true
	})
	b.asks.ForEachAscending(func(lvl *PriceLevel) bool {
		if len(asks) >= levels {
			return false
		}
		asks = append(asks, DepthLevel{Price: lvl.Price, Quantity: lvl.TotalQty})
		return true
	})
	return bids, asks
}

// OrderFlowImbalance returns (B-A)/(B+A) over the top depth levels of each
// side, in [-1, +1]; 0 when both sides are empty.
func (b *Book) OrderFlowImbalance(depth int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var bidQty, askQty uint64
	n := 0
	b.bids.ForEachDescending(func(lvl *PriceLevel) bool {
		if n >= depth {
			return false
		}
		bidQty += lvl.TotalQty
		n++
		return true
	})
	n = 0
	b.asks.ForEachAscending(func(lvl *PriceLevel) bool {
		if n >= depth {
			return false
		}
		askQty += lvl.TotalQty
		n++
		return true
	})

	total := float64(bidQty) + float64(askQty)
	if total == 0 {
		return 0.0
	}
	return (float64(bidQty) - float64(askQty)) / total
}

// AllOrders returns copies of every resting order, bids then asks. Intended
// for diagnostics, not the hot path.
func (b *Book) AllOrders() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Order, 0, len(b.index))
	collect := func(lvl *PriceLevel) bool {
		for n := lvl.Head(); n != nil; n = n.Next() {
			o := *n
			o.next, o.prev = nil, nil
			out = append(out, o)
		}
		return true
	}
	b.bids.ForEachDescending(collect)
	b.asks.ForEachAscending(collect)
	return out
}

// Clear empties both ladders and the index, then fires one top-of-book
// update.
func (b *Book) Clear() {
	b.mu.Lock()
	b.bids.Clear()
	b.asks.Clear()
	clear(b.index)
	tob := b.topOfBookLocked()
	ucb := b.updateCB
	b.mu.Unlock()

	if ucb != nil {
		ucb(tob)
	}
}

// RestingOrders returns the number of orders currently on the book.
func (b *Book) RestingOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.index)
}

/******************** Matching ********************/

// match walks the opposite side best-first, consuming liquidity in strict
// FIFO within each level. The incoming order's remaining quantity is
// mutated in place. Trade price is always the resting level's price.
func (b *Book) match(o *Order) []Trade {
	var trades []Trade
	if o.Side == Buy {
		for o.Remaining > 0 {
			lvl := b.asks.MinLevel()
			if lvl == nil || (o.Type != Market && o.Price < lvl.Price) {
				break
			}
			trades = b.drainLevel(o, lvl, trades)
			if lvl.Empty() {
				b.asks.DeleteLevel(lvl.Price)
			}
		}
	} else {
		for o.Remaining > 0 {
			lvl := b.bids.MaxLevel()
			if lvl == nil || (o.Type != Market && o.Price > lvl.Price) {
				break
			}
			trades = b.drainLevel(o, lvl, trades)
			if lvl.Empty() {
				b.bids.DeleteLevel(lvl.Price)
			}
		}
	}
	return trades
}

func (b *Book) drainLevel(o *Order, lvl *PriceLevel, trades []Trade) []Trade {
	for maker := lvl.Head(); maker != nil && o.Remaining > 0; maker = lvl.Head() {
		q := o.Remaining
		if maker.Remaining < q {
			q = maker.Remaining
		}
		trades = append(trades, Trade{
			ID:           b.lastTradeID.Add(1),
			Symbol:       b.symbol,
			Price:        lvl.Price,
			Quantity:     q,
			MakerOrderID: maker.ID,
			TakerOrderID: o.ID,
			Timestamp:    o.Timestamp,
		})
		_ = maker.Fill(q) // q <= maker.Remaining
		_ = o.Fill(q)     // q <= o.Remaining
		lvl.Reduce(q)
		if maker.Remaining == 0 {
			lvl.Unlink(maker)
			b.index.remove(maker.ID)
		}
	}
	return trades
}

// rest copies the residue onto its own side's level and registers it in the
// index. The book owns the copy from here on.
func (b *Book) rest(o *Order) {
	r := *o
	r.next, r.prev = nil, nil
	lvl := b.sideTree(o.Side).UpsertLevel(o.Price)
	lvl.Enqueue(&r)
	b.index.insert(o.ID, o.Side, o.Price)
}

// hasLiquidity reports whether at least desired units rest at prices
// acceptable to a FOK order with the given limit.
func (b *Book) hasLiquidity(side Side, limit int64, desired uint64) bool {
	var avail uint64
	if side == Buy {
		b.asks.ForEachAscending(func(lvl *PriceLevel) bool {
			if lvl.Price > limit {
				return false
			}
			avail += lvl.TotalQty
			return avail < desired
		})
	} else {
		b.bids.ForEachDescending(func(lvl *PriceLevel) bool {
			if lvl.Price < limit {
				return false
			}
			avail += lvl.TotalQty
			return avail < desired
		})
	}
	return avail >= desired
}

func (b *Book) sideTree(s Side) *rbTree {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) topOfBookLocked() TopOfBook {
	tob := TopOfBook{Timestamp: b.now()}
	if best := b.bids.MaxLevel(); best != nil {
		tob.BidPrice = best.Price
		tob.BidSize = best.TotalQty
	}
	if best := b.asks.MinLevel(); best != nil {
		tob.AskPrice = best.Price
		tob.AskSize = best.TotalQty
	}
	return tob
}
