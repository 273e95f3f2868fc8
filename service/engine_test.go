package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wguffey/hft-order-engine/api/wire"
	"github.com/wguffey/hft-order-engine/domain/orderbook"
	"github.com/wguffey/hft-order-engine/feed"
)

type capturingOutbox struct {
	mu      sync.Mutex
	entries map[uint64][]byte
}

func (c *capturingOutbox) Put(seq uint64, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[uint64][]byte)
	}
	if _, dup := c.entries[seq]; dup {
		return errors.New("duplicate outbox seq")
	}
	c.entries[seq] = payload
	return nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	values [][]byte
	keys   []string
}

func (c *capturingPublisher) Send(_ context.Context, key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, string(key))
	c.values = append(c.values, value)
	return nil
}

type capturingSink struct {
	mu     sync.Mutex
	trades []orderbook.Trade
}

func (c *capturingSink) SaveTrade(t orderbook.Trade) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = append(c.trades, t)
	return nil
}

func newTestEngine() (*Engine, *capturingOutbox, *capturingPublisher, *capturingSink) {
	ob := &capturingOutbox{}
	pub := &capturingPublisher{}
	sink := &capturingSink{}
	e := New(Options{
		Symbols:   []string{"FOO", "BAR"},
		Outbox:    ob,
		Publisher: pub,
		Store:     sink,
	})
	return e, ob, pub, sink
}

func TestTradeFanOut(t *testing.T) {
	e, ob, pub, sink := newTestEngine()

	if _, err := e.Add(orderbook.NewOrder(1, "FOO", 15000, 50, orderbook.Sell, orderbook.Limit, 1)); err != nil {
		t.Fatal(err)
	}
	trades, err := e.Add(orderbook.NewOrder(2, "FOO", 15000, 30, orderbook.Buy, orderbook.Limit, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	if len(sink.trades) != 1 || sink.trades[0].Quantity != 30 {
		t.Errorf("trade store: %+v", sink.trades)
	}

	if len(ob.entries) != 1 {
		t.Fatalf("outbox entries: %d", len(ob.entries))
	}
	for _, payload := range ob.entries {
		var decoded wire.Trade
		if err := decoded.UnmarshalWire(payload); err != nil {
			t.Fatalf("outbox payload not decodable: %v", err)
		}
		if decoded.Symbol != "FOO" || decoded.Quantity != 30 || decoded.Price != 15000 {
			t.Errorf("outbox payload: %+v", decoded)
		}
	}

	// two mutations: the resting sell, then the partially-filling buy
	if len(pub.values) != 2 {
		t.Fatalf("expected 2 top-of-book publications, got %d", len(pub.values))
	}
	var tob wire.TopOfBook
	if err := tob.UnmarshalWire(pub.values[1]); err != nil {
		t.Fatalf("tob payload: %v", err)
	}
	if tob.Symbol != "FOO" || tob.AskPrice != 15000 || tob.AskSize != 20 {
		t.Errorf("tob after partial fill: %+v", tob)
	}
	if pub.keys[0] != "FOO" {
		t.Errorf("tob key should be the symbol, got %q", pub.keys[0])
	}
}

func TestUnknownSymbol(t *testing.T) {
	e, _, _, _ := newTestEngine()

	if _, err := e.Add(orderbook.NewOrder(1, "BAZ", 1, 1, orderbook.Buy, orderbook.Limit, 1)); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Add: %v", err)
	}
	if _, err := e.Cancel("BAZ", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Cancel: %v", err)
	}
	if _, err := e.TopOfBook("BAZ"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("TopOfBook: %v", err)
	}
	if _, _, err := e.Depth("BAZ", 5); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Depth: %v", err)
	}
	if _, err := e.Imbalance("BAZ", 5); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Imbalance: %v", err)
	}
}

func TestFeedMessagesReachTheRightBook(t *testing.T) {
	e, _, _, _ := newTestEngine()

	e.HandleMessage(feed.Message{
		Kind: feed.KindOrderAdd, Symbol: "BAR", OrderID: 9,
		Price: 14900, Quantity: 10, Side: orderbook.Buy, Type: orderbook.Limit, Timestamp: 1,
	})

	bar, _ := e.Book("BAR")
	if n := bar.RestingOrders(); n != 1 {
		t.Errorf("BAR should hold the order, has %d", n)
	}
	foo, _ := e.Book("FOO")
	if n := foo.RestingOrders(); n != 0 {
		t.Errorf("FOO should be empty, has %d", n)
	}

	e.HandleMessage(feed.Message{Kind: feed.KindOrderCancel, Symbol: "BAR", OrderID: 9})
	if n := bar.RestingOrders(); n != 0 {
		t.Errorf("cancel via feed failed, %d rest", n)
	}
}

func TestEngineQueries(t *testing.T) {
	e, _, _, _ := newTestEngine()

	mustAdd := func(o orderbook.Order) {
		t.Helper()
		if _, err := e.Add(o); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(orderbook.NewOrder(1, "FOO", 14900, 100, orderbook.Buy, orderbook.Limit, 1))
	mustAdd(orderbook.NewOrder(2, "FOO", 15100, 50, orderbook.Sell, orderbook.Limit, 2))

	tob, err := e.TopOfBook("FOO")
	if err != nil || tob.BidPrice != 14900 || tob.AskPrice != 15100 {
		t.Errorf("tob=%+v err=%v", tob, err)
	}

	bids, asks, err := e.Depth("FOO", 5)
	if err != nil || len(bids) != 1 || len(asks) != 1 {
		t.Errorf("depth: %v %v %v", bids, asks, err)
	}

	ofi, err := e.Imbalance("FOO", 5)
	if err != nil {
		t.Fatal(err)
	}
	want := (100.0 - 50.0) / 150.0
	if ofi != want {
		t.Errorf("ofi=%v, want %v", ofi, want)
	}
}
