/*
Package service wires the order books to the infrastructure.

Engine owns one book per configured symbol and binds their callbacks: every
trade goes to the durable outbox (for the Kafka broadcaster) and the trade
store; every top-of-book update is streamed to the snapshot topic. It also
routes feed messages to the right book and backs the gRPC surface.
*/
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wguffey/hft-order-engine/api/wire"
	"github.com/wguffey/hft-order-engine/domain/orderbook"
	"github.com/wguffey/hft-order-engine/feed"
)

var ErrUnknownSymbol = errors.New("service: unknown symbol")

// Publisher streams top-of-book snapshots (infra/kafka).
type Publisher interface {
	Send(ctx context.Context, key, value []byte) error
}

// TradeOutbox records trades durably before publication (infra/outbox).
type TradeOutbox interface {
	Put(seq uint64, payload []byte) error
}

// TradeSink archives executed trades (infra/storage).
type TradeSink interface {
	SaveTrade(orderbook.Trade) error
}

type Options struct {
	Symbols   []string
	Outbox    TradeOutbox
	Publisher Publisher
	Store     TradeSink
	Logger    *slog.Logger
}

type Engine struct {
	books    map[string]*orderbook.Book
	registry *feed.Registry

	outbox    TradeOutbox
	publisher Publisher
	store     TradeSink
	log       *slog.Logger

	// outbox sequence; seeded from the clock so keys stay unique across
	// restarts
	seq atomic.Uint64
}

// New builds the engine, one book per symbol, with callbacks bound. The
// book set is fixed for the life of the engine.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		books:     make(map[string]*orderbook.Book, len(opts.Symbols)),
		registry:  feed.NewRegistry(),
		outbox:    opts.Outbox,
		publisher: opts.Publisher,
		store:     opts.Store,
		log:       log,
	}
	e.seq.Store(uint64(time.Now().UnixNano()))

	for _, sym := range opts.Symbols {
		b := orderbook.NewBook(sym)
		b.RegisterTradeCallback(e.onTrade)
		b.RegisterUpdateCallback(e.topOfBookCallback(sym))
		e.books[sym] = b
		e.registry.Register(sym, b)
	}
	return e
}

// Registry exposes the symbol router for feed registration.
func (e *Engine) Registry() *feed.Registry { return e.registry }

// HandleMessage implements feed.Handler.
func (e *Engine) HandleMessage(m feed.Message) {
	e.registry.HandleMessage(m)
}

// Book returns the book for symbol.
func (e *Engine) Book(symbol string) (*orderbook.Book, bool) {
	b, ok := e.books[symbol]
	return b, ok
}

/******************** Commands ********************/

func (e *Engine) Add(o orderbook.Order) ([]orderbook.Trade, error) {
	b, ok := e.books[o.Symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, o.Symbol)
	}
	return b.Add(o)
}

func (e *Engine) Cancel(symbol string, id uint64) (bool, error) {
	b, ok := e.books[symbol]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return b.Cancel(id), nil
}

func (e *Engine) Modify(symbol string, id uint64, newPrice int64, newQty uint64) (bool, error) {
	b, ok := e.books[symbol]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return b.Modify(id, newPrice, newQty), nil
}

/******************** Queries ********************/

func (e *Engine) TopOfBook(symbol string) (orderbook.TopOfBook, error) {
	b, ok := e.books[symbol]
	if !ok {
		return orderbook.TopOfBook{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return b.TopOfBook(), nil
}

func (e *Engine) Depth(symbol string, levels int) (bids, asks []orderbook.DepthLevel, err error) {
	b, ok := e.books[symbol]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	bids, asks = b.Depth(levels)
	return bids, asks, nil
}

func (e *Engine) Imbalance(symbol string, depth int) (float64, error) {
	b, ok := e.books[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return b.OrderFlowImbalance(depth), nil
}

/******************** Event fan-out ********************/

func (e *Engine) onTrade(t orderbook.Trade) {
	if e.store != nil {
		if err := e.store.SaveTrade(t); err != nil {
			e.log.Error("trade store append failed", "symbol", t.Symbol, "trade_id", t.ID, "err", err)
		}
	}
	if e.outbox != nil {
		msg := wire.Trade{
			ID:           t.ID,
			Symbol:       t.Symbol,
			Price:        t.Price,
			Quantity:     t.Quantity,
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			Timestamp:    t.Timestamp,
		}
		seq := e.seq.Add(1)
		if err := e.outbox.Put(seq, msg.MarshalWire()); err != nil {
			e.log.Error("outbox append failed", "symbol", t.Symbol, "trade_id", t.ID, "err", err)
		}
	}
}

func (e *Engine) topOfBookCallback(symbol string) orderbook.UpdateCallback {
	key := []byte(symbol)
	return func(tob orderbook.TopOfBook) {
		if e.publisher == nil {
			return
		}
		msg := wire.TopOfBook{
			Symbol:    symbol,
			BidPrice:  tob.BidPrice,
			BidSize:   tob.BidSize,
			AskPrice:  tob.AskPrice,
			AskSize:   tob.AskSize,
			Timestamp: tob.Timestamp,
		}
		if err := e.publisher.Send(context.Background(), key, msg.MarshalWire()); err != nil {
			e.log.Warn("top-of-book publish failed", "symbol", symbol, "err", err)
		}
	}
}
