package feed

import (
	"sync"

	"github.com/wguffey/hft-order-engine/domain/orderbook"
)

// Handler consumes parsed market-data messages.
type Handler interface {
	HandleMessage(Message)
}

// Registry routes messages to the order book registered for their symbol.
// It is the glue between a feed and the books: OrderAdd, OrderModify and
// OrderCancel delegate to the book facade; Trade, Heartbeat and Snapshot
// are reserved and dropped. Messages for unregistered symbols are dropped.
type Registry struct {
	mu    sync.RWMutex
	books map[string]*orderbook.Book
}

func NewRegistry() *Registry {
	return &Registry{books: make(map[string]*orderbook.Book)}
}

// Register binds symbol to book, replacing any earlier binding.
func (r *Registry) Register(symbol string, b *orderbook.Book) {
	r.mu.Lock()
	r.books[symbol] = b
	r.mu.Unlock()
}

// Unregister removes the binding for symbol.
func (r *Registry) Unregister(symbol string) {
	r.mu.Lock()
	delete(r.books, symbol)
	r.mu.Unlock()
}

// Book returns the book bound to symbol, or nil.
func (r *Registry) Book(symbol string) *orderbook.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.books[symbol]
}

// Symbols returns the registered symbols.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.books))
	for s := range r.books {
		out = append(out, s)
	}
	return out
}

// HandleMessage implements Handler.
func (r *Registry) HandleMessage(m Message) {
	b := r.Book(m.Symbol)
	if b == nil {
		return
	}
	switch m.Kind {
	case KindOrderAdd:
		o := orderbook.NewOrder(m.OrderID, m.Symbol, m.Price, m.Quantity, m.Side, m.Type, m.Timestamp)
		_, _ = b.Add(o)
	case KindOrderModify:
		b.Modify(m.OrderID, m.Price, m.Quantity)
	case KindOrderCancel:
		b.Cancel(m.OrderID)
	}
}
