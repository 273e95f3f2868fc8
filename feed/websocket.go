package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/wguffey/hft-order-engine/domain/orderbook"
)

// WSConfig configures a WebSocketFeed.
type WSConfig struct {
	URL              string
	TickScale        int32 // decimal places per tick: "150.25" at scale 2 -> 15025 ticks
	QueueSize        uint64
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
}

func (c *WSConfig) defaults() {
	if c.QueueSize == 0 {
		c.QueueSize = 1 << 14
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// WebSocketFeed reads market-data messages from a websocket endpoint and
// dispatches them through the embedded BaseFeed. The connection is retried
// with exponential backoff; reads carry a deadline and the peer is pinged
// on an interval.
type WebSocketFeed struct {
	*BaseFeed

	cfg WSConfig
	log *slog.Logger

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWebSocketFeed(cfg WSConfig, log *slog.Logger) *WebSocketFeed {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &WebSocketFeed{
		BaseFeed: NewBaseFeed(cfg.QueueSize),
		cfg:      cfg,
		log:      log,
	}
}

// Start launches the dispatch loop and the connection loop.
func (f *WebSocketFeed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.StartDispatch(ctx)
	f.wg.Add(1)
	go f.runLoop(ctx)
}

// Stop tears down the connection and waits for both loops.
func (f *WebSocketFeed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.closeConn()
	f.wg.Wait()
	f.Wait()
}

// Subscribe records the symbol and, when connected, sends the subscription
// downstream.
func (f *WebSocketFeed) Subscribe(symbol string) {
	f.BaseFeed.Subscribe(symbol)
	f.sendSubscription("subscribe", symbol)
}

func (f *WebSocketFeed) Unsubscribe(symbol string) {
	f.BaseFeed.Unsubscribe(symbol)
	f.sendSubscription("unsubscribe", symbol)
}

func (f *WebSocketFeed) runLoop(ctx context.Context) {
	defer f.wg.Done()
	retry := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.connect(ctx); err != nil {
			delay := backoff(retry)
			retry++
			f.log.Warn("feed connect failed", "url", f.cfg.URL, "err", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		f.readLoop(ctx)
	}
}

func (f *WebSocketFeed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return err
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	// Re-announce subscriptions on every (re)connect.
	f.mu.RLock()
	symbols := make([]string, 0, len(f.subscribed))
	for s := range f.subscribed {
		symbols = append(symbols, s)
	}
	f.mu.RUnlock()
	for _, s := range symbols {
		f.sendSubscription("subscribe", s)
	}

	if f.cfg.PingInterval > 0 {
		f.wg.Add(1)
		go f.pingLoop(ctx, conn)
	}

	f.log.Info("feed connected", "url", f.cfg.URL)
	return nil
}

func (f *WebSocketFeed) readLoop(ctx context.Context) {
	for {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()
		if conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn("feed read error", "err", err)
			}
			f.closeConn()
			return
		}

		m, err := parseWire(raw, f.cfg.TickScale)
		if err != nil {
			f.log.Warn("feed message dropped", "err", err)
			continue
		}
		if !f.Publish(m) {
			f.log.Warn("feed queue full, message dropped", "symbol", m.Symbol, "kind", m.Kind.String())
		}
	}
}

func (f *WebSocketFeed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer f.wg.Done()
	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			f.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (f *WebSocketFeed) sendSubscription(op, symbol string) {
	f.connMu.Lock()
	conn := f.conn
	f.connMu.Unlock()
	if conn == nil {
		return
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = conn.WriteJSON(map[string]string{"op": op, "symbol": symbol})
}

func (f *WebSocketFeed) closeConn() {
	f.connMu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()
}

// backoff returns an exponential delay capped at 30s.
func backoff(retry int) time.Duration {
	d := time.Second << uint(min(retry, 5))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

/******************** Wire format ********************/

// wireMessage is the upstream JSON shape. Prices arrive as decimal strings
// and are converted to integer ticks before they reach the core.
type wireMessage struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	ID        uint64 `json:"id"`
	Price     string `json:"price"`
	Quantity  uint64 `json:"qty"`
	Side      string `json:"side"`
	OrderType string `json:"order_type"`
	Timestamp int64  `json:"ts"`
}

func parseWire(raw []byte, tickScale int32) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{}, fmt.Errorf("decode feed message: %w", err)
	}

	m := Message{
		Symbol:    w.Symbol,
		OrderID:   w.ID,
		Quantity:  w.Quantity,
		Timestamp: w.Timestamp,
	}

	switch w.Type {
	case "add":
		m.Kind = KindOrderAdd
	case "modify":
		m.Kind = KindOrderModify
	case "cancel":
		m.Kind = KindOrderCancel
	case "trade":
		m.Kind = KindTrade
	case "heartbeat":
		m.Kind = KindHeartbeat
	case "snapshot":
		m.Kind = KindSnapshot
	default:
		return Message{}, fmt.Errorf("unknown feed message type %q", w.Type)
	}

	if w.Price != "" {
		ticks, err := priceToTicks(w.Price, tickScale)
		if err != nil {
			return Message{}, err
		}
		m.Price = ticks
	}

	switch w.Side {
	case "buy", "":
		m.Side = orderbook.Buy
	case "sell":
		m.Side = orderbook.Sell
	default:
		return Message{}, fmt.Errorf("unknown side %q", w.Side)
	}

	switch w.OrderType {
	case "limit", "":
		m.Type = orderbook.Limit
	case "market":
		m.Type = orderbook.Market
	case "stop":
		m.Type = orderbook.Stop
	case "stop_limit":
		m.Type = orderbook.StopLimit
	case "ioc":
		m.Type = orderbook.IOC
	case "fok":
		m.Type = orderbook.FOK
	default:
		return Message{}, fmt.Errorf("unknown order type %q", w.OrderType)
	}

	return m, nil
}

// priceToTicks converts a decimal price string to integer ticks without
// ever touching floating point.
func priceToTicks(s string, tickScale int32) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	scaled := d.Shift(tickScale)
	if !scaled.IsInteger() {
		// finer than one tick: truncate toward zero
		scaled = scaled.Truncate(0)
	}
	return scaled.IntPart(), nil
}
