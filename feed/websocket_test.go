package feed

import (
	"testing"

	"github.com/wguffey/hft-order-engine/domain/orderbook"
)

func TestParseWireAdd(t *testing.T) {
	raw := []byte(`{"type":"add","symbol":"BTC-USD","id":7,"price":"150.25","qty":100,"side":"sell","order_type":"limit","ts":42}`)
	m, err := parseWire(raw, 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Kind != KindOrderAdd || m.Symbol != "BTC-USD" || m.OrderID != 7 {
		t.Errorf("header fields wrong: %+v", m)
	}
	if m.Price != 15025 {
		t.Errorf("price=%d ticks, want 15025", m.Price)
	}
	if m.Side != orderbook.Sell || m.Type != orderbook.Limit || m.Quantity != 100 || m.Timestamp != 42 {
		t.Errorf("body fields wrong: %+v", m)
	}
}

func TestParseWirePriceScaling(t *testing.T) {
	cases := []struct {
		price string
		scale int32
		ticks int64
	}{
		{"150.25", 2, 15025},
		{"150", 2, 15000},
		{"0.00123", 8, 123000},
		{"-1.5", 2, -150},
		{"150.259", 2, 15025}, // finer than a tick: truncated
	}
	for _, tc := range cases {
		got, err := priceToTicks(tc.price, tc.scale)
		if err != nil {
			t.Errorf("%q: %v", tc.price, err)
			continue
		}
		if got != tc.ticks {
			t.Errorf("%q at scale %d: got %d ticks, want %d", tc.price, tc.scale, got, tc.ticks)
		}
	}
}

func TestParseWireRejectsUnknown(t *testing.T) {
	for _, raw := range []string{
		`{"type":"bogus","symbol":"X"}`,
		`{"type":"add","symbol":"X","side":"up"}`,
		`{"type":"add","symbol":"X","side":"buy","order_type":"weird"}`,
		`not json`,
	} {
		if _, err := parseWire([]byte(raw), 2); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestParseWireHeartbeat(t *testing.T) {
	m, err := parseWire([]byte(`{"type":"heartbeat","symbol":"BTC-USD"}`), 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Kind != KindHeartbeat {
		t.Errorf("kind=%v, want heartbeat", m.Kind)
	}
}
