package orderbook

import "github.com/shopspring/decimal"

// Trade is an immutable execution record produced by the matcher. Price is
// always the resting (maker) price; the timestamp is the taker's.
type Trade struct {
	ID           uint64
	Symbol       string
	Price        int64
	Quantity     uint64
	MakerOrderID uint64
	TakerOrderID uint64
	Timestamp    int64
}

// Notional returns price x quantity in ticks, exactly. int64 x uint64 can
// overflow 64 bits, so the product is carried in a decimal.
func (t Trade) Notional() decimal.Decimal {
	return decimal.NewFromInt(t.Price).Mul(decimal.NewFromUint64(t.Quantity))
}
