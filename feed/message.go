package feed

import "github.com/wguffey/hft-order-engine/domain/orderbook"

type MessageKind uint8

const (
	KindOrderAdd MessageKind = iota
	KindOrderModify
	KindOrderCancel
	KindTrade
	KindHeartbeat
	KindSnapshot
)

func (k MessageKind) String() string {
	switch k {
	case KindOrderAdd:
		return "ORDER_ADD"
	case KindOrderModify:
		return "ORDER_MODIFY"
	case KindOrderCancel:
		return "ORDER_CANCEL"
	case KindTrade:
		return "TRADE"
	case KindHeartbeat:
		return "HEARTBEAT"
	case KindSnapshot:
		return "SNAPSHOT"
	default:
		return "UNKNOWN"
	}
}

// Message is the tagged union of upstream market-data events. Kind selects
// which fields are meaningful: OrderAdd uses all of them, OrderModify uses
// OrderID/Price/Quantity, OrderCancel only OrderID. Trade, Heartbeat and
// Snapshot are carried but not acted on.
type Message struct {
	Kind      MessageKind
	Symbol    string
	OrderID   uint64
	Price     int64
	Quantity  uint64
	Side      orderbook.Side
	Type      orderbook.OrderType
	Timestamp int64
}
