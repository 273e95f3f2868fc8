package wire

import "google.golang.org/protobuf/encoding/protowire"

// Side and OrderType enum values, mirroring engine.proto.
const (
	SideBuy  uint64 = 0
	SideSell uint64 = 1
)

const (
	OrderTypeLimit     uint64 = 0
	OrderTypeMarket    uint64 = 1
	OrderTypeStop      uint64 = 2
	OrderTypeStopLimit uint64 = 3
	OrderTypeIOC       uint64 = 4
	OrderTypeFOK       uint64 = 5
)

// Trade mirrors the Trade message in engine.proto.
type Trade struct {
	ID           uint64 // 1
	Symbol       string // 2
	Price        int64  // 3
	Quantity     uint64 // 4
	MakerOrderID uint64 // 5
	TakerOrderID uint64 // 6
	Timestamp    int64  // 7
}

func (m *Trade) MarshalWire() []byte {
	var b []byte
	b = appendUint(b, 1, m.ID)
	b = appendString(b, 2, m.Symbol)
	b = appendSint(b, 3, m.Price)
	b = appendUint(b, 4, m.Quantity)
	b = appendUint(b, 5, m.MakerOrderID)
	b = appendUint(b, 6, m.TakerOrderID)
	b = appendSint(b, 7, m.Timestamp)
	return b
}

func (m *Trade) UnmarshalWire(data []byte) error {
	*m = Trade{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.ID, n = consumeUint(typ, b)
		case 2:
			m.Symbol, n = consumeString(typ, b)
		case 3:
			m.Price, n = consumeSint(typ, b)
		case 4:
			m.Quantity, n = consumeUint(typ, b)
		case 5:
			m.MakerOrderID, n = consumeUint(typ, b)
		case 6:
			m.TakerOrderID, n = consumeUint(typ, b)
		case 7:
			m.Timestamp, n = consumeSint(typ, b)
		}
		return n
	})
}

// TopOfBook mirrors the TopOfBook message in engine.proto.
type TopOfBook struct {
	Symbol    string // 1
	BidPrice  int64  // 2
	BidSize   uint64 // 3
	AskPrice  int64  // 4
	AskSize   uint64 // 5
	Timestamp int64  // 6
}

func (m *TopOfBook) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Symbol)
	b = appendSint(b, 2, m.BidPrice)
	b = appendUint(b, 3, m.BidSize)
	b = appendSint(b, 4, m.AskPrice)
	b = appendUint(b, 5, m.AskSize)
	b = appendSint(b, 6, m.Timestamp)
	return b
}

func (m *TopOfBook) UnmarshalWire(data []byte) error {
	*m = TopOfBook{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.Symbol, n = consumeString(typ, b)
		case 2:
			m.BidPrice, n = consumeSint(typ, b)
		case 3:
			m.BidSize, n = consumeUint(typ, b)
		case 4:
			m.AskPrice, n = consumeSint(typ, b)
		case 5:
			m.AskSize, n = consumeUint(typ, b)
		case 6:
			m.Timestamp, n = consumeSint(typ, b)
		}
		return n
	})
}

// AddOrderRequest mirrors engine.proto.
type AddOrderRequest struct {
	ID        uint64 // 1
	Symbol    string // 2
	Price     int64  // 3
	Quantity  uint64 // 4
	Side      uint64 // 5
	Type      uint64 // 6
	Timestamp int64  // 7
}

func (m *AddOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint(b, 1, m.ID)
	b = appendString(b, 2, m.Symbol)
	b = appendSint(b, 3, m.Price)
	b = appendUint(b, 4, m.Quantity)
	b = appendUint(b, 5, m.Side)
	b = appendUint(b, 6, m.Type)
	b = appendSint(b, 7, m.Timestamp)
	return b
}

func (m *AddOrderRequest) UnmarshalWire(data []byte) error {
	*m = AddOrderRequest{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.ID, n = consumeUint(typ, b)
		case 2:
			m.Symbol, n = consumeString(typ, b)
		case 3:
			m.Price, n = consumeSint(typ, b)
		case 4:
			m.Quantity, n = consumeUint(typ, b)
		case 5:
			m.Side, n = consumeUint(typ, b)
		case 6:
			m.Type, n = consumeUint(typ, b)
		case 7:
			m.Timestamp, n = consumeSint(typ, b)
		}
		return n
	})
}

// AddOrderResponse mirrors engine.proto.
type AddOrderResponse struct {
	Trades []Trade // 1, repeated
}

func (m *AddOrderResponse) MarshalWire() []byte {
	var b []byte
	for i := range m.Trades {
		b = appendMessage(b, 1, &m.Trades[i])
	}
	return b
}

func (m *AddOrderResponse) UnmarshalWire(data []byte) error {
	*m = AddOrderResponse{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return 0
		}
		raw, n := consumeBytes(typ, b)
		if n <= 0 {
			return n
		}
		var t Trade
		if err := t.UnmarshalWire(raw); err != nil {
			return -1
		}
		m.Trades = append(m.Trades, t)
		return n
	})
}

// CancelOrderRequest mirrors engine.proto.
type CancelOrderRequest struct {
	Symbol  string // 1
	OrderID uint64 // 2
}

func (m *CancelOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Symbol)
	b = appendUint(b, 2, m.OrderID)
	return b
}

func (m *CancelOrderRequest) UnmarshalWire(data []byte) error {
	*m = CancelOrderRequest{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.Symbol, n = consumeString(typ, b)
		case 2:
			m.OrderID, n = consumeUint(typ, b)
		}
		return n
	})
}

// CancelOrderResponse mirrors engine.proto.
type CancelOrderResponse struct {
	Canceled bool // 1
}

func (m *CancelOrderResponse) MarshalWire() []byte {
	return appendBool(nil, 1, m.Canceled)
}

func (m *CancelOrderResponse) UnmarshalWire(data []byte) error {
	*m = CancelOrderResponse{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		if num == 1 {
			m.Canceled, n = consumeBool(typ, b)
		}
		return n
	})
}

// ModifyOrderRequest mirrors engine.proto.
type ModifyOrderRequest struct {
	Symbol      string // 1
	OrderID     uint64 // 2
	NewPrice    int64  // 3
	NewQuantity uint64 // 4
}

func (m *ModifyOrderRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Symbol)
	b = appendUint(b, 2, m.OrderID)
	b = appendSint(b, 3, m.NewPrice)
	b = appendUint(b, 4, m.NewQuantity)
	return b
}

func (m *ModifyOrderRequest) UnmarshalWire(data []byte) error {
	*m = ModifyOrderRequest{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.Symbol, n = consumeString(typ, b)
		case 2:
			m.OrderID, n = consumeUint(typ, b)
		case 3:
			m.NewPrice, n = consumeSint(typ, b)
		case 4:
			m.NewQuantity, n = consumeUint(typ, b)
		}
		return n
	})
}

// ModifyOrderResponse mirrors engine.proto.
type ModifyOrderResponse struct {
	Modified bool // 1
}

func (m *ModifyOrderResponse) MarshalWire() []byte {
	return appendBool(nil, 1, m.Modified)
}

func (m *ModifyOrderResponse) UnmarshalWire(data []byte) error {
	*m = ModifyOrderResponse{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		if num == 1 {
			m.Modified, n = consumeBool(typ, b)
		}
		return n
	})
}

// TopOfBookRequest mirrors engine.proto.
type TopOfBookRequest struct {
	Symbol string // 1
}

func (m *TopOfBookRequest) MarshalWire() []byte {
	return appendString(nil, 1, m.Symbol)
}

func (m *TopOfBookRequest) UnmarshalWire(data []byte) error {
	*m = TopOfBookRequest{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		if num == 1 {
			m.Symbol, n = consumeString(typ, b)
		}
		return n
	})
}

// DepthRequest mirrors engine.proto.
type DepthRequest struct {
	Symbol string // 1
	Levels uint64 // 2
}

func (m *DepthRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Symbol)
	b = appendUint(b, 2, m.Levels)
	return b
}

func (m *DepthRequest) UnmarshalWire(data []byte) error {
	*m = DepthRequest{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.Symbol, n = consumeString(typ, b)
		case 2:
			m.Levels, n = consumeUint(typ, b)
		}
		return n
	})
}

// DepthLevel mirrors engine.proto.
type DepthLevel struct {
	Price    int64  // 1
	Quantity uint64 // 2
}

func (m *DepthLevel) MarshalWire() []byte {
	var b []byte
	b = appendSint(b, 1, m.Price)
	b = appendUint(b, 2, m.Quantity)
	return b
}

func (m *DepthLevel) UnmarshalWire(data []byte) error {
	*m = DepthLevel{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.Price, n = consumeSint(typ, b)
		case 2:
			m.Quantity, n = consumeUint(typ, b)
		}
		return n
	})
}

// DepthResponse mirrors engine.proto.
type DepthResponse struct {
	Bids []DepthLevel // 1, repeated
	Asks []DepthLevel // 2, repeated
}

func (m *DepthResponse) MarshalWire() []byte {
	var b []byte
	for i := range m.Bids {
		b = appendMessage(b, 1, &m.Bids[i])
	}
	for i := range m.Asks {
		b = appendMessage(b, 2, &m.Asks[i])
	}
	return b
}

func (m *DepthResponse) UnmarshalWire(data []byte) error {
	*m = DepthResponse{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 && num != 2 {
			return 0
		}
		raw, n := consumeBytes(typ, b)
		if n <= 0 {
			return n
		}
		var lvl DepthLevel
		if err := lvl.UnmarshalWire(raw); err != nil {
			return -1
		}
		if num == 1 {
			m.Bids = append(m.Bids, lvl)
		} else {
			m.Asks = append(m.Asks, lvl)
		}
		return n
	})
}

// ImbalanceRequest mirrors engine.proto.
type ImbalanceRequest struct {
	Symbol string // 1
	Depth  uint64 // 2
}

func (m *ImbalanceRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Symbol)
	b = appendUint(b, 2, m.Depth)
	return b
}

func (m *ImbalanceRequest) UnmarshalWire(data []byte) error {
	*m = ImbalanceRequest{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			m.Symbol, n = consumeString(typ, b)
		case 2:
			m.Depth, n = consumeUint(typ, b)
		}
		return n
	})
}

// ImbalanceResponse mirrors engine.proto.
type ImbalanceResponse struct {
	Imbalance float64 // 1
}

func (m *ImbalanceResponse) MarshalWire() []byte {
	return appendDouble(nil, 1, m.Imbalance)
}

func (m *ImbalanceResponse) UnmarshalWire(data []byte) error {
	*m = ImbalanceResponse{}
	return unmarshalFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		if num == 1 {
			m.Imbalance, n = consumeDouble(typ, b)
		}
		return n
	})
}
