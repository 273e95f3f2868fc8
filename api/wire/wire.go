// Package wire encodes the engine's public messages in protobuf wire
// format. The encoders are hand-written against encoding/protowire rather
// than generated, keeping the publish path free of reflection; engine.proto
// documents the schema and field numbers.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every wire message in this package.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(data []byte) error
}

var errNotWireMessage = errors.New("wire: value does not implement wire.Message")

// Codec is a gRPC codec for wire messages. Install with
// grpc.ForceServerCodec on the server and grpc.ForceCodec per call on the
// client.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errNotWireMessage, v)
	}
	return m.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("%w: %T", errNotWireMessage, v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return "proto" }

/******************** Encode helpers ********************/

// Zero values are omitted, matching proto3 presence rules.

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendSint encodes a zigzag sint64 field.
func appendSint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.MarshalWire())
}

/******************** Decode helpers ********************/

// Each consume helper returns the bytes used: 0 means the wire type did not
// match and the caller should skip the field, negative is a parse error.

func consumeUint(typ protowire.Type, b []byte) (uint64, int) {
	if typ != protowire.VarintType {
		return 0, 0
	}
	return protowire.ConsumeVarint(b)
}

func consumeSint(typ protowire.Type, b []byte) (int64, int) {
	v, n := consumeUint(typ, b)
	return protowire.DecodeZigZag(v), n
}

func consumeBool(typ protowire.Type, b []byte) (bool, int) {
	v, n := consumeUint(typ, b)
	return v != 0, n
}

func consumeString(typ protowire.Type, b []byte) (string, int) {
	if typ != protowire.BytesType {
		return "", 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return "", n
	}
	return string(v), n
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int) {
	if typ != protowire.BytesType {
		return nil, 0
	}
	return protowire.ConsumeBytes(b)
}

func consumeDouble(typ protowire.Type, b []byte) (float64, int) {
	if typ != protowire.Fixed64Type {
		return 0, 0
	}
	v, n := protowire.ConsumeFixed64(b)
	return math.Float64frombits(v), n
}

// unmarshalFields walks every field in b. fn returns the bytes it consumed;
// 0 means the field is unknown or of an unexpected type and is skipped.
func unmarshalFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		used := fn(num, typ, b)
		if used < 0 {
			return protowire.ParseError(used)
		}
		if used == 0 {
			used = protowire.ConsumeFieldValue(num, typ, b)
			if used < 0 {
				return protowire.ParseError(used)
			}
		}
		b = b[used:]
	}
	return nil
}
