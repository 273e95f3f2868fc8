// Package outbox is a pebble-backed outbox for trade events. Every trade is
// recorded durably before publication; the broadcaster drains pending
// records into Kafka and advances their state, so a crash between match and
// publish never loses an event.
package outbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var ErrCorruptRecord = errors.New("outbox: corrupted record")

// Record is one outbox entry. Payload carries the wire-encoded event.
type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][crc:4][payload...]
const headerLen = 1 + 4 + 8 + 4

func encodeValue(r *Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	binary.BigEndian.PutUint32(buf[13:17], crc32.ChecksumIEEE(r.Payload))
	copy(buf[headerLen:], r.Payload)
	return buf
}

func decodeValue(b []byte) (Record, error) {
	if len(b) < headerLen {
		return Record{}, ErrCorruptRecord
	}
	payload := append([]byte(nil), b[headerLen:]...)
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(b[13:17]) {
		return Record{}, ErrCorruptRecord
	}
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// Outbox wraps the pebble store.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put inserts a new entry in state NEW.
func (o *Outbox) Put(seq uint64, payload []byte) error {
	rec := Record{Seq: seq, State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodeValue(&rec), pebble.Sync)
}

// Get returns the entry for seq.
func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	rec, err := decodeValue(val)
	if err != nil {
		return Record{}, err
	}
	rec.Seq = seq
	return rec, nil
}

// MarkSent advances seq to SENT, stamps the attempt time and counts the
// attempt in Retries.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.update(seq, func(r *Record) {
		r.State = StateSent
		r.Retries++
		r.LastAttempt = time.Now().UnixNano()
	})
}

// MarkAcked advances seq to ACKED.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.update(seq, func(r *Record) { r.State = StateAcked })
}

// MarkFailed records a failed publish attempt.
func (o *Outbox) MarkFailed(seq uint64) error {
	return o.update(seq, func(r *Record) {
		r.State = StateFailed
		r.LastAttempt = time.Now().UnixNano()
	})
}

// Delete removes an entry (cleanup of ACKED records).
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

func (o *Outbox) update(seq uint64, mutate func(*Record)) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	mutate(&rec)
	return o.db.Set(keyFor(seq), encodeValue(&rec), pebble.Sync)
}

// ScanPending visits, in sequence order, every record that has not been
// acked: NEW, FAILED, and SENT entries whose ack never arrived.
func (o *Outbox) ScanPending(fn func(*Record) error) error {
	return o.scan(func(rec *Record) error {
		if rec.State == StateAcked {
			return nil
		}
		return fn(rec)
	})
}

// ScanByState visits every record in the given state, in sequence order.
func (o *Outbox) ScanByState(state State, fn func(*Record) error) error {
	return o.scan(func(rec *Record) error {
		if rec.State != state {
			return nil
		}
		return fn(rec)
	})
}

func (o *Outbox) scan(fn func(*Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeValue(iter.Value())
		if err != nil {
			return err
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec.Seq = seq
		if err := fn(&rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("trade/"))), "%d", &seq)
	return seq, err
}
