package outbox

import (
	"bytes"
	"errors"
	"testing"
)

func openTest(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestPutGetRoundTrip(t *testing.T) {
	o := openTest(t)
	payload := []byte("trade payload")
	if err := o.Put(1, payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec, err := o.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Seq != 1 || rec.State != StateNew || !bytes.Equal(rec.Payload, payload) {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestStateTransitions(t *testing.T) {
	o := openTest(t)
	if err := o.Put(7, []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := o.MarkSent(7); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	rec, _ := o.Get(7)
	if rec.State != StateSent || rec.Retries != 1 || rec.LastAttempt == 0 {
		t.Errorf("after sent: %+v", rec)
	}

	if err := o.MarkAcked(7); err != nil {
		t.Fatalf("mark acked: %v", err)
	}
	rec, _ = o.Get(7)
	if rec.State != StateAcked {
		t.Errorf("after acked: %+v", rec)
	}
	if !bytes.Equal(rec.Payload, []byte("x")) {
		t.Error("payload lost across state updates")
	}
}

func TestScanPendingSkipsAcked(t *testing.T) {
	o := openTest(t)
	for seq := uint64(1); seq <= 5; seq++ {
		if err := o.Put(seq, []byte{byte(seq)}); err != nil {
			t.Fatal(err)
		}
	}
	_ = o.MarkSent(2)
	_ = o.MarkAcked(2)
	_ = o.MarkSent(4) // sent but never acked: still pending

	var seen []uint64
	err := o.ScanPending(func(rec *Record) error {
		seen = append(seen, rec.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []uint64{1, 3, 4, 5}
	if len(seen) != len(want) {
		t.Fatalf("pending=%v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("pending=%v, want %v", seen, want)
		}
	}
}

func TestScanByState(t *testing.T) {
	o := openTest(t)
	_ = o.Put(1, []byte("a"))
	_ = o.Put(2, []byte("b"))
	_ = o.MarkSent(2)
	_ = o.MarkFailed(2)

	var failed []uint64
	_ = o.ScanByState(StateFailed, func(rec *Record) error {
		failed = append(failed, rec.Seq)
		return nil
	})
	if len(failed) != 1 || failed[0] != 2 {
		t.Errorf("failed=%v, want [2]", failed)
	}
}

func TestCorruptValueDetected(t *testing.T) {
	if _, err := decodeValue([]byte{0, 1, 2}); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("short value: %v", err)
	}

	rec := Record{State: StateNew, Payload: []byte("payload")}
	buf := encodeValue(&rec)
	buf[len(buf)-1] ^= 0xff // flip a payload byte
	if _, err := decodeValue(buf); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("crc mismatch not detected: %v", err)
	}
}

func TestDelete(t *testing.T) {
	o := openTest(t)
	_ = o.Put(1, []byte("x"))
	if err := o.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := o.Get(1); err == nil {
		t.Error("expected error after delete")
	}
}
