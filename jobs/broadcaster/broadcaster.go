// Package broadcaster drains the trade outbox into Kafka. It runs on a
// ticker, replaying every un-acked record: a record is marked SENT before
// the publish attempt and ACKED after the broker confirms it, so the
// at-least-once contract survives crashes on either side of the send.
package broadcaster

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/wguffey/hft-order-engine/infra/outbox"
)

type Broadcaster struct {
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *slog.Logger
}

// New connects a synchronous producer with full acks. Trades must not be
// dropped by the transport, so no async batching here.
func New(ob *outbox.Outbox, brokers []string, topic string, interval time.Duration, log *slog.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProducer(ob, producer, topic, interval, log), nil
}

// NewWithProducer wires an existing producer (used by tests with the sarama
// mocks).
func NewWithProducer(ob *outbox.Outbox, producer sarama.SyncProducer, topic string, interval time.Duration, log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{
		outbox:   ob,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}
}

// Run flushes pending records until ctx is canceled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", "topic", b.topic, "interval", b.interval)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.FlushOnce()
		}
	}
}

// FlushOnce publishes every pending outbox record once. Failed sends stay
// pending and are retried on the next tick.
func (b *Broadcaster) FlushOnce() {
	err := b.outbox.ScanPending(func(rec *outbox.Record) error {
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		_, _, err := b.producer.SendMessage(&sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(rec.Payload),
		})
		if err != nil {
			b.log.Warn("trade publish failed", "seq", rec.Seq, "err", err)
			_ = b.outbox.MarkFailed(rec.Seq)
			return nil // retry on the next tick
		}

		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error("outbox scan failed", "err", err)
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
