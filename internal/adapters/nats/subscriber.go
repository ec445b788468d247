package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
// Subscriptions are ephemeral and start at new messages, so every API
// instance sees every event.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeLayerUpdates(ctx context.Context, handler func(ctx context.Context, kind domain.LayerKind) error) error {
	sub, err := s.js.Subscribe(SubjectLayers, func(msg *nats.Msg) {
		kind, err := decodeLayerEvent(msg.Subject, msg.Data)
		if err != nil {
			slog.Warn("dropping malformed layer event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, kind); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeAnnotationChanges(ctx context.Context, handler func(ctx context.Context) error) error {
	sub, err := s.js.Subscribe(SubjectAnnotations, func(msg *nats.Msg) {
		if err := handler(ctx); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
