package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) PublishAnnotationCreated(ctx context.Context, a *domain.Annotation) error {
	data, err := json.Marshal(AnnotationEvent{Type: EventAnnotationCreated, ID: a.ID, Annotation: a, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectAnnotationCreated, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishAnnotationDeleted(ctx context.Context, id string) error {
	data, err := json.Marshal(AnnotationEvent{Type: EventAnnotationDeleted, ID: id, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectAnnotationDeleted, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishLayerUpdated(ctx context.Context, kind domain.LayerKind, count int) error {
	subject, data, err := encodeLayerEvent(kind, count, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("ankyra"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
