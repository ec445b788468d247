package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/ankyra/internal/adapters/nats"
	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "annotations" | "layers" (default: annotations)
	Kind    string `json:"kind"`    // layer kind filter for "layers" (optional, "" = all)
}

// relaySubject maps a subscription request to a NATS subject.
func relaySubject(m wsMessage) (string, string) {
	channel := m.Channel
	if channel == "" {
		channel = "annotations"
	}

	switch channel {
	case "annotations":
		return natsadapter.SubjectAnnotations, ""
	case "layers":
		if m.Kind == "" {
			return natsadapter.SubjectLayers, ""
		}
		kind, err := domain.ParseLayerKind(m.Kind)
		if err != nil {
			return "", err.Error()
		}
		return natsadapter.LayerSubject(kind), ""
	default:
		return "", "unknown channel: " + channel
	}
}

// EventsWebSocketHandler returns a handler that relays annotation and layer
// events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","channel":"layers","kind":"mana"}
// Every client starts subscribed to annotation events.
func EventsWebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	nc := deps.NATS
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws events client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if nc == nil {
			_ = writeJSON(map[string]string{"error": "event relay unavailable"})
			return
		}

		relay := func(msg *nats.Msg) { _ = writeJSON(json.RawMessage(msg.Data)) }

		sub, err := nc.Subscribe(natsadapter.SubjectAnnotations, relay)
		if err != nil {
			slog.Warn("ws default subscribe error", "error", err)
			return
		}
		subs[natsadapter.SubjectAnnotations] = sub

		done := make(chan struct{})
		go keepAlive(c, &mu, pingInterval(deps), done)

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, problem := relaySubject(m)
			if problem != "" {
				_ = writeJSON(map[string]string{"error": problem})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws events client disconnected", "remote", remoteAddr)
	}
}
