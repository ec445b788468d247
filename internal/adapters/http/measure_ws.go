package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/ankyra/internal/adapters/surface"
	"github.com/samirrijal/ankyra/internal/core/domain"
	"github.com/samirrijal/ankyra/internal/core/usecases"
	"github.com/samirrijal/ankyra/internal/pkg/metrics"
)

// measureClientMessage is an input event from the browser map.
// Clients send JSON such as {"type":"click","lat":512.5,"lng":880}.
type measureClientMessage struct {
	Type    string  `json:"type"` // viewport | mode | click | move | drag_start | drag_move | drag_end | profile | clear
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Button  int     `json:"button"`
	Zoom    float64 `json:"zoom"`
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
	Enabled *bool   `json:"enabled"`
	Profile string  `json:"profile"`
}

// measureServerMessage reports the outcome of one event together with the
// drawing commands the client must apply.
type measureServerMessage struct {
	Type        string              `json:"type"` // preview | committed | rejected | cleared | none | error
	State       string              `json:"state"`
	Enabled     bool                `json:"enabled"`
	Profile     string              `json:"profile"`
	Preview     []domain.WorldPoint `json:"preview,omitempty"`
	Measurement *MeasureResponse    `json:"measurement,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	Message     string              `json:"message,omitempty"`
	Commands    []surface.Command   `json:"commands"`
}

// maxMeasureMessageBytes bounds one client event; larger frames close the
// connection.
const maxMeasureMessageBytes = 1 << 10

const (
	noticeOutOfBounds = "Please measure within the map boundaries."
	noticeProjection  = "The map view is not ready yet; move or zoom the map and try again."
)

// measureConn owns the measuring session of one websocket connection.
type measureConn struct {
	session *usecases.MeasurementSession
	surface *surface.Remote
	logger  *slog.Logger
}

func newMeasureConn(deps *Dependencies, logger *slog.Logger) *measureConn {
	remote := surface.NewRemote()
	session := usecases.NewMeasurementSession(deps.Space, remote,
		usecases.WithProfile(deps.Map.DefaultProfile),
		usecases.WithMinGesturePixels(deps.Map.MinGesturePixels),
		usecases.WithMaxFreeDrawPoints(deps.Map.MaxFreeDrawPoints),
		usecases.WithLogger(logger),
	)
	return &measureConn{session: session, surface: remote, logger: logger}
}

// handle decodes one client message, applies it to the session and builds
// the reply.
func (m *measureConn) handle(raw []byte) measureServerMessage {
	var msg measureClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return m.reply(measureServerMessage{Type: "error", Message: "invalid JSON"})
	}

	p := domain.WorldPoint{Lat: msg.Lat, Lng: msg.Lng}
	var res usecases.SessionResult

	switch msg.Type {
	case "viewport":
		m.surface.SetViewport(domain.Viewport{Zoom: msg.Zoom, OriginX: msg.OriginX, OriginY: msg.OriginY})
		res = usecases.SessionResult{Kind: usecases.ResultNone}
	case "mode":
		if msg.Enabled == nil {
			res = m.session.ToggleMode()
		} else {
			res = m.session.SetMode(*msg.Enabled)
		}
	case "click":
		res = m.session.OnPrimaryClick(p)
	case "move":
		res = m.session.OnPointerMove(p)
	case "drag_start":
		res = m.session.OnDragStart(p, usecases.PointerButton(msg.Button))
	case "drag_move":
		res = m.session.OnDragMove(p)
	case "drag_end":
		res = m.session.OnDragEnd(usecases.PointerButton(msg.Button))
	case "profile":
		profile, err := domain.ParseTravelProfile(msg.Profile)
		if err != nil {
			return m.reply(measureServerMessage{Type: "error", Message: err.Error()})
		}
		m.session.SelectProfile(profile)
		res = usecases.SessionResult{Kind: usecases.ResultNone}
	case "clear":
		res = m.session.Clear()
	default:
		return m.reply(measureServerMessage{Type: "error", Message: "unknown message type: " + msg.Type})
	}

	observeSessionResult(res)
	return m.reply(fromSessionResult(res))
}

// close leaves measuring mode, which is the only cancellation path.
func (m *measureConn) close() {
	m.session.SetMode(false)
	m.surface.Flush()
}

func (m *measureConn) reply(out measureServerMessage) measureServerMessage {
	out.State = m.session.State().String()
	out.Enabled = m.session.Enabled()
	out.Profile = m.session.Profile().Name
	out.Commands = m.surface.Flush()
	return out
}

func fromSessionResult(res usecases.SessionResult) measureServerMessage {
	out := measureServerMessage{Type: string(res.Kind), Preview: res.Preview, Reason: string(res.Reason)}
	if res.Measurement != nil {
		r := newMeasureResponse(*res.Measurement)
		out.Measurement = &r
	}
	switch res.Reason {
	case usecases.ReasonOutOfBounds:
		out.Message = noticeOutOfBounds
	case usecases.ReasonProjectionUnavailable:
		out.Message = noticeProjection
	}
	return out
}

func observeSessionResult(res usecases.SessionResult) {
	switch res.Kind {
	case usecases.ResultCommitted:
		m := res.Measurement
		metrics.MeasurementsCommitted.WithLabelValues(string(m.Mode), m.Profile.Name).Inc()
		metrics.MeasuredDistance.WithLabelValues(string(m.Mode)).Observe(m.DistanceKm)
	case usecases.ResultRejected:
		metrics.MeasurementsRejected.WithLabelValues(string(res.Reason)).Inc()
	case usecases.ResultCleared:
		metrics.MeasurementsCleared.Inc()
	}
}

// MeasureWebSocketHandler runs one MeasurementSession per connection. Events
// are applied in arrival order on the reading goroutine; the session is torn
// down when the socket closes.
func MeasureWebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote", remoteAddr, "ws", "measure")
		logger.Info("ws measure client connected")

		metrics.ActiveWebSockets.Inc()
		metrics.ActiveMeasureSessions.Inc()
		defer metrics.ActiveWebSockets.Dec()
		defer metrics.ActiveMeasureSessions.Dec()

		c.SetReadLimit(maxMeasureMessageBytes)

		conn := newMeasureConn(deps, logger)
		defer conn.close()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		done := make(chan struct{})
		defer close(done)
		go keepAlive(c, &mu, pingInterval(deps), done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			if err := writeJSON(conn.handle(raw)); err != nil {
				logger.Warn("ws measure write failed", "error", err)
				break
			}
		}

		logger.Info("ws measure client disconnected")
	}
}

const defaultPingInterval = 30 * time.Second

func pingInterval(deps *Dependencies) time.Duration {
	if deps.WSPingInterval > 0 {
		return deps.WSPingInterval
	}
	return defaultPingInterval
}

// keepAlive pings the client until done is closed or a write fails.
func keepAlive(c *websocket.Conn, mu *sync.Mutex, every time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mu.Lock()
			err := c.WriteMessage(websocket.PingMessage, nil)
			mu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
