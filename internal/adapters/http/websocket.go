package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/pkg/metrics"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type frameConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// wsWriter serializes writes to one connection. Every write carries a
// deadline so a stalled client fails the write instead of hanging it.
type wsWriter struct {
	mu      sync.Mutex
	conn    frameConn
	timeout time.Duration
}

func (w *wsWriter) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(messageType, data)
}

func (w *wsWriter) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

// wsMessage is sent from client to drive the session.
type wsMessage struct {
	Action string   `json:"action"` // "snapshot" | "click" | "toggle_drawing" | "clear"
	Lng    *float64 `json:"lng"`
	Lat    *float64 `json:"lat"`
}

// WebSocketHandler returns a handler that streams state events to the
// client and accepts session commands from it.
// On connect the client receives {"reason":"snapshot","view":{...}}, then
// one StateEvent per change. Clients may send
// {"action":"click","lng":77.23,"lat":28.61}, {"action":"toggle_drawing"},
// {"action":"clear"} or {"action":"snapshot"}.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("remote_addr", remoteAddr)
		log.Info("ws client connected")

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := &wsWriter{conn: c, timeout: wsWriteTimeout}
		writeJSON := w.writeJSON

		snapshot := func() error {
			return writeJSON(domain.StateEvent{Time: time.Now().UTC(), Reason: "snapshot", View: deps.Map.View()})
		}

		if err := snapshot(); err != nil {
			return
		}

		if deps.Events != nil {
			unsubscribe, err := deps.Events.SubscribeStateChanged(ctx, func(ctx context.Context, event *domain.StateEvent) {
				if err := writeJSON(event); err != nil {
					log.Debug("ws event write failed", "reason", event.Reason, "error", err)
				}
			})
			if err != nil {
				log.Error("ws subscribe failed", "error", err)
				return
			}
			defer unsubscribe()
		}

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := w.write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

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

			// State changes come back through the subscription.
			switch m.Action {
			case "snapshot":
				_ = snapshot()

			case "click":
				req := PositionRequest{Lng: m.Lng, Lat: m.Lat}
				if err := validate.Struct(req); err != nil {
					_ = writeJSON(map[string]interface{}{"error": "invalid position", "details": validationDetails(err)})
					continue
				}
				deps.Map.Click(ctx, req.Position())

			case "toggle_drawing":
				deps.Map.ToggleDrawing(ctx)

			case "clear":
				deps.Map.Clear(ctx)

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}
