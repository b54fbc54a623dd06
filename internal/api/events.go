package api

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/humanapp/mindcraft-lang-sub002/internal/runtime"
)

// eventMessage is the wire shape of one runtime.Event pushed to a
// subscriber.
type eventMessage struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// eventsHandler upgrades to a WebSocket and streams cfg.Events for the
// connection's lifetime. This façade only pushes, so the read loop here
// exists solely to detect the client going away, not to dispatch any
// client-sent message types.
func eventsHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Events == nil {
			writeJSONError(w, http.StatusNotFound, "no runtime attached to this server")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("api: websocket accept failed", zap.Error(err))
			}
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		outbox := make(chan eventMessage, 64)
		unsubscribe := cfg.Events.Events.On(func(e runtime.Event) {
			select {
			case outbox <- eventMessage{Name: e.Name, Payload: e.Payload}:
			default:
				// Slow consumer: drop rather than block the brain's tick loop.
			}
		})
		defer unsubscribe()

		// Detect client disconnects without blocking the outbox loop below.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-closed:
				return
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					return
				}
			case msg := <-outbox:
				if err := wsjson.Write(ctx, conn, msg); err != nil {
					return
				}
			}
		}
	}
}
