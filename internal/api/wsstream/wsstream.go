// Package wsstream is the opportunity push stream: every connected
// client subscribes to internal/broker and gets each new opportunity
// list written to its socket. Structured after a per-client
// send-buffer, ping/pong keepalive, and origin-checking upgrader,
// re-pointed at internal/broker instead of a trade-event hub.
package wsstream

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"arbitrage/internal/broker"
	"arbitrage/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// OriginChecker allows an O(1) check of a request's Origin header against
// a configured allow-list, falling back to allow-all for local/dev use.
type OriginChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginChecker builds a checker from a comma-separated ALLOWED_ORIGINS
// env var; empty or "*" allows every origin.
func NewOriginChecker() *OriginChecker {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" || raw == "*" {
		return &OriginChecker{allowAll: true}
	}
	allowed := make(map[string]struct{})
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &OriginChecker{allowed: allowed}
}

// Check reports whether origin may open a connection. Non-browser
// clients send no Origin header and are always allowed.
func (c *OriginChecker) Check(origin string) bool {
	if origin == "" || c.allowAll {
		return true
	}
	_, ok := c.allowed[origin]
	return ok
}

// Server upgrades HTTP connections to the opportunity push stream.
type Server struct {
	broker   *broker.Broker
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer builds a push-stream server fed by b.
func NewServer(b *broker.Broker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	checker := NewOriginChecker()
	return &Server{
		broker: b,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return checker.Check(r.Header.Get("Origin")) },
		},
	}
}

// ServeHTTP upgrades the connection and streams opportunities to it
// until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := s.broker.Subscribe()
	done := make(chan struct{})

	go s.readPump(conn, done)
	s.writePump(conn, sub, done)
}

// readPump only exists to process control frames (ping/pong/close) and
// notice disconnects; this stream is server-to-client only, so any data
// frame received is discarded.
func (s *Server) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, sub *broker.Subscription, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	for {
		select {
		case opps, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(models.OpportunitiesToWire(opps))
			if err != nil {
				s.logger.Error("failed to marshal opportunities", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
