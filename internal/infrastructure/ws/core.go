package ws

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lifetravel/endpoint/internal/infrastructure/json"
)

// NewUpgrader accepts every origin when allowedOrigins contains "*". Failed
// handshakes are answered with a JSON error body.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			w.Header().Set("Sec-Websocket-Version", "13")
			json.WriteError(w, status, reason.Error())
		},
	}
}

// Core tracks open sessions so they can be closed on shutdown.
type Core struct {
	mu      sync.Mutex
	conns   map[*Conn]struct{}
	closing bool
	drained chan struct{}
}

func NewCore() *Core {
	return &Core{
		conns: make(map[*Conn]struct{}),
	}
}

// Register adds c to the open sessions. It returns false once Shutdown has
// started.
func (c *Core) Register(conn *Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return false
	}
	c.conns[conn] = struct{}{}
	return true
}

func (c *Core) Unregister(conn *Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.conns, conn)
	if c.closing && len(c.conns) == 0 && c.drained != nil {
		close(c.drained)
		c.drained = nil
	}
}

func (c *Core) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// Shutdown sends a going-away close frame to every session and waits for
// them to unregister. Sessions still open when ctx ends are closed hard.
func (c *Core) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closing = true
	open := make([]*Conn, 0, len(c.conns))
	for conn := range c.conns {
		open = append(open, conn)
	}
	var drained chan struct{}
	if len(open) > 0 {
		drained = make(chan struct{})
		c.drained = drained
	}
	c.mu.Unlock()

	if drained == nil {
		return nil
	}

	for _, conn := range open {
		_ = conn.CloseGoingAway("server shutting down")
	}

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		for _, conn := range open {
			_ = conn.Close()
		}
		return ctx.Err()
	}
}
