package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is one accepted session connection. Writes are serialized; reads must
// come from a single goroutine.
type Conn struct {
	ID           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	mutex        sync.Mutex
}

func NewConn(c *websocket.Conn, maxMessageBytes int64, writeTimeout time.Duration) *Conn {
	if maxMessageBytes > 0 {
		c.SetReadLimit(maxMessageBytes)
	}
	return &Conn{
		ID:           uuid.NewString(),
		conn:         c,
		writeTimeout: writeTimeout,
	}
}

func (w *Conn) ReadMessage() (int, []byte, error) {
	return w.conn.ReadMessage()
}

func (w *Conn) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.conn.WriteJSON(v)
}

// CloseGoingAway asks the peer to close the session. The read loop ends when
// the peer answers or the connection drops.
func (w *Conn) CloseGoingAway(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	return w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (w *Conn) Close() error {
	return w.conn.Close()
}
