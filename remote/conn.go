package remote

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// conn wraps a WebSocket connection. gorilla/websocket does not support
// concurrent writers, so all writes go through wrMu.
type conn struct {
	ws        *websocket.Conn
	closeCh   chan struct{}
	wrMu      sync.Mutex
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws, closeCh: make(chan struct{})}
}

func (c *conn) writeJSON(v any) error {
	c.wrMu.Lock()
	defer c.wrMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// closeWith sends a close frame, best effort, and closes the connection.
func (c *conn) closeWith(code int, reason string) {
	c.wrMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second))
	c.wrMu.Unlock()
	c.closeNow()
}

func (c *conn) closeNow() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		_ = c.ws.Close()
	})
}

// readLoop discards client messages until the connection fails, which is
// how a client hang-up is noticed.
func (c *conn) readLoop() {
	defer c.closeNow()
	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			return
		}
	}
}

// localOrigin accepts requests without an Origin header (non-browser
// clients) and browser pages served from localhost.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// allowOrigins accepts the listed origins in addition to local ones.
func allowOrigins(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		if localOrigin(r) {
			return true
		}
		return allowed[strings.ToLower(r.Header.Get("Origin"))]
	}
}
