package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ansari/parlor/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one websocket with a buffered outbound channel so fanout to a
// slow member never blocks the room.
type Conn struct {
	conn       *websocket.Conn
	send       chan core.Frame
	pingPeriod time.Duration

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn, pingPeriod time.Duration) *Conn {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Conn{
		conn:       ws,
		send:       make(chan core.Frame, 32),
		pingPeriod: pingPeriod,
	}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Closing the socket here unblocks the read side, so the
			// departure alert still runs during graceful shutdown.
			log.Debug().Str("module", "ws").Msg("writePump ctx done")
			c.Close()
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "ws").Msg("writePump ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}
