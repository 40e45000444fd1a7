package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"meetingrelay/internal/services/meeting"
)

// clientConn owns one socket. Writes happen only in writePump; everyone else
// goes through Send, which never blocks.
type clientConn struct {
	id      meeting.ConnID
	rawConn *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once

	writeWait  time.Duration
	pingPeriod time.Duration
}

var _ meeting.Outbox = (*clientConn)(nil)

func newClientConn(id meeting.ConnID, raw *websocket.Conn, opts Options) *clientConn {
	return &clientConn{
		id:         id,
		rawConn:    raw,
		send:       make(chan []byte, opts.SendBuffer),
		done:       make(chan struct{}),
		writeWait:  opts.WriteWait,
		pingPeriod: opts.PingPeriod,
	}
}

// Send marshals ev and queues it. A full queue marks a slow consumer: the
// socket is closed and the reader loop turns that into a disconnect.
func (c *clientConn) Send(ev meeting.Event) bool {
	data, err := json.Marshal(outFrame{Event: ev.Name, Body: ev.Body})
	if err != nil {
		zap.L().Error("ws.marshal_failed", zap.String("event", ev.Name), zap.Error(err))
		return false
	}
	return c.enqueue(data)
}

func (c *clientConn) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		zap.L().Warn("ws.slow_consumer", zap.String("conn", string(c.id)))
		c.close()
		return false
	}
}

func (c *clientConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.rawConn.Close()
	})
}

func (c *clientConn) write(mt int, data []byte) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.writeWait))
	return c.rawConn.WriteMessage(mt, data) // Text/Binary only
}

// writePump drains the send queue and keeps the peer alive with pings.
func (c *clientConn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				zap.L().Debug("ws.write", zap.String("conn", string(c.id)), zap.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.writeWait)
			if err := c.rawConn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				zap.L().Debug("ws.ping", zap.String("conn", string(c.id)), zap.Error(err))
				return
			}
		}
	}
}
