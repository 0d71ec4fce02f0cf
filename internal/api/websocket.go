package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the server only listens on a local address
	CheckOrigin: func(r *http.Request) bool { return true },
}

// events upgrades the request and streams run events to the client
func (s *Server) events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to upgrade connection to websocket")
		return
	}

	cl := &client{id: uuid.New().String(), send: make(chan []byte, clientBuffer)}
	select {
	case s.hub.register <- cl:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	go s.writePump(cl, conn)
	go s.readPump(s.ctx, cl, conn)
}

// readPump discards client messages and detects disconnects
func (s *Server) readPump(ctx context.Context, cl *client, conn *websocket.Conn) {
	defer func() {
		select {
		case s.hub.unregister <- cl:
		case <-ctx.Done():
		}
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Str("client", cl.id).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump sends queued messages, one websocket frame each, and pings
func (s *Server) writePump(cl *client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Debug().Err(err).Str("client", cl.id).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
