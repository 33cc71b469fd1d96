package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"wayfare/config"
	"wayfare/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpgradeMapWS upgrades the connection for the map channel. The token query
// parameter is optional; with a valid one replies carry preference scores.
func UpgradeMapWS(cfg *config.JWTConfig, mapHub *MapHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := NewClient("", "")
		if token := c.Query("token"); token != "" {
			claims, err := auth.ParseAccessToken(cfg, token)
			if err != nil {
				conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"invalid token"}`))
				return
			}
			client.UserID, client.Role = claims.UserID, claims.Role
		}
		mapHub.Register(client)
		client.Deliver(encode(map[string]any{"type": "ready", "authenticated": client.UserID != ""}))

		done := make(chan struct{})
		go func() {
			writePump(client, conn)
			close(done)
		}()
		readPump(c.Request.Context(), mapHub, client, conn)
		client.Close()
		<-done
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump answers client messages in arrival order until the peer goes away.
func readPump(ctx context.Context, hub *MapHub, c *Client, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] map client user=%q: %v", c.UserID, err)
			}
			return
		}
		if reply := hub.Handle(ctx, c, raw); reply != nil {
			if !c.Deliver(reply) {
				log.Printf("[WS] map client user=%q: send buffer full, dropping reply", c.UserID)
			}
		}
	}
}
