package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"crmconsole/backend/internal/convo"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeConversation upgrades to WebSocket and opens the requested
// conversation for this agent: the previous one (if any) is fully torn down
// first, then the initial render snapshot and window state are sent,
// followed by live updates until the socket closes.
func (h *Handler) ServeConversation(c *gin.Context) {
	agentID := c.GetString("agent_id")
	sessionID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	// The request context dies when the handler returns; the session must
	// outlive it until the socket closes.
	session, err := h.Engine.Open(context.Background(), agentID, sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Failed to open conversation")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "open failed"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go h.writePump(conn, session)
	go h.readPump(conn, agentID, session)
}

// writePump streams the initial snapshot and then the session's updates.
func (h *Handler) writePump(conn *websocket.Conn, session *convo.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	state := session.WindowState()
	initial := gin.H{
		"session_id": session.ID,
		"messages":   session.Render(),
		"window":     state,
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	for {
		select {
		case update, ok := <-session.Updates():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(update); err != nil {
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

// readPump discards client frames and detects disconnect; the console
// sends over REST, the socket is one-way. Teardown targets this socket's
// own session: by the time a stale socket unwinds, the agent may already
// have a newer conversation open.
func (h *Handler) readPump(conn *websocket.Conn, agentID string, session *convo.Session) {
	defer func() {
		h.Engine.CloseSession(agentID, session)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("agentID", agentID).Msg("WebSocket read error")
			}
			return
		}
	}
}
