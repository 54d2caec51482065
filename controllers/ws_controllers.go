package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tablemate/dinein-backend/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSController registers observers on the event hub. Events are
// invalidation hints only; every client re-fetches its view through
// the query endpoints on receipt.
type WSController struct {
	Hub *events.Hub
}

func NewWSController(hub *events.Hub) *WSController {
	return &WSController{Hub: hub}
}

func (wc *WSController) Subscribe(c *gin.Context) {
	roleInterface, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role := roleInterface.(string)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	wc.Hub.Register(ws, role)

	// Hold the connection open; clients never send commands over the
	// socket, so any read just detects disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	wc.Hub.Unregister(ws)
}
