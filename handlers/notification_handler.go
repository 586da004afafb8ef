package handlers

import (
	"net/http"
	"slices"

	"quizblog/logging"
	"quizblog/middleware"
	"quizblog/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NotificationHandler upgrades authenticated staff connections onto the hub.
type NotificationHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

func NewNotificationHandler(hub *services.Hub, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		middleware.Abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "No token, authorization denied")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	if h.hub.RegisterClient(conn, identity) == nil {
		logging.Ctx(c.Request.Context()).Debug().Msg("Hub stopped, connection dropped")
	}
}
