package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts websocket upgrades from allowedOrigins. "*" or an empty
// list accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
	rg.GET("/stats", h.Stats)
}

func (h *Handler) Connect(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.hub.log.WithError(err).WithField("user_id", userID).Warn("websocket upgrade failed")
		return
	}

	client := h.hub.NewClient(userID)
	h.hub.log.WithField("conn_id", client.ID()).WithField("user_id", userID).Debug("websocket connected")
	h.hub.Serve(client, conn)
}

func (h *Handler) Stats(c *gin.Context) {
	resp := gin.H{"ok": true, "stats": h.hub.Stats()}
	if room := c.Query("room"); room != "" {
		resp["room"] = gin.H{"id": room, "members": h.hub.RoomSize(room)}
	}
	c.JSON(http.StatusOK, resp)
}
