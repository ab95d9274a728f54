package lobby

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /match/join  body: {variant, seats}
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// the authenticated identity wins over whatever the body says
	if id := c.GetString("playerId"); id != "" {
		req.PlayerID = id
	}
	room, queued, err := h.svc.Join(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if queued {
		c.JSON(http.StatusOK, JoinResponse{
			Queued: true, Variant: req.Variant, Seats: req.Seats,
		})
		return
	}
	c.JSON(http.StatusOK, JoinResponse{
		Queued: false, Variant: room.Variant, Seats: room.Seats, RoomID: room.ID, Players: room.Players,
	})
}

// POST /match/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)
	if id := c.GetString("playerId"); id != "" {
		req.PlayerID = id
	}
	if req.PlayerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing playerId"})
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), req.PlayerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
