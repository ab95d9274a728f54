package auth

import (
	"net/http"
	"strings"
	"time"

	"durak/internal/profile"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Guest login: the client brings a display name, the server mints a
// stable playerId and a signed token carrying both. Password auth and
// account storage live outside this service.
type Handler struct {
	secret   []byte
	profiles profile.Repo // optional
}

func NewHandler(secret []byte, profiles profile.Repo) *Handler {
	return &Handler{secret: secret, profiles: profiles}
}

type guestRequest struct {
	Name string `json:"name" binding:"required"`
}

// POST /auth/guest
func (h *Handler) Guest(c *gin.Context) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty name"})
		return
	}

	playerID := uuid.NewString()

	claims := jwt.MapClaims{
		"sub":  playerID,
		"name": name,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt generation failed"})
		return
	}

	if h.profiles != nil {
		_ = h.profiles.Upsert(c.Request.Context(), playerID, name)
	}

	c.JSON(http.StatusOK, gin.H{
		"playerId": playerID,
		"name":     name,
		"jwt":      signed,
	})
}
