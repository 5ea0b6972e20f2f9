package favorites

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"imovelmap/internal/auth"
	"imovelmap/internal/push"
)

// Handler serves the authenticated favorites API.
type Handler struct {
	Repo *Repo
	Hub  *push.Hub
}

func NewHandler(repo *Repo, hub *push.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usuarios/favoritos", h.list)
	rg.POST("/usuarios/favoritos/:codigo", h.toggle)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listings, err := h.Repo.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favoritos": listings})
}

func (h *Handler) toggle(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	codigo := strings.TrimSpace(c.Param("codigo"))
	if codigo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "codigo required"})
		return
	}

	action, err := h.Repo.Toggle(c.Request.Context(), claims.UserID, codigo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "toggle failed"})
		return
	}

	if h.Hub != nil {
		ev := push.FavoriteEvent{
			Type:   "favorite." + action,
			UserID: claims.UserID,
			Codigo: codigo,
			At:     time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "action": action})
}
