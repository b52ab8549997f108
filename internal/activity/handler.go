// Package activity serves the append-only activity log.
package activity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/books"
	"libraryhub/internal/storage"
)

type Handler struct {
	Store storage.Store
}

func NewHandler(store storage.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/activity", h.list)
}

// list returns the most recent records, newest first, capped at the
// system-wide limit of 50.
func (h *Handler) list(c *gin.Context) {
	records, err := h.Store.ListActivity(c.Request.Context(), books.ActivityLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "activity list failed"})
		return
	}
	c.JSON(http.StatusOK, records)
}
