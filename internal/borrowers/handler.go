// Package borrowers lists the registered borrowers.
package borrowers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/storage"
)

type Handler struct {
	Store storage.Store
}

func NewHandler(store storage.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/borrowers", h.list)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Store.ListBorrowers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "borrowers list failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
