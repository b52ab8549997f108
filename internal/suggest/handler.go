package suggest

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
	rg.GET("/autocomplete", h.autocomplete)
}

func (h *Handler) autocomplete(c *gin.Context) {
	query := c.Query("query")
	kind := c.DefaultQuery("type", "all")

	if len(query) < MinQueryLen {
		c.JSON(http.StatusOK, []Suggestion{})
		return
	}

	vocab, err := h.Store.Vocabulary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "autocomplete failed"})
		return
	}

	c.JSON(http.StatusOK, Build(vocab, query, kind))
}
