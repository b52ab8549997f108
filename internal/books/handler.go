package books

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/storage"
	"libraryhub/pkg/models"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books", h.list)
	rg.POST("/books", h.create)
	rg.GET("/books/overdue", h.overdue) // before the :id wildcard
	rg.GET("/books/:id", h.get)
	rg.PUT("/books/:id", h.update)
	rg.DELETE("/books/:id", h.remove)
	rg.POST("/books/:id/checkout", h.checkout)
	rg.POST("/books/:id/checkin", h.checkin)
	rg.GET("/stats", h.stats)
}

// respondError maps the lifecycle error taxonomy onto HTTP statuses:
// unknown id 404, validation/conflict/state 400, anything else 500.
func respondError(c *gin.Context, err error, fallback string) {
	var vErr *ValidationError
	var stErr *StateError

	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ISBN already exists"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.As(err, &stErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stErr.Reason})
	default:
		log.Printf("books: %s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *Handler) list(c *gin.Context) {
	f := storage.ListFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Genre:  c.Query("genre"),
	}

	items, err := h.Service.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "list failed")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	book, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get failed")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) create(c *gin.Context) {
	var in models.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	book, err := h.Service.Add(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "create failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": book.ID, "message": "Book added successfully"})
}

func (h *Handler) update(c *gin.Context) {
	var upd models.BookUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if _, err := h.Service.Update(c.Request.Context(), c.Param("id"), upd); err != nil {
		respondError(c, err, "update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book updated successfully"})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

func (h *Handler) checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if _, err := h.Service.Checkout(c.Request.Context(), c.Param("id"), req); err != nil {
		respondError(c, err, "checkout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book checked out successfully"})
}

func (h *Handler) checkin(c *gin.Context) {
	if _, err := h.Service.Checkin(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "checkin failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book checked in successfully"})
}

func (h *Handler) overdue(c *gin.Context) {
	items, err := h.Service.Overdue(c.Request.Context())
	if err != nil {
		respondError(c, err, "overdue failed")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "stats failed")
		return
	}
	c.JSON(http.StatusOK, stats)
}
