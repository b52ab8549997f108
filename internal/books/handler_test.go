package books_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/activity"
	"libraryhub/internal/books"
	"libraryhub/internal/storage/memstore"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := books.NewService(memstore.New(), nil)
	router := gin.New()
	api := router.Group("/api")
	books.NewHandler(svc).RegisterRoutes(api)
	activity.NewHandler(svc.Store).RegisterRoutes(api)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateBookEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/books",
		`{"title":"Dune","author":"Frank Herbert","isbn":"978-1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	require.NotEmpty(t, created["id"])

	// Missing author.
	w = do(t, router, http.MethodPost, "/api/books", `{"title":"No Author"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Duplicate ISBN.
	w = do(t, router, http.MethodPost, "/api/books",
		`{"title":"Copy","author":"Someone","isbn":"978-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ISBN already exists", decode(t, w)["error"])
}

func TestGetBookEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = do(t, router, http.MethodGet, "/api/books/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "available", body["status"])
	_, hasBorrower := body["borrower_id"]
	assert.False(t, hasBorrower, "available books carry no loan fields")

	w = do(t, router, http.MethodGet, "/api/books/no-such-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutCheckinEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`)
	id := decode(t, w)["id"].(string)

	checkoutBody := `{"borrower_name":"John Smith","borrower_email":"john@email.com","due_date":"2030-01-15"}`
	w = do(t, router, http.MethodPost, "/api/books/"+id+"/checkout", checkoutBody)
	require.Equal(t, http.StatusOK, w.Code)

	// The loan fields are flattened into the book object.
	w = do(t, router, http.MethodGet, "/api/books/"+id, "")
	body := decode(t, w)
	assert.Equal(t, "borrowed", body["status"])
	assert.NotEmpty(t, body["borrower_id"])
	assert.Equal(t, "2030-01-15", body["due_date"])
	assert.Equal(t, "John Smith", body["borrower_name"])

	// Double checkout and delete-while-borrowed are 400s.
	w = do(t, router, http.MethodPost, "/api/books/"+id+"/checkout", checkoutBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, router, http.MethodDelete, "/api/books/"+id, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/books/"+id+"/checkin", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/books/"+id, "")
	body = decode(t, w)
	assert.Equal(t, "available", body["status"])
	_, hasDue := body["due_date"]
	assert.False(t, hasDue)

	// Checkin of an available book.
	w = do(t, router, http.MethodPost, "/api/books/"+id+"/checkin", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Checkout of a missing book.
	w = do(t, router, http.MethodPost, "/api/books/missing/checkout", checkoutBody)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverdueAndStatsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/books", `{"title":"Late","author":"A"}`)
	id := decode(t, w)["id"].(string)
	do(t, router, http.MethodPost, "/api/books", `{"title":"Shelf","author":"B"}`)

	do(t, router, http.MethodPost, "/api/books/"+id+"/checkout",
		`{"borrower_name":"J","borrower_email":"j@email.com","due_date":"2020-01-01"}`)

	w = do(t, router, http.MethodGet, "/api/books/overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	var overdue []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overdue))
	require.Len(t, overdue, 1)
	assert.Equal(t, "Late", overdue[0]["title"])

	w = do(t, router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 2, stats["totalBooks"])
	assert.EqualValues(t, 1, stats["availableBooks"])
	assert.EqualValues(t, 1, stats["borrowedBooks"])
	assert.EqualValues(t, 1, stats["overdueBooks"])
}

func TestActivityEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`)
	id := decode(t, w)["id"].(string)
	do(t, router, http.MethodPost, "/api/books/"+id+"/checkout",
		`{"borrower_name":"J","borrower_email":"j@email.com","due_date":"2030-01-01"}`)

	w = do(t, router, http.MethodGet, "/api/activity", "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "checked_out", records[0]["action"], "newest first")
	assert.Equal(t, "Dune", records[0]["book_title"])
	assert.Equal(t, "J", records[0]["borrower_name"])
}
