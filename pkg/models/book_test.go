package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/pkg/models"
)

func TestBookJSONOmitsLoanWhenAvailable(t *testing.T) {
	b := models.Book{
		ID:     "b1",
		Title:  "Dune",
		Author: "Frank Herbert",
		Status: models.StatusAvailable,
	}
	raw, err := json.Marshal(&b)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"borrower_id", "borrowed_date", "due_date", "borrower_name"} {
		_, ok := m[key]
		assert.False(t, ok, "unexpected %q on available book", key)
	}
}

func TestBookJSONFlattensLoanWhenBorrowed(t *testing.T) {
	b := models.Book{
		ID:     "b1",
		Title:  "Dune",
		Author: "Frank Herbert",
		Status: models.StatusBorrowed,
		Loan: &models.Loan{
			BorrowerID:   "p1",
			BorrowedDate: "2026-08-01T10:00:00Z",
			DueDate:      "2026-08-15",
		},
		BorrowerName: "John Smith",
	}
	raw, err := json.Marshal(&b)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "p1", m["borrower_id"])
	assert.Equal(t, "2026-08-15", m["due_date"])
	assert.Equal(t, "John Smith", m["borrower_name"])
	_, nested := m["Loan"]
	assert.False(t, nested, "loan fields must be flat, not nested")
}

func TestOverdueAt(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)

	loan := func(due string) *models.Book {
		return &models.Book{Status: models.StatusBorrowed, Loan: &models.Loan{DueDate: due}}
	}

	assert.False(t, (&models.Book{Status: models.StatusAvailable}).OverdueAt(now))
	assert.True(t, loan("2026-08-19").OverdueAt(now))
	assert.False(t, loan("2026-08-20").OverdueAt(now), "due today is not overdue")
	assert.False(t, loan("2026-08-21").OverdueAt(now))
	assert.False(t, loan("not-a-date").OverdueAt(now))
	assert.False(t, loan("").OverdueAt(now))
}

func TestBorrowedPredicate(t *testing.T) {
	b := &models.Book{}
	assert.False(t, b.Borrowed())
	b.Loan = &models.Loan{BorrowerID: "p1"}
	assert.True(t, b.Borrowed())
}
