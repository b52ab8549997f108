package sqlitestore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/storage"
	"libraryhub/internal/storage/sqlitestore"
	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

func newStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	s := sqlitestore.New(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTagsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateBook(ctx, models.Book{
		ID:     "b1",
		Title:  "Dune",
		Author: "Frank Herbert",
		Tags:   []string{"classic", "space opera"},
		Status: models.StatusAvailable,
	}))

	got, err := s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"classic", "space opera"}, got.Tags)

	// No tags comes back as nil, not an empty slice with one empty string.
	require.NoError(t, s.CreateBook(ctx, models.Book{
		ID: "b2", Title: "1984", Author: "George Orwell", Status: models.StatusAvailable,
	}))
	got, err = s.GetBook(ctx, "b2")
	require.NoError(t, err)
	assert.Nil(t, got.Tags)
}

func TestEmptyISBNNeverConflicts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, s.CreateBook(ctx, models.Book{
			ID: id, Title: "Untitled " + id, Author: "Anon", Status: models.StatusAvailable,
		}))
	}

	require.NoError(t, s.CreateBook(ctx, models.Book{
		ID: "b4", Title: "With ISBN", Author: "Anon", ISBN: "978-1", Status: models.StatusAvailable,
	}))
	err := s.CreateBook(ctx, models.Book{
		ID: "b5", Title: "Dup ISBN", Author: "Anon", ISBN: "978-1", Status: models.StatusAvailable,
	})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestUpdateISBNConflictLeavesRowUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateBook(ctx, models.Book{ID: "b1", Title: "One", Author: "A", ISBN: "978-1", Status: models.StatusAvailable}))
	require.NoError(t, s.CreateBook(ctx, models.Book{ID: "b2", Title: "Two", Author: "A", ISBN: "978-2", Status: models.StatusAvailable}))

	isbn := "978-1"
	title := "Renamed"
	err := s.UpdateBookFields(ctx, "b2", models.BookUpdate{Title: &title, ISBN: &isbn})
	require.ErrorIs(t, err, storage.ErrConflict)

	got, err := s.GetBook(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, "Two", got.Title)
	assert.Equal(t, "978-2", got.ISBN)
}

func TestLoanColumnsMoveTogether(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateBook(ctx, models.Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Status: models.StatusAvailable}))
	br, err := s.UpsertBorrowerByEmail(ctx, models.Borrower{Name: "John Smith", Email: "john@email.com"})
	require.NoError(t, err)

	require.NoError(t, s.SetLoan(ctx, "b1", models.Loan{
		BorrowerID:   br.ID,
		BorrowedDate: "2026-08-01T10:00:00Z",
		DueDate:      "2026-08-15",
	}))

	got, err := s.GetBook(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, got.Loan)
	assert.Equal(t, models.StatusBorrowed, got.Status)
	assert.Equal(t, "John Smith", got.BorrowerName)
	assert.Equal(t, "john@email.com", got.BorrowerEmail)

	require.NoError(t, s.ClearLoan(ctx, "b1"))
	got, err = s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, got.Loan)
	assert.Equal(t, models.StatusAvailable, got.Status)
	assert.Empty(t, got.BorrowerName)

	assert.ErrorIs(t, s.SetLoan(ctx, "missing", models.Loan{BorrowerID: br.ID, DueDate: "2026-08-15"}), storage.ErrNotFound)
	assert.ErrorIs(t, s.ClearLoan(ctx, "missing"), storage.ErrNotFound)
}

func TestActivitySurvivesBookDeletion(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateBook(ctx, models.Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Status: models.StatusAvailable}))
	require.NoError(t, s.AppendActivity(ctx, models.ActivityRecord{
		ID: "a1", BookID: "b1", Action: "added", Timestamp: "2026-08-01T10:00:00Z",
	}))
	require.NoError(t, s.DeleteBook(ctx, "b1"))
	require.NoError(t, s.AppendActivity(ctx, models.ActivityRecord{
		ID: "a2", BookID: "b1", Action: "deleted", Timestamp: "2026-08-02T10:00:00Z",
	}))

	records, err := s.ListActivity(ctx, 50)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "deleted", records[0].Action)
	assert.Equal(t, "b1", records[0].BookID)
	assert.Empty(t, records[0].BookTitle, "title join resolves to nothing after deletion")
}

func TestVocabulary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	books := []models.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Status: models.StatusAvailable},
		{ID: "b2", Title: "Dune Messiah", Author: "Frank Herbert", Genre: "Science Fiction", Status: models.StatusAvailable},
		{ID: "b3", Title: "1984", Author: "George Orwell", Status: models.StatusAvailable},
	}
	for _, b := range books {
		require.NoError(t, s.CreateBook(ctx, b))
	}

	v, err := s.Vocabulary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1984", "Dune", "Dune Messiah"}, v.Titles)
	assert.Equal(t, []string{"Frank Herbert", "George Orwell"}, v.Authors)
	assert.Equal(t, []string{"Science Fiction"}, v.Genres)
}
