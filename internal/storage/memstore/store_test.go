package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/storage"
	"libraryhub/internal/storage/memstore"
	"libraryhub/pkg/models"
)

func TestInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := memstore.New(), memstore.New()

	require.NoError(t, a.CreateBook(ctx, models.Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Status: models.StatusAvailable}))

	_, err := b.GetBook(ctx, "b1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReadsReturnClones(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.CreateBook(ctx, models.Book{
		ID:     "b1",
		Title:  "Dune",
		Author: "Frank Herbert",
		Tags:   []string{"classic"},
		Status: models.StatusAvailable,
	}))

	got, err := s.GetBook(ctx, "b1")
	require.NoError(t, err)
	got.Title = "mutated"
	got.Tags[0] = "mutated"

	again, err := s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", again.Title)
	assert.Equal(t, []string{"classic"}, again.Tags)
}

func TestCreateDoesNotAliasCallerValue(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	in := models.Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", Tags: []string{"classic"}, Status: models.StatusAvailable}
	require.NoError(t, s.CreateBook(ctx, in))
	in.Tags[0] = "mutated"

	got, err := s.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"classic"}, got.Tags)
}

func TestVocabularyIsSortedAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

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
	assert.Equal(t, []string{"Science Fiction"}, v.Genres, "empty genres are excluded")
}
