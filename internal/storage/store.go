package storage

import (
	"context"
	"errors"
	"time"

	"libraryhub/pkg/models"
)

// Sentinel errors shared by every Store implementation. Anything else
// returned from a Store is an underlying persistence failure and maps to
// a 500 at the API edge.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("unique constraint violation")
)

// ListFilter narrows a book listing. All supplied filters are ANDed.
// Status accepts the two stored values plus the derived "overdue".
type ListFilter struct {
	Search string // substring over title/author/isbn/tags
	Status string
	Genre  string // substring

	// Now anchors the derived "overdue" status filter. The lifecycle
	// service fills it from its clock; zero falls back to the wall clock.
	Now time.Time
}

// Vocabulary holds the distinct searchable values used by autocomplete.
type Vocabulary struct {
	Titles  []string
	Authors []string
	Genres  []string
}

// Store is the persistence contract for the lifecycle service. The
// relational and in-memory implementations honor identical semantics:
// unknown ids surface ErrNotFound, uniqueness violations ErrConflict.
//
// SetLoan and ClearLoan write the status column and the three loan fields
// in a single statement so borrower data can never be partially set.
type Store interface {
	GetBook(ctx context.Context, id string) (*models.Book, error)
	ListBooks(ctx context.Context, f ListFilter) ([]models.Book, error)
	CreateBook(ctx context.Context, b models.Book) error
	UpdateBookFields(ctx context.Context, id string, upd models.BookUpdate) error
	SetLoan(ctx context.Context, id string, loan models.Loan) error
	ClearLoan(ctx context.Context, id string) error
	DeleteBook(ctx context.Context, id string) error

	UpsertBorrowerByEmail(ctx context.Context, b models.Borrower) (*models.Borrower, error)
	ListBorrowers(ctx context.Context) ([]models.Borrower, error)

	AppendActivity(ctx context.Context, rec models.ActivityRecord) error
	ListActivity(ctx context.Context, limit int) ([]models.ActivityRecord, error)

	Vocabulary(ctx context.Context) (Vocabulary, error)
	OverdueBooks(ctx context.Context, now time.Time) ([]models.Book, error)
	CountStats(ctx context.Context, now time.Time) (models.Stats, error)

	Close() error
}
