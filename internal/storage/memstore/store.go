// Package memstore implements the storage contract in process memory.
// It backs the server when no database is configured and keeps the
// lifecycle tests independent of SQLite. Every instance owns its own
// state; construct one per test for isolation.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"libraryhub/internal/storage"
	"libraryhub/pkg/models"
)

type Store struct {
	mu        sync.Mutex
	books     map[string]*models.Book
	borrowers map[string]*models.Borrower
	activity  []models.ActivityRecord
}

func New() *Store {
	return &Store{
		books:     make(map[string]*models.Book),
		borrowers: make(map[string]*models.Borrower),
	}
}

func (s *Store) Close() error { return nil }

func cloneBook(b *models.Book) *models.Book {
	out := *b
	if b.Loan != nil {
		loan := *b.Loan
		out.Loan = &loan
	}
	if b.Tags != nil {
		out.Tags = append([]string(nil), b.Tags...)
	}
	return &out
}

// decorate fills the read-time borrower join fields.
func (s *Store) decorate(b *models.Book) *models.Book {
	out := cloneBook(b)
	if out.Loan != nil {
		if br, ok := s.borrowers[out.BorrowerID]; ok {
			out.BorrowerName = br.Name
			out.BorrowerEmail = br.Email
		}
	}
	return out
}

func (s *Store) GetBook(_ context.Context, id string) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.decorate(b), nil
}

func (s *Store) ListBooks(_ context.Context, f storage.ListFilter) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := f.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		if matchesFilter(b, f, now) {
			out = append(out, *s.decorate(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func matchesFilter(b *models.Book, f storage.ListFilter, now time.Time) bool {
	// Matching is case-insensitive to mirror SQLite LIKE.
	if q := strings.TrimSpace(f.Search); q != "" {
		hay := strings.Join(append([]string{b.Title, b.Author, b.ISBN}, b.Tags...), "\n")
		if !strings.Contains(strings.ToLower(hay), strings.ToLower(q)) {
			return false
		}
	}

	switch strings.TrimSpace(f.Status) {
	case "":
	case models.StatusOverdue:
		if !b.OverdueAt(now) {
			return false
		}
	default:
		if b.Status != f.Status {
			return false
		}
	}

	if g := strings.TrimSpace(f.Genre); g != "" {
		if !strings.Contains(strings.ToLower(b.Genre), strings.ToLower(g)) {
			return false
		}
	}
	return true
}

func (s *Store) CreateBook(_ context.Context, b models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ISBN != "" {
		for _, other := range s.books {
			if other.ISBN == b.ISBN {
				return storage.ErrConflict
			}
		}
	}
	s.books[b.ID] = cloneBook(&b)
	return nil
}

func (s *Store) UpdateBookFields(_ context.Context, id string, upd models.BookUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return storage.ErrNotFound
	}

	if upd.ISBN != nil && *upd.ISBN != "" {
		for otherID, other := range s.books {
			if otherID != id && other.ISBN == *upd.ISBN {
				return storage.ErrConflict
			}
		}
	}

	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.Genre != nil {
		b.Genre = *upd.Genre
	}
	if upd.Year != nil {
		b.Year = *upd.Year
	}
	if upd.ISBN != nil {
		b.ISBN = *upd.ISBN
	}
	if upd.Tags != nil {
		b.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	b.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (s *Store) SetLoan(_ context.Context, id string, loan models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return storage.ErrNotFound
	}
	b.Status = models.StatusBorrowed
	b.Loan = &models.Loan{
		BorrowerID:   loan.BorrowerID,
		BorrowedDate: loan.BorrowedDate,
		DueDate:      loan.DueDate,
	}
	b.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (s *Store) ClearLoan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return storage.ErrNotFound
	}
	b.Status = models.StatusAvailable
	b.Loan = nil
	b.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (s *Store) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *Store) UpsertBorrowerByEmail(_ context.Context, b models.Borrower) (*models.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.TrimSpace(strings.ToLower(b.Email))
	if email != "" {
		for _, existing := range s.borrowers {
			if existing.Email == email {
				if b.Name != "" {
					existing.Name = b.Name
				}
				if b.Phone != "" {
					existing.Phone = b.Phone
				}
				out := *existing
				return &out, nil
			}
		}
	}

	b.ID = uuid.NewString()
	b.Email = email
	b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	stored := b
	s.borrowers[b.ID] = &stored
	out := b
	return &out, nil
}

func (s *Store) ListBorrowers(_ context.Context) ([]models.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Borrower, 0, len(s.borrowers))
	for _, b := range s.borrowers {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) AppendActivity(_ context.Context, rec models.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity = append(s.activity, rec)
	return nil
}

func (s *Store) ListActivity(_ context.Context, limit int) ([]models.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first; insertion order breaks timestamp ties.
	out := make([]models.ActivityRecord, 0, limit)
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.activity[i]
		if b, ok := s.books[rec.BookID]; ok {
			rec.BookTitle = b.Title
		}
		if br, ok := s.borrowers[rec.BorrowerID]; ok {
			rec.BorrowerName = br.Name
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Vocabulary(_ context.Context) (storage.Vocabulary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	titles := make(map[string]struct{})
	authors := make(map[string]struct{})
	genres := make(map[string]struct{})
	for _, b := range s.books {
		titles[b.Title] = struct{}{}
		authors[b.Author] = struct{}{}
		if b.Genre != "" {
			genres[b.Genre] = struct{}{}
		}
	}

	return storage.Vocabulary{
		Titles:  sortedKeys(titles),
		Authors: sortedKeys(authors),
		Genres:  sortedKeys(genres),
	}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Store) OverdueBooks(_ context.Context, now time.Time) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Book, 0)
	for _, b := range s.books {
		if b.OverdueAt(now) {
			out = append(out, *s.decorate(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out, nil
}

func (s *Store) CountStats(_ context.Context, now time.Time) (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st models.Stats
	for _, b := range s.books {
		st.TotalBooks++
		switch b.Status {
		case models.StatusAvailable:
			st.AvailableBooks++
		case models.StatusBorrowed:
			st.BorrowedBooks++
		}
		if b.OverdueAt(now) {
			st.OverdueBooks++
		}
	}
	return st, nil
}
