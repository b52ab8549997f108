// Package books holds the book lifecycle service: the state transitions
// between available and borrowed, their guarding invariants, and the
// activity records every mutation leaves behind.
package books

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"libraryhub/internal/feed"
	"libraryhub/internal/storage"
	"libraryhub/pkg/models"
)

// ActivityLimit caps activity log reads; the API always serves at most the
// 50 most recent records.
const ActivityLimit = 50

type Service struct {
	Store storage.Store
	Feed  *feed.Hub // optional; nil disables broadcasting

	// Now is the clock used for borrow dates, activity timestamps and the
	// overdue predicate. Tests pin it.
	Now func() time.Time
}

func NewService(store storage.Store, hub *feed.Hub) *Service {
	return &Service{Store: store, Feed: hub, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// logActivity appends one record for a mutating operation. Failures are
// logged and swallowed: the book mutation has already succeeded and is not
// rolled back for a missing log entry.
func (s *Service) logActivity(ctx context.Context, rec models.ActivityRecord, bookTitle, borrowerName string) {
	rec.ID = uuid.NewString()
	rec.Timestamp = s.now().Format(time.RFC3339)

	if err := s.Store.AppendActivity(ctx, rec); err != nil {
		log.Printf("activity log write failed (action=%s book=%s): %v", rec.Action, rec.BookID, err)
		return
	}

	if s.Feed != nil {
		go s.Feed.Broadcast(feed.FromRecord(rec, bookTitle, borrowerName))
	}
}

// Add creates an available book. Title and author are required; a supplied
// ISBN must not collide with another book's.
func (s *Service) Add(ctx context.Context, in models.BookInput) (*models.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if title == "" || author == "" {
		return nil, &ValidationError{Reason: "Title and author are required"}
	}

	now := s.now().Format(time.RFC3339)
	book := models.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      author,
		Genre:       strings.TrimSpace(in.Genre),
		Year:        in.Year,
		ISBN:        strings.TrimSpace(in.ISBN),
		Tags:        in.Tags,
		Description: in.Description,
		Status:      models.StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	s.logActivity(ctx, models.ActivityRecord{
		BookID: book.ID,
		Action: models.ActionAdded,
		Notes:  "Book added to library",
	}, book.Title, "")

	return &book, nil
}

// Update applies a partial update. Fields absent from upd are left
// unchanged; status and loan fields cannot be touched through this path.
func (s *Service) Update(ctx context.Context, id string, upd models.BookUpdate) (*models.Book, error) {
	if err := s.Store.UpdateBookFields(ctx, id, upd); err != nil {
		return nil, err
	}

	book, err := s.Store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, models.ActivityRecord{
		BookID: id,
		Action: models.ActionUpdated,
		Notes:  "Book information updated",
	}, book.Title, "")

	return book, nil
}

// Delete removes an available book. The book id is preserved in the
// activity record so the history of a deleted book stays correlatable.
func (s *Service) Delete(ctx context.Context, id string) error {
	book, err := s.Store.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if book.Borrowed() {
		return &StateError{Reason: "Cannot delete borrowed book"}
	}

	if err := s.Store.DeleteBook(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, models.ActivityRecord{
		BookID: id,
		Action: models.ActionDeleted,
		Notes:  "Book removed from library",
	}, book.Title, "")

	return nil
}

// CheckoutRequest carries the checkout form. The due date comes from the
// caller; the 14-day default lives in the UI, not here.
type CheckoutRequest struct {
	BorrowerName  string `json:"borrower_name"`
	BorrowerEmail string `json:"borrower_email"`
	BorrowerPhone string `json:"borrower_phone"`
	DueDate       string `json:"due_date"`
}

// Checkout moves an available book to borrowed, creating or reusing the
// borrower by email identity.
func (s *Service) Checkout(ctx context.Context, id string, req CheckoutRequest) (*models.Book, error) {
	name := strings.TrimSpace(req.BorrowerName)
	email := strings.TrimSpace(req.BorrowerEmail)
	due := strings.TrimSpace(req.DueDate)
	if name == "" || email == "" || due == "" {
		return nil, &ValidationError{Reason: "Borrower name, email, and due date are required"}
	}
	if _, err := time.Parse(models.DueDateLayout, due); err != nil {
		return nil, &ValidationError{Reason: "Due date must use the YYYY-MM-DD format"}
	}

	book, err := s.Store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.Status != models.StatusAvailable {
		return nil, &StateError{Reason: "Book is not available for checkout"}
	}

	borrower, err := s.Store.UpsertBorrowerByEmail(ctx, models.Borrower{
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(req.BorrowerPhone),
	})
	if err != nil {
		return nil, err
	}

	loan := models.Loan{
		BorrowerID:   borrower.ID,
		BorrowedDate: s.now().Format(time.RFC3339),
		DueDate:      due,
	}
	if err := s.Store.SetLoan(ctx, id, loan); err != nil {
		return nil, err
	}

	s.logActivity(ctx, models.ActivityRecord{
		BookID:     id,
		BorrowerID: borrower.ID,
		Action:     models.ActionCheckedOut,
		Notes:      "Due: " + due,
	}, book.Title, borrower.Name)

	return s.Store.GetBook(ctx, id)
}

// Checkin moves a borrowed book back to available. The outgoing borrower
// is captured in the activity record before the loan is cleared.
func (s *Service) Checkin(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.Store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.Borrowed() {
		return nil, &StateError{Reason: "Book is not checked out"}
	}

	outgoing := book.BorrowerID
	outgoingName := book.BorrowerName

	if err := s.Store.ClearLoan(ctx, id); err != nil {
		return nil, err
	}

	s.logActivity(ctx, models.ActivityRecord{
		BookID:     id,
		BorrowerID: outgoing,
		Action:     models.ActionCheckedIn,
		Notes:      "Book returned",
	}, book.Title, outgoingName)

	return s.Store.GetBook(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Book, error) {
	return s.Store.GetBook(ctx, id)
}

func (s *Service) List(ctx context.Context, f storage.ListFilter) ([]models.Book, error) {
	if f.Now.IsZero() {
		f.Now = s.now()
	}
	return s.Store.ListBooks(ctx, f)
}

func (s *Service) Overdue(ctx context.Context) ([]models.Book, error) {
	return s.Store.OverdueBooks(ctx, s.now())
}

func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	return s.Store.CountStats(ctx, s.now())
}

func (s *Service) Activity(ctx context.Context) ([]models.ActivityRecord, error) {
	return s.Store.ListActivity(ctx, ActivityLimit)
}
