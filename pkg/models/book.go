package models

import "time"

// Book statuses persisted in storage. "overdue" is never stored; it is a
// read-time predicate over borrowed books, but it is accepted as a status
// filter value in list queries.
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
	StatusOverdue   = "overdue"
)

// DueDateLayout is the wire and storage format for due dates (date only).
const DueDateLayout = "2006-01-02"

// Loan carries the borrower association of a borrowed book. A book either
// has no loan (available) or a loan with all three fields set (borrowed);
// partially-set borrower data is unrepresentable.
type Loan struct {
	BorrowerID   string `json:"borrower_id"`
	BorrowedDate string `json:"borrowed_date"` // RFC3339
	DueDate      string `json:"due_date"`      // YYYY-MM-DD
}

// Book is the canonical book record. The embedded *Loan flattens the
// borrower fields into the JSON object when present and omits them when
// the book is available.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre,omitempty"`
	Year        int      `json:"year,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	*Loan
	// Denormalized at read time from the borrowers table; never stored.
	BorrowerName  string `json:"borrower_name,omitempty"`
	BorrowerEmail string `json:"borrower_email,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Borrowed reports whether the book currently has a loan.
func (b *Book) Borrowed() bool { return b.Loan != nil }

// OverdueAt reports whether the book is borrowed and its due date has
// passed. Comparison is date-granular: a book due today is not overdue.
func (b *Book) OverdueAt(now time.Time) bool {
	if b.Loan == nil || b.DueDate == "" {
		return false
	}
	due, err := time.Parse(DueDateLayout, b.DueDate)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// BookInput holds the caller-supplied fields for creating a book.
type BookInput struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre"`
	Year        int      `json:"year"`
	ISBN        string   `json:"isbn"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// BookUpdate is a partial update: nil fields are left unchanged. Status and
// loan fields are deliberately absent; they only move through checkout and
// checkin.
type BookUpdate struct {
	Title       *string   `json:"title"`
	Author      *string   `json:"author"`
	Genre       *string   `json:"genre"`
	Year        *int      `json:"year"`
	ISBN        *string   `json:"isbn"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
}
