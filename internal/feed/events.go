package feed

import (
	"time"

	"libraryhub/pkg/models"
)

// ActivityEvent is the wire shape broadcast to feed subscribers whenever a
// book mutation lands.
type ActivityEvent struct {
	Type         string    `json:"type"` // "activity"
	Action       string    `json:"action"`
	BookID       string    `json:"book_id,omitempty"`
	BookTitle    string    `json:"book_title,omitempty"`
	BorrowerID   string    `json:"borrower_id,omitempty"`
	BorrowerName string    `json:"borrower_name,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	At           time.Time `json:"at"`
}

// FromRecord builds the broadcast event for an activity record.
func FromRecord(rec models.ActivityRecord, bookTitle, borrowerName string) ActivityEvent {
	at, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		at = time.Now().UTC()
	}
	return ActivityEvent{
		Type:         "activity",
		Action:       rec.Action,
		BookID:       rec.BookID,
		BookTitle:    bookTitle,
		BorrowerID:   rec.BorrowerID,
		BorrowerName: borrowerName,
		Notes:        rec.Notes,
		At:           at,
	}
}
