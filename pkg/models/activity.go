package models

// Actions recorded in the activity log, one per mutating book operation.
const (
	ActionAdded      = "added"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionCheckedOut = "checked_out"
	ActionCheckedIn  = "checked_in"
)

// ActivityRecord is an immutable log entry. BookID survives book deletion
// so the history of a removed book stays correlatable; the title join then
// resolves to nothing.
type ActivityRecord struct {
	ID         string `json:"id"`
	BookID     string `json:"book_id,omitempty"`
	BorrowerID string `json:"borrower_id,omitempty"`
	Action     string `json:"action"`
	Timestamp  string `json:"timestamp"` // RFC3339
	Notes      string `json:"notes,omitempty"`
	// Joined at read time for display.
	BookTitle    string `json:"book_title,omitempty"`
	BorrowerName string `json:"borrower_name,omitempty"`
}
