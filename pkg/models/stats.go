package models

// Stats is the dashboard summary. overdueBooks is computed, not stored.
type Stats struct {
	TotalBooks     int `json:"totalBooks"`
	AvailableBooks int `json:"availableBooks"`
	BorrowedBooks  int `json:"borrowedBooks"`
	OverdueBooks   int `json:"overdueBooks"`
}
