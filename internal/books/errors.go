package books

// ValidationError reports a missing or malformed caller-supplied field.
// Surfaced as a 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// StateError reports an operation not permitted in the book's current
// lifecycle state (double checkout, checkin of an available book, delete
// while borrowed). Surfaced as a 400.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return e.Reason }
