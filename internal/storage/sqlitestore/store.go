// Package sqlitestore implements the storage contract against SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"libraryhub/internal/storage"
	"libraryhub/pkg/models"
)

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Close() error { return s.DB.Close() }

const bookColumns = `
	b.id, b.title, b.author, b.genre, b.year, b.isbn, b.tags, b.description,
	b.status, b.borrower_id, b.borrowed_date, b.due_date, b.created_at, b.updated_at,
	br.name, br.email
`

const bookFrom = `
	FROM books b
	LEFT JOIN borrowers br ON b.borrower_id = br.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var (
		b            models.Book
		genre        sql.NullString
		year         sql.NullInt64
		isbn         sql.NullString
		tags         sql.NullString
		description  sql.NullString
		borrowerID   sql.NullString
		borrowedDate sql.NullString
		dueDate      sql.NullString
		createdAt    sql.NullString
		updatedAt    sql.NullString
		brName       sql.NullString
		brEmail      sql.NullString
	)

	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &genre, &year, &isbn, &tags, &description,
		&b.Status, &borrowerID, &borrowedDate, &dueDate, &createdAt, &updatedAt,
		&brName, &brEmail,
	)
	if err != nil {
		return nil, err
	}

	b.Genre = genre.String
	b.Year = int(year.Int64)
	b.ISBN = isbn.String
	b.Description = description.String
	b.CreatedAt = createdAt.String
	b.UpdatedAt = updatedAt.String
	b.BorrowerName = brName.String
	b.BorrowerEmail = brEmail.String
	b.Tags = splitTags(tags.String)

	if borrowerID.Valid && borrowedDate.Valid && dueDate.Valid {
		b.Loan = &models.Loan{
			BorrowerID:   borrowerID.String,
			BorrowedDate: borrowedDate.String,
			DueDate:      dueDate.String,
		}
	}
	return &b, nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*models.Book, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+bookColumns+bookFrom+` WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (s *Store) ListBooks(ctx context.Context, f storage.ListFilter) ([]models.Book, error) {
	now := f.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	sqlStr, args := buildListSQL(f, now)

	rows, err := s.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

func buildListSQL(f storage.ListFilter, now time.Time) (string, []any) {
	var where []string
	var args []any

	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, "(b.title LIKE ? OR b.author LIKE ? OR b.isbn LIKE ? OR b.tags LIKE ?)")
		kw := "%" + q + "%"
		args = append(args, kw, kw, kw, kw)
	}

	switch strings.TrimSpace(f.Status) {
	case "":
	case models.StatusOverdue:
		where = append(where, "b.status = 'borrowed' AND date(b.due_date) < date(?)")
		args = append(args, now.Format(models.DueDateLayout))
	default:
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}

	if g := strings.TrimSpace(f.Genre); g != "" {
		where = append(where, "b.genre LIKE ?")
		args = append(args, "%"+g+"%")
	}

	sqlStr := `SELECT ` + bookColumns + bookFrom
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY b.title ASC"

	return sqlStr, args
}

func collectBooks(rows *sql.Rows) ([]models.Book, error) {
	out := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (s *Store) CreateBook(ctx context.Context, b models.Book) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO books (id, title, author, genre, year, isbn, tags, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Title, b.Author,
		nullIfEmpty(b.Genre), nullIfZero(b.Year), nullIfEmpty(b.ISBN),
		nullIfEmpty(joinTags(b.Tags)), nullIfEmpty(b.Description),
		b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (s *Store) UpdateBookFields(ctx context.Context, id string, upd models.BookUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *upd.Author)
	}
	if upd.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, nullIfEmpty(*upd.Genre))
	}
	if upd.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, nullIfZero(*upd.Year))
	}
	if upd.ISBN != nil {
		sets = append(sets, "isbn = ?")
		args = append(args, nullIfEmpty(*upd.ISBN))
	}
	if upd.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, nullIfEmpty(joinTags(*upd.Tags)))
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullIfEmpty(*upd.Description))
	}

	args = append(args, id)
	res, err := s.DB.ExecContext(ctx,
		"UPDATE books SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("update book: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SetLoan(ctx context.Context, id string, loan models.Loan) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE books
		SET status = 'borrowed', borrower_id = ?, borrowed_date = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, loan.BorrowerID, loan.BorrowedDate, loan.DueDate,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set loan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ClearLoan(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE books
		SET status = 'available', borrower_id = NULL, borrowed_date = NULL, due_date = NULL, updated_at = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("clear loan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertBorrowerByEmail reuses the borrower row matched by email, updating
// name and phone to the latest values. Borrowers without an email always
// get a fresh row.
func (s *Store) UpsertBorrowerByEmail(ctx context.Context, b models.Borrower) (*models.Borrower, error) {
	email := strings.TrimSpace(strings.ToLower(b.Email))

	if email != "" {
		var existing models.Borrower
		var phone, createdAt sql.NullString
		err := s.DB.QueryRowContext(ctx, `
			SELECT id, name, email, phone, created_at FROM borrowers WHERE LOWER(email) = ?
		`, email).Scan(&existing.ID, &existing.Name, &existing.Email, &phone, &createdAt)
		switch {
		case err == nil:
			existing.Phone = phone.String
			existing.CreatedAt = createdAt.String
			if b.Name != "" {
				existing.Name = b.Name
			}
			if b.Phone != "" {
				existing.Phone = b.Phone
			}
			if _, err := s.DB.ExecContext(ctx, `
				UPDATE borrowers SET name = ?, phone = ? WHERE id = ?
			`, existing.Name, nullIfEmpty(existing.Phone), existing.ID); err != nil {
				return nil, fmt.Errorf("update borrower: %w", err)
			}
			return &existing, nil
		case errors.Is(err, sql.ErrNoRows):
			// fall through to insert
		default:
			return nil, fmt.Errorf("lookup borrower: %w", err)
		}
	}

	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO borrowers (id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Name, nullIfEmpty(email), nullIfEmpty(b.Phone), b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("insert borrower: %w", err)
	}
	b.Email = email
	return &b, nil
}

func (s *Store) ListBorrowers(ctx context.Context) ([]models.Borrower, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, email, phone, created_at FROM borrowers ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	defer rows.Close()

	out := make([]models.Borrower, 0)
	for rows.Next() {
		var b models.Borrower
		var email, phone, createdAt sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &email, &phone, &createdAt); err != nil {
			return nil, fmt.Errorf("scan borrower: %w", err)
		}
		b.Email = email.String
		b.Phone = phone.String
		b.CreatedAt = createdAt.String
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (s *Store) AppendActivity(ctx context.Context, rec models.ActivityRecord) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO activity_log (id, book_id, borrower_id, action, timestamp, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, nullIfEmpty(rec.BookID), nullIfEmpty(rec.BorrowerID),
		rec.Action, rec.Timestamp, nullIfEmpty(rec.Notes))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]models.ActivityRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT a.id, a.book_id, a.borrower_id, a.action, a.timestamp, a.notes,
		       b.title, br.name
		FROM activity_log a
		LEFT JOIN books b ON a.book_id = b.id
		LEFT JOIN borrowers br ON a.borrower_id = br.id
		ORDER BY a.timestamp DESC, a.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]models.ActivityRecord, 0, limit)
	for rows.Next() {
		var rec models.ActivityRecord
		var bookID, borrowerID, notes, title, name sql.NullString
		if err := rows.Scan(&rec.ID, &bookID, &borrowerID, &rec.Action, &rec.Timestamp,
			&notes, &title, &name); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec.BookID = bookID.String
		rec.BorrowerID = borrowerID.String
		rec.Notes = notes.String
		rec.BookTitle = title.String
		rec.BorrowerName = name.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (s *Store) Vocabulary(ctx context.Context) (storage.Vocabulary, error) {
	var v storage.Vocabulary
	queries := []struct {
		sql  string
		dest *[]string
	}{
		{`SELECT DISTINCT title FROM books ORDER BY title`, &v.Titles},
		{`SELECT DISTINCT author FROM books ORDER BY author`, &v.Authors},
		{`SELECT DISTINCT genre FROM books WHERE genre IS NOT NULL AND genre != '' ORDER BY genre`, &v.Genres},
	}
	for _, q := range queries {
		rows, err := s.DB.QueryContext(ctx, q.sql)
		if err != nil {
			return v, fmt.Errorf("vocabulary query: %w", err)
		}
		for rows.Next() {
			var val string
			if err := rows.Scan(&val); err != nil {
				rows.Close()
				return v, fmt.Errorf("vocabulary scan: %w", err)
			}
			*q.dest = append(*q.dest, val)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return v, fmt.Errorf("rows err: %w", err)
		}
		rows.Close()
	}
	return v, nil
}

func (s *Store) OverdueBooks(ctx context.Context, now time.Time) ([]models.Book, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+bookColumns+bookFrom+`
		WHERE b.status = 'borrowed' AND date(b.due_date) < date(?)
		ORDER BY b.due_date ASC
	`, now.UTC().Format(models.DueDateLayout))
	if err != nil {
		return nil, fmt.Errorf("overdue books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

func (s *Store) CountStats(ctx context.Context, now time.Time) (models.Stats, error) {
	var st models.Stats
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = 'available'), 0),
		       COALESCE(SUM(status = 'borrowed'), 0),
		       COALESCE(SUM(status = 'borrowed' AND date(due_date) < date(?)), 0)
		FROM books
	`, now.UTC().Format(models.DueDateLayout)).
		Scan(&st.TotalBooks, &st.AvailableBooks, &st.BorrowedBooks, &st.OverdueBooks)
	if err != nil {
		return st, fmt.Errorf("count stats: %w", err)
	}
	return st, nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
