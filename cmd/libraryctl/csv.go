package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"libraryhub/internal/books"
	"libraryhub/internal/storage"
	"libraryhub/pkg/models"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()
			return exportBooks(cmd.Context(), svc, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "data/books.csv", "output CSV path")
	return cmd
}

func exportBooks(ctx context.Context, svc *books.Service, outPath string) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"id", "title", "author", "genre", "year", "isbn", "tags", "description",
		"status", "borrower_name", "due_date",
	}); err != nil {
		return err
	}

	list, err := svc.List(ctx, storage.ListFilter{})
	if err != nil {
		return err
	}

	for _, b := range list {
		year := ""
		if b.Year != 0 {
			year = strconv.Itoa(b.Year)
		}
		due := ""
		if b.Loan != nil {
			due = b.DueDate
		}
		if err := w.Write([]string{
			b.ID, b.Title, b.Author, b.Genre, year, b.ISBN,
			strings.Join(b.Tags, "; "), b.Description,
			b.Status, b.BorrowerName, due,
		}); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	fmt.Printf("Exported %d books to %s\n", len(list), outPath)
	return nil
}

func importCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import books from CSV (skips duplicate ISBNs)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()
			return importBooks(cmd.Context(), svc, in)
		},
	}
	cmd.Flags().StringVar(&in, "in", "data/books.csv", "input CSV path")
	return cmd
}

func importBooks(ctx context.Context, svc *books.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	var imported, skipped int
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		title := valueAt(header, row, "title")
		author := valueAt(header, row, "author")
		if title == "" || author == "" {
			skipped++
			continue
		}

		year := 0
		if y := valueAt(header, row, "year"); y != "" {
			if year, err = strconv.Atoi(y); err != nil {
				return fmt.Errorf("parse year for %q: %w", title, err)
			}
		}

		var tags []string
		for _, t := range strings.Split(valueAt(header, row, "tags"), ";") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}

		_, err = svc.Add(ctx, models.BookInput{
			Title:       title,
			Author:      author,
			Genre:       valueAt(header, row, "genre"),
			Year:        year,
			ISBN:        valueAt(header, row, "isbn"),
			Tags:        tags,
			Description: valueAt(header, row, "description"),
		})
		switch {
		case err == nil:
			imported++
		case errors.Is(err, storage.ErrConflict):
			skipped++
		default:
			return fmt.Errorf("import %q: %w", title, err)
		}
	}

	fmt.Printf("Imported %d books from %s (%d skipped)\n", imported, path, skipped)
	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for i, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
