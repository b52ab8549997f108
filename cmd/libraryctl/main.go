// libraryctl is the operator CLI: it talks to the same SQLite database as
// the API server for seeding and circulation, and can tail the live
// activity feed of a running server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"libraryhub/internal/books"
	"libraryhub/internal/storage"
	"libraryhub/internal/storage/sqlitestore"
	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

func main() {
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Operate the library database from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(seedCmd(), booksCmd(), checkoutCmd(), checkinCmd(), activityCmd(), tailCmd(), exportCmd(), importCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openService() (*books.Service, func(), error) {
	db, err := database.Open(database.DefaultConfig())
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store := sqlitestore.New(db)
	return books.NewService(store, nil), func() { _ = store.Close() }, nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog (8 books, 2 borrowers, 1 demo checkout)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()
			return seed(cmd.Context(), svc)
		},
	}
}

func seed(ctx context.Context, svc *books.Service) error {
	samples := []models.BookInput{
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Classic Literature", Year: 1960,
			ISBN: "978-0-06-112008-4", Tags: []string{"classic", "literature", "social justice"},
			Description: "A gripping tale of racial injustice and childhood innocence in the American South."},
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Classic Literature", Year: 1925,
			ISBN: "978-0-7432-7356-5", Tags: []string{"classic", "american literature", "1920s"},
			Description: "A critique of the American Dream set in the Jazz Age."},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Year: 1965,
			ISBN: "978-0-441-17271-9", Tags: []string{"sci-fi", "space opera", "politics"},
			Description: "An epic science fiction novel set on the desert planet Arrakis."},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", Year: 1813,
			ISBN: "978-0-14-143951-8", Tags: []string{"romance", "classic", "regency"},
			Description: "A witty exploration of manners, education, marriage, and money."},
		{Title: "1984", Author: "George Orwell", Genre: "Dystopian Fiction", Year: 1949,
			ISBN: "978-0-452-28423-4", Tags: []string{"dystopian", "political", "surveillance"},
			Description: "A chilling prophecy about the future of society under totalitarian rule."},
		{Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", Genre: "Fantasy", Year: 1954,
			ISBN: "978-0-544-00341-5", Tags: []string{"fantasy", "adventure", "epic"},
			Description: "An epic high fantasy novel following the quest to destroy the One Ring."},
		{Title: "JavaScript: The Good Parts", Author: "Douglas Crockford", Genre: "Technology", Year: 2008,
			ISBN: "978-0-596-51774-8", Tags: []string{"programming", "javascript", "web development"},
			Description: "A guide to the elegant parts of JavaScript programming language."},
		{Title: "Clean Code", Author: "Robert C. Martin", Genre: "Technology", Year: 2008,
			ISBN: "978-0-13-235088-4", Tags: []string{"programming", "software engineering", "best practices"},
			Description: "A handbook of agile software craftsmanship."},
	}

	var firstID string
	for _, in := range samples {
		book, err := svc.Add(ctx, in)
		if err != nil {
			return fmt.Errorf("seed %q: %w", in.Title, err)
		}
		if firstID == "" {
			firstID = book.ID
		}
	}

	// One demo checkout so the dashboard has borrowed/overdue data to show.
	due := time.Now().UTC().AddDate(0, 0, 14).Format(models.DueDateLayout)
	if _, err := svc.Checkout(ctx, firstID, books.CheckoutRequest{
		BorrowerName:  "John Smith",
		BorrowerEmail: "john.smith@email.com",
		BorrowerPhone: "(555) 123-4567",
		DueDate:       due,
	}); err != nil {
		return fmt.Errorf("seed checkout: %w", err)
	}
	if _, err := svc.Store.UpsertBorrowerByEmail(ctx, models.Borrower{
		Name:  "Sarah Johnson",
		Email: "sarah.johnson@email.com",
		Phone: "(555) 987-6543",
	}); err != nil {
		return fmt.Errorf("seed borrower: %w", err)
	}

	fmt.Printf("Seeded %d books, 2 borrowers, 1 checkout (due %s)\n", len(samples), due)
	return nil
}

func booksCmd() *cobra.Command {
	var status, search, genre string

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List books, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := svc.List(cmd.Context(), storage.ListFilter{
				Search: search,
				Status: status,
				Genre:  genre,
			})
			if err != nil {
				return err
			}

			for _, b := range items {
				line := fmt.Sprintf("%s  %-35s %-25s %s", b.ID, b.Title, b.Author, b.Status)
				if b.Borrowed() {
					line += fmt.Sprintf(" (due %s)", b.DueDate)
				}
				fmt.Println(line)
			}
			fmt.Printf("%d book(s)\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (available, borrowed, overdue)")
	cmd.Flags().StringVar(&search, "search", "", "substring match on title/author/isbn/tags")
	cmd.Flags().StringVar(&genre, "genre", "", "substring match on genre")
	return cmd
}

func checkoutCmd() *cobra.Command {
	var name, email, phone, due string

	cmd := &cobra.Command{
		Use:   "checkout <book-id>",
		Short: "Check a book out to a borrower",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			if due == "" {
				// The UI default: two weeks out.
				due = time.Now().UTC().AddDate(0, 0, 14).Format(models.DueDateLayout)
			}

			book, err := svc.Checkout(cmd.Context(), args[0], books.CheckoutRequest{
				BorrowerName:  name,
				BorrowerEmail: email,
				BorrowerPhone: phone,
				DueDate:       due,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Checked out %q to %s, due %s\n", book.Title, name, book.DueDate)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "borrower name (required)")
	cmd.Flags().StringVar(&email, "email", "", "borrower email (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "borrower phone")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (default: 14 days from today)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func checkinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <book-id>",
		Short: "Check a borrowed book back in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			book, err := svc.Checkin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Checked in %q\n", book.Title)
			return nil
		},
	}
}

func activityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show the most recent activity records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := svc.Activity(cmd.Context())
			if err != nil {
				return err
			}
			for _, rec := range records {
				title := rec.BookTitle
				if title == "" {
					title = rec.BookID
				}
				fmt.Printf("%s  %-12s %-35s %s\n", rec.Timestamp, rec.Action, title, rec.Notes)
			}
			return nil
		},
	}
}

func tailCmd() *cobra.Command {
	var addr string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the live activity feed of a running server",
		RunE: func(_ *cobra.Command, _ []string) error {
			for {
				if err := tail(addr, pretty); err != nil {
					log.Printf("feed disconnected: %v", err)
				}
				time.Sleep(1 * time.Second) // auto reconnect
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7070", "TCP feed address")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	return cmd
}

func tail(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		if !pretty {
			fmt.Println(string(line))
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}
