package repositories

import (
	"fmt"
	"strconv"
	"strings"

	"libportal/internal/models"
)

// Dataset file names inside the data directory. Column names are part of the
// on-disk contract and must not change.
const (
	LibrariesFile  = "libraries.csv"
	BooksFile      = "books.csv"
	LibrariansFile = "librarians.csv"
)

var (
	libraryHeader   = []string{"library_id", "name", "pincode", "contact"}
	bookHeader      = []string{"book_id", "title", "author", "library_id"}
	librarianHeader = []string{"username", "password", "library_id"}
)

type LibraryRepository interface {
	List() ([]models.Library, error)
}

type BookRepository interface {
	List() ([]models.Book, error)
	// Mutate applies fn to the full book dataset and persists the result as
	// one atomic rewrite. fn runs under the dataset's write lock.
	Mutate(fn func(books []models.Book) ([]models.Book, error)) error
}

type LibrarianRepository interface {
	List() ([]models.Librarian, error)
}

// concrete implementations

type libraryRepository struct {
	t *table
}

func NewLibraryRepository(dataDir string) LibraryRepository {
	return &libraryRepository{t: newTable(dataDir, LibrariesFile, libraryHeader)}
}

func (r *libraryRepository) List() ([]models.Library, error) {
	rows, err := r.t.load()
	if err != nil {
		return nil, err
	}
	libraries := make([]models.Library, 0, len(rows))
	for _, row := range rows {
		id, err := parseID(row[0], LibrariesFile, "library_id")
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, models.Library{
			LibraryID: id,
			Name:      row[1],
			// Pincode stays a string so "060001" keeps its leading zero.
			Pincode: row[2],
			Contact: row[3],
		})
	}
	return libraries, nil
}

type bookRepository struct {
	t *table
}

func NewBookRepository(dataDir string) BookRepository {
	return &bookRepository{t: newTable(dataDir, BooksFile, bookHeader)}
}

func (r *bookRepository) List() ([]models.Book, error) {
	rows, err := r.t.load()
	if err != nil {
		return nil, err
	}
	return booksFromRows(rows)
}

func (r *bookRepository) Mutate(fn func(books []models.Book) ([]models.Book, error)) error {
	return r.t.mutate(func(rows [][]string) ([][]string, error) {
		books, err := booksFromRows(rows)
		if err != nil {
			// Rows that no longer parse are not silently rewritten away;
			// treat the dataset as empty like a fresh load would.
			books = nil
		}
		updated, err := fn(books)
		if err != nil {
			return nil, err
		}
		out := make([][]string, 0, len(updated))
		for _, b := range updated {
			out = append(out, []string{
				strconv.Itoa(b.BookID), b.Title, b.Author, strconv.Itoa(b.LibraryID),
			})
		}
		return out, nil
	})
}

func booksFromRows(rows [][]string) ([]models.Book, error) {
	books := make([]models.Book, 0, len(rows))
	for _, row := range rows {
		bookID, err := parseID(row[0], BooksFile, "book_id")
		if err != nil {
			return nil, err
		}
		libraryID, err := parseID(row[3], BooksFile, "library_id")
		if err != nil {
			return nil, err
		}
		books = append(books, models.Book{
			BookID:    bookID,
			Title:     row[1],
			Author:    row[2],
			LibraryID: libraryID,
		})
	}
	return books, nil
}

type librarianRepository struct {
	t *table
}

func NewLibrarianRepository(dataDir string) LibrarianRepository {
	return &librarianRepository{t: newTable(dataDir, LibrariansFile, librarianHeader)}
}

func (r *librarianRepository) List() ([]models.Librarian, error) {
	rows, err := r.t.load()
	if err != nil {
		return nil, err
	}
	librarians := make([]models.Librarian, 0, len(rows))
	for _, row := range rows {
		l := models.Librarian{Username: row[0], Password: row[1]}
		// library_id is nullable: an empty cell means the account has no
		// library bound to it.
		if cell := strings.TrimSpace(row[2]); cell != "" {
			id, err := parseID(cell, LibrariansFile, "library_id")
			if err != nil {
				return nil, err
			}
			l.LibraryID = &id
		}
		librarians = append(librarians, l)
	}
	return librarians, nil
}

func parseID(cell, file, column string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0, fmt.Errorf("%w: %s has non-integer %s %q", ErrDataUnavailable, file, column, cell)
	}
	return id, nil
}
