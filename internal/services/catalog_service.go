package services

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"libportal/internal/models"
	"libportal/internal/repositories"
)

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrBookNotFound is returned when the referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrTitleAuthorRequired is returned when an add or edit arrives with an
	// empty title or author after trimming whitespace.
	ErrTitleAuthorRequired = errors.New("title and author are required")
)

// ─── Service Interface ────────────────────────────────────────────────────────

// CatalogService defines the query and mutation operations of the portal.
//
// Queries re-read the underlying datasets on every call; nothing is cached,
// because every mutation rewrites a dataset wholesale and stale results must
// never be observable.
type CatalogService interface {
	// Pincodes returns the sorted distinct pincodes of all libraries.
	Pincodes() ([]string, error)

	// EnrichedBooks left-joins every book against the library dataset.
	EnrichedBooks() ([]models.EnrichedBook, error)

	// SearchByLocation filters enriched books to an exact pincode, then to
	// case-insensitive substring containment of titleTerm in the title, and,
	// when authorTerm is non-empty, of authorTerm in the author. Results are
	// projected to five fields, deduplicated, and keep input order. Callers
	// validate that titleTerm and pincode are non-empty.
	SearchByLocation(titleTerm, authorTerm, pincode string) ([]models.SearchResult, error)

	// AllBooksGrouped groups enriched books by exact (title, author) and
	// collects each group's locations string. Grouping is deliberately
	// case-sensitive, coarser than search; output is sorted by title then
	// author.
	AllBooksGrouped() ([]models.TitleGroup, error)

	// BooksForLibrary returns one library's own books sorted by book id.
	BooksForLibrary(libraryID int) ([]models.Book, error)

	// SharedView returns every enriched book sorted by title then library
	// name, for the cross-library panel on the dashboard.
	SharedView() ([]models.EnrichedBook, error)

	AddBook(libraryID int, title, author string) (*models.Book, error)
	EditBook(bookID int, title, author string) error
	DeleteBook(bookID int) error
}

// ─── Implementation ───────────────────────────────────────────────────────────

type catalogService struct {
	libraryRepo repositories.LibraryRepository
	bookRepo    repositories.BookRepository
}

// NewCatalogService wires up all dependencies and returns a CatalogService.
func NewCatalogService(
	libraryRepo repositories.LibraryRepository,
	bookRepo repositories.BookRepository,
) CatalogService {
	return &catalogService{libraryRepo: libraryRepo, bookRepo: bookRepo}
}

// ─── Queries ──────────────────────────────────────────────────────────────────

func (s *catalogService) Pincodes() ([]string, error) {
	libraries, err := s.libraryRepo.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(libraries))
	pincodes := make([]string, 0, len(libraries))
	for _, l := range libraries {
		if l.Pincode == "" || seen[l.Pincode] {
			continue
		}
		seen[l.Pincode] = true
		pincodes = append(pincodes, l.Pincode)
	}
	sort.Strings(pincodes)
	return pincodes, nil
}

func (s *catalogService) EnrichedBooks() ([]models.EnrichedBook, error) {
	books, err := s.bookRepo.List()
	if err != nil {
		return nil, err
	}
	libraries, err := s.libraryRepo.List()
	if err != nil {
		return nil, err
	}

	byID := make(map[int]models.Library, len(libraries))
	for _, l := range libraries {
		byID[l.LibraryID] = l
	}

	enriched := make([]models.EnrichedBook, 0, len(books))
	for _, b := range books {
		e := models.EnrichedBook{
			BookID:    b.BookID,
			Title:     b.Title,
			Author:    b.Author,
			LibraryID: b.LibraryID,
		}
		// Left join: a book with no matching library keeps empty fields.
		if l, ok := byID[b.LibraryID]; ok {
			e.Name = l.Name
			e.Pincode = l.Pincode
			e.Contact = l.Contact
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

func (s *catalogService) SearchByLocation(titleTerm, authorTerm, pincode string) ([]models.SearchResult, error) {
	enriched, err := s.EnrichedBooks()
	if err != nil {
		return nil, err
	}

	titleTerm = strings.ToLower(titleTerm)
	authorTerm = strings.ToLower(authorTerm)

	seen := make(map[models.SearchResult]bool)
	var results []models.SearchResult
	for _, e := range enriched {
		if e.Pincode != pincode {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Title), titleTerm) {
			continue
		}
		if authorTerm != "" && !strings.Contains(strings.ToLower(e.Author), authorTerm) {
			continue
		}
		r := models.SearchResult{
			Title:   e.Title,
			Author:  e.Author,
			Name:    e.Name,
			Pincode: e.Pincode,
			Contact: e.Contact,
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		results = append(results, r)
	}
	return results, nil
}

func (s *catalogService) AllBooksGrouped() ([]models.TitleGroup, error) {
	enriched, err := s.EnrichedBooks()
	if err != nil {
		return nil, err
	}

	type key struct{ title, author string }
	locations := make(map[key]map[string]bool)
	for _, e := range enriched {
		k := key{e.Title, e.Author}
		if locations[k] == nil {
			locations[k] = make(map[string]bool)
		}
		locations[k][e.Name+" ("+e.Pincode+")"] = true
	}

	groups := make([]models.TitleGroup, 0, len(locations))
	for k, set := range locations {
		names := make([]string, 0, len(set))
		for loc := range set {
			names = append(names, loc)
		}
		sort.Strings(names)
		groups = append(groups, models.TitleGroup{
			Title:     k.title,
			Author:    k.author,
			Locations: strings.Join(names, ", "),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Title != groups[j].Title {
			return groups[i].Title < groups[j].Title
		}
		return groups[i].Author < groups[j].Author
	})
	return groups, nil
}

func (s *catalogService) BooksForLibrary(libraryID int) ([]models.Book, error) {
	books, err := s.bookRepo.List()
	if err != nil {
		return nil, err
	}
	var mine []models.Book
	for _, b := range books {
		if b.LibraryID == libraryID {
			mine = append(mine, b)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].BookID < mine[j].BookID })
	return mine, nil
}

func (s *catalogService) SharedView() ([]models.EnrichedBook, error) {
	enriched, err := s.EnrichedBooks()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(enriched, func(i, j int) bool {
		if enriched[i].Title != enriched[j].Title {
			return enriched[i].Title < enriched[j].Title
		}
		return enriched[i].Name < enriched[j].Name
	})
	return enriched, nil
}

// ─── Mutations ────────────────────────────────────────────────────────────────

// AddBook appends a new book bound to libraryID. The id is assigned from the
// full shared dataset: max existing book id + 1, or 1 when the dataset is
// empty. Ids of deleted books are never reused unless they were the maximum.
func (s *catalogService) AddBook(libraryID int, title, author string) (*models.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, ErrTitleAuthorRequired
	}

	var created models.Book
	err := s.bookRepo.Mutate(func(books []models.Book) ([]models.Book, error) {
		next := 1
		for _, b := range books {
			if b.BookID >= next {
				next = b.BookID + 1
			}
		}
		created = models.Book{BookID: next, Title: title, Author: author, LibraryID: libraryID}
		return append(books, created), nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("book added", "book_id", created.BookID, "library_id", libraryID)
	return &created, nil
}

// EditBook replaces title and author in place. The book's id and owning
// library never change after creation. Note that ownership is not checked
// here: like the display-scoped original, edits address the shared dataset
// by book id alone.
func (s *catalogService) EditBook(bookID int, title, author string) error {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return ErrTitleAuthorRequired
	}

	return s.bookRepo.Mutate(func(books []models.Book) ([]models.Book, error) {
		for i := range books {
			if books[i].BookID == bookID {
				books[i].Title = title
				books[i].Author = author
				return books, nil
			}
		}
		return nil, ErrBookNotFound
	})
}

// DeleteBook removes the row with the given id. Ownership is not checked at
// the data layer, matching EditBook.
func (s *catalogService) DeleteBook(bookID int) error {
	return s.bookRepo.Mutate(func(books []models.Book) ([]models.Book, error) {
		kept := books[:0:0]
		for _, b := range books {
			if b.BookID != bookID {
				kept = append(kept, b)
			}
		}
		if len(kept) == len(books) {
			return nil, ErrBookNotFound
		}
		return kept, nil
	})
}
