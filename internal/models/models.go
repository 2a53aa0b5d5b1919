package models

// Library is one branch in the catalog. Libraries are seeded offline and
// read-only here; Pincode is an opaque postal-code string, never a number,
// so values like "060001" keep their leading zero.
type Library struct {
	LibraryID int
	Name      string
	Pincode   string
	Contact   string
}

// Book is a single catalog row owned by one library. BookID is unique across
// the whole book dataset and is never reused after a delete.
type Book struct {
	BookID    int
	Title     string
	Author    string
	LibraryID int
}

// Librarian is a login record. LibraryID is nil when the dataset carries no
// library binding for that user.
type Librarian struct {
	Username  string
	Password  string
	LibraryID *int
}

// EnrichedBook is a Book left-joined with its owning Library. A book whose
// library_id matches no library keeps empty library fields.
type EnrichedBook struct {
	BookID    int
	Title     string
	Author    string
	LibraryID int
	Name      string
	Pincode   string
	Contact   string
}

// SearchResult is the five-field projection returned by a location search.
type SearchResult struct {
	Title   string
	Author  string
	Name    string
	Pincode string
	Contact string
}

// TitleGroup aggregates every location holding a given (title, author) pair.
// Locations is the sorted, deduplicated set of "name (pincode)" strings
// joined with ", ".
type TitleGroup struct {
	Title     string
	Author    string
	Locations string
}
