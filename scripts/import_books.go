//go:build ignore
// +build ignore

// Package main is a one-off importer that appends title/author rows from a
// bulk dataset export (e.g. the bestsellers CSV from Kaggle) into books.csv,
// all bound to one library.
//
// Usage:
//
//	go run ./scripts/import_books.go -csv bestsellers.csv -library 1 [-data data]
//
// The source CSV must carry "Title" and "Author" columns; any other columns
// are ignored. Book ids are assigned through the same max+1 rule the
// dashboard uses, so the import composes safely with a running server
// sharing the data directory.

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"libportal/internal/models"
	"libportal/internal/repositories"
)

func main() {
	csvPath := flag.String("csv", "", "Path to the source CSV (must have Title and Author columns)")
	libraryID := flag.Int("library", 0, "Library id to bind the imported books to")
	dataDir := flag.String("data", "data", "Data directory holding books.csv")
	flag.Parse()

	if *csvPath == "" || *libraryID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open source csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatalf("parse source csv: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("source csv has no data rows")
	}

	// Locate the Title and Author columns by header name.
	titleCol, authorCol := -1, -1
	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "title":
			titleCol = i
		case "author":
			authorCol = i
		}
	}
	if titleCol < 0 || authorCol < 0 {
		log.Fatalf("source csv is missing a Title or Author column (header: %v)", records[0])
	}

	var skipped int
	bookRepo := repositories.NewBookRepository(*dataDir)
	err = bookRepo.Mutate(func(books []models.Book) ([]models.Book, error) {
		next := 1
		for _, b := range books {
			if b.BookID >= next {
				next = b.BookID + 1
			}
		}
		for _, row := range records[1:] {
			title := strings.TrimSpace(row[titleCol])
			author := strings.TrimSpace(row[authorCol])
			if title == "" || author == "" {
				skipped++
				continue
			}
			books = append(books, models.Book{
				BookID:    next,
				Title:     title,
				Author:    author,
				LibraryID: *libraryID,
			})
			next++
		}
		return books, nil
	})
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	imported := len(records) - 1 - skipped
	fmt.Printf("Imported %d books into library %d (%d rows skipped)\n", imported, *libraryID, skipped)
}
