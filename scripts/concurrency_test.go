//go:build ignore
// +build ignore

// Package main provides a manual concurrency stress test for the dashboard
// Add action.
//
// Usage:
//
//	USERNAME=<user> PASSWORD=<pw> LIBRARY_ID=<id> go run ./scripts/concurrency_test.go [count]
//
// What it does:
//  1. Logs in once and keeps the session cookie.
//  2. Fires N goroutines all adding a book through POST /dashboard/<id> simultaneously.
//  3. Re-reads books.csv and verifies every book_id is unique, i.e. the
//     store's per-table write lock serialized the read-modify-write cycles.
//
// Prerequisites:
//   - Server must be running with DATA_DIR pointing at the same data directory.
//   - The librarian account must exist in librarians.csv with a bound library.

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type addResult struct {
	Index      int
	StatusCode int
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}
	username := os.Getenv("USERNAME")
	password := os.Getenv("PASSWORD")
	libraryID := os.Getenv("LIBRARY_ID")
	if username == "" || password == "" || libraryID == "" {
		log.Fatal("Usage: USERNAME=<user> PASSWORD=<pw> LIBRARY_ID=<id> go run ./scripts/concurrency_test.go [count]")
	}

	count := 20
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			log.Fatalf("invalid count %q", os.Args[1])
		}
		count = n
	}

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Timeout: 10 * time.Second, Jar: jar}

	// Log in once; the jar carries the session cookie for every add.
	resp, err := client.PostForm(serverAddr+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		log.Fatalf("login request failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	fmt.Printf("=== Dashboard Add Concurrency Test ===\n")
	fmt.Printf("Server  : %s\n", serverAddr)
	fmt.Printf("Library : %s\n", libraryID)
	fmt.Printf("Adds    : %d\n\n", count)

	results := make([]addResult, count)
	var wg sync.WaitGroup

	// Fire all goroutines simultaneously using a barrier.
	start := make(chan struct{})

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start // wait for the barrier
			results[idx] = attemptAdd(client, serverAddr, libraryID, idx)
		}(i)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)
	wg.Wait()
	fmt.Println("All requests completed.")

	var failures int
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Printf("  [ERR ] add=%-3d err=%v\n", r.Index, r.Err)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Adds     : %d\n", count-failures)
	fmt.Printf("Failures : %d\n\n", failures)

	// Verify invariant: every book_id in books.csv occurs exactly once. The
	// per-table mutex serializes read-modify-write, so concurrent adds must
	// not have assigned the same max+1 id twice.
	fmt.Println("--- Invariant Check ---")
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if dupes := duplicateIDs(filepath.Join(dataDir, "books.csv")); len(dupes) > 0 {
		fmt.Printf("[FAIL] duplicate book_ids found: %v\n", dupes)
		os.Exit(1)
	}
	fmt.Println("No duplicate book_ids — writes were serialized correctly.")

	if failures > 0 {
		fmt.Printf("[WARNING] %d request(s) failed — check server logs for details.\n", failures)
		os.Exit(1)
	}
}

// attemptAdd sends one POST /dashboard/{libraryID} add action.
func attemptAdd(client *http.Client, serverAddr, libraryID string, idx int) addResult {
	resp, err := client.PostForm(serverAddr+"/dashboard/"+libraryID, url.Values{
		"action": {"add"},
		"title":  {fmt.Sprintf("Stress Test Book %d", idx)},
		"author": {"Load Generator"},
	})
	if err != nil {
		return addResult{Index: idx, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return addResult{Index: idx, StatusCode: resp.StatusCode}
}

// duplicateIDs reads books.csv and returns any book_id seen more than once.
func duplicateIDs(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}
	if len(records) == 0 {
		log.Fatalf("%s is empty", path)
	}

	seen := map[string]int{}
	for _, row := range records[1:] {
		seen[strings.TrimSpace(row[0])]++
	}
	var dupes []string
	for id, n := range seen {
		if n > 1 {
			dupes = append(dupes, id)
		}
	}
	return dupes
}
