package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"libportal/internal/services"
)

type PortalHandler struct {
	catalog  services.CatalogService
	auth     services.AuthService
	sessions *SessionManager
}

// LoadTemplates registers the portal's HTML templates on the router.
func LoadTemplates(r *gin.Engine, dir string) error {
	pattern := filepath.Join(dir, "*.html")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no templates found at %s", pattern)
	}
	r.LoadHTMLGlob(pattern)
	return nil
}

func RegisterRoutes(r *gin.Engine, catalog services.CatalogService, auth services.AuthService, sessions *SessionManager) {
	h := &PortalHandler{catalog: catalog, auth: auth, sessions: sessions}

	// Public endpoints
	r.GET("/", h.home)
	r.POST("/search", h.search)
	r.GET("/all_books", h.allBooks)

	// Session endpoints
	r.GET("/login", h.loginForm)
	r.POST("/login", h.login)
	r.GET("/logout", h.logout)

	// Librarian endpoints
	dashboard := r.Group("/dashboard", sessions.RequireSession())
	dashboard.GET("/:library_id", h.dashboard)
	dashboard.POST("/:library_id", h.dashboardAction)
}

// render pops the pending flash into the template data unless the handler
// already supplied an immediate notice.
func (h *PortalHandler) render(c *gin.Context, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Flash"]; !ok {
		if f, ok := takeFlash(c); ok {
			data["Flash"] = f
		}
	}
	c.HTML(http.StatusOK, name, data)
}

func redirectWithFlash(c *gin.Context, location, level, message string) {
	setFlash(c, level, message)
	c.Redirect(http.StatusFound, location)
}

// ─── Public pages ─────────────────────────────────────────────────────────────

func (h *PortalHandler) home(c *gin.Context) {
	data := gin.H{}
	pincodes, err := h.catalog.Pincodes()
	if err != nil {
		slog.Warn("pincodes unavailable", "err", err)
		data["Flash"] = &Flash{Level: flashError, Message: "No data available."}
	}
	data["Pincodes"] = pincodes
	h.render(c, "home.html", data)
}

func (h *PortalHandler) search(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	author := strings.TrimSpace(c.PostForm("author"))
	pincode := strings.TrimSpace(c.PostForm("pincode"))

	if title == "" || pincode == "" {
		redirectWithFlash(c, "/", flashError, "Please provide a title and pincode.")
		return
	}

	results, err := h.catalog.SearchByLocation(title, author, pincode)
	if err != nil {
		slog.Warn("search failed", "err", err)
		redirectWithFlash(c, "/", flashError, "No data available.")
		return
	}
	if len(results) == 0 {
		redirectWithFlash(c, "/", flashWarning, "No books found.")
		return
	}
	h.render(c, "search_results.html", gin.H{"Results": results})
}

func (h *PortalHandler) allBooks(c *gin.Context) {
	titles, err := h.catalog.AllBooksGrouped()
	if err != nil {
		slog.Warn("all books unavailable", "err", err)
		redirectWithFlash(c, "/", flashError, "No data available.")
		return
	}
	if len(titles) == 0 {
		redirectWithFlash(c, "/", flashError, "No data available.")
		return
	}
	h.render(c, "all_books.html", gin.H{"Titles": titles})
}

// ─── Session pages ────────────────────────────────────────────────────────────

func (h *PortalHandler) loginForm(c *gin.Context) {
	h.render(c, "librarian_login.html", nil)
}

func (h *PortalHandler) login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := strings.TrimSpace(c.PostForm("password"))
	if username == "" || password == "" {
		redirectWithFlash(c, "/login", flashError, "Please enter username and password.")
		return
	}

	librarian, err := h.auth.Authenticate(username, password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		redirectWithFlash(c, "/login", flashError, "Invalid credentials.")
		return
	case err != nil:
		slog.Warn("login failed", "err", err)
		redirectWithFlash(c, "/login", flashError, "No librarian data available.")
		return
	}

	if err := h.sessions.issue(c, librarian.Username, librarian.LibraryID); err != nil {
		slog.Error("session issue failed", "err", err)
		redirectWithFlash(c, "/login", flashError, "Login failed.")
		return
	}
	if librarian.LibraryID == nil {
		// Account with no bound library: nothing to manage, send home.
		redirectWithFlash(c, "/", flashSuccess, "Logged in.")
		return
	}
	redirectWithFlash(c, fmt.Sprintf("/dashboard/%d", *librarian.LibraryID), flashSuccess, "Logged in.")
}

func (h *PortalHandler) logout(c *gin.Context) {
	h.sessions.clear(c)
	redirectWithFlash(c, "/", flashSuccess, "Logged out.")
}

// ─── Librarian dashboard ──────────────────────────────────────────────────────

// authorizeDashboard enforces that the session's bound library matches the
// requested one. Any mismatch or absence redirects to the public search page
// with no detail beyond "unauthorized".
func (h *PortalHandler) authorizeDashboard(c *gin.Context) (int, bool) {
	claims := sessionFromContext(c)
	requested, err := strconv.Atoi(c.Param("library_id"))
	if err != nil || claims.LibraryID == nil || *claims.LibraryID != requested {
		redirectWithFlash(c, "/", flashError, "Unauthorized access to library dashboard.")
		return 0, false
	}
	return requested, true
}

func (h *PortalHandler) dashboard(c *gin.Context) {
	libraryID, ok := h.authorizeDashboard(c)
	if !ok {
		return
	}

	data := gin.H{"LibraryID": libraryID}
	myBooks, err := h.catalog.BooksForLibrary(libraryID)
	if err != nil {
		slog.Warn("books unavailable", "err", err)
		data["Flash"] = &Flash{Level: flashWarning, Message: "No data available."}
	}
	data["MyBooks"] = myBooks

	// The shared view is best-effort: the librarian's own rows still render
	// when the library dataset is unavailable.
	shared, err := h.catalog.SharedView()
	if err != nil {
		slog.Warn("shared view unavailable", "err", err)
	}
	data["Shared"] = shared

	h.render(c, "librarian_dashboard.html", data)
}

func (h *PortalHandler) dashboardAction(c *gin.Context) {
	libraryID, ok := h.authorizeDashboard(c)
	if !ok {
		return
	}
	self := fmt.Sprintf("/dashboard/%d", libraryID)

	switch c.PostForm("action") {
	case "add":
		h.addBook(c, libraryID, self)
	case "edit":
		h.editBook(c, self)
	case "delete":
		h.deleteBook(c, self)
	default:
		redirectWithFlash(c, self, flashError, "Unknown action.")
	}
}

func (h *PortalHandler) addBook(c *gin.Context, libraryID int, self string) {
	_, err := h.catalog.AddBook(libraryID, c.PostForm("title"), c.PostForm("author"))
	switch {
	case errors.Is(err, services.ErrTitleAuthorRequired):
		redirectWithFlash(c, self, flashError, "Title and author are required.")
	case err != nil:
		slog.Error("add book failed", "err", err)
		redirectWithFlash(c, self, flashError, "Error saving books.csv.")
	default:
		redirectWithFlash(c, self, flashSuccess, "Book added.")
	}
}

func (h *PortalHandler) editBook(c *gin.Context, self string) {
	bookID, err := strconv.Atoi(strings.TrimSpace(c.PostForm("book_id")))
	if err != nil {
		redirectWithFlash(c, self, flashError, "Invalid book id.")
		return
	}
	err = h.catalog.EditBook(bookID, c.PostForm("title"), c.PostForm("author"))
	switch {
	case errors.Is(err, services.ErrTitleAuthorRequired):
		redirectWithFlash(c, self, flashError, "Title and author are required.")
	case errors.Is(err, services.ErrBookNotFound):
		redirectWithFlash(c, self, flashError, "Book not found.")
	case err != nil:
		slog.Error("edit book failed", "err", err)
		redirectWithFlash(c, self, flashError, "Error saving books.csv.")
	default:
		redirectWithFlash(c, self, flashSuccess, "Book updated.")
	}
}

func (h *PortalHandler) deleteBook(c *gin.Context, self string) {
	bookID, err := strconv.Atoi(strings.TrimSpace(c.PostForm("book_id")))
	if err != nil {
		redirectWithFlash(c, self, flashError, "Invalid book id.")
		return
	}
	err = h.catalog.DeleteBook(bookID)
	switch {
	case errors.Is(err, services.ErrBookNotFound):
		redirectWithFlash(c, self, flashError, "Book not found.")
	case err != nil:
		slog.Error("delete book failed", "err", err)
		redirectWithFlash(c, self, flashError, "Error saving books.csv.")
	default:
		redirectWithFlash(c, self, flashSuccess, "Book deleted.")
	}
}
