package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie = "libportal_session"
	sessionTTL    = 12 * time.Hour

	// gin context key the session middleware stores claims under.
	ctxSession = "session"
)

// sessionClaims binds an authenticated librarian to at most one library for
// the lifetime of the session.
type sessionClaims struct {
	Username  string `json:"username"`
	LibraryID *int   `json:"library_id"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the signed session cookie. The token is
// an HS256 JWT; tampering with the bound library id invalidates the
// signature.
type SessionManager struct {
	secret []byte
}

func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret)}
}

func (m *SessionManager) issue(c *gin.Context, username string, libraryID *int) error {
	now := time.Now()
	claims := &sessionClaims{
		Username:  username,
		LibraryID: libraryID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie, token, int(sessionTTL/time.Second), "/", "", false, true)
	return nil
}

func (m *SessionManager) clear(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// current returns the verified session claims, or false when the cookie is
// absent, expired, or fails signature verification.
func (m *SessionManager) current(c *gin.Context) (*sessionClaims, bool) {
	raw, err := c.Cookie(sessionCookie)
	if err != nil || raw == "" {
		return nil, false
	}
	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok {
		return nil, false
	}
	return claims, true
}

// RequireSession gates routes that need an authenticated librarian.
// Unauthenticated requests are redirected to the login page before the route
// body runs.
func (m *SessionManager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.current(c)
		if !ok {
			setFlash(c, flashError, "Please log in to continue.")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(ctxSession, claims)
		c.Next()
	}
}

func sessionFromContext(c *gin.Context) *sessionClaims {
	return c.MustGet(ctxSession).(*sessionClaims)
}
