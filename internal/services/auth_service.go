package services

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"libportal/internal/models"
	"libportal/internal/repositories"
)

// ErrInvalidCredentials is returned for an unknown username or a password
// mismatch. Callers must not disclose which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates librarians against the credential dataset.
type AuthService interface {
	// Authenticate returns the matching librarian, bound to at most one
	// library id for the lifetime of the session the caller establishes.
	Authenticate(username, password string) (*models.Librarian, error)
}

type authService struct {
	librarianRepo repositories.LibrarianRepository
}

func NewAuthService(librarianRepo repositories.LibrarianRepository) AuthService {
	return &authService{librarianRepo: librarianRepo}
}

func (s *authService) Authenticate(username, password string) (*models.Librarian, error) {
	librarians, err := s.librarianRepo.List()
	if err != nil {
		return nil, err
	}
	for i := range librarians {
		if librarians[i].Username != username {
			continue
		}
		if !passwordMatches(librarians[i].Password, password) {
			return nil, ErrInvalidCredentials
		}
		return &librarians[i], nil
	}
	return nil, ErrInvalidCredentials
}

// passwordMatches verifies a submitted password against the stored value.
// Stored bcrypt hashes are verified as such; anything else is compared as
// plain text in constant time. The legacy dataset carries plain-text
// passwords, a known weakness of the source data — new entries should be
// bcrypt hashes, which this accepts transparently.
func passwordMatches(stored, submitted string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
