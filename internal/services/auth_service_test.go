package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"libportal/internal/repositories"
)

func seedAuth(t *testing.T, librarians string) AuthService {
	t.Helper()
	dir := t.TempDir()
	if librarians != "" {
		if err := os.WriteFile(filepath.Join(dir, repositories.LibrariansFile), []byte(librarians), 0o644); err != nil {
			t.Fatalf("seed librarians: %v", err)
		}
	}
	return NewAuthService(repositories.NewLibrarianRepository(dir))
}

func TestAuthenticatePlainText(t *testing.T) {
	svc := seedAuth(t, "username,password,library_id\nasha,desk-pw,1\n")

	librarian, err := svc.Authenticate("asha", "desk-pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if librarian.Username != "asha" {
		t.Errorf("username = %q", librarian.Username)
	}
	if librarian.LibraryID == nil || *librarian.LibraryID != 1 {
		t.Errorf("library_id = %v, want 1", librarian.LibraryID)
	}
}

func TestAuthenticateBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("desk-pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc := seedAuth(t, "username,password,library_id\nasha,\""+string(hash)+"\",1\n")

	if _, err := svc.Authenticate("asha", "desk-pw"); err != nil {
		t.Fatalf("authenticate with bcrypt-stored password: %v", err)
	}
	if _, err := svc.Authenticate("asha", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	svc := seedAuth(t, "username,password,library_id\nasha,desk-pw,1\n")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "desk-pw"},
		{"wrong password", "asha", "other"},
		{"username is case-sensitive", "Asha", "desk-pw"},
		{"stored password is not a substring match", "asha", "desk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(tt.username, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestAuthenticateNullLibraryBinding(t *testing.T) {
	svc := seedAuth(t, "username,password,library_id\nvisitor,welcome,\n")

	librarian, err := svc.Authenticate("visitor", "welcome")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if librarian.LibraryID != nil {
		t.Errorf("library_id = %v, want nil", *librarian.LibraryID)
	}
}

func TestAuthenticateDataUnavailable(t *testing.T) {
	svc := seedAuth(t, "")
	if _, err := svc.Authenticate("asha", "desk-pw"); !errors.Is(err, repositories.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}
