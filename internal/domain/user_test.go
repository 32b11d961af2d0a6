package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser("cikgu@sekolah.edu.my", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Email != "cikgu@sekolah.edu.my" {
		t.Errorf("Expected email cikgu@sekolah.edu.my, got %s", user.Email)
	}

	// Password too short
	_, err = NewUser("cikgu@sekolah.edu.my", "short")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}

	// Password too long for bcrypt
	_, err = NewUser("cikgu@sekolah.edu.my", strings.Repeat("a", 73))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email   string
		wantErr error
	}{
		{"cikgu@sekolah.edu.my", nil},
		{"", ErrEmailEmpty},
		{"no-at-sign", ErrEmailInvalid},
		{"@sekolah.edu.my", ErrEmailInvalid},
		{"cikgu@", ErrEmailInvalid},
		{"cikgu@nodot", ErrEmailInvalid},
		{"cikgu@.my", ErrEmailInvalid},
		{"cikgu@sekolah.", ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			user := User{
				ID:       uuid.New(),
				Email:    tt.email,
				Password: "correct horse battery staple",
			}

			err := user.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("email %q: expected error %v, got %v", tt.email, tt.wantErr, err)
			}
		})
	}
}

func TestUserValidateStoredHash(t *testing.T) {
	t.Parallel()

	// A user loaded from the store has no plaintext password.
	user := User{
		ID:             uuid.New(),
		Email:          "cikgu@sekolah.edu.my",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}

	if err := user.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	user.HashedPassword = ""
	if err := user.Validate(); !errors.Is(err, ErrPasswordEmpty) {
		t.Errorf("Expected error %v, got %v", ErrPasswordEmpty, err)
	}
}
