package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrUserIDEmpty         = errors.New("user ID cannot be empty")
	ErrEmailEmpty          = errors.New("email cannot be empty")
	ErrEmailInvalid        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrHashedPasswordEmpty = errors.New("hashed password cannot be empty")
)

// Password length bounds; the upper bound is bcrypt's practical limit.
const (
	minPasswordLength = 12
	maxPasswordLength = 72
)

// User represents a registered user of the service, typically a teacher
// or school administrator submitting assessments for analysis.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext, only held during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email and password.
// It generates a new UUID and sets the creation/update timestamps.
// The caller is responsible for hashing the password before storing
// the user. Returns an error if validation fails.
func NewUser(email, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrEmailEmpty
	}

	if !validEmailFormat(u.Email) {
		return ErrEmailInvalid
	}

	if u.Password != "" {
		if len(u.Password) < minPasswordLength {
			return ErrPasswordTooShort
		}
		if len(u.Password) > maxPasswordLength {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the store carry only the hash.
		return ErrPasswordEmpty
	}

	return nil
}

// validEmailFormat performs basic structural validation of an email
// address: a non-empty local part, an @, and a dotted domain.
func validEmailFormat(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
