package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a plaintext password against a stored hash.
// Hashing itself happens in the user store at creation time.
type PasswordVerifier interface {
	// Compare returns nil when the plaintext matches the hash, or an
	// error on mismatch.
	Compare(hashedPassword, password string) error
}

// BcryptVerifier implements PasswordVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
