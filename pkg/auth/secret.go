package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost       = 12
	SigningKeyLength = 48 // bytes of entropy, 64 base64 characters
	MinSecretLen     = 12
	MaxSecretLen     = 72 // bcrypt ignores anything past 72 bytes
)

// SecretValidationError lists why a candidate admin secret was rejected
type SecretValidationError struct {
	Errors []string
}

func (e *SecretValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "secret validation failed"
	}
	return "weak secret: " + strings.Join(e.Errors, "; ")
}

var commonSecrets = map[string]bool{
	"password":      true,
	"password123":   true,
	"password123!":  true,
	"admin":         true,
	"admin123":      true,
	"administrator": true,
	"letmein":       true,
	"welcome":       true,
	"changeme":      true,
	"qwertyuiop":    true,
	"123456789012":  true,
	"trustno1":      true,
}

// HashSecret bcrypt-hashes an admin secret for ADMIN_SECRET_HASH
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareSecret reports whether secret matches a bcrypt hash
func CompareSecret(hashedSecret, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret)) == nil
}

// EqualConstantTime compares two secrets without leaking the position of the
// first differing byte. Both sides are hashed first so length is not leaked either.
func EqualConstantTime(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

// ValidateSecretStrength rejects secrets that are too short, too long for
// bcrypt, or on the common-secret list
func ValidateSecretStrength(secret string) error {
	var errs []string

	if len(secret) < MinSecretLen {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", MinSecretLen))
	}
	if len(secret) > MaxSecretLen {
		errs = append(errs, fmt.Sprintf("must be at most %d bytes", MaxSecretLen))
	}
	if commonSecrets[strings.ToLower(secret)] {
		errs = append(errs, "is too common")
	}

	if len(errs) > 0 {
		return &SecretValidationError{Errors: errs}
	}
	return nil
}

// GenerateSigningKey returns a random key suitable for SESSION_SIGNING_KEY
func GenerateSigningKey() (string, error) {
	bytes := make([]byte, SigningKeyLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate signing key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
