package auth

import (
	"fmt"

	"musicapp/core/apperr"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// bcrypt only looks at the first 72 bytes.
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = apperr.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	ErrPasswordTooLong  = apperr.Validation(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordLength))
)

// CheckPassword enforces the password length rules.
func CheckPassword(password string) error {
	switch {
	case len([]rune(password)) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// PasswordHasher hashes and verifies account passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost. Zero selects
// bcrypt.DefaultCost; other values are clamped to the range bcrypt accepts.
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash checks the password rules and returns the bcrypt hash.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if err := CheckPassword(password); err != nil {
		return "", err
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Matches reports whether password is the one hash was made from.
func (h *PasswordHasher) Matches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
