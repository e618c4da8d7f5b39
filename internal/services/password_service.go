package services

import (
	"errors"
	"fmt"

	"finance-ledger/internal/config"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultMinPasswordLength = 6
	MaxPasswordLength        = 72 // bcrypt input limit
)

var (
	ErrPasswordEmpty   = errors.New("password cannot be empty")
	ErrPasswordTooLong = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
)

// PasswordService handles password hashing and validation
type PasswordService struct {
	cost      int
	minLength int
}

// NewPasswordService builds the service from the security settings. Out of
// range values fall back to bcrypt's default cost and the default length.
func NewPasswordService(cfg config.SecurityConfig) PasswordServiceInterface {
	cost := cfg.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	minLength := cfg.PasswordMinLength
	if minLength <= 0 || minLength > MaxPasswordLength {
		minLength = DefaultMinPasswordLength
	}

	return &PasswordService{cost: cost, minLength: minLength}
}

// PasswordTooShortError reports the configured minimum length.
type PasswordTooShortError struct {
	MinLength int
}

func (e *PasswordTooShortError) Error() string {
	return fmt.Sprintf("password must be at least %d characters", e.MinLength)
}

func (ps *PasswordService) ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}

	if len(password) < ps.minLength {
		return &PasswordTooShortError{MinLength: ps.minLength}
	}

	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	return nil
}

// HashPassword validates and hashes a password using bcrypt
func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsPasswordPolicyError reports whether err came from ValidatePassword.
func IsPasswordPolicyError(err error) bool {
	var tooShort *PasswordTooShortError
	return errors.Is(err, ErrPasswordEmpty) || errors.Is(err, ErrPasswordTooLong) || errors.As(err, &tooShort)
}
