package repositories

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
)

// isDuplicateKeyError matches unique violations from PostgreSQL, MySQL and SQLite.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "Duplicate entry") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505") ||
		strings.Contains(errStr, "1062")
}
