package services

import (
	"context"
	"time"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuthServiceInterface interface {
	Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, *models.Account, error)
	Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	RefreshTokens(refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(accessToken, refreshToken, ipAddress, userAgent string) error
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetJTI(tokenString string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

// UserServiceInterface defines user lookups
type UserServiceInterface interface {
	ListUsers(offset, limit int) ([]*models.User, int64, error)
	GetUser(userID uuid.UUID) (*models.User, error)
}

// AccountServiceInterface defines account operations. Accounts are visible
// to their owner only.
type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, openingBalance decimal.Decimal) (*models.Account, error)
	GetAccount(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error)
	GetBalance(ctx context.Context, accountID, userID uuid.UUID) (decimal.Decimal, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
}

// CategoryServiceInterface defines category operations
type CategoryServiceInterface interface {
	CreateCategory(name string) (*models.Category, error)
	ListCategories() ([]models.Category, error)
	GetCategoryByName(name string) (*models.Category, error)
}

// TransactionServiceInterface defines ledger operations. Every write moves
// the linked account balance atomically with the transaction row.
type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, userID uuid.UUID, input models.TransactionInput) (*models.Transaction, error)
	GetTransaction(ctx context.Context, transactionID, userID uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error)
	UpdateTransaction(ctx context.Context, transactionID, userID uuid.UUID, input models.TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID, userID uuid.UUID) error
}

// ReportServiceInterface defines spending aggregation
type ReportServiceInterface interface {
	CategorySpendingRanking(ctx context.Context, userID uuid.UUID, query models.RankingQuery) (*dto.SpendingRankingResponse, error)
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
}

type AuditLoggerInterface interface {
	LogTransactionCreated(ctx context.Context, transaction *models.Transaction)
	LogTransactionUpdated(ctx context.Context, before, after *models.Transaction)
	LogTransactionDeleted(ctx context.Context, transaction *models.Transaction)
	LogBalanceUpdate(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, transactionID uuid.UUID)
	LogEventPublishFailed(ctx context.Context, event string, transactionID uuid.UUID, err error)
	LogCacheFailure(ctx context.Context, operation, key string, err error)
}
