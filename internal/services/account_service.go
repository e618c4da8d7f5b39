package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-ledger/internal/cache"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidOpeningBalance = errors.New("opening balance must have at most 2 decimal places")
)

const balanceCacheName = "balance"

// cachedBalance keeps the owner next to the balance so a cache hit can still
// be authorized.
type cachedBalance struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// accountService implements AccountServiceInterface
type accountService struct {
	accountRepo repositories.AccountRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	auditRepo   repositories.AuditLogRepositoryInterface
	cache       cache.Cache
	balanceTTL  time.Duration
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
	logger      *logrus.Entry
}

func NewAccountService(
	accountRepo repositories.AccountRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	balanceCache cache.Cache,
	balanceTTL time.Duration,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger logrus.FieldLogger,
) AccountServiceInterface {
	return &accountService{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		cache:       balanceCache,
		balanceTTL:  balanceTTL,
		auditLogger: auditLogger,
		metrics:     metrics,
		logger:      logging.WithComponent(logger, "accounts"),
	}
}

// CreateAccount opens an account for userID with the given opening balance.
func (s *accountService) CreateAccount(ctx context.Context, userID uuid.UUID, openingBalance decimal.Decimal) (*models.Account, error) {
	if !openingBalance.Equal(openingBalance.Round(2)) {
		return nil, ErrInvalidOpeningBalance
	}

	exists, err := s.userRepo.Exists(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	account := &models.Account{
		UserID:  userID,
		Balance: openingBalance,
	}
	if err := s.accountRepo.Create(account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionAccountCreated,
		Resource:   models.AuditResourceAccount,
		ResourceID: account.ID.String(),
		Metadata:   models.JSONMap{"opening_balance": openingBalance.StringFixed(2)},
	}); err != nil {
		logging.FromContext(ctx, s.logger).WithError(err).
			WithField("action", models.AuditActionAccountCreated).Error("failed to create audit log")
	}

	return account, nil
}

// GetAccount returns the account with its owner. Accounts of other users
// are reported as missing.
func (s *accountService) GetAccount(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.IsOwnedBy(userID) {
		return nil, ErrAccountNotFound
	}

	return account, nil
}

// GetBalance reads through the balance cache. Cache failures fall back to
// the database. The generation is read before the database so a balance
// loaded before a concurrent write is filed under the superseded generation.
func (s *accountService) GetBalance(ctx context.Context, accountID, userID uuid.UUID) (decimal.Decimal, error) {
	genKey := cache.BalanceGenerationKey(accountID)
	gen, err := s.cache.Generation(ctx, genKey)
	if err != nil {
		s.recordCache("error")
		s.auditLogger.LogCacheFailure(ctx, "generation", genKey, err)
		account, err := s.GetAccount(ctx, accountID, userID)
		if err != nil {
			return decimal.Zero, err
		}
		return account.Balance, nil
	}

	key := cache.BalanceKey(accountID, gen)

	var cached cachedBalance
	hit, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		s.recordCache("error")
		s.auditLogger.LogCacheFailure(ctx, "get", key, err)
	case hit:
		s.recordCache("hit")
		if cached.UserID != userID {
			return decimal.Zero, ErrAccountNotFound
		}
		return cached.Balance, nil
	default:
		s.recordCache("miss")
	}

	account, err := s.GetAccount(ctx, accountID, userID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.cache.Set(ctx, key, cachedBalance{UserID: account.UserID, Balance: account.Balance}, s.balanceTTL); err != nil {
		s.auditLogger.LogCacheFailure(ctx, "set", key, err)
	}

	return account.Balance, nil
}

func (s *accountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	accounts, err := s.accountRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) recordCache(result string) {
	s.metrics.IncrementCounter(MetricCacheRequest, map[string]string{
		"cache":  balanceCacheName,
		"result": result,
	})
}
