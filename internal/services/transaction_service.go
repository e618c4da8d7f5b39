package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-ledger/internal/cache"
	"finance-ledger/internal/events"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
)

const (
	operationCreate = "create"
	operationUpdate = "update"
	operationDelete = "delete"
)

// transactionService runs ledger writes and their side effects: balance
// cache invalidation, event publication, audit logging and metrics.
type transactionService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	accountRepo     repositories.AccountRepositoryInterface
	categoryRepo    repositories.CategoryRepositoryInterface
	cache           cache.Cache
	publisher       events.Publisher
	auditLogger     AuditLoggerInterface
	metrics         MetricsRecorderInterface
	logger          *logrus.Entry
}

func NewTransactionService(
	transactionRepo repositories.TransactionRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	ledgerCache cache.Cache,
	publisher events.Publisher,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger logrus.FieldLogger,
) TransactionServiceInterface {
	return &transactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		categoryRepo:    categoryRepo,
		cache:           ledgerCache,
		publisher:       publisher,
		auditLogger:     auditLogger,
		metrics:         metrics,
		logger:          logging.WithComponent(logger, "transactions"),
	}
}

func (s *transactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, input models.TransactionInput) (*models.Transaction, error) {
	start := time.Now()

	if err := validateTypeAndAmount(input.Type, input.Amount); err != nil {
		return nil, err
	}

	if err := s.requireOwnedAccount(input.AccountID, userID); err != nil {
		return nil, err
	}
	if err := s.requireCategory(input.CategoryID); err != nil {
		return nil, err
	}

	date := time.Now().UTC()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	transaction := &models.Transaction{
		Description: input.Description,
		Amount:      input.Amount,
		Date:        date,
		Type:        input.Type,
		UserID:      userID,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
	}

	if err := s.transactionRepo.CreateWithBalance(transaction); err != nil {
		return nil, translateLedgerError(err, "failed to create transaction")
	}

	s.auditLogger.LogTransactionCreated(ctx, transaction)
	s.auditLogger.LogBalanceUpdate(ctx, transaction.AccountID, transaction.SignedAmount(), transaction.ID)
	s.afterWrite(ctx, operationCreate, transaction.Type, events.NewTransactionCreated(transaction), userID, transaction.AccountID)
	s.metrics.RecordProcessingTime("transaction.create", time.Since(start))

	return s.reload(transaction)
}

// GetTransaction returns the caller's transaction. Transactions of other
// users are reported as missing.
func (s *transactionService) GetTransaction(ctx context.Context, transactionID, userID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.transactionRepo.GetByID(transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if transaction.UserID != userID {
		return nil, ErrTransactionNotFound
	}

	return transaction, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	if filters.Type != "" && !models.IsValidTransactionType(filters.Type) {
		return nil, 0, ErrInvalidTransactionType
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, 0, fmt.Errorf("%w: end date before start date", ErrInvalidDateRange)
	}

	filters.Offset, filters.Limit = NormalizePage(filters.Offset, filters.Limit)

	transactions, total, err := s.transactionRepo.GetWithFilters(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, total, nil
}

// UpdateTransaction applies a partial update. The old effect is reverted on
// the old account and the new effect applied on the new one atomically.
func (s *transactionService) UpdateTransaction(ctx context.Context, transactionID, userID uuid.UUID, input models.TransactionUpdate) (*models.Transaction, error) {
	start := time.Now()

	existing, err := s.GetTransaction(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}

	updated := input.Apply(*existing)
	updated.User, updated.Account, updated.Category = nil, nil, nil

	if err := validateTypeAndAmount(updated.Type, updated.Amount); err != nil {
		return nil, err
	}
	if updated.AccountID != existing.AccountID {
		if err := s.requireOwnedAccount(updated.AccountID, userID); err != nil {
			return nil, err
		}
	}
	if updated.CategoryID != existing.CategoryID {
		if err := s.requireCategory(updated.CategoryID); err != nil {
			return nil, err
		}
	}

	result, err := s.transactionRepo.UpdateWithBalance(&updated)
	if err != nil {
		return nil, translateLedgerError(err, "failed to update transaction")
	}

	event := events.NewTransactionUpdated(existing, result)
	s.auditLogger.LogTransactionUpdated(ctx, existing, result)
	s.auditLogger.LogBalanceUpdate(ctx, existing.AccountID, existing.SignedAmount().Neg(), existing.ID)
	s.auditLogger.LogBalanceUpdate(ctx, result.AccountID, result.SignedAmount(), result.ID)
	s.afterWrite(ctx, operationUpdate, result.Type, event, userID, existing.AccountID, result.AccountID)
	s.metrics.RecordProcessingTime("transaction.update", time.Since(start))

	return result, nil
}

func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID, userID uuid.UUID) error {
	start := time.Now()

	if _, err := s.GetTransaction(ctx, transactionID, userID); err != nil {
		return err
	}

	deleted, err := s.transactionRepo.DeleteWithBalance(transactionID)
	if err != nil {
		return translateLedgerError(err, "failed to delete transaction")
	}

	s.auditLogger.LogTransactionDeleted(ctx, deleted)
	s.auditLogger.LogBalanceUpdate(ctx, deleted.AccountID, deleted.SignedAmount().Neg(), deleted.ID)
	s.afterWrite(ctx, operationDelete, deleted.Type, events.NewTransactionDeleted(deleted), userID, deleted.AccountID)
	s.metrics.RecordProcessingTime("transaction.delete", time.Since(start))

	return nil
}

func (s *transactionService) requireOwnedAccount(accountID, userID uuid.UUID) error {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}
	if !account.IsOwnedBy(userID) {
		return ErrAccountNotFound
	}
	return nil
}

func (s *transactionService) requireCategory(categoryID uuid.UUID) error {
	if _, err := s.categoryRepo.GetByID(categoryID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	return nil
}

// afterWrite runs the side effects of a committed ledger write. None of them
// can fail the request.
func (s *transactionService) afterWrite(ctx context.Context, operation, transactionType string, event *events.TransactionEvent, userID uuid.UUID, accountIDs ...uuid.UUID) {
	keys := make([]string, 0, len(accountIDs)+1)
	for _, id := range accountIDs {
		keys = append(keys, cache.BalanceGenerationKey(id))
	}
	keys = append(keys, cache.RankingGenerationKey(userID))
	if err := s.cache.Bump(ctx, keys...); err != nil {
		s.auditLogger.LogCacheFailure(ctx, "bump", strings.Join(keys, ","), err)
	}

	if err := s.publisher.PublishTransaction(ctx, event); err != nil {
		s.auditLogger.LogEventPublishFailed(ctx, event.Event, event.TransactionID, err)
	}

	s.metrics.IncrementCounter(MetricTransactionRecorded, map[string]string{
		"type":      transactionType,
		"operation": operation,
	})
}

func (s *transactionService) reload(transaction *models.Transaction) (*models.Transaction, error) {
	loaded, err := s.transactionRepo.GetByID(transaction.ID)
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", transaction.ID.String()).
			Warn("failed to reload transaction")
		return transaction, nil
	}
	return loaded, nil
}

func validateTypeAndAmount(transactionType string, amount decimal.Decimal) error {
	if !models.IsValidTransactionType(transactionType) {
		return ErrInvalidTransactionType
	}
	if err := models.ValidateAmount(amount); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	return nil
}

// translateLedgerError maps repository sentinels raised inside a ledger
// write to service sentinels.
func translateLedgerError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repositories.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repositories.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, models.ErrInvalidTransactionType):
		return ErrInvalidTransactionType
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrAmountPrecision):
		return fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
