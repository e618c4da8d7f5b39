package services

import (
	"context"

	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AuditLogger writes ledger events to the structured log. The durable
// audit trail is fed from the event queue; this one is for operators.
type AuditLogger struct {
	logger *logrus.Entry
}

func NewAuditLogger(logger logrus.FieldLogger) AuditLoggerInterface {
	return &AuditLogger{
		logger: logging.WithComponent(logger, "audit"),
	}
}

func (al *AuditLogger) entry(ctx context.Context, eventType string) logrus.FieldLogger {
	return logging.FromContext(ctx, al.logger).WithField("event_type", eventType)
}

func (al *AuditLogger) LogTransactionCreated(ctx context.Context, transaction *models.Transaction) {
	al.entry(ctx, "transaction_created").WithFields(transactionFields(transaction)).Info("transaction created")
}

func (al *AuditLogger) LogTransactionUpdated(ctx context.Context, before, after *models.Transaction) {
	al.entry(ctx, "transaction_updated").WithFields(transactionFields(after)).WithFields(logrus.Fields{
		"previous_amount":     before.Amount.StringFixed(2),
		"previous_type":       before.Type,
		"previous_account_id": before.AccountID.String(),
	}).Info("transaction updated")
}

func (al *AuditLogger) LogTransactionDeleted(ctx context.Context, transaction *models.Transaction) {
	al.entry(ctx, "transaction_deleted").WithFields(transactionFields(transaction)).Info("transaction deleted")
}

func (al *AuditLogger) LogBalanceUpdate(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, transactionID uuid.UUID) {
	al.entry(ctx, "balance_update").WithFields(logrus.Fields{
		"account_id":     accountID.String(),
		"delta":          delta.StringFixed(2),
		"transaction_id": transactionID.String(),
	}).Info("balance update")
}

func (al *AuditLogger) LogEventPublishFailed(ctx context.Context, event string, transactionID uuid.UUID, err error) {
	al.entry(ctx, "event_publish_failed").WithFields(logrus.Fields{
		"event":          event,
		"transaction_id": transactionID.String(),
	}).WithError(err).Warn("event publish failed")
}

func (al *AuditLogger) LogCacheFailure(ctx context.Context, operation, key string, err error) {
	al.entry(ctx, "cache_failure").WithFields(logrus.Fields{
		"operation": operation,
		"key":       key,
	}).WithError(err).Warn("cache operation failed")
}

func transactionFields(t *models.Transaction) logrus.Fields {
	return logrus.Fields{
		"transaction_id": t.ID.String(),
		"user_id":        t.UserID.String(),
		"account_id":     t.AccountID.String(),
		"category_id":    t.CategoryID.String(),
		"type":           t.Type,
		"amount":         t.Amount.StringFixed(2),
	}
}
