package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"finance-ledger/internal/config"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureAudit(t *testing.T) (AuditLoggerInterface, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.NewWithOutput(config.LoggingConfig{Level: "info", Format: "json"}, "testing", &buf)
	return NewAuditLogger(logger), &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestAuditLogger_TransactionEvents(t *testing.T) {
	audit, buf := captureAudit(t)
	ctx := logging.ContextWithTraceID(context.Background(), "trace-42")

	before := &models.Transaction{ID: uuid.New(), Amount: decimal.RequireFromString("10"), Type: models.TransactionTypeDeposit, AccountID: uuid.New()}
	after := *before
	after.Amount = decimal.RequireFromString("12.5")

	audit.LogTransactionCreated(ctx, before)
	entry := lastEntry(t, buf)
	assert.Equal(t, "transaction_created", entry["event_type"])
	assert.Equal(t, "10.00", entry["amount"])
	assert.Equal(t, "trace-42", entry["trace_id"])
	assert.Equal(t, "audit", entry["component"])

	audit.LogTransactionUpdated(ctx, before, &after)
	entry = lastEntry(t, buf)
	assert.Equal(t, "12.50", entry["amount"])
	assert.Equal(t, "10.00", entry["previous_amount"])

	audit.LogTransactionDeleted(context.Background(), &after)
	entry = lastEntry(t, buf)
	assert.Equal(t, "transaction_deleted", entry["event_type"])
	_, hasTrace := entry["trace_id"]
	assert.False(t, hasTrace)
}

func TestAuditLogger_Failures(t *testing.T) {
	audit, buf := captureAudit(t)
	ctx := context.Background()

	audit.LogEventPublishFailed(ctx, "transaction.created", uuid.New(), errors.New("no broker"))
	entry := lastEntry(t, buf)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "no broker", entry["error"])

	audit.LogCacheFailure(ctx, "get", "balance:x", errors.New("timeout"))
	entry = lastEntry(t, buf)
	assert.Equal(t, "balance:x", entry["key"])

	audit.LogBalanceUpdate(ctx, uuid.New(), decimal.RequireFromString("-3"), uuid.New())
	entry = lastEntry(t, buf)
	assert.Equal(t, "-3.00", entry["delta"])
}
