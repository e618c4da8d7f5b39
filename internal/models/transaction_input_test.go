package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionUpdate_Apply(t *testing.T) {
	original := Transaction{
		ID:          uuid.New(),
		Description: "groceries",
		Amount:      decimal.RequireFromString("12.50"),
		Type:        TransactionTypeWithdrawal,
		AccountID:   uuid.New(),
		CategoryID:  uuid.New(),
	}

	assert.True(t, TransactionUpdate{}.IsEmpty())
	assert.Equal(t, original, TransactionUpdate{}.Apply(original))

	amount := decimal.RequireFromString("20.00")
	txType := TransactionTypeDeposit
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	update := TransactionUpdate{Amount: &amount, Type: &txType, Date: &date}

	assert.False(t, update.IsEmpty())
	updated := update.Apply(original)

	assert.True(t, amount.Equal(updated.Amount))
	assert.Equal(t, TransactionTypeDeposit, updated.Type)
	assert.Equal(t, time.UTC, updated.Date.Location())
	assert.Equal(t, "groceries", updated.Description)
	assert.Equal(t, original.AccountID, updated.AccountID)
	assert.Equal(t, TransactionTypeWithdrawal, original.Type)
}
