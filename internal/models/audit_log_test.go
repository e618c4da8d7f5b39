package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_SetMetadata(t *testing.T) {
	log := &AuditLog{}

	log.SetMetadata("amount", "10.00")
	log.SetMetadata("type", TransactionTypeDeposit)

	assert.Equal(t, JSONMap{"amount": "10.00", "type": "deposit"}, log.Metadata)
}

func TestAuditLog_String(t *testing.T) {
	userID := uuid.New()
	log := &AuditLog{UserID: &userID, Action: AuditActionLogin, Resource: AuditResourceUser, ResourceID: userID.String()}

	assert.Contains(t, log.String(), userID.String())
	assert.Contains(t, log.String(), "login")

	anonymous := &AuditLog{Action: AuditActionTransactionCreated, Resource: AuditResourceTransaction}
	assert.Contains(t, anonymous.String(), "system")
}

func TestJSONMap_ValueAndScan(t *testing.T) {
	original := JSONMap{"account_id": "abc", "delta": "-5.00"}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)

	require.NoError(t, scanned.Scan([]byte(`{"k":"v"}`)))
	assert.Equal(t, JSONMap{"k": "v"}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestJSONMap_EmptyValueIsNull(t *testing.T) {
	value, err := JSONMap{}.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}
