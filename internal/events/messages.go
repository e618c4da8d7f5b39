package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionCreated = models.AuditActionTransactionCreated
	TransactionUpdated = models.AuditActionTransactionUpdated
	TransactionDeleted = models.AuditActionTransactionDeleted
)

var ErrMalformedEvent = errors.New("malformed event")

// TransactionEvent announces a ledger mutation. BalanceDelta is the net change
// applied to AccountID; on an update that moved the transaction,
// PreviousAccountID received PreviousDelta.
type TransactionEvent struct {
	Event             string           `json:"event"`
	TransactionID     uuid.UUID        `json:"transaction_id"`
	AccountID         uuid.UUID        `json:"account_id"`
	UserID            uuid.UUID        `json:"user_id"`
	Type              string           `json:"type"`
	Amount            decimal.Decimal  `json:"amount"`
	BalanceDelta      decimal.Decimal  `json:"balance_delta"`
	PreviousAccountID *uuid.UUID       `json:"previous_account_id,omitempty"`
	PreviousDelta     *decimal.Decimal `json:"previous_delta,omitempty"`
	OccurredAt        time.Time        `json:"occurred_at"`
}

func NewTransactionCreated(t *models.Transaction) *TransactionEvent {
	return newTransactionEvent(TransactionCreated, t, t.SignedAmount())
}

func NewTransactionDeleted(t *models.Transaction) *TransactionEvent {
	return newTransactionEvent(TransactionDeleted, t, t.SignedAmount().Neg())
}

// NewTransactionUpdated describes the move from before to after. When the
// account is unchanged the delta is the difference of the two effects.
func NewTransactionUpdated(before, after *models.Transaction) *TransactionEvent {
	if before.AccountID == after.AccountID {
		return newTransactionEvent(TransactionUpdated, after, after.SignedAmount().Sub(before.SignedAmount()))
	}

	event := newTransactionEvent(TransactionUpdated, after, after.SignedAmount())
	previousAccount := before.AccountID
	previousDelta := before.SignedAmount().Neg()
	event.PreviousAccountID = &previousAccount
	event.PreviousDelta = &previousDelta
	return event
}

func newTransactionEvent(name string, t *models.Transaction, delta decimal.Decimal) *TransactionEvent {
	return &TransactionEvent{
		Event:         name,
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		UserID:        t.UserID,
		Type:          t.Type,
		Amount:        t.Amount,
		BalanceDelta:  delta,
		OccurredAt:    time.Now().UTC(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch event.Event {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, event.Event)
	}

	if event.TransactionID == uuid.Nil || event.AccountID == uuid.Nil || event.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing identifiers", ErrMalformedEvent)
	}

	return &event, nil
}

// AuditLog converts the event into the audit row the consumer stores.
func (e *TransactionEvent) AuditLog() *models.AuditLog {
	userID := e.UserID
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     e.Event,
		Resource:   models.AuditResourceTransaction,
		ResourceID: e.TransactionID.String(),
	}
	log.SetMetadata("account_id", e.AccountID.String())
	log.SetMetadata("type", e.Type)
	log.SetMetadata("amount", e.Amount.StringFixed(2))
	log.SetMetadata("balance_delta", e.BalanceDelta.StringFixed(2))
	log.SetMetadata("occurred_at", e.OccurredAt.Format(time.RFC3339))
	if e.PreviousAccountID != nil {
		log.SetMetadata("previous_account_id", e.PreviousAccountID.String())
	}
	if e.PreviousDelta != nil {
		log.SetMetadata("previous_delta", e.PreviousDelta.StringFixed(2))
	}
	return log
}
