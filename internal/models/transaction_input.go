package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionInput carries the fields of a new transaction. A nil Date means
// now.
type TransactionInput struct {
	Description string
	Amount      decimal.Decimal
	Date        *time.Time
	Type        string
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
}

// TransactionUpdate is a partial update; nil fields keep their value.
type TransactionUpdate struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Type        *string
	AccountID   *uuid.UUID
	CategoryID  *uuid.UUID
}

// Apply returns a copy of t with the set fields replaced.
func (u TransactionUpdate) Apply(t Transaction) Transaction {
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Date != nil {
		t.Date = u.Date.UTC()
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.AccountID != nil {
		t.AccountID = *u.AccountID
	}
	if u.CategoryID != nil {
		t.CategoryID = *u.CategoryID
	}
	return t
}

// IsEmpty reports whether no field is set.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Description == nil && u.Amount == nil && u.Date == nil &&
		u.Type == nil && u.AccountID == nil && u.CategoryID == nil
}

// RankingQuery holds the raw spending ranking parameters as received.
// Empty strings mean unset.
type RankingQuery struct {
	StartDate string
	EndDate   string
	Type      string
}
