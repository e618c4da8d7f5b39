package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionFilters narrows transaction listings. Zero values are ignored.
type TransactionFilters struct {
	UserID     uuid.UUID
	AccountID  uuid.UUID
	CategoryID uuid.UUID
	Type       string
	StartDate  *time.Time
	EndDate    *time.Time
	Offset     int
	Limit      int
}
