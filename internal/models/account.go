package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidOpeningBalance = errors.New("opening balance must have at most 2 decimal places")
)

// Account holds a running balance for one user. Balance moves only through
// ledger operations on transactions; it may go negative.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(19,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`

	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	return a.Validate()
}

func (a *Account) Validate() error {
	if a.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}

	if !a.Balance.Equal(a.Balance.Round(2)) {
		return ErrInvalidOpeningBalance
	}

	return nil
}

// Apply adds a signed delta to the in-memory balance.
func (a *Account) Apply(delta decimal.Decimal) {
	a.Balance = a.Balance.Add(delta)
}

// IsOwnedBy reports whether the account belongs to userID.
func (a *Account) IsOwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

func (a *Account) TableName() string {
	return "accounts"
}
