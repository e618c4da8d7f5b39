package repositories

import (
	"errors"
	"fmt"
	"time"

	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transactionRepository implements TransactionRepositoryInterface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

// CreateWithBalance inserts the transaction and applies its signed amount to
// the account balance in one database transaction.
func (r *transactionRepository) CreateWithBalance(transaction *models.Transaction) error {
	if transaction == nil {
		return errors.New("transaction cannot be nil")
	}
	if err := transaction.Validate(); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureCategory(tx, transaction.CategoryID); err != nil {
			return err
		}

		if err := adjustBalance(tx, transaction.AccountID, transaction.SignedAmount()); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		return nil
	})
}

// UpdateWithBalance replaces the stored transaction with the given one. The
// stored effect is reverted on its account before the new effect is applied
// to the (possibly different) new account.
func (r *transactionRepository) UpdateWithBalance(transaction *models.Transaction) (*models.Transaction, error) {
	if transaction == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		existing, err := lockTransaction(tx, transaction.ID)
		if err != nil {
			return err
		}

		if err := adjustBalance(tx, existing.AccountID, existing.SignedAmount().Neg()); err != nil {
			return err
		}

		if transaction.CategoryID != existing.CategoryID {
			if err := ensureCategory(tx, transaction.CategoryID); err != nil {
				return err
			}
		}

		if err := adjustBalance(tx, transaction.AccountID, transaction.SignedAmount()); err != nil {
			return err
		}

		transaction.UserID = existing.UserID
		transaction.CreatedAt = existing.CreatedAt
		transaction.User, transaction.Account, transaction.Category = nil, nil, nil

		if err := tx.Omit(clause.Associations).Save(transaction).Error; err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(transaction.ID)
}

// DeleteWithBalance removes the transaction and reverts its effect. The
// deleted row is returned.
func (r *transactionRepository) DeleteWithBalance(id uuid.UUID) (*models.Transaction, error) {
	var deleted *models.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		existing, err := lockTransaction(tx, id)
		if err != nil {
			return err
		}

		if err := adjustBalance(tx, existing.AccountID, existing.SignedAmount().Neg()); err != nil {
			return err
		}

		if err := tx.Where("id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}

		deleted = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// GetByID retrieves a transaction with its user, account and category
func (r *transactionRepository) GetByID(id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := withAssociations(r.db).Where("transactions.id = ?", id).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// GetWithFilters retrieves transactions matching every non-zero filter,
// newest first
func (r *transactionRepository) GetWithFilters(filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	if err := applyTransactionFilters(r.db.Model(&models.Transaction{}), filters).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count filtered transactions: %w", err)
	}

	query := applyTransactionFilters(withAssociations(r.db), filters).
		Order("transactions.date DESC").
		Order("transactions.created_at DESC")
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get filtered transactions: %w", err)
	}

	return transactions, total, nil
}

// SpendingByCategory sums the user's transactions of one type per category
// in a single grouped query, largest total first.
func (r *transactionRepository) SpendingByCategory(filters models.SpendingFilters) ([]models.CategorySpending, error) {
	var rows []models.CategorySpending

	query := r.db.Table("transactions").
		Select("transactions.category_id AS category_id, categories.name AS category_name, " +
			"SUM(transactions.amount) AS total_spent, COUNT(transactions.id) AS transaction_count").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ?", filters.UserID).
		Where("transactions.type = ?", filters.Type)

	if filters.StartDate != nil {
		query = query.Where("transactions.date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("transactions.date <= ?", *filters.EndDate)
	}

	if err := query.
		Group("transactions.category_id, categories.name").
		Order("total_spent DESC").
		Order("category_name ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get spending by category: %w", err)
	}

	return rows, nil
}

func applyTransactionFilters(query *gorm.DB, filters models.TransactionFilters) *gorm.DB {
	if filters.UserID != uuid.Nil {
		query = query.Where("transactions.user_id = ?", filters.UserID)
	}
	if filters.AccountID != uuid.Nil {
		query = query.Where("transactions.account_id = ?", filters.AccountID)
	}
	if filters.CategoryID != uuid.Nil {
		query = query.Where("transactions.category_id = ?", filters.CategoryID)
	}
	if filters.Type != "" {
		query = query.Where("transactions.type = ?", filters.Type)
	}
	if filters.StartDate != nil {
		query = query.Where("transactions.date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("transactions.date <= ?", *filters.EndDate)
	}
	return query
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Account").Preload("Category")
}

// lockTransaction reads the row with SELECT ... FOR UPDATE where the dialect
// supports it. SQLite serializes writers on its own.
func lockTransaction(tx *gorm.DB, id uuid.UUID) (*models.Transaction, error) {
	query := tx
	if tx.Dialector.Name() != "sqlite" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var existing models.Transaction
	if err := query.Where("id = ?", id).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return &existing, nil
}

// adjustBalance applies delta with a single relative UPDATE so concurrent
// writers never overwrite each other's effect.
func adjustBalance(tx *gorm.DB, accountID uuid.UUID, delta decimal.Decimal) error {
	result := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update account balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func ensureCategory(tx *gorm.DB, categoryID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
