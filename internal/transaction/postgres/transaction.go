package postgres

import (
	"context"
	"errors"

	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
	"github.com/frahmantamala/bookkeeping/internal/transaction"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.RepositoryAPI {
	return &TransactionRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *TransactionRepository) List(ctx context.Context, filter transaction.ListFilter) ([]*transactionDatamodel.Transaction, error) {
	q := r.db.WithContext(ctx).Preload("Items", preloadItems)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.CompanyID > 0 {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}

	var rows []*transactionDatamodel.Transaction
	if err := q.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transactionDatamodel.Transaction, error) {
	var row transactionDatamodel.Transaction
	err := r.db.WithContext(ctx).Preload("Items", preloadItems).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Create inserts the header and its items in one transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *transactionDatamodel.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&transactionDatamodel.Transaction{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return transaction.ErrDuplicateID
		}

		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return transaction.ErrDuplicateID
			}
			return err
		}
		return insertItems(tx, t.Items)
	})
}

// Replace overwrites the header and swaps the whole item list.
func (r *TransactionRepository) Replace(ctx context.Context, t *transactionDatamodel.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&transactionDatamodel.Transaction{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"date":          t.Date,
				"type":          t.Type,
				"expense_type":  t.ExpenseType,
				"category":      t.Category,
				"company_id":    t.CompanyID,
				"activity_name": t.ActivityName,
				"description":   t.Description,
				"grand_total":   t.GrandTotal,
				"updated_at":    t.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transaction.ErrTransactionNotFound
		}

		if err := tx.Where("transaction_id = ?", t.ID).Delete(&transactionDatamodel.TransactionItem{}).Error; err != nil {
			return err
		}
		return insertItems(tx, t.Items)
	})
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&transactionDatamodel.TransactionItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&transactionDatamodel.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transaction.ErrTransactionNotFound
		}
		return nil
	})
}

func insertItems(tx *gorm.DB, items []*transactionDatamodel.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := tx.Create(&items).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return transaction.ErrDuplicateID
		}
		return err
	}
	return nil
}
