package postgres

import (
	"context"
	"errors"

	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store runs posting queries on whatever *gorm.DB it wraps, usually an open transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) posting.Store {
	return &Store{db: db}
}

func (s *Store) TransactionExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&transactionDatamodel.Transaction{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) GetReimbursement(ctx context.Context, id string) (*reimbursementDatamodel.Reimbursement, error) {
	var row reimbursementDatamodel.Reimbursement
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, posting.ErrSourceNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t *transactionDatamodel.Transaction) (bool, error) {
	res := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) InsertTransactionItems(ctx context.Context, items []*transactionDatamodel.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

type TxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store posting.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}
