package postgres

import (
	"context"

	"github.com/frahmantamala/bookkeeping/internal/posting"
	postingPostgres "github.com/frahmantamala/bookkeeping/internal/posting/postgres"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
	"gorm.io/gorm"
)

type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo reimbursement.RepositoryAPI, ledger posting.Store) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewReimbursementRepository(tx), postingPostgres.NewStore(tx))
	})
}
