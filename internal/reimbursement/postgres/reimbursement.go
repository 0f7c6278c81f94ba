package postgres

import (
	"context"
	"errors"

	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReimbursementRepository struct {
	db *gorm.DB
}

func NewReimbursementRepository(db *gorm.DB) reimbursement.RepositoryAPI {
	return &ReimbursementRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *ReimbursementRepository) List(ctx context.Context, filter reimbursement.ListFilter) ([]*reimbursementDatamodel.Reimbursement, error) {
	q := r.db.WithContext(ctx).Preload("Items", orderedItems)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.CompanyID > 0 {
		q = q.Where("company_id = ?", filter.CompanyID)
	}

	var rows []*reimbursementDatamodel.Reimbursement
	if err := q.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReimbursementRepository) GetByID(ctx context.Context, id string) (*reimbursementDatamodel.Reimbursement, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate locks the header row until the surrounding transaction ends.
func (r *ReimbursementRepository) GetForUpdate(ctx context.Context, id string) (*reimbursementDatamodel.Reimbursement, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(q, id)
}

func (r *ReimbursementRepository) get(q *gorm.DB, id string) (*reimbursementDatamodel.Reimbursement, error) {
	var row reimbursementDatamodel.Reimbursement
	err := q.Preload("Items", orderedItems).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reimbursement.ErrReimbursementNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *ReimbursementRepository) ListIDsByStatus(ctx context.Context, status reimbursement.Status) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&reimbursementDatamodel.Reimbursement{}).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ReimbursementRepository) Create(ctx context.Context, row *reimbursementDatamodel.Reimbursement) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&reimbursementDatamodel.Reimbursement{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return reimbursement.ErrDuplicateID
	}

	if err := db.Omit(clause.Associations).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return reimbursement.ErrDuplicateID
		}
		return err
	}
	return r.insertItems(db, row.Items)
}

func (r *ReimbursementRepository) ReplaceDetails(ctx context.Context, row *reimbursementDatamodel.Reimbursement) error {
	db := r.db.WithContext(ctx)

	res := db.Model(&reimbursementDatamodel.Reimbursement{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"date":           row.Date,
			"requestor_name": row.RequestorName,
			"category":       row.Category,
			"company_id":     row.CompanyID,
			"activity_name":  row.ActivityName,
			"description":    row.Description,
			"grand_total":    row.GrandTotal,
			"updated_at":     row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reimbursement.ErrReimbursementNotFound
	}

	if err := db.Where("reimbursement_id = ?", row.ID).Delete(&reimbursementDatamodel.ReimbursementItem{}).Error; err != nil {
		return err
	}
	return r.insertItems(db, row.Items)
}

func (r *ReimbursementRepository) UpdateStatus(ctx context.Context, id string, change reimbursement.StatusChange) error {
	updates := map[string]interface{}{
		"status":           string(change.Status),
		"rejection_reason": change.RejectionReason,
		"updated_at":       change.UpdatedAt,
	}
	if change.TransferProofURL != nil {
		updates["transfer_proof_url"] = *change.TransferProofURL
	}

	res := r.db.WithContext(ctx).
		Model(&reimbursementDatamodel.Reimbursement{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reimbursement.ErrReimbursementNotFound
	}
	return nil
}

func (r *ReimbursementRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("reimbursement_id = ?", id).Delete(&reimbursementDatamodel.ReimbursementItem{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&reimbursementDatamodel.Reimbursement{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reimbursement.ErrReimbursementNotFound
	}
	return nil
}

func (r *ReimbursementRepository) insertItems(db *gorm.DB, items []*reimbursementDatamodel.ReimbursementItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := db.Create(&items).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return reimbursement.ErrDuplicateID
		}
		return err
	}
	return nil
}
