package postgres

import (
	"context"
	"errors"

	settingDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/setting"
	"github.com/frahmantamala/bookkeeping/internal/setting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) setting.RepositoryAPI {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) List(ctx context.Context) ([]*settingDatamodel.Setting, error) {
	var rows []*settingDatamodel.Setting
	err := r.db.WithContext(ctx).Order(`"key" ASC`).Find(&rows).Error
	return rows, err
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*settingDatamodel.Setting, error) {
	var row settingDatamodel.Setting
	if err := r.db.WithContext(ctx).Where(`"key" = ?`, key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, setting.ErrSettingNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, s *settingDatamodel.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(s).Error
}
