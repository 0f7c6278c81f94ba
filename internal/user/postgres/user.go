package postgres

import (
	"context"
	"errors"

	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
	"github.com/frahmantamala/bookkeeping/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetEmployeeByUserID returns nil without error when the user has no employee profile.
func (r *UserRepository) GetEmployeeByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error) {
	var e employeeDatamodel.Employee
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return CreateUser(tx, u)
	})
}

// CreateUser inserts u inside tx after checking the username is free.
func CreateUser(tx *gorm.DB, u *userDatamodel.User) error {
	var count int64
	if err := tx.Model(&userDatamodel.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return user.ErrUsernameTaken
	}
	if err := tx.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&employeeDatamodel.Employee{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&userDatamodel.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}
