package postgres

import (
	"context"
	"errors"

	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
	"github.com/frahmantamala/bookkeeping/internal/employee"
	"github.com/frahmantamala/bookkeeping/internal/user"
	userPostgres "github.com/frahmantamala/bookkeeping/internal/user/postgres"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) withUser(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employees").
		Select("employees.*, users.username, users.role").
		Joins("JOIN users ON users.id = employees.user_id")
}

func (r *EmployeeRepository) List(ctx context.Context) ([]*employeeDatamodel.EmployeeWithUser, error) {
	var rows []*employeeDatamodel.EmployeeWithUser
	err := r.withUser(ctx).Order("employees.name ASC").Find(&rows).Error
	return rows, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.EmployeeWithUser, error) {
	var row employeeDatamodel.EmployeeWithUser
	if err := r.withUser(ctx).Where("employees.id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employeeDatamodel.Employee, login *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userPostgres.CreateUser(tx, login); err != nil {
			return err
		}
		e.UserID = login.ID
		return tx.Create(e).Error
	})
}

func (r *EmployeeRepository) Update(ctx context.Context, e *employeeDatamodel.Employee, login employee.LoginChanges) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&employeeDatamodel.Employee{}).
			Where("id = ?", e.ID).
			Updates(map[string]interface{}{
				"name":     e.Name,
				"position": e.Position,
				"phone":    e.Phone,
				"email":    e.Email,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return employee.ErrEmployeeNotFound
		}

		changes := map[string]interface{}{}
		if login.Username != nil {
			var taken int64
			if err := tx.Model(&userDatamodel.User{}).
				Where("username = ? AND id <> ?", *login.Username, e.UserID).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return user.ErrUsernameTaken
			}
			changes["username"] = *login.Username
		}
		if login.PasswordHash != nil {
			changes["password_hash"] = *login.PasswordHash
		}
		if login.Role != nil {
			changes["role"] = *login.Role
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&userDatamodel.User{}).Where("id = ?", e.UserID).Updates(changes).Error
	})
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e employeeDatamodel.Employee
		if err := tx.Where("id = ?", id).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return employee.ErrEmployeeNotFound
			}
			return err
		}
		if err := tx.Delete(&e).Error; err != nil {
			return err
		}
		return tx.Delete(&userDatamodel.User{}, e.UserID).Error
	})
}
