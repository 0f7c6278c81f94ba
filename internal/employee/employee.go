package employee

import (
	"errors"
	"time"

	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
)

var ErrEmployeeNotFound = errors.New("employee not found")

// Employee is a staff profile. Every employee owns exactly one login.
type Employee struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginChanges lists the login fields an update touches; nil fields are left alone.
type LoginChanges struct {
	Username     *string
	PasswordHash *string
	Role         *string
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		Position:  e.Position,
		Phone:     e.Phone,
		Email:     e.Email,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.EmployeeWithUser) *Employee {
	return &Employee{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		Position:  e.Position,
		Phone:     e.Phone,
		Email:     e.Email,
		Username:  e.Username,
		Role:      e.Role,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
