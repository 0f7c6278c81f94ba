package user

import (
	"errors"
	"time"

	"github.com/frahmantamala/bookkeeping/internal/auth"
	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type User struct {
	ID          int64            `json:"id"`
	Username    string           `json:"username"`
	Role        string           `json:"role"`
	Permissions []string         `json:"permissions"`
	Employee    *EmployeeSummary `json:"employee,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// EmployeeSummary is the employee profile linked to a login, if any.
type EmployeeSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: auth.PermissionsForRole(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func FromDataModelWithEmployee(u *userDatamodel.User, e *employeeDatamodel.Employee) *User {
	domainUser := FromDataModel(u)
	if e != nil {
		domainUser.Employee = &EmployeeSummary{
			ID:       e.ID,
			Name:     e.Name,
			Position: e.Position,
			Phone:    e.Phone,
			Email:    e.Email,
		}
	}
	return domainUser
}
