package employee

import "strings"

type CreateEmployeeDTO struct {
	Name     string `json:"name" validate:"required,max=255"`
	Position string `json:"position" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=64"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=128"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin employee"`
}

type UpdateEmployeeDTO struct {
	Name     string `json:"name" validate:"required,max=255"`
	Position string `json:"position" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=64"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Username string `json:"username" validate:"omitempty,min=3,max=128"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin employee"`
}

func (d *CreateEmployeeDTO) normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
}

func (d *UpdateEmployeeDTO) normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
}
