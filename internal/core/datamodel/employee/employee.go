package employee

import "time"

type Employee struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Position  string    `gorm:"column:position;size:255"`
	Phone     string    `gorm:"column:phone;size:64"`
	Email     string    `gorm:"column:email;size:255"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

// EmployeeWithUser is the employee row joined with its login.
type EmployeeWithUser struct {
	Employee
	Username string `gorm:"column:username"`
	Role     string `gorm:"column:role"`
}
