package user

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/department"
)

// User is the directory view of an employee that can record attendance.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Department  string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DepartmentKey maps the stored department name onto the closed department set.
// The second result is false when the name is unknown.
func (u User) DepartmentKey() (department.Department, bool) {
	return department.ParseDepartment(u.Department)
}
