package model

import "github.com/shopspring/decimal"

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"

	UserStatusActive     = "active"
	UserStatusTerminated = "terminated"

	DefaultLeaveBalance = 20
	NotSet              = "Not Set"
)

type User struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	Role          string          `json:"role"`
	Position      string          `json:"position"`
	Department    string          `json:"department"`
	Salary        decimal.Decimal `json:"salary"`
	ProfilePic    string          `json:"profile_pic"`
	ProfilePicKey string          `json:"-"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	JoiningDate   string          `json:"joining_date"`
	LeavesLeft    int             `json:"leaves_left"`
	Status        string          `json:"status"`
	ManagerID     string          `json:"manager_id,omitempty"`
	Ctime         int64           `json:"ctime"`
	Mtime         int64           `json:"mtime"`
}

func (u *User) IsManager() bool {
	return u != nil && u.Role == RoleManager
}

// UserUpdate carries the optional profile fields of a partial update. Nil
// fields are left untouched.
type UserUpdate struct {
	Name        *string
	Email       *string
	Position    *string
	Department  *string
	Salary      *decimal.Decimal
	Phone       *string
	Address     *string
	JoiningDate *string
	LeavesLeft  *int
	Status      *string
}
