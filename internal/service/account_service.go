package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/idalloc"
	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/password"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (*model.User, error)
	ListByManager(ctx context.Context, managerID string) ([]model.User, error)
	ListIDsByManager(ctx context.Context, managerID string) ([]string, error)
	Update(ctx context.Context, userID string, upd *model.UserUpdate, mtime int64) error
	UpdatePassword(ctx context.Context, userID, passwordHash string, mtime int64) error
	UpdatePhoto(ctx context.Context, userID, url, key string, mtime int64) error
	UpdateLeavesLeft(ctx context.Context, userID string, leavesLeft int, mtime int64) error
	DeleteEmployee(ctx context.Context, managerID, userID string) error
}

type ProvisionRequest struct {
	Name      string
	Email     string
	Password  string
	Role      string
	ManagerID string
}

// AccountService creates accounts with a freshly allocated employee id.
type AccountService struct {
	users UserStore
	alloc *idalloc.Allocator
}

func NewAccountService(users UserStore, alloc *idalloc.Allocator) *AccountService {
	return &AccountService{users: users, alloc: alloc}
}

// Provision fails with appErr.ErrConflict when the email is taken and with
// appErr.ErrAllocationExhausted when no free employee id could be found.
func (s *AccountService) Provision(ctx context.Context, req ProvisionRequest) (*model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" || !validRole(req.Role) {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Position:     model.NotSet,
		Department:   model.NotSet,
		Salary:       decimal.Zero,
		LeavesLeft:   model.DefaultLeaveBalance,
		Status:       model.UserStatusActive,
		Ctime:        now,
		Mtime:        now,
	}
	if req.Role == model.RoleEmployee {
		user.ManagerID = req.ManagerID
	}
	employeeID, err := s.alloc.Allocate(ctx, req.Role, func(ctx context.Context, id string) error {
		user.EmployeeID = id
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	user.EmployeeID = employeeID
	logutil.GetLogger(ctx).Info("account provisioned",
		zap.String("user_id", user.ID),
		zap.String("employee_id", user.EmployeeID),
		zap.String("role", user.Role),
	)
	return user, nil
}
