package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/metrics"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
)

type AddEmployeeInput struct {
	Name  string
	Email string
}

type AddEmployeeResult struct {
	Employee *model.User
	// TempPassword is only filled when the welcome mail could not be sent.
	TempPassword string
	MailSent     bool
}

type EmployeeUpdateInput struct {
	Name       string
	Email      string
	Position   string
	Department *string
	Salary     *decimal.Decimal
	LeavesLeft *int
	Status     *string
}

type EmployeeService struct {
	users    UserStore
	tasks    TaskStore
	leaves   LeaveStore
	accounts *AccountService
	sender   EmailSender
	loginURL string
}

func NewEmployeeService(users UserStore, tasks TaskStore, leaves LeaveStore, accounts *AccountService, sender EmailSender, loginURL string) *EmployeeService {
	return &EmployeeService{
		users:    users,
		tasks:    tasks,
		leaves:   leaves,
		accounts: accounts,
		sender:   sender,
		loginURL: loginURL,
	}
}

func (s *EmployeeService) Add(ctx context.Context, managerID string, in AddEmployeeInput) (*AddEmployeeResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || !validEmail(in.Email) {
		return nil, appErr.ErrInvalid
	}
	manager, err := s.users.GetByID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if !manager.IsManager() {
		return nil, appErr.ErrForbidden
	}
	tempPassword, err := newTempPassword()
	if err != nil {
		return nil, err
	}
	employee, err := s.accounts.Provision(ctx, ProvisionRequest{
		Name:      in.Name,
		Email:     in.Email,
		Password:  tempPassword,
		Role:      model.RoleEmployee,
		ManagerID: manager.ID,
	})
	if err != nil {
		return nil, err
	}
	result := &AddEmployeeResult{Employee: employee}
	logger := logutil.GetLogger(ctx).With(zap.String("employee_id", employee.EmployeeID))
	mail, err := renderWelcomeMail(employee.Name, manager.Name, employee.Email, tempPassword, s.loginURL)
	if err == nil {
		err = s.sender.Send(employee.Email, mail.Subject, mail.Body)
	}
	if err != nil {
		metrics.MailFailures.Inc()
		logger.Error("send welcome mail failed", zap.Error(err))
		result.TempPassword = tempPassword
		return result, nil
	}
	result.MailSent = true
	logger.Info("employee added", zap.String("manager_id", manager.ID))
	return result, nil
}

func (s *EmployeeService) List(ctx context.Context, managerID string) ([]model.User, error) {
	return s.users.ListByManager(ctx, managerID)
}

// Update edits an employee that reports to managerID. Employees of other
// managers are reported as not found.
func (s *EmployeeService) Update(ctx context.Context, managerID, employeeID string, in EmployeeUpdateInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Position = strings.TrimSpace(in.Position)
	if in.Name == "" || in.Position == "" || !validEmail(in.Email) {
		return nil, appErr.ErrInvalid
	}
	if in.LeavesLeft != nil && *in.LeavesLeft < 0 {
		return nil, appErr.ErrInvalid
	}
	if in.Salary != nil && in.Salary.IsNegative() {
		return nil, appErr.ErrInvalid
	}
	if in.Status != nil && *in.Status != model.UserStatusActive && *in.Status != model.UserStatusTerminated {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.ownedEmployee(ctx, managerID, employeeID); err != nil {
		return nil, err
	}
	upd := &model.UserUpdate{
		Name:       &in.Name,
		Email:      &in.Email,
		Position:   &in.Position,
		Department: trimmed(in.Department),
		Salary:     in.Salary,
		LeavesLeft: in.LeavesLeft,
		Status:     in.Status,
	}
	if err := s.users.Update(ctx, employeeID, upd, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, employeeID)
}

func (s *EmployeeService) Delete(ctx context.Context, managerID, employeeID string) error {
	if err := s.users.DeleteEmployee(ctx, managerID, employeeID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("employee deleted", zap.String("manager_id", managerID), zap.String("user_id", employeeID))
	return nil
}

func (s *EmployeeService) Stats(ctx context.Context, managerID string) (*model.DashboardStats, error) {
	ids, err := s.users.ListIDsByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	activeTasks, err := s.tasks.CountOpenByAssignees(ctx, ids)
	if err != nil {
		return nil, err
	}
	pendingLeaves, err := s.leaves.CountPendingByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &model.DashboardStats{
		TotalEmployees: len(ids),
		ActiveTasks:    activeTasks,
		PendingLeaves:  pendingLeaves,
	}, nil
}

func (s *EmployeeService) ownedEmployee(ctx context.Context, managerID, employeeID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleEmployee || user.ManagerID != managerID {
		return nil, appErr.ErrNotFound
	}
	return user, nil
}
