package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
	"github.com/staffdesk/ems/internal/repo"
	"github.com/staffdesk/ems/internal/testutil"
)

func newUser(employeeID, email, role, managerID string) *model.User {
	now := timeutil.NowUnix()
	return &model.User{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Name:       "Test " + employeeID,
		Email:      email,
		Role:       role,
		Position:   model.NotSet,
		Department: model.NotSet,
		Salary:     decimal.RequireFromString("1234.50"),
		LeavesLeft: model.DefaultLeaveBalance,
		Status:     model.UserStatusActive,
		ManagerID:  managerID,
		Ctime:      now,
		Mtime:      now,
	}
}

func uniqueSuffix() string {
	return uuid.NewString()[:8]
}

func TestUserRepoConflicts(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	users := repo.NewUserRepo(conn)
	suffix := uniqueSuffix()

	first := newUser("T-"+suffix, suffix+"@a.com", model.RoleManager, "")
	require.NoError(t, users.Create(ctx, first))

	sameID := newUser("T-"+suffix, suffix+"@b.com", model.RoleManager, "")
	require.ErrorIs(t, users.Create(ctx, sameID), appErr.ErrIDTaken)

	sameEmail := newUser("U-"+suffix, suffix+"@a.com", model.RoleManager, "")
	require.ErrorIs(t, users.Create(ctx, sameEmail), appErr.ErrConflict)

	got, err := users.GetByEmailAndRole(ctx, suffix+"@a.com", model.RoleManager)
	require.NoError(t, err)
	require.Equal(t, first.EmployeeID, got.EmployeeID)
	require.True(t, first.Salary.Equal(got.Salary))
}

func TestUserRepoManagerScope(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	users := repo.NewUserRepo(conn)
	suffix := uniqueSuffix()

	manager := newUser("M-"+suffix, "m"+suffix+"@x.com", model.RoleManager, "")
	require.NoError(t, users.Create(ctx, manager))
	emp := newUser("E-"+suffix, "e"+suffix+"@x.com", model.RoleEmployee, manager.ID)
	require.NoError(t, users.Create(ctx, emp))

	list, err := users.ListByManager(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	left := 7
	require.NoError(t, users.Update(ctx, emp.ID, &model.UserUpdate{LeavesLeft: &left}, timeutil.NowUnix()))
	got, err := users.GetByID(ctx, emp.ID)
	require.NoError(t, err)
	require.Equal(t, 7, got.LeavesLeft)

	require.ErrorIs(t, users.DeleteEmployee(ctx, "someone-else", emp.ID), appErr.ErrNotFound)
	require.NoError(t, users.DeleteEmployee(ctx, manager.ID, emp.ID))
}
