package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	otto := env.signup(t, "Otto", "otto@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")
	amy := env.signup(t, "Amy", "amy@example.com", model.RoleEmployee, "mara@example.com")

	_, err := env.taskSvc.Create(ctx, otto.ID, CreateTaskInput{Title: "t", Description: "d", Deadline: 10, AssignedTo: eli.ID})
	require.ErrorIs(t, err, appErr.ErrForbidden, "not otto's employee")

	task, err := env.taskSvc.Create(ctx, mara.ID, CreateTaskInput{Title: "Report", Description: "Q2 numbers", Deadline: 1000, AssignedTo: eli.ID})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusPending, task.Status)
	require.False(t, task.Accepted)
	require.Equal(t, mara.ID, task.AssignedBy)

	_, err = env.taskSvc.UpdateStatus(ctx, eli.ID, model.RoleEmployee, task.ID, model.TaskStatusCompleted)
	require.ErrorIs(t, err, appErr.ErrInvalid, "completion needs acceptance")

	_, err = env.taskSvc.Accept(ctx, amy.ID, task.ID)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	accepted, err := env.taskSvc.Accept(ctx, eli.ID, task.ID)
	require.NoError(t, err)
	require.True(t, accepted.Accepted)

	_, err = env.taskSvc.UpdateStatus(ctx, amy.ID, model.RoleEmployee, task.ID, model.TaskStatusInProgress)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = env.taskSvc.UpdateStatus(ctx, eli.ID, model.RoleEmployee, task.ID, model.TaskStatusPending)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = env.taskSvc.UpdateStatus(ctx, eli.ID, model.RoleEmployee, task.ID, "archived")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = env.taskSvc.UpdateStatus(ctx, otto.ID, model.RoleManager, task.ID, model.TaskStatusPending)
	require.ErrorIs(t, err, appErr.ErrForbidden)

	updated, err := env.taskSvc.UpdateStatus(ctx, eli.ID, model.RoleEmployee, task.ID, model.TaskStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusInProgress, updated.Status)

	updated, err = env.taskSvc.UpdateStatus(ctx, mara.ID, model.RoleManager, task.ID, model.TaskStatusPending)
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusPending, updated.Status)

	_, err = env.taskSvc.Accept(ctx, eli.ID, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestTaskListsAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")

	ids := make([]string, 0, 3)
	for i, deadline := range []int64{300, 100, 200} {
		task, err := env.taskSvc.Create(ctx, mara.ID, CreateTaskInput{Title: "t", Description: "d", Deadline: deadline, AssignedTo: eli.ID})
		require.NoError(t, err, "task %d", i)
		ids = append(ids, task.ID)
	}
	for _, id := range ids[:2] {
		_, err := env.taskSvc.Accept(ctx, eli.ID, id)
		require.NoError(t, err)
	}
	_, err := env.taskSvc.UpdateStatus(ctx, eli.ID, model.RoleEmployee, ids[0], model.TaskStatusCompleted)
	require.NoError(t, err)
	_, err = env.taskSvc.UpdateStatus(ctx, eli.ID, model.RoleEmployee, ids[1], model.TaskStatusInProgress)
	require.NoError(t, err)

	mine, err := env.taskSvc.ListMine(ctx, eli.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	require.Equal(t, int64(100), mine[0].Deadline)

	assigned, err := env.taskSvc.ListAssigned(ctx, mara.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 3)

	stats, err := env.taskSvc.Stats(ctx, eli.ID)
	require.NoError(t, err)
	require.Equal(t, &model.TaskStats{TotalTasks: 3, CompletedTasks: 1, InProgressTasks: 1}, stats)

	empty, err := env.taskSvc.Stats(ctx, mara.ID)
	require.NoError(t, err)
	require.Equal(t, &model.TaskStats{}, empty)
}
