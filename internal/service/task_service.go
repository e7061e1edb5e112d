package service

import (
	"context"
	"strings"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
)

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, taskID string) (*model.Task, error)
	ListByAssigner(ctx context.Context, managerID string) ([]model.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]model.Task, error)
	UpdateState(ctx context.Context, taskID, status string, accepted bool, mtime int64) error
	CountOpenByAssignees(ctx context.Context, userIDs []string) (int, error)
}

type CreateTaskInput struct {
	Title       string
	Description string
	Deadline    int64
	AssignedTo  string
}

type TaskService struct {
	tasks TaskStore
	users UserStore
}

func NewTaskService(tasks TaskStore, users UserStore) *TaskService {
	return &TaskService{tasks: tasks, users: users}
}

// Create assigns a new pending task to one of the manager's employees.
func (s *TaskService) Create(ctx context.Context, managerID string, in CreateTaskInput) (*model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" || in.Deadline <= 0 || in.AssignedTo == "" {
		return nil, appErr.ErrInvalid
	}
	assignee, err := s.users.GetByID(ctx, in.AssignedTo)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrInvalid
		}
		return nil, err
	}
	if assignee.Role != model.RoleEmployee || assignee.ManagerID != managerID {
		return nil, appErr.ErrForbidden
	}
	now := timeutil.NowUnix()
	task := &model.Task{
		ID:          newID(),
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Status:      model.TaskStatusPending,
		AssignedTo:  assignee.ID,
		AssignedBy:  managerID,
		Accepted:    false,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ListAssigned(ctx context.Context, managerID string) ([]model.Task, error) {
	return s.tasks.ListByAssigner(ctx, managerID)
}

func (s *TaskService) ListMine(ctx context.Context, userID string) ([]model.Task, error) {
	return s.tasks.ListByAssignee(ctx, userID)
}

func (s *TaskService) Accept(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != userID {
		return nil, appErr.ErrForbidden
	}
	if task.Accepted {
		return task, nil
	}
	now := timeutil.NowUnix()
	if err := s.tasks.UpdateState(ctx, task.ID, task.Status, true, now); err != nil {
		return nil, err
	}
	task.Accepted = true
	task.Mtime = now
	return task, nil
}

// UpdateStatus lets the assignee move a task to in-progress or completed and
// the assigning manager set any status. Completion requires acceptance.
func (s *TaskService) UpdateStatus(ctx context.Context, userID, role, taskID, status string) (*model.Task, error) {
	if !validTaskStatus(status) {
		return nil, appErr.ErrInvalid
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	isAssignee := task.AssignedTo == userID
	isAssigner := role == model.RoleManager && task.AssignedBy == userID
	if !isAssignee && !isAssigner {
		return nil, appErr.ErrForbidden
	}
	if !isAssigner && status == model.TaskStatusPending {
		return nil, appErr.ErrForbidden
	}
	if status == model.TaskStatusCompleted && !task.Accepted {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	if err := s.tasks.UpdateState(ctx, task.ID, status, task.Accepted, now); err != nil {
		return nil, err
	}
	task.Status = status
	task.Mtime = now
	return task, nil
}

func (s *TaskService) Stats(ctx context.Context, userID string) (*model.TaskStats, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &model.TaskStats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskStatusCompleted:
			stats.CompletedTasks++
		case model.TaskStatusInProgress:
			stats.InProgressTasks++
		}
	}
	return stats, nil
}

func validTaskStatus(status string) bool {
	switch status {
	case model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusCompleted:
		return true
	}
	return false
}
