package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/dbutil"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

var taskColumns = []string{"id", "title", "description", "deadline", "status", "assigned_to", "assigned_by", "accepted", "ctime", "mtime"}

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	data := map[string]interface{}{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"deadline":    task.Deadline,
		"status":      task.Status,
		"assigned_to": task.AssignedTo,
		"assigned_by": task.AssignedBy,
		"accepted":    task.Accepted,
		"ctime":       task.Ctime,
		"mtime":       task.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("tasks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TaskRepo) GetByID(ctx context.Context, taskID string) (*model.Task, error) {
	tasks, err := r.list(ctx, map[string]interface{}{"id": taskID, "_limit": []uint{0, 1}})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &tasks[0], nil
}

func (r *TaskRepo) ListByAssigner(ctx context.Context, managerID string) ([]model.Task, error) {
	return r.list(ctx, map[string]interface{}{"assigned_by": managerID, "_orderby": "deadline asc"})
}

func (r *TaskRepo) ListByAssignee(ctx context.Context, userID string) ([]model.Task, error) {
	return r.list(ctx, map[string]interface{}{"assigned_to": userID, "_orderby": "deadline asc"})
}

func (r *TaskRepo) UpdateState(ctx context.Context, taskID, status string, accepted bool, mtime int64) error {
	where := map[string]interface{}{"id": taskID}
	update := map[string]interface{}{"status": status, "accepted": accepted, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("tasks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// CountOpenByAssignees counts tasks not yet completed for the given users.
func (r *TaskRepo) CountOpenByAssignees(ctx context.Context, userIDs []string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	where := map[string]interface{}{"assigned_to in": userIDs, "status !=": model.TaskStatusCompleted}
	sqlStr, args, err := builder.BuildSelect("tasks", where, []string{"COUNT(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TaskRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Task, error) {
	sqlStr, args, err := builder.BuildSelect("tasks", where, taskColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Deadline, &t.Status, &t.AssignedTo, &t.AssignedBy, &t.Accepted, &t.Ctime, &t.Mtime); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
