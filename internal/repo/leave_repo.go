package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/dbutil"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

var leaveColumns = []string{"id", "user_id", "leave_type", "from_date", "to_date", "reason", "status", "reviewed_by", "reviewed_at", "ctime", "mtime"}

type LeaveRepo struct {
	db *sql.DB
}

func NewLeaveRepo(db *sql.DB) *LeaveRepo {
	return &LeaveRepo{db: db}
}

func (r *LeaveRepo) Create(ctx context.Context, leave *model.LeaveRequest) error {
	data := map[string]interface{}{
		"id":          leave.ID,
		"user_id":     leave.UserID,
		"leave_type":  leave.LeaveType,
		"from_date":   leave.FromDate,
		"to_date":     leave.ToDate,
		"reason":      leave.Reason,
		"status":      leave.Status,
		"reviewed_by": leave.ReviewedBy,
		"reviewed_at": leave.ReviewedAt,
		"ctime":       leave.Ctime,
		"mtime":       leave.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("leave_requests", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *LeaveRepo) GetByID(ctx context.Context, leaveID string) (*model.LeaveRequest, error) {
	leaves, err := r.list(ctx, map[string]interface{}{"id": leaveID, "_limit": []uint{0, 1}})
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &leaves[0], nil
}

func (r *LeaveRepo) ListByUser(ctx context.Context, userID string) ([]model.LeaveRequest, error) {
	return r.list(ctx, map[string]interface{}{"user_id": userID, "_orderby": "ctime desc"})
}

func (r *LeaveRepo) ListByUsers(ctx context.Context, userIDs []string) ([]model.LeaveRequest, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, map[string]interface{}{"user_id in": userIDs, "_orderby": "ctime desc"})
}

// Review moves a pending request to status. It reports appErr.ErrConflict if
// the request was already reviewed.
func (r *LeaveRepo) Review(ctx context.Context, leaveID, status, reviewerID string, now int64) error {
	where := map[string]interface{}{"id": leaveID, "status": model.LeaveStatusPending}
	update := map[string]interface{}{"status": status, "reviewed_by": reviewerID, "reviewed_at": now, "mtime": now}
	sqlStr, args, err := builder.BuildUpdate("leave_requests", where, update)
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
		return appErr.ErrConflict
	}
	return nil
}

// FindApprovedCovering returns an approved request of userID whose range
// includes date, or appErr.ErrNotFound.
func (r *LeaveRepo) FindApprovedCovering(ctx context.Context, userID, date string) (*model.LeaveRequest, error) {
	leaves, err := r.list(ctx, map[string]interface{}{
		"user_id":      userID,
		"status":       model.LeaveStatusApproved,
		"from_date <=": date,
		"to_date >=":   date,
		"_limit":       []uint{0, 1},
	})
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &leaves[0], nil
}

func (r *LeaveRepo) CountPendingByUsers(ctx context.Context, userIDs []string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	where := map[string]interface{}{"user_id in": userIDs, "status": model.LeaveStatusPending}
	sqlStr, args, err := builder.BuildSelect("leave_requests", where, []string{"COUNT(*)"})
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

func (r *LeaveRepo) list(ctx context.Context, where map[string]interface{}) ([]model.LeaveRequest, error) {
	sqlStr, args, err := builder.BuildSelect("leave_requests", where, leaveColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var leaves []model.LeaveRequest
	for rows.Next() {
		var l model.LeaveRequest
		if err := rows.Scan(&l.ID, &l.UserID, &l.LeaveType, &l.FromDate, &l.ToDate, &l.Reason, &l.Status, &l.ReviewedBy, &l.ReviewedAt, &l.Ctime, &l.Mtime); err != nil {
			return nil, err
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}
