package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
)

type LeaveStore interface {
	Create(ctx context.Context, leave *model.LeaveRequest) error
	GetByID(ctx context.Context, leaveID string) (*model.LeaveRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.LeaveRequest, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]model.LeaveRequest, error)
	Review(ctx context.Context, leaveID, status, reviewerID string, now int64) error
	CountPendingByUsers(ctx context.Context, userIDs []string) (int, error)
	FindApprovedCovering(ctx context.Context, userID, date string) (*model.LeaveRequest, error)
}

type CreateLeaveInput struct {
	LeaveType string
	FromDate  string
	ToDate    string
	Reason    string
}

type LeaveService struct {
	leaves LeaveStore
	users  UserStore
}

func NewLeaveService(leaves LeaveStore, users UserStore) *LeaveService {
	return &LeaveService{leaves: leaves, users: users}
}

// LeaveDays counts calendar days in [from, to], both ends included.
func LeaveDays(from, to time.Time) int {
	start := now.With(from).BeginningOfDay()
	end := now.With(to).BeginningOfDay()
	return int(math.Ceil(end.Sub(start).Hours()/24)) + 1
}

func parseLeaveRange(fromDate, toDate string) (time.Time, time.Time, error) {
	from, err := time.Parse(model.LeaveDateLayout, strings.TrimSpace(fromDate))
	if err != nil {
		return time.Time{}, time.Time{}, appErr.ErrInvalid
	}
	to, err := time.Parse(model.LeaveDateLayout, strings.TrimSpace(toDate))
	if err != nil {
		return time.Time{}, time.Time{}, appErr.ErrInvalid
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErr.ErrInvalid
	}
	return from, to, nil
}

func (s *LeaveService) Create(ctx context.Context, userID string, in CreateLeaveInput) (*model.LeaveRequest, error) {
	in.LeaveType = strings.TrimSpace(in.LeaveType)
	in.Reason = strings.TrimSpace(in.Reason)
	if in.LeaveType == "" || in.Reason == "" {
		return nil, appErr.ErrInvalid
	}
	from, to, err := parseLeaveRange(in.FromDate, in.ToDate)
	if err != nil {
		return nil, err
	}
	ts := timeutil.NowUnix()
	leave := &model.LeaveRequest{
		ID:        newID(),
		UserID:    userID,
		LeaveType: in.LeaveType,
		FromDate:  from.Format(model.LeaveDateLayout),
		ToDate:    to.Format(model.LeaveDateLayout),
		Reason:    in.Reason,
		Status:    model.LeaveStatusPending,
		Ctime:     ts,
		Mtime:     ts,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

func (s *LeaveService) ListMine(ctx context.Context, userID string) ([]model.LeaveRequest, error) {
	return s.leaves.ListByUser(ctx, userID)
}

func (s *LeaveService) ListForManager(ctx context.Context, managerID string) ([]model.LeaveRequest, error) {
	ids, err := s.users.ListIDsByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	return s.leaves.ListByUsers(ctx, ids)
}

// Review approves or rejects a pending request of one of the manager's
// employees. Approval deducts the requested days from the balance, never
// going below zero.
func (s *LeaveService) Review(ctx context.Context, managerID, leaveID, status string) (*model.LeaveRequest, error) {
	if status != model.LeaveStatusApproved && status != model.LeaveStatusRejected {
		return nil, appErr.ErrInvalid
	}
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	employee, err := s.users.GetByID(ctx, leave.UserID)
	if err != nil {
		return nil, err
	}
	if employee.ManagerID != managerID {
		return nil, appErr.ErrForbidden
	}
	from, to, err := parseLeaveRange(leave.FromDate, leave.ToDate)
	if err != nil {
		return nil, err
	}
	ts := timeutil.NowUnix()
	if err := s.leaves.Review(ctx, leave.ID, status, managerID, ts); err != nil {
		return nil, err
	}
	if status == model.LeaveStatusApproved {
		days := LeaveDays(from, to)
		left := employee.LeavesLeft - days
		if left < 0 {
			left = 0
		}
		if err := s.users.UpdateLeavesLeft(ctx, employee.ID, left, ts); err != nil {
			return nil, err
		}
		logutil.GetLogger(ctx).Info("leave approved",
			zap.String("leave_id", leave.ID),
			zap.String("user_id", employee.ID),
			zap.Int("days", days),
			zap.Int("leaves_left", left),
		)
	}
	leave.Status = status
	leave.ReviewedBy = managerID
	leave.ReviewedAt = ts
	leave.Mtime = ts
	return leave, nil
}

func (s *LeaveService) Stats(ctx context.Context, userID string) (*model.LeaveStats, error) {
	leaves, err := s.leaves.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &model.LeaveStats{TotalRequests: len(leaves)}
	for _, l := range leaves {
		switch l.Status {
		case model.LeaveStatusApproved:
			stats.Approved++
		case model.LeaveStatusPending:
			stats.Pending++
		case model.LeaveStatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}
