package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
)

type AttendanceStore interface {
	Upsert(ctx context.Context, rec *model.Attendance) error
	List(ctx context.Context, q model.AttendanceQuery) ([]model.Attendance, error)
}

type HolidayStore interface {
	Create(ctx context.Context, holiday *model.Holiday) error
	List(ctx context.Context, from, to string) ([]model.Holiday, error)
}

type MarkAttendanceInput struct {
	UserID  string
	Date    string
	Status  string
	TimeIn  string
	TimeOut string
	Notes   string
}

// MarkResult carries the stored record. Overridden is set when an approved
// leave replaced the requested status.
type MarkResult struct {
	Attendance *model.Attendance
	Overridden bool
}

type AttendanceRecordsQuery struct {
	EmployeeID string
	Month      int
	Year       int
}

type HolidayInput struct {
	Name        string
	Date        string
	Description string
}

type AttendanceService struct {
	records  AttendanceStore
	holidays HolidayStore
	leaves   LeaveStore
	users    UserStore
}

func NewAttendanceService(records AttendanceStore, holidays HolidayStore, leaves LeaveStore, users UserStore) *AttendanceService {
	return &AttendanceService{records: records, holidays: holidays, leaves: leaves, users: users}
}

func validAttendanceStatus(status string) bool {
	switch status {
	case model.AttendancePresent, model.AttendanceAbsent, model.AttendanceLeave:
		return true
	}
	return false
}

func parseDay(value string) (string, error) {
	day, err := time.Parse(model.LeaveDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", appErr.ErrInvalid
	}
	return day.Format(model.LeaveDateLayout), nil
}

func clockTime(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(model.AttendanceTimeLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: time must be HH:MM", appErr.ErrInvalid)
	}
	return t.Format(model.AttendanceTimeLayout), nil
}

// monthRange returns the first and last day of the month as stored dates.
func monthRange(month, year int) (string, string, error) {
	if month < 1 || month > 12 || year < 1 {
		return "", "", fmt.Errorf("%w: month and year are required", appErr.ErrInvalid)
	}
	first := now.With(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	return first.BeginningOfMonth().Format(model.LeaveDateLayout), first.EndOfMonth().Format(model.LeaveDateLayout), nil
}

// Mark records the day for one of the manager's employees, replacing any
// earlier record for that day. An approved leave covering the day forces the
// status to Leave. Clock times are only kept for Present.
func (s *AttendanceService) Mark(ctx context.Context, managerID string, in MarkAttendanceInput) (*MarkResult, error) {
	status := strings.TrimSpace(in.Status)
	if !validAttendanceStatus(status) {
		return nil, appErr.ErrInvalid
	}
	day, err := parseDay(in.Date)
	if err != nil {
		return nil, err
	}
	employee, err := s.ownedEmployee(ctx, managerID, strings.TrimSpace(in.UserID))
	if err != nil {
		return nil, err
	}
	onLeave := false
	if _, err := s.leaves.FindApprovedCovering(ctx, employee.ID, day); err == nil {
		onLeave = true
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}

	notes := strings.TrimSpace(in.Notes)
	requested := status
	if onLeave {
		status = model.AttendanceLeave
		if notes == "" {
			notes = "On Leave"
		} else {
			notes += " (On Leave)"
		}
	}
	var timeIn, timeOut string
	if status == model.AttendancePresent {
		if timeIn, err = clockTime(in.TimeIn, model.DefaultTimeIn); err != nil {
			return nil, err
		}
		if timeOut, err = clockTime(in.TimeOut, model.DefaultTimeOut); err != nil {
			return nil, err
		}
	}
	ts := timeutil.NowUnix()
	rec := &model.Attendance{
		ID:       newID(),
		UserID:   employee.ID,
		Date:     day,
		Status:   status,
		TimeIn:   timeIn,
		TimeOut:  timeOut,
		Notes:    notes,
		MarkedBy: managerID,
		Ctime:    ts,
		Mtime:    ts,
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	overridden := onLeave && requested != model.AttendanceLeave
	if overridden {
		logutil.GetLogger(ctx).Info("attendance set to leave",
			zap.String("user_id", employee.ID),
			zap.String("date", day),
			zap.String("requested", requested),
		)
	}
	return &MarkResult{Attendance: rec, Overridden: overridden}, nil
}

// Records lists attendance newest first. Employees only see their own;
// managers see one employee or all of theirs. Month and year filter together.
func (s *AttendanceService) Records(ctx context.Context, callerID, role string, q AttendanceRecordsQuery) ([]model.Attendance, error) {
	query := model.AttendanceQuery{}
	if q.Month != 0 || q.Year != 0 {
		from, to, err := monthRange(q.Month, q.Year)
		if err != nil {
			return nil, err
		}
		query.From, query.To = from, to
	}
	switch {
	case role != model.RoleManager:
		query.UserIDs = []string{callerID}
	case strings.TrimSpace(q.EmployeeID) != "":
		employee, err := s.ownedEmployee(ctx, callerID, strings.TrimSpace(q.EmployeeID))
		if err != nil {
			return nil, err
		}
		query.UserIDs = []string{employee.ID}
	default:
		ids, err := s.users.ListIDsByManager(ctx, callerID)
		if err != nil {
			return nil, err
		}
		query.UserIDs = ids
	}
	return s.records.List(ctx, query)
}

// Summary counts one employee's month. Percentage is present over all
// records and zero for a month without records.
func (s *AttendanceService) Summary(ctx context.Context, callerID, role, employeeID string, month, year int) (*model.AttendanceSummary, error) {
	from, to, err := monthRange(month, year)
	if err != nil {
		return nil, err
	}
	employeeID = strings.TrimSpace(employeeID)
	if role == model.RoleManager {
		if _, err := s.ownedEmployee(ctx, callerID, employeeID); err != nil {
			return nil, err
		}
	} else if employeeID != callerID {
		return nil, appErr.ErrForbidden
	}
	records, err := s.records.List(ctx, model.AttendanceQuery{UserIDs: []string{employeeID}, From: from, To: to})
	if err != nil {
		return nil, err
	}
	summary := &model.AttendanceSummary{Total: len(records), Percentage: decimal.Zero}
	for _, r := range records {
		switch r.Status {
		case model.AttendancePresent:
			summary.Present++
		case model.AttendanceAbsent:
			summary.Absent++
		case model.AttendanceLeave:
			summary.Leave++
		}
	}
	if summary.Total > 0 {
		summary.Percentage = decimal.NewFromInt(int64(summary.Present * 100)).
			Div(decimal.NewFromInt(int64(summary.Total))).
			Round(2)
	}
	return summary, nil
}

func (s *AttendanceService) CreateHoliday(ctx context.Context, managerID string, in HolidayInput) (*model.Holiday, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	day, err := parseDay(in.Date)
	if err != nil {
		return nil, err
	}
	holiday := &model.Holiday{
		ID:          newID(),
		Name:        name,
		Date:        day,
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   managerID,
		Ctime:       timeutil.NowUnix(),
	}
	if err := s.holidays.Create(ctx, holiday); err != nil {
		return nil, err
	}
	return holiday, nil
}

// ListHolidays filters by an inclusive range when both ends are given.
func (s *AttendanceService) ListHolidays(ctx context.Context, from, to string) ([]model.Holiday, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return s.holidays.List(ctx, "", "")
	}
	start, end, err := parseLeaveRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.holidays.List(ctx, start.Format(model.LeaveDateLayout), end.Format(model.LeaveDateLayout))
}

// ownedEmployee resolves an employee of managerID. Unknown ids are not found;
// other managers' employees are forbidden.
func (s *AttendanceService) ownedEmployee(ctx context.Context, managerID, userID string) (*model.User, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleEmployee || user.ManagerID != managerID {
		return nil, appErr.ErrForbidden
	}
	return user, nil
}
