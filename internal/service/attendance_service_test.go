package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

func TestAttendanceMarkDefaultsAndUpsert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")

	res, err := env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-04", Status: model.AttendancePresent})
	require.NoError(t, err)
	require.False(t, res.Overridden)
	require.Equal(t, model.DefaultTimeIn, res.Attendance.TimeIn)
	require.Equal(t, model.DefaultTimeOut, res.Attendance.TimeOut)
	require.Equal(t, mara.ID, res.Attendance.MarkedBy)
	firstID := res.Attendance.ID

	res, err = env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-04", Status: model.AttendanceAbsent, TimeIn: "10:00", Notes: "sick"})
	require.NoError(t, err)
	require.Equal(t, firstID, res.Attendance.ID)
	require.Empty(t, res.Attendance.TimeIn)
	require.Empty(t, res.Attendance.TimeOut)

	records, err := env.attendSvc.Records(ctx, eli.ID, model.RoleEmployee, AttendanceRecordsQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, model.AttendanceAbsent, records[0].Status)
	require.Equal(t, "sick", records[0].Notes)

	res, err = env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-05", Status: model.AttendancePresent, TimeIn: "08:30", TimeOut: "17:15"})
	require.NoError(t, err)
	require.Equal(t, "08:30", res.Attendance.TimeIn)
	require.Equal(t, "17:15", res.Attendance.TimeOut)
}

func TestAttendanceMarkValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	otto := env.signup(t, "Otto", "otto@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")

	cases := []MarkAttendanceInput{
		{UserID: eli.ID, Date: "2026-05-04", Status: "Late"},
		{UserID: eli.ID, Date: "04/05/2026", Status: model.AttendancePresent},
		{UserID: eli.ID, Date: "2026-05-04", Status: model.AttendancePresent, TimeIn: "9am"},
		{UserID: "", Date: "2026-05-04", Status: model.AttendancePresent},
	}
	for i, in := range cases {
		_, err := env.attendSvc.Mark(ctx, mara.ID, in)
		require.ErrorIs(t, err, appErr.ErrInvalid, "case %d", i)
	}

	_, err := env.attendSvc.Mark(ctx, otto.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-04", Status: model.AttendancePresent})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: "missing", Date: "2026-05-04", Status: model.AttendancePresent})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestAttendanceApprovedLeaveOverridesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")

	pending, err := env.leaveSvc.Create(ctx, eli.ID, CreateLeaveInput{LeaveType: "annual", FromDate: "2026-05-10", ToDate: "2026-05-12", Reason: "trip"})
	require.NoError(t, err)

	res, err := env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-11", Status: model.AttendancePresent})
	require.NoError(t, err)
	require.False(t, res.Overridden)
	require.Equal(t, model.AttendancePresent, res.Attendance.Status)

	_, err = env.leaveSvc.Review(ctx, mara.ID, pending.ID, model.LeaveStatusApproved)
	require.NoError(t, err)

	res, err = env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-11", Status: model.AttendancePresent, Notes: "came in"})
	require.NoError(t, err)
	require.True(t, res.Overridden)
	require.Equal(t, model.AttendanceLeave, res.Attendance.Status)
	require.Empty(t, res.Attendance.TimeIn)
	require.Equal(t, "came in (On Leave)", res.Attendance.Notes)

	res, err = env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-12", Status: model.AttendanceLeave})
	require.NoError(t, err)
	require.False(t, res.Overridden)
	require.Equal(t, "On Leave", res.Attendance.Notes)

	res, err = env.attendSvc.Mark(ctx, mara.ID, MarkAttendanceInput{UserID: eli.ID, Date: "2026-05-13", Status: model.AttendancePresent})
	require.NoError(t, err)
	require.Equal(t, model.AttendancePresent, res.Attendance.Status)
}

func TestAttendanceRecordsScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	otto := env.signup(t, "Otto", "otto@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")
	ada := env.signup(t, "Ada", "ada@example.com", model.RoleEmployee, "mara@example.com")

	for _, mark := range []MarkAttendanceInput{
		{UserID: eli.ID, Date: "2026-04-30", Status: model.AttendancePresent},
		{UserID: eli.ID, Date: "2026-05-01", Status: model.AttendancePresent},
		{UserID: eli.ID, Date: "2026-05-31", Status: model.AttendanceAbsent},
		{UserID: ada.ID, Date: "2026-05-02", Status: model.AttendancePresent},
	} {
		_, err := env.attendSvc.Mark(ctx, mara.ID, mark)
		require.NoError(t, err)
	}

	mine, err := env.attendSvc.Records(ctx, eli.ID, model.RoleEmployee, AttendanceRecordsQuery{EmployeeID: ada.ID, Month: 5, Year: 2026})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "2026-05-31", mine[0].Date)
	require.Equal(t, "2026-05-01", mine[1].Date)

	all, err := env.attendSvc.Records(ctx, mara.ID, model.RoleManager, AttendanceRecordsQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)

	one, err := env.attendSvc.Records(ctx, mara.ID, model.RoleManager, AttendanceRecordsQuery{EmployeeID: ada.ID})
	require.NoError(t, err)
	require.Len(t, one, 1)

	_, err = env.attendSvc.Records(ctx, otto.ID, model.RoleManager, AttendanceRecordsQuery{EmployeeID: eli.ID})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	none, err := env.attendSvc.Records(ctx, otto.ID, model.RoleManager, AttendanceRecordsQuery{})
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = env.attendSvc.Records(ctx, eli.ID, model.RoleEmployee, AttendanceRecordsQuery{Month: 5})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = env.attendSvc.Records(ctx, eli.ID, model.RoleEmployee, AttendanceRecordsQuery{Month: 13, Year: 2026})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestAttendanceSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mara := env.signup(t, "Mara", "mara@example.com", model.RoleManager, "")
	eli := env.signup(t, "Eli", "eli@example.com", model.RoleEmployee, "mara@example.com")
	ada := env.signup(t, "Ada", "ada@example.com", model.RoleEmployee, "mara@example.com")

	empty, err := env.attendSvc.Summary(ctx, mara.ID, model.RoleManager, eli.ID, 5, 2026)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Total)
	require.Equal(t, "0", empty.Percentage.String())

	for _, mark := range []MarkAttendanceInput{
		{UserID: eli.ID, Date: "2026-05-04", Status: model.AttendancePresent},
		{UserID: eli.ID, Date: "2026-05-05", Status: model.AttendancePresent},
		{UserID: eli.ID, Date: "2026-05-06", Status: model.AttendanceAbsent},
		{UserID: eli.ID, Date: "2026-06-01", Status: model.AttendanceAbsent},
	} {
		_, err := env.attendSvc.Mark(ctx, mara.ID, mark)
		require.NoError(t, err)
	}

	summary, err := env.attendSvc.Summary(ctx, eli.ID, model.RoleEmployee, eli.ID, 5, 2026)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Present)
	require.Equal(t, 1, summary.Absent)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, "66.67", summary.Percentage.String())

	_, err = env.attendSvc.Summary(ctx, ada.ID, model.RoleEmployee, eli.ID, 5, 2026)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = env.attendSvc.Summary(ctx, mara.ID, model.RoleManager, eli.ID, 0, 2026)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestHolidays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.attendSvc.CreateHoliday(ctx, "m1", HolidayInput{Name: " ", Date: "2026-12-25"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = env.attendSvc.CreateHoliday(ctx, "m1", HolidayInput{Name: "Xmas", Date: "25-12-2026"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	xmas, err := env.attendSvc.CreateHoliday(ctx, "m1", HolidayInput{Name: "Xmas", Date: "2026-12-25", Description: "office closed"})
	require.NoError(t, err)
	require.Equal(t, "m1", xmas.CreatedBy)
	_, err = env.attendSvc.CreateHoliday(ctx, "m1", HolidayInput{Name: "Dup", Date: "2026-12-25"})
	require.ErrorIs(t, err, appErr.ErrConflict)
	_, err = env.attendSvc.CreateHoliday(ctx, "m1", HolidayInput{Name: "New Year", Date: "2027-01-01"})
	require.NoError(t, err)

	all, err := env.attendSvc.ListHolidays(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Xmas", all[0].Name)

	inRange, err := env.attendSvc.ListHolidays(ctx, "2027-01-01", "2027-12-31")
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	require.Equal(t, "New Year", inRange[0].Name)

	_, err = env.attendSvc.ListHolidays(ctx, "2027-01-01", "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
