package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/staffdesk/ems/internal/pkg/errcode"
)

type attendanceData struct {
	UserID  string `json:"user_id"`
	Date    string `json:"date"`
	Status  string `json:"status"`
	TimeIn  string `json:"time_in"`
	TimeOut string `json:"time_out"`
	Notes   string `json:"notes"`
}

type markData struct {
	Attendance attendanceData `json:"attendance"`
	Overridden bool           `json:"overridden"`
	Message    string         `json:"message"`
}

func TestAttendanceMarkAndLeaveOverride(t *testing.T) {
	srv := setupRouter(t)
	manager := srv.signup(t, "Mara", "mara@example.com", "manager", "")
	employee := srv.signup(t, "Eli", "eli@example.com", "employee", "mara@example.com")

	res := srv.do(t, http.MethodPost, "/api/v1/attendance/mark", manager.Token, map[string]string{
		"employee_id": employee.User.ID, "date": "2026-06-01", "status": "Present",
	})
	var marked markData
	decodeData(t, res, &marked)
	require.False(t, marked.Overridden)
	require.Empty(t, marked.Message)
	require.Equal(t, "09:00", marked.Attendance.TimeIn)
	require.Equal(t, "18:00", marked.Attendance.TimeOut)

	res = srv.do(t, http.MethodPost, "/api/v1/leaves", employee.Token, map[string]string{
		"leave_type": "annual", "from_date": "2026-06-02", "to_date": "2026-06-03", "reason": "trip",
	})
	var leave struct {
		ID string `json:"id"`
	}
	decodeData(t, res, &leave)
	res = srv.do(t, http.MethodPut, "/api/v1/leaves/"+leave.ID, manager.Token, map[string]string{"status": "approved"})
	require.Equal(t, 0, res.Code, res.Msg)

	res = srv.do(t, http.MethodPost, "/api/v1/attendance/mark", manager.Token, map[string]string{
		"employee_id": employee.User.ID, "date": "2026-06-02", "status": "Present", "notes": "came in",
	})
	decodeData(t, res, &marked)
	require.True(t, marked.Overridden)
	require.Equal(t, "Employee has an approved leave for this date. Status automatically set to Leave.", marked.Message)
	require.Equal(t, "Leave", marked.Attendance.Status)
	require.Equal(t, "came in (On Leave)", marked.Attendance.Notes)
	require.Empty(t, marked.Attendance.TimeIn)

	res = srv.do(t, http.MethodPost, "/api/v1/attendance/mark", employee.Token, map[string]string{
		"employee_id": employee.User.ID, "date": "2026-06-04", "status": "Present",
	})
	require.Equal(t, errcode.ErrForbidden, res.Code)

	res = srv.do(t, http.MethodPost, "/api/v1/attendance/mark", manager.Token, map[string]string{
		"employee_id": employee.User.ID, "date": "2026-06-04", "status": "Late",
	})
	require.Equal(t, errcode.ErrInvalid, res.Code)
}

func TestAttendanceRecordsAndSummary(t *testing.T) {
	srv := setupRouter(t)
	manager := srv.signup(t, "Mara", "mara@example.com", "manager", "")
	employee := srv.signup(t, "Eli", "eli@example.com", "employee", "mara@example.com")
	other := srv.signup(t, "Ola", "ola@example.com", "employee", "mara@example.com")

	for date, status := range map[string]string{"2026-06-01": "Present", "2026-06-02": "Present", "2026-06-03": "Absent", "2026-07-01": "Present"} {
		res := srv.do(t, http.MethodPost, "/api/v1/attendance/mark", manager.Token, map[string]string{
			"employee_id": employee.User.ID, "date": date, "status": status,
		})
		require.Equal(t, 0, res.Code, res.Msg)
	}
	res := srv.do(t, http.MethodPost, "/api/v1/attendance/mark", manager.Token, map[string]string{
		"employee_id": other.User.ID, "date": "2026-06-01", "status": "Absent",
	})
	require.Equal(t, 0, res.Code, res.Msg)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/records?month=6&year=2026", employee.Token, nil)
	var records []attendanceData
	decodeData(t, res, &records)
	require.Len(t, records, 3)
	for _, rec := range records {
		require.Equal(t, employee.User.ID, rec.UserID)
	}

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/records?month=6&year=2026", manager.Token, nil)
	decodeData(t, res, &records)
	require.Len(t, records, 4)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/records?employee_id="+other.User.ID, manager.Token, nil)
	decodeData(t, res, &records)
	require.Len(t, records, 1)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/records?month=6&year=2027", employee.Token, nil)
	require.Equal(t, 0, res.Code, res.Msg)
	require.JSONEq(t, `[]`, string(res.Data))

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/records?month=june&year=2026", employee.Token, nil)
	require.Equal(t, errcode.ErrInvalid, res.Code)
	res = srv.do(t, http.MethodGet, "/api/v1/attendance/records?month=6", employee.Token, nil)
	require.Equal(t, errcode.ErrInvalid, res.Code)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/summary/"+employee.User.ID+"?month=6&year=2026", manager.Token, nil)
	var summary struct {
		Present    int    `json:"present"`
		Absent     int    `json:"absent"`
		Leave      int    `json:"leave"`
		Total      int    `json:"total"`
		Percentage string `json:"percentage"`
	}
	decodeData(t, res, &summary)
	require.Equal(t, 2, summary.Present)
	require.Equal(t, 1, summary.Absent)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, "66.67", summary.Percentage)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/summary/"+employee.User.ID+"?month=8&year=2026", employee.Token, nil)
	decodeData(t, res, &summary)
	require.Equal(t, 0, summary.Total)
	require.Equal(t, "0", summary.Percentage)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/summary/"+other.User.ID+"?month=6&year=2026", employee.Token, nil)
	require.Equal(t, errcode.ErrForbidden, res.Code)
}

func TestAttendanceHolidays(t *testing.T) {
	srv := setupRouter(t)
	manager := srv.signup(t, "Mara", "mara@example.com", "manager", "")
	employee := srv.signup(t, "Eli", "eli@example.com", "employee", "mara@example.com")

	res := srv.do(t, http.MethodPost, "/api/v1/attendance/holiday", employee.Token, map[string]string{"name": "Founders", "date": "2026-07-04"})
	require.Equal(t, errcode.ErrForbidden, res.Code)

	for _, h := range []map[string]string{
		{"name": "Founders", "date": "2026-07-04", "description": "office closed"},
		{"name": "New Year", "date": "2026-01-01"},
	} {
		res = srv.do(t, http.MethodPost, "/api/v1/attendance/holiday", manager.Token, h)
		require.Equal(t, 0, res.Code, res.Msg)
	}
	res = srv.do(t, http.MethodPost, "/api/v1/attendance/holiday", manager.Token, map[string]string{"name": "Again", "date": "2026-07-04"})
	require.Equal(t, errcode.ErrConflict, res.Code)
	res = srv.do(t, http.MethodPost, "/api/v1/attendance/holiday", manager.Token, map[string]string{"date": "2026-08-01"})
	require.Equal(t, errcode.ErrInvalid, res.Code)

	var holidays []struct {
		Name string `json:"name"`
		Date string `json:"date"`
	}
	res = srv.do(t, http.MethodGet, "/api/v1/attendance/holidays", employee.Token, nil)
	decodeData(t, res, &holidays)
	require.Len(t, holidays, 2)
	require.Equal(t, "2026-01-01", holidays[0].Date)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/holidays?start_date=2026-06-01&end_date=2026-12-31", employee.Token, nil)
	decodeData(t, res, &holidays)
	require.Len(t, holidays, 1)
	require.Equal(t, "Founders", holidays[0].Name)

	res = srv.do(t, http.MethodGet, "/api/v1/attendance/holidays?start_date=2026-06-01", employee.Token, nil)
	require.Equal(t, errcode.ErrInvalid, res.Code)
}
