package model

import "github.com/shopspring/decimal"

const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLeave   = "Leave"

	DefaultTimeIn  = "09:00"
	DefaultTimeOut = "18:00"

	// AttendanceTimeLayout is the format of TimeIn and TimeOut.
	AttendanceTimeLayout = "15:04"
)

// Attendance is one employee's record for one day. Date uses LeaveDateLayout
// and (UserID, Date) is unique.
type Attendance struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	TimeIn   string `json:"time_in"`
	TimeOut  string `json:"time_out"`
	Notes    string `json:"notes"`
	MarkedBy string `json:"marked_by"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}

// AttendanceQuery selects records of UserIDs, optionally bounded by an
// inclusive date range.
type AttendanceQuery struct {
	UserIDs []string
	From    string
	To      string
}

type AttendanceSummary struct {
	Present    int             `json:"present"`
	Absent     int             `json:"absent"`
	Leave      int             `json:"leave"`
	Total      int             `json:"total"`
	Percentage decimal.Decimal `json:"percentage"`
}

type Holiday struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
	Ctime       int64  `json:"ctime"`
}
