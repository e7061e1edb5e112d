package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/response"
	"github.com/staffdesk/ems/internal/service"
)

const leaveOverrideMessage = "Employee has an approved leave for this date. Status automatically set to Leave."

type AttendanceHandler struct {
	attendance *service.AttendanceService
}

func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type markAttendanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	TimeIn     string `json:"time_in"`
	TimeOut    string `json:"time_out"`
	Notes      string `json:"notes"`
}

type markAttendanceResponse struct {
	Attendance *model.Attendance `json:"attendance"`
	Overridden bool              `json:"overridden"`
	Message    string            `json:"message,omitempty"`
}

type createHolidayRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// queryInt reads an optional integer query parameter; a missing value is 0.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+key)
		return 0, false
	}
	return v, true
}

func monthYearQuery(c *gin.Context) (int, int, bool) {
	month, ok := queryInt(c, "month")
	if !ok {
		return 0, 0, false
	}
	year, ok := queryInt(c, "year")
	if !ok {
		return 0, 0, false
	}
	return month, year, true
}

func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := h.attendance.Mark(c.Request.Context(), getUserID(c), service.MarkAttendanceInput{
		UserID:  req.EmployeeID,
		Date:    req.Date,
		Status:  req.Status,
		TimeIn:  req.TimeIn,
		TimeOut: req.TimeOut,
		Notes:   req.Notes,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	out := markAttendanceResponse{Attendance: res.Attendance, Overridden: res.Overridden}
	if res.Overridden {
		out.Message = leaveOverrideMessage
	}
	response.Success(c, out)
}

func (h *AttendanceHandler) Records(c *gin.Context) {
	month, year, ok := monthYearQuery(c)
	if !ok {
		return
	}
	records, err := h.attendance.Records(c.Request.Context(), getUserID(c), getRole(c), service.AttendanceRecordsQuery{
		EmployeeID: c.Query("employee_id"),
		Month:      month,
		Year:       year,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if records == nil {
		records = []model.Attendance{}
	}
	response.Success(c, records)
}

func (h *AttendanceHandler) Summary(c *gin.Context) {
	month, year, ok := monthYearQuery(c)
	if !ok {
		return
	}
	summary, err := h.attendance.Summary(c.Request.Context(), getUserID(c), getRole(c), c.Param("employee_id"), month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *AttendanceHandler) CreateHoliday(c *gin.Context) {
	var req createHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	holiday, err := h.attendance.CreateHoliday(c.Request.Context(), getUserID(c), service.HolidayInput{
		Name:        req.Name,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, holiday)
}

func (h *AttendanceHandler) ListHolidays(c *gin.Context) {
	holidays, err := h.attendance.ListHolidays(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		handleError(c, err)
		return
	}
	if holidays == nil {
		holidays = []model.Holiday{}
	}
	response.Success(c, holidays)
}
