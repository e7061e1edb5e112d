package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/response"
	"github.com/staffdesk/ems/internal/service"
)

type EmployeeHandler struct {
	employees *service.EmployeeService
}

func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

type addEmployeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type addEmployeeResponse struct {
	Employee     *model.User `json:"employee"`
	MailSent     bool        `json:"mail_sent"`
	TempPassword string      `json:"temp_password,omitempty"`
}

type updateEmployeeRequest struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Position   string           `json:"position"`
	Department *string          `json:"department"`
	Salary     *decimal.Decimal `json:"salary"`
	LeavesLeft *int             `json:"leaves_left"`
	Status     *string          `json:"status"`
}

func (h *EmployeeHandler) Add(c *gin.Context) {
	var req addEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := h.employees.Add(c.Request.Context(), getUserID(c), service.AddEmployeeInput{Name: req.Name, Email: req.Email})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, addEmployeeResponse{
		Employee:     res.Employee,
		MailSent:     res.MailSent,
		TempPassword: res.TempPassword,
	})
}

func (h *EmployeeHandler) List(c *gin.Context) {
	employees, err := h.employees.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if employees == nil {
		employees = []model.User{}
	}
	response.Success(c, employees)
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	user, err := h.employees.Update(c.Request.Context(), getUserID(c), c.Param("id"), service.EmployeeUpdateInput{
		Name:       req.Name,
		Email:      req.Email,
		Position:   req.Position,
		Department: req.Department,
		Salary:     req.Salary,
		LeavesLeft: req.LeavesLeft,
		Status:     req.Status,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employees.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *EmployeeHandler) Stats(c *gin.Context) {
	stats, err := h.employees.Stats(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
