package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/response"
	"github.com/staffdesk/ems/internal/service"
)

type LeaveHandler struct {
	leaves *service.LeaveService
}

func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

type createLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	Reason    string `json:"reason"`
}

type reviewLeaveRequest struct {
	Status string `json:"status"`
}

func (h *LeaveHandler) Create(c *gin.Context) {
	var req createLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	leave, err := h.leaves.Create(c.Request.Context(), getUserID(c), service.CreateLeaveInput{
		LeaveType: req.LeaveType,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
		Reason:    req.Reason,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, leave)
}

func (h *LeaveHandler) ListMine(c *gin.Context) {
	leaves, err := h.leaves.ListMine(c.Request.Context(), getUserID(c))
	respondLeaves(c, leaves, err)
}

func (h *LeaveHandler) List(c *gin.Context) {
	leaves, err := h.leaves.ListForManager(c.Request.Context(), getUserID(c))
	respondLeaves(c, leaves, err)
}

func (h *LeaveHandler) Review(c *gin.Context) {
	var req reviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	leave, err := h.leaves.Review(c.Request.Context(), getUserID(c), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, leave)
}

func (h *LeaveHandler) Stats(c *gin.Context) {
	stats, err := h.leaves.Stats(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func respondLeaves(c *gin.Context, leaves []model.LeaveRequest, err error) {
	if err != nil {
		handleError(c, err)
		return
	}
	if leaves == nil {
		leaves = []model.LeaveRequest{}
	}
	response.Success(c, leaves)
}
