package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/response"
	"github.com/staffdesk/ems/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    int64  `json:"deadline"`
	AssignedTo  string `json:"assigned_to"`
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), getUserID(c), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) ListAssigned(c *gin.Context) {
	tasks, err := h.tasks.ListAssigned(c.Request.Context(), getUserID(c))
	respondTasks(c, tasks, err)
}

func (h *TaskHandler) ListMine(c *gin.Context) {
	tasks, err := h.tasks.ListMine(c.Request.Context(), getUserID(c))
	respondTasks(c, tasks, err)
}

func (h *TaskHandler) Accept(c *gin.Context) {
	task, err := h.tasks.Accept(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	task, err := h.tasks.UpdateStatus(c.Request.Context(), getUserID(c), getRole(c), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func respondTasks(c *gin.Context, tasks []model.Task, err error) {
	if err != nil {
		handleError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	response.Success(c, tasks)
}
