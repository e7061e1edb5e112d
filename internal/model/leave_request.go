package model

const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"

	// LeaveDateLayout is the wire and storage format of leave dates.
	LeaveDateLayout = "2006-01-02"
)

type LeaveRequest struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	LeaveType  string `json:"leave_type"`
	FromDate   string `json:"from_date"`
	ToDate     string `json:"to_date"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
	ReviewedAt int64  `json:"reviewed_at,omitempty"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}

type LeaveStats struct {
	TotalRequests int `json:"total_requests"`
	Approved      int `json:"approved"`
	Pending       int `json:"pending"`
	Rejected      int `json:"rejected"`
}

type DashboardStats struct {
	TotalEmployees int `json:"total_employees"`
	ActiveTasks    int `json:"active_tasks"`
	PendingLeaves  int `json:"pending_leaves"`
}
