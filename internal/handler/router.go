package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/staffdesk/ems/internal/middleware"
)

type RouterDeps struct {
	Auth       *AuthHandler
	Employees  *EmployeeHandler
	Tasks      *TaskHandler
	Leaves     *LeaveHandler
	Attendance *AttendanceHandler
	Files      *FileHandler
	JWTSecret  []byte
	// OTPRateWindow throttles the code endpoints per client. Zero disables it.
	OTPRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	otpLimit := middleware.RateLimit(deps.OTPRateWindow)
	api.POST("/auth/otp/send", otpLimit, deps.Auth.SendOTP)
	api.POST("/auth/otp/verify", otpLimit, deps.Auth.VerifyOTP)
	api.POST("/auth/otp/cancel", deps.Auth.CancelOTP)
	api.POST("/auth/signup", deps.Auth.Signup)
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/reset-password", deps.Auth.ResetPassword)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/me", deps.Auth.Me)
	authGroup.PUT("/auth/me", deps.Auth.UpdateMe)
	authGroup.POST("/auth/me/photo", deps.Auth.UploadPhoto)

	authGroup.GET("/tasks/my", deps.Tasks.ListMine)
	authGroup.GET("/tasks/stats", deps.Tasks.Stats)
	authGroup.PUT("/tasks/:id/accept", deps.Tasks.Accept)
	authGroup.PUT("/tasks/:id/status", deps.Tasks.UpdateStatus)

	authGroup.POST("/leaves", deps.Leaves.Create)
	authGroup.GET("/leaves/my", deps.Leaves.ListMine)
	authGroup.GET("/leaves/stats", deps.Leaves.Stats)

	authGroup.GET("/attendance/records", deps.Attendance.Records)
	authGroup.GET("/attendance/summary/:employee_id", deps.Attendance.Summary)
	authGroup.GET("/attendance/holidays", deps.Attendance.ListHolidays)

	managerGroup := authGroup.Group("")
	managerGroup.Use(middleware.RequireManager())
	managerGroup.POST("/employees", deps.Employees.Add)
	managerGroup.GET("/employees", deps.Employees.List)
	managerGroup.PUT("/employees/:id", deps.Employees.Update)
	managerGroup.DELETE("/employees/:id", deps.Employees.Delete)
	managerGroup.GET("/stats", deps.Employees.Stats)
	managerGroup.POST("/tasks", deps.Tasks.Create)
	managerGroup.GET("/tasks", deps.Tasks.ListAssigned)
	managerGroup.GET("/leaves", deps.Leaves.List)
	managerGroup.PUT("/leaves/:id", deps.Leaves.Review)
	managerGroup.POST("/attendance/mark", deps.Attendance.Mark)
	managerGroup.POST("/attendance/holiday", deps.Attendance.CreateHoliday)

	api.GET("/files/:key", deps.Files.Get)
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
