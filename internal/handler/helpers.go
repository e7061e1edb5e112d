package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/middleware"
	"github.com/staffdesk/ems/internal/otp"
	"github.com/staffdesk/ems/internal/pkg/errcode"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func getRole(c *gin.Context) string {
	return c.GetString(middleware.ContextRoleKey)
}

func badRequest(c *gin.Context, message string) {
	response.Error(c, errcode.ErrInvalid, message)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	var cooldown *otp.CooldownError
	switch {
	case errors.As(err, &cooldown):
		response.ErrorWithData(c, errcode.ErrTooMany, cooldown.Error(), gin.H{
			"remaining_seconds": cooldown.RemainingSeconds(),
		})
	case errors.Is(err, appErr.ErrInvalidCode):
		response.Error(c, errcode.ErrInvalidCode, appErr.ErrInvalidCode.Error())
	case errors.Is(err, appErr.ErrAllocationExhausted):
		logger.Error("employee id allocation exhausted")
		response.Error(c, errcode.ErrAllocationExhausted, appErr.ErrAllocationExhausted.Error())
	case errors.Is(err, appErr.ErrDelivery):
		response.Error(c, errcode.ErrDeliveryFailed, "failed to send email")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "invalid credentials")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "already exists")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
	default:
		logger.Error("request failed")
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
