package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/otp"
	"github.com/staffdesk/ems/internal/pkg/response"
	"github.com/staffdesk/ems/internal/service"
)

type AuthHandler struct {
	auth         *service.AuthService
	maxPhotoSize int64
}

func NewAuthHandler(auth *service.AuthService, maxPhotoSize int64) *AuthHandler {
	return &AuthHandler{auth: auth, maxPhotoSize: maxPhotoSize}
}

type sendOTPRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type cancelOTPRequest struct {
	Email string `json:"email"`
}

type signupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Code         string `json:"code"`
	ManagerEmail string `json:"manager_email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type updateMeRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Position    *string `json:"position"`
	Department  *string `json:"department"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	JoiningDate *string `json:"joining_date"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	purpose, err := otp.ParsePurpose(req.Type)
	if err != nil {
		badRequest(c, "type must be signup or password_reset")
		return
	}
	if err := h.auth.SendCode(c.Request.Context(), req.Email, purpose); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.Email == "" || req.OTP == "" {
		badRequest(c, "email and otp are required")
		return
	}
	purpose, err := h.auth.VerifyCode(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"type": purpose})
}

func (h *AuthHandler) CancelOTP(c *gin.Context) {
	var req cancelOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.auth.CancelCode(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	user, token, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		Code:         req.Code,
		ManagerEmail: req.ManagerEmail,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, authResponse{Token: token, User: user})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	err := h.auth.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Email:       req.Email,
		Role:        req.Role,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	user, err := h.auth.UpdateMe(c.Request.Context(), getUserID(c), service.ProfileInput{
		Name:        req.Name,
		Email:       req.Email,
		Position:    req.Position,
		Department:  req.Department,
		Phone:       req.Phone,
		Address:     req.Address,
		JoiningDate: req.JoiningDate,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *AuthHandler) UploadPhoto(c *gin.Context) {
	photo, closeFn, ok := readPhoto(c, h.maxPhotoSize)
	if !ok {
		return
	}
	defer closeFn()
	user, err := h.auth.UploadPhoto(c.Request.Context(), getUserID(c), photo)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}
