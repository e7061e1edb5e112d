package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/filestore"
	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/otp"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/jwt"
	"github.com/staffdesk/ems/internal/pkg/password"
	"github.com/staffdesk/ems/internal/pkg/timeutil"
)

type SignupInput struct {
	Name         string
	Email        string
	Password     string
	Role         string
	Code         string
	ManagerEmail string
}

type ResetPasswordInput struct {
	Email       string
	Role        string
	Code        string
	NewPassword string
}

// ProfileInput holds the fields a user may change on their own profile.
type ProfileInput struct {
	Name        *string
	Email       *string
	Position    *string
	Department  *string
	Phone       *string
	Address     *string
	JoiningDate *string
}

type PhotoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      filestore.ReadSeekCloser
}

type AuthService struct {
	users     UserStore
	accounts  *AccountService
	codes     *VerificationService
	files     filestore.Store
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users UserStore, accounts *AccountService, codes *VerificationService, files filestore.Store, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		accounts:  accounts,
		codes:     codes,
		files:     files,
		jwtSecret: secret,
		jwtTTL:    ttl,
	}
}

// SendCode checks that the address fits the purpose before a code is issued:
// signups need an unused address, resets an existing account.
func (s *AuthService) SendCode(ctx context.Context, email string, purpose otp.Purpose) error {
	email = strings.TrimSpace(email)
	if !validEmail(email) || !purpose.Valid() {
		return appErr.ErrInvalid
	}
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && purpose == otp.PurposeSignup:
		return appErr.ErrConflict
	case err != nil && !appErr.IsNotFound(err):
		return err
	case err != nil && purpose == otp.PurposePasswordReset:
		return appErr.ErrNotFound
	}
	return s.codes.RequestCode(ctx, email, purpose)
}

func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (otp.Purpose, error) {
	return s.codes.VerifyCode(ctx, email, code)
}

func (s *AuthService) CancelCode(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return appErr.ErrInvalid
	}
	return s.codes.CancelCode(ctx, email)
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || !validEmail(in.Email) || len(in.Password) < minPasswordLen || !validRole(in.Role) || strings.TrimSpace(in.Code) == "" {
		return nil, "", appErr.ErrInvalid
	}
	var managerID string
	if in.Role == model.RoleEmployee {
		managerEmail := strings.TrimSpace(in.ManagerEmail)
		if managerEmail == "" {
			return nil, "", appErr.ErrInvalid
		}
		manager, err := s.users.GetByEmailAndRole(ctx, managerEmail, model.RoleManager)
		if err != nil {
			if appErr.IsNotFound(err) {
				return nil, "", fmt.Errorf("%w: manager not found", appErr.ErrInvalid)
			}
			return nil, "", err
		}
		managerID = manager.ID
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return nil, "", err
	}
	if err := s.codes.ConsumeCode(ctx, in.Email, in.Code, otp.PurposeSignup); err != nil {
		return nil, "", err
	}
	user, err := s.accounts.Provision(ctx, ProvisionRequest{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		Role:      in.Role,
		ManagerID: managerID,
	})
	if err != nil {
		// the code is spent; the address may request a new one right away
		logutil.GetLogger(ctx).Warn("signup failed after code consumed", zap.String("email", in.Email), zap.Error(err))
		return nil, "", err
	}
	token, err := jwt.GenerateToken(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword, role string) (*model.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || plainPassword == "" || !validRole(role) {
		return nil, "", appErr.ErrInvalid
	}
	user, err := s.users.GetByEmailAndRole(ctx, email, role)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, "", appErr.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if user.Status == model.UserStatusTerminated {
		return nil, "", appErr.ErrForbidden
	}
	token, err := jwt.GenerateToken(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if !validEmail(in.Email) || !validRole(in.Role) || len(in.NewPassword) < minPasswordLen || strings.TrimSpace(in.Code) == "" {
		return appErr.ErrInvalid
	}
	user, err := s.users.GetByEmailAndRole(ctx, in.Email, in.Role)
	if err != nil {
		return err
	}
	if err := s.codes.ConsumeCode(ctx, in.Email, in.Code, otp.PurposePasswordReset); err != nil {
		return err
	}
	hash, err := password.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, timeutil.NowUnix()); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateMe applies a self-service profile update. The email address cannot be
// changed this way.
func (s *AuthService) UpdateMe(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != user.Email {
		return nil, fmt.Errorf("%w: email cannot be changed", appErr.ErrInvalid)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, appErr.ErrInvalid
	}
	upd := &model.UserUpdate{
		Name:        trimmed(in.Name),
		Position:    trimmed(in.Position),
		Department:  trimmed(in.Department),
		Phone:       trimmed(in.Phone),
		Address:     trimmed(in.Address),
		JoiningDate: trimmed(in.JoiningDate),
	}
	if err := s.users.Update(ctx, userID, upd, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// UploadPhoto stores the new photo and then drops the previous one. Failing
// to remove the old object is only logged.
func (s *AuthService) UploadPhoto(ctx context.Context, userID string, file PhotoUpload) (*model.User, error) {
	if file.Reader == nil || file.Size <= 0 || !strings.HasPrefix(file.ContentType, "image/") {
		return nil, appErr.ErrInvalid
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := newID() + strings.ToLower(path.Ext(file.FileName))
	if err := s.files.Save(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
		return nil, err
	}
	if err := s.users.UpdatePhoto(ctx, userID, s.files.URL(key), key, timeutil.NowUnix()); err != nil {
		return nil, err
	}
	if user.ProfilePicKey != "" {
		if err := s.files.Delete(ctx, user.ProfilePicKey); err != nil {
			logutil.GetLogger(ctx).Warn("delete previous photo failed",
				zap.String("user_id", userID),
				zap.String("key", user.ProfilePicKey),
				zap.Error(err),
			)
		}
	}
	return s.users.GetByID(ctx, userID)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
