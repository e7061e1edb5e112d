package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/otp"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/metrics"
)

// CodeStore is the one-time code store the verification flow drives.
type CodeStore interface {
	Put(ctx context.Context, email string, purpose otp.Purpose) (string, error)
	Verify(ctx context.Context, email, code string) (otp.Purpose, error)
	Cancel(ctx context.Context, email string) error
	TTL() time.Duration
}

// VerificationService issues, checks and withdraws emailed one-time codes.
type VerificationService struct {
	store  CodeStore
	sender EmailSender
}

func NewVerificationService(store CodeStore, sender EmailSender) *VerificationService {
	return &VerificationService{store: store, sender: sender}
}

// RequestCode stores a fresh code and mails it. A failed delivery is reported
// as appErr.ErrDelivery but the stored code stays valid.
func (s *VerificationService) RequestCode(ctx context.Context, email string, purpose otp.Purpose) error {
	email = otp.NormalizeEmail(email)
	if !validEmail(email) || !purpose.Valid() {
		return appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("email", email), zap.String("purpose", string(purpose)))
	code, err := s.store.Put(ctx, email, purpose)
	if err != nil {
		var cooldown *otp.CooldownError
		if errors.As(err, &cooldown) {
			metrics.OTPRejected.WithLabelValues("cooldown").Inc()
			logger.Info("otp request within cooldown", zap.Int("remaining_seconds", cooldown.RemainingSeconds()))
		}
		return err
	}
	metrics.OTPIssued.WithLabelValues(string(purpose)).Inc()

	mail, err := renderOTPMail(purpose, code, s.store.TTL())
	if err != nil {
		return err
	}
	if err := s.sender.Send(email, mail.Subject, mail.Body); err != nil {
		metrics.MailFailures.Inc()
		logger.Error("send otp mail failed", zap.Error(err))
		return fmt.Errorf("%w: %v", appErr.ErrDelivery, err)
	}
	logger.Info("otp sent")
	return nil
}

// VerifyCode consumes the code. Missing, expired and wrong codes all come
// back as appErr.ErrInvalidCode.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string) (otp.Purpose, error) {
	purpose, err := s.store.Verify(ctx, email, code)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) || errors.Is(err, otp.ErrMismatch) {
			metrics.OTPRejected.WithLabelValues("invalid").Inc()
			return "", appErr.ErrInvalidCode
		}
		return "", err
	}
	metrics.OTPVerified.WithLabelValues(string(purpose)).Inc()
	return purpose, nil
}

// ConsumeCode verifies code and additionally requires it to have been issued
// for want.
func (s *VerificationService) ConsumeCode(ctx context.Context, email, code string, want otp.Purpose) error {
	purpose, err := s.VerifyCode(ctx, email, code)
	if err != nil {
		return err
	}
	if purpose != want {
		return appErr.ErrInvalidCode
	}
	return nil
}

func (s *VerificationService) CancelCode(ctx context.Context, email string) error {
	return s.store.Cancel(ctx, email)
}
