// Package otp keeps at most one short-lived, hashed one-time code per email
// address and enforces the resend cooldown and the absolute expiry window.
package otp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposePasswordReset Purpose = "password_reset"
)

const (
	DefaultCooldown = 60 * time.Second
	DefaultTTL      = 120 * time.Second
)

var (
	ErrNotFound = errors.New("otp: no live code")
	ErrMismatch = errors.New("otp: code mismatch")
)

// ParsePurpose accepts the canonical purposes plus "forgot", the name the web
// client uses for password resets.
func ParsePurpose(s string) (Purpose, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PurposeSignup):
		return PurposeSignup, nil
	case string(PurposePasswordReset), "forgot":
		return PurposePasswordReset, nil
	}
	return "", appErr.ErrInvalid
}

func (p Purpose) Valid() bool {
	return p == PurposeSignup || p == PurposePasswordReset
}

func (p Purpose) Title() string {
	if p == PurposeSignup {
		return "Sign Up"
	}
	return "Password Reset"
}

// CooldownError is returned by Put while the previous code for the address is
// younger than the cooldown.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", e.RemainingSeconds())
}

func (e *CooldownError) Unwrap() error {
	return appErr.ErrTooMany
}

func (e *CooldownError) RemainingSeconds() int {
	secs := int(math.Ceil(e.Remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Backend persists OTP records. Every implementation must make PutIfEligible
// atomic per email: the cooldown check and the replacement happen as one step.
type Backend interface {
	// PutIfEligible replaces the record for rec.Email unless the existing
	// record was sent less than cooldown before rec.LastSentAt. When refused,
	// stored is false and blocking holds the record that is still cooling
	// down (it may be nil if it vanished meanwhile).
	PutIfEligible(ctx context.Context, rec *model.OTPRecord, cooldown time.Duration) (blocking *model.OTPRecord, stored bool, err error)
	// Get returns ErrNotFound when no record exists.
	Get(ctx context.Context, email string) (*model.OTPRecord, error)
	// DeleteIfHash removes the record only if it still carries codeHash.
	DeleteIfHash(ctx context.Context, email, codeHash string) (bool, error)
	Delete(ctx context.Context, email string) error
}

// Reaper is implemented by backends without native expiry.
type Reaper interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
