package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/password"
)

const codeSpace = 1000000

type Store struct {
	backend  Backend
	now      func() time.Time
	generate func() (string, error)
	cooldown time.Duration
	ttl      time.Duration
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *Store) {
		if fn != nil {
			s.generate = fn
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		now:      time.Now,
		generate: GenerateCode,
		cooldown: DefaultCooldown,
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Put issues a fresh code for email and returns it in plaintext for delivery.
// The plaintext is never stored.
func (s *Store) Put(ctx context.Context, email string, purpose Purpose) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || !purpose.Valid() {
		return "", appErr.ErrInvalid
	}
	now := s.now()
	// Cheap pre-check so refused requests skip the bcrypt round.
	if existing, err := s.backend.Get(ctx, email); err == nil {
		if err := s.cooldownErr(existing, now); err != nil {
			return "", err
		}
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := password.Hash(code)
	if err != nil {
		return "", err
	}
	rec := &model.OTPRecord{
		Email:      email,
		CodeHash:   hash,
		Purpose:    string(purpose),
		LastSentAt: now,
		CreatedAt:  now,
	}
	blocking, stored, err := s.backend.PutIfEligible(ctx, rec, s.cooldown)
	if err != nil {
		return "", err
	}
	if !stored {
		if blocking == nil {
			return "", &CooldownError{Remaining: s.cooldown}
		}
		if err := s.cooldownErr(blocking, now); err != nil {
			return "", err
		}
		return "", &CooldownError{}
	}
	return code, nil
}

// Verify consumes the live code for email. A mismatch keeps the record so the
// caller may retry inside the expiry window.
func (s *Store) Verify(ctx context.Context, email, code string) (Purpose, error) {
	email = NormalizeEmail(email)
	if email == "" || code == "" {
		return "", ErrNotFound
	}
	rec, err := s.backend.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if s.expired(rec, s.now()) {
		_, _ = s.backend.DeleteIfHash(ctx, email, rec.CodeHash)
		return "", ErrNotFound
	}
	if err := password.Compare(rec.CodeHash, code); err != nil {
		return "", ErrMismatch
	}
	deleted, err := s.backend.DeleteIfHash(ctx, email, rec.CodeHash)
	if err != nil {
		return "", err
	}
	if !deleted {
		// Consumed or replaced by a concurrent caller.
		return "", ErrNotFound
	}
	return Purpose(rec.Purpose), nil
}

func (s *Store) Cancel(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}
	return s.backend.Delete(ctx, email)
}

func (s *Store) cooldownErr(rec *model.OTPRecord, now time.Time) error {
	if s.expired(rec, now) {
		return nil
	}
	elapsed := now.Sub(rec.LastSentAt)
	if elapsed < s.cooldown {
		return &CooldownError{Remaining: s.cooldown - elapsed}
	}
	return nil
}

func (s *Store) expired(rec *model.OTPRecord, now time.Time) bool {
	return now.Sub(rec.CreatedAt) >= s.ttl
}

// GenerateCode draws a uniformly random six digit code, zero padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
