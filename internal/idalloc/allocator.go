// Package idalloc hands out human readable employee ids such as EMP-48213.
// Uniqueness is left to the store's unique constraint: each attempt commits
// the account and a collision triggers a fresh draw.
package idalloc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/metrics"
)

const (
	DefaultMaxAttempts = 5

	ManagerPrefix  = "MAN-"
	EmployeePrefix = "EMP-"

	minNumber  = 10000
	numberSpan = 90000
)

// CommitFunc persists the account under id. It must return an error wrapping
// appErr.ErrIDTaken when id is already in use.
type CommitFunc func(ctx context.Context, id string) error

type Allocator struct {
	maxAttempts int
	draw        func() (int, error)
}

type Option func(*Allocator)

func WithDraw(fn func() (int, error)) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.draw = fn
		}
	}
}

func New(maxAttempts int, opts ...Option) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	a := &Allocator{maxAttempts: maxAttempts, draw: drawNumber}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func PrefixFor(role string) string {
	if role == model.RoleManager {
		return ManagerPrefix
	}
	return EmployeePrefix
}

// Allocate draws ids for role and calls commit until one sticks. Errors other
// than a collision are returned as is, without retrying.
func (a *Allocator) Allocate(ctx context.Context, role string, commit CommitFunc) (string, error) {
	prefix := PrefixFor(role)
	logger := logutil.GetLogger(ctx).With(zap.String("prefix", prefix))
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := a.draw()
		if err != nil {
			return "", fmt.Errorf("draw employee id: %w", err)
		}
		id := fmt.Sprintf("%s%05d", prefix, n)
		err = commit(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, appErr.ErrIDTaken) {
			return "", err
		}
		metrics.EmployeeIDCollisions.WithLabelValues(prefix).Inc()
		logger.Warn("employee id collision, retrying", zap.Int("attempt", attempt), zap.Int("max_attempts", a.maxAttempts))
	}
	return "", appErr.ErrAllocationExhausted
}

func drawNumber() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(numberSpan))
	if err != nil {
		return 0, err
	}
	return minNumber + int(n.Int64()), nil
}
