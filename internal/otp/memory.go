package otp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

const defaultMemoryCapacity = 100000

// ErrBackendFull is returned when every slot holds a live code.
var ErrBackendFull = fmt.Errorf("%w: otp memory backend is full", appErr.ErrTooMany)

// MemoryBackend keeps records in a bounded, expiring LRU. It suits single
// instance deployments and tests. A live record is never evicted to make room.
type MemoryBackend struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	cache    *expirable.LRU[string, *model.OTPRecord]
}

func NewMemoryBackend(capacity int, ttl time.Duration) *MemoryBackend {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryBackend{
		capacity: capacity,
		ttl:      ttl,
		cache:    expirable.NewLRU[string, *model.OTPRecord](capacity, nil, ttl),
	}
}

func (m *MemoryBackend) PutIfEligible(ctx context.Context, rec *model.OTPRecord, cooldown time.Duration) (*model.OTPRecord, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache.Peek(rec.Email); ok && rec.LastSentAt.Sub(existing.LastSentAt) < cooldown {
		return existing.Clone(), false, nil
	}
	if !m.cache.Contains(rec.Email) && m.cache.Len() >= m.capacity {
		// the oldest entry may only go once its code has expired
		_, oldest, ok := m.cache.GetOldest()
		if ok && rec.CreatedAt.Sub(oldest.CreatedAt) < m.ttl {
			return nil, false, ErrBackendFull
		}
		m.cache.RemoveOldest()
	}
	m.cache.Remove(rec.Email)
	m.cache.Add(rec.Email, rec.Clone())
	return nil, true, nil
}

func (m *MemoryBackend) Get(ctx context.Context, email string) (*model.OTPRecord, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cache.Peek(email)
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryBackend) DeleteIfHash(ctx context.Context, email, codeHash string) (bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cache.Peek(email)
	if !ok || rec.CodeHash != codeHash {
		return false, nil
	}
	return m.cache.Remove(email), nil
}

func (m *MemoryBackend) Delete(ctx context.Context, email string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(email)
	return nil
}

func (m *MemoryBackend) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, email := range m.cache.Keys() {
		rec, ok := m.cache.Peek(email)
		if ok && !rec.CreatedAt.After(cutoff) {
			m.cache.Remove(email)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}
