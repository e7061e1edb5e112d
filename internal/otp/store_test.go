package otp

import (
	"context"
	"errors"
	"os"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appErr "github.com/staffdesk/ems/internal/pkg/errors"
	"github.com/staffdesk/ems/internal/pkg/password"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func newTestStore(clock *fakeClock, code string) (*Store, *MemoryBackend) {
	backend := NewMemoryBackend(0, DefaultTTL)
	return NewStore(backend, WithClock(clock.Now), WithCodeGenerator(fixedCode(code))), backend
}

func TestStorePutVerifyScenario(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, backend := newTestStore(clock, "123456")

	code, err := store.Put(ctx, "a@x.com", PurposeSignup)
	require.NoError(t, err)
	require.Equal(t, "123456", code)

	rec, err := backend.Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "123456", rec.CodeHash)

	clock.Advance(10 * time.Second)
	purpose, err := store.Verify(ctx, "a@x.com", "123456")
	require.NoError(t, err)
	require.Equal(t, PurposeSignup, purpose)
	require.Equal(t, 0, backend.Len())

	clock.Advance(time.Second)
	_, err = store.Verify(ctx, "a@x.com", "123456")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStorePutCooldown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, backend := newTestStore(clock, "111111")

	_, err := store.Put(ctx, "a@x.com", PurposeSignup)
	require.NoError(t, err)
	first, err := backend.Get(ctx, "a@x.com")
	require.NoError(t, err)

	clock.Advance(15 * time.Second)
	_, err = store.Put(ctx, "a@x.com", PurposePasswordReset)
	var cooldown *CooldownError
	require.True(t, errors.As(err, &cooldown))
	require.Equal(t, 45, cooldown.RemainingSeconds())
	require.ErrorIs(t, err, appErr.ErrTooMany)

	again, err := backend.Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, first, again)

	clock.Advance(45 * time.Second)
	store.generate = fixedCode("222222")
	code, err := store.Put(ctx, "a@x.com", PurposePasswordReset)
	require.NoError(t, err)
	require.Equal(t, "222222", code)

	_, err = store.Verify(ctx, "a@x.com", "111111")
	require.ErrorIs(t, err, ErrMismatch)
	purpose, err := store.Verify(ctx, "a@x.com", "222222")
	require.NoError(t, err)
	require.Equal(t, PurposePasswordReset, purpose)
}

func TestStoreMismatchKeepsRecord(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, _ := newTestStore(clock, "654321")

	_, err := store.Put(ctx, "b@x.com", PurposeSignup)
	require.NoError(t, err)

	_, err = store.Verify(ctx, "b@x.com", "000000")
	require.ErrorIs(t, err, ErrMismatch)

	clock.Advance(30 * time.Second)
	purpose, err := store.Verify(ctx, "b@x.com", "654321")
	require.NoError(t, err)
	require.Equal(t, PurposeSignup, purpose)
}

func TestStoreRejectsExpiredCode(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, _ := newTestStore(clock, "123456")

	_, err := store.Put(ctx, "c@x.com", PurposeSignup)
	require.NoError(t, err)

	clock.Advance(119 * time.Second)
	_, err = store.Verify(ctx, "c@x.com", "999999")
	require.ErrorIs(t, err, ErrMismatch)

	clock.Advance(time.Second)
	_, err = store.Verify(ctx, "c@x.com", "123456")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreCancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, backend := newTestStore(clock, "123456")

	require.NoError(t, store.Cancel(ctx, "d@x.com"))
	_, err := store.Put(ctx, "d@x.com", PurposeSignup)
	require.NoError(t, err)
	require.NoError(t, store.Cancel(ctx, "D@x.com "))
	require.NoError(t, store.Cancel(ctx, "d@x.com"))
	require.Equal(t, 0, backend.Len())

	_, err = store.Put(ctx, "d@x.com", PurposeSignup)
	require.NoError(t, err, "cancel frees the cooldown slot")
}

func TestStoreNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, _ := newTestStore(clock, "123456")

	_, err := store.Put(ctx, "  Mixed@Example.COM ", PurposeSignup)
	require.NoError(t, err)
	_, err = store.Verify(ctx, "mixed@example.com", "123456")
	require.NoError(t, err)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(newFakeClock(), "123456")

	_, err := store.Put(ctx, " ", PurposeSignup)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = store.Put(ctx, "e@x.com", Purpose("admin"))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, backend.Len())
}

func TestStoreConcurrentPutKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store, backend := newTestStore(clock, "123456")

	var wg sync.WaitGroup
	var succeeded, cooled atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Put(ctx, "race@x.com", PurposeSignup)
			var cooldown *CooldownError
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.As(err, &cooldown):
				cooled.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), succeeded.Load())
	require.Equal(t, int32(15), cooled.Load())
	require.Equal(t, 1, backend.Len())
}

func TestStoreVerifySucceedsOnce(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(newFakeClock(), "123456")
	_, err := store.Put(ctx, "once@x.com", PurposeSignup)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Verify(ctx, "once@x.com", "123456"); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ok.Load())
}

func TestParsePurpose(t *testing.T) {
	p, err := ParsePurpose("signup")
	require.NoError(t, err)
	require.Equal(t, PurposeSignup, p)

	p, err = ParsePurpose("forgot")
	require.NoError(t, err)
	require.Equal(t, PurposePasswordReset, p)

	p, err = ParsePurpose(" PASSWORD_RESET ")
	require.NoError(t, err)
	require.Equal(t, PurposePasswordReset, p)

	_, err = ParsePurpose("login")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Regexp(t, re, code)
	}
}

func TestCooldownErrorRoundsUp(t *testing.T) {
	require.Equal(t, 1, (&CooldownError{Remaining: 10 * time.Millisecond}).RemainingSeconds())
	require.Equal(t, 30, (&CooldownError{Remaining: 29500 * time.Millisecond}).RemainingSeconds())
	require.Contains(t, (&CooldownError{Remaining: 5 * time.Second}).Error(), "5 seconds")
}

func TestStoreFullMemoryBackendKeepsCooldown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewStore(NewMemoryBackend(1, DefaultTTL), WithClock(clock.Now), WithCodeGenerator(fixedCode("123456")))

	_, err := store.Put(ctx, "a@x.com", PurposeSignup)
	require.NoError(t, err)
	_, err = store.Put(ctx, "b@x.com", PurposeSignup)
	require.ErrorIs(t, err, ErrBackendFull)
	require.ErrorIs(t, err, appErr.ErrTooMany)

	_, err = store.Put(ctx, "a@x.com", PurposeSignup)
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)

	purpose, err := store.Verify(ctx, "a@x.com", "123456")
	require.NoError(t, err)
	require.Equal(t, PurposeSignup, purpose)
}
