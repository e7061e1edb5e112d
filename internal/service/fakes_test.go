package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/staffdesk/ems/internal/idalloc"
	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/otp"
	"github.com/staffdesk/ems/internal/pkg/password"
	"github.com/staffdesk/ems/internal/testutil"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

var errSMTPDown = errors.New("smtp: connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

// testEnv wires every service against in-memory stores.
type testEnv struct {
	clock     *fakeClock
	users     *testutil.MemUsers
	tasks     *testutil.MemTasks
	leaves    *testutil.MemLeaves
	records   *testutil.MemAttendance
	holidays  *testutil.MemHolidays
	files     *testutil.MemFiles
	sender    *testutil.MailRecorder
	codes     *otp.Store
	verify    *VerificationService
	accounts  *AccountService
	auth      *AuthService
	employees *EmployeeService
	taskSvc   *TaskService
	leaveSvc  *LeaveService
	attendSvc *AttendanceService
}

const testCode = "424242"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:    &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		users:    testutil.NewMemUsers(),
		tasks:    testutil.NewMemTasks(),
		leaves:   testutil.NewMemLeaves(),
		records:  testutil.NewMemAttendance(),
		holidays: testutil.NewMemHolidays(),
		files:    testutil.NewMemFiles(),
		sender:   &testutil.MailRecorder{},
	}
	env.codes = otp.NewStore(otp.NewMemoryBackend(128, otp.DefaultTTL),
		otp.WithClock(env.clock.Now),
		otp.WithCodeGenerator(func() (string, error) { return testCode, nil }),
	)
	env.verify = NewVerificationService(env.codes, env.sender)
	env.accounts = NewAccountService(env.users, idalloc.New(idalloc.DefaultMaxAttempts))
	env.auth = NewAuthService(env.users, env.accounts, env.verify, env.files, []byte("test-secret"), time.Hour)
	env.employees = NewEmployeeService(env.users, env.tasks, env.leaves, env.accounts, env.sender, "https://ems.example.com/login")
	env.taskSvc = NewTaskService(env.tasks, env.users)
	env.leaveSvc = NewLeaveService(env.leaves, env.users)
	env.attendSvc = NewAttendanceService(env.records, env.holidays, env.leaves, env.users)
	return env
}

// signup registers an account through the code flow.
func (e *testEnv) signup(t *testing.T, name, email, role, managerEmail string) *model.User {
	t.Helper()
	ctx := context.Background()
	if err := e.auth.SendCode(ctx, email, otp.PurposeSignup); err != nil {
		t.Fatalf("send code: %v", err)
	}
	user, _, err := e.auth.Signup(ctx, SignupInput{
		Name:         name,
		Email:        email,
		Password:     "secret123",
		Role:         role,
		Code:         testCode,
		ManagerEmail: managerEmail,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	// let the next code for another address go out without waiting
	e.clock.Advance(otp.DefaultCooldown)
	return user
}
