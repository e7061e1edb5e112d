package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/staffdesk/ems/internal/model"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

// In-memory stores mirroring the repo semantics the services rely on: unique
// employee ids and emails, manager scoped listings and pending-only reviews.

type MemUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewMemUsers() *MemUsers {
	return &MemUsers{users: map[string]*model.User{}}
}

func (m *MemUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmployeeID == user.EmployeeID {
			return appErr.ErrIDTaken
		}
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemUsers) find(match func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *MemUsers) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == userID })
}

func (m *MemUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *MemUsers) GetByEmailAndRole(ctx context.Context, email, role string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email && u.Role == role })
}

func (m *MemUsers) ListByManager(ctx context.Context, managerID string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleEmployee && u.ManagerID == managerID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemUsers) ListIDsByManager(ctx context.Context, managerID string) ([]string, error) {
	users, _ := m.ListByManager(ctx, managerID)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (m *MemUsers) mutate(userID string, fn func(u *model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return appErr.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *MemUsers) Update(ctx context.Context, userID string, upd *model.UserUpdate, mtime int64) error {
	return m.mutate(userID, func(u *model.User) {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&u.Name, upd.Name)
		set(&u.Email, upd.Email)
		set(&u.Position, upd.Position)
		set(&u.Department, upd.Department)
		set(&u.Phone, upd.Phone)
		set(&u.Address, upd.Address)
		set(&u.JoiningDate, upd.JoiningDate)
		set(&u.Status, upd.Status)
		if upd.Salary != nil {
			u.Salary = *upd.Salary
		}
		if upd.LeavesLeft != nil {
			u.LeavesLeft = *upd.LeavesLeft
		}
		u.Mtime = mtime
	})
}

func (m *MemUsers) UpdatePassword(ctx context.Context, userID, passwordHash string, mtime int64) error {
	return m.mutate(userID, func(u *model.User) { u.PasswordHash = passwordHash })
}

func (m *MemUsers) UpdatePhoto(ctx context.Context, userID, url, key string, mtime int64) error {
	return m.mutate(userID, func(u *model.User) {
		u.ProfilePic = url
		u.ProfilePicKey = key
	})
}

func (m *MemUsers) UpdateLeavesLeft(ctx context.Context, userID string, leavesLeft int, mtime int64) error {
	return m.mutate(userID, func(u *model.User) { u.LeavesLeft = leavesLeft })
}

func (m *MemUsers) DeleteEmployee(ctx context.Context, managerID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.Role != model.RoleEmployee || u.ManagerID != managerID {
		return appErr.ErrNotFound
	}
	delete(m.users, userID)
	return nil
}

type MemTasks struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
}

func NewMemTasks() *MemTasks {
	return &MemTasks{tasks: map[string]*model.Task{}}
}

func (m *MemTasks) Create(ctx context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *MemTasks) GetByID(ctx context.Context, taskID string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemTasks) filter(match func(*model.Task) bool) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.tasks {
		if match(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline < out[j].Deadline })
	return out
}

func (m *MemTasks) ListByAssigner(ctx context.Context, managerID string) ([]model.Task, error) {
	return m.filter(func(t *model.Task) bool { return t.AssignedBy == managerID }), nil
}

func (m *MemTasks) ListByAssignee(ctx context.Context, userID string) ([]model.Task, error) {
	return m.filter(func(t *model.Task) bool { return t.AssignedTo == userID }), nil
}

func (m *MemTasks) UpdateState(ctx context.Context, taskID, status string, accepted bool, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return appErr.ErrNotFound
	}
	t.Status = status
	t.Accepted = accepted
	t.Mtime = mtime
	return nil
}

func (m *MemTasks) CountOpenByAssignees(ctx context.Context, userIDs []string) (int, error) {
	set := toSet(userIDs)
	return len(m.filter(func(t *model.Task) bool {
		return set[t.AssignedTo] && t.Status != model.TaskStatusCompleted
	})), nil
}

type MemLeaves struct {
	mu     sync.Mutex
	leaves map[string]*model.LeaveRequest
}

func NewMemLeaves() *MemLeaves {
	return &MemLeaves{leaves: map[string]*model.LeaveRequest{}}
}

func (m *MemLeaves) Create(ctx context.Context, leave *model.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *leave
	m.leaves[leave.ID] = &cp
	return nil
}

func (m *MemLeaves) GetByID(ctx context.Context, leaveID string) (*model.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaves[leaveID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MemLeaves) filter(match func(*model.LeaveRequest) bool) []model.LeaveRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LeaveRequest
	for _, l := range m.leaves {
		if match(l) {
			out = append(out, *l)
		}
	}
	return out
}

func (m *MemLeaves) ListByUser(ctx context.Context, userID string) ([]model.LeaveRequest, error) {
	return m.filter(func(l *model.LeaveRequest) bool { return l.UserID == userID }), nil
}

func (m *MemLeaves) ListByUsers(ctx context.Context, userIDs []string) ([]model.LeaveRequest, error) {
	set := toSet(userIDs)
	return m.filter(func(l *model.LeaveRequest) bool { return set[l.UserID] }), nil
}

func (m *MemLeaves) Review(ctx context.Context, leaveID, status, reviewerID string, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaves[leaveID]
	if !ok || l.Status != model.LeaveStatusPending {
		return appErr.ErrConflict
	}
	l.Status = status
	l.ReviewedBy = reviewerID
	l.ReviewedAt = now
	return nil
}

func (m *MemLeaves) CountPendingByUsers(ctx context.Context, userIDs []string) (int, error) {
	set := toSet(userIDs)
	return len(m.filter(func(l *model.LeaveRequest) bool {
		return set[l.UserID] && l.Status == model.LeaveStatusPending
	})), nil
}

func (m *MemLeaves) FindApprovedCovering(ctx context.Context, userID, date string) (*model.LeaveRequest, error) {
	found := m.filter(func(l *model.LeaveRequest) bool {
		return l.UserID == userID && l.Status == model.LeaveStatusApproved && l.FromDate <= date && l.ToDate >= date
	})
	if len(found) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &found[0], nil
}

// MemAttendance keys records by user and date like the unique constraint.
type MemAttendance struct {
	mu      sync.Mutex
	records map[string]*model.Attendance
}

func NewMemAttendance() *MemAttendance {
	return &MemAttendance{records: map[string]*model.Attendance{}}
}

func (m *MemAttendance) Upsert(ctx context.Context, rec *model.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.UserID + "/" + rec.Date
	if existing, ok := m.records[key]; ok {
		rec.ID = existing.ID
		rec.Ctime = existing.Ctime
	}
	cp := *rec
	m.records[key] = &cp
	return nil
}

func (m *MemAttendance) List(ctx context.Context, q model.AttendanceQuery) ([]model.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := toSet(q.UserIDs)
	var out []model.Attendance
	for _, r := range m.records {
		if !set[r.UserID] || (q.From != "" && r.Date < q.From) || (q.To != "" && r.Date > q.To) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

type MemHolidays struct {
	mu       sync.Mutex
	holidays []model.Holiday
}

func NewMemHolidays() *MemHolidays {
	return &MemHolidays{}
}

func (m *MemHolidays) Create(ctx context.Context, holiday *model.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holidays {
		if h.Date == holiday.Date {
			return appErr.ErrConflict
		}
	}
	m.holidays = append(m.holidays, *holiday)
	return nil
}

func (m *MemHolidays) List(ctx context.Context, from, to string) ([]model.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Holiday
	for _, h := range m.holidays {
		if (from != "" && h.Date < from) || (to != "" && h.Date > to) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
