package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/dbutil"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

const employeeIDConstraint = "users_employee_id_key"

var userColumns = []string{
	"id", "employee_id", "name", "email", "password_hash", "role", "position", "department",
	"salary", "profile_pic", "profile_pic_key", "phone", "address", "joining_date",
	"leaves_left", "status", "manager_id", "ctime", "mtime",
}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts user. A clash on the employee id yields appErr.ErrIDTaken so
// the allocator can redraw; any other unique clash is appErr.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":              user.ID,
		"employee_id":     user.EmployeeID,
		"name":            user.Name,
		"email":           user.Email,
		"password_hash":   user.PasswordHash,
		"role":            user.Role,
		"position":        user.Position,
		"department":      user.Department,
		"salary":          user.Salary,
		"profile_pic":     user.ProfilePic,
		"profile_pic_key": user.ProfilePicKey,
		"phone":           user.Phone,
		"address":         user.Address,
		"joining_date":    user.JoiningDate,
		"leaves_left":     user.LeavesLeft,
		"status":          user.Status,
		"manager_id":      user.ManagerID,
		"ctime":           user.Ctime,
		"mtime":           user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.ConflictConstraint(err) == employeeIDConstraint {
			return appErr.ErrIDTaken
		}
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) GetByEmailAndRole(ctx context.Context, email, role string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email, "role": role})
}

func (r *UserRepo) ListByManager(ctx context.Context, managerID string) ([]model.User, error) {
	where := map[string]interface{}{
		"manager_id": managerID,
		"role":       model.RoleEmployee,
		"_orderby":   "name asc",
	}
	return r.list(ctx, where)
}

func (r *UserRepo) ListIDsByManager(ctx context.Context, managerID string) ([]string, error) {
	where := map[string]interface{}{"manager_id": managerID, "role": model.RoleEmployee}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, userID string, upd *model.UserUpdate, mtime int64) error {
	update := map[string]interface{}{"mtime": mtime}
	setIf := func(col string, v *string) {
		if v != nil {
			update[col] = *v
		}
	}
	setIf("name", upd.Name)
	setIf("email", upd.Email)
	setIf("position", upd.Position)
	setIf("department", upd.Department)
	setIf("phone", upd.Phone)
	setIf("address", upd.Address)
	setIf("joining_date", upd.JoiningDate)
	setIf("status", upd.Status)
	if upd.Salary != nil {
		update["salary"] = *upd.Salary
	}
	if upd.LeavesLeft != nil {
		update["leaves_left"] = *upd.LeavesLeft
	}
	return r.updateWhere(ctx, map[string]interface{}{"id": userID}, update)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string, mtime int64) error {
	return r.updateWhere(ctx, map[string]interface{}{"id": userID}, map[string]interface{}{
		"password_hash": passwordHash,
		"mtime":         mtime,
	})
}

func (r *UserRepo) UpdatePhoto(ctx context.Context, userID, url, key string, mtime int64) error {
	return r.updateWhere(ctx, map[string]interface{}{"id": userID}, map[string]interface{}{
		"profile_pic":     url,
		"profile_pic_key": key,
		"mtime":           mtime,
	})
}

func (r *UserRepo) UpdateLeavesLeft(ctx context.Context, userID string, leavesLeft int, mtime int64) error {
	return r.updateWhere(ctx, map[string]interface{}{"id": userID}, map[string]interface{}{
		"leaves_left": leavesLeft,
		"mtime":       mtime,
	})
}

// DeleteEmployee removes an employee only when it reports to managerID.
func (r *UserRepo) DeleteEmployee(ctx context.Context, managerID, userID string) error {
	where := map[string]interface{}{"id": userID, "manager_id": managerID, "role": model.RoleEmployee}
	sqlStr, args, err := builder.BuildDelete("users", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *UserRepo) updateWhere(ctx context.Context, where, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	where["_limit"] = []uint{0, 1}
	users, err := r.list(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &users[0], nil
}

func (r *UserRepo) list(ctx context.Context, where map[string]interface{}) ([]model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.EmployeeID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Position, &u.Department,
			&u.Salary, &u.ProfilePic, &u.ProfilePicKey, &u.Phone, &u.Address, &u.JoiningDate,
			&u.LeavesLeft, &u.Status, &u.ManagerID, &u.Ctime, &u.Mtime,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
