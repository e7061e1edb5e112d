package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/dbutil"
	appErr "github.com/staffdesk/ems/internal/pkg/errors"
)

type HolidayRepo struct {
	db *sql.DB
}

func NewHolidayRepo(db *sql.DB) *HolidayRepo {
	return &HolidayRepo{db: db}
}

// Create reports appErr.ErrConflict when a holiday already falls on the date.
func (r *HolidayRepo) Create(ctx context.Context, holiday *model.Holiday) error {
	data := map[string]interface{}{
		"id":          holiday.ID,
		"name":        holiday.Name,
		"date":        holiday.Date,
		"description": holiday.Description,
		"created_by":  holiday.CreatedBy,
		"ctime":       holiday.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("holidays", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// List returns holidays in date order. Empty bounds are open.
func (r *HolidayRepo) List(ctx context.Context, from, to string) ([]model.Holiday, error) {
	where := map[string]interface{}{"_orderby": "date asc"}
	if from != "" {
		where["date >="] = from
	}
	if to != "" {
		where["date <="] = to
	}
	sqlStr, args, err := builder.BuildSelect("holidays", where, []string{"id", "name", "date", "description", "created_by", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var holidays []model.Holiday
	for rows.Next() {
		var h model.Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.Date, &h.Description, &h.CreatedBy, &h.Ctime); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
