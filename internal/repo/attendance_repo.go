package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/pkg/dbutil"
)

var attendanceColumns = []string{"id", "user_id", "date", "status", "time_in", "time_out", "notes", "marked_by", "ctime", "mtime"}

type AttendanceRepo struct {
	db *sql.DB
}

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

// Upsert writes the record for (UserID, Date), replacing an existing one. The
// stored id and ctime are written back into rec.
func (r *AttendanceRepo) Upsert(ctx context.Context, rec *model.Attendance) error {
	data := map[string]interface{}{
		"id":        rec.ID,
		"user_id":   rec.UserID,
		"date":      rec.Date,
		"status":    rec.Status,
		"time_in":   rec.TimeIn,
		"time_out":  rec.TimeOut,
		"notes":     rec.Notes,
		"marked_by": rec.MarkedBy,
		"ctime":     rec.Ctime,
		"mtime":     rec.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("attendance", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr += ` ON CONFLICT (user_id, date) DO UPDATE SET
		status = EXCLUDED.status,
		time_in = EXCLUDED.time_in,
		time_out = EXCLUDED.time_out,
		notes = EXCLUDED.notes,
		marked_by = EXCLUDED.marked_by,
		mtime = EXCLUDED.mtime
		RETURNING id, ctime`
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&rec.ID, &rec.Ctime)
}

func (r *AttendanceRepo) List(ctx context.Context, q model.AttendanceQuery) ([]model.Attendance, error) {
	if len(q.UserIDs) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{"user_id in": q.UserIDs, "_orderby": "date desc"}
	if q.From != "" {
		where["date >="] = q.From
	}
	if q.To != "" {
		where["date <="] = q.To
	}
	sqlStr, args, err := builder.BuildSelect("attendance", where, attendanceColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var records []model.Attendance
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.UserID, &a.Date, &a.Status, &a.TimeIn, &a.TimeOut, &a.Notes, &a.MarkedBy, &a.Ctime, &a.Mtime); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
