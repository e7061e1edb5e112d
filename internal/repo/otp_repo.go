package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/staffdesk/ems/internal/model"
	"github.com/staffdesk/ems/internal/otp"
	"github.com/staffdesk/ems/internal/pkg/dbutil"
)

// OTPRepo is the postgres otp.Backend. Timestamps are stored as unix millis.
type OTPRepo struct {
	db *sql.DB
}

func NewOTPRepo(db *sql.DB) *OTPRepo {
	return &OTPRepo{db: db}
}

// PutIfEligible is a single upsert: the row is replaced only when its
// last_sent_at is at or before the cooldown cutoff, so concurrent senders for
// the same email cannot both win.
func (r *OTPRepo) PutIfEligible(ctx context.Context, rec *model.OTPRecord, cooldown time.Duration) (*model.OTPRecord, bool, error) {
	sqlStr := `
		INSERT INTO otp_records (email, code_hash, purpose, last_sent_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email)
		DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			purpose = EXCLUDED.purpose,
			last_sent_at = EXCLUDED.last_sent_at,
			created_at = EXCLUDED.created_at
		WHERE otp_records.last_sent_at <= ?
		RETURNING email
	`
	sent := rec.LastSentAt.UnixMilli()
	args := []interface{}{
		rec.Email,
		rec.CodeHash,
		rec.Purpose,
		sent,
		rec.CreatedAt.UnixMilli(),
		sent - cooldown.Milliseconds(),
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var email string
	err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&email)
	if err == nil {
		return nil, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}
	blocking, err := r.Get(ctx, rec.Email)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return blocking, false, nil
}

func (r *OTPRepo) Get(ctx context.Context, email string) (*model.OTPRecord, error) {
	where := map[string]interface{}{"email": email}
	sqlStr, args, err := builder.BuildSelect("otp_records", where, []string{"email", "code_hash", "purpose", "last_sent_at", "created_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, otp.ErrNotFound
	}
	var rec model.OTPRecord
	var lastSent, created int64
	if err := rows.Scan(&rec.Email, &rec.CodeHash, &rec.Purpose, &lastSent, &created); err != nil {
		return nil, err
	}
	rec.LastSentAt = time.UnixMilli(lastSent)
	rec.CreatedAt = time.UnixMilli(created)
	return &rec, nil
}

func (r *OTPRepo) DeleteIfHash(ctx context.Context, email, codeHash string) (bool, error) {
	affected, err := r.delete(ctx, map[string]interface{}{"email": email, "code_hash": codeHash})
	return affected > 0, err
}

func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.delete(ctx, map[string]interface{}{"email": email})
	return err
}

func (r *OTPRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.delete(ctx, map[string]interface{}{"created_at <=": cutoff.UnixMilli()})
}

func (r *OTPRepo) delete(ctx context.Context, where map[string]interface{}) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("otp_records", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var (
	_ otp.Backend = (*OTPRepo)(nil)
	_ otp.Reaper  = (*OTPRepo)(nil)
)
