package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/staffdesk/ems/internal/model"
)

const redisKeyPrefix = "ems:otp:"

// putScript replaces the record unless the current one is still cooling down.
// KEYS[1] record key. ARGV: code_hash, purpose, now_ms, cooldown_ms, ttl_ms.
var putScript = redis.NewScript(`
local last = redis.call('HGET', KEYS[1], 'last_sent_at')
if last and (tonumber(ARGV[3]) - tonumber(last)) < tonumber(ARGV[4]) then
  return {0, last}
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'code_hash', ARGV[1], 'purpose', ARGV[2], 'last_sent_at', ARGV[3], 'created_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1}
`)

var deleteIfHashScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'code_hash') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisBackend stores each record as a hash whose key expires with the code,
// so no reaper is needed.
type RedisBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisBackend(client redis.UniversalClient, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisBackend{client: client, ttl: ttl}
}

func redisKey(email string) string {
	return redisKeyPrefix + email
}

func (r *RedisBackend) PutIfEligible(ctx context.Context, rec *model.OTPRecord, cooldown time.Duration) (*model.OTPRecord, bool, error) {
	res, err := putScript.Run(ctx, r.client, []string{redisKey(rec.Email)},
		rec.CodeHash,
		rec.Purpose,
		rec.LastSentAt.UnixMilli(),
		cooldown.Milliseconds(),
		r.ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, false, fmt.Errorf("otp put: %w", err)
	}
	if len(res) == 0 {
		return nil, false, fmt.Errorf("otp put: empty script result")
	}
	if ok, _ := res[0].(int64); ok == 1 {
		return nil, true, nil
	}
	if len(res) < 2 {
		return nil, false, nil
	}
	lastStr, _ := res[1].(string)
	last, err := strconv.ParseInt(lastStr, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("otp put: parse last_sent_at: %w", err)
	}
	return &model.OTPRecord{Email: rec.Email, LastSentAt: time.UnixMilli(last)}, false, nil
}

func (r *RedisBackend) Get(ctx context.Context, email string) (*model.OTPRecord, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	lastSent, err := strconv.ParseInt(fields["last_sent_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("otp get: parse last_sent_at: %w", err)
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("otp get: parse created_at: %w", err)
	}
	return &model.OTPRecord{
		Email:      email,
		CodeHash:   fields["code_hash"],
		Purpose:    fields["purpose"],
		LastSentAt: time.UnixMilli(lastSent),
		CreatedAt:  time.UnixMilli(created),
	}, nil
}

func (r *RedisBackend) DeleteIfHash(ctx context.Context, email, codeHash string) (bool, error) {
	n, err := deleteIfHashScript.Run(ctx, r.client, []string{redisKey(email)}, codeHash).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisBackend) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, redisKey(email)).Err()
}
