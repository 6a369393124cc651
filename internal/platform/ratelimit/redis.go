package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// allowScript trims expired entries, counts the rest and records the new
// request only while under the limit, all in one atomic step.
// KEYS[1] set key; ARGV now µs, cutoff µs, limit, window ms, member.
// Returns {allowed, count, oldest score}.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < tonumber(ARGV[3]) then
  redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
  count = count + 1
  allowed = 1
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local score = ARGV[1]
if oldest[2] then
  score = oldest[2]
end
return {allowed, count, score}
`)

// RedisLimiter implements the sliding window with one sorted set per key,
// scored by request time in microseconds. Counts are shared by every process
// pointing at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	now := l.now()
	nowMicro := now.UnixMicro()
	member := strconv.FormatInt(nowMicro, 10) + "-" + uuid.NewString()

	res, err := allowScript.Run(ctx, l.client, []string{l.prefix + key},
		nowMicro,
		now.Add(-l.window).UnixMicro(),
		l.limit,
		l.window.Milliseconds(),
		member,
	).Slice()
	if err != nil {
		return Decision{}, err
	}
	allowed, count, oldest, err := parseAllowReply(res)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  max(l.limit-count, 0),
		ResetAfter: time.UnixMicro(oldest).Add(l.window).Sub(now),
	}
	if decision.ResetAfter <= 0 {
		decision.ResetAfter = l.window
	}
	return decision, nil
}

func parseAllowReply(res []any) (allowed bool, count int, oldest int64, err error) {
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	flag, ok1 := res[0].(int64)
	n, ok2 := res[1].(int64)
	score, ok3 := res[2].(string)
	if !ok1 || !ok2 || !ok3 {
		return false, 0, 0, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	parsed, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("ratelimit: parse oldest score: %w", err)
	}
	return flag == 1, int(n), int64(parsed), nil
}
