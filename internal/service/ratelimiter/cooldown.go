// Package ratelimiter implements the shared recompute cooldown.
//
// State lives in Redis so the cooldown is enforced across all engine
// instances and survives process restarts.
package ratelimiter

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownLimiter is a Redis-backed token bucket with one token per key.
// A key may pass once, then refills at 1/cooldown until it can pass again.
// It implements domain.RecomputeLimiter.
type CooldownLimiter struct {
	redis    *redis.Client
	script   *redis.Script
	cooldown time.Duration
}

// NewCooldownLimiter constructs a limiter with the given cooldown window.
// A nil client or non-positive cooldown yields a limiter that always allows.
func NewCooldownLimiter(rdb *redis.Client, cooldown time.Duration) *CooldownLimiter {
	return &CooldownLimiter{
		redis:    rdb,
		script:   redis.NewScript(luaTokenBucketScript),
		cooldown: cooldown,
	}
}

const luaTokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local tokens = capacity
local last_refill = now

local data = redis.call("HMGET", key, "tokens", "last_refill")
if data[1] ~= false and data[1] ~= nil then
  tokens = tonumber(data[1])
end
if data[2] ~= false and data[2] ~= nil then
  last_refill = tonumber(data[2])
end

if last_refill == nil then
  last_refill = now
end

local delta = now - last_refill
if delta < 0 then
  delta = 0
end

tokens = math.min(capacity, tokens + delta * refill_rate)
last_refill = now

local allowed = 0
local retry_after = 0

if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
else
  local shortage = cost - tokens
  if refill_rate > 0 then
    retry_after = shortage / refill_rate
  else
    retry_after = 0
  end
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)

return { allowed, tokens, last_refill, retry_after }
`

// Allow consumes the key's token if available. When exhausted it reports
// how long until the next attempt may pass.
func (l *CooldownLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.redis == nil || l.cooldown <= 0 {
		return true, 0, nil
	}

	capacity := int64(1)
	refillRate := 1.0 / l.cooldown.Seconds()
	nowSec := float64(time.Now().UnixNano()) / 1e9

	redisKey := "cooldown:" + key
	res, err := l.script.Run(ctx, l.redis, []string{redisKey}, capacity, refillRate, nowSec, 1).Result()
	if err != nil {
		slog.Error("cooldown limiter script error", slog.String("key", key), slog.Any("error", err))
		// Fail open on Redis errors so recomputes keep working during an outage.
		return true, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 4 {
		slog.Error("cooldown limiter unexpected script result", slog.String("key", key), slog.Any("result", res))
		return true, 0, nil
	}

	allowed := toInt64(vals[0]) == 1
	retryAfterSec := toFloat64(vals[3])
	retryAfter := time.Duration(retryAfterSec * float64(time.Second))
	return allowed, retryAfter, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return math.NaN()
	}
}
