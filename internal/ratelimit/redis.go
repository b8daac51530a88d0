package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// redisTimeout bounds each check so a slow Redis never stalls a request.
const redisTimeout = 250 * time.Millisecond

// RedisLimiter counts requests in a fixed window shared by every replica.
// Redis errors fail open.
type RedisLimiter struct {
	client *redis.Client
	policy Policy
	prefix string
	script *redis.Script
	// onError, when set, observes Redis failures.
	onError func(error)
}

// NewRedis builds a limiter over client. Keys are stored as prefix:key.
func NewRedis(client *redis.Client, policy Policy, prefix string, onError func(error)) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		policy:  policy,
		prefix:  prefix,
		script:  redis.NewScript(rateLimitScript),
		onError: onError,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || !l.policy.Enabled() || key == "" {
		return true
	}
	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	ttl := l.policy.Window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, l.policy.Limit).Int64()
	if err != nil {
		if l.onError != nil {
			l.onError(err)
		}
		return true
	}
	return allowed == 1
}
