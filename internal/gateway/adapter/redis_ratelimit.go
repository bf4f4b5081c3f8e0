package adapter

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
	redisclient "github.com/aelexs/realtime-messaging-platform/internal/redis"
)

// Compile-time check: RedisSessionCreationLimiter implements
// app.DistributedSessionLimiter.
var _ app.DistributedSessionLimiter = (*RedisSessionCreationLimiter)(nil)

// rateLimitScript atomically increments a counter and sets its TTL on the
// first write, identical to internal/chatmgmt/adapter/redis_ratelimit.go's
// script — it avoids MULTI/EXEC's inability to conditionally EXPIRE only
// on the first increment, and avoids depending on EXPIRE ... NX (Redis 7+).
const rateLimitScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// RedisSessionCreationLimiter backs the distributed session-creation
// bucket (§6's session_creation.distributed config) with a fixed-window
// Redis counter, so every registrationd replica shares one limit.
// Narrowed from internal/chatmgmt/adapter/redis_ratelimit.go's
// general-purpose RateLimiter to the single CreateSession admission check
// app.DistributedSessionLimiter needs.
type RedisSessionCreationLimiter struct {
	cmd           redisclient.Cmdable
	limit         int64
	windowSeconds int
	keyPrefix     string
}

// NewRedisSessionCreationLimiter creates a RedisSessionCreationLimiter
// allowing up to limit admissions per windowSeconds, per subject.
func NewRedisSessionCreationLimiter(cmd redisclient.Cmdable, limit int64, windowSeconds int) *RedisSessionCreationLimiter {
	return &RedisSessionCreationLimiter{
		cmd:           cmd,
		limit:         limit,
		windowSeconds: windowSeconds,
		keyPrefix:     "gateway:session_creation:",
	}
}

// TryAdmit implements app.DistributedSessionLimiter. It fails closed: a
// Redis error is reported as not-admitted with an error, never a silent
// allow, per the teacher's ADR-013 fail-closed rate-limiting policy.
func (r *RedisSessionCreationLimiter) TryAdmit(ctx context.Context, subject string) (bool, time.Duration, error) {
	ctx, span := tracer.Start(ctx, "redis.ratelimit.session_creation")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "EVAL"),
	)

	key := r.keyPrefix + subject
	count, err := r.cmd.Eval(ctx, rateLimitScript, []string{key}, r.windowSeconds).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, 0, fmt.Errorf("session creation rate limit check %q: %w", key, err)
	}

	if count <= r.limit {
		return true, 0, nil
	}
	return false, time.Duration(r.windowSeconds) * time.Second, nil
}
