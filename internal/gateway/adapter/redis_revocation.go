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

const (
	revokedJTIPrefix = "gateway:revoked_jti:"
	revokedJTITTL    = 3600 * time.Second
)

// Compile-time check: RevocationStore implements app.RevocationStore.
var _ app.RevocationStore = (*RevocationStore)(nil)

// RevocationStore implements operator-token revocation backed by Redis.
// Grounded on internal/chatmgmt/adapter/redis_revocation.go, rebound to
// app.RevocationStore (this package's own interface) since the operator
// console has no notion of refresh-token reuse detection. Both methods
// fail closed: a Redis read error is reported as revoked/denied rather
// than silently allowed.
type RevocationStore struct {
	cmd redisclient.Cmdable
}

// NewRevocationStore creates a RevocationStore that uses cmd for Redis operations.
func NewRevocationStore(cmd redisclient.Cmdable) *RevocationStore {
	return &RevocationStore{cmd: cmd}
}

// Revoke marks a JTI as revoked for revokedJTITTL, the access token's max lifetime.
func (s *RevocationStore) Revoke(ctx context.Context, jti string) error {
	ctx, span := tracer.Start(ctx, "redis.revocation.revoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "SET"),
	)

	key := revokedJTIPrefix + jti
	if err := s.cmd.Set(ctx, key, "1", revokedJTITTL).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("revoke JTI %q: %w", jti, err)
	}

	return nil
}

// IsRevoked reports whether a JTI has been revoked. On Redis failure it
// returns (true, err): treat the token as revoked when the store is down.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, span := tracer.Start(ctx, "redis.revocation.is_revoked")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "EXISTS"),
	)

	key := revokedJTIPrefix + jti
	result, err := s.cmd.Exists(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return true, fmt.Errorf("check revocation %q: %w", jti, err)
	}

	return result > 0, nil
}
