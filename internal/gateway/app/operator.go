package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/auth"
	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/observability"
)

// OperatorCredentialStore verifies an operator's password. Implementations
// never store passwords in plaintext; this interface exists so
// OperatorService never sees the storage representation.
type OperatorCredentialStore interface {
	VerifyPassword(ctx context.Context, operatorID string, password domain.SecretString) (bool, error)
}

// RevocationStore records revoked JWT IDs. Grounded on
// internal/chatmgmt/adapter/redis_revocation.go's fail-closed contract:
// IsRevoked must treat a backing-store error as "revoked".
type RevocationStore interface {
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// OperatorSessionAuditLog records operator login events. Grounded on
// internal/chatmgmt/adapter/dynamo_sessions.go's session-record contract,
// narrowed to an append-only audit trail (the operator console has no
// concept of refresh-token rotation).
type OperatorSessionAuditLog interface {
	RecordLogin(ctx context.Context, operatorID, jti string, issuedAt, expiresAt time.Time) error
}

// OperatorService authenticates operators by password and mints/revokes the
// bearer tokens that gate DirectoryValidationService. Grounded on
// internal/chatmgmt/app/auth_service.go's login/logout shape, narrowed to
// password-only (no OTP, no refresh-token rotation — an operator simply
// logs in again when their token expires).
type OperatorService struct {
	credentials OperatorCredentialStore
	minter      *auth.Minter
	validator   *auth.Validator
	revocation  RevocationStore
	audit       OperatorSessionAuditLog
	clock       domain.Clock
}

// OperatorServiceConfig configures an OperatorService.
type OperatorServiceConfig struct {
	Credentials OperatorCredentialStore
	Minter      *auth.Minter
	Validator   *auth.Validator
	Revocation  RevocationStore
	Audit       OperatorSessionAuditLog
	Clock       domain.Clock
}

// NewOperatorService constructs an OperatorService.
func NewOperatorService(cfg OperatorServiceConfig) *OperatorService {
	return &OperatorService{
		credentials: cfg.Credentials,
		minter:      cfg.Minter,
		validator:   cfg.Validator,
		revocation:  cfg.Revocation,
		audit:       cfg.Audit,
		clock:       cfg.Clock,
	}
}

// Login verifies operatorID/password and mints a short-lived access token.
func (o *OperatorService) Login(ctx context.Context, operatorID string, password domain.SecretString) (string, time.Time, error) {
	ctx, span := tracer.Start(ctx, "operator.login")
	defer span.End()
	logger := observability.WithTraceID(ctx, observability.LoggerFromContext(ctx))

	ok, err := o.credentials.VerifyPassword(ctx, operatorID, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", time.Time{}, fmt.Errorf("verify operator password: %w", err)
	}
	if !ok {
		span.SetStatus(codes.Error, "bad credentials")
		return "", time.Time{}, domain.ErrUnauthorized
	}

	result, err := o.minter.MintAccessToken(operatorID, operatorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", time.Time{}, fmt.Errorf("mint operator token: %w", err)
	}

	if err := o.audit.RecordLogin(ctx, operatorID, result.JTI, o.clock.Now(), result.ExpiresAt); err != nil {
		logger.WarnContext(ctx, "operator.audit_log_failed", "operator_id", operatorID, "error", err)
	}

	logger.InfoContext(ctx, "operator.login_ok", "operator_id", operatorID)
	return result.Token, result.ExpiresAt, nil
}

// Logout revokes the JTI carried by accessToken, so a stolen-but-not-yet-
// expired token can no longer authorize ValidateCredentials calls.
func (o *OperatorService) Logout(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "operator.logout")
	defer span.End()

	claims, err := o.validator.ValidateAccessToken(accessToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ErrUnauthorized
	}

	if err := o.revocation.Revoke(ctx, claims.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("revoke operator token: %w", err)
	}
	return nil
}

// Authorize validates accessToken and reports the operator ID it
// authenticates, for use by the bearer-auth gRPC interceptor. It denies
// (fail-closed) when the revocation store itself is unavailable.
func (o *OperatorService) Authorize(ctx context.Context, accessToken string) (string, error) {
	claims, err := o.validator.ValidateAccessToken(accessToken)
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	revoked, err := o.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return "", domain.ErrUnauthorized
	}

	return claims.Subject, nil
}
