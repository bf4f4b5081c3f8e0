package app

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/observability"
)

// ValidationService exposes DirectoryValidationService, a secondary,
// operator-only surface that lets the operator console confirm a user's
// directory credentials without going through the registration session
// state machine. It is gated entirely at the port layer (bearer
// middleware); this service itself performs no authorization check beyond
// delegating to the DirectoryAuthenticator.
type ValidationService struct {
	directory DirectoryAuthenticator
}

// NewValidationService constructs a ValidationService over the given
// directory authenticator. It is typically the same DirectoryAuthenticator
// instance wired into Service, since both surfaces resolve the same
// directory.
func NewValidationService(directory DirectoryAuthenticator) *ValidationService {
	return &ValidationService{directory: directory}
}

// ValidateCredentials reports whether username/password authenticate
// successfully against the directory, returning the phone number on file
// when they do. It does not create, touch, or depend on any registration
// session.
func (v *ValidationService) ValidateCredentials(ctx context.Context, username string, password domain.SecretString) (domain.PhoneNumber, error) {
	ctx, span := tracer.Start(ctx, "gateway.validate_credentials")
	defer span.End()
	logger := observability.WithTraceID(ctx, observability.LoggerFromContext(ctx))

	phone, err := v.directory.Authenticate(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.InfoContext(ctx, "gateway.validate_credentials_failed", "username", username)
		return domain.PhoneNumber{}, err
	}

	logger.InfoContext(ctx, "gateway.validate_credentials_ok", "username", username)
	return phone, nil
}
