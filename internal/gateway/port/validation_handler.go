package port

import (
	"context"
	"time"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/errmap"
	"github.com/aelexs/realtime-messaging-platform/pkg/protocol"
)

// operatorService is a narrow, consumer-defined interface for the
// operator-console operations the handler requires. *app.OperatorService
// satisfies it.
type operatorService interface {
	Login(ctx context.Context, operatorID string, password domain.SecretString) (string, time.Time, error)
	Logout(ctx context.Context, accessToken string) error
}

// directoryValidator is a narrow interface for the secondary directory
// credential-check surface. *app.ValidationService satisfies it.
type directoryValidator interface {
	ValidateCredentials(ctx context.Context, username string, password domain.SecretString) (domain.PhoneNumber, error)
}

// OperatorHandler implements the hand-written OperatorService gRPC
// interface (see servicedesc.go): operator login/logout plus the
// directory-validation surface, both gated by operatorMiddleware except
// for OperatorLogin itself (it is how an operator obtains a bearer token
// in the first place).
type OperatorHandler struct {
	operators  operatorService
	validation directoryValidator
}

// NewOperatorHandler constructs an OperatorHandler backed by the given
// operator console and directory-validation services.
func NewOperatorHandler(operators operatorService, validation directoryValidator) *OperatorHandler {
	return &OperatorHandler{operators: operators, validation: validation}
}

// OperatorLogin authenticates an operator console user and mints a bearer
// token. Not gated by operatorMiddleware.
func (h *OperatorHandler) OperatorLogin(ctx context.Context, req *protocol.OperatorLoginRequest) (*protocol.OperatorLoginResponse, error) {
	token, expiresAt, err := h.operators.Login(ctx, req.OperatorID, domain.SecretString(req.Password))
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.OperatorLoginResponse{AccessToken: token, ExpiresAt: expiresAt.Unix()}, nil
}

// OperatorLogout revokes the bearer token presented via the incoming
// gRPC "authorization" metadata.
func (h *OperatorHandler) OperatorLogout(ctx context.Context, _ *protocol.OperatorLogoutRequest) (*protocol.OperatorLogoutResponse, error) {
	token := bearerTokenFromContext(ctx)
	if err := h.operators.Logout(ctx, token); err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.OperatorLogoutResponse{}, nil
}

// ValidateCredentials confirms a directory user's credentials without
// creating a registration session. Gated by operatorMiddleware.
func (h *OperatorHandler) ValidateCredentials(ctx context.Context, req *protocol.ValidateCredentialsRequest) (*protocol.ValidateCredentialsResponse, error) {
	phone, err := h.validation.ValidateCredentials(ctx, req.Username, domain.SecretString(req.Password))
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.ValidateCredentialsResponse{Phone: phone.String()}, nil
}
