package port

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/aelexs/realtime-messaging-platform/internal/errmap"
)

// operatorAuthorizer is a narrow interface for the bearer-token check
// backing operatorMiddleware. *app.OperatorService satisfies it.
type operatorAuthorizer interface {
	Authorize(ctx context.Context, accessToken string) (operatorID string, err error)
}

// operatorIDContextKey is the context key under which OperatorMiddleware
// stores the authorized operator's ID, for handlers that want it (none do
// today, but it mirrors how a caller identity is threaded through in the
// rest of this codebase).
type operatorIDContextKey struct{}

// publicMethods lists the fully-qualified gRPC method names that do NOT
// require a bearer token — currently just OperatorLogin, which is how an
// operator obtains one.
var publicMethods = map[string]bool{
	"/registrationgateway.OperatorService/OperatorLogin": true,
}

// OperatorMiddleware returns a grpc.UnaryServerInterceptor that requires a
// valid, unrevoked bearer token on every OperatorService RPC except
// OperatorLogin. Grounded on internal/chatmgmt/port/auth_handler.go's
// metadata-extraction helpers, generalized into an interceptor rather than
// per-handler extraction since every operator RPC but one needs the same
// check.
func OperatorMiddleware(authorizer operatorAuthorizer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		if !strings.HasPrefix(info.FullMethod, "/registrationgateway.OperatorService/") {
			return handler(ctx, req)
		}

		token := bearerTokenFromContext(ctx)
		operatorID, err := authorizer.Authorize(ctx, token)
		if err != nil {
			return nil, errmap.ToGRPCError(err)
		}

		ctx = context.WithValue(ctx, operatorIDContextKey{}, operatorID)
		return handler(ctx, req)
	}
}

// bearerTokenFromContext extracts the bearer token from the gRPC
// "authorization" incoming metadata, stripping a leading "Bearer " prefix
// if present.
func bearerTokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	const prefix = "Bearer "
	if strings.HasPrefix(vals[0], prefix) {
		return vals[0][len(prefix):]
	}
	return vals[0]
}
