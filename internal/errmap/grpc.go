// Package errmap maps domain errors onto gRPC status codes for the wire.
package errmap

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// grpcMappings maps domain errors to gRPC status codes.
// Order matters: first match wins (via errors.Is).
//
// Mapping follows gRPC status codes reference:
// https://grpc.github.io/grpc/core/md_doc_statuscodes.html
var grpcMappings = []struct {
	err  error
	code codes.Code
}{
	// Resource errors
	{domain.ErrNotFound, codes.NotFound},
	{domain.ErrSessionNotFound, codes.NotFound},
	{domain.ErrAlreadyExists, codes.AlreadyExists},

	// Directory / session auth errors — Unauthenticated
	{domain.ErrUnauthorized, codes.Unauthenticated},
	{domain.ErrDirectoryUserNotFound, codes.Unauthenticated},
	{domain.ErrDirectoryBadCredentials, codes.Unauthenticated},
	{domain.ErrDirectoryNoPhoneAttr, codes.Unauthenticated},

	// Validation errors
	{domain.ErrInvalidInput, codes.InvalidArgument},
	{domain.ErrEmptyID, codes.InvalidArgument},
	{domain.ErrInvalidID, codes.InvalidArgument},
	{domain.ErrInvalidPhoneNumber, codes.InvalidArgument},
	{domain.ErrNoCodeSent, codes.FailedPrecondition},

	// Verification-attempt errors
	{domain.ErrIllegalCode, codes.InvalidArgument},
	{domain.ErrCheckLockedOut, codes.ResourceExhausted},
	{domain.ErrTransportNotAllowed, codes.FailedPrecondition},

	// Rate limiting / resource exhaustion
	{domain.ErrRateLimited, codes.ResourceExhausted},

	// Availability
	{domain.ErrUnavailable, codes.Unavailable},
	{domain.ErrDirectoryUnavailable, codes.Unavailable},
	{domain.ErrTransportUnavailable, codes.Unavailable},
}

// ToGRPCStatus converts a domain error to a gRPC status.
// The returned status can be sent directly to gRPC clients.
func ToGRPCStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	for _, m := range grpcMappings {
		if errors.Is(err, m.err) {
			return withRetryDetails(status.New(m.code, err.Error()), err)
		}
	}
	// Never expose internal error details to clients
	return status.New(codes.Internal, "internal error")
}

// withRetryDetails attaches §7's may_retry/retry_after_seconds disposition
// to the status as structured google.rpc error details (ErrorInfo/RetryInfo)
// so clients can read them without parsing the status message. may_retry is
// domain.IsRetryable(err); retry_after is only attached when a
// domain.RetryableError carries a concrete delay (e.g. from the rate
// limiter's Decision.RetryAfter or a check-lockout's remaining duration).
func withRetryDetails(st *status.Status, err error) *status.Status {
	if !domain.IsRetryable(err) {
		return st
	}
	details := []proto.Message{
		&errdetails.ErrorInfo{Reason: "MAY_RETRY", Domain: "registrationgateway"},
	}
	var re *domain.RetryableError
	if errors.As(err, &re) && re.RetryAfter > 0 {
		details = append(details, &errdetails.RetryInfo{RetryDelay: durationpb.New(re.RetryAfter)})
	}
	withDetails, detailErr := st.WithDetails(details...)
	if detailErr != nil {
		return st
	}
	return withDetails
}

// ToGRPCError converts a domain error to a gRPC error (implements error interface).
func ToGRPCError(err error) error {
	return ToGRPCStatus(err).Err()
}

// FromGRPCError extracts the gRPC status code from an error.
// Returns codes.Unknown if the error is not a gRPC status error.
func FromGRPCError(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Unknown
}
