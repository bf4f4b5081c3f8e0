// Package protocol defines the registration gateway's wire request/response
// types. These are plain Go structs, gob-encoded over gRPC (see
// internal/gateway/port/codec.go) rather than protobuf messages.
package protocol

// Channel selects the delivery channel for a verification code.
type Channel int

const (
	ChannelSMS Channel = iota
	ChannelVoice
)

// CreateSessionRequest starts a new registration session for a directory
// user. ClientKey is the caller-supplied admission key for the
// session-creation rate-limit bucket (typically the caller's IP).
type CreateSessionRequest struct {
	Username  string
	Password  string
	ClientKey string
}

// SessionMetadata mirrors the core's app.MetadataSnapshot: the session's
// current state plus the may_*/next_*_seconds fields a client polls to
// decide what action is available next.
type SessionMetadata struct {
	SessionID            []byte
	E164                 uint64
	Verified             bool
	MayRequestSMS        bool
	NextSMSSeconds       uint64
	MayRequestVoiceCall  bool
	NextVoiceCallSeconds uint64
	MayCheckCode         bool
	NextCodeCheckSeconds uint64
	ExpirationSeconds    uint64
}

// CreateSessionResponse carries the newly minted session's metadata.
type CreateSessionResponse struct {
	Session SessionMetadata
}

// GetSessionRequest fetches the current metadata for an existing session.
type GetSessionRequest struct {
	SessionID []byte
}

// GetSessionResponse carries the session's current metadata.
type GetSessionResponse struct {
	Session SessionMetadata
}

// SendCodeRequest asks the gateway to deliver a verification code over the
// given channel for an existing session.
type SendCodeRequest struct {
	SessionID []byte
	Channel   Channel
}

// SendCodeResponse carries the session's updated metadata after a send.
type SendCodeResponse struct {
	Session SessionMetadata
}

// CheckCodeRequest submits a candidate code for verification.
type CheckCodeRequest struct {
	SessionID []byte
	Code      string
}

// CheckCodeResponse carries the session's updated metadata after a check.
type CheckCodeResponse struct {
	Session SessionMetadata
}

// CommitRequest finalizes a VERIFIED session into a committed registration
// record. RegistrationID is caller-supplied and used for idempotency.
type CommitRequest struct {
	SessionID      []byte
	RegistrationID string
}

// CommitResponse is empty on success; failure is reported as a gRPC error.
type CommitResponse struct{}

// ValidateCredentialsRequest is the operator console's secondary surface:
// confirm a directory user's credentials without creating a session.
type ValidateCredentialsRequest struct {
	Username string
	Password string
}

// ValidateCredentialsResponse carries the resolved phone number on success.
type ValidateCredentialsResponse struct {
	Phone string
}

// OperatorLoginRequest authenticates an operator console user.
type OperatorLoginRequest struct {
	OperatorID string
	Password   string
}

// OperatorLoginResponse carries the minted bearer token.
type OperatorLoginResponse struct {
	AccessToken string
	ExpiresAt   int64 // unix seconds
}

// OperatorLogoutRequest revokes the bearer token presented via the
// "authorization" gRPC metadata key; it carries no body of its own.
type OperatorLogoutRequest struct{}

// OperatorLogoutResponse is empty on success.
type OperatorLogoutResponse struct{}
