package app

import (
	"context"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// CodeTransport delivers and later confirms out-of-band verification
// codes. Grounded on original_source/src/twilio/mod.rs's send/check
// contract. Implementations return domain.ErrTransportUnavailable on
// delivery/check failure, or domain.ErrInvalidPhoneNumber if the number is
// not reachable on the requested channel.
//
// Send and Check are independent: the core never asks the transport to
// "verify" without first consulting the session's own active_code (see
// §4.3 — a superseded code must be rejected locally before reaching the
// transport). Implementations that cannot perform a server-side check
// (e.g. the SNS fallback) may treat Check as always returning true and
// let the core's local comparison be authoritative.
type CodeTransport interface {
	Send(ctx context.Context, phone domain.PhoneNumber, channel Channel, code string) error
	Check(ctx context.Context, phone domain.PhoneNumber, code string) (approved bool, err error)
}

// CodeDeriver is an optional interface a CodeTransport may implement when it
// computes the active code deterministically from the phone number instead
// of letting the core mint one via generateCode (§4.5's documented
// test-mode shortcut). When a transport implements CodeDeriver, the core
// uses DeriveCode's result as the session's active_code instead of a fresh
// CSPRNG draw, so the core's own codesEqual check agrees with what the
// transport (and the caller, out of band) expects.
type CodeDeriver interface {
	DeriveCode(phone domain.PhoneNumber) string
}
