package adapter

import (
	"context"
	"fmt"

	twilio "github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

// Compile-time check: TwilioTransport implements app.CodeTransport.
var _ app.CodeTransport = (*TwilioTransport)(nil)

// twilioVerifyClient is the narrow, consumer-defined interface for the
// subset of the Twilio Verify API TwilioTransport needs. *twilio.RestClient
// satisfies it via its VerifyV2 field.
type twilioVerifyClient interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// TwilioTransport delivers and confirms codes via the hosted Twilio Verify
// API, grounded on original_source/src/twilio/mod.rs's start_verification /
// check_verification calls. Twilio Verify manages its own code state
// server-side: Send ignores the core-generated code entirely (Verify mints
// its own), and Check asks Twilio whether the caller's candidate matches —
// the core's own codesEqual comparison (app/code.go) still runs first and
// independently, per the transport-agnostic locking discipline.
type TwilioTransport struct {
	client    twilioVerifyClient
	serviceSID string
}

// NewTwilioTransport constructs a TwilioTransport for the given Verify
// service SID, backed by a client built from accountSID/authToken.
func NewTwilioTransport(accountSID, authToken, verifyServiceSID string) *TwilioTransport {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioTransport{client: client.VerifyV2, serviceSID: verifyServiceSID}
}

// Send starts a Twilio Verify verification on the given channel. The
// locally-generated code is not transmitted to Twilio — Verify mints and
// delivers its own.
func (t *TwilioTransport) Send(ctx context.Context, phone domain.PhoneNumber, channel app.Channel, code string) error {
	_, span := tracer.Start(ctx, "twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("channel", twilioChannelName(channel)))

	params := &verify.CreateVerificationParams{}
	params.SetTo(phone.String())
	params.SetChannel(twilioChannelName(channel))

	resp, err := t.client.CreateVerification(t.serviceSID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, err)
	}
	if resp.Status == nil || *resp.Status != "pending" {
		return fmt.Errorf("%w: unexpected verification status", domain.ErrTransportUnavailable)
	}
	return nil
}

// Check asks Twilio Verify whether candidate matches the outstanding
// verification for phone.
func (t *TwilioTransport) Check(ctx context.Context, phone domain.PhoneNumber, candidate string) (bool, error) {
	_, span := tracer.Start(ctx, "twilio.check")
	defer span.End()

	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone.String())
	params.SetCode(candidate)

	resp, err := t.client.CreateVerificationCheck(t.serviceSID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, err)
	}
	return resp.Status != nil && *resp.Status == "approved", nil
}

func twilioChannelName(c app.Channel) string {
	if c == app.ChannelVoice {
		return "call"
	}
	return "sms"
}
