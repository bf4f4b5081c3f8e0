package adapter

import (
	"context"
	"errors"
	"testing"

	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

type stubTwilioVerifyClient struct {
	createErr     error
	createStatus  string
	lastCreateTo  string
	lastChannel   string
	checkErr      error
	checkStatus   string
	lastCheckTo   string
	lastCheckCode string
}

func (s *stubTwilioVerifyClient) CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error) {
	if params.To != nil {
		s.lastCreateTo = *params.To
	}
	if params.Channel != nil {
		s.lastChannel = *params.Channel
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	status := s.createStatus
	if status == "" {
		status = "pending"
	}
	return &verify.VerifyV2Verification{Status: &status}, nil
}

func (s *stubTwilioVerifyClient) CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error) {
	if params.To != nil {
		s.lastCheckTo = *params.To
	}
	if params.Code != nil {
		s.lastCheckCode = *params.Code
	}
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	status := s.checkStatus
	return &verify.VerifyV2VerificationCheck{Status: &status}, nil
}

func newTestTwilioTransport(client twilioVerifyClient) *TwilioTransport {
	return &TwilioTransport{client: client, serviceSID: "VAxxxxxxxx"}
}

func TestTwilioTransport_Send(t *testing.T) {
	t.Run("starts an SMS verification", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{}
		transport := newTestTwilioTransport(stub)

		err := transport.Send(context.Background(), domain.MustPhoneNumber("+15551234567"), app.ChannelSMS, "123456")

		require.NoError(t, err)
		assert.Equal(t, "+15551234567", stub.lastCreateTo)
		assert.Equal(t, "sms", stub.lastChannel)
	})

	t.Run("starts a voice verification", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{}
		transport := newTestTwilioTransport(stub)

		err := transport.Send(context.Background(), domain.MustPhoneNumber("+15551234567"), app.ChannelVoice, "123456")

		require.NoError(t, err)
		assert.Equal(t, "call", stub.lastChannel)
	})

	t.Run("wraps a transport failure", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{createErr: errors.New("network down")}
		transport := newTestTwilioTransport(stub)

		err := transport.Send(context.Background(), domain.MustPhoneNumber("+15551234567"), app.ChannelSMS, "123456")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
	})

	t.Run("treats a non-pending status as unavailable", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{createStatus: "canceled"}
		transport := newTestTwilioTransport(stub)

		err := transport.Send(context.Background(), domain.MustPhoneNumber("+15551234567"), app.ChannelSMS, "123456")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
	})
}

func TestTwilioTransport_Check(t *testing.T) {
	t.Run("approved status reports success", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{checkStatus: "approved"}
		transport := newTestTwilioTransport(stub)

		ok, err := transport.Check(context.Background(), domain.MustPhoneNumber("+15551234567"), "123456")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "123456", stub.lastCheckCode)
	})

	t.Run("pending status reports failure without error", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{checkStatus: "pending"}
		transport := newTestTwilioTransport(stub)

		ok, err := transport.Check(context.Background(), domain.MustPhoneNumber("+15551234567"), "000000")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wraps a transport failure", func(t *testing.T) {
		stub := &stubTwilioVerifyClient{checkErr: errors.New("network down")}
		transport := newTestTwilioTransport(stub)

		_, err := transport.Check(context.Background(), domain.MustPhoneNumber("+15551234567"), "123456")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
	})
}
