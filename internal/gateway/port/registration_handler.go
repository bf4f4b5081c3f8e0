package port

import (
	"context"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/errmap"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
	"github.com/aelexs/realtime-messaging-platform/pkg/protocol"
)

// registrationService is a narrow, consumer-defined interface for the
// session-lifecycle operations the handler requires. *app.Service satisfies
// it. Grounded on internal/chatmgmt/port/auth_handler.go's authService
// interface.
type registrationService interface {
	CreateSession(ctx context.Context, username string, password domain.SecretString, clientKey string) (*app.MetadataSnapshot, error)
	GetSessionMetadata(ctx context.Context, id domain.RegistrationSessionID) (*app.MetadataSnapshot, error)
	SendVerificationCode(ctx context.Context, id domain.RegistrationSessionID, channel app.Channel) (*app.MetadataSnapshot, error)
	CheckVerificationCode(ctx context.Context, id domain.RegistrationSessionID, candidate string) (*app.MetadataSnapshot, error)
	Commit(ctx context.Context, id domain.RegistrationSessionID, registrationID string) error
}

// RegistrationHandler implements the hand-written RegistrationService gRPC
// interface (see servicedesc.go). It translates wire requests into
// app-layer calls and maps results/errors back, grounded on
// internal/chatmgmt/port/auth_handler.go's handler-wraps-app-service shape.
type RegistrationHandler struct {
	svc registrationService
}

// NewRegistrationHandler constructs a RegistrationHandler backed by svc.
func NewRegistrationHandler(svc *app.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// CreateSession authenticates the caller against the directory and mints a
// new registration session.
func (h *RegistrationHandler) CreateSession(ctx context.Context, req *protocol.CreateSessionRequest) (*protocol.CreateSessionResponse, error) {
	snap, err := h.svc.CreateSession(ctx, req.Username, domain.SecretString(req.Password), req.ClientKey)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.CreateSessionResponse{Session: toWireMetadata(snap)}, nil
}

// GetSession returns the current metadata for an existing session.
func (h *RegistrationHandler) GetSession(ctx context.Context, req *protocol.GetSessionRequest) (*protocol.GetSessionResponse, error) {
	id, err := domain.RegistrationSessionIDFromBytes(req.SessionID)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	snap, err := h.svc.GetSessionMetadata(ctx, id)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.GetSessionResponse{Session: toWireMetadata(snap)}, nil
}

// SendCode delivers a verification code over the requested channel.
func (h *RegistrationHandler) SendCode(ctx context.Context, req *protocol.SendCodeRequest) (*protocol.SendCodeResponse, error) {
	id, err := domain.RegistrationSessionIDFromBytes(req.SessionID)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	snap, err := h.svc.SendVerificationCode(ctx, id, toAppChannel(req.Channel))
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.SendCodeResponse{Session: toWireMetadata(snap)}, nil
}

// CheckCode verifies a candidate code against the session's active code.
func (h *RegistrationHandler) CheckCode(ctx context.Context, req *protocol.CheckCodeRequest) (*protocol.CheckCodeResponse, error) {
	id, err := domain.RegistrationSessionIDFromBytes(req.SessionID)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	snap, err := h.svc.CheckVerificationCode(ctx, id, req.Code)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.CheckCodeResponse{Session: toWireMetadata(snap)}, nil
}

// Commit finalizes a VERIFIED session into a committed registration record.
func (h *RegistrationHandler) Commit(ctx context.Context, req *protocol.CommitRequest) (*protocol.CommitResponse, error) {
	id, err := domain.RegistrationSessionIDFromBytes(req.SessionID)
	if err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	if err := h.svc.Commit(ctx, id, req.RegistrationID); err != nil {
		return nil, errmap.ToGRPCError(err)
	}
	return &protocol.CommitResponse{}, nil
}

func toAppChannel(c protocol.Channel) app.Channel {
	if c == protocol.ChannelVoice {
		return app.ChannelVoice
	}
	return app.ChannelSMS
}

func toWireMetadata(snap *app.MetadataSnapshot) protocol.SessionMetadata {
	return protocol.SessionMetadata{
		SessionID:            snap.ID.Bytes(),
		E164:                 snap.Phone.Uint64(),
		Verified:             snap.Verified,
		MayRequestSMS:        snap.MayRequestSMS,
		NextSMSSeconds:       snap.NextSMSSeconds,
		MayRequestVoiceCall:  snap.MayRequestVoiceCall,
		NextVoiceCallSeconds: snap.NextVoiceCallSeconds,
		MayCheckCode:         snap.MayCheckCode,
		NextCodeCheckSeconds: snap.NextCodeCheckSeconds,
		ExpirationSeconds:    snap.ExpirationSeconds,
	}
}
