// Package app implements the registration gateway's core: the session
// state machine, its registry, and the protocol handlers that compose the
// directory authenticator, code transport, and registration store ports
// declared in this package.
package app

import (
	"time"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// Channel identifies a verification-code delivery channel.
type Channel int

const (
	ChannelSMS Channel = iota
	ChannelVoice
)

// session holds the mutable state for one in-progress registration. All
// access to a session's fields must happen while holding the owning
// SessionHandle's lock (see registry.go).
type session struct {
	id             domain.RegistrationSessionID
	phone          domain.PhoneNumber
	directoryUser  string
	createdAt      time.Time
	expiresAt      time.Time
	lastSMSAt      time.Time
	lastVoiceAt    time.Time
	smsAttempts    int
	voiceAttempts  int
	checkAttempts  int
	activeCode     string
	verified       bool
	checkLockedAt  time.Time
	checkLockedTil time.Time
}

func newSession(id domain.RegistrationSessionID, phone domain.PhoneNumber, user string, now, expiresAt time.Time) *session {
	return &session{
		id:            id,
		phone:         phone,
		directoryUser: user,
		createdAt:     now,
		expiresAt:     expiresAt,
	}
}

// isExpired reports whether the session's TTL has elapsed as of now.
func (s *session) isExpired(now time.Time) bool {
	return !now.Before(s.expiresAt)
}

// isCheckLockedOut reports whether the per-session check cooldown (imposed
// after MaxCheckAttempts failures) is still active.
func (s *session) isCheckLockedOut(now time.Time) bool {
	return !s.checkLockedTil.IsZero() && now.Before(s.checkLockedTil)
}

// supersedeCode replaces the active code with a freshly generated one,
// invalidating any previously issued code per §4.3: a newer SendCode
// supersedes the outstanding code even if the transport would still accept
// the old one.
func (s *session) supersedeCode(code string) {
	s.activeCode = code
}

// MetadataSnapshot is the data the protocol layer needs to project a
// SessionMetadata response; filled in by registry/protocol callers under
// the session lock, then used lock-free by pkg/protocol marshaling code.
type MetadataSnapshot struct {
	ID                   domain.RegistrationSessionID
	Phone                domain.PhoneNumber
	Verified             bool
	MayRequestSMS        bool
	NextSMSSeconds       uint64
	MayRequestVoiceCall  bool
	NextVoiceCallSeconds uint64
	MayCheckCode         bool
	NextCodeCheckSeconds uint64
	ExpirationSeconds    uint64
}
