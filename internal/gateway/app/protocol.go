package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/observability"
	"github.com/aelexs/realtime-messaging-platform/internal/ratelimit"
)

// TimingPolicy collects the configurable timing/attempt knobs from §6's
// configuration surface. Defaults are domain.Default* constants.
type TimingPolicy struct {
	SessionTTL         time.Duration
	SMSMinDelay        time.Duration
	VoiceMinDelay      time.Duration
	VoiceAfterFirstSMS time.Duration
	MaxCheckAttempts   int
	CheckLockout       time.Duration
}

// DefaultTimingPolicy returns the compiled defaults, grounded on
// original_source/src/session.rs's hardcoded 60s/300s/3-attempt values.
func DefaultTimingPolicy() TimingPolicy {
	return TimingPolicy{
		SessionTTL:         domain.DefaultSessionTTL,
		SMSMinDelay:        domain.DefaultSMSMinDelay,
		VoiceMinDelay:      domain.DefaultVoiceMinDelay,
		VoiceAfterFirstSMS: domain.DefaultVoiceAfterFirstSMS,
		MaxCheckAttempts:   domain.DefaultMaxCheckAttempts,
		CheckLockout:       domain.DefaultCheckLockoutDuration,
	}
}

// DistributedSessionLimiter is satisfied by a Redis-backed rate limiter
// that can replace the in-memory session-creation bucket when
// session_creation.distributed is enabled (§6's configuration surface),
// so multiple registrationd replicas share one counter. Grounded on
// internal/chatmgmt/adapter/redis_ratelimit.go's CheckAndIncrement
// contract, narrowed to a single admission query.
type DistributedSessionLimiter interface {
	TryAdmit(ctx context.Context, subject string) (admitted bool, retryAfter time.Duration, err error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Directory DirectoryAuthenticator
	Transport CodeTransport
	Store     RegistrationStore
	Limiter   *ratelimit.Limiter
	// DistributedCreationLimiter, when set, replaces the in-memory
	// session-creation bucket for CreateSession's admission check.
	DistributedCreationLimiter DistributedSessionLimiter
	Clock                      domain.Clock
	Timing                     TimingPolicy
}

// Service is the registration gateway's core: it composes the directory
// authenticator, code transport, and registration store behind the
// session state machine described in §4.3. Method shapes (span, rate
// limit, collaborator call, metric, structured log) are grounded on
// internal/chatmgmt/app/auth_request_otp.go and auth_verify_otp.go.
type Service struct {
	registry            *SessionRegistry
	directory           DirectoryAuthenticator
	transport           CodeTransport
	store               RegistrationStore
	limiter             *ratelimit.Limiter
	distributedCreation DistributedSessionLimiter
	clock               domain.Clock
	timing              TimingPolicy
}

// NewService constructs a Service and its internal session registry.
func NewService(cfg ServiceConfig) *Service {
	timing := cfg.Timing
	if timing == (TimingPolicy{}) {
		timing = DefaultTimingPolicy()
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(cfg.Clock)
	}
	configureBuckets(limiter, timing)

	return &Service{
		registry:            NewSessionRegistry(cfg.Clock, timing.SessionTTL),
		directory:           cfg.Directory,
		transport:           cfg.Transport,
		store:               cfg.Store,
		limiter:             limiter,
		distributedCreation: cfg.DistributedCreationLimiter,
		clock:               cfg.Clock,
		timing:              timing,
	}
}

// configureBuckets registers the four required buckets from §4.1. Only
// session-creation has a meaningful capacity/refill independent of a
// per-session min-delay; the per-session buckets use a high capacity with
// MinDelay doing the real gating, since the delay schedule (not a token
// rate) is what §4.3 specifies.
func configureBuckets(l *ratelimit.Limiter, t TimingPolicy) {
	l.Configure(domain.BucketSessionCreation, ratelimit.Policy{
		Capacity: 5, RefillPerSecond: 5.0 / 60,
	})
	l.Configure(domain.BucketSMSPerSession, ratelimit.Policy{
		Capacity: 1000, RefillPerSecond: 1000, MinDelay: t.SMSMinDelay,
	})
	l.Configure(domain.BucketVoicePerSession, ratelimit.Policy{
		Capacity: 1000, RefillPerSecond: 1000, MinDelay: t.VoiceMinDelay,
	})
	l.Configure(domain.BucketCheckPerSession, ratelimit.Policy{
		Capacity: 1000, RefillPerSecond: 1000,
	})
}

// RunSweeper starts the session registry's background eviction loop; call
// as a goroutine from the composition root.
func (s *Service) RunSweeper(ctx context.Context) {
	s.registry.RunSweeper(ctx, s.timing.SessionTTL/time.Duration(domain.SessionSweepDivisor))
}

// CreateSession authenticates the caller against the directory, rate
// limits by clientKey (typically the caller's IP, or the resolved phone
// once known), and mints a new session.
func (s *Service) CreateSession(ctx context.Context, username string, password domain.SecretString, clientKey string) (*MetadataSnapshot, error) {
	ctx, span := tracer.Start(ctx, "gateway.create_session")
	defer span.End()
	logger := observability.WithTraceID(ctx, observability.LoggerFromContext(ctx))

	if s.distributedCreation != nil {
		admitted, retryAfter, err := s.distributedCreation.TryAdmit(ctx, clientKey)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("distributed rate limit check: %w", err)
		}
		if !admitted {
			rateLimitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", domain.BucketSessionCreation)))
			span.SetStatus(codes.Error, "rate limited")
			return nil, domain.WithRetryAfter(domain.ErrRateLimited, retryAfter)
		}
	} else if d := s.limiter.Try(domain.BucketSessionCreation, clientKey); !d.Admitted {
		rateLimitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", domain.BucketSessionCreation)))
		span.SetStatus(codes.Error, "rate limited")
		return nil, domain.WithRetryAfter(domain.ErrRateLimited, d.RetryAfter)
	}

	phone, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		directoryFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", classifyDirectoryError(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	handle, err := s.registry.Create(phone, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create session: %w", err)
	}

	var snap MetadataSnapshot
	_ = handle.withLock(func(sess *session) error {
		snap = s.projectLocked(sess)
		return nil
	})

	sessionsCreatedTotal.Add(ctx, 1)
	logger.InfoContext(ctx, "gateway.session_created", "session_id", snap.ID.String())
	return &snap, nil
}

// GetSessionMetadata returns the current projection for id, or
// domain.ErrSessionNotFound if absent/expired.
func (s *Service) GetSessionMetadata(ctx context.Context, id domain.RegistrationSessionID) (*MetadataSnapshot, error) {
	_, span := tracer.Start(ctx, "gateway.get_session_metadata")
	defer span.End()

	handle := s.registry.Get(id)
	if handle == nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, domain.ErrSessionNotFound
	}

	var snap MetadataSnapshot
	_ = handle.withLock(func(sess *session) error {
		snap = s.projectLocked(sess)
		return nil
	})
	return &snap, nil
}

// SendVerificationCode implements the SendCode(SMS|Voice) transition from
// §4.3. Rate limiting and the voice-channel first-SMS gate are enforced
// under the session lock (cheaply — one Try on the channel's bucket), but
// the actual transport I/O happens OUTSIDE the session
// lock per §5's locking discipline, with reacquire-and-validate before
// publishing the result.
func (s *Service) SendVerificationCode(ctx context.Context, id domain.RegistrationSessionID, channel Channel) (*MetadataSnapshot, error) {
	ctx, span := tracer.Start(ctx, "gateway.send_verification_code")
	defer span.End()
	logger := observability.WithTraceID(ctx, observability.LoggerFromContext(ctx))

	handle := s.registry.Get(id)
	if handle == nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, domain.ErrSessionNotFound
	}

	bucket := domain.BucketSMSPerSession
	if channel == ChannelVoice {
		bucket = domain.BucketVoicePerSession
	}
	subject := id.String()

	var phone domain.PhoneNumber
	var code string
	var guardErr error

	err := handle.withLock(func(sess *session) error {
		if sess.isExpired(s.clock.Now()) {
			guardErr = domain.ErrSessionNotFound
			return nil
		}
		if channel == ChannelVoice && !voiceGateSatisfied(sess, s.timing, s.clock.Now()) {
			guardErr = domain.ErrTransportNotAllowed
			return nil
		}
		if d := s.limiter.Try(bucket, subject); !d.Admitted {
			guardErr = domain.WithRetryAfter(domain.ErrRateLimited, d.RetryAfter)
			return nil
		}
		if deriver, ok := s.transport.(CodeDeriver); ok {
			code = deriver.DeriveCode(sess.phone)
		} else {
			c, genErr := generateCode()
			if genErr != nil {
				return genErr
			}
			code = c
		}
		phone = sess.phone
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if guardErr != nil {
		if errors.Is(guardErr, domain.ErrRateLimited) {
			rateLimitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", bucket)))
		}
		span.SetStatus(codes.Error, guardErr.Error())
		return nil, guardErr
	}

	if sendErr := s.transport.Send(ctx, phone, channel, code); sendErr != nil {
		transportFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "send")))
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, sendErr.Error())
		return nil, fmt.Errorf("%w", domain.ErrTransportUnavailable)
	}

	var snap MetadataSnapshot
	evicted := false
	withErr := handle.withLock(func(sess *session) error {
		if sess.isExpired(s.clock.Now()) {
			evicted = true
			return nil
		}
		sess.supersedeCode(code)
		now := s.clock.Now()
		if channel == ChannelSMS {
			sess.lastSMSAt = now
			sess.smsAttempts++
		} else {
			sess.lastVoiceAt = now
			sess.voiceAttempts++
		}
		snap = s.projectLocked(sess)
		return nil
	})
	if withErr != nil {
		return nil, withErr
	}
	if evicted {
		return nil, domain.ErrSessionNotFound
	}

	logger.InfoContext(ctx, "gateway.code_sent", "session_id", id.String(), "channel", channelName(channel))
	return &snap, nil
}

// CheckVerificationCode implements the CheckCode transition from §4.3.
// The candidate is compared, in constant time, against the session's
// locally-held active code before the transport's own Check is consulted
// — a superseded code is rejected locally regardless of what the
// transport would say.
func (s *Service) CheckVerificationCode(ctx context.Context, id domain.RegistrationSessionID, candidate string) (*MetadataSnapshot, error) {
	ctx, span := tracer.Start(ctx, "gateway.check_verification_code")
	defer span.End()
	logger := observability.WithTraceID(ctx, observability.LoggerFromContext(ctx))

	handle := s.registry.Get(id)
	if handle == nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, domain.ErrSessionNotFound
	}

	var guardErr error
	var phone domain.PhoneNumber
	var activeCode string

	err := handle.withLock(func(sess *session) error {
		now := s.clock.Now()
		if sess.isExpired(now) {
			guardErr = domain.ErrSessionNotFound
			return nil
		}
		if sess.activeCode == "" {
			guardErr = domain.ErrNoCodeSent
			return nil
		}
		if sess.isCheckLockedOut(now) {
			guardErr = domain.WithRetryAfter(domain.ErrCheckLockedOut, sess.checkLockedTil.Sub(now))
			return nil
		}
		if d := s.limiter.Try(domain.BucketCheckPerSession, id.String()); !d.Admitted {
			guardErr = domain.WithRetryAfter(domain.ErrRateLimited, d.RetryAfter)
			return nil
		}
		phone = sess.phone
		activeCode = sess.activeCode
		return nil
	})
	if err != nil {
		return nil, err
	}
	if guardErr != nil {
		if errors.Is(guardErr, domain.ErrRateLimited) {
			rateLimitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", domain.BucketCheckPerSession)))
		}
		span.SetStatus(codes.Error, guardErr.Error())
		return nil, guardErr
	}

	locallyMatched := codesEqual(candidate, activeCode)
	approved := false
	if locallyMatched {
		ok, checkErr := s.transport.Check(ctx, phone, candidate)
		if checkErr != nil {
			transportFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "check")))
			span.RecordError(checkErr)
			span.SetStatus(codes.Error, checkErr.Error())
			return nil, fmt.Errorf("%w", domain.ErrTransportUnavailable)
		}
		approved = ok
	}

	var snap MetadataSnapshot
	evicted := false
	withErr := handle.withLock(func(sess *session) error {
		now := s.clock.Now()
		if sess.isExpired(now) {
			evicted = true
			return nil
		}
		if approved {
			sess.verified = true
			sess.activeCode = ""
		} else {
			sess.checkAttempts++
			if sess.checkAttempts >= s.timing.MaxCheckAttempts {
				sess.checkLockedAt = now
				sess.checkLockedTil = now.Add(s.timing.CheckLockout)
			}
		}
		snap = s.projectLocked(sess)
		return nil
	})
	if withErr != nil {
		return nil, withErr
	}
	if evicted {
		return nil, domain.ErrSessionNotFound
	}

	codeChecksTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("approved", approved)))
	logger.InfoContext(ctx, "gateway.code_checked", "session_id", id.String(), "approved", approved)
	return &snap, nil
}

// Commit writes the final RegistrationRecord for a VERIFIED session,
// transitioning it to COMMITTED: after a successful store write the session
// is evicted from the registry. registrationID is caller-supplied and
// idempotency-checked by the store (§4.6, testable property 7).
func (s *Service) Commit(ctx context.Context, id domain.RegistrationSessionID, registrationID string) error {
	ctx, span := tracer.Start(ctx, "gateway.commit")
	defer span.End()

	handle := s.registry.Get(id)
	if handle == nil {
		return domain.ErrSessionNotFound
	}

	var phone domain.PhoneNumber
	var user string
	var guardErr error
	_ = handle.withLock(func(sess *session) error {
		if !sess.verified {
			guardErr = domain.ErrUnauthorized
			return nil
		}
		phone = sess.phone
		user = sess.directoryUser
		return nil
	})
	if guardErr != nil {
		span.SetStatus(codes.Error, guardErr.Error())
		return guardErr
	}

	if err := s.store.Put(ctx, RegistrationRecord{
		Phone: phone, DirectoryUser: user, RegistrationID: registrationID,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("commit registration: %w", err)
	}
	s.registry.evict(id)
	return nil
}

// projectLocked derives the may_*/next_*_seconds fields described in §4.2
// using side-effect-free rate-limiter Peek calls. Caller must hold the
// session's lock.
func (s *Service) projectLocked(sess *session) MetadataSnapshot {
	now := s.clock.Now()
	subject := sess.id.String()

	smsDecision := s.limiter.Peek(domain.BucketSMSPerSession, subject)
	voiceDecision := s.limiter.Peek(domain.BucketVoicePerSession, subject)
	mayVoice := voiceDecision.Admitted && voiceGateSatisfied(sess, s.timing, now)
	voiceRetry := voiceDecision.RetryAfter
	if voiceDecision.Admitted && !mayVoice {
		voiceRetry = firstSMSGateRemaining(sess, s.timing, now)
	}

	mayCheck := sess.activeCode != "" && sess.checkAttempts < s.timing.MaxCheckAttempts && !sess.isCheckLockedOut(now)
	var checkRetry time.Duration
	if sess.isCheckLockedOut(now) {
		checkRetry = sess.checkLockedTil.Sub(now)
	}

	expirationRemaining := sess.expiresAt.Sub(now)
	if expirationRemaining < 0 {
		expirationRemaining = 0
	}

	return MetadataSnapshot{
		ID:                   sess.id,
		Phone:                sess.phone,
		Verified:             sess.verified,
		MayRequestSMS:        smsDecision.Admitted,
		NextSMSSeconds:       seconds(smsDecision.RetryAfter),
		MayRequestVoiceCall:  mayVoice,
		NextVoiceCallSeconds: seconds(voiceRetry),
		MayCheckCode:         mayCheck,
		NextCodeCheckSeconds: seconds(checkRetry),
		ExpirationSeconds:    seconds(expirationRemaining),
	}
}

// voiceGateSatisfied implements the Open Question decision (SPEC_FULL §9):
// voice requires BOTH the voice bucket's own min-delay AND at least one
// prior SMS send at least VoiceAfterFirstSMS ago.
func voiceGateSatisfied(sess *session, t TimingPolicy, now time.Time) bool {
	if sess.lastSMSAt.IsZero() {
		return false
	}
	return now.Sub(sess.lastSMSAt) >= t.VoiceAfterFirstSMS
}

func firstSMSGateRemaining(sess *session, t TimingPolicy, now time.Time) time.Duration {
	if sess.lastSMSAt.IsZero() {
		return 1<<62 - 1 // no SMS sent yet: voice is not schedulable at all
	}
	remaining := t.VoiceAfterFirstSMS - now.Sub(sess.lastSMSAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func seconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Round(time.Second) / time.Second)
}

func channelName(c Channel) string {
	if c == ChannelVoice {
		return "voice"
	}
	return "sms"
}

func classifyDirectoryError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrDirectoryUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrDirectoryBadCredentials):
		return "bad_credentials"
	case errors.Is(err, domain.ErrDirectoryNoPhoneAttr):
		return "no_phone_attr"
	case errors.Is(err, domain.ErrDirectoryUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
