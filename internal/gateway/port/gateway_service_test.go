package port_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/domain/domaintest"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/adapter"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
	"github.com/aelexs/realtime-messaging-platform/internal/ratelimit"
)

// stubDirectory authenticates exactly one username/password pair and
// resolves it to a fixed phone number, for handler-level tests that only
// care about the port layer's request/response/error translation.
type stubDirectory struct {
	username, password string
	phone              domain.PhoneNumber
}

func (s *stubDirectory) Authenticate(ctx context.Context, username string, password domain.SecretString) (domain.PhoneNumber, error) {
	if username != s.username || string(password) != s.password {
		return domain.PhoneNumber{}, domain.ErrDirectoryBadCredentials
	}
	return s.phone, nil
}

type memStore struct {
	mu      sync.Mutex
	records map[string]app.RegistrationRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]app.RegistrationRecord)}
}

func (s *memStore) Put(ctx context.Context, rec app.RegistrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Phone.String()] = rec
	return nil
}

func (s *memStore) Get(ctx context.Context, phone domain.PhoneNumber) (*app.RegistrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[phone.String()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (s *memStore) Delete(ctx context.Context, phone domain.PhoneNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone.String())
	return nil
}

// newTestGatewayService builds a real *app.Service over a fixed directory
// user ("jdoe"/"correct" -> +15551234567), the real TestTransport adapter
// (so CheckCode's expected codes are derivable via testTransportCodeFor),
// and an in-memory store.
func newTestGatewayService(t *testing.T) (*app.Service, *domaintest.FakeClock) {
	t.Helper()
	clock := domaintest.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	dir := &stubDirectory{username: "jdoe", password: "correct", phone: domain.MustPhoneNumber("+15551234567")}
	svc := app.NewService(app.ServiceConfig{
		Directory: dir,
		Transport: adapter.NewTestTransport(),
		Store:     newMemStore(),
		Limiter:   ratelimit.New(clock),
		Clock:     clock,
		Timing:    app.DefaultTimingPolicy(),
	})
	return svc, clock
}

func testTransportCodeFor(t *testing.T, phone string) string {
	t.Helper()
	transport := adapter.NewTestTransport()
	code := transport.DeriveCode(domain.MustPhoneNumber(phone))
	require.Len(t, code, 6)
	return code
}
