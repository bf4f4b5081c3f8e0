package adapter

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

// Compile-time check: StaticOperatorCredentials implements
// app.OperatorCredentialStore.
var _ app.OperatorCredentialStore = (*StaticOperatorCredentials)(nil)

// OperatorRecord is a config-seeded operator account: an operator ID, its
// bcrypt password hash, and a display name for audit logging. Grounded on
// bobmcallan-vire-portal's importer package, which bcrypt-hashes user
// passwords with bcrypt.DefaultCost before storage.
type OperatorRecord struct {
	OperatorID   string
	PasswordHash string
	DisplayName  string
}

// StaticOperatorCredentials verifies operator passwords against a small,
// config-seeded table (§6's operator console surface has no user-facing
// signup; operators are provisioned out of band by whoever deploys the
// gateway).
type StaticOperatorCredentials struct {
	byID map[string]OperatorRecord
}

// NewStaticOperatorCredentials builds a StaticOperatorCredentials from records.
func NewStaticOperatorCredentials(records []OperatorRecord) *StaticOperatorCredentials {
	byID := make(map[string]OperatorRecord, len(records))
	for _, r := range records {
		byID[r.OperatorID] = r
	}
	return &StaticOperatorCredentials{byID: byID}
}

// VerifyPassword reports whether password matches operatorID's stored hash.
// A missing operatorID and a wrong password are both reported as
// (false, nil): the caller (app.OperatorService) maps either to
// domain.ErrUnauthorized, never distinguishing "no such operator" from
// "bad password" to a caller.
func (s *StaticOperatorCredentials) VerifyPassword(ctx context.Context, operatorID string, password domain.SecretString) (bool, error) {
	rec, ok := s.byID[operatorID]
	if !ok {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, fmt.Errorf("compare operator password hash: %w", err)
	}
	return true, nil
}
