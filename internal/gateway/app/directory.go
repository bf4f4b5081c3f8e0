package app

import (
	"context"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// DirectoryAuthenticator resolves a caller's directory credentials to the
// phone number on file for that identity. Implementations must not retain
// the password beyond the call. Grounded on original_source/src/auth/ldap.rs's
// authenticate(user, pass) -> phone contract.
//
// Implementations return one of the sentinel errors declared in
// internal/domain/errors.go: ErrDirectoryUserNotFound, ErrDirectoryBadCredentials,
// ErrDirectoryNoPhoneAttr, ErrDirectoryUnavailable.
type DirectoryAuthenticator interface {
	Authenticate(ctx context.Context, username string, password domain.SecretString) (domain.PhoneNumber, error)
}
