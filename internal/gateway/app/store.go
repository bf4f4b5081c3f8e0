package app

import (
	"context"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// RegistrationRecord is the durable artifact committed when a session
// completes verification successfully.
type RegistrationRecord struct {
	Phone          domain.PhoneNumber
	DirectoryUser  string
	RegistrationID string
}

// RegistrationStore persists RegistrationRecords keyed by phone number.
// Grounded on internal/chatmgmt/adapter/dynamo_tx.go's conditional-write /
// transactional-commit pattern, generalized to a single phone->record
// mapping. Put must be idempotent when RegistrationID is unchanged (§4.6,
// testable property 7).
type RegistrationStore interface {
	Put(ctx context.Context, rec RegistrationRecord) error
	Get(ctx context.Context, phone domain.PhoneNumber) (*RegistrationRecord, error)
	Delete(ctx context.Context, phone domain.PhoneNumber) error
}
