package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/aelexs/realtime-messaging-platform/internal/dynamo"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

// Compile-time check: DynamoOperatorSessionAuditLog implements
// app.OperatorSessionAuditLog.
var _ app.OperatorSessionAuditLog = (*DynamoOperatorSessionAuditLog)(nil)

// operatorSessionDynamoDB is the narrow consumer-defined interface for the
// single write the audit log performs. Narrowed from
// internal/chatmgmt/adapter/dynamo_sessions.go's sessionDynamoDB, which
// also covered reads and refresh-token rotation this log has no use for.
type operatorSessionDynamoDB interface {
	PutItem(ctx context.Context, params *dynamo.PutItemInput, optFns ...func(*dynamo.Options)) (*dynamo.PutItemOutput, error)
}

type operatorSessionItem struct {
	JTI        string `dynamodbav:"jti"`
	OperatorID string `dynamodbav:"operator_id"`
	IssuedAt   string `dynamodbav:"issued_at"`
	ExpiresAt  string `dynamodbav:"expires_at"`
	TTL        int64  `dynamodbav:"ttl"`
}

// DynamoOperatorSessionAuditLog records each operator login as an
// append-only item, keyed by JTI. It never reads its own table; operators
// are authorized via the JWT itself (internal/auth.Validator) plus
// RevocationStore, not by looking sessions back up here.
type DynamoOperatorSessionAuditLog struct {
	db        operatorSessionDynamoDB
	tableName string
}

// NewDynamoOperatorSessionAuditLog constructs a DynamoOperatorSessionAuditLog
// writing to tableName.
func NewDynamoOperatorSessionAuditLog(db operatorSessionDynamoDB, tableName string) *DynamoOperatorSessionAuditLog {
	return &DynamoOperatorSessionAuditLog{db: db, tableName: tableName}
}

// RecordLogin writes one audit item for a successful operator login. The
// item's TTL is set one day past expiresAt, so the audit trail outlives
// the token itself long enough to investigate questions about it.
func (l *DynamoOperatorSessionAuditLog) RecordLogin(ctx context.Context, operatorID, jti string, issuedAt, expiresAt time.Time) error {
	item, err := dynamo.MarshalMap(operatorSessionItem{
		JTI:        jti,
		OperatorID: operatorID,
		IssuedAt:   issuedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
		TTL:        expiresAt.Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal operator session audit item: %w", err)
	}

	_, err = l.db.PutItem(ctx, &dynamo.PutItemInput{
		TableName: &l.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("record operator login: %w", err)
	}
	return nil
}
