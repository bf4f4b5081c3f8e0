package adapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
	"github.com/aelexs/realtime-messaging-platform/internal/dynamo"
	"github.com/aelexs/realtime-messaging-platform/internal/gateway/app"
)

// Compile-time check: DynamoStore implements app.RegistrationStore.
var _ app.RegistrationStore = (*DynamoStore)(nil)

// txDynamoDB is the narrow, consumer-defined interface for the DynamoDB
// operations DynamoStore needs. *dynamodb.Client satisfies it. Grounded on
// internal/chatmgmt/adapter/dynamo_tx.go's identically-shaped interface.
type txDynamoDB interface {
	TransactWriteItems(ctx context.Context, params *dynamo.TransactWriteItemsInput, optFns ...func(*dynamo.Options)) (*dynamo.TransactWriteItemsOutput, error)
	GetItem(ctx context.Context, params *dynamo.GetItemInput, optFns ...func(*dynamo.Options)) (*dynamo.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamo.DeleteItemInput, optFns ...func(*dynamo.Options)) (*dynamo.DeleteItemOutput, error)
}

type registrationItem struct {
	Phone          string `dynamodbav:"phone"`
	DirectoryUser  string `dynamodbav:"directory_user"`
	RegistrationID string `dynamodbav:"registration_id"`
}

// DynamoStore persists RegistrationRecords in a single table keyed by
// phone, paired with an idempotency-marker table keyed by registration ID,
// written atomically via TransactWriteItems. Grounded on
// internal/chatmgmt/adapter/dynamo_tx.go's multi-item transaction pattern,
// narrowed from its 4-item registration transaction to this 2-item commit.
type DynamoStore struct {
	db             txDynamoDB
	recordsTable   string
	idempotencyTbl string
}

// NewDynamoStore constructs a DynamoStore backed by db, writing to
// recordsTable (phone -> record) and idempotencyTable (registration_id ->
// phone sentinel).
func NewDynamoStore(db txDynamoDB, recordsTable, idempotencyTable string) *DynamoStore {
	return &DynamoStore{db: db, recordsTable: recordsTable, idempotencyTbl: idempotencyTable}
}

// Put writes rec, allowing the write when no record exists for the phone,
// when the existing record's RegistrationID already matches rec's (true
// idempotence), or when RegistrationID differs (a legitimate re-registration
// of the same phone under a new directory user). The idempotency marker
// item is written in the same transaction so a given RegistrationID is
// never silently reused for two different phones.
func (s *DynamoStore) Put(ctx context.Context, rec app.RegistrationRecord) error {
	ctx, span := tracer.Start(ctx, "dynamo.store.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "dynamodb"),
		attribute.String("db.operation", "TransactWriteItems"),
	)

	item, err := dynamo.MarshalMap(registrationItem{
		Phone:          rec.Phone.String(),
		DirectoryUser:  rec.DirectoryUser,
		RegistrationID: rec.RegistrationID,
	})
	if err != nil {
		return fmt.Errorf("marshal registration record: %w", err)
	}

	recordPut := dynamo.TransactWriteItem{
		Put: &dynamo.Put{
			TableName: &s.recordsTable,
			Item:      item,
		},
	}

	markerPut := dynamo.TransactWriteItem{
		Put: &dynamo.Put{
			TableName: &s.idempotencyTbl,
			Item: map[string]dynamo.AttributeValue{
				"registration_id": &dynamo.AttributeValueMemberS{Value: rec.RegistrationID},
				"phone":           &dynamo.AttributeValueMemberS{Value: rec.Phone.String()},
			},
			ConditionExpression: dynamo.String(
				"attribute_not_exists(registration_id) OR phone = :phone"),
			ExpressionAttributeValues: map[string]dynamo.AttributeValue{
				":phone": &dynamo.AttributeValueMemberS{Value: rec.Phone.String()},
			},
		},
	}

	_, err = s.db.TransactWriteItems(ctx, &dynamo.TransactWriteItemsInput{
		TransactItems: []dynamo.TransactWriteItem{recordPut, markerPut},
	})
	if err != nil {
		if _, ok := dynamo.IsTransactionCanceledException(err); ok {
			span.SetStatus(codes.Error, "condition failed")
			return fmt.Errorf("%w: registration_id reused for a different phone", domain.ErrAlreadyExists)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("put registration record: %w", err)
	}
	return nil
}

// Get reads the RegistrationRecord for phone, or domain.ErrNotFound.
func (s *DynamoStore) Get(ctx context.Context, phone domain.PhoneNumber) (*app.RegistrationRecord, error) {
	ctx, span := tracer.Start(ctx, "dynamo.store.get")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "dynamodb"), attribute.String("db.operation", "GetItem"))

	out, err := s.db.GetItem(ctx, &dynamo.GetItemInput{
		TableName: &s.recordsTable,
		Key: map[string]dynamo.AttributeValue{
			"phone": &dynamo.AttributeValueMemberS{Value: phone.String()},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("get registration record: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}

	var item registrationItem
	if err := dynamo.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal registration record: %w", err)
	}

	storedPhone, err := domain.NewPhoneNumber(item.Phone)
	if err != nil {
		return nil, fmt.Errorf("stored phone number invalid: %w", err)
	}

	return &app.RegistrationRecord{
		Phone:          storedPhone,
		DirectoryUser:  item.DirectoryUser,
		RegistrationID: item.RegistrationID,
	}, nil
}

// Delete removes the RegistrationRecord for phone, if any.
func (s *DynamoStore) Delete(ctx context.Context, phone domain.PhoneNumber) error {
	ctx, span := tracer.Start(ctx, "dynamo.store.delete")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "dynamodb"), attribute.String("db.operation", "DeleteItem"))

	_, err := s.db.DeleteItem(ctx, &dynamo.DeleteItemInput{
		TableName: &s.recordsTable,
		Key: map[string]dynamo.AttributeValue{
			"phone": &dynamo.AttributeValueMemberS{Value: phone.String()},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete registration record: %w", err)
	}
	return nil
}
