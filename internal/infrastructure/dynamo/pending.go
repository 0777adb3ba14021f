package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/lead-capture-api/internal/domain"
	"github.com/lead-capture-api/internal/infrastructure/pending"
)

// Attribute names of the pending-registration table.
const (
	attrEmail = "email"
	attrTTL   = "ttl" // epoch seconds, consumed by DynamoDB TTL
)

// ItemAPI is the subset of the DynamoDB client used by PendingRepo.
type ItemAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// PendingRepo is the remote pending-record backend.
// PK: email. Every Save replaces the whole item.
type PendingRepo struct {
	client    ItemAPI
	tableName string
}

func NewPendingRepo(client ItemAPI, tableName string) *PendingRepo {
	return &PendingRepo{client: client, tableName: tableName}
}

func (r *PendingRepo) Name() string { return "dynamodb" }

func (r *PendingRepo) Load(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify(ctx, "get pending item", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec domain.PendingRegistration
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		slog.Warn("pending item unreadable, treating as absent", "table", r.tableName, "err", err)
		return nil, nil
	}
	return &rec, nil
}

func (r *PendingRepo) Save(ctx context.Context, rec *domain.PendingRegistration) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}
	if !rec.ExpiresAt.IsZero() {
		item[attrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.ExpiresAt.Unix(), 10)}
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return classify(ctx, "put pending item", err)
	}
	return nil
}

// classify marks err as pending.ErrUnavailable unless the caller's context
// ended, which says nothing about the table.
func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", pending.ErrUnavailable, op, err)
}
