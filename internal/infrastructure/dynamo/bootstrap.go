package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableAPI is the subset of the DynamoDB client used by Bootstrap.
type TableAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// Bootstrap creates the pending-registration table if it doesn't already exist
// and enables TTL on its ttl attribute. Safe to call on every startup.
// It returns false when the table could not be created, so callers can skip the
// remote backend instead of paying for a failure on the first request.
func Bootstrap(ctx context.Context, client TableAPI, pendingTable string) bool {
	ok := createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(pendingTable),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrEmail), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrEmail), KeyType: types.KeyTypeHash},
		},
	})
	if ok {
		enableTTL(ctx, client, pendingTable, attrTTL)
	}
	return ok
}

func createTable(ctx context.Context, client TableAPI, input *dynamodb.CreateTableInput) bool {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if errors.As(err, &riue) {
			return true
		}
		slog.Warn("could not create table", "table", *input.TableName, "err", err)
		return false
	}
	slog.Info("created table", "table", *input.TableName)
	return true
}

func enableTTL(ctx context.Context, client TableAPI, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		// Already-enabled TTL is reported as a validation error; the table still works.
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
