package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/money-movement/pkg/storage"
	"go.uber.org/zap"
)

// DynamoDBAPI is the part of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store implements storage.ReceiptStore using AWS DynamoDB.
type Store struct {
	Client            DynamoDBAPI
	ReceiptsTableName string
	logger            *zap.Logger
}

// New creates a new Store.
func New(client DynamoDBAPI, receiptsTable string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		Client:            client,
		ReceiptsTableName: receiptsTable,
		logger:            logger.Named("dynamodb"),
	}
}

// Make sure we conform to the interface
var _ storage.ReceiptStore = (*Store)(nil)

func (s *Store) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}
