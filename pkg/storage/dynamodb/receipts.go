package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ownerDateIndex = "owner-date-index"
	// dateLayout has a fixed width so dates sort lexically.
	dateLayout = "2006-01-02T15:04:05.000000000Z"
)

// receiptRecord is the item layout of the receipts table. Amounts are kept
// as strings to preserve their exact decimal value.
type receiptRecord struct {
	ReferenceID     string `dynamodbav:"reference_id"`
	Owner           string `dynamodbav:"owner"`
	Type            string `dynamodbav:"type"`
	Status          string `dynamodbav:"status"`
	Amount          string `dynamodbav:"amount"`
	Currency        string `dynamodbav:"currency"`
	Sender          string `dynamodbav:"sender,omitempty"`
	Recipient       string `dynamodbav:"recipient"`
	TransferType    string `dynamodbav:"transfer_type"`
	Date            string `dynamodbav:"date"`
	NetworkFee      string `dynamodbav:"network_fee,omitempty"`
	TransactionHash string `dynamodbav:"transaction_hash,omitempty"`
}

func toRecord(owner string, r models.Receipt) receiptRecord {
	rec := receiptRecord{
		ReferenceID:     r.ReferenceID,
		Owner:           owner,
		Type:            string(r.Type),
		Status:          string(r.Status),
		Amount:          r.Amount.String(),
		Currency:        r.Currency,
		Sender:          r.Sender,
		Recipient:       r.Recipient,
		TransferType:    r.TransferType,
		Date:            r.Date.UTC().Format(dateLayout),
		TransactionHash: r.TransactionHash,
	}
	if r.NetworkFee != nil {
		rec.NetworkFee = r.NetworkFee.String()
	}
	return rec
}

func (rec receiptRecord) toReceipt() (models.Receipt, error) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("invalid amount %q: %w", rec.Amount, err)
	}
	date, err := time.Parse(dateLayout, rec.Date)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("invalid date %q: %w", rec.Date, err)
	}
	r := models.Receipt{
		Type:            models.ReceiptType(rec.Type),
		Status:          models.TransferStatus(rec.Status),
		Amount:          amount,
		Currency:        rec.Currency,
		Sender:          rec.Sender,
		Recipient:       rec.Recipient,
		TransferType:    rec.TransferType,
		Date:            date,
		ReferenceID:     rec.ReferenceID,
		TransactionHash: rec.TransactionHash,
	}
	if rec.NetworkFee != "" {
		fee, err := decimal.NewFromString(rec.NetworkFee)
		if err != nil {
			return models.Receipt{}, fmt.Errorf("invalid network fee %q: %w", rec.NetworkFee, err)
		}
		r.NetworkFee = &fee
	}
	return r, nil
}

// SaveReceipt stores a receipt. Receipts are immutable, so the put fails if
// the reference id is already present.
func (s *Store) SaveReceipt(ctx context.Context, owner string, receipt models.Receipt) error {
	item, err := attributevalue.MarshalMap(toRecord(owner, receipt))
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.ReceiptsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(reference_id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return fmt.Errorf("%w: %s", storage.ErrReceiptExists, receipt.ReferenceID)
		}
		return fmt.Errorf("failed to put receipt: %w", err)
	}

	s.log().Debug("receipt stored",
		zap.String("reference_id", receipt.ReferenceID),
		zap.String("status", string(receipt.Status)),
	)
	return nil
}

// GetReceipt retrieves a receipt from DynamoDB by its reference id. Items
// stored for another owner are treated as missing.
func (s *Store) GetReceipt(ctx context.Context, owner, referenceID string) (*models.Receipt, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"reference_id": referenceID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reference id: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.ReceiptsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrReceiptNotFound, referenceID)
	}

	var rec receiptRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}
	if rec.Owner != owner {
		s.log().Warn("receipt requested by another owner", zap.String("reference_id", referenceID))
		return nil, fmt.Errorf("%w: %s", storage.ErrReceiptNotFound, referenceID)
	}
	receipt, err := rec.toReceipt()
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReceipts returns the newest receipts of owner.
func (s *Store) ListReceipts(ctx context.Context, owner string, limit int32) ([]models.Receipt, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.ReceiptsTableName),
		IndexName:              aws.String(ownerDateIndex),
		KeyConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}

	var records []receiptRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipts: %w", err)
	}

	receipts := make([]models.Receipt, 0, len(records))
	for _, rec := range records {
		r, err := rec.toReceipt()
		if err != nil {
			s.log().Warn("skipping unreadable receipt", zap.String("reference_id", rec.ReferenceID), zap.Error(err))
			continue
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}
