package storage

import (
	"context"

	"github.com/chris/money-movement/pkg/models"
)

// ReceiptReader reads stored receipts.
type ReceiptReader interface {
	// GetReceipt retrieves a receipt of owner by its reference id. A receipt
	// stored for another owner is reported as ErrReceiptNotFound.
	GetReceipt(ctx context.Context, owner, referenceID string) (*models.Receipt, error)

	// ListReceipts returns the most recent receipts of owner, newest first.
	ListReceipts(ctx context.Context, owner string, limit int32) ([]models.Receipt, error)
}

// ReceiptWriter persists receipts. A receipt is written once and never
// updated; a second write of the same reference id fails with
// ErrReceiptExists.
type ReceiptWriter interface {
	SaveReceipt(ctx context.Context, owner string, receipt models.Receipt) error
}

// ReceiptStore combines the reader and writer interfaces.
type ReceiptStore interface {
	ReceiptReader
	ReceiptWriter
}
