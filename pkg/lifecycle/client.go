package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/gate"
	"github.com/chris/money-movement/pkg/mapping"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Remote is the subset of the remote service used to submit transfers.
type Remote interface {
	SubmitTransfer(ctx context.Context, body api.TransferBody) (*api.TransferResponse, error)
}

// Caller identifies who a submission is made for.
type Caller struct {
	// Owner keys stored receipts.
	Owner string
	// Email is shown as the receipt sender. It may be empty.
	Email string
}

// Client submits confirmed transfers. Every call produces exactly one
// Receipt and issues at most one remote call; it never retries.
type Client struct {
	remote    Remote
	publisher bus.Publisher
	receipts  storage.ReceiptWriter
	logger    *zap.Logger
	now       func() time.Time
}

// NewClient creates a Client. publisher and receipts may be nil.
func NewClient(remote Remote, publisher bus.Publisher, receipts storage.ReceiptWriter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		remote:    remote,
		publisher: publisher,
		receipts:  receipts,
		logger:    logger.Named("lifecycle"),
		now:       time.Now,
	}
}

// Continuation adapts Submit to the confirmation gate for caller.
func (c *Client) Continuation(caller Caller) gate.Continuation {
	return func(ctx context.Context, pending models.PendingConfirmation) (models.Receipt, error) {
		if pending.Kind != models.KindTransfer || pending.Transfer == nil {
			return models.Receipt{}, fmt.Errorf("confirmation %s is not a transfer", pending.ID)
		}
		return c.Submit(ctx, caller, pending.Transfer), nil
	}
}

// Submit sends req to the operation of its channel and interprets the
// response. Failures are reported as a failed Receipt with a locally
// generated reference id.
func (c *Client) Submit(ctx context.Context, caller Caller, req models.TransferRequest) models.Receipt {
	receipt := models.Receipt{
		Type:         models.ReceiptTransfer,
		Amount:       req.Common().Amount,
		Currency:     models.CurrencyUSD,
		Sender:       caller.Email,
		Recipient:    req.Recipient(),
		TransferType: string(req.Channel()),
		Date:         c.now(),
	}

	resp, err := c.submit(ctx, req)
	if err != nil {
		c.logger.Warn("transfer submission failed",
			zap.String("channel", string(req.Channel())),
			zap.Error(err),
		)
		receipt.Status = models.StatusFailed
		receipt.ReferenceID = localReference()
		c.record(ctx, caller, receipt)
		return receipt
	}

	receipt.ReferenceID = resp.ReferenceNumber
	if receipt.ReferenceID == "" {
		receipt.ReferenceID = localReference()
	}

	status, ok := InitialStatus(resp.Status)
	switch {
	case !ok:
		c.logger.Warn("transfer not accepted",
			zap.String("channel", string(req.Channel())),
			zap.String("status", resp.Status),
			zap.String("reference_id", receipt.ReferenceID),
		)
		receipt.Status = models.StatusFailed
	case status == models.StatusCompleted:
		receipt.Status = models.StatusCompleted
	default:
		receipt.Status = models.StatusPending
	}

	if !receipt.Failed() {
		c.logger.Info("transfer accepted",
			zap.String("channel", string(req.Channel())),
			zap.String("status", string(status)),
			zap.String("reference_id", receipt.ReferenceID),
		)
		c.announce(bus.TopicTransferUpdated, bus.TopicBalanceUpdated)
	}

	c.record(ctx, caller, receipt)
	return receipt
}

func (c *Client) submit(ctx context.Context, req models.TransferRequest) (*api.TransferResponse, error) {
	body, err := mapping.ToTransferBody(req)
	if err != nil {
		return nil, &models.SubmissionError{Err: err}
	}
	resp, err := c.remote.SubmitTransfer(ctx, body)
	if err != nil {
		return nil, &models.SubmissionError{Err: err}
	}
	return resp, nil
}

func (c *Client) announce(topics ...bus.Topic) {
	if c.publisher == nil {
		return
	}
	for _, t := range topics {
		if err := c.publisher.Publish(t); err != nil {
			c.logger.Warn("failed to publish cue", zap.String("topic", string(t)), zap.Error(err))
		}
	}
}

func (c *Client) record(ctx context.Context, caller Caller, receipt models.Receipt) {
	if c.receipts == nil {
		return
	}
	if err := c.receipts.SaveReceipt(ctx, caller.Owner, receipt); err != nil {
		c.logger.Error("failed to store receipt",
			zap.String("reference_id", receipt.ReferenceID),
			zap.Error(err),
		)
	}
}

func localReference() string {
	return "LOCAL-" + uuid.NewString()
}
