package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/gate"
	"github.com/chris/money-movement/pkg/lifecycle"
	"github.com/chris/money-movement/pkg/mapping"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/scheduler"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSettlementDelay is how long a swap takes to settle before views
// should re-query balances.
const DefaultSettlementDelay = 3 * time.Minute

// settledTopics are announced once the settlement delay has passed.
var settledTopics = []bus.Topic{bus.TopicBalanceUpdated, bus.TopicBitcoinTransactionUpdated}

// Remote is the subset of the remote service used to submit swaps.
type Remote interface {
	SubmitSwap(ctx context.Context, body api.SwapBody) (*api.SwapResponse, error)
}

// Engine submits confirmed swaps. Swaps are never adjudicated; the engine
// schedules a settlement cue instead.
type Engine struct {
	remote    Remote
	scheduler scheduler.Scheduler
	publisher bus.Publisher
	receipts  storage.ReceiptWriter
	delay     time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates an Engine. publisher and receipts may be nil. A
// non-positive delay uses DefaultSettlementDelay.
func NewEngine(remote Remote, sched scheduler.Scheduler, publisher bus.Publisher, receipts storage.ReceiptWriter, delay time.Duration, logger *zap.Logger) *Engine {
	if delay <= 0 {
		delay = DefaultSettlementDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		remote:    remote,
		scheduler: sched,
		publisher: publisher,
		receipts:  receipts,
		delay:     delay,
		logger:    logger.Named("swap"),
		now:       time.Now,
	}
}

// Continuation adapts Submit to the confirmation gate for caller.
func (e *Engine) Continuation(caller lifecycle.Caller) gate.Continuation {
	return func(ctx context.Context, pending models.PendingConfirmation) (models.Receipt, error) {
		if pending.Kind != models.KindSwap || pending.Swap == nil {
			return models.Receipt{}, fmt.Errorf("confirmation %s is not a swap", pending.ID)
		}
		return e.Submit(ctx, caller, *pending.Swap), nil
	}
}

// Submit sends the swap once. An accepted swap yields a pending receipt; the
// outcome is only visible through a later balance fetch.
func (e *Engine) Submit(ctx context.Context, caller lifecycle.Caller, req models.SwapRequest) models.Receipt {
	receipt := models.Receipt{
		Type:         models.ReceiptSwap,
		Amount:       req.AmountFrom,
		Currency:     req.Type.FromCurrency(),
		Sender:       caller.Email,
		Recipient:    req.Type.ToCurrency() + " balance",
		TransferType: string(req.Type),
		Date:         e.now(),
	}

	resp, err := e.remote.SubmitSwap(ctx, mapping.ToSwapBody(req))
	if err != nil {
		e.logger.Warn("swap submission failed", zap.String("swap_type", string(req.Type)), zap.Error(err))
		receipt.Status = models.StatusFailed
		receipt.ReferenceID = localReference()
		e.record(ctx, caller, receipt)
		return receipt
	}

	receipt.ReferenceID = resp.ID
	if receipt.ReferenceID == "" {
		receipt.ReferenceID = localReference()
	}
	receipt.TransactionHash = resp.TransactionHash
	receipt.NetworkFee = resp.NetworkFee

	if status, ok := models.ParseStatus(resp.Status); ok && (status == models.StatusFailed || status == models.StatusRejected) {
		e.logger.Warn("swap not accepted", zap.String("reference_id", receipt.ReferenceID), zap.String("status", resp.Status))
		receipt.Status = models.StatusFailed
		e.record(ctx, caller, receipt)
		return receipt
	}

	receipt.Status = models.StatusPending
	e.logger.Info("swap accepted",
		zap.String("swap_type", string(req.Type)),
		zap.String("reference_id", receipt.ReferenceID),
	)
	if e.publisher != nil {
		if err := e.publisher.Publish(bus.TopicBitcoinTransactionUpdated); err != nil {
			e.logger.Warn("failed to publish cue", zap.Error(err))
		}
	}
	e.scheduleSettlement(ctx, receipt.ReferenceID)
	e.record(ctx, caller, receipt)
	return receipt
}

func (e *Engine) scheduleSettlement(ctx context.Context, swapID string) {
	if e.scheduler == nil {
		return
	}
	cue := scheduler.SettlementCue{SwapID: swapID, Topics: settledTopics}
	if err := e.scheduler.ScheduleSettlement(ctx, cue, e.delay); err != nil {
		e.logger.Error("failed to schedule settlement cue", zap.String("swap_id", swapID), zap.Error(err))
	}
}

func (e *Engine) record(ctx context.Context, caller lifecycle.Caller, receipt models.Receipt) {
	if e.receipts == nil {
		return
	}
	if err := e.receipts.SaveReceipt(ctx, caller.Owner, receipt); err != nil {
		e.logger.Error("failed to store receipt", zap.String("reference_id", receipt.ReferenceID), zap.Error(err))
	}
}

func localReference() string {
	return "LOCAL-" + uuid.NewString()
}
