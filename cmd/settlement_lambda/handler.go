package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/money-movement/pkg/rabbitmq"
	"github.com/chris/money-movement/pkg/scheduler"
	"go.uber.org/zap"
)

// origin marks cues relayed by this worker; no app instance uses it.
const origin = "settlement-worker"

// Handler relays due settlement cues to the cue exchange.
type Handler struct {
	sender rabbitmq.Sender
	logger *zap.Logger
}

func NewHandler(sender rabbitmq.Sender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sender: sender, logger: logger}
}

// HandleRequest relays every cue in the batch. Malformed messages are
// dropped; messages whose relay failed are reported back so SQS retries
// only those.
func (h *Handler) HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, message := range sqsEvent.Records {
		cue, err := scheduler.DecodeCue(message.Body)
		if err != nil {
			h.logger.Error("dropping malformed settlement cue", zap.String("message_id", message.MessageId), zap.Error(err))
			continue
		}

		if err := h.relay(ctx, cue); err != nil {
			h.logger.Error("failed to relay settlement cue",
				zap.String("message_id", message.MessageId),
				zap.String("swap_id", cue.SwapID),
				zap.Error(err),
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
			continue
		}
		h.logger.Info("settlement cue relayed", zap.String("swap_id", cue.SwapID))
	}
	return resp, nil
}

func (h *Handler) relay(ctx context.Context, cue scheduler.SettlementCue) error {
	for _, topic := range cue.Topics {
		if err := rabbitmq.Send(ctx, h.sender, origin, topic); err != nil {
			return fmt.Errorf("topic %s: %w", topic, err)
		}
	}
	return nil
}
