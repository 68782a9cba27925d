package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// MaxSQSDelay is the longest per-message delay SQS accepts.
const MaxSQSDelay = 15 * time.Minute

// SQSAPI is the part of the SQS client the scheduler uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSScheduler implements the Scheduler interface using AWS SQS message
// timers. The settlement worker picks the cue up once the delay has passed.
type SQSScheduler struct {
	Client   SQSAPI
	QueueURL string
	logger   *zap.Logger
	now      func() time.Time
}

// NewSQSScheduler creates a new SQSScheduler.
func NewSQSScheduler(client SQSAPI, queueURL string, logger *zap.Logger) *SQSScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSScheduler{
		Client:   client,
		QueueURL: queueURL,
		logger:   logger.Named("scheduler"),
		now:      time.Now,
	}
}

// Make sure we conform to the interface
var _ Scheduler = (*SQSScheduler)(nil)

// ScheduleSettlement sends the cue to the queue with a message timer. Delays
// above MaxSQSDelay are capped.
func (s *SQSScheduler) ScheduleSettlement(ctx context.Context, cue SettlementCue, delay time.Duration) error {
	if err := cue.Validate(); err != nil {
		return err
	}
	if delay < 0 {
		delay = 0
	}
	if delay > MaxSQSDelay {
		s.logger.Warn("settlement delay capped", zap.Duration("requested", delay))
		delay = MaxSQSDelay
	}
	cue.DueAt = s.now().Add(delay).UTC()

	body, err := json.Marshal(cue)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement cue for SQS: %w", err)
	}

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.QueueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(math.Ceil(delay.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	s.logger.Info("settlement cue scheduled",
		zap.String("swap_id", cue.SwapID),
		zap.Duration("delay", delay),
	)
	return nil
}
