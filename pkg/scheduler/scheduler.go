package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chris/money-movement/pkg/bus"
)

// ErrEmptyCue is returned for a cue that names no topics.
var ErrEmptyCue = errors.New("settlement cue has no topics")

// SettlementCue asks every view to re-query once a swap has had time to
// settle. It carries no settlement outcome.
type SettlementCue struct {
	SwapID string      `json:"swap_id"`
	Topics []bus.Topic `json:"topics"`
	DueAt  time.Time   `json:"due_at"`
}

// Validate checks that every topic is known.
func (c SettlementCue) Validate() error {
	if len(c.Topics) == 0 {
		return ErrEmptyCue
	}
	for _, t := range c.Topics {
		if _, err := bus.ParseTopic(string(t)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeCue parses a cue from a queue message body.
func DecodeCue(body string) (SettlementCue, error) {
	var cue SettlementCue
	if err := json.Unmarshal([]byte(body), &cue); err != nil {
		return SettlementCue{}, fmt.Errorf("failed to unmarshal settlement cue: %w", err)
	}
	if err := cue.Validate(); err != nil {
		return SettlementCue{}, err
	}
	return cue, nil
}

// Scheduler defines the interface for a component that delivers a settlement
// cue after a fixed delay.
type Scheduler interface {
	// ScheduleSettlement arranges for cue to be published after delay.
	ScheduleSettlement(ctx context.Context, cue SettlementCue, delay time.Duration) error
}
