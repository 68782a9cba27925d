package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/chris/money-movement/pkg/bus"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HeaderOrigin names the process that raised a cue.
const HeaderOrigin = "origin"

const sendTimeout = 5 * time.Second

// CueMessage is the body of a relayed cue. Like a local cue it only names
// the topic.
type CueMessage struct {
	Topic  bus.Topic `json:"topic"`
	Origin string    `json:"origin"`
	SentAt time.Time `json:"sent_at"`
}

// Relay connects the local bus to other processes. Cues published locally
// are sent to the exchange with the topic as routing key; cues received from
// other processes are delivered locally and never sent back out.
type Relay struct {
	bus        *bus.Bus
	sender     Sender
	instanceID string
	logger     *zap.Logger

	sub *bus.Subscription
	wg  sync.WaitGroup
}

// NewRelay creates a relay for instanceID.
func NewRelay(b *bus.Bus, sender Sender, instanceID string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		bus:        b,
		sender:     sender,
		instanceID: instanceID,
		logger:     logger.Named("relay"),
	}
}

// Start begins forwarding local cues.
func (r *Relay) Start() {
	r.sub = r.bus.Forward(r.forward)
}

// forward runs inside bus dispatch, so the network send is handed off.
func (r *Relay) forward(topic bus.Topic) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := Send(ctx, r.sender, r.instanceID, topic); err != nil {
			r.logger.Warn("failed to relay cue", zap.String("topic", string(topic)), zap.Error(err))
		}
	}()
}

// Send publishes one cue on behalf of origin.
func Send(ctx context.Context, sender Sender, origin string, topic bus.Topic) error {
	msg := CueMessage{Topic: topic, Origin: origin, SentAt: time.Now().UTC()}
	return sender.Send(ctx, string(topic), amqp.Table{HeaderOrigin: origin}, msg)
}

// Bindings returns one consumer handler per topic.
func (r *Relay) Bindings() map[string]DeliveryHandler {
	out := make(map[string]DeliveryHandler, len(bus.Topics))
	for _, t := range bus.Topics {
		out[string(t)] = r.Handle
	}
	return out
}

// Handle delivers a relayed cue to the local bus. Cues this instance sent
// itself are acknowledged and skipped. Malformed messages are dropped.
func (r *Relay) Handle(headers amqp.Table, body []byte) bool {
	if origin, _ := headers[HeaderOrigin].(string); origin == r.instanceID {
		return true
	}

	var msg CueMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		r.logger.Warn("dropping malformed cue", zap.Error(err))
		return true
	}
	if msg.Origin == r.instanceID {
		return true
	}
	if err := r.bus.Deliver(msg.Topic); err != nil {
		r.logger.Warn("dropping unknown cue", zap.String("topic", string(msg.Topic)), zap.Error(err))
		return true
	}
	return true
}

// Stop stops forwarding and waits for sends in progress.
func (r *Relay) Stop() {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
	r.wg.Wait()
}
