// Package bus is the process-wide synchronization bus. Components announce
// that something changed by publishing a named topic; subscribers treat the
// cue as a prompt to re-query and never as new state.
package bus

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// Topic names a kind of change. Topics carry no payload.
type Topic string

const (
	TopicTransferUpdated           Topic = "transfer-updated"
	TopicCardUpdated               Topic = "card-updated"
	TopicLoanUpdated               Topic = "loan-updated"
	TopicBitcoinTransactionUpdated Topic = "bitcoin-transaction-updated"
	TopicBalanceUpdated            Topic = "balance-updated"
	TopicCheckDepositUpdated       Topic = "check-deposit-updated"
)

// Topics lists every known topic.
var Topics = []Topic{
	TopicTransferUpdated,
	TopicCardUpdated,
	TopicLoanUpdated,
	TopicBitcoinTransactionUpdated,
	TopicBalanceUpdated,
	TopicCheckDepositUpdated,
}

// ErrUnknownTopic is returned for a topic outside the Topics list.
var ErrUnknownTopic = errors.New("unknown topic")

// ParseTopic validates a raw topic name.
func ParseTopic(raw string) (Topic, error) {
	for _, t := range Topics {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTopic, raw)
}

// Handler receives the topic that fired.
type Handler func(Topic)

// Publisher announces changes. Components that only emit cues depend on this.
type Publisher interface {
	Publish(topic Topic) error
}

// Subscriber registers interest in topics.
type Subscriber interface {
	Subscribe(handler Handler, topics ...Topic) (*Subscription, error)
}

// origin distinguishes cues raised in this process from cues relayed in from
// another one. Only local cues reach forwarders.
type origin bool

const (
	originLocal  origin = true
	originRemote origin = false
)

// Bus dispatches cues synchronously in publish order through an EventBus.
// Handlers must not block and must not call back into the bus from inside
// the call; hand off to a goroutine instead.
type Bus struct {
	events EventBus.Bus
	logger *zap.Logger

	// mu is held for reading while a cue is dispatched and for writing while
	// subscriptions are rebound, so no cue is lost during a rebind.
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
}

var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)

// New creates an empty Bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		events: EventBus.New(),
		logger: logger.Named("bus"),
		subs:   make(map[uint64]*Subscription),
	}
}

// Publish announces a local change. Subscribers and forwarders are called.
func (b *Bus) Publish(topic Topic) error {
	return b.publish(topic, originLocal)
}

// Deliver injects a cue received from another process. Subscribers are
// called; forwarders are not, so relayed cues never loop back out.
func (b *Bus) Deliver(topic Topic) error {
	return b.publish(topic, originRemote)
}

func (b *Bus) publish(topic Topic, from origin) error {
	if _, err := ParseTopic(string(topic)); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.events.Publish(string(topic), topic, from)
	return nil
}

// Subscribe registers handler for the given topics. With no topics the
// handler receives every topic.
func (b *Bus) Subscribe(handler Handler, topics ...Topic) (*Subscription, error) {
	if handler == nil {
		return nil, errors.New("bus: nil handler")
	}
	if len(topics) == 0 {
		topics = Topics
	}
	for _, t := range topics {
		if _, err := ParseTopic(string(t)); err != nil {
			return nil, err
		}
	}
	return b.add(handler, topics, false)
}

// Forward registers handler for every locally published cue. It is used to
// relay cues to other processes.
func (b *Bus) Forward(handler Handler) *Subscription {
	sub, err := b.add(handler, Topics, true)
	if err != nil {
		b.logger.Error("failed to register forwarder", zap.Error(err))
		return nil
	}
	return sub
}

func (b *Bus) add(handler Handler, topics []Topic, forward bool) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &Subscription{
		bus:     b,
		id:      b.nextID,
		topics:  append([]Topic(nil), topics...),
		forward: forward,
		handler: handler,
	}
	s.fn = b.bind(s)
	for _, t := range s.topics {
		if err := b.events.Subscribe(string(t), s.fn); err != nil {
			b.rebind(s.topics...)
			return nil, fmt.Errorf("bus: failed to subscribe to %s: %w", t, err)
		}
	}
	b.subs[s.id] = s
	return s, nil
}

// bind returns the callback registered with the EventBus for s.
func (b *Bus) bind(s *Subscription) func(Topic, origin) {
	return func(topic Topic, from origin) {
		if s.forward && from != originLocal {
			return
		}
		b.call(s.handler, topic)
	}
}

func (b *Bus) call(h Handler, topic Topic) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber panicked", zap.String("topic", string(topic)), zap.Any("panic", r))
		}
	}()
	h(topic)
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s.id)
	b.rebind(s.topics...)
}

// rebind clears topics on the EventBus and registers the remaining
// subscriptions again in subscription order. The EventBus matches callbacks
// by code pointer, so every callback made by bind looks the same to
// Unsubscribe and a single one cannot be removed by identity. Callers hold
// b.mu for writing.
func (b *Bus) rebind(topics ...Topic) {
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, t := range topics {
		key := string(t)
		for i := 0; i <= len(b.subs) && b.events.HasCallback(key); i++ {
			if err := b.events.Unsubscribe(key, b.bind(&Subscription{})); err != nil {
				break
			}
		}
		if b.events.HasCallback(key) {
			b.logger.Error("failed to clear topic before rebind", zap.String("topic", key))
		}
		for _, id := range ids {
			s := b.subs[id]
			if !s.listensTo(t) {
				continue
			}
			if err := b.events.Subscribe(key, s.fn); err != nil {
				b.logger.Error("failed to rebind subscription", zap.String("topic", key), zap.Error(err))
			}
		}
	}
}

// Subscription is returned by Subscribe and Forward.
type Subscription struct {
	bus     *Bus
	id      uint64
	topics  []Topic
	forward bool
	handler Handler
	fn      func(Topic, origin)
	once    sync.Once
}

func (s *Subscription) listensTo(topic Topic) bool {
	for _, t := range s.topics {
		if t == topic {
			return true
		}
	}
	return false
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() { s.bus.remove(s) })
}
