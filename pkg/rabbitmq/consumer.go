package rabbitmq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliveryHandler processes one message. Returning false re-queues it.
type DeliveryHandler func(headers amqp.Table, body []byte) bool

// QueueOptions controls the queue a consumer binds.
type QueueOptions struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
}

// Consumer reads messages from a queue bound to a topic exchange.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// NewConsumer dials RabbitMQ.
func NewConsumer(amqpURL string, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, logger: logger.Named("rabbitmq_consumer")}, nil
}

// ConsumeWithBindings binds queue to exchange once per routing key and
// dispatches each delivery to the handler of its routing key. Deliveries
// without a handler are acknowledged and dropped.
func (c *Consumer) ConsumeWithBindings(exchange, queue string, opts QueueOptions, bindings map[string]DeliveryHandler) error {
	if len(bindings) == 0 {
		return errors.New("no bindings provided")
	}
	if err := declareExchange(c.ch, exchange); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(queue, opts.Durable, opts.AutoDelete, opts.Exclusive, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	handlers := make(map[string]DeliveryHandler, len(bindings))
	for routingKey, handler := range bindings {
		if handler == nil {
			continue
		}
		handlers[routingKey] = handler
		if err := c.ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", routingKey, err)
		}
	}

	msgs, err := c.ch.Consume(q.Name, "", false, opts.Exclusive, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", q.Name, err)
	}

	go func() {
		for d := range msgs {
			handler, ok := handlers[d.RoutingKey]
			if !ok {
				c.logger.Warn("no handler for routing key; dropping", zap.String("routing_key", d.RoutingKey))
				_ = d.Ack(false)
				continue
			}
			if handler(d.Headers, d.Body) {
				_ = d.Ack(false)
			} else {
				c.logger.Warn("handler failed; re-queuing", zap.String("routing_key", d.RoutingKey))
				_ = d.Nack(false, true)
			}
		}
	}()
	return nil
}

// Close closes the channel and the connection. Consumption stops once the
// broker closes the delivery channel.
func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
