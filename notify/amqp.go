package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

// AMQPDispatcher publishes events to a durable RabbitMQ queue and runs a
// consumer on the same queue, so replicas share the write load. A dropped
// connection is re-dialled with exponential backoff.
type AMQPDispatcher struct {
	url   string
	queue string
	sink  Sink
	log   zerolog.Logger

	// mu guards conn and pub; amqp channels are not safe for concurrent publishing
	mu   sync.Mutex
	conn *amqp.Connection
	pub  *amqp.Channel

	closing chan struct{}
	done    chan struct{}
}

func NewAMQP(url, queue string, sink Sink, log zerolog.Logger) (*AMQPDispatcher, error) {
	d := &AMQPDispatcher{
		url:     url,
		queue:   queue,
		sink:    sink,
		log:     log.With().Str("component", "notify-amqp").Logger(),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	deliveries, err := d.connect()
	if err != nil {
		return nil, err
	}
	go d.run(deliveries)

	d.log.Info().Str("queue", queue).Msg("RabbitMQ notification dispatcher initialized")
	return d, nil
}

// connect dials the broker, declares the queue and starts consuming it.
func (d *AMQPDispatcher) connect() (<-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if _, err := pub.QueueDeclare(d.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare RabbitMQ queue: %w", err)
	}

	sub, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ consumer channel: %w", err)
	}
	if err := sub.Qos(10, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set RabbitMQ qos: %w", err)
	}

	deliveries, err := sub.Consume(d.queue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to consume RabbitMQ queue: %w", err)
	}

	d.mu.Lock()
	d.conn, d.pub = conn, pub
	d.mu.Unlock()
	return deliveries, nil
}

func (d *AMQPDispatcher) Notify(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pub.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// run consumes until Close. When the delivery channel closes for any other
// reason the connection is rebuilt.
func (d *AMQPDispatcher) run(deliveries <-chan amqp.Delivery) {
	defer close(d.done)
	for {
		d.consume(deliveries)

		select {
		case <-d.closing:
			return
		default:
		}
		d.log.Error().Str("queue", d.queue).Msg("RabbitMQ consumer stopped unexpectedly, reconnecting")

		var ok bool
		if deliveries, ok = d.reconnect(); !ok {
			return
		}
	}
}

// reconnect retries connect until it succeeds or Close is called.
func (d *AMQPDispatcher) reconnect() (<-chan amqp.Delivery, bool) {
	delay := minReconnectDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-d.closing:
			return nil, false
		case <-time.After(delay):
		}

		deliveries, err := d.connect()
		if err == nil {
			select {
			case <-d.closing:
				d.closeConn()
				return nil, false
			default:
			}
			d.log.Info().Int("attempt", attempt).Msg("RabbitMQ connection restored")
			return deliveries, true
		}

		d.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("RabbitMQ reconnect failed")
		delay = nextReconnectDelay(delay)
	}
}

func nextReconnectDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		return maxReconnectDelay
	}
	return d
}

func (d *AMQPDispatcher) consume(deliveries <-chan amqp.Delivery) {
	for msg := range deliveries {
		handleDelivery(context.Background(), d.sink, d.log, msg.Body, func(ok bool) {
			if ok {
				msg.Ack(false)
			} else {
				msg.Nack(false, false)
			}
		})
	}
}

func (d *AMQPDispatcher) closeConn() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil || d.conn.IsClosed() {
		return nil
	}
	return d.conn.Close()
}

// Close stops the consumer and closes the connection with its channels.
func (d *AMQPDispatcher) Close() error {
	close(d.closing)
	err := d.closeConn()
	<-d.done
	return err
}

// handleDelivery decodes and delivers one broker message. Malformed or
// undeliverable messages are acknowledged negatively and logged.
func handleDelivery(ctx context.Context, sink Sink, log zerolog.Logger, body []byte, ack func(bool)) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		log.Error().Err(err).Msg("Failed to parse notification event")
		ack(false)
		return
	}
	if err := sink.Deliver(ctx, e); err != nil {
		log.Error().Err(err).Uint("recipient_id", e.RecipientID).Str("type", e.Type).Msg("Failed to store notification")
		ack(false)
		return
	}
	ack(true)
}
