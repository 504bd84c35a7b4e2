package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const natsQueueGroup = "notification-writers"

// NATSDispatcher publishes events on a subject; a queue-group subscriber
// in every replica persists them, each event handled once.
type NATSDispatcher struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	log     zerolog.Logger
}

func NewNATS(url, subject string, sink Sink, log zerolog.Logger) (*NATSDispatcher, error) {
	conn, err := nats.Connect(url, nats.Name("bluewhale-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	d := &NATSDispatcher{
		conn:    conn,
		subject: subject,
		log:     log.With().Str("component", "notify-nats").Logger(),
	}

	d.sub, err = conn.QueueSubscribe(subject, natsQueueGroup, func(msg *nats.Msg) {
		handleDelivery(context.Background(), sink, d.log, msg.Data, func(bool) {})
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	d.log.Info().Str("subject", subject).Msg("NATS notification dispatcher initialized")
	return d, nil
}

func (d *NATSDispatcher) Notify(_ context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return d.conn.Publish(d.subject, body)
}

func (d *NATSDispatcher) Close() error {
	if err := d.sub.Unsubscribe(); err != nil {
		d.log.Warn().Err(err).Msg("Failed to unsubscribe")
	}
	return d.conn.Drain()
}
