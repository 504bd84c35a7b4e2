package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluewhale-protocol/api-go/cache"
	"github.com/bluewhale-protocol/api-go/config"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/rs/zerolog"
)

var ErrInvalidEvent = errors.New("invalid notification event")

// Event is the wire form of a notification travelling through a broker.
type Event struct {
	RecipientID uint   `json:"recipientId"`
	SenderID    *uint  `json:"senderId,omitempty"`
	Type        string `json:"type"`
	ContentID   *uint  `json:"contentId,omitempty"`
	CommentID   *uint  `json:"commentId,omitempty"`
	Message     string `json:"message"`
}

func (e Event) Validate() error {
	if e.RecipientID == 0 || e.Message == "" || !models.IsValidNotificationType(e.Type) {
		return ErrInvalidEvent
	}
	return nil
}

func (e Event) Notification() *models.Notification {
	return &models.Notification{
		RecipientID: e.RecipientID,
		SenderID:    e.SenderID,
		Type:        e.Type,
		ContentID:   e.ContentID,
		CommentID:   e.CommentID,
		Message:     e.Message,
	}
}

// Dispatcher hands notification events to whatever persists them.
type Dispatcher interface {
	Notify(ctx context.Context, e Event) error
	Close() error
}

// Sink is the final consumer of an event.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// StoreSink persists events and drops the recipient's cached unread count.
type StoreSink struct {
	store store.NotificationStore
	cache cache.Cache
	log   zerolog.Logger
}

func NewStoreSink(s store.NotificationStore, c cache.Cache, log zerolog.Logger) *StoreSink {
	return &StoreSink{store: s, cache: c, log: log}
}

func (s *StoreSink) Deliver(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.store.Create(ctx, e.Notification()); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cache.UnreadCountKey(e.RecipientID)); err != nil {
		s.log.Warn().Err(err).Uint("recipient_id", e.RecipientID).Msg("Failed to invalidate unread count")
	}
	return nil
}

// Direct delivers synchronously in the calling goroutine.
type Direct struct {
	sink Sink
}

func NewDirect(sink Sink) *Direct {
	return &Direct{sink: sink}
}

func (d *Direct) Notify(ctx context.Context, e Event) error {
	return d.sink.Deliver(ctx, e)
}

func (d *Direct) Close() error { return nil }

// New builds the dispatcher selected by NOTIFY_BROKER.
func New(cfg config.BrokerConfig, sink Sink, log zerolog.Logger) (Dispatcher, error) {
	switch cfg.Kind {
	case "", config.BrokerDirect:
		return NewDirect(sink), nil
	case config.BrokerAMQP:
		return NewAMQP(cfg.AMQPURL, cfg.AMQPQueue, sink, log)
	case config.BrokerNATS:
		return NewNATS(cfg.NATSURL, cfg.NATSSubject, sink, log)
	default:
		return nil, fmt.Errorf("unknown notification broker %q", cfg.Kind)
	}
}
