package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber with core NATS subscriptions,
// one per handler. It shares the publisher's connection.
type Subscriber struct {
	conn    *nats.Conn
	subject string
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn, subject string) *Subscriber {
	return &Subscriber{conn: conn, subject: subject}
}

// SubscribeStateChanged delivers every state event to handler. Messages that
// do not decode are dropped.
func (s *Subscriber) SubscribeStateChanged(ctx context.Context, handler func(ctx context.Context, event *domain.StateEvent)) (func(), error) {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		var event domain.StateEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping undecodable state event", "subject", msg.Subject, "error", err)
			return
		}
		handler(ctx, &event)
	})
	if err != nil {
		return nil, err
	}

	return unsubscribeFunc(sub, s.subject, slog.Default()), nil
}

type unsubscriber interface {
	Unsubscribe() error
}

// unsubscribeFunc returns a func that removes sub once. A failure is logged
// at debug level; it usually means the connection is already closed.
func unsubscribeFunc(sub unsubscriber, subject string, log *slog.Logger) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil {
				log.Debug("nats unsubscribe failed", "subject", subject, "error", err)
			}
		})
	}
}
