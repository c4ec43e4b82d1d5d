package ports

import (
	"context"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// EventPublisher publishes state change events to a message broker.
type EventPublisher interface {
	PublishStateChanged(ctx context.Context, event *domain.StateEvent) error
}

// EventSubscriber delivers state change events to a handler until the
// returned unsubscribe func is called.
type EventSubscriber interface {
	SubscribeStateChanged(ctx context.Context, handler func(ctx context.Context, event *domain.StateEvent)) (unsubscribe func(), err error)
}
