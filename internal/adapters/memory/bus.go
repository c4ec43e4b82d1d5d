// Package memory provides an in-process event bus used when no message
// broker is configured.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// DefaultQueueSize is the number of events buffered per subscriber.
const DefaultQueueSize = 64

type subscription struct {
	events chan *domain.StateEvent
	stop   chan struct{}
	done   chan struct{}
}

// Bus implements ports.EventPublisher and ports.EventSubscriber in process.
// Every subscriber gets its own buffered queue drained by its own goroutine,
// so a slow handler never holds up the publisher or other subscribers.
// Events that do not fit a full queue are dropped for that subscriber.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	subs      map[int]*subscription
	queueSize int
}

// NewBus creates an empty bus with DefaultQueueSize queues.
func NewBus() *Bus {
	return NewBusWithQueue(DefaultQueueSize)
}

// NewBusWithQueue creates an empty bus buffering size events per subscriber.
func NewBusWithQueue(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{subs: make(map[int]*subscription), queueSize: size}
}

// PublishStateChanged queues event for every current subscriber. It never
// blocks on a subscriber.
func (b *Bus) PublishStateChanged(ctx context.Context, event *domain.StateEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, s := range b.subs {
		select {
		case s.events <- event:
		default:
			slog.WarnContext(ctx, "subscriber queue full, dropping state event", "subscriber", id, "reason", event.Reason)
		}
	}
	return nil
}

// SubscribeStateChanged runs handler for each event until the returned func
// is called. Once it returns, handler is not running and will not run again;
// events still queued are discarded.
func (b *Bus) SubscribeStateChanged(ctx context.Context, handler func(ctx context.Context, event *domain.StateEvent)) (func(), error) {
	s := &subscription{
		events: make(chan *domain.StateEvent, b.queueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.stop:
				return
			case event := <-s.events:
				select {
				case <-s.stop:
					return
				default:
				}
				handler(ctx, event)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.stop)
			<-s.done
		})
	}, nil
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
