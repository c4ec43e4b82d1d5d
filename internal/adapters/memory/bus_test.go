package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// recorder collects event reasons delivered to one subscriber.
type recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recorder) handle(_ context.Context, e *domain.StateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, e.Reason)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func TestBus_Fanout(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var a, b recorder
	unsubA, err := bus.SubscribeStateChanged(ctx, a.handle)
	require.NoError(t, err)
	unsubB, err := bus.SubscribeStateChanged(ctx, b.handle)
	require.NoError(t, err)
	assert.Equal(t, 2, bus.Subscribers())

	require.NoError(t, bus.PublishStateChanged(ctx, &domain.StateEvent{Reason: domain.ReasonMarkerAdded}))
	require.Eventually(t, func() bool { return len(a.get()) == 1 && len(b.get()) == 1 }, time.Second, time.Millisecond)

	unsubA()
	unsubA()
	assert.Equal(t, 1, bus.Subscribers())

	require.NoError(t, bus.PublishStateChanged(ctx, &domain.StateEvent{Reason: domain.ReasonCleared}))
	require.Eventually(t, func() bool { return len(b.get()) == 2 }, time.Second, time.Millisecond)
	unsubB()

	assert.Equal(t, []string{domain.ReasonMarkerAdded}, a.get())
	assert.Equal(t, []string{domain.ReasonMarkerAdded, domain.ReasonCleared}, b.get())
	assert.Zero(t, bus.Subscribers())
}

func TestBus_PreservesOrderPerSubscriber(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var r recorder
	unsub, err := bus.SubscribeStateChanged(ctx, r.handle)
	require.NoError(t, err)
	defer unsub()

	reasons := []string{domain.ReasonMarkerAdded, domain.ReasonVertexAdded, domain.ReasonCleared, domain.ReasonImported}
	for _, reason := range reasons {
		require.NoError(t, bus.PublishStateChanged(ctx, &domain.StateEvent{Reason: reason}))
	}

	require.Eventually(t, func() bool { return len(r.get()) == len(reasons) }, time.Second, time.Millisecond)
	assert.Equal(t, reasons, r.get())
}

func TestBus_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewBusWithQueue(2)
	ctx := context.Background()

	stuck := make(chan struct{})
	defer close(stuck)
	_, err := bus.SubscribeStateChanged(ctx, func(context.Context, *domain.StateEvent) { <-stuck })
	require.NoError(t, err)

	var fast recorder
	unsubFast, err := bus.SubscribeStateChanged(ctx, fast.handle)
	require.NoError(t, err)
	defer unsubFast()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = bus.PublishStateChanged(ctx, &domain.StateEvent{Reason: domain.ReasonMarkerAdded})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a stalled subscriber")
	}

	assert.Eventually(t, func() bool { return len(fast.get()) > 0 }, time.Second, time.Millisecond)
}

func TestBus_NoDeliveryAfterUnsubscribe(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	unsub, err := bus.SubscribeStateChanged(ctx, func(context.Context, *domain.StateEvent) {
		calls.Add(1)
		<-release
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishStateChanged(ctx, &domain.StateEvent{Reason: domain.ReasonMarkerAdded}))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	unsubscribed := make(chan struct{})
	go func() {
		unsub()
		close(unsubscribed)
	}()

	// unsubscribe waits for the running handler to finish
	select {
	case <-unsubscribed:
		t.Fatal("unsubscribe returned while the handler was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-unsubscribed

	assert.Equal(t, int32(1), calls.Load(), "queued events must be discarded after unsubscribe")
	assert.NoError(t, bus.PublishStateChanged(ctx, &domain.StateEvent{}))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewBus().PublishStateChanged(context.Background(), &domain.StateEvent{}))
}
