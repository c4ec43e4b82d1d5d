package usecases_test

import (
	"context"
	"sync"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/core/ports"
)

// --- Mock StateStore ---

type mockStore struct {
	mu   sync.Mutex
	data map[string][]byte

	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.StateEvent
	err    error
}

func (m *mockPublisher) PublishStateChanged(ctx context.Context, event *domain.StateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockPublisher) reasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Reason
	}
	return out
}

// --- Blocking EventPublisher ---

// blockingPublisher holds its first publish until release is closed and
// records the marker count of every event it sees.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu      sync.Mutex
	markers []int
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingPublisher) PublishStateChanged(ctx context.Context, event *domain.StateEvent) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.markers = append(b.markers, len(event.View.Markers))
	return nil
}

func (b *blockingPublisher) markerCounts() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.markers...)
}
