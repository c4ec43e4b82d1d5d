package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/core/ports"
	"github.com/navoditbharat/mapsketch/internal/pkg/metrics"
	"github.com/navoditbharat/mapsketch/internal/pkg/telemetry"
)

// DefaultStateKey is the slot the map state is saved under.
const DefaultStateKey = "mapState"

// PersistenceService saves and restores the map state in a single slot.
type PersistenceService struct {
	store ports.StateStore
	key   string
}

// NewPersistenceService creates a PersistenceService writing to key.
// An empty key falls back to DefaultStateKey.
func NewPersistenceService(store ports.StateStore, key string) *PersistenceService {
	if key == "" {
		key = DefaultStateKey
	}
	return &PersistenceService{store: store, key: key}
}

// Key returns the slot name.
func (s *PersistenceService) Key() string {
	return s.key
}

// Save overwrites the slot with state. The polygon ring is written as held,
// without closing it.
func (s *PersistenceService) Save(ctx context.Context, state domain.MapState) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSave)
	defer span.End()

	if state.Markers == nil {
		state.Markers = []domain.Marker{}
	}

	data, err := json.Marshal(state)
	if err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := s.store.Set(ctx, s.key, data); err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		return fmt.Errorf("save state: %w", err)
	}

	span.SetAttributes(
		telemetry.AttrMarkers.Int(len(state.Markers)),
		telemetry.AttrHasPolygon.Bool(state.Polygon != nil),
	)
	metrics.Saves.WithLabelValues("ok").Inc()
	return nil
}

// Load reads the slot. A missing slot, a failed read and an unparseable
// payload all report false; failures are logged, never returned.
func (s *PersistenceService) Load(ctx context.Context) (domain.MapState, bool) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLoad)
	defer span.End()

	data, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		metrics.Loads.WithLabelValues("miss").Inc()
		return domain.MapState{}, false
	case err != nil:
		metrics.Loads.WithLabelValues("error").Inc()
		span.RecordError(err)
		slog.WarnContext(ctx, "state slot read failed, treating as empty", "key", s.key, "error", err)
		return domain.MapState{}, false
	}

	var state domain.MapState
	if err := json.Unmarshal(data, &state); err != nil {
		metrics.Loads.WithLabelValues("corrupt").Inc()
		span.RecordError(err)
		slog.WarnContext(ctx, "state slot unparseable, treating as empty", "key", s.key, "error", err)
		return domain.MapState{}, false
	}

	if state.Markers == nil {
		state.Markers = []domain.Marker{}
	}

	span.SetAttributes(
		telemetry.AttrMarkers.Int(len(state.Markers)),
		telemetry.AttrHasPolygon.Bool(state.Polygon != nil),
	)
	metrics.Loads.WithLabelValues("hit").Inc()
	return state, true
}

// Discard removes the saved slot.
func (s *PersistenceService) Discard(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
