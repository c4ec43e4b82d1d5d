package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/core/ports"
	"github.com/navoditbharat/mapsketch/internal/pkg/geojson"
	"github.com/navoditbharat/mapsketch/internal/pkg/geospatial"
	"github.com/navoditbharat/mapsketch/internal/pkg/metrics"
	"github.com/navoditbharat/mapsketch/internal/pkg/telemetry"
)

// ImportResult is returned by a successful import.
type ImportResult struct {
	View     domain.View                         `json:"view"`
	Warnings []domain.UnsupportedGeometryWarning `json:"warnings"`
}

// MapService owns the live map state of the editing session. Every mutation
// goes through it and is serialized by its mutex.
type MapService struct {
	mu      sync.Mutex
	state   domain.MapState
	drawing bool
	seq     uint64 // next mutation number, guarded by mu

	// Views are published in mutation order without holding mu.
	pubMu     sync.Mutex
	pubCond   *sync.Cond
	published uint64 // next mutation number to publish, guarded by pubMu

	persistence *PersistenceService
	publisher   ports.EventPublisher
	clearOnDraw bool
}

// NewMapService creates a MapService with an empty state and drawing mode
// off. publisher may be nil.
func NewMapService(persistence *PersistenceService, publisher ports.EventPublisher, clearOnDraw bool) *MapService {
	s := &MapService{
		state:       domain.NewMapState(),
		persistence: persistence,
		publisher:   publisher,
		clearOnDraw: clearOnDraw,
	}
	s.pubCond = sync.NewCond(&s.pubMu)
	return s
}

// Click handles a map click: a polygon vertex in drawing mode, a marker
// otherwise.
func (s *MapService) Click(ctx context.Context, pos domain.Position) domain.View {
	return s.mutate(ctx, func() string {
		if s.drawing {
			s.appendVertex(pos)
			return domain.ReasonVertexAdded
		}
		s.state.Markers = append(s.state.Markers, domain.NewMarker(pos))
		return domain.ReasonMarkerAdded
	})
}

// AddMarker appends a marker.
func (s *MapService) AddMarker(ctx context.Context, pos domain.Position) domain.View {
	return s.mutate(ctx, func() string {
		s.state.Markers = append(s.state.Markers, domain.NewMarker(pos))
		return domain.ReasonMarkerAdded
	})
}

// AddVertex appends a vertex to the polygon, creating it on first use.
func (s *MapService) AddVertex(ctx context.Context, pos domain.Position) domain.View {
	return s.mutate(ctx, func() string {
		s.appendVertex(pos)
		return domain.ReasonVertexAdded
	})
}

func (s *MapService) appendVertex(pos domain.Position) {
	if s.state.Polygon == nil {
		s.state.Polygon = &domain.Polygon{Coordinates: []domain.Position{pos}}
		return
	}
	s.state.Polygon.Coordinates = append(s.state.Polygon.Coordinates, pos)
}

// ToggleDrawing flips drawing mode. With clear-on-draw enabled, entering
// drawing mode also empties the state.
func (s *MapService) ToggleDrawing(ctx context.Context) domain.View {
	return s.mutate(ctx, func() string {
		s.drawing = !s.drawing
		if s.drawing && s.clearOnDraw {
			s.state = domain.NewMapState()
		}
		return domain.ReasonDrawingToggled
	})
}

// Clear removes all markers and the polygon. Drawing mode is kept.
func (s *MapService) Clear(ctx context.Context) domain.View {
	return s.mutate(ctx, func() string {
		s.state = domain.NewMapState()
		return domain.ReasonCleared
	})
}

// Save writes a snapshot of the current state to the saved slot.
func (s *MapService) Save(ctx context.Context) error {
	return s.persistence.Save(ctx, s.State())
}

// Load replaces the current state with the saved slot. It reports false and
// leaves the state untouched when nothing usable is saved.
func (s *MapService) Load(ctx context.Context) (domain.View, bool) {
	saved, ok := s.persistence.Load(ctx)
	if !ok {
		return s.View(), false
	}

	return s.mutate(ctx, func() string {
		s.state = saved
		return domain.ReasonLoaded
	}), true
}

// Import decodes a GeoJSON document and, only if it decodes cleanly,
// replaces the current state with its contents. Unsupported features are
// skipped and returned as warnings.
func (s *MapService) Import(ctx context.Context, data []byte) (ImportResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanImport)
	defer span.End()
	span.SetAttributes(telemetry.AttrPayloadSize.Int(len(data)))

	res, err := geojson.Decode(data)
	if err != nil {
		metrics.Imports.WithLabelValues("invalid").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return ImportResult{}, err
	}

	for _, w := range res.Warnings {
		metrics.UnsupportedGeometries.WithLabelValues(w.Kind).Inc()
		slog.WarnContext(ctx, "skipping unsupported geometry", "feature", w.Index, "kind", w.Kind)
	}

	state := res.State()
	view := s.mutate(ctx, func() string {
		s.state = state
		return domain.ReasonImported
	})

	span.SetAttributes(
		telemetry.AttrMarkers.Int(len(state.Markers)),
		telemetry.AttrHasPolygon.Bool(state.Polygon != nil),
		telemetry.AttrWarnings.Int(len(res.Warnings)),
	)
	metrics.Imports.WithLabelValues("ok").Inc()

	warnings := res.Warnings
	if warnings == nil {
		warnings = []domain.UnsupportedGeometryWarning{}
	}
	return ImportResult{View: view, Warnings: warnings}, nil
}

// Export encodes the current state as a GeoJSON FeatureCollection.
func (s *MapService) Export(ctx context.Context) ([]byte, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanExport)
	defer span.End()

	state := s.State()
	data, err := geojson.Encode(state.Markers, state.Polygon)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("export: %w", err)
	}

	span.SetAttributes(
		telemetry.AttrMarkers.Int(len(state.Markers)),
		telemetry.AttrPayloadSize.Int(len(data)),
	)
	metrics.Exports.Inc()
	return data, nil
}

// View returns the render snapshot of the current state.
func (s *MapService) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildView(s.state, s.drawing)
}

// State returns a deep copy of the current state.
func (s *MapService) State() domain.MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Drawing reports whether drawing mode is on.
func (s *MapService) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// mutate runs fn under the lock, then publishes the resulting view once the
// lock is released. fn returns the event reason. Views reach the publisher
// in the order their mutations were applied.
func (s *MapService) mutate(ctx context.Context, fn func() string) domain.View {
	s.mu.Lock()
	reason := fn()
	view := BuildView(s.state, s.drawing)
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	s.pubMu.Lock()
	for s.published != seq {
		s.pubCond.Wait()
	}

	metrics.StateMutations.WithLabelValues(reason).Inc()
	metrics.Markers.Set(float64(len(view.Markers)))
	if view.Area != nil {
		metrics.PolygonArea.Set(*view.Area)
	} else {
		metrics.PolygonArea.Set(0)
	}
	s.publish(ctx, reason, view)

	s.published++
	s.pubCond.Broadcast()
	s.pubMu.Unlock()

	return view
}

func (s *MapService) publish(ctx context.Context, reason string, view domain.View) {
	if s.publisher == nil {
		return
	}

	event := &domain.StateEvent{Time: time.Now().UTC(), Reason: reason, View: view}
	if err := s.publisher.PublishStateChanged(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish state event failed", "reason", reason, "error", err)
	}
}

// BuildView derives the render snapshot of state: a copy of its geometry,
// the polygon area when defined, the bounds and the sidebar strings.
func BuildView(state domain.MapState, drawing bool) domain.View {
	state = state.Clone()
	if state.Markers == nil {
		state.Markers = []domain.Marker{}
	}

	var area *float64
	if m2, ok := geospatial.Area(state.Polygon); ok {
		area = &m2
	}

	return domain.View{
		Markers: state.Markers,
		Polygon: state.Polygon,
		Area:    area,
		Drawing: drawing,
		Bounds:  geospatial.Extent(state),
		Summary: domain.Summarize(state.Markers, area),
	}
}
