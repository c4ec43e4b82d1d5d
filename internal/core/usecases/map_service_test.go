package usecases_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/core/usecases"
)

func newMapService(clearOnDraw bool) (*usecases.MapService, *mockStore, *mockPublisher) {
	store := newMockStore()
	pub := &mockPublisher{}
	svc := usecases.NewMapService(usecases.NewPersistenceService(store, ""), pub, clearOnDraw)
	return svc, store, pub
}

func TestMapService_InitialView(t *testing.T) {
	svc, _, _ := newMapService(false)

	view := svc.View()
	if len(view.Markers) != 0 || view.Markers == nil {
		t.Errorf("expected empty non-nil markers, got %v", view.Markers)
	}
	if view.Polygon != nil || view.Area != nil || view.Drawing {
		t.Errorf("unexpected initial view: %+v", view)
	}
}

func TestMapService_ClickAddsMarker(t *testing.T) {
	svc, _, pub := newMapService(false)
	ctx := context.Background()

	svc.Click(ctx, domain.NewPosition(77.2322, 28.6122))
	view := svc.Click(ctx, domain.NewPosition(77.2322, 28.6122))

	if len(view.Markers) != 2 {
		t.Fatalf("expected 2 markers (duplicates allowed), got %d", len(view.Markers))
	}
	if view.Polygon != nil {
		t.Error("expected no polygon outside drawing mode")
	}
	if got := view.Summary.Markers[0]; got != "Marker 1: [77.2322, 28.6122]" {
		t.Errorf("unexpected summary line: %q", got)
	}
	if want := []string{domain.ReasonMarkerAdded, domain.ReasonMarkerAdded}; !reflect.DeepEqual(pub.reasons(), want) {
		t.Errorf("expected reasons %v, got %v", want, pub.reasons())
	}
}

func TestMapService_DrawingAddsVertices(t *testing.T) {
	svc, _, _ := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(5, 5))
	if view := svc.ToggleDrawing(ctx); !view.Drawing {
		t.Fatal("expected drawing mode on")
	}

	view := svc.Click(ctx, domain.NewPosition(0, 0))
	if view.Polygon == nil || len(view.Polygon.Coordinates) != 1 {
		t.Fatalf("expected polygon with 1 vertex, got %+v", view.Polygon)
	}
	if len(view.Markers) != 1 {
		t.Errorf("markers should be kept without clear-on-draw, got %d", len(view.Markers))
	}

	view = svc.Click(ctx, domain.NewPosition(0.001, 0))
	if view.Area != nil {
		t.Errorf("expected no area with 2 vertices, got %v", *view.Area)
	}

	view = svc.Click(ctx, domain.NewPosition(0.001, 0.001))
	if view.Area == nil || *view.Area <= 0 {
		t.Fatalf("expected positive area with 3 vertices, got %v", view.Area)
	}
	if len(view.Polygon.Coordinates) != 3 {
		t.Errorf("ring must stay open, got %d vertices", len(view.Polygon.Coordinates))
	}
	if view.Summary.Area == "" {
		t.Error("expected formatted area in summary")
	}

	if view := svc.ToggleDrawing(ctx); view.Drawing {
		t.Error("expected drawing mode off")
	}
	view = svc.Click(ctx, domain.NewPosition(9, 9))
	if len(view.Markers) != 2 || len(view.Polygon.Coordinates) != 3 {
		t.Errorf("click outside drawing mode should add a marker: %+v", view)
	}
}

func TestMapService_ClearOnDraw(t *testing.T) {
	svc, _, _ := newMapService(true)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(1, 1))
	view := svc.ToggleDrawing(ctx)
	if len(view.Markers) != 0 {
		t.Errorf("expected state cleared when entering drawing mode, got %d markers", len(view.Markers))
	}

	svc.AddVertex(ctx, domain.NewPosition(0, 0))
	view = svc.ToggleDrawing(ctx)
	if view.Polygon == nil {
		t.Error("leaving drawing mode must not clear")
	}
}

func TestMapService_ClearKeepsDrawing(t *testing.T) {
	svc, _, pub := newMapService(false)
	ctx := context.Background()

	svc.ToggleDrawing(ctx)
	svc.AddVertex(ctx, domain.NewPosition(0, 0))
	svc.AddMarker(ctx, domain.NewPosition(1, 1))

	view := svc.Clear(ctx)
	if len(view.Markers) != 0 || view.Polygon != nil || view.Area != nil {
		t.Errorf("expected empty view, got %+v", view)
	}
	if !view.Drawing {
		t.Error("clear should not leave drawing mode")
	}

	reasons := pub.reasons()
	if reasons[len(reasons)-1] != domain.ReasonCleared {
		t.Errorf("expected last reason %q, got %q", domain.ReasonCleared, reasons[len(reasons)-1])
	}
}

func TestMapService_ViewIsolation(t *testing.T) {
	svc, _, _ := newMapService(false)
	ctx := context.Background()

	svc.AddVertex(ctx, domain.NewPosition(0, 0))
	view := svc.AddMarker(ctx, domain.NewPosition(1, 1))

	view.Markers[0] = domain.NewMarker(domain.NewPosition(99, 99))
	view.Polygon.Coordinates[0] = domain.NewPosition(99, 99)

	state := svc.State()
	if state.Markers[0].Coordinates != domain.NewPosition(1, 1) {
		t.Error("view mutation leaked into marker state")
	}
	if state.Polygon.Coordinates[0] != domain.NewPosition(0, 0) {
		t.Error("view mutation leaked into polygon state")
	}
}

func TestMapService_SaveAndLoad(t *testing.T) {
	svc, store, pub := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(1, 2))
	svc.AddVertex(ctx, domain.NewPosition(0, 0))
	if err := svc.Save(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.data[usecases.DefaultStateKey]; !ok {
		t.Fatal("expected slot to be written")
	}

	svc.Clear(ctx)

	view, ok := svc.Load(ctx)
	if !ok {
		t.Fatal("expected saved state")
	}
	if len(view.Markers) != 1 || view.Polygon == nil {
		t.Errorf("unexpected loaded view: %+v", view)
	}

	reasons := pub.reasons()
	if reasons[len(reasons)-1] != domain.ReasonLoaded {
		t.Errorf("expected last reason %q, got %q", domain.ReasonLoaded, reasons[len(reasons)-1])
	}
}

func TestMapService_LoadNothingSaved(t *testing.T) {
	svc, _, pub := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(1, 2))
	before := len(pub.reasons())

	view, ok := svc.Load(ctx)
	if ok {
		t.Fatal("expected no saved state")
	}
	if len(view.Markers) != 1 {
		t.Error("state must be untouched when nothing is saved")
	}
	if len(pub.reasons()) != before {
		t.Error("no event expected when nothing is loaded")
	}
}

const sampleCollection = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[3,4]}},
	{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}},
	{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.01,0],[0.01,0.01],[0,0]]]}}
]}`

func TestMapService_Import(t *testing.T) {
	svc, _, pub := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(50, 50))
	svc.AddMarker(ctx, domain.NewPosition(51, 51))

	res, err := svc.Import(ctx, []byte(sampleCollection))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.View.Markers) != 1 || res.View.Markers[0].Coordinates != domain.NewPosition(3, 4) {
		t.Errorf("expected imported markers to replace the old ones, got %v", res.View.Markers)
	}
	if res.View.Polygon == nil || len(res.View.Polygon.Coordinates) != 4 {
		t.Fatalf("expected polygon ring kept as received, got %+v", res.View.Polygon)
	}
	if res.View.Area == nil {
		t.Error("expected area for imported triangle")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != "LineString" || res.Warnings[0].Index != 1 {
		t.Errorf("unexpected warnings: %+v", res.Warnings)
	}

	reasons := pub.reasons()
	if reasons[len(reasons)-1] != domain.ReasonImported {
		t.Errorf("expected last reason %q, got %q", domain.ReasonImported, reasons[len(reasons)-1])
	}
}

func TestMapService_ImportMalformedKeepsState(t *testing.T) {
	svc, _, pub := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(50, 50))
	before := len(pub.reasons())

	_, err := svc.Import(ctx, []byte(`{"type":"FeatureCollection","features":[{"geometry":null}]}`))

	var decodeErr *domain.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *domain.DecodeError, got %v", err)
	}

	state := svc.State()
	if len(state.Markers) != 1 || state.Markers[0].Coordinates != domain.NewPosition(50, 50) {
		t.Errorf("state must be untouched after a failed import, got %+v", state)
	}
	if len(pub.reasons()) != before {
		t.Error("no event expected after a failed import")
	}
}

func TestMapService_ImportEmptyCollectionClears(t *testing.T) {
	svc, _, _ := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(50, 50))
	res, err := svc.Import(ctx, []byte(`{"type":"FeatureCollection","features":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.View.Markers) != 0 || res.View.Polygon != nil {
		t.Errorf("expected empty state, got %+v", res.View)
	}
	if res.Warnings == nil {
		t.Error("expected non-nil warnings")
	}
}

func TestMapService_ExportImportRoundTrip(t *testing.T) {
	svc, _, _ := newMapService(false)
	ctx := context.Background()

	svc.AddMarker(ctx, domain.NewPosition(77.2322, 28.6122))
	svc.AddVertex(ctx, domain.NewPosition(0, 0))
	svc.AddVertex(ctx, domain.NewPosition(0.01, 0))
	svc.AddVertex(ctx, domain.NewPosition(0.01, 0.01))
	before := svc.View()

	data, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other, _, _ := newMapService(false)
	res, err := other.Import(ctx, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(res.View.Markers, before.Markers) {
		t.Errorf("markers differ after round trip: %v vs %v", res.View.Markers, before.Markers)
	}
	if *res.View.Area != *before.Area {
		t.Errorf("area differs after round trip: %v vs %v", *res.View.Area, *before.Area)
	}

	again, err := other.Export(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("export is not stable:\n%s\n%s", data, again)
	}
}

func TestMapService_PublishErrorIgnored(t *testing.T) {
	store := newMockStore()
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewMapService(usecases.NewPersistenceService(store, ""), pub, false)

	view := svc.AddMarker(context.Background(), domain.NewPosition(1, 1))
	if len(view.Markers) != 1 {
		t.Error("mutation must succeed when publishing fails")
	}
}

func TestMapService_NilPublisher(t *testing.T) {
	svc := usecases.NewMapService(usecases.NewPersistenceService(newMockStore(), ""), nil, false)
	if view := svc.AddMarker(context.Background(), domain.NewPosition(1, 1)); len(view.Markers) != 1 {
		t.Error("expected marker")
	}
}

func TestMapService_ConcurrentMutations(t *testing.T) {
	svc, _, _ := newMapService(false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.AddMarker(ctx, domain.NewPosition(float64(i), 0))
			_ = svc.View()
		}(i)
	}
	wg.Wait()

	if got := len(svc.State().Markers); got != 50 {
		t.Errorf("expected 50 markers, got %d", got)
	}
}

func TestMapService_PublishesInMutationOrder(t *testing.T) {
	pub := newBlockingPublisher()
	svc := usecases.NewMapService(usecases.NewPersistenceService(newMockStore(), ""), pub, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.AddMarker(ctx, domain.NewPosition(1, 1))
	}()
	<-pub.entered

	go func() {
		defer wg.Done()
		svc.AddMarker(ctx, domain.NewPosition(2, 2))
	}()

	// The second mutation applies while the first publish is still stuck.
	deadline := time.Now().Add(2 * time.Second)
	for len(svc.View().Markers) != 2 {
		if time.Now().After(deadline) {
			t.Fatal("second mutation blocked behind a pending publish")
		}
		time.Sleep(time.Millisecond)
	}

	close(pub.release)
	wg.Wait()

	if got := pub.markerCounts(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected events for 1 then 2 markers, got %v", got)
	}
}

func TestMapService_ConcurrentEventsStayOrdered(t *testing.T) {
	svc, _, pub := newMapService(false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.AddMarker(ctx, domain.NewPosition(float64(i), 0))
		}(i)
	}
	wg.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 50 {
		t.Fatalf("expected 50 events, got %d", len(pub.events))
	}
	for i, e := range pub.events {
		if len(e.View.Markers) != i+1 {
			t.Fatalf("event %d carries %d markers, want %d", i, len(e.View.Markers), i+1)
		}
	}
}
