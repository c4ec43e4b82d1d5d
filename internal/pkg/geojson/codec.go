// Package geojson converts map state to and from a GeoJSON FeatureCollection.
//
// Markers travel as Point features and the polygon as a single Polygon feature
// whose outer ring is closed. Properties are always empty on export.
package geojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/pkg/geospatial"
)

// Geometry kinds handled by the codec.
const (
	KindPoint   = "Point"
	KindPolygon = "Polygon"
)

const typeFeatureCollection = "FeatureCollection"

// Result is the outcome of a successful Decode.
type Result struct {
	Markers  []domain.Marker
	Polygon  *domain.Polygon
	Warnings []domain.UnsupportedGeometryWarning
}

// State returns the decoded markers and polygon as a MapState.
func (r Result) State() domain.MapState {
	return domain.MapState{Markers: r.Markers, Polygon: r.Polygon}
}

// EncodeCollection builds the interchange document: one Point feature per
// marker in order, followed by the polygon, if any, with its ring closed.
func EncodeCollection(markers []domain.Marker, polygon *domain.Polygon) *orbjson.FeatureCollection {
	fc := orbjson.NewFeatureCollection()
	for _, m := range markers {
		fc.Append(orbjson.NewFeature(orb.Point(m.Coordinates)))
	}

	if polygon != nil {
		fc.Append(orbjson.NewFeature(orb.Polygon{geospatial.ToRing(polygon.Closed())}))
	}

	return fc
}

type featureDoc struct {
	Type       string                 `json:"type"`
	Geometry   *orbjson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type collectionDoc struct {
	Type     string       `json:"type"`
	Features []featureDoc `json:"features"`
}

// Encode serializes markers and polygon to GeoJSON bytes. Properties are
// written as an empty object, never null.
func Encode(markers []domain.Marker, polygon *domain.Polygon) ([]byte, error) {
	fc := EncodeCollection(markers, polygon)

	doc := collectionDoc{
		Type:     typeFeatureCollection,
		Features: make([]featureDoc, 0, len(fc.Features)),
	}
	for _, f := range fc.Features {
		props := map[string]interface{}(f.Properties)
		if props == nil {
			props = map[string]interface{}{}
		}
		doc.Features = append(doc.Features, featureDoc{
			Type:       "Feature",
			Geometry:   orbjson.NewGeometry(f.Geometry),
			Properties: props,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Geometry json.RawMessage `json:"geometry"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Decode parses a FeatureCollection. Point features become markers and the
// last Polygon feature becomes the polygon, its outer ring kept as received.
// Features of any other geometry kind are skipped and reported in
// Result.Warnings. Malformed documents fail with a *domain.DecodeError.
func Decode(data []byte) (Result, error) {
	var doc rawCollection
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, &domain.DecodeError{Reason: "invalid json", Err: err}
	}

	if doc.Type != typeFeatureCollection {
		return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("expected type %q, got %q", typeFeatureCollection, doc.Type)}
	}
	if doc.Features == nil {
		return Result{}, &domain.DecodeError{Reason: "missing features"}
	}

	res := Result{Markers: []domain.Marker{}}

	for i, f := range doc.Features {
		if isNull(f.Geometry) {
			return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("feature %d: missing geometry", i)}
		}

		var raw rawGeometry
		if err := json.Unmarshal(f.Geometry, &raw); err != nil {
			return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("feature %d: invalid geometry", i), Err: err}
		}

		switch raw.Type {
		case "":
			return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("feature %d: geometry without type", i)}

		case KindPoint, KindPolygon:
			if isNull(raw.Coordinates) {
				return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("feature %d: missing coordinates", i)}
			}
			if err := checkCoordinates(raw.Type, raw.Coordinates); err != nil {
				return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("feature %d: invalid %s coordinates", i, raw.Type), Err: err}
			}

			g, err := orbjson.UnmarshalGeometry(f.Geometry)
			if err != nil {
				return Result{}, &domain.DecodeError{Reason: fmt.Sprintf("feature %d: invalid %s", i, raw.Type), Err: err}
			}

			switch geom := g.Coordinates.(type) {
			case orb.Point:
				res.Markers = append(res.Markers, domain.NewMarker(domain.Position(geom)))
			case orb.Polygon:
				res.Polygon = &domain.Polygon{Coordinates: fromRing(geom[0])}
			}

		default:
			res.Warnings = append(res.Warnings, domain.UnsupportedGeometryWarning{Index: i, Kind: raw.Type})
		}
	}

	return res, nil
}

// checkCoordinates rejects coordinates that orb would silently pad or
// truncate: every position must be exactly [lng, lat] within range. Holes
// are dropped on import but must still be well formed.
func checkCoordinates(kind string, raw json.RawMessage) error {
	if kind == KindPoint {
		return checkPosition(raw)
	}

	var rings [][]json.RawMessage
	if err := json.Unmarshal(raw, &rings); err != nil {
		return fmt.Errorf("rings: %w", err)
	}
	if len(rings) == 0 {
		return errors.New("polygon without outer ring")
	}
	if len(rings[0]) == 0 {
		return errors.New("empty outer ring")
	}
	for r, ring := range rings {
		for v, pos := range ring {
			if err := checkPosition(pos); err != nil {
				return fmt.Errorf("ring %d position %d: %w", r, v, err)
			}
		}
	}
	return nil
}

func checkPosition(raw json.RawMessage) error {
	var components []*float64
	if err := json.Unmarshal(raw, &components); err != nil {
		return fmt.Errorf("position must be an array of numbers: %w", err)
	}
	if len(components) != 2 {
		return fmt.Errorf("position must be [lng, lat], got %d components", len(components))
	}
	if components[0] == nil || components[1] == nil {
		return errors.New("position has a null component")
	}
	if p := domain.NewPosition(*components[0], *components[1]); !p.Valid() {
		return fmt.Errorf("position [%g, %g] out of range", p.Lon(), p.Lat())
	}
	return nil
}

func fromRing(ring orb.Ring) []domain.Position {
	positions := make([]domain.Position, len(ring))
	for i, p := range ring {
		positions[i] = domain.Position(p)
	}
	return positions
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
