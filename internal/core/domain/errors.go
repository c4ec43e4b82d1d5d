package domain

import "fmt"

// DecodeError reports a GeoJSON document that could not be imported.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode geojson: %s: %v", e.Reason, e.Err)
	}
	return "decode geojson: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnsupportedGeometryWarning records a feature skipped during import.
type UnsupportedGeometryWarning struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
}

func (w UnsupportedGeometryWarning) String() string {
	return fmt.Sprintf("feature %d: unsupported geometry type %q", w.Index, w.Kind)
}
