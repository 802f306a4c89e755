// Package pcbmodel defines the shared, language-neutral representation of a
// printed circuit board that every vendor-format parser populates: board
// outline, silkscreen/fabrication drawings, footprints with pads, copper
// tracks and vias, filled zones, nets, and a bill of materials.
//
// All coordinates are millimeters (IEEE-754 double precision) rounded to six
// decimal places on serialization. Y grows downward (KiCad native); parsers
// that read Y-up source formats (Eagle, Altium, GDSII) negate Y at ingest so
// the sign convention never leaks past the parser boundary.
// Angles are degrees, counter-clockwise positive.
package pcbmodel

import (
	"encoding/json"
	"math"
)

func jsonMarshal(v any) ([]byte, error) { return json.Marshal(v) }

// Logger receives non-fatal diagnostics ("D03 flash with undefined
// aperture", "skipped malformed zone N") that parsers emit while still
// producing a usable partial result. Tests may replace it to capture or
// silence output.
var Logger = func(format string, args ...any) {
	// Swallowed by default; cmd/pcbextract installs a stderr-printing logger.
}

// Warnf reports a recoverable per-item defect through Logger.
func Warnf(format string, args ...any) {
	Logger(format, args...)
}

// BoundingBox is an axis-aligned rectangle in millimeters.
type BoundingBox struct {
	MinX float64 `json:"minx"`
	MinY float64 `json:"miny"`
	MaxX float64 `json:"maxx"`
	MaxY float64 `json:"maxy"`
}

// EmptyBoundingBox returns the accumulation sentinel: an inverted box whose
// Expand calls always replace both bounds on the first point seen.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// Expand grows the box to include (x, y).
func (b *BoundingBox) Expand(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// ExpandBox grows the box to include another box's extent.
func (b *BoundingBox) ExpandBox(other BoundingBox) {
	if other.IsEmpty() {
		return
	}
	b.Expand(other.MinX, other.MinY)
	b.Expand(other.MaxX, other.MaxY)
}

// IsEmpty reports whether the box is still the accumulation sentinel.
func (b BoundingBox) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Width returns maxx-minx, or 0 for an empty box.
func (b BoundingBox) Width() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height returns maxy-miny, or 0 for an empty box.
func (b BoundingBox) Height() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxY - b.MinY
}

// MarshalJSON rounds each bound to 6 decimals per the §6.2 output contract.
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	type alias struct {
		MinX float64 `json:"minx"`
		MinY float64 `json:"miny"`
		MaxX float64 `json:"maxx"`
		MaxY float64 `json:"maxy"`
	}
	return jsonMarshal(alias{Round(b.MinX, 6), Round(b.MinY, 6), Round(b.MaxX, 6), Round(b.MaxY, 6)})
}

// Round rounds v to n decimal places using standard half-away-from-zero
// rounding, matching the §8 "round(v,6)" serialization contract.
func Round(v float64, n int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	pow := math.Pow(10, float64(n))
	return math.Round(v*pow) / pow
}

// Point is a bare 2D coordinate, used for polygon rings and paths.
type Point struct {
	X float64
	Y float64
}

// Metadata captures board-level descriptive fields. All strings, possibly
// empty.
type Metadata struct {
	Title    string `json:"title"`
	Revision string `json:"revision"`
	Company  string `json:"company"`
	Date     string `json:"date"`
}

// Side is a board face: front or back copper/silkscreen/fabrication.
type Side string

const (
	SideFront Side = "F"
	SideBack  Side = "B"
)

// LayerData holds one value of type T per board side plus a map of named
// inner layers (InN). JSON marshaling flattens the inner map alongside F
// and B at the top level (see MarshalJSON).
type LayerData[T any] struct {
	F     T
	B     T
	Inner map[string]T
}

// NewLayerData returns a LayerData with a non-nil Inner map.
func NewLayerData[T any]() LayerData[T] {
	return LayerData[T]{Inner: make(map[string]T)}
}

// Get returns the value for a layer key ("F", "B", or an inner layer name),
// and whether a value is present for inner layers (F/B are always present).
func (l *LayerData[T]) Get(layer string) (T, bool) {
	switch layer {
	case "F":
		return l.F, true
	case "B":
		return l.B, true
	default:
		v, ok := l.Inner[layer]
		return v, ok
	}
}

// Set stores a value for a layer key, creating the Inner map if needed.
func (l *LayerData[T]) Set(layer string, v T) {
	switch layer {
	case "F":
		l.F = v
	case "B":
		l.B = v
	default:
		if l.Inner == nil {
			l.Inner = make(map[string]T)
		}
		l.Inner[layer] = v
	}
}
