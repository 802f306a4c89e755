package pcbmodel

import (
	"encoding/json"
	"fmt"
)

// TrackKind tags the Track variant.
type TrackKind string

const (
	TrackKindSegment TrackKind = "segment"
	TrackKindArc     TrackKind = "arc"
)

// Track is a copper trace or via. A Segment with Start==End and a drill
// size set represents a via (spec §3).
type Track struct {
	Kind TrackKind

	// Segment fields.
	Start Point
	End   Point

	// Arc fields.
	Center     Point
	StartAngle float64
	EndAngle   float64

	Radius float64
	Width  float64

	HasNet bool
	Net    string

	HasDrill  bool
	DrillSize float64
}

func NewTrackSegment(start, end Point, width float64) Track {
	return Track{Kind: TrackKindSegment, Start: start, End: end, Width: width}
}

func NewVia(pos Point, width, drillSize float64) Track {
	return Track{Kind: TrackKindSegment, Start: pos, End: pos, Width: width, HasDrill: true, DrillSize: drillSize}
}

func NewTrackArc(center Point, startAngle, endAngle, radius, width float64) Track {
	return Track{Kind: TrackKindArc, Center: center, StartAngle: startAngle, EndAngle: endAngle, Radius: radius, Width: width}
}

// IsVia reports whether a Segment-kind track is actually a via.
func (t Track) IsVia() bool {
	return t.Kind == TrackKindSegment && t.HasDrill && t.Start == t.End
}

func (t Track) MarshalJSON() ([]byte, error) {
	r := func(v float64) float64 { return Round(v, 6) }
	rp := func(p Point) [2]float64 { return [2]float64{r(p.X), r(p.Y)} }

	switch t.Kind {
	case TrackKindSegment:
		m := map[string]any{
			"type":  "segment",
			"start": rp(t.Start),
			"end":   rp(t.End),
			"width": r(t.Width),
		}
		if t.HasNet {
			m["net"] = t.Net
		}
		if t.HasDrill {
			m["drillsize"] = r(t.DrillSize)
		}
		return json.Marshal(m)
	case TrackKindArc:
		m := map[string]any{
			"type":       "arc",
			"center":     rp(t.Center),
			"startangle": r(t.StartAngle),
			"endangle":   r(t.EndAngle),
			"radius":     r(t.Radius),
			"width":      r(t.Width),
		}
		if t.HasNet {
			m["net"] = t.Net
		}
		return json.Marshal(m)
	default:
		return nil, fmt.Errorf("pcbmodel: track has no variant set (kind=%q)", t.Kind)
	}
}

// FillRule names a zone's polygon fill rule.
type FillRule string

const (
	FillRuleEvenOdd FillRule = "evenodd"
	FillRuleNonzero FillRule = "nonzero"
)

// Zone is a filled copper polygon, described either as rings or as a raw
// SVG path.
type Zone struct {
	Polygons []Ring
	SVGPath  string
	HasSVG   bool

	HasWidth bool
	Width    float64

	HasNet bool
	Net    string

	FillRule FillRule
}

func (z Zone) MarshalJSON() ([]byte, error) {
	r := func(v float64) float64 { return Round(v, 6) }
	m := map[string]any{}
	if z.HasSVG {
		m["svgpath"] = z.SVGPath
	} else {
		rings := make([][][2]float64, len(z.Polygons))
		for i, ring := range z.Polygons {
			pts := make([][2]float64, len(ring))
			for j, p := range ring {
				pts[j] = [2]float64{r(p.X), r(p.Y)}
			}
			rings[i] = pts
		}
		m["polygons"] = rings
	}
	if z.HasWidth {
		m["width"] = r(z.Width)
	}
	if z.HasNet {
		m["net"] = z.Net
	}
	if z.FillRule != "" {
		m["fillrule"] = z.FillRule
	}
	return json.Marshal(m)
}
