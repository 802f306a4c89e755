package pcbmodel

import (
	"encoding/json"
	"fmt"
)

// DrawingKind tags the variant held by a Drawing. Drawing is a closed sum
// type (spec §9): exactly one of the embedded pointers is non-nil, matching
// Kind. Implementers pattern-matching on Kind should treat an unrecognized
// value as a programmer error, not a data error.
type DrawingKind string

const (
	DrawingKindSegment DrawingKind = "segment"
	DrawingKindRect    DrawingKind = "rect"
	DrawingKindCircle  DrawingKind = "circle"
	DrawingKindArc     DrawingKind = "arc"
	DrawingKindCurve   DrawingKind = "curve"
	DrawingKindPolygon DrawingKind = "polygon"
)

// Drawing is a tagged union over the board/silkscreen/fabrication shape
// primitives described in spec §3.
type Drawing struct {
	Kind    DrawingKind
	Segment *SegmentShape
	Rect    *RectShape
	Circle  *CircleShape
	Arc     *ArcShape
	Curve   *CurveShape
	Polygon *PolygonShape
}

type SegmentShape struct {
	Start Point
	End   Point
	Width float64
}

type RectShape struct {
	Start Point
	End   Point
	Width float64
}

type CircleShape struct {
	Center  Point
	Radius  float64
	Width   float64
	Filled  bool
	HasFill bool // distinguishes "filled omitted" from "filled=false"
}

// ArcShape sweeps counter-clockwise from StartAngle to EndAngle, degrees.
type ArcShape struct {
	Center     Point
	Radius     float64
	StartAngle float64
	EndAngle   float64
	Width      float64
}

// CurveShape is a cubic Bezier: start, two control points, end.
type CurveShape struct {
	Start Point
	CPA   Point
	CPB   Point
	End   Point
	Width float64
}

// Ring is one closed polygon contour. The first Ring in a PolygonShape is
// the outer boundary; subsequent rings are holes (even-odd fill).
type Ring []Point

// PolygonShape is an outer ring plus optional holes, with an overall
// position/rotation and optional stroke width.
type PolygonShape struct {
	Pos     Point
	Angle   float64
	Rings   []Ring
	Filled  bool
	HasFill bool
	Width   float64
}

func NewSegment(start, end Point, width float64) Drawing {
	return Drawing{Kind: DrawingKindSegment, Segment: &SegmentShape{start, end, width}}
}

func NewRect(start, end Point, width float64) Drawing {
	return Drawing{Kind: DrawingKindRect, Rect: &RectShape{start, end, width}}
}

func NewCircle(center Point, radius, width float64) Drawing {
	return Drawing{Kind: DrawingKindCircle, Circle: &CircleShape{Center: center, Radius: radius, Width: width}}
}

func NewFilledCircle(center Point, radius float64, filled bool) Drawing {
	return Drawing{Kind: DrawingKindCircle, Circle: &CircleShape{Center: center, Radius: radius, Filled: filled, HasFill: true}}
}

func NewArc(center Point, radius, startAngle, endAngle, width float64) Drawing {
	return Drawing{Kind: DrawingKindArc, Arc: &ArcShape{center, radius, startAngle, endAngle, width}}
}

func NewCurve(start, cpa, cpb, end Point, width float64) Drawing {
	return Drawing{Kind: DrawingKindCurve, Curve: &CurveShape{start, cpa, cpb, end, width}}
}

func NewPolygon(pos Point, angle float64, rings []Ring, width float64) Drawing {
	return Drawing{Kind: DrawingKindPolygon, Polygon: &PolygonShape{Pos: pos, Angle: angle, Rings: rings, Width: width}}
}

// MarshalJSON emits the tagged-union shape described in spec §6.2:
// {"type": "...", ...fields, coordinates rounded to 6 decimals}.
func (d Drawing) MarshalJSON() ([]byte, error) {
	r := func(v float64) float64 { return Round(v, 6) }
	rp := func(p Point) [2]float64 { return [2]float64{r(p.X), r(p.Y)} }

	switch d.Kind {
	case DrawingKindSegment:
		s := d.Segment
		return json.Marshal(struct {
			Type  string     `json:"type"`
			Start [2]float64 `json:"start"`
			End   [2]float64 `json:"end"`
			Width float64    `json:"width"`
		}{"segment", rp(s.Start), rp(s.End), r(s.Width)})
	case DrawingKindRect:
		s := d.Rect
		return json.Marshal(struct {
			Type  string     `json:"type"`
			Start [2]float64 `json:"start"`
			End   [2]float64 `json:"end"`
			Width float64    `json:"width"`
		}{"rect", rp(s.Start), rp(s.End), r(s.Width)})
	case DrawingKindCircle:
		s := d.Circle
		out := struct {
			Type   string     `json:"type"`
			Start  [2]float64 `json:"start"`
			Radius float64    `json:"radius"`
			Width  float64    `json:"width"`
			Filled *bool      `json:"filled,omitempty"`
		}{"circle", rp(s.Center), r(s.Radius), r(s.Width), nil}
		if s.HasFill {
			out.Filled = &s.Filled
		}
		return json.Marshal(out)
	case DrawingKindArc:
		s := d.Arc
		return json.Marshal(struct {
			Type       string     `json:"type"`
			Center     [2]float64 `json:"center"`
			Radius     float64    `json:"radius"`
			StartAngle float64    `json:"startangle"`
			EndAngle   float64    `json:"endangle"`
			Width      float64    `json:"width"`
		}{"arc", rp(s.Center), r(s.Radius), r(s.StartAngle), r(s.EndAngle), r(s.Width)})
	case DrawingKindCurve:
		s := d.Curve
		return json.Marshal(struct {
			Type  string     `json:"type"`
			Start [2]float64 `json:"start"`
			CPA   [2]float64 `json:"cpa"`
			CPB   [2]float64 `json:"cpb"`
			End   [2]float64 `json:"end"`
			Width float64    `json:"width"`
		}{"curve", rp(s.Start), rp(s.CPA), rp(s.CPB), rp(s.End), r(s.Width)})
	case DrawingKindPolygon:
		s := d.Polygon
		rings := make([][][2]float64, len(s.Rings))
		for i, ring := range s.Rings {
			pts := make([][2]float64, len(ring))
			for j, p := range ring {
				pts[j] = rp(p)
			}
			rings[i] = pts
		}
		out := struct {
			Type   string         `json:"type"`
			Pos    [2]float64     `json:"pos"`
			Angle  float64        `json:"angle"`
			Rings  [][][2]float64 `json:"rings"`
			Width  float64        `json:"width"`
			Filled *bool          `json:"filled,omitempty"`
		}{"polygon", rp(s.Pos), r(s.Angle), rings, r(s.Width), nil}
		if s.HasFill {
			out.Filled = &s.Filled
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("pcbmodel: drawing has no variant set (kind=%q)", d.Kind)
	}
}

// Justify is the (horizontal, vertical) text anchor, each in {-1,0,1}.
type Justify struct {
	H int
	V int
}

// TextDrawing is either an SVG-path render (EasyEDA/Eagle-style glyph
// outlines) or a stroke-font render (KiCad-style). At least one form must
// be populated.
type TextDrawing struct {
	SVGPath   string
	Thickness float64
	HasSVG    bool

	Pos       Point
	Text      string
	Height    float64
	Width     float64
	StrokeW   float64
	Justify   Justify
	Angle     float64
	Italic    bool
	Mirrored  bool
	HasStroke bool
}

func NewSVGText(svgpath string, thickness float64) TextDrawing {
	return TextDrawing{SVGPath: svgpath, Thickness: thickness, HasSVG: true}
}

func NewStrokeText(pos Point, text string, height, width, thickness float64, justify Justify, angle float64, italic, mirrored bool) TextDrawing {
	return TextDrawing{
		Pos: pos, Text: text, Height: height, Width: width, StrokeW: thickness,
		Justify: justify, Angle: angle, Italic: italic, Mirrored: mirrored, HasStroke: true,
	}
}

func (t TextDrawing) MarshalJSON() ([]byte, error) {
	r := func(v float64) float64 { return Round(v, 6) }
	m := map[string]any{}
	if t.HasSVG {
		m["svgpath"] = t.SVGPath
		if t.Thickness != 0 {
			m["thickness"] = r(t.Thickness)
		}
	}
	if t.HasStroke {
		m["pos"] = [2]float64{r(t.Pos.X), r(t.Pos.Y)}
		m["text"] = t.Text
		m["height"] = r(t.Height)
		m["width"] = r(t.Width)
		m["thickness"] = r(t.StrokeW)
		m["justify"] = [2]int{t.Justify.H, t.Justify.V}
		m["angle"] = r(t.Angle)
		var attrs []string
		if t.Italic {
			attrs = append(attrs, "italic")
		}
		if t.Mirrored {
			attrs = append(attrs, "mirrored")
		}
		if len(attrs) > 0 {
			m["attrs"] = attrs
		}
	}
	return json.Marshal(m)
}
