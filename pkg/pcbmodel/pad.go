package pcbmodel

import "encoding/json"

// PadShape is the outline of a single solderable contact.
type PadShape string

const (
	PadShapeRect      PadShape = "rect"
	PadShapeOval      PadShape = "oval"
	PadShapeCircle    PadShape = "circle"
	PadShapeRoundrect PadShape = "roundrect"
	PadShapeChamfrect PadShape = "chamfrect"
	PadShapeCustom    PadShape = "custom"
)

// PadKind distinguishes surface-mount from through-hole pads.
type PadKind string

const (
	PadKindSMD PadKind = "smd"
	PadKindTH  PadKind = "th"
)

// DrillShape describes a through-hole pad's drill.
type DrillShape string

const (
	DrillShapeCircle DrillShape = "circle"
	DrillShapeOblong DrillShape = "oblong"
)

// Chamfer corner bitmask: 1=TopLeft, 2=TopRight, 4=BottomRight, 8=BottomLeft.
const (
	ChamferTopLeft     = 1
	ChamferTopRight    = 2
	ChamferBottomRight = 4
	ChamferBottomLeft  = 8
)

// Pad is a single land pattern contact, in footprint-local coordinates
// already rotated/translated to absolute board position by the owning
// parser (spec §4.C "Pads ... convert to absolute").
type Pad struct {
	Layers []string
	Pos    Point
	Size   Point // Size.X = width, Size.Y = height
	Shape  PadShape
	Kind   PadKind

	HasAngle bool
	Angle    float64

	Pin1    bool
	HasNet  bool
	Net     string
	HasNetN bool
	NetN    int

	HasOffset bool
	Offset    Point

	HasRadius bool
	Radius    float64

	HasChamfer  bool
	ChamfPos    int
	ChamfRatio  float64
	HasDrill    bool
	DrillShape  DrillShape
	DrillSize   Point
	SVGPath     string
	HasSVGPath  bool
	Polygons    []Ring
	HasPolygons bool
}

func (p Pad) MarshalJSON() ([]byte, error) {
	r := func(v float64) float64 { return Round(v, 6) }
	m := map[string]any{
		"layers": p.Layers,
		"pos":    [2]float64{r(p.Pos.X), r(p.Pos.Y)},
		"size":   [2]float64{r(p.Size.X), r(p.Size.Y)},
		"shape":  p.Shape,
		"kind":   p.Kind,
	}
	if p.Pin1 {
		m["pin1"] = true
	}
	if p.HasAngle {
		m["angle"] = r(p.Angle)
	}
	if p.HasNet {
		m["net"] = p.Net
	}
	if p.HasOffset {
		m["offset"] = [2]float64{r(p.Offset.X), r(p.Offset.Y)}
	}
	if p.HasRadius {
		m["radius"] = r(p.Radius)
	}
	if p.HasChamfer {
		m["chamfpos"] = p.ChamfPos
		m["chamfratio"] = r(p.ChamfRatio)
	}
	if p.HasDrill {
		m["drillshape"] = p.DrillShape
		m["drillsize"] = [2]float64{r(p.DrillSize.X), r(p.DrillSize.Y)}
	}
	if p.HasSVGPath {
		m["svgpath"] = p.SVGPath
	}
	if p.HasPolygons {
		rings := make([][][2]float64, len(p.Polygons))
		for i, ring := range p.Polygons {
			pts := make([][2]float64, len(ring))
			for j, pt := range ring {
				pts[j] = [2]float64{r(pt.X), r(pt.Y)}
			}
			rings[i] = pts
		}
		m["polygons"] = rings
	}
	return json.Marshal(m)
}
