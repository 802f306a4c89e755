package pcbmodel

import "encoding/json"

// FootprintBBox is the axis-aligned box around the footprint's geometry,
// taken from board positions that already include the footprint rotation.
// RelPos is the box origin relative to Footprint.Center.
type FootprintBBox struct {
	Pos    Point
	RelPos Point
	Size   Point
	Angle  float64
}

// FootprintDrawing pairs a shape or text drawing with the layer it sits on.
type FootprintDrawing struct {
	Layer string
	Shape *Drawing
	Text  *TextDrawing
}

func (d FootprintDrawing) MarshalJSON() ([]byte, error) {
	var inner json.RawMessage
	var err error
	switch {
	case d.Shape != nil:
		inner, err = json.Marshal(*d.Shape)
	case d.Text != nil:
		inner, err = json.Marshal(*d.Text)
	default:
		inner = json.RawMessage("null")
	}
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return nil, err
	}
	fields["layer"] = mustMarshal(d.Layer)
	return json.Marshal(fields)
}

func mustMarshal(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// Footprint is a placed component: its land pattern, board-level copper
// pads, decorative/fabrication drawings, and the side of the board it sits
// on.
type Footprint struct {
	Ref      string
	Center   Point
	BBox     FootprintBBox
	Pads     []Pad
	Drawings []FootprintDrawing
	Layer    Side

	// Attr carries the footprint-level attribute atoms verbatim
	// (smd, through_hole, virtual, board_only, exclude_from_bom, ...) so the
	// BOM builder can apply skip rules without re-deriving them.
	Attr []string
}

func (f Footprint) MarshalJSON() ([]byte, error) {
	r := func(v float64) float64 { return Round(v, 6) }
	return json.Marshal(struct {
		Ref    string             `json:"ref"`
		Center [2]float64         `json:"center"`
		BBox   struct {
			Pos    [2]float64 `json:"pos"`
			RelPos [2]float64 `json:"relpos"`
			Size   [2]float64 `json:"size"`
			Angle  float64    `json:"angle"`
		} `json:"bbox"`
		Pads     []Pad              `json:"pads"`
		Drawings []FootprintDrawing `json:"drawings"`
		Layer    Side               `json:"layer"`
	}{
		Ref:    f.Ref,
		Center: [2]float64{r(f.Center.X), r(f.Center.Y)},
		BBox: struct {
			Pos    [2]float64 `json:"pos"`
			RelPos [2]float64 `json:"relpos"`
			Size   [2]float64 `json:"size"`
			Angle  float64    `json:"angle"`
		}{
			Pos:    [2]float64{r(f.BBox.Pos.X), r(f.BBox.Pos.Y)},
			RelPos: [2]float64{r(f.BBox.RelPos.X), r(f.BBox.RelPos.Y)},
			Size:   [2]float64{r(f.BBox.Size.X), r(f.BBox.Size.Y)},
			Angle:  r(f.BBox.Angle),
		},
		Pads:     f.Pads,
		Drawings: f.Drawings,
		Layer:    f.Layer,
	})
}

// HasAttr reports whether the footprint carries a given attribute atom.
func (f Footprint) HasAttr(attr string) bool {
	for _, a := range f.Attr {
		if a == attr {
			return true
		}
	}
	return false
}
