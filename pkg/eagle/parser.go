// Package eagle parses Eagle/Fusion360 .brd board XML into pcbmodel.PcbData.
//
// Structured the way the teacher splits a format package: types.go holds the
// XML decode-target structs (mirroring pkg/kicad's sexpr Node split), this
// file holds traversal, grounded on pkg/kicad/pcb/parser.go's "build an
// index (libraries), then walk the placement records" shape.
package eagle

import (
	"math"
	"strconv"
	"strings"

	"github.com/gopcb/pcbextract/pkg/bom"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

// Parse reads an Eagle .brd/.fbrd XML document into PcbData. Eagle is
// Y-up-positive; every point crossing into PcbData has Y negated to match
// the internal KiCad-native convention (spec §4.E, §9 "normalize at
// ingest").
func Parse(data []byte, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	board, err := unmarshal(data)
	if err != nil {
		return nil, &pcbmodel.ParseError{Format: "eagle", Err: err}
	}

	packages := buildPackageIndex(board.Libraries)

	pcb := pcbmodel.NewPcbData()
	if opts.IncludeTracks {
		pcb.HasTracks = true
		pcb.Tracks = pcbmodel.NewLayerData[[]pcbmodel.Track]()
	}

	parsePlain(pcb, board.Plain)

	var components []pcbmodel.Component
	for _, elem := range board.Elements {
		fp, comp := parseElement(elem, packages)
		pcb.Footprints = append(pcb.Footprints, fp)
		components = append(components, comp)
	}

	if opts.IncludeTracks {
		parseSignals(pcb, board.Signals)
	}

	if len(components) > 0 {
		pcb.HasBom = true
		pcb.Bom = bom.Build(pcb.Footprints, components, bom.Config{})
	}

	return pcb, nil
}

// ─── layer classification ──────────────────────────────────────────────

type layerCat int

const (
	layerOther layerCat = iota
	layerCopperF
	layerCopperB
	layerSilkF
	layerSilkB
	layerFabF
	layerFabB
	layerEdge
)

func categorizeLayer(layer int) layerCat {
	switch layer {
	case 1:
		return layerCopperF
	case 16:
		return layerCopperB
	case 20:
		return layerEdge
	case 21, 25:
		return layerSilkF
	case 22, 26:
		return layerSilkB
	case 27, 51:
		return layerFabF
	case 28, 52:
		return layerFabB
	default:
		return layerOther
	}
}

func layerSide(layer int) string {
	switch layer {
	case 1, 21, 25, 27, 51:
		return "F"
	case 16, 22, 26, 28, 52:
		return "B"
	default:
		return "F"
	}
}

// mirrorLayer swaps F/B for a copper layer id used by an SMD pad under a
// mirrored element.
func mirrorLayer(layer int) string {
	switch layer {
	case 1:
		return "B"
	case 16:
		return "F"
	default:
		return layerSide(layer)
	}
}

// mirrorLayerID swaps a silkscreen/fabrication layer id with its opposite
// side, per spec §4.E's stated pairs.
func mirrorLayerID(layer int) int {
	switch layer {
	case 1:
		return 16
	case 16:
		return 1
	case 21:
		return 22
	case 22:
		return 21
	case 25:
		return 26
	case 26:
		return 25
	case 27:
		return 28
	case 28:
		return 27
	case 51:
		return 52
	case 52:
		return 51
	default:
		return layer
	}
}

// ─── libraries ──────────────────────────────────────────────────────────

type pkgDef struct {
	pads    []padXML
	smds    []smdXML
	wires   []wireXML
	circles []circleXML
	rects   []rectXML
}

func buildPackageIndex(libraries []libraryXML) map[string]pkgDef {
	index := map[string]pkgDef{}
	for _, lib := range libraries {
		for _, pkg := range lib.Packages {
			key := lib.Name + "/" + pkg.Name
			index[key] = pkgDef{
				pads:    pkg.Pads,
				smds:    pkg.Smds,
				wires:   pkg.Wires,
				circles: pkg.Circles,
				rects:   pkg.Rects,
			}
		}
	}
	return index
}

// ─── plain (board-level drawings/edges) ────────────────────────────────

func parsePlain(pcb *pcbmodel.PcbData, plain plainXML) {
	file := func(cat layerCat, d pcbmodel.Drawing) {
		switch cat {
		case layerEdge:
			pcb.Edges = append(pcb.Edges, d)
			for _, p := range envelope(d) {
				pcb.EdgesBBox.Expand(p.X, p.Y)
			}
		case layerSilkF:
			cur, _ := pcb.Drawings.Silkscreen.Get("F")
			pcb.Drawings.Silkscreen.Set("F", append(cur, d))
		case layerSilkB:
			cur, _ := pcb.Drawings.Silkscreen.Get("B")
			pcb.Drawings.Silkscreen.Set("B", append(cur, d))
		case layerFabF:
			cur, _ := pcb.Drawings.Fabrication.Get("F")
			pcb.Drawings.Fabrication.Set("F", append(cur, d))
		case layerFabB:
			cur, _ := pcb.Drawings.Fabrication.Get("B")
			pcb.Drawings.Fabrication.Set("B", append(cur, d))
		}
	}
	for _, w := range plain.Wires {
		d := pcbmodel.NewSegment(
			pcbmodel.Point{X: w.X1, Y: -w.Y1},
			pcbmodel.Point{X: w.X2, Y: -w.Y2},
			w.Width,
		)
		file(categorizeLayer(w.Layer), d)
	}
	for _, c := range plain.Circles {
		d := pcbmodel.NewCircle(pcbmodel.Point{X: c.X, Y: -c.Y}, c.Radius, c.Width)
		file(categorizeLayer(c.Layer), d)
	}
	for _, r := range plain.Rects {
		d := pcbmodel.NewRect(
			pcbmodel.Point{X: r.X1, Y: -r.Y1},
			pcbmodel.Point{X: r.X2, Y: -r.Y2},
			0,
		)
		file(categorizeLayer(r.Layer), d)
	}
}

func envelope(d pcbmodel.Drawing) []pcbmodel.Point {
	switch d.Kind {
	case pcbmodel.DrawingKindSegment:
		return []pcbmodel.Point{d.Segment.Start, d.Segment.End}
	case pcbmodel.DrawingKindRect:
		return []pcbmodel.Point{d.Rect.Start, d.Rect.End}
	case pcbmodel.DrawingKindCircle:
		c, r := d.Circle.Center, d.Circle.Radius
		return []pcbmodel.Point{{X: c.X - r, Y: c.Y - r}, {X: c.X + r, Y: c.Y + r}}
	default:
		return nil
	}
}

// ─── elements (component placements) ───────────────────────────────────

// rotatePoint applies the mirror (negate local X) then the rotation, per
// spec §4.E.
func rotatePoint(x, y, angleDeg float64, mirror bool) (float64, float64) {
	if mirror {
		x = -x
	}
	if angleDeg == 0 {
		return x, y
	}
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return x*cos - y*sin, x*sin + y*cos
}

// parseRotation splits an element's rot attribute ("R90", "MR180", "M0")
// into an angle and a mirror flag.
func parseRotation(rot string) (angle float64, mirrored bool) {
	if rot == "" {
		return 0, false
	}
	mirrored = strings.HasPrefix(rot, "M")
	rot = strings.TrimPrefix(rot, "M")
	rot = strings.TrimPrefix(rot, "R")
	angle, _ = strconv.ParseFloat(rot, 64)
	return angle, mirrored
}

func parseElement(elem elementXML, packages map[string]pkgDef) (pcbmodel.Footprint, pcbmodel.Component) {
	angle, mirrored := parseRotation(elem.Rot)
	side := pcbmodel.SideFront
	if mirrored {
		side = pcbmodel.SideBack
	}

	var pads []pcbmodel.Pad
	var drawings []pcbmodel.FootprintDrawing

	if pkg, ok := packages[elem.Library+"/"+elem.Package]; ok {
		for _, p := range pkg.pads {
			px, py := rotatePoint(p.X, p.Y, angle, mirrored)
			diameter := p.Diameter
			if diameter <= 0 {
				diameter = p.Drill * 2
			}
			pad := pcbmodel.Pad{
				Layers: []string{"F", "B"},
				Pos:    pcbmodel.Point{X: elem.X + px, Y: -(elem.Y + py)},
				Size:   pcbmodel.Point{X: diameter, Y: diameter},
				Kind:   pcbmodel.PadKindTH,
				Shape:  eaglePadShape(p.Shape),
				Pin1:   p.Name == "1" || p.Name == "A1",

				HasDrill:   true,
				DrillShape: pcbmodel.DrillShapeCircle,
				DrillSize:  pcbmodel.Point{X: p.Drill, Y: p.Drill},
			}
			if angle != 0 {
				pad.HasAngle = true
				pad.Angle = angle
			}
			pads = append(pads, pad)
		}

		for _, s := range pkg.smds {
			px, py := rotatePoint(s.X, s.Y, angle, mirrored)
			side := layerSide(s.Layer)
			if mirrored {
				side = mirrorLayer(s.Layer)
			}
			shape := pcbmodel.PadShapeRect
			if s.Roundness > 0 {
				shape = pcbmodel.PadShapeRoundrect
			}
			pad := pcbmodel.Pad{
				Layers: []string{side},
				Pos:    pcbmodel.Point{X: elem.X + px, Y: -(elem.Y + py)},
				Size:   pcbmodel.Point{X: s.Dx, Y: s.Dy},
				Kind:   pcbmodel.PadKindSMD,
				Shape:  shape,
				Pin1:   s.Name == "1" || s.Name == "A1",
			}
			if angle != 0 {
				pad.HasAngle = true
				pad.Angle = angle
			}
			if s.Roundness > 0 {
				pad.HasRadius = true
				minSide := s.Dx
				if s.Dy < minSide {
					minSide = s.Dy
				}
				pad.Radius = s.Roundness / 100 * minSide / 2
			}
			pads = append(pads, pad)
		}

		addDrawing := func(effectiveLayer int, d pcbmodel.Drawing) {
			side := ""
			switch categorizeLayer(effectiveLayer) {
			case layerSilkF, layerFabF:
				side = "F"
			case layerSilkB, layerFabB:
				side = "B"
			default:
				return
			}
			drawings = append(drawings, pcbmodel.FootprintDrawing{Layer: side, Shape: &d})
		}

		for _, w := range pkg.wires {
			effective := w.Layer
			if mirrored {
				effective = mirrorLayerID(w.Layer)
			}
			sx, sy := rotatePoint(w.X1, w.Y1, angle, mirrored)
			ex, ey := rotatePoint(w.X2, w.Y2, angle, mirrored)
			d := pcbmodel.NewSegment(
				pcbmodel.Point{X: elem.X + sx, Y: -(elem.Y + sy)},
				pcbmodel.Point{X: elem.X + ex, Y: -(elem.Y + ey)},
				w.Width,
			)
			addDrawing(effective, d)
		}
		for _, c := range pkg.circles {
			effective := c.Layer
			if mirrored {
				effective = mirrorLayerID(c.Layer)
			}
			cx, cy := rotatePoint(c.X, c.Y, angle, mirrored)
			d := pcbmodel.NewCircle(pcbmodel.Point{X: elem.X + cx, Y: -(elem.Y + cy)}, c.Radius, c.Width)
			addDrawing(effective, d)
		}
		for _, r := range pkg.rects {
			effective := r.Layer
			if mirrored {
				effective = mirrorLayerID(r.Layer)
			}
			sx, sy := rotatePoint(r.X1, r.Y1, angle, mirrored)
			ex, ey := rotatePoint(r.X2, r.Y2, angle, mirrored)
			d := pcbmodel.NewRect(
				pcbmodel.Point{X: elem.X + sx, Y: -(elem.Y + sy)},
				pcbmodel.Point{X: elem.X + ex, Y: -(elem.Y + ey)},
				0,
			)
			addDrawing(effective, d)
		}
	} else {
		pcbmodel.Warnf("eagle: element %q: no package %q/%q", elem.Name, elem.Library, elem.Package)
	}

	bbox := pcbmodel.EmptyBoundingBox()
	for _, p := range pads {
		bbox.Expand(p.Pos.X-p.Size.X/2, p.Pos.Y-p.Size.Y/2)
		bbox.Expand(p.Pos.X+p.Size.X/2, p.Pos.Y+p.Size.Y/2)
	}
	center := pcbmodel.Point{X: elem.X, Y: -elem.Y}
	if bbox.IsEmpty() {
		bbox.Expand(center.X-0.5, center.Y-0.5)
		bbox.Expand(center.X+0.5, center.Y+0.5)
	}

	fp := pcbmodel.Footprint{
		Ref:    elem.Name,
		Center: center,
		BBox: pcbmodel.FootprintBBox{
			Pos:    center,
			RelPos: pcbmodel.Point{X: bbox.MinX - center.X, Y: bbox.MinY - center.Y},
			Size:   pcbmodel.Point{X: bbox.Width(), Y: bbox.Height()},
			Angle:  angle,
		},
		Pads:     pads,
		Drawings: drawings,
		Layer:    side,
	}
	comp := pcbmodel.Component{
		Ref:           elem.Name,
		Value:         elem.Value,
		FootprintName: elem.Package,
		Layer:         side,
		Fields:        map[string]string{},
	}
	return fp, comp
}

func eaglePadShape(shape string) pcbmodel.PadShape {
	switch shape {
	case "square", "octagon":
		return pcbmodel.PadShapeRect
	case "long":
		return pcbmodel.PadShapeOval
	default:
		return pcbmodel.PadShapeCircle
	}
}

// ─── signals (tracks/vias) ──────────────────────────────────────────────

func parseSignals(pcb *pcbmodel.PcbData, signals []signalXML) {
	for _, sig := range signals {
		var net string
		var hasNet bool
		if sig.Name != "" {
			net, hasNet = sig.Name, true
		}
		for _, w := range sig.Wires {
			cat := categorizeLayer(w.Layer)
			if cat != layerCopperF && cat != layerCopperB {
				continue
			}
			t := pcbmodel.NewTrackSegment(
				pcbmodel.Point{X: w.X1, Y: -w.Y1},
				pcbmodel.Point{X: w.X2, Y: -w.Y2},
				w.Width,
			)
			t.HasNet, t.Net = hasNet, net
			side := "F"
			if cat == layerCopperB {
				side = "B"
			}
			cur, _ := pcb.Tracks.Get(side)
			pcb.Tracks.Set(side, append(cur, t))
		}
		for _, v := range sig.Vias {
			diameter := v.Diameter
			if diameter <= 0 {
				diameter = v.Drill * 2
			}
			pos := pcbmodel.Point{X: v.X, Y: -v.Y}
			via := pcbmodel.NewVia(pos, diameter, v.Drill)
			via.HasNet, via.Net = hasNet, net
			for _, side := range []string{"F", "B"} {
				cur, _ := pcb.Tracks.Get(side)
				pcb.Tracks.Set(side, append(cur, via))
			}
		}
	}
}
