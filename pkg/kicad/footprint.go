package kicad

import (
	"fmt"
	"math"
	"strings"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/gopcb/pcbextract/pkg/sexpr"
)

// rotate turns a footprint-local point into absolute board coordinates:
// rotate about the origin by angleDeg (counter-clockwise), then translate
// by origin (spec §4.C "convert to absolute by rotating by footprint angle
// then translating").
func rotate(local pcbmodel.Point, angleDeg float64, origin pcbmodel.Point) pcbmodel.Point {
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return pcbmodel.Point{
		X: origin.X + local.X*cos - local.Y*sin,
		Y: origin.Y + local.X*sin + local.Y*cos,
	}
}

func parseFootprintPosition(n sexpr.Node) (pcbmodel.Point, float64, error) {
	at, ok := n.Find("at")
	if !ok {
		return pcbmodel.Point{}, 0, fmt.Errorf("kicad: footprint: missing at")
	}
	x, err := at.Float(1)
	if err != nil {
		return pcbmodel.Point{}, 0, err
	}
	y, err := at.Float(2)
	if err != nil {
		return pcbmodel.Point{}, 0, err
	}
	angle := at.FloatOr(3, 0)
	return pcbmodel.Point{X: x, Y: y}, angle, nil
}

// parseFootprint converts a `(footprint "Lib:Name" ...)` (or legacy
// `(module ...)`) node into a Footprint plus its Component BOM record.
func parseFootprint(n sexpr.Node, netIndex map[int]string) (pcbmodel.Footprint, pcbmodel.Component, error) {
	libID := n.StringOr(1, "")
	_, name := splitLibID(libID)

	pos, angle, err := parseFootprintPosition(n)
	if err != nil {
		return pcbmodel.Footprint{}, pcbmodel.Component{}, err
	}

	layer := n.StringOr(0, "")
	if layerNode, ok := n.Find("layer"); ok {
		layer = layerNode.StringOr(1, "F.Cu")
	}
	side := pcbmodel.SideFront
	if strings.HasPrefix(layer, "B.") {
		side = pcbmodel.SideBack
	}

	fp := pcbmodel.Footprint{Layer: side}
	comp := pcbmodel.Component{FootprintName: name, Fields: map[string]string{}}

	for _, child := range n.Rest() {
		if child.IsAtom() {
			fp.Attr = append(fp.Attr, child.Atom())
			continue
		}
		switch child.Tag() {
		case "attr":
			for _, a := range child.Rest() {
				if a.IsAtom() {
					fp.Attr = append(fp.Attr, a.Atom())
				}
			}
		case "property":
			propName := child.StringOr(1, "")
			propValue := child.StringOr(2, "")
			switch propName {
			case "Reference":
				fp.Ref = propValue
				comp.Ref = propValue
			case "Value":
				comp.Value = propValue
			case "Footprint":
				// library:name already known from libID; ignore override.
			default:
				if propName != "" {
					comp.Fields[propName] = propValue
				}
			}
			if txt, ok := textFromPropertyOrFpText(child, pos, angle); ok {
				fp.Drawings = append(fp.Drawings, txt)
			}
		case "fp_text":
			kind := child.StringOr(1, "")
			value := child.StringOr(2, "")
			switch kind {
			case "reference":
				fp.Ref = value
				comp.Ref = value
			case "value":
				comp.Value = value
			}
			if txt, ok := textFromPropertyOrFpText(child, pos, angle); ok {
				fp.Drawings = append(fp.Drawings, txt)
			}
		case "fp_line", "fp_rect", "fp_circle", "fp_arc", "fp_curve", "fp_poly", "bezier":
			shape, layerName, err := parseShape(child)
			if err != nil {
				pcbmodel.Warnf("kicad: footprint %s: %v", fp.Ref, err)
				continue
			}
			fp.Drawings = append(fp.Drawings, pcbmodel.FootprintDrawing{Layer: layerName, Shape: &shape})
		case "pad":
			pad, err := parsePad(child, pos, angle, netIndex)
			if err != nil {
				pcbmodel.Warnf("kicad: footprint %s: pad: %v", fp.Ref, err)
				continue
			}
			fp.Pads = append(fp.Pads, pad)
		}
	}

	fp.Center = pos
	fp.BBox = footprintBBox(fp, pos, angle)
	return fp, comp, nil
}

func splitLibID(libID string) (library, name string) {
	parts := strings.SplitN(libID, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", libID
}

func textFromPropertyOrFpText(n sexpr.Node, fpPos pcbmodel.Point, fpAngle float64) (pcbmodel.FootprintDrawing, bool) {
	hidden := n.HasFlag("hide")
	layerNode, ok := n.Find("layer")
	if !ok || hidden {
		return pcbmodel.FootprintDrawing{}, false
	}
	layer := layerNode.StringOr(1, "")
	if !strings.HasSuffix(layer, ".SilkS") && !strings.HasSuffix(layer, ".Fab") {
		return pcbmodel.FootprintDrawing{}, false
	}

	// Both `(property "Reference" "U1" ...)` and `(fp_text reference "R1" ...)`
	// carry a keyword/name at index 1 and the rendered text at index 2.
	text := n.StringOr(2, "")

	local := pcbmodel.Point{}
	localAngle := 0.0
	if at, ok := n.Find("at"); ok {
		local.X = at.FloatOr(1, 0)
		local.Y = at.FloatOr(2, 0)
		localAngle = at.FloatOr(3, 0)
	}
	abs := rotate(local, fpAngle, fpPos)

	height, width, thickness := 1.0, 1.0, 0.15
	italic, mirrored := false, false
	if effects, ok := n.Find("effects"); ok {
		if font, ok := effects.Find("font"); ok {
			if size, ok := font.Find("size"); ok {
				width = size.FloatOr(1, width)
				height = size.FloatOr(2, height)
			}
			if t, ok := font.FindFloat("thickness", 1); ok {
				thickness = t
			}
			italic = font.HasFlag("italic")
		}
		if justify, ok := effects.Find("justify"); ok {
			mirrored = justify.HasFlag("mirror")
		}
	}

	td := pcbmodel.NewStrokeText(abs, text, height, width, thickness, pcbmodel.Justify{}, fpAngle+localAngle, italic, mirrored)
	return pcbmodel.FootprintDrawing{Layer: layer, Text: &td}, true
}

func footprintBBox(fp pcbmodel.Footprint, pos pcbmodel.Point, angle float64) pcbmodel.FootprintBBox {
	if len(fp.Pads) == 0 {
		return pcbmodel.FootprintBBox{
			Pos:    pos,
			RelPos: pcbmodel.Point{X: -0.5, Y: -0.5},
			Size:   pcbmodel.Point{X: 1.0, Y: 1.0},
			Angle:  angle,
		}
	}
	box := pcbmodel.EmptyBoundingBox()
	for _, p := range fp.Pads {
		box.Expand(p.Pos.X-p.Size.X/2, p.Pos.Y-p.Size.Y/2)
		box.Expand(p.Pos.X+p.Size.X/2, p.Pos.Y+p.Size.Y/2)
	}
	return pcbmodel.FootprintBBox{
		Pos:    pos,
		RelPos: pcbmodel.Point{X: box.MinX - pos.X, Y: box.MinY - pos.Y},
		Size:   pcbmodel.Point{X: box.Width(), Y: box.Height()},
		Angle:  angle,
	}
}
