package kicad

import (
	"fmt"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/gopcb/pcbextract/pkg/sexpr"
)

var chamferBits = map[string]int{
	"top_left":     pcbmodel.ChamferTopLeft,
	"top_right":    pcbmodel.ChamferTopRight,
	"bottom_right": pcbmodel.ChamferBottomRight,
	"bottom_left":  pcbmodel.ChamferBottomLeft,
}

// parsePad converts a `(pad "1" smd rect ...)` node into an absolute-
// coordinate Pad, per spec §4.C's footprint pad rules.
func parsePad(n sexpr.Node, fpPos pcbmodel.Point, fpAngle float64, netIndex map[int]string) (pcbmodel.Pad, error) {
	number := n.StringOr(1, "")
	kindWord := n.StringOr(2, "")
	shapeWord := n.StringOr(3, "rect")

	at, ok := n.Find("at")
	if !ok {
		return pcbmodel.Pad{}, fmt.Errorf("kicad: pad %q: missing at", number)
	}
	size, ok := n.Find("size")
	if !ok {
		return pcbmodel.Pad{}, fmt.Errorf("kicad: pad %q: missing size", number)
	}

	local := pcbmodel.Point{X: at.FloatOr(1, 0), Y: at.FloatOr(2, 0)}
	localAngle := at.FloatOr(3, 0)
	abs := rotate(local, fpAngle, fpPos)

	pad := pcbmodel.Pad{
		Pos:  abs,
		Size: pcbmodel.Point{X: size.FloatOr(1, 0), Y: size.FloatOr(2, size.FloatOr(1, 0))},
	}
	if kindWord == "thru_hole" || kindWord == "np_thru_hole" {
		pad.Kind = pcbmodel.PadKindTH
	} else {
		pad.Kind = pcbmodel.PadKindSMD
	}

	switch shapeWord {
	case "circle":
		pad.Shape = pcbmodel.PadShapeCircle
	case "oval":
		pad.Shape = pcbmodel.PadShapeOval
	case "roundrect":
		pad.Shape = pcbmodel.PadShapeRoundrect
	case "custom":
		pad.Shape = pcbmodel.PadShapeCustom
	case "chamfrect":
		pad.Shape = pcbmodel.PadShapeChamfrect
	default:
		pad.Shape = pcbmodel.PadShapeRect
	}

	totalAngle := fpAngle + localAngle
	if totalAngle != 0 {
		pad.HasAngle = true
		pad.Angle = totalAngle
	}

	if number == "1" {
		pad.Pin1 = true
	}

	if layersNode, ok := n.Find("layers"); ok {
		var patterns []string
		for _, c := range layersNode.Rest() {
			if c.IsAtom() {
				patterns = append(patterns, c.Atom())
			}
		}
		pad.Layers = expandCopperLayers(patterns)
	}

	if netNode, ok := n.Find("net"); ok {
		if num, err := netNode.Int(1); err == nil {
			if name, ok := netIndex[num]; ok && name != "" {
				pad.HasNet = true
				pad.Net = name
			}
			pad.HasNetN = true
			pad.NetN = num
		}
	}

	if offset, ok := n.Find("offset"); ok {
		pad.HasOffset = true
		pad.Offset = pcbmodel.Point{X: offset.FloatOr(1, 0), Y: offset.FloatOr(2, 0)}
	}

	if ratio, ok := n.FindFloat("roundrect_rratio", 1); ok {
		minSide := pad.Size.X
		if pad.Size.Y < minSide {
			minSide = pad.Size.Y
		}
		pad.HasRadius = true
		pad.Radius = ratio * minSide / 2
	}

	if chamferNode, ok := n.Find("chamfer"); ok {
		mask := 0
		for _, c := range chamferNode.Rest() {
			if c.IsAtom() {
				mask |= chamferBits[c.Atom()]
			}
		}
		if mask != 0 {
			pad.HasChamfer = true
			pad.ChamfPos = mask
			if ratio, ok := n.FindFloat("chamfer_ratio", 1); ok {
				pad.ChamfRatio = ratio
			}
		}
	}

	if drill, ok := n.Find("drill"); ok {
		pad.HasDrill = true
		oval := drill.HasFlag("oval")
		argIdx := 1
		dx := drill.FloatOr(argIdx, 0)
		dy := dx
		if oval {
			dy = drill.FloatOr(argIdx+1, dx)
			pad.DrillShape = pcbmodel.DrillShapeOblong
		} else {
			pad.DrillShape = pcbmodel.DrillShapeCircle
		}
		pad.DrillSize = pcbmodel.Point{X: dx, Y: dy}
	}

	if primitives, ok := n.Find("primitives"); ok {
		var rings []pcbmodel.Ring
		for _, poly := range primitives.FindAll("gr_poly") {
			if pts, ok := poly.Find("pts"); ok {
				xy := pts.FindAll("xy")
				ring := make(pcbmodel.Ring, len(xy))
				for i, p := range xy {
					ring[i] = pcbmodel.Point{X: p.FloatOr(1, 0), Y: p.FloatOr(2, 0)}
				}
				rings = append(rings, ring)
			}
		}
		if len(rings) > 0 {
			pad.HasPolygons = true
			pad.Polygons = rings
		}
	}

	return pad, nil
}
