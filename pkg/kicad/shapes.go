package kicad

import (
	"fmt"
	"math"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/gopcb/pcbextract/pkg/sexpr"
)

// strokeWidth reads a shape's line width from either the modern
// `(stroke (width w) ...)` child or the legacy bare `(width w)` child.
func strokeWidth(n sexpr.Node) float64 {
	if stroke, ok := n.Find("stroke"); ok {
		if w, ok := stroke.FindFloat("width", 1); ok {
			return w
		}
	}
	if w, ok := n.FindFloat("width", 1); ok {
		return w
	}
	return 0
}

func fillFlag(n sexpr.Node) (filled bool, has bool) {
	fill, ok := n.Find("fill")
	if !ok {
		return false, false
	}
	typ := fill.StringOr(1, "none")
	return typ != "none", true
}

func layerName(n sexpr.Node) (string, error) {
	layer, ok := n.Find("layer")
	if !ok {
		return "", fmt.Errorf("kicad: %s: missing layer", n.Tag())
	}
	name, err := layer.String(1)
	if err != nil {
		return "", fmt.Errorf("kicad: %s: layer: %w", n.Tag(), err)
	}
	return name, nil
}

func point(n sexpr.Node, tag string) (pcbmodel.Point, error) {
	c, ok := n.Find(tag)
	if !ok {
		return pcbmodel.Point{}, fmt.Errorf("kicad: %s: missing %q", n.Tag(), tag)
	}
	x, err := c.Float(1)
	if err != nil {
		return pcbmodel.Point{}, fmt.Errorf("kicad: %s: %s.x: %w", n.Tag(), tag, err)
	}
	y, err := c.Float(2)
	if err != nil {
		return pcbmodel.Point{}, fmt.Errorf("kicad: %s: %s.y: %w", n.Tag(), tag, err)
	}
	return pcbmodel.Point{X: x, Y: y}, nil
}

// parseShape turns one board-level or footprint-level graphic node into a
// Drawing plus its raw layer name. Recognized tags: gr_line/fp_line,
// gr_rect/fp_rect, gr_circle/fp_circle, gr_arc/fp_arc, gr_curve/fp_curve
// (cubic bezier), gr_poly/fp_poly.
func parseShape(n sexpr.Node) (pcbmodel.Drawing, string, error) {
	layer, err := layerName(n)
	if err != nil {
		return pcbmodel.Drawing{}, "", err
	}
	width := strokeWidth(n)

	switch n.Tag() {
	case "gr_line", "fp_line":
		start, err := point(n, "start")
		if err != nil {
			return pcbmodel.Drawing{}, "", err
		}
		end, err := point(n, "end")
		if err != nil {
			return pcbmodel.Drawing{}, "", err
		}
		return pcbmodel.NewSegment(start, end, width), layer, nil

	case "gr_rect", "fp_rect":
		start, err := point(n, "start")
		if err != nil {
			return pcbmodel.Drawing{}, "", err
		}
		end, err := point(n, "end")
		if err != nil {
			return pcbmodel.Drawing{}, "", err
		}
		return pcbmodel.NewRect(start, end, width), layer, nil

	case "gr_circle", "fp_circle":
		center, err := point(n, "center")
		if err != nil {
			return pcbmodel.Drawing{}, "", err
		}
		edge, err := point(n, "end")
		if err != nil {
			return pcbmodel.Drawing{}, "", err
		}
		radius := math.Hypot(edge.X-center.X, edge.Y-center.Y)
		d := pcbmodel.NewCircle(center, radius, width)
		if filled, has := fillFlag(n); has {
			d.Circle.Filled = filled
			d.Circle.HasFill = true
		}
		return d, layer, nil

	case "gr_arc", "fp_arc":
		return parseArcShape(n, width, layer)

	case "gr_curve", "fp_curve", "bezier":
		pts, ok := n.Find("pts")
		if !ok {
			return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: missing pts", n.Tag())
		}
		xy := pts.FindAll("xy")
		if len(xy) != 4 {
			return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: expected 4 control points, got %d", n.Tag(), len(xy))
		}
		coords := make([]pcbmodel.Point, 4)
		for i, p := range xy {
			x, err := p.Float(1)
			if err != nil {
				return pcbmodel.Drawing{}, "", err
			}
			y, err := p.Float(2)
			if err != nil {
				return pcbmodel.Drawing{}, "", err
			}
			coords[i] = pcbmodel.Point{X: x, Y: y}
		}
		return pcbmodel.NewCurve(coords[0], coords[1], coords[2], coords[3], width), layer, nil

	case "gr_poly", "fp_poly":
		pts, ok := n.Find("pts")
		if !ok {
			return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: missing pts", n.Tag())
		}
		xy := pts.FindAll("xy")
		if len(xy) == 0 {
			return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: no points in polygon", n.Tag())
		}
		ring := make(pcbmodel.Ring, len(xy))
		for i, p := range xy {
			x, err := p.Float(1)
			if err != nil {
				return pcbmodel.Drawing{}, "", err
			}
			y, err := p.Float(2)
			if err != nil {
				return pcbmodel.Drawing{}, "", err
			}
			ring[i] = pcbmodel.Point{X: x, Y: y}
		}
		filled, has := fillFlag(n)
		d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, width)
		if has {
			d.Polygon.Filled = filled
			d.Polygon.HasFill = true
		}
		return d, layer, nil

	default:
		return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: unrecognized shape tag %q", n.Tag())
	}
}

// parseArcShape implements the §4.C arc reconstruction rule: prefer the
// modern three-point form (start, mid, end) and derive the center via
// circumcircle; fall back to the legacy (start=center, end, angle) form.
func parseArcShape(n sexpr.Node, width float64, layer string) (pcbmodel.Drawing, string, error) {
	start, errStart := point(n, "start")
	end, errEnd := point(n, "end")
	if errStart != nil || errEnd != nil {
		return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: missing start/end", n.Tag())
	}

	if mid, ok := n.Find("mid"); ok {
		midX, err1 := mid.Float(1)
		midY, err2 := mid.Float(2)
		if err1 != nil || err2 != nil {
			return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: bad mid point", n.Tag())
		}
		midPt := pcbmodel.Point{X: midX, Y: midY}
		center, radius, err := pcbmodel.CircumcircleFromThreePoints(start, midPt, end)
		if err != nil {
			pcbmodel.Warnf("kicad: %s: %v, treating as straight segment", n.Tag(), err)
			return pcbmodel.NewSegment(start, end, width), layer, nil
		}
		startAngle := pcbmodel.AngleOf(center, start)
		endAngle := pcbmodel.AngleOf(center, end)
		return pcbmodel.NewArc(center, radius, startAngle, endAngle, width), layer, nil
	}

	// Legacy form: start is the arc center, angle is in the `(angle a)` node.
	center := start
	angle, ok := n.FindFloat("angle", 1)
	if !ok {
		return pcbmodel.Drawing{}, "", fmt.Errorf("kicad: %s: missing mid or angle", n.Tag())
	}
	radius := math.Hypot(end.X-center.X, end.Y-center.Y)
	startAngle := pcbmodel.AngleOf(center, end)
	endAngle := startAngle + angle
	return pcbmodel.NewArc(center, radius, startAngle, endAngle, width), layer, nil
}
