package gerber

import (
	"math"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

const degToRad = math.Pi / 180

func rotatePointRad(x, y, rad float64) (float64, float64) {
	cosA, sinA := math.Cos(rad), math.Sin(rad)
	return x*cosA - y*sinA, x*sinA + y*cosA
}

// evaluateMacro renders one aperture macro flashed at (flashX, flashY) into
// drawings. A primitive with exposure < 0.5 is a clear (subtractive)
// primitive; this pipeline skips it rather than modeling subtraction,
// matching the dropped-clear-polarity convention used throughout Gerber
// geometry.
func evaluateMacro(mac apertureMacro, params []float64, flashX, flashY float64) []pcbmodel.Drawing {
	var out []pcbmodel.Drawing
	for _, p := range mac.primitives {
		if p.exposure != nil && p.exposure.eval(params) < 0.5 {
			continue
		}
		switch p.kind {
		case primCircle:
			d, ok := evalCircle(p, params, flashX, flashY)
			if ok {
				out = append(out, d)
			}
		case primVectorLine:
			d, ok := evalVectorLine(p, params, flashX, flashY)
			if ok {
				out = append(out, d)
			}
		case primCenterLine:
			d, ok := evalCenterLine(p, params, flashX, flashY)
			if ok {
				out = append(out, d)
			}
		case primOutline:
			d, ok := evalOutline(p, params, flashX, flashY)
			if ok {
				out = append(out, d)
			}
		case primPolygon:
			d, ok := evalPolygon(p, params, flashX, flashY)
			if ok {
				out = append(out, d)
			}
		case primThermal:
			out = append(out, evalThermal(p, params, flashX, flashY)...)
		}
	}
	return out
}

func evalCircle(p macroPrimitive, params []float64, flashX, flashY float64) (pcbmodel.Drawing, bool) {
	diameter := p.diameter.eval(params)
	cx, cy := p.centerX.eval(params), p.centerY.eval(params)
	rot := 0.0
	if p.rotation != nil {
		rot = p.rotation.eval(params)
	}
	rx, ry := rotatePoint(cx, cy, rot)
	d := pcbmodel.NewFilledCircle(pcbmodel.Point{X: flashX + rx, Y: flashY + ry}, math.Abs(diameter)/2, true)
	return d, true
}

func evalVectorLine(p macroPrimitive, params []float64, flashX, flashY float64) (pcbmodel.Drawing, bool) {
	width := p.width.eval(params)
	sx, sy := p.startX.eval(params), p.startY.eval(params)
	ex, ey := p.endX.eval(params), p.endY.eval(params)
	rot := p.rotation.eval(params)
	rsx, rsy := rotatePoint(sx, sy, rot)
	rex, rey := rotatePoint(ex, ey, rot)
	d := pcbmodel.NewSegment(
		pcbmodel.Point{X: flashX + rsx, Y: flashY + rsy},
		pcbmodel.Point{X: flashX + rex, Y: flashY + rey},
		width,
	)
	return d, true
}

func evalCenterLine(p macroPrimitive, params []float64, flashX, flashY float64) (pcbmodel.Drawing, bool) {
	width := p.width.eval(params)
	height := p.height.eval(params)
	cx, cy := p.centerX.eval(params), p.centerY.eval(params)
	rot := p.rotation.eval(params)
	hw, hh := width/2, height/2
	corners := [4][2]float64{
		{cx - hw, cy - hh}, {cx + hw, cy - hh}, {cx + hw, cy + hh}, {cx - hw, cy + hh},
	}
	ring := make(pcbmodel.Ring, 4)
	for i, c := range corners {
		rx, ry := rotatePoint(c[0], c[1], rot)
		ring[i] = pcbmodel.Point{X: flashX + rx, Y: flashY + ry}
	}
	d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, 0)
	d.Polygon.Filled, d.Polygon.HasFill = true, true
	return d, true
}

func evalOutline(p macroPrimitive, params []float64, flashX, flashY float64) (pcbmodel.Drawing, bool) {
	n := p.numPoints
	if len(p.points) < (n+1)*2+1 {
		return pcbmodel.Drawing{}, false
	}
	rot := p.points[len(p.points)-1].eval(params)
	coords := p.points[:len(p.points)-1]
	ring := make(pcbmodel.Ring, n+1)
	for i := 0; i <= n; i++ {
		x := coords[i*2].eval(params)
		y := coords[i*2+1].eval(params)
		rx, ry := rotatePoint(x, y, rot)
		ring[i] = pcbmodel.Point{X: flashX + rx, Y: flashY + ry}
	}
	d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, 0)
	d.Polygon.Filled, d.Polygon.HasFill = true, true
	return d, true
}

// evalPolygon builds a regular N-gon. The per-vertex rotation is baked
// directly into each vertex's angle, so only translation is applied via
// rotatePoint's zero-angle identity path.
func evalPolygon(p macroPrimitive, params []float64, flashX, flashY float64) (pcbmodel.Drawing, bool) {
	nVerts := int(p.numVertices.eval(params))
	if nVerts < 3 {
		return pcbmodel.Drawing{}, false
	}
	cx, cy := p.centerX.eval(params), p.centerY.eval(params)
	diameter := p.diameter.eval(params)
	rot := p.rotation.eval(params)
	rotRad := rot * degToRad
	radius := diameter / 2

	ring := make(pcbmodel.Ring, nVerts)
	for k := 0; k < nVerts; k++ {
		angle := rotRad + 2*math.Pi*float64(k)/float64(nVerts)
		px := cx + radius*math.Cos(angle)
		py := cy + radius*math.Sin(angle)
		tx, ty := rotatePoint(px, py, 0)
		ring[k] = pcbmodel.Point{X: flashX + tx, Y: flashY + ty}
	}
	d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, 0)
	d.Polygon.Filled, d.Polygon.HasFill = true, true
	return d, true
}

// evalThermal renders the classic 4-gap thermal relief as four arcs, one
// per quadrant, each an ArcShape whose Center field carries the ring
// center (the field name means "center", matching every other arc in
// this pipeline — not the ring's start point).
func evalThermal(p macroPrimitive, params []float64, flashX, flashY float64) []pcbmodel.Drawing {
	cx, cy := p.centerX.eval(params), p.centerY.eval(params)
	outerD := p.outerDiameter.eval(params)
	innerD := p.innerDiameter.eval(params)
	gap := p.gapThickness.eval(params)
	rot := 0.0
	if p.rotation != nil {
		rot = p.rotation.eval(params)
	}
	rotRad := rot * degToRad

	outerR := outerD / 2
	innerR := innerD / 2
	ringWidth := outerR - innerR
	midR := (outerR + innerR) / 2
	if midR < 1e-9 || ringWidth < 1e-9 {
		return nil
	}

	gapHalfAngle := math.Asin(clamp(gap/(2*midR), -1, 1))

	var out []pcbmodel.Drawing
	for q := 0; q < 4; q++ {
		base := rotRad + float64(q)*math.Pi/2
		start := base + gapHalfAngle
		end := base + math.Pi/2 - gapHalfAngle
		if end <= start {
			continue
		}
		out = append(out, pcbmodel.NewArc(
			pcbmodel.Point{X: flashX + cx, Y: flashY + cy},
			midR,
			start*180/math.Pi,
			end*180/math.Pi,
			ringWidth,
		))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
