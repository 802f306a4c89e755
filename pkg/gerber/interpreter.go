package gerber

import (
	"math"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

type interpolationMode int

const (
	modeLinear interpolationMode = iota
	modeCW
	modeCCW
)

type quadrantMode int

const (
	quadrantSingle quadrantMode = iota
	quadrantMulti
)

// layerOutput is one parsed Gerber file's geometry. drawings holds
// Dark-polarity (and region-Dark) output; clearDrawings is a sidecar of
// Clear-polarity geometry that assembly only reads back for silkscreen
// layers (spec §4.H) — copper and everything else never consults it, so a
// Clear subtraction on copper is effectively dropped.
type layerOutput struct {
	drawings      []pcbmodel.Drawing
	clearDrawings []pcbmodel.Drawing
}

// interpreterState is the Gerber plotting state machine: current position,
// selected aperture, interpolation/quadrant mode, region accumulation, and
// polarity, driving one command at a time into drawings.
type interpreterState struct {
	x, y int64

	aperture      uint32
	interpolation interpolationMode
	quadrant      quadrantMode

	regionActive   bool
	regionPoints   [][2]float64
	regionContours [][][2]float64

	polarity polarity

	converter  coordinateConverter
	apertures  *apertureTable
	macroTable *macroTable

	drawings      []pcbmodel.Drawing
	clearDrawings []pcbmodel.Drawing
}

func newInterpreterState() *interpreterState {
	return &interpreterState{
		interpolation: modeLinear,
		quadrant:      quadrantMulti,
		polarity:      polarityDark,
		converter:     defaultCoordinateConverter(),
		apertures:     newApertureTable(),
		macroTable:    newMacroTable(),
	}
}

func (it *interpreterState) process(cmd command) {
	switch cmd.kind {
	case cmdFormatSpec:
		it.converter.format = cmd.format
	case cmdUnits:
		it.converter.units = cmd.units
	case cmdApertureDefine:
		it.apertures.define(cmd.apertureCode, cmd.apertureTemplate)
	case cmdSelectAperture:
		it.aperture = cmd.selectCode
	case cmdLinearMode:
		it.interpolation = modeLinear
	case cmdClockwiseArcMode:
		it.interpolation = modeCW
	case cmdCounterClockwiseArcMode:
		it.interpolation = modeCCW
	case cmdSingleQuadrant:
		it.quadrant = quadrantSingle
	case cmdMultiQuadrant:
		it.quadrant = quadrantMulti
	case cmdPolarity:
		it.polarity = cmd.polarity
	case cmdMacroDefine:
		it.macroTable.define(parseMacroBody(cmd.macroName, cmd.macroBody))
	case cmdRegionBegin:
		it.regionActive = true
		it.regionPoints = nil
		it.regionContours = nil
	case cmdRegionEnd:
		it.flushRegionEnd()
		it.regionActive = false
	case cmdInterpolate:
		oldX, oldY := it.x, it.y
		if cmd.hasX {
			it.x = cmd.x
		}
		if cmd.hasY {
			it.y = cmd.y
		}
		it.doInterpolate(oldX, oldY, cmd)
	case cmdMove:
		if it.regionActive && len(it.regionPoints) > 0 {
			pts := it.regionPoints
			it.regionPoints = nil
			if len(pts) >= 3 {
				it.regionContours = append(it.regionContours, pts)
			}
		}
		if cmd.hasX {
			it.x = cmd.x
		}
		if cmd.hasY {
			it.y = cmd.y
		}
		if it.regionActive {
			mx := it.converter.toMM(it.x, true)
			my := it.converter.toMM(it.y, false)
			it.regionPoints = append(it.regionPoints, [2]float64{mx, my})
		}
	case cmdFlash:
		if cmd.hasX {
			it.x = cmd.x
		}
		if cmd.hasY {
			it.y = cmd.y
		}
		it.doFlash()
	case cmdFileFunction, cmdEndOfFile:
		// No geometric effect; layer role is read back from the command
		// list directly by detectLayerType.
	case cmdStepRepeat, cmdImageMirror, cmdImageScale:
		// Parsed but not acted upon (spec §9 Open Question decision).
	}
}

func (it *interpreterState) doInterpolate(oldX, oldY int64, cmd command) {
	x1 := it.converter.toMM(oldX, true)
	y1 := it.converter.toMM(oldY, false)
	x2 := it.converter.toMM(it.x, true)
	y2 := it.converter.toMM(it.y, false)

	if it.regionActive {
		if len(it.regionPoints) == 0 {
			it.regionPoints = append(it.regionPoints, [2]float64{x1, y1})
		}
		if it.interpolation != modeLinear && cmd.hasI && cmd.hasJ {
			pts := it.computeArcPoints(oldX, oldY, cmd)
			if len(pts) > 1 {
				it.regionPoints = append(it.regionPoints, pts[1:]...)
			}
		} else {
			it.regionPoints = append(it.regionPoints, [2]float64{x2, y2})
		}
		return
	}

	width := it.apertures.strokeWidth(it.aperture)
	d := it.buildInterpolateDrawing(x1, y1, x2, y2, oldX, oldY, cmd, width)
	if d == nil {
		return
	}
	if it.polarity == polarityClear {
		it.clearDrawings = append(it.clearDrawings, *d)
	} else {
		it.drawings = append(it.drawings, *d)
	}
}

func (it *interpreterState) buildInterpolateDrawing(x1, y1, x2, y2 float64, oldX, oldY int64, cmd command, width float64) *pcbmodel.Drawing {
	switch it.interpolation {
	case modeLinear:
		d := pcbmodel.NewSegment(pcbmodel.Point{X: x1, Y: y1}, pcbmodel.Point{X: x2, Y: y2}, width)
		return &d
	case modeCW, modeCCW:
		return it.computeArcDrawing(oldX, oldY, cmd, width)
	default:
		return nil
	}
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// computeArcDrawing builds the Arc for a CW/CCW interpolation. CW arcs have
// their start/end angles swapped so the stored pair is always in the
// ArcShape's documented CCW-sweep convention.
func (it *interpreterState) computeArcDrawing(oldX, oldY int64, cmd command, width float64) *pcbmodel.Drawing {
	var iVal, jVal int64
	if cmd.hasI {
		iVal = cmd.i
	}
	if cmd.hasJ {
		jVal = cmd.j
	}
	x1 := it.converter.toMM(oldX, true)
	y1 := it.converter.toMM(oldY, false)
	x2 := it.converter.toMM(it.x, true)
	y2 := it.converter.toMM(it.y, false)
	cx := x1 + it.converter.toMM(iVal, true)
	cy := y1 + it.converter.toMM(jVal, false)

	radius := math.Hypot(x1-cx, y1-cy)
	if radius < 1e-9 {
		return nil
	}
	startAngle := normalizeAngle(math.Atan2(y1-cy, x1-cx) * 180 / math.Pi)
	endAngle := normalizeAngle(math.Atan2(y2-cy, x2-cx) * 180 / math.Pi)
	if it.interpolation == modeCW {
		startAngle, endAngle = endAngle, startAngle
	}
	d := pcbmodel.NewArc(pcbmodel.Point{X: cx, Y: cy}, radius, startAngle, endAngle, width)
	return &d
}

// computeArcPoints approximates a CW/CCW interpolation as a polyline, for
// accumulation into a region contour. ~2 degrees per segment.
func (it *interpreterState) computeArcPoints(oldX, oldY int64, cmd command) [][2]float64 {
	var iVal, jVal int64
	if cmd.hasI {
		iVal = cmd.i
	}
	if cmd.hasJ {
		jVal = cmd.j
	}
	x1 := it.converter.toMM(oldX, true)
	y1 := it.converter.toMM(oldY, false)
	x2 := it.converter.toMM(it.x, true)
	y2 := it.converter.toMM(it.y, false)
	cx := x1 + it.converter.toMM(iVal, true)
	cy := y1 + it.converter.toMM(jVal, false)

	radius := math.Hypot(x1-cx, y1-cy)
	if radius < 1e-9 {
		return [][2]float64{{x1, y1}, {x2, y2}}
	}
	startAngle := math.Atan2(y1-cy, x1-cx)
	endAngle := math.Atan2(y2-cy, x2-cx)
	if it.interpolation == modeCW {
		if endAngle >= startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle <= startAngle {
		endAngle += 2 * math.Pi
	}

	sweep := math.Abs(endAngle - startAngle)
	numSegments := int(math.Ceil(sweep / (math.Pi / 90)))
	if numSegments < 2 {
		numSegments = 2
	}
	pts := make([][2]float64, 0, numSegments+1)
	for k := 0; k <= numSegments; k++ {
		t := float64(k) / float64(numSegments)
		angle := startAngle + (endAngle-startAngle)*t
		pts = append(pts, [2]float64{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)})
	}
	return pts
}

func (it *interpreterState) doFlash() {
	px := it.converter.toMM(it.x, true)
	py := it.converter.toMM(it.y, false)
	ds := it.flashDrawings(px, py)
	if it.polarity == polarityClear {
		it.clearDrawings = append(it.clearDrawings, ds...)
	} else {
		it.drawings = append(it.drawings, ds...)
	}
}

const obroundSegs = 16

func (it *interpreterState) flashDrawings(px, py float64) []pcbmodel.Drawing {
	ap, ok := it.apertures.get(it.aperture)
	if !ok {
		pcbmodel.Warnf("gerber: D03 flash with undefined aperture D%d", it.aperture)
		return nil
	}
	switch ap.template.kind {
	case templateCircle:
		return []pcbmodel.Drawing{pcbmodel.NewFilledCircle(pcbmodel.Point{X: px, Y: py}, ap.template.diameter/2, true)}
	case templateRectangle:
		hx, hy := ap.template.xSize/2, ap.template.ySize/2
		return []pcbmodel.Drawing{pcbmodel.NewRect(
			pcbmodel.Point{X: px - hx, Y: py - hy},
			pcbmodel.Point{X: px + hx, Y: py + hy},
			0,
		)}
	case templateObround:
		ring := obroundPolygon(px, py, ap.template.xSize, ap.template.ySize)
		d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, 0)
		d.Polygon.Filled, d.Polygon.HasFill = true, true
		return []pcbmodel.Drawing{d}
	case templatePolygon:
		n := ap.template.numVertices
		if n < 3 {
			n = 3
		}
		r := ap.template.diameter / 2
		rotRad := ap.template.rotation * degToRad
		ring := make(pcbmodel.Ring, n)
		for k := 0; k < n; k++ {
			angle := rotRad + 2*math.Pi*float64(k)/float64(n)
			ring[k] = pcbmodel.Point{X: px + r*math.Cos(angle), Y: py + r*math.Sin(angle)}
		}
		d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, 0)
		d.Polygon.Filled, d.Polygon.HasFill = true, true
		return []pcbmodel.Drawing{d}
	case templateMacro:
		mac, ok := it.macroTable.get(ap.template.macroName)
		if !ok {
			pcbmodel.Warnf("gerber: D03 flash with undefined macro aperture %q", ap.template.macroName)
			return nil
		}
		return evaluateMacro(mac, ap.template.macroParams, px, py)
	default:
		return nil
	}
}

// obroundPolygon builds a 32-segment stadium (16 per semicircular cap),
// caps placed on whichever axis is longer.
func obroundPolygon(cx, cy, xSize, ySize float64) pcbmodel.Ring {
	hx, hy := xSize/2, ySize/2
	var pts []pcbmodel.Point
	if xSize >= ySize {
		r := hy
		rectHalf := hx - r
		for k := 0; k <= obroundSegs; k++ {
			a := -math.Pi/2 + math.Pi*float64(k)/float64(obroundSegs)
			pts = append(pts, pcbmodel.Point{X: cx + rectHalf + r*math.Cos(a), Y: cy + r*math.Sin(a)})
		}
		for k := 0; k <= obroundSegs; k++ {
			a := math.Pi/2 + math.Pi*float64(k)/float64(obroundSegs)
			pts = append(pts, pcbmodel.Point{X: cx - rectHalf + r*math.Cos(a), Y: cy + r*math.Sin(a)})
		}
	} else {
		r := hx
		rectHalf := hy - r
		for k := 0; k <= obroundSegs; k++ {
			a := math.Pi * float64(k) / float64(obroundSegs)
			pts = append(pts, pcbmodel.Point{X: cx + r*math.Cos(a), Y: cy + rectHalf + r*math.Sin(a)})
		}
		for k := 0; k <= obroundSegs; k++ {
			a := math.Pi + math.Pi*float64(k)/float64(obroundSegs)
			pts = append(pts, pcbmodel.Point{X: cx + r*math.Cos(a), Y: cy - rectHalf + r*math.Sin(a)})
		}
	}
	return pcbmodel.Ring(pts)
}

// flushRegionEnd closes out the current contour (dropping it if it never
// reached 3 points) and, if any contour survived, emits a single
// multi-ring polygon — first ring outer, the rest holes by even-odd fill.
// A Clear-polarity region routes into the sidecar instead of drawings.
func (it *interpreterState) flushRegionEnd() {
	if len(it.regionPoints) >= 3 {
		it.regionContours = append(it.regionContours, it.regionPoints)
	}
	it.regionPoints = nil
	if len(it.regionContours) == 0 {
		return
	}

	rings := make([]pcbmodel.Ring, len(it.regionContours))
	for i, c := range it.regionContours {
		ring := make(pcbmodel.Ring, len(c))
		for j, p := range c {
			ring[j] = pcbmodel.Point{X: p[0], Y: p[1]}
		}
		rings[i] = ring
	}
	d := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, rings, 0)
	d.Polygon.Filled, d.Polygon.HasFill = true, true
	if it.polarity == polarityClear {
		it.clearDrawings = append(it.clearDrawings, d)
	} else {
		it.drawings = append(it.drawings, d)
	}
	it.regionContours = nil
}

// interpret drives every command through the state machine and returns
// the accumulated geometry, flushing any region left open at EOF.
func interpret(cmds []command) layerOutput {
	it := newInterpreterState()
	for _, c := range cmds {
		it.process(c)
	}
	if it.regionActive {
		it.flushRegionEnd()
	}
	return layerOutput{drawings: it.drawings, clearDrawings: it.clearDrawings}
}
