package gdsii

import "math"

// point2 is a flattened 2D point in millimeters, already transformed by
// every ancestor SREF/AREF on its path from the top cell.
type point2 [2]float64

// dbToMM converts one database-unit coordinate to millimeters.
func dbToMM(v int32, scale float64) float64 { return float64(v) * scale }

// xyToMM converts a database-unit pair to millimeters, negating Y to match
// the internal Y-down convention (GDSII is Y-up, so it is negated at ingest
// like the other Y-up vendor formats).
func xyToMM(x, y int32, scale float64) point2 {
	return point2{dbToMM(x, scale), -dbToMM(y, scale)}
}

// transformPoint applies mirror-about-X, then uniform scale, then rotation,
// then translation — the fixed order an SREF/AREF transform chain always
// applies (spec §4.G).
func transformPoint(pt, origin point2, mirrorX bool, mag, angleDeg float64) point2 {
	x, y := pt[0], pt[1]
	if mirrorX {
		y = -y
	}
	x *= mag
	y *= mag
	if angleDeg != 0 {
		rad := angleDeg * math.Pi / 180
		cosA, sinA := math.Cos(rad), math.Sin(rad)
		rx := x*cosA - y*sinA
		ry := x*sinA + y*cosA
		x, y = rx, ry
	}
	return point2{x + origin[0], y + origin[1]}
}

type flatBoundary struct {
	layer int16
	pts   []point2
}

type flatPath struct {
	layer int16
	width int32
	pts   []point2
}

type flatText struct {
	layer int16
	pt    point2
	text  string
}

// flattenOutput accumulates geometry produced by recursively resolving
// SREF/AREF chains within a structure.
type flattenOutput struct {
	boundaries []flatBoundary
	paths      []flatPath
	texts      []flatText
}

const maxFlattenDepth = 64

// flattenStructure walks a structure's elements, recursively resolving
// SREF/AREF references, and appends every resulting shape (transformed
// into the caller's coordinate frame) to out. depth guards against
// reference cycles; exceeding maxFlattenDepth silently drops that branch.
func flattenStructure(idx int, structures []structure, structMap map[string]int, scale float64, origin point2, mirrorX bool, mag, angleDeg float64, depth int, out *flattenOutput) {
	if depth > maxFlattenDepth {
		return
	}
	s := structures[idx]
	for _, e := range s.elements {
		switch {
		case e.isBoundary:
			pts := make([]point2, len(e.xy))
			for i, xy := range e.xy {
				pt := xyToMM(xy[0], xy[1], scale)
				pts[i] = transformPoint(pt, origin, mirrorX, mag, angleDeg)
			}
			out.boundaries = append(out.boundaries, flatBoundary{layer: e.layer, pts: pts})
		case e.isPath:
			pts := make([]point2, len(e.xy))
			for i, xy := range e.xy {
				pt := xyToMM(xy[0], xy[1], scale)
				pts[i] = transformPoint(pt, origin, mirrorX, mag, angleDeg)
			}
			out.paths = append(out.paths, flatPath{layer: e.layer, width: e.width, pts: pts})
		case e.isText:
			if len(e.xy) == 0 {
				continue
			}
			pt := xyToMM(e.xy[0][0], e.xy[0][1], scale)
			pt = transformPoint(pt, origin, mirrorX, mag, angleDeg)
			out.texts = append(out.texts, flatText{layer: e.layer, pt: pt, text: e.text})
		case e.isSRef:
			refIdx, ok := structMap[e.sname]
			if !ok || len(e.xy) == 0 {
				continue
			}
			refOrigin := xyToMM(e.xy[0][0], e.xy[0][1], scale)
			refOrigin = transformPoint(refOrigin, origin, mirrorX, mag, angleDeg)
			refMirror := e.strans&0x8000 != 0
			flattenStructure(refIdx, structures, structMap, scale, refOrigin, refMirror, e.mag, e.angle, depth+1, out)
		case e.isARef:
			refIdx, ok := structMap[e.sname]
			if !ok || len(e.xy) < 3 {
				continue
			}
			p0 := transformPoint(xyToMM(e.xy[0][0], e.xy[0][1], scale), origin, mirrorX, mag, angleDeg)
			p1 := transformPoint(xyToMM(e.xy[1][0], e.xy[1][1], scale), origin, mirrorX, mag, angleDeg)
			p2 := transformPoint(xyToMM(e.xy[2][0], e.xy[2][1], scale), origin, mirrorX, mag, angleDeg)

			ncols, nrows := int(e.cols), int(e.rows)
			var colDx, colDy, rowDx, rowDy float64
			if ncols > 1 {
				colDx = (p1[0] - p0[0]) / float64(ncols)
				colDy = (p1[1] - p0[1]) / float64(ncols)
			}
			if nrows > 1 {
				rowDx = (p2[0] - p0[0]) / float64(nrows)
				rowDy = (p2[1] - p0[1]) / float64(nrows)
			}
			refMirror := e.strans&0x8000 != 0
			for r := 0; r < nrows; r++ {
				for c := 0; c < ncols; c++ {
					instOrigin := point2{
						p0[0] + float64(c)*colDx + float64(r)*rowDx,
						p0[1] + float64(c)*colDy + float64(r)*rowDy,
					}
					flattenStructure(refIdx, structures, structMap, scale, instOrigin, refMirror, e.mag, e.angle, depth+1, out)
				}
			}
		}
	}
}

// polygonArea computes a closed polygon's area via the shoelace formula.
func polygonArea(pts []point2) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += pts[i][0] * pts[j][1]
		area -= pts[j][0] * pts[i][1]
	}
	return math.Abs(area) / 2
}
