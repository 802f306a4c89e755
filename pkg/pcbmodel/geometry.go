package pcbmodel

import (
	"fmt"
	"math"
)

// PolygonArea returns the signed area of a closed ring via the shoelace
// formula. Positive for counter-clockwise point order, negative for
// clockwise. Ring does not need an explicit repeated closing point.
func PolygonArea(ring []Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}

// CircumcircleFromThreePoints reconstructs the center and radius of the
// circle passing through three non-colinear points. Used to derive a
// modern KiCad three-point arc's center (spec §4.C, §8 "arc-from-three-points").
func CircumcircleFromThreePoints(a, b, c Point) (center Point, radius float64, err error) {
	ax, ay := a.X, a.Y
	bx, by := b.X, b.Y
	cx, cy := c.X, c.Y

	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	if math.Abs(d) < 1e-12 {
		return Point{}, 0, fmt.Errorf("pcbmodel: three points are colinear")
	}

	ax2ay2 := ax*ax + ay*ay
	bx2by2 := bx*bx + by*by
	cx2cy2 := cx*cx + cy*cy

	ux := (ax2ay2*(by-cy) + bx2by2*(cy-ay) + cx2cy2*(ay-by)) / d
	uy := (ax2ay2*(cx-bx) + bx2by2*(ax-cx) + cx2cy2*(bx-ax)) / d

	center = Point{X: ux, Y: uy}
	radius = math.Hypot(ax-ux, ay-uy)
	return center, radius, nil
}

// AngleOf returns the angle in degrees (0-360) from center to p,
// counter-clockwise from the positive X axis.
func AngleOf(center, p Point) float64 {
	deg := math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
