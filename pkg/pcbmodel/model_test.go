package pcbmodel

import (
	"math"
	"testing"
)

func TestBoundingBoxAccumulation(t *testing.T) {
	pts := []Point{{1, 2}, {-3, 4}, {5, -6}, {0, 0}}
	b := EmptyBoundingBox()
	for _, p := range pts {
		b.Expand(p.X, p.Y)
	}
	if b.MinX != -3 || b.MaxX != 5 || b.MinY != -6 || b.MaxY != 4 {
		t.Fatalf("unexpected bbox: %+v", b)
	}
}

func TestNaturalSortOrder(t *testing.T) {
	refs := []string{"R100", "R2", "C1", "R10", "R1"}
	keys := make([]NaturalKey, len(refs))
	for i, r := range refs {
		keys[i] = NaturalSortKey(r)
	}

	want := []string{"C1", "R1", "R2", "R10", "R100"}
	// sort a copy using Less and compare to expected order
	idx := []int{0, 1, 2, 3, 4}
	for i := 0; i < len(idx); i++ {
		for j := i + 1; j < len(idx); j++ {
			if keys[idx[j]].Less(keys[idx[i]]) {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
	}
	for i, id := range idx {
		if refs[id] != want[i] {
			t.Fatalf("sort mismatch at %d: got %v want %v", i, refs[id], want[i])
		}
	}
}

func TestNaturalSortKeyNoSuffix(t *testing.T) {
	k := NaturalSortKey("MH")
	if k.Prefix != "MH" || k.Suffix != 0 {
		t.Fatalf("unexpected key: %+v", k)
	}
}

func TestPolygonAreaUnitSquare(t *testing.T) {
	square := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if area := PolygonArea(square); math.Abs(area-1.0) > 1e-12 {
		t.Fatalf("unit square area = %v, want 1.0", area)
	}
}

func TestPolygonAreaTriangle(t *testing.T) {
	tri := []Point{{0, 0}, {2, 0}, {1, 2}}
	if area := PolygonArea(tri); math.Abs(area-2.0) > 1e-12 {
		t.Fatalf("triangle area = %v, want 2.0", area)
	}
}

func TestCircumcircleFromThreePoints(t *testing.T) {
	a, b, c := Point{1, 0}, Point{0, 1}, Point{-1, 0}
	center, radius, err := CircumcircleFromThreePoints(a, b, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []Point{a, b, c} {
		d := math.Hypot(p.X-center.X, p.Y-center.Y)
		if math.Abs(d-radius) > 1e-9 {
			t.Fatalf("point %+v not on circle: dist=%v radius=%v", p, d, radius)
		}
	}
	if math.Abs(center.X) > 1e-9 || math.Abs(center.Y) > 1e-9 {
		t.Fatalf("expected center near origin, got %+v", center)
	}
	if math.Abs(radius-1.0) > 1e-9 {
		t.Fatalf("expected radius 1.0, got %v", radius)
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	if v := Round(1.23456789, 6); v != 1.234568 {
		t.Fatalf("Round(1.23456789, 6) = %v, want 1.234568", v)
	}
}
