package kicad

import (
	"fmt"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/gopcb/pcbextract/pkg/sexpr"
)

func trackNet(n sexpr.Node, netIndex map[int]string) (string, bool) {
	netNode, ok := n.Find("net")
	if !ok {
		return "", false
	}
	num, err := netNode.Int(1)
	if err != nil {
		return "", false
	}
	name, ok := netIndex[num]
	return name, ok && name != ""
}

// parseSegment converts a `(segment ...)` node into a copper Track.
func parseSegment(n sexpr.Node, netIndex map[int]string) (pcbmodel.Track, string, error) {
	start, err := point(n, "start")
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	end, err := point(n, "end")
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	width, ok := n.FindFloat("width", 1)
	if !ok {
		return pcbmodel.Track{}, "", fmt.Errorf("kicad: segment: missing width")
	}
	layer, err := layerName(n)
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	t := pcbmodel.NewTrackSegment(start, end, width)
	if name, ok := trackNet(n, netIndex); ok {
		t.HasNet = true
		t.Net = name
	}
	return t, layer, nil
}

// parseTrackArc converts a KiCad 7+ three-point `(arc ...)` track node
// (distinct from gr_arc: tracks use start/mid/end with no legacy form).
func parseTrackArc(n sexpr.Node, netIndex map[int]string) (pcbmodel.Track, string, error) {
	start, err := point(n, "start")
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	mid, err := point(n, "mid")
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	end, err := point(n, "end")
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	width, ok := n.FindFloat("width", 1)
	if !ok {
		return pcbmodel.Track{}, "", fmt.Errorf("kicad: arc track: missing width")
	}
	layer, err := layerName(n)
	if err != nil {
		return pcbmodel.Track{}, "", err
	}
	center, radius, err := pcbmodel.CircumcircleFromThreePoints(start, mid, end)
	if err != nil {
		return pcbmodel.Track{}, "", fmt.Errorf("kicad: arc track: %w", err)
	}
	startAngle := pcbmodel.AngleOf(center, start)
	endAngle := pcbmodel.AngleOf(center, end)
	t := pcbmodel.NewTrackArc(center, startAngle, endAngle, radius, width)
	if name, ok := trackNet(n, netIndex); ok {
		t.HasNet = true
		t.Net = name
	}
	return t, layer, nil
}

// parseVia converts a `(via ...)` node into one Track per copper layer named
// in its `layers` node ("*.Cu" reaches F and B; no layers at all means F and
// B). Inner copper layers not named there get no copy of the via.
func parseVia(n sexpr.Node, netIndex map[int]string) ([]pcbmodel.Track, []string, error) {
	at, ok := n.Find("at")
	if !ok {
		return nil, nil, fmt.Errorf("kicad: via: missing at")
	}
	pos := pcbmodel.Point{X: at.FloatOr(1, 0), Y: at.FloatOr(2, 0)}
	size, ok := n.FindFloat("size", 1)
	if !ok {
		return nil, nil, fmt.Errorf("kicad: via: missing size")
	}
	drill, ok := n.FindFloat("drill", 1)
	if !ok {
		return nil, nil, fmt.Errorf("kicad: via: missing drill")
	}
	layersNode, ok := n.Find("layers")
	if !ok {
		return nil, nil, fmt.Errorf("kicad: via: missing layers")
	}

	var layers []string
	for _, c := range layersNode.Rest() {
		if c.IsAtom() {
			layers = append(layers, expandCopperLayers([]string{c.Atom()})...)
		}
	}
	if len(layers) == 0 {
		layers = []string{"F", "B"}
	}

	name, hasNet := trackNet(n, netIndex)
	tracks := make([]pcbmodel.Track, len(layers))
	for i := range layers {
		t := pcbmodel.NewVia(pos, size, drill)
		if hasNet {
			t.HasNet = true
			t.Net = name
		}
		tracks[i] = t
	}
	return tracks, layers, nil
}

// parseZone converts a `(zone ...)` node's filled polygon(s) into a Zone.
func parseZone(n sexpr.Node) (pcbmodel.Zone, string, error) {
	layer := ""
	if layerNode, ok := n.Find("layer"); ok {
		layer = layerNode.StringOr(1, "")
	} else if layersNode, ok := n.Find("layers"); ok {
		layer = layersNode.StringOr(1, "")
	}
	if layer == "" {
		return pcbmodel.Zone{}, "", fmt.Errorf("kicad: zone: missing layer")
	}

	z := pcbmodel.Zone{FillRule: pcbmodel.FillRuleEvenOdd}
	if name, ok := n.FindString("net_name", 1); ok && name != "" {
		z.HasNet = true
		z.Net = name
	}
	if min, ok := n.Find("min_thickness"); ok {
		if w, err := min.Float(1); err == nil {
			z.HasWidth = true
			z.Width = w
		}
	}

	fillPolys := n.FindAll("filled_polygon")
	if len(fillPolys) == 0 {
		return pcbmodel.Zone{}, "", fmt.Errorf("kicad: zone: no filled_polygon, unfilled zone skipped")
	}
	for _, fp := range fillPolys {
		pts, ok := fp.Find("pts")
		if !ok {
			continue
		}
		xy := pts.FindAll("xy")
		if len(xy) == 0 {
			continue
		}
		ring := make(pcbmodel.Ring, len(xy))
		for i, p := range xy {
			ring[i] = pcbmodel.Point{X: p.FloatOr(1, 0), Y: p.FloatOr(2, 0)}
		}
		z.Polygons = append(z.Polygons, ring)
	}
	return z, layer, nil
}
