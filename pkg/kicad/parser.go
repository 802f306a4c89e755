// Package kicad parses KiCad's S-expression `.kicad_pcb` board format (one
// of the six vendor formats this module extracts) into pcbmodel.PcbData.
//
// Grounded on the teacher's pkg/kicad/pcb parser, rebuilt on top of the
// sibling pkg/sexpr reader instead of the teacher's bespoke kicadsexp
// package, and generalized to the shared pcbmodel types so KiCad output is
// structurally identical to every other vendor parser's.
package kicad

import (
	"fmt"
	"io"
	"os"

	"github.com/gopcb/pcbextract/pkg/bom"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/gopcb/pcbextract/pkg/sexpr"
)

// Parse reads a .kicad_pcb document and produces the shared PcbData.
func Parse(r io.Reader, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	root, err := sexpr.Parse(r)
	if err != nil {
		return nil, &pcbmodel.ParseError{Format: "kicad", Err: err}
	}
	if root.Tag() != "kicad_pcb" {
		return nil, &pcbmodel.ParseError{Format: "kicad", Err: fmt.Errorf("not a KiCad PCB file (root tag %q)", root.Tag())}
	}

	pcb := pcbmodel.NewPcbData()
	netIndex := parseNetIndex(root)
	pcb.Metadata = parseMetadata(root)

	var components []pcbmodel.Component

	if opts.IncludeTracks {
		pcb.HasTracks = true
		pcb.Tracks = pcbmodel.NewLayerData[[]pcbmodel.Track]()
		pcb.HasZones = true
		pcb.Zones = pcbmodel.NewLayerData[[]pcbmodel.Zone]()
	}
	pcb.HasCopperPads = true
	pcb.CopperPads = pcbmodel.NewLayerData[[]pcbmodel.Drawing]()

	for _, child := range root.Rest() {
		if child.IsAtom() {
			continue
		}
		switch child.Tag() {
		case "gr_line", "gr_rect", "gr_circle", "gr_arc", "gr_curve", "gr_poly", "bezier":
			routeBoardShape(pcb, child)

		case "footprint", "module":
			fp, comp, err := parseFootprint(child, netIndex)
			if err != nil {
				pcbmodel.Warnf("kicad: footprint: %v", err)
				continue
			}
			pcb.Footprints = append(pcb.Footprints, fp)
			components = append(components, comp)

		case "segment":
			if !opts.IncludeTracks {
				continue
			}
			t, layer, err := parseSegment(child, netIndex)
			if err != nil {
				pcbmodel.Warnf("kicad: %v", err)
				continue
			}
			appendTrack(pcb, layer, t)

		case "arc":
			if !opts.IncludeTracks {
				continue
			}
			t, layer, err := parseTrackArc(child, netIndex)
			if err != nil {
				pcbmodel.Warnf("kicad: %v", err)
				continue
			}
			appendTrack(pcb, layer, t)

		case "via":
			if !opts.IncludeTracks {
				continue
			}
			tracks, layers, err := parseVia(child, netIndex)
			if err != nil {
				pcbmodel.Warnf("kicad: %v", err)
				continue
			}
			for i, layer := range layers {
				appendTrack(pcb, layer, tracks[i])
			}

		case "zone":
			if !opts.IncludeTracks {
				continue
			}
			z, layer, err := parseZone(child)
			if err != nil {
				pcbmodel.Warnf("kicad: %v", err)
				continue
			}
			appendZone(pcb, layer, z)
		}
	}

	if opts.IncludeNets {
		pcb.HasNets = true
		pcb.Nets = netNames(netIndex)
	}

	if len(components) > 0 {
		pcb.HasBom = true
		pcb.Bom = bom.Build(pcb.Footprints, components, bom.Config{})
	}

	return pcb, nil
}

// ParseFile opens path and parses it as a KiCad board.
func ParseFile(path string, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &pcbmodel.IOError{Path: path, Err: err}
	}
	defer f.Close()
	return Parse(f, opts)
}

func parseNetIndex(root sexpr.Node) map[int]string {
	idx := map[int]string{}
	for _, n := range root.FindAll("net") {
		num, err := n.Int(1)
		if err != nil {
			continue
		}
		idx[num] = n.StringOr(2, "")
	}
	return idx
}

func netNames(idx map[int]string) []string {
	names := make([]string, 0, len(idx))
	seen := map[string]bool{}
	for _, name := range idx {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func parseMetadata(root sexpr.Node) pcbmodel.Metadata {
	var m pcbmodel.Metadata
	block, ok := root.Find("title_block")
	if !ok {
		block, ok = root.Find("general")
	}
	if !ok {
		return m
	}
	m.Title, _ = block.FindString("title", 1)
	m.Date, _ = block.FindString("date", 1)
	m.Revision, _ = block.FindString("rev", 1)
	m.Company, _ = block.FindString("company", 1)
	return m
}

// routeBoardShape classifies a board-level graphic by its layer and files
// it into edges, silkscreen, fabrication, or copper_pads.
func routeBoardShape(pcb *pcbmodel.PcbData, n sexpr.Node) {
	drawing, layer, err := parseShape(n)
	if err != nil {
		pcbmodel.Warnf("kicad: %v", err)
		return
	}
	class := classifyLayer(layer)
	switch {
	case class.isEdge:
		pcb.Edges = append(pcb.Edges, drawing)
		for _, p := range shapeEnvelope(drawing) {
			pcb.EdgesBBox.Expand(p.X, p.Y)
		}
	case class.isSilk:
		for _, side := range class.sides {
			cur, _ := pcb.Drawings.Silkscreen.Get(side)
			pcb.Drawings.Silkscreen.Set(side, append(cur, drawing))
		}
	case class.isFab:
		for _, side := range class.sides {
			cur, _ := pcb.Drawings.Fabrication.Get(side)
			pcb.Drawings.Fabrication.Set(side, append(cur, drawing))
		}
	case class.isCopper:
		for _, side := range class.sides {
			cur, _ := pcb.CopperPads.Get(side)
			pcb.CopperPads.Set(side, append(cur, drawing))
		}
	}
}

// appendTrack and appendZone file an item under its copper layer key ("F",
// "B", "In1"), so a raw "F.Cu" layer name lands in the same bucket as a via.
func appendTrack(pcb *pcbmodel.PcbData, layer string, t pcbmodel.Track) {
	if keys := expandCopperLayers([]string{layer}); len(keys) == 1 {
		layer = keys[0]
	}
	cur, _ := pcb.Tracks.Get(layer)
	pcb.Tracks.Set(layer, append(cur, t))
}

func appendZone(pcb *pcbmodel.PcbData, layer string, z pcbmodel.Zone) {
	if keys := expandCopperLayers([]string{layer}); len(keys) == 1 {
		layer = keys[0]
	}
	cur, _ := pcb.Zones.Get(layer)
	pcb.Zones.Set(layer, append(cur, z))
}

// shapeEnvelope returns the points needed to grow a bounding box around a
// drawing. Arcs and circles are approximated by their bounding square since
// edge-cut shapes are rare enough that exact tangent-point math isn't
// worth the complexity here.
func shapeEnvelope(d pcbmodel.Drawing) []pcbmodel.Point {
	switch d.Kind {
	case pcbmodel.DrawingKindSegment:
		return []pcbmodel.Point{d.Segment.Start, d.Segment.End}
	case pcbmodel.DrawingKindRect:
		return []pcbmodel.Point{d.Rect.Start, d.Rect.End}
	case pcbmodel.DrawingKindCircle:
		c, r := d.Circle.Center, d.Circle.Radius
		return []pcbmodel.Point{{X: c.X - r, Y: c.Y - r}, {X: c.X + r, Y: c.Y + r}}
	case pcbmodel.DrawingKindArc:
		c, r := d.Arc.Center, d.Arc.Radius
		return []pcbmodel.Point{{X: c.X - r, Y: c.Y - r}, {X: c.X + r, Y: c.Y + r}}
	case pcbmodel.DrawingKindCurve:
		return []pcbmodel.Point{d.Curve.Start, d.Curve.CPA, d.Curve.CPB, d.Curve.End}
	case pcbmodel.DrawingKindPolygon:
		var pts []pcbmodel.Point
		for _, ring := range d.Polygon.Rings {
			pts = append(pts, ring...)
		}
		return pts
	default:
		return nil
	}
}
