// Package altium parses Altium Designer .PcbDoc binary board files
// (an OLE2/CFB compound file carrying V6 text and binary property streams)
// into pcbmodel.PcbData.
//
// Grounded on the teacher's per-format-package split (a decode layer plus a
// traversal/assembly layer) and, for the raw CFB/record decoding itself, on
// the saferwall PE parsers' offset-table idiom over encoding/binary — no CFB
// library exists anywhere in the retrieval pack (spec §4.F, SPEC_FULL.md
// DOMAIN STACK).
package altium

import (
	"os"

	"github.com/gopcb/pcbextract/pkg/bom"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func altiumToMM(units int32) float64 {
	return float64(units) * 0.0000254
}

func convertPoint(x, y int32) pcbmodel.Point {
	return pcbmodel.Point{X: altiumToMM(x), Y: -altiumToMM(y)}
}

// Parse reads an Altium .PcbDoc file's bytes into PcbData.
func Parse(data []byte, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	cfb, err := openCFB(data)
	if err != nil {
		return nil, &pcbmodel.ParseError{Format: "altium", Location: "CFB container", Err: err}
	}

	boardRecords := readTextRecords(cfb, "/Board6/Data")
	lmap := buildLayerMap(boardRecords)

	compRecords := readTextRecords(cfb, "/Components6/Data")
	components := parseComponents(compRecords)

	netRecords := readTextRecords(cfb, "/Nets6/Data")
	nets := parseNets(netRecords)

	pads := readBinaryRecords(cfb, "/Pads6/Data", parsePads)
	tracks := readBinaryRecords(cfb, "/Tracks6/Data", parseTracks)
	arcs := readBinaryRecords(cfb, "/Arcs6/Data", parseArcs)
	vias := readBinaryRecords(cfb, "/Vias6/Data", parseVias)
	fills := readBinaryRecords(cfb, "/Fills6/Data", parseFills)

	pcb := pcbmodel.NewPcbData()

	footprints, bomComponents := buildFootprints(components, pads, tracks, arcs, fills, nets, lmap)
	pcb.Footprints = footprints

	pcb.Edges, pcb.EdgesBBox = extractBoardEdges(boardRecords)

	categorizeDrawings(pcb, tracks, arcs, fills, lmap)

	if opts.IncludeTracks {
		pcb.HasTracks = true
		pcb.Tracks = buildTrackData(tracks, arcs, vias, nets, lmap)
	}

	if opts.IncludeNets {
		pcb.HasNets = true
		var names []string
		for _, n := range nets {
			if n.name != "" {
				names = append(names, n.name)
			}
		}
		pcb.Nets = names
	}

	pcb.Metadata = extractMetadata(boardRecords)

	if len(bomComponents) > 0 {
		pcb.HasBom = true
		pcb.Bom = bom.Build(pcb.Footprints, bomComponents, bom.Config{})
	}

	return pcb, nil
}

// ParseFile reads path and parses it as an Altium .PcbDoc.
func ParseFile(path string, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pcbmodel.IOError{Path: path, Err: err}
	}
	return Parse(data, opts)
}

func readTextRecords(cfb *cfbFile, path string) []textRecord {
	data, ok := cfb.openStream(path)
	if !ok {
		return nil
	}
	return parseTextRecordStream(data)
}

func readBinaryRecords[T any](cfb *cfbFile, path string, parse func([]byte) []T) []T {
	data, ok := cfb.openStream(path)
	if !ok {
		return nil
	}
	return parse(data)
}

// ─── footprints (cross-join by component_id) ───────────────────────────

func buildFootprints(components []component, pads []pad, tracks []track, arcs []arc, fills []fill, nets []net, lmap layerMap) ([]pcbmodel.Footprint, []pcbmodel.Component) {
	footprints := make([]pcbmodel.Footprint, 0, len(components))
	bomComponents := make([]pcbmodel.Component, 0, len(components))

	for idx, c := range components {
		compID := uint16(idx)
		center := convertPoint(c.x, c.y)

		var fpPads []pcbmodel.Pad
		for _, p := range pads {
			if p.componentID != compID {
				continue
			}
			fpPads = append(fpPads, convertPad(p, nets, lmap))
		}

		var drawings []pcbmodel.FootprintDrawing
		for _, t := range tracks {
			if t.componentID != compID {
				continue
			}
			if d, ok := convertTrackDrawing(t, lmap); ok {
				drawings = append(drawings, d)
			}
		}
		for _, a := range arcs {
			if a.componentID != compID {
				continue
			}
			if d, ok := convertArcDrawing(a, lmap); ok {
				drawings = append(drawings, d)
			}
		}
		for _, fl := range fills {
			if fl.componentID != compID {
				continue
			}
			if d, ok := convertFillDrawing(fl, lmap); ok {
				drawings = append(drawings, d)
			}
		}

		bbox := pcbmodel.EmptyBoundingBox()
		for _, p := range fpPads {
			bbox.Expand(p.Pos.X-p.Size.X/2, p.Pos.Y-p.Size.Y/2)
			bbox.Expand(p.Pos.X+p.Size.X/2, p.Pos.Y+p.Size.Y/2)
		}
		if bbox.IsEmpty() {
			bbox.Expand(center.X-0.5, center.Y-0.5)
			bbox.Expand(center.X+0.5, center.Y+0.5)
		}

		side := pcbmodel.SideFront
		if lmap.side(c.layer) == "B" {
			side = pcbmodel.SideBack
		}

		footprints = append(footprints, pcbmodel.Footprint{
			Ref:    c.designator,
			Center: center,
			BBox: pcbmodel.FootprintBBox{
				Pos:    pcbmodel.Point{X: bbox.MinX, Y: bbox.MinY},
				RelPos: pcbmodel.Point{X: bbox.MinX - center.X, Y: bbox.MinY - center.Y},
				Size:   pcbmodel.Point{X: bbox.Width(), Y: bbox.Height()},
				Angle:  c.rotation,
			},
			Pads:     fpPads,
			Drawings: drawings,
			Layer:    side,
		})
		bomComponents = append(bomComponents, pcbmodel.Component{
			Ref:           c.designator,
			Value:         c.comment,
			FootprintName: c.pattern,
			Layer:         side,
			Fields:        map[string]string{},
		})
	}

	return footprints, bomComponents
}

func altiumPadShape(shape uint8) pcbmodel.PadShape {
	switch shape {
	case 1:
		return pcbmodel.PadShapeCircle
	case 9:
		return pcbmodel.PadShapeRoundrect
	default:
		return pcbmodel.PadShapeRect
	}
}

func convertPad(p pad, nets []net, lmap layerMap) pcbmodel.Pad {
	isTH := p.holeSize > 0

	var layers []string
	if p.layer == 74 || isTH {
		layers = []string{"F", "B"}
	} else {
		layers = []string{lmap.side(p.layer)}
	}

	out := pcbmodel.Pad{
		Layers: layers,
		Pos:    convertPoint(p.x, p.y),
		Size:   pcbmodel.Point{X: altiumToMM(p.sizeX), Y: altiumToMM(p.sizeY)},
		Shape:  altiumPadShape(p.shape),
		Pin1:   p.name == "1" || p.name == "A1",
	}
	if isTH {
		out.Kind = pcbmodel.PadKindTH
		d := altiumToMM(p.holeSize)
		out.HasDrill = true
		out.DrillShape = pcbmodel.DrillShapeCircle
		out.DrillSize = pcbmodel.Point{X: d, Y: d}
	} else {
		out.Kind = pcbmodel.PadKindSMD
	}
	if name, ok := netName(nets, p.netID); ok {
		out.HasNet, out.Net = true, name
	}
	if p.rotation != 0 {
		out.HasAngle, out.Angle = true, p.rotation
	}
	return out
}

func drawingSide(cat layerCategory) (string, bool) {
	switch cat {
	case layerSilkF, layerFabF:
		return "F", true
	case layerSilkB, layerFabB:
		return "B", true
	default:
		return "", false
	}
}

func convertTrackDrawing(t track, lmap layerMap) (pcbmodel.FootprintDrawing, bool) {
	side, ok := drawingSide(lmap.category(t.layer))
	if !ok {
		return pcbmodel.FootprintDrawing{}, false
	}
	d := pcbmodel.NewSegment(convertPoint(t.startX, t.startY), convertPoint(t.endX, t.endY), altiumToMM(t.width))
	return pcbmodel.FootprintDrawing{Layer: side, Shape: &d}, true
}

func convertArcDrawing(a arc, lmap layerMap) (pcbmodel.FootprintDrawing, bool) {
	side, ok := drawingSide(lmap.category(a.layer))
	if !ok {
		return pcbmodel.FootprintDrawing{}, false
	}
	d := pcbmodel.NewArc(convertPoint(a.centerX, a.centerY), altiumToMM(a.radius), a.startAngle, a.endAngle, altiumToMM(a.width))
	return pcbmodel.FootprintDrawing{Layer: side, Shape: &d}, true
}

func convertFillDrawing(f fill, lmap layerMap) (pcbmodel.FootprintDrawing, bool) {
	side, ok := drawingSide(lmap.category(f.layer))
	if !ok {
		return pcbmodel.FootprintDrawing{}, false
	}
	d := pcbmodel.NewRect(convertPoint(f.x1, f.y1), convertPoint(f.x2, f.y2), 0)
	return pcbmodel.FootprintDrawing{Layer: side, Shape: &d}, true
}

// ─── board edges ────────────────────────────────────────────────────────

func extractBoardEdges(boardRecords []textRecord) ([]pcbmodel.Drawing, pcbmodel.BoundingBox) {
	var edges []pcbmodel.Drawing
	bbox := pcbmodel.EmptyBoundingBox()

	for _, r := range boardRecords {
		if r["KIND"] != "0" {
			continue
		}
		vcount := int(r.coord("VCOUNT"))
		for i := 0; i < vcount; i++ {
			x0, y0 := r.coord(vKey("VX", i)), r.coord(vKey("VY", i))
			next := (i + 1) % vcount
			x1, y1 := r.coord(vKey("VX", next)), r.coord(vKey("VY", next))

			start := convertPoint(x0, y0)
			end := convertPoint(x1, y1)
			edges = append(edges, pcbmodel.NewSegment(start, end, 0.05))
			bbox.Expand(start.X, start.Y)
			bbox.Expand(end.X, end.Y)
		}
	}
	if bbox.IsEmpty() {
		bbox = pcbmodel.BoundingBox{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	}
	return edges, bbox
}

func vKey(prefix string, i int) string {
	return prefix + itoa(i)
}

// ─── board-level drawings (silkscreen/fabrication) ─────────────────────

func categorizeDrawings(pcb *pcbmodel.PcbData, tracks []track, arcs []arc, fills []fill, lmap layerMap) {
	file := func(d pcbmodel.Drawing, cat layerCategory) {
		switch cat {
		case layerSilkF:
			cur, _ := pcb.Drawings.Silkscreen.Get("F")
			pcb.Drawings.Silkscreen.Set("F", append(cur, d))
		case layerSilkB:
			cur, _ := pcb.Drawings.Silkscreen.Get("B")
			pcb.Drawings.Silkscreen.Set("B", append(cur, d))
		case layerFabF:
			cur, _ := pcb.Drawings.Fabrication.Get("F")
			pcb.Drawings.Fabrication.Set("F", append(cur, d))
		case layerFabB:
			cur, _ := pcb.Drawings.Fabrication.Get("B")
			pcb.Drawings.Fabrication.Set("B", append(cur, d))
		}
	}

	for _, t := range tracks {
		if t.componentID != freeComponentID {
			continue
		}
		cat := lmap.category(t.layer)
		d := pcbmodel.NewSegment(convertPoint(t.startX, t.startY), convertPoint(t.endX, t.endY), altiumToMM(t.width))
		file(d, cat)
	}
	for _, a := range arcs {
		if a.componentID != freeComponentID {
			continue
		}
		cat := lmap.category(a.layer)
		d := pcbmodel.NewArc(convertPoint(a.centerX, a.centerY), altiumToMM(a.radius), a.startAngle, a.endAngle, altiumToMM(a.width))
		file(d, cat)
	}
	for _, f := range fills {
		if f.componentID != freeComponentID {
			continue
		}
		cat := lmap.category(f.layer)
		d := pcbmodel.NewRect(convertPoint(f.x1, f.y1), convertPoint(f.x2, f.y2), 0)
		file(d, cat)
	}
}

// ─── track/via data ──────────────────────────────────────────────────────

func buildTrackData(tracks []track, arcs []arc, vias []via, nets []net, lmap layerMap) pcbmodel.LayerData[[]pcbmodel.Track] {
	data := pcbmodel.NewLayerData[[]pcbmodel.Track]()

	layerKey := func(cat layerCategory, id uint8) (string, bool) {
		switch cat {
		case layerCopperF:
			return "F", true
		case layerCopperB:
			return "B", true
		case layerCopperInner:
			return innerLayerName(id), true
		default:
			return "", false
		}
	}

	for _, t := range tracks {
		if t.componentID != freeComponentID {
			continue
		}
		key, ok := layerKey(lmap.category(t.layer), t.layer)
		if !ok {
			continue
		}
		tr := pcbmodel.NewTrackSegment(convertPoint(t.startX, t.startY), convertPoint(t.endX, t.endY), altiumToMM(t.width))
		if name, ok := netName(nets, t.netID); ok {
			tr.HasNet, tr.Net = true, name
		}
		cur, _ := data.Get(key)
		data.Set(key, append(cur, tr))
	}

	for _, a := range arcs {
		if a.componentID != freeComponentID {
			continue
		}
		key, ok := layerKey(lmap.category(a.layer), a.layer)
		if !ok {
			continue
		}
		tr := pcbmodel.NewTrackArc(convertPoint(a.centerX, a.centerY), a.startAngle, a.endAngle, altiumToMM(a.radius), altiumToMM(a.width))
		if name, ok := netName(nets, a.netID); ok {
			tr.HasNet, tr.Net = true, name
		}
		cur, _ := data.Get(key)
		data.Set(key, append(cur, tr))
	}

	for _, v := range vias {
		pos := convertPoint(v.x, v.y)
		diameter := altiumToMM(v.diameter)
		drill := altiumToMM(v.holeSize)
		tr := pcbmodel.NewVia(pos, diameter, drill)
		if name, ok := netName(nets, v.netID); ok {
			tr.HasNet, tr.Net = true, name
		}
		for _, side := range []string{"F", "B"} {
			cur, _ := data.Get(side)
			data.Set(side, append(cur, tr))
		}
	}

	return data
}

// ─── metadata ────────────────────────────────────────────────────────────

func extractMetadata(boardRecords []textRecord) pcbmodel.Metadata {
	if len(boardRecords) == 0 {
		return pcbmodel.Metadata{}
	}
	return pcbmodel.Metadata{Title: boardRecords[0]["DESIGNNAME"]}
}
