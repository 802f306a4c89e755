package gdsii

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gopcb/pcbextract/pkg/bom"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

// layerName maps a GDSII layer number to the board-side/inner-layer key
// convention the rest of the pipeline shares. GDSII layer numbers are
// arbitrary per-fab conventions; this is a simple, documented guess (§4.G):
// 0=front copper, 1=back copper, 2-31=inner, everything else gets a literal
// "L<n>" bucket so geometry on an unrecognized layer still survives.
func layerName(layer int16) string {
	switch {
	case layer == 0:
		return "F"
	case layer == 1:
		return "B"
	case layer >= 2 && layer <= 31:
		return "In" + strconv.Itoa(int(layer))
	default:
		return "L" + strconv.Itoa(int(layer))
	}
}

func layerSide(layer int16) string {
	switch layer {
	case 0:
		return "F"
	case 1:
		return "B"
	default:
		return "F"
	}
}

// trackWidthMM converts a GDSII path width to millimeters, taking the
// absolute value of a negative width, and replaces a result under 0.001mm
// with 0.05mm, matching every other pipeline's minimum-stroke-width
// fallback for a zero width field.
func trackWidthMM(widthDB int32, scale float64) float64 {
	w := dbToMM(widthDB, scale)
	if w < 0 {
		w = -w
	}
	if w < 0.001 {
		return 0.05
	}
	return w
}

// ParseFile reads a GDSII stream file from disk and parses it.
func ParseFile(path string, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pcbmodel.IOError{Path: path, Err: err}
	}
	return Parse(data, opts)
}

// Parse reads a GDSII stream byte slice into PcbData (spec §4.G).
func Parse(data []byte, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	if len(data) < 4 {
		return nil, &pcbmodel.ParseError{Format: "gdsii", Err: fmt.Errorf("file too small")}
	}
	if data[2] != recHEADER {
		return nil, &pcbmodel.ParseError{Format: "gdsii", Err: fmt.Errorf("missing HEADER record")}
	}

	records, err := parseRecords(data)
	if err != nil {
		return nil, &pcbmodel.ParseError{Format: "gdsii", Err: err}
	}
	if len(records) == 0 {
		return nil, &pcbmodel.ParseError{Format: "gdsii", Err: fmt.Errorf("no records found")}
	}

	_, metersPerDBUnit := extractUnits(records)
	scale := metersPerDBUnit * 1000.0
	libname := extractLibname(records)

	structures, err := parseStructures(records)
	if err != nil {
		return nil, &pcbmodel.ParseError{Format: "gdsii", Err: err}
	}
	if len(structures) == 0 {
		return nil, &pcbmodel.ParseError{Format: "gdsii", Err: fmt.Errorf("no structures found")}
	}

	structMap := make(map[string]int, len(structures))
	for i, s := range structures {
		structMap[s.name] = i
	}
	topIdx := findTopStructure(structures)

	var flat flattenOutput
	flattenStructure(topIdx, structures, structMap, scale, point2{0, 0}, false, 1.0, 0.0, 0, &flat)

	pcb := pcbmodel.NewPcbData()
	pcb.Edges, pcb.EdgesBBox = buildBoardEdges(flat)

	footprints, components := buildFootprints(structures, structMap, scale, topIdx)
	pcb.Footprints = footprints

	if opts.IncludeTracks {
		pcb.HasTracks = true
		pcb.Tracks = buildTracks(flat, scale)
		zones := buildZones(flat)
		if !isZonesEmpty(zones) {
			pcb.HasZones = true
			pcb.Zones = zones
		}
	}

	title := libname
	if title == "" {
		title = "GDSII Layout"
	}
	pcb.Metadata = pcbmodel.Metadata{Title: title}

	if len(components) > 0 {
		pcb.HasBom = true
		pcb.Bom = bom.Build(pcb.Footprints, components, bom.Config{})
	}

	return pcb, nil
}

// buildBoardEdges picks the board outline from the flattened boundaries:
// the largest-area polygon on layer 0, falling back to the largest overall.
func buildBoardEdges(flat flattenOutput) ([]pcbmodel.Drawing, pcbmodel.BoundingBox) {
	bbox := pcbmodel.EmptyBoundingBox()
	for _, b := range flat.boundaries {
		for _, pt := range b.pts {
			bbox.Expand(pt[0], pt[1])
		}
	}
	for _, p := range flat.paths {
		for _, pt := range p.pts {
			bbox.Expand(pt[0], pt[1])
		}
	}

	outlineIdx := -1
	maxArea := 0.0
	for i, b := range flat.boundaries {
		if b.layer == 0 && len(b.pts) >= 3 {
			area := polygonArea(b.pts)
			if area > maxArea {
				maxArea = area
				outlineIdx = i
			}
		}
	}
	if outlineIdx < 0 {
		for i, b := range flat.boundaries {
			if len(b.pts) >= 3 {
				area := polygonArea(b.pts)
				if area > maxArea {
					maxArea = area
					outlineIdx = i
				}
			}
		}
	}

	var edges []pcbmodel.Drawing
	if outlineIdx >= 0 {
		pts := flat.boundaries[outlineIdx].pts
		for i := 0; i+1 < len(pts); i++ {
			edges = append(edges, pcbmodel.NewSegment(
				pcbmodel.Point{X: pts[i][0], Y: pts[i][1]},
				pcbmodel.Point{X: pts[i+1][0], Y: pts[i+1][1]},
				0.05,
			))
		}
	}
	return edges, bbox
}

// buildTracks converts every flattened path into a chain of Track segments,
// bucketed onto F/B/inner by its GDSII layer.
func buildTracks(flat flattenOutput, scale float64) pcbmodel.LayerData[[]pcbmodel.Track] {
	layers := pcbmodel.NewLayerData[[]pcbmodel.Track]()
	for _, p := range flat.paths {
		width := trackWidthMM(p.width, scale)
		key := layerName(p.layer)
		tracks, _ := layers.Get(key)
		for i := 0; i+1 < len(p.pts); i++ {
			tracks = append(tracks, pcbmodel.NewTrackSegment(
				pcbmodel.Point{X: p.pts[i][0], Y: p.pts[i][1]},
				pcbmodel.Point{X: p.pts[i+1][0], Y: p.pts[i+1][1]},
				width,
			))
		}
		layers.Set(key, tracks)
	}
	return layers
}

// buildZones turns every flattened boundary into a single-polygon Zone,
// bucketed the same way as tracks.
func buildZones(flat flattenOutput) pcbmodel.LayerData[[]pcbmodel.Zone] {
	layers := pcbmodel.NewLayerData[[]pcbmodel.Zone]()
	for _, b := range flat.boundaries {
		ring := make(pcbmodel.Ring, len(b.pts))
		for i, pt := range b.pts {
			ring[i] = pcbmodel.Point{X: pt[0], Y: pt[1]}
		}
		key := layerName(b.layer)
		zones, _ := layers.Get(key)
		zones = append(zones, pcbmodel.Zone{Polygons: []pcbmodel.Ring{ring}, HasWidth: true, Width: 0})
		layers.Set(key, zones)
	}
	return layers
}

func isZonesEmpty(l pcbmodel.LayerData[[]pcbmodel.Zone]) bool {
	if len(l.F) > 0 || len(l.B) > 0 {
		return false
	}
	for _, v := range l.Inner {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// buildFootprints turns every SREF in the top structure into one Footprint
// whose local geometry comes from flattening the referenced cell at the
// origin with the SREF's own transform.
func buildFootprints(structures []structure, structMap map[string]int, scale float64, topIdx int) ([]pcbmodel.Footprint, []pcbmodel.Component) {
	var footprints []pcbmodel.Footprint
	var components []pcbmodel.Component

	for _, e := range structures[topIdx].elements {
		if !e.isSRef || len(e.xy) == 0 {
			continue
		}
		refIdx, ok := structMap[e.sname]
		if !ok {
			continue
		}
		center := xyToMM(e.xy[0][0], e.xy[0][1], scale)
		mirrorX := e.strans&0x8000 != 0

		var sub flattenOutput
		flattenStructure(refIdx, structures, structMap, scale, point2{0, 0}, false, 1.0, 0.0, 0, &sub)

		fpBBox := pcbmodel.EmptyBoundingBox()
		for _, b := range sub.boundaries {
			for _, pt := range b.pts {
				t := transformPoint(pt, point2{0, 0}, mirrorX, e.mag, e.angle)
				fpBBox.Expand(t[0], t[1])
			}
		}
		for _, p := range sub.paths {
			for _, pt := range p.pts {
				t := transformPoint(pt, point2{0, 0}, mirrorX, e.mag, e.angle)
				fpBBox.Expand(t[0], t[1])
			}
		}
		if fpBBox.IsEmpty() {
			fpBBox = pcbmodel.BoundingBox{MinX: -0.5, MinY: -0.5, MaxX: 0.5, MaxY: 0.5}
		}

		size := pcbmodel.Point{X: fpBBox.MaxX - fpBBox.MinX, Y: fpBBox.MaxY - fpBBox.MinY}
		relPos := pcbmodel.Point{X: fpBBox.MinX, Y: fpBBox.MinY}

		var drawings []pcbmodel.FootprintDrawing
		for _, b := range sub.boundaries {
			if len(b.pts) < 3 {
				continue
			}
			ring := make(pcbmodel.Ring, len(b.pts))
			for i, pt := range b.pts {
				t := transformPoint(pt, point2{0, 0}, mirrorX, e.mag, e.angle)
				ring[i] = pcbmodel.Point{X: t[0], Y: t[1]}
			}
			shape := pcbmodel.NewPolygon(pcbmodel.Point{}, 0, []pcbmodel.Ring{ring}, 0)
			shape.Polygon.Filled = true
			shape.Polygon.HasFill = true
			drawings = append(drawings, pcbmodel.FootprintDrawing{Layer: layerName(b.layer), Shape: &shape})
		}
		for _, p := range sub.paths {
			width := trackWidthMM(p.width, scale)
			for i := 0; i+1 < len(p.pts); i++ {
				s := transformPoint(p.pts[i], point2{0, 0}, mirrorX, e.mag, e.angle)
				en := transformPoint(p.pts[i+1], point2{0, 0}, mirrorX, e.mag, e.angle)
				shape := pcbmodel.NewSegment(pcbmodel.Point{X: s[0], Y: s[1]}, pcbmodel.Point{X: en[0], Y: en[1]}, width)
				drawings = append(drawings, pcbmodel.FootprintDrawing{Layer: layerName(p.layer), Shape: &shape})
			}
		}

		side := layerSide(0)
		fpIndex := len(footprints)
		refName := fmt.Sprintf("%s_%d", e.sname, fpIndex)

		footprints = append(footprints, pcbmodel.Footprint{
			Ref:    refName,
			Center: pcbmodel.Point{X: center[0], Y: center[1]},
			BBox: pcbmodel.FootprintBBox{
				Pos:    pcbmodel.Point{X: center[0], Y: center[1]},
				RelPos: relPos,
				Size:   size,
				Angle:  e.angle,
			},
			Drawings: drawings,
			Layer:    pcbmodel.Side(side),
		})

		components = append(components, pcbmodel.Component{
			Ref:           refName,
			Value:         e.sname,
			FootprintName: e.sname,
			Layer:         pcbmodel.Side(side),
		})
	}

	return footprints, components
}
