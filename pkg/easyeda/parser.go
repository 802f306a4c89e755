// Package easyeda parses EasyEDA/LCEDA PCB JSON exports into pcbmodel.PcbData.
//
// EasyEDA's document has no fixed schema beyond "JSON object with a handful
// of known top-level keys whose values are themselves tilde-delimited
// strings"; there's no JSON-document-traversal precedent in the teacher's
// S-expression-only codebase, so this package follows the teacher's general
// decode idiom instead: pull each field defensively and degrade to a zero
// value rather than failing the whole parse over one malformed record.
package easyeda

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/gopcb/pcbextract/pkg/bom"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

// milToMM converts EasyEDA's native mil units to millimeters.
func milToMM(mil float64) float64 { return mil * 0.0254 }

// Parse reads EasyEDA PCB JSON (a single document object, or an array of
// documents from which the docType=="5" PCB document is selected) into
// PcbData.
func Parse(data []byte, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &pcbmodel.JSONError{Reason: "invalid JSON", Err: err}
	}

	doc, err := selectPCBDocument(raw)
	if err != nil {
		return nil, err
	}

	originX, originY := canvasOrigin(doc.Canvas)

	pcb := pcbmodel.NewPcbData()
	if opts.IncludeTracks {
		pcb.HasTracks = true
		pcb.Tracks = pcbmodel.NewLayerData[[]pcbmodel.Track]()
	}

	for _, s := range doc.Shape {
		routeBoardShape(pcb, s, originX, originY, opts)
	}

	var components []pcbmodel.Component
	addComponent := func(raw json.RawMessage) {
		fp, comp, ok := parseComponent(raw, originX, originY)
		if !ok {
			return
		}
		pcb.Footprints = append(pcb.Footprints, fp)
		components = append(components, comp)
	}
	for _, c := range doc.Components {
		addComponent(c)
	}
	for _, c := range doc.DataStr.Routes {
		addComponent(c)
	}

	if len(components) > 0 {
		pcb.HasBom = true
		pcb.Bom = bom.Build(pcb.Footprints, components, bom.Config{})
	}

	return pcb, nil
}

// ParseFile reads path and parses it as an EasyEDA PCB document.
func ParseFile(path string, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pcbmodel.IOError{Path: path, Err: err}
	}
	return Parse(data, opts)
}

// pcbDocument is the subset of an EasyEDA document's top-level fields this
// parser needs.
type pcbDocument struct {
	DocType    string            `json:"docType"`
	Canvas     string            `json:"canvas"`
	Shape      []string          `json:"shape"`
	Components []json.RawMessage `json:"components"`
	DataStr    struct {
		Routes []json.RawMessage `json:"routes"`
	} `json:"dataStr"`
}

// selectPCBDocument unmarshals raw as either a single document object or an
// array of documents, returning the one with docType=="5" (PCB).
func selectPCBDocument(raw json.RawMessage) (pcbDocument, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var arr []pcbDocument
		if err := json.Unmarshal(raw, &arr); err != nil {
			return pcbDocument{}, &pcbmodel.JSONError{Reason: "invalid JSON array", Err: err}
		}
		for _, d := range arr {
			if d.DocType == "5" {
				return d, nil
			}
		}
		return pcbDocument{}, &pcbmodel.JSONError{Reason: "no PCB document (docType 5) in array"}
	}
	var d pcbDocument
	if err := json.Unmarshal(raw, &d); err != nil {
		return pcbDocument{}, &pcbmodel.JSONError{Reason: "invalid JSON", Err: err}
	}
	return d, nil
}

// canvasOrigin extracts the board origin from the 17th/18th tilde-delimited
// field of the canvas string (1-indexed in the format description, 0-indexed
// here).
func canvasOrigin(canvas string) (x, y float64) {
	parts := strings.Split(canvas, "~")
	if len(parts) > 16 {
		x, _ = strconv.ParseFloat(parts[16], 64)
	}
	if len(parts) > 17 {
		y, _ = strconv.ParseFloat(parts[17], 64)
	}
	return x, y
}

// layerRole categorizes an EasyEDA numeric layer id per spec §4.D.
type layerRole int

const (
	roleOther layerRole = iota
	roleCopperF
	roleCopperB
	roleSilkF
	roleSilkB
	roleEdge
	roleMulti
)

func classifyLayerID(id int) layerRole {
	switch id {
	case 1:
		return roleCopperF
	case 2:
		return roleCopperB
	case 3:
		return roleSilkF
	case 4:
		return roleSilkB
	case 10:
		return roleEdge
	case 11:
		return roleMulti
	default:
		return roleOther
	}
}

// sideOfLayerID maps a layer id to "F" or "B" for footprint-local drawings
// and pads; roleMulti (through-hole pads spanning every copper layer) is
// treated as front.
func sideOfLayerID(id int) string {
	if classifyLayerID(id) == roleCopperB || classifyLayerID(id) == roleSilkB {
		return "B"
	}
	return "F"
}

// routeBoardShape decodes one tilde-delimited board-level shape string and
// files it into the board's edges/silkscreen/tracks.
func routeBoardShape(pcb *pcbmodel.PcbData, shape string, originX, originY float64, opts pcbmodel.ExtractOptions) {
	parts := strings.Split(shape, "~")
	if len(parts) == 0 {
		return
	}
	switch parts[0] {
	case "TRACK":
		routeTrack(pcb, parts, originX, originY, opts)
	case "CIRCLE":
		routeCircle(pcb, parts, originX, originY)
	case "ARC":
		// EasyEDA arcs use an SVG path, which this parser does not decode:
		// ARC shapes are skipped, and one on the board outline layer is
		// reported with a warning.
		if len(parts) >= 3 {
			if id, err := strconv.Atoi(parts[2]); err == nil && classifyLayerID(id) == roleEdge {
				pcbmodel.Warnf("easyeda: ARC shape on Edge.Cuts skipped (SVG arc path not decoded)")
			}
		}
	}
}

func routeTrack(pcb *pcbmodel.PcbData, parts []string, originX, originY float64, opts pcbmodel.ExtractOptions) {
	if len(parts) < 4 {
		return
	}
	width := milToMM(parseFloatOr(parts[1], 0))
	layerID, _ := strconv.Atoi(parts[2])
	coords := parseCoordPairs(parts[3])

	role := classifyLayerID(layerID)
	for i := 0; i+3 < len(coords); i += 2 {
		start := pcbmodel.Point{X: milToMM(coords[i] - originX), Y: milToMM(coords[i+1] - originY)}
		end := pcbmodel.Point{X: milToMM(coords[i+2] - originX), Y: milToMM(coords[i+3] - originY)}
		seg := pcbmodel.NewSegment(start, end, width)

		switch role {
		case roleEdge:
			pcb.Edges = append(pcb.Edges, seg)
			pcb.EdgesBBox.Expand(start.X, start.Y)
			pcb.EdgesBBox.Expand(end.X, end.Y)
		case roleSilkF, roleSilkB:
			side := "F"
			if role == roleSilkB {
				side = "B"
			}
			cur, _ := pcb.Drawings.Silkscreen.Get(side)
			pcb.Drawings.Silkscreen.Set(side, append(cur, seg))
		case roleCopperF, roleCopperB:
			if !opts.IncludeTracks {
				continue
			}
			side := "F"
			if role == roleCopperB {
				side = "B"
			}
			t := pcbmodel.NewTrackSegment(start, end, width)
			cur, _ := pcb.Tracks.Get(side)
			pcb.Tracks.Set(side, append(cur, t))
		}
	}
}

func routeCircle(pcb *pcbmodel.PcbData, parts []string, originX, originY float64) {
	if len(parts) < 6 {
		return
	}
	center := pcbmodel.Point{
		X: milToMM(parseFloatOr(parts[1], 0) - originX),
		Y: milToMM(parseFloatOr(parts[2], 0) - originY),
	}
	radius := milToMM(parseFloatOr(parts[3], 0))
	width := milToMM(parseFloatOr(parts[4], 0))
	layerID, _ := strconv.Atoi(parts[5])

	d := pcbmodel.NewCircle(center, radius, width)
	switch classifyLayerID(layerID) {
	case roleEdge:
		pcb.Edges = append(pcb.Edges, d)
		pcb.EdgesBBox.Expand(center.X-radius, center.Y-radius)
		pcb.EdgesBBox.Expand(center.X+radius, center.Y+radius)
	case roleSilkF:
		cur, _ := pcb.Drawings.Silkscreen.Get("F")
		pcb.Drawings.Silkscreen.Set("F", append(cur, d))
	case roleSilkB:
		cur, _ := pcb.Drawings.Silkscreen.Get("B")
		pcb.Drawings.Silkscreen.Set("B", append(cur, d))
	}
}

// parseComponent decodes one component's own shape list (from "components" or
// "dataStr.routes") into a Footprint and its parallel Component BOM record.
func parseComponent(raw json.RawMessage, originX, originY float64) (pcbmodel.Footprint, pcbmodel.Component, bool) {
	var c struct {
		CPara map[string]string `json:"c_para"`
		Shape []string          `json:"shape"`
		PackageDetail struct {
			Title string `json:"title"`
		} `json:"packageDetail"`
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		pcbmodel.Warnf("easyeda: component: %v", err)
		return pcbmodel.Footprint{}, pcbmodel.Component{}, false
	}

	ref := firstNonEmpty(c.CPara["Designator"], c.CPara["name"])
	value := firstNonEmpty(c.CPara["Value"], c.CPara["comment"])
	fpName := firstNonEmpty(c.CPara["Footprint"], c.PackageDetail.Title)

	fp := pcbmodel.Footprint{Ref: ref}
	comp := pcbmodel.Component{Ref: ref, Value: value, FootprintName: fpName, Fields: map[string]string{}}

	bbox := pcbmodel.EmptyBoundingBox()
	sideFromFirstPad := "F"
	for _, s := range c.Shape {
		parts := strings.Split(s, "~")
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "PAD":
			pad, ok := parsePad(parts, originX, originY)
			if !ok {
				continue
			}
			bbox.Expand(pad.Pos.X-pad.Size.X/2, pad.Pos.Y-pad.Size.Y/2)
			bbox.Expand(pad.Pos.X+pad.Size.X/2, pad.Pos.Y+pad.Size.Y/2)
			if len(fp.Pads) == 0 && len(pad.Layers) > 0 {
				sideFromFirstPad = pad.Layers[0]
			}
			fp.Pads = append(fp.Pads, pad)
		case "TRACK":
			if len(parts) < 4 {
				continue
			}
			width := milToMM(parseFloatOr(parts[1], 0))
			layerID, _ := strconv.Atoi(parts[2])
			side := sideOfLayerID(layerID)
			coords := parseCoordPairs(parts[3])
			for j := 0; j+3 < len(coords); j += 2 {
				start := pcbmodel.Point{X: milToMM(coords[j] - originX), Y: milToMM(coords[j+1] - originY)}
				end := pcbmodel.Point{X: milToMM(coords[j+2] - originX), Y: milToMM(coords[j+3] - originY)}
				bbox.Expand(start.X, start.Y)
				bbox.Expand(end.X, end.Y)
				seg := pcbmodel.NewSegment(start, end, width)
				fp.Drawings = append(fp.Drawings, pcbmodel.FootprintDrawing{Layer: side, Shape: &seg})
			}
		case "CIRCLE":
			if len(parts) < 6 {
				continue
			}
			center := pcbmodel.Point{
				X: milToMM(parseFloatOr(parts[1], 0) - originX),
				Y: milToMM(parseFloatOr(parts[2], 0) - originY),
			}
			radius := milToMM(parseFloatOr(parts[3], 0))
			width := milToMM(parseFloatOr(parts[4], 0))
			layerID, _ := strconv.Atoi(parts[5])
			bbox.Expand(center.X-radius, center.Y-radius)
			bbox.Expand(center.X+radius, center.Y+radius)
			d := pcbmodel.NewCircle(center, radius, width)
			fp.Drawings = append(fp.Drawings, pcbmodel.FootprintDrawing{Layer: sideOfLayerID(layerID), Shape: &d})
		}
	}

	center := pcbmodel.Point{}
	if !bbox.IsEmpty() {
		center = pcbmodel.Point{X: (bbox.MinX + bbox.MaxX) / 2, Y: (bbox.MinY + bbox.MaxY) / 2}
	} else {
		bbox.Expand(-0.5, -0.5)
		bbox.Expand(0.5, 0.5)
	}
	fp.Center = center
	fp.BBox = pcbmodel.FootprintBBox{
		Pos:    center,
		RelPos: pcbmodel.Point{X: bbox.MinX - center.X, Y: bbox.MinY - center.Y},
		Size:   pcbmodel.Point{X: bbox.Width(), Y: bbox.Height()},
	}

	side := pcbmodel.SideFront
	if sideFromFirstPad == "B" {
		side = pcbmodel.SideBack
	}
	fp.Layer = side
	comp.Layer = side

	return fp, comp, true
}

// parsePad decodes a `PAD~shape~x~y~width~height~layer~net~number~hole…`
// shape string per spec §4.D.
func parsePad(parts []string, originX, originY float64) (pcbmodel.Pad, bool) {
	if len(parts) < 10 {
		return pcbmodel.Pad{}, false
	}
	shapeWord := parts[1]
	x := milToMM(parseFloatOr(parts[2], 0) - originX)
	y := milToMM(parseFloatOr(parts[3], 0) - originY)
	width := milToMM(parseFloatOr(parts[4], 0))
	height := milToMM(parseFloatOr(parts[5], 0))
	layerID, _ := strconv.Atoi(parts[6])
	netName := parts[7]
	number := parts[8]
	holeRadius := milToMM(parseFloatOr(parts[9], 0))

	rotation := 0.0
	if len(parts) > 11 {
		rotation = parseFloatOr(parts[11], 0)
	}

	pad := pcbmodel.Pad{
		Pos:  pcbmodel.Point{X: x, Y: y},
		Size: pcbmodel.Point{X: width, Y: height},
	}
	switch shapeWord {
	case "ELLIPSE", "OVAL":
		pad.Shape = pcbmodel.PadShapeOval
	case "RECT":
		pad.Shape = pcbmodel.PadShapeRect
	case "POLYGON":
		pad.Shape = pcbmodel.PadShapeCustom
	default:
		pad.Shape = pcbmodel.PadShapeCircle
	}

	isTH := holeRadius > 0
	if isTH {
		pad.Kind = pcbmodel.PadKindTH
		pad.HasDrill = true
		pad.DrillShape = pcbmodel.DrillShapeCircle
		pad.DrillSize = pcbmodel.Point{X: holeRadius * 2, Y: holeRadius * 2}
	} else {
		pad.Kind = pcbmodel.PadKindSMD
	}

	role := classifyLayerID(layerID)
	if role == roleMulti || isTH {
		pad.Layers = []string{"F", "B"}
	} else {
		pad.Layers = []string{sideOfLayerID(layerID)}
	}

	if netName != "" {
		pad.HasNet = true
		pad.Net = netName
	}
	if number == "1" || number == "A1" {
		pad.Pin1 = true
	}
	if rotation != 0 {
		pad.HasAngle = true
		pad.Angle = rotation
	}

	return pad, true
}

func parseCoordPairs(s string) []float64 {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseFloatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
