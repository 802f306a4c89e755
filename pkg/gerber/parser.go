package gerber

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

// ParseFile reads a Gerber/Excellon ZIP bundle from disk and parses it.
func ParseFile(path string, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pcbmodel.IOError{Path: path, Err: err}
	}
	return Parse(data, opts)
}

// fileOutput pairs one archive member's classified layer role with its
// decoded geometry.
type fileOutput struct {
	layer  gerberLayer
	output layerOutput
}

// Parse decodes a ZIP archive of Gerber layer files (and, optionally, an
// Excellon drill file) into PcbData (spec §4.H). Every archive entry is
// tried as a Gerber file first; on failure it falls back to Excellon
// decoding. An archive with no successfully parsed Gerber file at all is
// an error — a drill-only ZIP is not a usable board export.
func Parse(data []byte, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &pcbmodel.ZipError{Err: err}
	}

	maxEntry := opts.MaxZipEntrySize
	if maxEntry <= 0 {
		maxEntry = pcbmodel.DefaultMaxZipEntrySize
	}

	var outputs []fileOutput
	hadGerber := false

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if int64(f.UncompressedSize64) > maxEntry {
			return nil, &pcbmodel.ZipError{Err: fmt.Errorf("zip entry %q exceeds max entry size (%d > %d bytes)", f.Name, f.UncompressedSize64, maxEntry)}
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(io.LimitReader(rc, maxEntry+1))
		rc.Close()
		if err != nil {
			continue
		}
		if int64(len(raw)) > maxEntry {
			return nil, &pcbmodel.ZipError{Err: fmt.Errorf("zip entry %q exceeds max entry size (%d bytes)", f.Name, maxEntry)}
		}
		if !utf8.Valid(raw) {
			continue
		}
		content := string(raw)

		if layer, out, ok := parseSingleGerber(f.Name, content); ok {
			hadGerber = true
			if layer.kind == layerUnknown && len(out.drawings) == 0 && len(out.clearDrawings) == 0 {
				continue
			}
			outputs = append(outputs, fileOutput{layer: layer, output: out})
			continue
		}
		if drawings, ok := parseExcellon(content); ok && len(drawings) > 0 {
			outputs = append(outputs, fileOutput{layer: gerberLayer{kind: layerDrills}, output: layerOutput{drawings: drawings}})
		}
	}

	if !hadGerber {
		return nil, &pcbmodel.ParseError{Format: "gerber", Location: "zip bundle", Err: fmt.Errorf("no Gerber files found in zip")}
	}
	return assemblePcbData(outputs, opts), nil
}

// parseSingleGerber tokenizes and interprets one archive member as a
// Gerber file. A file with no '*' anywhere is rejected outright — Gerber
// commands are always '*'-terminated.
func parseSingleGerber(filename, content string) (gerberLayer, layerOutput, bool) {
	if !strings.Contains(content, "*") {
		return gerberLayer{}, layerOutput{}, false
	}
	tokens := tokenize(content)
	if len(tokens) == 0 {
		return gerberLayer{}, layerOutput{}, false
	}
	cmds := parseCommands(tokens)
	layer := detectLayerType(filename, cmds)
	out := interpret(cmds)
	return layer, out, true
}

// detectLayerType prefers an X2 FileFunction attribute (authoritative when
// present and recognized) and falls back to filename conventions.
func detectLayerType(filename string, cmds []command) gerberLayer {
	for _, c := range cmds {
		if c.kind == cmdFileFunction {
			l := identifyFromX2(c.fileFunction)
			if l.kind != layerUnknown {
				return l
			}
		}
	}
	return identifyFromFilename(filename)
}

// drawingToTrack converts a copper-layer Segment/Arc drawing into its
// Track equivalent. Flashed shapes (pads) have no Track analogue and are
// left as drawings for the copper_pads section instead.
func drawingToTrack(d pcbmodel.Drawing) (pcbmodel.Track, bool) {
	switch d.Kind {
	case pcbmodel.DrawingKindSegment:
		s := d.Segment
		return pcbmodel.NewTrackSegment(s.Start, s.End, s.Width), true
	case pcbmodel.DrawingKindArc:
		s := d.Arc
		return pcbmodel.NewTrackArc(s.Center, s.StartAngle, s.EndAngle, s.Radius, s.Width), true
	default:
		return pcbmodel.Track{}, false
	}
}

// assemblePcbData sorts every parsed layer's output into PcbData's
// sections, matching the original per-layer-role bucketing:
// BoardOutline -> edges; Silkscreen{Top,Bottom} -> silkscreen drawings (+
// F_Clear/B_Clear sidecar keys, populated only if non-empty); Drills ->
// fabrication's "Drills" inner key; CopperTop/Bottom/Inner -> tracks and
// copper_pads, gated on opts.IncludeTracks. SolderMask and Unknown layers
// contribute nothing. The bounding box comes from the outline, or from the
// silkscreen when there is no outline.
func assemblePcbData(outputs []fileOutput, opts pcbmodel.ExtractOptions) *pcbmodel.PcbData {
	pcb := pcbmodel.NewPcbData()

	var edges []pcbmodel.Drawing
	tracks := pcbmodel.NewLayerData[[]pcbmodel.Track]()
	pads := pcbmodel.NewLayerData[[]pcbmodel.Drawing]()
	anyPads := false
	var drills []pcbmodel.Drawing

	for _, fo := range outputs {
		switch fo.layer.kind {
		case layerBoardOutline:
			edges = append(edges, fo.output.drawings...)
		case layerSilkscreenTop:
			cur, _ := pcb.Drawings.Silkscreen.Get("F")
			pcb.Drawings.Silkscreen.Set("F", append(cur, fo.output.drawings...))
			if len(fo.output.clearDrawings) > 0 {
				inner, _ := pcb.Drawings.Silkscreen.Get("F_Clear")
				pcb.Drawings.Silkscreen.Set("F_Clear", append(inner, fo.output.clearDrawings...))
			}
		case layerSilkscreenBottom:
			cur, _ := pcb.Drawings.Silkscreen.Get("B")
			pcb.Drawings.Silkscreen.Set("B", append(cur, fo.output.drawings...))
			if len(fo.output.clearDrawings) > 0 {
				inner, _ := pcb.Drawings.Silkscreen.Get("B_Clear")
				pcb.Drawings.Silkscreen.Set("B_Clear", append(inner, fo.output.clearDrawings...))
			}
		case layerDrills:
			drills = append(drills, fo.output.drawings...)
		case layerCopperTop, layerCopperBottom, layerCopperInner:
			if !opts.IncludeTracks {
				continue
			}
			key := copperKey(fo.layer)
			var layerTracks []pcbmodel.Track
			var layerPads []pcbmodel.Drawing
			for _, d := range fo.output.drawings {
				if t, ok := drawingToTrack(d); ok {
					layerTracks = append(layerTracks, t)
				} else {
					layerPads = append(layerPads, d)
					anyPads = true
				}
			}
			curT, _ := tracks.Get(key)
			tracks.Set(key, append(curT, layerTracks...))
			curP, _ := pads.Get(key)
			pads.Set(key, append(curP, layerPads...))
		default:
			// SolderMask and Unknown contribute no geometry.
		}
	}

	pcb.Edges = edges
	bboxSource := edges
	if len(bboxSource) == 0 {
		bboxSource = append(append([]pcbmodel.Drawing{}, pcb.Drawings.Silkscreen.F...), pcb.Drawings.Silkscreen.B...)
	}
	for _, d := range bboxSource {
		expandBBoxDrawing(&pcb.EdgesBBox, d)
	}

	if opts.IncludeTracks {
		pcb.HasTracks = true
		pcb.Tracks = tracks
		if anyPads {
			pcb.HasCopperPads = true
			pcb.CopperPads = pads
		}
	}

	if len(drills) > 0 {
		pcb.Drawings.Fabrication.Inner["Drills"] = drills
	}

	return pcb
}

func copperKey(l gerberLayer) string {
	switch l.kind {
	case layerCopperTop:
		return "F"
	case layerCopperBottom:
		return "B"
	default:
		return l.innerName
	}
}

// expandBBoxDrawing grows bbox to cover one drawing, expanding by radius
// for circles and arcs so a pad or curved track can't clip the board box.
func expandBBoxDrawing(bbox *pcbmodel.BoundingBox, d pcbmodel.Drawing) {
	switch d.Kind {
	case pcbmodel.DrawingKindSegment:
		bbox.Expand(d.Segment.Start.X, d.Segment.Start.Y)
		bbox.Expand(d.Segment.End.X, d.Segment.End.Y)
	case pcbmodel.DrawingKindRect:
		bbox.Expand(d.Rect.Start.X, d.Rect.Start.Y)
		bbox.Expand(d.Rect.End.X, d.Rect.End.Y)
	case pcbmodel.DrawingKindCircle:
		c := d.Circle
		bbox.Expand(c.Center.X-c.Radius, c.Center.Y-c.Radius)
		bbox.Expand(c.Center.X+c.Radius, c.Center.Y+c.Radius)
	case pcbmodel.DrawingKindArc:
		a := d.Arc
		bbox.Expand(a.Center.X-a.Radius, a.Center.Y-a.Radius)
		bbox.Expand(a.Center.X+a.Radius, a.Center.Y+a.Radius)
	case pcbmodel.DrawingKindCurve:
		c := d.Curve
		bbox.Expand(c.Start.X, c.Start.Y)
		bbox.Expand(c.CPA.X, c.CPA.Y)
		bbox.Expand(c.CPB.X, c.CPB.Y)
		bbox.Expand(c.End.X, c.End.Y)
	case pcbmodel.DrawingKindPolygon:
		for _, ring := range d.Polygon.Rings {
			for _, p := range ring {
				bbox.Expand(p.X, p.Y)
			}
		}
	}
}
