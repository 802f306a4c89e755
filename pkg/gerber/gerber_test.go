package gerber

import (
	"archive/zip"
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func TestTokenizeSkipsComments(t *testing.T) {
	toks := tokenize("G04 this is a comment*\n%FSLAX24Y24*%\nX1000Y1000D02*\n")
	if len(toks) != 2 {
		t.Fatalf("tokens = %d, want 2 (comment dropped)", len(toks))
	}
	if toks[0].kind != tokenExtended || toks[0].content != "FSLAX24Y24" {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].kind != tokenWord || toks[1].content != "X1000Y1000D02" {
		t.Errorf("token 1 = %+v", toks[1])
	}
}

func TestParseFormatSpec(t *testing.T) {
	f := parseFormatSpec("FSLAX24Y24")
	if f.xInteger != 2 || f.xDecimal != 4 || f.yInteger != 2 || f.yDecimal != 4 {
		t.Errorf("format = %+v", f)
	}
}

func TestCoordinateConverter(t *testing.T) {
	c := coordinateConverter{format: coordinateFormat{xInteger: 2, xDecimal: 4, yInteger: 2, yDecimal: 4}, units: unitsMillimeters}
	if got := c.toMM(10000, true); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("toMM(10000) = %v, want 1.0", got)
	}
	cIn := coordinateConverter{format: c.format, units: unitsInches}
	if got := cIn.toMM(10000, true); math.Abs(got-25.4) > 1e-9 {
		t.Errorf("toMM inches = %v, want 25.4", got)
	}
}

func TestApertureStrokeWidth(t *testing.T) {
	table := newApertureTable()
	table.define(10, apertureTemplate{kind: templateCircle, diameter: 0.25})
	table.define(11, apertureTemplate{kind: templateRectangle, xSize: 0.3, ySize: 0.5})
	if w := table.strokeWidth(10); math.Abs(w-0.25) > 1e-9 {
		t.Errorf("circle width = %v", w)
	}
	if w := table.strokeWidth(11); math.Abs(w-0.3) > 1e-9 {
		t.Errorf("rect width = %v, want min(0.3,0.5)", w)
	}
	if w := table.strokeWidth(99); w != 0 {
		t.Errorf("undefined aperture width = %v, want 0", w)
	}
}

func gerberProgram(lines ...string) []command {
	src := "%FSLAX24Y24*%\n%MOMM*%\n"
	for _, l := range lines {
		src += l + "\n"
	}
	toks := tokenize(src)
	return parseCommands(toks)
}

func TestLinearSegmentWidth(t *testing.T) {
	cmds := gerberProgram(
		"%ADD10C,0.5*%",
		"D10*",
		"X0Y0D02*",
		"X10000Y0D01*",
	)
	out := interpret(cmds)
	if len(out.drawings) != 1 {
		t.Fatalf("drawings = %d, want 1", len(out.drawings))
	}
	d := out.drawings[0]
	if d.Kind != pcbmodel.DrawingKindSegment {
		t.Fatalf("kind = %v, want segment", d.Kind)
	}
	if math.Abs(d.Segment.Width-0.5) > 1e-9 {
		t.Errorf("width = %v, want 0.5", d.Segment.Width)
	}
	if math.Abs(d.Segment.End.X-1.0) > 1e-9 {
		t.Errorf("end.X = %v, want 1.0mm", d.Segment.End.X)
	}
}

func TestFlashCircle(t *testing.T) {
	cmds := gerberProgram(
		"%ADD10C,0.8*%",
		"D10*",
		"X10000Y20000D03*",
	)
	out := interpret(cmds)
	if len(out.drawings) != 1 || out.drawings[0].Kind != pcbmodel.DrawingKindCircle {
		t.Fatalf("drawings = %+v", out.drawings)
	}
	c := out.drawings[0].Circle
	if math.Abs(c.Radius-0.4) > 1e-9 {
		t.Errorf("radius = %v, want 0.4", c.Radius)
	}
	if math.Abs(c.Center.X-1.0) > 1e-9 || math.Abs(c.Center.Y-2.0) > 1e-9 {
		t.Errorf("center = %+v, want (1,2)", c.Center)
	}
}

func TestFlashObround(t *testing.T) {
	cmds := gerberProgram(
		"%ADD10O,1.0X0.5*%",
		"D10*",
		"X0Y0D03*",
	)
	out := interpret(cmds)
	if len(out.drawings) != 1 || out.drawings[0].Kind != pcbmodel.DrawingKindPolygon {
		t.Fatalf("drawings = %+v", out.drawings)
	}
	ring := out.drawings[0].Polygon.Rings[0]
	if len(ring) != (obroundSegs+1)*2 {
		t.Errorf("obround points = %d, want %d", len(ring), (obroundSegs+1)*2)
	}
}

func TestRegionPolygonEvenOdd(t *testing.T) {
	cmds := gerberProgram(
		"G36*",
		"X0Y0D02*",
		"X10000Y0D01*",
		"X10000Y10000D01*",
		"X0Y10000D01*",
		"X0Y0D01*",
		"G37*",
	)
	out := interpret(cmds)
	if len(out.drawings) != 1 || out.drawings[0].Kind != pcbmodel.DrawingKindPolygon {
		t.Fatalf("drawings = %+v", out.drawings)
	}
	if len(out.drawings[0].Polygon.Rings) != 1 {
		t.Errorf("rings = %d, want 1", len(out.drawings[0].Polygon.Rings))
	}
	if len(out.drawings[0].Polygon.Rings[0]) != 5 {
		t.Errorf("ring points = %d, want 5 (closed square)", len(out.drawings[0].Polygon.Rings[0]))
	}
}

func TestClearPolaritySilkscreenSidecar(t *testing.T) {
	cmds := gerberProgram(
		"%ADD10C,0.5*%",
		"D10*",
		"%LPC*%",
		"X0Y0D03*",
		"%LPD*%",
	)
	out := interpret(cmds)
	if len(out.drawings) != 0 {
		t.Errorf("dark drawings = %d, want 0", len(out.drawings))
	}
	if len(out.clearDrawings) != 1 {
		t.Errorf("clear drawings = %d, want 1", len(out.clearDrawings))
	}
}

func TestArcCWStartEndSwap(t *testing.T) {
	cmds := gerberProgram(
		"%ADD10C,0.1*%",
		"D10*",
		"G02*",
		"X0Y0D02*",
		"X10000Y0I5000J0D01*",
	)
	out := interpret(cmds)
	if len(out.drawings) != 1 || out.drawings[0].Kind != pcbmodel.DrawingKindArc {
		t.Fatalf("drawings = %+v", out.drawings)
	}
	// Around center (0.5,0) the CW start (0,0) is at 180° and the end (1,0)
	// at 0°; the swap stores the arc as a CCW sweep from 0° to 180°.
	arc := out.drawings[0].Arc
	if math.Abs(arc.StartAngle) > 1e-9 || math.Abs(arc.EndAngle-180) > 1e-9 {
		t.Errorf("arc angles = (%v, %v), want (0, 180) after the CW swap", arc.StartAngle, arc.EndAngle)
	}
}

func TestThermalMacroFourArcs(t *testing.T) {
	mac := parseMacroBody("THERMAL80", []string{"7,0,0,0.8,0.5,0.1,0"})
	drawings := evaluateMacro(mac, nil, 0, 0)
	if len(drawings) != 4 {
		t.Fatalf("thermal arcs = %d, want 4", len(drawings))
	}
	for _, d := range drawings {
		if d.Kind != pcbmodel.DrawingKindArc {
			t.Errorf("kind = %v, want arc", d.Kind)
		}
	}
}

func TestMacroExpressionPrecedence(t *testing.T) {
	e := parseExpr("1+2x3")
	if got := e.eval(nil); math.Abs(got-7) > 1e-9 {
		t.Errorf("1+2x3 = %v, want 7", got)
	}
	e2 := parseExpr("(1+2)x3")
	if got := e2.eval(nil); math.Abs(got-9) > 1e-9 {
		t.Errorf("(1+2)x3 = %v, want 9", got)
	}
}

func TestMacroVariableSubstitution(t *testing.T) {
	e := parseExpr("$1x2")
	if got := e.eval([]float64{3}); math.Abs(got-6) > 1e-9 {
		t.Errorf("$1x2 with $1=3 = %v, want 6", got)
	}
	if got := e.eval(nil); got != 0 {
		t.Errorf("out-of-range variable = %v, want 0", got)
	}
}

func TestMacroDivideByNearZero(t *testing.T) {
	e := parseExpr("1/0")
	if got := e.eval(nil); got != 0 {
		t.Errorf("1/0 = %v, want 0", got)
	}
}

func TestExcellonBasicDrill(t *testing.T) {
	content := "M48\nMETRIC,TZ\nT01C0.800\nT02C1.200\n%\nT01\nX010000Y020000\nT02\nX005000Y005000\nM30\n"
	drawings, ok := parseExcellon(content)
	if !ok {
		t.Fatal("expected Excellon file recognized")
	}
	if len(drawings) != 2 {
		t.Fatalf("drills = %d, want 2", len(drawings))
	}
	if math.Abs(drawings[0].Circle.Radius-0.4) > 1e-9 {
		t.Errorf("tool 1 radius = %v, want 0.4", drawings[0].Circle.Radius)
	}
	if math.Abs(drawings[1].Circle.Radius-0.6) > 1e-9 {
		t.Errorf("tool 2 radius = %v, want 0.6", drawings[1].Circle.Radius)
	}
}

func TestExcellonImplicitDecimalLeftPad(t *testing.T) {
	// format defaults to 3 integer / 3 decimal digits; a short token must
	// be left-padded against the decimal point, not right-padded: "14478"
	// -> "014478" -> 14.478mm, never "144780" -> 144.78mm.
	content := "M48\nMETRIC,TZ\nT01C0.800\n%\nT01\nX14478Y14478\nM30\n"
	drawings, ok := parseExcellon(content)
	if !ok {
		t.Fatal("expected Excellon file recognized")
	}
	if len(drawings) != 1 {
		t.Fatalf("drills = %d, want 1", len(drawings))
	}
	center := drawings[0].Circle.Center
	if math.Abs(center.X-14.478) > 1e-9 || math.Abs(center.Y-14.478) > 1e-9 {
		t.Errorf("center = (%v, %v), want (14.478, 14.478)", center.X, center.Y)
	}
}

func TestExcellonRejectsNonDrillFile(t *testing.T) {
	if _, ok := parseExcellon("%FSLAX24Y24*%\nG04 not a drill file*\n"); ok {
		t.Error("expected non-Excellon content to be rejected")
	}
}

func TestIdentifyFromFilenameConventions(t *testing.T) {
	cases := map[string]gerberLayerType{
		"board.gtl":          layerCopperTop,
		"board.gbl":          layerCopperBottom,
		"board.gto":          layerSilkscreenTop,
		"board.g2":           layerCopperInner,
		"board-F_Cu.gbr":     layerCopperTop,
		"board-B_Cu.gbr":     layerCopperBottom,
		"board-In2_Cu.gbr":   layerCopperInner,
		"board-Edge_Cuts.gbr": layerBoardOutline,
		"TopLayer.gbr":        layerCopperTop,
		"TopSilkLayer.gbr":    layerSilkscreenTop,
		"unknownfile.gbr":     layerUnknown,
	}
	for name, want := range cases {
		if got := identifyFromFilename(name); got.kind != want {
			t.Errorf("identifyFromFilename(%q) = %v, want %v", name, got.kind, want)
		}
	}
}

func TestIdentifyFromX2Copper(t *testing.T) {
	l := identifyFromX2(fileFunction{kind: ffCopper, layerNum: 2, side: sideInner})
	if l.kind != layerCopperInner || l.innerName != "In2" {
		t.Errorf("identifyFromX2 copper inner = %+v", l)
	}
}

// --- ZIP assembly fixture ---

const outlineGerber = `%FSLAX24Y24*%
%MOMM*%
%TF.FileFunction,Profile*%
%ADD10C,0.1*%
D10*
X0Y0D02*
X100000Y0D01*
X100000Y100000D01*
X0Y100000D01*
X0Y0D01*
M02*
`

const copperTopGerber = `%FSLAX24Y24*%
%MOMM*%
%TF.FileFunction,Copper,L1,Top*%
%ADD10C,0.3*%
D10*
X10000Y10000D02*
X20000Y10000D01*
M02*
`

const silkTopGerber = `%FSLAX24Y24*%
%MOMM*%
%TF.FileFunction,Legend,Top*%
%ADD10C,0.15*%
D10*
X5000Y5000D03*
M02*
`

func buildTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestParseZipAssembly(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"board.gko": outlineGerber,
		"board.gtl": copperTopGerber,
		"board.gto": silkTopGerber,
	})
	pcb, err := Parse(data, pcbmodel.ExtractOptions{IncludeTracks: true})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pcb.Edges) == 0 {
		t.Error("expected edges from board outline")
	}
	if len(pcb.Drawings.Silkscreen.F) == 0 {
		t.Error("expected front silkscreen drawings")
	}
	if !pcb.HasTracks {
		t.Error("expected tracks since IncludeTracks was set")
	}
	if len(pcb.Tracks.F) == 0 {
		t.Error("expected front copper tracks")
	}
	if pcb.HasBom {
		t.Error("Gerber pipeline should never emit a bom")
	}
}

func TestParseRejectsOversizedZipEntry(t *testing.T) {
	big := outlineGerber + strings.Repeat("G04 padding*\n", 10000)
	data := buildTestZip(t, map[string]string{"board.gko": big})

	if _, err := Parse(data, pcbmodel.ExtractOptions{MaxZipEntrySize: 1024}); err == nil {
		t.Error("expected error when an entry exceeds MaxZipEntrySize")
	}
	if _, err := Parse(data, pcbmodel.ExtractOptions{}); err != nil {
		t.Errorf("Parse() with default size ceiling error = %v, want nil", err)
	}
}

func TestParseRejectsZipWithNoGerber(t *testing.T) {
	data := buildTestZip(t, map[string]string{"readme.txt": "not gerber at all"})
	if _, err := Parse(data, pcbmodel.ExtractOptions{}); err == nil {
		t.Error("expected error when no Gerber file is found")
	}
}
