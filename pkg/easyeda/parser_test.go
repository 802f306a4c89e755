package easyeda

import (
	"strings"
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func TestCanvasOrigin(t *testing.T) {
	tests := []struct {
		name    string
		canvas  string
		wantX   float64
		wantY   float64
	}{
		{
			name:   "origin present at fields 16/17",
			canvas: strings.Repeat("0~", 16) + "100~200~rest",
			wantX:  100,
			wantY:  200,
		},
		{
			name:   "short canvas string defaults to zero",
			canvas: "CA~1~1~1~#FFFFFF~1000~1000~0~0~1~#000000~0~pt~0~0~0~",
			wantX:  0,
			wantY:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := canvasOrigin(tt.canvas)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("canvasOrigin(%q) = (%v, %v), want (%v, %v)", tt.canvas, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestClassifyLayerID(t *testing.T) {
	tests := []struct {
		id   int
		want layerRole
	}{
		{1, roleCopperF},
		{2, roleCopperB},
		{3, roleSilkF},
		{4, roleSilkB},
		{10, roleEdge},
		{11, roleMulti},
		{99, roleOther},
	}
	for _, tt := range tests {
		if got := classifyLayerID(tt.id); got != tt.want {
			t.Errorf("classifyLayerID(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParsePadThroughHole(t *testing.T) {
	// PAD~shape~x~y~width~height~layer~net~number~holeRadius
	parts := []string{"PAD", "ROUND", "100", "100", "2", "2", "11", "GND", "1", "0.5"}
	pad, ok := parsePad(parts, 0, 0)
	if !ok {
		t.Fatal("parsePad() returned ok=false")
	}
	if pad.Kind != pcbmodel.PadKindTH {
		t.Errorf("kind = %v, want th", pad.Kind)
	}
	if !pad.HasDrill || pad.DrillSize.X != milToMM(1.0) {
		t.Errorf("drill = %+v, want size %v mm (2x hole radius of 0.5 mil)", pad.DrillSize, milToMM(1.0))
	}
	if len(pad.Layers) != 2 {
		t.Errorf("layers = %v, want both F and B for a through-hole pad", pad.Layers)
	}
	if !pad.Pin1 {
		t.Error("expected pin1 for pad number 1")
	}
}

func TestParsePadSMD(t *testing.T) {
	parts := []string{"PAD", "RECT", "10", "20", "1", "1.5", "1", "", "2", "0"}
	pad, ok := parsePad(parts, 0, 0)
	if !ok {
		t.Fatal("parsePad() returned ok=false")
	}
	if pad.Kind != pcbmodel.PadKindSMD {
		t.Errorf("kind = %v, want smd", pad.Kind)
	}
	if pad.HasDrill {
		t.Error("SMD pad should not have a drill")
	}
	if len(pad.Layers) != 1 || pad.Layers[0] != "F" {
		t.Errorf("layers = %v, want [F]", pad.Layers)
	}
	if pad.Pos.X != milToMM(10) || pad.Pos.Y != milToMM(20) {
		t.Errorf("pos = %+v, want mil-to-mm of (10,20)", pad.Pos)
	}
}

func TestParseSingleObjectDocument(t *testing.T) {
	doc := `{
		"docType": "5",
		"canvas": "CA~1~1~1~#FFFFFF~1000~1000~0~0~1~#000000~0~pt~0~0~0~0~0~",
		"shape": [
			"TRACK~0.3~10~0 0 10 0",
			"TRACK~0.2~1~10 10 20 10"
		]
	}`
	pcb, err := Parse([]byte(doc), pcbmodel.ExtractOptions{IncludeTracks: true})
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(pcb.Edges) != 1 {
		t.Fatalf("edges = %d, want 1 (Edge.Cuts track)", len(pcb.Edges))
	}
	fCu, _ := pcb.Tracks.Get("F")
	if len(fCu) != 1 {
		t.Fatalf("F.Cu tracks = %d, want 1", len(fCu))
	}
}

func TestParseArrayDocumentSelectsPCB(t *testing.T) {
	doc := `[
		{"docType": "1", "canvas": ""},
		{"docType": "5", "canvas": "CA~1~1~1~#FFFFFF~1000~1000~0~0~1~#000000~0~pt~0~0~0~0~0~", "shape": []}
	]`
	pcb, err := Parse([]byte(doc), pcbmodel.ExtractOptions{})
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if pcb == nil {
		t.Fatal("expected non-nil PcbData")
	}
}

func TestParseArrayDocumentNoPCBErrors(t *testing.T) {
	doc := `[{"docType": "1"}, {"docType": "2"}]`
	_, err := Parse([]byte(doc), pcbmodel.ExtractOptions{})
	if err == nil {
		t.Fatal("expected error when no docType 5 present")
	}
}

func TestParseComponentWithPadsAndBom(t *testing.T) {
	doc := `{
		"docType": "5",
		"canvas": "CA~1~1~1~#FFFFFF~1000~1000~0~0~1~#000000~0~pt~0~0~0~0~0~",
		"shape": [],
		"components": [
			{
				"c_para": {"Designator": "R1", "Value": "10k", "Footprint": "0603"},
				"shape": [
					"PAD~RECT~0~0~1~1~1~~1~0",
					"PAD~RECT~2~0~1~1~1~~2~0"
				]
			}
		]
	}`
	pcb, err := Parse([]byte(doc), pcbmodel.ExtractOptions{})
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(pcb.Footprints) != 1 {
		t.Fatalf("footprints = %d, want 1", len(pcb.Footprints))
	}
	if pcb.Footprints[0].Ref != "R1" {
		t.Errorf("ref = %q, want R1", pcb.Footprints[0].Ref)
	}
	if !pcb.HasBom || len(pcb.Bom.Both) != 1 {
		t.Fatalf("expected a single BOM group, got %+v", pcb.Bom.Both)
	}
}
