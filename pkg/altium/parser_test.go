package altium

import (
	"encoding/binary"
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func encodeTextRecord(props map[string]string) []byte {
	var text string
	for k, v := range props {
		text += k + "=" + v + "|"
	}
	buf := make([]byte, 4+len(text))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(text)))
	copy(buf[4:], text)
	return buf
}

func TestParseTextRecordStream(t *testing.T) {
	data := append(encodeTextRecord(map[string]string{"RECORD": "Component", "PATTERN": "0603"}),
		encodeTextRecord(map[string]string{"RECORD": "Net", "NAME": "GND"})...)
	records := parseTextRecordStream(data)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["RECORD"] != "Component" || records[0]["PATTERN"] != "0603" {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1]["NAME"] != "GND" {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func TestParseTracksBinary(t *testing.T) {
	sr := make([]byte, 33)
	sr[0] = 1 // layer CuF
	binary.LittleEndian.PutUint16(sr[3:5], 7)  // net_id
	binary.LittleEndian.PutUint16(sr[7:9], 0xFFFF) // component_id (free)
	binary.LittleEndian.PutUint32(sr[13:17], uint32(int32(1000)))
	binary.LittleEndian.PutUint32(sr[17:21], uint32(int32(2000)))
	binary.LittleEndian.PutUint32(sr[21:25], uint32(int32(3000)))
	binary.LittleEndian.PutUint32(sr[25:29], uint32(int32(4000)))
	binary.LittleEndian.PutUint32(sr[29:33], uint32(int32(250)))

	data := encodeSubrecord(0, sr)
	tracks := parseTracks(data)
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	tr := tracks[0]
	if tr.layer != 1 || tr.netID != 7 || tr.componentID != 0xFFFF {
		t.Errorf("unexpected track: %+v", tr)
	}
	if tr.startX != 1000 || tr.endY != 4000 || tr.width != 250 {
		t.Errorf("unexpected track geometry: %+v", tr)
	}
}

func encodeSubrecord(tag byte, payload []byte) []byte {
	buf := make([]byte, 5+len(payload))
	buf[0] = tag
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	return buf
}

func TestParsePadsNameGeometryPairing(t *testing.T) {
	geom := make([]byte, 70)
	geom[0] = 1                                          // layer CuF
	binary.LittleEndian.PutUint16(geom[7:9], 3)           // net_id
	binary.LittleEndian.PutUint16(geom[13:15], 0)         // component_id
	binary.LittleEndian.PutUint32(geom[23:27], uint32(int32(500)))
	binary.LittleEndian.PutUint32(geom[27:31], uint32(int32(600)))
	binary.LittleEndian.PutUint32(geom[31:35], uint32(int32(100)))
	binary.LittleEndian.PutUint32(geom[35:39], uint32(int32(200)))
	binary.LittleEndian.PutUint32(geom[55:59], uint32(int32(0))) // no hole -> SMD
	geom[59] = 2                                                // shape rect

	var data []byte
	data = append(data, encodeSubrecord(9, []byte("1\x00"))...) // name tag=9
	data = append(data, encodeSubrecord(1, geom)...)            // geometry; next subrecord is another name (tag 9 == nameTag), so no optional 3rd
	// second pad, no optional subrecord either
	data = append(data, encodeSubrecord(9, []byte("2\x00"))...)
	data = append(data, encodeSubrecord(1, geom)...)

	pads := parsePads(data)
	if len(pads) != 2 {
		t.Fatalf("pads = %d, want 2", len(pads))
	}
	if pads[0].name != "1" || pads[1].name != "2" {
		t.Errorf("pad names = %q, %q", pads[0].name, pads[1].name)
	}
	if pads[0].x != 500 || pads[0].y != 600 {
		t.Errorf("pad 0 pos = (%d,%d), want (500,600)", pads[0].x, pads[0].y)
	}
}

func TestLayerMapCategoryAndSide(t *testing.T) {
	m := buildLayerMap(nil)
	tests := []struct {
		id   uint8
		cat  layerCategory
		side string
	}{
		{1, layerCopperF, "F"},
		{32, layerCopperB, "B"},
		{33, layerSilkF, "F"},
		{34, layerSilkB, "B"},
		{74, layerCopperF, "F"},
		{15, layerCopperInner, "F"},
	}
	for _, tt := range tests {
		if got := m.category(tt.id); got != tt.cat {
			t.Errorf("category(%d) = %v, want %v", tt.id, got, tt.cat)
		}
		if got := m.side(tt.id); got != tt.side {
			t.Errorf("side(%d) = %v, want %v", tt.id, got, tt.side)
		}
	}
}

func TestLayerMapMechanicalKind(t *testing.T) {
	records := []textRecord{{"LAYERV7_1MECHKIND": "Assembly_Top"}}
	m := buildLayerMap(records)
	if got := m.category(57); got != layerFabF {
		t.Errorf("category(57) = %v, want layerFabF", got)
	}
}

func TestInnerLayerName(t *testing.T) {
	if got := innerLayerName(2); got != "In1" {
		t.Errorf("innerLayerName(2) = %q, want In1", got)
	}
	if got := innerLayerName(5); got != "In4" {
		t.Errorf("innerLayerName(5) = %q, want In4", got)
	}
}

func TestExtractBoardEdgesSquare(t *testing.T) {
	records := []textRecord{{
		"KIND": "0", "VCOUNT": "4",
		"VX0": "0", "VY0": "0",
		"VX1": "1000000", "VY1": "0",
		"VX2": "1000000", "VY2": "1000000",
		"VX3": "0", "VY3": "1000000",
	}}
	edges, bbox := extractBoardEdges(records)
	if len(edges) != 4 {
		t.Fatalf("edges = %d, want 4", len(edges))
	}
	wantSide := altiumToMM(1000000)
	if bbox.MaxX != wantSide {
		t.Errorf("bbox.MaxX = %v, want %v", bbox.MaxX, wantSide)
	}
	// Y is negated at ingest.
	if bbox.MinY != -wantSide || bbox.MaxY != 0 {
		t.Errorf("unexpected Y-negated bbox: %+v", bbox)
	}
}

func TestBuildFootprintsCrossJoin(t *testing.T) {
	components := []component{
		{designator: "R1", pattern: "0603", comment: "10k", x: 0, y: 0, layer: 1},
	}
	pads := []pad{
		{name: "1", layer: 1, componentID: 0, x: -100, y: 0, sizeX: 200, sizeY: 200, holeSize: 0, shape: 2},
		{name: "2", layer: 1, componentID: 0, x: 100, y: 0, sizeX: 200, sizeY: 200, holeSize: 0, shape: 2},
		{name: "1", layer: 1, componentID: 1, x: 0, y: 0, sizeX: 200, sizeY: 200, holeSize: 0, shape: 2}, // belongs to a missing component
	}
	lmap := buildLayerMap(nil)

	footprints, comps := buildFootprints(components, pads, nil, nil, nil, nil, lmap)
	if len(footprints) != 1 || len(comps) != 1 {
		t.Fatalf("footprints/components = %d/%d, want 1/1", len(footprints), len(comps))
	}
	if len(footprints[0].Pads) != 2 {
		t.Fatalf("pads on R1 = %d, want 2 (componentID 1 pad excluded)", len(footprints[0].Pads))
	}
	if comps[0].Value != "10k" || comps[0].FootprintName != "0603" {
		t.Errorf("unexpected component: %+v", comps[0])
	}
}

func TestConvertPadThroughHole(t *testing.T) {
	p := pad{layer: 74, componentID: 0, x: 0, y: 0, sizeX: 100, sizeY: 100, holeSize: 40, shape: 1, name: "1"}
	out := convertPad(p, nil, buildLayerMap(nil))
	if out.Kind != pcbmodel.PadKindTH {
		t.Errorf("kind = %v, want th", out.Kind)
	}
	if len(out.Layers) != 2 {
		t.Errorf("layers = %v, want both F and B (multi-layer pad)", out.Layers)
	}
	if !out.HasDrill || out.DrillSize.X != 40*0.0000254 {
		t.Errorf("drill = %+v", out.DrillSize)
	}
	if !out.Pin1 {
		t.Error("expected pin1 for pad name \"1\"")
	}
}
