package gdsii

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func TestGDSFloatToF64(t *testing.T) {
	zero := make([]byte, 8)
	if v := gdsFloatToF64(zero); v != 0 {
		t.Errorf("zero = %v, want 0", v)
	}

	one := []byte{0x41, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if v := gdsFloatToF64(one); math.Abs(v-1.0) > 1e-10 {
		t.Errorf("one = %v, want 1.0", v)
	}

	negOne := []byte{0xC1, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if v := gdsFloatToF64(negOne); math.Abs(v+1.0) > 1e-10 {
		t.Errorf("negOne = %v, want -1.0", v)
	}

	// Round-trip through f64ToGDS for a representative fractional value.
	bytes := f64ToGDS(1e-6)
	if v := gdsFloatToF64(bytes); math.Abs(v-1e-6) > 1e-15 {
		t.Errorf("round-trip 1e-6 = %v", v)
	}
}

func TestPolygonArea(t *testing.T) {
	square := []point2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if got := polygonArea(square); math.Abs(got-1.0) > 1e-10 {
		t.Errorf("square area = %v, want 1.0", got)
	}
	triangle := []point2{{0, 0}, {2, 0}, {1, 2}}
	if got := polygonArea(triangle); math.Abs(got-2.0) > 1e-10 {
		t.Errorf("triangle area = %v, want 2.0", got)
	}
}

func TestLayerName(t *testing.T) {
	cases := map[int16]string{0: "F", 1: "B", 2: "In2", 31: "In31", 63: "L63"}
	for layer, want := range cases {
		if got := layerName(layer); got != want {
			t.Errorf("layerName(%d) = %q, want %q", layer, got, want)
		}
	}
}

func TestTransformPointIdentity(t *testing.T) {
	pt := point2{1, 2}
	got := transformPoint(pt, point2{0, 0}, false, 1.0, 0.0)
	if math.Abs(got[0]-1) > 1e-10 || math.Abs(got[1]-2) > 1e-10 {
		t.Errorf("identity transform = %v", got)
	}
}

func TestTransformPointRotate90(t *testing.T) {
	pt := point2{1, 0}
	got := transformPoint(pt, point2{0, 0}, false, 1.0, 90.0)
	if math.Abs(got[0]) > 1e-10 || math.Abs(got[1]-1) > 1e-10 {
		t.Errorf("rotate90 = %v, want (0,1)", got)
	}
}

// --- record-stream fixture builder ---

func writeRecord(data *[]byte, recType, dataType byte, payload []byte) {
	length := uint16(4 + len(payload))
	buf := make([]byte, 4, 4+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], length)
	buf[2] = recType
	buf[3] = dataType
	buf = append(buf, payload...)
	*data = append(*data, buf...)
}

func f64ToGDS(value float64) []byte {
	bytes := make([]byte, 8)
	if value == 0 {
		return bytes
	}
	sign := byte(0)
	v := value
	if v < 0 {
		sign = 1
		v = -v
	}
	exp := int32(64)
	if v >= 1.0 {
		for v >= 1.0 {
			v /= 16.0
			exp++
		}
	} else if v < 1.0/16.0 {
		for v < 1.0/16.0 {
			v *= 16.0
			exp--
		}
	}
	mantissa := uint64(v * float64(uint64(1)<<56))
	bytes[0] = (sign << 7) | byte(exp&0x7F)
	for i := 1; i < 8; i++ {
		bytes[i] = byte((mantissa >> (56 - uint(i)*8)) & 0xFF)
	}
	return bytes
}

func beI16(v int16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b
}

func beI32(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

func asciiPadded(s string) []byte {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	return b
}

type gdsXY struct{ x, y int32 }

func buildBoundary(data *[]byte, layer int16, xy []gdsXY) {
	writeRecord(data, recBOUNDARY, dtNone, nil)
	writeRecord(data, recLAYER, dtInt16, beI16(layer))
	writeRecord(data, recDATATYPE, dtInt16, beI16(0))
	var xyBytes []byte
	for _, p := range xy {
		xyBytes = append(xyBytes, beI32(p.x)...)
		xyBytes = append(xyBytes, beI32(p.y)...)
	}
	writeRecord(data, recXY, dtInt32, xyBytes)
	writeRecord(data, recENDEL, dtNone, nil)
}

func buildPath(data *[]byte, layer int16, width int32, xy []gdsXY) {
	writeRecord(data, recPATH, dtNone, nil)
	writeRecord(data, recLAYER, dtInt16, beI16(layer))
	writeRecord(data, recDATATYPE, dtInt16, beI16(0))
	writeRecord(data, recWIDTH, dtInt32, beI32(width))
	var xyBytes []byte
	for _, p := range xy {
		xyBytes = append(xyBytes, beI32(p.x)...)
		xyBytes = append(xyBytes, beI32(p.y)...)
	}
	writeRecord(data, recXY, dtInt32, xyBytes)
	writeRecord(data, recENDEL, dtNone, nil)
}

func buildSRef(data *[]byte, sname string, x, y int32) {
	writeRecord(data, recSREF, dtNone, nil)
	writeRecord(data, recSNAME, dtASCII, asciiPadded(sname))
	writeRecord(data, recXY, dtInt32, append(beI32(x), beI32(y)...))
	writeRecord(data, recENDEL, dtNone, nil)
}

func buildGDSBytes(dbUnitInMeters, userUnit float64, names []string, bodies [][]byte) []byte {
	var data []byte
	writeRecord(&data, recHEADER, dtInt16, beI16(600))

	dates := make([]byte, 24)
	writeRecord(&data, 0x01, dtInt16, dates) // BGNLIB
	writeRecord(&data, recLIBNAME, dtASCII, asciiPadded("testlib"))

	var unitsBytes []byte
	unitsBytes = append(unitsBytes, f64ToGDS(userUnit)...)
	unitsBytes = append(unitsBytes, f64ToGDS(dbUnitInMeters)...)
	writeRecord(&data, recUNITS, dtFloat64, unitsBytes)

	for i, name := range names {
		writeRecord(&data, recBGNSTR, dtInt16, dates)
		writeRecord(&data, recSTRNAME, dtASCII, asciiPadded(name))
		data = append(data, bodies[i]...)
		writeRecord(&data, recENDSTR, dtNone, nil)
	}

	writeRecord(&data, 0x04, dtNone, nil) // ENDLIB
	return data
}

func TestParseSimpleGDSII(t *testing.T) {
	var body []byte
	buildBoundary(&body, 0, []gdsXY{{0, 0}, {50_000_000, 0}, {50_000_000, 30_000_000}, {0, 30_000_000}, {0, 0}})
	buildPath(&body, 0, 200_000, []gdsXY{{1_000_000, 1_000_000}, {10_000_000, 1_000_000}})

	data := buildGDSBytes(1e-9, 1e-3, []string{"TOP"}, [][]byte{body})

	pcb, err := Parse(data, pcbmodel.ExtractOptions{IncludeTracks: true})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pcb.Edges) == 0 {
		t.Fatal("expected edges from boundary polygon")
	}
	width := pcb.EdgesBBox.MaxX - pcb.EdgesBBox.MinX
	if math.Abs(width-50.0) > 0.1 {
		t.Errorf("width = %v, want ~50mm", width)
	}
	height := pcb.EdgesBBox.MaxY - pcb.EdgesBBox.MinY
	if math.Abs(height-30.0) > 0.1 {
		t.Errorf("height = %v, want ~30mm", height)
	}
	if len(pcb.Tracks.F) == 0 {
		t.Error("expected tracks on front layer")
	}
	if len(pcb.Zones.F) == 0 {
		t.Error("expected zones on front layer")
	}
	if pcb.Metadata.Title != "testlib" {
		t.Errorf("title = %q, want testlib", pcb.Metadata.Title)
	}
}

func TestParseGDSIIWithSRef(t *testing.T) {
	var cellA []byte
	buildBoundary(&cellA, 0, []gdsXY{{0, 0}, {1_000_000, 0}, {1_000_000, 1_000_000}, {0, 1_000_000}, {0, 0}})

	var top []byte
	buildBoundary(&top, 0, []gdsXY{{0, 0}, {10_000_000, 0}, {10_000_000, 10_000_000}, {0, 10_000_000}, {0, 0}})
	buildSRef(&top, "CELL_A", 2_000_000, 2_000_000)

	data := buildGDSBytes(1e-9, 1e-3, []string{"CELL_A", "TOP"}, [][]byte{cellA, top})

	pcb, err := Parse(data, pcbmodel.ExtractOptions{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pcb.Footprints) != 1 {
		t.Fatalf("footprints = %d, want 1", len(pcb.Footprints))
	}
	if got := pcb.Footprints[0].Ref; got != "CELL_A_0" {
		t.Errorf("footprint ref = %q, want CELL_A_0", got)
	}
	if !pcb.HasBom {
		t.Error("expected bom to be generated")
	}
}

func TestParseGDSIINoHeaderFails(t *testing.T) {
	data := []byte{0x00, 0x04, 0xFF, 0x00}
	if _, err := Parse(data, pcbmodel.ExtractOptions{}); err == nil {
		t.Error("expected error for missing HEADER record")
	}
}

func TestParseEmptyFails(t *testing.T) {
	if _, err := Parse(nil, pcbmodel.ExtractOptions{}); err == nil {
		t.Error("expected error for empty data")
	}
}
