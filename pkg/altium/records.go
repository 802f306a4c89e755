package altium

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// ─── text-record streams (Board6/Components6/Nets6) ──────────────────

// textRecord is one decoded `KEY=VALUE|KEY=VALUE|...` property bag; KEY is
// uppercased per spec §4.F step 3.
type textRecord map[string]string

func parseTextRecordStream(data []byte) []textRecord {
	var records []textRecord
	offset := 0
	for offset+4 <= len(data) {
		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if offset+length > len(data) {
			break
		}
		raw := data[offset : offset+length]
		offset += length

		// Windows-1252 text, NUL-terminated; every byte used here is ASCII
		// in practice (designators, numeric fields, layer names).
		var text strings.Builder
		for _, b := range raw {
			if b == 0 {
				break
			}
			text.WriteByte(b)
		}

		props := textRecord{}
		for _, pair := range strings.Split(text.String(), "|") {
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			props[strings.ToUpper(key)] = value
		}
		if len(props) > 0 {
			records = append(records, props)
		}
	}
	return records
}

func (r textRecord) is(kind string) bool {
	return r["RECORD"] == kind
}

func (r textRecord) coord(key string) int32 {
	v, err := strconv.ParseFloat(r[key], 64)
	if err != nil {
		return 0
	}
	return int32(v)
}

func (r textRecord) float(key string) float64 {
	v, _ := strconv.ParseFloat(r[key], 64)
	return v
}

func (r textRecord) layerID() uint8 {
	key := r["V7_LAYER"]
	if key == "" {
		key = r["LAYER"]
	}
	v, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 1
	}
	// V7 layer IDs are based at 0x01000000; the low byte is the V6-compatible id.
	if v > 0x01000000 {
		return uint8(v & 0xFF)
	}
	return uint8(v)
}

// ─── decoded record types ──────────────────────────────────────────────

type component struct {
	designator string
	pattern    string
	comment    string
	x, y       int32
	rotation   float64
	layer      uint8
}

type net struct {
	name string
}

type pad struct {
	name                   string
	layer                  uint8
	netID, componentID     uint16
	x, y, sizeX, sizeY     int32
	holeSize               int32
	shape                  uint8
	rotation               float64
}

type track struct {
	layer              uint8
	netID, componentID uint16
	startX, startY     int32
	endX, endY         int32
	width              int32
}

type arc struct {
	layer              uint8
	netID, componentID uint16
	centerX, centerY   int32
	radius             int32
	startAngle         float64
	endAngle           float64
	width              int32
}

type via struct {
	netID          uint16
	x, y           int32
	diameter       int32
	holeSize       int32
}

type fill struct {
	layer       uint8
	componentID uint16
	x1, y1      int32
	x2, y2      int32
}

const freeComponentID = 0xFFFF

func parseComponents(records []textRecord) []component {
	var out []component
	for _, r := range records {
		if !r.is("Component") {
			continue
		}
		designator := r["SOURCEDESIGNATOR"]
		if designator == "" {
			designator = r["DESIGNATOR"]
		}
		out = append(out, component{
			designator: designator,
			pattern:    r["PATTERN"],
			comment:    r["COMMENT"],
			x:          r.coord("X"),
			y:          r.coord("Y"),
			rotation:   r.float("ROTATION"),
			layer:      r.layerID(),
		})
	}
	return out
}

func parseNets(records []textRecord) []net {
	// Index 0 is reserved for "no net", matching pad/track net_id==0.
	nets := []net{{name: ""}}
	for _, r := range records {
		if !r.is("Net") {
			continue
		}
		nets = append(nets, net{name: r["NAME"]})
	}
	return nets
}

func netName(nets []net, id uint16) (string, bool) {
	if int(id) >= len(nets) {
		return "", false
	}
	name := nets[id].name
	return name, name != ""
}

// ─── binary subrecord streams (Pads6/Tracks6/Arcs6/Vias6/Fills6) ───────

type subrecord struct {
	tag  byte
	data []byte
}

func parseSubrecords(data []byte) []subrecord {
	var records []subrecord
	offset := 0
	for offset+5 <= len(data) {
		tag := data[offset]
		offset++
		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if offset+length > len(data) {
			break
		}
		records = append(records, subrecord{tag: tag, data: data[offset : offset+length]})
		offset += length
	}
	return records
}

func readU8(data []byte, offset int) uint8 {
	if offset >= len(data) {
		return 0
	}
	return data[offset]
}

func readU16(data []byte, offset int) uint16 {
	if offset+2 > len(data) {
		return 0
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2])
}

func readI32(data []byte, offset int) int32 {
	if offset+4 > len(data) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
}

func readF64(data []byte, offset int) float64 {
	if offset+8 > len(data) {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data[offset : offset+8]))
}

func parseTracks(data []byte) []track {
	var out []track
	for _, sr := range parseSubrecords(data) {
		if len(sr.data) < 33 {
			continue
		}
		d := sr.data
		out = append(out, track{
			layer:       readU8(d, 0),
			netID:       readU16(d, 3),
			componentID: readU16(d, 7),
			startX:      readI32(d, 13),
			startY:      readI32(d, 17),
			endX:        readI32(d, 21),
			endY:        readI32(d, 25),
			width:       readI32(d, 29),
		})
	}
	return out
}

func parseArcs(data []byte) []arc {
	var out []arc
	for _, sr := range parseSubrecords(data) {
		if len(sr.data) < 45 {
			continue
		}
		d := sr.data
		out = append(out, arc{
			layer:       readU8(d, 0),
			netID:       readU16(d, 3),
			componentID: readU16(d, 7),
			centerX:     readI32(d, 13),
			centerY:     readI32(d, 17),
			radius:      readI32(d, 21),
			startAngle:  readF64(d, 25),
			endAngle:    readF64(d, 33),
			width:       readI32(d, 41),
		})
	}
	return out
}

func parseVias(data []byte) []via {
	var out []via
	for _, sr := range parseSubrecords(data) {
		if len(sr.data) < 29 {
			continue
		}
		d := sr.data
		out = append(out, via{
			netID:    readU16(d, 3),
			x:        readI32(d, 13),
			y:        readI32(d, 17),
			diameter: readI32(d, 21),
			holeSize: readI32(d, 25),
		})
	}
	return out
}

func parseFills(data []byte) []fill {
	var out []fill
	for _, sr := range parseSubrecords(data) {
		if len(sr.data) < 29 {
			continue
		}
		d := sr.data
		out = append(out, fill{
			layer:       readU8(d, 0),
			componentID: readU16(d, 7),
			x1:          readI32(d, 13),
			y1:          readI32(d, 17),
			x2:          readI32(d, 21),
			y2:          readI32(d, 25),
		})
	}
	return out
}

// parsePads pairs up the 2-or-3 subrecord runs that make up a pad: a
// variable-length name, a >=70 byte geometry record, and an optional
// >=33 byte size-and-shape record present iff its tag differs from the
// first pad's name-tag (spec §4.F step 5, §9 open question).
func parsePads(data []byte) []pad {
	all := parseSubrecords(data)
	if len(all) == 0 {
		return nil
	}
	nameTag := all[0].tag

	var pads []pad
	i := 0
	for i < len(all) {
		name := strings.TrimRight(string(all[i].data), "\x00")
		i++

		if i >= len(all) {
			break
		}
		geom := all[i].data
		i++

		if len(geom) < 70 {
			if i < len(all) && len(all[i].data) < 33 {
				i++
			}
			continue
		}

		pads = append(pads, pad{
			name:        name,
			layer:       readU8(geom, 0),
			netID:       readU16(geom, 7),
			componentID: readU16(geom, 13),
			x:           readI32(geom, 23),
			y:           readI32(geom, 27),
			sizeX:       readI32(geom, 31),
			sizeY:       readI32(geom, 35),
			holeSize:    readI32(geom, 55),
			shape:       readU8(geom, 59),
			rotation:    readF64(geom, 62),
		})

		if i < len(all) && all[i].tag != nameTag {
			i++
		}
	}
	return pads
}
