// Package gdsii parses GDSII stream files into pcbmodel.PcbData.
//
// GDSII is a flat record stream, not a container format, so this package
// has no cfb-style split into a generic container reader and a format
// layer: one lexer (this file), one tree builder, and one flattener cover
// the whole pipeline.
package gdsii

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Record types (subset actually consumed by this pipeline).
const (
	recHEADER   = 0x00
	recLIBNAME  = 0x02
	recUNITS    = 0x03
	recBGNSTR   = 0x05
	recSTRNAME  = 0x06
	recENDSTR   = 0x07
	recBOUNDARY = 0x08
	recPATH     = 0x09
	recSREF     = 0x0A
	recAREF     = 0x0B
	recTEXT     = 0x0C
	recLAYER    = 0x0D
	recDATATYPE = 0x0E
	recWIDTH    = 0x0F
	recXY       = 0x10
	recENDEL    = 0x11
	recSNAME    = 0x12
	recCOLROW   = 0x13
	recTEXTTYPE = 0x16
	recSTRING   = 0x19
	recSTRANS   = 0x1A
	recMAG      = 0x1B
	recANGLE    = 0x1C
	recPATHTYPE = 0x21
)

// Data types.
const (
	dtNone     = 0x00
	dtBitArray = 0x01
	dtInt16    = 0x02
	dtInt32    = 0x03
	dtFloat64  = 0x05
	dtASCII    = 0x06
)

// record is one parsed GDSII record: a type tag plus a decoded payload.
// Exactly one of the slice/string fields is meaningful, chosen by the
// record's own data-type byte; unused fields stay nil/empty.
type record struct {
	recType  byte
	bitArray []uint16
	int16s   []int16
	int32s   []int32
	float64s []float64
	ascii    string
}

func (r record) i16() int16 {
	if len(r.int16s) == 0 {
		return 0
	}
	return r.int16s[0]
}

func (r record) i32() int32 {
	if len(r.int32s) == 0 {
		return 0
	}
	return r.int32s[0]
}

func (r record) xyPairs() [][2]int32 {
	pairs := make([][2]int32, 0, len(r.int32s)/2)
	for i := 0; i+1 < len(r.int32s); i += 2 {
		pairs = append(pairs, [2]int32{r.int32s[i], r.int32s[i+1]})
	}
	return pairs
}

// gdsFloatToF64 decodes an IBM excess-64 8-byte float: 1 sign bit, 7
// exponent bits (biased by 64), 56 mantissa bits, base 16.
func gdsFloatToF64(b []byte) float64 {
	if len(b) != 8 {
		return 0
	}
	sign := (b[0] >> 7) & 1
	exponent := int32(b[0] & 0x7F)
	var mantissa uint64
	for _, v := range b[1:8] {
		mantissa = (mantissa << 8) | uint64(v)
	}
	if mantissa == 0 {
		return 0
	}
	value := (float64(mantissa) / float64(uint64(1)<<56)) * math.Pow(16, float64(exponent-64))
	if sign == 1 {
		return -value
	}
	return value
}

// parseRecords lexes a GDSII byte stream into its flat record sequence.
func parseRecords(data []byte) ([]record, error) {
	var records []record
	offset := 0
	for offset < len(data) {
		if offset+4 > len(data) {
			break
		}
		length := int(binary.BigEndian.Uint16(data[offset : offset+2]))
		if length < 4 {
			return nil, fmt.Errorf("gdsii: invalid record length %d at offset %d", length, offset)
		}
		if offset+length > len(data) {
			return nil, fmt.Errorf("gdsii: record at offset %d extends past end of data (length %d)", offset, length)
		}

		recType := data[offset+2]
		dataType := data[offset+3]
		payload := data[offset+4 : offset+length]

		rec, err := parseRecordData(recType, dataType, payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		offset += length
	}
	return records, nil
}

func parseRecordData(recType, dataType byte, payload []byte) (record, error) {
	r := record{recType: recType}
	switch dataType {
	case dtNone:
	case dtBitArray:
		for i := 0; i+1 < len(payload); i += 2 {
			r.bitArray = append(r.bitArray, binary.BigEndian.Uint16(payload[i:i+2]))
		}
	case dtInt16:
		for i := 0; i+1 < len(payload); i += 2 {
			r.int16s = append(r.int16s, int16(binary.BigEndian.Uint16(payload[i:i+2])))
		}
	case dtInt32:
		for i := 0; i+3 < len(payload); i += 4 {
			r.int32s = append(r.int32s, int32(binary.BigEndian.Uint32(payload[i:i+4])))
		}
	case dtFloat64:
		for i := 0; i+7 < len(payload); i += 8 {
			r.float64s = append(r.float64s, gdsFloatToF64(payload[i:i+8]))
		}
	case dtASCII:
		s := string(payload)
		if pos := strings.IndexByte(s, 0); pos >= 0 {
			s = s[:pos]
		}
		r.ascii = s
	}
	return r, nil
}
