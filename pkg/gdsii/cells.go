package gdsii

// element is one GDSII structure element. Exactly the fields relevant to
// its own kind are populated; kind is implied by which constructor built it
// rather than a tag, since every caller already knows which element it's
// looking at from the BOUNDARY/PATH/SREF/AREF/TEXT record that opened it.
type element struct {
	isBoundary bool
	isPath     bool
	isSRef     bool
	isARef     bool
	isText     bool

	layer int16
	xy    [][2]int32

	width int32 // PATH

	sname  string // SREF/AREF
	strans uint16
	mag    float64
	angle  float64

	cols int16 // AREF
	rows int16

	text string // TEXT
}

// structure is one GDSII cell: a name and its element list.
type structure struct {
	name     string
	elements []element
}

// parseStructures groups a flat record sequence into BGNSTR..ENDSTR cells.
func parseStructures(records []record) ([]structure, error) {
	var structures []structure
	i := 0
	for i < len(records) {
		if records[i].recType != recBGNSTR {
			i++
			continue
		}
		i++
		if i >= len(records) || records[i].recType != recSTRNAME {
			return nil, errExpectedSTRNAME
		}
		name := records[i].ascii
		i++

		var elems []element
		for i < len(records) && records[i].recType != recENDSTR {
			var e element
			e, i = parseElement(records, i)
			elems = append(elems, e)
		}
		if i < len(records) && records[i].recType == recENDSTR {
			i++
		}
		structures = append(structures, structure{name: name, elements: elems})
	}
	return structures, nil
}

var errExpectedSTRNAME = errParse("gdsii: expected STRNAME after BGNSTR")

type errParse string

func (e errParse) Error() string { return string(e) }

// parseElement parses one BOUNDARY/PATH/SREF/AREF/TEXT element subtree and
// returns the index just past its ENDEL (or past itself, for an unknown
// leading record type, which is skipped).
func parseElement(records []record, start int) (element, int) {
	switch records[start].recType {
	case recBOUNDARY:
		return parseBoundary(records, start)
	case recPATH:
		return parsePath(records, start)
	case recSREF:
		return parseSRef(records, start)
	case recAREF:
		return parseARef(records, start)
	case recTEXT:
		return parseText(records, start)
	default:
		return element{}, start + 1
	}
}

func parseBoundary(records []record, start int) (element, int) {
	e := element{isBoundary: true}
	i := start + 1
	for i < len(records) && records[i].recType != recENDEL {
		switch records[i].recType {
		case recLAYER:
			e.layer = records[i].i16()
		case recXY:
			e.xy = records[i].xyPairs()
		}
		i++
	}
	if i < len(records) && records[i].recType == recENDEL {
		i++
	}
	return e, i
}

func parsePath(records []record, start int) (element, int) {
	e := element{isPath: true}
	i := start + 1
	for i < len(records) && records[i].recType != recENDEL {
		switch records[i].recType {
		case recLAYER:
			e.layer = records[i].i16()
		case recWIDTH:
			e.width = records[i].i32()
		case recXY:
			e.xy = records[i].xyPairs()
		}
		i++
	}
	if i < len(records) && records[i].recType == recENDEL {
		i++
	}
	return e, i
}

func parseSRef(records []record, start int) (element, int) {
	e := element{isSRef: true, mag: 1.0}
	i := start + 1
	for i < len(records) && records[i].recType != recENDEL {
		switch records[i].recType {
		case recSNAME:
			e.sname = records[i].ascii
		case recXY:
			if pairs := records[i].xyPairs(); len(pairs) > 0 {
				e.xy = pairs[:1]
			}
		case recSTRANS:
			if len(records[i].bitArray) > 0 {
				e.strans = records[i].bitArray[0]
			}
		case recMAG:
			if len(records[i].float64s) > 0 {
				e.mag = records[i].float64s[0]
			}
		case recANGLE:
			if len(records[i].float64s) > 0 {
				e.angle = records[i].float64s[0]
			}
		}
		i++
	}
	if i < len(records) && records[i].recType == recENDEL {
		i++
	}
	return e, i
}

func parseARef(records []record, start int) (element, int) {
	e := element{isARef: true, mag: 1.0, cols: 1, rows: 1}
	i := start + 1
	for i < len(records) && records[i].recType != recENDEL {
		switch records[i].recType {
		case recSNAME:
			e.sname = records[i].ascii
		case recCOLROW:
			if len(records[i].int16s) >= 2 {
				e.cols = records[i].int16s[0]
				e.rows = records[i].int16s[1]
			}
		case recXY:
			e.xy = records[i].xyPairs()
		case recSTRANS:
			if len(records[i].bitArray) > 0 {
				e.strans = records[i].bitArray[0]
			}
		case recMAG:
			if len(records[i].float64s) > 0 {
				e.mag = records[i].float64s[0]
			}
		case recANGLE:
			if len(records[i].float64s) > 0 {
				e.angle = records[i].float64s[0]
			}
		}
		i++
	}
	if i < len(records) && records[i].recType == recENDEL {
		i++
	}
	return e, i
}

func parseText(records []record, start int) (element, int) {
	e := element{isText: true}
	i := start + 1
	for i < len(records) && records[i].recType != recENDEL {
		switch records[i].recType {
		case recLAYER:
			e.layer = records[i].i16()
		case recXY:
			if pairs := records[i].xyPairs(); len(pairs) > 0 {
				e.xy = pairs[:1]
			}
		case recSTRING:
			e.text = records[i].ascii
		}
		i++
	}
	if i < len(records) && records[i].recType == recENDEL {
		i++
	}
	return e, i
}

// extractUnits returns (user_units_per_db_unit, meters_per_db_unit),
// defaulting to a 1nm database unit when no UNITS record is present.
func extractUnits(records []record) (float64, float64) {
	for _, r := range records {
		if r.recType == recUNITS && len(r.float64s) >= 2 {
			return r.float64s[0], r.float64s[1]
		}
	}
	return 0.001, 1e-9
}

func extractLibname(records []record) string {
	for _, r := range records {
		if r.recType == recLIBNAME {
			return r.ascii
		}
	}
	return ""
}

// findTopStructure returns the last-defined structure not referenced by any
// SREF/AREF, falling back to the last structure overall.
func findTopStructure(structures []structure) int {
	if len(structures) == 0 {
		return -1
	}
	referenced := map[string]bool{}
	for _, s := range structures {
		for _, e := range s.elements {
			if e.isSRef || e.isARef {
				referenced[e.sname] = true
			}
		}
	}
	for i := len(structures) - 1; i >= 0; i-- {
		if !referenced[structures[i].name] {
			return i
		}
	}
	return len(structures) - 1
}
