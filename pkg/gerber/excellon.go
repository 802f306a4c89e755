package gerber

import (
	"strconv"
	"strings"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

type excellonUnits int

const (
	excellonMetric excellonUnits = iota
	excellonInches
)

// coordFormat is Excellon's own integer/decimal digit split (distinct from
// Gerber's per-axis coordinateFormat — Excellon shares one format across
// X and Y).
type coordFormat struct {
	integer, decimal int
}

func defaultCoordFormat() coordFormat { return coordFormat{integer: 3, decimal: 3} }

type toolDef struct {
	diameterMM float64
}

// parseExcellon decodes an NC drill file into flash-circle drawings, one
// per hit, sized by the currently selected tool's diameter. Returns nil,
// false if content carries no "M48" header marker anywhere — the cheapest
// signal that this isn't an Excellon file at all.
func parseExcellon(content string) ([]pcbmodel.Drawing, bool) {
	if !strings.Contains(content, "M48") {
		return nil, false
	}

	units := excellonMetric
	format := defaultCoordFormat()
	tools := map[int]toolDef{}
	currentTool := -1
	inHeader := false
	var drawings []pcbmodel.Drawing

	lines := strings.Split(content, "\n")
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		switch {
		case line == "M48":
			inHeader = true
			continue
		case line == "%" || line == "M95":
			inHeader = false
			continue
		case line == "M30" || line == "M00":
			return drawings, true
		}

		if inHeader {
			parseExcellonHeaderLine(line, &units, &format, tools)
			continue
		}
		tool, x, y, ok := parseExcellonBodyLine(line, units, format)
		if !ok {
			continue
		}
		if tool >= 0 {
			currentTool = tool
		}
		if !(strings.HasPrefix(line, "X") || strings.HasPrefix(line, "Y")) {
			continue
		}
		t, ok := tools[currentTool]
		if !ok {
			continue
		}
		drawings = append(drawings, pcbmodel.NewFilledCircle(pcbmodel.Point{X: x, Y: y}, t.diameterMM/2, true))
	}
	return drawings, true
}

func parseExcellonHeaderLine(line string, units *excellonUnits, format *coordFormat, tools map[int]toolDef) {
	switch {
	case strings.HasPrefix(line, "METRIC") || strings.HasPrefix(line, "M71"):
		*units = excellonMetric
		parseExcellonFormatOptions(line, format)
	case strings.HasPrefix(line, "INCH") || strings.HasPrefix(line, "M72"):
		*units = excellonInches
		parseExcellonFormatOptions(line, format)
	case len(line) > 0 && line[0] == 'T':
		parseToolDef(line, *units, tools)
	}
}

// parseExcellonFormatOptions looks for an explicit "000.000"-style
// dot-template, which directly gives the integer/decimal split; TZ/LZ
// flags are otherwise noted but not separately acted on (see
// parseCoordValue's comment on why both modes pad identically).
func parseExcellonFormatOptions(line string, format *coordFormat) {
	dot := strings.IndexByte(line, '.')
	if dot < 0 {
		return
	}
	start := dot
	for start > 0 && (isDigit(line[start-1]) || line[start-1] == '0') {
		start--
	}
	end := dot + 1
	for end < len(line) && isDigit(line[end]) {
		end++
	}
	intPart := line[start:dot]
	decPart := line[dot+1 : end]
	if intPart != "" && decPart != "" {
		format.integer = len(intPart)
		format.decimal = len(decPart)
	}
}

func parseToolDef(line string, units excellonUnits, tools map[int]toolDef) {
	if len(line) < 2 {
		return
	}
	i := 1
	start := i
	for i < len(line) && isDigit(line[i]) {
		i++
	}
	if i == start {
		return
	}
	num, _ := strconv.Atoi(line[start:i])
	cIdx := strings.IndexByte(line[i:], 'C')
	if cIdx < 0 {
		return
	}
	cIdx += i
	j := cIdx + 1
	start = j
	for j < len(line) && (isDigit(line[j]) || line[j] == '.') {
		j++
	}
	diam, err := strconv.ParseFloat(line[start:j], 64)
	if err != nil {
		return
	}
	if units == excellonInches {
		diam *= 25.4
	}
	tools[num] = toolDef{diameterMM: diam}
}

// parseExcellonBodyLine handles both a bare "T<n>" tool-select and an
// "X...Y..." coordinate line. Returns tool=-1 when the line carries no
// tool selection.
func parseExcellonBodyLine(line string, units excellonUnits, format coordFormat) (tool int, x, y float64, ok bool) {
	tool = -1
	if len(line) > 0 && line[0] == 'T' && !strings.ContainsAny(line, "XY") {
		i := 1
		start := i
		for i < len(line) && isDigit(line[i]) {
			i++
		}
		if i == start {
			return -1, 0, 0, false
		}
		num, _ := strconv.Atoi(line[start:i])
		return num, 0, 0, true
	}
	if !strings.ContainsAny(line, "XY") {
		return -1, 0, 0, false
	}
	xIdx := strings.IndexByte(line, 'X')
	yIdx := strings.IndexByte(line, 'Y')
	if xIdx >= 0 {
		end := findNextLetter(line, xIdx+1)
		x = parseExcellonCoordValue(line[xIdx+1:end], units, format)
	}
	if yIdx >= 0 {
		end := findNextLetter(line, yIdx+1)
		y = parseExcellonCoordValue(line[yIdx+1:end], units, format)
	}
	return -1, x, y, true
}

func findNextLetter(s string, from int) int {
	for i := from; i < len(s); i++ {
		if (s[i] >= 'A' && s[i] <= 'Z') && s[i] != '+' && s[i] != '-' {
			return i
		}
	}
	return len(s)
}

// parseExcellonCoordValue parses one axis token. A token with an explicit
// decimal point is trusted as-is; an implicit-decimal token has its digits
// left-padded to integer+decimal width regardless of the file's declared
// zero-suppression mode — matching the spec's documented decision that
// real-world tool output is always right-aligned against the decimal
// point, TZ/LZ headers notwithstanding.
func parseExcellonCoordValue(tok string, u excellonUnits, format coordFormat) float64 {
	if tok == "" {
		return 0
	}
	neg := false
	s := tok
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	var v float64
	if strings.Contains(s, ".") {
		v, _ = strconv.ParseFloat(s, 64)
	} else {
		total := format.integer + format.decimal
		for len(s) < total {
			s = "0" + s
		}
		digits, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		v = digits / pow10(format.decimal)
	}
	if neg {
		v = -v
	}
	if u == excellonInches {
		v *= 25.4
	}
	return v
}

func pow10(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
