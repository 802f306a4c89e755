package gerber

import (
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdFormatSpec commandKind = iota
	cmdUnits
	cmdApertureDefine
	cmdSelectAperture
	cmdInterpolate
	cmdMove
	cmdFlash
	cmdLinearMode
	cmdClockwiseArcMode
	cmdCounterClockwiseArcMode
	cmdRegionBegin
	cmdRegionEnd
	cmdSingleQuadrant
	cmdMultiQuadrant
	cmdPolarity
	cmdFileFunction
	cmdMacroDefine
	cmdStepRepeat
	cmdImageMirror
	cmdImageScale
	cmdEndOfFile
)

type polarity int

const (
	polarityDark polarity = iota
	polarityClear
)

// boardSide covers Top/Bottom for silkscreen/soldermask/paste layers and
// also Inner for a copper layer's X2 FileFunction attribute.
type boardSide int

const (
	sideTop boardSide = iota
	sideBottom
	sideInner
)

type fileFunctionKind int

const (
	ffCopper fileFunctionKind = iota
	ffLegend
	ffSolderMask
	ffPaste
	ffProfile
	ffOther
)

type fileFunction struct {
	kind     fileFunctionKind
	layerNum int
	side     boardSide
	other    string
}

type stepRepeatFields struct {
	xRepeat, yRepeat int
	xStep, yStep     float64
}

// command is a flattened sum of every Gerber command kind this pipeline
// acts on; only the fields relevant to kind are populated.
type command struct {
	kind commandKind

	format coordinateFormat // cmdFormatSpec
	units  units             // cmdUnits

	apertureCode     uint32           // cmdApertureDefine
	apertureTemplate apertureTemplate // cmdApertureDefine

	selectCode uint32 // cmdSelectAperture

	hasX, hasY, hasI, hasJ bool // cmdInterpolate, cmdMove, cmdFlash
	x, y, i, j              int64

	polarity polarity // cmdPolarity

	fileFunction fileFunction // cmdFileFunction

	macroName string   // cmdMacroDefine
	macroBody []string // cmdMacroDefine

	stepRepeat stepRepeatFields // cmdStepRepeat

	mirrorA, mirrorB bool    // cmdImageMirror
	scaleA, scaleB   float64 // cmdImageScale
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseCommands drives macro-body accumulation across tokens (a macro body
// line starts with a digit or '$') and dispatches everything else to
// parseExtended/parseWord by token kind.
func parseCommands(tokens []token) []command {
	var cmds []command
	i := 0
	for i < len(tokens) {
		t := tokens[i]
		if t.kind == tokenExtended && strings.HasPrefix(t.content, "AM") {
			name := strings.TrimSpace(t.content[2:])
			i++
			var body []string
			for i < len(tokens) {
				c := tokens[i].content
				if len(c) > 0 && (isDigit(c[0]) || c[0] == '$') {
					body = append(body, c)
					i++
					continue
				}
				break
			}
			cmds = append(cmds, command{kind: cmdMacroDefine, macroName: name, macroBody: body})
			continue
		}
		switch t.kind {
		case tokenExtended:
			if c, ok := parseExtended(t.content); ok {
				cmds = append(cmds, c)
			}
		case tokenWord:
			c, ok := parseWord(t.content)
			if ok {
				cmds = append(cmds, c)
			}
			// parseWord returns a recognized leading G-code on its own; the
			// rest of the word (coordinates and D-code) is a second command.
			if ok && c.kind >= cmdLinearMode && c.kind <= cmdMultiQuadrant {
				j := 1
				for j < len(t.content) && isDigit(t.content[j]) {
					j++
				}
				if rest, ok := parseWord(t.content[j:]); ok {
					cmds = append(cmds, rest)
				}
			}
		}
		i++
	}
	return cmds
}

func parseExtended(content string) (command, bool) {
	switch {
	case strings.HasPrefix(content, "FS"):
		return command{kind: cmdFormatSpec, format: parseFormatSpec(content)}, true
	case strings.HasPrefix(content, "MOMM"):
		return command{kind: cmdUnits, units: unitsMillimeters}, true
	case strings.HasPrefix(content, "MOIN"):
		return command{kind: cmdUnits, units: unitsInches}, true
	case strings.HasPrefix(content, "AD"):
		code, tmpl, ok := parseApertureDefine(content)
		if !ok {
			return command{}, false
		}
		return command{kind: cmdApertureDefine, apertureCode: code, apertureTemplate: tmpl}, true
	case strings.HasPrefix(content, "LPD"):
		return command{kind: cmdPolarity, polarity: polarityDark}, true
	case strings.HasPrefix(content, "LPC"):
		return command{kind: cmdPolarity, polarity: polarityClear}, true
	case strings.HasPrefix(content, "TF.FileFunction,"):
		ff := parseFileFunction(strings.TrimPrefix(content, "TF.FileFunction,"))
		return command{kind: cmdFileFunction, fileFunction: ff}, true
	case strings.HasPrefix(content, "SR"):
		return command{kind: cmdStepRepeat, stepRepeat: parseStepRepeat(content)}, true
	case strings.HasPrefix(content, "MI"):
		a, b := parseImageMirror(content)
		return command{kind: cmdImageMirror, mirrorA: a, mirrorB: b}, true
	case strings.HasPrefix(content, "SF"):
		a, b := parseImageScale(content)
		return command{kind: cmdImageScale, scaleA: a, scaleB: b}, true
	default:
		return command{}, false
	}
}

// parseFormatSpec reads an FS command's X/Y digit counts. The leading
// zero-suppression/notation flags (L/T/A/I) are stripped and ignored: this
// pipeline always right-aligns raw coordinate digits against the decimal
// point, the same "observed tool output over strict semantics" convention
// used for Excellon zero suppression.
func parseFormatSpec(content string) coordinateFormat {
	s := strings.TrimPrefix(content, "FS")
	var b strings.Builder
	for _, r := range s {
		switch r {
		case 'L', 'T', 'A', 'I':
			continue
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	format := defaultCoordinateFormat()
	xIdx := strings.IndexByte(s, 'X')
	yIdx := strings.IndexByte(s, 'Y')
	if xIdx < 0 || yIdx < 0 || yIdx <= xIdx {
		return format
	}
	xPart := s[xIdx+1 : yIdx]
	yPart := s[yIdx+1:]
	if len(xPart) >= 2 {
		format.xInteger = atoiOr(xPart[:len(xPart)-1], format.xInteger)
		format.xDecimal = atoiOr(xPart[len(xPart)-1:], format.xDecimal)
	}
	if len(yPart) >= 2 {
		format.yInteger = atoiOr(yPart[:len(yPart)-1], format.yInteger)
		format.yDecimal = atoiOr(yPart[len(yPart)-1:], format.yDecimal)
	}
	return format
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// parseApertureDefine reads "AD" + "D<code>" + template body.
func parseApertureDefine(content string) (uint32, apertureTemplate, bool) {
	s := strings.TrimPrefix(content, "AD")
	if len(s) == 0 || s[0] != 'D' {
		return 0, apertureTemplate{}, false
	}
	s = s[1:]
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return 0, apertureTemplate{}, false
	}
	code, _ := strconv.ParseUint(s[:i], 10, 32)
	tmpl, ok := parseApertureTemplate(s[i:])
	if !ok {
		return 0, apertureTemplate{}, false
	}
	return uint32(code), tmpl, true
}

func parseApertureTemplate(body string) (apertureTemplate, bool) {
	if body == "" {
		return apertureTemplate{}, false
	}
	typePart := body
	var paramsStr string
	if idx := strings.IndexByte(body, ','); idx >= 0 {
		typePart = body[:idx]
		paramsStr = body[idx+1:]
	}

	var params []float64
	if paramsStr != "" {
		for _, p := range strings.Split(paramsStr, "X") {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err == nil {
				params = append(params, v)
			}
		}
	}

	switch typePart {
	case "C":
		if len(params) < 1 {
			return apertureTemplate{}, false
		}
		return apertureTemplate{kind: templateCircle, diameter: params[0]}, true
	case "R":
		if len(params) < 2 {
			return apertureTemplate{}, false
		}
		return apertureTemplate{kind: templateRectangle, xSize: params[0], ySize: params[1]}, true
	case "O":
		if len(params) < 2 {
			return apertureTemplate{}, false
		}
		return apertureTemplate{kind: templateObround, xSize: params[0], ySize: params[1]}, true
	case "P":
		if len(params) < 2 {
			return apertureTemplate{}, false
		}
		tmpl := apertureTemplate{kind: templatePolygon, diameter: params[0], numVertices: int(params[1])}
		if len(params) >= 3 {
			tmpl.rotation = params[2]
		}
		return tmpl, true
	default:
		return apertureTemplate{kind: templateMacro, macroName: typePart, macroParams: params}, true
	}
}

func parseFileFunction(rest string) fileFunction {
	parts := strings.Split(rest, ",")
	if len(parts) == 0 {
		return fileFunction{kind: ffOther, other: rest}
	}
	switch parts[0] {
	case "Copper":
		ff := fileFunction{kind: ffCopper}
		for _, p := range parts[1:] {
			if strings.HasPrefix(p, "L") {
				ff.layerNum, _ = strconv.Atoi(strings.TrimPrefix(p, "L"))
			} else {
				ff.side = parseBoardSide(p)
			}
		}
		return ff
	case "Legend":
		return fileFunction{kind: ffLegend, side: fileFunctionSide(parts)}
	case "Soldermask":
		return fileFunction{kind: ffSolderMask, side: fileFunctionSide(parts)}
	case "Paste":
		return fileFunction{kind: ffPaste, side: fileFunctionSide(parts)}
	case "Profile":
		return fileFunction{kind: ffProfile}
	default:
		return fileFunction{kind: ffOther, other: rest}
	}
}

func fileFunctionSide(parts []string) boardSide {
	if len(parts) < 2 {
		return sideTop
	}
	return parseBoardSide(parts[1])
}

func parseBoardSide(s string) boardSide {
	switch {
	case strings.HasPrefix(s, "Top"):
		return sideTop
	case strings.HasPrefix(s, "Bot"):
		return sideBottom
	case strings.HasPrefix(s, "In"):
		return sideInner
	default:
		return sideTop
	}
}

// parseStepRepeat reads "SRX<n>Y<n>I<f>J<f>". A bare "SR" resets to 1/1/0/0.
func parseStepRepeat(content string) stepRepeatFields {
	s := strings.TrimPrefix(content, "SR")
	sr := stepRepeatFields{xRepeat: 1, yRepeat: 1}
	if v, ok := parseSRUint(s, 'X'); ok {
		sr.xRepeat = v
	}
	if v, ok := parseSRUint(s, 'Y'); ok {
		sr.yRepeat = v
	}
	if v, ok := parseSRFloat(s, 'I'); ok {
		sr.xStep = v
	}
	if v, ok := parseSRFloat(s, 'J'); ok {
		sr.yStep = v
	}
	return sr
}

func parseSRUint(s string, key byte) (int, bool) {
	idx := strings.IndexByte(s, key)
	if idx < 0 {
		return 0, false
	}
	start := idx + 1
	i := start
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	v, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseSRFloat(s string, key byte) (float64, bool) {
	idx := strings.IndexByte(s, key)
	if idx < 0 {
		return 0, false
	}
	start := idx + 1
	i := start
	for i < len(s) && (isDigit(s[i]) || s[i] == '.' || s[i] == '-' || s[i] == '+') {
		i++
	}
	if i == start {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseImageMirror(content string) (bool, bool) {
	s := strings.TrimPrefix(content, "MI")
	a, _ := parseSRUint(s, 'A')
	b, _ := parseSRUint(s, 'B')
	return a != 0, b != 0
}

func parseImageScale(content string) (float64, float64) {
	s := strings.TrimPrefix(content, "SF")
	a, ok := parseSRFloat(s, 'A')
	if !ok {
		a = 1.0
	}
	b, ok := parseSRFloat(s, 'B')
	if !ok {
		b = 1.0
	}
	return a, b
}

// parseWord handles a bare word command: an optional leading G-code, an
// M-code (M00/M02 end the file), then X/Y/I/J coordinate fields and a
// trailing D-code. A recognized G-code is returned on its own, and
// parseCommands parses the rest of the word as a second command; an
// unrecognized G-code is skipped. A D-code persists from the previous command per the
// Gerber spec, so X/Y with no D-code at all still means "interpolate".
func parseWord(content string) (command, bool) {
	s := content
	if len(s) > 0 && s[0] == 'G' {
		i := 1
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i > start {
			code, _ := strconv.Atoi(s[start:i])
			if kind, ok := parseGCode(code); ok {
				return command{kind: kind}, true
			}
			s = s[i:]
		}
	}
	if strings.HasPrefix(s, "M02") || strings.HasPrefix(s, "M00") {
		return command{kind: cmdEndOfFile}, true
	}

	var hasX, hasY, hasI, hasJ bool
	var x, y, iv, jv int64
	pos := 0
	for pos < len(s) {
		switch s[pos] {
		case 'X':
			pos++
			x, pos = scanSignedInt(s, pos)
			hasX = true
		case 'Y':
			pos++
			y, pos = scanSignedInt(s, pos)
			hasY = true
		case 'I':
			pos++
			iv, pos = scanSignedInt(s, pos)
			hasI = true
		case 'J':
			pos++
			jv, pos = scanSignedInt(s, pos)
			hasJ = true
		case 'D':
			pos++
			start := pos
			for pos < len(s) && isDigit(s[pos]) {
				pos++
			}
			dcode, _ := strconv.Atoi(s[start:pos])
			cmd := command{hasX: hasX, hasY: hasY, hasI: hasI, hasJ: hasJ, x: x, y: y, i: iv, j: jv}
			switch {
			case dcode == 1:
				cmd.kind = cmdInterpolate
			case dcode == 2:
				cmd.kind = cmdMove
			case dcode == 3:
				cmd.kind = cmdFlash
			case dcode >= 10:
				cmd.kind = cmdSelectAperture
				cmd.selectCode = uint32(dcode)
			default:
				return command{}, false
			}
			return cmd, true
		default:
			pos++
		}
	}
	if hasX || hasY {
		return command{kind: cmdInterpolate, hasX: hasX, hasY: hasY, hasI: hasI, hasJ: hasJ, x: x, y: y, i: iv, j: jv}, true
	}
	return command{}, false
}

func scanSignedInt(s string, pos int) (int64, int) {
	start := pos
	if pos < len(s) && (s[pos] == '+' || s[pos] == '-') {
		pos++
	}
	for pos < len(s) && isDigit(s[pos]) {
		pos++
	}
	v, _ := strconv.ParseInt(s[start:pos], 10, 64)
	return v, pos
}

func parseGCode(code int) (commandKind, bool) {
	switch code {
	case 1:
		return cmdLinearMode, true
	case 2:
		return cmdClockwiseArcMode, true
	case 3:
		return cmdCounterClockwiseArcMode, true
	case 36:
		return cmdRegionBegin, true
	case 37:
		return cmdRegionEnd, true
	case 74:
		return cmdSingleQuadrant, true
	case 75:
		return cmdMultiQuadrant, true
	default:
		return 0, false
	}
}
