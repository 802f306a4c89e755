package gerber

import (
	"strconv"
	"strings"
)

type exprKind int

const (
	exprLiteral exprKind = iota
	exprVariable
	exprAdd
	exprSub
	exprMul
	exprDiv
)

// expr is an aperture-macro arithmetic expression tree: a literal, a
// $-numbered variable, or a binary operator over two sub-expressions.
type expr struct {
	kind     exprKind
	literal  float64
	variable int
	left     *expr
	right    *expr
}

// eval resolves a macro expression against a flash's parameter list.
// Variable(0) and out-of-range variables default to 0, and division by a
// near-zero denominator returns 0 rather than +/-Inf.
func (e *expr) eval(params []float64) float64 {
	if e == nil {
		return 0
	}
	switch e.kind {
	case exprLiteral:
		return e.literal
	case exprVariable:
		idx := e.variable - 1
		if idx < 0 || idx >= len(params) {
			return 0
		}
		return params[idx]
	case exprAdd:
		return e.left.eval(params) + e.right.eval(params)
	case exprSub:
		return e.left.eval(params) - e.right.eval(params)
	case exprMul:
		return e.left.eval(params) * e.right.eval(params)
	case exprDiv:
		r := e.right.eval(params)
		if r > -1e-15 && r < 1e-15 {
			return 0
		}
		return e.left.eval(params) / r
	default:
		return 0
	}
}

type macroPrimitiveKind int

const (
	primComment macroPrimitiveKind = iota
	primCircle
	primVectorLine
	primCenterLine
	primOutline
	primPolygon
	primThermal
)

// macroPrimitive is a flattened sum of every aperture-macro primitive
// shape (comment excluded); only the fields relevant to kind carry
// expressions.
type macroPrimitive struct {
	kind macroPrimitiveKind

	exposure *expr

	diameter *expr // Circle, Polygon
	centerX  *expr
	centerY  *expr
	rotation *expr // optional for Circle

	width   *expr // VectorLine, CenterLine
	startX  *expr // VectorLine
	startY  *expr
	endX    *expr
	endY    *expr
	height  *expr // CenterLine

	numPoints int     // Outline
	points    []*expr // Outline: (x0,y0)..(xn,yn)

	numVertices *expr // Polygon

	outerDiameter *expr // Thermal
	innerDiameter *expr
	gapThickness  *expr
}

// apertureMacro is one AM-defined macro: its name and primitive list.
type apertureMacro struct {
	name       string
	primitives []macroPrimitive
}

type macroTable struct {
	macros map[string]apertureMacro
}

func newMacroTable() *macroTable {
	return &macroTable{macros: make(map[string]apertureMacro)}
}

func (t *macroTable) define(m apertureMacro) { t.macros[m.name] = m }

func (t *macroTable) get(name string) (apertureMacro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// parseMacroBody turns the raw body lines captured by parseCommands into
// an ApertureMacro's primitive list. A comment line is "0" or starts with
// "0 "; every other line is "<code>,<expr>,<expr>,...". An unknown
// primitive code is skipped rather than failing the whole macro.
func parseMacroBody(name string, lines []string) apertureMacro {
	mac := apertureMacro{name: name}
	for _, line := range lines {
		if line == "0" || strings.HasPrefix(line, "0 ") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) == 0 {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		exprs := make([]*expr, 0, len(fields)-1)
		for _, f := range fields[1:] {
			exprs = append(exprs, parseExpr(f))
		}

		switch code {
		case 1:
			if len(exprs) < 4 {
				continue
			}
			p := macroPrimitive{kind: primCircle, exposure: exprs[0], diameter: exprs[1], centerX: exprs[2], centerY: exprs[3]}
			if len(exprs) > 4 {
				p.rotation = exprs[4]
			}
			mac.primitives = append(mac.primitives, p)
		case 2, 20:
			if len(exprs) < 7 {
				continue
			}
			mac.primitives = append(mac.primitives, macroPrimitive{
				kind: primVectorLine, exposure: exprs[0], width: exprs[1],
				startX: exprs[2], startY: exprs[3], endX: exprs[4], endY: exprs[5], rotation: exprs[6],
			})
		case 21:
			if len(exprs) < 6 {
				continue
			}
			mac.primitives = append(mac.primitives, macroPrimitive{
				kind: primCenterLine, exposure: exprs[0], width: exprs[1], height: exprs[2],
				centerX: exprs[3], centerY: exprs[4], rotation: exprs[5],
			})
		case 4:
			if len(exprs) < 2 {
				continue
			}
			n, _ := strconv.Atoi(strings.TrimSpace(fields[2]))
			p := macroPrimitive{kind: primOutline, exposure: exprs[0], numPoints: n, points: exprs[2:]}
			mac.primitives = append(mac.primitives, p)
		case 5:
			if len(exprs) < 6 {
				continue
			}
			mac.primitives = append(mac.primitives, macroPrimitive{
				kind: primPolygon, exposure: exprs[0], numVertices: exprs[1],
				centerX: exprs[2], centerY: exprs[3], diameter: exprs[4], rotation: exprs[5],
			})
		case 7:
			if len(exprs) < 6 {
				continue
			}
			mac.primitives = append(mac.primitives, macroPrimitive{
				kind: primThermal, centerX: exprs[0], centerY: exprs[1],
				outerDiameter: exprs[2], innerDiameter: exprs[3], gapThickness: exprs[4], rotation: exprs[5],
			})
		default:
			continue
		}
	}
	return mac
}

func rotatePoint(x, y, angleDeg float64) (float64, float64) {
	if angleDeg > -1e-9 && angleDeg < 1e-9 {
		return x, y
	}
	return rotatePointRad(x, y, angleDeg*degToRad)
}
