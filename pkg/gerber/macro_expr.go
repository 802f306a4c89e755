package gerber

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// macroExprLexer tokenizes an aperture-macro arithmetic expression
// ($1+$2x($3-1)), the same lexer.MustSimple approach pkg/bsdl uses for
// BSDL's VHDL-ish grammar.
var macroExprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Variable", Pattern: `\$[0-9]+`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Plus", Pattern: `\+`},
	{Name: "Minus", Pattern: `-`},
	{Name: "Mul", Pattern: `[xX]`},
	{Name: "Div", Pattern: `/`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
})

// exprNode/exprTerm/exprFactor mirror macro arithmetic's two precedence
// levels (+- lowest, x/ next, atoms highest). '*' can't be reused for
// multiplication since it terminates a Gerber command, hence 'x'/'X'.
type exprNode struct {
	Left *exprTerm    `@@`
	Rest []*exprAddOp `@@*`
}

type exprAddOp struct {
	Op   string    `@("+" | "-")`
	Term *exprTerm `@@`
}

type exprTerm struct {
	Left *exprFactor  `@@`
	Rest []*exprMulOp `@@*`
}

type exprMulOp struct {
	Op     string      `@("x" | "X" | "/")`
	Factor *exprFactor `@@`
}

type exprFactor struct {
	Neg      *exprFactor `  "-" @@`
	Number   *string     `| @Number`
	Variable *string     `| @Variable`
	Sub      *exprNode   `| "(" @@ ")"`
}

var macroExprParser = participle.MustBuild[exprNode](
	participle.Lexer(macroExprLexer),
	participle.Elide("Whitespace"),
)

func (n *exprNode) build() *expr {
	left := n.Left.build()
	for _, op := range n.Rest {
		right := op.Term.build()
		kind := exprAdd
		if op.Op == "-" {
			kind = exprSub
		}
		left = &expr{kind: kind, left: left, right: right}
	}
	return left
}

func (n *exprTerm) build() *expr {
	left := n.Left.build()
	for _, op := range n.Rest {
		right := op.Factor.build()
		kind := exprMul
		if op.Op == "/" {
			kind = exprDiv
		}
		left = &expr{kind: kind, left: left, right: right}
	}
	return left
}

func (n *exprFactor) build() *expr {
	switch {
	case n.Neg != nil:
		return &expr{kind: exprSub, left: &expr{kind: exprLiteral}, right: n.Neg.build()}
	case n.Number != nil:
		v, _ := strconv.ParseFloat(*n.Number, 64)
		return &expr{kind: exprLiteral, literal: v}
	case n.Variable != nil:
		v, _ := strconv.Atoi((*n.Variable)[1:])
		return &expr{kind: exprVariable, variable: v}
	case n.Sub != nil:
		return n.Sub.build()
	default:
		return &expr{kind: exprLiteral}
	}
}

// parseExpr parses one aperture-macro expression field. A malformed
// expression (never seen in a well-formed macro body) degrades to a zero
// literal rather than failing the whole macro.
func parseExpr(s string) *expr {
	n, err := macroExprParser.ParseString("", s)
	if err != nil || n == nil {
		return &expr{kind: exprLiteral}
	}
	return n.build()
}
