package sexpr

import (
	"strings"
	"testing"
)

func TestParseBasicTree(t *testing.T) {
	root, err := Parse(strings.NewReader(`(kicad_pcb (version 20211014) (generator pcbnew))`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if root.Tag() != "kicad_pcb" {
		t.Fatalf("Tag() = %q, want kicad_pcb", root.Tag())
	}

	version, ok := root.Find("version")
	if !ok {
		t.Fatal("version node not found")
	}
	v, err := version.Int(1)
	if err != nil || v != 20211014 {
		t.Fatalf("version = %v, err %v, want 20211014", v, err)
	}

	gen, ok := root.FindString("generator", 1)
	if !ok || gen != "pcbnew" {
		t.Fatalf("generator = %q, ok %v, want pcbnew", gen, ok)
	}
}

func TestParseQuotedStringWithParens(t *testing.T) {
	root, err := Parse(strings.NewReader(`(net 3 "Net-(R1-Pad1)")`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	name, err := root.String(2)
	if err != nil {
		t.Fatalf("String(2) failed: %v", err)
	}
	if name != "Net-(R1-Pad1)" {
		t.Fatalf("name = %q, want Net-(R1-Pad1)", name)
	}
}

func TestRestListsNumberedLayerEntries(t *testing.T) {
	root, err := Parse(strings.NewReader(`(layers (0 "F.Cu" signal) (31 "B.Cu" signal))`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	// layers has two direct children that are themselves lists whose Tag is
	// their first atom "0" / "31" -- FindAll matches by Tag, so look up
	// plain numbered entries via Rest() instead for this shape.
	children := root.Rest()
	if len(children) != 2 {
		t.Fatalf("layer count = %d, want 2", len(children))
	}
	first := children[0]
	if first.StringOr(1, "") != "F.Cu" {
		t.Fatalf("layer 0 name = %q, want F.Cu", first.StringOr(1, ""))
	}
}

func TestFindAllByTag(t *testing.T) {
	root, err := Parse(strings.NewReader(`(footprint (pad "1" smd rect) (pad "2" smd rect) (layer "F.Cu"))`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	pads := root.FindAll("pad")
	if len(pads) != 2 {
		t.Fatalf("pad count = %d, want 2", len(pads))
	}
	if pads[0].StringOr(1, "") != "1" || pads[1].StringOr(1, "") != "2" {
		t.Fatalf("unexpected pad numbers: %q %q", pads[0].StringOr(1, ""), pads[1].StringOr(1, ""))
	}
}

func TestHasFlag(t *testing.T) {
	root, err := Parse(strings.NewReader(`(module "foo" locked (layer "F.Cu"))`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if !root.HasFlag("locked") {
		t.Fatal("expected locked flag")
	}
	if root.HasFlag("placed") {
		t.Fatal("did not expect placed flag")
	}
}

func TestParseUnterminatedListErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(`(kicad_pcb (version 1)`))
	if err == nil {
		t.Fatal("expected error for unterminated list")
	}
}

func TestParseEmptyInputErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(``))
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestFloatAndIntCoercionErrors(t *testing.T) {
	root, err := Parse(strings.NewReader(`(width abc)`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, err := root.Float(1); err == nil {
		t.Fatal("expected Float() to fail on non-numeric atom")
	}
	if v := root.FloatOr(1, 9.5); v != 9.5 {
		t.Fatalf("FloatOr fallback = %v, want 9.5", v)
	}
}
