package kicad

import "strings"

// layerClass is the routing decision for a board-level drawing or
// footprint/pad layer string: which PcbData bucket it belongs to, and
// which board side(s) it applies to.
type layerClass struct {
	isEdge   bool
	isSilk   bool
	isFab    bool
	isCopper bool
	sides    []string // "F", "B", or an inner layer key like "In1"
}

// classifyLayer maps a raw KiCad layer name ("F.Cu", "B.SilkS",
// "Edge.Cuts", "In2.Cu", "*.Cu") to the drawing bucket(s) and side(s) it
// contributes to.
func classifyLayer(name string) layerClass {
	switch {
	case name == "Edge.Cuts":
		return layerClass{isEdge: true}
	case name == "*.Cu":
		return layerClass{isCopper: true, sides: []string{"F", "B"}}
	case strings.HasSuffix(name, ".SilkS"):
		return layerClass{isSilk: true, sides: []string{sideOf(name)}}
	case strings.HasSuffix(name, ".Fab"):
		return layerClass{isFab: true, sides: []string{sideOf(name)}}
	case strings.HasSuffix(name, ".Cu"):
		prefix := strings.TrimSuffix(name, ".Cu")
		if prefix == "F" || prefix == "B" {
			return layerClass{isCopper: true, sides: []string{prefix}}
		}
		// Inner layer, e.g. "In1.Cu" -> key "In1".
		return layerClass{isCopper: true, sides: []string{prefix}}
	default:
		return layerClass{}
	}
}

func sideOf(layerName string) string {
	if strings.HasPrefix(layerName, "F.") {
		return "F"
	}
	if strings.HasPrefix(layerName, "B.") {
		return "B"
	}
	return ""
}

// expandCopperLayers resolves the layer-match patterns in a pad's `layers`
// list ("F.Cu", "*.Cu", "F.Mask", "*.Paste", ...) to the set of literal
// copper layer keys they reach, preserving the "*.Cu" -> both sides rule.
func expandCopperLayers(patterns []string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, p := range patterns {
		switch {
		case p == "*.Cu":
			add("F")
			add("B")
		case strings.HasSuffix(p, ".Cu"):
			prefix := strings.TrimSuffix(p, ".Cu")
			add(prefix)
		}
	}
	return out
}
