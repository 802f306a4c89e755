package altium

import "strings"

// layerCategory classifies a V6 layer id for drawing/track routing.
type layerCategory int

const (
	layerOther layerCategory = iota
	layerCopperF
	layerCopperB
	layerCopperInner
	layerSilkF
	layerSilkB
	layerFabF
	layerFabB
)

// layerMap resolves V6 stock layer ids (spec §4.F step 7), falling back to
// Board6's per-layer LAYERV7_iMECHKIND text for the mechanical layer range
// (57-72).
type layerMap struct {
	mechKinds map[uint8]string
}

func buildLayerMap(boardRecords []textRecord) layerMap {
	mechKinds := map[uint8]string{}
	if len(boardRecords) > 0 {
		board := boardRecords[0]
		for i := 1; i <= 32; i++ {
			key := "LAYERV7_" + itoa(i) + "MECHKIND"
			if kind, ok := board[key]; ok {
				// Mechanical layers start at V6 id 57.
				mechKinds[uint8(56+i)] = kind
			}
		}
	}
	return layerMap{mechKinds: mechKinds}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits [3]byte
	n := len(digits)
	for i > 0 {
		n--
		digits[n] = byte('0' + i%10)
		i /= 10
	}
	return string(digits[n:])
}

func (m layerMap) category(id uint8) layerCategory {
	switch {
	case id == 1:
		return layerCopperF
	case id >= 2 && id <= 30:
		return layerCopperInner
	case id == 32:
		return layerCopperB
	case id == 33:
		return layerSilkF
	case id == 34:
		return layerSilkB
	case id == 74:
		return layerCopperF // multi-layer, treated as front
	case id >= 57 && id <= 72:
		switch strings.ToUpper(m.mechKinds[id]) {
		case "ASSEMBLY_TOP", "COURTYARD_TOP":
			return layerFabF
		case "ASSEMBLY_BOTTOM", "COURTYARD_BOTTOM":
			return layerFabB
		default:
			return layerOther
		}
	default:
		return layerOther
	}
}

func (m layerMap) side(id uint8) string {
	switch m.category(id) {
	case layerCopperB, layerSilkB, layerFabB:
		return "B"
	default:
		return "F"
	}
}

// innerLayerName returns the InN key for an inner copper layer id (2-30),
// matching pcbmodel.LayerData's InN convention (spec §3).
func innerLayerName(id uint8) string {
	return "In" + itoa(int(id)-1)
}
