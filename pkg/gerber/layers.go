package gerber

import (
	"strconv"
	"strings"
)

type gerberLayerType int

const (
	layerCopperTop gerberLayerType = iota
	layerCopperBottom
	layerCopperInner
	layerSilkscreenTop
	layerSilkscreenBottom
	layerSolderMaskTop
	layerSolderMaskBottom
	layerBoardOutline
	layerDrills
	layerUnknown
)

// gerberLayer pairs a layer-role tag with its inner-copper name, when
// applicable.
type gerberLayer struct {
	kind      gerberLayerType
	innerName string
}

// identifyFromX2 maps an X2 TF.FileFunction attribute directly to a layer
// role — authoritative over filename-based guessing when present.
func identifyFromX2(ff fileFunction) gerberLayer {
	switch ff.kind {
	case ffCopper:
		switch ff.side {
		case sideTop:
			return gerberLayer{kind: layerCopperTop}
		case sideBottom:
			return gerberLayer{kind: layerCopperBottom}
		default:
			return gerberLayer{kind: layerCopperInner, innerName: "In" + strconv.Itoa(ff.layerNum)}
		}
	case ffLegend:
		if ff.side == sideBottom {
			return gerberLayer{kind: layerSilkscreenBottom}
		}
		return gerberLayer{kind: layerSilkscreenTop}
	case ffSolderMask:
		if ff.side == sideBottom {
			return gerberLayer{kind: layerSolderMaskBottom}
		}
		return gerberLayer{kind: layerSolderMaskTop}
	case ffProfile:
		return gerberLayer{kind: layerBoardOutline}
	default:
		return gerberLayer{kind: layerUnknown}
	}
}

// identifyFromFilename guesses a layer role from extension and substring
// conventions used by Altium/Protel, Eagle, KiCad, and EasyEDA exporters,
// falling back to generic top/bottom + copper/silk/mask/outline substrings.
func identifyFromFilename(filename string) gerberLayer {
	name := filename
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)

	if l, ok := identifyByExtension(name); ok {
		return l
	}
	if l, ok := identifyKiCad(name); ok {
		return l
	}
	if l, ok := identifyEasyEDA(name); ok {
		return l
	}
	return identifyGeneric(name)
}

func identifyByExtension(name string) (gerberLayer, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return gerberLayer{}, false
	}
	ext := name[dot+1:]
	switch ext {
	case "gtl":
		return gerberLayer{kind: layerCopperTop}, true
	case "gbl":
		return gerberLayer{kind: layerCopperBottom}, true
	case "gto":
		return gerberLayer{kind: layerSilkscreenTop}, true
	case "gbo":
		return gerberLayer{kind: layerSilkscreenBottom}, true
	case "gts":
		return gerberLayer{kind: layerSolderMaskTop}, true
	case "gbs":
		return gerberLayer{kind: layerSolderMaskBottom}, true
	case "gko", "gm1":
		return gerberLayer{kind: layerBoardOutline}, true
	case "cmp":
		return gerberLayer{kind: layerCopperTop}, true
	case "sol":
		return gerberLayer{kind: layerCopperBottom}, true
	case "plc":
		return gerberLayer{kind: layerSilkscreenTop}, true
	case "pls":
		return gerberLayer{kind: layerSilkscreenBottom}, true
	case "stc":
		return gerberLayer{kind: layerSolderMaskTop}, true
	case "sts":
		return gerberLayer{kind: layerSolderMaskBottom}, true
	case "dim":
		return gerberLayer{kind: layerBoardOutline}, true
	}
	if len(ext) == 2 && ext[0] == 'g' && ext[1] >= '1' && ext[1] <= '8' {
		return gerberLayer{kind: layerCopperInner, innerName: "In" + string(ext[1])}, true
	}
	return gerberLayer{}, false
}

func identifyKiCad(name string) (gerberLayer, bool) {
	switch {
	case strings.Contains(name, "f_cu") || strings.Contains(name, "f.cu") || strings.Contains(name, "front_cu"):
		return gerberLayer{kind: layerCopperTop}, true
	case strings.Contains(name, "b_cu") || strings.Contains(name, "b.cu") || strings.Contains(name, "back_cu"):
		return gerberLayer{kind: layerCopperBottom}, true
	}
	if inner, ok := extractKiCadInner(name); ok {
		return gerberLayer{kind: layerCopperInner, innerName: inner}, true
	}
	switch {
	case strings.Contains(name, "f_silks") || strings.Contains(name, "f_silkscreen") || strings.Contains(name, "front_silk"):
		return gerberLayer{kind: layerSilkscreenTop}, true
	case strings.Contains(name, "b_silks") || strings.Contains(name, "b_silkscreen") || strings.Contains(name, "back_silk"):
		return gerberLayer{kind: layerSilkscreenBottom}, true
	case strings.Contains(name, "f_mask") || strings.Contains(name, "front_mask"):
		return gerberLayer{kind: layerSolderMaskTop}, true
	case strings.Contains(name, "b_mask") || strings.Contains(name, "back_mask"):
		return gerberLayer{kind: layerSolderMaskBottom}, true
	case strings.Contains(name, "edge_cuts") || strings.Contains(name, "edge.cuts") || strings.Contains(name, "boardoutline"):
		return gerberLayer{kind: layerBoardOutline}, true
	}
	return gerberLayer{}, false
}

// extractKiCadInner finds a "_cu"/".cu" suffix and backtracks to an
// "in<N>" token immediately preceding it (e.g. "board-In2.Cu.gbr").
func extractKiCadInner(name string) (string, bool) {
	idx := strings.Index(name, "_cu")
	if idx < 0 {
		idx = strings.Index(name, ".cu")
	}
	if idx < 0 {
		return "", false
	}
	prefix := name[:idx]
	sep := strings.LastIndexAny(prefix, "_.-")
	token := prefix
	if sep >= 0 {
		token = prefix[sep+1:]
	}
	if !strings.HasPrefix(token, "in") || len(token) <= 2 {
		return "", false
	}
	n := token[2:]
	for _, r := range n {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return "In" + n, true
}

func identifyEasyEDA(name string) (gerberLayer, bool) {
	switch {
	case strings.Contains(name, "toplayer"):
		return gerberLayer{kind: layerCopperTop}, true
	case strings.Contains(name, "bottomlayer"):
		return gerberLayer{kind: layerCopperBottom}, true
	case strings.Contains(name, "topsilk"):
		return gerberLayer{kind: layerSilkscreenTop}, true
	case strings.Contains(name, "bottomsilk"):
		return gerberLayer{kind: layerSilkscreenBottom}, true
	case strings.Contains(name, "topsoldermask"):
		return gerberLayer{kind: layerSolderMaskTop}, true
	case strings.Contains(name, "bottomsoldermask"):
		return gerberLayer{kind: layerSolderMaskBottom}, true
	}
	return gerberLayer{}, false
}

func identifyGeneric(name string) gerberLayer {
	isTop := strings.Contains(name, "top") || strings.Contains(name, "front")
	isBottom := strings.Contains(name, "bottom") || strings.Contains(name, "back")
	hasCopper := strings.Contains(name, "copper")
	hasSilk := strings.Contains(name, "silkscreen") || strings.Contains(name, "silk")
	hasMask := (strings.Contains(name, "soldermask") || strings.Contains(name, "solder")) && strings.Contains(name, "mask")
	hasOutline := strings.Contains(name, "outline") || strings.Contains(name, "profile")

	switch {
	case hasOutline:
		return gerberLayer{kind: layerBoardOutline}
	case hasCopper && isTop:
		return gerberLayer{kind: layerCopperTop}
	case hasCopper && isBottom:
		return gerberLayer{kind: layerCopperBottom}
	case hasSilk && isTop:
		return gerberLayer{kind: layerSilkscreenTop}
	case hasSilk && isBottom:
		return gerberLayer{kind: layerSilkscreenBottom}
	case hasMask && isTop:
		return gerberLayer{kind: layerSolderMaskTop}
	case hasMask && isBottom:
		return gerberLayer{kind: layerSolderMaskBottom}
	default:
		return gerberLayer{kind: layerUnknown}
	}
}
