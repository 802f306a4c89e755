// Package extract is the top-level dispatcher (spec §4.J): it detects a
// board file's format from its extension and routes the bytes to the
// matching vendor parser, threading pcbmodel.ExtractOptions through
// unchanged. Parsers never call each other; this is their only common
// caller inside the module (cmd/pcbextract is the dispatcher's only
// caller in turn).
package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopcb/pcbextract/pkg/altium"
	"github.com/gopcb/pcbextract/pkg/eagle"
	"github.com/gopcb/pcbextract/pkg/easyeda"
	"github.com/gopcb/pcbextract/pkg/gdsii"
	"github.com/gopcb/pcbextract/pkg/gerber"
	"github.com/gopcb/pcbextract/pkg/kicad"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

// Format identifies one of the six supported board file formats.
type Format int

const (
	FormatUnknown Format = iota
	FormatKiCad
	FormatEasyEDA
	FormatEagle
	FormatAltium
	FormatGerber
	FormatGDSII
)

// DetectFormat maps a file extension (case-insensitive, leading dot
// optional) to a Format. Unrecognized extensions return FormatUnknown.
func DetectFormat(ext string) Format {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "kicad_pcb":
		return FormatKiCad
	case "json":
		return FormatEasyEDA
	case "brd", "fbrd":
		return FormatEagle
	case "pcbdoc":
		return FormatAltium
	case "zip":
		return FormatGerber
	case "gds", "gdsii":
		return FormatGDSII
	default:
		return FormatUnknown
	}
}

// DetectFormatFromFilename extracts the extension from a path (or bare
// filename) and detects its format. A name ending in ".kicad_pcb" (in any
// letter case) is KiCad; any other name is looked up by its last-dot
// extension through DetectFormat.
func DetectFormatFromFilename(name string) Format {
	base := filepath.Base(name)
	lower := strings.ToLower(base)
	if strings.HasSuffix(lower, ".kicad_pcb") {
		return FormatKiCad
	}
	return DetectFormat(filepath.Ext(base))
}

// Extract parses data as the given format. An UnsupportedFormatError is
// returned for FormatUnknown.
func Extract(format Format, data []byte, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	switch format {
	case FormatKiCad:
		return kicad.Parse(bytes.NewReader(data), opts)
	case FormatEasyEDA:
		return easyeda.Parse(data, opts)
	case FormatEagle:
		return eagle.Parse(data, opts)
	case FormatAltium:
		return altium.Parse(data, opts)
	case FormatGerber:
		return gerber.Parse(data, opts)
	case FormatGDSII:
		return gdsii.Parse(data, opts)
	default:
		return nil, &pcbmodel.UnsupportedFormatError{Format: "(unknown)"}
	}
}

// ExtractFile detects path's format from its extension and parses it.
func ExtractFile(path string, opts pcbmodel.ExtractOptions) (*pcbmodel.PcbData, error) {
	format := DetectFormatFromFilename(path)
	if format == FormatUnknown {
		return nil, &pcbmodel.UnsupportedFormatError{Format: filepath.Ext(path)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pcbmodel.IOError{Path: path, Err: err}
	}
	return Extract(format, data, opts)
}
