package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		ext  string
		want Format
	}{
		{"kicad_pcb", FormatKiCad},
		{".kicad_pcb", FormatKiCad},
		{"JSON", FormatEasyEDA},
		{"brd", FormatEagle},
		{"fbrd", FormatEagle},
		{"PcbDoc", FormatAltium},
		{"zip", FormatGerber},
		{"gds", FormatGDSII},
		{"gdsii", FormatGDSII},
		{"xyz", FormatUnknown},
		{"", FormatUnknown},
	}
	for _, c := range cases {
		if got := DetectFormat(c.ext); got != c.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", c.ext, got, c.want)
		}
	}
}

func TestDetectFormatFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want Format
	}{
		{"board.kicad_pcb", FormatKiCad},
		{"/path/to/board.kicad_pcb", FormatKiCad},
		{"export.json", FormatEasyEDA},
		{"board.brd", FormatEagle},
		{"board.PcbDoc", FormatAltium},
		{"gerbers.zip", FormatGerber},
		{"layout.gds", FormatGDSII},
		{"readme.txt", FormatUnknown},
	}
	for _, c := range cases {
		if got := DetectFormatFromFilename(c.name); got != c.want {
			t.Errorf("DetectFormatFromFilename(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract(FormatUnknown, []byte{}, pcbmodel.ExtractOptions{})
	if err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
	var ufe *pcbmodel.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Errorf("error = %v, want *pcbmodel.UnsupportedFormatError", err)
	}
}

func TestExtractFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/board.unknownformat"
	if err := os.WriteFile(path, []byte("whatever"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	_, err := ExtractFile(path, pcbmodel.ExtractOptions{})
	if err == nil {
		t.Fatal("expected an error for an unrecognized extension")
	}
	var ufe *pcbmodel.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Errorf("error = %v, want *pcbmodel.UnsupportedFormatError", err)
	}
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile("/nonexistent/path/board.kicad_pcb", pcbmodel.ExtractOptions{})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var ioe *pcbmodel.IOError
	if !errors.As(err, &ioe) {
		t.Errorf("error = %v, want *pcbmodel.IOError", err)
	}
}

func TestExtractGerberRoutesToGerberParser(t *testing.T) {
	// A ZIP with no Gerber content at all should fail with gerber's own
	// structural error, proving dispatch reached the right parser.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := f.Write([]byte("not a gerber file")); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err = Extract(FormatGerber, buf.Bytes(), pcbmodel.ExtractOptions{})
	if err == nil {
		t.Fatal("expected gerber parse to fail on a content-less zip")
	}
}
