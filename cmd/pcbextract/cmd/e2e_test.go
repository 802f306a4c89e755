package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

const minimalKicadBoard = `(kicad_pcb
	(version 20211014)
	(generator pcbnew)
	(title_block (title "Minimal Test Board") (date "2024-01-15") (rev "1.0"))
)`

func TestExtractE2E(t *testing.T) {
	dir := t.TempDir()
	boardPath := filepath.Join(dir, "board.kicad_pcb")
	if err := os.WriteFile(boardPath, []byte(minimalKicadBoard), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	unknownPath := filepath.Join(dir, "board.unknownformat")
	if err := os.WriteFile(unknownPath, []byte("whatever"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "extract kicad board",
			args:        []string{"extract", boardPath},
			wantContain: []string{"Minimal Test Board", "\"1.0\""},
		},
		{
			name:        "extract pretty-printed",
			args:        []string{"extract", "--pretty", boardPath},
			wantContain: []string{"\"title\": \"Minimal Test Board\""},
		},
		{
			name:    "extract unsupported extension",
			args:    []string{"extract", unknownPath},
			wantErr: true,
		},
		{
			name:    "extract missing file",
			args:    []string{"extract", filepath.Join(dir, "missing.kicad_pcb")},
			wantErr: true,
		},
		{
			name:    "extract missing argument",
			args:    []string{"extract"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			includeTracks = false
			includeNets = false
			pretty = false
			maxZipEntrySize = pcbmodel.DefaultMaxZipEntrySize

			old := os.Stdout
			r, w, _ := os.Pipe()
			os.Stdout = w

			var buf bytes.Buffer
			done := make(chan struct{})
			go func() {
				buf.ReadFrom(r)
				close(done)
			}()

			rootCmd.SetArgs(tt.args)
			err := rootCmd.Execute()

			w.Close()
			os.Stdout = old
			<-done

			output := buf.String()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v\noutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %q\ngot:\n%s", want, output)
				}
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	dir := t.TempDir()
	unknownPath := filepath.Join(dir, "board.unknownformat")
	if err := os.WriteFile(unknownPath, []byte("whatever"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	includeTracks, includeNets, pretty = false, false, false
	rootCmd.SetArgs([]string{"extract", unknownPath})

	old := os.Stdout
	_, w, _ := os.Pipe()
	os.Stdout = w
	err := rootCmd.Execute()
	w.Close()
	os.Stdout = old

	if err == nil {
		t.Fatal("expected an error")
	}
	if got := errorKind(err); got != "UnsupportedFormat" {
		t.Errorf("errorKind() = %q, want UnsupportedFormat", got)
	}
}
