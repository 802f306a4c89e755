package cmd

import (
	"fmt"
	"os"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pcbextract",
	Short: "Extract a common PCB data model from KiCad, EasyEDA, Eagle, Altium, Gerber, and GDSII files",
	Long: `pcbextract reads a board file in one of six vendor formats and prints
the extracted board data as JSON.

Examples:
  pcbextract extract board.kicad_pcb
  pcbextract extract --tracks --nets board.PcbDoc
  pcbextract extract gerbers.zip`,
	Version: "0.1.0",
}

// Execute runs the root command, printing the error's kind and message to
// stderr and exiting 1 on failure (spec's CLI error-reporting policy).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errorKind(err), err)
		os.Exit(1)
	}
}

func errorKind(err error) string {
	switch err.(type) {
	case *pcbmodel.UnsupportedFormatError:
		return "UnsupportedFormat"
	case *pcbmodel.IOError:
		return "Io"
	case *pcbmodel.ParseError:
		return "Parse"
	case *pcbmodel.JSONError:
		return "Json"
	case *pcbmodel.ZipError:
		return "Zip"
	default:
		return "Error"
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pcbmodel.Logger = func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
	}
}
