package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gopcb/pcbextract/pkg/extract"
	"github.com/gopcb/pcbextract/pkg/pcbmodel"
	"github.com/spf13/cobra"
)

var (
	includeTracks   bool
	includeNets     bool
	pretty          bool
	maxZipEntrySize int64
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Parse a board file and print its PcbData as JSON",
	Long: `Detects the board file's format from its extension (.kicad_pcb, .json,
.brd/.fbrd, .PcbDoc, .zip, .gds/.gdsii) and prints the extracted PcbData
as JSON on stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&includeTracks, "tracks", false, "include copper tracks and pads")
	extractCmd.Flags().BoolVar(&includeNets, "nets", false, "include net names")
	extractCmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print the JSON output")
	extractCmd.Flags().Int64Var(&maxZipEntrySize, "max-zip-entry-size", pcbmodel.DefaultMaxZipEntrySize,
		"max decompressed bytes read from any single entry of a Gerber zip bundle")
}

func runExtract(cmd *cobra.Command, args []string) error {
	filename := args[0]

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracting %s\n", filename)
	}

	opts := pcbmodel.ExtractOptions{
		IncludeTracks:   includeTracks,
		IncludeNets:     includeNets,
		MaxZipEntrySize: maxZipEntrySize,
	}
	pcb, err := extract.ExtractFile(filename, opts)
	if err != nil {
		return err
	}

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(pcb, "", "  ")
	} else {
		out, err = json.Marshal(pcb)
	}
	if err != nil {
		return &pcbmodel.JSONError{Reason: "failed to encode PcbData", Err: err}
	}

	fmt.Println(string(out))
	return nil
}
