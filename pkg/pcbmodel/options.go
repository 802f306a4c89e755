package pcbmodel

// ExtractOptions controls which optional PcbData sections a parser
// populates. Every vendor parser takes the same options struct so the
// dispatcher can thread one set of flags through to whichever parser it
// selects.
type ExtractOptions struct {
	IncludeTracks bool
	IncludeNets   bool

	// MaxZipEntrySize caps how many decompressed bytes a Gerber ZIP
	// bundle's Parse will read from any single archive member, guarding
	// against zip-bomb expansion. Zero means DefaultMaxZipEntrySize.
	MaxZipEntrySize int64
}

// DefaultMaxZipEntrySize is the decompressed per-entry ceiling applied when
// ExtractOptions.MaxZipEntrySize is zero. Real Gerber/Excellon layer files
// are plain text in the tens-to-hundreds of KB range; 64MiB comfortably
// covers dense boards while still refusing a crafted archive claiming a
// vastly larger expansion.
const DefaultMaxZipEntrySize int64 = 64 << 20
