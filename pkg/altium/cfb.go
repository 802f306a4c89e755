// Compound File Binary (OLE2) reader. Altium stores each .PcbDoc as a CFB
// container: a FAT-addressed sector file with a directory tree of storages
// and streams. No library for this exists anywhere in the retrieval pack,
// so the reader is written directly against encoding/binary, following the
// offset-table decoding idiom the saferwall PE parsers use for their own
// binary containers.
package altium

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const (
	cfbSignature = 0xE11AB1A1E011CFD0

	sectFree     = 0xFFFFFFFF
	sectEndOfChain = 0xFFFFFFFE
	sectFATSect  = 0xFFFFFFFD
	sectDIFSect  = 0xFFFFFFFC

	noStream = 0xFFFFFFFF

	dirEntrySize = 128
)

type dirEntry struct {
	name     string
	objType  byte
	left     uint32
	right    uint32
	child    uint32
	start    uint32
	size     uint64
}

// cfbFile is an opened compound file: enough state to resolve a stream path
// to its bytes.
type cfbFile struct {
	data           []byte
	sectorSize     int
	miniSectorSize int
	miniCutoff     uint64
	fat            []uint32
	miniFAT        []uint32
	miniStream     []byte
	entries        []dirEntry
}

func openCFB(data []byte) (*cfbFile, error) {
	if len(data) < 512 {
		return nil, fmt.Errorf("altium: file too short to be a compound file")
	}
	if binary.LittleEndian.Uint64(data[0:8]) != cfbSignature {
		return nil, fmt.Errorf("altium: not a valid OLE2/CFB file (bad signature)")
	}

	sectorShift := binary.LittleEndian.Uint16(data[30:32])
	miniSectorShift := binary.LittleEndian.Uint16(data[32:34])
	numFATSectors := binary.LittleEndian.Uint32(data[44:48])
	firstDirSector := binary.LittleEndian.Uint32(data[48:52])
	miniCutoff := uint64(binary.LittleEndian.Uint32(data[56:60]))
	firstMiniFATSector := binary.LittleEndian.Uint32(data[60:64])
	firstDIFATSector := binary.LittleEndian.Uint32(data[68:72])
	numDIFATSectors := binary.LittleEndian.Uint32(data[72:76])

	f := &cfbFile{
		data:           data,
		sectorSize:     1 << sectorShift,
		miniSectorSize: 1 << miniSectorShift,
		miniCutoff:     miniCutoff,
	}

	fatSectorIDs := f.readDIFAT(data[76:512], firstDIFATSector, numDIFATSectors, numFATSectors)
	f.fat = f.readFATTable(fatSectorIDs)

	dirRaw := f.readChainAll(firstDirSector)
	f.entries = parseDirEntries(dirRaw)
	if len(f.entries) == 0 {
		return nil, fmt.Errorf("altium: compound file has no directory entries")
	}

	root := f.entries[0]
	f.miniStream = f.readChain(root.start, root.size)

	if firstMiniFATSector != sectEndOfChain && firstMiniFATSector != sectFree {
		miniFATRaw := f.readChainAll(firstMiniFATSector)
		f.miniFAT = make([]uint32, len(miniFATRaw)/4)
		for i := range f.miniFAT {
			f.miniFAT[i] = binary.LittleEndian.Uint32(miniFATRaw[i*4 : i*4+4])
		}
	}

	return f, nil
}

func (f *cfbFile) sectorOffset(sec uint32) int {
	return f.sectorSize + int(sec)*f.sectorSize
}

// readDIFAT collects every FAT sector id: the 109 entries embedded in the
// header, then any continuation DIFAT sectors chained from firstDIFATSector.
func (f *cfbFile) readDIFAT(headerTail []byte, firstDIFATSector, numDIFATSectors, numFATSectors uint32) []uint32 {
	var ids []uint32
	for i := 0; i < 109 && len(ids) < int(numFATSectors); i++ {
		v := binary.LittleEndian.Uint32(headerTail[i*4 : i*4+4])
		if v == sectFree {
			continue
		}
		ids = append(ids, v)
	}

	sec := firstDIFATSector
	entriesPerSector := f.sectorSize / 4
	seen := 0
	for sec != sectEndOfChain && sec != sectFree && seen < int(numDIFATSectors) {
		off := f.sectorOffset(sec)
		if off+f.sectorSize > len(f.data) {
			break
		}
		for i := 0; i < entriesPerSector-1 && len(ids) < int(numFATSectors); i++ {
			v := binary.LittleEndian.Uint32(f.data[off+i*4 : off+i*4+4])
			if v == sectFree {
				continue
			}
			ids = append(ids, v)
		}
		sec = binary.LittleEndian.Uint32(f.data[off+(entriesPerSector-1)*4 : off+entriesPerSector*4])
		seen++
	}
	return ids
}

func (f *cfbFile) readFATTable(fatSectorIDs []uint32) []uint32 {
	entriesPerSector := f.sectorSize / 4
	fat := make([]uint32, 0, len(fatSectorIDs)*entriesPerSector)
	for _, sec := range fatSectorIDs {
		off := f.sectorOffset(sec)
		if off+f.sectorSize > len(f.data) {
			break
		}
		for i := 0; i < entriesPerSector; i++ {
			fat = append(fat, binary.LittleEndian.Uint32(f.data[off+i*4:off+i*4+4]))
		}
	}
	return fat
}

// readChainAll follows a regular-sector FAT chain from start to its end,
// with no size truncation (used for the directory and mini-FAT streams,
// whose true byte length isn't recorded anywhere but the chain itself).
func (f *cfbFile) readChainAll(start uint32) []byte {
	var out []byte
	sec := start
	seen := map[uint32]bool{}
	for sec != sectEndOfChain && sec != sectFree && !seen[sec] {
		seen[sec] = true
		off := f.sectorOffset(sec)
		if off+f.sectorSize > len(f.data) {
			break
		}
		out = append(out, f.data[off:off+f.sectorSize]...)
		if int(sec) >= len(f.fat) {
			break
		}
		sec = f.fat[sec]
	}
	return out
}

func (f *cfbFile) readChain(start uint32, size uint64) []byte {
	out := f.readChainAll(start)
	if uint64(len(out)) > size {
		out = out[:size]
	}
	return out
}

func (f *cfbFile) readMiniChain(start uint32, size uint64) []byte {
	var out []byte
	sec := start
	seen := map[uint32]bool{}
	for sec != sectEndOfChain && sec != sectFree && !seen[sec] {
		seen[sec] = true
		off := int(sec) * f.miniSectorSize
		if off+f.miniSectorSize > len(f.miniStream) {
			break
		}
		out = append(out, f.miniStream[off:off+f.miniSectorSize]...)
		if int(sec) >= len(f.miniFAT) {
			break
		}
		sec = f.miniFAT[sec]
	}
	if uint64(len(out)) > size {
		out = out[:size]
	}
	return out
}

func parseDirEntries(raw []byte) []dirEntry {
	n := len(raw) / dirEntrySize
	entries := make([]dirEntry, n)
	for i := 0; i < n; i++ {
		rec := raw[i*dirEntrySize : (i+1)*dirEntrySize]
		nameLenBytes := binary.LittleEndian.Uint16(rec[64:66])
		entries[i] = dirEntry{
			name:    decodeEntryName(rec[0:64], nameLenBytes),
			objType: rec[66],
			left:    binary.LittleEndian.Uint32(rec[68:72]),
			right:   binary.LittleEndian.Uint32(rec[72:76]),
			child:   binary.LittleEndian.Uint32(rec[76:80]),
			start:   binary.LittleEndian.Uint32(rec[116:120]),
			size:    binary.LittleEndian.Uint64(rec[120:128]),
		}
	}
	return entries
}

func decodeEntryName(raw []byte, nameLenBytes uint16) string {
	if nameLenBytes < 2 {
		return ""
	}
	chars := int(nameLenBytes)/2 - 1 // exclude the trailing NUL
	if chars <= 0 || chars*2 > len(raw) {
		return ""
	}
	units := make([]uint16, chars)
	for i := 0; i < chars; i++ {
		units[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return string(utf16.Decode(units))
}

// childrenOf returns every directory entry id reachable under a storage's
// red-black tree root, in no particular order — correctness of the tree's
// ordering doesn't matter since lookups below do a linear name scan.
func (f *cfbFile) childrenOf(root uint32) []uint32 {
	var ids []uint32
	var walk func(id uint32)
	walk = func(id uint32) {
		if id == noStream || int(id) >= len(f.entries) {
			return
		}
		e := f.entries[id]
		walk(e.left)
		ids = append(ids, id)
		walk(e.right)
	}
	walk(root)
	return ids
}

// openStream resolves a path like "/Board6/Data" to its decoded bytes.
// Returns (nil, false) when any component of the path is missing, matching
// the "stream not present -> treat as absent, don't fail the whole parse"
// posture the caller uses for optional streams.
func (f *cfbFile) openStream(path string) ([]byte, bool) {
	parts := splitPath(path)
	cur := uint32(0)
	for _, part := range parts {
		found := false
		for _, id := range f.childrenOf(f.entries[cur].child) {
			if equalFold(f.entries[id].name, part) {
				cur = id
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	entry := f.entries[cur]
	if entry.size < f.miniCutoff {
		return f.readMiniChain(entry.start, entry.size), true
	}
	return f.readChain(entry.start, entry.size), true
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
