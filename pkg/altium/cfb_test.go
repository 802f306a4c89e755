package altium

import (
	"encoding/binary"
	"testing"
)

// buildMinimalCFB assembles a minimal, standards-valid v3 (512-byte sector)
// compound file with exactly one stream, "Data", directly under the root
// storage. Layout: sector 0 is the FAT, sector 1 is the directory, sectors
// 2-9 hold the stream's 4096 bytes (the mini-stream cutoff, so the stream
// is read through the regular FAT chain rather than the mini-FAT).
func buildMinimalCFB(t *testing.T, payload []byte) []byte {
	t.Helper()
	if len(payload) > 4096 {
		t.Fatalf("payload too large for this fixture: %d", len(payload))
	}
	data := make([]byte, 4096)
	copy(data, payload)

	const (
		headerSize = 512
		sectorSize = 512
	)
	buf := make([]byte, headerSize+sectorSize+sectorSize+len(data))

	putU32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:off+4], v) }
	putU16 := func(off int, v uint16) { binary.LittleEndian.PutUint16(buf[off:off+2], v) }

	copy(buf[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	putU16(26, 3)      // major version 3
	putU16(28, 0xFFFE) // byte order
	putU16(30, 9)      // sector shift -> 512-byte sectors
	putU16(32, 6)      // mini sector shift -> 64-byte mini sectors
	putU32(44, 1)      // number of FAT sectors
	putU32(48, 1)      // first directory sector
	putU32(56, 4096)   // mini stream cutoff
	putU32(60, sectEndOfChain) // first mini FAT sector (none)
	putU32(68, sectEndOfChain) // first DIFAT sector (none needed)

	// DIFAT embedded in header: header[76:512], 109 u32 entries.
	putU32(76, 0) // FAT lives in sector 0
	for i := 1; i < 109; i++ {
		putU32(76+i*4, sectFree)
	}

	sectorOff := func(sec int) int { return headerSize + sec*sectorSize }

	// Sector 0: FAT table.
	fatOff := sectorOff(0)
	putU32(fatOff+0*4, sectFATSect)    // sector 0 is the FAT sector itself
	putU32(fatOff+1*4, sectEndOfChain) // sector 1 (directory) is one sector
	for i := 2; i <= 8; i++ {
		putU32(fatOff+i*4, uint32(i+1))
	}
	putU32(fatOff+9*4, sectEndOfChain)
	for i := 10; i < 128; i++ {
		putU32(fatOff+i*4, sectFree)
	}

	// Sector 1: directory, 4 entries of 128 bytes.
	dirOff := sectorOff(1)
	putName := func(entryOff int, name string) {
		units := []byte(name) // ASCII only, good enough for this fixture
		for i, c := range units {
			putU16(entryOff+i*2, uint16(c))
		}
		putU16(entryOff+64, uint16((len(units)+1)*2))
	}

	// Entry 0: root storage, child = entry 1.
	putName(dirOff, "Root Entry")
	buf[dirOff+66] = 5 // object type: root storage
	putU32(dirOff+68, noStream)
	putU32(dirOff+72, noStream)
	putU32(dirOff+76, 1)

	// Entry 1: "Data" stream, starting at sector 2, size 4096.
	e1 := dirOff + 128
	putName(e1, "Data")
	buf[e1+66] = 2 // object type: stream
	putU32(e1+68, noStream)
	putU32(e1+72, noStream)
	putU32(e1+76, noStream)
	putU32(e1+116, 2)
	binary.LittleEndian.PutUint64(buf[e1+120:e1+128], 4096)

	// Sectors 2-9: stream payload.
	copy(buf[sectorOff(2):], data)

	return buf
}

func TestCFBOpenStreamRoundTrip(t *testing.T) {
	payload := []byte("hello altium")
	raw := buildMinimalCFB(t, payload)

	f, err := openCFB(raw)
	if err != nil {
		t.Fatalf("openCFB() failed: %v", err)
	}
	got, ok := f.openStream("/Data")
	if !ok {
		t.Fatal("openStream(/Data) = not found")
	}
	if string(got[:len(payload)]) != string(payload) {
		t.Errorf("stream content = %q, want prefix %q", got[:len(payload)], payload)
	}
	if len(got) != 4096 {
		t.Errorf("stream length = %d, want 4096", len(got))
	}
}

func TestCFBOpenStreamMissing(t *testing.T) {
	raw := buildMinimalCFB(t, []byte("x"))
	f, err := openCFB(raw)
	if err != nil {
		t.Fatalf("openCFB() failed: %v", err)
	}
	if _, ok := f.openStream("/Nope"); ok {
		t.Error("openStream(/Nope) = found, want not found")
	}
}

func TestOpenCFBRejectsBadSignature(t *testing.T) {
	data := make([]byte, 512)
	if _, err := openCFB(data); err == nil {
		t.Error("openCFB() on non-CFB data = nil error, want error")
	}
}
