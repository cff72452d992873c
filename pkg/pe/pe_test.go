package pe

import (
	"encoding/binary"
	"os"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileIsNoVersionNotError(t *testing.T) {
	info, err := Read("/nonexistent/path/to/nothing.exe")
	require.NoError(t, err)
	assert.True(t, info.IsZero())
}

func TestReadNonPEFileIsNoVersionNotError(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/not-an-exe.esp"
	require.NoError(t, os.WriteFile(path, []byte("TES4 plugin bytes, not a PE"), 0o644))

	info, err := Read(path)
	require.NoError(t, err)
	assert.True(t, info.IsZero())
}

func TestIsExecutableFalseForMissingFile(t *testing.T) {
	ok, err := IsExecutable("/nonexistent/path/to/nothing.exe")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeUTF16RoundTrip(t *testing.T) {
	want := "FileVersion"
	encoded := encodeUTF16(want)
	assert.Equal(t, want, decodeUTF16(encoded))
}

func TestDecodeNulTerminatedStopsAtFirstNul(t *testing.T) {
	b := encodeUTF16("1, 2, 3, 4\x00trailing garbage")
	assert.Equal(t, "1, 2, 3, 4", decodeNulTerminated(b))
}

func TestReadBlockHeaderPadsKeyTo4ByteBoundary(t *testing.T) {
	// "ab" (2 chars + NUL = 3 code units = 6 bytes) after the 6-byte fixed
	// header ends at byte 12, already a multiple of 4, so no padding is added.
	block := buildBlockHeader(t, "ab", 0, 0)
	hdr, ok := readBlockHeader(block)
	require.True(t, ok)
	assert.Equal(t, "ab", hdr.key)
	assert.Equal(t, 0, hdr.headerEnd%4)
}

func TestParseVersionInfoFixedFileVersion(t *testing.T) {
	fixed := make([]byte, 52)
	binary.LittleEndian.PutUint32(fixed[8:], (1<<16)|2)  // dwFileVersionMS = 1.2
	binary.LittleEndian.PutUint32(fixed[12:], (3<<16)|4) // dwFileVersionLS = 3.4
	binary.LittleEndian.PutUint32(fixed[16:], (5<<16)|6) // dwProductVersionMS
	binary.LittleEndian.PutUint32(fixed[20:], (7<<16)|8) // dwProductVersionLS

	block := buildVersionInfoBlock(t, fixed, nil)
	info := parseVersionInfo(block)

	assert.Equal(t, "1, 2, 3, 4", info.FileVersion)
	assert.Equal(t, "5, 6, 7, 8", info.ProductVersion)
}

func TestParseVersionInfoStringTableEntries(t *testing.T) {
	stringTable := buildStringTable(t, map[string]string{
		"FileVersion":    "1.2.3.4",
		"ProductVersion": "5.6.7.8",
		"CompanyName":    "Some Studio",
	})
	stringFileInfo := buildBlockHeader(t, "StringFileInfo", 1, 0)
	stringFileInfo = append(stringFileInfo, stringTable...)
	patchBlockLength(stringFileInfo)

	block := buildVersionInfoBlock(t, nil, stringFileInfo)
	info := parseVersionInfo(block)

	assert.Equal(t, "1.2.3.4", info.FileVersionString)
	assert.Equal(t, "5.6.7.8", info.ProductVersionString)
}

func TestFindVersionBlockMissingTypeEntry(t *testing.T) {
	// An empty resource directory (no entries at all) has no VERSION type.
	rsrc := make([]byte, 16)
	assert.Nil(t, findVersionBlock(rsrc, 0))
}

// --- test helpers: hand-build the little-endian VS_VERSIONINFO byte shapes
// pe.go parses, mirroring how a real resource compiler would lay them out. ---

func encodeUTF16(s string) []byte {
	u16 := utf16.Encode([]rune(s))
	b := make([]byte, len(u16)*2+2) // +2 for the terminating NUL code unit
	for i, u := range u16 {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	return b
}

func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// buildBlockHeader builds a length/valueLength/type/key header with key
// padded to the next 4-byte boundary, length left as a placeholder (0) to be
// patched by the caller once the full block is known.
func buildBlockHeader(t *testing.T, key string, valueLength, wType uint16) []byte {
	t.Helper()
	h := make([]byte, 6)
	binary.LittleEndian.PutUint16(h[2:], valueLength)
	binary.LittleEndian.PutUint16(h[4:], wType)
	h = append(h, encodeUTF16(key)...)
	h = pad4(h)
	return h
}

// patchBlockLength writes len(b) into the first 2 bytes (the wLength field)
// of a block built by buildBlockHeader/buildVersionInfoBlock.
func patchBlockLength(b []byte) {
	binary.LittleEndian.PutUint16(b[0:], uint16(len(b)))
}

func buildStringTable(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	table := buildBlockHeader(t, "040904B0", 0, 1)

	order := []string{"FileVersion", "ProductVersion", "CompanyName"}
	for _, key := range order {
		val, ok := entries[key]
		if !ok {
			continue
		}
		valBytes := encodeUTF16(val)
		entry := buildBlockHeader(t, key, uint16(len(valBytes)/2), 1)
		entry = append(entry, valBytes...)
		entry = pad4(entry)
		patchBlockLength(entry)
		table = append(table, entry...)
	}
	patchBlockLength(table)
	return table
}

func buildVersionInfoBlock(t *testing.T, fixed []byte, children []byte) []byte {
	t.Helper()
	valueLength := uint16(0)
	wType := uint16(0)
	if fixed != nil {
		valueLength = 52
	}
	block := buildBlockHeader(t, "VS_VERSION_INFO", valueLength, wType)
	if fixed != nil {
		block = append(block, fixed...)
		block = pad4(block)
	}
	if children != nil {
		block = append(block, children...)
	}
	patchBlockLength(block)
	return block
}
