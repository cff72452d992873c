package plugin

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlugin(t *testing.T, name string, magic string, flags uint32, subrecords []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	var rec []byte
	rec = append(rec, []byte(magic)...)
	sizeBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBuf, uint32(len(subrecords)))
	rec = append(rec, sizeBuf...)
	flagsBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(flagsBuf, flags)
	rec = append(rec, flagsBuf...)
	rec = append(rec, make([]byte, 8)...) // form id + version stamp, unused
	rec = append(rec, subrecords...)

	require.NoError(t, os.WriteFile(path, rec, 0o644))
	return path
}

func subrecord(subType string, value []byte) []byte {
	var b []byte
	b = append(b, []byte(subType)...)
	sizeBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(sizeBuf, uint16(len(value)))
	b = append(b, sizeBuf...)
	b = append(b, value...)
	return b
}

func TestReadNonPluginReturnsFalseNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o644))

	rec, err := Read(path)
	require.NoError(t, err)
	assert.False(t, rec.IsPlugin)
}

func TestReadMissingFileReturnsFalseNotError(t *testing.T) {
	rec, err := Read(filepath.Join(t.TempDir(), "missing.esp"))
	require.NoError(t, err)
	assert.False(t, rec.IsPlugin)
}

func TestReadTruncatedFileReturnsFalseNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.esp")
	require.NoError(t, os.WriteFile(path, []byte("TES"), 0o644))

	rec, err := Read(path)
	require.NoError(t, err)
	assert.False(t, rec.IsPlugin)
}

func TestReadTES4MasterFlag(t *testing.T) {
	path := writePlugin(t, "Blank.esm", magicTES4, flagMaster, subrecord("CNAM", []byte("A test master\x00")))

	rec, err := Read(path)
	require.NoError(t, err)
	assert.True(t, rec.IsPlugin)
	assert.True(t, rec.IsMaster)
	assert.False(t, rec.IsLightPlugin)
	assert.Equal(t, "A test master", rec.HeaderDescription)
}

func TestReadTES4LightPluginFlag(t *testing.T) {
	path := writePlugin(t, "Blank.esl", magicTES4, flagLightPlugin, nil)

	rec, err := Read(path)
	require.NoError(t, err)
	assert.True(t, rec.IsPlugin)
	assert.False(t, rec.IsMaster)
	assert.True(t, rec.IsLightPlugin)
}

func TestReadTES4NonMasterPlugin(t *testing.T) {
	path := writePlugin(t, "Blank.esp", magicTES4, 0, nil)

	rec, err := Read(path)
	require.NoError(t, err)
	assert.True(t, rec.IsPlugin)
	assert.False(t, rec.IsMaster)
}

func TestReadTES3MasterWithDescription(t *testing.T) {
	hedr := make([]byte, 300)
	copy(hedr[40:], "A Morrowind master\x00")
	path := writePlugin(t, "Morrowind.esm", magicTES3, flagMaster, subrecord("HEDR", hedr))

	rec, err := Read(path)
	require.NoError(t, err)
	assert.True(t, rec.IsPlugin)
	assert.True(t, rec.IsMaster)
	assert.Equal(t, "A Morrowind master", rec.HeaderDescription)
}

func TestReadOpenMWPlainTextPluginIsNotAPlugin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.omwaddon")
	require.NoError(t, os.WriteFile(path, []byte("[Content]\nFile=Blank.esp\n"), 0o644))

	rec, err := Read(path)
	require.NoError(t, err)
	assert.False(t, rec.IsPlugin)
}

func TestDefaultReaderDelegatesToRead(t *testing.T) {
	path := writePlugin(t, "Blank.esm", magicTES4, flagMaster, nil)

	rec, err := DefaultReader{}.Read(path)
	require.NoError(t, err)
	assert.True(t, rec.IsPlugin)
	assert.True(t, rec.IsMaster)
}
