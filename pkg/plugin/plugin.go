// Package plugin implements the external plugin-record reader required by
// the condition interpreter's is_master and description_contains
// predicates. It answers "is this a plugin, is it a
// master, does it carry the light-plugin flag, what is its description"
// for every Bethesda-engine plugin format LOOT supports, plus OpenMW's
// plain-text plugins (which are never masterable).
//
// The reader is total: a malformed or truncated file never produces an
// error, only Record{IsPlugin: false}. Predicates built on top of it treat
// "not a plugin" as a first-class false, exactly like a missing file.
package plugin

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/loot/condition-interpreter/pkg/verbose"
)

// Record is the result of reading a plugin's header.
type Record struct {
	IsPlugin          bool
	IsMaster          bool
	IsLightPlugin     bool
	HeaderDescription string
}

// Reader reads a plugin record from a resolved filesystem path. It is an
// interface so tests can substitute a fake without touching the disk.
type Reader interface {
	Read(path string) (Record, error)
}

// DefaultReader is the production Reader, backed by Read.
type DefaultReader struct{}

// Read implements Reader.
func (DefaultReader) Read(path string) (Record, error) { return Read(path) }

const (
	magicTES3 = "TES3"
	magicTES4 = "TES4"

	// flagMaster is bit 0 of the record header flags, set for both TES3 and
	// TES4-family plugins that are recognised as masters.
	flagMaster = uint32(1) << 0
	// flagLightPlugin (ESL) is bit 9, used by Skyrim SE/VR, Fallout 4/VR, and
	// Starfield; older games never set it and this package doesn't need to
	// know which game it's reading for, since a stray bit 9 on an older
	// plugin simply won't be asked about by a predicate running against that
	// game's data path.
	flagLightPlugin = uint32(1) << 9
)

// Read opens path and parses its record header.
//
// Any file that doesn't begin with a recognised plugin magic -- including
// OpenMW's plain-text .omwaddon/.omwscripts/.omwgame files -- yields
// Record{IsPlugin: false} and a nil error. Only an OS-level failure to open
// the file for reading (permission denied) returns an error; "file does not
// exist" also returns the zero Record with no error, matching the rest of
// this module's "missing is false, not an error" discipline.
func Read(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		logSkip(path, "truncated before magic bytes")
		return Record{}, nil
	}

	switch string(magic) {
	case magicTES3:
		return readTES3(r)
	case magicTES4:
		return readTES4(r)
	default:
		logSkip(path, "not a TES3/TES4 record")
		return Record{}, nil
	}
}

// recordHeaderFields is the TES3/TES4 record header layout after the 4-byte
// magic: a u32 data size, a u32 flags field, then two more u32s (form id and
// version stamp/unused) that this reader doesn't need.
type recordHeaderFields struct {
	dataSize uint32
	flags    uint32
}

func readRecordHeaderRest(r io.Reader) (recordHeaderFields, bool) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return recordHeaderFields{}, false
	}
	return recordHeaderFields{
		dataSize: binary.LittleEndian.Uint32(buf[0:4]),
		flags:    binary.LittleEndian.Uint32(buf[4:8]),
	}, true
}

// readTES3 parses a Morrowind plugin. TES3 has no light-plugin concept.
func readTES3(r io.Reader) (Record, error) {
	hdr, ok := readRecordHeaderRest(r)
	if !ok {
		return Record{}, nil
	}
	rec := Record{
		IsPlugin: true,
		IsMaster: hdr.flags&flagMaster != 0,
	}
	data := make([]byte, hdr.dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		// Header was readable but the body is truncated; still a plugin,
		// just without a description we can read.
		return rec, nil
	}
	rec.HeaderDescription = findHEDRDescription(data, true)
	return rec, nil
}

// readTES4 parses an Oblivion-through-Starfield plugin.
func readTES4(r io.Reader) (Record, error) {
	hdr, ok := readRecordHeaderRest(r)
	if !ok {
		return Record{}, nil
	}
	rec := Record{
		IsPlugin:      true,
		IsMaster:      hdr.flags&flagMaster != 0,
		IsLightPlugin: hdr.flags&flagLightPlugin != 0,
	}
	data := make([]byte, hdr.dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return rec, nil
	}
	rec.HeaderDescription = findHEDRDescription(data, false)
	return rec, nil
}

// findHEDRDescription scans the TES3/TES4 header record's subrecords for
// HEDR, which carries a fixed-size numeric preamble followed (TES3 only) by
// a NUL-terminated company/description string, or (TES4) no description at
// all in HEDR itself -- TES4-family descriptions live in a separate CNAM
// subrecord. Both are scanned for; whichever is found first is returned.
func findHEDRDescription(data []byte, tes3 bool) string {
	pos := 0
	for pos+6 <= len(data) {
		subType := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint16(data[pos+4 : pos+6]))
		valueStart := pos + 6
		valueEnd := valueStart + size
		if valueEnd > len(data) {
			break
		}
		value := data[valueStart:valueEnd]

		if tes3 && subType == "HEDR" && len(value) >= 300 {
			// TES3 HEDR: 4-byte version float, 4-byte flags, 32-byte author,
			// 256-byte description, 4-byte master count.
			desc := value[40:296]
			return decodeNulTerminatedASCII(desc)
		}
		if !tes3 && subType == "CNAM" {
			return decodeNulTerminatedASCII(value)
		}

		pos = valueEnd
	}
	return ""
}

func decodeNulTerminatedASCII(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func logSkip(path string, reason string) {
	verbose.Debugf("plugin: treating %s as non-plugin: %s", path, reason)
}
