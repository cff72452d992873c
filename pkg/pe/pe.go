// Package pe extracts the File/Product version strings from a Windows PE
// executable's VS_VERSIONINFO resource, without calling into any OS version
// API -- this package runs on every platform LOOT supports, most of which
// aren't Windows.
//
// The happy path uses the standard library's debug/pe to walk the COFF/PE
// section table and locate ".rsrc", then this package parses the resource
// directory tree and the VS_VERSIONINFO block by hand, because debug/pe
// stops at section contents and knows nothing about resource formats.
package pe

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"os"
	"unicode/utf16"

	"github.com/loot/condition-interpreter/pkg/verbose"
)

// resourceVersion is the resource type ID for RT_VERSION.
const resourceVersion = 16

// Info is the result of a successful VS_VERSIONINFO read. A zero Info
// (IsZero() == true) means "no version" per §4.B -- not an error.
type Info struct {
	// FileVersion is dwFileVersionMS/LS formatted as four decimal integers
	// separated by ", " (e.g. "1, 2, 3, 4"), taken from VS_FIXEDFILEINFO.
	FileVersion string
	// ProductVersion is dwProductVersionMS/LS, same format.
	ProductVersion string
	// FileVersionString/ProductVersionString are the human-authored string
	// table entries, when present; callers prefer these over the fixed
	// numeric fields when both exist, matching what real LOOT metadata
	// authors expect ("FileVersion" string entries are often more precise).
	FileVersionString    string
	ProductVersionString string
}

// IsZero reports whether no version information was found at all.
func (i Info) IsZero() bool {
	return i == Info{}
}

// Read extracts version information from the PE file at path.
//
// A file that isn't a PE, is truncated, or has no VS_VERSIONINFO resource
// returns a zero Info and a nil error -- "no version" is a distinguished
// absence per §4.B, never an error. Only I/O failures that are not "missing
// version information" (permission denied, a read error mid-file) return a
// non-nil error.
func Read(path string) (Info, error) {
	data, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("reading %q: %w", path, err)
	}

	f, err := pe.NewFile(newReaderAt(data))
	if err != nil {
		verbose.Debugf("not a PE file: %s: %v", path, err)
		return Info{}, nil
	}
	defer f.Close()

	rsrc := f.Section(".rsrc")
	if rsrc == nil {
		return Info{}, nil
	}
	rsrcData, err := rsrc.Data()
	if err != nil {
		verbose.Debugf("could not read .rsrc of %s: %v", path, err)
		return Info{}, nil
	}

	block := findVersionBlock(rsrcData, rsrc.VirtualAddress)
	if block == nil {
		return Info{}, nil
	}

	return parseVersionInfo(block), nil
}

// IsExecutable reports whether path is a well-formed PE file (valid
// MZ/DOS + PE header), independent of whether it carries version info.
func IsExecutable(path string) (bool, error) {
	data, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %q: %w", path, err)
	}
	f, err := pe.NewFile(newReaderAt(data))
	if err != nil {
		return false, nil
	}
	defer f.Close()
	return true, nil
}

// readFile loads the whole file into memory. The corpus this module was
// grown from carries no memory-mapping library, so unlike
// §4.B's "memory-map when available" this always reads fully; the content
// is identical either way, only the I/O strategy differs.
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// byteReaderAt adapts a byte slice to io.ReaderAt for debug/pe.NewFile.
type byteReaderAt struct {
	data []byte
}

func newReaderAt(data []byte) *byteReaderAt { return &byteReaderAt{data: data} }

func (r *byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(r.data)) {
		return 0, fmt.Errorf("offset %d out of range", off)
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, fmt.Errorf("short read at offset %d", off)
	}
	return n, nil
}

// resourceDirEntry mirrors IMAGE_RESOURCE_DIRECTORY_ENTRY.
type resourceDirEntry struct {
	nameOrID     uint32
	offsetToData uint32
}

// readResourceDirEntries reads the directory header at offset and returns
// its entries (named entries followed by ID entries, as laid out on disk).
func readResourceDirEntries(data []byte, offset uint32) []resourceDirEntry {
	if int(offset)+16 > len(data) {
		return nil
	}
	numNamed := binary.LittleEndian.Uint16(data[offset+12:])
	numID := binary.LittleEndian.Uint16(data[offset+14:])
	total := int(numNamed) + int(numID)

	entries := make([]resourceDirEntry, 0, total)
	base := offset + 16
	for i := 0; i < total; i++ {
		entryOff := int(base) + i*8
		if entryOff+8 > len(data) {
			break
		}
		entries = append(entries, resourceDirEntry{
			nameOrID:     binary.LittleEndian.Uint32(data[entryOff:]),
			offsetToData: binary.LittleEndian.Uint32(data[entryOff+4:]),
		})
	}
	return entries
}

const highBit = uint32(1) << 31

// findVersionBlock walks the resource directory tree (type -> name -> lang)
// to find a VS_VERSION_INFO data entry and returns its raw bytes. The first
// name and the first language found are used -- §4.B requires not preferring
// US-English, since some executables only ship a non-English block.
func findVersionBlock(rsrcData []byte, sectionRVA uint32) []byte {
	typeEntries := readResourceDirEntries(rsrcData, 0)
	for _, te := range typeEntries {
		if te.nameOrID != resourceVersion {
			continue
		}
		if te.offsetToData&highBit == 0 {
			continue // not a subdirectory, malformed
		}
		nameEntries := readResourceDirEntries(rsrcData, te.offsetToData&^highBit)
		for _, ne := range nameEntries {
			if ne.offsetToData&highBit == 0 {
				continue
			}
			langEntries := readResourceDirEntries(rsrcData, ne.offsetToData&^highBit)
			for _, le := range langEntries {
				if le.offsetToData&highBit != 0 {
					continue // nested directory, unexpected at this level
				}
				return resolveDataEntry(rsrcData, sectionRVA, le.offsetToData)
			}
		}
	}
	return nil
}

// resolveDataEntry reads an IMAGE_RESOURCE_DATA_ENTRY and slices out the
// bytes it describes; OffsetToData in the entry is an RVA relative to the
// image base, so it's translated back into an offset within rsrcData via
// the section's own virtual address.
func resolveDataEntry(rsrcData []byte, sectionRVA, entryOffset uint32) []byte {
	if int(entryOffset)+16 > len(rsrcData) {
		return nil
	}
	dataRVA := binary.LittleEndian.Uint32(rsrcData[entryOffset:])
	size := binary.LittleEndian.Uint32(rsrcData[entryOffset+4:])
	if dataRVA < sectionRVA {
		return nil
	}
	start := dataRVA - sectionRVA
	if int(start)+int(size) > len(rsrcData) || int(start) < 0 {
		return nil
	}
	return rsrcData[start : start+size]
}

// versionBlockHeader is the common 6-byte-plus-key-plus-padding prefix
// shared by VS_VERSIONINFO, StringFileInfo, StringTable, and String blocks.
type versionBlockHeader struct {
	length      uint16
	valueLength uint16
	wType       uint16
	key         string
	// headerEnd is the offset (relative to the block start) where the
	// block's value/children begin, after the key and its alignment padding.
	headerEnd int
}

func readBlockHeader(data []byte) (versionBlockHeader, bool) {
	if len(data) < 6 {
		return versionBlockHeader{}, false
	}
	h := versionBlockHeader{
		length:      binary.LittleEndian.Uint16(data[0:]),
		valueLength: binary.LittleEndian.Uint16(data[2:]),
		wType:       binary.LittleEndian.Uint16(data[4:]),
	}

	keyStart := 6
	keyEndUTF16 := keyStart
	for keyEndUTF16+1 < len(data) {
		u := binary.LittleEndian.Uint16(data[keyEndUTF16:])
		keyEndUTF16 += 2
		if u == 0 {
			break
		}
	}
	h.key = decodeUTF16(data[keyStart : keyEndUTF16-2])

	pos := keyEndUTF16
	if pos%4 != 0 {
		pos += 4 - pos%4
	}
	h.headerEnd = pos
	return h, true
}

func decodeUTF16(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u16))
}

// parseVersionInfo parses a VS_VERSIONINFO block and extracts the fixed
// file/product version and the first FileVersion/ProductVersion string
// table entries it finds.
func parseVersionInfo(block []byte) Info {
	hdr, ok := readBlockHeader(block)
	if !ok {
		return Info{}
	}

	var info Info
	pos := hdr.headerEnd
	if hdr.valueLength == 52 && pos+52 <= len(block) {
		fixed := block[pos : pos+52]
		fileMS := binary.LittleEndian.Uint32(fixed[8:])
		fileLS := binary.LittleEndian.Uint32(fixed[12:])
		prodMS := binary.LittleEndian.Uint32(fixed[16:])
		prodLS := binary.LittleEndian.Uint32(fixed[20:])
		info.FileVersion = fmt.Sprintf("%d, %d, %d, %d", fileMS>>16, fileMS&0xFFFF, fileLS>>16, fileLS&0xFFFF)
		info.ProductVersion = fmt.Sprintf("%d, %d, %d, %d", prodMS>>16, prodMS&0xFFFF, prodLS>>16, prodLS&0xFFFF)
		pos += 52
		if pos%4 != 0 {
			pos += 4 - pos%4
		}
	}

	end := int(hdr.length)
	if end > len(block) {
		end = len(block)
	}
	walkVersionChildren(block[pos:end], &info)
	return info
}

// walkVersionChildren walks the VS_VERSIONINFO children area looking for a
// StringFileInfo block, and inside it the first StringTable's FileVersion
// and ProductVersion entries.
func walkVersionChildren(children []byte, info *Info) {
	pos := 0
	for pos+6 <= len(children) {
		hdr, ok := readBlockHeader(children[pos:])
		if !ok || hdr.length == 0 {
			break
		}
		blockEnd := pos + int(hdr.length)
		if blockEnd > len(children) {
			blockEnd = len(children)
		}
		if hdr.key == "StringFileInfo" {
			walkStringFileInfo(children[pos+hdr.headerEnd:blockEnd], info)
		}
		pos = blockEnd
		if pos%4 != 0 {
			pos += 4 - pos%4
		}
	}
}

// walkStringFileInfo walks a StringFileInfo block's StringTable children
// and reads the first table's FileVersion/ProductVersion strings.
func walkStringFileInfo(tables []byte, info *Info) {
	pos := 0
	for pos+6 <= len(tables) {
		hdr, ok := readBlockHeader(tables[pos:])
		if !ok || hdr.length == 0 {
			break
		}
		tableEnd := pos + int(hdr.length)
		if tableEnd > len(tables) {
			tableEnd = len(tables)
		}
		walkStringTable(tables[pos+hdr.headerEnd:tableEnd], info)
		if info.FileVersionString != "" && info.ProductVersionString != "" {
			return
		}
		pos = tableEnd
		if pos%4 != 0 {
			pos += 4 - pos%4
		}
	}
}

func walkStringTable(strs []byte, info *Info) {
	pos := 0
	for pos+6 <= len(strs) {
		hdr, ok := readBlockHeader(strs[pos:])
		if !ok || hdr.length == 0 {
			break
		}
		entryEnd := pos + int(hdr.length)
		if entryEnd > len(strs) {
			entryEnd = len(strs)
		}
		valueStart := pos + hdr.headerEnd
		if valueStart <= entryEnd {
			value := decodeNulTerminated(strs[valueStart:entryEnd])
			switch hdr.key {
			case "FileVersion":
				info.FileVersionString = value
			case "ProductVersion":
				info.ProductVersionString = value
			}
		}
		pos = entryEnd
		if pos%4 != 0 {
			pos += 4 - pos%4
		}
	}
}

func decodeNulTerminated(b []byte) string {
	s := decodeUTF16(b)
	for i, r := range s {
		if r == 0 {
			return s[:i]
		}
	}
	return s
}
