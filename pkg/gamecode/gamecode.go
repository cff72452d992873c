// Package gamecode defines the closed enumeration of Bethesda-engine (and
// OpenMW) games the condition interpreter understands, with the exact
// numeric values the C ABI exposes to host applications.
package gamecode

import (
	"fmt"
	"strings"
)

// Code identifies a supported game. Values are part of the C ABI and must
// never be renumbered.
type Code int

const (
	Oblivion Code = iota
	Skyrim
	SkyrimSE
	SkyrimVR
	Fallout3
	FalloutNV
	Fallout4
	Fallout4VR
	Morrowind
	Starfield
	OpenMW
)

// String implements fmt.Stringer for log and error messages.
func (c Code) String() string {
	switch c {
	case Oblivion:
		return "Oblivion"
	case Skyrim:
		return "Skyrim"
	case SkyrimSE:
		return "SkyrimSE"
	case SkyrimVR:
		return "SkyrimVR"
	case Fallout3:
		return "Fallout3"
	case FalloutNV:
		return "FalloutNV"
	case Fallout4:
		return "Fallout4"
	case Fallout4VR:
		return "Fallout4VR"
	case Morrowind:
		return "Morrowind"
	case Starfield:
		return "Starfield"
	case OpenMW:
		return "OpenMW"
	default:
		return fmt.Sprintf("GameCode(%d)", int(c))
	}
}

// Valid reports whether c is one of the closed enumeration's values.
func (c Code) Valid() bool {
	return c >= Oblivion && c <= OpenMW
}

// Parse maps a numeric FFI game code onto a Code, reporting ok=false for
// anything outside the closed enumeration.
func Parse(n int) (Code, bool) {
	c := Code(n)
	return c, c.Valid()
}

// names maps every accepted CLI spelling to its Code, case-insensitively.
// Several common aliases are included (e.g. "SSE" for Skyrim Special
// Edition) since that's how players and mod managers actually refer to
// these games, not just the C-ABI identifier.
var names = map[string]Code{
	"oblivion":    Oblivion,
	"skyrim":      Skyrim,
	"skyrimse":    SkyrimSE,
	"skyrim se":   SkyrimSE,
	"sse":         SkyrimSE,
	"skyrimvr":    SkyrimVR,
	"fallout3":    Fallout3,
	"fallout nv":  FalloutNV,
	"falloutnv":   FalloutNV,
	"fnv":         FalloutNV,
	"fallout4":    Fallout4,
	"fallout4vr":  Fallout4VR,
	"morrowind":   Morrowind,
	"starfield":   Starfield,
	"openmw":      OpenMW,
}

// ParseName maps a human-typed game name (as accepted by the CLI's --game
// flag) onto a Code, ignoring case and surrounding whitespace.
func ParseName(s string) (Code, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	c, ok := names[key]
	return c, ok
}
