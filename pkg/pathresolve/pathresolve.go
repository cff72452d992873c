// Package pathresolve translates a condition's path or regex argument into
// a concrete filesystem location under a game's data path and additional
// data paths, applying the per-game ghosting, overlay-precedence, and
// plugin-extension rules of the condition interpreter's path model.
package pathresolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/loot/condition-interpreter/pkg/gamecode"
)

// Context is the subset of State needed to resolve a path: the game and its
// data directories. It is a plain value so callers outside pkg/state
// (tests, the CLI) can construct one without a full State.
type Context struct {
	Game                gamecode.Code
	DataPath            string
	AdditionalDataPaths []string
}

// candidates returns the ordered sequence of base directories to probe,
// highest precedence first: additional data paths then the main data path,
// except for OpenMW where that order is reversed (§4.C step 1).
func (c Context) candidates() []string {
	out := make([]string, 0, len(c.AdditionalDataPaths)+1)
	if c.Game == gamecode.OpenMW {
		out = append(out, c.AdditionalDataPaths...)
		out = append(out, c.DataPath)
		reverse(out)
		return out
	}
	out = append(out, c.AdditionalDataPaths...)
	out = append(out, c.DataPath)
	return out
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// normalizeSeparators converts backslashes to forward slashes for matching
// purposes only; backslashes are a literal path separator in condition
// strings, never an escape (§3).
func normalizeSeparators(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Resolved is the outcome of resolving a plain (non-regex) path argument.
type Resolved struct {
	// Path is the filesystem path to use: the first candidate that existed,
	// or (if none did) the data-path-joined path anyway, per §4.C step 4.
	Path string
	// Exists reports whether Path was found to exist (as file or directory).
	Exists bool
}

// Resolve implements §4.C steps 1-4 for a plain path argument (no regex).
func Resolve(ctx Context, p string) Resolved {
	rel := normalizeSeparators(p)
	if !safeRelativePath(rel) {
		return Resolved{Path: filepath.Join(ctx.DataPath, filepath.FromSlash(rel)), Exists: false}
	}
	ghostable := hasPluginExtension(ctx.Game, rel) && supportsGhosting(ctx.Game)

	for _, base := range ctx.candidates() {
		full := filepath.Join(base, filepath.FromSlash(rel))
		if pathExists(full) {
			return Resolved{Path: full, Exists: true}
		}
		if ghostable && !strings.HasSuffix(strings.ToLower(rel), ".ghost") {
			ghosted := full + ".ghost"
			if pathExists(ghosted) {
				return Resolved{Path: ghosted, Exists: true}
			}
		}
	}

	return Resolved{Path: filepath.Join(ctx.DataPath, filepath.FromSlash(rel)), Exists: false}
}

// ResolveDirRegex splits a regex-bearing argument into a directory prefix
// and a filename pattern (split on the last '/'), resolves the directory
// per §4.C, and returns it plus the pattern and whether the directory was
// found. When the argument has no '/', the directory is "" (meaning: every
// candidate base directory itself).
func ResolveDirRegex(ctx Context, pattern string) (dir string, filenamePattern string, dirExists bool) {
	i := strings.LastIndexByte(pattern, '/')
	if i < 0 {
		filenamePattern = pattern
		for _, base := range ctx.candidates() {
			if pathIsDir(base) {
				return base, filenamePattern, true
			}
		}
		return ctx.DataPath, filenamePattern, false
	}

	dirPart := pattern[:i]
	filenamePattern = pattern[i+1:]
	if !safeRelativePath(dirPart) {
		return filepath.Join(ctx.DataPath, filepath.FromSlash(dirPart)), filenamePattern, false
	}
	for _, base := range ctx.candidates() {
		full := filepath.Join(base, filepath.FromSlash(dirPart))
		if pathIsDir(full) {
			return full, filenamePattern, true
		}
	}
	return filepath.Join(ctx.DataPath, filepath.FromSlash(dirPart)), filenamePattern, false
}

// ListChildren lists the direct children of dir by basename, with exactly
// one trailing ".ghost" suffix stripped from each name so filename regexes
// match the plugin's logical name rather than its on-disk ghosted name
// (§4.C last paragraph). Returns nil if dir doesn't exist or isn't
// readable -- never an error, matching this module's existence semantics.
func ListChildren(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if stripped, ok := strings.CutSuffix(name, ".ghost"); ok {
			name = stripped
		}
		names = append(names, name)
	}
	return names
}

// safeRelativePath reports whether rel stays within whatever base directory
// it will be filepath.Join-ed to: not an absolute path, and not cleaning
// down to (or through) a leading "..". A condition author who writes a path
// alias like "../../Windows/System32/x.dll" gets this returning false, which
// Resolve and ResolveDirRegex turn into an ordinary Exists: false rather
// than an error (§9).
func safeRelativePath(rel string) bool {
	native := filepath.FromSlash(rel)
	if filepath.IsAbs(native) {
		return false
	}
	cleaned := filepath.Clean(native)
	return cleaned != ".." && !strings.HasPrefix(cleaned, ".."+string(filepath.Separator))
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func pathIsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// pluginExtensions lists, per game, the extensions that make a path
// "ghostable" and that the path resolver/predicates recognise as a plugin
// file for extension-based master detection fallback.
func pluginExtensions(g gamecode.Code) []string {
	switch g {
	case gamecode.Morrowind:
		return []string{".esp", ".esm"}
	case gamecode.OpenMW:
		return []string{".omwgame", ".omwaddon", ".omwscripts"}
	case gamecode.SkyrimSE, gamecode.SkyrimVR, gamecode.Fallout4, gamecode.Fallout4VR, gamecode.Starfield:
		return []string{".esp", ".esm", ".esl"}
	default:
		return []string{".esp", ".esm"}
	}
}

func hasPluginExtension(g gamecode.Code, p string) bool {
	ext := strings.ToLower(filepath.Ext(stripGhost(p)))
	for _, e := range pluginExtensions(g) {
		if ext == e {
			return true
		}
	}
	return false
}

func stripGhost(p string) string {
	if stripped, ok := strings.CutSuffix(strings.ToLower(p), ".ghost"); ok {
		return p[:len(stripped)]
	}
	return p
}

// supportsGhosting reports whether the game recognises trailing ".ghost"
// suffixes on plugin files; OpenMW does not (§3).
func supportsGhosting(g gamecode.Code) bool {
	return g != gamecode.OpenMW
}

// IsPluginExtension reports whether p's extension is a recognised plugin
// extension for game g, ignoring any ".ghost" suffix and case. Exported for
// predicates that need to classify a resolved path without re-deriving the
// per-game extension list themselves.
func IsPluginExtension(g gamecode.Code, p string) bool {
	return hasPluginExtension(g, p)
}
