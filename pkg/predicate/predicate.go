// Package predicate implements every condition function of §4.D as a pure
// function of (Function, *state.State): file existence, active-plugin
// membership, checksums, version comparisons, plugin master/description
// queries, and the regex-driven "many" family. Every invocation consults
// and populates state's condition_cache, so a cache hit short-circuits all
// I/O, per §4.D.
package predicate

import (
	"hash/crc32"
	"io"
	"os"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/condition"
	"github.com/loot/condition-interpreter/pkg/pathresolve"
	"github.com/loot/condition-interpreter/pkg/pe"
	"github.com/loot/condition-interpreter/pkg/version"
	"github.com/loot/condition-interpreter/pkg/verbose"

	"github.com/loot/condition-interpreter/pkg/state"
)

// Eval evaluates one Function against st, consulting and populating the
// condition cache. Errors surface unchanged to the caller; per §7, the
// cache is never populated on error.
func Eval(fn *condition.Function, st *state.State) (bool, error) {
	fp := fn.Fingerprint()
	if cached, ok := st.ConditionCache(fp); ok {
		return cached, nil
	}

	result, err := dispatch(fn, st)
	if err != nil {
		return false, err
	}

	st.SetConditionCache(fp, result)
	return result, nil
}

func dispatch(fn *condition.Function, st *state.State) (bool, error) {
	switch fn.Kind {
	case condition.FuncFile:
		return evalFile(fn, st)
	case condition.FuncFileRegex:
		return evalFileRegex(fn, st)
	case condition.FuncActive:
		return st.IsActive(fn.Path.Raw), nil
	case condition.FuncActiveRegex:
		return evalActiveRegex(fn, st)
	case condition.FuncMany:
		return evalMany(fn, st)
	case condition.FuncManyActive:
		return evalManyActive(fn, st)
	case condition.FuncChecksum:
		return evalChecksum(fn, st)
	case condition.FuncVersion:
		return evalVersion(fn, st, false)
	case condition.FuncProductVersion:
		return evalVersion(fn, st, true)
	case condition.FuncFilenameVersion:
		return evalFilenameVersion(fn, st)
	case condition.FuncReadable:
		return evalReadable(fn, st)
	case condition.FuncIsExecutable:
		return evalIsExecutable(fn, st)
	case condition.FuncIsMaster:
		return evalIsMaster(fn, st)
	case condition.FuncFileSize:
		return evalFileSize(fn, st)
	case condition.FuncDescriptionContains:
		return evalDescriptionContains(fn, st)
	default:
		return false, nil
	}
}

func evalFile(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	return resolved.Exists, nil
}

func evalFileRegex(fn *condition.Function, st *state.State) (bool, error) {
	dir, _, ok := pathresolve.ResolveDirRegex(st.PathContext(), fn.Regex.Raw)
	if !ok {
		return false, nil
	}
	re := fn.Regex.MustMatcher()
	for _, name := range pathresolve.ListChildren(dir) {
		if re.MatchString(name) {
			return true, nil
		}
	}
	return false, nil
}

func evalActiveRegex(fn *condition.Function, st *state.State) (bool, error) {
	re := fn.Regex.MustMatcher()
	for _, name := range st.ActiveNames() {
		if re.MatchString(name) {
			return true, nil
		}
	}
	return false, nil
}

func evalMany(fn *condition.Function, st *state.State) (bool, error) {
	dir, _, ok := pathresolve.ResolveDirRegex(st.PathContext(), fn.Regex.Raw)
	if !ok {
		return false, nil
	}
	re := fn.Regex.MustMatcher()
	count := 0
	for _, name := range pathresolve.ListChildren(dir) {
		if re.MatchString(name) {
			count++
			if count > 1 {
				return true, nil
			}
		}
	}
	return false, nil
}

func evalManyActive(fn *condition.Function, st *state.State) (bool, error) {
	re := fn.Regex.MustMatcher()
	count := 0
	for _, name := range st.ActiveNames() {
		if re.MatchString(name) {
			count++
			if count > 1 {
				return true, nil
			}
		}
	}
	return false, nil
}

func evalChecksum(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	if !resolved.Exists {
		return false, nil
	}
	crc, err := checksumOf(resolved.Path, fn.Path.Fingerprint(), st)
	if err != nil {
		return false, err
	}
	return crc == fn.CRC, nil
}

// checksumOf returns the CRC32 of the file at resolvedPath, consulting and
// populating st's CRC cache under cacheKey (the normalised path
// fingerprint, matching §4.D). Directories and unreadable files return
// (0, nil) here; the caller already checked existence.
func checksumOf(resolvedPath, cacheKey string, st *state.State) (uint32, error) {
	if cached, ok := st.CRC(cacheKey); ok {
		return cached, nil
	}

	info, err := os.Stat(resolvedPath)
	if err != nil {
		return 0, nil
	}
	if info.IsDir() {
		return 0, nil
	}

	f, err := os.Open(resolvedPath)
	if err != nil {
		return 0, nil
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, nil
	}
	crc := h.Sum32()
	st.SetCRC(cacheKey, crc)
	return crc, nil
}

// compareWithAbsence applies op to the comparison result of a version read
// that may be absent. absent reports whether no version was found at all;
// cmp is version.Compare(have, want) when present. Absence semantics follow
// §4.B: for version/product_version, absence makes every comparator false
// except !=, which is true.
func compareWithAbsence(absent bool, cmp int, op condition.ComparisonOp) bool {
	if absent {
		return op == condition.OpNe
	}
	return applyOp(cmp, op)
}

func applyOp(cmp int, op condition.ComparisonOp) bool {
	switch op {
	case condition.OpEq:
		return cmp == 0
	case condition.OpNe:
		return cmp != 0
	case condition.OpLt:
		return cmp < 0
	case condition.OpGt:
		return cmp > 0
	case condition.OpLe:
		return cmp <= 0
	case condition.OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// evalVersion implements version(path, literal, op) and
// product_version(path, literal, op). A version(...) call against a path
// that has a caller-supplied plugin_versions override uses that override
// instead of reading the file; product_version never consults that
// override (§4.D: "when the path resolves to a plugin and version is
// asked").
func evalVersion(fn *condition.Function, st *state.State, product bool) (bool, error) {
	if !product {
		if override, ok := st.PluginVersionOverride(fn.Path.Raw); ok {
			cmp := version.Compare(override, fn.Version)
			return applyOp(cmp, fn.Op), nil
		}
	}

	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	info, err := pe.Read(resolved.Path)
	if err != nil {
		return false, err
	}

	raw := info.FileVersionString
	if product {
		raw = info.ProductVersionString
	}
	if raw == "" {
		raw = info.FileVersion
		if product {
			raw = info.ProductVersion
		}
	}
	if raw == "" {
		return compareWithAbsence(true, 0, fn.Op), nil
	}

	have := version.Parse(raw)
	return compareWithAbsence(false, version.Compare(have, fn.Version), fn.Op), nil
}

// evalFilenameVersion implements filename_version(regex, literal, op):
// enumerate the resolved directory, run the capturing regex against each
// child, parse the capture as a version, and test the op. True iff any
// child satisfies it; absence is always false regardless of op (§4.B).
func evalFilenameVersion(fn *condition.Function, st *state.State) (bool, error) {
	dir, _, ok := pathresolve.ResolveDirRegex(st.PathContext(), fn.Regex.Raw)
	if !ok {
		return false, nil
	}
	re := fn.Regex.MustMatcher()
	for _, name := range pathresolve.ListChildren(dir) {
		m := re.FindStringSubmatch(name)
		if m == nil || len(m) < 2 {
			continue
		}
		have := version.Parse(m[1])
		if applyOp(version.Compare(have, fn.Version), fn.Op) {
			return true, nil
		}
	}
	return false, nil
}

func evalReadable(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	if !resolved.Exists {
		return false, nil
	}
	f, err := os.Open(resolved.Path)
	if err != nil {
		return false, nil
	}
	f.Close()
	return true, nil
}

func evalIsExecutable(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	if !resolved.Exists {
		return false, nil
	}
	ok, err := pe.IsExecutable(resolved.Path)
	if err != nil {
		return false, &cerrors.PeParsingError{Path: resolved.Path, Err: err}
	}
	return ok, nil
}

// evalIsMaster answers is_master(path). OpenMW's plain-text plugin formats
// never carry a TES3/TES4 header, so the plugin reader already reports
// IsPlugin false for them without any game-specific branch here.
func evalIsMaster(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	if !resolved.Exists {
		return false, nil
	}
	rec, err := st.PluginReader().Read(resolved.Path)
	if err != nil {
		verbose.Debugf("is_master: plugin reader error for %s: %v", resolved.Path, err)
		return false, nil
	}
	return rec.IsPlugin && rec.IsMaster, nil
}

func evalFileSize(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	info, err := os.Stat(resolved.Path)
	if err != nil || info.IsDir() {
		return false, nil
	}
	return uint64(info.Size()) == fn.Size, nil
}

func evalDescriptionContains(fn *condition.Function, st *state.State) (bool, error) {
	resolved := pathresolve.Resolve(st.PathContext(), fn.Path.Raw)
	if !resolved.Exists {
		return false, nil
	}
	rec, err := st.PluginReader().Read(resolved.Path)
	if err != nil {
		return false, nil
	}
	if !rec.IsPlugin || rec.HeaderDescription == "" {
		return false, nil
	}
	re := fn.Regex.MustMatcher()
	return re.MatchString(rec.HeaderDescription), nil
}
