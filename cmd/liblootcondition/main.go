// Command liblootcondition is the cgo shared-library facade for the C ABI
// of §6.2: a C++ host links this as a static or dynamic library and drives
// the condition interpreter through the exported functions below without
// ever touching Go types directly.
//
// Opaque state* handles are runtime/cgo.Handle values round-tripped through
// a C uintptr-sized pointer; the handle's target never escapes this package.
// There is no real thread-local storage reachable from cgo without a
// platform-specific shim, and get_error_message's C signature carries no
// handle or thread identifier to key one by, so the last-error slot is a
// single mutex-guarded package global, overwritten by every call that
// returns a non-OK status. That matches the one-call-at-a-time contract a
// C++ host already honours by serialising access to a given state* (see
// DESIGN.md).
package main

/*
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>

typedef struct plugin_version {
	const char* name;
	const char* version;
} plugin_version;

typedef struct plugin_crc {
	const char* name;
	uint32_t crc;
} plugin_crc;
*/
import "C"

import (
	"runtime/cgo"
	"strings"
	"sync"
	"unsafe"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/condition"
	"github.com/loot/condition-interpreter/pkg/eval"
	"github.com/loot/condition-interpreter/pkg/gamecode"
	"github.com/loot/condition-interpreter/pkg/state"
)

func main() {}

var (
	lastErrMu  sync.Mutex
	lastErrPtr *C.char
)

// setLastError records err in the single process-wide last-error slot (not
// one per thread, so a call on any thread replaces it), freeing any
// previously allocated message, and returns the matching C-ABI status code.
func setLastError(err error) C.int {
	lastErrMu.Lock()
	defer lastErrMu.Unlock()
	if lastErrPtr != nil {
		C.free(unsafe.Pointer(lastErrPtr))
		lastErrPtr = nil
	}
	if err == nil {
		return C.int(cerrors.CodeOK)
	}
	lastErrPtr = C.CString(escapeNUL(err.Error()))
	return C.int(cerrors.CodeOf(err))
}

// escapeNUL replaces embedded NUL bytes with the literal two-character
// sequence "\0" so the message survives a C string boundary intact instead
// of truncating at the first byte.
func escapeNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", `\0`)
}

//export get_error_message
func get_error_message(out **C.char) C.int {
	if out == nil {
		return C.int(cerrors.CodeInvalidArgument)
	}
	lastErrMu.Lock()
	defer lastErrMu.Unlock()
	*out = lastErrPtr
	return C.int(cerrors.CodeOK)
}

//export condition_parse
func condition_parse(expr *C.char) C.int {
	if expr == nil {
		return setLastError(&cerrors.InvalidArgument{Message: "expr must not be null"})
	}
	_, err := condition.Parse(C.GoString(expr))
	if err != nil {
		return setLastError(err)
	}
	return setLastError(nil)
}

//export condition_eval
func condition_eval(expr *C.char, st unsafe.Pointer) C.int {
	if expr == nil || st == nil {
		return setLastError(&cerrors.InvalidArgument{Message: "expr and state must not be null"})
	}
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	parsed, err := condition.Parse(C.GoString(expr))
	if err != nil {
		return setLastError(err)
	}
	result, err := eval.Eval(parsed, s)
	if err != nil {
		return setLastError(err)
	}
	setLastError(nil)
	if result {
		return C.int(cerrors.CodeResultTrue)
	}
	return C.int(cerrors.CodeResultFalse)
}

//export state_create
func state_create(out *unsafe.Pointer, gameCode C.int, dataPath *C.char, lootPath *C.char) C.int {
	_ = lootPath // accepted and ignored for compat, per §6.2
	if out == nil || dataPath == nil {
		return setLastError(&cerrors.InvalidArgument{Message: "out and data_path must not be null"})
	}
	game, ok := gamecode.Parse(int(gameCode))
	if !ok {
		return setLastError(&cerrors.InvalidGameCode{Value: int(gameCode)})
	}
	s, err := state.New(game, C.GoString(dataPath))
	if err != nil {
		return setLastError(err)
	}
	handle := cgo.NewHandle(s)
	*out = unsafe.Pointer(uintptr(handle))
	return setLastError(nil)
}

//export state_destroy
func state_destroy(st unsafe.Pointer) C.int {
	if st == nil {
		return setLastError(nil)
	}
	handle := cgo.Handle(uintptr(st))
	handle.Delete()
	return setLastError(nil)
}

//export state_set_active_plugins
func state_set_active_plugins(st unsafe.Pointer, names **C.char, n C.size_t) C.int {
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	if err := validateMutatorArray(unsafe.Pointer(names), n); err != nil {
		return setLastError(err)
	}
	s.SetActivePlugins(goStrings(names, n))
	return setLastError(nil)
}

//export state_set_additional_data_paths
func state_set_additional_data_paths(st unsafe.Pointer, paths **C.char, n C.size_t) C.int {
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	if err := validateMutatorArray(unsafe.Pointer(paths), n); err != nil {
		return setLastError(err)
	}
	s.SetAdditionalDataPaths(goStrings(paths, n))
	return setLastError(nil)
}

//export state_set_plugin_versions
func state_set_plugin_versions(st unsafe.Pointer, arr *C.plugin_version, n C.size_t) C.int {
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	if err := validateMutatorArray(unsafe.Pointer(arr), n); err != nil {
		return setLastError(err)
	}
	slice := pluginVersionSlice(arr, n)
	entries := make([]state.PluginVersionEntry, len(slice))
	for i, entry := range slice {
		entries[i] = state.PluginVersionEntry{Name: C.GoString(entry.name), Version: C.GoString(entry.version)}
	}
	s.SetPluginVersions(entries)
	return setLastError(nil)
}

//export state_set_crc_cache
func state_set_crc_cache(st unsafe.Pointer, arr *C.plugin_crc, n C.size_t) C.int {
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	if err := validateMutatorArray(unsafe.Pointer(arr), n); err != nil {
		return setLastError(err)
	}
	entries := make(map[string]uint32, int(n))
	for _, entry := range pluginCRCSlice(arr, n) {
		entries[C.GoString(entry.name)] = uint32(entry.crc)
	}
	s.SetCRCCache(entries)
	return setLastError(nil)
}

// validateMutatorArray enforces §4.E's null/count contract for the
// replace-all mutators: a null pointer paired with count 0 means "clear",
// a null pointer with count > 0 is rejected (there's nothing to read n of),
// and a non-null pointer with count 0 is rejected (a caller that means
// "clear" must pass null, not a dangling zero-length array).
func validateMutatorArray(ptr unsafe.Pointer, n C.size_t) error {
	switch {
	case ptr == nil && n > 0:
		return &cerrors.InvalidArgument{Message: "null array argument with non-zero count"}
	case ptr != nil && n == 0:
		return &cerrors.InvalidArgument{Message: "non-null array argument with zero count"}
	default:
		return nil
	}
}

//export state_clear_condition_cache
func state_clear_condition_cache(st unsafe.Pointer) C.int {
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	s.ClearConditionCache()
	return setLastError(nil)
}

//export state_clear_crc_cache
func state_clear_crc_cache(st unsafe.Pointer) C.int {
	s, ok := handleState(st)
	if !ok {
		return setLastError(&cerrors.InvalidArgument{Message: "invalid state handle"})
	}
	s.ClearCRCCache()
	return setLastError(nil)
}

// handleState recovers the *state.State a C caller's opaque handle refers
// to. A handle that was never issued by state_create, or was already
// destroyed, panics inside cgo.Handle.Value -- recovered here and reported
// as an ordinary invalid-argument status instead of crashing the host.
func handleState(st unsafe.Pointer) (s *state.State, ok bool) {
	if st == nil {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			s, ok = nil, false
		}
	}()
	handle := cgo.Handle(uintptr(st))
	s, ok = handle.Value().(*state.State)
	return s, ok
}

// goStrings converts a C array of n NUL-terminated strings into a Go slice.
func goStrings(arr **C.char, n C.size_t) []string {
	count := int(n)
	if count == 0 || arr == nil {
		return nil
	}
	ptrs := unsafe.Slice(arr, count)
	out := make([]string, count)
	for i, p := range ptrs {
		out[i] = C.GoString(p)
	}
	return out
}

func pluginVersionSlice(arr *C.plugin_version, n C.size_t) []C.plugin_version {
	count := int(n)
	if count == 0 || arr == nil {
		return nil
	}
	return unsafe.Slice(arr, count)
}

func pluginCRCSlice(arr *C.plugin_crc, n C.size_t) []C.plugin_crc {
	count := int(n)
	if count == 0 || arr == nil {
		return nil
	}
	return unsafe.Slice(arr, count)
}
