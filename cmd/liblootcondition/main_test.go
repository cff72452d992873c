package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/gamecode"
)

func cstr(s string) *C.char {
	return C.CString(s)
}

func TestConditionParseAcceptsWellFormedExpression(t *testing.T) {
	expr := cstr(`file("Blank.esp")`)
	defer C.free(unsafe.Pointer(expr))

	status := condition_parse(expr)
	assert.Equal(t, C.int(cerrors.CodeOK), status)
}

func TestConditionParseRejectsMalformedExpression(t *testing.T) {
	expr := cstr(`file("Blank.esp"`)
	defer C.free(unsafe.Pointer(expr))

	status := condition_parse(expr)
	assert.Equal(t, C.int(cerrors.CodeParsingError), status)

	var out *C.char
	getStatus := get_error_message(&out)
	require.Equal(t, C.int(cerrors.CodeOK), getStatus)
	require.NotNil(t, out)
	assert.Contains(t, C.GoString(out), "Blank.esp")
}

func TestConditionParseRejectsNullExpr(t *testing.T) {
	status := condition_parse(nil)
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), status)
}

func TestStateCreateEvalDestroyRoundTrip(t *testing.T) {
	dataPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataPath, "Blank.esp"), []byte("x"), 0o644))

	dataPathC := cstr(dataPath)
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	status := state_create(&handle, C.int(gamecode.Oblivion), dataPathC, nil)
	require.Equal(t, C.int(cerrors.CodeOK), status)
	require.NotNil(t, handle)
	defer state_destroy(handle)

	present := cstr(`file("Blank.esp")`)
	defer C.free(unsafe.Pointer(present))
	assert.Equal(t, C.int(cerrors.CodeResultTrue), condition_eval(present, handle))

	missing := cstr(`file("Missing.esp")`)
	defer C.free(unsafe.Pointer(missing))
	assert.Equal(t, C.int(cerrors.CodeResultFalse), condition_eval(missing, handle))
}

func TestStateCreateRejectsInvalidGameCode(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	status := state_create(&handle, C.int(999), dataPathC, nil)
	assert.Equal(t, C.int(cerrors.CodeInvalidGameCode), status)
}

func TestStateSetActivePluginsAffectsEval(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.SkyrimSE), dataPathC, nil))
	defer state_destroy(handle)

	name := cstr("Blank.esm")
	defer C.free(unsafe.Pointer(name))
	names := []*C.char{name}
	status := state_set_active_plugins(handle, &names[0], C.size_t(len(names)))
	require.Equal(t, C.int(cerrors.CodeOK), status)

	expr := cstr(`active("Blank.esm")`)
	defer C.free(unsafe.Pointer(expr))
	assert.Equal(t, C.int(cerrors.CodeResultTrue), condition_eval(expr, handle))
}

func TestStateSetActivePluginsNullWithZeroCountClears(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.SkyrimSE), dataPathC, nil))
	defer state_destroy(handle)

	status := state_set_active_plugins(handle, nil, 0)
	assert.Equal(t, C.int(cerrors.CodeOK), status)
}

func TestStateSetActivePluginsNullWithNonZeroCountIsRejected(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.SkyrimSE), dataPathC, nil))
	defer state_destroy(handle)

	status := state_set_active_plugins(handle, nil, 1)
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), status)
}

func TestStateSetActivePluginsNonNullWithZeroCountIsRejected(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.SkyrimSE), dataPathC, nil))
	defer state_destroy(handle)

	name := cstr("Blank.esm")
	defer C.free(unsafe.Pointer(name))
	names := []*C.char{name}

	status := state_set_active_plugins(handle, &names[0], 0)
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), status)
}

func TestStateSetPluginVersionsNullWithNonZeroCountIsRejected(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.SkyrimSE), dataPathC, nil))
	defer state_destroy(handle)

	status := state_set_plugin_versions(handle, nil, 1)
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), status)
}

func TestStateSetCRCCacheNullWithNonZeroCountIsRejected(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.SkyrimSE), dataPathC, nil))
	defer state_destroy(handle)

	status := state_set_crc_cache(handle, nil, 1)
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), status)
}

func TestConditionEvalRejectsDestroyedHandle(t *testing.T) {
	dataPathC := cstr(t.TempDir())
	defer C.free(unsafe.Pointer(dataPathC))

	var handle unsafe.Pointer
	require.Equal(t, C.int(cerrors.CodeOK), state_create(&handle, C.int(gamecode.Skyrim), dataPathC, nil))
	require.Equal(t, C.int(cerrors.CodeOK), state_destroy(handle))

	expr := cstr(`file("Blank.esp")`)
	defer C.free(unsafe.Pointer(expr))
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), condition_eval(expr, handle))
}

func TestGetErrorMessageEscapesEmbeddedNUL(t *testing.T) {
	status := setLastError(&cerrors.InvalidArgument{Message: "bad\x00value"})
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), status)

	var out *C.char
	require.Equal(t, C.int(cerrors.CodeOK), get_error_message(&out))
	require.NotNil(t, out)
	assert.Equal(t, `bad\0value`, C.GoString(out))
}

func TestGetErrorMessageRejectsNullOut(t *testing.T) {
	assert.Equal(t, C.int(cerrors.CodeInvalidArgument), get_error_message(nil))
}
