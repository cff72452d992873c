package verbose

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEnableDisable tests the behavior of Enable and Disable functions.
//
// It verifies:
//   - Disable sets enabled state to false
//   - Enable sets enabled state to true
//   - IsEnabled returns correct state
func TestEnableDisable(t *testing.T) {
	Disable()
	assert.False(t, IsEnabled())

	Enable()
	assert.True(t, IsEnabled())

	Disable()
	assert.False(t, IsEnabled())
}

// TestSetWriter tests the behavior of SetWriter.
//
// It verifies:
//   - Writer can be set and messages are written to it
//   - nil writer parameter is ignored
//   - Verbose messages include [DEBUG] prefix
func TestSetWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	SetWriter(buf)

	Enable()
	Printf("test message")
	Disable()

	assert.Contains(t, buf.String(), "[DEBUG] test message")

	SetWriter(nil)
	buf.Reset()
	Enable()
	Printf("another message")
	Disable()
	assert.Contains(t, buf.String(), "[DEBUG] another message")
}

// TestPrintf tests the behavior of Printf.
func TestPrintf(t *testing.T) {
	buf := &bytes.Buffer{}
	SetWriter(buf)

	Disable()
	Printf("should not appear")
	assert.Empty(t, buf.String())

	Enable()
	Printf("test %s %d", "arg", 42)
	Disable()

	assert.Contains(t, buf.String(), "[DEBUG] test arg 42")
}

// TestInfof tests the behavior of Infof.
func TestInfof(t *testing.T) {
	buf := &bytes.Buffer{}
	SetWriter(buf)

	Disable()
	Infof("should not %s", "appear")
	assert.Empty(t, buf.String())

	Enable()
	Infof("info %s %d", "formatted", 123)
	Disable()

	assert.Contains(t, buf.String(), "[DEBUG] info formatted 123")
}

// TestDebugfRespectsLevel verifies Debugf only prints at LevelDebug or above.
func TestDebugfRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetWriter(buf)
	Enable()
	SetLevel(LevelVerbose)

	Debugf("resolving %s", "Blank.esm")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debugf("resolving %s", "Blank.esm")
	Disable()
	SetLevel(LevelVerbose)

	assert.Contains(t, buf.String(), "[DEBUG] resolving Blank.esm")
}

// TestTracefRespectsLevel verifies Tracef only prints at LevelTrace.
func TestTracefRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetWriter(buf)
	Enable()
	SetLevel(LevelDebug)

	Tracef("tree: %s", "and(file(\"x\"))")
	assert.Empty(t, buf.String())

	SetLevel(LevelTrace)
	Tracef("tree: %s", "and(file(\"x\"))")
	Disable()
	SetLevel(LevelVerbose)

	assert.Contains(t, buf.String(), "[TRACE] tree: and(file(\"x\"))")
}
