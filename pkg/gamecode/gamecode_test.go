package gamecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumericValuesMatchFFIContract(t *testing.T) {
	assert.Equal(t, 0, int(Oblivion))
	assert.Equal(t, 1, int(Skyrim))
	assert.Equal(t, 2, int(SkyrimSE))
	assert.Equal(t, 3, int(SkyrimVR))
	assert.Equal(t, 4, int(Fallout3))
	assert.Equal(t, 5, int(FalloutNV))
	assert.Equal(t, 6, int(Fallout4))
	assert.Equal(t, 7, int(Fallout4VR))
	assert.Equal(t, 8, int(Morrowind))
	assert.Equal(t, 9, int(Starfield))
	assert.Equal(t, 10, int(OpenMW))
}

func TestParseRejectsOutOfRange(t *testing.T) {
	_, ok := Parse(11)
	assert.False(t, ok)
	_, ok = Parse(-1)
	assert.False(t, ok)
}

func TestParseAcceptsInRange(t *testing.T) {
	c, ok := Parse(10)
	assert.True(t, ok)
	assert.Equal(t, OpenMW, c)
}

func TestStringForUnknownCode(t *testing.T) {
	assert.Contains(t, Code(99).String(), "99")
}
