package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------

func TestTimeframeIDIsCaseInsensitive(t *testing.T) {
	for _, code := range []string{"m1", "M1", "h4", "D1", "mn1"} {
		_, ok := TimeframeID(code)
		assert.True(t, ok, "code %s should resolve", code)
	}

	_, ok := TimeframeID("M7")
	assert.False(t, ok)
}

func TestTimeframeSecondsMatchIDs(t *testing.T) {
	for code := range TimeframeIDs {
		secs := TimeframeSeconds(code)
		assert.Greater(t, secs, int64(0), "code %s", code)

		id, _ := TimeframeID(code)
		assert.Equal(t, secs, SecondsForTimeframeID(id), "code %s", code)
	}

	assert.Zero(t, SecondsForTimeframeID(99999))
}

func TestHourlyIDsCarryTerminalFlags(t *testing.T) {
	id, _ := TimeframeID("H1")
	assert.Equal(t, 16385, id)
	id, _ = TimeframeID("D1")
	assert.Equal(t, 16408, id)
	id, _ = TimeframeID("W1")
	assert.Equal(t, 32769, id)
}
