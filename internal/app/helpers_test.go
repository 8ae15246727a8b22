package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("mapa.org", "mapa.org"))
	assert.True(t, matchOriginPattern("*.mapa.org", "admin.mapa.org"))
	assert.False(t, matchOriginPattern("*.mapa.org", "mapa.org.evil.com"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:5173"))
	assert.False(t, matchOriginPattern("", "mapa.org"))
	assert.Equal(t, "mapa.org:8080", extractOriginHost("https://mapa.org:8080"))
}

func TestParseTimezoneLocation(t *testing.T) {
	loc, err := parseTimezoneLocation("-03:00")
	require.NoError(t, err)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -3*3600, offset)

	_, err = parseTimezoneLocation("Nowhere/Atlantis")
	assert.Error(t, err)
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "42s", humanizeDuration(42*time.Second+300*time.Millisecond))
	assert.Equal(t, "3m0s", humanizeDuration(3*time.Minute+20*time.Second))
	assert.Equal(t, "5h0m0s", humanizeDuration(5*time.Hour+10*time.Minute))
}
