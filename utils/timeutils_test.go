package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIso8601FromUnixSeconds(t *testing.T) {
	assert.Equal(t, "2024-03-01T04:00:00Z", Iso8601FromUnixSeconds(1709265600))
	assert.Equal(t, "", Iso8601FromUnixSeconds(0))
}

func TestIso8601FromTime(t *testing.T) {
	kl := time.FixedZone("MYT", 8*3600)
	assert.Equal(t, "2024-03-01T04:00:00Z", Iso8601FromTime(time.Date(2024, 3, 1, 12, 0, 0, 0, kl)))
	assert.Equal(t, "", Iso8601FromTime(time.Time{}))
}

func TestIso8601Now(t *testing.T) {
	parsed, err := time.Parse(time.RFC3339, Iso8601Now())
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, 2*time.Second)
}
