package main

import (
	"strings"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/libs/nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	f := fix{
		at:       time.Date(2026, 1, 9, 16, 23, 52, 800000000, time.UTC),
		lat:      50.2768529,
		lon:      19.0627862,
		speedKmh: 4.52,
		course:   163.88,
		sats:     8,
		quality:  1,
	}

	lines := sentences(f)
	require.Len(t, lines, 2)

	parser := nmea.Parser{VerifyChecksum: true}

	s, err := parser.Parse(lines[0])
	require.NoError(t, err)
	gga, err := s.GGA()
	require.NoError(t, err)
	assert.Equal(t, 8, gga.Satellites)
	assert.InDelta(t, f.lat, gga.Latitude, 1e-6)
	assert.InDelta(t, f.lon, gga.Longitude, 1e-6)

	s, err = parser.Parse(lines[1])
	require.NoError(t, err)
	assert.Equal(t, nmea.TypeRMC, s.Type)
	assert.Contains(t, lines[1], ",090126,")
	assert.True(t, strings.HasPrefix(lines[1], "$GNRMC,162352.800,A,5016.611174,N,01903.767172,E,2.44,"))
}

func TestBatch(t *testing.T) {
	start := time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC)
	body := batch("AA:BB", []fix{{at: start, quality: 1}, {at: start.Add(time.Second), quality: 1}})

	lines := strings.Split(body, "\n")
	assert.Equal(t, "AA:BB", lines[0])
	assert.Len(t, lines, 1+4+2)
	assert.Equal(t, "", lines[5])
	assert.True(t, strings.HasSuffix(body, "\n\n"))
}
