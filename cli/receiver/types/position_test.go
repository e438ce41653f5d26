package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/vmihailenco/msgpack.v2"
)

func TestHaversine(t *testing.T) {
	a := Position2D{Latitude: 50.2768529, Longitude: 19.0627862}
	b := Position2D{Latitude: 50.2771, Longitude: 19.0633}

	assert.Equal(t, a.DistanceTo(b), b.DistanceTo(a))
	assert.Zero(t, a.DistanceTo(a))
	assert.InDelta(t, 45.0, a.DistanceTo(b), 5.0)

	// четверть экватора
	assert.InDelta(t, EarthRadius*math.Pi/2, Haversine(0, 0, 0, 90), 1e-6)
}

func TestHaversine_NearAntipodal(t *testing.T) {
	for _, p := range [][4]float64{
		{0, 0, 0, 180},
		{0, 0, 0, -180},
		{90, 0, -90, 0},
		{45, 10, -45, -170},
		{1e-12, 0, -1e-12, 180},
	} {
		d := Haversine(p[0], p[1], p[2], p[3])
		assert.False(t, math.IsNaN(d), "%v", p)
		assert.InDelta(t, EarthRadius*math.Pi, d, 1.0, "%v", p)
	}
}

func TestPosition_DistanceTo(t *testing.T) {
	a := Position2D{Latitude: 52.0, Longitude: 21.0}
	b := Position2D{Latitude: 52.00001, Longitude: 21.0}

	assert.InDelta(t, 1.11, a.DistanceTo(b), 0.01)
	assert.Equal(t, a.DistanceTo(b), b.DistanceTo(a))
}

func TestFix_ToBytes(t *testing.T) {
	fix := Fix{
		Timestamp:  time.Date(2026, 1, 9, 16, 23, 52, 800000000, time.UTC),
		DeviceID:   "AA:BB:CC:DD:EE:FF",
		Latitude:   50.2768529,
		Longitude:  19.0627862,
		Altitude:   267.24,
		Satellites: 8,
		HDOP:       0.49,
		Quality:    1,
		Speed:      4.51888,
		Course:     163.88,
	}

	data, err := fix.ToBytes()
	require.NoError(t, err)

	var m fixMessage
	require.NoError(t, msgpack.Unmarshal(data, &m))
	assert.Equal(t, fix.Timestamp.UnixNano(), m.Timestamp)
	assert.Equal(t, fix.DeviceID, m.DeviceID)
	assert.Equal(t, fix.Latitude, m.Latitude)
	assert.Equal(t, fix.Speed, m.Speed)
	assert.Equal(t, fix.Course, m.Course)
}

func TestWindow(t *testing.T) {
	w := DayWindow(time.Date(2026, 1, 9, 16, 23, 52, 0, time.UTC))

	assert.Equal(t, time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), w.To)
}
