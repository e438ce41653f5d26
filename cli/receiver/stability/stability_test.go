package stability

import (
	"math"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)

// ring четыре отметки на расстоянии radius метров от центра
func ring(deviceID string, lat, lon, radius float64) []types.Fix {
	metersPerDegree := types.EarthRadius * math.Pi / 180
	dLat := radius / metersPerDegree
	dLon := radius / (metersPerDegree * math.Cos(lat*math.Pi/180))

	offsets := [][2]float64{{dLat, 0}, {0, dLon}, {-dLat, 0}, {0, -dLon}}
	fixes := make([]types.Fix, 0, len(offsets))
	for i, o := range offsets {
		fixes = append(fixes, types.Fix{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			DeviceID:  deviceID,
			Latitude:  lat + o[0],
			Longitude: lon + o[1],
			Quality:   1,
		})
	}
	return fixes
}

func TestAnalyze_Ranking(t *testing.T) {
	var fixes []types.Fix
	fixes = append(fixes, ring("C", 50.27, 19.06, 50)...)
	fixes = append(fixes, ring("A", 50.27, 19.06, 2)...)
	fixes = append(fixes, ring("B", 50.27, 19.06, 15)...)
	fixes = append(fixes, types.Fix{DeviceID: "LONELY", Latitude: 50, Longitude: 19, Timestamp: start})

	records := Analyze(fixes)
	require.Len(t, records, 3)

	tests := []struct {
		device string
		radius float64
		class  Class
	}{
		{device: "A", radius: 2, class: High},
		{device: "B", radius: 15, class: Medium},
		{device: "C", radius: 50, class: Low},
	}
	for i, tt := range tests {
		r := records[i]
		assert.Equal(t, tt.device, r.DeviceID)
		assert.Equal(t, 4, r.Points)
		assert.Equal(t, tt.class, r.Class)
		assert.InDelta(t, tt.radius, r.MeanDistance, tt.radius*0.01)
		assert.InDelta(t, tt.radius, r.MinDistance, tt.radius*0.01)
		assert.InDelta(t, tt.radius, r.MaxDistance, tt.radius*0.01)
		assert.InDelta(t, 0, r.StdDev, tt.radius*0.01)
		assert.InDelta(t, 50.27, r.MeanLat, 1e-9)
		assert.InDelta(t, 19.06, r.MeanLon, 1e-9)
	}

	best, ok := Best(records)
	require.True(t, ok)
	assert.Equal(t, "A", best.DeviceID)
}

func TestAnalyze_StdDev(t *testing.T) {
	// отметки на одном меридиане: две на трети шага от центра, одна на двух третях
	fixes := []types.Fix{
		{DeviceID: "X", Latitude: 50.0, Longitude: 19.0},
		{DeviceID: "X", Latitude: 50.0, Longitude: 19.0},
		{DeviceID: "X", Latitude: 50.0001, Longitude: 19.0},
	}

	records := Analyze(fixes)
	require.Len(t, records, 1)
	r := records[0]

	unit := types.Haversine(50.0, 19.0, 50.0001, 19.0)
	assert.InDelta(t, unit/3, r.MinDistance, 1e-6)
	assert.InDelta(t, 2*unit/3, r.MaxDistance, 1e-6)
	assert.InDelta(t, 4*unit/9, r.MeanDistance, 1e-6)

	expected := math.Sqrt((2*math.Pow(unit/3-4*unit/9, 2) + math.Pow(2*unit/3-4*unit/9, 2)) / 2)
	assert.InDelta(t, expected, r.StdDev, 1e-6)
}

func TestAnalyze_Empty(t *testing.T) {
	assert.Empty(t, Analyze(nil))
	assert.Empty(t, Analyze([]types.Fix{{DeviceID: "A"}}))

	_, ok := Best(nil)
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, High, Classify(0))
	assert.Equal(t, High, Classify(4.999))
	assert.Equal(t, Medium, Classify(5))
	assert.Equal(t, Medium, Classify(19.999))
	assert.Equal(t, Low, Classify(20))
}
