package response

import (
	"math"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/track"
)

type HistoryPoint struct {
	Timestamp string  `json:"timestamp"`
	MAC       string  `json:"mac"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedKmh  float64 `json:"speed_kmh"`
	StepDist  float64 `json:"step_dist"`
}

type GetHistory []HistoryPoint

// NewHistory координаты округляются до 6 знаков, скорость и шаг до 2
func NewHistory(points []track.Point) GetHistory {
	history := make(GetHistory, 0, len(points))
	for _, p := range points {
		history = append(history, HistoryPoint{
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339Nano),
			MAC:       p.DeviceID,
			Latitude:  Round(p.Latitude, 6),
			Longitude: Round(p.Longitude, 6),
			SpeedKmh:  Round(p.Speed, 2),
			StepDist:  Round(p.StepDistance, 2),
		})
	}
	return history
}

func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
