package stability

/*
Оценка стабильности устройств по разбросу их отметок вокруг средней позиции.
Устройство с наименьшим разбросом – кандидат в базовые станции.
*/

import (
	"math"
	"sort"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

type Class string

const (
	High   Class = "high"
	Medium Class = "medium"
	Low    Class = "low"
)

const (
	HighThreshold   = 5.0
	MediumThreshold = 20.0

	// MinPoints минимальное количество отметок устройства для оценки
	MinPoints = 2
)

func Classify(meanDistance float64) Class {
	switch {
	case meanDistance < HighThreshold:
		return High
	case meanDistance < MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// Record оценка одного устройства, расстояния в метрах
type Record struct {
	DeviceID     string  `json:"mac"`
	Points       int     `json:"points"`
	MeanLat      float64 `json:"mean_lat"`
	MeanLon      float64 `json:"mean_lon"`
	MeanDistance float64 `json:"mean_distance"`
	StdDev       float64 `json:"std_dev"`
	MinDistance  float64 `json:"min_distance"`
	MaxDistance  float64 `json:"max_distance"`
	Class        Class   `json:"stability"`
}

// Analyze возвращает оценки устройств по возрастанию среднего отклонения
func Analyze(fixes []types.Fix) []Record {
	byDevice := map[string][]types.Position2D{}
	for _, fix := range fixes {
		byDevice[fix.DeviceID] = append(byDevice[fix.DeviceID], fix.Position())
	}

	records := make([]Record, 0, len(byDevice))
	for deviceID, positions := range byDevice {
		if len(positions) < MinPoints {
			continue
		}
		records = append(records, analyzeDevice(deviceID, positions))
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].MeanDistance != records[j].MeanDistance {
			return records[i].MeanDistance < records[j].MeanDistance
		}
		return records[i].DeviceID < records[j].DeviceID
	})

	return records
}

func analyzeDevice(deviceID string, positions []types.Position2D) Record {
	var center types.Position2D
	for i, p := range positions {
		center.Latitude += (p.Latitude - center.Latitude) / float64(i+1)
		center.Longitude += (p.Longitude - center.Longitude) / float64(i+1)
	}

	record := Record{
		DeviceID:    deviceID,
		Points:      len(positions),
		MeanLat:     center.Latitude,
		MeanLon:     center.Longitude,
		MinDistance: math.Inf(1),
	}

	distances := make([]float64, len(positions))
	for i, p := range positions {
		d := center.DistanceTo(p)
		distances[i] = d
		record.MeanDistance += (d - record.MeanDistance) / float64(i+1)
		record.MinDistance = math.Min(record.MinDistance, d)
		record.MaxDistance = math.Max(record.MaxDistance, d)
	}

	if n := len(distances); n > 1 {
		var sum float64
		for _, d := range distances {
			sum += (d - record.MeanDistance) * (d - record.MeanDistance)
		}
		record.StdDev = math.Sqrt(sum / float64(n-1))
	}

	record.Class = Classify(record.MeanDistance)
	return record
}

// Best самое стабильное устройство, false – если оценок нет
func Best(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	return records[0], true
}
