package response

import "github.com/daniil11ru/gpstrack/cli/receiver/stability"

type StabilityRecord struct {
	MAC          string  `json:"mac"`
	Points       int     `json:"points"`
	AvgDistance  float64 `json:"avg_distance_m"`
	StdDev       float64 `json:"std_dev_m"`
	MaxDistance  float64 `json:"max_distance_m"`
	MinDistance  float64 `json:"min_distance_m"`
	AvgLatitude  float64 `json:"avg_lat"`
	AvgLongitude float64 `json:"avg_lon"`
	Stability    string  `json:"stability_score"`
}

type GetStability struct {
	TotalMACs     int               `json:"total_macs"`
	Stability     []StabilityRecord `json:"stability"`
	BestCandidate *string           `json:"best_candidate"`
}

func NewStability(records []stability.Record) GetStability {
	result := GetStability{
		TotalMACs: len(records),
		Stability: make([]StabilityRecord, 0, len(records)),
	}
	for _, r := range records {
		result.Stability = append(result.Stability, StabilityRecord{
			MAC:          r.DeviceID,
			Points:       r.Points,
			AvgDistance:  Round(r.MeanDistance, 2),
			StdDev:       Round(r.StdDev, 2),
			MaxDistance:  Round(r.MaxDistance, 2),
			MinDistance:  Round(r.MinDistance, 2),
			AvgLatitude:  Round(r.MeanLat, 6),
			AvgLongitude: Round(r.MeanLon, 6),
			Stability:    string(r.Class),
		})
	}
	if best, ok := stability.Best(records); ok {
		result.BestCandidate = &best.DeviceID
	}
	return result
}
