package track

import (
	"fmt"
	"sort"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	log "github.com/sirupsen/logrus"
)

// Policy что делать с тиками, для которых нет вектора поправки
type Policy string

const (
	PassThrough Policy = "pass_through"
	Drop        Policy = "drop"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PassThrough, nil
	case PassThrough, Drop:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("неизвестная политика для тиков без поправки: %s", s)
	}
}

// Vector поправка в градусах, которую нужно прибавить к координатам
type Vector struct {
	Latitude     float64
	Longitude    float64
	Interpolated bool
}

type Config struct {
	Width       time.Duration
	Interpolate bool
	Uncorrected Policy
	// MaxGapTicks максимальное число пропущенных тиков, через которое ещё допускается интерполяция, 0 – без ограничения
	MaxGapTicks int
}

func DefaultConfig() Config {
	return Config{Width: DefaultTickWidth, Interpolate: true, Uncorrected: PassThrough}
}

type Stats struct {
	Measured     int
	Interpolated int
	Uncorrected  int
	Dropped      int
}

// Corrector компенсирует общий дрейф приёмников по базовой станции с известными координатами
type Corrector struct {
	config    Config
	reference *types.Reference
}

func NewCorrector(config Config, reference *types.Reference) *Corrector {
	if config.Width <= 0 {
		config.Width = DefaultTickWidth
	}
	if config.Uncorrected == "" {
		config.Uncorrected = PassThrough
	}
	return &Corrector{config: config, reference: reference}
}

// Vectors поправки для тиков. Измеренная поправка есть у тиков с отметками базовой станции,
// между соседними измеренными тиками поправка интерполируется линейно, за их пределами – нет.
func (c *Corrector) Vectors(ticks []Tick) map[int64]Vector {
	vectors := map[int64]Vector{}
	if c.reference == nil {
		return vectors
	}

	var measured []int64
	for _, tick := range ticks {
		var (
			n             int
			meanLatitude  float64
			meanLongitude float64
		)
		for _, fix := range tick.Fixes {
			if fix.DeviceID != c.reference.DeviceID {
				continue
			}
			n++
			meanLatitude += (fix.Latitude - meanLatitude) / float64(n)
			meanLongitude += (fix.Longitude - meanLongitude) / float64(n)
		}
		if n == 0 {
			continue
		}
		vectors[tick.Index] = Vector{
			Latitude:  c.reference.Latitude - meanLatitude,
			Longitude: c.reference.Longitude - meanLongitude,
		}
		measured = append(measured, tick.Index)
	}

	if !c.config.Interpolate || len(measured) < 2 {
		return vectors
	}
	sort.Slice(measured, func(i, j int) bool { return measured[i] < measured[j] })

	for _, tick := range ticks {
		if _, ok := vectors[tick.Index]; ok {
			continue
		}
		next := sort.Search(len(measured), func(i int) bool { return measured[i] > tick.Index })
		if next == 0 || next == len(measured) {
			continue
		}
		a, b := measured[next-1], measured[next]
		if gap := b - a - 1; c.config.MaxGapTicks > 0 && gap > int64(c.config.MaxGapTicks) {
			continue
		}

		va, vb := vectors[a], vectors[b]
		ratio := float64(tick.Index-a) / float64(b-a)
		vectors[tick.Index] = Vector{
			Latitude:     va.Latitude + (vb.Latitude-va.Latitude)*ratio,
			Longitude:    va.Longitude + (vb.Longitude-va.Longitude)*ratio,
			Interpolated: true,
		}
	}

	return vectors
}

// Correct применяет поправки и возвращает новые тики, исходные не изменяются
func (c *Corrector) Correct(ticks []Tick) ([]Tick, Stats) {
	var stats Stats
	result := make([]Tick, 0, len(ticks))

	if c.reference == nil {
		for _, tick := range ticks {
			result = append(result, copyTick(tick))
		}
		stats.Uncorrected = len(ticks)
		return result, stats
	}

	vectors := c.Vectors(ticks)
	for _, tick := range ticks {
		corrected := copyTick(tick)

		v, ok := vectors[tick.Index]
		if !ok {
			if c.config.Uncorrected == Drop {
				stats.Dropped++
				continue
			}
			stats.Uncorrected++
			result = append(result, corrected)
			continue
		}

		if v.Interpolated {
			stats.Interpolated++
		} else {
			stats.Measured++
		}
		for i := range corrected.Fixes {
			corrected.Fixes[i].Latitude += v.Latitude
			corrected.Fixes[i].Longitude += v.Longitude
		}
		result = append(result, corrected)
	}

	log.WithFields(log.Fields{
		"base":         c.reference.DeviceID,
		"measured":     stats.Measured,
		"interpolated": stats.Interpolated,
		"uncorrected":  stats.Uncorrected,
		"dropped":      stats.Dropped,
	}).Debug("Применена поправка по базовой станции")

	return result, stats
}

func copyTick(tick Tick) Tick {
	fixes := make([]types.Fix, len(tick.Fixes))
	copy(fixes, tick.Fixes)
	return Tick{Index: tick.Index, Start: tick.Start, Fixes: fixes}
}

// Correct раскладывает отметки по тикам, применяет поправку и возвращает отметки в хронологическом порядке
func Correct(fixes []types.Fix, reference *types.Reference, config Config) ([]types.Fix, Stats) {
	corrector := NewCorrector(config, reference)
	ticks, stats := corrector.Correct(Align(fixes, corrector.config.Width))
	return Flatten(ticks), stats
}
