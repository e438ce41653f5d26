package track

import (
	"fmt"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

type Mode string

const (
	ModeRaw    Mode = "raw"
	ModeHold   Mode = "hold"
	ModeSmooth Mode = "smooth"
)

const (
	// DefaultThreshold скорость в км/ч, ниже которой устройство считается стоящим
	DefaultThreshold = 0.8
	DefaultWindow    = 3
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeRaw, nil
	case ModeRaw, ModeHold, ModeSmooth:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("неизвестный режим отображения трека: %s", s)
	}
}

// Options параметры отображения. Threshold применяется как есть, 0 отключает порог.
type Options struct {
	Mode      Mode
	Threshold float64
	Window    int
}

func DefaultOptions() Options {
	return Options{Mode: ModeRaw, Threshold: DefaultThreshold, Window: DefaultWindow}
}

// Point точка трека для отображения
type Point struct {
	Timestamp    time.Time `json:"timestamp"`
	DeviceID     string    `json:"mac"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Speed        float64   `json:"speed"`
	StepDistance float64   `json:"step_distance"`
}

type deviceState struct {
	moving   *types.Position2D
	previous *types.Position2D
	window   []types.Position2D
}

// PostProcess готовит отметки к отображению. Отметки должны идти в хронологическом порядке.
func PostProcess(fixes []types.Fix, options Options) []Point {
	if options.Threshold < 0 {
		options.Threshold = 0
	}
	if options.Window <= 0 {
		options.Window = DefaultWindow
	}

	states := map[string]*deviceState{}
	points := make([]Point, 0, len(fixes))

	for _, fix := range fixes {
		state, ok := states[fix.DeviceID]
		if !ok {
			state = &deviceState{}
			states[fix.DeviceID] = state
		}

		raw := fix.Position()
		moving := fix.Speed >= options.Threshold
		display := raw

		switch options.Mode {
		case ModeHold:
			if moving {
				state.moving = &raw
			} else if state.moving != nil {
				display = *state.moving
			}
		case ModeSmooth:
			state.window = append(state.window, raw)
			if len(state.window) > options.Window {
				state.window = state.window[len(state.window)-options.Window:]
			}
			display = mean(state.window)
		}

		point := Point{
			Timestamp: fix.Timestamp,
			DeviceID:  fix.DeviceID,
			Latitude:  display.Latitude,
			Longitude: display.Longitude,
		}
		if moving {
			point.Speed = fix.Speed
			if state.previous != nil {
				point.StepDistance = state.previous.DistanceTo(display)
			}
		}
		state.previous = &display

		points = append(points, point)
	}

	return points
}

func mean(positions []types.Position2D) types.Position2D {
	var m types.Position2D
	for i, p := range positions {
		m.Latitude += (p.Latitude - m.Latitude) / float64(i+1)
		m.Longitude += (p.Longitude - m.Longitude) / float64(i+1)
	}
	return m
}
