package domain

import (
	"context"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/track"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	log "github.com/sirupsen/logrus"
)

type TrackRequest struct {
	SessionID string
	Hours     int
	DeviceID  string
	// Mode пустой режим означает режим из настроек
	Mode track.Mode
	// Threshold порог скорости в км/ч, nil означает порог из настроек
	Threshold *float64
}

type Track struct {
	Window    types.Window
	Reference *types.Reference
	Stats     track.Stats
	Points    []track.Point
}

// ReconstructTrack восстанавливает треки устройств за сессию или последние часы
type ReconstructTrack struct {
	Fixes    primary.PrimarySource
	Sessions session.Source

	Correction track.Config
	// Mode и Threshold применяются, если запрос их не задаёт. Пустой Mode означает raw, nil Threshold – track.DefaultThreshold.
	Mode         track.Mode
	Threshold    *float64
	Window       int
	DefaultHours int
}

func (u *ReconstructTrack) options(req TrackRequest) track.Options {
	options := track.DefaultOptions()
	if u.Mode != "" {
		options.Mode = u.Mode
	}
	if req.Mode != "" {
		options.Mode = req.Mode
	}
	if u.Threshold != nil {
		options.Threshold = *u.Threshold
	}
	if req.Threshold != nil {
		options.Threshold = *req.Threshold
	}
	if u.Window > 0 {
		options.Window = u.Window
	}
	return options
}

func (u *ReconstructTrack) Run(ctx context.Context, req TrackRequest) (Track, error) {
	sc, err := resolveScope(ctx, u.Sessions, req.SessionID, req.Hours, u.DefaultHours)
	if err != nil {
		return Track{}, err
	}

	// поправка считается по всем устройствам, поэтому фильтр по устройству применяется после неё
	fixes, err := queryFixes(ctx, u.Fixes, sc.window, "")
	if err != nil {
		return Track{}, err
	}

	corrected, stats := track.Correct(fixes, sc.reference, u.Correction)
	if req.DeviceID != "" {
		filtered := corrected[:0]
		for _, fix := range corrected {
			if fix.DeviceID == req.DeviceID {
				filtered = append(filtered, fix)
			}
		}
		corrected = filtered
	}

	points := track.PostProcess(corrected, u.options(req))

	log.WithFields(log.Fields{
		"session": req.SessionID,
		"fixes":   len(fixes),
		"points":  len(points),
	}).Debug("Восстановлен трек")

	return Track{Window: sc.window, Reference: sc.reference, Stats: stats, Points: points}, nil
}
