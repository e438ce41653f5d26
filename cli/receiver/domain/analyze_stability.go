package domain

import (
	"context"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/stability"
)

type StabilityRequest struct {
	SessionID string
	Hours     int
	DeviceID  string
}

// AnalyzeStability оценивает разброс отметок устройств, чтобы найти кандидата в базовые станции
type AnalyzeStability struct {
	Fixes        primary.PrimarySource
	Sessions     session.Source
	DefaultHours int
}

func (u *AnalyzeStability) Run(ctx context.Context, req StabilityRequest) ([]stability.Record, error) {
	sc, err := resolveScope(ctx, u.Sessions, req.SessionID, req.Hours, u.DefaultHours)
	if err != nil {
		return nil, err
	}

	fixes, err := queryFixes(ctx, u.Fixes, sc.window, req.DeviceID)
	if err != nil {
		return nil, err
	}

	return stability.Analyze(fixes), nil
}
