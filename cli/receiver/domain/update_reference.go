package domain

import (
	"context"
	"fmt"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	log "github.com/sirupsen/logrus"
)

// UpdateReference назначает сессии базовую станцию с известными координатами.
// Без идентификатора станции обновляются координаты уже назначенной станции.
type UpdateReference struct {
	Sessions session.Source
}

func (u *UpdateReference) Run(ctx context.Context, sessionID string, reference types.Reference) (types.Reference, error) {
	if sessionID == "" {
		return reference, fmt.Errorf("%w: не задан идентификатор сессии", ErrInvalidInput)
	}
	if u.Sessions == nil {
		return reference, fmt.Errorf("%w: источник сессий не настроен", ErrSession)
	}

	if reference.DeviceID == "" {
		s, err := u.Sessions.GetSession(ctx, sessionID)
		if err != nil {
			return reference, fmt.Errorf("%w: %w", ErrSession, err)
		}
		reference.DeviceID = s.BaseDeviceID
		if reference.DeviceID == "" && s.Reference != nil {
			reference.DeviceID = s.Reference.DeviceID
		}
	}
	if err := session.ValidateReference(reference); err != nil {
		return reference, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := u.Sessions.SetReference(ctx, sessionID, reference); err != nil {
		return reference, fmt.Errorf("%w: %w", ErrSession, err)
	}

	log.WithFields(log.Fields{
		"session": sessionID,
		"mac":     reference.DeviceID,
	}).Infof("Обновлены координаты базовой станции: %f, %f", reference.Latitude, reference.Longitude)
	return reference, nil
}
