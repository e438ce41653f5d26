package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

var now = time.Now // For mocking time.Now() in tests

var (
	ErrStore        = errors.New("ошибка хранилища отметок")
	ErrSession      = errors.New("ошибка получения сессии")
	ErrInvalidInput = errors.New("некорректные параметры запроса")
)

// DefaultHours глубина выборки по умолчанию, если сессия не указана
const DefaultHours = 24

// Publisher выходные хранилища для принятых отметок
type Publisher interface {
	Save(interface{ ToBytes() ([]byte, error) }) error
}

// scope окно выборки и базовая станция для запроса по сессии или по последним часам
type scope struct {
	window    types.Window
	reference *types.Reference
}

func resolveScope(ctx context.Context, sessions session.Source, sessionID string, hours int, defaultHours int) (scope, error) {
	if sessionID == "" {
		if hours <= 0 {
			hours = defaultHours
		}
		if hours <= 0 {
			hours = DefaultHours
		}
		to := now().UTC()
		return scope{window: types.Window{From: to.Add(-time.Duration(hours) * time.Hour), To: to}}, nil
	}

	if sessions == nil {
		return scope{}, fmt.Errorf("%w: источник сессий не настроен", ErrSession)
	}
	s, err := sessions.GetSession(ctx, sessionID)
	if err != nil {
		return scope{}, fmt.Errorf("%w: %w", ErrSession, err)
	}
	return scope{window: s.Window, reference: s.Reference}, nil
}

func queryFixes(ctx context.Context, fixes primary.PrimarySource, window types.Window, deviceID string) ([]types.Fix, error) {
	minQuality := 1
	f := filter.Fixes{After: &window.From, Before: &window.To, MinQuality: &minQuality}
	if deviceID != "" {
		f.DeviceID = &deviceID
	}

	result, err := fixes.GetFixes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return result, nil
}
