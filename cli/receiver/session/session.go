package session

/*
Метаданные игровых сессий: временное окно и базовая станция с известными координатами.
*/

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

var ErrNotFound = errors.New("сессия не найдена")

type Source interface {
	GetSession(ctx context.Context, id string) (types.Session, error)
	SetReference(ctx context.Context, id string, reference types.Reference) error
}

// Поля записи сессии
const (
	FieldFrom      = "from"
	FieldTo        = "to"
	FieldBaseMAC   = "base_mac"
	FieldBaseLat   = "base_lat"
	FieldBaseLon   = "base_lon"
	FieldUpdatedAt = "updated_at"
)

// Decode собирает сессию из плоской записи. Базовая станция необязательна.
func Decode(id string, fields map[string]string) (types.Session, error) {
	s := types.Session{ID: id}

	var err error
	if s.Window.From, err = time.Parse(time.RFC3339Nano, fields[FieldFrom]); err != nil {
		return s, fmt.Errorf("некорректное начало сессии %s: %v", id, err)
	}
	if s.Window.To, err = time.Parse(time.RFC3339Nano, fields[FieldTo]); err != nil {
		return s, fmt.Errorf("некорректное окончание сессии %s: %v", id, err)
	}
	s.Window.From, s.Window.To = s.Window.From.UTC(), s.Window.To.UTC()
	if !s.Window.From.Before(s.Window.To) {
		return s, fmt.Errorf("пустое окно сессии %s", id)
	}

	s.BaseDeviceID = fields[FieldBaseMAC]

	// базовая станция назначена, но её координаты ещё не измерены
	if s.BaseDeviceID == "" || (fields[FieldBaseLat] == "" && fields[FieldBaseLon] == "") {
		return s, nil
	}
	ref := types.Reference{DeviceID: fields[FieldBaseMAC]}
	if ref.Latitude, err = strconv.ParseFloat(fields[FieldBaseLat], 64); err != nil {
		return s, fmt.Errorf("некорректная широта базовой станции сессии %s: %v", id, err)
	}
	if ref.Longitude, err = strconv.ParseFloat(fields[FieldBaseLon], 64); err != nil {
		return s, fmt.Errorf("некорректная долгота базовой станции сессии %s: %v", id, err)
	}
	s.Reference = &ref

	return s, nil
}

// EncodeReference поля записи для базовой станции
func EncodeReference(reference types.Reference, updatedAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		FieldBaseMAC:   reference.DeviceID,
		FieldBaseLat:   strconv.FormatFloat(reference.Latitude, 'f', -1, 64),
		FieldBaseLon:   strconv.FormatFloat(reference.Longitude, 'f', -1, 64),
		FieldUpdatedAt: updatedAt.UTC().Format(time.RFC3339),
	}
}

// ValidateReference проверяет координаты базовой станции
func ValidateReference(reference types.Reference) error {
	if reference.DeviceID == "" {
		return fmt.Errorf("не задан идентификатор базовой станции")
	}
	if reference.Latitude < -90 || reference.Latitude > 90 {
		return fmt.Errorf("широта вне диапазона: %f", reference.Latitude)
	}
	if reference.Longitude < -180 || reference.Longitude > 180 {
		return fmt.Errorf("долгота вне диапазона: %f", reference.Longitude)
	}
	return nil
}
