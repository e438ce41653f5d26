package types

import (
	"time"
)

// Reference базовая станция сессии и её известные истинные координаты
type Reference struct {
	DeviceID  string
	Latitude  float64
	Longitude float64
}

// Window временное окно, [From; To)
type Window struct {
	From time.Time
	To   time.Time
}

// DayWindow окно на весь календарный день в UTC
func DayWindow(date time.Time) Window {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: from.AddDate(0, 0, 1)}
}

// Session игровая сессия (матч): окно времени и, если известна, базовая станция
type Session struct {
	ID     string
	Window Window
	// BaseDeviceID назначенная базовая станция, её координаты могут быть ещё не измерены
	BaseDeviceID string
	Reference    *Reference
}
