package filter

import "time"

// Fixes фильтр выборки отметок, nil – без ограничения. Интервал времени [After; Before).
type Fixes struct {
	DeviceID   *string
	After      *time.Time
	Before     *time.Time
	MinQuality *int
}
