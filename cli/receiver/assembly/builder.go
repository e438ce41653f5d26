package assembly

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/daniil11ru/gpstrack/libs/nmea"
)

// Причины отклонения записи
const (
	ReasonNoCoords      = "no_coords"
	ReasonQuality0      = "quality_0"
	ReasonLowSatellites = "low_satellites"
	ReasonNoDate        = "no_date"
	ReasonBadTimestamp  = "bad_timestamp"
)

type position struct {
	latitude  float64
	longitude float64
	valid     bool
}

// builder накапливает поля предложений с одинаковым временем суток
type builder struct {
	key string

	gga position
	rmc position

	hasGGA     bool
	quality    int
	satellites int
	hdop       float64
	altitude   float64

	hasRMC bool
	speed  float64
	course float64
	date   string
}

func (b *builder) addGGA(gga nmea.GGA) {
	b.hasGGA = true
	b.gga = position{latitude: gga.Latitude, longitude: gga.Longitude, valid: gga.PositionValid}
	b.quality = gga.Quality
	b.satellites = gga.Satellites
	b.hdop = gga.HDOP
	b.altitude = gga.Altitude
}

func (b *builder) addRMC(rmc nmea.RMC) {
	b.hasRMC = true
	if rmc.PositionValid {
		b.rmc = position{latitude: rmc.Latitude, longitude: rmc.Longitude, valid: true}
	}
	b.speed = rmc.Speed
	b.course = rmc.Course
	if rmc.Date != "" {
		b.date = rmc.Date
	}
}

// position позиция GGA имеет приоритет, RMC используется только если GGA нет или она невалидна
func (b *builder) position() position {
	if b.gga.valid {
		return b.gga
	}
	return b.rmc
}

// reasons причины отклонения, пустой список – запись принимается
func (b *builder) reasons(minSatellites int, hasFallbackDate bool) []string {
	var reasons []string
	if !b.position().valid {
		reasons = append(reasons, ReasonNoCoords)
	}
	if b.quality <= 0 {
		reasons = append(reasons, ReasonQuality0)
	}
	if b.satellites < minSatellites {
		reasons = append(reasons, ReasonLowSatellites)
	}
	if b.date == "" && !hasFallbackDate {
		reasons = append(reasons, ReasonNoDate)
	}
	return reasons
}

func (b *builder) fix(deviceID string, timestamp time.Time) types.Fix {
	p := b.position()
	return types.Fix{
		Timestamp:  timestamp,
		DeviceID:   deviceID,
		Latitude:   p.latitude,
		Longitude:  p.longitude,
		Altitude:   b.altitude,
		Satellites: b.satellites,
		HDOP:       b.hdop,
		Quality:    b.quality,
		Speed:      b.speed,
		Course:     b.course,
	}
}

// ParseTimestamp собирает время UTC из даты DDMMYY и времени суток HHMMSS[.sss]
func ParseTimestamp(date string, timeOfDay string) (time.Time, error) {
	if len(date) != 6 || !isDigits(date) {
		return time.Time{}, fmt.Errorf("некорректная дата %q", date)
	}
	day, _ := strconv.Atoi(date[0:2])
	month, _ := strconv.Atoi(date[2:4])
	year, _ := strconv.Atoi(date[4:6])

	return combine(2000+year, time.Month(month), day, timeOfDay)
}

// ParseTimeOnDate собирает время UTC из календарной даты и времени суток HHMMSS[.sss]
func ParseTimeOnDate(date time.Time, timeOfDay string) (time.Time, error) {
	return combine(date.Year(), date.Month(), date.Day(), timeOfDay)
}

func combine(year int, month time.Month, day int, timeOfDay string) (time.Time, error) {
	clock, fraction := timeOfDay, ""
	if dot := strings.IndexByte(timeOfDay, '.'); dot != -1 {
		clock, fraction = timeOfDay[:dot], timeOfDay[dot+1:]
	}
	if len(clock) != 6 || !isDigits(clock) || !isDigits(fraction) {
		return time.Time{}, fmt.Errorf("некорректное время %q", timeOfDay)
	}
	hour, _ := strconv.Atoi(clock[0:2])
	minute, _ := strconv.Atoi(clock[2:4])
	second, _ := strconv.Atoi(clock[4:6])

	nanos := 0
	if fraction != "" {
		if len(fraction) > 9 {
			fraction = fraction[:9]
		}
		nanos, _ = strconv.Atoi(fraction + strings.Repeat("0", 9-len(fraction)))
	}

	if month < time.January || month > time.December || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("дата или время вне допустимого диапазона: %d-%02d-%02d %s", year, month, day, timeOfDay)
	}

	t := time.Date(year, month, day, hour, minute, second, nanos, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("несуществующая дата: %d-%02d-%02d", year, month, day)
	}
	return t, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
