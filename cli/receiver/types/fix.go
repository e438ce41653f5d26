package types

import (
	"fmt"
	"time"

	"gopkg.in/vmihailenco/msgpack.v2"
)

// Fix одна нормализованная отметка устройства, прошедшая фильтр качества
type Fix struct {
	Timestamp  time.Time `json:"timestamp"`
	DeviceID   string    `json:"mac"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	Satellites int       `json:"num_satellites"`
	HDOP       float64   `json:"hdop"`
	Quality    int       `json:"quality"`
	Speed      float64   `json:"speed_kmh"`
	Course     float64   `json:"course"`
}

func (f Fix) Position() Position2D {
	return Position2D{Latitude: f.Latitude, Longitude: f.Longitude}
}

func (f Fix) String() string {
	return fmt.Sprintf("GPS[%s] @ %s (%f, %f)", f.DeviceID, f.Timestamp.Format(time.RFC3339Nano), f.Latitude, f.Longitude)
}

// fixMessage представление отметки для очередей, время в наносекундах Unix
type fixMessage struct {
	Timestamp  int64   `msgpack:"ts"`
	DeviceID   string  `msgpack:"mac"`
	Latitude   float64 `msgpack:"lat"`
	Longitude  float64 `msgpack:"lon"`
	Altitude   float64 `msgpack:"alt"`
	Satellites int     `msgpack:"sats"`
	HDOP       float64 `msgpack:"hdop"`
	Quality    int     `msgpack:"qual"`
	Speed      float64 `msgpack:"speed"`
	Course     float64 `msgpack:"course"`
}

func (f Fix) ToBytes() ([]byte, error) {
	return msgpack.Marshal(fixMessage{
		Timestamp:  f.Timestamp.UnixNano(),
		DeviceID:   f.DeviceID,
		Latitude:   f.Latitude,
		Longitude:  f.Longitude,
		Altitude:   f.Altitude,
		Satellites: f.Satellites,
		HDOP:       f.HDOP,
		Quality:    f.Quality,
		Speed:      f.Speed,
		Course:     f.Course,
	})
}
