package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDocument_RoundTrip(t *testing.T) {
	fix := types.Fix{
		Timestamp:  time.Date(2026, 1, 9, 16, 23, 52, 800123456, time.UTC),
		DeviceID:   "AA:BB",
		Latitude:   50.2768529,
		Longitude:  19.0627862,
		Altitude:   267.24,
		Satellites: 8,
		HDOP:       0.49,
		Quality:    1,
		Speed:      4.52,
		Course:     163.88,
	}

	d := toDocument(fix)
	assert.Equal(t, int64(1767975832800123), d.RecordedUs)

	back := d.fix()
	fix.Timestamp = time.Date(2026, 1, 9, 16, 23, 52, 800123000, time.UTC)
	assert.Equal(t, fix, back)
}

func TestQuery(t *testing.T) {
	device := "AA:BB"
	after := time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC)
	before := after.Add(time.Hour)
	quality := 1

	assert.Equal(t, bson.M{}, query(filter.Fixes{}))
	assert.Equal(t, bson.M{
		"device_id":   device,
		"recorded_us": bson.M{"$gte": after.UnixMicro(), "$lt": before.UnixMicro()},
		"quality":     bson.M{"$gte": 1},
	}, query(filter.Fixes{DeviceID: &device, After: &after, Before: &before, MinQuality: &quality}))
	assert.Equal(t, bson.M{"recorded_us": bson.M{"$lt": before.UnixMicro()}}, query(filter.Fixes{Before: &before}))
}

func TestConnect_NoURI(t *testing.T) {
	_, err := Connect(context.Background(), map[string]string{"driver": "mongodb"})
	assert.Error(t, err)
}
