package primary

import (
	"strconv"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/stretchr/testify/assert"
)

func TestWhere(t *testing.T) {
	dollar := func(n int) string { return "$" + strconv.Itoa(n) }
	question := func(int) string { return "?" }

	device := "AA:BB:CC:DD:EE:FF"
	after := time.Date(2026, 1, 9, 0, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	before := after.Add(24 * time.Hour)
	quality := 1

	where, args := Where(filter.Fixes{}, dollar)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = Where(filter.Fixes{DeviceID: &device, After: &after, Before: &before, MinQuality: &quality}, dollar)
	assert.Equal(t, " WHERE device_id = $1 AND recorded_at >= $2 AND recorded_at < $3 AND quality >= $4", where)
	assert.Equal(t, []interface{}{device, after.UTC(), before.UTC(), quality}, args)

	where, _ = Where(filter.Fixes{DeviceID: &device, MinQuality: &quality}, question)
	assert.Equal(t, " WHERE device_id = ? AND quality >= ?", where)
}
