package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 9, 16, 23, 52, 800000000, time.UTC)

func TestAddFix_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	fix := types.Fix{Timestamp: start, DeviceID: "A", Latitude: 50, Longitude: 19, Quality: 1}

	inserted, err := s.AddFix(ctx, fix)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.AddFix(ctx, fix)
	require.NoError(t, err)
	assert.False(t, inserted)

	// разница меньше микросекунды – тот же ключ
	fix.Timestamp = start.Add(300 * time.Nanosecond)
	inserted, _ = s.AddFix(ctx, fix)
	assert.False(t, inserted)

	// отметки с разницей в доли секунды различаются
	fix.Timestamp = start.Add(100 * time.Millisecond)
	inserted, _ = s.AddFix(ctx, fix)
	assert.True(t, inserted)

	fix.DeviceID = "B"
	inserted, _ = s.AddFix(ctx, fix)
	assert.True(t, inserted)

	assert.Equal(t, 3, s.Len())
}

func TestGetFixes_Filter(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, device := range []string{"B", "A", "A", "B", "A"} {
		_, err := s.AddFix(ctx, types.Fix{
			Timestamp: start.Add(time.Duration(i/2) * time.Hour),
			DeviceID:  device,
			Quality:   i%3 + 1,
		})
		require.NoError(t, err)
	}

	all, err := s.GetFixes(ctx, filter.Fixes{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "A", all[0].DeviceID)
	assert.Equal(t, "B", all[1].DeviceID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp))
	}

	device := "A"
	after := start.Add(time.Hour)
	before := start.Add(2 * time.Hour)
	quality := 2

	tests := []struct {
		name   string
		filter filter.Fixes
		count  int
	}{
		{name: "Device", filter: filter.Fixes{DeviceID: &device}, count: 3},
		{name: "After inclusive", filter: filter.Fixes{After: &after}, count: 3},
		{name: "Before exclusive", filter: filter.Fixes{Before: &before}, count: 4},
		{name: "Window", filter: filter.Fixes{After: &after, Before: &before}, count: 2},
		{name: "Quality", filter: filter.Fixes{MinQuality: &quality}, count: 3},
		{name: "Combined", filter: filter.Fixes{DeviceID: &device, After: &after, MinQuality: &quality}, count: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixes, err := s.GetFixes(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, fixes, tt.count)
		})
	}
}

func TestAddFix_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = s.AddFix(ctx, types.Fix{Timestamp: start.Add(time.Duration(i) * time.Second), DeviceID: "A", Quality: 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len())
}
