package static

import (
	"context"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	ctx := context.Background()
	window := types.Window{
		From: time.Date(2026, 1, 9, 15, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 9, 17, 0, 0, 0, time.UTC),
	}
	s := New(types.Session{ID: "1", Window: window})

	_, err := s.GetSession(ctx, "2")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.ErrorIs(t, s.SetReference(ctx, "2", types.Reference{DeviceID: "BASE"}), session.ErrNotFound)
	assert.Error(t, s.SetReference(ctx, "1", types.Reference{}))

	got, err := s.GetSession(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, window, got.Window)
	assert.Nil(t, got.Reference)

	ref := types.Reference{DeviceID: "BASE", Latitude: 50, Longitude: 19}
	require.NoError(t, s.SetReference(ctx, "1", ref))

	got, err = s.GetSession(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got.Reference)
	assert.Equal(t, ref, *got.Reference)
	assert.Equal(t, "BASE", got.BaseDeviceID)

	// возвращается копия
	got.Reference.Latitude = 0
	again, _ := s.GetSession(ctx, "1")
	assert.Equal(t, 50.0, again.Reference.Latitude)
}
