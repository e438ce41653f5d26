package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/assembly"
	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/session/static"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary/memory"
	"github.com/daniil11ru/gpstrack/cli/receiver/stability"
	"github.com/daniil11ru/gpstrack/cli/receiver/track"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	player = "AA:BB:CC:DD:EE:FF"
	base   = "11:22:33:44:55:66"
)

const scenario = "$GNGGA,162352.800,5016.611174,N,01903.767172,E,1,08,0.49,267.240,M,42.101,M,,*70\n" +
	"$GNRMC,162352.800,A,5016.611174,N,01903.767172,E,2.44,163.88,090126,,,D,V*03\n"

var matchStart = time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC)

func init() {
	log.SetOutput(io.Discard)
}

type mockPublisher struct {
	mu    sync.Mutex
	saved int
	err   error
}

func (p *mockPublisher) Save(interface{ ToBytes() ([]byte, error) }) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved++
	return nil
}

type failingSource struct{}

func (failingSource) AddFix(context.Context, types.Fix) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingSource) GetFixes(context.Context, filter.Fixes) ([]types.Fix, error) {
	return nil, errors.New("connection refused")
}

// nmeaPair пара GGA+RMC для устройства в момент at
func nmeaPair(at time.Time, lat, lon, knots float64) string {
	clock := at.Format("150405.000")
	date := at.Format("020106")
	latDeg, latMin := int(lat), (lat-float64(int(lat)))*60
	lonDeg, lonMin := int(lon), (lon-float64(int(lon)))*60
	latStr := fmt.Sprintf("%02d%09.6f", latDeg, latMin)
	lonStr := fmt.Sprintf("%03d%09.6f", lonDeg, lonMin)
	return fmt.Sprintf("$GNGGA,%s,%s,N,%s,E,1,10,0.5,250.0,M,,M,,\n$GNRMC,%s,A,%s,N,%s,E,%.2f,0.0,%s,,,A\n",
		clock, latStr, lonStr, clock, latStr, lonStr, knots, date)
}

func TestSaveBatch_Scenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	publisher := &mockPublisher{}
	u := SaveBatch{Fixes: store, Publisher: publisher}

	result, err := u.Run(ctx, player, scenario)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 2, result.Lines)
	assert.Zero(t, result.Duplicates)
	assert.Equal(t, 1, publisher.saved)

	fixes, err := store.GetFixes(ctx, filter.Fixes{})
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, player, fixes[0].DeviceID)
	assert.True(t, time.Date(2026, 1, 9, 16, 23, 52, 800000000, time.UTC).Equal(fixes[0].Timestamp))
	assert.InDelta(t, 4.52, fixes[0].Speed, 0.01)

	// повторная отправка того же пакета не создаёт дубликатов
	result, err = u.Run(ctx, player, scenario)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, publisher.saved)
	assert.Equal(t, 1, store.Len())
}

func TestSaveBatch_Rejections(t *testing.T) {
	u := SaveBatch{Fixes: memory.New(), Assembler: assembly.New(assembly.Options{MinSatellites: 6})}

	raw := strings.Join([]string{
		"$GNGGA,162352.800,5016.611174,N,01903.767172,E,1,05,0.49,267.240,M,42.101,M,,",
		"$GNRMC,162352.800,A,5016.611174,N,01903.767172,E,2.44,163.88,090126,,,D,V",
		"not nmea",
	}, "\n")

	result, err := u.Run(context.Background(), player, raw)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Malformed)
	assert.Equal(t, 1, result.Reasons[assembly.ReasonLowSatellites])
	require.Len(t, result.Skips, 1)
	assert.Equal(t, "162352.800", result.Skips[0].Key)
}

func TestSaveBatch_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&SaveBatch{Fixes: memory.New()}).Run(ctx, "", scenario)
	assert.ErrorIs(t, err, assembly.ErrMissingDevice)

	_, err = (&SaveBatch{Fixes: memory.New()}).Run(ctx, player, "")
	assert.ErrorIs(t, err, assembly.ErrEmptyBatch)

	_, err = (&SaveBatch{Fixes: &failingSource{}}).Run(ctx, player, scenario)
	assert.ErrorIs(t, err, ErrStore)

	// сбой выходных хранилищ не мешает сохранению
	publisher := &mockPublisher{err: errors.New("broker down")}
	result, err := (&SaveBatch{Fixes: memory.New(), Publisher: publisher}).Run(ctx, player, scenario)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
}

// seed сохраняет трек игрока, который движется на север, и неподвижную базу с постоянным смещением
func seed(t *testing.T, store *memory.PrimarySource, drift float64) {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		at := matchStart.Add(time.Duration(i) * time.Second)
		_, err := store.AddFix(ctx, types.Fix{Timestamp: at, DeviceID: base, Latitude: 50.0 + drift, Longitude: 19.0, Quality: 1, Satellites: 10})
		require.NoError(t, err)
		_, err = store.AddFix(ctx, types.Fix{Timestamp: at.Add(20 * time.Millisecond), DeviceID: player, Latitude: 50.001 + float64(i)*0.0001 + drift, Longitude: 19.001, Quality: 1, Satellites: 10, Speed: 10})
		require.NoError(t, err)
	}
}

func sessions() *static.Source {
	return static.New(
		types.Session{ID: "1", Window: types.Window{From: matchStart, To: matchStart.Add(2 * time.Hour)}},
		types.Session{ID: "2", Window: types.Window{From: matchStart, To: matchStart.Add(2 * time.Hour)},
			Reference: &types.Reference{DeviceID: base, Latitude: 50.0, Longitude: 19.0}},
	)
}

func TestReconstructTrack_Correction(t *testing.T) {
	store := memory.New()
	seed(t, store, 0.0005)

	u := ReconstructTrack{Fixes: store, Sessions: sessions(), Correction: track.DefaultConfig()}

	corrected, err := u.Run(context.Background(), TrackRequest{SessionID: "2", DeviceID: player})
	require.NoError(t, err)
	require.Len(t, corrected.Points, 10)
	assert.Equal(t, 10, corrected.Stats.Measured)
	for i, p := range corrected.Points {
		assert.Equal(t, player, p.DeviceID)
		assert.InDelta(t, 50.001+float64(i)*0.0001, p.Latitude, 1e-9)
		assert.Equal(t, 10.0, p.Speed)
	}
	assert.InDelta(t, types.Haversine(50.001, 19.001, 50.0011, 19.001), corrected.Points[1].StepDistance, 1e-6)

	raw, err := u.Run(context.Background(), TrackRequest{SessionID: "1", DeviceID: player})
	require.NoError(t, err)
	require.Len(t, raw.Points, 10)
	assert.InDelta(t, 50.0015, raw.Points[0].Latitude, 1e-9)
	assert.Equal(t, 10, raw.Stats.Uncorrected)
}

func TestReconstructTrack_Scope(t *testing.T) {
	store := memory.New()
	seed(t, store, 0)

	original := now
	defer func() { now = original }()
	now = func() time.Time { return matchStart.Add(30 * time.Minute) }

	u := ReconstructTrack{Fixes: store, Sessions: sessions(), Correction: track.DefaultConfig()}

	recent, err := u.Run(context.Background(), TrackRequest{})
	require.NoError(t, err)
	assert.Len(t, recent.Points, 20)
	assert.Equal(t, matchStart.Add(30*time.Minute).Add(-24*time.Hour), recent.Window.From)

	// окно в один час до начала матча пустое
	now = func() time.Time { return matchStart }
	empty, err := u.Run(context.Background(), TrackRequest{Hours: 1})
	require.NoError(t, err)
	assert.Empty(t, empty.Points)

	_, err = u.Run(context.Background(), TrackRequest{SessionID: "404"})
	assert.ErrorIs(t, err, ErrSession)
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = (&ReconstructTrack{Fixes: &failingSource{}}).Run(context.Background(), TrackRequest{})
	assert.ErrorIs(t, err, ErrStore)
}

func TestAnalyzeStability(t *testing.T) {
	store := memory.New()
	seed(t, store, 0)

	u := AnalyzeStability{Fixes: store, Sessions: sessions()}

	records, err := u.Run(context.Background(), StabilityRequest{SessionID: "1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, base, records[0].DeviceID)
	assert.Equal(t, stability.High, records[0].Class)
	assert.Equal(t, player, records[1].DeviceID)
	assert.Equal(t, stability.Low, records[1].Class)

	records, err = u.Run(context.Background(), StabilityRequest{SessionID: "1", DeviceID: player})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, player, records[0].DeviceID)
}

func TestScanStability(t *testing.T) {
	store := memory.New()
	seed(t, store, 0)

	original := now
	defer func() { now = original }()
	now = func() time.Time { return matchStart.Add(time.Hour) }

	s := ScanStability{AnalyzeStability: &AnalyzeStability{Fixes: store}, Hours: 2}
	records, err := s.Run(context.Background())
	require.NoError(t, err)
	best, ok := stability.Best(records)
	require.True(t, ok)
	assert.Equal(t, base, best.DeviceID)

	require.NoError(t, s.Initialize())
	s.Shutdown()

	bad := ScanStability{AnalyzeStability: &AnalyzeStability{Fixes: store}, Timezone: "Mars/Olympus"}
	assert.Error(t, bad.Initialize())

	bad = ScanStability{AnalyzeStability: &AnalyzeStability{Fixes: store}, CronExpression: "every day"}
	assert.Error(t, bad.Initialize())
}

func TestUpdateReference(t *testing.T) {
	ctx := context.Background()
	src := sessions()
	u := UpdateReference{Sessions: src}

	ref := types.Reference{DeviceID: base, Latitude: 50.1, Longitude: 19.1}
	applied, err := u.Run(ctx, "1", ref)
	require.NoError(t, err)
	assert.Equal(t, ref, applied)

	s, err := src.GetSession(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, s.Reference)
	assert.Equal(t, ref, *s.Reference)

	_, err = u.Run(ctx, "", ref)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = u.Run(ctx, "1", types.Reference{DeviceID: base, Latitude: 95})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = u.Run(ctx, "404", ref)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = (&UpdateReference{}).Run(ctx, "1", ref)
	assert.ErrorIs(t, err, ErrSession)
}

func TestUpdateReference_KeepsAssignedBase(t *testing.T) {
	ctx := context.Background()
	window := types.Window{From: matchStart, To: matchStart.Add(2 * time.Hour)}
	src := static.New(
		types.Session{ID: "1", Window: window, BaseDeviceID: "BASE"},
		types.Session{ID: "2", Window: window, Reference: &types.Reference{DeviceID: base, Latitude: 50, Longitude: 19}},
		types.Session{ID: "3", Window: window},
	)
	u := UpdateReference{Sessions: src}

	// станция назначена, координаты ещё не измерены
	applied, err := u.Run(ctx, "1", types.Reference{Latitude: 50.1, Longitude: 19.1})
	require.NoError(t, err)
	assert.Equal(t, types.Reference{DeviceID: "BASE", Latitude: 50.1, Longitude: 19.1}, applied)
	s, err := src.GetSession(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, s.Reference)
	assert.Equal(t, applied, *s.Reference)

	applied, err = u.Run(ctx, "2", types.Reference{Latitude: 50.2, Longitude: 19.2})
	require.NoError(t, err)
	assert.Equal(t, base, applied.DeviceID)

	_, err = u.Run(ctx, "3", types.Reference{Latitude: 50, Longitude: 19})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = u.Run(ctx, "404", types.Reference{Latitude: 50, Longitude: 19})
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSaveBatch_Reconstruct(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := SaveBatch{Fixes: store}

	var raw strings.Builder
	for i := 0; i < 5; i++ {
		raw.WriteString(nmeaPair(matchStart.Add(time.Duration(i)*time.Second), 50.0+float64(i)*0.0001, 19.0, 1.0))
	}
	result, err := u.Run(ctx, player, raw.String())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Inserted)

	r := ReconstructTrack{Fixes: store, Sessions: sessions(), Correction: track.DefaultConfig()}
	tr, err := r.Run(ctx, TrackRequest{SessionID: "1", Mode: track.ModeHold})
	require.NoError(t, err)
	require.Len(t, tr.Points, 5)
	for i, p := range tr.Points {
		assert.InDelta(t, 50.0+float64(i)*0.0001, p.Latitude, 1e-6)
		assert.InDelta(t, 1.852, p.Speed, 1e-9)
	}
}

func TestReconstructTrack_Options(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	var raw strings.Builder
	for i := 0; i < 3; i++ {
		raw.WriteString(nmeaPair(matchStart.Add(time.Duration(i)*time.Second), 50.0+float64(i)*0.001, 19.0, 1.0))
	}
	_, err := (&SaveBatch{Fixes: store}).Run(ctx, player, raw.String())
	require.NoError(t, err)

	zero, low, high := 0.0, 1.0, 3.0

	tests := []struct {
		name       string
		configured *float64
		requested  *float64
		moving     bool
	}{
		{name: "Default threshold", moving: true},
		{name: "Configured threshold above speed", configured: &high, moving: false},
		{name: "Configured zero threshold", configured: &zero, moving: true},
		{name: "Requested zero overrides configured", configured: &high, requested: &zero, moving: true},
		{name: "Requested threshold overrides configured", configured: &low, requested: &high, moving: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := ReconstructTrack{Fixes: store, Sessions: sessions(), Correction: track.DefaultConfig(), Threshold: tt.configured}
			tr, err := u.Run(ctx, TrackRequest{SessionID: "1", Threshold: tt.requested})
			require.NoError(t, err)
			require.Len(t, tr.Points, 3)
			if !tt.moving {
				assert.Zero(t, tr.Points[1].Speed)
				assert.Zero(t, tr.Points[1].StepDistance)
				return
			}
			assert.InDelta(t, 1.852, tr.Points[1].Speed, 1e-9)
			assert.InDelta(t, 111.2, tr.Points[1].StepDistance, 0.5)
		})
	}

	// режим из настроек применяется, если запрос его не задаёт
	u := ReconstructTrack{Fixes: store, Sessions: sessions(), Correction: track.DefaultConfig(), Mode: track.ModeSmooth, Window: 3}
	tr, err := u.Run(ctx, TrackRequest{SessionID: "1"})
	require.NoError(t, err)
	assert.InDelta(t, 50.0005, tr.Points[1].Latitude, 1e-6)

	tr, err = u.Run(ctx, TrackRequest{SessionID: "1", Mode: track.ModeRaw})
	require.NoError(t, err)
	assert.InDelta(t, 50.001, tr.Points[1].Latitude, 1e-6)
}
