package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	connector "github.com/daniil11ru/gpstrack/cli/receiver/connector"
	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

const selectFixes = `
	SELECT recorded_at,
	       device_id,
	       latitude,
	       longitude,
	       altitude,
	       num_satellites,
	       hdop,
	       quality,
	       speed_kmh,
	       course
	FROM gps_fix`

type PrimarySource struct {
	connector connector.Connector
}

func (p *PrimarySource) Initialize(c connector.Connector) {
	p.connector = c
}

func (p *PrimarySource) db() (*sql.DB, error) {
	if p.connector == nil {
		return nil, fmt.Errorf("не удалось инициализировать подключение к базе данных")
	}
	db := p.connector.GetConnection()
	if db == nil {
		return nil, fmt.Errorf("нет активного подключения к базе данных")
	}
	return db, nil
}

func (p *PrimarySource) AddFix(ctx context.Context, fix types.Fix) (bool, error) {
	db, err := p.db()
	if err != nil {
		return false, err
	}

	const q = `
		INSERT INTO gps_fix (recorded_at, device_id, latitude, longitude, altitude, num_satellites, hdop, quality, speed_kmh, course)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (device_id, recorded_at) DO NOTHING
	`
	res, err := db.ExecContext(ctx, q,
		fix.Timestamp.UTC().Truncate(primary.Precision), fix.DeviceID, fix.Latitude, fix.Longitude, fix.Altitude,
		fix.Satellites, fix.HDOP, fix.Quality, fix.Speed, fix.Course)
	if err != nil {
		return false, fmt.Errorf("не удалось сохранить отметку %s: %w", fix, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (p *PrimarySource) GetFixes(ctx context.Context, f filter.Fixes) ([]types.Fix, error) {
	db, err := p.db()
	if err != nil {
		return nil, err
	}

	where, args := primary.Where(f, func(n int) string { return "$" + strconv.Itoa(n) })
	rows, err := db.QueryContext(ctx, selectFixes+where+" ORDER BY recorded_at, device_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixes []types.Fix
	for rows.Next() {
		var fix types.Fix
		if err := rows.Scan(&fix.Timestamp, &fix.DeviceID, &fix.Latitude, &fix.Longitude, &fix.Altitude,
			&fix.Satellites, &fix.HDOP, &fix.Quality, &fix.Speed, &fix.Course); err != nil {
			return nil, err
		}
		fix.Timestamp = fix.Timestamp.UTC()
		fixes = append(fixes, fix)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fixes, nil
}
