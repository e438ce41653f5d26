package primary

import (
	"context"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

// Precision точность хранения времени отметки, по ней же определяются дубликаты
const Precision = time.Microsecond

type PrimarySource interface {
	// AddFix сохраняет отметку, false – такая отметка устройства уже есть
	AddFix(ctx context.Context, fix types.Fix) (bool, error)
	// GetFixes отметки по возрастанию времени
	GetFixes(ctx context.Context, filter filter.Fixes) ([]types.Fix, error)
}
