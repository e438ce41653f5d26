package track

import (
	"sort"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

// DefaultTickWidth ширина тика по умолчанию
const DefaultTickWidth = 100 * time.Millisecond

// Tick отметки всех устройств, попавшие в один временной интервал
type Tick struct {
	Index int64
	Start time.Time
	Fixes []types.Fix
}

// TickIndex номер тика: целочисленное деление времени в наносекундах с округлением вниз
func TickIndex(t time.Time, width time.Duration) int64 {
	n, w := t.UnixNano(), int64(width)
	index := n / w
	if n%w != 0 && n < 0 {
		index--
	}
	return index
}

// Align раскладывает отметки по тикам. Тики идут по возрастанию, внутри тика отметки
// упорядочены по устройству, а для одного устройства сохраняется исходный порядок.
func Align(fixes []types.Fix, width time.Duration) []Tick {
	if width <= 0 {
		width = DefaultTickWidth
	}

	byIndex := map[int64]*Tick{}
	var indexes []int64
	for _, fix := range fixes {
		index := TickIndex(fix.Timestamp, width)
		tick, ok := byIndex[index]
		if !ok {
			tick = &Tick{Index: index, Start: time.Unix(0, index*int64(width)).UTC()}
			byIndex[index] = tick
			indexes = append(indexes, index)
		}
		tick.Fixes = append(tick.Fixes, fix)
	}

	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	ticks := make([]Tick, 0, len(indexes))
	for _, index := range indexes {
		tick := byIndex[index]
		sort.SliceStable(tick.Fixes, func(i, j int) bool {
			return tick.Fixes[i].DeviceID < tick.Fixes[j].DeviceID
		})
		ticks = append(ticks, *tick)
	}
	return ticks
}

// Flatten возвращает отметки тиков в хронологическом порядке
func Flatten(ticks []Tick) []types.Fix {
	var fixes []types.Fix
	for _, tick := range ticks {
		fixes = append(fixes, tick.Fixes...)
	}
	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Timestamp.Before(fixes[j].Timestamp)
	})
	return fixes
}
