package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/daniil11ru/gpstrack/cli/receiver/dto/db/in/filter"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

type key struct {
	deviceID string
	at       int64
}

// PrimarySource хранилище отметок в памяти процесса
type PrimarySource struct {
	mu    sync.RWMutex
	fixes []types.Fix
	index map[key]struct{}
}

func New() *PrimarySource {
	return &PrimarySource{index: map[key]struct{}{}}
}

func (p *PrimarySource) AddFix(_ context.Context, fix types.Fix) (bool, error) {
	fix.Timestamp = fix.Timestamp.UTC().Truncate(primary.Precision)
	k := key{deviceID: fix.DeviceID, at: fix.Timestamp.UnixNano()}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.index[k]; ok {
		return false, nil
	}
	p.index[k] = struct{}{}
	p.fixes = append(p.fixes, fix)
	return true, nil
}

func (p *PrimarySource) GetFixes(_ context.Context, f filter.Fixes) ([]types.Fix, error) {
	p.mu.RLock()
	var fixes []types.Fix
	for _, fix := range p.fixes {
		if matches(fix, f) {
			fixes = append(fixes, fix)
		}
	}
	p.mu.RUnlock()

	sort.SliceStable(fixes, func(i, j int) bool {
		if !fixes[i].Timestamp.Equal(fixes[j].Timestamp) {
			return fixes[i].Timestamp.Before(fixes[j].Timestamp)
		}
		return fixes[i].DeviceID < fixes[j].DeviceID
	})
	return fixes, nil
}

func (p *PrimarySource) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.fixes)
}

func matches(fix types.Fix, f filter.Fixes) bool {
	if f.DeviceID != nil && fix.DeviceID != *f.DeviceID {
		return false
	}
	if f.After != nil && fix.Timestamp.Before(*f.After) {
		return false
	}
	if f.Before != nil && !fix.Timestamp.Before(*f.Before) {
		return false
	}
	if f.MinQuality != nil && fix.Quality < *f.MinQuality {
		return false
	}
	return true
}

var _ primary.PrimarySource = (*PrimarySource)(nil)
