package static

import (
	"context"
	"fmt"
	"sync"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
)

// Source сессии из конфига. Назначенная базовая станция хранится только в памяти процесса.
type Source struct {
	mu       sync.RWMutex
	sessions map[string]types.Session
}

func New(sessions ...types.Session) *Source {
	s := &Source{sessions: map[string]types.Session{}}
	for _, item := range sessions {
		s.sessions[item.ID] = item
	}
	return s
}

func (s *Source) GetSession(_ context.Context, id string) (types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.sessions[id]
	if !ok {
		return types.Session{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if item.Reference != nil {
		ref := *item.Reference
		item.Reference = &ref
	}
	return item, nil
}

func (s *Source) SetReference(_ context.Context, id string, reference types.Reference) error {
	if err := session.ValidateReference(reference); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	item.BaseDeviceID = reference.DeviceID
	item.Reference = &reference
	s.sessions[id] = item
	return nil
}
