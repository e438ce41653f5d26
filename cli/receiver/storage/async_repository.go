package storage

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

var ErrRepositoryClosed = errors.New("асинхронный репозиторий был закрыт")

type Message = interface{ ToBytes() ([]byte, error) }

// AsyncRepository отправляет сообщения в хранилища из пула воркеров, не задерживая приём данных
type AsyncRepository struct {
	repo Saver
	ch   chan Message
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	failed uint64
}

func NewAsyncRepository(repo Saver, buffer, workers int) *AsyncRepository {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if buffer < 0 {
		buffer = 0
	}
	ar := &AsyncRepository{
		repo: repo,
		ch:   make(chan Message, buffer),
	}
	for i := 0; i < workers; i++ {
		ar.wg.Add(1)
		go ar.worker()
	}
	return ar
}

func (a *AsyncRepository) worker() {
	defer a.wg.Done()
	for msg := range a.ch {
		if err := a.repo.Save(msg); err != nil {
			atomic.AddUint64(&a.failed, 1)
			log.WithField("err", err).Error("Ошибка отправки отметки в выходные хранилища")
		}
	}
}

func (a *AsyncRepository) Save(m Message) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrRepositoryClosed
	}
	a.ch <- m
	return nil
}

// Failed количество сообщений, которые не удалось сохранить
func (a *AsyncRepository) Failed() uint64 {
	return atomic.LoadUint64(&a.failed)
}

// Close дожидается отправки уже принятых сообщений
func (a *AsyncRepository) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	a.wg.Wait()
}
