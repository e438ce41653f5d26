package storage

import (
	"errors"
	"fmt"

	"github.com/daniil11ru/gpstrack/cli/receiver/storage/store/mysql"
	"github.com/daniil11ru/gpstrack/cli/receiver/storage/store/nats"
	"github.com/daniil11ru/gpstrack/cli/receiver/storage/store/postgresql"
	"github.com/daniil11ru/gpstrack/cli/receiver/storage/store/rabbitmq"
	"github.com/daniil11ru/gpstrack/cli/receiver/storage/store/redis"
	"github.com/daniil11ru/gpstrack/cli/receiver/storage/store/tarantool_queue"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidStorage = errors.New("storage not found")
var ErrUnknownStorage = errors.New("storage isn't support yet")

type Store interface {
	Connector
	Saver
}

// Saver интерфейс для подключения внешних хранилищ
type Saver interface {
	// Save сохранение в хранилище
	Save(interface{ ToBytes() ([]byte, error) }) error
}

// Connector интерфейс для подключения внешних хранилищ
type Connector interface {
	// Init установка соединения с хранилищем
	Init(map[string]string) error

	// Close закрытие соединения с хранилищем
	Close() error
}

// Repository набор выходных хранилищ, в которые дублируются принятые отметки
type Repository struct {
	storages []Saver
}

// AddStore добавляет хранилище для сохранения данных
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

func (r *Repository) Len() int {
	return len(r.storages)
}

// Save сохраняет данные во все установленные хранилища. Ошибка одного хранилища не мешает остальным.
func (r *Repository) Save(m interface{ ToBytes() ([]byte, error) }) error {
	var errs []error
	for _, store := range r.storages {
		if err := store.Save(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadStorages загружает хранилища из структуры конфига
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	var db Store
	for store, params := range storages {
		switch store {
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "postgresql":
			db = &postgresql.Connector{}
		case "nats":
			db = &nats.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		case "redis":
			db = &redis.Connector{}
		case "mysql":
			db = &mysql.Connector{}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownStorage, store)
		}

		if err := db.Init(params); err != nil {
			return err
		}

		log.Infof("Подключено выходное хранилище %s", store)
		r.AddStore(db)
	}
	return nil
}

// Close закрывает соединения хранилищ, которые их держат
func (r *Repository) Close() {
	for _, store := range r.storages {
		if c, ok := store.(Connector); ok {
			if err := c.Close(); err != nil {
				log.WithField("err", err).Warn("Ошибка закрытия выходного хранилища")
			}
		}
	}
}

// NewRepository создает пустой репозиторий
func NewRepository() *Repository {
	return &Repository{}
}
