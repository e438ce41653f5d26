package redis

/*
Сессии в Redis: хеш <prefix><id> с полями from, to (RFC 3339) и, если назначена,
базовой станцией base_mac, base_lat, base_lon.
*/

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const DefaultPrefix = "session:"

var now = time.Now

type Source struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *Source {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Source{client: client, prefix: prefix}
}

// Connect подключается к Redis по настройкам из конфига
func Connect(ctx context.Context, cfg map[string]string) (*Source, error) {
	db := 0
	if v := cfg["db"]; v != "" {
		var err error
		if db, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("некорректный номер базы Redis: %v", err)
		}
	}

	addr := cfg["addr"]
	if addr == "" {
		addr = "localhost:6379"
		log.Warnf("Ключ 'addr' не найден в настройках сессий. Используется значение по умолчанию '%s'.", addr)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg["password"], DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis недоступен: %v", err)
	}

	return New(client, cfg["prefix"]), nil
}

func (s *Source) key(id string) string {
	return s.prefix + id
}

func (s *Source) GetSession(ctx context.Context, id string) (types.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return types.Session{}, fmt.Errorf("не удалось получить сессию %s: %w", id, err)
	}
	if len(fields) == 0 {
		return types.Session{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return session.Decode(id, fields)
}

// SetReference назначает базовую станцию существующей сессии
func (s *Source) SetReference(ctx context.Context, id string, reference types.Reference) error {
	if err := session.ValidateReference(reference); err != nil {
		return err
	}

	exists, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("не удалось проверить сессию %s: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}

	if err := s.client.HSet(ctx, s.key(id), session.EncodeReference(reference, now())).Err(); err != nil {
		return fmt.Errorf("не удалось сохранить базовую станцию сессии %s: %w", id, err)
	}
	return nil
}

func (s *Source) Close() error {
	return s.client.Close()
}
