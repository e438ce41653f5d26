package backend

import (
	"context"

	"github.com/daniil11ru/gpstrack/cli/receiver/config"
	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/session/redis"
	"github.com/daniil11ru/gpstrack/cli/receiver/session/static"
	log "github.com/sirupsen/logrus"
)

// New источник сессий, выбранный по sessions.backend
func New(ctx context.Context, settings config.Settings) (session.Source, error) {
	if settings.Sessions.Backend == config.SessionsRedis {
		source, err := redis.Connect(ctx, settings.Sessions.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("Сессии читаются из Redis")
		return source, nil
	}

	sessions, err := settings.GetStaticSessions()
	if err != nil {
		return nil, err
	}
	log.Infof("Загружено сессий из конфига: %d", len(sessions))
	return static.New(sessions...), nil
}
