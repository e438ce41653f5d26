package source

import (
	"context"
	"fmt"

	"github.com/daniil11ru/gpstrack/cli/receiver/connector/implementation"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary/memory"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary/mongo"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary/mysql"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary/pg"
)

const (
	DriverMemory  = "memory"
	DriverMongoDB = "mongodb"
)

// DefaultPrimary хранилище отметок, выбранное по драйверу из конфига
type DefaultPrimary struct {
	primary.PrimarySource

	connector *implementation.Connector
	mongo     *mongo.PrimarySource
}

func NewDefaultPrimary(settings map[string]string) (*DefaultPrimary, error) {
	switch settings["driver"] {
	case DriverMemory:
		return &DefaultPrimary{PrimarySource: memory.New()}, nil
	case DriverMongoDB:
		s, err := mongo.Connect(context.Background(), settings)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к хранилищу отметок: %w", err)
		}
		return &DefaultPrimary{PrimarySource: s, mongo: s}, nil
	}

	c := &implementation.Connector{}
	if err := c.Connect(settings); err != nil {
		return nil, fmt.Errorf("ошибка подключения к хранилищу отметок: %w", err)
	}

	p := &DefaultPrimary{connector: c}
	switch c.GetSettings().Driver {
	case implementation.DriverMySQL:
		s := &mysql.PrimarySource{}
		s.Initialize(c)
		p.PrimarySource = s
	default:
		s := &pg.PrimarySource{}
		s.Initialize(c)
		p.PrimarySource = s
	}

	return p, nil
}

// MigrationURL адрес для применения миграций, пустой для хранилищ без SQL-схемы
func (p *DefaultPrimary) MigrationURL() string {
	if p.connector == nil {
		return ""
	}
	return p.connector.GetSettings().MigrationURL()
}

func (p *DefaultPrimary) Driver() string {
	switch {
	case p.mongo != nil:
		return DriverMongoDB
	case p.connector == nil:
		return DriverMemory
	}
	return p.connector.GetSettings().Driver
}

func (p *DefaultPrimary) Close() error {
	if p.mongo != nil {
		return p.mongo.Close()
	}
	if p.connector == nil {
		return nil
	}
	return p.connector.Close()
}
