package redis

/*
Плагин для публикации отметок в канал Redis.

Раздел настроек:

host = "localhost"
port = "6379"
password = ""
db = "0"
channel = "gps:fixes"
*/

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type Connector struct {
	client *redis.Client
	config map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	if c.config["channel"] == "" {
		return fmt.Errorf("не задан канал Redis")
	}

	db := 0
	if v := c.config["db"]; v != "" {
		var err error
		if db, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("некорректный номер базы Redis: %v", err)
		}
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     c.config["host"] + ":" + c.config["port"],
		Password: c.config["password"],
		DB:       db,
	})
	if err := c.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("Redis недоступен: %v", err)
	}
	return nil
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}

	innerPkg, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	if err = c.client.Publish(context.Background(), c.config["channel"], innerPkg).Err(); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.client.Close()
}
