package tarantool_queue

/*
Плагин для работы с Tarantool queue.

Раздел настроек для подключения хранилища, числовые параметры можно не указывать:

host = "localhost"
port = "3301"
user = "user"
password = "pass"
max_recons = 5
timeout = 1
reconnect = 1
queue = "gps_fixes"
*/

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tarantool/go-tarantool"
	"github.com/tarantool/go-tarantool/queue"
)

const DefaultQueue = "gps_fixes"

type Connector struct {
	connection *tarantool.Connection
	queue      queue.Queue
	config     map[string]string
}

func intOption(cfg map[string]string, name string, def int) (int, error) {
	v := cfg[name]
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("не удалось получить %s: %v", name, err)
	}
	return n, nil
}

// Options параметры подключения к Tarantool из конфига
func Options(cfg map[string]string) (tarantool.Opts, error) {
	maxRecons, err := intOption(cfg, "max_recons", 5)
	if err != nil {
		return tarantool.Opts{}, err
	}
	timeout, err := intOption(cfg, "timeout", 1)
	if err != nil {
		return tarantool.Opts{}, err
	}
	reconnect, err := intOption(cfg, "reconnect", 1)
	if err != nil {
		return tarantool.Opts{}, err
	}

	return tarantool.Opts{
		Timeout:       time.Duration(timeout) * time.Second,
		Reconnect:     time.Duration(reconnect) * time.Second,
		MaxReconnects: uint(maxRecons),
		User:          cfg["user"],
		Pass:          cfg["password"],
	}, nil
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	c.config = cfg
	opts, err := Options(cfg)
	if err != nil {
		return err
	}

	c.connection, err = tarantool.Connect(fmt.Sprintf("%s:%s", c.config["host"], c.config["port"]), opts)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к Tarantool: %v", err)
	}

	name := c.config["queue"]
	if name == "" {
		name = DefaultQueue
	}
	c.queue = queue.New(c.connection, name)

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

	if _, err = c.queue.Put(innerPkg); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
