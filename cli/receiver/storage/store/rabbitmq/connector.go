package rabbitmq

/*
Плагин для публикации отметок в RabbitMQ.

Раздел настроек, которые должны быть в конфиге:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "receiver"
exchange_type = "fanout"
routing_key = "gps.fix"
*/

import (
	"fmt"
	"net/url"
	"time"

	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	config     map[string]string
}

func URL(cfg map[string]string) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg["user"], cfg["password"]),
		Host:   cfg["host"] + ":" + cfg["port"],
		Path:   "/",
	}
	return u.String()
}

func (c *Connector) Init(cfg map[string]string) error {
	var err error
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	if c.config["exchange"] == "" {
		return fmt.Errorf("не задан exchange RabbitMQ")
	}
	exchangeType := c.config["exchange_type"]
	if exchangeType == "" {
		exchangeType = amqp.ExchangeFanout
	}

	if c.connection, err = amqp.Dial(URL(c.config)); err != nil {
		return fmt.Errorf("ошибка подключения к RabbitMQ: %v", err)
	}
	if c.channel, err = c.connection.Channel(); err != nil {
		return fmt.Errorf("ошибка открытия канала RabbitMQ: %v", err)
	}
	if err = c.channel.ExchangeDeclare(c.config["exchange"], exchangeType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("не удалось объявить exchange %s: %v", c.config["exchange"], err)
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

	err = c.channel.Publish(c.config["exchange"], c.config["routing_key"], false, false, amqp.Publishing{
		ContentType:  "application/x-msgpack",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         innerPkg,
	})
	if err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	return c.connection.Close()
}
