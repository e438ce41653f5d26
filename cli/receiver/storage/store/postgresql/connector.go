package postgresql

/*
Архив отметок в PostgreSQL: каждая отметка сохраняется как сообщение msgpack.

Настройки, которые могут (а не которые – должны) быть в конфиге для подключения хранилища:

host = "localhost"
port = "5432"
user = "postgres"
password = "postgres"
database = "receiver"
table = "fix_archive"
payload_field_name = "payload"
sslmode = "disable"
*/

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type Connector struct {
	connection *sql.DB
	config     map[string]string
	query      string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		c.config["database"], c.config["host"], c.config["port"], c.config["user"], c.config["password"], c.config["sslmode"])
	if c.connection, err = sql.Open("postgres", connStr); err != nil {
		return fmt.Errorf("ошибка подключения к PostgreSQL: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("PostgreSQL недоступен: %v", err)
	}

	c.query = InsertQuery(c.config)
	return err
}

// InsertQuery запрос вставки сообщения с учётом настроек таблицы
func InsertQuery(cfg map[string]string) string {
	table := cfg["table"]
	if table == "" {
		log.Warnf("Ключ 'table' не найден в конфигурации хранилища. Используется значение по умолчанию 'fix_archive'.")
		table = "fix_archive"
	}
	payloadFieldName := cfg["payload_field_name"]
	if payloadFieldName == "" {
		log.Warnf("Ключ 'payload_field_name' не найден в конфигурации хранилища. Используется значение по умолчанию 'payload'.")
		payloadFieldName = "payload"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1)", table, payloadFieldName)
}

func (c *Connector) Save(msg interface{ ToBytes() ([]byte, error) }) error {
	if msg == nil {
		return fmt.Errorf("некорректная ссылка на пакет")
	}

	innerPkg, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации пакета: %v", err)
	}

	if _, err = c.connection.Exec(c.query, innerPkg); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
