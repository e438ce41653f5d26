package mysql

/*
Архив отметок в MySQL, аналог архива PostgreSQL.

Настройки:

host = "localhost"
port = "3306"
user = "root"
password = "root"
database = "receiver"
table = "fix_archive"
payload_field_name = "payload"
*/

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type Connector struct {
	connection *sql.DB
	config     map[string]string
	query      string
}

func DSN(cfg map[string]string) string {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = cfg["host"] + ":" + cfg["port"]
	c.User = cfg["user"]
	c.Passwd = cfg["password"]
	c.DBName = cfg["database"]
	return c.FormatDSN()
}

func (c *Connector) Init(cfg map[string]string) error {
	var err error
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	if c.connection, err = sql.Open("mysql", DSN(cfg)); err != nil {
		return fmt.Errorf("ошибка подключения к MySQL: %v", err)
	}
	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("MySQL недоступен: %v", err)
	}

	table, field := cfg["table"], cfg["payload_field_name"]
	if table == "" {
		table = "fix_archive"
	}
	if field == "" {
		field = "payload"
	}
	c.query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", table, field)

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

	if _, err = c.connection.Exec(c.query, innerPkg); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
