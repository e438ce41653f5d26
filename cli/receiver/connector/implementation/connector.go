package implementation

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Settings struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

type Connector struct {
	connection *sql.DB
	settings   Settings
}

func getOptionValue(optionName string, optionDefaultValue string, settings map[string]string) string {
	optionValue := settings[optionName]
	if optionValue == "" {
		log.Warnf("Ключ '%s' не найден в конфигурации хранилища. Используется значение по умолчанию '%s'.", optionName, optionDefaultValue)
		optionValue = optionDefaultValue
	}

	return optionValue
}

func (c *Connector) FillSettings(settings map[string]string) {
	c.settings.Driver = getOptionValue("driver", DriverPostgres, settings)

	defaultPort, defaultUser := "5432", "postgres"
	if c.settings.Driver == DriverMySQL {
		defaultPort, defaultUser = "3306", "root"
	}
	c.settings.Host = getOptionValue("host", "localhost", settings)
	c.settings.Port = getOptionValue("port", defaultPort, settings)
	c.settings.User = getOptionValue("user", defaultUser, settings)
	c.settings.Password = getOptionValue("password", "123", settings)
	c.settings.Database = getOptionValue("database", "gps", settings)
	if c.settings.Driver == DriverPostgres {
		c.settings.SSLMode = getOptionValue("sslmode", "disable", settings)
	}
}

func (c *Connector) GetSettings() Settings {
	return c.settings
}

// DSN строка подключения для database/sql
func (s Settings) DSN() string {
	if s.Driver == DriverMySQL {
		cfg := mysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = s.Host + ":" + s.Port
		cfg.User = s.User
		cfg.Passwd = s.Password
		cfg.DBName = s.Database
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN()
	}

	return fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		s.Database, s.Host, s.Port, s.User, s.Password, s.SSLMode)
}

// MigrationURL адрес базы данных в формате golang-migrate, учётные данные экранируются
func (s Settings) MigrationURL() string {
	u := url.URL{
		User: url.UserPassword(s.User, s.Password),
		Path: "/" + s.Database,
	}
	if s.Driver == DriverMySQL {
		u.Scheme = DriverMySQL
		u.Host = "tcp(" + s.Host + ":" + s.Port + ")"
		u.RawQuery = url.Values{"multiStatements": {"true"}}.Encode()
		return u.String()
	}

	u.Scheme = DriverPostgres
	u.Host = s.Host + ":" + s.Port
	u.RawQuery = url.Values{"sslmode": {s.SSLMode}}.Encode()
	return u.String()
}

func (c *Connector) Connect(settings map[string]string) error {
	var err error
	if settings == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}

	c.FillSettings(settings)

	switch c.settings.Driver {
	case DriverPostgres, DriverMySQL:
		if c.connection, err = sql.Open(c.settings.Driver, c.settings.DSN()); err != nil {
			return fmt.Errorf("ошибка подключения к базе данных %s: %v", c.settings.Driver, err)
		}
	default:
		return fmt.Errorf("неизвестный драйвер базы данных: %s", c.settings.Driver)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("база данных %s недоступна: %v", c.settings.Driver, err)
	}
	return err
}

func (c *Connector) GetConnection() *sql.DB {
	return c.connection
}

func (c *Connector) Close() error {
	if c.connection == nil {
		return nil
	}
	return c.connection.Close()
}
