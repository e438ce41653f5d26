package connector

import (
	"database/sql"
)

// Connector подключение к SQL-хранилищу отметок по разделу fix_store конфига
type Connector interface {
	Connect(settings map[string]string) error
	GetConnection() *sql.DB
	Close() error
}
