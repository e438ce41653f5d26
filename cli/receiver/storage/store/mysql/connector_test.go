package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "root:secret@tcp(localhost:3306)/receiver", DSN(map[string]string{
		"host": "localhost", "port": "3306", "user": "root", "password": "secret", "database": "receiver",
	}))
}
