package nats

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message []byte

func (m message) ToBytes() ([]byte, error) {
	return m, nil
}

func TestConnector_Save(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	sub, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan []byte, 1)
	_, err = sub.Subscribe("gps.fixes", func(m *nats.Msg) { received <- m.Data })
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	c := Connector{}
	require.NoError(t, c.Init(map[string]string{"servers": s.ClientURL(), "subject": "gps.fixes"}))
	require.NoError(t, c.Save(message("fix")))
	require.NoError(t, c.Close())

	select {
	case data := <-received:
		assert.Equal(t, []byte("fix"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("сообщение не получено")
	}
}

func TestConnector_Init(t *testing.T) {
	c := Connector{}
	assert.Error(t, c.Init(nil))
	assert.Error(t, c.Init(map[string]string{"servers": "nats://127.0.0.1:1"}))
}
