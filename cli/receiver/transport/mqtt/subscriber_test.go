package mqtt

import (
	"io"
	"testing"

	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary/memory"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return qos }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

const scenario = "$GNGGA,162352.800,5016.611174,N,01903.767172,E,1,08,0.49,267.240,M,42.101,M,,*70\n" +
	"$GNRMC,162352.800,A,5016.611174,N,01903.767172,E,2.44,163.88,090126,,,D,V*03\n"

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "AA:BB:CC", DeviceFromTopic("gps/raw/AA:BB:CC"))
	assert.Equal(t, "AA", DeviceFromTopic("AA"))
	assert.Equal(t, "", DeviceFromTopic("gps/raw/"))
}

func TestSubscriber_Handle(t *testing.T) {
	log.SetOutput(io.Discard)

	store := memory.New()
	s := newSubscriber("", &domain.SaveBatch{Fixes: store})
	assert.Equal(t, DefaultTopic, s.topic)

	s.handle(nil, message{topic: "gps/raw/AA:BB:CC", payload: []byte(scenario)})
	s.handle(nil, message{topic: "gps/raw/AA:BB:CC", payload: []byte(scenario)})
	// без идентификатора устройства пакет отклоняется
	s.handle(nil, message{topic: "gps/raw/", payload: []byte(scenario)})

	assert.Equal(t, 1, store.Len())
}

func TestSubscribe_NoBroker(t *testing.T) {
	_, err := Subscribe("", "", "", nil)
	assert.Error(t, err)
}
