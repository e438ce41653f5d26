package mqtt

/*
Приём пакетов NMEA через MQTT.

Устройство публикует сырой текст пакета в топик gps/raw/<mac>, последний сегмент топика
считается идентификатором устройства. Итоги сохранения только журналируются.
*/

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTopic    = "gps/raw/+"
	DefaultClientID = "gps-receiver"

	qos            = 1
	connectTimeout = 10 * time.Second
	quiesceMs      = 250
)

type BatchSaver interface {
	Run(ctx context.Context, deviceID string, raw string) (domain.Result, error)
}

type Subscriber struct {
	client    mqtt.Client
	topic     string
	saveBatch BatchSaver
}

// DeviceFromTopic последний сегмент топика, пусто для топика без сегмента
func DeviceFromTopic(topic string) string {
	i := strings.LastIndex(topic, "/")
	return strings.TrimSpace(topic[i+1:])
}

func newSubscriber(topic string, saveBatch BatchSaver) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Subscriber{topic: topic, saveBatch: saveBatch}
}

func Subscribe(broker, clientID, topic string, saveBatch BatchSaver) (*Subscriber, error) {
	if broker == "" {
		return nil, fmt.Errorf("не задан адрес MQTT-брокера")
	}
	if clientID == "" {
		clientID = DefaultClientID
	}
	s := newSubscriber(topic, saveBatch)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithField("err", err).Warn("Потеряно соединение с MQTT-брокером")
		})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		s.client.Disconnect(0)
		return nil, fmt.Errorf("таймаут подключения к MQTT-брокеру %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("ошибка подключения к MQTT-брокеру: %w", err)
	}

	return s, nil
}

// onConnect подписка заново после каждого переподключения
func (s *Subscriber) onConnect(client mqtt.Client) {
	token := client.Subscribe(s.topic, qos, s.handle)
	token.Wait()
	if err := token.Error(); err != nil {
		log.WithFields(log.Fields{"topic": s.topic, "err": err}).Error("Не удалось подписаться на топик MQTT")
		return
	}
	log.WithField("topic", s.topic).Info("Подписка на пакеты NMEA в MQTT")
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	deviceID := DeviceFromTopic(msg.Topic())
	result, err := s.saveBatch.Run(context.Background(), deviceID, string(msg.Payload()))
	if err != nil {
		log.WithFields(log.Fields{"topic": msg.Topic(), "err": err}).Warn("Пакет из MQTT не сохранён")
		return
	}
	log.WithFields(log.Fields{
		"mac":        deviceID,
		"inserted":   result.Inserted,
		"duplicates": result.Duplicates,
		"skipped":    result.Skipped,
		"malformed":  result.Malformed,
	}).Debug("Пакет из MQTT обработан")
}

func (s *Subscriber) Close() error {
	if s.client == nil {
		return nil
	}
	token := s.client.Unsubscribe(s.topic)
	token.WaitTimeout(connectTimeout)
	s.client.Disconnect(quiesceMs)
	return token.Error()
}
