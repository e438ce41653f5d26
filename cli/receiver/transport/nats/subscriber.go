package nats

/*
Приём пакетов NMEA через NATS request/reply.

Запрос – msgpack Batch{mac, raw}, ответ – msgpack Reply с итогами сохранения.
Подписка в группе очередей, поэтому несколько экземпляров приёмника делят поток пакетов.
*/

import (
	"context"
	"fmt"

	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"gopkg.in/vmihailenco/msgpack.v2"
)

const (
	DefaultSubject = "gps.raw"
	DefaultQueue   = "gps-receiver"
)

type BatchSaver interface {
	Run(ctx context.Context, deviceID string, raw string) (domain.Result, error)
}

type Batch struct {
	DeviceID string `msgpack:"mac"`
	Raw      string `msgpack:"raw"`
}

func (b Batch) ToBytes() ([]byte, error) {
	return msgpack.Marshal(b)
}

type Reply struct {
	Inserted   int    `msgpack:"inserted"`
	Duplicates int    `msgpack:"duplicates"`
	Skipped    int    `msgpack:"skipped"`
	Malformed  int    `msgpack:"malformed"`
	Error      string `msgpack:"error,omitempty"`
}

func DecodeReply(data []byte) (Reply, error) {
	var r Reply
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return Reply{}, fmt.Errorf("ошибка десериализации ответа: %v", err)
	}
	return r, nil
}

type Subscriber struct {
	connection   *nats.Conn
	subscription *nats.Subscription
	saveBatch    BatchSaver
}

func Subscribe(url, subject string, saveBatch BatchSaver) (*Subscriber, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url, nats.Name("gps-receiver"))
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к NATS: %w", err)
	}

	s := &Subscriber{connection: conn, saveBatch: saveBatch}
	if s.subscription, err = conn.QueueSubscribe(subject, DefaultQueue, s.handle); err != nil {
		conn.Close()
		return nil, fmt.Errorf("не удалось подписаться на %s: %w", subject, err)
	}

	log.WithField("subject", subject).Info("Подписка на пакеты NMEA в NATS")
	return s, nil
}

func (s *Subscriber) handle(msg *nats.Msg) {
	var reply Reply

	var batch Batch
	if err := msgpack.Unmarshal(msg.Data, &batch); err != nil {
		log.WithField("err", err).Warn("Некорректный пакет из NATS")
		reply.Error = fmt.Sprintf("некорректный пакет: %v", err)
	} else {
		result, err := s.saveBatch.Run(context.Background(), batch.DeviceID, batch.Raw)
		reply = Reply{
			Inserted:   result.Inserted,
			Duplicates: result.Duplicates,
			Skipped:    result.Skipped,
			Malformed:  result.Malformed,
		}
		if err != nil {
			reply.Error = err.Error()
		}
	}

	if msg.Reply == "" {
		return
	}
	data, err := msgpack.Marshal(reply)
	if err != nil {
		log.WithField("err", err).Error("Ошибка сериализации ответа")
		return
	}
	if err := msg.Respond(data); err != nil {
		log.WithField("err", err).Warn("Не удалось отправить ответ в NATS")
	}
}

func (s *Subscriber) Close() error {
	if s.subscription != nil {
		_ = s.subscription.Unsubscribe()
	}
	if err := s.connection.Drain(); err != nil {
		s.connection.Close()
		return err
	}
	return nil
}
