package main

/*
Пересылка NMEA с последовательного порта GPS-приёмника в приёмник треков.

	serial-forward -mac AA:BB:CC:DD:EE:FF -port /dev/ttyUSB0 -mqtt tcp://localhost:1883
	serial-forward -mac AA:BB:CC:DD:EE:FF -port /dev/ttyUSB0 -nats nats://localhost:4222

Строки копятся в пакет и отправляются раз в -interval секунд. Через MQTT пакет публикуется
в топик <prefix>/<mac>, через NATS – запросом, ответ с итогами сохранения журналируется.
*/

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/transport/nats"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"
	natsgo "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const maxBatchLines = 1000

// batch накопитель строк NMEA между отправками
type batch struct {
	mu    sync.Mutex
	lines []string
}

// Add принимает только строки, похожие на предложение NMEA
func (b *batch) Add(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) >= maxBatchLines {
		b.lines = b.lines[1:]
	}
	b.lines = append(b.lines, line)
	return true
}

// Take забирает накопленный пакет, пусто если строк не было
func (b *batch) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == 0 {
		return ""
	}
	raw := strings.Join(b.lines, "\n") + "\n"
	b.lines = nil
	return raw
}

type publisher interface {
	Publish(raw string) error
	Close()
}

type mqttPublisher struct {
	client mqtt.Client
	topic  string
}

func newMQTTPublisher(broker, prefix, mac string) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("gps-forward-" + mac).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &mqttPublisher{client: client, topic: strings.TrimSuffix(prefix, "/") + "/" + mac}, nil
}

func (p *mqttPublisher) Publish(raw string) error {
	token := p.client.Publish(p.topic, 1, false, raw)
	token.Wait()
	return token.Error()
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}

type natsPublisher struct {
	connection *natsgo.Conn
	subject    string
	mac        string
	timeout    time.Duration
}

func newNATSPublisher(url, subject, mac string) (*natsPublisher, error) {
	conn, err := natsgo.Connect(url, natsgo.Name("gps-forward-"+mac))
	if err != nil {
		return nil, err
	}
	return &natsPublisher{connection: conn, subject: subject, mac: mac, timeout: 5 * time.Second}, nil
}

func (p *natsPublisher) Publish(raw string) error {
	data, err := nats.Batch{DeviceID: p.mac, Raw: raw}.ToBytes()
	if err != nil {
		return err
	}
	msg, err := p.connection.Request(p.subject, data, p.timeout)
	if err != nil {
		return err
	}
	reply, err := nats.DecodeReply(msg.Data)
	if err != nil {
		return err
	}
	if reply.Error != "" {
		return fmt.Errorf("приёмник отклонил пакет: %s", reply.Error)
	}
	log.WithFields(log.Fields{
		"inserted":   reply.Inserted,
		"duplicates": reply.Duplicates,
		"skipped":    reply.Skipped,
		"malformed":  reply.Malformed,
	}).Info("Пакет принят")
	return nil
}

func (p *natsPublisher) Close() {
	p.connection.Close()
}

// read построчно копит вывод порта до ошибки чтения или конца потока
func read(r io.Reader, b *batch) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !b.Add(scanner.Text()) {
			log.WithField("line", scanner.Text()).Debug("Пропущена строка")
		}
	}
	return scanner.Err()
}

func flush(b *batch, p publisher) {
	raw := b.Take()
	if raw == "" {
		return
	}
	if err := p.Publish(raw); err != nil {
		log.WithField("err", err).Warn("Не удалось отправить пакет")
	}
}

func main() {
	var (
		mac      string
		portName string
		baudRate uint
		broker   string
		prefix   string
		natsURL  string
		subject  string
		interval int
		verbose  bool
	)
	flag.StringVar(&mac, "mac", "", "идентификатор устройства (обязательно)")
	flag.StringVar(&portName, "port", "/dev/ttyUSB0", "последовательный порт GPS-приёмника")
	flag.UintVar(&baudRate, "baud", 9600, "скорость порта")
	flag.StringVar(&broker, "mqtt", "", "адрес MQTT-брокера")
	flag.StringVar(&prefix, "topic", "gps/raw", "префикс топика MQTT")
	flag.StringVar(&natsURL, "nats", "", "адрес NATS")
	flag.StringVar(&subject, "subject", nats.DefaultSubject, "тема NATS")
	flag.IntVar(&interval, "interval", 5, "период отправки пакета в секундах")
	flag.BoolVar(&verbose, "v", false, "подробный вывод")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	if mac == "" || (broker == "" && natsURL == "") || interval < 1 {
		flag.Usage()
		os.Exit(2)
	}

	var (
		p   publisher
		err error
	)
	if natsURL != "" {
		p, err = newNATSPublisher(natsURL, subject, mac)
	} else {
		p, err = newMQTTPublisher(broker, prefix, mac)
	}
	if err != nil {
		log.Fatalf("Не удалось подключиться к транспорту: %v", err)
	}
	defer p.Close()

	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		p.Close()
		log.Fatalf("Не удалось открыть порт %s: %v", portName, err)
	}
	defer port.Close()
	log.WithFields(log.Fields{"port": portName, "baud": baudRate}).Info("Порт GPS открыт")

	b := &batch{}
	done := make(chan error, 1)
	go func() { done <- read(port, b) }()

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			flush(b, p)
		case err := <-done:
			flush(b, p)
			if err != nil {
				log.Errorf("Ошибка чтения порта: %v", err)
			}
			return
		case <-quit:
			flush(b, p)
			return
		}
	}
}
