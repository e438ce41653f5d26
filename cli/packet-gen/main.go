package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/daniil11ru/gpstrack/libs/nmea"
)

/*
Генератор NMEA-пакетов.

Утилита собирает пары GGA и RMC по заданным параметрам и отправляет их TCP-приёмнику.

Usage:
  -mac string
    	Идентификатор устройства (обязательно)
  -time string
    	Метка времени первой отметки в формате RFC 3339 (обязательно)
  -lat float
    	Широта
  -lon float
    	Долгота
  -speed float
    	Скорость, км/ч
  -course float
    	Курс, градусы
  -sats int
    	Количество спутников (default 8)
  -quality int
    	Качество решения GGA (default 1)
  -count int
    	Количество отметок с шагом в секунду (default 1)
  -server string
    	Адрес TCP-приёмника в формате <ip>:<port> (default "localhost:5555")
  -timeout int
    	Время ожидания ответа в секундах (default 5)

Example

```
./packet-gen --mac AA:BB:CC:DD:EE:FF --time 2026-01-09T16:23:52Z --lat 50.2768 --lon 19.0627 --count 10 --server localhost:5555
```
*/

const knotsPerKmh = 1 / 1.852

type fix struct {
	at       time.Time
	lat, lon float64
	speedKmh float64
	course   float64
	sats     int
	quality  int
}

// sentences пара GGA и RMC для одной отметки
func sentences(f fix) []string {
	at := f.at.UTC()
	hhmmss := at.Format("150405.000")
	lat, ns := nmea.FromDecimal(f.lat, true)
	lon, ew := nmea.FromDecimal(f.lon, false)

	gga := nmea.Encode("GN", nmea.TypeGGA,
		hhmmss, lat, ns, lon, ew,
		strconv.Itoa(f.quality), fmt.Sprintf("%02d", f.sats), "0.80", "250.0", "M", "42.1", "M", "", "")

	status := "A"
	if f.quality == 0 {
		status = "V"
	}
	rmc := nmea.Encode("GN", nmea.TypeRMC,
		hhmmss, status, lat, ns, lon, ew,
		strconv.FormatFloat(f.speedKmh*knotsPerKmh, 'f', 2, 64),
		strconv.FormatFloat(f.course, 'f', 2, 64),
		at.Format("020106"), "", "", "A")

	return []string{gga, rmc}
}

// batch тело пакета для TCP-приёмника: идентификатор, предложения и пустая строка
func batch(mac string, fixes []fix) string {
	var b strings.Builder
	b.WriteString(mac)
	b.WriteString("\n")
	for _, f := range fixes {
		for _, s := range sentences(f) {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func main() {
	mac := ""
	ts := ""
	lat := 0.0
	lon := 0.0
	speed := 0.0
	course := 0.0
	sats := 0
	quality := 0
	count := 0
	server := ""
	ackTimeout := 0

	flag.StringVar(&mac, "mac", "", "Идентификатор устройства (обязательно)")
	flag.StringVar(&ts, "time", "", "Метка времени первой отметки в формате RFC 3339 (обязательно)")
	flag.Float64Var(&lat, "lat", 0, "Широта")
	flag.Float64Var(&lon, "lon", 0, "Долгота")
	flag.Float64Var(&speed, "speed", 0, "Скорость, км/ч")
	flag.Float64Var(&course, "course", 0, "Курс, градусы")
	flag.IntVar(&sats, "sats", 8, "Количество спутников")
	flag.IntVar(&quality, "quality", 1, "Качество решения GGA")
	flag.IntVar(&count, "count", 1, "Количество отметок с шагом в секунду")
	flag.StringVar(&server, "server", "localhost:5555", "Адрес TCP-приёмника в формате <ip>:<port>")
	flag.IntVar(&ackTimeout, "timeout", 5, "Время ожидания ответа в секундах")

	flag.Parse()

	if mac == "" {
		fmt.Println("Требуется идентификатор устройства, смотрите помощь (-h)")
		os.Exit(1)
	}

	if ts == "" {
		fmt.Println("Требуется метка времени, смотрите помощь (-h)")
		os.Exit(1)
	}
	timestamp, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		fmt.Println("Ошибка парсинга метки времени: ", err)
		os.Exit(1)
	}

	if count < 1 {
		fmt.Println("Количество отметок должно быть положительным")
		os.Exit(1)
	}

	fixes := make([]fix, 0, count)
	for i := 0; i < count; i++ {
		fixes = append(fixes, fix{
			at:       timestamp.Add(time.Duration(i) * time.Second),
			lat:      lat,
			lon:      lon,
			speedKmh: speed,
			course:   course,
			sats:     sats,
			quality:  quality,
		})
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", server)
	if err != nil {
		fmt.Println("Ошибка преобразования адреса: ", err)
		os.Exit(1)
	}

	conn, err := net.DialTCP("tcp", nil, tcpAddr)
	if err != nil {
		fmt.Println("Ошибка соединения: ", err)
		os.Exit(1)
	}
	defer conn.Close()

	if _, err = conn.Write([]byte(batch(mac, fixes))); err != nil {
		fmt.Println("Ошибка записи на сервер: ", err)
		os.Exit(1)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Duration(ackTimeout) * time.Second))
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		fmt.Println("Ошибка чтения с сервера: ", err)
		os.Exit(1)
	}

	reply = strings.TrimSpace(reply)
	if !strings.HasPrefix(reply, "OK") {
		fmt.Println("Сервер отклонил пакет: ", reply)
		os.Exit(1)
	}

	fmt.Println("Пакет отправлен и обработан сервером:", reply)
}
