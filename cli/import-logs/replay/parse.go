package replay

/*
Разбор логов приёмника. Поддерживаются два формата:

файловый лог logrus:
  time="2026-01-09T17:23:54+01:00" level=info msg="[INCOMING] RAW GPS: $GNRMC,..." mac="AA:BB:CC:DD:EE:FF"

лог прежнего приёмника, где пакет целиком попадал в одну запись, а его строки шли следом без префикса:
  INFO 2026-01-09 17:23:54,551 receiver 3866476 140 [INCOMING] RAW GPS: $GNRMC,...
*/

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	macPrefix = "[INCOMING] MAC: "
	rawPrefix = "[INCOMING] RAW GPS: "
)

var legacyLine = regexp.MustCompile(`^[A-Z]+ (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),(\d{3}) .*?(\[INCOMING\] (?:MAC|RAW GPS): .*)$`)

// Entry одно предложение NMEA из лога
type Entry struct {
	Time     time.Time
	DeviceID string
	Sentence string
}

// Parser помнит последнее устройство и время записи, чтобы привязать к ним строки без префикса
type Parser struct {
	device string
	time   time.Time
}

// Line возвращает предложение, если строка лога его содержит
func (p *Parser) Line(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}

	if strings.HasPrefix(line, "$") {
		return p.sentence(line, "")
	}

	if strings.HasPrefix(line, "time=") {
		fields := parseFields(line)
		if t, err := time.Parse(time.RFC3339Nano, fields["time"]); err == nil {
			p.time = t
		}
		return p.message(fields["msg"], fields["mac"])
	}

	if m := legacyLine.FindStringSubmatch(line); m != nil {
		if t, err := time.Parse("2006-01-02 15:04:05", m[1]); err == nil {
			ms, _ := strconv.Atoi(m[2])
			p.time = t.Add(time.Duration(ms) * time.Millisecond)
		}
		return p.message(m[3], "")
	}

	return Entry{}, false
}

func (p *Parser) message(msg, mac string) (Entry, bool) {
	switch {
	case strings.HasPrefix(msg, macPrefix):
		p.device = strings.TrimSpace(strings.TrimPrefix(msg, macPrefix))
		return Entry{}, false
	case strings.HasPrefix(msg, rawPrefix):
		return p.sentence(strings.TrimSpace(strings.TrimPrefix(msg, rawPrefix)), mac)
	}
	return Entry{}, false
}

func (p *Parser) sentence(s, mac string) (Entry, bool) {
	if !strings.HasPrefix(s, "$") {
		return Entry{}, false
	}
	if mac != "" {
		p.device = mac
	}
	return Entry{Time: p.time, DeviceID: p.device, Sentence: s}, true
}

// parseFields разбирает пары key=value, значения в кавычках раскавычиваются
func parseFields(line string) map[string]string {
	fields := map[string]string{}
	for line != "" {
		line = strings.TrimLeft(line, " ")
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			break
		}
		key := line[:eq]
		line = line[eq+1:]

		var value string
		if strings.HasPrefix(line, `"`) {
			end := closingQuote(line)
			if end < 0 {
				fields[key] = line
				break
			}
			quoted := line[:end+1]
			if v, err := strconv.Unquote(quoted); err == nil {
				value = v
			} else {
				value = quoted[1 : len(quoted)-1]
			}
			line = line[end+1:]
		} else {
			end := strings.IndexByte(line, ' ')
			if end < 0 {
				end = len(line)
			}
			value = line[:end]
			line = line[end:]
		}
		fields[key] = value
	}
	return fields
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
