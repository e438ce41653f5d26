package nmea

/*
Разбор предложений NMEA-0183, которые присылают трекеры.

Поддерживаются GGA (позиция и качество решения) и RMC (скорость, курс, дата).
Идентификатор источника (GP, GN, GL и т.д.) может быть любым.
*/

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

const (
	TypeGGA = "GGA"
	TypeRMC = "RMC"

	// MinFields минимальное количество полей, при котором строка вообще рассматривается
	MinFields = 10
)

var (
	ErrEmpty        = errors.New("пустая строка")
	ErrTooFewFields = errors.New("недостаточно полей")
	ErrUnknownType  = errors.New("не удалось определить тип предложения")
	ErrNoTime       = errors.New("нет времени в предложении")
	ErrChecksum     = errors.New("контрольная сумма не совпадает")
	ErrBadField     = errors.New("некорректное значение поля")
)

type Sentence struct {
	Talker string
	Type   string
	// Fields поля предложения без контрольной суммы, Fields[0] – "$" + источник + тип
	Fields []string
}

// Time строка времени суток из поля 1 (HHMMSS или HHMMSS.sss)
func (s Sentence) Time() string {
	return s.Fields[1]
}

type Parser struct {
	// VerifyChecksum отбрасывать строки без суммы или с неверной суммой
	VerifyChecksum bool
}

// Parse разбирает строку без проверки контрольной суммы
func Parse(line string) (Sentence, error) {
	return Parser{}.Parse(line)
}

func (p Parser) Parse(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '$'); i > 0 {
		line = line[i:]
	}
	if line == "" {
		return Sentence{}, ErrEmpty
	}

	payload := line
	star := strings.LastIndexByte(line, '*')
	if star != -1 {
		payload = line[:star]
	}

	if p.VerifyChecksum {
		if star == -1 || !strings.HasPrefix(payload, "$") {
			return Sentence{}, ErrChecksum
		}
		sum := strings.TrimSpace(line[star+1:])
		if len(sum) < 2 || !strings.EqualFold(sum[:2], gonmea.Checksum(payload[1:])) {
			return Sentence{}, ErrChecksum
		}
	}

	fields := strings.Split(payload, ",")
	head := fields[0]
	if len(head) < 6 {
		return Sentence{}, ErrUnknownType
	}
	code := head[3:6]
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return Sentence{}, ErrUnknownType
		}
	}

	if len(fields) < MinFields {
		return Sentence{}, ErrTooFewFields
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[1] == "" {
		return Sentence{}, ErrNoTime
	}

	return Sentence{Talker: head[1:3], Type: code, Fields: fields}, nil
}

// GGA: Global Positioning System Fix Data
//
//	1: время (hhmmss.sss)
//	2: широта (ddmm.mmmm)
//	3: N/S
//	4: долгота (dddmm.mmmm)
//	5: E/W
//	6: качество решения (0 – нет решения)
//	7: количество спутников
//	8: HDOP
//	9: высота (м)
type GGA struct {
	Time          string
	Latitude      float64
	Longitude     float64
	PositionValid bool
	Quality       int
	Satellites    int
	HDOP          float64
	Altitude      float64
}

func (s Sentence) GGA() (GGA, error) {
	if s.Type != TypeGGA {
		return GGA{}, fmt.Errorf("ожидалось предложение GGA, получено %s", s.Type)
	}
	f := s.Fields

	var (
		gga GGA
		err error
	)
	gga.Time = f[1]
	if gga.Quality, err = parseInt(f[6], "quality"); err != nil {
		return GGA{}, err
	}
	if gga.Satellites, err = parseInt(f[7], "satellites"); err != nil {
		return GGA{}, err
	}
	if gga.HDOP, err = parseFloat(f[8], "hdop"); err != nil {
		return GGA{}, err
	}
	if gga.Altitude, err = parseFloat(f[9], "altitude"); err != nil {
		return GGA{}, err
	}

	lat, latOK := ToDecimal(f[2], f[3])
	lon, lonOK := ToDecimal(f[4], f[5])
	if latOK && lonOK {
		gga.Latitude, gga.Longitude, gga.PositionValid = lat, lon, true
	}

	return gga, nil
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	1: время (hhmmss.sss)
//	2: статус (A – активно, V – недостоверно)
//	3: широта
//	4: N/S
//	5: долгота
//	6: E/W
//	7: скорость над землёй (узлы)
//	8: курс (градусы)
//	9: дата (ddmmyy)
type RMC struct {
	Time   string
	Status string
	// PositionValid выставляется только при статусе A
	Latitude      float64
	Longitude     float64
	PositionValid bool
	// Speed скорость в км/ч
	Speed  float64
	Course float64
	Date   string
}

func (s Sentence) RMC() (RMC, error) {
	if s.Type != TypeRMC {
		return RMC{}, fmt.Errorf("ожидалось предложение RMC, получено %s", s.Type)
	}
	f := s.Fields

	var (
		rmc RMC
		err error
	)
	rmc.Time = f[1]
	rmc.Status = strings.ToUpper(f[2])
	rmc.Date = f[9]

	knots, err := parseFloat(f[7], "speed")
	if err != nil {
		return RMC{}, err
	}
	rmc.Speed = knots * KnotsToKmh
	if rmc.Course, err = parseFloat(f[8], "course"); err != nil {
		return RMC{}, err
	}

	if rmc.Status == "A" {
		lat, latOK := ToDecimal(f[3], f[4])
		lon, lonOK := ToDecimal(f[5], f[6])
		if latOK && lonOK {
			rmc.Latitude, rmc.Longitude, rmc.PositionValid = lat, lon, true
		}
	}

	return rmc, nil
}

func parseInt(s string, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %q", ErrBadField, name, s)
	}
	return v, nil
}

func parseFloat(s string, name string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %q", ErrBadField, name, s)
	}
	return v, nil
}
