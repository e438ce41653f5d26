package assembly

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/daniil11ru/gpstrack/libs/nmea"
	log "github.com/sirupsen/logrus"
)

// DefaultMinSatellites минимальное количество спутников для принятия отметки
const DefaultMinSatellites = 6

var (
	ErrEmptyBatch    = errors.New("пустой пакет NMEA")
	ErrMissingDevice = errors.New("не задан идентификатор устройства")
)

type Options struct {
	MinSatellites  int
	VerifyChecksum bool
	// FallbackDate дата для записей без RMC, используется при импорте логов
	FallbackDate time.Time
}

// Skip отклонённая запись и причины
type Skip struct {
	Key     string
	Reasons []string
}

type Report struct {
	Lines     int
	Malformed int
	Ignored   int
	Accepted  int
	Rejected  int
	Reasons   map[string]int
	Skips     []Skip
}

func (r *Report) reject(key string, reasons []string) {
	r.Rejected++
	for _, reason := range reasons {
		r.Reasons[reason]++
	}
	r.Skips = append(r.Skips, Skip{Key: key, Reasons: reasons})
}

type Assembler struct {
	options Options
	parser  nmea.Parser
}

func New(options Options) *Assembler {
	if options.MinSatellites <= 0 {
		options.MinSatellites = DefaultMinSatellites
	}
	return &Assembler{options: options, parser: nmea.Parser{VerifyChecksum: options.VerifyChecksum}}
}

// Assemble разбирает пакет предложений одного устройства и возвращает принятые отметки по возрастанию времени
func (a *Assembler) Assemble(deviceID string, raw string) ([]types.Fix, Report, error) {
	report := Report{Reasons: map[string]int{}}

	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, report, ErrMissingDevice
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, report, ErrEmptyBatch
	}

	builders := map[string]*builder{}
	var keys []string

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		report.Lines++

		sentence, err := a.parser.Parse(line)
		if err != nil {
			report.Malformed++
			log.WithFields(log.Fields{"mac": deviceID, "err": err}).Debugf("[PARSE] Пропущена строка: %q", line)
			continue
		}
		if sentence.Type != nmea.TypeGGA && sentence.Type != nmea.TypeRMC {
			report.Ignored++
			continue
		}

		var (
			gga nmea.GGA
			rmc nmea.RMC
		)
		if sentence.Type == nmea.TypeGGA {
			gga, err = sentence.GGA()
		} else {
			rmc, err = sentence.RMC()
		}
		if err != nil {
			report.Malformed++
			log.WithFields(log.Fields{"mac": deviceID, "err": err}).Debugf("[PARSE] Пропущена строка: %q", line)
			continue
		}

		key := sentence.Time()
		b, ok := builders[key]
		if !ok {
			b = &builder{key: key}
			builders[key] = b
			keys = append(keys, key)
		}
		if sentence.Type == nmea.TypeGGA {
			b.addGGA(gga)
		} else {
			b.addRMC(rmc)
		}
	}

	hasFallbackDate := !a.options.FallbackDate.IsZero()
	fixes := make([]types.Fix, 0, len(keys))
	for _, key := range keys {
		b := builders[key]

		if reasons := b.reasons(a.options.MinSatellites, hasFallbackDate); len(reasons) > 0 {
			report.reject(key, reasons)
			log.WithFields(log.Fields{"mac": deviceID, "time": key, "reason": strings.Join(reasons, ",")}).Warn("[SKIP] Запись отклонена")
			continue
		}

		var (
			timestamp time.Time
			err       error
		)
		if b.date != "" {
			timestamp, err = ParseTimestamp(b.date, key)
		} else {
			timestamp, err = ParseTimeOnDate(a.options.FallbackDate, key)
		}
		if err != nil {
			report.reject(key, []string{ReasonBadTimestamp})
			log.WithFields(log.Fields{"mac": deviceID, "time": key, "err": err}).Warn("[SKIP] Не удалось определить время записи")
			continue
		}

		fixes = append(fixes, b.fix(deviceID, timestamp))
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Timestamp.Before(fixes[j].Timestamp)
	})
	report.Accepted = len(fixes)

	return fixes, report, nil
}
