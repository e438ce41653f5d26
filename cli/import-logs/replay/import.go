package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/assembly"
	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	log "github.com/sirupsen/logrus"
)

const maxLineSize = 1024 * 1024

type Summary struct {
	Lines      int
	Sentences  int
	Orphans    int
	Batches    int
	Inserted   int
	Duplicates int
	Skipped    int
	Malformed  int
}

func (s Summary) String() string {
	return fmt.Sprintf("строк %d, предложений %d, без устройства %d, пакетов %d, вставлено %d, дубликатов %d, пропущено %d, некорректных %d",
		s.Lines, s.Sentences, s.Orphans, s.Batches, s.Inserted, s.Duplicates, s.Skipped, s.Malformed)
}

// Importer повторно сохраняет отметки из логов приёмника
type Importer struct {
	Fixes         primary.PrimarySource
	MinSatellites int
	// Date дата матча. Если не задана, для записей без RMC берётся дата записи лога.
	Date time.Time
}

type batchKey struct {
	device string
	date   string
}

func (im *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	var (
		summary Summary
		parser  Parser
		order   []batchKey
		batches = map[batchKey][]string{}
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		summary.Lines++
		entry, ok := parser.Line(scanner.Text())
		if !ok {
			continue
		}
		summary.Sentences++
		if entry.DeviceID == "" {
			summary.Orphans++
			continue
		}

		date := im.Date
		if date.IsZero() {
			date = entry.Time
		}
		key := batchKey{device: entry.DeviceID, date: date.Format("2006-01-02")}
		if _, ok := batches[key]; !ok {
			order = append(order, key)
		}
		batches[key] = append(batches[key], entry.Sentence)
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("ошибка чтения лога: %w", err)
	}

	for _, key := range order {
		fallback, err := time.Parse("2006-01-02", key.date)
		if err != nil {
			return summary, fmt.Errorf("некорректная дата пакета %s: %w", key.date, err)
		}

		saveBatch := domain.SaveBatch{
			Fixes:     im.Fixes,
			Assembler: assembly.New(assembly.Options{MinSatellites: im.MinSatellites, FallbackDate: fallback}),
		}
		result, err := saveBatch.Run(ctx, key.device, strings.Join(batches[key], "\n"))
		if err != nil {
			return summary, fmt.Errorf("не удалось импортировать пакет устройства %s за %s: %w", key.device, key.date, err)
		}

		summary.Batches++
		summary.Inserted += result.Inserted
		summary.Duplicates += result.Duplicates
		summary.Skipped += result.Skipped
		summary.Malformed += result.Malformed

		log.WithFields(log.Fields{"mac": key.device, "date": key.date}).
			Infof("Импортировано %d, дубликатов %d, пропущено %d", result.Inserted, result.Duplicates, result.Skipped)
	}

	return summary, nil
}
