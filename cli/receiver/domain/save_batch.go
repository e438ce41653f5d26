package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/daniil11ru/gpstrack/cli/receiver/assembly"
	"github.com/daniil11ru/gpstrack/cli/receiver/source/primary"
	log "github.com/sirupsen/logrus"
)

type SaveBatch struct {
	Fixes     primary.PrimarySource
	Publisher Publisher
	Assembler *assembly.Assembler
}

type Result struct {
	DeviceID   string          `json:"mac"`
	Lines      int             `json:"lines"`
	Malformed  int             `json:"malformed"`
	Ignored    int             `json:"ignored"`
	Inserted   int             `json:"inserted"`
	Duplicates int             `json:"duplicates"`
	Skipped    int             `json:"skipped"`
	Reasons    map[string]int  `json:"reasons,omitempty"`
	Skips      []assembly.Skip `json:"-"`
}

// Run разбирает пакет NMEA устройства, сохраняет принятые отметки и отправляет новые в выходные хранилища
func (s *SaveBatch) Run(ctx context.Context, deviceID string, raw string) (Result, error) {
	assembler := s.Assembler
	if assembler == nil {
		assembler = assembly.New(assembly.Options{})
	}
	deviceID = strings.TrimSpace(deviceID)

	entry := log.WithField("mac", deviceID)
	entry.Infof("[INCOMING] MAC: %s", deviceID)
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entry.Infof("[INCOMING] RAW GPS: %s", line)
		}
	}

	fixes, report, err := assembler.Assemble(deviceID, raw)
	if err != nil {
		entry.Warnf("[ERROR] Пакет отклонён: %v", err)
		return Result{DeviceID: deviceID}, err
	}

	result := Result{
		DeviceID:  deviceID,
		Lines:     report.Lines,
		Malformed: report.Malformed,
		Ignored:   report.Ignored,
		Skipped:   report.Rejected,
		Reasons:   report.Reasons,
		Skips:     report.Skips,
	}

	for _, fix := range fixes {
		inserted, err := s.Fixes.AddFix(ctx, fix)
		if err != nil {
			entry.WithField("err", err).Errorf("[ERROR] Не удалось сохранить отметку %s", fix)
			return result, fmt.Errorf("%w: %w", ErrStore, err)
		}
		if !inserted {
			result.Duplicates++
			continue
		}
		result.Inserted++
		entry.Debugf("[INSERT] %s, спутников: %d", fix, fix.Satellites)

		if s.Publisher != nil {
			if err := s.Publisher.Save(fix); err != nil {
				entry.WithField("err", err).Warn("Не удалось отправить отметку в выходные хранилища")
			}
		}
	}

	entry.Infof("[RESULT] PLAYER %s: вставлено %d, дубликатов %d, пропущено %d, некорректных строк %d",
		deviceID, result.Inserted, result.Duplicates, result.Skipped, result.Malformed)

	return result, nil
}
