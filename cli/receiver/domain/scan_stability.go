package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/stability"
	cron "github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultScanCron     = "0 3 * * *"
	DefaultScanTimezone = "UTC"
)

// ScanStability периодическая оценка стабильности устройств за последние часы
type ScanStability struct {
	AnalyzeStability *AnalyzeStability
	Hours            int

	CronExpression string
	Timezone       string

	cronScheduler *cron.Cron
}

func (s *ScanStability) Run(ctx context.Context) ([]stability.Record, error) {
	records, err := s.AnalyzeStability.Run(ctx, StabilityRequest{Hours: s.Hours})
	if err != nil {
		return nil, fmt.Errorf("не удалось оценить стабильность устройств: %w", err)
	}

	for _, r := range records {
		log.WithFields(log.Fields{
			"mac":       r.DeviceID,
			"points":    r.Points,
			"mean":      fmt.Sprintf("%.2f", r.MeanDistance),
			"std":       fmt.Sprintf("%.2f", r.StdDev),
			"stability": r.Class,
		}).Info("[STABILITY] Оценка устройства")
	}
	if best, ok := stability.Best(records); ok {
		log.Infof("[STABILITY] Кандидат в базовые станции: %s (среднее отклонение %.2f м)", best.DeviceID, best.MeanDistance)
	} else {
		log.Info("[STABILITY] Нет устройств с достаточным количеством отметок")
	}

	return records, nil
}

func (s *ScanStability) Initialize() error {
	expression := s.CronExpression
	if expression == "" {
		expression = DefaultScanCron
	}
	timezone := s.Timezone
	if timezone == "" {
		timezone = DefaultScanTimezone
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("не удалось загрузить временную зону %s: %w", timezone, err)
	}
	s.cronScheduler = cron.New(cron.WithLocation(loc))

	_, err = s.cronScheduler.AddFunc(expression, func() {
		log.Info("Запуск запланированной оценки стабильности устройств")
		if _, err := s.Run(context.Background()); err != nil {
			log.Errorf("Ошибка оценки стабильности: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("ошибка при настройке cron-задачи: %w", err)
	}

	s.cronScheduler.Start()
	log.Infof("Запланирована оценка стабильности устройств по расписанию '%s' (%s)", expression, timezone)

	return nil
}

func (s *ScanStability) Shutdown() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Info("Cron-планировщик остановлен")
	}
}
