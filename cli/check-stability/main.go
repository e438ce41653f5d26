package main

/*
Отчёт о стабильности устройств в консоли.

	check-stability -c configs/config.yaml [-session 1] [-mac AA:BB:CC:DD:EE:FF] [-hours 24] [-json]

Без -session берутся отметки за последние -hours часов. Устройство с наименьшим разбросом
отметок – кандидат в базовые станции.
*/

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/daniil11ru/gpstrack/cli/receiver/config"
	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	"github.com/daniil11ru/gpstrack/cli/receiver/dto/response"
	"github.com/daniil11ru/gpstrack/cli/receiver/session/backend"
	"github.com/daniil11ru/gpstrack/cli/receiver/source"
	"github.com/daniil11ru/gpstrack/cli/receiver/stability"
	log "github.com/sirupsen/logrus"
)

func report(w io.Writer, records []stability.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "Нет отметок за выбранный период")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MAC\tТОЧЕК\tСРЕДНЕЕ, М\tСКО, М\tМИН, М\tМАКС, М\tШИРОТА\tДОЛГОТА\tОЦЕНКА")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.6f\t%.6f\t%s\n",
			r.DeviceID, r.Points, r.MeanDistance, r.StdDev, r.MinDistance, r.MaxDistance, r.MeanLat, r.MeanLon, r.Class)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if best, ok := stability.Best(records); ok {
		_, err := fmt.Fprintf(w, "\nКандидат в базовые станции: %s (%s)\n", best.DeviceID, best.Class)
		return err
	}
	return nil
}

func main() {
	var (
		configFilePath string
		sessionID      string
		mac            string
		hours          int
		asJSON         bool
	)
	flag.StringVar(&configFilePath, "c", "", "путь до конфига приёмника")
	flag.StringVar(&sessionID, "session", "", "идентификатор сессии")
	flag.StringVar(&mac, "mac", "", "только одно устройство")
	flag.IntVar(&hours, "hours", 0, "глубина выборки в часах, если сессия не указана")
	flag.BoolVar(&asJSON, "json", false, "вывод в JSON, как в /stability")
	flag.Parse()

	log.SetLevel(log.WarnLevel)

	if configFilePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.New(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
	}

	ctx := context.Background()
	sessions, err := backend.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Не удалось инициализировать источник сессий: %v", err)
	}

	primarySource, err := source.NewDefaultPrimary(cfg.FixStore)
	if err != nil {
		log.Fatalf("Не удалось инициализировать источник данных: %v", err)
	}
	defer primarySource.Close()

	analyze := &domain.AnalyzeStability{Fixes: primarySource, Sessions: sessions, DefaultHours: cfg.Track.DefaultHours}
	records, err := analyze.Run(ctx, domain.StabilityRequest{SessionID: sessionID, Hours: hours, DeviceID: mac})
	if err != nil {
		primarySource.Close()
		log.Fatalf("Не удалось оценить стабильность: %v", err)
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(response.NewStability(records))
	} else {
		err = report(os.Stdout, records)
	}
	if err != nil {
		primarySource.Close()
		log.Fatalf("Ошибка вывода отчёта: %v", err)
	}
}
