package main

/*
Импорт отметок из логов приёмника.

	import-logs -c configs/config.yaml [-date 2026-01-09] [-v] receiver.log [receiver.log.1 ...]

Хранилище берётся из раздела fix_store конфига приёмника, миграции должны быть уже применены.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/daniil11ru/gpstrack/cli/import-logs/replay"
	"github.com/daniil11ru/gpstrack/cli/receiver/config"
	"github.com/daniil11ru/gpstrack/cli/receiver/source"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		configFilePath string
		matchDate      string
		verbose        bool
	)
	flag.StringVar(&configFilePath, "c", "", "путь до конфига приёмника")
	flag.StringVar(&matchDate, "date", "", "дата матча YYYY-MM-DD, по умолчанию дата из лога")
	flag.BoolVar(&verbose, "v", false, "подробный вывод")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{ForceColors: true})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
	if verbose {
		log.SetLevel(log.InfoLevel)
	}

	if configFilePath == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.New(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
	}

	importer := replay.Importer{MinSatellites: cfg.Ingest.MinSatellites}
	if matchDate != "" {
		if importer.Date, err = time.Parse("2006-01-02", matchDate); err != nil {
			log.Fatalf("Некорректная дата матча: %v", err)
		}
	}

	primarySource, err := source.NewDefaultPrimary(cfg.FixStore)
	if err != nil {
		log.Fatalf("Не удалось инициализировать источник данных: %v", err)
	}
	defer primarySource.Close()
	importer.Fixes = primarySource

	failed := false
	for _, path := range flag.Args() {
		if err := importFile(&importer, path); err != nil {
			log.Errorf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		primarySource.Close()
		os.Exit(1)
	}
}

func importFile(importer *replay.Importer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	summary, err := importer.Import(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", path, summary)
	return nil
}
