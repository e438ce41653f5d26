package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/daniil11ru/gpstrack/cli/receiver/api"
	"github.com/daniil11ru/gpstrack/cli/receiver/assembly"
	"github.com/daniil11ru/gpstrack/cli/receiver/config"
	"github.com/daniil11ru/gpstrack/cli/receiver/connector/implementation"
	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	"github.com/daniil11ru/gpstrack/cli/receiver/server"
	"github.com/daniil11ru/gpstrack/cli/receiver/session/backend"
	"github.com/daniil11ru/gpstrack/cli/receiver/source"
	"github.com/daniil11ru/gpstrack/cli/receiver/storage"
	mqtttransport "github.com/daniil11ru/gpstrack/cli/receiver/transport/mqtt"
	transport "github.com/daniil11ru/gpstrack/cli/receiver/transport/nats"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "")
	flag.Parse()
	config, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
		return
	}

	configureLogging(config)

	primarySource, err := source.NewDefaultPrimary(config.FixStore)
	if err != nil {
		log.Fatalf("Не удалось инициализировать источник данных: %v", err)
		return
	}
	defer primarySource.Close()

	if err := applyMigrations(config, primarySource); err != nil {
		log.Fatalf("Не удалось применить миграции: %v", err)
		return
	}

	repo := storage.NewRepository()
	if len(config.Sinks) > 0 {
		if err := repo.LoadStorages(config.Sinks); err != nil {
			log.Fatalf("Не удалось подключить выходные хранилища: %v", err)
			return
		}
	}
	defer repo.Close()
	publisher := storage.NewAsyncRepository(repo, config.Async.Buffer, config.Async.Workers)
	defer func() {
		publisher.Close()
		if failed := publisher.Failed(); failed > 0 {
			log.Warnf("Не удалось сохранить в выходные хранилища %d отметок", failed)
		}
	}()

	sessions, err := backend.New(context.Background(), config)
	if err != nil {
		log.Fatalf("Не удалось инициализировать источник сессий: %v", err)
		return
	}

	saveBatch := &domain.SaveBatch{
		Fixes:     primarySource,
		Publisher: publisher,
		Assembler: assembly.New(assembly.Options{
			MinSatellites:  config.Ingest.MinSatellites,
			VerifyChecksum: config.Ingest.VerifyChecksum,
		}),
	}
	analyzeStability := &domain.AnalyzeStability{
		Fixes:        primarySource,
		Sessions:     sessions,
		DefaultHours: config.Track.DefaultHours,
	}

	scanStability := domain.ScanStability{
		AnalyzeStability: analyzeStability,
		Hours:            config.Stability.Hours,
		CronExpression:   config.Stability.Cron,
		Timezone:         config.Stability.Timezone,
	}
	if err := scanStability.Initialize(); err != nil {
		log.Fatalf("Не удалось запланировать оценку стабильности: %v", err)
		return
	}
	defer scanStability.Shutdown()

	threshold := config.GetThreshold()
	handler := &api.Handler{
		SaveBatch: saveBatch,
		ReconstructTrack: &domain.ReconstructTrack{
			Fixes:        primarySource,
			Sessions:     sessions,
			Correction:   config.GetCorrection(),
			Mode:         config.GetMode(),
			Threshold:    &threshold,
			Window:       config.Track.SmoothingWindow,
			DefaultHours: config.Track.DefaultHours,
		},
		AnalyzeStability: analyzeStability,
		UpdateReference:  &domain.UpdateReference{Sessions: sessions},
	}
	go runApi(handler, config)

	if addr := config.GetTCPListenAddress(); addr != "" {
		srv := server.New(addr, config.GetEmptyConnTTL(), config.WhiteList, saveBatch)
		go func() {
			if err := srv.Run(); err != nil {
				log.Fatalf("Не удалось запустить сервер на %s: %v", addr, err)
			}
		}()
		defer srv.Stop()
	}

	if config.Ingest.NATSURL != "" {
		subscriber, err := transport.Subscribe(config.Ingest.NATSURL, config.Ingest.NATSSubject, saveBatch)
		if err != nil {
			log.Fatalf("Не удалось подписаться на пакеты NATS: %v", err)
			return
		}
		defer subscriber.Close()
	}

	if config.Ingest.MQTTBroker != "" {
		subscriber, err := mqtttransport.Subscribe(config.Ingest.MQTTBroker, config.Ingest.MQTTClientID, config.Ingest.MQTTTopic, saveBatch)
		if err != nil {
			log.Fatalf("Не удалось подписаться на пакеты MQTT: %v", err)
			return
		}
		defer subscriber.Close()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("Получен сигнал %s, остановка приёмника", sig)
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings
	var err error

	if configFilePath == "" {
		return c, errors.New("не задан путь до конфига")
	}

	c, err = config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("ошибка парсинга конфига: %v", err)
	}

	return c, nil
}

func configureLogging(config config.Settings) {
	log.SetLevel(config.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	logFile, err := newLogFile(config)
	if err != nil {
		log.Fatalf("Не получилось создать директорию для логов: %v", err)
	}
	if logFile == nil {
		return
	}

	fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	hook := lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: logFile,
		log.FatalLevel: logFile,
		log.ErrorLevel: logFile,
		log.WarnLevel:  logFile,
		log.InfoLevel:  logFile,
		log.DebugLevel: logFile,
		log.TraceLevel: logFile,
	}, fileFmt)

	log.AddHook(hook)
}

// newLogFile ротируемый файл журнала, nil если log_file_path не задан.
func newLogFile(config config.Settings) (*lumberjack.Logger, error) {
	if config.LogFilePath == "" {
		return nil, nil
	}

	logDir := filepath.Dir(config.LogFilePath)
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, err
	}

	return &lumberjack.Logger{
		Filename:   config.LogFilePath,
		MaxSize:    100,
		MaxBackups: 366,
		MaxAge:     config.LogMaxAgeDays,
		Compress:   true,
	}, nil
}

func runApi(handler *api.Handler, config config.Settings) {
	apiKeys := make([]api.ApiKey, 0, len(config.ApiKeys))
	for _, k := range config.ApiKeys {
		apiKeys = append(apiKeys, api.ApiKey{Name: k.Name, Hash: k.Hash})
	}

	controller := api.NewController(handler, apiKeys)
	log.Infof("Запуск API на %s", config.GetListenAddress())
	if err := controller.Run(config.GetListenAddress()); err != nil {
		log.Fatal(err)
	}
}

// migrationsDir каталог миграций для драйвера хранилища
func migrationsDir(migrationsPath, driver string) string {
	dir := "postgresql"
	if driver == implementation.DriverMySQL {
		dir = "mysql"
	}
	return strings.TrimRight(migrationsPath, "/") + "/" + dir
}

func applyMigrations(config config.Settings, primary *source.DefaultPrimary) error {
	databaseUrl := primary.MigrationURL()
	if databaseUrl == "" {
		log.WithField("driver", primary.Driver()).Info("Хранилище отметок без SQL-схемы, миграции не требуются")
		return nil
	}

	m, err := migrate.New(
		migrationsDir(config.MigrationsPath, primary.Driver()),
		databaseUrl,
	)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("Нет новых миграций для применения")
			return nil
		}
		return fmt.Errorf("ошибка применения миграций: %v", err)
	}

	log.Info("Миграции успешно применены")
	return nil
}
