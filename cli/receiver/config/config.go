package config

/*
Описание конфигурационного файла

host, port          – адрес HTTP API
tcp_port, conn_ttl  – TCP-приём NMEA и таймаут простоя соединения в секундах
white_list          – адреса, которым разрешено подключаться по TCP ("10.*")
fix_store           – основное хранилище отметок (driver: memory|postgresql|mysql)
sinks               – выходные хранилища, куда дублируются новые отметки
sessions            – источник сессий (backend: static|redis)
*/

import (
	"fmt"
	"os"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/track"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

const (
	SessionsStatic = "static"
	SessionsRedis  = "redis"

	DefaultPort         = "8080"
	DefaultNATSSubject  = "gps.raw"
	DefaultMQTTTopic    = "gps/raw/+"
	DefaultAsyncBuffer  = 1024
	DefaultDefaultHours = 24
)

type ApiKey struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
}

type StaticSession struct {
	ID   string `yaml:"id"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
	// Date сессия на весь день в UTC, YYYY-MM-DD. Используется, если не заданы from и to.
	Date    string   `yaml:"date"`
	BaseMAC string   `yaml:"base_mac"`
	BaseLat *float64 `yaml:"base_lat"`
	BaseLon *float64 `yaml:"base_lon"`
}

type Sessions struct {
	Backend string            `yaml:"backend"`
	Redis   map[string]string `yaml:"redis"`
	Static  []StaticSession   `yaml:"static"`
}

type Ingest struct {
	MinSatellites  int    `yaml:"min_satellites"`
	VerifyChecksum bool   `yaml:"verify_checksum"`
	NATSURL        string `yaml:"nats_url"`
	NATSSubject    string `yaml:"nats_subject"`
	MQTTBroker     string `yaml:"mqtt_broker"`
	MQTTClientID   string `yaml:"mqtt_client_id"`
	MQTTTopic      string `yaml:"mqtt_topic"`
}

type Track struct {
	// TickWidth ширина тика в секундах
	TickWidth         float64  `yaml:"tick_width"`
	Interpolate       *bool    `yaml:"interpolate"`
	UncorrectedPolicy string   `yaml:"uncorrected_policy"`
	MaxGapTicks       int      `yaml:"max_gap_ticks"`
	SpeedThreshold    *float64 `yaml:"speed_threshold"`
	Mode              string   `yaml:"mode"`
	SmoothingWindow   int      `yaml:"smoothing_window"`
	DefaultHours      int      `yaml:"default_hours"`
}

type Stability struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
	Hours    int    `yaml:"hours"`
}

type Async struct {
	Buffer  int `yaml:"buffer"`
	Workers int `yaml:"workers"`
}

type Settings struct {
	Host           string                       `yaml:"host"`
	Port           string                       `yaml:"port"`
	TCPPort        string                       `yaml:"tcp_port"`
	ConnTTL        int                          `yaml:"conn_ttl"`
	WhiteList      []string                     `yaml:"white_list"`
	LogLevel       string                       `yaml:"log_level"`
	LogFilePath    string                       `yaml:"log_file_path"`
	LogMaxAgeDays  int                          `yaml:"log_max_age_days"`
	MigrationsPath string                       `yaml:"migrations_path"`
	FixStore       map[string]string            `yaml:"fix_store"`
	Sinks          map[string]map[string]string `yaml:"sinks"`
	ApiKeys        []ApiKey                     `yaml:"api_keys"`
	Sessions       Sessions                     `yaml:"sessions"`
	Ingest         Ingest                       `yaml:"ingest"`
	Track          Track                        `yaml:"track"`
	Stability      Stability                    `yaml:"stability"`
	Async          Async                        `yaml:"async"`
}

func (s *Settings) GetEmptyConnTTL() time.Duration {
	return time.Duration(s.ConnTTL) * time.Second
}

func (s *Settings) GetListenAddress() string {
	return s.Host + ":" + s.Port
}

// GetTCPListenAddress пустая строка, если TCP-приём выключен
func (s *Settings) GetTCPListenAddress() string {
	if s.TCPPort == "" {
		return ""
	}
	return s.Host + ":" + s.TCPPort
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func (s *Settings) GetCorrection() track.Config {
	policy, _ := track.ParsePolicy(s.Track.UncorrectedPolicy)
	return track.Config{
		Width:       time.Duration(s.Track.TickWidth * float64(time.Second)),
		Interpolate: s.Track.Interpolate == nil || *s.Track.Interpolate,
		Uncorrected: policy,
		MaxGapTicks: s.Track.MaxGapTicks,
	}
}

// GetThreshold порог скорости в км/ч, 0 допустим и означает отсутствие порога
func (s *Settings) GetThreshold() float64 {
	if s.Track.SpeedThreshold == nil {
		return track.DefaultThreshold
	}
	return *s.Track.SpeedThreshold
}

func (s *Settings) GetMode() track.Mode {
	mode, _ := track.ParseMode(s.Track.Mode)
	return mode
}

// GetStaticSessions сессии из конфига в том же формате, что и записи в Redis
func (s *Settings) GetStaticSessions() ([]types.Session, error) {
	sessions := make([]types.Session, 0, len(s.Sessions.Static))
	for _, st := range s.Sessions.Static {
		if st.Date != "" && st.From == "" && st.To == "" {
			date, err := time.Parse(time.DateOnly, st.Date)
			if err != nil {
				return nil, fmt.Errorf("некорректная дата сессии %s в конфиге: %w", st.ID, err)
			}
			day := types.DayWindow(date)
			st.From, st.To = day.From.Format(time.RFC3339), day.To.Format(time.RFC3339)
		}
		fields := map[string]string{
			session.FieldFrom:    st.From,
			session.FieldTo:      st.To,
			session.FieldBaseMAC: st.BaseMAC,
		}
		if st.BaseLat != nil {
			fields[session.FieldBaseLat] = fmt.Sprint(*st.BaseLat)
		}
		if st.BaseLon != nil {
			fields[session.FieldBaseLon] = fmt.Sprint(*st.BaseLon)
		}

		decoded, err := session.Decode(st.ID, fields)
		if err != nil {
			return nil, fmt.Errorf("некорректная сессия %s в конфиге: %w", st.ID, err)
		}
		sessions = append(sessions, decoded)
	}
	return sessions, nil
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	c.applyDefaults()

	return c, err
}

func (c *Settings) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.MigrationsPath == "" {
		c.MigrationsPath = "file://migrations"
	}

	switch c.Sessions.Backend {
	case "":
		c.Sessions.Backend = SessionsStatic
	case SessionsStatic, SessionsRedis:
	default:
		log.Errorf("Unknown sessions backend %q. Defaulting to %q.", c.Sessions.Backend, SessionsStatic)
		c.Sessions.Backend = SessionsStatic
	}

	if c.Ingest.MinSatellites < 0 {
		log.Errorf("Invalid min_satellites (%d). Defaulting to 6.", c.Ingest.MinSatellites)
		c.Ingest.MinSatellites = 0
	}
	if c.Ingest.NATSSubject == "" {
		c.Ingest.NATSSubject = DefaultNATSSubject
	}
	if c.Ingest.MQTTTopic == "" {
		c.Ingest.MQTTTopic = DefaultMQTTTopic
	}

	if c.Track.TickWidth < 0 {
		log.Errorf("Invalid tick_width (%f). Defaulting to 0.1 s.", c.Track.TickWidth)
		c.Track.TickWidth = 0
	}
	if c.Track.TickWidth == 0 {
		c.Track.TickWidth = track.DefaultTickWidth.Seconds()
	}
	if _, err := track.ParsePolicy(c.Track.UncorrectedPolicy); err != nil {
		log.Errorf("%v. Defaulting to %q.", err, track.PassThrough)
		c.Track.UncorrectedPolicy = string(track.PassThrough)
	}
	if c.Track.UncorrectedPolicy == "" {
		c.Track.UncorrectedPolicy = string(track.PassThrough)
	}
	if c.Track.MaxGapTicks < 0 {
		log.Errorf("Invalid max_gap_ticks (%d). Defaulting to unlimited.", c.Track.MaxGapTicks)
		c.Track.MaxGapTicks = 0
	}
	if c.Track.SpeedThreshold != nil && *c.Track.SpeedThreshold < 0 {
		log.Errorf("Invalid speed_threshold (%f). Defaulting to %.1f km/h.", *c.Track.SpeedThreshold, track.DefaultThreshold)
		c.Track.SpeedThreshold = nil
	}
	if _, err := track.ParseMode(c.Track.Mode); err != nil {
		log.Errorf("%v. Defaulting to %q.", err, track.ModeRaw)
		c.Track.Mode = string(track.ModeRaw)
	}
	if c.Track.Mode == "" {
		c.Track.Mode = string(track.ModeRaw)
	}
	if c.Track.SmoothingWindow <= 0 {
		c.Track.SmoothingWindow = track.DefaultWindow
	}
	if c.Track.DefaultHours <= 0 {
		c.Track.DefaultHours = DefaultDefaultHours
	}

	if c.Stability.Hours <= 0 {
		c.Stability.Hours = c.Track.DefaultHours
	}

	if c.Async.Buffer <= 0 {
		c.Async.Buffer = DefaultAsyncBuffer
	}
	if c.Async.Workers < 0 {
		log.Errorf("Invalid async workers (%d). Defaulting to the number of CPUs.", c.Async.Workers)
		c.Async.Workers = 0
	}
}
