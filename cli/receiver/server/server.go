package server

/*
TCP-сервер приёма NMEA от устройств, которые не умеют HTTP.

Первая строка соединения – идентификатор устройства (допускается префикс "MAC:"),
дальше строки NMEA. Пакет отправляется на разбор по пустой строке, по достижении
maxBatchLines, по таймауту чтения и при закрытии соединения. На каждый пакет сервер
отвечает строкой "OK inserted=.. duplicates=.. skipped=.. malformed=.." или "ERR <текст>".
*/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	log "github.com/sirupsen/logrus"
)

const maxBatchLines = 1000

type BatchSaver interface {
	Run(ctx context.Context, deviceID string, raw string) (domain.Result, error)
}

type Server struct {
	addr      string
	ttl       time.Duration
	whiteList []string
	saveBatch BatchSaver

	mu sync.Mutex
	l  net.Listener
}

func New(srvAddress string, ttl time.Duration, whiteList []string, saveBatch BatchSaver) *Server {
	return &Server{
		addr:      srvAddress,
		ttl:       ttl,
		whiteList: whiteList,
		saveBatch: saveBatch,
	}
}

func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("не удалось открыть соединение: %w", err)
	}
	s.mu.Lock()
	s.l = l
	s.mu.Unlock()

	log.Infof("Запущен сервер %s", l.Addr())
	return nil
}

// Serve принимает соединения, пока слушатель не будет закрыт
func (s *Server) Serve() {
	l := s.listener()
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.WithField("addr", s.addr).Info("Сервер остановлен")
				return
			}
			log.WithField("err", err).Errorf("Ошибка соединения")
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Run() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.Serve()
	return nil
}

func (s *Server) Addr() net.Addr {
	if l := s.listener(); l != nil {
		return l.Addr()
	}
	return nil
}

func (s *Server) Stop() error {
	if l := s.listener(); l != nil {
		return l.Close()
	}

	return nil
}

func (s *Server) listener() net.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	ip := remoteIP(conn)
	if len(s.whiteList) > 0 && !isInWhiteList(ip, s.whiteList) {
		log.WithField("ip", ip).Warn("Соединение отклонено: адрес не входит в белый список")
		return
	}

	log.WithField("ip", conn.RemoteAddr()).Info("Установлено соединение")

	var (
		deviceID string
		lines    []string
		reader   = bufio.NewReader(conn)
	)

	flush := func() {
		if deviceID == "" || len(lines) == 0 {
			return
		}
		raw := strings.Join(lines, "\n")
		lines = lines[:0]

		result, err := s.saveBatch.Run(context.Background(), deviceID, raw)
		if err != nil {
			_, _ = fmt.Fprintf(conn, "ERR %s\n", err)
			return
		}
		_, _ = fmt.Fprintf(conn, "OK inserted=%d duplicates=%d skipped=%d malformed=%d\n",
			result.Inserted, result.Duplicates, result.Skipped, result.Malformed)
	}

	for {
		if s.ttl > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.ttl))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}

		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)

		switch {
		case line == "" && err == nil:
			flush()
		case line == "":
		case deviceID == "":
			deviceID = strings.TrimSpace(strings.TrimPrefix(line, "MAC:"))
			log.WithFields(log.Fields{"ip": ip, "mac": deviceID}).Debug("Устройство представилось")
		default:
			lines = append(lines, line)
			if len(lines) >= maxBatchLines {
				flush()
			}
		}

		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				log.WithField("ip", ip).Warn("Таймаут чтения")
			} else if err == io.EOF {
				log.WithField("ip", ip).Info("Клиент закрыл соединение")
			} else {
				log.WithField("err", err).Error("Ошибка при получении")
			}
			_ = conn.SetReadDeadline(time.Time{})
			flush()
			return
		}
	}
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

// isInWhiteList точное совпадение адреса или маска вида "192.168.*", звёздочка допускается только в конце
func isInWhiteList(ip string, whiteList []string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return false
	}

	for _, entry := range whiteList {
		if entry == ip {
			return true
		}
		if !strings.HasSuffix(entry, ".*") {
			continue
		}
		prefix := strings.TrimSuffix(entry, "*")
		if strings.Contains(prefix, "*") {
			continue
		}
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
