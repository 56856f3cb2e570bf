// Package logging builds the zerolog loggers of the remoshock binaries.
package logging

import (
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the log output. The zero value logs info and above to
// stderr in console format.
type Options struct {
	Level   string
	JSON    bool
	NoColor bool

	// File additionally writes JSON lines to a rotating log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// OptionsFromEnv reads REMOSHOCK_LOG_LEVEL, REMOSHOCK_LOG_JSON,
// REMOSHOCK_LOG_NOCOLOR and REMOSHOCK_LOG_FILE.
func OptionsFromEnv() Options {
	opts := Options{
		Level: os.Getenv("REMOSHOCK_LOG_LEVEL"),
		File:  os.Getenv("REMOSHOCK_LOG_FILE"),
	}
	opts.JSON, _ = strconv.ParseBool(os.Getenv("REMOSHOCK_LOG_JSON"))
	opts.NoColor, _ = strconv.ParseBool(os.Getenv("REMOSHOCK_LOG_NOCOLOR"))
	return opts
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// New creates the application logger and routes the standard library
// logger through it. Close the returned closer on shutdown to flush the
// log file.
func New(app string, opts Options) (zerolog.Logger, io.Closer) {
	return newWithWriter(app, opts, os.Stderr)
}

func newWithWriter(app string, opts Options, out io.Writer) (zerolog.Logger, io.Closer) {
	var console io.Writer = out
	if !opts.JSON {
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
		}
		writer = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := zerolog.New(writer).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Str("app", app).Logger()

	log.SetFlags(0)
	log.SetOutput(logger)
	return logger, closer
}

// RequestLogger logs every HTTP request with its status and duration.
func RequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		event := logger.Debug()
		if rec.status >= 500 {
			event = logger.Error()
		} else if rec.status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("client_ip", r.RemoteAddr).
			Int("bytes", rec.bytes).
			Msg("http_request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

// Flush lets streaming handlers flush through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
