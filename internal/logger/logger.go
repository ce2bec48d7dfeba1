package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"docfiling/internal/config"
)

// New builds the process logger. Entries go to stdout and, when cfg.File is
// set, to a size-rotated file as well.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(Formatter(cfg.Format, cfg.Location()))
	return l, nil
}

// NewJSON returns an info-level JSON logger writing to w. It is used by
// middleware that accepts a bare writer.
func NewJSON(w io.Writer, loc *time.Location) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(Formatter("json", loc))
	return l
}

// Formatter returns the formatter for format ("json" or "text"), stamping
// entries in loc.
func Formatter(format string, loc *time.Location) logrus.Formatter {
	if loc == nil {
		loc = time.UTC
	}
	var inner logrus.Formatter
	if format == "text" {
		inner = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano}
	} else {
		inner = &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		}
	}
	return &locationFormatter{inner: inner, loc: loc}
}

type locationFormatter struct {
	inner logrus.Formatter
	loc   *time.Location
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.loc)
	return f.inner.Format(e)
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
