// Package logger bridges the standard library's log/slog, which the rest of
// the module logs through, onto zerolog's console writer.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/meteordb/tablestore/internal/config"
)

func getSLogLevel() slog.Level {
	switch config.Config.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func New() *slog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerologLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(toZerologLevel(getSLogLevel())).With().Timestamp().Logger()
	return slog.New(newZerologHandler(&zerologLogger))
}

func toZerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l < slog.LevelInfo:
		return zerolog.DebugLevel
	case l < slog.LevelWarn:
		return zerolog.InfoLevel
	case l < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologHandler implements slog.Handler over a *zerolog.Logger so every
// package in this module can log through the standard log/slog API while the
// process still gets zerolog's structured console output.
type zerologHandler struct {
	logger *zerolog.Logger
	attrs  []slog.Attr
	group  string
}

func newZerologHandler(l *zerolog.Logger) *zerologHandler {
	return &zerologHandler{logger: l}
}

func (h *zerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return toZerologLevel(level) >= h.logger.GetLevel()
}

func (h *zerologHandler) Handle(_ context.Context, record slog.Record) error {
	var event *zerolog.Event
	switch {
	case record.Level < slog.LevelInfo:
		event = h.logger.Debug()
	case record.Level < slog.LevelWarn:
		event = h.logger.Info()
	case record.Level < slog.LevelError:
		event = h.logger.Warn()
	default:
		event = h.logger.Error()
	}

	for _, a := range h.attrs {
		addAttr(event, h.group, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(event, h.group, a)
		return true
	})

	event.Msg(record.Message)
	return nil
}

func addAttr(event *zerolog.Event, group string, a slog.Attr) {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	event.Interface(key, a.Value.Any())
}

func (h *zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &zerologHandler{logger: h.logger, group: h.group}
	next.attrs = append(next.attrs, h.attrs...)
	next.attrs = append(next.attrs, attrs...)
	return next
}

func (h *zerologHandler) WithGroup(name string) slog.Handler {
	next := &zerologHandler{logger: h.logger, attrs: h.attrs, group: name}
	if h.group != "" {
		next.group = h.group + "." + name
	}
	return next
}
