package logger

import (
	"io"
	"os"

	"anchorview/internal/utils/logger/slogpretty"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// New создает логгер для окружения: local - цветной вывод, dev - JSON с Debug,
// prod и прочие - JSON с Info
func New(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog()
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// NewWithFile дополнительно пишет JSON в файл с ротацией. Пустой path
// равносилен New.
func NewWithFile(env, path string) *slog.Logger {
	if path == "" {
		return New(env)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	return slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stderr, file), &slog.HandlerOptions{
		Level: levelFor(env),
	}))
}

// NewWithLevel как New, но уровень JSON-логгера задается явно ("debug", "info",
// "warn", "error"). Нераспознанный уровень игнорируется.
func NewWithLevel(env, level string) *slog.Logger {
	var lvl slog.Level
	if env == envLocal || lvl.UnmarshalText([]byte(level)) != nil {
		return New(env)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func levelFor(env string) slog.Level {
	if env == envLocal || env == envDev {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
