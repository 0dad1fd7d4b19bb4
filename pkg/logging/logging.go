// Пакет logging создает логгер процесса.
//
// Логгер конструируется один раз на старте утилиты и передается в
// компоненты явно — глобального состояния логирования нет.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New создает *slog.Logger с заданным уровнем и форматом.
//
// level: debug, info, warn, error (по умолчанию info).
// format: text или json (по умолчанию text). Вывод идет в stderr,
// чтобы не смешиваться с интерактивным выводом утилит.
func New(level, format string) *slog.Logger {
	return slog.New(newHandler(os.Stderr, level, format))
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
