// Пакет report сохраняет артефакт отправки — единственный вывод утилиты.
//
// Артефакт — это markdown-файл: шапка с метаданными между строками "---",
// пустая строка, затем текст ответа модели как есть. Один запуск — не
// больше одного артефакта; обратно файл никогда не читается.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDir — директория отчетов по умолчанию.
const DefaultDir = "reports"

// TimeLayout — формат значения submitted_at в шапке артефакта.
const TimeLayout = "2006-01-02 15:04:05"

// Формат временной метки в имени файла.
const fileTimeLayout = "20060102_150405"

// Field — одна пара ключ-значение шапки. Порядок полей в шапке
// совпадает с порядком в срезе.
type Field struct {
	Key   string
	Value string
}

// Writer записывает артефакты на диск.
type Writer struct {
	logger *slog.Logger
}

// NewWriter создает Writer с внедренным логгером.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// DefaultPath строит путь артефакта по умолчанию:
// reports/<backend>_<prompt>_<YYYYMMDD_HHMMSS>.md
func DefaultPath(backend, promptName string, t time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.md", backend, promptName, t.Format(fileTimeLayout))
	return filepath.Join(DefaultDir, name)
}

// Write сохраняет артефакт: шапка из полей в заданном порядке, пустая
// строка, затем текст ответа байт-в-байт, UTF-8.
//
// Родительская директория создается при необходимости. Ошибка записи
// возвращается вызывающему: утилиты завершают процесс ненулевым кодом,
// а не теряют артефакт молча.
func (w *Writer) Write(path string, fields []Field, response string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	for _, f := range fields {
		sb.WriteString(f.Key)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
		sb.WriteByte('\n')
	}
	sb.WriteString("---\n\n")
	sb.WriteString(response)

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	w.logger.Info("Response saved", "path", path, "bytes", sb.Len())
	return nil
}
