// Пакет llm определяет контракт бэкенда и общие типы запроса/результата.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Backend — идентификатор бэкенда. Совпадает с префиксом имени файла отчета.
type Backend string

const (
	BackendGemini Backend = "gemini"
	BackendXAI    Backend = "xai"
	BackendOllama Backend = "ollama"
)

// String возвращает машинное имя бэкенда ("gemini", "xai", "ollama").
func (b Backend) String() string {
	return string(b)
}

// Title возвращает отображаемое имя бэкенда для заголовков артефактов.
func (b Backend) Title() string {
	switch b {
	case BackendGemini:
		return "Gemini"
	case BackendXAI:
		return "xAI"
	case BackendOllama:
		return "Ollama"
	}
	return string(b)
}

// Request — один промпт для отправки. Создается один раз на запуск процесса.
type Request struct {
	Name    string  // Имя промпта (stem файла без .txt)
	Text    string  // Содержимое промпта как есть
	Backend Backend // Какой бэкенд обрабатывает запрос
	Model   string  // Переопределение модели; пустая строка — модель клиента
}

// Outcome — результат одной отправки.
//
// Text содержит либо ответ модели, либо markdown-артефакт ошибки:
// сбой сети не поднимается наверх, а фиксируется как валидный результат.
type Outcome struct {
	Text        string
	OK          bool
	SubmittedAt time.Time
}

// Submitter — контракт бэкенда: один вызов, один результат.
type Submitter interface {
	// Name возвращает машинное имя бэкенда.
	Name() string
	// Submit отправляет текст промпта и возвращает результат.
	// Ошибки транспорта логируются внутри и превращаются в артефакт,
	// поэтому error в сигнатуре отсутствует.
	Submit(ctx context.Context, req Request) Outcome
}

// ErrorArtifact форматирует ошибку вызова API как markdown-документ.
//
// Артефакт сохраняется в файл отчета вместо ответа модели, чтобы
// неудачная отправка оставалась записанным и воспроизводимым событием.
func ErrorArtifact(backend Backend, detail string) string {
	return fmt.Sprintf("# %s API Error\n\n```\n%s\n```", backend.Title(), detail)
}
