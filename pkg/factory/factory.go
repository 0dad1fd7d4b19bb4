// Пакет factory собирает клиента бэкенда по его идентификатору.
//
// Единая точка выбора реализации llm.Submitter: утилита передает сюда
// константу бэкенда и получает готового клиента с загруженной
// конфигурацией.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/llm"
	"github.com/ilkoid/prompt-courier/pkg/llm/gemini"
	"github.com/ilkoid/prompt-courier/pkg/llm/ollama"
	"github.com/ilkoid/prompt-courier/pkg/llm/xai"
)

// New создает llm.Submitter для указанного бэкенда.
//
// modelOverride заменяет модель по умолчанию; пустая строка оставляет
// конфигурационную. xAI работает только с моделью из конфигурации.
//
// Для ollama создание клиента включает проверку каталога демона и при
// необходимости блокирующее скачивание модели, поэтому ctx обязателен.
// Облачные клиенты при создании сеть не трогают.
func New(ctx context.Context, backend llm.Backend, modelOverride string, logger *slog.Logger) (llm.Submitter, error) {
	switch backend {
	case llm.BackendGemini:
		cfg, err := config.LoadGemini()
		if err != nil {
			return nil, fmt.Errorf("failed to load gemini config: %w", err)
		}
		if modelOverride != "" {
			cfg.Model = modelOverride
		}
		return gemini.New(cfg, logger), nil

	case llm.BackendXAI:
		cfg, err := config.LoadXAI()
		if err != nil {
			return nil, fmt.Errorf("failed to load xai config: %w", err)
		}
		return xai.New(cfg, logger), nil

	case llm.BackendOllama:
		cfg := config.LoadOllama()
		if modelOverride != "" {
			cfg.Model = modelOverride
		}
		return ollama.New(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
}
