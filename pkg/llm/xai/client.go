// Package xai реализует llm.Submitter поверх OpenAI-совместимого chat API xAI.
//
// Запрос — одно user-сообщение. Модель фиксирована конфигурацией:
// переопределения с командной строки у этой утилиты нет.
package xai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/llm"
)

// SimulationResponse — детерминированный ответ режима симуляции.
const SimulationResponse = "# xAI Response (Simulation)\n\nThis is a simulated response because the xAI API client was not available."

// Client реализует llm.Submitter для xAI.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// Проверка реализации интерфейса на этапе компиляции.
var _ llm.Submitter = (*Client)(nil)

// New создает клиента xAI.
//
// При пустом API-ключе клиент не падает, а переходит в режим симуляции:
// Submit возвращает фиксированную строку без обращения к сети.
func New(cfg config.XAI, logger *slog.Logger) *Client {
	c := &Client{model: cfg.Model, logger: logger}

	if cfg.APIKey == "" {
		logger.Warn("XAI_API_KEY not found, xAI client will run in simulation mode")
		return c
	}

	// Свой HTTP-транспорт: ограниченные повторы только на уровне соединения,
	// повторов целого запроса на уровне приложения нет.
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{
		Transport: newRetryTransport(http.DefaultTransport, cfg.Retries),
	}
	c.api = openai.NewClientWithConfig(apiCfg)

	logger.Info("xAI client initialized", "base_url", cfg.BaseURL, "model", cfg.Model)
	return c
}

// Name возвращает машинное имя бэкенда.
func (c *Client) Name() string {
	return llm.BackendXAI.String()
}

// Submit отправляет промпт одним user-сообщением и возвращает ответ модели.
//
// Сетевые ошибки не поднимаются наверх: результатом становится
// markdown-артефакт с текстом ошибки, а процесс завершается успешно.
func (c *Client) Submit(ctx context.Context, req llm.Request) llm.Outcome {
	if c.api == nil {
		c.logger.Info("[SIMULATION] Would send prompt to xAI", "prompt", req.Name)
		return llm.Outcome{Text: SimulationResponse, OK: true, SubmittedAt: time.Now()}
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	start := time.Now()
	c.logger.Info("Submitting prompt to xAI API", "prompt", req.Name, "model", model)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
	})
	if err != nil {
		c.logger.Error("xAI API request failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return llm.Outcome{Text: llm.ErrorArtifact(llm.BackendXAI, err.Error()), SubmittedAt: time.Now()}
	}
	if len(resp.Choices) == 0 {
		err := fmt.Errorf("empty response from xAI API: no choices returned")
		c.logger.Error("xAI API request failed", "error", err)
		return llm.Outcome{Text: llm.ErrorArtifact(llm.BackendXAI, err.Error()), SubmittedAt: time.Now()}
	}

	text := resp.Choices[0].Message.Content
	c.logger.Info("xAI response received",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(text))

	return llm.Outcome{Text: text, OK: true, SubmittedAt: time.Now()}
}
