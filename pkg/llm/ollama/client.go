// Package ollama реализует llm.Submitter поверх REST API локального демона.
//
// В отличие от облачных клиентов режима симуляции здесь нет: демон обязан
// быть доступен в момент создания клиента, иначе конструктор возвращает
// ошибку и утилита завершается до какого-либо файлового вывода.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/llm"
)

// Client реализует llm.Submitter для демона Ollama.
type Client struct {
	host        string
	model       string
	temperature float64
	numCtx      int
	httpc       *http.Client
	logger      *slog.Logger
}

// Проверка реализации интерфейса на этапе компиляции.
var _ llm.Submitter = (*Client)(nil)

// ModelInfo — запись каталога моделей демона.
type ModelInfo struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// New создает клиента и гарантирует готовность рабочей модели.
//
// Алгоритм:
//  1. Запрашиваем каталог демона (/api/tags); недоступный демон — ошибка.
//  2. Ищем модель по точному имени или по префиксу "имя:".
//  3. Если модели нет — блокирующий pull перед первой отправкой.
func New(ctx context.Context, cfg config.Ollama, logger *slog.Logger) (*Client, error) {
	c := &Client{
		host:        strings.TrimSuffix(cfg.Host, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		numCtx:      cfg.NumCtx,
		httpc:       &http.Client{},
		logger:      logger,
	}

	if err := c.ensureModel(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Name возвращает машинное имя бэкенда.
func (c *Client) Name() string {
	return llm.BackendOllama.String()
}

// Submit отправляет промпт одним вызовом generate без стриминга.
//
// Параметры сэмплирования фиксированы конфигурацией клиента. Ошибка
// вызова превращается в markdown-артефакт, процесс завершается успешно.
func (c *Client) Submit(ctx context.Context, req llm.Request) llm.Outcome {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	start := time.Now()
	c.logger.Info("Submitting prompt to Ollama", "prompt", req.Name, "model", model)

	text, err := c.generate(ctx, model, req.Text)
	if err != nil {
		c.logger.Error("Ollama API request failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		detail := fmt.Sprintf("Error calling Ollama API: %v", err)
		return llm.Outcome{Text: llm.ErrorArtifact(llm.BackendOllama, detail), SubmittedAt: time.Now()}
	}

	c.logger.Info("Ollama response received",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(text))

	return llm.Outcome{Text: text, OK: true, SubmittedAt: time.Now()}
}

// ListModels запрашивает каталог моделей демона без создания клиента.
//
// Печать каталога не должна тянуть за собой проверку и скачивание
// рабочей модели, поэтому функция пакетная, а не метод клиента.
func ListModels(ctx context.Context, host string) ([]ModelInfo, error) {
	c := &Client{host: strings.TrimSuffix(host, "/"), httpc: &http.Client{}}
	entries, err := c.listTags(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(entries))
	for _, e := range entries {
		models = append(models, ModelInfo{
			Name:       e.displayName(),
			Size:       e.Size,
			ModifiedAt: e.ModifiedAt,
		})
	}
	return models, nil
}

// Формат обмена с демоном.

type modelEntry struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// displayName возвращает имя записи каталога: старые версии демона
// заполняют только name, новые — и name, и model.
func (e modelEntry) displayName() string {
	if e.Model != "" {
		return e.Model
	}
	return e.Name
}

type tagsResponse struct {
	Models []modelEntry `json:"models"`
}

type pullRequest struct {
	Model string `json:"model"`
}

type pullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// ensureModel проверяет наличие рабочей модели в каталоге демона
// и при отсутствии запускает блокирующий pull.
func (c *Client) ensureModel(ctx context.Context) error {
	entries, err := c.listTags(ctx)
	if err != nil {
		return fmt.Errorf("could not connect to Ollama: %w", err)
	}

	for _, e := range entries {
		name := e.displayName()
		if name == c.model || strings.HasPrefix(name, c.model+":") {
			c.logger.Info("Model found in local catalog", "model", name)
			return nil
		}
	}

	c.logger.Info("Model not found locally, pulling", "model", c.model)
	if err := c.pull(ctx); err != nil {
		return fmt.Errorf("failed to pull model %s: %w", c.model, err)
	}
	c.logger.Info("Model pulled successfully", "model", c.model)
	return nil
}

// listTags возвращает записи каталога демона.
func (c *Client) listTags(ctx context.Context) ([]modelEntry, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed tagsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parsed.Models, nil
}

// pull скачивает рабочую модель, читая поток прогресса до конца.
//
// Строки прогресса логируются не чаще раза в секунду, чтобы долгий
// pull большой модели не засорял журнал.
func (c *Client) pull(ctx context.Context) error {
	body, err := json.Marshal(pullRequest{Model: c.model})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	throttle := rate.Sometimes{Interval: time.Second}
	dec := json.NewDecoder(resp.Body)
	for {
		var p pullProgress
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode pull progress: %w", err)
		}
		if p.Error != "" {
			return fmt.Errorf("pull failed: %s", p.Error)
		}

		throttle.Do(func() {
			if p.Total > 0 {
				c.logger.Info("Pulling model",
					"model", c.model,
					"status", p.Status,
					"completed", p.Completed,
					"total", p.Total)
				return
			}
			c.logger.Info("Pulling model", "model", c.model, "status", p.Status)
		})
	}
}

// generate выполняет один вызов /api/generate.
func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	payload := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.temperature,
			NumCtx:      c.numCtx,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Response == "" {
		return "No response generated.", nil
	}
	return parsed.Response, nil
}
