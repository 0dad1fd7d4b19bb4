// Package gemini реализует llm.Submitter поверх публичного REST API Gemini.
//
// Используется метод generateContent (v1beta): весь промпт уходит одной
// user-частью, ответ собирается из частей первого кандидата.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/llm"
)

// SimulationResponse — детерминированный ответ режима симуляции.
const SimulationResponse = "# Gemini Response (Simulation)\n\nThis is a simulated response because the Gemini API client was not available."

// Client реализует llm.Submitter для Gemini.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
	logger  *slog.Logger
}

// Проверка реализации интерфейса на этапе компиляции.
var _ llm.Submitter = (*Client)(nil)

// New создает клиента Gemini.
//
// При пустом API-ключе клиент переходит в режим симуляции: Submit
// возвращает фиксированную строку без обращения к сети.
func New(cfg config.Gemini, logger *slog.Logger) *Client {
	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpc:   &http.Client{},
		logger:  logger,
	}

	if cfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not found, Gemini client will run in simulation mode")
		return c
	}

	logger.Info("Gemini client initialized", "model", cfg.Model)
	return c
}

// Name возвращает машинное имя бэкенда.
func (c *Client) Name() string {
	return llm.BackendGemini.String()
}

// Submit отправляет промпт и возвращает ответ модели.
//
// Сетевые ошибки не поднимаются наверх: результатом становится
// markdown-артефакт с текстом ошибки, а процесс завершается успешно.
func (c *Client) Submit(ctx context.Context, req llm.Request) llm.Outcome {
	if c.apiKey == "" {
		c.logger.Info("[SIMULATION] Would send prompt to Gemini", "prompt", req.Name)
		return llm.Outcome{Text: SimulationResponse, OK: true, SubmittedAt: time.Now()}
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	start := time.Now()
	c.logger.Info("Submitting prompt to Gemini API", "prompt", req.Name, "model", model)

	text, err := c.generate(ctx, model, req.Text)
	if err != nil {
		c.logger.Error("Gemini API request failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return llm.Outcome{Text: llm.ErrorArtifact(llm.BackendGemini, err.Error()), SubmittedAt: time.Now()}
	}

	c.logger.Info("Gemini response received",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_length", len(text))

	return llm.Outcome{Text: text, OK: true, SubmittedAt: time.Now()}
}

// Формат обмена generateContent.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate выполняет один вызов generateContent.
func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API: no candidates returned")
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
