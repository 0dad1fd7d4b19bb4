package factory

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/llm"
	"github.com/ilkoid/prompt-courier/pkg/llm/gemini"
	"github.com/ilkoid/prompt-courier/pkg/prompts"
	"github.com/ilkoid/prompt-courier/pkg/report"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestNew_Gemini(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetEnv(t, "GEMINI_API_KEY")

	s, err := New(context.Background(), llm.BackendGemini, "", newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "gemini", s.Name())
}

func TestNew_XAI(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	unsetEnv(t, "XAI_API_KEY")

	s, err := New(context.Background(), llm.BackendXAI, "", newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "xai", s.Name())
}

func TestNew_Ollama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"models":[{"name":"test-model:latest"}]}`)
	}))
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", srv.URL)

	s, err := New(context.Background(), llm.BackendOllama, "test-model", newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "ollama", s.Name())
}

func TestNew_OllamaDaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	t.Setenv("OLLAMA_HOST", srv.URL)

	_, err := New(context.Background(), llm.BackendOllama, "", newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to Ollama")
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), llm.Backend("bedrock"), "", newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend: bedrock")
}

// TestGeminiSimulationEndToEnd прогоняет полный путь утилиты без сети:
// поиск промпта, сборка клиента без ключа, отправка, сохранение отчета.
func TestGeminiSimulationEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts", "demo.txt"),
		[]byte("Explain goroutines."), 0644))

	t.Chdir(dir)
	unsetEnv(t, "GEMINI_API_KEY")

	logger := newTestLogger()
	locator := prompts.NewLocator(prompts.DefaultDir)

	promptPath, err := locator.Resolve("demo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("prompts", "demo.txt"), promptPath)

	text, err := os.ReadFile(promptPath)
	require.NoError(t, err)

	s, err := New(context.Background(), llm.BackendGemini, "", logger)
	require.NoError(t, err)

	outcome := s.Submit(context.Background(), llm.Request{
		Name:    "demo",
		Text:    string(text),
		Backend: llm.BackendGemini,
	})
	require.True(t, outcome.OK)

	outPath := report.DefaultPath(s.Name(), "demo", outcome.SubmittedAt)
	fields := []report.Field{
		{Key: "prompt", Value: "demo"},
		{Key: "submitted_at", Value: outcome.SubmittedAt.Format(report.TimeLayout)},
		{Key: "model", Value: config.DefaultGeminiModel},
	}
	require.NoError(t, report.NewWriter(logger).Write(outPath, fields, outcome.Text))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "prompt: demo\n")
	assert.Contains(t, content, "model: "+config.DefaultGeminiModel+"\n")
	assert.Contains(t, content, gemini.SimulationResponse)

	// Порядок полей заголовка фиксирован.
	assert.Less(t, strings.Index(content, "prompt:"), strings.Index(content, "submitted_at:"))
	assert.Less(t, strings.Index(content, "submitted_at:"), strings.Index(content, "model:"))
}
