package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/llm"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newDaemon поднимает фальшивый демон с заданным каталогом моделей.
// Обработчики pull и generate добавляются по месту в тестах.
func newDaemon(t *testing.T, tags string, extra func(mux *http.ServeMux)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, tags)
	})
	if extra != nil {
		extra(mux)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_ModelPresent(t *testing.T) {
	pullCalled := false
	srv := newDaemon(t, `{"models":[{"name":"gemma3:12b-it-q8_0","model":"gemma3:12b-it-q8_0","size":8927406528}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
				pullCalled = true
				io.WriteString(w, `{"status":"success"}`)
			})
		})

	c, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3:12b-it-q8_0"}, newTestLogger())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, pullCalled, "a model already in the catalog must not be pulled")
}

func TestNew_PrefixMatch(t *testing.T) {
	pullCalled := false
	// Каталог хранит имя с тегом; конфигурация — без тега.
	srv := newDaemon(t, `{"models":[{"name":"gemma3:12b-it-q8_0"}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
				pullCalled = true
				io.WriteString(w, `{"status":"success"}`)
			})
		})

	_, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3"}, newTestLogger())
	require.NoError(t, err)
	assert.False(t, pullCalled)
}

func TestNew_PullsMissingModel(t *testing.T) {
	var gotPull pullRequest
	srv := newDaemon(t, `{"models":[{"name":"llama3:8b"}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&gotPull); err != nil {
					t.Errorf("failed to decode pull request: %v", err)
				}
				io.WriteString(w, `{"status":"pulling manifest"}`+"\n")
				io.WriteString(w, `{"status":"downloading","total":1000,"completed":500}`+"\n")
				io.WriteString(w, `{"status":"success"}`+"\n")
			})
		})

	_, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3:12b-it-q8_0"}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "gemma3:12b-it-q8_0", gotPull.Model)
}

func TestNew_PullError(t *testing.T) {
	srv := newDaemon(t, `{"models":[]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"status":"pulling manifest"}`+"\n")
				io.WriteString(w, `{"error":"pull model manifest: file does not exist"}`+"\n")
			})
		})

	_, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "no-such-model"}, newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to pull model no-such-model")
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestNew_DaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3"}, newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to Ollama")
}

func TestSubmit_Success(t *testing.T) {
	var gotGen generateRequest
	srv := newDaemon(t, `{"models":[{"name":"gemma3:12b-it-q8_0"}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&gotGen); err != nil {
					t.Errorf("failed to decode generate request: %v", err)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"model":"gemma3:12b-it-q8_0","response":"Local hello","done":true}`)
			})
		})

	cfg := config.Ollama{Host: srv.URL, Model: "gemma3:12b-it-q8_0", Temperature: 0.5, NumCtx: 4096}
	c, err := New(context.Background(), cfg, newTestLogger())
	require.NoError(t, err)

	outcome := c.Submit(context.Background(), llm.Request{Name: "demo", Text: "Hi", Backend: llm.BackendOllama})

	require.True(t, outcome.OK, "Submit failed: %s", outcome.Text)
	assert.Equal(t, "Local hello", outcome.Text)
	assert.False(t, outcome.SubmittedAt.IsZero())

	// Параметры сэмплирования уходят в запрос как есть, стриминг выключен.
	assert.Equal(t, "gemma3:12b-it-q8_0", gotGen.Model)
	assert.Equal(t, "Hi", gotGen.Prompt)
	assert.False(t, gotGen.Stream)
	assert.Equal(t, 0.5, gotGen.Options.Temperature)
	assert.Equal(t, 4096, gotGen.Options.NumCtx)
}

func TestSubmit_ModelOverride(t *testing.T) {
	var gotGen generateRequest
	srv := newDaemon(t, `{"models":[{"name":"gemma3:12b-it-q8_0"},{"name":"llama3:8b"}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&gotGen); err != nil {
					t.Errorf("failed to decode generate request: %v", err)
				}
				io.WriteString(w, `{"response":"ok"}`)
			})
		})

	c, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3:12b-it-q8_0"}, newTestLogger())
	require.NoError(t, err)

	outcome := c.Submit(context.Background(), llm.Request{Name: "demo", Text: "Hi", Model: "llama3:8b"})

	require.True(t, outcome.OK)
	assert.Equal(t, "llama3:8b", gotGen.Model)
}

func TestSubmit_EmptyResponse(t *testing.T) {
	srv := newDaemon(t, `{"models":[{"name":"gemma3:12b-it-q8_0"}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"response":""}`)
			})
		})

	c, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3:12b-it-q8_0"}, newTestLogger())
	require.NoError(t, err)

	outcome := c.Submit(context.Background(), llm.Request{Name: "demo", Text: "Hi"})

	require.True(t, outcome.OK)
	assert.Equal(t, "No response generated.", outcome.Text)
}

func TestSubmit_APIError(t *testing.T) {
	srv := newDaemon(t, `{"models":[{"name":"gemma3:12b-it-q8_0"}]}`,
		func(mux *http.ServeMux) {
			mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"error":"model runner has unexpectedly stopped"}`)
			})
		})

	c, err := New(context.Background(), config.Ollama{Host: srv.URL, Model: "gemma3:12b-it-q8_0"}, newTestLogger())
	require.NoError(t, err)

	outcome := c.Submit(context.Background(), llm.Request{Name: "demo", Text: "Hi"})

	require.False(t, outcome.OK)
	assert.Contains(t, outcome.Text, "# Ollama API Error")
	assert.Contains(t, outcome.Text, "Error calling Ollama API:")
	assert.Contains(t, outcome.Text, "500")
}

func TestListModels(t *testing.T) {
	// Вторая запись без поля model проверяет запасной вариант с name.
	srv := newDaemon(t, `{"models":[
		{"name":"gemma3:12b-it-q8_0","model":"gemma3:12b-it-q8_0","size":8927406528,"modified_at":"2026-08-01T12:00:00Z"},
		{"name":"llama3:8b","size":4661224676,"modified_at":"2026-07-15T09:30:00Z"}
	]}`, nil)

	models, err := ListModels(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Len(t, models, 2)

	assert.Equal(t, "gemma3:12b-it-q8_0", models[0].Name)
	assert.Equal(t, int64(8927406528), models[0].Size)
	assert.Equal(t, "llama3:8b", models[1].Name)
	assert.Equal(t, 2026, models[1].ModifiedAt.Year())
}

func TestListModels_DaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := ListModels(context.Background(), srv.URL)
	require.Error(t, err)
}
