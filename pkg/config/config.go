// Пакет config загружает настройки бэкендов из окружения и dotenv-файлов.
//
// Других форматов конфигурации нет: каждая утилита читает переменные
// процесса, при необходимости подхватывая dotenv-файл (gemini — .env из
// рабочей директории, xai — ~/.env из домашней). Конфигурация читается
// один раз на старте и дальше не меняется.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Значения по умолчанию.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.5-flash-preview-04-17"

	DefaultXAIBaseURL = "https://api.x.ai/v1"
	DefaultXAIModel   = "grok-3-beta"

	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "gemma3:12b-it-q8_0"
)

// Gemini — настройки облачного клиента Gemini.
type Gemini struct {
	APIKey  string // Пустая строка — режим симуляции
	BaseURL string
	Model   string
}

// XAI — настройки облачного клиента xAI.
type XAI struct {
	APIKey  string // Пустая строка — режим симуляции
	BaseURL string
	Model   string
	Retries int // Повторы соединения на уровне транспорта
}

// Ollama — настройки клиента локального демона.
//
// Параметры сэмплирования фиксированы и не переопределяются из CLI.
type Ollama struct {
	Host        string
	Model       string
	Temperature float64
	NumCtx      int
}

// LoadGemini читает конфигурацию Gemini из окружения.
//
// Перед чтением подхватывает .env из текущей рабочей директории;
// отсутствие файла не считается ошибкой.
func LoadGemini() (Gemini, error) {
	if err := loadDotenv(".env"); err != nil {
		return Gemini{}, err
	}
	return Gemini{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		Model:   DefaultGeminiModel,
	}, nil
}

// LoadXAI читает конфигурацию xAI из окружения.
//
// Перед чтением подхватывает ~/.env: ключ xAI хранится в домашней
// директории, а не рядом с проектом.
func LoadXAI() (XAI, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return XAI{}, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if err := loadDotenv(filepath.Join(home, ".env")); err != nil {
		return XAI{}, err
	}
	return XAI{
		APIKey:  os.Getenv("XAI_API_KEY"),
		BaseURL: getEnv("XAI_BASE_URL", DefaultXAIBaseURL),
		Model:   DefaultXAIModel,
		Retries: 3,
	}, nil
}

// LoadOllama читает конфигурацию Ollama из окружения.
//
// Демон локальный, ключей нет, dotenv не используется.
func LoadOllama() Ollama {
	return Ollama{
		Host:        getEnv("OLLAMA_HOST", DefaultOllamaHost),
		Model:       DefaultOllamaModel,
		Temperature: 0.5,
		NumCtx:      4096,
	}
}

// LogLevel возвращает уровень логирования процесса (debug/info/warn/error).
func LogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

// LogFormat возвращает формат логов: text или json.
func LogFormat() string {
	return getEnv("LOG_FORMAT", "text")
}

// loadDotenv подхватывает dotenv-файл, если он существует.
//
// Уже установленные переменные процесса имеют приоритет: godotenv.Load
// не перезаписывает их.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
