// ollama-submit отправляет один промпт в локальный демон Ollama и
// сохраняет ответ в timestamped markdown-отчет.
//
// В отличие от облачных утилит демон обязателен: если он недоступен,
// утилита завершается с ошибкой до чтения промпта и без файлового вывода.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/factory"
	"github.com/ilkoid/prompt-courier/pkg/llm"
	"github.com/ilkoid/prompt-courier/pkg/llm/ollama"
	"github.com/ilkoid/prompt-courier/pkg/logging"
	"github.com/ilkoid/prompt-courier/pkg/prompts"
	"github.com/ilkoid/prompt-courier/pkg/report"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

// Стили вывода каталога моделей.
var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

func main() {
	// 1. Парсим флаги
	var (
		promptName  = flag.String("prompt", "", "Prompt name (file in prompts/ without .txt)")
		outputPath  = flag.String("output", "", "Output file path (default: reports/ollama_<prompt>_<ts>.md)")
		modelName   = flag.String("model", "", "Override model name")
		listModels  = flag.Bool("list-models", false, "List locally available models and exit")
		showHelp    = flag.Bool("help", false, "Show help")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	// 2. Обработка специальных флагов
	if *showVersion {
		fmt.Printf("ollama-submit version %s\n", Version)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 3. Логгер процесса с меткой запуска
	logger := logging.New(config.LogLevel(), config.LogFormat()).
		With("run_id", uuid.NewString(), "backend", llm.BackendOllama.String())

	cfg := config.LoadOllama()
	if *modelName != "" {
		cfg.Model = *modelName
	}
	ctx := context.Background()

	// 4. Каталог моделей: печатаем и выходим не отправляя ничего
	if *listModels {
		if err := printModelCatalog(ctx, cfg.Host); err != nil {
			fmt.Printf("Error listing models: %v\n", err)
			fmt.Println("Make sure the Ollama service is running. You can start it by running 'ollama serve' in a terminal.")
		}
		return
	}

	// 5. Выбираем файл промпта; директория создается при отсутствии
	locator := prompts.NewLocator(prompts.DefaultDir, prompts.WithDirCreation())
	path, err := locator.Resolve(*promptName)
	if err != nil {
		logger.Error("Prompt resolution failed", "error", err)
		printResolutionError(err, *promptName)
		os.Exit(1)
	}
	name := prompts.Stem(path)

	// 6. Создаем клиента: проверка каталога демона, pull при необходимости.
	// Недоступный демон фатален — промпт еще не прочитан, отчета нет.
	submitter, err := factory.New(ctx, llm.BackendOllama, *modelName, logger)
	if err != nil {
		logger.Error("Client initialization failed", "error", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// 7. Читаем промпт и отправляем
	text, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read prompt file", "error", err, "path", path)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	submissionTime := time.Now()
	outcome := submitter.Submit(ctx, llm.Request{
		Name:    name,
		Text:    string(text),
		Backend: llm.BackendOllama,
		Model:   cfg.Model,
	})
	if !outcome.OK {
		logger.Warn("Submission failed, error artifact will be saved", "prompt", name)
	}

	// 8. Сохраняем артефакт; ошибка записи фатальна
	outFile := *outputPath
	if outFile == "" {
		outFile = report.DefaultPath(llm.BackendOllama.String(), name, submissionTime)
	}
	writer := report.NewWriter(logger)
	fields := []report.Field{
		{Key: "model", Value: cfg.Model},
		{Key: "prompt", Value: name},
		{Key: "submitted_at", Value: outcome.SubmittedAt.Format(report.TimeLayout)},
	}
	if err := writer.Write(outFile, fields, outcome.Text); err != nil {
		logger.Error("Failed to save response", "error", err, "path", outFile)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nResponse saved to: %s\n", outFile)
}

// printModelCatalog печатает каталог моделей демона: имя, размер в
// гигабайтах и дату изменения, с N/A вместо отсутствующих значений.
func printModelCatalog(ctx context.Context, host string) error {
	models, err := ollama.ListModels(ctx, host)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Available Ollama models:"))
	if len(models) == 0 {
		fmt.Println("No models found. Try running 'ollama pull <model_name>' first.")
		return nil
	}
	for _, m := range models {
		size := "N/A"
		if m.Size > 0 {
			size = fmt.Sprintf("%.1fGB", float64(m.Size)/(1024*1024*1024))
		}
		modified := "N/A"
		if !m.ModifiedAt.IsZero() {
			modified = m.ModifiedAt.Format(time.RFC3339)
		}
		fmt.Printf("- %s (size: %s, modified: %s)\n", nameStyle.Render(m.Name), size, modified)
	}
	return nil
}

// printResolutionError дублирует ошибку выбора промпта дружелюбной
// строкой для оператора, как это всегда делала эта утилита.
func printResolutionError(err error, promptName string) {
	switch {
	case errors.Is(err, prompts.ErrNotFound):
		fmt.Printf("Error: Prompt file '%s.txt' not found in the '%s' directory.\n", promptName, prompts.DefaultDir)
	case errors.Is(err, prompts.ErrNoPrompts):
		fmt.Printf("No prompt files found in %s. Please create a prompt file in the '%s' directory.\n", prompts.DefaultDir, prompts.DefaultDir)
	case errors.Is(err, prompts.ErrInvalidSelection):
		fmt.Println("Invalid selection.")
	default:
		fmt.Printf("Error: %v\n", err)
	}
}

// printHelp выводит справку
func printHelp() {
	fmt.Println("ollama-submit — отправка промпта в локальный Ollama с сохранением ответа")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ollama-submit [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -prompt string  Prompt name from prompts/ (interactive list when omitted)")
	fmt.Println("  -output string  Output file path")
	fmt.Println("  -model string   Override model name")
	fmt.Println("  -list-models    List locally available models and exit")
	fmt.Println("  -version        Show version")
	fmt.Println("  -help           Show this help")
	fmt.Println()
	fmt.Println("The Ollama daemon must be reachable (OLLAMA_HOST, default")
	fmt.Println("http://localhost:11434). A missing model is pulled before the")
	fmt.Println("first submission.")
}
