// gemini-submit отправляет один промпт в Gemini и сохраняет ответ
// в timestamped markdown-отчет.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/prompt-courier/pkg/config"
	"github.com/ilkoid/prompt-courier/pkg/factory"
	"github.com/ilkoid/prompt-courier/pkg/llm"
	"github.com/ilkoid/prompt-courier/pkg/logging"
	"github.com/ilkoid/prompt-courier/pkg/prompts"
	"github.com/ilkoid/prompt-courier/pkg/report"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

func main() {
	// 1. Парсим флаги
	var (
		promptName  = flag.String("prompt", "", "Prompt name (file in prompts/ without .txt)")
		outputPath  = flag.String("output", "", "Output file path (default: reports/gemini_<prompt>_<ts>.md)")
		modelName   = flag.String("model", "", "Override model name")
		showHelp    = flag.Bool("help", false, "Show help")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	// 2. Обработка специальных флагов
	if *showVersion {
		fmt.Printf("gemini-submit version %s\n", Version)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 3. Логгер процесса с меткой запуска
	logger := logging.New(config.LogLevel(), config.LogFormat()).
		With("run_id", uuid.NewString(), "backend", llm.BackendGemini.String())

	// 4. Выбираем файл промпта — до какой-либо сетевой активности
	locator := prompts.NewLocator(prompts.DefaultDir)
	path, err := locator.Resolve(*promptName)
	if err != nil {
		logger.Error("Prompt resolution failed", "error", err)
		os.Exit(1)
	}
	name := prompts.Stem(path)

	// 5. Создаем клиента: пустой GEMINI_API_KEY — режим симуляции
	ctx := context.Background()
	submitter, err := factory.New(ctx, llm.BackendGemini, *modelName, logger)
	if err != nil {
		logger.Error("Client initialization failed", "error", err)
		os.Exit(1)
	}

	// 6. Читаем промпт и отправляем
	text, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read prompt file", "error", err, "path", path)
		os.Exit(1)
	}

	model := *modelName
	if model == "" {
		model = config.DefaultGeminiModel
	}

	submissionTime := time.Now()
	outcome := submitter.Submit(ctx, llm.Request{
		Name:    name,
		Text:    string(text),
		Backend: llm.BackendGemini,
		Model:   model,
	})
	if !outcome.OK {
		logger.Warn("Submission failed, error artifact will be saved", "prompt", name)
	}

	// 7. Сохраняем артефакт; ошибка записи фатальна
	outFile := *outputPath
	if outFile == "" {
		outFile = report.DefaultPath(llm.BackendGemini.String(), name, submissionTime)
	}
	writer := report.NewWriter(logger)
	fields := []report.Field{
		{Key: "prompt", Value: name},
		{Key: "submitted_at", Value: outcome.SubmittedAt.Format(report.TimeLayout)},
		{Key: "model", Value: model},
	}
	if err := writer.Write(outFile, fields, outcome.Text); err != nil {
		logger.Error("Failed to save response", "error", err, "path", outFile)
		os.Exit(1)
	}

	fmt.Printf("\nResponse saved to: %s\n", outFile)
}

// printHelp выводит справку
func printHelp() {
	fmt.Println("gemini-submit — отправка промпта в Gemini API с сохранением ответа")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gemini-submit [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -prompt string  Prompt name from prompts/ (interactive list when omitted)")
	fmt.Println("  -output string  Output file path")
	fmt.Println("  -model string   Override model name")
	fmt.Println("  -version        Show version")
	fmt.Println("  -help           Show this help")
	fmt.Println()
	fmt.Println("GEMINI_API_KEY is read from the environment or ./.env.")
	fmt.Println("Without a key the utility runs in simulation mode.")
}
