// Пакет prompts отвечает за выбор файла промпта.
//
// Промпт — это обычный текстовый файл в директории prompts/. Утилита
// получает либо имя файла (без расширения), либо интерактивный выбор
// из нумерованного списка. Содержимое файла пакет не интерпретирует.
package prompts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultDir — директория промптов по умолчанию.
const DefaultDir = "prompts"

// Ошибки выбора промпта. Все они фатальны для утилиты и приводят
// к ненулевому коду выхода до какой-либо сетевой активности.
var (
	// ErrNotFound возвращается когда именованный файл промпта отсутствует.
	ErrNotFound = fmt.Errorf("prompt file not found")

	// ErrInvalidSelection возвращается при нечисловом или выходящем
	// за границы списка интерактивном вводе. Повторного запроса нет.
	ErrInvalidSelection = fmt.Errorf("invalid prompt selection")

	// ErrNoPrompts возвращается когда выбирать не из чего.
	ErrNoPrompts = fmt.Errorf("no prompt files available")
)

// Стили интерактивного списка.
var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	indexStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

// Locator выбирает файл промпта по имени или интерактивно.
type Locator struct {
	dir       string
	in        io.Reader
	out       io.Writer
	createDir bool
}

// Option настраивает Locator.
type Option func(*Locator)

// WithInput подменяет источник интерактивного ввода (по умолчанию stdin).
func WithInput(r io.Reader) Option {
	return func(l *Locator) {
		l.in = r
	}
}

// WithOutput подменяет вывод списка промптов (по умолчанию stdout).
func WithOutput(w io.Writer) Option {
	return func(l *Locator) {
		l.out = w
	}
}

// WithDirCreation включает создание директории промптов перед выбором.
// Используется утилитой локального бэкенда.
func WithDirCreation() Option {
	return func(l *Locator) {
		l.createDir = true
	}
}

// NewLocator создает Locator для указанной директории.
func NewLocator(dir string, opts ...Option) *Locator {
	l := &Locator{
		dir: dir,
		in:  os.Stdin,
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve возвращает путь к файлу промпта.
//
// При непустом name путь строится детерминированно: <dir>/<name>.txt.
// Без имени запускается интерактивный выбор из отсортированного списка.
func (l *Locator) Resolve(name string) (string, error) {
	if l.createDir {
		if err := os.MkdirAll(l.dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create prompts directory: %w", err)
		}
	}

	if name != "" {
		return l.resolveNamed(name)
	}
	return l.selectInteractive()
}

func (l *Locator) resolveNamed(name string) (string, error) {
	path := filepath.Join(l.dir, name+".txt")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat prompt file: %w", err)
	}
	return path, nil
}

// selectInteractive печатает нумерованный список и ждет одну строку ввода.
//
// Список отсортирован лексикографически, чтобы номера были стабильны
// между запусками и платформами.
func (l *Locator) selectInteractive() (string, error) {
	files, err := l.listFiles()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoPrompts, l.dir)
	}

	fmt.Fprintln(l.out, titleStyle.Render("Available prompts:"))
	for i, f := range files {
		fmt.Fprintf(l.out, "%s %s\n", indexStyle.Render(strconv.Itoa(i+1)+"."), Stem(f))
	}
	fmt.Fprint(l.out, "\nEnter prompt number to use: ")

	line, err := bufio.NewReader(l.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: failed to read input: %v", ErrInvalidSelection, err)
	}

	selection := strings.TrimSpace(line)
	idx, err := strconv.Atoi(selection)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, selection)
	}
	if idx < 1 || idx > len(files) {
		return "", fmt.Errorf("%w: %d is out of range 1..%d", ErrInvalidSelection, idx, len(files))
	}
	return files[idx-1], nil
}

// listFiles возвращает отсортированные пути *.txt файлов.
// Отсутствующая директория не ошибка: список просто пуст.
func (l *Locator) listFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(l.dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Stem возвращает имя промпта: имя файла без расширения.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
