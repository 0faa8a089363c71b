// Package console реализует экран распознавания в терминале:
// пустая строка делает снимок, q закрывает экран.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	app "ocr-camera-bot/internal/application"
	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// ChatID идентификатор единственного экрана терминала
const ChatID int64 = 0

const (
	msgPermissionPrompt = "📷 Разрешить доступ к камере? [y/N] "
	msgHelp             = "Enter или c — снимок, s — состояние, q — выход"
)

// Console терминальная поверхность: вывод сообщений и запрос доступа
type Console struct {
	in     io.Reader
	out    io.Writer
	device port.PermissionGate

	mu      sync.Mutex
	pending func(bool)
}

// New создаёт терминальную поверхность
func New(in io.Reader, out io.Writer, device port.PermissionGate) *Console {
	return &Console{in: in, out: out, device: device}
}

// ShowText печатает текст области результата
func (c *Console) ShowText(ctx context.Context, screen *entity.Screen, text string) {
	c.printf("» %s\n", text)
}

// ShowToast печатает уведомление
func (c *Console) ShowToast(ctx context.Context, screen *entity.Screen, text string) {
	c.printf("[!] %s\n", text)
}

// HasPermission всегда false: согласие спрашивается при каждом запуске
func (c *Console) HasPermission(ctx context.Context, screen *entity.Screen) bool {
	return false
}

// RequestPermission печатает вопрос, ответом служит следующая строка ввода
func (c *Console) RequestPermission(ctx context.Context, screen *entity.Screen, onResult func(granted bool)) {
	if c.device != nil && !c.device.HasPermission(ctx, screen) {
		onResult(false)
		return
	}

	c.mu.Lock()
	c.pending = onResult
	c.mu.Unlock()

	c.printf("%s", msgPermissionPrompt)
}

// Run открывает экран и обрабатывает ввод до выхода, конца ввода или закрытия экрана
func (c *Console) Run(ctx context.Context, screens *app.ScreenService) error {
	screen, _ := screens.Open(ctx, ChatID)

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go c.scan(lines, stop)

	for {
		select {
		case <-ctx.Done():
			screens.Close(ctx, ChatID)
			return nil

		case <-screen.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				screens.Close(ctx, ChatID)
				return nil
			}
			if c.answer(line) {
				continue
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "c":
				screen.Capture()
			case "s":
				state := screen.State()
				c.printf("%s: %s\n", state.Phase, state.Output)
			case "q":
				screens.Close(ctx, ChatID)
				select {
				case <-screen.Done():
				case <-ctx.Done():
				}
				return nil
			default:
				c.printf("%s\n", msgHelp)
			}
		}
	}
}

// answer передаёт строку ожидающему запросу доступа
func (c *Console) answer(line string) bool {
	c.mu.Lock()
	onResult := c.pending
	c.pending = nil
	c.mu.Unlock()

	if onResult == nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		onResult(true)
	default:
		onResult(false)
	}
	return true
}

func (c *Console) scan(lines chan<- string, stop <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-stop:
			return
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

var (
	_ port.Presenter      = (*Console)(nil)
	_ port.PermissionGate = (*Console)(nil)
)
