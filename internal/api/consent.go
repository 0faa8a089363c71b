package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

const (
	callbackAllow = "camera:allow"
	callbackDeny  = "camera:deny"
)

// ConsentGate доступ к камере: устройство должно быть доступно ОС,
// а пользователь чата должен разрешить съёмку кнопкой.
type ConsentGate struct {
	messenger *Messenger
	device    port.PermissionGate

	mu      sync.Mutex
	granted map[int64]bool
	pending map[int64]func(bool)
}

// NewConsentGate создаёт проверку поверх проверки устройства
func NewConsentGate(messenger *Messenger, device port.PermissionGate) *ConsentGate {
	return &ConsentGate{
		messenger: messenger,
		device:    device,
		granted:   make(map[int64]bool),
		pending:   make(map[int64]func(bool)),
	}
}

// HasPermission проверяет устройство и ранее выданное согласие чата
func (g *ConsentGate) HasPermission(ctx context.Context, screen *entity.Screen) bool {
	g.mu.Lock()
	granted := g.granted[screen.ChatID]
	g.mu.Unlock()

	return granted && g.device.HasPermission(ctx, screen)
}

// RequestPermission спрашивает пользователя. Если устройство недоступно,
// сразу сообщает отказ.
func (g *ConsentGate) RequestPermission(ctx context.Context, screen *entity.Screen, onResult func(granted bool)) {
	if !g.device.HasPermission(ctx, screen) {
		onResult(false)
		return
	}

	g.mu.Lock()
	if prev, ok := g.pending[screen.ChatID]; ok {
		// Предыдущий запрос этого чата больше никто не ждёт
		defer prev(false)
	}
	g.pending[screen.ChatID] = onResult
	g.mu.Unlock()

	msg := tgbotapi.NewMessage(screen.ChatID, msgPermissionPrompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonAllow, callbackAllow),
			tgbotapi.NewInlineKeyboardButtonData(buttonDeny, callbackDeny),
		),
	)
	g.messenger.send(msg)
}

// Resolve передаёт ответ пользователя ожидающему запросу.
// Возвращает false, если запроса не было.
func (g *ConsentGate) Resolve(chatID int64, granted bool) bool {
	g.mu.Lock()
	onResult, ok := g.pending[chatID]
	delete(g.pending, chatID)
	if ok && granted {
		g.granted[chatID] = true
	}
	g.mu.Unlock()

	if !ok {
		return false
	}
	onResult(granted)
	return true
}

// Revoke забывает согласие чата
func (g *ConsentGate) Revoke(chatID int64) {
	g.mu.Lock()
	delete(g.granted, chatID)
	g.mu.Unlock()
}

var _ port.PermissionGate = (*ConsentGate)(nil)
