package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "ocr-camera-bot/internal/application"
	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// botAPI методы Telegram API, которыми пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Messenger отправляет сообщения экранов в чаты.
// Запросы к Telegram выполняются на outbox в порядке отправки.
type Messenger struct {
	api    botAPI
	outbox app.Executor
	log    *slog.Logger
}

// NewMessenger создаёт отправителя сообщений. Без outbox отправка синхронная.
func NewMessenger(api botAPI, outbox app.Executor, logger *slog.Logger) *Messenger {
	if outbox == nil {
		outbox = app.Inline
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Messenger{api: api, outbox: outbox, log: logger}
}

// ShowText отправляет текст области результата с кнопкой съёмки
func (m *Messenger) ShowText(ctx context.Context, screen *entity.Screen, text string) {
	msg := tgbotapi.NewMessage(screen.ChatID, text)
	msg.ReplyMarkup = captureKeyboard()
	m.send(msg)
}

// ShowToast отправляет короткое уведомление
func (m *Messenger) ShowToast(ctx context.Context, screen *entity.Screen, text string) {
	m.sendMessage(screen.ChatID, text)
}

// sendMessage отправляет текстовое сообщение
func (m *Messenger) sendMessage(chatID int64, text string) {
	m.send(tgbotapi.NewMessage(chatID, text))
}

// sendPhoto отправляет JPEG с подписью
func (m *Messenger) sendPhoto(chatID int64, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "preview.jpg", Bytes: data})
	photo.Caption = caption
	m.send(photo)
}

func (m *Messenger) send(c tgbotapi.Chattable) {
	m.outbox.Execute(func() {
		if _, err := m.api.Send(c); err != nil {
			m.log.Error("error sending message", "error", err)
		}
	})
}

func captureKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCapture)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// Проверка реализации интерфейса
var _ port.Presenter = (*Messenger)(nil)
