package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "ocr-camera-bot/internal/application"
	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я нахожу числа на снимках с камеры.

📸 Нажмите «Снять» или отправьте /capture, и я распознаю текст на кадре и пришлю все найденные числа.

📋 Команды:
/capture — сделать снимок
/preview — текущий кадр камеры
/status — состояние экрана
/stop — закрыть экран
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /start и разрешите доступ к камере
2️⃣ Наведите камеру на текст и нажмите «Снять»
3️⃣ Бот пришлёт числа через запятую

💡 Можно просто отправить фото — числа будут найдены на нём.

📋 Команды:
/capture — сделать снимок
/preview — текущий кадр камеры
/stop — закрыть экран`

	msgPermissionPrompt = "📷 Разрешить боту доступ к камере?"
	msgPermissionAnswer = "Ответ принят"
	msgNoScreen         = "📴 Экран не открыт. Отправьте /start."
	msgStopped          = "👋 Экран закрыт. Отправьте /start, чтобы начать заново."
	msgNoPreview        = "📴 Превью пока недоступно."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessingError  = "⚠️ Не удалось получить фото. Попробуйте ещё раз."

	buttonCapture = "📸 Снять"
	buttonAllow   = "✅ Разрешить"
	buttonDeny    = "🚫 Запретить"
)

// PreviewSource источник последнего кадра превью
type PreviewSource interface {
	JPEG() ([]byte, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api       botAPI
	messenger *Messenger
	consent   *ConsentGate
	screens   *app.ScreenService
	repo      port.ScreenRepository
	preview   PreviewSource
	client    *http.Client
	log       *slog.Logger
}

// NewBotAPI авторизуется в Telegram
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return api, nil
}

// NewBot создаёт нового бота
func NewBot(api botAPI, messenger *Messenger, consent *ConsentGate, screens *app.ScreenService, repo port.ScreenRepository, preview PreviewSource, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:       api,
		messenger: messenger,
		consent:   consent,
		screens:   screens,
		repo:      repo,
		preview:   preview,
		client:    http.DefaultClient,
		log:       logger,
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	if strings.TrimSpace(msg.Text) == buttonCapture {
		b.capture(msg.Chat.ID)
		return
	}

	b.messenger.sendMessage(msg.Chat.ID, msgUnknownCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.messenger.sendMessage(chatID, msgStart)
		if _, created := b.screens.Open(ctx, chatID); created {
			b.log.Info("screen opened", "chat_id", chatID)
		}

	case "help":
		b.messenger.sendMessage(chatID, msgHelp)

	case "capture":
		b.capture(chatID)

	case "preview":
		if b.preview == nil {
			b.messenger.sendMessage(chatID, msgNoPreview)
			return
		}
		data, err := b.preview.JPEG()
		if err != nil {
			b.messenger.sendMessage(chatID, msgNoPreview)
			return
		}
		b.messenger.sendPhoto(chatID, data, "")

	case "status":
		screen, err := b.repo.Get(ctx, chatID)
		if err != nil {
			b.messenger.sendMessage(chatID, msgNoScreen)
			return
		}
		b.messenger.sendMessage(chatID, formatStatus(screen))

	case "stop":
		if !b.screens.Close(ctx, chatID) {
			b.messenger.sendMessage(chatID, msgNoScreen)
			return
		}
		b.consent.Revoke(chatID)
		b.messenger.sendMessage(chatID, msgStopped)

	default:
		b.messenger.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает ответ на запрос доступа к камере
func (b *Bot) handleCallback(q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}

	switch q.Data {
	case callbackAllow, callbackDeny:
		if !b.consent.Resolve(q.Message.Chat.ID, q.Data == callbackAllow) {
			b.log.Debug("stale permission answer", "chat_id", q.Message.Chat.ID)
		}
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, msgPermissionAnswer)); err != nil {
		b.log.Error("error answering callback", "error", err)
	}
}

func (b *Bot) capture(chatID int64) {
	screen, ok := b.screens.Get(chatID)
	if !ok {
		b.messenger.sendMessage(chatID, msgNoScreen)
		return
	}
	screen.Capture()
}

// handlePhoto отправляет присланное фото на распознавание
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	screen, ok := b.screens.Get(msg.Chat.ID)
	if !ok {
		b.messenger.sendMessage(msg.Chat.ID, msgNoScreen)
		return
	}

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error("error downloading photo", "chat_id", msg.Chat.ID, "error", err)
		b.messenger.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	b.log.Info("received photo", "chat_id", msg.Chat.ID, "bytes", len(imageData))
	screen.Submit(entity.NewFrame(imageData, 0, nil))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func formatStatus(s entity.Screen) string {
	phase := map[entity.ScreenPhase]string{
		entity.PhaseAwaitingPermission: "ожидает разрешения",
		entity.PhaseReady:              "готов к съёмке",
		entity.PhaseProcessing:         "обрабатывает снимок",
		entity.PhaseTerminated:         "доступ запрещён",
	}[s.Phase]
	if s.Destroyed {
		phase += ", закрыт"
	}

	out := fmt.Sprintf("🖥 Экран %s: %s", s.ID.String()[:8], phase)
	if s.Output != "" {
		out += "\n" + s.Output
	}
	return out
}
