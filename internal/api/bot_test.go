package telegram

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "ocr-camera-bot/internal/application"
	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
	"ocr-camera-bot/internal/infrastructure/permission"
	"ocr-camera-bot/internal/infrastructure/storage"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	answered []string
	fileURL  string
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	f.sent = append(f.sent, c)
	f.mu.Unlock()
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb.CallbackQueryID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("no such file")
	}
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() { f.stopped = true }

// texts возвращает тексты всех отправленных сообщений, фото помечаются как "<photo>"
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, "<photo>")
		}
	}
	return out
}

func (f *fakeAPI) last() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type stubProvider struct{ cam *stubCamera }

func (p *stubProvider) Acquire(ctx context.Context) (port.Camera, error) { return p.cam, nil }

type stubCamera struct{}

func (c *stubCamera) UnbindAll(owner string) {}

func (c *stubCamera) Bind(owner string, preview port.PreviewSink, opts port.CaptureOptions) (port.StillCapture, error) {
	return c, nil
}

func (c *stubCamera) TakePicture(ctx context.Context) (*entity.Frame, error) {
	return entity.NewFrame([]byte("png"), 0, nil), nil
}

type stubRecognizer struct {
	mu     sync.Mutex
	inputs [][]byte
}

func (r *stubRecognizer) Process(ctx context.Context, img entity.InputImage) (*entity.RecognizedText, error) {
	r.mu.Lock()
	r.inputs = append(r.inputs, img.Data)
	r.mu.Unlock()
	return &entity.RecognizedText{Blocks: []entity.TextBlock{{Text: "flat 12"}, {Text: "floor 3"}}}, nil
}

func (r *stubRecognizer) Close() error { return nil }

type stubPreview struct {
	data []byte
}

func (p *stubPreview) JPEG() ([]byte, error) {
	if p.data == nil {
		return nil, errors.New("empty")
	}
	return p.data, nil
}

func (p *stubPreview) Render(img image.Image) {}

type botEnv struct {
	api        *fakeAPI
	bot        *Bot
	recognizer *stubRecognizer
	preview    *stubPreview
	repo       *storage.MemoryScreenRepository
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()

	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	messenger := NewMessenger(api, nil, nil)
	consent := NewConsentGate(messenger, permission.NewDeviceGate(""))
	repo := storage.NewMemoryScreenRepository()
	recognizer := &stubRecognizer{}
	preview := &stubPreview{}

	screens := app.NewScreenService(app.ScreenDeps{
		Camera:      &stubProvider{cam: &stubCamera{}},
		Recognizers: func() (port.TextRecognizer, error) { return recognizer, nil },
		Permissions: consent,
		Presenter:   messenger,
		Preview:     preview,
		Repo:        repo,
		Messages:    app.DefaultMessages(),
		Main:        app.Inline,
		Background:  app.Inline,
	})

	return &botEnv{
		api:        api,
		bot:        NewBot(api, messenger, consent, screens, repo, preview, nil),
		recognizer: recognizer,
		preview:    preview,
		repo:       repo,
	}
}

func command(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func text(chatID int64, body string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: body, Chat: &tgbotapi.Chat{ID: chatID}}
}

func answer(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestBot_StartAllowCapture(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()
	msgs := app.DefaultMessages()

	env.bot.handleMessage(ctx, command(1, "/start"))
	require.Equal(t, []string{msgStart, msgPermissionPrompt}, env.api.texts())

	env.bot.handleUpdate(ctx, answer(1, callbackAllow))
	require.Equal(t, []string{"cb-1"}, env.api.answered)
	require.Equal(t, msgs.TapToCapture, env.api.last())

	env.bot.handleMessage(ctx, text(1, buttonCapture))
	texts := env.api.texts()
	require.Equal(t, msgs.Processing, texts[len(texts)-2])
	require.Equal(t, "12, 3", env.api.last())

	screen, err := env.repo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseReady, screen.Phase)
	require.Equal(t, "12, 3", screen.Output)

	// После /stop согласие забыто, новый экран снова спрашивает доступ
	env.bot.handleMessage(ctx, command(1, "/stop"))
	require.Equal(t, msgStopped, env.api.last())
	env.bot.handleMessage(ctx, command(1, "/start"))
	require.Equal(t, msgPermissionPrompt, env.api.last())
}

func TestBot_Deny(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.bot.handleMessage(ctx, command(2, "/start"))
	env.bot.handleUpdate(ctx, answer(2, callbackDeny))
	require.Equal(t, app.DefaultMessages().PermissionDenied, env.api.last())

	screen, err := env.repo.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseTerminated, screen.Phase)
	require.True(t, screen.Destroyed)

	env.bot.handleMessage(ctx, command(2, "/status"))
	require.Contains(t, env.api.last(), "доступ запрещён")

	// Повторный ответ на старую кнопку ничего не ломает
	env.bot.handleUpdate(ctx, answer(2, callbackAllow))
	require.Len(t, env.api.answered, 2)
}

func TestBot_CommandsWithoutScreen(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.bot.handleMessage(ctx, command(3, "/capture"))
	require.Equal(t, msgNoScreen, env.api.last())

	env.bot.handleMessage(ctx, command(3, "/status"))
	require.Equal(t, msgNoScreen, env.api.last())

	env.bot.handleMessage(ctx, command(3, "/stop"))
	require.Equal(t, msgNoScreen, env.api.last())

	env.bot.handleMessage(ctx, command(3, "/dance"))
	require.Equal(t, msgUnknownCommand, env.api.last())

	env.bot.handleMessage(ctx, text(3, "hello"))
	require.Equal(t, msgUnknownCommand, env.api.last())

	env.bot.handleMessage(ctx, command(3, "/help"))
	require.Equal(t, msgHelp, env.api.last())
}

func TestBot_Preview(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.bot.handleMessage(ctx, command(4, "/preview"))
	require.Equal(t, msgNoPreview, env.api.last())

	env.preview.data = []byte{0xff, 0xd8}
	env.bot.handleMessage(ctx, command(4, "/preview"))
	require.Equal(t, "<photo>", env.api.last())
}

func TestBot_Photo(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()
	env.api.fileURL = srv.URL

	photo := &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 5},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}

	env.bot.handleMessage(ctx, photo)
	require.Equal(t, msgNoScreen, env.api.last())

	env.bot.handleMessage(ctx, command(5, "/start"))
	env.bot.handleUpdate(ctx, answer(5, callbackAllow))
	env.bot.handleMessage(ctx, photo)

	require.Equal(t, "12, 3", env.api.last())
	require.Equal(t, [][]byte{[]byte("jpeg-bytes")}, env.recognizer.inputs)

	env.api.fileURL = ""
	env.bot.handleMessage(ctx, photo)
	require.Equal(t, msgProcessingError, env.api.last())
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	env := newBotEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.bot.Run(ctx) }()

	env.api.updates <- tgbotapi.Update{Message: command(6, "/help")}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
	require.Equal(t, msgHelp, env.api.last())
	require.True(t, env.api.stopped)
}

func TestFormatStatus(t *testing.T) {
	s := entity.NewScreen(1)
	s.Phase = entity.PhaseReady
	s.Output = "7"
	out := formatStatus(*s)
	require.Contains(t, out, "готов к съёмке")
	require.Contains(t, out, "\n7")
}
