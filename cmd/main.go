package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocr-camera-bot/config"
	app "ocr-camera-bot/internal/application"
	telegram "ocr-camera-bot/internal/api"
	"ocr-camera-bot/internal/api/console"
	"ocr-camera-bot/internal/container"
	"ocr-camera-bot/internal/domain/port"
	"ocr-camera-bot/internal/infrastructure/camera"
	"ocr-camera-bot/internal/infrastructure/ocr"
	"ocr-camera-bot/internal/infrastructure/permission"
	"ocr-camera-bot/internal/infrastructure/preview"
	"ocr-camera-bot/internal/infrastructure/storage"
	"ocr-camera-bot/internal/logger"
)

type cameraProvider interface {
	port.CameraProvider
	Close() error
}

// shutdown закрывает все экраны, ждёт возврата незавершённых снимков,
// чтобы их кадры были освобождены, и только потом останавливает поток событий
func shutdown(c *container.Container, outbox *app.Dispatcher, logg *slog.Logger) {
	c.ScreenService.CloseAll(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Dispatcher.Flush(ctx); err != nil {
		logg.Warn("screens were not destroyed in time", "error", err)
	}
	if err := c.ScreenService.Wait(ctx); err != nil {
		logg.Warn("in-flight frames were not released in time", "error", err)
	}
	c.Dispatcher.Stop()

	if outbox == nil {
		return
	}
	if err := outbox.Flush(ctx); err != nil {
		logg.Warn("pending messages were not sent", "error", err)
	}
	outbox.Stop()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logg := logger.New(cfg.LogLevel)
	slog.SetDefault(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Камера: веб-камера через OpenCV или каталог со снимками
	var cam cameraProvider
	if dir := cfg.CameraDirectory(); dir != "" {
		cam = camera.NewDirectoryProvider(dir, cfg.PreviewFPS, logg)
	} else {
		id, _ := cfg.CameraDeviceID()
		cam = camera.NewGoCVProvider(id, cfg.PreviewFPS, logg)
	}
	defer cam.Close()

	screenRepo := storage.NewMemoryScreenRepository()
	latest := preview.NewLatest(80)
	device := permission.NewDeviceGate(cfg.CameraDevice)
	capture := port.CaptureOptions{
		Mode:            port.CaptureModeMaximizeQuality,
		RotationDegrees: cfg.CameraRotation,
	}

	if cfg.PreviewAddr != "" {
		srv := preview.NewServer(cfg.PreviewAddr, preview.NewRouter(latest, screenRepo, logg))
		go func() {
			logg.Info("preview server listening", "addr", cfg.PreviewAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error("preview server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	switch cfg.Mode {
	case config.ModeConsole:
		term := console.New(os.Stdin, os.Stdout, device)
		appContainer := container.New(screenRepo, cam, ocr.NewFactory(cfg.OCRLanguage), container.Options{
			Presenter:    term,
			Permissions:  term,
			Preview:      latest,
			Capture:      capture,
			SingleFlight: cfg.CaptureSingleFlight,
			Logger:       logg,
		})
		// Поток событий живёт дольше ctx, чтобы успеть уничтожить экраны
		go appContainer.Dispatcher.Run(context.Background())

		if err := term.Run(ctx, appContainer.ScreenService); err != nil {
			logg.Error("console error", "error", err)
		}
		shutdown(appContainer, nil, logg)

	default:
		api, err := telegram.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		logg.Info("authorized", "account", api.Self.UserName)

		// Отправка в Telegram идёт через свою очередь, поток событий не ждёт сеть
		outbox := app.NewDispatcher(1024)
		go outbox.Run(context.Background())

		messenger := telegram.NewMessenger(api, outbox, logg)
		consent := telegram.NewConsentGate(messenger, device)

		// Собираем сервисы приложения
		appContainer := container.New(screenRepo, cam, ocr.NewFactory(cfg.OCRLanguage), container.Options{
			Presenter:    messenger,
			Permissions:  consent,
			Preview:      latest,
			Capture:      capture,
			SingleFlight: cfg.CaptureSingleFlight,
			Logger:       logg,
		})
		go appContainer.Dispatcher.Run(context.Background())

		bot := telegram.NewBot(api, messenger, consent, appContainer.ScreenService, screenRepo, latest, logg)

		logg.Info("bot is running")
		if err := bot.Run(ctx); err != nil {
			logg.Error("bot error", "error", err)
		}

		shutdown(appContainer, outbox, logg)
	}
}
