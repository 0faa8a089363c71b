package container

import (
	"log/slog"

	app "ocr-camera-bot/internal/application"
	"ocr-camera-bot/internal/domain/port"
)

// Options зависимости поверхности и настройки съёмки
type Options struct {
	Presenter    port.Presenter
	Permissions  port.PermissionGate
	Preview      port.PreviewSink
	Capture      port.CaptureOptions
	SingleFlight bool
	Logger       *slog.Logger
}

type Container struct {
	Dispatcher    *app.Dispatcher
	ScreenService *app.ScreenService
	ScreenRepo    port.ScreenRepository
}

func New(screenRepo port.ScreenRepository, camera port.CameraProvider, recognizers port.RecognizerFactory, opts Options) *Container {
	dispatcher := app.NewDispatcher(256)

	screenService := app.NewScreenService(app.ScreenDeps{
		Camera:       camera,
		Recognizers:  recognizers,
		Permissions:  opts.Permissions,
		Presenter:    opts.Presenter,
		Preview:      opts.Preview,
		Repo:         screenRepo,
		Messages:     app.DefaultMessages(),
		Capture:      opts.Capture,
		SingleFlight: opts.SingleFlight,
		Main:         dispatcher,
		Background:   app.Background,
		Logger:       opts.Logger,
	})

	return &Container{
		Dispatcher:    dispatcher,
		ScreenService: screenService,
		ScreenRepo:    screenRepo,
	}
}
