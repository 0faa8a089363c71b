package port

import (
	"context"
	"image"

	"ocr-camera-bot/internal/domain/entity"
)

// CaptureMode режим съёмки кадра
type CaptureMode int

const (
	// CaptureModeMaximizeQuality качество важнее скорости (PNG без потерь)
	CaptureModeMaximizeQuality CaptureMode = iota
	// CaptureModeMinimizeLatency скорость важнее качества (JPEG)
	CaptureModeMinimizeLatency
)

// CaptureOptions настройки приёмника снимков
type CaptureOptions struct {
	Mode            CaptureMode
	RotationDegrees int
}

// CameraProvider интерфейс поставщика камеры
type CameraProvider interface {
	// Acquire возвращает дескриптор камеры, может блокироваться на время инициализации
	Acquire(ctx context.Context) (Camera, error)
}

// Camera интерфейс камеры, к которой привязываются приёмники
type Camera interface {
	// UnbindAll отвязывает все приёмники владельца
	UnbindAll(owner string)

	// Bind привязывает превью и приёмник снимков к владельцу
	Bind(owner string, preview PreviewSink, opts CaptureOptions) (StillCapture, error)
}

// StillCapture интерфейс приёмника снимков
type StillCapture interface {
	// TakePicture делает один снимок. Вызывающий обязан освободить кадр.
	TakePicture(ctx context.Context) (*entity.Frame, error)
}

// PreviewSink интерфейс приёмника живого превью
type PreviewSink interface {
	// Render показывает очередной кадр превью
	Render(img image.Image)
}
