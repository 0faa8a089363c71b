//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"fmt"
	"log/slog"

	"ocr-camera-bot/internal/domain/port"
)

// GoCVProvider поставщик-заглушка (без OpenCV)
type GoCVProvider struct {
	DeviceID   int
	PreviewFPS int
	Logger     *slog.Logger
}

// NewGoCVProvider создаёт поставщика-заглушку
func NewGoCVProvider(deviceID, previewFPS int, logger *slog.Logger) *GoCVProvider {
	return &GoCVProvider{DeviceID: deviceID, PreviewFPS: previewFPS, Logger: logger}
}

// Acquire возвращает ошибку, если сборка без тега gocv
func (p *GoCVProvider) Acquire(ctx context.Context) (port.Camera, error) {
	_ = ctx
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", ErrProviderUnavailable)
}

// Close ничего не делает
func (p *GoCVProvider) Close() error {
	return nil
}
