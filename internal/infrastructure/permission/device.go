package permission

import (
	"context"
	"fmt"
	"os"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// DeviceGate проверяет доступ процесса к устройству камеры (например, /dev/video0).
// Пустой путь означает, что камера не требует доступа к устройству.
type DeviceGate struct {
	Path string
}

// NewDeviceGate создаёт проверку для узла устройства
func NewDeviceGate(path string) *DeviceGate {
	return &DeviceGate{Path: path}
}

// Check возвращает ошибку, если устройство недоступно для чтения
func (g *DeviceGate) Check() error {
	if g.Path == "" {
		return nil
	}

	f, err := os.OpenFile(g.Path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("camera device %s: %w", g.Path, err)
	}
	return f.Close()
}

// HasPermission проверяет доступ к устройству
func (g *DeviceGate) HasPermission(ctx context.Context, screen *entity.Screen) bool {
	return g.Check() == nil
}

// RequestPermission повторно проверяет доступ и сообщает результат асинхронно.
// Операционная система не показывает запрос, права выдаются заранее.
func (g *DeviceGate) RequestPermission(ctx context.Context, screen *entity.Screen, onResult func(granted bool)) {
	go onResult(g.Check() == nil)
}

var _ port.PermissionGate = (*DeviceGate)(nil)
