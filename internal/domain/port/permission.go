package port

import (
	"context"

	"ocr-camera-bot/internal/domain/entity"
)

// PermissionGate интерфейс проверки доступа к камере
type PermissionGate interface {
	// HasPermission проверяет, выдан ли доступ
	HasPermission(ctx context.Context, screen *entity.Screen) bool

	// RequestPermission запрашивает доступ. onResult вызывается один раз.
	RequestPermission(ctx context.Context, screen *entity.Screen, onResult func(granted bool))
}
