package port

import (
	"context"

	"ocr-camera-bot/internal/domain/entity"
)

// ScreenRepository интерфейс хранилища снимков состояния экранов
type ScreenRepository interface {
	// Get возвращает состояние экрана чата
	Get(ctx context.Context, chatID int64) (entity.Screen, error)

	// Save сохраняет состояние экрана
	Save(ctx context.Context, screen entity.Screen) error

	// Delete удаляет экран чата
	Delete(ctx context.Context, chatID int64) error

	// List возвращает все экраны
	List(ctx context.Context) ([]entity.Screen, error)
}
