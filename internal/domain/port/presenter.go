package port

import (
	"context"

	"ocr-camera-bot/internal/domain/entity"
)

// Presenter интерфейс поверхности, на которой показываются сообщения экрана
type Presenter interface {
	// ShowText заменяет текст в области результата
	ShowText(ctx context.Context, screen *entity.Screen, text string)

	// ShowToast показывает короткое всплывающее сообщение
	ShowToast(ctx context.Context, screen *entity.Screen, text string)
}
