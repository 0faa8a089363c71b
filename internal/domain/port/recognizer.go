package port

import (
	"context"

	"ocr-camera-bot/internal/domain/entity"
)

// TextRecognizer интерфейс движка распознавания текста
type TextRecognizer interface {
	// Process распознаёт текст на изображении
	Process(ctx context.Context, img entity.InputImage) (*entity.RecognizedText, error)

	// Close освобождает ресурсы движка
	Close() error
}

// RecognizerFactory создаёт движок распознавания для экрана
type RecognizerFactory func() (TextRecognizer, error)
