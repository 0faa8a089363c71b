//go:build !tesseract
// +build !tesseract

package ocr

import (
	"context"
	"errors"
	"sync/atomic"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// TesseractRecognizer движок-заглушка (без Tesseract)
// Close и Process вызываются из разных горутин.
type TesseractRecognizer struct {
	closed atomic.Bool
}

// NewTesseractRecognizer создаёт движок-заглушку
func NewTesseractRecognizer(language string) (*TesseractRecognizer, error) {
	_ = language
	return &TesseractRecognizer{}, nil
}

// NewFactory возвращает фабрику движков-заглушек
func NewFactory(language string) port.RecognizerFactory {
	return func() (port.TextRecognizer, error) {
		return NewTesseractRecognizer(language)
	}
}

// Process возвращает ошибку, если сборка без тега tesseract
func (r *TesseractRecognizer) Process(ctx context.Context, img entity.InputImage) (*entity.RecognizedText, error) {
	_ = ctx
	_ = img
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return nil, errors.New("tesseract build tag is not enabled")
}

// Close помечает движок закрытым
func (r *TesseractRecognizer) Close() error {
	r.closed.Store(true)
	return nil
}

var _ port.TextRecognizer = (*TesseractRecognizer)(nil)
