//go:build tesseract
// +build tesseract

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// TesseractRecognizer движок распознавания на Tesseract.
// Клиент gosseract не потокобезопасен, поэтому вызовы сериализуются.
type TesseractRecognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

// NewTesseractRecognizer создаёт клиента Tesseract для языка
func NewTesseractRecognizer(language string) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return &TesseractRecognizer{client: client}, nil
}

// NewFactory возвращает фабрику движков для экранов
func NewFactory(language string) port.RecognizerFactory {
	return func() (port.TextRecognizer, error) {
		return NewTesseractRecognizer(language)
	}
}

// Process распознаёт текст и возвращает блоки в порядке чтения
func (r *TesseractRecognizer) Process(ctx context.Context, img entity.InputImage) (*entity.RecognizedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := PrepareImage(img)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	if err := r.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	text := &entity.RecognizedText{Blocks: make([]entity.TextBlock, 0, len(boxes))}
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		text.Blocks = append(text.Blocks, entity.TextBlock{
			Text:       word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     box.Box,
		})
	}

	return text, nil
}

// Close освобождает клиента Tesseract. Повторный вызов ничего не делает.
func (r *TesseractRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

var _ port.TextRecognizer = (*TesseractRecognizer)(nil)
