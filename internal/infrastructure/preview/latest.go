package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"ocr-camera-bot/internal/domain/port"
)

// ErrNoPreview превью ещё не получено
var ErrNoPreview = errors.New("no preview frame yet")

// Latest приёмник превью, хранящий последний кадр
type Latest struct {
	mu      sync.RWMutex
	img     image.Image
	updated time.Time
	quality int
}

// NewLatest создаёт приёмник с качеством JPEG для выдачи
func NewLatest(quality int) *Latest {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Latest{quality: quality}
}

// Render сохраняет кадр превью
func (l *Latest) Render(img image.Image) {
	l.mu.Lock()
	l.img = img
	l.updated = time.Now()
	l.mu.Unlock()
}

// Snapshot возвращает последний кадр и время его получения
func (l *Latest) Snapshot() (image.Image, time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.img, l.updated, l.img != nil
}

// JPEG кодирует последний кадр в JPEG
func (l *Latest) JPEG() ([]byte, error) {
	img, _, ok := l.Snapshot()
	if !ok {
		return nil, ErrNoPreview
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(l.quality)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

var _ port.PreviewSink = (*Latest)(nil)
