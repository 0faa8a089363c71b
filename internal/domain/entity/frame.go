package entity

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoImageData кадр не содержит изображения
	ErrNoImageData = errors.New("frame has no image data")
	// ErrFrameReleased кадр уже освобождён
	ErrFrameReleased = errors.New("frame already released")
)

// Frame снимок с камеры. Буфер Data принадлежит кадру до вызова Release.
type Frame struct {
	ID              uuid.UUID
	Data            []byte // закодированное изображение (PNG/JPEG)
	RotationDegrees int    // поворот по часовой стрелке, нужный для ровного изображения
	CapturedAt      time.Time

	release  func()
	released atomic.Bool
}

// NewFrame создаёт кадр. release вызывается ровно один раз при освобождении.
func NewFrame(data []byte, rotationDegrees int, release func()) *Frame {
	return &Frame{
		ID:              uuid.New(),
		Data:            data,
		RotationDegrees: rotationDegrees,
		CapturedAt:      time.Now(),
		release:         release,
	}
}

// HasImage проверяет наличие данных изображения
func (f *Frame) HasImage() bool {
	return f != nil && len(f.Data) > 0
}

// Release освобождает буфер кадра. Повторный вызов возвращает ErrFrameReleased.
func (f *Frame) Release() error {
	if !f.released.CompareAndSwap(false, true) {
		return ErrFrameReleased
	}
	if f.release != nil {
		f.release()
	}
	f.Data = nil
	return nil
}

// Released сообщает, был ли кадр освобождён
func (f *Frame) Released() bool {
	return f.released.Load()
}

// InputImage входные данные для движка распознавания
type InputImage struct {
	Data            []byte
	RotationDegrees int
}

// NewInputImage оборачивает кадр во входное изображение движка
func NewInputImage(f *Frame) (InputImage, error) {
	if !f.HasImage() {
		return InputImage{}, ErrNoImageData
	}
	return InputImage{Data: f.Data, RotationDegrees: f.RotationDegrees}, nil
}
