package ocr

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	"ocr-camera-bot/internal/domain/entity"
)

var (
	// ErrUnsupportedRotation поворот не кратен 90 градусам
	ErrUnsupportedRotation = errors.New("unsupported rotation")
	// ErrClosed движок уже закрыт
	ErrClosed = errors.New("recognizer is closed")
)

// normalizeRotation приводит угол к диапазону [0, 360)
func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// PrepareImage поворачивает изображение по часовой стрелке на RotationDegrees,
// чтобы текст стал ровным. Без поворота данные возвращаются как есть.
func PrepareImage(in entity.InputImage) ([]byte, error) {
	if len(in.Data) == 0 {
		return nil, entity.ErrNoImageData
	}

	deg := normalizeRotation(in.RotationDegrees)
	if deg == 0 {
		return in.Data, nil
	}
	if deg%90 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRotation, in.RotationDegrees)
	}

	img, err := imaging.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// imaging поворачивает против часовой стрелки
	switch deg {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
