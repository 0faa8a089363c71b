package entity

import (
	"image"
	"strings"
)

// TextBlock блок распознанного текста
type TextBlock struct {
	Text       string          // текст блока
	Confidence float64         // уверенность движка, 0..1
	Bounds     image.Rectangle // границы блока на изображении
}

// RecognizedText результат распознавания: блоки в порядке чтения
type RecognizedText struct {
	Blocks []TextBlock
}

// Text склеивает текст всех блоков через перевод строки
func (t *RecognizedText) Text() string {
	if t == nil {
		return ""
	}
	parts := make([]string, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}
