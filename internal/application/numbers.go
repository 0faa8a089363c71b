package app

import (
	"regexp"
	"strings"

	"ocr-camera-bot/internal/domain/entity"
)

// NumberSeparator разделитель найденных чисел
const NumberSeparator = ", "

var digitRun = regexp.MustCompile(`\d+`)

// ExtractNumbers собирает все непрерывные последовательности цифр из блоков
// в порядке блоков, а внутри блока слева направо. Числа не нормализуются.
func ExtractNumbers(text *entity.RecognizedText) string {
	if text == nil {
		return ""
	}

	var numbers []string
	for _, block := range text.Blocks {
		numbers = append(numbers, digitRun.FindAllString(block.Text, -1)...)
	}

	return strings.Join(numbers, NumberSeparator)
}
