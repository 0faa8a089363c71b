package app

// Messages фиксированные пользовательские строки экрана
type Messages struct {
	Processing        string
	TapToCapture      string
	PermissionDenied  string
	CameraStartFailed string
	CaptureFailed     string
	RecognitionFailed string
	NoNumbersFound    string
}

// DefaultMessages возвращает строки по умолчанию
func DefaultMessages() Messages {
	return Messages{
		Processing:        "⏳ Обрабатываю снимок...",
		TapToCapture:      "📸 Нажмите «Снять», чтобы найти числа на снимке.",
		PermissionDenied:  "🚫 Нет доступа к камере. Экран закрыт.",
		CameraStartFailed: "⚠️ Ошибка при запуске камеры.",
		CaptureFailed:     "⚠️ Не удалось сделать снимок.",
		RecognitionFailed: "⚠️ Ошибка при распознавании текста.",
		NoNumbersFound:    "🔍 Числа не найдены.",
	}
}
