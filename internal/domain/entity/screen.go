package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTransition возвращается при недопустимой смене фазы экрана
var ErrInvalidTransition = errors.New("invalid screen phase transition")

// ScreenPhase фаза экрана распознавания
type ScreenPhase string

const (
	PhaseAwaitingPermission ScreenPhase = "awaiting_permission" // Ждём разрешения на камеру
	PhaseReady              ScreenPhase = "ready"               // Готов к съёмке
	PhaseProcessing         ScreenPhase = "processing"          // Снимок в обработке
	PhaseTerminated         ScreenPhase = "terminated"          // Доступ к камере запрещён
)

// transitions допустимые переходы между фазами
var transitions = map[ScreenPhase][]ScreenPhase{
	PhaseAwaitingPermission: {PhaseReady, PhaseTerminated},
	PhaseReady:              {PhaseProcessing, PhaseReady},
	PhaseProcessing:         {PhaseReady, PhaseProcessing},
}

// Screen представляет один экран (сессию) распознавания чисел
type Screen struct {
	ID        uuid.UUID   // Идентификатор экрана
	ChatID    int64       // Чат, к которому привязан экран
	Phase     ScreenPhase // Текущая фаза
	Output    string      // Текст в области результата
	Destroyed bool        // Экран уничтожен, ресурсы освобождены
}

// NewScreen создаёт экран в фазе ожидания разрешения
func NewScreen(chatID int64) *Screen {
	return &Screen{
		ID:     uuid.New(),
		ChatID: chatID,
		Phase:  PhaseAwaitingPermission,
	}
}

// CanTransition проверяет, допустим ли переход из одной фазы в другую
func CanTransition(from, to ScreenPhase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetPhase переводит экран в новую фазу
func (s *Screen) SetPhase(phase ScreenPhase) error {
	if !CanTransition(s.Phase, phase) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, phase)
	}
	s.Phase = phase
	return nil
}

// Active сообщает, принимает ли экран новые снимки
func (s *Screen) Active() bool {
	return !s.Destroyed && s.Phase != PhaseTerminated
}
