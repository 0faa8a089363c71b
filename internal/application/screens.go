package app

import (
	"context"
	"log/slog"
	"sync"
)

// ScreenService открывает и закрывает экраны распознавания по чатам
type ScreenService struct {
	deps    ScreenDeps
	mu      sync.Mutex
	screens map[int64]*Screen

	// work общий счётчик фоновых вызовов всех экранов, включая закрытые
	work sync.WaitGroup
}

// NewScreenService создаёт сервис с общими для всех экранов зависимостями
func NewScreenService(deps ScreenDeps) *ScreenService {
	return &ScreenService{
		deps:    deps,
		screens: make(map[int64]*Screen),
	}
}

// Open возвращает активный экран чата или создаёт и запускает новый.
// Второе значение true, если экран создан.
func (s *ScreenService) Open(ctx context.Context, chatID int64) (*Screen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if screen, ok := s.screens[chatID]; ok {
		if state := screen.State(); state.Active() {
			return screen, false
		}
		screen.Destroy()
	}

	screen := NewScreen(ctx, chatID, s.deps)
	screen.work = &s.work
	s.screens[chatID] = screen
	screen.Start()

	return screen, true
}

// Get возвращает экран чата, если он открыт
func (s *ScreenService) Get(chatID int64) (*Screen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	screen, ok := s.screens[chatID]
	return screen, ok
}

// Close уничтожает экран чата и удаляет его состояние
func (s *ScreenService) Close(ctx context.Context, chatID int64) bool {
	s.mu.Lock()
	screen, ok := s.screens[chatID]
	delete(s.screens, chatID)
	s.mu.Unlock()

	if !ok {
		return false
	}

	screen.Destroy()
	if s.deps.Repo != nil {
		// Удаление встаёт в очередь после уничтожения, иначе снимок вернётся обратно
		s.main().Execute(func() {
			if err := s.deps.Repo.Delete(ctx, chatID); err != nil {
				s.logger().Error("failed to delete screen", "chat_id", chatID, "error", err)
			}
		})
	}
	return true
}

// CloseAll уничтожает все открытые экраны
func (s *ScreenService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.screens))
	for id := range s.screens {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Close(ctx, id)
	}
}

// Wait ждёт результатов фоновых вызовов всех экранов, в том числе закрытых.
// Вызывается после CloseAll, пока поток событий ещё работает.
func (s *ScreenService) Wait(ctx context.Context) error {
	return waitGroup(ctx, &s.work)
}

func (s *ScreenService) logger() *slog.Logger {
	if s.deps.Logger == nil {
		return slog.Default()
	}
	return s.deps.Logger
}

func (s *ScreenService) main() Executor {
	if s.deps.Main == nil {
		return Inline
	}
	return s.deps.Main
}
