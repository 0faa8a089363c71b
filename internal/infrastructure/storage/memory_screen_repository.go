package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// ErrScreenNotFound экран для чата не найден
var ErrScreenNotFound = errors.New("screen not found")

// MemoryScreenRepository in-memory хранилище состояний экранов
type MemoryScreenRepository struct {
	mu      sync.RWMutex
	screens map[int64]entity.Screen
}

// NewMemoryScreenRepository создаёт новое in-memory хранилище
func NewMemoryScreenRepository() *MemoryScreenRepository {
	return &MemoryScreenRepository{
		screens: make(map[int64]entity.Screen),
	}
}

// Get возвращает состояние экрана по ID чата
func (r *MemoryScreenRepository) Get(ctx context.Context, chatID int64) (entity.Screen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	screen, exists := r.screens[chatID]
	if !exists {
		return entity.Screen{}, ErrScreenNotFound
	}
	return screen, nil
}

// Save сохраняет состояние экрана
func (r *MemoryScreenRepository) Save(ctx context.Context, screen entity.Screen) error {
	r.mu.Lock()
	r.screens[screen.ChatID] = screen
	r.mu.Unlock()

	return nil
}

// Delete удаляет экран чата
func (r *MemoryScreenRepository) Delete(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	delete(r.screens, chatID)
	r.mu.Unlock()

	return nil
}

// List возвращает все экраны, отсортированные по ID чата
func (r *MemoryScreenRepository) List(ctx context.Context) ([]entity.Screen, error) {
	r.mu.RLock()
	out := make([]entity.Screen, 0, len(r.screens))
	for _, s := range r.screens {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.ScreenRepository = (*MemoryScreenRepository)(nil)
