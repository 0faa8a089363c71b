package camera

import (
	"errors"
	"image"
	"sync"
	"time"

	"ocr-camera-bot/internal/domain/port"
)

var (
	// ErrProviderUnavailable камера не может быть получена
	ErrProviderUnavailable = errors.New("camera provider unavailable")
	// ErrNotBound приёмник снимков уже отвязан
	ErrNotBound = errors.New("still capture is not bound")
	// ErrNoFrame камера ещё не выдала ни одного кадра
	ErrNoFrame = errors.New("no frame available yet")
)

type binding struct {
	preview port.PreviewSink
	opts    port.CaptureOptions
}

// bindings привязки приёмников к владельцам (экранам)
type bindings struct {
	mu      sync.RWMutex
	byOwner map[string]binding
}

func newBindings() *bindings {
	return &bindings{byOwner: make(map[string]binding)}
}

func (b *bindings) bind(owner string, preview port.PreviewSink, opts port.CaptureOptions) {
	b.mu.Lock()
	b.byOwner[owner] = binding{preview: preview, opts: opts}
	b.mu.Unlock()
}

func (b *bindings) unbindAll(owner string) {
	b.mu.Lock()
	delete(b.byOwner, owner)
	b.mu.Unlock()
}

func (b *bindings) lookup(owner string) (binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bnd, ok := b.byOwner[owner]
	return bnd, ok
}

func (b *bindings) hasPreview() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, bnd := range b.byOwner {
		if bnd.preview != nil {
			return true
		}
	}
	return false
}

// render отдаёт кадр превью всем привязанным приёмникам
func (b *bindings) render(img image.Image) {
	b.mu.RLock()
	sinks := make([]port.PreviewSink, 0, len(b.byOwner))
	for _, bnd := range b.byOwner {
		if bnd.preview != nil {
			sinks = append(sinks, bnd.preview)
		}
	}
	b.mu.RUnlock()

	for _, sink := range sinks {
		sink.Render(img)
	}
}

func previewInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 5
	}
	return time.Second / time.Duration(fps)
}
