package app

import (
	"context"
	"errors"
	"image"
	"sync"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// releaseCounter считает освобождения кадров
type releaseCounter struct {
	mu       sync.Mutex
	acquired int
	released map[string]int
}

func newReleaseCounter() *releaseCounter {
	return &releaseCounter{released: make(map[string]int)}
}

func (c *releaseCounter) frame(data []byte) *entity.Frame {
	c.mu.Lock()
	c.acquired++
	c.mu.Unlock()

	var f *entity.Frame
	f = entity.NewFrame(data, 0, func() {
		c.mu.Lock()
		c.released[f.ID.String()]++
		c.mu.Unlock()
	})
	return f
}

func (c *releaseCounter) totals() (acquired, released int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.released {
		released += n
	}
	return c.acquired, released
}

func (c *releaseCounter) maxPerFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	top := 0
	for _, n := range c.released {
		if n > top {
			top = n
		}
	}
	return top
}

type fakeProvider struct {
	cam *fakeCamera
	err error
}

func (p *fakeProvider) Acquire(ctx context.Context) (port.Camera, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.cam, nil
}

type fakeCamera struct {
	still   *fakeStill
	bindErr error
	binds   int
	unbinds int
	opts    port.CaptureOptions
}

func (c *fakeCamera) UnbindAll(owner string) { c.unbinds++ }

func (c *fakeCamera) Bind(owner string, preview port.PreviewSink, opts port.CaptureOptions) (port.StillCapture, error) {
	if c.bindErr != nil {
		return nil, c.bindErr
	}
	c.binds++
	c.opts = opts
	return c.still, nil
}

type fakeStill struct {
	counter *releaseCounter
	data    []byte
	err     error
	calls   int
}

func (s *fakeStill) TakePicture(ctx context.Context) (*entity.Frame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.counter.frame(s.data), nil
}

type fakeRecognizer struct {
	text   *entity.RecognizedText
	err    error
	calls  int
	closed int
}

func (r *fakeRecognizer) Process(ctx context.Context, img entity.InputImage) (*entity.RecognizedText, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.text, nil
}

func (r *fakeRecognizer) Close() error {
	r.closed++
	return nil
}

type fakeGate struct {
	granted  bool
	answer   *bool
	requests int
}

func (g *fakeGate) HasPermission(ctx context.Context, screen *entity.Screen) bool {
	return g.granted
}

func (g *fakeGate) RequestPermission(ctx context.Context, screen *entity.Screen, onResult func(bool)) {
	g.requests++
	if g.answer != nil {
		onResult(*g.answer)
		// повторный ответ не должен ничего менять
		onResult(!*g.answer)
	}
}

type recordingPresenter struct {
	texts  []string
	toasts []string
}

func (p *recordingPresenter) ShowText(ctx context.Context, screen *entity.Screen, text string) {
	p.texts = append(p.texts, text)
}

func (p *recordingPresenter) ShowToast(ctx context.Context, screen *entity.Screen, text string) {
	p.toasts = append(p.toasts, text)
}

func (p *recordingPresenter) last() string {
	if len(p.texts) == 0 {
		return ""
	}
	return p.texts[len(p.texts)-1]
}

// phaseRecorder хранилище, запоминающее все фазы экрана
type phaseRecorder struct {
	phases    []entity.ScreenPhase
	deleted   []int64
	deleteErr error
	last      entity.Screen
}

func (r *phaseRecorder) Get(ctx context.Context, chatID int64) (entity.Screen, error) {
	return r.last, nil
}

func (r *phaseRecorder) Save(ctx context.Context, screen entity.Screen) error {
	if n := len(r.phases); n == 0 || r.phases[n-1] != screen.Phase {
		r.phases = append(r.phases, screen.Phase)
	}
	r.last = screen
	return nil
}

func (r *phaseRecorder) Delete(ctx context.Context, chatID int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, chatID)
	return nil
}

func (r *phaseRecorder) List(ctx context.Context) ([]entity.Screen, error) {
	return []entity.Screen{r.last}, nil
}

type nopPreview struct{}

func (nopPreview) Render(img image.Image) {}

// queueExecutor откладывает выполнение до явного вызова drain
type queueExecutor struct {
	fns []func()
}

func (q *queueExecutor) Execute(fn func()) { q.fns = append(q.fns, fn) }

func (q *queueExecutor) drain() {
	for len(q.fns) > 0 {
		fn := q.fns[0]
		q.fns = q.fns[1:]
		fn()
	}
}

var errBoom = errors.New("boom")

func blocks(texts ...string) *entity.RecognizedText {
	out := &entity.RecognizedText{}
	for _, t := range texts {
		out.Blocks = append(out.Blocks, entity.TextBlock{Text: t})
	}
	return out
}

// testEnv набор фейков для одного экрана
type testEnv struct {
	counter    *releaseCounter
	provider   *fakeProvider
	camera     *fakeCamera
	still      *fakeStill
	recognizer *fakeRecognizer
	gate       *fakeGate
	presenter  *recordingPresenter
	repo       *phaseRecorder
	background Executor
	factoryN   int
}

func newTestEnv() *testEnv {
	counter := newReleaseCounter()
	still := &fakeStill{counter: counter, data: []byte("png")}
	cam := &fakeCamera{still: still}
	return &testEnv{
		counter:    counter,
		provider:   &fakeProvider{cam: cam},
		camera:     cam,
		still:      still,
		recognizer: &fakeRecognizer{text: blocks("a12b")},
		gate:       &fakeGate{granted: true},
		presenter:  &recordingPresenter{},
		repo:       &phaseRecorder{},
		background: Inline,
	}
}

func (e *testEnv) deps() ScreenDeps {
	return ScreenDeps{
		Camera: e.provider,
		Recognizers: func() (port.TextRecognizer, error) {
			e.factoryN++
			return e.recognizer, nil
		},
		Permissions: e.gate,
		Presenter:   e.presenter,
		Preview:     nopPreview{},
		Repo:        e.repo,
		Messages:    DefaultMessages(),
		Capture:     port.CaptureOptions{Mode: port.CaptureModeMaximizeQuality, RotationDegrees: 90},
		Main:        Inline,
		Background:  e.background,
	}
}

func (e *testEnv) start() *Screen {
	s := NewScreen(context.Background(), 42, e.deps())
	s.Start()
	return s
}
