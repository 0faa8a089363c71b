package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

var errRecognizerUnavailable = errors.New("text recognizer is not initialized")

// ScreenDeps зависимости экрана распознавания
type ScreenDeps struct {
	Camera       port.CameraProvider
	Recognizers  port.RecognizerFactory
	Permissions  port.PermissionGate
	Presenter    port.Presenter
	Preview      port.PreviewSink
	Repo         port.ScreenRepository
	Messages     Messages
	Capture      port.CaptureOptions
	SingleFlight bool // не принимать новый снимок, пока предыдущий в обработке

	Main       Executor // поток событий экрана
	Background Executor // поток для блокирующих вызовов камеры и движка
	Logger     *slog.Logger
}

// Screen управляет одним экраном: разрешение, камера, съёмка, распознавание.
// Всё состояние меняется только на Main.
type Screen struct {
	deps ScreenDeps
	log  *slog.Logger
	ctx  context.Context

	mu    sync.RWMutex
	state *entity.Screen

	recognizer port.TextRecognizer
	session    *CameraSession
	inFlight   int
	done       chan struct{}

	// work считает фоновые вызовы, чей результат ещё не вернулся на Main
	work *sync.WaitGroup
}

// NewScreen создаёт экран для чата. Работа начинается с вызова Start.
func NewScreen(ctx context.Context, chatID int64, deps ScreenDeps) *Screen {
	if deps.Main == nil {
		deps.Main = Inline
	}
	if deps.Background == nil {
		deps.Background = Background
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Messages == (Messages{}) {
		deps.Messages = DefaultMessages()
	}

	state := entity.NewScreen(chatID)
	return &Screen{
		deps:  deps,
		log:   deps.Logger.With("screen_id", state.ID.String(), "chat_id", chatID),
		ctx:   context.WithoutCancel(ctx),
		state: state,
		done:  make(chan struct{}),
		work:  &sync.WaitGroup{},
	}
}

// State возвращает копию текущего состояния экрана
func (s *Screen) State() entity.Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.state
}

// Done закрывается после уничтожения экрана
func (s *Screen) Done() <-chan struct{} {
	return s.done
}

// Start создаёт движок распознавания и проверяет доступ к камере
func (s *Screen) Start() {
	s.deps.Main.Execute(func() {
		if s.state.Destroyed {
			return
		}
		s.initRecognizer()
		s.save()

		if s.deps.Permissions == nil || s.deps.Permissions.HasPermission(s.ctx, s.state) {
			s.onPermissionResult(true)
			return
		}

		s.log.Info("requesting camera permission")
		s.deps.Permissions.RequestPermission(s.ctx, s.state, singleFire(func(granted bool) {
			s.deps.Main.Execute(func() { s.onPermissionResult(granted) })
		}))
	})
}

// Capture запрашивает один снимок. Без привязанной камеры ничего не делает.
func (s *Screen) Capture() {
	s.deps.Main.Execute(s.capture)
}

// Submit отправляет на распознавание кадр, полученный не с камеры.
// До разрешения доступа и после закрытия экрана кадр освобождается без распознавания.
func (s *Screen) Submit(frame *entity.Frame) {
	s.deps.Main.Execute(func() {
		if !s.canProcess() || (s.deps.SingleFlight && s.inFlight > 0) {
			s.log.Debug("frame dropped", "frame_id", frame.ID.String())
			s.release(frame)
			return
		}
		s.beginProcessing()
		s.recognize(frame)
	})
}

// Present показывает результат извлечения чисел
func (s *Screen) Present(result string) {
	s.deps.Main.Execute(func() { s.present(result) })
}

// Destroy освобождает ресурсы экрана. Повторные вызовы ничего не делают.
func (s *Screen) Destroy() {
	s.deps.Main.Execute(s.teardown)
}

func (s *Screen) initRecognizer() {
	if s.deps.Recognizers == nil || s.recognizer != nil {
		return
	}
	rec, err := s.deps.Recognizers()
	if err != nil {
		s.log.Error("failed to create text recognizer", "error", err)
		return
	}
	s.recognizer = rec
}

func (s *Screen) onPermissionResult(granted bool) {
	if s.state.Destroyed || s.state.Phase != entity.PhaseAwaitingPermission {
		return
	}

	if !granted {
		s.log.Warn("camera permission denied")
		s.toast(s.deps.Messages.PermissionDenied)
		s.setPhase(entity.PhaseTerminated)
		s.teardown()
		return
	}

	s.setPhase(entity.PhaseReady)
	s.showText(s.deps.Messages.TapToCapture)
	s.startCamera()
}

func (s *Screen) startCamera() {
	if s.deps.Camera == nil {
		s.log.Error("camera provider is not configured")
		s.toast(s.deps.Messages.CameraStartFailed)
		return
	}

	s.background(func() {
		cam, err := s.deps.Camera.Acquire(s.ctx)
		s.deliver(func() {
			if err != nil {
				s.log.Error("error starting camera", "error", err)
				if !s.state.Destroyed {
					s.toast(s.deps.Messages.CameraStartFailed)
				}
				return
			}
			if s.state.Destroyed {
				return
			}
			s.bind(cam)
		})
	})
}

func (s *Screen) bind(cam port.Camera) {
	session, err := bindSession(cam, s.state.ID.String(), s.deps.Preview, s.deps.Capture)
	if err != nil {
		s.log.Error("camera binding failed", "error", err)
		return
	}
	s.session = session
	s.log.Info("camera bound")
}

func (s *Screen) capture() {
	if s.session == nil || !s.canProcess() {
		return
	}
	if s.deps.SingleFlight && s.inFlight > 0 {
		s.log.Debug("capture ignored, frame in flight")
		return
	}

	s.beginProcessing()

	still := s.session.Still
	s.background(func() {
		frame, err := still.TakePicture(s.ctx)
		s.deliver(func() { s.onCaptured(frame, err) })
	})
}

func (s *Screen) onCaptured(frame *entity.Frame, err error) {
	if err != nil {
		if frame != nil {
			s.release(frame)
		}
		s.log.Error("image capture failed", "error", err)
		s.finishFrame()
		if !s.state.Destroyed {
			s.toast(s.deps.Messages.CaptureFailed)
			s.showText(s.deps.Messages.TapToCapture)
		}
		return
	}
	s.recognize(frame)
}

// recognize передаёт кадр движку. Кадр освобождается ровно один раз,
// после того как распознавание завершилось.
func (s *Screen) recognize(frame *entity.Frame) {
	input, err := entity.NewInputImage(frame)
	if err != nil {
		s.log.Debug("frame dropped", "frame_id", frame.ID.String(), "error", err)
		s.release(frame)
		s.finishFrame()
		return
	}

	rec := s.recognizer
	if rec == nil {
		s.onRecognized(frame, nil, errRecognizerUnavailable)
		return
	}

	s.background(func() {
		text, err := rec.Process(s.ctx, input)
		s.deliver(func() { s.onRecognized(frame, text, err) })
	})
}

func (s *Screen) onRecognized(frame *entity.Frame, text *entity.RecognizedText, err error) {
	defer s.release(frame)
	s.finishFrame()

	if s.state.Destroyed {
		return
	}

	if err != nil {
		s.log.Error("text recognition failed", "frame_id", frame.ID.String(), "error", err)
		s.toast(s.deps.Messages.RecognitionFailed)
		s.showText(s.deps.Messages.TapToCapture)
		return
	}

	numbers := ExtractNumbers(text)
	s.log.Info("numbers extracted", "frame_id", frame.ID.String(), "blocks", len(text.Blocks), "numbers", numbers)
	s.present(numbers)
}

func (s *Screen) present(result string) {
	if s.state.Destroyed {
		return
	}
	if result == "" {
		s.showText(s.deps.Messages.NoNumbersFound)
		return
	}
	s.showText(result)
}

// canProcess разрешает съёмку только после выдачи доступа и до закрытия экрана
func (s *Screen) canProcess() bool {
	if s.state.Destroyed {
		return false
	}
	return s.state.Phase == entity.PhaseReady || s.state.Phase == entity.PhaseProcessing
}

// background запускает блокирующий вызов. Вызов обязан вернуть результат через deliver.
func (s *Screen) background(fn func()) {
	s.work.Add(1)
	s.deps.Background.Execute(fn)
}

func (s *Screen) deliver(fn func()) {
	s.deps.Main.Execute(func() {
		defer s.work.Done()
		fn()
	})
}

// Wait ждёт, пока все фоновые вызовы экрана вернут результат на Main
// и их кадры будут освобождены.
func (s *Screen) Wait(ctx context.Context) error {
	return waitGroup(ctx, s.work)
}

func (s *Screen) beginProcessing() {
	s.inFlight++
	s.setPhase(entity.PhaseProcessing)
	s.showText(s.deps.Messages.Processing)
}

// finishFrame возвращает экран в Ready, когда не осталось кадров в обработке
func (s *Screen) finishFrame() {
	if s.inFlight > 0 {
		s.inFlight--
	}
	if s.inFlight == 0 && s.state.Phase == entity.PhaseProcessing {
		s.setPhase(entity.PhaseReady)
	}
}

func (s *Screen) release(frame *entity.Frame) {
	if err := frame.Release(); err != nil {
		s.log.Error("frame release failed", "frame_id", frame.ID.String(), "error", err)
	}
}

func (s *Screen) teardown() {
	if s.state.Destroyed {
		return
	}

	s.mu.Lock()
	s.state.Destroyed = true
	s.mu.Unlock()

	if s.session != nil {
		s.session.Unbind()
		s.session = nil
	}
	if s.recognizer != nil {
		if err := s.recognizer.Close(); err != nil {
			s.log.Error("failed to close text recognizer", "error", err)
		}
		s.recognizer = nil
	}

	s.save()
	close(s.done)
	s.log.Info("screen destroyed")
}

func (s *Screen) setPhase(phase entity.ScreenPhase) {
	s.mu.Lock()
	err := s.state.SetPhase(phase)
	s.mu.Unlock()

	if err != nil {
		s.log.Error("phase change rejected", "error", err)
		return
	}
	s.save()
}

func (s *Screen) showText(text string) {
	s.mu.Lock()
	s.state.Output = text
	s.mu.Unlock()

	if s.deps.Presenter != nil {
		s.deps.Presenter.ShowText(s.ctx, s.state, text)
	}
	s.save()
}

func (s *Screen) toast(text string) {
	if s.deps.Presenter != nil {
		s.deps.Presenter.ShowToast(s.ctx, s.state, text)
	}
}

func (s *Screen) save() {
	if s.deps.Repo == nil {
		return
	}
	if err := s.deps.Repo.Save(s.ctx, s.State()); err != nil {
		s.log.Error("failed to save screen", "error", err)
	}
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// singleFire гарантирует, что обработчик результата сработает один раз
func singleFire(fn func(bool)) func(bool) {
	var once sync.Once
	return func(v bool) {
		once.Do(func() { fn(v) })
	}
}
