//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

// GoCVProvider поставщик веб-камеры через OpenCV
type GoCVProvider struct {
	DeviceID   int
	PreviewFPS int
	Logger     *slog.Logger

	mu  sync.Mutex
	cam *gocvCamera
}

// NewGoCVProvider создаёт поставщика для устройства с указанным номером
func NewGoCVProvider(deviceID, previewFPS int, logger *slog.Logger) *GoCVProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoCVProvider{DeviceID: deviceID, PreviewFPS: previewFPS, Logger: logger}
}

// Acquire открывает устройство при первом вызове и возвращает общую камеру
func (p *GoCVProvider) Acquire(ctx context.Context) (port.Camera, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cam != nil {
		return p.cam, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	webcam, err := gocv.OpenVideoCapture(p.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrProviderUnavailable, p.DeviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("%w: device %d is not opened", ErrProviderUnavailable, p.DeviceID)
	}

	cam := &gocvCamera{
		webcam:   webcam,
		bindings: newBindings(),
		latest:   gocv.NewMat(),
		every:    previewInterval(p.PreviewFPS),
		log:      p.Logger.With("device", p.DeviceID),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go cam.loop()

	p.cam = cam
	p.Logger.Info("camera opened", "device", p.DeviceID)
	return cam, nil
}

// Close останавливает чтение кадров и закрывает устройство
func (p *GoCVProvider) Close() error {
	p.mu.Lock()
	cam := p.cam
	p.cam = nil
	p.mu.Unlock()

	if cam == nil {
		return nil
	}
	return cam.close()
}

type gocvCamera struct {
	webcam   *gocv.VideoCapture
	bindings *bindings
	every    time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	latest   gocv.Mat
	hasFrame bool

	stop chan struct{}
	done chan struct{}
}

func (c *gocvCamera) UnbindAll(owner string) {
	c.bindings.unbindAll(owner)
}

func (c *gocvCamera) Bind(owner string, preview port.PreviewSink, opts port.CaptureOptions) (port.StillCapture, error) {
	c.bindings.bind(owner, preview, opts)
	return &gocvStill{cam: c, owner: owner}, nil
}

// loop читает кадры, хранит последний и раздаёт превью не чаще every
func (c *gocvCamera) loop() {
	defer close(c.done)

	img := gocv.NewMat()
	defer img.Close()

	var lastPreview time.Time
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if ok := c.webcam.Read(&img); !ok || img.Empty() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		c.mu.Lock()
		img.CopyTo(&c.latest)
		c.hasFrame = true
		c.mu.Unlock()

		if time.Since(lastPreview) < c.every || !c.bindings.hasPreview() {
			continue
		}
		lastPreview = time.Now()

		pic, err := img.ToImage()
		if err != nil {
			c.log.Warn("preview conversion failed", "error", err)
			continue
		}
		c.bindings.render(pic)
	}
}

func (c *gocvCamera) close() error {
	close(c.stop)
	<-c.done

	c.mu.Lock()
	c.latest.Close()
	c.mu.Unlock()

	return c.webcam.Close()
}

type gocvStill struct {
	cam   *gocvCamera
	owner string
}

// TakePicture кодирует последний кадр. Буфер кадра нативный и живёт до Release.
func (s *gocvStill) TakePicture(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bnd, ok := s.cam.bindings.lookup(s.owner)
	if !ok {
		return nil, ErrNotBound
	}

	s.cam.mu.Lock()
	if !s.cam.hasFrame {
		s.cam.mu.Unlock()
		return nil, ErrNoFrame
	}
	snapshot := s.cam.latest.Clone()
	s.cam.mu.Unlock()
	defer snapshot.Close()

	var (
		buf *gocv.NativeByteBuffer
		err error
	)
	switch bnd.opts.Mode {
	case port.CaptureModeMinimizeLatency:
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, snapshot, []int{int(gocv.IMWriteJpegQuality), 85})
	default:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, snapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	return entity.NewFrame(buf.GetBytes(), bnd.opts.RotationDegrees, buf.Close), nil
}
