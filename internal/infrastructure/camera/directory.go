package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// DirectoryProvider камера, которая по кругу выдаёт снимки из каталога.
// Подходит для машин без веб-камеры и для демонстраций.
type DirectoryProvider struct {
	Dir        string
	PreviewFPS int
	Logger     *slog.Logger

	mu  sync.Mutex
	cam *directoryCamera
}

// NewDirectoryProvider создаёт поставщика для каталога со снимками
func NewDirectoryProvider(dir string, previewFPS int, logger *slog.Logger) *DirectoryProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryProvider{Dir: dir, PreviewFPS: previewFPS, Logger: logger}
}

// Acquire читает список снимков при первом вызове
func (p *DirectoryProvider) Acquire(ctx context.Context) (port.Camera, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cam != nil {
		return p.cam, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := listImages(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	cam := &directoryCamera{
		files:    files,
		bindings: newBindings(),
		every:    previewInterval(p.PreviewFPS),
		log:      p.Logger.With("dir", p.Dir),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go cam.loop()

	p.cam = cam
	return cam, nil
}

// Close останавливает выдачу превью
func (p *DirectoryProvider) Close() error {
	p.mu.Lock()
	cam := p.cam
	p.cam = nil
	p.mu.Unlock()

	if cam != nil {
		close(cam.stop)
		<-cam.done
	}
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}

	sort.Strings(files)
	return files, nil
}

type directoryCamera struct {
	files    []string
	bindings *bindings
	every    time.Duration
	log      *slog.Logger

	mu   sync.Mutex
	next int

	stop chan struct{}
	done chan struct{}
}

func (c *directoryCamera) UnbindAll(owner string) {
	c.bindings.unbindAll(owner)
}

func (c *directoryCamera) Bind(owner string, preview port.PreviewSink, opts port.CaptureOptions) (port.StillCapture, error) {
	c.bindings.bind(owner, preview, opts)
	return &directoryStill{cam: c, owner: owner}, nil
}

// current файл, который сейчас "перед объективом"
func (c *directoryCamera) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files[c.next%len(c.files)]
}

// advance возвращает текущий файл и переходит к следующему
func (c *directoryCamera) advance() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	path := c.files[c.next%len(c.files)]
	c.next++
	return path
}

func (c *directoryCamera) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.bindings.hasPreview() {
				continue
			}
			img, err := imaging.Open(c.current(), imaging.AutoOrientation(true))
			if err != nil {
				c.log.Warn("preview decode failed", "error", err)
				continue
			}
			c.bindings.render(img)
		}
	}
}

type directoryStill struct {
	cam   *directoryCamera
	owner string
}

func (s *directoryStill) TakePicture(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bnd, ok := s.cam.bindings.lookup(s.owner)
	if !ok {
		return nil, ErrNotBound
	}

	path := s.cam.advance()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	return entity.NewFrame(data, bnd.opts.RotationDegrees, nil), nil
}
