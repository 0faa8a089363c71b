package console

import (
	"bytes"
	"context"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	app "ocr-camera-bot/internal/application"
	"ocr-camera-bot/internal/domain/entity"
	"ocr-camera-bot/internal/domain/port"
	"ocr-camera-bot/internal/infrastructure/permission"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type stubCamera struct{ shots int }

func (c *stubCamera) Acquire(ctx context.Context) (port.Camera, error) { return c, nil }
func (c *stubCamera) UnbindAll(owner string)                         {}
func (c *stubCamera) Bind(owner string, preview port.PreviewSink, opts port.CaptureOptions) (port.StillCapture, error) {
	return c, nil
}
func (c *stubCamera) TakePicture(ctx context.Context) (*entity.Frame, error) {
	c.shots++
	return entity.NewFrame([]byte("png"), 0, nil), nil
}

type stubRecognizer struct{ closed int }

func (r *stubRecognizer) Process(ctx context.Context, img entity.InputImage) (*entity.RecognizedText, error) {
	return &entity.RecognizedText{Blocks: []entity.TextBlock{{Text: "No 007 and 42"}}}, nil
}
func (r *stubRecognizer) Close() error { r.closed++; return nil }

type nopPreview struct{}

func (nopPreview) Render(img image.Image) {}

func run(t *testing.T, input string, device port.PermissionGate) (string, *stubCamera, *stubRecognizer) {
	t.Helper()

	out := &syncBuffer{}
	c := New(strings.NewReader(input), out, device)
	cam := &stubCamera{}
	rec := &stubRecognizer{}

	screens := app.NewScreenService(app.ScreenDeps{
		Camera:      cam,
		Recognizers: func() (port.TextRecognizer, error) { return rec, nil },
		Permissions: c,
		Presenter:   c,
		Preview:     nopPreview{},
		Main:        app.Inline,
		Background:  app.Inline,
	})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), screens) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console did not finish")
	}
	return out.String(), cam, rec
}

func TestConsole_GrantCaptureQuit(t *testing.T) {
	out, cam, rec := run(t, "y\n\ns\nq\n", permission.NewDeviceGate(""))

	msgs := app.DefaultMessages()
	require.Contains(t, out, msgPermissionPrompt)
	require.Contains(t, out, "» "+msgs.TapToCapture)
	require.Contains(t, out, "» "+msgs.Processing)
	require.Contains(t, out, "» 007, 42")
	require.Contains(t, out, "ready: 007, 42")
	require.Equal(t, 1, cam.shots)
	require.Equal(t, 1, rec.closed)
}

func TestConsole_Deny(t *testing.T) {
	out, cam, rec := run(t, "n\n\n", permission.NewDeviceGate(""))

	require.Contains(t, out, "[!] "+app.DefaultMessages().PermissionDenied)
	require.Zero(t, cam.shots)
	require.Equal(t, 1, rec.closed)
}

func TestConsole_DeviceMissing(t *testing.T) {
	out, _, _ := run(t, "", permission.NewDeviceGate("/nonexistent/video0"))

	require.NotContains(t, out, msgPermissionPrompt)
	require.Contains(t, out, app.DefaultMessages().PermissionDenied)
}

func TestConsole_EOFClosesScreen(t *testing.T) {
	out, _, rec := run(t, "y\nwhat\n", permission.NewDeviceGate(""))

	require.Contains(t, out, msgHelp)
	require.Equal(t, 1, rec.closed)
}
