package app

import "ocr-camera-bot/internal/domain/port"

// CameraSession привязка превью и приёмника снимков к экрану.
// Пересоздаётся при каждой привязке, отвязывается при уничтожении экрана.
type CameraSession struct {
	Owner   string
	Camera  port.Camera
	Preview port.PreviewSink
	Still   port.StillCapture
}

// bindSession отвязывает прежние приёмники владельца и привязывает новые
func bindSession(cam port.Camera, owner string, preview port.PreviewSink, opts port.CaptureOptions) (*CameraSession, error) {
	cam.UnbindAll(owner)

	still, err := cam.Bind(owner, preview, opts)
	if err != nil {
		return nil, err
	}

	return &CameraSession{
		Owner:   owner,
		Camera:  cam,
		Preview: preview,
		Still:   still,
	}, nil
}

// Unbind отвязывает все приёмники сессии
func (c *CameraSession) Unbind() {
	c.Camera.UnbindAll(c.Owner)
}
