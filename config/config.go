package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Режимы пользовательской поверхности
const (
	ModeTelegram = "telegram"
	ModeConsole  = "console"
)

// Префикс источника камеры-каталога
const dirSourcePrefix = "dir:"

type Config struct {
	TelegramToken       string
	Mode                string
	CameraSource        string // номер устройства или dir:<путь>
	CameraDevice        string // узел устройства для проверки доступа
	CameraRotation      int
	PreviewFPS          int
	OCRLanguage         string
	CaptureSingleFlight bool
	PreviewAddr         string
	LogLevel            string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Mode:          getEnv("UI_MODE", ModeTelegram),
		CameraSource:  getEnv("CAMERA_SOURCE", "0"),
		CameraDevice:  getEnv("CAMERA_DEVICE", "/dev/video0"),
		OCRLanguage:   getEnv("OCR_LANGUAGE", "eng"),
		PreviewAddr:   os.Getenv("PREVIEW_ADDR"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CameraRotation, err = getInt("CAMERA_ROTATION", 0); err != nil {
		return nil, err
	}
	if cfg.PreviewFPS, err = getInt("CAMERA_PREVIEW_FPS", 5); err != nil {
		return nil, err
	}
	if cfg.CaptureSingleFlight, err = getBool("CAPTURE_SINGLE_FLIGHT", false); err != nil {
		return nil, err
	}

	// Каталог со снимками не требует доступа к устройству
	if cfg.CameraDirectory() != "" && os.Getenv("CAMERA_DEVICE") == "" {
		cfg.CameraDevice = ""
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeTelegram:
		if c.TelegramToken == "" {
			return errors.New("TELEGRAM_TOKEN is required")
		}
	case ModeConsole:
	default:
		return fmt.Errorf("unknown UI_MODE %q", c.Mode)
	}

	if c.CameraRotation%90 != 0 {
		return fmt.Errorf("CAMERA_ROTATION must be a multiple of 90, got %d", c.CameraRotation)
	}
	if c.PreviewFPS <= 0 {
		return fmt.Errorf("CAMERA_PREVIEW_FPS must be positive, got %d", c.PreviewFPS)
	}
	if c.CameraDirectory() == "" {
		if _, err := c.CameraDeviceID(); err != nil {
			return err
		}
	}
	return nil
}

// CameraDirectory возвращает каталог снимков, если источник задан как dir:<путь>
func (c *Config) CameraDirectory() string {
	if strings.HasPrefix(c.CameraSource, dirSourcePrefix) {
		return strings.TrimPrefix(c.CameraSource, dirSourcePrefix)
	}
	return ""
}

// CameraDeviceID возвращает номер устройства камеры
func (c *Config) CameraDeviceID() (int, error) {
	id, err := strconv.Atoi(c.CameraSource)
	if err != nil {
		return 0, fmt.Errorf("CAMERA_SOURCE must be a device index or dir:<path>, got %q", c.CameraSource)
	}
	return id, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
