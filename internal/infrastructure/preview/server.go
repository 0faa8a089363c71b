package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ocr-camera-bot/internal/domain/port"
)

// screenView представление экрана в /screens
type screenView struct {
	ID        string `json:"id"`
	ChatID    int64  `json:"chat_id"`
	Phase     string `json:"phase"`
	Output    string `json:"output"`
	Destroyed bool   `json:"destroyed"`
}

// NewRouter возвращает маршруты превью, здоровья и списка экранов
func NewRouter(latest *Latest, screens port.ScreenRepository, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/preview.jpg", func(w http.ResponseWriter, r *http.Request) {
		data, err := latest.JPEG()
		if errors.Is(err, ErrNoPreview) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			logger.Error("preview encode failed", "error", err)
			http.Error(w, "preview unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}).Methods(http.MethodGet)

	r.HandleFunc("/screens", func(w http.ResponseWriter, r *http.Request) {
		list, err := screens.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]screenView, 0, len(list))
		for _, s := range list {
			out = append(out, screenView{
				ID:        s.ID.String(),
				ChatID:    s.ChatID,
				Phase:     string(s.Phase),
				Output:    s.Output,
				Destroyed: s.Destroyed,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.Error("screens encode failed", "error", err)
		}
	}).Methods(http.MethodGet)

	return r
}

// NewServer создаёт HTTP-сервер превью
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
