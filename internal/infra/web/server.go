package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"foodie/internal/config"
	"foodie/internal/usecase"
)

// Server exposes the capture/meal API, health and metrics.
type Server struct {
	captureUC usecase.CaptureUseCase
	mealUC    usecase.MealLogUseCase
	apiKey    string
	sessions  *AuthManager
	maxUpload int64
	log       *zerolog.Logger
}

func NewServer(
	cfg *config.WebConfig,
	captureUC usecase.CaptureUseCase,
	mealUC usecase.MealLogUseCase,
	dev bool,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	var sessions *AuthManager
	if cfg.SessionSecret != "" {
		// secure cookies in prod (TLS); plain http is fine in dev
		sessions = NewAuthManager(cfg.SessionSecret, !dev, cfg.SessionTTL)
	}
	return &Server{
		captureUC: captureUC,
		mealUC:    mealUC,
		apiKey:    cfg.APIKey,
		sessions:  sessions,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
		log:       &l,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/meals", s.handleCaptureUpload)
			r.Get("/meals", s.handleMealsList)
			r.Get("/meals/{id}", s.handleMealGet)
			r.Put("/meals/{id}", s.handleMealUpdate)
			r.Delete("/meals/{id}", s.handleMealDelete)

			r.Get("/captures/{id}", s.handleCaptureGet)
			r.Post("/captures/{id}/retry", s.handleCaptureRetry)
		})
	})

	return r
}
