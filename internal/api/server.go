// Package api serves the REST surface under /api/v1.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/course"
	"github.com/anatolykoptev/go_course/internal/engine/library"
	"github.com/anatolykoptev/go_course/internal/engine/sources"
)

// Defaults for the /api/ rate limit.
const (
	DefaultRateLimit  = 100
	DefaultRateWindow = 15 * time.Minute
)

// Config holds the HTTP-level settings.
type Config struct {
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

// Converter runs the YouTube → course pipeline.
type Converter interface {
	Convert(ctx context.Context, in engine.CourseConvertInput) (*course.Document, error)
}

// Deps are the services behind the handlers. Nil search/translate functions
// default to the sources package.
type Deps struct {
	Converter Converter
	Library   *library.Library

	SearchYouTube  func(context.Context, engine.YouTubeSearchInput) (engine.YouTubeSearchOutput, error)
	Translate      func(context.Context, engine.TranslateInput) (*engine.TranslateOutput, error)
	DetectLanguage func(context.Context, engine.DetectInput) (*engine.DetectOutput, error)
}

type server struct {
	deps    Deps
	started time.Time
}

// NewRouter builds the HTTP handler with the middleware stack and all routes.
func NewRouter(cfg Config, deps Deps) http.Handler {
	if deps.SearchYouTube == nil {
		deps.SearchYouTube = sources.SearchYouTube
	}
	if deps.Translate == nil {
		deps.Translate = sources.Translate
	}
	if deps.DetectLanguage == nil {
		deps.DetectLanguage = sources.DetectLanguage
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultRateWindow
	}
	s := &server{deps: deps, started: time.Now()}

	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(cors(cfg.AllowedOrigins))
	r.Use(securityHeaders)
	r.Use(accessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, "Route "+r.URL.RequestURI()+" not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
		r.Route("/v1", func(r chi.Router) {
			r.Route("/users", func(r chi.Router) {
				r.Post("/signup", s.signup)
				r.Post("/login", s.login)
				r.Post("/convert", s.convert)
			})
			r.Get("/youtube/search", s.youtubeSearch)
			r.Route("/translation", func(r chi.Router) {
				r.Post("/translate", s.translate)
				r.Post("/detect", s.detect)
			})
			r.Route("/prompts", func(r chi.Router) {
				r.Use(s.requireLibrary)
				r.Use(authenticate(deps.Library))
				r.Get("/", s.listPrompts)
				r.Post("/", s.createPrompt)
				r.Put("/{id}", s.updatePrompt)
				r.Delete("/{id}", s.deletePrompt)
			})
		})
	})

	return r
}

// requireLibrary answers 503 when no store is configured.
func (s *server) requireLibrary(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Library == nil {
			sendError(w, http.StatusServiceUnavailable, "User storage is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	sendSuccess(w, http.StatusOK, "Server is healthy", map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"metrics": engine.GetMetrics(),
	})
}
