// Package server exposes the analysis pipeline and stored runs over HTTP.
package server

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/geocentral/internal/pipeline"
	"github.com/sells-group/geocentral/internal/store"
)

// Config holds HTTP-specific settings.
type Config struct {
	AllowOrigins []string
	RateLimit    float64 // analyze requests per second
	RateBurst    int
	MaxListings  int
	MaxBodyBytes int64
	Top          int
}

// Server serves the HTTP API. The store may be nil, in which case analyses
// are not persisted and the runs endpoints return 503.
type Server struct {
	cfg      Config
	defaults pipeline.Options
	store    store.Store
	limiter  *rate.Limiter
	validate *validator.Validate
	log      *zap.Logger
}

// New creates a Server. defaults supply every analysis parameter a request
// leaves unset.
func New(cfg Config, defaults pipeline.Options, st store.Store) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}
	if cfg.MaxListings <= 0 {
		cfg.MaxListings = 5000
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 8 << 20
	}
	if cfg.Top <= 0 {
		cfg.Top = 5
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		cfg:      cfg,
		defaults: defaults,
		store:    st,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		validate: validate,
		log:      zap.L().Named("http"),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.rateLimit).Post("/analyze", s.analyze)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{runID}", s.getRun)
	})

	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
