// Package api exposes the engine to review front ends over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/bankfacts/internal/config"
	"github.com/sells-group/bankfacts/internal/engine"
	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
)

// Server serves the review API.
type Server struct {
	eng     *engine.Engine
	cfg     config.ServerConfig
	limiter *rate.Limiter
	metrics *metrics
	unsub   func()
}

// NewServer creates a server over eng. Mutations share one token bucket
// sized by cfg.
func NewServer(eng *engine.Engine, cfg config.ServerConfig) *Server {
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(cfg.RateLimitRPS)
	if cfg.RateLimitRPS <= 0 {
		limit = rate.Inf
	}
	s := &Server{eng: eng, cfg: cfg, limiter: rate.NewLimiter(limit, burst), metrics: newMetrics()}
	s.unsub = eng.Subscribe(s.metrics.observe)
	return s
}

// Close stops recording engine events.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(s.metrics.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	r.Get("/facts", s.listFacts)
	r.Get("/table", s.table)
	r.Get("/progress", s.progress)
	r.Route("/facts/{key}", func(r chi.Router) {
		r.Use(factKey)
		r.Get("/status", s.getStatus)
		r.Get("/audit", s.getAudit)
		r.Get("/display", s.getDisplay)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Put("/value", s.putValue)
			r.Put("/comment", s.putComment)
			r.Post("/validate", s.toggle(s.eng.ToggleValidated))
			r.Post("/na", s.toggle(s.eng.ToggleNA))
			r.Post("/flag", s.toggle(s.eng.ToggleFlag))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/candidates", s.postCandidates)
		r.Post("/estimates", s.postEstimates)
		r.Post("/reset", s.postReset)
	})
	return r
}

func (s *Server) origins() []string {
	if len(s.cfg.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.CORSOrigins
}

// rateLimit rejects mutations once the shared bucket is empty.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// factKey rejects malformed keys before any handler runs.
func factKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if !identity.IsFactKey(key) {
			writeError(w, http.StatusBadRequest, "invalid fact key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func keyParam(r *http.Request) model.FactKey {
	return model.FactKey(chi.URLParam(r, "key"))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
