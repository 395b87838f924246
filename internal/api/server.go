// Package api provides the readtrack HTTP API: typed huma operations for reading
// sessions plus the raw beacon and event-stream routes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/readtrack/internal/ratelimit"
	"github.com/listenupapp/readtrack/internal/sse"
	"github.com/listenupapp/readtrack/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options holds HTTP-surface settings.
type Options struct {
	// CORSOrigins lists origins allowed to call the API from a browser. Empty disables CORS.
	CORSOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store         store.ReadingSessionStore
	services      *Services
	tokens        TokenVerifier
	sseManager    *sse.Manager
	sseHandler    *sse.Handler
	beaconLimiter *ratelimit.KeyedRateLimiter
	router        chi.Router
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.ReadingSessionStore, services *Services, tokens TokenVerifier, sseManager *sse.Manager, beaconLimiter *ratelimit.KeyedRateLimiter, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:         st,
		services:      services,
		tokens:        tokens,
		sseManager:    sseManager,
		beaconLimiter: beaconLimiter,
		router:        router,
		logger:        logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, userFromRequest, logger)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("readtrack API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, for OpenAPI generation and tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Device-ID"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.tokens))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerReadingSessionRoutes()

	// Beacons and EventSource streams cannot send an Authorization header.
	s.router.Group(func(r chi.Router) {
		r.Use(queryTokenMiddleware(s.tokens))

		if s.beaconLimiter != nil {
			r.With(RateLimitMiddleware(s.beaconLimiter, s.logger)).
				Post("/api/v1/reading-sessions/beacon", s.handleBeacon)
		} else {
			r.Post("/api/v1/reading-sessions/beacon", s.handleBeacon)
		}

		if s.sseHandler != nil {
			r.Get("/api/v1/events", s.sseHandler.ServeHTTP)
		}
	})
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
