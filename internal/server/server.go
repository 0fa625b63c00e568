package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/raysh454/sitecheck/internal/app"
	"github.com/raysh454/sitecheck/internal/events"
	"github.com/raysh454/sitecheck/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Subscriber streams status events for one test. *events.Hub implements it.
type Subscriber interface {
	Subscribe(testID string) (<-chan events.Event, func())
}

// Config wires the HTTP boundary to an orchestrator.
type Config struct {
	app.ServerConfig

	Orchestrator *app.Orchestrator
	// Events feeds /ws/tests/{id}. Nil disables the stream.
	Events Subscriber
	Logger logging.Logger
}

// Server is the HTTP + WebSocket API surface for sitecheck.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	events       Subscriber
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	auth         *authenticator
}

// NewServer builds the router. The orchestrator's lifetime is owned by the
// caller.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: cfg.Orchestrator,
		events:       cfg.Events,
		router:       chi.NewRouter(),
		logger:       logger.With(logging.Component("server")),
		auth:         newAuthenticator(cfg.JWTSecret),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowedOrigin == "*" || r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
	if cfg.JWTSecret == "" {
		s.logger.Warn("server.jwt_secret is empty; every request runs as the development caller")
	}

	s.routes()
	return s
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/tests", s.optionsHandler("GET, POST"))
	r.Options("/api/tests/*", s.optionsHandler("GET, POST, PUT, DELETE"))

	r.Get("/api/health", s.handleHealth)
	s.mountSwagger(r)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/api/tests", s.handleCreateTest)
		r.Get("/api/tests", s.handleListTests)
		r.Get("/api/tests/stats", s.handleStats)
		r.Get("/api/tests/paginated", s.handleListPaginated)
		r.Post("/api/tests/demo", s.handleDemo)

		r.Get("/api/tests/{id}", s.handleGetTest)
		r.Delete("/api/tests/{id}", s.handleDeleteTest)
		r.Put("/api/tests/{id}/run", s.handleRunTest)
		r.Get("/api/tests/{id}/history", s.handleHistory)
		r.Get("/api/tests/{id}/compare", s.handleCompare)

		// WebSocket for status transitions
		r.Get("/ws/tests/{id}", s.handleTestWS)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		q.Del("token")
		fields = append(fields, logging.Field{Key: "query", Value: q.Encode()})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes)); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	readTimeout := s.cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: 0, // engine runs and websocket streams are long-lived
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.Field{Key: "addr", Value: srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// --- JSON helpers ---

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}
