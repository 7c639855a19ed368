package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Spok95/odonto/internal/infra/metrics"
)

type Options struct {
	Addr          string
	ExposeMetrics bool
	CORSOrigins   []string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Log           *slog.Logger
	Metrics       *metrics.Metrics
}

type Server struct {
	srv *http.Server
}

// New собирает роутер: служебные маршруты, затем register навешивает API.
func New(opts Options, register func(*mux.Router)) *Server {
	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(opts, register),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}}
}

func NewHandler(opts Options, register func(*mux.Router)) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	if opts.ExposeMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	if register != nil {
		register(router)
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	router.Use(requestID, accessLog(log, opts.Metrics))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return c.Handler(router)
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
