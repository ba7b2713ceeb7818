package api

import (
	"context"
	"net/http"
	"time"

	"topolink-agent/internal/application/usecases"
	"topolink-agent/internal/infrastructure/health"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

// Server exposes the link operations over HTTP
type Server struct {
	server  *http.Server
	router  *mux.Router
	handler *Handler
	logger  *logrus.Logger
}

// NewServer creates a server listening on addr
func NewServer(addr string, operations *usecases.LinkOperations, healthService *health.HealthService, logger *logrus.Logger) *Server {
	s := &Server{
		handler: NewHandler(operations, healthService, logger),
		logger:  logger,
	}
	s.router = s.newRouter(healthService)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) newRouter(healthService *health.HealthService) *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.Handle(HealthPath, healthService).Methods(http.MethodGet)
	router.Handle(MetricsPath, promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/nodes", s.handler.ListNodes).Methods(http.MethodGet)

	nodes := router.PathPrefix("/nodes").Subrouter()
	nodes.HandleFunc("/{node}/ports", s.handler.ListPorts).Methods(http.MethodGet)
	nodes.HandleFunc("/{node}/verify", s.handler.VerifyPorts).Methods(http.MethodGet)
	nodes.HandleFunc("/{node}/ports/{port}", s.handler.ResolvePort).Methods(http.MethodGet)
	nodes.HandleFunc("/{node}/ports/{port}", s.handler.CreatePlainLink).Methods(http.MethodPost)
	nodes.HandleFunc("/{node}/ports/{port}", s.handler.RemoveLink).Methods(http.MethodDelete)
	nodes.HandleFunc("/{node}/ports/{port}/bind", s.handler.BindPort).Methods(http.MethodPost)
	nodes.HandleFunc("/{node}/ports/{port}/bind", s.handler.UnbindPort).Methods(http.MethodDelete)
	nodes.HandleFunc("/{node}/ports/{port}/vlans", s.handler.CreateVLANLink).Methods(http.MethodPost)
	nodes.HandleFunc("/{node}/ports/{port}/config", s.handler.ConfigureInterface).Methods(http.MethodPut)

	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background; listener errors other than a clean
// shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("HTTP API started (with /metrics and /healthz)")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP API server failed")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": time.Since(start).String(),
		}).Debug("HTTP request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
