package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opennode-labs/fieldnode/internal/channel"
	"github.com/opennode-labs/fieldnode/internal/database"
	"github.com/opennode-labs/fieldnode/internal/export"
	"github.com/opennode-labs/fieldnode/internal/handler"
	"github.com/opennode-labs/fieldnode/internal/logger"
	"github.com/opennode-labs/fieldnode/internal/metrics"
	"github.com/opennode-labs/fieldnode/internal/registry"
	"github.com/opennode-labs/fieldnode/internal/repository"
)

type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
}

// NewServer wires the HTTP surface: operator endpoints behind the API key,
// node-facing channel and export endpoints behind channel sessions.
func NewServer(port int, apiKey string, trustedProxies []string, dbPool database.Pool,
	reg *registry.Registry, channelServer *channel.Server, exportService *export.Service,
	pullService handler.PullService, attempts repository.Attempts) *Server {

	r := chi.NewRouter()

	// Middleware stack, outermost to innermost
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey, trustedProxies, detector))
	r.Use(RateLimitMiddleware(trustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", handler.HandleVersion())

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Channel handshake, called by remote nodes
		r.Route("/channel", func(r chi.Router) {
			r.Post("/open", handler.HandleChannelOpen(channelServer))
			r.Post("/confirm", handler.HandleChannelConfirm(channelServer))
			r.Post("/close", handler.HandleChannelClose(channelServer))
		})

		r.Route("/sync", func(r chi.Router) {
			// Node-facing export, authenticated by channel session
			r.Post("/manifest", handler.HandleSyncManifest(channelServer, exportService))
			r.Get("/entities/{kind}", handler.HandleSyncEntities(channelServer, exportService))
			r.Get("/recordings/{id}/file", handler.HandleRecordingFile(channelServer, exportService))

			// Operator-facing, behind the API key
			r.Post("/pull", handler.HandlePull(pullService))
			r.Get("/log", handler.HandleSyncLog(attempts))
		})

		r.Get("/nodes", handler.HandleListNodes(reg))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool: dbPool,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, channel.SessionHeader) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
