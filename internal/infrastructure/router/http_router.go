package router

import (
	"io"
	"net/http"
	"time"

	"airmiles-service/internal/interface/httpapi"
	"airmiles-service/pkg/logger"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter wires the API routes, metrics and the middleware chain
func NewHTTPRouter(h *httpapi.Handler, gatherer prometheus.Gatherer, allowedOrigins []string, log logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/search", h.Search).Methods(http.MethodPost)
	r.HandleFunc("/flights", h.GetFlights).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/flights/search", h.Search).Methods(http.MethodPost)
	api.HandleFunc("/flights", h.GetFlights).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = requestLogging(log, handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log}),
		handlers.PrintRecoveryStack(false),
	)(handler)

	return handler
}

// requestLogging logs one line per request through the service logger
func requestLogging(log logger.Logger, next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
		kv := []interface{}{
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp).String(),
		}
		if p.URL.Path == "/health" || p.URL.Path == "/metrics" {
			log.Debug("HTTP request", kv...)
			return
		}
		log.Info("HTTP request", kv...)
	})
}

// recoveryLogger adapts logger.Logger to handlers.RecoveryHandlerLogger
type recoveryLogger struct {
	log logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("Recovered from panic in HTTP handler", "panic", v)
}
