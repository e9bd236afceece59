// Package http implements the proxy with an HTTP server.
//
// Every request receives an identifier, read from the X-Request-Id header or
// generated, and is logged once it is served.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/ballot"
	"golang.org/x/xerrors"
)

type key int

const (
	requestIDKey key = 0
)

// RequestIDHeader is the header carrying the identifier of a request.
const RequestIDHeader = "X-Request-Id"

// MetricsPath is the path of the prometheus handler.
const MetricsPath = "/metrics"

const defaultShutdownTimeout = 10 * time.Second

// Option is the type of option to configure the proxy.
type Option func(*HTTP)

// WithShutdownTimeout sets the duration the proxy waits for the requests in
// flight when it stops. The connections still open afterwards are closed.
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		h.shutdownTimeout = d
	}
}

// HTTP defines a proxy http
//
// - implements proxy.Proxy
type HTTP struct {
	sync.Mutex

	router          *mux.Router
	handler         http.Handler
	server          *http.Server
	logger          zerolog.Logger
	listenAddr      string
	shutdownTimeout time.Duration
	ln              net.Listener
	done            chan struct{}
}

// NewHTTP creates a new proxy http
func NewHTTP(listenAddr string, opts ...Option) *HTTP {
	logger := ballot.Logger.With().Str("role", "http proxy").Logger()

	nextRequestID := func() string {
		return xid.New().String()
	}

	router := mux.NewRouter()

	h := &HTTP{
		router:          router,
		handler:         tracing(nextRequestID)(logging(logger)(router)),
		logger:          logger,
		listenAddr:      listenAddr,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Listen implements proxy.Proxy. It binds the address and serves the requests
// in the background until Stop is called.
func (h *HTTP) Listen() error {
	h.Lock()
	defer h.Unlock()

	if h.ln != nil {
		return xerrors.New("server is already running")
	}

	ln, err := net.Listen("tcp", h.listenAddr)
	if err != nil {
		return xerrors.Errorf("failed to listen on %s: %v", h.listenAddr, err)
	}

	h.ln = ln
	h.done = make(chan struct{})
	h.server = &http.Server{
		Handler:           h.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)

		err := srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			h.logger.Err(err).Msg("server failed")
		}
	}(h.server, h.done)

	h.logger.Info().Str("addr", ln.Addr().String()).Msg("server is ready to handle requests")

	return nil
}

// Stop implements proxy.Proxy. It gracefully shuts the server down.
func (h *HTTP) Stop() error {
	h.Lock()
	defer h.Unlock()

	if h.ln == nil {
		return nil
	}

	h.logger.Info().Msg("server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	h.server.SetKeepAlivesEnabled(false)

	err := h.server.Shutdown(ctx)
	if err != nil {
		h.server.Close()
	}

	<-h.done

	h.ln = nil

	if err != nil {
		return xerrors.Errorf("could not gracefully shutdown the server: %v", err)
	}

	h.logger.Info().Msg("server stopped")

	return nil
}

// GetAddr implements proxy.Proxy.
func (h *HTTP) GetAddr() net.Addr {
	h.Lock()
	defer h.Unlock()

	if h.ln == nil {
		return nil
	}

	return h.ln.Addr()
}

// RegisterHandler implements proxy.Proxy.
func (h *HTTP) RegisterHandler(path string, handler http.HandlerFunc, methods ...string) {
	route := h.router.HandleFunc(path, handler)

	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// RegisterMetrics serves the collectors of the packages on the metrics path.
func (h *HTTP) RegisterMetrics(collectors ...prometheus.Collector) {
	registry := prometheus.NewRegistry()

	for _, c := range collectors {
		err := registry.Register(c)
		if err != nil {
			h.logger.Warn().Err(err).Msg("collector not registered")
		}
	}

	h.router.Handle(MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
}

// GetRequestID returns the identifier of the request, or an empty string.
func GetRequestID(r *http.Request) string {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	return requestID
}

// statusRecorder keeps the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logging is a utility function that logs the http server events
func logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				requestID := GetRequestID(r)
				if requestID == "" {
					requestID = "unknown"
				}

				logger.Info().Str("requestID", requestID).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Int("status", rec.status).
					Dur("duration", time.Since(start)).
					Str("remoteAddr", r.RemoteAddr).
					Str("agent", r.UserAgent()).Msg("")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// tracing is a utility function that adds header tracing
func tracing(nextRequestID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = nextRequestID()
			}

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
