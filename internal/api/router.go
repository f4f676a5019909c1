package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hawkular/apm-persistent-data/internal/metrics"
)

// Listener names used as log fields and metric labels.
const (
	PrimaryListener     = "primary"
	HealthcheckListener = "healthcheck"
)

// RouterOption configures the behaviour of NewRouter and NewHealthRouter.
type RouterOption func(*routerConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.enableLogging = enabled
	}
}

// WithRateLimit puts a token bucket in front of the router. Without it no
// request is throttled; zero for either value disables limiting.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = newTokenBucketLimiter(rps, burst)
	}
}

func withRateLimiter(limiter rateLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = limiter
	}
}

// WithMetrics instruments the router and, on the health router, exposes /metrics.
func WithMetrics(m *metrics.Metrics) RouterOption {
	return func(cfg *routerConfig) {
		cfg.metrics = m
	}
}

type routerConfig struct {
	listener      string
	enableLogging bool
	logger        *zap.Logger
	rateLimiter   rateLimiter
	metrics       *metrics.Metrics
}

// NewRouter wraps the application routes served by the primary listener with
// the standard middleware chain. A nil routes handler answers 404 to everything.
// The chain never changes what routes answers unless WithRateLimit is given.
func NewRouter(routes http.Handler, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		listener:      PrimaryListener,
		enableLogging: true,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if routes == nil {
		routes = http.NewServeMux()
	}

	return wrap(cfg, routes)
}

// NewHealthRouter builds the dispatcher of the health-check listener.
func NewHealthRouter(health *HealthHandler, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		listener:      HealthcheckListener,
		enableLogging: false,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", http.HandlerFunc(health.handleHealth))
	if cfg.metrics != nil {
		mux.Handle("GET /metrics", cfg.metrics.Handler(zap.NewStdLog(logger)))
	}
	return wrap(cfg, mux)
}

func wrap(cfg routerConfig, next http.Handler) http.Handler {
	root := recoveryMiddleware(cfg.logger, next)
	if cfg.enableLogging {
		root = loggingMiddleware(cfg.logger, cfg.listener, root)
	}
	if cfg.metrics != nil {
		root = cfg.metrics.Instrument(cfg.listener, root)
	}
	root = rateLimitMiddleware(cfg.rateLimiter, root)
	return requestIDMiddleware(root)
}

func loggingMiddleware(logger *zap.Logger, listener string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("request completed",
			zap.String("listener", listener),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
	})
}

func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = generateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(contextWithRequestID(r.Context(), requestID)))
	})
}

func generateRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
