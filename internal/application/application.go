package application

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/hawkular/apm-persistent-data/internal/api"
	"github.com/hawkular/apm-persistent-data/internal/config"
	"github.com/hawkular/apm-persistent-data/internal/listener"
	"github.com/hawkular/apm-persistent-data/internal/metrics"
)

// ExitStartupFailed is the process exit status for any startup failure.
// Supervisors key restart policy on this value.
const ExitStartupFailed = 127

// StartupError reports the stage that was reached before the sequence failed.
type StartupError struct {
	Stage Stage
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed after stage %s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Option configures an App.
type Option func(*App)

// WithRoutes sets the request router served behind the primary listener.
func WithRoutes(routes http.Handler) Option {
	return func(a *App) {
		a.routes = routes
	}
}

// WithMetrics instruments both listeners and exposes /metrics on the health-check one.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithRouterOptions appends options for the primary router.
func WithRouterOptions(opts ...api.RouterOption) Option {
	return func(a *App) {
		a.routerOpts = append(a.routerOpts, opts...)
	}
}

// WithListenerOptions appends options applied to both listeners.
func WithListenerOptions(opts ...listener.Option) Option {
	return func(a *App) {
		a.listenerOpts = append(a.listenerOpts, opts...)
	}
}

// App owns the resolved configuration and the two listeners.
type App struct {
	logger       *zap.Logger
	routes       http.Handler
	metrics      *metrics.Metrics
	routerOpts   []api.RouterOption
	listenerOpts []listener.Option

	mu      sync.RWMutex
	stage   Stage
	cfg     config.Configuration
	primary *listener.Listener
	health  *listener.Listener
}

// New builds an App in StageInit.
func New(logger *zap.Logger, opts ...Option) *App {
	a := &App{logger: logger, stage: StageInit}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start resolves the configuration from args and brings up both listeners.
// On failure the primary listener, if already bound, stays bound.
func (a *App) Start(args []string) error {
	a.logger.Info("Hawkular APM Persistent Data is starting")

	cfg, err := config.Resolve(args)
	if err != nil {
		return a.fail(err)
	}
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	a.advance(StageConfigResolved)
	a.logger.Debug("configuration resolved",
		zap.String("bind", cfg.Bind),
		zap.Int("port", cfg.Port),
		zap.String("healthcheck_bind", cfg.HealthcheckBind),
		zap.Int("healthcheck_port", cfg.HealthcheckPort),
	)

	primary, err := a.startListener(api.PrimaryListener, cfg.Bind, cfg.Port, a.primaryDispatcher())
	if err != nil {
		return a.fail(err)
	}
	a.mu.Lock()
	a.primary = primary
	a.mu.Unlock()
	a.advance(StagePrimaryListenerUp)

	health, err := a.startListener(api.HealthcheckListener, cfg.HealthcheckBind, cfg.HealthcheckPort, a.healthDispatcher())
	if err != nil {
		return a.fail(err)
	}
	a.mu.Lock()
	a.health = health
	a.mu.Unlock()
	a.advance(StageHealthListenerUp)

	a.advance(StageRunning)
	a.logger.Info("Hawkular APM Persistent Data started",
		zap.String("addr", primary.Addr().String()),
		zap.String("healthcheck_addr", health.Addr().String()),
	)
	return nil
}

func (a *App) startListener(name, bind string, port int, dispatcher http.Handler) (*listener.Listener, error) {
	opts := append([]listener.Option{listener.WithName(name)}, a.listenerOpts...)
	l, err := listener.Start(bind, port, dispatcher, a.logger, opts...)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.MarkListenerUp(name)
	}
	return l, nil
}

func (a *App) primaryDispatcher() http.Handler {
	opts := a.routerOpts
	if a.metrics != nil {
		opts = append([]api.RouterOption{api.WithMetrics(a.metrics)}, opts...)
	}
	return api.NewRouter(a.routes, a.logger, opts...)
}

func (a *App) healthDispatcher() http.Handler {
	var opts []api.RouterOption
	if a.metrics != nil {
		opts = append(opts, api.WithMetrics(a.metrics))
	}
	return api.NewHealthRouter(api.NewHealthHandler(), a.logger, opts...)
}

func (a *App) advance(stage Stage) {
	a.mu.Lock()
	a.stage = stage
	a.mu.Unlock()
}

func (a *App) fail(err error) error {
	a.mu.Lock()
	reached := a.stage
	a.stage = StageFailed
	a.mu.Unlock()
	return &StartupError{Stage: reached, Err: err}
}

// Stage returns the current startup stage.
func (a *App) Stage() Stage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stage
}

// Config returns the resolved configuration; zero before StageConfigResolved.
func (a *App) Config() config.Configuration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// PrimaryAddr returns the bound primary address, or nil if not bound.
func (a *App) PrimaryAddr() net.Addr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.primary == nil {
		return nil
	}
	return a.primary.Addr()
}

// HealthcheckAddr returns the bound health-check address, or nil if not bound.
func (a *App) HealthcheckAddr() net.Addr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.health == nil {
		return nil
	}
	return a.health.Addr()
}

// Close releases whichever listeners are bound. The service itself never
// calls it; listeners live as long as the process.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, l := range []*listener.Listener{a.health, a.primary} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.primary, a.health = nil, nil
	return errors.Join(errs...)
}
