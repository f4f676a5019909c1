package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hawkular/apm-persistent-data/internal/api"
	"github.com/hawkular/apm-persistent-data/internal/application"
	"github.com/hawkular/apm-persistent-data/internal/listener"
	"github.com/hawkular/apm-persistent-data/internal/logging"
	"github.com/hawkular/apm-persistent-data/internal/metrics"
)

const (
	serviceName = "hawkular-apm-persistent-data"
	logLevel    = "info"

	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second

	// Requests per second and burst admitted by the primary listener.
	rateLimitRPS   = 25.0
	rateLimitBurst = 50
)

var signalNotify = signal.Notify

func main() {
	logger, err := logging.New(logging.WithLevel(logLevel), logging.WithService(serviceName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(application.ExitStartupFailed)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, code := run(os.Args[1:], logger); code != 0 {
		_ = logger.Sync()
		os.Exit(code)
	}

	awaitSignal(logger)
}

// run executes the startup sequence and returns the exit status to use when
// it fails.
func run(args []string, logger *zap.Logger) (*application.App, int) {
	app := application.New(logger,
		application.WithMetrics(metrics.New()),
		application.WithListenerOptions(listener.WithTimeouts(readHeaderTimeout, writeTimeout, idleTimeout)),
		application.WithRouterOptions(api.WithLogging(true), api.WithRateLimit(rateLimitRPS, rateLimitBurst)),
	)
	if err := app.Start(args); err != nil {
		stage := app.Stage()
		var startErr *application.StartupError
		if errors.As(err, &startErr) {
			stage = startErr.Stage
		}
		logger.Error("Could not start the Hawkular APM Persistent Data",
			zap.Stringer("stage", stage),
			zap.Error(err),
		)
		return app, application.ExitStartupFailed
	}
	return app, 0
}

// awaitSignal blocks until the process is asked to stop. Listeners are not
// drained; they go away with the process.
func awaitSignal(logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGTERM)

	sig := <-quit
	logger.Info("received signal, exiting", zap.String("signal", sig.String()))
}
