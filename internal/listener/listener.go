// Package listener binds HTTP listeners and serves them in the background.
// Start binds synchronously so bind failures reach the caller, then hands the
// socket to an http.Server running on its own goroutine.
package listener

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrorKind classifies listener failures.
type ErrorKind int

const (
	// BindFailed covers address in use, invalid address or port, and permission errors.
	BindFailed ErrorKind = iota + 1
)

func (k ErrorKind) String() string {
	if k == BindFailed {
		return "bind failed"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by Start.
type Error struct {
	Kind ErrorKind
	Name string
	Addr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s listener: %s on %s: %v", e.Name, e.Kind, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type options struct {
	name              string
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
}

// Option configures Start.
type Option func(*options)

// WithName labels the listener in logs and errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTimeouts overrides the http.Server timeouts. Zero leaves the default in place.
func WithTimeouts(readHeader, write, idle time.Duration) Option {
	return func(o *options) {
		if readHeader > 0 {
			o.readHeaderTimeout = readHeader
		}
		if write > 0 {
			o.writeTimeout = write
		}
		if idle > 0 {
			o.idleTimeout = idle
		}
	}
}

// Listener is a bound HTTP listener serving in the background.
type Listener struct {
	name   string
	ln     net.Listener
	server *http.Server
	done   chan struct{}
}

// Start binds bind:port and serves dispatcher on it without blocking. Values
// are passed to the OS unchecked; port 0 picks an ephemeral port.
func Start(bind string, port int, dispatcher http.Handler, logger *zap.Logger, opts ...Option) (*Listener, error) {
	o := options{
		name:              "http",
		readHeaderTimeout: 5 * time.Second,
		writeTimeout:      15 * time.Second,
		idleTimeout:       60 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	addr := net.JoinHostPort(bind, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &Error{Kind: BindFailed, Name: o.name, Addr: addr, Err: err}
	}

	logger = logger.With(zap.String("listener", o.name))
	l := &Listener{
		name: o.name,
		ln:   ln,
		server: &http.Server{
			Handler:           dispatcher,
			ReadHeaderTimeout: o.readHeaderTimeout,
			WriteTimeout:      o.writeTimeout,
			IdleTimeout:       o.idleTimeout,
			ErrorLog:          zap.NewStdLog(logger),
		},
		done: make(chan struct{}),
	}

	go func() {
		defer close(l.done)
		logger.Info("listener serving", zap.String("addr", ln.Addr().String()))
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listener stopped", zap.Error(err))
		}
	}()

	return l, nil
}

// Name returns the listener label.
func (l *Listener) Name() string {
	return l.name
}

// Addr returns the bound address, with the actual port when 0 was requested.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close releases the socket immediately without draining in-flight requests.
func (l *Listener) Close() error {
	err := l.server.Close()
	<-l.done
	return err
}
