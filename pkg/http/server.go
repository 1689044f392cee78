package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Sentinel/pkg/http/middleware"
	"Sentinel/pkg/logger"
)

// Handler registers its routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Handlers mounts several handlers in order.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		h.RegisterRoutes(e)
	}
}

// ServerOption configures Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	host            string
	port            int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	slowRequest     time.Duration
	cors            bool
	metricsPath     string
	registry        *prometheus.Registry
	rps             float64
	burst           int
	log             *logger.Logger
}

func WithHost(host string) ServerOption {
	return func(o *serverOptions) { o.host = host }
}

// WithPort sets the listen port; 0 picks a free one, see Addr.
func WithPort(port int) ServerOption {
	return func(o *serverOptions) { o.port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.readTimeout, o.writeTimeout, o.shutdownTimeout = read, write, shutdown
	}
}

// WithSlowRequest sets the latency above which requests are logged at warn.
func WithSlowRequest(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.slowRequest = d }
}

func WithCORS(enabled bool) ServerOption {
	return func(o *serverOptions) { o.cors = enabled }
}

// WithRateLimit caps requests per client IP. The metrics and health routes
// are exempt.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(o *serverOptions) { o.rps, o.burst = rps, burst }
}

// WithMetrics serves reg at path; an empty path disables metrics. A nil reg
// falls back to the prometheus default registry.
func WithMetrics(path string, reg *prometheus.Registry) ServerOption {
	return func(o *serverOptions) { o.metricsPath, o.registry = path, reg }
}

func WithLogger(l *logger.Logger) ServerOption {
	return func(o *serverOptions) { o.log = l }
}

// Server owns the echo instance and its listener.
type Server struct {
	echo *echo.Echo
	opts serverOptions
	log  *logger.Logger

	mu   sync.Mutex
	addr net.Addr
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	o := serverOptions{
		host:            "0.0.0.0",
		port:            8080,
		readTimeout:     10 * time.Second,
		writeTimeout:    15 * time.Second,
		shutdownTimeout: 10 * time.Second,
		slowRequest:     time.Second,
		cors:            true,
		metricsPath:     "/metrics",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	log := o.log.With("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = o.readTimeout
	e.Server.WriteTimeout = o.writeTimeout
	e.Use(o.middlewares(log)...)

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if o.metricsPath != "" {
		var g prometheus.Gatherer = prometheus.DefaultGatherer
		if o.registry != nil {
			g = o.registry
		}
		e.GET(o.metricsPath, echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}

	return &Server{echo: e, opts: o, log: log}
}

// middlewares returns the chain in execution order: recovery outermost so
// it also covers the logger and limiter.
func (o serverOptions) middlewares(log *logger.Logger) []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{
		middleware.Recover(log),
		echomw.RequestID(),
		middleware.RequestLogging(log, o.slowRequest),
	}
	if o.metricsPath != "" {
		var reg prometheus.Registerer
		if o.registry != nil {
			reg = o.registry
		}
		chain = append(chain, middleware.NewHTTPMetrics(reg).Middleware())
	}
	if o.rps > 0 {
		limiter := middleware.NewRateLimiter(o.rps, o.burst)
		chain = append(chain, limiter.Middleware(func(c echo.Context) bool {
			return c.Path() == o.metricsPath || strings.HasSuffix(c.Path(), "/health")
		}))
	}
	if o.cors {
		chain = append(chain, echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	return chain
}

// Start binds the listener synchronously and serves in the background.
// Bind and serve errors arrive on the returned channel, which is closed
// once serving ends.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)

	ln, err := net.Listen("tcp", net.JoinHostPort(s.opts.host, strconv.Itoa(s.opts.port)))
	if err != nil {
		errCh <- fmt.Errorf("http listen: %w", err)
		close(errCh)
		return errCh
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.echo.Listener = ln

	go func() {
		defer close(errCh)
		s.log.Info("listening", logger.String("addr", ln.Addr().String()))
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	return errCh
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Stop drains in-flight requests. Without a ctx deadline the configured
// shutdown timeout applies.
func (s *Server) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.shutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("stopped")
	return nil
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
