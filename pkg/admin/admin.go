// Package admin exposes a Manager over HTTP for operators: the current environment, resolved
// properties per environment, explicit overrides and Prometheus metrics. Protected values are
// always masked.
package admin

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/animalet/cascade-go/pkg/properties"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	defaultCSP      = "default-src 'none'; frame-ancestors 'none'"
	shutdownTimeout = 30 * time.Second
)

// Config configures the admin server.
type Config struct {
	Address               string `yaml:"address"`
	Debug                 bool   `yaml:"debug"`
	ContentSecurityPolicy string `yaml:"content_security_policy,omitempty"`
}

// Validate checks that the admin server can listen.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New("address must be set and non-empty")
	}
	return nil
}

// Server serves the admin API.
type Server struct {
	config     Config
	manager    *properties.Manager
	gatherer   prometheus.Gatherer
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the routes. A nil gatherer serves the default Prometheus registry.
func NewServer(cfg Config, manager *properties.Manager, gatherer prometheus.Gatherer) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "admin configuration is invalid")
	}
	if manager == nil {
		return nil, errors.New("a property manager is required")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{config: cfg, manager: manager, gatherer: gatherer}
	engine, err := s.router()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routes, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) router() (*gin.Engine, error) {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, errors.Wrap(err, "failed to configure trusted proxies")
	}

	csp := s.config.ContentSecurityPolicy
	if csp == "" {
		csp = defaultCSP
	}
	engine.Use(
		requestLogger,
		gin.Recovery(),
		secure.New(secure.Config{
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			BrowserXssFilter:      true,
			ContentSecurityPolicy: csp,
			ReferrerPolicy:        "no-referrer",
			STSSeconds:            31536000,
			STSIncludeSubdomains:  true,
			IsDevelopment:         s.config.Debug,
		}),
	)

	engine.GET("/environment", s.environment)
	engine.GET("/properties", s.listProperties)
	engine.GET("/properties/:key", s.getProperty)
	engine.PUT("/overrides/:key", s.putOverride)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return engine, nil
}

// Start listens in the background.
func (s *Server) Start() {
	log.Info().Msgf("Starting admin server on %s", s.config.Address)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("Listen error: %s", err)
		}
	}()
}

// StartAndWaitForSignal serves until SIGINT or SIGTERM, then shuts down.
func (s *Server) StartAndWaitForSignal() error {
	s.Start()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	log.Info().Msgf("Shutdown signal received (%s)", <-signals)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown waits for active requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down admin server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "forced shutdown")
	}
	log.Info().Msg("Admin server exited gracefully")
	return nil
}

func requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	log.Info().
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", c.Writer.Status()).
		Dur("elapsed", time.Since(start)).
		Msg("Admin request")
}
