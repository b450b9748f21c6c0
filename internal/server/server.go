// Package server exposes the coaching operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spigell/career-coach/internal/auth"
	"github.com/spigell/career-coach/internal/coach"
	"github.com/spigell/career-coach/internal/entitlements"
	"go.uber.org/zap"
)

const (
	defaultAddr            = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 90 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodyBytes    = 10 << 20
)

// Config holds the HTTP server settings.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	MaxBodyBytes    int64         `mapstructure:"max-body-bytes"`
	// RoadmapFallback serves the fallback roadmap with 200 instead of
	// answering 500 when generation fails.
	RoadmapFallback bool `mapstructure:"roadmap-fallback"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}

// ResumeAnalyzer scores uploaded resumes.
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, upload coach.ResumeUpload) (coach.Outcome[coach.AnalysisResult], error)
}

// RoadmapGenerator builds roadmaps for roles.
type RoadmapGenerator interface {
	Generate(ctx context.Context, role string) (coach.Outcome[coach.Roadmap], error)
}

// TokenVerifier authenticates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Deps are the collaborators of the API routes. A nil Verifier disables
// authentication and a nil Entitlements disables the subscription gate.
type Deps struct {
	Analyzer     ResumeAnalyzer
	Roadmaps     RoadmapGenerator
	Verifier     TokenVerifier
	Entitlements entitlements.Store
	Logger       *zap.Logger
}

// NewRouter constructs the gin engine with middleware and routes registered.
func NewRouter(cfg Config, deps Deps) *gin.Engine {
	cfg = cfg.withDefaults()
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(
		RequestID(),
		Logging(log),
		Recovery(log),
		CORS(cfg.CORSOrigins),
		BodyLimit(cfg.MaxBodyBytes),
	)

	r.GET("/healthz", health)

	h := &handlers{
		analyzer:        deps.Analyzer,
		roadmaps:        deps.Roadmaps,
		roadmapFallback: cfg.RoadmapFallback,
		logger:          log,
	}

	api := r.Group("/api")
	api.Use(Authenticate(deps.Verifier, log), RequireEntitlement(deps.Entitlements, log))
	api.POST("/analyze-resume", h.analyzeResume)
	api.POST("/roadmap", h.roadmap)

	return r
}

// Server runs the API router over HTTP.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

func New(cfg Config, deps Deps) *Server {
	cfg = cfg.withDefaults()
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg, deps),
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          log,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	s.logger.Info("http server started", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}
