// Package httpapi exposes the workflow over a small JSON API. Field workers
// hit it from phones on the site network; the gate-check endpoint is left
// unauthenticated so a guard's scanner works without a login.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/materialgate/gatepass/internal/artifacts"
	"github.com/materialgate/gatepass/internal/auth"
	"github.com/materialgate/gatepass/internal/config"
	"github.com/materialgate/gatepass/internal/logging"
	"github.com/materialgate/gatepass/internal/workflow"
)

// Server wires the workflow service into HTTP routes.
type Server struct {
	cfg    *config.Config
	svc    *workflow.Service
	gen    *artifacts.Generator
	tokens *auth.Manager
	log    zerolog.Logger
	engine *gin.Engine
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg *config.Config, svc *workflow.Service, gen *artifacts.Generator, tokens *auth.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		gen:    gen,
		tokens: tokens,
		log:    logging.Component("httpapi"),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Router returns the underlying handler, for tests.
func (s *Server) Router() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api/v1")

	// No auth: login, the guard's gate check and the posted server QR.
	api.POST("/login", s.handleLogin)
	api.GET("/gate/:id", s.handleGateCheck)
	api.GET("/server-qr", s.handleServerQR)

	authed := api.Group("", s.requireSession())
	authed.POST("/requests", s.handleSubmit)
	authed.GET("/requests", s.handleList)
	authed.GET("/requests/:id", s.handleGet)
	authed.GET("/requests/:id/audit", s.handleAudit)
	authed.POST("/requests/:id/approve", s.handleApprove)
	authed.POST("/requests/:id/reject", s.handleReject)
	authed.POST("/requests/:id/execute", s.handleExecute)
	authed.GET("/requests/:id/share-text", s.handleShareText)
	authed.GET("/artifacts/:id/:kind", s.handleArtifact)
	authed.GET("/stats", s.handleStats)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
