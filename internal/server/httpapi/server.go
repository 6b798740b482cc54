// Package httpapi exposes the authentication engine and media service over
// HTTP. Routing and validation are handled by gin; the request guard fronts
// every protected route.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpavlovs/artfeed/internal/logging"
	"github.com/dpavlovs/artfeed/internal/server/config"
	"github.com/dpavlovs/artfeed/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// Server routes HTTP traffic to the services.
type Server struct {
	engine         *gin.Engine
	httpServer     *http.Server
	auth           *services.AuthService
	media          *services.MediaService
	logger         logging.Logger
	maxUploadBytes int64
}

// NewServer builds the engine with its middleware stack and routes.
func NewServer(cfg *config.Config, auth *services.AuthService, media *services.MediaService, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:         engine,
		auth:           auth,
		media:          media,
		logger:         logger.With("component", "httpapi"),
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	engine.Use(gin.Recovery())
	engine.Use(s.requestLogger())
	engine.Use(s.corsMiddleware())
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.EndpointAddr,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	authn := s.engine.Group("/authentication")
	authn.POST("/sign-up", s.signUp)
	authn.POST("/sign-in", s.signIn)
	authn.POST("/sign-in-google", s.signInGoogle)

	guarded := authn.Group("", s.requireAuth())
	guarded.POST("/refresh-token", s.refreshToken)
	guarded.DELETE("/revoke-token", s.revokeToken)
	guarded.GET("/profile", s.profile)
	guarded.GET("", s.listUsers)
	guarded.DELETE("", s.deleteAccount)
	guarded.PATCH("/password", s.updatePassword)
	guarded.PATCH("/email", s.updateEmail)
	guarded.PATCH("/username", s.updateUsername)

	s.engine.POST("/posts", s.requireAuth(), s.createPost)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "shutting down http server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
