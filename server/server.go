// Package server exposes the REST surface of the auth service.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/digigoat/digigoat-server/auth"
)

type Server struct {
	auth   *auth.Service
	log    zerolog.Logger
	engine *gin.Engine

	corsOrigins []string
}

type Option func(*Server)

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func New(authService *auth.Service, logger zerolog.Logger, options ...Option) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[New] nil auth service")
	}

	s := &Server{
		auth: authService,
		log:  logger,
	}
	for _, opt := range options {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger(), s.cors())
	s.registerRoutes()
	return s, nil
}

// Handler returns the root handler for mounting on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}
