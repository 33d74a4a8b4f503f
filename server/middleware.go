package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digigoat/digigoat-server/auth"
)

const principalKey = "principal"

// bearerToken extracts the token from the Authorization header. An empty
// string means no usable token was supplied.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// requireSession validates the bearer token against the live session and the
// account's current state, and attaches the principal to the request.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := s.auth.Authenticate(c.Request.Context(), bearerToken(c), c.ClientIP())
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// requireAdmin gates a route to group 0. Chain after requireSession.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := currentPrincipal(c); p == nil || !p.IsAdmin() {
			s.writeError(c, auth.ForbiddenErr)
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// cors allows the configured browser origins. Requests without an Origin
// header (curl, server-to-server) pass through untouched.
func (s *Server) cors() gin.HandlerFunc {
	allowed := make(map[string]bool, len(s.corsOrigins))
	for _, origin := range s.corsOrigins {
		allowed[origin] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
