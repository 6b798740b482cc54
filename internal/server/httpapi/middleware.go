package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpavlovs/artfeed/internal/common"
)

// Keys under which the request guard stores the authenticated identity in
// the gin context.
const (
	ctxUserIDKey     = "userID"
	ctxAccessJTIKey  = "accessJTI"
	ctxRefreshJTIKey = "refreshJTI"
)

// requireAuth is the request guard. It extracts the bearer access token,
// authenticates it through the engine (signature, expiry, type, revocation
// ledger), and attaches the subject and both token ids to the gin context.
// Every failure is a uniform 401: callers cannot distinguish expired from
// revoked from tampered.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeader)
		if header == "" || !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		claims, err := s.auth.VerifyAccessToken(c.Request.Context(), strings.TrimPrefix(header, common.BearerPrefix))
		if err != nil {
			s.logUnauthorized(c, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Set(ctxAccessJTIKey, claims.ID)
		c.Set(ctxRefreshJTIKey, claims.RefreshID)
		c.Next()
	}
}

// corsMiddleware allows the local development frontends and exposes the two
// token-bearing headers so browser clients can read them.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:5173": true,
		"http://127.0.0.1:3000": true,
		"http://127.0.0.1:5173": true,
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", common.AuthorizationHeader+", "+common.RefreshTokenHeader+", Content-Type")
			h.Set("Access-Control-Expose-Headers", common.AuthorizationHeader+", "+common.RefreshTokenHeader)
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func (s *Server) logUnauthorized(c *gin.Context, err error) {
	s.logger.Warn(c.Request.Context(), "rejected bearer token",
		"path", c.Request.URL.Path, "reason", err.Error())
}
