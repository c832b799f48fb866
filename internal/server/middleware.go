package server

import (
	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalContextKey = "auth.principal"

// AuthRequired resolves the session cookie into a Principal and aborts
// with 401 when there is no usable session.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.identitySvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		c.Set(principalContextKey, *principal)
		c.Next()
	}
}

// OptionalAuth resolves the session cookie when present but never aborts.
// Public routes use it so admin callers get their elevated view.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			c.Next()
			return
		}

		principal, err := s.identitySvc.Authenticate(c.Request.Context(), token)
		if err == nil {
			c.Set(principalContextKey, *principal)
		}
		c.Next()
	}
}

func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := currentPrincipal(c)
		if !principal.Authenticated() {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !principal.IsAdmin() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// CheckoutRateLimit throttles order creation per authenticated user. When
// the limiter is not configured or redis is down the request is let
// through; availability wins over throttling here.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.checkoutLimiter.Enabled() {
			c.Next()
			return
		}

		principal := currentPrincipal(c)
		allowed, err := s.checkoutLimiter.AllowUser(c.Request.Context(), principal.UserID.String())
		if err != nil {
			s.log.Warn("checkout rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) identitydomain.Principal {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return identitydomain.Principal{}
	}
	principal, ok := v.(identitydomain.Principal)
	if !ok {
		return identitydomain.Principal{}
	}
	return principal
}
