package server

import (
	"net/http"

	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	"github.com/gin-gonic/gin"
)

type principalResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func toPrincipalResponse(p identitydomain.Principal) principalResponse {
	return principalResponse{
		UserID: p.UserID.String(),
		Email:  p.Email,
		Name:   p.Name,
		Role:   p.Role,
	}
}

func (s *Server) SignUp(c *gin.Context) {
	var req identitydomain.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.identitySvc.SignUp(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	// New accounts go straight into a session.
	result, err := s.identitySvc.Login(c.Request.Context(), identitydomain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusCreated, gin.H{"user": toPrincipalResponse(result.Principal)})
}

func (s *Server) Login(c *gin.Context) {
	var req identitydomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.identitySvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": toPrincipalResponse(result.Principal)})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.identitySvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": toPrincipalResponse(currentPrincipal(c))})
}
