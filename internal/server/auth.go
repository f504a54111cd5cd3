package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/modelhub/internal/auth"
	"github.com/agenthands/modelhub/internal/core/model"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *model.User `json:"user"`
}

// issue signs a new pair and stores the refresh token digest, replacing
// any earlier one.
func (s *Server) issue(c *gin.Context, u *model.User) {
	pair, err := s.Issuer.Issue(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.Store.SetRefreshTokenHash(c.Request.Context(), u.ID, auth.HashToken(pair.RefreshToken)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         u,
	})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	u, err := s.Store.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !u.IsActive || !auth.CheckPassword(u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	s.issue(c, u)
}

func (s *Server) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}

	claims, err := s.Issuer.ParseRefresh(req.RefreshToken)
	if err != nil {
		s.fail(c, err)
		return
	}
	u, err := s.Store.FindUserByID(c.Request.Context(), claims.Subject)
	if err != nil || !u.IsActive || u.RefreshTokenHash == "" || u.RefreshTokenHash != auth.HashToken(req.RefreshToken) {
		s.fail(c, auth.ErrInvalidToken)
		return
	}
	s.issue(c, u)
}

func (s *Server) Logout(c *gin.Context) {
	if err := s.Store.SetRefreshTokenHash(c.Request.Context(), GetAdminID(c), ""); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
