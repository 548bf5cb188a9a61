// Package authapi exposes sign-in, verify and sign-out endpoints backed by
// the session manager.
package authapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chopchop-server-go/internal/domain/session"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
	httptransport "chopchop-server-go/internal/transport/http"
)

// Service is the HTTP transport for session management.
type Service struct {
	sessions *session.Manager
	logger   *logging.Logger
}

func NewService(sessions *session.Manager, logger *logging.Logger) (*Service, error) {
	if sessions == nil {
		return nil, errors.New(errors.KindConfig, "authapi.new", "session manager is required")
	}
	return &Service{sessions: sessions, logger: logger}, nil
}

// Register mounts the auth routes. Signin stays on the open group; verify and
// signout need a token anyway so they take it from the request directly.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/auth/signin", s.handleSignin)
	router.POST("/auth/verify", s.handleVerify)
	router.POST("/auth/signout", s.handleSignout)

	s.logger.InfoTag("HTTP", "auth routes registered")
	return nil
}

type signinRequest struct {
	Email string `json:"email" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (s *Service) handleSignin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "email is required", nil)
		return
	}

	sess, err := s.sessions.Create(c.Request.Context(), req.Email)
	if err != nil {
		if errors.IsKind(err, errors.KindSession) {
			httptransport.RespondError(c, http.StatusBadRequest, "invalid email address", nil)
			return
		}
		s.logger.ErrorTag("AUTH", "signin failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "signin failed", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"token": sess.Token,
		"email": sess.Email,
	}, "signed in")
}

func (s *Service) handleVerify(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "token is required", nil)
		return
	}

	email, ok, err := s.sessions.Validate(c.Request.Context(), req.Token)
	if err != nil {
		s.logger.ErrorTag("AUTH", "verify failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "verify failed", nil)
		return
	}
	if !ok {
		httptransport.RespondError(c, http.StatusUnauthorized, "invalid or expired session", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"email": email}, "")
}

func (s *Service) handleSignout(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "token is required", nil)
		return
	}

	if err := s.sessions.Invalidate(c.Request.Context(), req.Token); err != nil {
		s.logger.ErrorTag("AUTH", "signout failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "signout failed", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, nil, "signed out")
}
