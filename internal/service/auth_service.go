package service

import (
	"context"
	"crypto/subtle"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AuthService authenticates the operator account guarding the ops endpoints.
type AuthService struct {
	tokenMgr     *auth.TokenManager
	username     string
	passwordHash string
}

// NewAuthService builds the service. Without a JWT secret it returns a
// service whose Enabled reports false.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	s := &AuthService{username: cfg.OperatorUsername, passwordHash: cfg.OperatorPasswordHash}
	if cfg.JWTSecret != "" {
		s.tokenMgr = auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	}
	return s
}

// Enabled reports whether protected routes require a token.
func (s *AuthService) Enabled() bool {
	return s.tokenMgr != nil
}

// LoginOperator checks credentials and issues an operator token.
func (s *AuthService) LoginOperator(_ context.Context, username, password string) (*domain.Token, error) {
	if s.tokenMgr == nil || s.passwordHash == "" {
		return nil, errorutil.NewUnauthorized("operator login is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) != 1 {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(s.passwordHash, password); err != nil {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokenMgr.GenerateToken(s.username, domain.SubjectTypeOperator)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return token, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
// It is nil when auth is disabled.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
