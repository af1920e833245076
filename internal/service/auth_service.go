package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
	"github.com/noah-isme/spt-web/internal/session"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
)

type authGateway interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, reg models.Registration) error
}

type snapshotDropper interface {
	Clear(sessionID string)
}

// AuthService implements the session controller: login, register,
// logout, and the session-active check that gates view routing.
type AuthService struct {
	gateway   authGateway
	tokens    session.TokenStore
	roster    snapshotDropper
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(gateway authGateway, tokens session.TokenStore, roster snapshotDropper, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{gateway: gateway, tokens: tokens, roster: roster, validator: validate, logger: logger}
}

// Login authenticates upstream and persists the returned token under
// the browser's session ID. On failure any existing session is left
// untouched.
func (s *AuthService) Login(ctx context.Context, sessionID string, creds models.Credentials) error {
	if err := s.validator.Struct(creds); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	token, err := s.gateway.Login(ctx, creds)
	if err != nil || token == "" {
		s.logger.Info("login rejected", zap.Error(err))
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	if err := s.tokens.Set(ctx, sessionID, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	return nil
}

// Register creates an account upstream. The caller is not
// authenticated automatically; the auth view switches to login mode.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) error {
	if err := s.validator.Struct(reg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, username and password are required")
	}

	if err := s.gateway.Register(ctx, reg); err != nil {
		s.logger.Info("registration rejected", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "registration failed")
	}
	return nil
}

// Logout removes the stored token and drops the session's roster
// snapshot so no stale data survives into another user's session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.tokens.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete session token", zap.String("session", sessionID), zap.Error(err))
	}
	s.roster.Clear(sessionID)
	return nil
}

// Active reports whether the session currently holds a token. No
// verification round-trip is made; an expired token surfaces later as
// a load failure.
func (s *AuthService) Active(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	_, err := s.tokens.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			s.logger.Warn("session lookup failed", zap.String("session", sessionID), zap.Error(err))
		}
		return false
	}
	return true
}
