package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/grocerpos/terminal/internal/pkg/logging"
)

// Backend is the slice of the REST client the credential holder needs.
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Credentials is where the bearer token lives for the session.
type Credentials interface {
	Set(token string) error
	Clear() error
	Token() string
}

// Service drives login and logout against the one process-wide credential.
// Without a credential the terminal is in its unauthenticated mode; that is
// not an error, just a different set of available commands.
type Service struct {
	backend Backend
	creds   Credentials
}

func NewService(backend Backend, creds Credentials) *Service {
	return &Service{backend: backend, creds: creds}
}

// Login exchanges credentials for a token. A persistence failure does not
// abort the login; the session just won't survive a restart.
func (s *Service) Login(ctx context.Context, username, password string) error {
	token, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := s.creds.Set(token); err != nil {
		logging.FromContext(ctx).Warn("token_persist_failed", zap.Error(err))
	}
	return nil
}

// Logout drops the credential in memory and on disk.
func (s *Service) Logout(ctx context.Context) {
	if err := s.creds.Clear(); err != nil {
		logging.FromContext(ctx).Warn("token_clear_failed", zap.Error(err))
	}
}

func (s *Service) Authenticated() bool {
	return s.creds.Token() != ""
}
