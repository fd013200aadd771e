package service

import (
	"context"
	"errors"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthDisabled       = errors.New("authentication is not configured")
	ErrSessionRevoked     = errors.New("session is no longer active")
)

// SessionStore: секция Session в Store.
type SessionStore interface {
	StartSession(sess domain.SessionState)
	TouchSession()
	ClearSession()
	Session() (domain.SessionState, bool)
}

// AuthService выпускает токены оператору консоли и ведет SessionState.
type AuthService struct {
	cfg      infra.AuthConfig
	signer   *auth.Signer // nil: auth выключен
	sessions SessionStore
	logger   *zap.Logger
}

func NewAuthService(cfg infra.AuthConfig, signer *auth.Signer, sessions SessionStore, logger *zap.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		signer:   signer,
		sessions: sessions,
		logger:   logger.Named("auth-service"),
	}
}

func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	if s.signer == nil || !infra.IsSet(s.cfg.OperatorPasswordHash) {
		return nil, ErrAuthDisabled
	}

	// 1. Аутентификация: единственный оператор из конфига
	if username != s.cfg.OperatorUsername {
		return nil, ErrInvalidCredentials
	}

	// 2. Проверка пароля (используем bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorPasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. Новая сессия и токен с ее ID
	sessionID := uuid.New().String()
	scopes := map[string]bool{"admin": true}
	token, expiresAt, err := s.signer.Issue(username, sessionID, scopes)
	if err != nil {
		return nil, err
	}

	user := username
	s.sessions.StartSession(domain.SessionState{
		ID:          sessionID,
		UserID:      &user,
		Permissions: []string{"admin"},
	})
	s.logger.Info("operator logged in", zap.String("user", username), zap.String("session_id", sessionID))

	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// Logout очищает сессию. Чужую сессию (из старого токена) не трогает.
func (s *AuthService) Logout(ctx context.Context) {
	current, ok := s.sessions.Session()
	if !ok {
		return
	}
	if claims, has := auth.ClaimsFrom(ctx); has && claims.SessionID != current.ID {
		s.logger.Warn("logout with stale session ignored", zap.String("session_id", claims.SessionID))
		return
	}
	s.sessions.ClearSession()
	s.logger.Info("operator logged out", zap.String("session_id", current.ID))
}

// Authorize пускает токен, только пока его сессия остается текущей: logout
// и новый login отзывают старые токены. Активность пишется в Store не чаще
// раза в SessionTouchInterval. Без claims (auth выключен) пропускает.
func (s *AuthService) Authorize(ctx context.Context) error {
	claims, ok := auth.ClaimsFrom(ctx)
	if !ok {
		return nil
	}
	current, has := s.sessions.Session()
	if !has || current.ID != claims.SessionID {
		return ErrSessionRevoked
	}
	if time.Since(current.LastActivity) >= s.cfg.SessionTouchInterval {
		s.sessions.TouchSession()
	}
	return nil
}
