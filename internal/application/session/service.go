package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-signup-api/internal/domain"
	"github.com/go-signup-api/internal/pkg/id"
	"github.com/go-signup-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult carries the session token fields merged into promoted-account
// and login responses.
type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	LoginUser(ctx context.Context, email, password string) (*LoginResult, error)
	LoginCompany(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type companyStore interface {
	Get(ctx context.Context, companyID string) (*domain.Company, error)
	GetByEmail(ctx context.Context, email string) (*domain.Company, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, tok string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type jwtSigner interface {
	Sign(accountID string, kind domain.Kind, sessionID string) (string, error)
}

type service struct {
	sessions        sessionStore
	users           userStore
	companies       companyStore
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
}

func NewService(sessions sessionStore, users userStore, companies companyStore, jwtProvider jwtSigner, refreshTokenDur time.Duration) Service {
	return &service{
		sessions:        sessions,
		users:           users,
		companies:       companies,
		jwtProvider:     jwtProvider,
		refreshTokenDur: refreshTokenDur,
	}
}

func (s *service) LoginUser(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	res, err := s.openSession(ctx, u.UserID, domain.KindUser)
	if err != nil {
		return nil, err
	}
	res.Session.User = u
	return res, nil
}

func (s *service) LoginCompany(ctx context.Context, email, password string) (*LoginResult, error) {
	c, err := s.companies.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !c.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	res, err := s.openSession(ctx, c.CompanyID, domain.KindCompany)
	if err != nil {
		return nil, err
	}
	res.Session.Company = c
	return res, nil
}

func (s *service) openSession(ctx context.Context, accountID string, kind domain.Kind) (*LoginResult, error) {
	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		AccountID:        accountID,
		Kind:             kind,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(accountID, kind, sess.SessionID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	if sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := token.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().UTC().Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(sess.AccountID, sess.Kind, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	switch sess.Kind {
	case domain.KindCompany:
		c, err := s.companies.Get(ctx, sess.AccountID)
		if err != nil {
			return nil, err
		}
		sess.Company = c
	default:
		u, err := s.users.Get(ctx, sess.AccountID)
		if err != nil {
			return nil, err
		}
		sess.User = u
	}
	return sess, nil
}
