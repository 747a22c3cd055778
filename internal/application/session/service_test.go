package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-signup-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, tok string) (*domain.Session, error) {
	args := m.Called(ctx, tok)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCompanyStore struct{ mock.Mock }

func (m *mockCompanyStore) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	if c, _ := args.Get(0).(*domain.Company); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompanyStore) GetByEmail(ctx context.Context, email string) (*domain.Company, error) {
	args := m.Called(ctx, email)
	if c, _ := args.Get(0).(*domain.Company); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(accountID string, kind domain.Kind, sessionID string) (string, error) {
	args := m.Called(accountID, kind, sessionID)
	return args.String(0), args.Error(1)
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLoginUser_HappyPath(t *testing.T) {
	sessions := &mockSessionStore{}
	users := &mockUserStore{}
	signer := &mockSigner{}
	svc := NewService(sessions, users, nil, signer, 24*time.Hour)

	u := &domain.User{UserID: "u1", Email: "a@x.com", PasswordHash: hash(t, "password123"), Enable: true}
	users.On("GetByEmail", mock.Anything, "a@x.com").Return(u, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", "u1", domain.KindUser, mock.Anything).Return("bearer-token", nil)

	res, err := svc.LoginUser(context.Background(), "a@x.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.Session.AccountID)
	assert.Equal(t, domain.KindUser, res.Session.Kind)
	assert.Same(t, u, res.Session.User)
	sessions.AssertExpectations(t)
}

func TestLoginUser_WrongPassword_ReturnsUnauthorized(t *testing.T) {
	users := &mockUserStore{}
	svc := NewService(nil, users, nil, nil, 24*time.Hour)

	u := &domain.User{UserID: "u1", PasswordHash: hash(t, "password123"), Enable: true}
	users.On("GetByEmail", mock.Anything, "a@x.com").Return(u, nil)

	_, err := svc.LoginUser(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginUser_UnknownEmail_ReturnsUnauthorized(t *testing.T) {
	users := &mockUserStore{}
	svc := NewService(nil, users, nil, nil, 24*time.Hour)

	users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, domain.ErrNotFound)

	_, err := svc.LoginUser(context.Background(), "nobody@x.com", "password123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginUser_DisabledAccount_ReturnsUnauthorized(t *testing.T) {
	users := &mockUserStore{}
	svc := NewService(nil, users, nil, nil, 24*time.Hour)

	u := &domain.User{UserID: "u1", PasswordHash: hash(t, "password123"), Enable: false}
	users.On("GetByEmail", mock.Anything, "a@x.com").Return(u, nil)

	_, err := svc.LoginUser(context.Background(), "a@x.com", "password123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginCompany_HappyPath(t *testing.T) {
	sessions := &mockSessionStore{}
	companies := &mockCompanyStore{}
	signer := &mockSigner{}
	svc := NewService(sessions, nil, companies, signer, 24*time.Hour)

	c := &domain.Company{CompanyID: "c1", Email: "co@x.com", PasswordHash: hash(t, "password123"), Enable: true}
	companies.On("GetByEmail", mock.Anything, "co@x.com").Return(c, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", "c1", domain.KindCompany, mock.Anything).Return("bearer-token", nil)

	res, err := svc.LoginCompany(context.Background(), "co@x.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, domain.KindCompany, res.Session.Kind)
	assert.Same(t, c, res.Session.Company)
}

func TestRefresh_RotatesToken(t *testing.T) {
	sessions := &mockSessionStore{}
	signer := &mockSigner{}
	svc := NewService(sessions, nil, nil, signer, 24*time.Hour)

	sess := &domain.Session{
		SessionID:        "s1",
		AccountID:        "u1",
		Kind:             domain.KindUser,
		Enable:           true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)
	sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", "u1", domain.KindUser, "s1").Return("new-bearer", nil)

	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
	sessions.AssertExpectations(t)
}

func TestRefresh_ExpiredToken_ReturnsUnauthorized(t *testing.T) {
	sessions := &mockSessionStore{}
	svc := NewService(sessions, nil, nil, nil, 24*time.Hour)

	sess := &domain.Session{
		SessionID:        "s1",
		Enable:           true,
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}
	sessions.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)

	_, _, err := svc.Refresh(context.Background(), "old-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogout_DisablesSession(t *testing.T) {
	sessions := &mockSessionStore{}
	svc := NewService(sessions, nil, nil, nil, 24*time.Hour)

	sessions.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "s1"))
	sessions.AssertExpectations(t)
}

func TestGetCurrent_LoadsAccountByKind(t *testing.T) {
	sessions := &mockSessionStore{}
	users := &mockUserStore{}
	companies := &mockCompanyStore{}
	svc := NewService(sessions, users, companies, nil, 24*time.Hour)

	sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", AccountID: "u1", Kind: domain.KindUser, Enable: true}, nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	sessions.On("Get", mock.Anything, "s2").Return(&domain.Session{SessionID: "s2", AccountID: "c1", Kind: domain.KindCompany, Enable: true}, nil)
	companies.On("Get", mock.Anything, "c1").Return(&domain.Company{CompanyID: "c1"}, nil)

	got, err := svc.GetCurrent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.User.UserID)
	assert.Nil(t, got.Company)

	got, err = svc.GetCurrent(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Company.CompanyID)
	assert.Nil(t, got.User)
}

func TestGetCurrent_DisabledSession_ReturnsUnauthorized(t *testing.T) {
	sessions := &mockSessionStore{}
	svc := NewService(sessions, nil, nil, nil, 24*time.Hour)

	sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", Enable: false}, nil)

	_, err := svc.GetCurrent(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
