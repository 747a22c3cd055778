package signup

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/go-signup-api/internal/application/session"
	"github.com/go-signup-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccounts) CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error) {
	args := m.Called(ctx, req)
	if c, _ := args.Get(0).(*domain.Company); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) LoginUser(ctx context.Context, email, password string) (*session.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*session.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuth) LoginCompany(ctx context.Context, email, password string) (*session.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*session.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

var (
	otpShape = regexp.MustCompile(`^\d{6}$`)
	keyShape = regexp.MustCompile(`^[0-9A-F]{4}$`)
)

func newTestService(accounts *mockAccounts, auth *mockAuth) *service {
	return NewService(accounts, auth, 3*time.Minute).(*service)
}

func userReq(email string) domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func companyReq(email string) domain.CreateCompanyRequest {
	return domain.CreateCompanyRequest{
		Name:     "Acme Inc",
		Email:    email,
		Password: "password123",
	}
}

func loginResult(kind domain.Kind) *session.LoginResult {
	return &session.LoginResult{
		Bearer:       "bearer-token",
		RefreshToken: "refresh-token",
		Session:      &domain.Session{SessionID: "s1", Kind: kind, Enable: true},
	}
}

// --- issue ---

func TestIssueUser_ReturnsShapedOTPAndKey(t *testing.T) {
	svc := newTestService(nil, nil)

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))

	require.NoError(t, err)
	assert.Regexp(t, otpShape, issued.OTP)
	assert.Regexp(t, keyShape, issued.Key)
}

func TestIssueUser_DuplicateEmail_ReturnsDuplicateRequest(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	_, err = svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateRequest))
}

func TestIssueCompany_DuplicateEmail_ReturnsDuplicateRequest(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.IssueCompany(context.Background(), companyReq("co@x.com"))
	require.NoError(t, err)

	_, err = svc.IssueCompany(context.Background(), companyReq("co@x.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateRequest))
}

func TestIssue_SameEmailDifferentKinds_Allowed(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.IssueUser(context.Background(), userReq("shared@x.com"))
	require.NoError(t, err)

	_, err = svc.IssueCompany(context.Background(), companyReq("shared@x.com"))
	assert.NoError(t, err)
}

func TestIssueUser_KeysAreUniquePerKind(t *testing.T) {
	svc := newTestService(nil, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		issued, err := svc.IssueUser(context.Background(), userReq(fmt.Sprintf("u%d@x.com", i)))
		require.NoError(t, err)
		assert.False(t, seen[issued.Key], "key %s issued twice", issued.Key)
		seen[issued.Key] = true
	}
}

// --- confirm ---

func TestConfirmUser_HappyPath(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	req := userReq("a@x.com")
	issued, err := svc.IssueUser(context.Background(), req)
	require.NoError(t, err)

	user := &domain.User{UserID: "u1", Email: "a@x.com", Verified: true}
	accounts.On("CreateUser", mock.Anything, req).Return(user, nil)
	auth.On("LoginUser", mock.Anything, "a@x.com", "password123").Return(loginResult(domain.KindUser), nil)

	res, err := svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", res.Bearer)
	assert.Equal(t, "refresh-token", res.RefreshToken)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Same(t, user, res.Session.User)
	accounts.AssertExpectations(t)
	auth.AssertExpectations(t)
}

func TestConfirmUser_SecondConfirm_ReturnsNotFound(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	auth.On("LoginUser", mock.Anything, mock.Anything, mock.Anything).Return(loginResult(domain.KindUser), nil)

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	require.NoError(t, err)

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConfirmUser_UnknownKey_ReturnsNotFound(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.ConfirmUser(context.Background(), "ZZZZ", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConfirmUser_WrongOTP_EntryStaysRetryable(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	wrong := "000000"
	if issued.OTP == wrong {
		wrong = "000001"
	}
	_, err = svc.ConfirmUser(context.Background(), issued.Key, wrong)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOTP))

	// A correct retry against the same key still succeeds.
	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	auth.On("LoginUser", mock.Anything, mock.Anything, mock.Anything).Return(loginResult(domain.KindUser), nil)

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	assert.NoError(t, err)
}

func TestConfirmUser_CreateFails_ReturnsPromotionFailedAndConsumesEntry(t *testing.T) {
	accounts := &mockAccounts{}
	svc := newTestService(accounts, nil)

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPromotionFailed))

	// The pending entry was consumed before promotion; it is not restored.
	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConfirmUser_LoginFails_ReturnsPromotionFailed(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	auth.On("LoginUser", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrUnauthorized)

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPromotionFailed))
}

func TestConfirmCompany_HappyPath(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	req := companyReq("co@x.com")
	issued, err := svc.IssueCompany(context.Background(), req)
	require.NoError(t, err)

	co := &domain.Company{CompanyID: "c1", Email: "co@x.com", Verified: true}
	accounts.On("CreateCompany", mock.Anything, req).Return(co, nil)
	auth.On("LoginCompany", mock.Anything, "co@x.com", "password123").Return(loginResult(domain.KindCompany), nil)

	res, err := svc.ConfirmCompany(context.Background(), issued.Key, issued.OTP)

	require.NoError(t, err)
	assert.Equal(t, "co@x.com", res.Company.Email)
	assert.Same(t, co, res.Session.Company)
}

// --- sweep ---

func TestSweep_ExpiresUnconfirmedEntries(t *testing.T) {
	svc := newTestService(nil, nil)

	start := time.Now()
	svc.now = func() time.Time { return start }

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	svc.Sweep(start.Add(181 * time.Second))

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Email no longer counts as pending, so a re-issue goes through.
	_, err = svc.IssueUser(context.Background(), userReq("a@x.com"))
	assert.NoError(t, err)
}

func TestSweep_LeavesEntriesWithinTTL(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	start := time.Now()
	svc.now = func() time.Time { return start }

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	svc.Sweep(start.Add(179 * time.Second))

	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	auth.On("LoginUser", mock.Anything, mock.Anything, mock.Anything).Return(loginResult(domain.KindUser), nil)

	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	assert.NoError(t, err)
}

func TestSweep_ExpiresInIssuanceOrder(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	start := time.Now()
	svc.now = func() time.Time { return start }
	older, err := svc.IssueUser(context.Background(), userReq("old@x.com"))
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(2 * time.Minute) }
	younger, err := svc.IssueUser(context.Background(), userReq("young@x.com"))
	require.NoError(t, err)

	// Head (older) is past TTL, younger is not: the sweep must stop at the
	// first unexpired head.
	svc.Sweep(start.Add(3*time.Minute + time.Second))

	_, err = svc.ConfirmUser(context.Background(), older.Key, older.OTP)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u2"}, nil)
	auth.On("LoginUser", mock.Anything, mock.Anything, mock.Anything).Return(loginResult(domain.KindUser), nil)
	_, err = svc.ConfirmUser(context.Background(), younger.Key, younger.OTP)
	assert.NoError(t, err)
}

func TestSweep_AfterConfirm_SkipsConsumedEntry(t *testing.T) {
	accounts := &mockAccounts{}
	auth := &mockAuth{}
	svc := newTestService(accounts, auth)

	start := time.Now()
	svc.now = func() time.Time { return start }

	issued, err := svc.IssueUser(context.Background(), userReq("a@x.com"))
	require.NoError(t, err)

	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	auth.On("LoginUser", mock.Anything, mock.Anything, mock.Anything).Return(loginResult(domain.KindUser), nil)
	_, err = svc.ConfirmUser(context.Background(), issued.Key, issued.OTP)
	require.NoError(t, err)

	// The queue still holds a stale reference; sweeping past TTL must drain
	// it without complaint.
	svc.Sweep(start.Add(4 * time.Minute))
	assert.Empty(t, svc.queue)
}

func TestSweep_EmptyQueue_NoOp(t *testing.T) {
	svc := newTestService(nil, nil)
	svc.Sweep(time.Now().Add(time.Hour))
	assert.Empty(t, svc.queue)
}
