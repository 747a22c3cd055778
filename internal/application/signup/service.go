package signup

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/go-signup-api/internal/application/session"
	"github.com/go-signup-api/internal/domain"
)

// keyBytes sizes the opaque confirmation key: 2 random bytes rendered as 4
// uppercase hex characters.
const keyBytes = 2

// IssuedOTP is what the issuer hands back: the plaintext passcode (to be
// delivered to the registrant out-of-band) and the opaque key the registrant
// presents when confirming.
type IssuedOTP struct {
	OTP string
	Key string
}

// ConfirmResult is the promoted account merged with its first session token.
type ConfirmResult struct {
	User         *domain.User
	Company      *domain.Company
	Session      *domain.Session
	Bearer       string
	RefreshToken string
}

type Service interface {
	IssueUser(ctx context.Context, req domain.CreateUserRequest) (*IssuedOTP, error)
	IssueCompany(ctx context.Context, req domain.CreateCompanyRequest) (*IssuedOTP, error)
	ConfirmUser(ctx context.Context, key, otp string) (*ConfirmResult, error)
	ConfirmCompany(ctx context.Context, key, otp string) (*ConfirmResult, error)
	Sweep(now time.Time)
	RunSweeper(ctx context.Context, interval time.Duration)
}

type accountStore interface {
	CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error)
}

type sessionIssuer interface {
	LoginUser(ctx context.Context, email, password string) (*session.LoginResult, error)
	LoginCompany(ctx context.Context, email, password string) (*session.LoginResult, error)
}

// service owns the pending store and the expiry queue. A single mutex
// serializes all access to both; it is released before the promotion calls so
// slow account-store or login traffic never blocks unrelated issue/confirm/
// sweep operations.
type service struct {
	mu      sync.Mutex
	pending *pendingStore
	queue   []queueItem

	ttl      time.Duration
	accounts accountStore
	auth     sessionIssuer
	now      func() time.Time
}

func NewService(accounts accountStore, auth sessionIssuer, ttl time.Duration) Service {
	return &service{
		pending:  newPendingStore(),
		ttl:      ttl,
		accounts: accounts,
		auth:     auth,
		now:      time.Now,
	}
}

func (s *service) IssueUser(ctx context.Context, req domain.CreateUserRequest) (*IssuedOTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check-then-insert under the lock so two concurrent requests for the
	// same email cannot both pass.
	if s.pending.userEmailPending(req.Email) {
		return nil, fmt.Errorf("a passcode was already sent to %s: %w", req.Email, domain.ErrDuplicateRequest)
	}

	otp, err := newOTP()
	if err != nil {
		return nil, err
	}
	key, err := s.newKey(domain.KindUser)
	if err != nil {
		return nil, err
	}

	s.pending.putUser(key, userEntry{otp: otp, registrant: req})
	s.enqueue(key, domain.KindUser)
	return &IssuedOTP{OTP: otp, Key: key}, nil
}

func (s *service) IssueCompany(ctx context.Context, req domain.CreateCompanyRequest) (*IssuedOTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.companyEmailPending(req.Email) {
		return nil, fmt.Errorf("a passcode was already sent to %s: %w", req.Email, domain.ErrDuplicateRequest)
	}

	otp, err := newOTP()
	if err != nil {
		return nil, err
	}
	key, err := s.newKey(domain.KindCompany)
	if err != nil {
		return nil, err
	}

	s.pending.putCompany(key, companyEntry{otp: otp, registrant: req})
	s.enqueue(key, domain.KindCompany)
	return &IssuedOTP{OTP: otp, Key: key}, nil
}

func (s *service) ConfirmUser(ctx context.Context, key, otp string) (*ConfirmResult, error) {
	s.mu.Lock()
	entry, ok := s.pending.getUser(key)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("no pending registration for key %q: %w", key, domain.ErrNotFound)
	}
	if entry.otp != otp {
		// Entry stays pending: the registrant may retry until it expires.
		s.mu.Unlock()
		return nil, fmt.Errorf("passcode does not match: %w", domain.ErrInvalidOTP)
	}
	// Remove before promoting so a concurrent confirm racing on the same key
	// observes not-found instead of double-promoting.
	s.pending.remove(domain.KindUser, key)
	s.mu.Unlock()

	u, err := s.accounts.CreateUser(ctx, entry.registrant)
	if err != nil {
		return nil, fmt.Errorf("create user account: %v: %w", err, domain.ErrPromotionFailed)
	}
	login, err := s.auth.LoginUser(ctx, entry.registrant.Email, entry.registrant.Password)
	if err != nil {
		return nil, fmt.Errorf("login after promotion: %v: %w", err, domain.ErrPromotionFailed)
	}
	login.Session.User = u
	return &ConfirmResult{
		User:         u,
		Session:      login.Session,
		Bearer:       login.Bearer,
		RefreshToken: login.RefreshToken,
	}, nil
}

func (s *service) ConfirmCompany(ctx context.Context, key, otp string) (*ConfirmResult, error) {
	s.mu.Lock()
	entry, ok := s.pending.getCompany(key)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("no pending registration for key %q: %w", key, domain.ErrNotFound)
	}
	if entry.otp != otp {
		s.mu.Unlock()
		return nil, fmt.Errorf("passcode does not match: %w", domain.ErrInvalidOTP)
	}
	s.pending.remove(domain.KindCompany, key)
	s.mu.Unlock()

	c, err := s.accounts.CreateCompany(ctx, entry.registrant)
	if err != nil {
		return nil, fmt.Errorf("create company account: %v: %w", err, domain.ErrPromotionFailed)
	}
	login, err := s.auth.LoginCompany(ctx, entry.registrant.Email, entry.registrant.Password)
	if err != nil {
		return nil, fmt.Errorf("login after promotion: %v: %w", err, domain.ErrPromotionFailed)
	}
	login.Session.Company = c
	return &ConfirmResult{
		Company:      c,
		Session:      login.Session,
		Bearer:       login.Bearer,
		RefreshToken: login.RefreshToken,
	}, nil
}

// enqueue appends an expiry reference. Callers hold s.mu; append order is
// issuance order, so the queue stays sorted by age.
func (s *service) enqueue(key string, kind domain.Kind) {
	s.queue = append(s.queue, queueItem{key: key, kind: kind, issuedAt: s.now()})
}

// newKey generates a short random confirmation key, regenerating until it is
// unique within the kind's pending store. Caller holds s.mu.
func (s *service) newKey(kind domain.Kind) (string, error) {
	for {
		b := make([]byte, keyBytes)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generate confirmation key: %w", err)
		}
		key := strings.ToUpper(hex.EncodeToString(b))
		if !s.pending.keyExists(kind, key) {
			return key, nil
		}
	}
}

// newOTP draws a value uniformly from [0, 10^6) and renders it as a
// zero-padded 6-digit string.
func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
