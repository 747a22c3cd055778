package account

import (
	"context"
	"fmt"
	"time"

	"github.com/go-signup-api/internal/domain"
	"github.com/go-signup-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type companyStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Company, error)
	Put(ctx context.Context, c *domain.Company) error
}

type service struct {
	users     userStore
	companies companyStore
}

func NewService(users userStore, companies companyStore) Service {
	return &service{users: users, companies: companies}
}

// CreateUser persists a confirmed registration as a durable account. Accounts
// created here are marked verified: they only arrive after OTP confirmation.
func (s *service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Verified:     true,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error) {
	if _, err := s.companies.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Company{
		CompanyID:    id.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Website:      req.Website,
		PasswordHash: string(hash),
		Verified:     true,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.companies.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
