package http

import (
	"github.com/go-signup-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-signup-api/internal/infrastructure/jwt"
	"github.com/go-signup-api/internal/infrastructure/smtp"
	"github.com/go-signup-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	CompanyRepo *dynamo.CompanyRepo
	SessionRepo *dynamo.SessionRepo
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}
