package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-signup-api/internal/application/account"
	"github.com/go-signup-api/internal/application/session"
	"github.com/go-signup-api/internal/application/signup"
	"github.com/go-signup-api/internal/config"
	"github.com/go-signup-api/internal/transport/http/handler"
	appmiddleware "github.com/go-signup-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds the application router and returns it along with the
// signup service, whose sweeper the caller must run.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, signup.Service) {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	accountSvc := account.NewService(deps.UserRepo, deps.CompanyRepo)
	sessionSvc := session.NewService(deps.SessionRepo, deps.UserRepo, deps.CompanyRepo, deps.JWTProvider, cfg.RefreshTokenDur)
	signupSvc := signup.NewService(accountSvc, sessionSvc, cfg.OTPTTL)

	healthH := handler.NewHealthHandler()
	signupH := handler.NewSignupHandler(signupSvc, deps.Mailer, deps.SMSSender)
	sessionH := handler.NewSessionHandler(sessionSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)

		r.With(sensitiveRL.Limit).Post("/signup/users", signupH.RegisterUser)
		r.With(sensitiveRL.Limit).Post("/signup/users/confirm", signupH.ConfirmUser)
		r.With(sensitiveRL.Limit).Post("/signup/companies", signupH.RegisterCompany)
		r.With(sensitiveRL.Limit).Post("/signup/companies/confirm", signupH.ConfirmCompany)

		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
		})
	})

	return r, signupSvc
}
