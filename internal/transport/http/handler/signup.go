package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-signup-api/internal/application/signup"
	"github.com/go-signup-api/internal/domain"
	"github.com/go-signup-api/internal/infrastructure/smtp"
	"github.com/go-signup-api/internal/infrastructure/sns"
	"github.com/go-signup-api/internal/pkg/validate"
)

// SignupHandler handles OTP issuance and confirmation for user and company
// self-registration. It delivers the passcode out-of-band (email, and SMS
// when a phone number is present) and returns only the opaque key.
type SignupHandler struct {
	svc       signup.Service
	mailer    smtp.Mailer
	smsSender sns.SMSSender
}

func NewSignupHandler(svc signup.Service, mailer smtp.Mailer, smsSender sns.SMSSender) *SignupHandler {
	return &SignupHandler{svc: svc, mailer: mailer, smsSender: smsSender}
}

type confirmRequest struct {
	Key string `json:"key" validate:"required"`
	OTP string `json:"otp" validate:"required,len=6"`
}

func (h *SignupHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issued, err := h.svc.IssueUser(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err := h.deliver(r, issued.OTP, req.Email, req.Phone); err != nil {
		writeError(w, http.StatusInternalServerError, "could not deliver passcode")
		return
	}
	writeJSON(w, http.StatusAccepted, SignupEnvelope{Key: issued.Key, Message: "passcode sent"})
}

func (h *SignupHandler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issued, err := h.svc.IssueCompany(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err := h.deliver(r, issued.OTP, req.Email, req.Phone); err != nil {
		writeError(w, http.StatusInternalServerError, "could not deliver passcode")
		return
	}
	writeJSON(w, http.StatusAccepted, SignupEnvelope{Key: issued.Key, Message: "passcode sent"})
}

func (h *SignupHandler) ConfirmUser(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, h.svc.ConfirmUser)
}

func (h *SignupHandler) ConfirmCompany(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, h.svc.ConfirmCompany)
}

func (h *SignupHandler) confirm(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, key, otp string) (*signup.ConfirmResult, error)) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := fn(r.Context(), req.Key, req.OTP)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Bearer:       res.Bearer,
		RefreshToken: res.RefreshToken,
		Session:      res.Session,
	})
}

// deliver sends the passcode to the registrant: always by email, additionally
// by SMS when a phone number was supplied and an SMS sender is configured.
// SMS failure is non-fatal since the email already carries the code.
func (h *SignupHandler) deliver(r *http.Request, otp, email string, phone *string) error {
	if err := h.mailer.SendEmail(email, "Your confirmation code", "Your confirmation code: "+otp); err != nil {
		slog.Error("failed to send confirmation email", "email", email, "err", err)
		return err
	}
	if phone != nil && h.smsSender != nil {
		if err := h.smsSender.SendSMS(r.Context(), *phone, "Your confirmation code: "+otp); err != nil {
			slog.Warn("failed to send confirmation SMS", "phone", *phone, "err", err)
		}
	}
	return nil
}

// statusFor maps signup-flow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPromotionFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
