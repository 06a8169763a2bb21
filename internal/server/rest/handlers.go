package rest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/logging"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/kodbank/kodbank/internal/server/services"
	"github.com/shopspring/decimal"
)

// Response messages shown to the web client.
const (
	MsgMissingFields      = "All fields are required"
	MsgInvalidBody        = "Invalid request body"
	MsgUserExists         = "User already exists"
	MsgRegistered         = "Registration successful"
	MsgLoggedIn           = "Login successful"
	MsgInvalidCredentials = "Invalid username or password"
	MsgUnauthorized       = "Unauthorized"
	MsgSessionExpired     = "Session expired, please login again"
	MsgUserNotFound       = "User not found"
	MsgServerError        = "Server error"
	MsgLoggedOut          = "Logged out successfully"
)

// AuthServiceProvider is the part of services.AuthService the handlers use.
type AuthServiceProvider interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetBalance(ctx context.Context, token string) (decimal.Decimal, error)
	Logout(ctx context.Context, token string) int64
}

// RegisterPayload is the body of POST /api/register.
type RegisterPayload struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginPayload is the body of POST /api/login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// BalanceResponse is returned by GET /api/getBalance.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// AuthHandler serves the customer-facing auth API.
type AuthHandler struct {
	service      AuthServiceProvider
	logger       logging.Logger
	cookieSecure bool
	now          func() time.Time
}

func NewAuthHandler(service AuthServiceProvider, logger logging.Logger, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		logger:       logger.With("component", "rest"),
		cookieSecure: cookieSecure,
		now:          time.Now,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	_, err := h.service.Register(r.Context(), services.RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Phone:    payload.Phone,
	})
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, MsgRegistered)
	case errors.Is(err, common.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, MsgMissingFields)
	case errors.Is(err, common.ErrDuplicateIdentity):
		writeMessage(w, http.StatusConflict, MsgUserExists)
	default:
		h.logger.Error(r.Context(), "register failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, MsgServerError)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	res, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, MsgMissingFields)
		return
	case errors.Is(err, common.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	default:
		h.logger.Error(r.Context(), "login failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, MsgServerError)
		return
	}

	maxAge := int(math.Ceil(res.ExpiresAt.Sub(h.now()).Seconds()))
	if maxAge <= 0 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{Message: MsgLoggedIn, Username: res.Username, Token: res.Token})
}

func (h *AuthHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	token := TokenFromRequest(r)
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, MsgUnauthorized)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, BalanceResponse{Balance: balance.StringFixed(2)})
	case errors.Is(err, common.ErrSessionExpired):
		writeMessage(w, http.StatusUnauthorized, MsgSessionExpired)
	case errors.Is(err, common.ErrNotFound):
		writeMessage(w, http.StatusNotFound, MsgUserNotFound)
	default:
		h.logger.Error(r.Context(), "balance failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, MsgServerError)
	}
}

// Logout always succeeds and always clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), TokenFromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeMessage(w, http.StatusOK, MsgLoggedOut)
}
