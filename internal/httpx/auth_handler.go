package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type AuthService interface {
	Authenticator
	Register(ctx context.Context, name, email, password string) (auth.User, auth.IssuedToken, error)
	Login(ctx context.Context, email, password string) (auth.User, auth.IssuedToken, error)
	Logout(ctx context.Context, id auth.Identity) error
	Me(ctx context.Context, id auth.Identity) (auth.User, error)
	ListUsers(ctx context.Context) ([]auth.User, error)
}

type AuthHandler struct {
	Auth AuthService
	Log  logrus.FieldLogger
}

type registrationRequest struct {
	Name                 string `json:"name" validate:"required,min=3,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=6,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (h *AuthHandler) registration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	u, tok, err := h.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusCreated, "User created", tokenResponse{Name: u.Name, Email: u.Email, Token: tok.Plain}, nil)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	u, tok, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respond(w, http.StatusUnauthorized, "Invalid credentials", nil, nil)
			return
		}
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Login success", tokenResponse{Name: u.Name, Email: u.Email, Token: tok.Plain},
		meta{"expires_at": tok.ExpiresAt})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), identity(r)); err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Logout success", nil, nil)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context(), identity(r))
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Authenticated user", u, nil)
}

func (h *AuthHandler) users(w http.ResponseWriter, r *http.Request) {
	us, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "User list", us, meta{"total_users": len(us)})
}
