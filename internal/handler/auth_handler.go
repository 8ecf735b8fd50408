package handler

import (
	"context"
	"errors"
	"net/http"

	"studentintake/internal/flash"
	"studentintake/internal/middleware"
	"studentintake/internal/model"
	"studentintake/internal/service"
)

type Authenticator interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

type SessionManager interface {
	middleware.SessionLookup
	Create(ctx context.Context, userID uint) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth       Authenticator
	sessions   SessionManager
	cookieName string
}

func NewAuthHandler(auth Authenticator, sessions SessionManager, cookieName string) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookieName: cookieName}
}

func (h *AuthHandler) SignupForm(r *http.Request) Outcome {
	return Page("signup")
}

// Signup creates the account and sends the user on to log in.
func (h *AuthHandler) Signup(r *http.Request) Outcome {
	ctx := r.Context()
	email := r.PostFormValue("email")

	user, err := h.auth.Register(ctx, email, r.PostFormValue("password"))
	var validationErr *service.ValidationError
	switch {
	case err == nil:
		middleware.Logger(ctx).WithField("user_id", user.ID).Info("account created")
		return RedirectTo("/login", flash.New(flash.Success, "Account created successfully! Please log in."))
	case errors.Is(err, service.ErrDuplicateEmail):
		return RedirectTo("/signup", flash.New(flash.Danger, "Email already exists. Please log in or choose a different email."))
	case errors.As(err, &validationErr):
		return RedirectTo("/signup", flash.New(flash.Warning, capitalize(validationErr.Error())+"."))
	default:
		middleware.Logger(ctx).WithError(err).Error("signup failed")
		return RedirectTo("/signup", flash.New(flash.Danger, "Error: "+err.Error()))
	}
}

func (h *AuthHandler) LoginForm(r *http.Request) Outcome {
	return Page("login")
}

func (h *AuthHandler) Login(r *http.Request) Outcome {
	ctx := r.Context()
	user, err := h.auth.Authenticate(ctx, r.PostFormValue("email"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, service.ErrBadPassword):
		return RedirectTo("/login", flash.New(flash.Warning, "Invalid password. Please try again."))
	case errors.Is(err, service.ErrUnknownEmail):
		return RedirectTo("/login", flash.New(flash.Warning, "No account found with that email. Please sign up first."))
	case err != nil:
		middleware.Logger(ctx).WithError(err).Error("login failed")
		return RedirectTo("/login", flash.New(flash.Danger, "Error: "+err.Error()))
	}

	session, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		middleware.Logger(ctx).WithError(err).Error("could not create session")
		return RedirectTo("/login", flash.New(flash.Danger, "Error: "+err.Error()))
	}

	o := RedirectTo("/", flash.New(flash.Success, "Logged in successfully!"))
	o.Cookies = []*http.Cookie{{
		Name:     h.cookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}}
	return o
}

func (h *AuthHandler) Logout(r *http.Request) Outcome {
	ctx := r.Context()
	if token := middleware.SessionToken(ctx); token != "" {
		if err := h.sessions.Delete(ctx, token); err != nil {
			middleware.Logger(ctx).WithError(err).Warn("could not delete session")
		}
	}

	o := RedirectTo("/", flash.New(flash.Info, "You have been logged out."))
	o.Cookies = []*http.Cookie{{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}}
	return o
}
