package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/auth"
	"github.com/gossip-stories/gossip/internal/service"
)

const (
	stateCookie = "oauth_state"

	// LoginPath is where unauthenticated page visitors are sent.
	LoginPath = "/auth/github/login"
)

// IdentityProvider is the OAuth boundary. *auth.GitHubProvider implements it.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthHandler runs the sign-in flow and manages the session cookie.
//
//   - HandleLogin    → redirect the browser to the identity provider
//   - HandleCallback → verify state, exchange the code, set the session cookie
//   - HandleLogout   → clear the session cookie
//   - HandleMe       → return the signed-in user
type AuthHandler struct {
	provider     IdentityProvider
	tokens       *auth.TokenService
	guard        *service.Guard
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(
	provider IdentityProvider,
	tokens *auth.TokenService,
	guard *service.Guard,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider:     provider,
		tokens:       tokens,
		guard:        guard,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// HandleLogin redirects to the provider's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state is stored in a short-lived cookie and echoed back by the
// provider; HandleCallback rejects a mismatch, which stops CSRF logins.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the sign-in.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
//  1. Validate the state parameter
//  2. Exchange the code for the provider identity
//  3. Resolve the identity to a user, creating or linking it
//  4. Store the identity in the session cookie and go to the dashboard
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	user, err := h.guard.ResolvePrincipal(r.Context(), identity)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Generate(*identity)
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user signed in", slog.String("user_id", user.ID))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogout deletes the session cookie. The token itself stays valid
// until it expires, but the browser no longer sends it.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.guard)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
