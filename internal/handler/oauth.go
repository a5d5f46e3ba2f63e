package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vidyasetu/vidyasetu/internal/domain"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

const (
	oauthStateCookieName    = "oauth_state"
	oauthRedirectCookieName = "oauth_redirect"
	oauthCookieMaxAge       = 10 * 60 // the flow should complete well within this

	defaultPostLoginPath = "/dashboard"
)

// OAuthHandler handles the Google sign-in flow.
type OAuthHandler struct {
	oauth        *service.OAuthService
	auth         *service.AuthService
	loginPath    string
	cookieSecure bool
}

// NewOAuthHandler creates a new OAuthHandler. Sign-in failures redirect to
// loginPath, matching the login page's role as the error entry point.
func NewOAuthHandler(oauth *service.OAuthService, auth *service.AuthService, loginPath string, cookieSecure bool) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, auth: auth, loginPath: loginPath, cookieSecure: cookieSecure}
}

// HandleSignIn starts the OAuth flow by redirecting to the provider's
// consent page with a fresh anti-forgery state.
// GET /auth/google?redirect=/dashboard/...
func (h *OAuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		slog.Error("generate oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	http.SetCookie(w, h.flowCookie(oauthStateCookieName, state, oauthCookieMaxAge))
	if target := safeRedirectPath(r.URL.Query().Get("redirect")); target != "" {
		http.SetCookie(w, h.flowCookie(oauthRedirectCookieName, target, oauthCookieMaxAge))
	}

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusSeeOther)
}

// HandleCallback completes the OAuth flow: it checks the state against the
// flow cookie, exchanges the code, applies the sign-in policy, establishes
// a session, and redirects to the dashboard (or the requested safe target).
// GET /auth/google/callback?state=...&code=...
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" ||
		subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(r.URL.Query().Get("state"))) != 1 {
		h.failSignIn(w, r, "oauth state mismatch", nil)
		return
	}
	http.SetCookie(w, h.flowCookie(oauthStateCookieName, "", -1))

	code := r.URL.Query().Get("code")
	if code == "" {
		h.failSignIn(w, r, "oauth callback missing code", nil)
		return
	}

	identity, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.failSignIn(w, r, "exchange oauth code", err)
		return
	}

	user, err := h.oauth.SignIn(r.Context(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.failSignIn(w, r, "oauth sign-in rejected", err)
			return
		}
		h.failSignIn(w, r, "oauth sign-in", err)
		return
	}

	session, err := h.auth.CreateSession(r.Context(), user)
	if err != nil {
		h.failSignIn(w, r, "create session after oauth", err)
		return
	}

	slog.Info("user signed in", "email", user.Email, "provider", identity.Provider)

	target := defaultPostLoginPath
	if c, err := r.Cookie(oauthRedirectCookieName); err == nil {
		if safe := safeRedirectPath(c.Value); safe != "" {
			target = safe
		}
		http.SetCookie(w, h.flowCookie(oauthRedirectCookieName, "", -1))
	}

	http.SetCookie(w, sessionCookie(session.Token, h.cookieSecure, sessionCookieMaxAge))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// failSignIn logs the detail server-side and bounces the browser back to
// the login page without exposing why.
func (h *OAuthHandler) failSignIn(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
	} else {
		slog.Warn(msg)
	}
	http.Redirect(w, r, h.loginPath+"?error=oauth", http.StatusSeeOther)
}

func (h *OAuthHandler) flowCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
