package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidyasetu/vidyasetu/internal/domain"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth          *service.AuthService
	signupLimiter *service.RateLimiter
	cookieSecure  bool
}

// NewAuthHandler creates a new AuthHandler. The rate limiter bounds signup
// attempts per client address.
func NewAuthHandler(auth *service.AuthService, signupLimiter *service.RateLimiter, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, signupLimiter: signupLimiter, cookieSecure: cookieSecure}
}

// HandleSignup processes a JSON signup request.
// POST /api/auth/signup
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"message":"..."} or 400/409/429/500
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if !h.signupLimiter.Allow(clientAddr(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many signup attempts. Please try again later.")
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	_, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Email already registered.")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, userFacingMessage(err))
			return
		}
		slog.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred during signup. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Account created successfully. Please login.",
	})
}

// HandleLogin processes a JSON login request, establishing a session
// cookie and returning an API bearer token alongside the user.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		slog.Error("login user", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	session, err := h.auth.CreateSession(r.Context(), user)
	if err != nil {
		slog.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	apiToken, err := h.auth.IssueAPIToken(user)
	if err != nil {
		slog.Error("issue api token", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	http.SetCookie(w, sessionCookie(session.Token, h.cookieSecure, sessionCookieMaxAge))
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  toUserDTO(user),
		"token": apiToken,
	})
}

// HandleLogout ends the session server-side and expires the cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := readSessionToken(r); ok {
		if err := h.auth.EndSession(r.Context(), token); err != nil {
			slog.Error("end session", "error", err)
		}
	}

	http.SetCookie(w, sessionCookie("", h.cookieSecure, -1))
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// userFacingMessage strips the sentinel prefix from a validation error,
// leaving only the human-readable part.
func userFacingMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, domain.ErrInvalidInput.Error()+": "); ok {
		return rest
	}
	return msg
}

// clientAddr extracts the client address for rate limiting, honoring
// proxy headers before falling back to the connection address.
func clientAddr(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		// First hop is the originating client.
		if i := strings.IndexByte(v, ','); i >= 0 {
			return strings.TrimSpace(v[:i])
		}
		return strings.TrimSpace(v)
	}
	if v := r.Header.Get("X-Real-Ip"); v != "" {
		return v
	}
	return r.RemoteAddr
}
