package handler

import (
	"net/http"

	"github.com/vidyasetu/vidyasetu/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. The oauth
// handler may be nil when no provider is configured; its routes are then
// not registered.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, authH *AuthHandler, oauthH *OAuthHandler, dashboardH *DashboardHandler) {
	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/auth/signup", authH.HandleSignup)
	mux.HandleFunc("POST /api/auth/login", authH.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authH.HandleLogout)
	mux.Handle("GET /api/auth/me", RequireUser(auth, http.HandlerFunc(authH.HandleMe)))

	mux.Handle("GET /api/dashboard", RequireUser(auth, http.HandlerFunc(dashboardH.HandleDashboard)))

	if oauthH != nil {
		mux.HandleFunc("GET /auth/google", oauthH.HandleSignIn)
		mux.HandleFunc("GET /auth/google/callback", oauthH.HandleCallback)
	}
}
