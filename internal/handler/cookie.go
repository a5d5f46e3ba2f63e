package handler

import "net/http"

// Session cookie names. The secure-transport variant carries the
// __Secure- prefix, which browsers only accept over HTTPS with the
// Secure attribute set.
const (
	sessionCookieName       = "session_token"
	secureSessionCookieName = "__Secure-session_token"
)

const sessionCookieMaxAge = 30 * 24 * 60 * 60 // matches the session lifetime

// sessionCookie builds the session cookie for the configured transport.
// A negative maxAge expires the cookie.
func sessionCookie(token string, secure bool, maxAge int) *http.Cookie {
	name := sessionCookieName
	if secure {
		name = secureSessionCookieName
	}
	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// readSessionToken returns the bearer value from whichever recognized
// session cookie is present on the request.
func readSessionToken(r *http.Request) (string, bool) {
	for _, name := range []string{secureSessionCookieName, sessionCookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
