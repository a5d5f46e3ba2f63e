package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidyasetu/vidyasetu/internal/domain"
	"github.com/vidyasetu/vidyasetu/internal/repository/sqlite"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

const testSessionSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), db.Sessions(), testSessionSecret, 4)
	return auth, db
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "a@b.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.Email != "a@b.com" {
		t.Fatalf("expected email a@b.com, got %s", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "Abcdef1!" {
		t.Fatal("expected password to be stored hashed")
	}
}

func TestAuthService_Register_LowercasesEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "Jo.Smith@Example.COM", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "jo.smith@example.com" {
		t.Fatalf("expected lower-cased email, got %s", user.Email)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "User One", "dup@example.com", "Abcdef1!"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := auth.Register(ctx, "User Two", "dup@example.com", "Ghijkl2$")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmailDifferentCase(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "User One", "dup@example.com", "Abcdef1!"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := auth.Register(ctx, "User Two", "DUP@EXAMPLE.COM", "Ghijkl2$")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for re-cased email, got %v", err)
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@b.com", "Abcdef1!"},
		{"empty email", "Jo", "", "Abcdef1!"},
		{"empty password", "Jo", "a@b.com", ""},
		{"name too short after sanitizing", "<>", "a@b.com", "Abcdef1!"},
		{"single character name", "J", "a@b.com", "Abcdef1!"},
		{"bad email", "Jo", "not-an-email", "Abcdef1!"},
		{"weak password", "Jo", "a@b.com", "abcdefgh"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.userName, tc.email, tc.password)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Register_WeakPasswordEnumeratesRequirements(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "Jo", "a@b.com", "abcdefgh")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, want := range []string{"One uppercase letter", "One number", "One special character"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %q, got %q", want, err.Error())
		}
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "Jo", "login@example.com", "Abcdef1!"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := auth.Login(ctx, "login@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "login@example.com" {
		t.Fatalf("expected login@example.com, got %s", user.Email)
	}
}

func TestAuthService_Login_MixedCaseEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "Jo", "case@example.com", "Abcdef1!"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := auth.Login(ctx, "Case@Example.Com", "Abcdef1!"); err != nil {
		t.Fatalf("Login with re-cased email: %v", err)
	}
}

func TestAuthService_Login_GenericErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "Jo", "known@example.com", "Abcdef1!"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errUnknown := auth.Login(ctx, "nobody@example.com", "Abcdef1!")
	_, errWrongPw := auth.Login(ctx, "known@example.com", "WrongPw1!")

	// Both cases must be indistinguishable to the caller.
	if !errors.Is(errUnknown, domain.ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", errUnknown)
	}
	if !errors.Is(errWrongPw, domain.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Fatalf("error messages differ: %q vs %q", errUnknown.Error(), errWrongPw.Error())
	}
}

func TestAuthService_Login_PasswordlessAccountRejected(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	// An account created through OAuth has no local password.
	user := &domain.User{Email: "oauth@example.com", DisplayName: "OAuth User"}
	if err := db.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := auth.Login(ctx, "oauth@example.com", "")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Session_CreateAndValidate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "sess@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	session, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected non-empty session token")
	}

	got, err := auth.ValidateSession(ctx, session.Token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}
}

func TestAuthService_Session_UnknownToken(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.ValidateSession(context.Background(), "no-such-token")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Session_EmptyToken(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.ValidateSession(context.Background(), "")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Session_ExpiredTokenFailsClosedAndIsDeleted(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "exp@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	session, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// Force the session past its expiry.
	past := time.Now().UTC().Add(-time.Hour)
	if _, err := db.SqlDB.ExecContext(ctx, "UPDATE sessions SET expires_at = ? WHERE token = ?", past, session.Token); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	_, err = auth.ValidateSession(ctx, session.Token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired session, got %v", err)
	}

	if _, err := db.Sessions().GetByToken(ctx, session.Token); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired session to be deleted, got %v", err)
	}
}

func TestAuthService_Session_SlidingRenewal(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "slide@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	session, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// Backdate the last refresh past the sliding interval while keeping
	// the session unexpired.
	stale := time.Now().UTC().Add(-25 * time.Hour)
	staleExpiry := time.Now().UTC().Add(5 * 24 * time.Hour)
	if _, err := db.SqlDB.ExecContext(ctx,
		"UPDATE sessions SET updated_at = ?, expires_at = ? WHERE token = ?",
		stale, staleExpiry, session.Token,
	); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	if _, err := auth.ValidateSession(ctx, session.Token); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}

	refreshed, err := db.Sessions().GetByToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if !refreshed.ExpiresAt.After(staleExpiry) {
		t.Fatalf("expected expiry to be slid forward past %v, got %v", staleExpiry, refreshed.ExpiresAt)
	}
	if time.Since(refreshed.UpdatedAt) > time.Minute {
		t.Fatalf("expected updated_at to be refreshed, got %v", refreshed.UpdatedAt)
	}
}

func TestAuthService_Session_RecentActivityDoesNotSlide(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "noslide@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	session, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := auth.ValidateSession(ctx, session.Token); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}

	same, err := db.Sessions().GetByToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if !withinASecond(same.ExpiresAt, session.ExpiresAt) {
		t.Fatalf("expected expiry unchanged, got %v want %v", same.ExpiresAt, session.ExpiresAt)
	}
}

func TestAuthService_EndSession(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "end@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	session, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := auth.EndSession(ctx, session.Token); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	if _, err := auth.ValidateSession(ctx, session.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}

	// Ending it again is a no-op.
	if err := auth.EndSession(ctx, session.Token); err != nil {
		t.Fatalf("EndSession twice: %v", err)
	}
}

func TestAuthService_SweepExpiredSessions(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "sweep@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	live, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	dead, err := auth.CreateSession(ctx, user)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := db.SqlDB.ExecContext(ctx, "UPDATE sessions SET expires_at = ? WHERE token = ?", past, dead.Token); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	deleted, err := auth.SweepExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredSessions: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted session, got %d", deleted)
	}

	if _, err := auth.ValidateSession(ctx, live.Token); err != nil {
		t.Fatalf("live session should survive the sweep: %v", err)
	}
}

func TestAuthService_APIToken_IssueAndValidate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "jwt@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := auth.IssueAPIToken(user)
	if err != nil {
		t.Fatalf("IssueAPIToken: %v", err)
	}

	got, err := auth.ValidateAPIToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateAPIToken: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}
}

func TestAuthService_APIToken_InvalidAndTampered(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "Jo", "tamper@example.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth.IssueAPIToken(user)
	if err != nil {
		t.Fatalf("IssueAPIToken: %v", err)
	}

	if _, err := auth.ValidateAPIToken(ctx, "not-a-valid-jwt"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := auth.ValidateAPIToken(ctx, tampered); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

func withinASecond(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Second
}
