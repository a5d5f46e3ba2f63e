package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidyasetu/vidyasetu/internal/domain"
)

const (
	// SessionLifetime is the absolute maximum age of a session.
	SessionLifetime = 30 * 24 * time.Hour
	// SessionSlideInterval is how much activity must accumulate before a
	// session's expiry is slid forward again.
	SessionSlideInterval = 24 * time.Hour

	apiTokenLifetime = 24 * time.Hour
)

// AuthService handles registration, credential login, session issuance and
// verification, and API bearer tokens.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	secret     []byte
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, secret string, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		secret:     []byte(secret),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a new user account after sanitizing and validating the
// inputs. The email is lower-cased before the duplicate check and insert;
// the store's unique constraint is the final arbiter under concurrent
// signups for the same address.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", domain.ErrInvalidInput)
	}

	name = Sanitize(name)
	email = strings.ToLower(Sanitize(email))

	if len(name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters long", domain.ErrInvalidInput)
	}
	if !IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if missing := PasswordStrengthFeedback(password); len(missing) > 0 {
		return nil, fmt.Errorf("%w: password does not meet requirements: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}

	// Early duplicate check for a friendly error before hashing; the
	// unique index still guards against the race.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  name,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies the email and password and returns the user. Unknown
// email, wrong password, and password-less OAuth accounts all return a bare
// ErrUnauthorized so callers cannot distinguish them.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	return user, nil
}

// CreateSession mints a new session for the user with an opaque bearer
// token.
func (s *AuthService) CreateSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(SessionLifetime),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// ValidateSession looks up the session by its bearer token and returns the
// owning user. It fails closed with ErrUnauthorized for unknown or expired
// tokens; expired sessions are deleted on sight. A valid session that has
// seen more than the sliding interval of inactivity since its last refresh
// has its expiry slid forward.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	now := s.now()
	if session.Expired(now) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, domain.ErrUnauthorized
	}

	if now.Sub(session.UpdatedAt) >= SessionSlideInterval {
		if err := s.sessions.Touch(ctx, session.ID, now, now.Add(SessionLifetime)); err != nil {
			return nil, fmt.Errorf("touch session: %w", err)
		}
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get session user: %w", err)
	}
	return user, nil
}

// EndSession invalidates the session server-side. Ending an unknown or
// already-ended session is not an error.
func (s *AuthService) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SweepExpiredSessions deletes all sessions past their expiry.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// IssueAPIToken signs a short-lived JWT for cookie-less API clients.
func (s *AuthService) IssueAPIToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(apiTokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAPIToken parses and verifies a JWT bearer token and returns the
// owning user.
func (s *AuthService) ValidateAPIToken(ctx context.Context, tokenString string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get token user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
