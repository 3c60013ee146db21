package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const resetTokenBytes = 32

type TokenSettings struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

// Notifier sends the transactional emails of the shop.
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error
}

type AuthService struct {
	Repo    *repo.GormRepo
	Tokens  TokenSettings
	Mailer  Notifier
	Events  EventPublisher
	BaseURL string
}

type LoginResult struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	user, err := newUser(req)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID)
	publish(ctx, s.Events, TopicUserEvents, user.ID.String(), UserEvent{
		Type:       "user_registered",
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	})
	return user, nil
}

// newUser validates the registration data and builds a user with a hashed
// password. Self-registration never grants the admin flag.
func newUser(req transport.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if n := utf8.RuneCountInString(name); n < 3 || n > 32 {
		return nil, fmt.Errorf("name must be 3 to 32 characters: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if !isDigits(phone, 10) {
		return nil, fmt.Errorf("phone must be 10 digits: %w", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: pwHash,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password required: %w", ErrValidation)
	}
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	if err := s.Repo.PruneSessions(ctx, user.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	res, session, err := s.issue(user, uuid.New())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return res, nil
}

// issue signs a token pair for a new session id and returns the session
// row that must be stored for it.
func (s *AuthService) issue(user *models.User, sessionID uuid.UUID) (*LoginResult, *models.SessionToken, error) {
	now := time.Now().UTC()
	accessExp := now.Add(s.Tokens.AccessTTL)
	refreshExp := now.Add(s.Tokens.RefreshTTL)

	refreshToken, err := tokens.NewRefreshToken(s.Tokens.RefreshSecret, user.ID.String(), sessionID.String(), refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}
	accessToken, err := tokens.NewAccessToken(s.Tokens.AccessSecret, user.ID.String(), sessionID.String(), user.IsAdmin, accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}

	session := &models.SessionToken{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: pkg_hash.Sha256Hex(refreshToken),
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}
	return &LoginResult{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.IsAdmin,
	}, session, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Tokens.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}
	oldID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
		}
		return nil, err
	}

	res, session, err := s.issue(user, uuid.New())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateSession(ctx, oldID, pkg_hash.Sha256Hex(refreshToken), session); err != nil {
		if errors.Is(err, repo.ErrSessionInvalid) {
			l.Warn("refresh_failed", "status", 401, "reason", "session expired or revoked", "session_id", oldID)
			return nil, fmt.Errorf("refresh token expired or revoked: %w", ErrUnauthorized)
		}
		return nil, err
	}
	return res, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.Repo.RevokeSession(ctx, sessionID)
}

// SessionActive reports whether the session behind an access token can
// still be used.
func (s *AuthService) SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	session, err := s.Repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.Active(time.Now()), nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	user, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return err
	}

	token, err := pkg_hash.RandomToken(resetTokenBytes)
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(s.Tokens.ResetTTL)
	if err := s.Repo.SetResetToken(ctx, user.ID, pkg_hash.Sha256Hex(token), expires); err != nil {
		return err
	}

	link := s.BaseURL + "/api/v1/auth/resetPassword/" + token
	if s.Mailer != nil {
		if err := s.Mailer.SendPasswordReset(ctx, user.Email, user.Name, link); err != nil {
			l.Error("reset_mail_failed", "user_id", user.ID, "error", err)
			return fmt.Errorf("send reset mail: %v: %w", err, ErrUnavailable)
		}
	}

	l.Info("reset_token_issued", "user_id", user.ID)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return fmt.Errorf("reset token required: %w", ErrValidation)
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters: %w", ErrValidation)
	}

	user, err := s.Repo.GetUserByResetToken(ctx, pkg_hash.Sha256Hex(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invalid reset token: %w", ErrNotFound)
		}
		return err
	}
	if user.ResetExpires == nil || time.Now().After(*user.ResetExpires) {
		return fmt.Errorf("reset token expired: %w", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.ResetPassword(ctx, user.ID, pwHash); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("password_reset", "svc", "auth.reset_password", "user_id", user.ID)
	return nil
}

func (s *AuthService) GrantAdmin(ctx context.Context, email string, isAdmin bool) error {
	if err := s.Repo.SetAdmin(ctx, normalizeEmail(email), isAdmin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return err
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
