package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	UpdatePassword(ctx context.Context, uid, passwordHash string) error
	TouchLastLogin(ctx context.Context, uid string) error
}

type adminLoginStore interface {
	TouchLastLogin(ctx context.Context, uid string) error
}

type sessionStore interface {
	RevokeSession(ctx context.Context, jti string, ttl time.Duration) error
	InvalidatePrincipal(ctx context.Context, uid string) error
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// Service handles credential checks and session lifecycle.
type Service struct {
	users      accountStore
	admins     adminLoginStore
	sessions   sessionStore
	resolver   *Resolver
	tokens     *TokenIssuer
	mailer     resetMailer
	resetBase  string
	bcryptCost int
}

func NewService(users accountStore, admins adminLoginStore, sessions sessionStore, resolver *Resolver, tokens *TokenIssuer, mailer resetMailer, resetBase string, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		admins:     admins,
		sessions:   sessions,
		resolver:   resolver,
		tokens:     tokens,
		mailer:     mailer,
		resetBase:  resetBase,
		bcryptCost: bcryptCost,
	}
}

// Login verifies credentials and returns a bearer token together with
// the caller's resolved privileges.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.Active {
		return nil, apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	principal, err := s.resolver.Resolve(ctx, user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if principal == nil {
		return nil, apperrors.ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.UID); err != nil {
		slog.Warn("Failed to stamp last login", "uid", user.UID, "error", err)
	}
	if principal.Role.Admin() {
		if err := s.admins.TouchLastLogin(ctx, user.UID); err != nil {
			slog.Warn("Failed to stamp admin last login", "uid", user.UID, "error", err)
		}
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		Principal: *principal,
	}, nil
}

// Logout revokes the current session token.
func (s *Service) Logout(ctx context.Context, uid, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if err := s.sessions.RevokeSession(ctx, jti, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if err := s.sessions.InvalidatePrincipal(ctx, uid); err != nil {
		slog.Warn("Failed to invalidate cached principal on logout", "uid", uid, "error", err)
	}
	return nil
}

// ChangePassword re-authenticates with the current password before
// accepting a new one.
func (s *Service) ChangePassword(ctx context.Context, uid string, req models.ChangePasswordRequest) error {
	if len(req.NewPassword) < MinPasswordLength {
		return apperrors.Invalid("password must be at least %d characters", MinPasswordLength)
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.Invalid("passwords do not match")
	}
	if req.NewPassword == req.CurrentPassword {
		return apperrors.Invalid("new password must differ from the current one")
	}

	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperrors.Invalid("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, uid, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// RequestPasswordReset dispatches a reset mail when the address is
// known. The response is identical either way so the endpoint cannot
// be used to probe which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		slog.Error("Password reset lookup failed", "error", err)
		return nil
	}
	if user == nil || !user.Active {
		return nil
	}

	link := s.resetBase + "/reset-password?uid=" + user.UID
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		slog.Error("Failed to send password reset mail", "uid", user.UID, "error", err)
	}
	return nil
}
