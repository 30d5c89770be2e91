package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-core/internal/auth"
	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/pkg/util"
)

// AuthService coordinates login, session validation and password resets.
// Identity verification (OTP or equivalent) is a black-box precondition
// already satisfied before these calls.
type AuthService struct {
	accounts         repository.AccountRepository
	resets           repository.PasswordResetRepository
	subscriptions    *SubscriptionService
	tokenMgr         *auth.TokenManager
	bcryptCost       int
	resetTTL         time.Duration
	operatorEmail    string
	operatorPassword string
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo       repository.AccountRepository
	PasswordResetRepo repository.PasswordResetRepository
	Subscription      *SubscriptionService
}

// SessionResult is the outcome of login or session validation. An expired
// subscription does not end the session: it only denies further privileged
// action, which the permission gate enforces.
type SessionResult struct {
	Account             *domain.Account
	Operator            bool
	Token               string
	ExpiresAt           time.Time
	SubscriptionExpired bool
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:         deps.AccountRepo,
		resets:           deps.PasswordResetRepo,
		subscriptions:    deps.Subscription,
		tokenMgr:         auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:       cfg.Auth.BcryptCost,
		resetTTL:         time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		operatorEmail:    domain.NormalizeEmail(cfg.Auth.OperatorEmail),
		operatorPassword: cfg.Auth.OperatorPassword,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates the reserved operator identity or a tenant account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	email = domain.NormalizeEmail(email)
	if email == s.operatorEmail {
		if s.operatorPassword == "" ||
			subtle.ConstantTimeCompare([]byte(password), []byte(s.operatorPassword)) != 1 {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		token, exp, err := s.tokenMgr.GenerateToken(s.operatorEmail, domain.SubjectTypeOperator)
		if err != nil {
			return nil, err
		}
		return &SessionResult{Operator: true, Token: token, ExpiresAt: exp}, nil
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}

	return s.openSession(ctx, account, time.Now())
}

// ValidateSession re-checks an account on session resumption: suspension
// denies outright, expiry is marked lazily and reported.
func (s *AuthService) ValidateSession(ctx context.Context, email string, now time.Time) (*SessionResult, error) {
	email = domain.NormalizeEmail(email)
	if email == s.operatorEmail {
		return &SessionResult{Operator: true}, nil
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewAccountNotFound(email)
		}
		return nil, err
	}

	result, err := s.checkAccount(ctx, account, now)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AuthService) openSession(ctx context.Context, account *domain.Account, now time.Time) (*SessionResult, error) {
	result, err := s.checkAccount(ctx, account, now)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.Email, domain.SubjectTypeAccount)
	if err != nil {
		return nil, err
	}
	result.Token = token
	result.ExpiresAt = exp
	return result, nil
}

func (s *AuthService) checkAccount(ctx context.Context, account *domain.Account, now time.Time) (*SessionResult, error) {
	if account.Status == domain.AccountStatusSuspended {
		return nil, util.NewAccountSuspended()
	}

	// The MAIN account's expiry is authoritative for its sub-accounts.
	subject := account
	if !account.IsMain() && account.OwnerEmail != nil {
		owner, err := s.accounts.GetByEmail(ctx, *account.OwnerEmail)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, util.NewAccountNotFound(*account.OwnerEmail)
			}
			return nil, err
		}
		subject = owner
	}

	expired, err := s.subscriptions.CheckExpiry(ctx, subject, now)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Account: account, SubscriptionExpired: expired}, nil
}

// RequestPasswordReset persists a reset token for the account email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	email = domain.NormalizeEmail(email)
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewAccountNotFound(email)
		}
		return nil, err
	}

	token := &repository.PasswordResetToken{
		AccountEmail: account.Email,
		Token:        uuid.NewString(),
		ExpiresAt:    time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return util.NewUnauthorized("invalid reset token")
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return util.NewUnauthorized("token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetByEmail(ctx, token.AccountEmail)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}
