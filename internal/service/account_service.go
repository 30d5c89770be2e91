package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-core/internal/auth"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/pkg/util"
)

// AccountService owns the account directory: registration, sub-user
// creation and suspension toggles. Accounts are never physically deleted.
type AccountService struct {
	accounts      repository.AccountRepository
	permissions   *PermissionService
	subscriptions *SubscriptionService
	dispatcher    events.Dispatcher
	bcryptCost    int
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	AccountRepo  repository.AccountRepository
	Permissions  *PermissionService
	Subscription *SubscriptionService
	Dispatcher   events.Dispatcher
	BcryptCost   int
}

// AccountProfile describes a signup or sub-user creation payload.
type AccountProfile struct {
	Email    string
	Name     string
	Password string
	Role     domain.BusinessRole
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		accounts:      deps.AccountRepo,
		permissions:   deps.Permissions,
		subscriptions: deps.Subscription,
		dispatcher:    deps.Dispatcher,
		bcryptCost:    deps.BcryptCost,
	}
}

// RegisterTrialAccount creates a MAIN account on the trial plan. Identity
// verification (OTP or equivalent) is assumed complete before this call.
func (s *AccountService) RegisterTrialAccount(ctx context.Context, profile AccountProfile) (*domain.Account, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(profile.Email)
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, util.NewValidationError("email already registered", map[string]any{"email": email})
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(profile.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(profile.Name),
		PasswordHash: hash,
		Kind:         domain.AccountKindMain,
		Role:         profile.Role,
		Status:       domain.AccountStatusActive,
	}
	s.subscriptions.ApplyTrial(account, time.Now())

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateSubUser creates a SUB account under the caller's MAIN account.
// The gate is consulted with a live sub-user count, and the repository
// re-checks the limit inside the insert transaction so two concurrent
// creations cannot both slip under the cap.
func (s *AccountService) CreateSubUser(ctx context.Context, owner *domain.Account, profile AccountProfile) (*domain.Account, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	main, err := s.EffectiveAccount(ctx, owner)
	if err != nil {
		return nil, err
	}

	count, err := s.accounts.CountSubUsers(ctx, main.Email)
	if err != nil {
		return nil, err
	}
	if err := s.permissions.Check(main, domain.ActionCreateSubUser, domain.UsageSnapshot{SubUserCount: count}); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(profile.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	ownerEmail := main.Email
	// Plan and subscription fields mirror the owner at creation time;
	// the owner's expiry stays authoritative afterwards.
	sub := &domain.Account{
		Email:              domain.NormalizeEmail(profile.Email),
		Name:               strings.TrimSpace(profile.Name),
		PasswordHash:       hash,
		Kind:               domain.AccountKindSub,
		OwnerEmail:         &ownerEmail,
		Role:               profile.Role,
		Plan:               main.Plan,
		Status:             domain.AccountStatusActive,
		SubscriptionStatus: main.SubscriptionStatus,
		RegisteredAt:       time.Now(),
		ExpiresAt:          main.ExpiresAt,
	}

	limits := s.permissions.catalog.Limits(main.Plan)
	if err := s.accounts.CreateSubUser(ctx, sub, limits.MaxSubUsers); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventSubUserCreated,
		EntityID: sub.ID,
		Actor:    events.Actor{Kind: domain.ActorMain, Email: main.Email, Label: main.Name},
		Payload: events.SubUserCreatedPayload{
			OwnerEmail:   main.Email,
			SubUserEmail: sub.Email,
			Plan:         sub.Plan,
		},
	})
	return sub, nil
}

// ListSubUsers returns the sub-accounts owned by the caller's MAIN account.
func (s *AccountService) ListSubUsers(ctx context.Context, owner *domain.Account) ([]domain.Account, error) {
	main, err := s.EffectiveAccount(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.accounts.ListSubUsers(ctx, main.Email)
}

// GetByEmail loads an account, failing closed on unknown emails.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewAccountNotFound(email)
		}
		return nil, err
	}
	return account, nil
}

// AttachmentPermitted reports whether the acting account's plan allows file
// attachments. A plan that simply lacks the feature yields (false, nil);
// suspension and expiry keep their own typed denial so callers can tell the
// difference.
func (s *AccountService) AttachmentPermitted(ctx context.Context, account *domain.Account) (bool, error) {
	main, err := s.EffectiveAccount(ctx, account)
	if err != nil {
		return false, err
	}
	if err := s.permissions.Check(main, domain.ActionAttachFile, domain.UsageSnapshot{}); err != nil {
		if util.IsCode(err, util.CodeAttachmentNotPermitted) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EffectiveAccount resolves the account whose plan and expiry govern gate
// decisions: the account itself for MAIN, the owning MAIN for SUB.
func (s *AccountService) EffectiveAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, util.NewAccountNotFound("")
	}
	if account.IsMain() {
		return account, nil
	}
	if account.OwnerEmail == nil {
		return nil, util.NewAccountNotFound(account.Email)
	}
	return s.GetByEmail(ctx, *account.OwnerEmail)
}

// SetSuspended toggles soft suspension (administrative).
func (s *AccountService) SetSuspended(ctx context.Context, email string, suspended bool) (*domain.Account, error) {
	account, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	status := domain.AccountStatusActive
	if suspended {
		status = domain.AccountStatusSuspended
	}
	if account.Status == status {
		return account, nil
	}

	account.Status = status
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventAccountSuspensionSet,
		EntityID: account.ID,
		Actor:    events.Actor{Kind: domain.ActorOperator},
		Payload:  events.AccountSuspensionSetPayload{Status: status},
	})
	return account, nil
}

func validateProfile(profile AccountProfile) error {
	if strings.TrimSpace(profile.Email) == "" || strings.TrimSpace(profile.Name) == "" || profile.Password == "" {
		return util.NewValidationError("name, email, password required", nil)
	}
	return nil
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
