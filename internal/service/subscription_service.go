package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/pkg/util"
)

// SubscriptionService computes and extends expiry, detects expiration and
// transitions plans. Expiry is detected lazily at the point of use; there
// is no background sweep.
type SubscriptionService struct {
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	trialDays  atomic.Int64
}

// NewSubscriptionService constructs the service.
func NewSubscriptionService(accounts repository.AccountRepository, dispatcher events.Dispatcher, trialDays int) *SubscriptionService {
	s := &SubscriptionService{accounts: accounts, dispatcher: dispatcher}
	if trialDays <= 0 {
		trialDays = 30
	}
	s.trialDays.Store(int64(trialDays))
	return s
}

// TrialDays returns the current trial length.
func (s *SubscriptionService) TrialDays() int {
	return int(s.trialDays.Load())
}

// SetTrialDays changes the process-wide trial length (administrative).
func (s *SubscriptionService) SetTrialDays(days int) error {
	if days <= 0 {
		return util.NewValidationError("trial days must be positive", map[string]any{"days": days})
	}
	s.trialDays.Store(int64(days))
	return nil
}

// ApplyTrial stamps trial subscription fields onto a new account.
func (s *SubscriptionService) ApplyTrial(account *domain.Account, now time.Time) {
	account.Plan = domain.PlanFree
	account.SubscriptionStatus = domain.SubscriptionActive
	account.RegisteredAt = now
	account.ExpiresAt = now.AddDate(0, 0, s.TrialDays())
}

// ExtendOrChangePlan moves the account to newPlan and extends coverage by
// daysToAdd from the later of now and the current expiry: a renewal before
// expiry is not wasted and a renewal after expiry does not backdate.
func (s *SubscriptionService) ExtendOrChangePlan(ctx context.Context, email string, newPlan domain.Plan, daysToAdd int) (*domain.Account, error) {
	if !domain.ValidPlan(newPlan) {
		return nil, util.NewValidationError("unknown plan", map[string]any{"plan": newPlan})
	}
	if daysToAdd <= 0 {
		return nil, util.NewValidationError("days to add must be positive", map[string]any{"days": daysToAdd})
	}

	email = domain.NormalizeEmail(email)
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewAccountNotFound(email)
		}
		return nil, err
	}
	if !account.IsMain() {
		return nil, util.NewValidationError("plan changes apply to main accounts only", nil)
	}

	now := time.Now()
	base := account.ExpiresAt
	if now.After(base) {
		base = now
	}

	oldPlan := account.Plan
	account.Plan = newPlan
	account.ExpiresAt = base.AddDate(0, 0, daysToAdd)
	account.SubscriptionStatus = domain.SubscriptionActive

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventPlanChanged,
		EntityID: account.ID,
		Actor:    events.Actor{Kind: domain.ActorMain, Email: account.Email, Label: account.Name},
		Payload: events.PlanChangedPayload{
			OldPlan:      oldPlan,
			NewPlan:      newPlan,
			DaysAdded:    daysToAdd,
			NewExpiresAt: account.ExpiresAt,
		},
	})
	return account, nil
}

// CheckExpiry reports whether the account's subscription has lapsed at the
// given instant. A lapsed subscription is marked EXPIRED as a side effect;
// repeated calls are idempotent and mutate nothing further.
func (s *SubscriptionService) CheckExpiry(ctx context.Context, account *domain.Account, now time.Time) (bool, error) {
	if !account.ExpiresAt.Before(now) {
		return false, nil
	}
	if account.SubscriptionStatus == domain.SubscriptionExpired {
		return true, nil
	}

	account.SubscriptionStatus = domain.SubscriptionExpired
	if err := s.accounts.Update(ctx, account); err != nil {
		return true, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventSubscriptionExpired,
		EntityID: account.ID,
		Actor:    events.Actor{Kind: domain.ActorMain, Email: account.Email, Label: account.Name},
		Payload: events.SubscriptionExpiredPayload{
			Plan:      account.Plan,
			ExpiredAt: account.ExpiresAt,
		},
	})
	return true, nil
}

func (s *SubscriptionService) publish(ctx context.Context, event events.Event) {
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
